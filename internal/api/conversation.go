package api

import (
	"context"

	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/store"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

func (s *Service) Conversations(ctx context.Context, _ *ConversationsRequest) (*ConversationsResponse, error) {
	v, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ConversationsResponse{
		Active:        v.Active,
		Conversations: v.Conversations,
		TotalUnread:   v.TotalUnread,
	}, nil
}

func (s *Service) OpenConversation(ctx context.Context, req *OpenConversationRequest) (*OpenConversationResponse, error) {
	k, err := parseKey(req.Key)
	if err != nil {
		return nil, err
	}
	if err := s.ctrl.Open(ctx, k); err != nil {
		return nil, toStatus(err)
	}
	v, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OpenConversationResponse{Key: k, Name: v.ActiveName}, nil
}

func (s *Service) CloseConversation(ctx context.Context, _ *CloseConversationRequest) (*Empty, error) {
	if err := s.ctrl.Close(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *Service) Log(ctx context.Context, req *LogRequest) (*LogResponse, error) {
	if req.Key == "" {
		v, err := s.ctrl.Snapshot(ctx)
		if err != nil {
			return nil, toStatus(err)
		}
		if v.Active.IsZero() {
			return nil, grpcstatus.Error(codes.FailedPrecondition, "no active conversation")
		}
		msgs := v.Log
		if req.Limit > 0 && len(msgs) > req.Limit {
			msgs = msgs[len(msgs)-req.Limit:]
		}
		return &LogResponse{Key: v.Active, Name: v.ActiveName, Messages: msgs}, nil
	}

	k, err := parseKey(req.Key)
	if err != nil {
		return nil, err
	}
	msgs, err := s.ctrl.Log(ctx, k, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return &LogResponse{Key: k, Messages: msgs}, nil
}

func (s *Service) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*CreateGroupResponse, error) {
	g, err := s.ctrl.CreateGroup(ctx, *req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CreateGroupResponse{Group: g}, nil
}

func (s *Service) Refresh(ctx context.Context, _ *RefreshRequest) (*RefreshResponse, error) {
	if err := s.ctrl.RefreshDirectory(ctx); err != nil {
		return nil, toStatus(err)
	}
	if err := s.ctrl.ResyncUnread(ctx); err != nil {
		return nil, toStatus(err)
	}
	v, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &RefreshResponse{}
	for _, c := range v.Conversations {
		if c.Key.Kind == chat.KindGroup {
			resp.Groups++
		} else {
			resp.Contacts++
		}
	}
	return resp, nil
}

func (s *Service) Search(_ context.Context, req *SearchRequest) (*SearchResponse, error) {
	if s.db == nil {
		return nil, grpcstatus.Error(codes.Unavailable, "archive not available")
	}
	var k chat.Key
	if req.Key != "" {
		var err error
		if k, err = parseKey(req.Key); err != nil {
			return nil, err
		}
	}
	results, err := s.db.SearchMessages(req.Query, k, req.Limit)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "search messages: %v", err)
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	return &SearchResponse{Results: results}, nil
}
