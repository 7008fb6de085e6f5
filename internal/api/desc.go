package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "crmchat.v1.Chat"

// ChatServer is the local chat API served on the profile socket.
type ChatServer interface {
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
	Conversations(context.Context, *ConversationsRequest) (*ConversationsResponse, error)
	OpenConversation(context.Context, *OpenConversationRequest) (*OpenConversationResponse, error)
	CloseConversation(context.Context, *CloseConversationRequest) (*Empty, error)
	Log(context.Context, *LogRequest) (*LogResponse, error)
	SendText(context.Context, *SendTextRequest) (*SendTextResponse, error)
	Stage(context.Context, *StageRequest) (*StageResponse, error)
	CancelStage(context.Context, *CancelStageRequest) (*CancelStageResponse, error)
	SendFile(context.Context, *SendFileRequest) (*SendFileResponse, error)
	CreateGroup(context.Context, *CreateGroupRequest) (*CreateGroupResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	Download(context.Context, *DownloadRequest) (*DownloadResponse, error)
	Watch(*WatchRequest, EventStream) error
}

// EventStream is the server side of Watch.
type EventStream interface {
	Send(*Event) error
	Context() context.Context
}

func unary[Req, Resp any](name string, call func(ChatServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ChatServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ChatServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type eventStream struct {
	grpc.ServerStream
}

func (s *eventStream) Send(evt *Event) error { return s.ServerStream.SendMsg(evt) }

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatServer).Watch(in, &eventStream{stream})
}

// ChatServiceDesc describes ChatServer for grpc.Server.RegisterService.
var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Status", ChatServer.Status),
		unary("Conversations", ChatServer.Conversations),
		unary("OpenConversation", ChatServer.OpenConversation),
		unary("CloseConversation", ChatServer.CloseConversation),
		unary("Log", ChatServer.Log),
		unary("SendText", ChatServer.SendText),
		unary("Stage", ChatServer.Stage),
		unary("CancelStage", ChatServer.CancelStage),
		unary("SendFile", ChatServer.SendFile),
		unary("CreateGroup", ChatServer.CreateGroup),
		unary("Refresh", ChatServer.Refresh),
		unary("Search", ChatServer.Search),
		unary("Download", ChatServer.Download),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "crmchat/v1/chat",
}

// RegisterChatServer registers srv on s.
func RegisterChatServer(s grpc.ServiceRegistrar, srv ChatServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}
