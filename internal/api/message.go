package api

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

func (s *Service) SendText(ctx context.Context, req *SendTextRequest) (*SendTextResponse, error) {
	res, err := s.ctrl.SendText(ctx, req.Body)
	if err != nil {
		return nil, toStatus(err)
	}
	return &res, nil
}

func (s *Service) Stage(ctx context.Context, req *StageRequest) (*StageResponse, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "path is required")
	}
	p, err := s.ctrl.Stage(ctx, req.Path)
	if err != nil {
		return nil, toStatus(err)
	}
	return &StageResponse{Upload: p}, nil
}

func (s *Service) CancelStage(ctx context.Context, _ *CancelStageRequest) (*CancelStageResponse, error) {
	had, err := s.ctrl.CancelStaged(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CancelStageResponse{Cancelled: had}, nil
}

func (s *Service) SendFile(ctx context.Context, req *SendFileRequest) (*SendFileResponse, error) {
	evt, err := s.ctrl.SendWithAttachment(ctx, req.Body, req.Path)
	if err != nil {
		return nil, toStatus(err)
	}
	return &evt, nil
}

func (s *Service) Download(ctx context.Context, req *DownloadRequest) (*DownloadResponse, error) {
	if s.files == nil {
		return nil, grpcstatus.Error(codes.Unavailable, "file server not configured")
	}
	if strings.TrimSpace(req.File) == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "file is required")
	}
	dir := req.Dir
	if dir == "" {
		dir = s.downloadDir
	}
	res := s.files.Download(ctx, req.File, req.Name, dir)
	if res.Fallback {
		s.logger.Warn("download fell back to raw url", zap.String("file", req.File), zap.String("reason", res.Reason))
	}
	return &res, nil
}
