// Package api exposes the chat daemon to local clients over gRPC.
package api

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/controller"
	"github.com/matheus3301/crmchat/internal/rest"
	"github.com/matheus3301/crmchat/internal/status"
	"github.com/matheus3301/crmchat/internal/store"
	"github.com/matheus3301/crmchat/internal/transport"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// Downloader fetches stored attachments.
type Downloader interface {
	Download(ctx context.Context, file, name, dir string) rest.DownloadResult
}

// Service implements ChatServer on top of the controller.
type Service struct {
	profile     string
	userID      string
	downloadDir string
	startedAt   time.Time
	machine     *status.Machine
	ctrl        *controller.Controller
	db          *store.DB
	files       Downloader
	bus         *bus.Bus
	logger      *zap.Logger
}

var _ ChatServer = (*Service)(nil)

// Deps are the collaborators of a Service. DB and Files may be nil.
type Deps struct {
	Profile     string
	UserID      string
	DownloadDir string
	Machine     *status.Machine
	Controller  *controller.Controller
	DB          *store.DB
	Files       Downloader
	Bus         *bus.Bus
	Logger      *zap.Logger
}

// NewService creates the API service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{
		profile:     d.Profile,
		userID:      d.UserID,
		downloadDir: d.DownloadDir,
		startedAt:   time.Now(),
		machine:     d.Machine,
		ctrl:        d.Controller,
		db:          d.DB,
		files:       d.Files,
		bus:         d.Bus,
		logger:      d.Logger,
	}
}

func (s *Service) Status(ctx context.Context, _ *StatusRequest) (*StatusResponse, error) {
	v, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &StatusResponse{
		Profile:       s.profile,
		UserID:        s.userID,
		UptimeMs:      time.Since(s.startedAt).Milliseconds(),
		Connected:     v.Connected,
		Active:        v.Active,
		TotalUnread:   v.TotalUnread,
		Conversations: len(v.Conversations),
		Refetches:     v.Refetches,
	}
	if s.machine != nil {
		resp.State = string(s.machine.Current())
		resp.SinceMs = s.machine.Since().UnixMilli()
	}
	if s.db != nil {
		if n, err := s.db.MessageCount(); err == nil {
			resp.Archived = n
		}
	}
	return resp, nil
}

// Watch streams bus events until the client goes away.
func (s *Service) Watch(req *WatchRequest, stream EventStream) error {
	ch, unsub := s.bus.Subscribe(req.Namespace, 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			out := &Event{
				ID:           uuid.New().String(),
				Kind:         evt.Kind,
				OccurredAtMs: evt.Timestamp.UnixMilli(),
			}
			if evt.Payload != nil {
				raw, err := json.Marshal(evt.Payload)
				if err != nil {
					s.logger.Warn("unencodable event payload", zap.String("kind", evt.Kind), zap.Error(err))
				} else {
					out.Payload = raw
				}
			}
			if err := stream.Send(out); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

// toStatus maps domain errors to gRPC codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := grpcstatus.FromError(err); ok {
		return err
	}
	code := codes.Internal
	switch {
	case errors.Is(err, controller.ErrEmptyBody),
		errors.Is(err, rest.ErrInvalidGroup):
		code = codes.InvalidArgument
	case errors.Is(err, controller.ErrNoActiveConversation),
		errors.Is(err, controller.ErrNothingStaged):
		code = codes.FailedPrecondition
	case errors.Is(err, controller.ErrUnknownConversation),
		errors.Is(err, os.ErrNotExist):
		code = codes.NotFound
	case errors.Is(err, transport.ErrNotConnected), errors.Is(err, transport.ErrBusy),
		errors.Is(err, controller.ErrStopped),
		errors.Is(err, rest.ErrUnexpectedStatus):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	return grpcstatus.Error(code, err.Error())
}

func parseKey(s string) (chat.Key, error) {
	k, err := chat.ParseKey(s)
	if err != nil {
		return chat.Key{}, grpcstatus.Error(codes.InvalidArgument, err.Error())
	}
	return k, nil
}
