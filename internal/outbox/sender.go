// Package outbox drains text messages that were written while the chat
// connection was down.
package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/store"
	"github.com/matheus3301/crmchat/internal/transport"
	"go.uber.org/zap"
)

const pollInterval = 500 * time.Millisecond

// TextSender delivers one queued text to its conversation.
type TextSender interface {
	DeliverText(ctx context.Context, k chat.Key, body string) error
}

// OnlineChecker reports whether sending can be attempted.
type OnlineChecker interface {
	IsOnline() bool
}

// Queued is published on message.queued.
type Queued struct {
	ClientMsgID string   `json:"clientMsgId"`
	Key         chat.Key `json:"key"`
}

// Result is published on message.sent and message.send_failed.
type Result struct {
	ClientMsgID string   `json:"clientMsgId"`
	Key         chat.Key `json:"key"`
	Error       string   `json:"error,omitempty"`
}

// Sender drains the outbox through a TextSender while the connection is up.
type Sender struct {
	db     *store.DB
	sender TextSender
	bus    *bus.Bus
	online OnlineChecker
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewSender creates a new outbox sender. A nil online checker means always
// attempt delivery.
func NewSender(db *store.DB, sender TextSender, b *bus.Bus, online OnlineChecker, logger *zap.Logger) *Sender {
	return &Sender{
		db:     db,
		sender: sender,
		bus:    b,
		online: online,
		logger: logger,
	}
}

// Start begins polling the outbox for pending messages.
func (s *Sender) Start(ctx context.Context) {
	if n, err := s.db.ResetSendingOutbox(); err != nil {
		s.logger.Error("failed to reset outbox", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("requeued interrupted outbox entries", zap.Int64("count", n))
	}
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the sender loop.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.online != nil && !s.online.IsOnline() {
				continue
			}
			s.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) processPending(ctx context.Context) {
	pending, err := s.db.PendingOutbox()
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := s.db.MarkOutboxSending(entry.ClientMsgID); err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			continue
		}

		err := s.sender.DeliverText(ctx, entry.ConvKey, entry.Body)
		if errors.Is(err, transport.ErrNotConnected) || errors.Is(err, transport.ErrBusy) {
			// Connection dropped or an upload holds the writer; retry on
			// the next pass.
			if rerr := s.db.RequeueOutbox(entry.ClientMsgID); rerr != nil {
				s.logger.Error("failed to requeue", zap.Error(rerr), zap.String("client_msg_id", entry.ClientMsgID))
			}
			return
		}
		if err != nil {
			s.logger.Error("failed to send message", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			_ = s.db.MarkOutboxFailed(entry.ClientMsgID, err.Error())
			s.bus.Emit(bus.KindMessageSendFailed, Result{
				ClientMsgID: entry.ClientMsgID,
				Key:         entry.ConvKey,
				Error:       err.Error(),
			})
			continue
		}

		if err := s.db.MarkOutboxSent(entry.ClientMsgID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
		}
		s.logger.Info("message sent", zap.String("client_msg_id", entry.ClientMsgID))
		s.bus.Emit(bus.KindMessageSent, Result{ClientMsgID: entry.ClientMsgID, Key: entry.ConvKey})
	}
}
