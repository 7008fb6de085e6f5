package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/transfer"
	"github.com/matheus3301/crmchat/internal/transport"
	"go.uber.org/zap"
)

// SendResult tells the caller what happened to a text.
type SendResult struct {
	Key         chat.Key `json:"key"`
	Queued      bool     `json:"queued"`
	ClientMsgID string   `json:"clientMsgId,omitempty"`
}

// Sent is published on message.sent for texts emitted directly.
type Sent struct {
	Key chat.Key `json:"key"`
}

// UploadEvent is published on upload.started, upload.finished and
// upload.failed.
type UploadEvent struct {
	Key   chat.Key      `json:"key"`
	Name  string        `json:"name"`
	Kind  transfer.Kind `json:"kind"`
	Size  int64         `json:"size"`
	Bytes int64         `json:"bytes,omitempty"`
	Error string        `json:"error,omitempty"`
}

// SendText sends body to the active conversation. A blank body is
// rejected before anything is emitted. While disconnected, or while an
// upload owns the writer, the text goes to the outbox.
func (c *Controller) SendText(ctx context.Context, body string) (SendResult, error) {
	if strings.TrimSpace(body) == "" {
		return SendResult{}, ErrEmptyBody
	}
	var res SendResult
	err := c.call(ctx, func() error {
		if c.active.IsZero() {
			return ErrNoActiveConversation
		}
		res.Key = c.active
		err := c.emitText(c.active, body)
		if !errors.Is(err, transport.ErrNotConnected) && !errors.Is(err, transport.ErrBusy) {
			return err
		}
		if c.opts.Outbox == nil {
			return err
		}
		id, qerr := c.opts.Outbox.Enqueue(c.active, body)
		if qerr != nil {
			return fmt.Errorf("queue message: %w", qerr)
		}
		res.Queued = true
		res.ClientMsgID = id
		return nil
	})
	return res, err
}

// DeliverText sends a queued text to k. The outbox sender calls it once
// the connection is back.
func (c *Controller) DeliverText(ctx context.Context, k chat.Key, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	return c.call(ctx, func() error { return c.emitText(k, body) })
}

func (c *Controller) emitText(k chat.Key, body string) error {
	if !c.ch.Connected() {
		return transport.ErrNotConnected
	}
	if c.uploads > 0 {
		return transport.ErrBusy
	}
	var err error
	if k.Kind == chat.KindGroup {
		err = c.ch.Emit(chat.EventSendGroupMessage, chat.OutgoingGroupText{
			Sender:  c.self,
			GroupID: k.ID,
			Message: body,
		})
	} else {
		err = c.ch.Emit(chat.EventSendMessage, chat.OutgoingText{
			Sender:     c.self,
			SenderName: c.opts.SelfName,
			Recipient:  k.ID,
			Message:    body,
		})
	}
	if err != nil {
		return err
	}
	c.store.Touch(k, time.Now())
	c.bus.Emit(bus.KindMessageSent, Sent{Key: k})
	return nil
}

// Stage prepares path as the pending attachment and returns its preview.
func (c *Controller) Stage(ctx context.Context, path string) (*transfer.PendingUpload, error) {
	p, err := transfer.Stage(path)
	if err != nil {
		return nil, err
	}
	err = c.call(ctx, func() error {
		c.staged = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CancelStaged drops the pending attachment. It reports whether one was
// staged.
func (c *Controller) CancelStaged(ctx context.Context) (bool, error) {
	var had bool
	err := c.call(ctx, func() error {
		had = c.staged != nil
		c.staged = nil
		return nil
	})
	return had, err
}

// SendWithAttachment uploads a file with an optional body to the active
// conversation. An empty path sends the staged file. Uploads are refused
// while disconnected and run one at a time; no other event is emitted
// between the start event and the end marker.
func (c *Controller) SendWithAttachment(ctx context.Context, body, path string) (UploadEvent, error) {
	var (
		k      chat.Key
		upload *transfer.PendingUpload
		staged bool
	)
	err := c.call(ctx, func() error {
		if c.active.IsZero() {
			return ErrNoActiveConversation
		}
		if !c.ch.Connected() {
			return transport.ErrNotConnected
		}
		k = c.active
		if path == "" {
			if c.staged == nil {
				return ErrNothingStaged
			}
			upload, staged = c.staged, true
		}
		c.uploads++
		return nil
	})
	if err != nil {
		return UploadEvent{}, err
	}
	done := false
	defer func() {
		c.post(func() {
			if done {
				c.store.Touch(k, time.Now())
				if staged && c.staged == upload {
					c.staged = nil
				}
			}
			c.endUpload()
		})
	}()
	if upload == nil {
		if upload, err = transfer.Stage(path); err != nil {
			return UploadEvent{}, err
		}
	}

	c.uploadMu.Lock()
	defer c.uploadMu.Unlock()

	evt := UploadEvent{Key: k, Name: upload.Name, Kind: upload.Kind, Size: upload.Size}
	f, err := upload.Open()
	if err != nil {
		return evt, fmt.Errorf("open %s: %w", upload.Path, err)
	}
	defer func() { _ = f.Close() }()

	start := chat.UploadStart{FileName: upload.Name, Sender: c.self, Message: body}
	startEvent := chat.EventStartUpload
	if k.Kind == chat.KindGroup {
		start.GroupID = k.ID
		startEvent = chat.EventStartGroupUpload
	} else {
		start.Recipient = k.ID
	}

	c.bus.Emit(bus.KindUploadStarted, evt)
	c.logger.Info("upload started", zap.String("conversation", k.String()),
		zap.String("file", upload.Name), zap.Int64("size", upload.Size))

	err = c.ch.Stream(ctx, func(em transport.Emitter) error {
		n, err := c.encoder.Upload(em, startEvent, start, f)
		evt.Bytes = n
		return err
	})
	if err != nil {
		evt.Error = err.Error()
		c.bus.Emit(bus.KindUploadFailed, evt)
		c.logger.Warn("upload failed", zap.String("file", upload.Name), zap.Error(err))
		return evt, fmt.Errorf("upload %s: %w", upload.Name, err)
	}

	done = true
	c.bus.Emit(bus.KindUploadFinished, evt)
	c.logger.Info("upload finished", zap.String("file", upload.Name), zap.Int64("bytes", evt.Bytes))
	return evt, nil
}
