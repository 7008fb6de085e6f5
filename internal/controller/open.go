package controller

import (
	"context"
	"errors"

	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/transport"
	"go.uber.org/zap"
)

// archiveSeed is how many archived messages prefill a conversation that
// has no log yet, until the server history arrives.
const archiveSeed = 200

// Opened is published on conversation.opened.
type Opened struct {
	Key  chat.Key `json:"key"`
	Name string   `json:"name"`
}

// Replaced is published on conversation.replaced.
type Replaced struct {
	Key   chat.Key `json:"key"`
	Count int      `json:"count"`
}

// OpenDirect makes the direct conversation with contactID the active one.
func (c *Controller) OpenDirect(ctx context.Context, contactID string) error {
	return c.Open(ctx, chat.DirectKey(contactID))
}

// OpenGroup makes group groupID the active conversation.
func (c *Controller) OpenGroup(ctx context.Context, groupID string) error {
	return c.Open(ctx, chat.GroupKey(groupID))
}

// Open makes k the active conversation: history and read acknowledgement
// are requested and its unread counter drops to zero at once.
func (c *Controller) Open(ctx context.Context, k chat.Key) error {
	return c.call(ctx, func() error { return c.open(k) })
}

// Close leaves the active conversation.
func (c *Controller) Close(ctx context.Context) error {
	return c.call(ctx, func() error {
		if c.active.IsZero() {
			return ErrNoActiveConversation
		}
		prev := c.active
		c.dropHistorySub()
		c.active = chat.Key{}
		c.gen++
		c.bus.Emit(bus.KindConversationClosed, Opened{Key: prev, Name: c.store.Name(prev)})
		return nil
	})
}

func (c *Controller) open(k chat.Key) error {
	if !c.store.Known(k) {
		return ErrUnknownConversation
	}
	if c.active.Kind != k.Kind || c.historySub == nil {
		c.dropHistorySub()
		sub := c.ch.On(historyEvent(k.Kind), c.historyHandler(k.Kind))
		c.historySub = &sub
		c.historyOf = k.Kind
	}
	c.active = k
	c.gen++
	c.store.ClearUnread(k)
	c.seedFromArchive(k)

	c.logger.Info("conversation opened", zap.String("conversation", k.String()))
	c.bus.Emit(bus.KindConversationOpened, Opened{Key: k, Name: c.store.Name(k)})
	c.refreshBadge()

	c.requestHistory(k)
	return nil
}

// dropHistorySub unsubscribes from history replies and forgets the
// requests of that kind: their replies can no longer be matched.
func (c *Controller) dropHistorySub() {
	if c.historySub == nil {
		return
	}
	c.ch.Off(*c.historySub)
	c.historySub = nil
	delete(c.pending, c.historyOf)
}

// requestHistory emits the history request and read acknowledgement for k.
// Groups are joined first so group pushes reach this client.
func (c *Controller) requestHistory(k chat.Key) {
	if !c.ch.Connected() {
		c.logger.Debug("offline, history request deferred to reconnect", zap.String("conversation", k.String()))
		return
	}
	var err error
	switch k.Kind {
	case chat.KindGroup:
		if err = c.emit(chat.EventJoinGroup, k.ID, c.self); err != nil {
			break
		}
		if err = c.emit(chat.EventGetGroupMessages, k.ID); err != nil {
			break
		}
		c.expectHistory(k)
	default:
		if err = c.emit(chat.EventGetMessages, chat.HistoryRequest{User1: c.self, User2: k.ID}); err != nil {
			break
		}
		c.expectHistory(k)
	}
	if err == nil {
		err = c.emitReadAck(k)
	}
	if err != nil && !errors.Is(err, transport.ErrNotConnected) {
		c.logger.Warn("history request failed", zap.String("conversation", k.String()), zap.Error(err))
	}
}

func (c *Controller) expectHistory(k chat.Key) {
	c.pending[k.Kind] = append(c.pending[k.Kind], historyRequest{key: k, gen: c.gen})
}

func (c *Controller) emitReadAck(k chat.Key) error {
	if k.Kind == chat.KindGroup {
		return c.emit(chat.EventMarkGroupAsRead, chat.GroupReadAck{UserID: c.self, GroupID: k.ID})
	}
	return c.emit(chat.EventMarkAsRead, chat.ReadAck{UserID: c.self, OtherUserID: k.ID})
}

func historyEvent(kind chat.Kind) string {
	if kind == chat.KindGroup {
		return chat.EventAllGroupMessages
	}
	return chat.EventAllMessages
}

func (c *Controller) historyHandler(kind chat.Kind) transport.Handler {
	return func(evt transport.Event) {
		msgs, err := chat.DecodeMessages(evt.RawArg(0))
		if err != nil {
			c.logger.Warn("undecodable history snapshot", zap.String("event", evt.Name), zap.Error(err))
			msgs = nil
		}
		c.post(func() { c.onHistory(kind, msgs, err == nil) })
	}
}

// onHistory matches a snapshot to the oldest outstanding request of its
// kind. Snapshots answering a request for a conversation that is no
// longer active are discarded.
func (c *Controller) onHistory(kind chat.Kind, msgs []chat.Message, ok bool) {
	q := c.pending[kind]
	if len(q) > 0 {
		req := q[0]
		c.pending[kind] = q[1:]
		if req.gen != c.gen || req.key != c.active {
			c.stale++
			c.logger.Debug("stale history snapshot discarded",
				zap.String("requested", req.key.String()), zap.String("active", c.active.String()))
			return
		}
	} else if !c.ownsAll(kind, msgs) {
		c.stale++
		c.logger.Debug("unsolicited history snapshot discarded", zap.Int("messages", len(msgs)))
		return
	}
	if !ok {
		return
	}

	k := c.active
	accepted := make([]chat.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Belongs(k, c.self) {
			accepted = append(accepted, m)
		}
	}
	c.store.Replace(k, accepted)
	c.archive(k, accepted)
	if n := len(accepted); n > 0 && c.store.LastActivity(k).IsZero() {
		c.store.Touch(k, accepted[n-1].CreatedAt)
	}
	c.bus.Emit(bus.KindConversationReplaced, Replaced{Key: k, Count: len(c.store.Log(k))})
}

// ownsAll accepts an unsolicited snapshot only when it is non-empty and
// every message belongs to the active conversation.
func (c *Controller) ownsAll(kind chat.Kind, msgs []chat.Message) bool {
	if c.active.IsZero() || c.active.Kind != kind || len(msgs) == 0 {
		return false
	}
	for _, m := range msgs {
		if !m.Belongs(c.active, c.self) {
			return false
		}
	}
	return true
}

func (c *Controller) seedFromArchive(k chat.Key) {
	if c.opts.Archive == nil || len(c.store.Log(k)) > 0 {
		return
	}
	msgs, err := c.opts.Archive.ListMessages(k, 0, archiveSeed)
	if err != nil {
		c.logger.Warn("read archived messages", zap.String("conversation", k.String()), zap.Error(err))
		return
	}
	if len(msgs) > 0 {
		c.store.Replace(k, msgs)
	}
}
