package controller

import (
	"time"

	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/transport"
	"github.com/matheus3301/crmchat/internal/unread"
	"go.uber.org/zap"
)

// Appended is published on conversation.appended; clients scroll to it.
type Appended struct {
	Key     chat.Key     `json:"key"`
	Message chat.Message `json:"message"`
}

// UnreadUpdated is published on conversation.unread_updated.
type UnreadUpdated struct {
	Total int `json:"total"`
}

// Badge is published on notification.badge.
type Badge struct {
	Total int `json:"total"`
}

func (c *Controller) subscribe() {
	on := func(event string, h transport.Handler) {
		c.subs = append(c.subs, c.ch.On(event, h))
	}
	on(chat.EventReceiveMessage, c.pushHandler)
	on(chat.EventReceiveGroupMessage, c.pushHandler)
	on(chat.EventSendNotification, c.notificationHandler)
	on(chat.EventNewNotification, c.notificationHandler)
	on(chat.EventOnlineStatus, c.presenceHandler)
	on(transport.EventConnect, func(transport.Event) { c.post(c.onConnect) })
	on(transport.EventDisconnect, func(transport.Event) { c.post(c.onDisconnect) })
}

func (c *Controller) pushHandler(evt transport.Event) {
	m, err := chat.DecodeMessage(evt.RawArg(0))
	if err != nil {
		c.logger.Warn("undecodable message push", zap.String("event", evt.Name), zap.Error(err))
		return
	}
	c.post(func() { c.onPush(m) })
}

// onPush classifies m against the active conversation and applies it in
// one step.
func (c *Controller) onPush(m chat.Message) {
	k := m.Key(c.self)
	at := m.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}

	if !c.active.IsZero() && m.Belongs(c.active, c.self) {
		if !c.store.Append(c.active, m) {
			c.logger.Debug("duplicate message dropped", zap.String("id", m.ID))
			return
		}
		c.store.Touch(c.active, at)
		c.archive(c.active, []chat.Message{m})
		c.bus.Emit(bus.KindConversationAppended, Appended{Key: c.active, Message: m})
		if !m.FromSelf(c.self) {
			if err := c.emitReadAck(c.active); err != nil {
				c.logger.Debug("read ack failed", zap.Error(err))
			}
		}
		return
	}

	if c.store.Known(k) {
		c.store.Touch(k, at)
		c.archive(k, []chat.Message{m})
	} else {
		c.logger.Debug("push for unknown conversation", zap.String("conversation", k.String()))
	}
	c.unread.Trigger()
}

func (c *Controller) notificationHandler(transport.Event) {
	c.post(c.unread.Trigger)
}

func (c *Controller) presenceHandler(evt transport.Event) {
	var p chat.Presence
	if err := evt.Arg(0, &p); err != nil {
		c.logger.Warn("undecodable presence push", zap.Error(err))
		return
	}
	c.post(func() {
		if c.store.SetOnline(p.UserID, p.Online) {
			c.bus.Emit(bus.KindDirectoryUpdated, nil)
		}
	})
}

// onConnect runs after every (re)connect: answers to requests sent on the
// old connection will not come, so the active conversation is requested
// again and counters are resynced.
func (c *Controller) onConnect() {
	clear(c.pending)
	if !c.active.IsZero() {
		c.requestHistory(c.active)
	}
	c.unread.Trigger()
}

func (c *Controller) onDisconnect() {
	clear(c.pending)
	c.held = nil
}

func (c *Controller) applyUnread(s unread.Snapshot) {
	c.store.ApplySnapshot(chat.KindDirect, s.Direct, c.active)
	c.store.ApplySnapshot(chat.KindGroup, s.Group, c.active)
	c.bus.Emit(bus.KindUnreadUpdated, UnreadUpdated{Total: c.store.TotalUnread()})
}

func (c *Controller) refreshBadge() {
	c.bus.Emit(bus.KindBadgeRefresh, Badge{Total: c.store.TotalUnread()})
	if c.opts.Badge != nil {
		c.opts.Badge.RefreshBadge()
	}
}
