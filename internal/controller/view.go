package controller

import (
	"context"

	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/conv"
	"github.com/matheus3301/crmchat/internal/transfer"
)

// View is a consistent copy of the controller state.
type View struct {
	Self          string                  `json:"self"`
	Active        chat.Key                `json:"active"`
	ActiveName    string                  `json:"activeName,omitempty"`
	Log           []chat.Message          `json:"log"`
	Conversations []conv.Summary          `json:"conversations"`
	Staged        *transfer.PendingUpload `json:"staged,omitempty"`
	Connected     bool                    `json:"connected"`
	TotalUnread   int                     `json:"totalUnread"`
	Refetches     int                     `json:"refetches"`
	StaleHistory  int                     `json:"staleHistory"`
}

// Snapshot returns the current state.
func (c *Controller) Snapshot(ctx context.Context) (View, error) {
	var v View
	err := c.call(ctx, func() error {
		v = View{
			Self:          c.self,
			Active:        c.active,
			Log:           []chat.Message{},
			Conversations: c.store.Conversations(),
			Staged:        c.staged,
			Connected:     c.ch.Connected(),
			TotalUnread:   c.store.TotalUnread(),
			Refetches:     c.unread.Refetches(),
			StaleHistory:  c.stale,
		}
		if !c.active.IsZero() {
			v.ActiveName = c.store.Name(c.active)
			v.Log = c.store.Log(c.active)
		}
		return nil
	})
	return v, err
}

// Log returns the cached log of k, falling back to the archive for
// conversations with nothing in memory.
func (c *Controller) Log(ctx context.Context, k chat.Key, limit int) ([]chat.Message, error) {
	var msgs []chat.Message
	err := c.call(ctx, func() error {
		msgs = c.store.Log(k)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 && c.opts.Archive != nil {
		archived, err := c.opts.Archive.ListMessages(k, 0, limit)
		if err != nil {
			return nil, err
		}
		msgs = archived
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// Contacts returns the known contacts.
func (c *Controller) Contacts(ctx context.Context) ([]chat.Contact, error) {
	var out []chat.Contact
	err := c.call(ctx, func() error {
		out = c.store.Contacts()
		return nil
	})
	return out, err
}
