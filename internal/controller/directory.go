package controller

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/rest"
	"github.com/matheus3301/crmchat/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DirectoryUpdated is published on conversation.directory_updated.
type DirectoryUpdated struct {
	Contacts int `json:"contacts"`
	Groups   int `json:"groups"`
}

// RefreshDirectory refetches contacts and groups and replaces the cached
// directory.
func (c *Controller) RefreshDirectory(ctx context.Context) error {
	var (
		contacts []chat.Contact
		groups   []chat.Group
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contacts, err = c.opts.Directory.Contacts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = c.opts.Directory.Groups(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh directory: %w", err)
	}

	err := c.call(ctx, func() error {
		c.store.SetContacts(contacts)
		c.store.SetGroups(groups)
		c.bus.Emit(bus.KindDirectoryUpdated, DirectoryUpdated{Contacts: len(contacts), Groups: len(groups)})
		return nil
	})
	if err != nil {
		return err
	}

	if a := c.opts.Archive; a != nil {
		if err := a.ReplaceContacts(contacts); err != nil {
			c.logger.Warn("cache contacts", zap.Error(err))
		}
		if err := a.ReplaceGroups(groups); err != nil {
			c.logger.Warn("cache groups", zap.Error(err))
		}
		_ = a.SetSyncState(store.SyncDirectoryRefreshed, strconv.FormatInt(time.Now().UnixMilli(), 10))
	}
	c.logger.Info("directory refreshed", zap.Int("contacts", len(contacts)), zap.Int("groups", len(groups)))
	return nil
}

// ResyncUnread triggers one unread refetch.
func (c *Controller) ResyncUnread(ctx context.Context) error {
	return c.call(ctx, func() error {
		c.unread.Trigger()
		return nil
	})
}

// CreateGroup creates a group administered by the current user and adds
// it to the directory.
func (c *Controller) CreateGroup(ctx context.Context, req rest.CreateGroupRequest) (chat.Group, error) {
	g, err := c.opts.Directory.CreateGroup(ctx, req)
	if err != nil {
		return chat.Group{}, err
	}
	err = c.call(ctx, func() error {
		c.store.AddGroup(g)
		c.bus.Emit(bus.KindDirectoryUpdated, DirectoryUpdated{
			Contacts: len(c.store.Contacts()),
			Groups:   len(c.store.Groups()),
		})
		return nil
	})
	if err != nil {
		return g, err
	}
	if c.opts.Archive != nil {
		if err := c.opts.Archive.UpsertGroup(&g); err != nil {
			c.logger.Warn("cache group", zap.String("group", g.ID), zap.Error(err))
		}
	}
	c.logger.Info("group created", zap.String("group", g.ID), zap.String("name", g.Name))
	return g, nil
}
