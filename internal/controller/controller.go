// Package controller is the chat core: it owns the conversation store and
// the active-conversation identity, and mediates between the transport,
// the REST directory and the unread aggregator.
//
// All state is confined to one loop goroutine. Transport handlers, REST
// completions and public calls post closures to it, so a push is
// classified and applied without the active conversation changing in
// between.
package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/conv"
	"github.com/matheus3301/crmchat/internal/rest"
	"github.com/matheus3301/crmchat/internal/transfer"
	"github.com/matheus3301/crmchat/internal/transport"
	"github.com/matheus3301/crmchat/internal/unread"
	"go.uber.org/zap"
)

var (
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrEmptyBody            = errors.New("message body is empty")
	ErrUnknownConversation  = errors.New("unknown conversation")
	ErrNothingStaged        = errors.New("no file staged")
	ErrStopped              = errors.New("controller stopped")
)

const defaultInboxSize = 256

// Directory is the REST side of the controller.
type Directory interface {
	Contacts(ctx context.Context) ([]chat.Contact, error)
	Groups(ctx context.Context) ([]chat.Group, error)
	CreateGroup(ctx context.Context, req rest.CreateGroupRequest) (chat.Group, error)
}

// Archive is the local sqlite cache.
type Archive interface {
	ArchiveMessages(k chat.Key, msgs []chat.Message) (int, error)
	ListMessages(k chat.Key, beforeMs int64, limit int) ([]chat.Message, error)
	ReplaceContacts(list []chat.Contact) error
	ReplaceGroups(list []chat.Group) error
	UpsertGroup(g *chat.Group) error
	ListContacts() ([]chat.Contact, error)
	ListGroups() ([]chat.Group, error)
	SetSyncState(key, value string) error
}

// Outbox holds texts written while the connection is down.
type Outbox interface {
	Enqueue(k chat.Key, body string) (string, error)
}

// Options configures a Controller. Channel, Directory and Unread are
// required; the rest may be nil.
type Options struct {
	Self      string
	SelfName  string
	Channel   transport.Channel
	Directory Directory
	Unread    unread.Fetcher
	Badge     unread.BadgeNotifier
	Archive   Archive
	Outbox    Outbox
	Bus       *bus.Bus
	Logger    *zap.Logger
	ChunkSize int
	InboxSize int
}

// frame is an emit held back while an upload owns the writer.
type frame struct {
	event string
	args  []any
}

type historyRequest struct {
	key chat.Key
	gen uint64
}

// Controller runs the chat core for one identity.
type Controller struct {
	opts    Options
	self    string
	ch      transport.Channel
	bus     *bus.Bus
	logger  *zap.Logger
	encoder transfer.Encoder

	inbox    chan func()
	quit     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once

	// uploadMu keeps a single upload outstanding per channel.
	uploadMu sync.Mutex

	subs []transport.Subscription

	// Loop-owned state below.
	store      *conv.Store
	unread     *unread.Aggregator
	active     chat.Key
	gen        uint64
	pending    map[chat.Kind][]historyRequest
	historySub *transport.Subscription
	historyOf  chat.Kind
	staged     *transfer.PendingUpload
	stale      int
	uploads    int
	held       []frame
}

// New creates a Controller. Call Start to run it.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = defaultInboxSize
	}
	c := &Controller{
		opts:     opts,
		self:     opts.Self,
		ch:       opts.Channel,
		bus:      opts.Bus,
		logger:   opts.Logger.Named("controller"),
		encoder:  transfer.Encoder{ChunkSize: opts.ChunkSize},
		inbox:    make(chan func(), opts.InboxSize),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
		store:    conv.New(opts.Self),
		pending:  make(map[chat.Kind][]historyRequest),
	}
	c.unread = unread.New(unread.Options{
		Fetcher: opts.Unread,
		Post:    func(fn func()) { c.post(fn) },
		Apply:   c.applyUnread,
		Badge:   unread.BadgeFunc(c.refreshBadge),
		Bus:     opts.Bus,
		Logger:  c.logger.Named("unread"),
	})
	return c
}

// Start loads the cached directory, subscribes to the channel and starts
// the loop.
func (c *Controller) Start() {
	c.loadCache()
	c.subscribe()
	go c.loop()
}

// Stop unsubscribes from the channel and stops the loop. Pending calls
// return ErrStopped.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		for _, sub := range c.subs {
			c.ch.Off(sub)
		}
		close(c.quit)
		<-c.loopDone
		if c.historySub != nil {
			c.ch.Off(*c.historySub)
			c.historySub = nil
		}
	})
}

func (c *Controller) loop() {
	defer close(c.loopDone)
	for {
		select {
		case fn := <-c.inbox:
			fn()
		case <-c.quit:
			return
		}
	}
}

// post queues fn on the loop. It reports false once the loop has stopped.
func (c *Controller) post(fn func()) bool {
	select {
	case c.inbox <- fn:
		return true
	case <-c.quit:
		return false
	}
}

// call runs fn on the loop and waits for its result.
func (c *Controller) call(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case c.inbox <- func() { errc <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.quit:
		return ErrStopped
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.quit:
		return ErrStopped
	}
}

func (c *Controller) loadCache() {
	if c.opts.Archive == nil {
		return
	}
	contacts, err := c.opts.Archive.ListContacts()
	if err != nil {
		c.logger.Warn("load cached contacts", zap.Error(err))
	} else {
		c.store.SetContacts(contacts)
	}
	groups, err := c.opts.Archive.ListGroups()
	if err != nil {
		c.logger.Warn("load cached groups", zap.Error(err))
	} else {
		c.store.SetGroups(groups)
	}
}

func (c *Controller) archive(k chat.Key, msgs []chat.Message) {
	if c.opts.Archive == nil || len(msgs) == 0 {
		return
	}
	if _, err := c.opts.Archive.ArchiveMessages(k, msgs); err != nil {
		c.logger.Warn("archive messages", zap.String("conversation", k.String()), zap.Error(err))
	}
}

// emit writes a loop-side event. While an upload owns the writer the
// frame is held and written, in order, once the upload ends; the loop
// never waits on the writer.
func (c *Controller) emit(event string, args ...any) error {
	if c.uploads > 0 {
		c.held = append(c.held, frame{event: event, args: args})
		return nil
	}
	return c.ch.Emit(event, args...)
}

func (c *Controller) endUpload() {
	if c.uploads--; c.uploads > 0 {
		return
	}
	held := c.held
	c.held = nil
	for _, f := range held {
		if err := c.ch.Emit(f.event, f.args...); err != nil {
			c.logger.Debug("held frame dropped", zap.String("event", f.event), zap.Error(err))
		}
	}
}
