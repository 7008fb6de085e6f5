// Package unread keeps the per-conversation unread counters in step with
// the server by refetching both snapshots whenever something may have
// changed them.
package unread

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/crmchat/internal/bus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 15 * time.Second

// Fetcher reads the server-side unread snapshots.
type Fetcher interface {
	UnreadCounts(ctx context.Context) (map[string]int, error)
	GroupUnreadCounts(ctx context.Context) (map[string]int, error)
}

// BadgeNotifier is told to recompute its badge after every refetch.
type BadgeNotifier interface {
	RefreshBadge()
}

// BadgeFunc adapts a function to BadgeNotifier.
type BadgeFunc func()

func (f BadgeFunc) RefreshBadge() { f() }

// Snapshot is one complete server view of the unread counters.
type Snapshot struct {
	Seq    uint64         `json:"seq"`
	Direct map[string]int `json:"direct"`
	Group  map[string]int `json:"group"`
}

// Notice is published on notification.error when a refetch fails.
type Notice struct {
	Seq     uint64 `json:"seq"`
	Message string `json:"message"`
}

// Options wires an Aggregator into its owner's loop.
type Options struct {
	Fetcher Fetcher
	// Post runs fn on the owner's loop. It must not block forever once the
	// loop has stopped.
	Post func(fn func())
	// Apply installs a snapshot; called on the owner's loop.
	Apply   func(Snapshot)
	Badge   BadgeNotifier
	Bus     *bus.Bus
	Logger  *zap.Logger
	Timeout time.Duration
}

// Aggregator triggers refetches and applies their results in order.
// Trigger and the completion callbacks run on the owner's loop, so no
// locking is needed.
type Aggregator struct {
	opts      Options
	seq       uint64
	applied   uint64
	refetches int
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Badge == nil {
		opts.Badge = BadgeFunc(func() {})
	}
	return &Aggregator{opts: opts}
}

// Trigger starts exactly one refetch of both snapshots.
func (a *Aggregator) Trigger() {
	a.seq++
	a.refetches++
	seq := a.seq
	go func() {
		snap, err := a.fetch(seq)
		a.opts.Post(func() { a.complete(seq, snap, err) })
	}()
}

// Refetches reports how many refetches have been triggered.
func (a *Aggregator) Refetches() int { return a.refetches }

// Applied is the sequence number of the last snapshot installed.
func (a *Aggregator) Applied() uint64 { return a.applied }

func (a *Aggregator) fetch(seq uint64) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.Timeout)
	defer cancel()

	snap := Snapshot{Seq: seq}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := a.opts.Fetcher.UnreadCounts(gctx)
		if err != nil {
			return err
		}
		snap.Direct = counts
		return nil
	})
	g.Go(func() error {
		counts, err := a.opts.Fetcher.GroupUnreadCounts(gctx)
		if err != nil {
			return err
		}
		snap.Group = counts
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("fetch unread counts: %w", err)
	}
	return snap, nil
}

func (a *Aggregator) complete(seq uint64, snap Snapshot, err error) {
	if seq <= a.applied {
		a.opts.Logger.Debug("stale unread snapshot ignored",
			zap.Uint64("seq", seq), zap.Uint64("applied", a.applied))
		return
	}
	if err != nil {
		a.opts.Logger.Warn("unread refetch failed", zap.Uint64("seq", seq), zap.Error(err))
		a.opts.Bus.Emit(bus.KindNotificationError, Notice{Seq: seq, Message: err.Error()})
		a.opts.Badge.RefreshBadge()
		return
	}
	a.applied = seq
	a.opts.Apply(snap)
	a.opts.Badge.RefreshBadge()
}
