// Package schedule runs the periodic resync jobs of the chat daemon.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// UnreadResyncSpec is how often unread counters are refetched even without
// a notification push.
const UnreadResyncSpec = "@every 1m"

const jobTimeout = 30 * time.Second

// Refresher is the work the scheduled jobs trigger.
type Refresher interface {
	RefreshDirectory(ctx context.Context) error
	ResyncUnread(ctx context.Context) error
}

// Manager owns the cron engine.
type Manager struct {
	engine        *cron.Cron
	logger        *zap.Logger
	directorySpec string
	directoryJob  *DirectoryJob
	unreadJob     *UnreadJob
}

// NewManager creates a manager whose directory refresh runs on
// directorySpec (standard cron with seconds, or a descriptor such as
// "@every 5m").
func NewManager(r Refresher, directorySpec string, logger *zap.Logger) *Manager {
	return &Manager{
		engine:        cron.New(cron.WithSeconds()),
		logger:        logger,
		directorySpec: directorySpec,
		directoryJob:  &DirectoryJob{refresher: r, logger: logger},
		unreadJob:     &UnreadJob{refresher: r, logger: logger},
	}
}

// RegisterJobs adds the directory refresh and unread resync jobs.
func (m *Manager) RegisterJobs() error {
	if _, err := m.engine.AddJob(m.directorySpec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(m.directoryJob)); err != nil {
		return fmt.Errorf("schedule directory refresh %q: %w", m.directorySpec, err)
	}
	if _, err := m.engine.AddJob(UnreadResyncSpec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(m.unreadJob)); err != nil {
		return fmt.Errorf("schedule unread resync: %w", err)
	}
	return nil
}

// Jobs reports how many jobs are registered.
func (m *Manager) Jobs() int { return len(m.engine.Entries()) }

func (m *Manager) Start() {
	m.logger.Info("scheduler started", zap.Int("jobs", m.Jobs()))
	m.engine.Start()
}

// Stop stops the engine and waits for running jobs to return.
func (m *Manager) Stop() {
	<-m.engine.Stop().Done()
	m.logger.Info("scheduler stopped")
}

// DirectoryJob refetches contacts and groups.
type DirectoryJob struct {
	refresher Refresher
	logger    *zap.Logger
}

func (j *DirectoryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := j.refresher.RefreshDirectory(ctx); err != nil {
		j.logger.Warn("scheduled directory refresh failed", zap.Error(err))
	}
}

// UnreadJob triggers an unread refetch.
type UnreadJob struct {
	refresher Refresher
	logger    *zap.Logger
}

func (j *UnreadJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := j.refresher.ResyncUnread(ctx); err != nil {
		j.logger.Warn("scheduled unread resync failed", zap.Error(err))
	}
}
