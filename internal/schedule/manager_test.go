package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingRefresher struct {
	directory atomic.Int32
	unread    atomic.Int32
	err       error
}

func (r *countingRefresher) RefreshDirectory(context.Context) error {
	r.directory.Add(1)
	return r.err
}

func (r *countingRefresher) ResyncUnread(context.Context) error {
	r.unread.Add(1)
	return r.err
}

func TestRegisterJobs(t *testing.T) {
	m := NewManager(&countingRefresher{}, "@every 5m", zap.NewNop())
	if err := m.RegisterJobs(); err != nil {
		t.Fatalf("RegisterJobs: %v", err)
	}
	if m.Jobs() != 2 {
		t.Fatalf("Jobs = %d, want 2", m.Jobs())
	}
}

func TestRegisterJobsRejectsBadSpec(t *testing.T) {
	m := NewManager(&countingRefresher{}, "every five minutes", zap.NewNop())
	if err := m.RegisterJobs(); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestJobsCallRefresher(t *testing.T) {
	r := &countingRefresher{err: errors.New("offline")}
	m := NewManager(r, "@every 5m", zap.NewNop())

	m.directoryJob.Run()
	m.unreadJob.Run()

	if r.directory.Load() != 1 || r.unread.Load() != 1 {
		t.Fatalf("directory=%d unread=%d, want 1 each", r.directory.Load(), r.unread.Load())
	}
}

func TestEngineRunsDirectoryJob(t *testing.T) {
	r := &countingRefresher{}
	m := NewManager(r, "* * * * * *", zap.NewNop())
	if err := m.RegisterJobs(); err != nil {
		t.Fatal(err)
	}
	m.Start()
	defer m.Stop()

	deadline := time.After(3 * time.Second)
	for r.directory.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("directory job never ran")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
