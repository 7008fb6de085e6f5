package model

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	"github.com/matheus3301/crmchat/internal/api"
	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/conv"
	"github.com/matheus3301/crmchat/internal/store"
	"github.com/matheus3301/crmchat/internal/transfer"
)

// threadLimit caps how many messages the thread view renders.
const threadLimit = 300

// Daemon is the subset of the API client the view model needs.
type Daemon interface {
	Status(ctx context.Context) (*api.StatusResponse, error)
	Conversations(ctx context.Context) (*api.ConversationsResponse, error)
	OpenConversation(ctx context.Context, key string) (*api.OpenConversationResponse, error)
	Log(ctx context.Context, key string, limit int) (*api.LogResponse, error)
	SendText(ctx context.Context, body string) (*api.SendTextResponse, error)
	Stage(ctx context.Context, path string) (*api.StageResponse, error)
	CancelStage(ctx context.Context) (*api.CancelStageResponse, error)
	SendFile(ctx context.Context, body, path string) (*api.SendFileResponse, error)
	Search(ctx context.Context, query, key string, limit int) (*api.SearchResponse, error)
	Download(ctx context.Context, file, name, dir string) (*api.DownloadResponse, error)
}

// ViewModel caches daemon state for the views.
type ViewModel struct {
	mu sync.RWMutex

	daemon        Daemon
	status        *api.StatusResponse
	conversations []conv.Summary
	active        chat.Key
	activeName    string
	messages      []chat.Message
	staged        *transfer.PendingUpload
}

// NewViewModel creates a new view model connected to the daemon.
func NewViewModel(d Daemon) *ViewModel {
	return &ViewModel{daemon: d}
}

// LoadStatus fetches the daemon status.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	resp, err := vm.daemon.Status(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.status = resp
	vm.mu.Unlock()
	return nil
}

// LoadConversations fetches the conversation list and the active key.
func (vm *ViewModel) LoadConversations(ctx context.Context) error {
	resp, err := vm.daemon.Conversations(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.conversations = resp.Conversations
	vm.active = resp.Active
	vm.mu.Unlock()
	return nil
}

// Open makes k the active conversation and loads its log.
func (vm *ViewModel) Open(ctx context.Context, k chat.Key) error {
	resp, err := vm.daemon.OpenConversation(ctx, k.String())
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.active = resp.Key
	vm.activeName = resp.Name
	vm.messages = nil
	vm.staged = nil
	vm.mu.Unlock()
	return vm.LoadThread(ctx)
}

// LoadThread refetches the active conversation log.
func (vm *ViewModel) LoadThread(ctx context.Context) error {
	k := vm.Active()
	if k.IsZero() {
		return nil
	}
	resp, err := vm.daemon.Log(ctx, k.String(), threadLimit)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	if vm.active == k {
		vm.messages = resp.Messages
	}
	vm.mu.Unlock()
	return nil
}

// SendText sends body to the active conversation and reports whether it
// was queued for later delivery.
func (vm *ViewModel) SendText(ctx context.Context, body string) (bool, error) {
	resp, err := vm.daemon.SendText(ctx, body)
	if err != nil {
		return false, err
	}
	return resp.Queued, nil
}

// Stage stages path as the pending attachment.
func (vm *ViewModel) Stage(ctx context.Context, path string) (*transfer.PendingUpload, error) {
	resp, err := vm.daemon.Stage(ctx, path)
	if err != nil {
		return nil, err
	}
	vm.mu.Lock()
	vm.staged = resp.Upload
	vm.mu.Unlock()
	return resp.Upload, nil
}

// CancelStage discards the pending attachment.
func (vm *ViewModel) CancelStage(ctx context.Context) (bool, error) {
	resp, err := vm.daemon.CancelStage(ctx)
	if err != nil {
		return false, err
	}
	vm.mu.Lock()
	vm.staged = nil
	vm.mu.Unlock()
	return resp.Cancelled, nil
}

// SendStaged uploads the pending attachment with body as its caption.
func (vm *ViewModel) SendStaged(ctx context.Context, body string) (*api.SendFileResponse, error) {
	resp, err := vm.daemon.SendFile(ctx, body, "")
	if err != nil {
		return nil, err
	}
	vm.mu.Lock()
	vm.staged = nil
	vm.mu.Unlock()
	return resp, nil
}

// Search queries the local archive.
func (vm *ViewModel) Search(ctx context.Context, query string) ([]store.SearchResult, error) {
	resp, err := vm.daemon.Search(ctx, query, "", 50)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Download saves an attachment into the profile download directory.
func (vm *ViewModel) Download(ctx context.Context, file, name string) (*api.DownloadResponse, error) {
	return vm.daemon.Download(ctx, file, name, "")
}

// Status returns the last fetched status, or nil.
func (vm *ViewModel) Status() *api.StatusResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}

// Conversations returns a snapshot of the conversation list.
func (vm *ViewModel) Conversations() []conv.Summary {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.conversations
}

// Active returns the active conversation key.
func (vm *ViewModel) Active() chat.Key {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.active
}

// ActiveName returns the display name of the active conversation.
func (vm *ViewModel) ActiveName() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.activeName != "" {
		return vm.activeName
	}
	for _, s := range vm.conversations {
		if s.Key == vm.active {
			return s.Name
		}
	}
	return vm.active.ID
}

// Messages returns a snapshot of the active conversation log.
func (vm *ViewModel) Messages() []chat.Message {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.messages
}

// Staged returns the pending attachment, or nil.
func (vm *ViewModel) Staged() *transfer.PendingUpload {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.staged
}

// Refresh is a set of views invalidated by an event.
type Refresh uint8

const (
	RefreshConversations Refresh = 1 << iota
	RefreshThread
	RefreshStatus
)

// Has reports whether r includes v.
func (r Refresh) Has(v Refresh) bool { return r&v != 0 }

// Route decides which views evt invalidates given the active conversation.
func Route(evt *api.Event, active chat.Key) Refresh {
	switch evt.Kind {
	case bus.KindStatusChanged:
		return RefreshStatus | RefreshConversations
	case bus.KindDirectoryUpdated, bus.KindUnreadUpdated, bus.KindBadgeRefresh:
		return RefreshConversations | RefreshStatus
	case bus.KindConversationOpened, bus.KindConversationClosed:
		return RefreshConversations | RefreshThread
	case bus.KindConversationAppended, bus.KindConversationReplaced,
		bus.KindMessageSent, bus.KindMessageQueued, bus.KindUploadFinished:
		var p struct {
			Key chat.Key `json:"key"`
		}
		if err := json.Unmarshal(evt.Payload, &p); err != nil || p.Key != active {
			return RefreshConversations
		}
		return RefreshConversations | RefreshThread
	}
	return 0
}

// Problem extracts a user-facing failure message from evt, if any.
func Problem(evt *api.Event) string {
	switch evt.Kind {
	case bus.KindMessageSendFailed, bus.KindUploadFailed:
		var p struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(evt.Payload, &p); err == nil && p.Error != "" {
			return "Send failed: " + p.Error
		}
		return "Send failed"
	case bus.KindNotificationError:
		var p struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(evt.Payload, &p); err == nil && p.Message != "" {
			return "Unread counts unavailable: " + p.Message
		}
		return "Unread counts unavailable"
	}
	return ""
}
