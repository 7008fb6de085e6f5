package api

import (
	"github.com/goccy/go-json"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/controller"
	"github.com/matheus3301/crmchat/internal/conv"
	"github.com/matheus3301/crmchat/internal/rest"
	"github.com/matheus3301/crmchat/internal/store"
	"github.com/matheus3301/crmchat/internal/transfer"
)

type Empty struct{}

type StatusRequest struct{}

type StatusResponse struct {
	Profile       string   `json:"profile"`
	UserID        string   `json:"userId"`
	State         string   `json:"state"`
	SinceMs       int64    `json:"sinceMs"`
	UptimeMs      int64    `json:"uptimeMs"`
	Connected     bool     `json:"connected"`
	Active        chat.Key `json:"active"`
	TotalUnread   int      `json:"totalUnread"`
	Conversations int      `json:"conversations"`
	Archived      int64    `json:"archived"`
	Refetches     int      `json:"refetches"`
}

type ConversationsRequest struct{}

type ConversationsResponse struct {
	Active        chat.Key       `json:"active"`
	Conversations []conv.Summary `json:"conversations"`
	TotalUnread   int            `json:"totalUnread"`
}

// OpenConversationRequest names a conversation as "direct:<id>" or
// "group:<id>".
type OpenConversationRequest struct {
	Key string `json:"key"`
}

type OpenConversationResponse struct {
	Key  chat.Key `json:"key"`
	Name string   `json:"name"`
}

type CloseConversationRequest struct{}

// LogRequest reads a conversation log; an empty Key means the active one.
type LogRequest struct {
	Key   string `json:"key,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type LogResponse struct {
	Key      chat.Key       `json:"key"`
	Name     string         `json:"name"`
	Messages []chat.Message `json:"messages"`
}

type SendTextRequest struct {
	Body string `json:"body"`
}

type SendTextResponse = controller.SendResult

type StageRequest struct {
	Path string `json:"path"`
}

type StageResponse struct {
	Upload *transfer.PendingUpload `json:"upload"`
}

type CancelStageRequest struct{}

type CancelStageResponse struct {
	Cancelled bool `json:"cancelled"`
}

// SendFileRequest uploads Path, or the staged file when Path is empty.
type SendFileRequest struct {
	Body string `json:"body,omitempty"`
	Path string `json:"path,omitempty"`
}

type SendFileResponse = controller.UploadEvent

type CreateGroupRequest = rest.CreateGroupRequest

type CreateGroupResponse struct {
	Group chat.Group `json:"group"`
}

type RefreshRequest struct{}

type RefreshResponse struct {
	Contacts int `json:"contacts"`
	Groups   int `json:"groups"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Key   string `json:"key,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type SearchResponse struct {
	Results []store.SearchResult `json:"results"`
}

// DownloadRequest saves attachment File as Name into Dir (the profile
// download directory when empty).
type DownloadRequest struct {
	File string `json:"file"`
	Name string `json:"name,omitempty"`
	Dir  string `json:"dir,omitempty"`
}

type DownloadResponse = rest.DownloadResult

// WatchRequest filters the event stream by kind prefix, e.g.
// "conversation." or "connection.". Empty means everything.
type WatchRequest struct {
	Namespace string `json:"namespace,omitempty"`
}

// Event is one bus event as seen by API clients.
type Event struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	OccurredAtMs int64           `json:"occurredAtMs"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}
