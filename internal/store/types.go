package store

import "github.com/matheus3301/crmchat/internal/chat"

// Outbox entry statuses.
const (
	OutboxQueued  = "queued"
	OutboxSending = "sending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxEntry is a text message waiting for the connection to come back.
type OutboxEntry struct {
	ID           int64
	ClientMsgID  string
	ConvKey      chat.Key
	Body         string
	Status       string
	ErrorMessage string
	CreatedAt    int64
}

// SearchResult is an archived message matching a search, with a short
// excerpt around the match.
type SearchResult struct {
	Key     chat.Key     `json:"key"`
	Message chat.Message `json:"message"`
	Snippet string       `json:"snippet"`
}
