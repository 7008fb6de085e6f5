package bus

import "time"

// Event kinds published by the chat daemon. Subscribers filter by prefix,
// so the part before the first dot is the namespace.
const (
	KindStatusChanged = "connection.status_changed"

	KindConversationOpened   = "conversation.opened"
	KindConversationClosed   = "conversation.closed"
	KindConversationAppended = "conversation.appended"
	KindConversationReplaced = "conversation.replaced"
	KindDirectoryUpdated     = "conversation.directory_updated"
	KindUnreadUpdated        = "conversation.unread_updated"

	KindMessageQueued     = "message.queued"
	KindMessageSent       = "message.sent"
	KindMessageSendFailed = "message.send_failed"

	KindUploadStarted  = "upload.started"
	KindUploadFinished = "upload.finished"
	KindUploadFailed   = "upload.failed"

	KindBadgeRefresh      = "notification.badge"
	KindNotificationError = "notification.error"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
