package chat

// Event names of the chat socket protocol.
const (
	EventRegister         = "register"
	EventGetMessages      = "getMessages"
	EventGetGroupMessages = "getgroupMessages"
	EventMarkAsRead       = "markAsRead"
	EventMarkGroupAsRead  = "markGroupAsRead"
	EventJoinGroup        = "joinGroup"
	EventSendMessage      = "sendMessage"
	EventSendGroupMessage = "sendGroupMessage"
	EventStartUpload      = "start upload"
	EventStartGroupUpload = "startgroupupload"
	EventFileChunk        = "file chunk"
	EventFileChunkEnd     = "file chunk end"

	EventReceiveMessage      = "receiveMessage"
	EventReceiveGroupMessage = "receiveGroupMessage"
	EventAllMessages         = "allMessages"
	EventAllGroupMessages    = "allgroupMessages"
	EventSendNotification    = "sendNotification"
	EventNewNotification     = "newNotification"
	EventOnlineStatus        = "onlineStatus"
)

// HistoryRequest asks for the direct history between two users.
type HistoryRequest struct {
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}

// ReadAck acknowledges a direct conversation as read.
type ReadAck struct {
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId"`
}

// GroupReadAck acknowledges a group conversation as read.
type GroupReadAck struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
}

// OutgoingText is the sendMessage payload.
type OutgoingText struct {
	Sender     string `json:"sender"`
	SenderName string `json:"sendername"`
	Recipient  string `json:"recipient"`
	Message    string `json:"message"`
}

// OutgoingGroupText is the sendGroupMessage payload.
type OutgoingGroupText struct {
	Sender  string `json:"sender"`
	GroupID string `json:"groupId"`
	Message string `json:"message"`
}

// UploadStart announces a file upload. Exactly one of Recipient and
// GroupID is set.
type UploadStart struct {
	FileName  string `json:"fileName"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
	Message   string `json:"message"`
}

// Presence is pushed when a contact goes online or offline.
type Presence struct {
	UserID string `json:"userId"`
	Online bool   `json:"isOnline"`
}
