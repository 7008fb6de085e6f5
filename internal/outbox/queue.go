package outbox

import (
	"github.com/google/uuid"
	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/store"
	"go.uber.org/zap"
)

// Queue writes texts into the outbox for a Sender to deliver later.
type Queue struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
}

// NewQueue creates a Queue.
func NewQueue(db *store.DB, b *bus.Bus, logger *zap.Logger) *Queue {
	return &Queue{db: db, bus: b, logger: logger}
}

// Enqueue stores body for k and returns its client message id.
func (q *Queue) Enqueue(k chat.Key, body string) (string, error) {
	id := uuid.NewString()
	if err := q.db.QueueOutbox(id, k, body); err != nil {
		return "", err
	}
	q.logger.Info("message queued", zap.String("client_msg_id", id), zap.String("conversation", k.String()))
	q.bus.Emit(bus.KindMessageQueued, Queued{ClientMsgID: id, Key: k})
	return id, nil
}
