package store

import (
	"database/sql"
	"time"

	"github.com/matheus3301/crmchat/internal/chat"
)

// QueueOutbox adds a text message for conversation k to the send outbox.
func (db *DB) QueueOutbox(clientMsgID string, k chat.Key, body string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO outbox (client_msg_id, conv_key, body, status, created_at, updated_at)
		VALUES (?, ?, ?, 'queued', ?, ?)`,
		clientMsgID, k.String(), body, now, now)
	return err
}

// MarkOutboxSending updates an outbox entry to 'sending' status.
func (db *DB) MarkOutboxSending(clientMsgID string) error {
	return db.setOutboxStatus(clientMsgID, OutboxSending, "")
}

// MarkOutboxSent updates an outbox entry to 'sent'.
func (db *DB) MarkOutboxSent(clientMsgID string) error {
	return db.setOutboxStatus(clientMsgID, OutboxSent, "")
}

// RequeueOutbox puts an entry back to 'queued' after a transient failure.
func (db *DB) RequeueOutbox(clientMsgID string) error {
	return db.setOutboxStatus(clientMsgID, OutboxQueued, "")
}

// MarkOutboxFailed updates an outbox entry to 'failed' with an error message.
func (db *DB) MarkOutboxFailed(clientMsgID, errMsg string) error {
	return db.setOutboxStatus(clientMsgID, OutboxFailed, errMsg)
}

func (db *DB) setOutboxStatus(clientMsgID, status, errMsg string) error {
	_, err := db.Exec(`UPDATE outbox SET status = ?, error_message = ?, updated_at = ? WHERE client_msg_id = ?`,
		status, nullIfEmpty(errMsg), time.Now().UnixMilli(), clientMsgID)
	return err
}

// PendingOutbox returns outbox entries that are still queued, oldest first.
func (db *DB) PendingOutbox() ([]OutboxEntry, error) {
	rows, err := db.Query(`
		SELECT id, client_msg_id, conv_key, body, status, error_message, created_at
		FROM outbox WHERE status = 'queued' ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var (
			e       OutboxEntry
			convKey string
			errMsg  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ClientMsgID, &convKey, &e.Body, &e.Status, &errMsg, &e.CreatedAt); err != nil {
			return nil, err
		}
		key, err := chat.ParseKey(convKey)
		if err != nil {
			return nil, err
		}
		e.ConvKey = key
		e.ErrorMessage = errMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ResetSendingOutbox requeues entries left in 'sending' by a crash.
func (db *DB) ResetSendingOutbox() (int64, error) {
	res, err := db.Exec(`UPDATE outbox SET status = 'queued', updated_at = ? WHERE status = 'sending'`, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
