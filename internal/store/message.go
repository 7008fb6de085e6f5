package store

import (
	"fmt"
	"slices"
	"time"

	"github.com/matheus3301/crmchat/internal/chat"
)

// ArchiveMessages stores msgs under conversation k (idempotent on k + message
// id). Messages without a server id are skipped. It returns how many rows
// were written.
func (db *DB) ArchiveMessages(k chat.Key, msgs []chat.Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	n := 0
	for _, m := range msgs {
		if m.ID == "" {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO messages (conv_key, msg_id, sender_id, sender_name, recipient, group_id, body, file, file_name, created_at, archived_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(conv_key, msg_id) DO UPDATE SET
				sender_name = excluded.sender_name,
				body = excluded.body,
				file = excluded.file,
				file_name = excluded.file_name`,
			k.String(), m.ID, m.Sender.ID, m.Sender.Name, m.Recipient, m.GroupID,
			m.Body, m.File, m.FileName, unixMilli(m.CreatedAt), now); err != nil {
			return 0, fmt.Errorf("archive message %q: %w", m.ID, err)
		}
		n++
	}
	return n, tx.Commit()
}

// ListMessages returns up to limit archived messages of conversation k
// created before beforeMs (0 means now), oldest first.
func (db *DB) ListMessages(k chat.Key, beforeMs int64, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeMs <= 0 {
		beforeMs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT msg_id, sender_id, sender_name, recipient, group_id, body, file, file_name, created_at
		FROM messages
		WHERE conv_key = ? AND created_at < ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, k.String(), beforeMs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	msgs := []chat.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// MessageCount returns the number of archived messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner, extra ...any) (chat.Message, error) {
	var (
		m       chat.Message
		created int64
	)
	dest := append([]any{
		&m.ID, &m.Sender.ID, &m.Sender.Name, &m.Recipient, &m.GroupID,
		&m.Body, &m.File, &m.FileName, &created,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return chat.Message{}, err
	}
	if created > 0 {
		m.CreatedAt = time.UnixMilli(created).UTC()
	}
	return m, nil
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
