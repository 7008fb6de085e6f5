package store

import (
	"database/sql"
	"time"
)

// Sync checkpoint keys.
const (
	SyncDirectoryRefreshed = "directory_refreshed_at"
	SyncUnreadRefreshed    = "unread_refreshed_at"
)

// SetSyncState records a checkpoint value.
func (db *DB) SetSyncState(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	return err
}

// SyncState returns a checkpoint value and whether it was set.
func (db *DB) SyncState(key string) (string, bool, error) {
	var v string
	err := db.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
