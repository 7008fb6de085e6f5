package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/matheus3301/crmchat/internal/chat"
)

// ReplaceContacts swaps the cached contact directory for list.
func (db *DB) ReplaceContacts(list []chat.Contact) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM contacts`); err != nil {
		return fmt.Errorf("clear contacts: %w", err)
	}
	now := time.Now().UnixMilli()
	for _, c := range list {
		if _, err := tx.Exec(`
			INSERT INTO contacts (id, name, avatar, online, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				avatar = excluded.avatar,
				online = excluded.online,
				updated_at = excluded.updated_at`,
			c.ID, c.Name, c.Avatar, c.Online, now); err != nil {
			return fmt.Errorf("insert contact %q: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// ListContacts returns the cached contacts ordered by name.
func (db *DB) ListContacts() ([]chat.Contact, error) {
	rows, err := db.Query(`SELECT id, name, avatar, online FROM contacts ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	contacts := []chat.Contact{}
	for rows.Next() {
		var c chat.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Avatar, &c.Online); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ReplaceGroups swaps the cached group directory for list.
func (db *DB) ReplaceGroups(list []chat.Group) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM chat_groups`); err != nil {
		return fmt.Errorf("clear groups: %w", err)
	}
	for i := range list {
		if err := upsertGroup(tx, &list[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpsertGroup caches one group, typically right after it was created.
func (db *DB) UpsertGroup(g *chat.Group) error {
	return upsertGroup(db, g)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertGroup(ex execer, g *chat.Group) error {
	participants := g.Participants
	if participants == nil {
		participants = []chat.Contact{}
	}
	raw, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("encode participants of %q: %w", g.ID, err)
	}
	if _, err := ex.Exec(`
		INSERT INTO chat_groups (id, name, image, admin, participants, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			image = excluded.image,
			admin = excluded.admin,
			participants = excluded.participants,
			updated_at = excluded.updated_at`,
		g.ID, g.Name, g.Image, g.Admin, string(raw), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert group %q: %w", g.ID, err)
	}
	return nil
}

// ListGroups returns the cached groups ordered by name.
func (db *DB) ListGroups() ([]chat.Group, error) {
	rows, err := db.Query(`SELECT id, name, image, admin, participants FROM chat_groups ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	groups := []chat.Group{}
	for rows.Next() {
		var (
			g   chat.Group
			raw string
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Image, &g.Admin, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &g.Participants); err != nil {
			return nil, fmt.Errorf("decode participants of %q: %w", g.ID, err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
