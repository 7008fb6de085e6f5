// Package chat holds the chat data model shared by the daemon components:
// contacts, groups, messages and conversation identities.
package chat

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes one-to-one conversations from group conversations.
type Kind string

const (
	KindDirect Kind = "direct"
	KindGroup  Kind = "group"
)

// Key identifies a conversation: the peer contact id for direct chats,
// the group id for group chats.
type Key struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// DirectKey returns the key of the direct conversation with contactID.
func DirectKey(contactID string) Key { return Key{Kind: KindDirect, ID: contactID} }

// GroupKey returns the key of the group conversation groupID.
func GroupKey(groupID string) Key { return Key{Kind: KindGroup, ID: groupID} }

// IsZero reports whether k names no conversation.
func (k Key) IsZero() bool { return k.ID == "" }

func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	return string(k.Kind) + ":" + k.ID
}

// ParseKey parses "direct:<id>" or "group:<id>".
func ParseKey(s string) (Key, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Key{}, fmt.Errorf("invalid conversation key %q", s)
	}
	switch Kind(kind) {
	case KindDirect, KindGroup:
		return Key{Kind: Kind(kind), ID: id}, nil
	}
	return Key{}, fmt.Errorf("invalid conversation kind %q", kind)
}

// Contact is a user the current identity can chat with.
type Contact struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"profileimage,omitempty"`
	Online bool   `json:"isOnline"`
}

// Group is a multi-party conversation with one admin.
type Group struct {
	ID           string    `json:"_id"`
	Name         string    `json:"groupName"`
	Image        string    `json:"imageName,omitempty"`
	Admin        string    `json:"groupAdmin"`
	Participants []Contact `json:"participants"`
}

// IsAdmin reports whether contactID administers g.
func (g *Group) IsAdmin(contactID string) bool { return g.Admin == contactID }

// Sender is the normalized author of a message.
type Sender struct {
	ID     string `json:"_id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"profileimage,omitempty"`
}

// Message is a chat message as delivered by the server. A message with a
// GroupID belongs to that group; otherwise it belongs to the direct
// conversation between Sender and Recipient.
type Message struct {
	ID        string    `json:"_id"`
	Sender    Sender    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	Body      string    `json:"message"`
	File      string    `json:"file,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasAttachment reports whether m carries a stored file.
func (m *Message) HasAttachment() bool { return m.File != "" }

// Key returns the conversation m belongs to, seen from self.
func (m *Message) Key(self string) Key {
	if m.GroupID != "" {
		return GroupKey(m.GroupID)
	}
	if m.Sender.ID == self {
		return DirectKey(m.Recipient)
	}
	return DirectKey(m.Sender.ID)
}

// Belongs reports whether m is part of conversation k for user self.
func (m *Message) Belongs(k Key, self string) bool {
	switch k.Kind {
	case KindGroup:
		return m.GroupID != "" && m.GroupID == k.ID
	case KindDirect:
		if m.GroupID != "" {
			return false
		}
		return (m.Sender.ID == self && m.Recipient == k.ID) ||
			(m.Sender.ID == k.ID && m.Recipient == self)
	}
	return false
}

// FromSelf reports whether self authored m.
func (m *Message) FromSelf(self string) bool { return m.Sender.ID == self }
