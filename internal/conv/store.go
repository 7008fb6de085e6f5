// Package conv is the client-side conversation cache: directory, per
// conversation logs, unread counters and last-activity times.
//
// A Store has a single owner (the controller loop) and does no locking.
package conv

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/matheus3301/crmchat/internal/chat"
)

// Summary is one row of the conversation list.
type Summary struct {
	Key          chat.Key  `json:"key"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	Online       bool      `json:"online"`
	Members      int       `json:"members,omitempty"`
	Unread       int       `json:"unread"`
	HasUnread    bool      `json:"hasUnread"`
	LastActivity time.Time `json:"lastActivity"`
}

type messageLog struct {
	msgs []chat.Message
	ids  map[string]struct{}
}

func newLog() *messageLog {
	return &messageLog{msgs: []chat.Message{}, ids: make(map[string]struct{})}
}

// add appends m unless its id was already seen.
func (l *messageLog) add(m chat.Message) bool {
	if m.ID != "" {
		if _, dup := l.ids[m.ID]; dup {
			return false
		}
		l.ids[m.ID] = struct{}{}
	}
	l.msgs = append(l.msgs, m)
	return true
}

// Store holds the conversation state of one identity.
type Store struct {
	self     string
	contacts map[string]chat.Contact
	groups   map[string]chat.Group
	logs     map[chat.Key]*messageLog
	unread   map[chat.Key]int
	activity map[chat.Key]time.Time
}

// New creates an empty store for user self.
func New(self string) *Store {
	return &Store{
		self:     self,
		contacts: make(map[string]chat.Contact),
		groups:   make(map[string]chat.Group),
		logs:     make(map[chat.Key]*messageLog),
		unread:   make(map[chat.Key]int),
		activity: make(map[chat.Key]time.Time),
	}
}

// Self returns the owning user id.
func (s *Store) Self() string { return s.self }

// SetContacts replaces the contact directory. The owner is never listed.
func (s *Store) SetContacts(list []chat.Contact) {
	s.contacts = make(map[string]chat.Contact, len(list))
	for _, c := range list {
		if c.ID == "" || c.ID == s.self {
			continue
		}
		s.contacts[c.ID] = c
	}
}

// SetGroups replaces the group directory.
func (s *Store) SetGroups(list []chat.Group) {
	s.groups = make(map[string]chat.Group, len(list))
	for _, g := range list {
		if g.ID != "" {
			s.groups[g.ID] = g
		}
	}
}

// AddGroup inserts or replaces one group.
func (s *Store) AddGroup(g chat.Group) {
	if g.ID != "" {
		s.groups[g.ID] = g
	}
}

// SetOnline updates a contact's presence. Unknown contacts are ignored.
func (s *Store) SetOnline(contactID string, online bool) bool {
	c, ok := s.contacts[contactID]
	if !ok || c.Online == online {
		return false
	}
	c.Online = online
	s.contacts[contactID] = c
	return true
}

// Contact returns a known contact.
func (s *Store) Contact(id string) (chat.Contact, bool) {
	c, ok := s.contacts[id]
	return c, ok
}

// Group returns a known group.
func (s *Store) Group(id string) (chat.Group, bool) {
	g, ok := s.groups[id]
	return g, ok
}

// Contacts returns the directory sorted by name.
func (s *Store) Contacts() []chat.Contact {
	out := make([]chat.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b chat.Contact) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Groups returns the groups sorted by name.
func (s *Store) Groups() []chat.Group {
	out := make([]chat.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b chat.Group) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Known reports whether k names a contact or group in the directory.
func (s *Store) Known(k chat.Key) bool {
	switch k.Kind {
	case chat.KindDirect:
		_, ok := s.contacts[k.ID]
		return ok
	case chat.KindGroup:
		_, ok := s.groups[k.ID]
		return ok
	}
	return false
}

// Name returns the display name of a conversation.
func (s *Store) Name(k chat.Key) string {
	switch k.Kind {
	case chat.KindDirect:
		if c, ok := s.contacts[k.ID]; ok && c.Name != "" {
			return c.Name
		}
	case chat.KindGroup:
		if g, ok := s.groups[k.ID]; ok && g.Name != "" {
			return g.Name
		}
	}
	return k.ID
}

// Replace swaps the log of k for a history snapshot, dropping duplicate ids.
func (s *Store) Replace(k chat.Key, msgs []chat.Message) {
	l := newLog()
	for _, m := range msgs {
		l.add(m)
	}
	s.logs[k] = l
}

// Append adds m to the log of k. It returns false for a re-delivered id.
func (s *Store) Append(k chat.Key, m chat.Message) bool {
	l, ok := s.logs[k]
	if !ok {
		l = newLog()
		s.logs[k] = l
	}
	return l.add(m)
}

// Log returns a copy of the log of k; never nil.
func (s *Store) Log(k chat.Key) []chat.Message {
	l, ok := s.logs[k]
	if !ok {
		return []chat.Message{}
	}
	return slices.Clone(l.msgs)
}

// Drop forgets the log of k.
func (s *Store) Drop(k chat.Key) {
	delete(s.logs, k)
}

// Unread returns the unread counter of k.
func (s *Store) Unread(k chat.Key) int { return s.unread[k] }

// HasUnread reports whether k has anything unread.
func (s *Store) HasUnread(k chat.Key) bool { return s.unread[k] > 0 }

// SetUnread sets the counter of k; zero or negative clears it.
func (s *Store) SetUnread(k chat.Key, n int) {
	if n <= 0 {
		delete(s.unread, k)
		return
	}
	s.unread[k] = n
}

// ClearUnread zeroes the counter of k.
func (s *Store) ClearUnread(k chat.Key) { delete(s.unread, k) }

// ApplySnapshot replaces every counter of kind with counts (keyed by
// contact or group id). The active conversation is held at zero.
func (s *Store) ApplySnapshot(kind chat.Kind, counts map[string]int, active chat.Key) {
	for k := range s.unread {
		if k.Kind == kind {
			delete(s.unread, k)
		}
	}
	for id, n := range counts {
		k := chat.Key{Kind: kind, ID: id}
		if k == active {
			continue
		}
		s.SetUnread(k, n)
	}
}

// TotalUnread sums all counters.
func (s *Store) TotalUnread() int {
	total := 0
	for _, n := range s.unread {
		total += n
	}
	return total
}

// Touch records activity on k at t, overwriting any previous value.
func (s *Store) Touch(k chat.Key, t time.Time) {
	if t.IsZero() {
		t = time.Now()
	}
	s.activity[k] = t
}

// LastActivity returns the last recorded activity of k.
func (s *Store) LastActivity(k chat.Key) time.Time { return s.activity[k] }

// Conversations lists every known contact and group, most recent activity
// first, then by name.
func (s *Store) Conversations() []Summary {
	out := make([]Summary, 0, len(s.contacts)+len(s.groups))
	for _, c := range s.contacts {
		k := chat.DirectKey(c.ID)
		out = append(out, s.summary(k, c.Name, c.Avatar, c.Online, 0))
	}
	for _, g := range s.groups {
		k := chat.GroupKey(g.ID)
		out = append(out, s.summary(k, g.Name, g.Image, false, len(g.Participants)))
	}
	slices.SortFunc(out, func(a, b Summary) int {
		return cmp.Or(
			b.LastActivity.Compare(a.LastActivity),
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.Key.String(), b.Key.String()),
		)
	})
	return out
}

func (s *Store) summary(k chat.Key, name, avatar string, online bool, members int) Summary {
	if name == "" {
		name = k.ID
	}
	return Summary{
		Key:          k,
		Name:         name,
		Avatar:       avatar,
		Online:       online,
		Members:      members,
		Unread:       s.Unread(k),
		HasUnread:    s.HasUnread(k),
		LastActivity: s.activity[k],
	}
}
