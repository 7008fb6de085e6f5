package conv

import (
	"testing"
	"time"

	"github.com/matheus3301/crmchat/internal/chat"
)

func testStore() *Store {
	s := New("me")
	s.SetContacts([]chat.Contact{
		{ID: "me", Name: "Me"},
		{ID: "c1", Name: "Carla"},
		{ID: "c2", Name: "bruno"},
	})
	s.SetGroups([]chat.Group{{ID: "g1", Name: "Sales", Participants: []chat.Contact{{ID: "c1"}, {ID: "me"}}}})
	return s
}

func TestDirectoryExcludesSelf(t *testing.T) {
	s := testStore()
	if s.Known(chat.DirectKey("me")) {
		t.Error("own id should not be a known contact")
	}
	if !s.Known(chat.DirectKey("c1")) || !s.Known(chat.GroupKey("g1")) {
		t.Error("contacts and groups should be known")
	}
	if s.Known(chat.GroupKey("c1")) {
		t.Error("contact id must not match as group")
	}
	contacts := s.Contacts()
	if len(contacts) != 2 || contacts[0].Name != "bruno" {
		t.Errorf("Contacts() = %+v, want sorted case-insensitively", contacts)
	}
}

func TestAppendDeduplicates(t *testing.T) {
	s := testStore()
	k := chat.DirectKey("c1")
	m := chat.Message{ID: "m1", Body: "hi"}

	if !s.Append(k, m) {
		t.Fatal("first Append() = false")
	}
	if s.Append(k, m) {
		t.Error("duplicate Append() = true")
	}
	if !s.Append(k, chat.Message{Body: "no id"}) || !s.Append(k, chat.Message{Body: "no id"}) {
		t.Error("messages without id are always appended")
	}
	if got := len(s.Log(k)); got != 3 {
		t.Errorf("log length = %d, want 3", got)
	}
}

func TestReplaceIsSnapshot(t *testing.T) {
	s := testStore()
	k := chat.DirectKey("c1")
	s.Append(k, chat.Message{ID: "old"})

	s.Replace(k, []chat.Message{{ID: "a"}, {ID: "b"}, {ID: "a"}})
	log := s.Log(k)
	if len(log) != 2 || log[0].ID != "a" || log[1].ID != "b" {
		t.Errorf("log = %+v", log)
	}
	if s.Append(k, chat.Message{ID: "b"}) {
		t.Error("id from snapshot should dedup later pushes")
	}

	s.Replace(k, nil)
	if log := s.Log(k); log == nil || len(log) != 0 {
		t.Errorf("empty snapshot log = %#v, want empty non-nil", log)
	}
}

func TestLogReturnsCopy(t *testing.T) {
	s := testStore()
	k := chat.DirectKey("c1")
	s.Append(k, chat.Message{ID: "m1", Body: "x"})
	log := s.Log(k)
	log[0].Body = "mutated"
	if s.Log(k)[0].Body != "x" {
		t.Error("Log() leaked internal slice")
	}
	if log := s.Log(chat.DirectKey("nobody")); log == nil {
		t.Error("Log() of unknown key should be empty, not nil")
	}
}

func TestUnreadCounters(t *testing.T) {
	s := testStore()
	k := chat.DirectKey("c1")

	s.SetUnread(k, 3)
	if s.Unread(k) != 3 || !s.HasUnread(k) {
		t.Errorf("Unread = %d, HasUnread = %v", s.Unread(k), s.HasUnread(k))
	}
	s.SetUnread(k, 0)
	if s.HasUnread(k) {
		t.Error("zero count should clear HasUnread")
	}
	s.SetUnread(k, -2)
	if s.Unread(k) != 0 {
		t.Error("negative counts must not be stored")
	}
}

func TestApplySnapshotHoldsActiveAtZero(t *testing.T) {
	s := testStore()
	s.SetUnread(chat.DirectKey("c2"), 9)
	s.SetUnread(chat.GroupKey("g1"), 4)

	active := chat.DirectKey("c1")
	s.ApplySnapshot(chat.KindDirect, map[string]int{"c1": 5, "c3": 2}, active)

	if s.Unread(active) != 0 {
		t.Errorf("active counter = %d, want 0", s.Unread(active))
	}
	if s.Unread(chat.DirectKey("c2")) != 0 {
		t.Error("direct counters absent from snapshot should be cleared")
	}
	if s.Unread(chat.DirectKey("c3")) != 2 {
		t.Errorf("c3 = %d, want 2", s.Unread(chat.DirectKey("c3")))
	}
	if s.Unread(chat.GroupKey("g1")) != 4 {
		t.Error("group counters must survive a direct snapshot")
	}
	if s.TotalUnread() != 6 {
		t.Errorf("TotalUnread = %d, want 6", s.TotalUnread())
	}
}

func TestConversationsOrderedByActivity(t *testing.T) {
	s := testStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Touch(chat.GroupKey("g1"), base)
	s.Touch(chat.DirectKey("c1"), base.Add(time.Minute))
	s.SetUnread(chat.GroupKey("g1"), 2)

	list := s.Conversations()
	if len(list) != 3 {
		t.Fatalf("got %d conversations, want 3", len(list))
	}
	want := []chat.Key{chat.DirectKey("c1"), chat.GroupKey("g1"), chat.DirectKey("c2")}
	for i, k := range want {
		if list[i].Key != k {
			t.Errorf("position %d = %v, want %v", i, list[i].Key, k)
		}
	}
	if !list[1].HasUnread || list[1].Unread != 2 || list[1].Members != 2 {
		t.Errorf("group summary = %+v", list[1])
	}
}

func TestTouchOverwritesWithoutMonotonicity(t *testing.T) {
	s := testStore()
	k := chat.DirectKey("c1")
	late := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	early := late.Add(-time.Hour)
	s.Touch(k, late)
	s.Touch(k, early)
	if !s.LastActivity(k).Equal(early) {
		t.Errorf("LastActivity = %v, want last written %v", s.LastActivity(k), early)
	}
}

func TestSetOnline(t *testing.T) {
	s := testStore()
	if !s.SetOnline("c1", true) {
		t.Error("SetOnline should report a change")
	}
	if s.SetOnline("c1", true) {
		t.Error("repeat SetOnline should report no change")
	}
	if s.SetOnline("ghost", true) {
		t.Error("unknown contact should be ignored")
	}
	c, _ := s.Contact("c1")
	if !c.Online {
		t.Error("contact should be online")
	}
}

func TestName(t *testing.T) {
	s := testStore()
	if got := s.Name(chat.GroupKey("g1")); got != "Sales" {
		t.Errorf("Name(g1) = %q", got)
	}
	if got := s.Name(chat.DirectKey("zz")); got != "zz" {
		t.Errorf("Name(unknown) = %q, want id", got)
	}
}
