package store

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/crmchat/internal/chat"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.From != 2 || result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + outbox)", result.Version)
	}
}

func TestMigrateSchemaHasRequiredColumns(t *testing.T) {
	db := testDB(t)

	requiredOps := []struct {
		desc  string
		query string
		args  []any
	}{
		{"insert contact", "INSERT INTO contacts (id, name, avatar, online) VALUES (?, ?, ?, ?)", []any{"c1", "Ana", "a.png", true}},
		{"insert group", "INSERT INTO chat_groups (id, name, image, admin, participants) VALUES (?, ?, ?, ?, ?)", []any{"g1", "Sales", "", "me", "[]"}},
		{"insert message", "INSERT INTO messages (conv_key, msg_id, sender_id, body, created_at) VALUES (?, ?, ?, ?, ?)", []any{"direct:c1", "m1", "c1", "hello", 1000}},
		{"queue outbox", "INSERT INTO outbox (client_msg_id, conv_key, body, status) VALUES (?, ?, ?, ?)", []any{"cid", "direct:c1", "text", "queued"}},
		{"set sync state", "INSERT INTO sync_state (key, value) VALUES (?, ?)", []any{"k", "v"}},
	}

	for _, op := range requiredOps {
		t.Run(op.desc, func(t *testing.T) {
			if _, err := db.Exec(op.query, op.args...); err != nil {
				t.Fatalf("%s failed: %v", op.desc, err)
			}
		})
	}
}

func TestContactsReplaceAndList(t *testing.T) {
	db := testDB(t)

	if err := db.ReplaceContacts([]chat.Contact{{ID: "b", Name: "bo"}, {ID: "a", Name: "Ana", Online: true}}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceContacts([]chat.Contact{{ID: "a", Name: "Ana Maria", Online: true}}); err != nil {
		t.Fatal(err)
	}

	contacts, err := db.ListContacts()
	if err != nil {
		t.Fatal(err)
	}
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(contacts))
	}
	if contacts[0].Name != "Ana Maria" || !contacts[0].Online {
		t.Errorf("contact = %+v", contacts[0])
	}
}

func TestGroupsRoundTripParticipants(t *testing.T) {
	db := testDB(t)

	g := chat.Group{ID: "g1", Name: "Sales", Admin: "me", Participants: []chat.Contact{{ID: "me", Name: "Me"}, {ID: "a", Name: "Ana"}}}
	if err := db.ReplaceGroups([]chat.Group{g}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertGroup(&chat.Group{ID: "g2", Name: "Ops", Admin: "me"}); err != nil {
		t.Fatal(err)
	}

	groups, err := db.ListGroups()
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[1].ID != "g1" || len(groups[1].Participants) != 2 || groups[1].Participants[1].Name != "Ana" {
		t.Errorf("group = %+v", groups[1])
	}
	if groups[0].Participants == nil || len(groups[0].Participants) != 0 {
		t.Errorf("g2 participants = %#v, want empty", groups[0].Participants)
	}
}

func TestArchiveIdempotent(t *testing.T) {
	db := testDB(t)
	k := chat.DirectKey("a")
	base := time.UnixMilli(1_700_000_000_000).UTC()

	msgs := []chat.Message{
		{ID: "m1", Sender: chat.Sender{ID: "a"}, Recipient: "me", Body: "hello", CreatedAt: base},
		{ID: "m2", Sender: chat.Sender{ID: "me"}, Recipient: "a", Body: "hi", CreatedAt: base.Add(time.Second)},
		{Sender: chat.Sender{ID: "a"}, Body: "no id"},
	}
	n, err := db.ArchiveMessages(k, msgs)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("archived %d, want 2", n)
	}

	msgs[0].Body = "hello edited"
	if _, err := db.ArchiveMessages(k, msgs[:1]); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListMessages(k, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].ID != "m1" || got[0].Body != "hello edited" || !got[0].CreatedAt.Equal(base) {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].ID != "m2" {
		t.Errorf("second = %+v, want m2 (oldest first)", got[1])
	}

	count, err := db.MessageCount()
	if err != nil || count != 2 {
		t.Errorf("MessageCount = %d, %v", count, err)
	}
}

func TestSearchMessages(t *testing.T) {
	db := testDB(t)

	if _, err := db.ArchiveMessages(chat.DirectKey("a"), []chat.Message{
		{ID: "m1", Body: "Hello world", CreatedAt: time.UnixMilli(1000)},
		{ID: "m2", Body: "goodbye world", CreatedAt: time.UnixMilli(2000)},
		{ID: "m3", Body: "100% done", CreatedAt: time.UnixMilli(3000)},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ArchiveMessages(chat.GroupKey("g"), []chat.Message{
		{ID: "m4", GroupID: "g", Body: "hello team", CreatedAt: time.UnixMilli(4000)},
	}); err != nil {
		t.Fatal(err)
	}

	results, err := db.SearchMessages("hello", chat.Key{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Message.ID != "m4" || results[0].Key != chat.GroupKey("g") {
		t.Fatalf("results = %+v", results)
	}
	if !strings.Contains(results[1].Snippet, "<<Hello>>") {
		t.Errorf("snippet = %q", results[1].Snippet)
	}

	scoped, err := db.SearchMessages("hello", chat.DirectKey("a"), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(scoped) != 1 || scoped[0].Message.ID != "m1" {
		t.Errorf("scoped = %+v", scoped)
	}

	pct, err := db.SearchMessages("0%", chat.Key{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pct) != 1 || pct[0].Message.ID != "m3" {
		t.Errorf("literal %% search = %+v", pct)
	}
}

func TestSnippetTrims(t *testing.T) {
	body := strings.Repeat("a", 50) + "needle" + strings.Repeat("b", 50)
	got := snippet(body, "NEEDLE")
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") || !strings.Contains(got, "<<needle>>") {
		t.Errorf("snippet = %q", got)
	}
}

func TestOutbox(t *testing.T) {
	db := testDB(t)
	k := chat.GroupKey("g1")

	if err := db.QueueOutbox("client1", k, "first"); err != nil {
		t.Fatal(err)
	}
	if err := db.QueueOutbox("client2", k, "second"); err != nil {
		t.Fatal(err)
	}

	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].ClientMsgID != "client1" || pending[0].ConvKey != k {
		t.Fatalf("pending = %+v", pending)
	}

	if err := db.MarkOutboxSending("client1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkOutboxSent("client1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkOutboxSending("client2"); err != nil {
		t.Fatal(err)
	}

	pending, err = db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending, want 0", len(pending))
	}

	n, err := db.ResetSendingOutbox()
	if err != nil || n != 1 {
		t.Fatalf("ResetSendingOutbox = %d, %v", n, err)
	}
	if err := db.MarkOutboxFailed("client2", "rejected"); err != nil {
		t.Fatal(err)
	}
	pending, err = db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("failed entry should not be pending: %+v", pending)
	}

	if err := db.RequeueOutbox("client2"); err != nil {
		t.Fatal(err)
	}
	pending, _ = db.PendingOutbox()
	if len(pending) != 1 || pending[0].ErrorMessage != "" {
		t.Errorf("requeued = %+v", pending)
	}
}

func TestSyncState(t *testing.T) {
	db := testDB(t)

	if _, ok, err := db.SyncState(SyncDirectoryRefreshed); err != nil || ok {
		t.Fatalf("unset key: ok=%v err=%v", ok, err)
	}
	if err := db.SetSyncState(SyncDirectoryRefreshed, "1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSyncState(SyncDirectoryRefreshed, "2"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := db.SyncState(SyncDirectoryRefreshed)
	if err != nil || !ok || v != "2" {
		t.Fatalf("SyncState = %q, %v, %v", v, ok, err)
	}
}
