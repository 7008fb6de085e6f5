package chat

import (
	"testing"
	"time"
)

func TestBelongs(t *testing.T) {
	const self = "me"
	direct := func(from, to string) Message { return Message{Sender: Sender{ID: from}, Recipient: to} }
	group := Message{Sender: Sender{ID: "x"}, GroupID: "g1"}

	tests := []struct {
		name string
		msg  Message
		key  Key
		want bool
	}{
		{"outgoing to peer", direct(self, "c"), DirectKey("c"), true},
		{"incoming from peer", direct("c", self), DirectKey("c"), true},
		{"incoming from other", direct("d", self), DirectKey("c"), false},
		{"peer to third party", direct("c", "d"), DirectKey("c"), false},
		{"group in group", group, GroupKey("g1"), true},
		{"group in other group", group, GroupKey("g2"), false},
		{"group never direct", group, DirectKey("x"), false},
		{"direct never group", direct("c", self), GroupKey("c"), false},
		{"zero key", direct("c", self), Key{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Belongs(tt.key, self); got != tt.want {
				t.Errorf("Belongs(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("group:g1")
	if err != nil || k != GroupKey("g1") {
		t.Errorf("ParseKey(group:g1) = %v, %v", k, err)
	}
	if k.String() != "group:g1" {
		t.Errorf("String() = %q", k.String())
	}
	for _, bad := range []string{"", "g1", "group:", "channel:x"} {
		if _, err := ParseKey(bad); err == nil {
			t.Errorf("ParseKey(%q) should fail", bad)
		}
	}
}

func TestGroupByDay(t *testing.T) {
	loc := time.UTC
	at := func(day, hour int) time.Time { return time.Date(2026, 5, day, hour, 0, 0, 0, loc) }
	msgs := []Message{
		{ID: "1", CreatedAt: at(1, 9)},
		{ID: "2", CreatedAt: at(1, 23)},
		{ID: "3"},
		{ID: "4", CreatedAt: at(2, 8)},
		{ID: "5", CreatedAt: at(1, 10)},
	}

	groups := GroupByDay(msgs, loc)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	wantIDs := [][]string{{"1", "2", "3"}, {"4"}, {"5"}}
	for i, g := range groups {
		if len(g.Messages) != len(wantIDs[i]) {
			t.Fatalf("group %d has %d messages, want %d", i, len(g.Messages), len(wantIDs[i]))
		}
		for j, m := range g.Messages {
			if m.ID != wantIDs[i][j] {
				t.Errorf("group %d message %d = %s, want %s", i, j, m.ID, wantIDs[i][j])
			}
		}
	}
	if !groups[1].Day.Equal(time.Date(2026, 5, 2, 0, 0, 0, 0, loc)) {
		t.Errorf("day = %v", groups[1].Day)
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if got := GroupByDay(nil, nil); len(got) != 0 {
		t.Errorf("GroupByDay(nil) = %v", got)
	}
}
