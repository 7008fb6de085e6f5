package chat

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestDecodeDirectMessage(t *testing.T) {
	raw := []byte(`{"_id":"m1","sender":"u1","recipient":"u2","message":"hi","createdAt":"2026-03-01T10:00:00Z"}`)

	m, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	if m.Sender.ID != "u1" || m.Recipient != "u2" || m.Body != "hi" {
		t.Errorf("message = %+v", m)
	}
	if !m.CreatedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", m.CreatedAt)
	}
	if m.Key("u2") != DirectKey("u1") {
		t.Errorf("Key(u2) = %v, want direct:u1", m.Key("u2"))
	}
	if m.Key("u1") != DirectKey("u2") {
		t.Errorf("Key(u1) = %v, want direct:u2", m.Key("u1"))
	}
}

func TestDecodeGroupMessageSenderArray(t *testing.T) {
	raw := []byte(`{"_id":"m2","sender":[{"_id":"u3","name":"Carla","profileimage":"c.png"}],"groupId":"g1","message":"team","file":"abc.pdf","fileName":"plan.pdf"}`)

	m, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	want := Sender{ID: "u3", Name: "Carla", Avatar: "c.png"}
	if m.Sender != want {
		t.Errorf("Sender = %+v, want %+v", m.Sender, want)
	}
	if m.Key("u1") != GroupKey("g1") {
		t.Errorf("Key = %v, want group:g1", m.Key("u1"))
	}
	if !m.HasAttachment() || m.FileName != "plan.pdf" {
		t.Errorf("attachment = %q/%q", m.File, m.FileName)
	}
	if !m.CreatedAt.IsZero() {
		t.Errorf("missing createdAt should decode to zero, got %v", m.CreatedAt)
	}
}

func TestDecodeSenderShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Sender
	}{
		{"string", `"u1"`, Sender{ID: "u1"}},
		{"object", `{"_id":"u1","name":"Ana"}`, Sender{ID: "u1", Name: "Ana"}},
		{"array", `[{"_id":"u1"}]`, Sender{ID: "u1"}},
		{"empty array", `[]`, Sender{}},
		{"null", `null`, Sender{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSender(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("decodeSender(%s) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("decodeSender(%s) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}

	if _, err := decodeSender(json.RawMessage(`42`)); err == nil {
		t.Error("numeric sender should fail")
	}
}

func TestDecodeMessagesEmpty(t *testing.T) {
	for _, raw := range []string{`[]`, `null`, ``} {
		msgs, err := DecodeMessages([]byte(raw))
		if err != nil {
			t.Fatalf("DecodeMessages(%q) error = %v", raw, err)
		}
		if msgs == nil || len(msgs) != 0 {
			t.Errorf("DecodeMessages(%q) = %#v, want empty non-nil slice", raw, msgs)
		}
	}
}

func TestMessageRoundTripKeepsSender(t *testing.T) {
	in := Message{ID: "m1", Sender: Sender{ID: "u1", Name: "Ana"}, Recipient: "u2", Body: "x"}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Sender != in.Sender || out.Recipient != "u2" {
		t.Errorf("round trip = %+v", out)
	}
}
