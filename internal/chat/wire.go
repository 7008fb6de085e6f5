package chat

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// UnmarshalJSON accepts the sender as a bare id (direct messages), a
// one-element array of descriptors (group messages) or a single descriptor.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var w struct {
		plain
		Sender    json.RawMessage `json:"sender"`
		Recipient json.RawMessage `json:"recipient"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	sender, err := decodeSender(w.Sender)
	if err != nil {
		return fmt.Errorf("decode sender: %w", err)
	}
	recipient, err := decodeSender(w.Recipient)
	if err != nil {
		return fmt.Errorf("decode recipient: %w", err)
	}
	*m = Message(w.plain)
	m.Sender = sender
	m.Recipient = recipient.ID
	return nil
}

func decodeSender(raw json.RawMessage) (Sender, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Sender{}, nil
	}
	switch raw[0] {
	case '"':
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return Sender{}, err
		}
		return Sender{ID: id}, nil
	case '[':
		var list []Sender
		if err := json.Unmarshal(raw, &list); err != nil {
			return Sender{}, err
		}
		if len(list) == 0 {
			return Sender{}, nil
		}
		return list[0], nil
	case '{':
		var s Sender
		if err := json.Unmarshal(raw, &s); err != nil {
			return Sender{}, err
		}
		return s, nil
	}
	return Sender{}, fmt.Errorf("unexpected JSON %q", raw)
}

// DecodeMessage decodes a single pushed message.
func DecodeMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

// DecodeMessages decodes a history snapshot. A null or absent payload
// yields an empty, non-nil slice.
func DecodeMessages(raw []byte) ([]Message, error) {
	msgs := []Message{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return msgs, nil
	}
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}
