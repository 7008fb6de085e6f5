package transport

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Text frames carry {"event": name, "args": [...]}. Binary frames carry a
// big-endian uint16 name length, the name, then the raw payload.

const maxEventName = 1<<16 - 1

type textFrame struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args"`
}

func encodeText(event string, args []any) ([]byte, error) {
	f := textFrame{Event: event, Args: make([]json.RawMessage, 0, len(args))}
	for i, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encode %q arg %d: %w", event, i, err)
		}
		f.Args = append(f.Args, raw)
	}
	return json.Marshal(f)
}

func encodeBinary(event string, data []byte) ([]byte, error) {
	if len(event) > maxEventName {
		return nil, fmt.Errorf("event name too long: %d bytes", len(event))
	}
	out := make([]byte, 2+len(event)+len(data))
	binary.BigEndian.PutUint16(out, uint16(len(event)))
	copy(out[2:], event)
	copy(out[2+len(event):], data)
	return out, nil
}

func decodeText(data []byte) (Event, error) {
	var f textFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return Event{}, fmt.Errorf("decode text frame: %w", err)
	}
	if f.Event == "" {
		return Event{}, errors.New("decode text frame: missing event name")
	}
	return Event{Name: f.Event, Args: f.Args}, nil
}

func decodeBinary(data []byte) (Event, error) {
	if len(data) < 2 {
		return Event{}, errors.New("decode binary frame: short header")
	}
	n := int(binary.BigEndian.Uint16(data))
	if n == 0 || len(data) < 2+n {
		return Event{}, errors.New("decode binary frame: bad name length")
	}
	payload := make([]byte, len(data)-2-n)
	copy(payload, data[2+n:])
	return Event{Name: string(data[2 : 2+n]), Binary: payload}, nil
}
