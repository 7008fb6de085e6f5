package transport

import (
	"bytes"
	"testing"
)

func TestTextFrameRoundTrip(t *testing.T) {
	data, err := encodeText("joinGroup", []any{"g1", "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"event":"joinGroup","args":["g1","u1"]}` {
		t.Errorf("encoded = %s", data)
	}

	evt, err := decodeText(data)
	if err != nil {
		t.Fatal(err)
	}
	var group, user string
	if err := evt.Arg(0, &group); err != nil {
		t.Fatal(err)
	}
	if err := evt.Arg(1, &user); err != nil {
		t.Fatal(err)
	}
	if evt.Name != "joinGroup" || group != "g1" || user != "u1" {
		t.Errorf("decoded = %s(%s, %s)", evt.Name, group, user)
	}
	if err := evt.Arg(2, &user); err == nil {
		t.Error("Arg(2) should fail on a two-argument event")
	}
	if evt.RawArg(5) != nil {
		t.Error("RawArg out of range should be nil")
	}
}

func TestTextFrameWithoutArgs(t *testing.T) {
	data, err := encodeText("file chunk end", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"event":"file chunk end","args":[]}` {
		t.Errorf("encoded = %s", data)
	}
}

func TestDecodeTextRejectsMissingName(t *testing.T) {
	for _, raw := range []string{`{"args":[]}`, `not json`} {
		if _, err := decodeText([]byte(raw)); err == nil {
			t.Errorf("decodeText(%s) should fail", raw)
		}
	}
}

func TestBinaryFrameRoundTrip(t *testing.T) {
	payload := []byte{0, 1, 2, 0xff}
	data, err := encodeBinary("file chunk", payload)
	if err != nil {
		t.Fatal(err)
	}
	evt, err := decodeBinary(data)
	if err != nil {
		t.Fatal(err)
	}
	if evt.Name != "file chunk" || !bytes.Equal(evt.Binary, payload) {
		t.Errorf("decoded = %q %v", evt.Name, evt.Binary)
	}
}

func TestDecodeBinaryRejectsBadHeader(t *testing.T) {
	for _, raw := range [][]byte{{}, {0}, {0, 0}, {0, 9, 'a'}} {
		if _, err := decodeBinary(raw); err == nil {
			t.Errorf("decodeBinary(%v) should fail", raw)
		}
	}
}
