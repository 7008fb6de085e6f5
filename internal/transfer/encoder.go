package transfer

import (
	"errors"
	"fmt"
	"io"

	"github.com/matheus3301/crmchat/internal/chat"
)

// DefaultChunkSize is used when an Encoder has no chunk size.
const DefaultChunkSize = 64 << 10

// Encoder splits a byte stream into fixed-size chunks.
type Encoder struct {
	ChunkSize int
}

// Encode reads r to the end and calls emit once per chunk, in source order.
// Every chunk except the last is exactly ChunkSize bytes. An empty source
// produces no chunks. emit owns the slice it receives.
func (e Encoder) Encode(r io.Reader, emit func([]byte) error) (int64, error) {
	size := e.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	var total int64
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if emitErr := emit(chunk); emitErr != nil {
				return total, emitErr
			}
			total += int64(n)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("read source: %w", err)
		}
	}
}

// Sink is where upload frames go; a transport emitter holding the writer.
type Sink interface {
	Emit(event string, args ...any) error
	EmitBinary(event string, data []byte) error
}

// Upload writes one complete upload to sink: the start event, the ordered
// chunks of r and the end marker.
func (e Encoder) Upload(sink Sink, startEvent string, start chat.UploadStart, r io.Reader) (int64, error) {
	if err := sink.Emit(startEvent, start); err != nil {
		return 0, fmt.Errorf("emit %s: %w", startEvent, err)
	}
	n, err := e.Encode(r, func(chunk []byte) error {
		return sink.EmitBinary(chat.EventFileChunk, chunk)
	})
	if err != nil {
		return n, fmt.Errorf("stream chunks: %w", err)
	}
	if err := sink.Emit(chat.EventFileChunkEnd); err != nil {
		return n, fmt.Errorf("emit %s: %w", chat.EventFileChunkEnd, err)
	}
	return n, nil
}
