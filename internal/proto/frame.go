// Package proto defines the chat wire format: a stream of length-prefixed
// JSON frames over a persistent connection. The first frame after connect is
// the sender's identity record; every subsequent frame is one chat event.
package proto

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize caps a single frame payload. Anything larger is treated as a
// malformed stream and terminates the connection.
const MaxFrameSize = 1 << 20

// ErrFrameTooLarge is returned for frames above MaxFrameSize on either side.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// WriteFrame encodes v as JSON and writes it with a 4-byte big-endian length
// prefix. Callers serialize writes per connection themselves.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write frame prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame and decodes its JSON payload
// into v. It returns io.EOF unchanged when the peer closed the stream at a
// frame boundary.
func ReadFrame(r io.Reader, v any) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("read frame prefix: %w", err)
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxFrameSize {
		return ErrFrameTooLarge
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("read frame payload: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}
