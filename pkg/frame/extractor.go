// Package frame reconstructs discrete application messages out of a streamed,
// possibly fragmented TCP byte stream.
//
// Game-bot clients write either JSON objects, bare JSON strings, or raw
// newline-terminated text onto the same socket, with no length framing. The
// extractor owns one growable buffer per connection and emits complete frames
// as they become decodable; the normalizer turns each raw frame into a
// canonical record, degrading unparseable input to plain text instead of
// dropping it.
package frame

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrFrameTooLarge is returned by Feed when the connection buffer exceeds the
// configured cap without producing a complete frame. The caller is expected
// to close the connection.
var ErrFrameTooLarge = errors.New("frame exceeds maximum buffer size")

// DefaultMaxBuffer bounds the per-connection buffer (1 MiB).
const DefaultMaxBuffer = 1 << 20

// Extractor accumulates bytes from a single connection and splits them into
// frames. It is owned by exactly one connection and is not safe for
// concurrent use.
type Extractor struct {
	buf []byte
	max int
}

// NewExtractor creates an extractor with the given buffer cap. A cap of 0
// selects DefaultMaxBuffer.
func NewExtractor(maxBytes int) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBuffer
	}
	return &Extractor{max: maxBytes}
}

// Buffered returns the number of bytes waiting for completion.
func (e *Extractor) Buffered() int { return len(e.buf) }

// Feed appends newly read bytes and returns every frame that is now complete,
// in arrival order. Incomplete trailing data stays buffered for the next read,
// so feeding a byte stream in arbitrary chunk sizes yields the same frame
// sequence as feeding it whole.
func (e *Extractor) Feed(p []byte) ([][]byte, error) {
	e.buf = append(e.buf, p...)

	var frames [][]byte
	for {
		f, ok := e.next()
		if !ok {
			break
		}
		frames = append(frames, f)
	}

	if len(e.buf) > e.max {
		return frames, ErrFrameTooLarge
	}
	return frames, nil
}

// next extracts one frame from the front of the buffer, or reports that more
// bytes are needed. Frames are consumed strictly in byte order: a chunk that
// starts with '{' is a JSON object span, anything else is a newline-terminated
// text line.
func (e *Extractor) next() ([]byte, bool) {
	// Inter-frame whitespace separates concatenated JSON objects.
	i := 0
	for i < len(e.buf) && isSpace(e.buf[i]) {
		i++
	}
	if i == len(e.buf) {
		e.buf = e.buf[:0]
		return nil, false
	}

	if e.buf[i] == '{' {
		span, complete := scanObject(e.buf[i:])
		if !complete {
			e.compact(i)
			return nil, false
		}
		if !json.Valid(span) {
			// A balanced span that does not parse may still be the prefix
			// of a longer valid frame; keep buffering.
			e.compact(i)
			return nil, false
		}
		frame := make([]byte, len(span))
		copy(frame, span)
		e.consume(i + len(span))
		return frame, true
	}

	// Plain-text fallback: one line per frame, the unterminated tail stays
	// buffered.
	nl := bytes.IndexByte(e.buf[i:], '\n')
	if nl < 0 {
		e.compact(i)
		return nil, false
	}
	line := bytes.TrimRight(e.buf[i:i+nl], "\r")
	e.consume(i + nl + 1)
	if len(bytes.TrimSpace(line)) == 0 {
		return e.next()
	}
	frame := make([]byte, len(line))
	copy(frame, line)
	return frame, true
}

// consume drops n bytes from the front of the buffer.
func (e *Extractor) consume(n int) {
	e.buf = e.buf[:copy(e.buf, e.buf[n:])]
}

// compact drops already-skipped leading whitespace without consuming data.
func (e *Extractor) compact(i int) {
	if i > 0 {
		e.consume(i)
	}
}

// scanObject finds the balanced {...} span at the start of b, tracking nesting
// depth and JSON string syntax so braces inside string values do not
// terminate the span early. Returns the span and whether it is complete.
func scanObject(b []byte) ([]byte, bool) {
	depth := 0
	inString := false
	escaped := false

	for i, c := range b {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1], true
			}
		}
	}
	return nil, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
