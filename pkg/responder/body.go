package responder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// BodyKind discriminates the reply body variants a responder can carry.
type BodyKind int

const (
	// BodyNone is an empty body.
	BodyNone BodyKind = iota
	// BodyBytes is a raw byte payload.
	BodyBytes
	// BodyText is a UTF-8 text payload.
	BodyText
	// BodyJSON is a payload that was marshaled from a Go value.
	BodyJSON
	// BodyStream is a pre-opened byte source passed through unchanged.
	BodyStream
	// BodyError is a simulated failure: dispatch returns the error to the
	// caller instead of a response.
	BodyError
)

// Body is the tagged reply-body variant shared by static and callback
// responders. The zero value is an empty body.
type Body struct {
	kind   BodyKind
	data   []byte
	stream io.Reader
	err    error
}

// Bytes returns a raw byte body.
func Bytes(b []byte) Body {
	return Body{kind: BodyBytes, data: b}
}

// String returns a text body, encoded as UTF-8 when materialized.
func String(s string) Body {
	return Body{kind: BodyText, data: []byte(s)}
}

// JSON marshals v and returns it as a JSON body.
func JSON(v any) (Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Body{}, fmt.Errorf("encoding json body: %w", err)
	}
	return Body{kind: BodyJSON, data: data}, nil
}

// Stream returns a body backed by a pre-opened byte source. The reader is
// handed to the client unchanged; if it implements io.Closer the client's
// Close reaches it directly.
func Stream(r io.Reader) Body {
	return Body{kind: BodyStream, stream: r}
}

// Error returns a simulated-failure body. Dispatching a responder whose
// body is an error raises that error to the caller instead of replying.
func Error(err error) Body {
	return Body{kind: BodyError, err: err}
}

// Kind returns the body variant tag.
func (b Body) Kind() BodyKind { return b.kind }

// Err returns the simulated failure for a BodyError body, nil otherwise.
func (b Body) Err() error { return b.err }

// Data returns the buffered payload for bytes, text and JSON bodies.
func (b Body) Data() []byte { return b.data }

// IsUnicodeText reports whether the body is text containing non-ASCII
// characters, which drives the default charset in the Content-Type.
func (b Body) IsUnicodeText() bool {
	if b.kind != BodyText {
		return false
	}
	for _, c := range b.data {
		if c > 127 {
			return true
		}
	}
	return false
}

// materialize produces the reply body stream and its length. Buffered
// variants are wrapped in a Buffer; streams pass through. The length is -1
// when unknown (streams).
func (b Body) materialize() (io.ReadCloser, int64, error) {
	switch b.kind {
	case BodyError:
		return nil, 0, b.err
	case BodyStream:
		if rc, ok := b.stream.(io.ReadCloser); ok {
			return rc, -1, nil
		}
		return io.NopCloser(b.stream), -1, nil
	default:
		return NewBuffer(b.data), int64(len(b.data)), nil
	}
}

// Buffer is the canonical byte-stream representation of a buffered reply
// body. It mimics a network response body closely enough for clients that
// probe closedness before they finish consuming: More reports false only
// once the buffer is both exhausted and closed, and Close is idempotent.
type Buffer struct {
	mu     sync.Mutex
	reader *bytes.Reader
	closed bool
}

// NewBuffer wraps data in a Buffer.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{reader: bytes.NewReader(data)}
}

// Read implements io.Reader. Reading a closed buffer returns io.EOF.
func (b *Buffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, io.EOF
	}
	return b.reader.Read(p)
}

// Close implements io.Closer. Closing twice is a no-op.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// More reports whether the consumer should keep reading. The first probe
// after exhaustion closes the buffer but still reports true, so clients
// that check closedness before the final read keep working; only a probe
// of an exhausted, already-closed buffer reports false.
func (b *Buffer) More() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	if b.reader.Len() > 0 {
		return true
	}
	b.closed = true
	return true
}

// Len returns the number of unread bytes remaining.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reader.Len()
}
