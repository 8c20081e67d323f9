// Package wire implements the bit-exact binary encoding shared by every
// generated proxy and servant: a contiguous byte container with a cursor
// (Buffer) and a typed read/write API over it (Stream).
//
// The read-side growth discipline (grow containers one element at a time
// rather than preallocating from an untrusted length prefix) is grounded
// on the teacher's internal/vnc/decode.go, which decodes RFB rectangles
// and color-map entries the same way; this package uses little-endian
// encoding throughout rather than vnc's big-endian RFB wire format.
package wire

import "fmt"

// Buffer is an ordered byte sequence with a mutable position cursor.
// Invariant: 0 <= pos <= len(b). It is exclusively owned by whichever
// Stream reads or writes it.
type Buffer struct {
	b   []byte
	pos int
}

// NewBuffer returns an empty buffer pre-reserved at the teacher's
// historical default capacity (IceInternal::Buffer reserves 1000 bytes).
func NewBuffer() *Buffer {
	return &Buffer{b: make([]byte, 0, 1000)}
}

// NewBufferFromBytes wraps an existing byte slice for reading, cursor at 0.
func NewBufferFromBytes(b []byte) *Buffer {
	return &Buffer{b: b}
}

// Bytes returns the buffer's contents from 0 to Size(), not from Pos().
func (buf *Buffer) Bytes() []byte {
	return buf.b
}

// Size is the total number of bytes written into the buffer so far.
func (buf *Buffer) Size() int {
	return len(buf.b)
}

// Pos returns the current cursor position.
func (buf *Buffer) Pos() int {
	return buf.pos
}

// SetPos repositions the cursor, failing if outside [0, Size()].
func (buf *Buffer) SetPos(p int) error {
	if p < 0 || p > len(buf.b) {
		return fmt.Errorf("wire: position %d out of range [0, %d]", p, len(buf.b))
	}
	buf.pos = p
	return nil
}

// Grow appends n zeroed bytes at the end of the buffer and returns a slice
// viewing them, for callers that write fixed-width fields in place.
func (buf *Buffer) Grow(n int) []byte {
	buf.b = append(buf.b, make([]byte, n)...)
	return buf.b[len(buf.b)-n:]
}

// remaining is the number of unread bytes from the cursor to the end.
func (buf *Buffer) remaining() int {
	return len(buf.b) - buf.pos
}

// take advances the cursor by n bytes and returns the skipped-over slice,
// or an error if fewer than n bytes remain (a truncated frame).
func (buf *Buffer) take(n int) ([]byte, error) {
	if buf.remaining() < n {
		return nil, fmt.Errorf("wire: truncated frame: need %d bytes, have %d", n, buf.remaining())
	}
	s := buf.b[buf.pos : buf.pos+n]
	buf.pos += n
	return s, nil
}
