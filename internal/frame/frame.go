// Package frame implements the on-wire message header spec §6 describes:
// a magic-prefixed, length-framed envelope around a request or reply
// encapsulation. internal/invoke and internal/dispatch operate on
// already-demarshalled (identity, facet, operation, payload) tuples; this
// package is what actually puts those bytes on a net.Conn and takes them
// back off, the concern cmd/iceserver and cmd/iceclient's transports
// exercise.
//
// Grounded on internal/meshage/client.go's encode/decode-over-net.Conn
// loop, generalized from gob's self-describing framing to the explicit
// magic+length header spec §6 specifies, using pkg/wire's Stream for the
// header fields themselves.
package frame

import (
	"fmt"
	"io"
	"sort"

	"github.com/icebridge-project/icebridge/pkg/wire"
)

// Magic opens every frame on the wire.
var Magic = [4]byte{'I', 'c', 'e', 'P'}

const (
	ProtocolVersion = 1
	EncodingVersion = 1
)

// MessageType is the third header byte.
type MessageType byte

const (
	Request MessageType = iota
	Reply
	ValidateConnection
	CloseConnection
)

// Identity is the category/name pair a request addresses.
type Identity struct {
	Category string
	Name     string
}

// RequestHeader is every field spec §6 lists ahead of a request's
// encapsulation, besides the encapsulation itself.
type RequestHeader struct {
	RequestID  int32 // 0 for a one-way (oneway) send
	Identity   Identity
	Facet      string
	Operation  string
	Idempotent bool
	Context    map[string]string
}

// WriteRequest encodes hdr and encapsulation into a complete frame,
// magic through final payload byte, ready to write to a net.Conn.
func WriteRequest(hdr RequestHeader, encapsulation []byte) []byte {
	body := wire.NewStream(nil)
	body.WriteInt(hdr.RequestID)
	body.WriteString(hdr.Identity.Category)
	body.WriteString(hdr.Identity.Name)
	body.WriteString(hdr.Facet)
	body.WriteString(hdr.Operation)
	body.WriteBool(hdr.Idempotent)
	writeContext(body, hdr.Context)
	body.WriteBytes(encapsulation)
	return envelope(Request, body.Buf.Bytes())
}

// ReadRequestHeader decodes a request body (the bytes following the
// common envelope prefix, as returned by ReadEnvelope) into its header
// and encapsulation.
func ReadRequestHeader(body []byte) (RequestHeader, []byte, error) {
	s := wire.NewStream(wire.NewBufferFromBytes(body))
	var hdr RequestHeader
	var err error

	if hdr.RequestID, err = s.ReadInt(); err != nil {
		return hdr, nil, err
	}
	if hdr.Identity.Category, err = s.ReadString(); err != nil {
		return hdr, nil, err
	}
	if hdr.Identity.Name, err = s.ReadString(); err != nil {
		return hdr, nil, err
	}
	if hdr.Facet, err = s.ReadString(); err != nil {
		return hdr, nil, err
	}
	if hdr.Operation, err = s.ReadString(); err != nil {
		return hdr, nil, err
	}
	if hdr.Idempotent, err = s.ReadBool(); err != nil {
		return hdr, nil, err
	}
	if hdr.Context, err = readContext(s); err != nil {
		return hdr, nil, err
	}
	encapsulation, err := s.ReadBytes()
	if err != nil {
		return hdr, nil, err
	}
	return hdr, encapsulation, nil
}

// WriteReply wraps a dispatch/invocation reply frame (a wire.ReplyStatus
// byte followed by status-specific payload, exactly the shape
// dispatch.Adapter.Dispatch returns) in the common envelope.
func WriteReply(requestID int32, replyFrame []byte) []byte {
	body := wire.NewStream(nil)
	body.WriteInt(requestID)
	body.WriteBytes(replyFrame)
	return envelope(Reply, body.Buf.Bytes())
}

// ReadReplyHeader splits a reply body into its request id and the inner
// reply frame, which internal/invoke's decode already knows how to read.
func ReadReplyHeader(body []byte) (requestID int32, replyFrame []byte, err error) {
	s := wire.NewStream(wire.NewBufferFromBytes(body))
	if requestID, err = s.ReadInt(); err != nil {
		return 0, nil, err
	}
	replyFrame, err = s.ReadBytes()
	return requestID, replyFrame, err
}

func writeContext(s *wire.Stream, ctx map[string]string) {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.WriteInt(int32(len(keys)))
	for _, k := range keys {
		s.WriteString(k)
		s.WriteString(ctx[k])
	}
}

func readContext(s *wire.Stream) (map[string]string, error) {
	n, err := s.ReadInt()
	if err != nil {
		return nil, err
	}
	ctx := make(map[string]string, n)
	for i := int32(0); i < n; i++ {
		k, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		ctx[k] = v
	}
	return ctx, nil
}

// envelope prepends the fixed 12-byte common header (magic, protocol
// version, encoding version, message type, compression flag, total size)
// spec §6 specifies ahead of body.
func envelope(mt MessageType, body []byte) []byte {
	out := make([]byte, 0, 12+len(body))
	out = append(out, Magic[:]...)
	out = append(out, ProtocolVersion, EncodingVersion, byte(mt), 0 /* compression: unsupported */)
	var size [4]byte
	putUint32LE(size[:], uint32(12+len(body)))
	out = append(out, size[:]...)
	out = append(out, body...)
	return out
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func uint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// ReadEnvelope reads one complete frame from r: validates the magic and
// version bytes, and returns the message type plus the body (everything
// after the 12-byte common header).
func ReadEnvelope(r io.Reader) (MessageType, []byte, error) {
	var head [12]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, nil, err
	}
	if head[0] != Magic[0] || head[1] != Magic[1] || head[2] != Magic[2] || head[3] != Magic[3] {
		return 0, nil, fmt.Errorf("frame: bad magic %q", head[0:4])
	}
	if head[4] != ProtocolVersion {
		return 0, nil, fmt.Errorf("frame: unsupported protocol version %d", head[4])
	}
	if head[5] != EncodingVersion {
		return 0, nil, fmt.Errorf("frame: unsupported encoding version %d", head[5])
	}
	mt := MessageType(head[6])
	size := uint32LE(head[8:12])
	if size < 12 {
		return 0, nil, fmt.Errorf("frame: implausible total size %d", size)
	}
	body := make([]byte, size-12)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return mt, body, nil
}
