// Package tcptransport is the concrete proxyrt.Transport/Collocated-shaped
// network layer example client and server binaries link against: a
// client-side Transport that dials once and serializes requests over the
// one connection, and a server-side Listener that accepts connections and
// feeds parsed frames to a dispatch.Adapter.
//
// Grounded on pkg/miniclient's single persistent connection guarded by a
// mutex (Dial/enc/dec/lock) for the client half, and internal/ron/server.go's
// accept-loop-plus-per-connection-goroutine for the server half.
package tcptransport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/icebridge-project/icebridge/internal/frame"
	"github.com/icebridge-project/icebridge/internal/ifaceerr"
	"github.com/icebridge-project/icebridge/pkg/readiness"
)

// Transport dials one TCP connection and multiplexes every Invoke over
// it, serialized by mu exactly as miniclient.Conn serializes Run calls
// over its single enc/dec pair.
type Transport struct {
	conn net.Conn

	mu     sync.Mutex
	nextID int32
}

// Dial connects to addr and returns a ready Transport.
func Dial(addr string) (*Transport, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcptransport: dial %s: %w", addr, err)
	}
	return &Transport{conn: conn}, nil
}

// Close releases the underlying connection.
func (t *Transport) Close() error {
	return t.conn.Close()
}

// Invoke implements proxyrt.Transport: write a request frame, block for
// the matching reply, and return the raw reply frame unwrapped from its
// envelope.
func (t *Transport) Invoke(ctx context.Context, identity, facet, operation string, idempotent bool, requestPayload []byte, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ifaceerr.TransportError{Reason: err.Error(), Retryable: false}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID

	hdr := frame.RequestHeader{
		RequestID:  id,
		Identity:   frame.Identity{Name: identity},
		Facet:      facet,
		Operation:  operation,
		Idempotent: idempotent,
	}
	raw := frame.WriteRequest(hdr, requestPayload)

	clear := readiness.Deadline(t.conn, timeout)
	defer clear()

	if _, err := t.conn.Write(raw); err != nil {
		return nil, &ifaceerr.TransportError{Reason: err.Error(), Retryable: readiness.Classify(err) == readiness.TimedOut}
	}

	mt, body, err := frame.ReadEnvelope(t.conn)
	if err != nil {
		return nil, &ifaceerr.TransportError{Reason: err.Error(), Retryable: readiness.Classify(err) == readiness.TimedOut}
	}
	if mt != frame.Reply {
		return nil, &ifaceerr.ProtocolError{Reason: fmt.Sprintf("tcptransport: expected reply frame, got message type %d", mt)}
	}

	gotID, replyFrame, err := frame.ReadReplyHeader(body)
	if err != nil {
		return nil, &ifaceerr.ProtocolError{Reason: err.Error()}
	}
	if gotID != id {
		return nil, &ifaceerr.ProtocolError{Reason: fmt.Sprintf("tcptransport: reply id %d does not match request id %d", gotID, id)}
	}
	return replyFrame, nil
}
