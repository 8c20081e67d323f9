package tcptransport

import (
	"context"
	"net"
	"time"

	"github.com/icebridge-project/icebridge/internal/dispatch"
	"github.com/icebridge-project/icebridge/internal/frame"
	"github.com/icebridge-project/icebridge/pkg/icelog"
	"github.com/icebridge-project/icebridge/pkg/readiness"
)

// Listener accepts connections and dispatches every request frame it
// reads against adapter, one goroutine per connection, the same shape as
// ron.Server.serve/clientHandler.
type Listener struct {
	adapter *dispatch.Adapter
	timeout time.Duration
}

// NewListener returns a Listener that dispatches against adapter, arming
// each read/write with timeout (zero disables the deadline).
func NewListener(adapter *dispatch.Adapter, timeout time.Duration) *Listener {
	return &Listener{adapter: adapter, timeout: timeout}
}

// Serve accepts connections from ln until it returns an error (including
// the listener being closed), handling each on its own goroutine.
func (l *Listener) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		icelog.Info("tcptransport: accepted %v", conn.RemoteAddr())
		go l.handle(conn)
	}
}

func (l *Listener) handle(conn net.Conn) {
	defer conn.Close()

	for {
		clear := readiness.Deadline(conn, l.timeout)
		mt, body, err := frame.ReadEnvelope(conn)
		clear()
		if err != nil {
			if readiness.Classify(err) != readiness.Broken {
				icelog.Debug("tcptransport: read %v: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if mt != frame.Request {
			icelog.Error("tcptransport: %v sent unexpected message type %d", conn.RemoteAddr(), mt)
			return
		}

		hdr, payload, err := frame.ReadRequestHeader(body)
		if err != nil {
			icelog.Error("tcptransport: %v sent malformed request: %v", conn.RemoteAddr(), err)
			return
		}

		ctx := icelog.WithRequestID(context.Background(), uint32(hdr.RequestID))
		replyFrame, err := l.adapter.Dispatch(ctx, hdr.Identity.Name, hdr.Facet, hdr.Operation, hdr.Idempotent, payload)
		if err != nil {
			icelog.Error("tcptransport: dispatch: %v", err)
			return
		}

		out := frame.WriteReply(hdr.RequestID, replyFrame)
		clear = readiness.Deadline(conn, l.timeout)
		_, err = conn.Write(out)
		clear()
		if err != nil {
			icelog.Debug("tcptransport: write %v: %v", conn.RemoteAddr(), err)
			return
		}
	}
}
