package tcptransport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/icebridge-project/icebridge/internal/dispatch"
	"github.com/icebridge-project/icebridge/internal/proxyrt"
	"github.com/icebridge-project/icebridge/pkg/wire"
)

type echoImpl struct{}

func (echoImpl) shout(req, reply *wire.Stream) error {
	msg, err := req.ReadString()
	if err != nil {
		return err
	}
	reply.WriteString(msg + "!")
	return nil
}

func newEchoAdapter() *dispatch.Adapter {
	a := dispatch.NewAdapter()
	servant := proxyrt.NewServant("echo-1", "", map[string]bool{"::Demo::Echo": true}, echoImpl{}, func() {})
	table := dispatch.NewTable([]dispatch.Entry{
		{Name: "shout", Handler: func(ctx context.Context, impl interface{}, req, reply *wire.Stream) error {
			return impl.(echoImpl).shout(req, reply)
		}},
	})
	a.Add(servant, table)
	return a
}

func TestTransportRoundTripOverLoopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	srv := NewListener(newEchoAdapter(), 2*time.Second)
	go srv.Serve(ln)

	client, err := Dial(ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	req := wire.NewStream(nil)
	req.WriteString("hello")

	frame, err := client.Invoke(context.Background(), "echo-1", "", "shout", true, req.Buf.Bytes(), time.Second)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	s := wire.NewStream(wire.NewBufferFromBytes(frame))
	status, err := s.ReadReplyStatus()
	if err != nil {
		t.Fatalf("ReadReplyStatus: %v", err)
	}
	if status != wire.StatusOK {
		t.Fatalf("status = %v", status)
	}
	got, err := s.ReadString()
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != "hello!" {
		t.Fatalf("got %q, want %q", got, "hello!")
	}
}

func TestTransportRoundTripObjectNotExist(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	srv := NewListener(newEchoAdapter(), 2*time.Second)
	go srv.Serve(ln)

	client, err := Dial(ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	frame, err := client.Invoke(context.Background(), "missing", "", "shout", true, nil, time.Second)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	s := wire.NewStream(wire.NewBufferFromBytes(frame))
	status, err := s.ReadReplyStatus()
	if err != nil {
		t.Fatalf("ReadReplyStatus: %v", err)
	}
	if status != wire.StatusObjectNotExist {
		t.Fatalf("status = %v", status)
	}
}
