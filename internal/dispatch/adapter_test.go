package dispatch

import (
	"context"
	"testing"

	"github.com/icebridge-project/icebridge/internal/ifaceerr"
	"github.com/icebridge-project/icebridge/internal/proxyrt"
	"github.com/icebridge-project/icebridge/pkg/wire"
)

type pointImpl struct{}

func (pointImpl) getX(req, reply *wire.Stream) error {
	reply.WriteInt(7)
	return nil
}

func outOfRangeHandler(req, reply *wire.Stream) error {
	return &outOfRangeException{ifaceerr.UserException{ScopedID: "::Demo::OutOfRangeException", Message: "too far"}}
}

func panickyHandler(req, reply *wire.Stream) error {
	panic("boom")
}

// outOfRangeException stands in for a generated exception type: it
// embeds ifaceerr.UserException and supplies its own Write, exactly the
// shape internal/gen's genException produces.
type outOfRangeException struct {
	ifaceerr.UserException
}

func (e *outOfRangeException) Write(s *wire.Stream) {
	s.WriteString(e.ScopedID)
	s.WriteString(e.Message)
}

func newTestAdapter(t *testing.T) (*Adapter, *proxyrt.Servant) {
	t.Helper()
	a := NewAdapter()
	servant := proxyrt.NewServant("widget-1", "", map[string]bool{"::Demo::Widget": true}, pointImpl{}, func() {})
	table := NewTable([]Entry{
		{Name: "getX", Handler: func(ctx context.Context, impl interface{}, req, reply *wire.Stream) error {
			return impl.(pointImpl).getX(req, reply)
		}},
		{Name: "risky", Declared: []string{"::Demo::OutOfRangeException"}, Handler: func(ctx context.Context, impl interface{}, req, reply *wire.Stream) error {
			return outOfRangeHandler(req, reply)
		}},
		{Name: "panicky", Handler: func(ctx context.Context, impl interface{}, req, reply *wire.Stream) error {
			return panickyHandler(req, reply)
		}},
	})
	a.Add(servant, table)
	return a, servant
}

func statusOf(t *testing.T, frame []byte) (wire.ReplyStatus, *wire.Stream) {
	t.Helper()
	s := wire.NewStream(wire.NewBufferFromBytes(frame))
	status, err := s.ReadReplyStatus()
	if err != nil {
		t.Fatalf("ReadReplyStatus: %v", err)
	}
	return status, s
}

func TestDispatchSuccess(t *testing.T) {
	a, _ := newTestAdapter(t)
	frame, err := a.Dispatch(context.Background(), "widget-1", "", "getX", true, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	status, s := statusOf(t, frame)
	if status != wire.StatusOK {
		t.Fatalf("status = %v", status)
	}
	n, rerr := s.ReadInt()
	if rerr != nil || n != 7 {
		t.Fatalf("payload: %v %v", n, rerr)
	}
}

func TestDispatchObjectNotExist(t *testing.T) {
	a, _ := newTestAdapter(t)
	frame, err := a.Dispatch(context.Background(), "missing", "", "getX", true, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	status, _ := statusOf(t, frame)
	if status != wire.StatusObjectNotExist {
		t.Fatalf("status = %v", status)
	}
}

func TestDispatchFacetNotExist(t *testing.T) {
	a, _ := newTestAdapter(t)
	frame, err := a.Dispatch(context.Background(), "widget-1", "wrong-facet", "getX", true, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	status, _ := statusOf(t, frame)
	if status != wire.StatusFacetNotExist {
		t.Fatalf("status = %v", status)
	}
}

func TestDispatchOperationNotExist(t *testing.T) {
	a, _ := newTestAdapter(t)
	frame, err := a.Dispatch(context.Background(), "widget-1", "", "noSuchOp", true, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	status, _ := statusOf(t, frame)
	if status != wire.StatusOperationNotExist {
		t.Fatalf("status = %v", status)
	}
}

func TestDispatchIceIsA(t *testing.T) {
	a, _ := newTestAdapter(t)
	req := wire.NewStream(nil)
	req.WriteString("::Demo::Widget")
	frame, err := a.Dispatch(context.Background(), "widget-1", "", "ice_isA", true, req.Buf.Bytes())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	status, s := statusOf(t, frame)
	if status != wire.StatusOK {
		t.Fatalf("status = %v", status)
	}
	ok, rerr := s.ReadBool()
	if rerr != nil || !ok {
		t.Fatalf("ice_isA result: %v %v", ok, rerr)
	}
}

func TestDispatchDeclaredUserExceptionMarshalsAsUserException(t *testing.T) {
	a, _ := newTestAdapter(t)
	frame, err := a.Dispatch(context.Background(), "widget-1", "", "risky", true, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	status, s := statusOf(t, frame)
	if status != wire.StatusUserException {
		t.Fatalf("status = %v", status)
	}
	id, rerr := s.ReadString()
	if rerr != nil || id != "::Demo::OutOfRangeException" {
		t.Fatalf("scoped id: %v %v", id, rerr)
	}
}

func TestDispatchPanicProjectsToUnknownLocalException(t *testing.T) {
	a, _ := newTestAdapter(t)
	frame, err := a.Dispatch(context.Background(), "widget-1", "", "panicky", true, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	status, _ := statusOf(t, frame)
	if status != wire.StatusUnknownLocalException {
		t.Fatalf("status = %v", status)
	}
}

func TestTableLookupBinarySearch(t *testing.T) {
	table := NewTable([]Entry{
		{Name: "zeta"}, {Name: "alpha"}, {Name: "mid"},
	})
	if _, ok := table.Lookup("mid"); !ok {
		t.Fatal("expected mid to be found")
	}
	if _, ok := table.Lookup("absent"); ok {
		t.Fatal("expected absent to be missing")
	}
}
