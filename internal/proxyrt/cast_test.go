package proxyrt

import (
	"context"
	"testing"
	"time"

	"github.com/icebridge-project/icebridge/internal/ifaceerr"
)

type countingTransport struct {
	calls int
	reply []byte
	err   error
}

func (t *countingTransport) Invoke(ctx context.Context, identity, facet, operation string, idempotent bool, payload []byte, timeout time.Duration) ([]byte, error) {
	t.calls++
	return t.reply, t.err
}

// TestCollocatedIsANoRemoteCall pins scenario 4: when a reference is
// collocated, IsA never touches the network -- it is a pure local
// capability-set lookup.
func TestCollocatedIsANoRemoteCall(t *testing.T) {
	tr := &countingTransport{}
	ref := &Reference{
		Mode:      Collocated,
		Caps:      map[string]bool{"::Demo::Widget": true},
		Transport: tr,
	}

	ok, err := ref.IsA("::Demo::Widget")
	if err != nil || !ok {
		t.Fatalf("IsA: %v %v", ok, err)
	}
	if tr.calls != 0 {
		t.Fatalf("expected 0 transport calls for collocated IsA, got %d", tr.calls)
	}

	ok, err = ref.IsA("::Demo::NotAWidget")
	if err != nil || ok {
		t.Fatalf("IsA: %v %v", ok, err)
	}
	if tr.calls != 0 {
		t.Fatalf("expected 0 transport calls for collocated IsA, got %d", tr.calls)
	}
}

func TestRemoteIsARoundTrips(t *testing.T) {
	s := wireOKBoolReply(true)
	tr := &countingTransport{reply: s}
	ref := &Reference{Mode: Remote, Transport: tr}

	ok, err := ref.IsA("::Demo::Widget")
	if err != nil || !ok {
		t.Fatalf("IsA: %v %v", ok, err)
	}
	if tr.calls != 1 {
		t.Fatalf("expected exactly 1 transport call, got %d", tr.calls)
	}
}

// TestRemoteIsASurfacesFacetNotExist checks that IsA hands a
// FacetNotExistException back untouched, which is what lets a generated
// Checked<Name>Cast swallow it into a nil result.
func TestRemoteIsASurfacesFacetNotExist(t *testing.T) {
	tr := &countingTransport{reply: wireFacetNotExistReply()}
	ref := &Reference{Mode: Remote, Transport: tr}

	facetRef, err := ref.WithFacet("stats")
	if err != nil {
		t.Fatalf("WithFacet: %v", err)
	}
	ok, err := facetRef.IsA("::Demo::Widget")
	if ok {
		t.Fatal("expected false")
	}
	if _, isFacet := err.(*ifaceerr.FacetNotExistException); !isFacet {
		t.Fatalf("got %T, want *ifaceerr.FacetNotExistException", err)
	}
}
