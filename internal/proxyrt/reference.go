// Package proxyrt implements the Proxy Reference and Servant data model
// (spec §3) with the capability-set redesign from spec §9's Design
// Notes: a proxy's supported interfaces are a flat set of scoped
// identifiers rather than a virtual-inheritance chain, and a facet is
// purely a lookup key into an adapter's servant map, not a distinct
// ownership root.
package proxyrt

import (
	"context"
	"time"

	"github.com/icebridge-project/icebridge/internal/ifaceerr"
	"github.com/icebridge-project/icebridge/pkg/refcount"
	uuid "github.com/satori/go.uuid"
)

// Mode is a Reference's dispatch mode.
type Mode int

const (
	Remote Mode = iota
	Collocated
)

// Transport is the network collaborator a remote Reference calls
// through. A single round trip sends requestPayload (the marshalled
// in-parameters) for (identity, facet, operation) and returns the raw
// reply frame: a wire.ReplyStatus byte followed by status-specific
// payload bytes, exactly as internal/dispatch produces it server-side.
type Transport interface {
	Invoke(ctx context.Context, identity, facet, operation string, idempotent bool, requestPayload []byte, timeout time.Duration) (replyFrame []byte, err error)
}

// Collocated is the in-process collaborator a collocated Reference
// dispatches through directly, bypassing the network entirely. It
// mirrors Transport's signature so delegate-collocated generated code can
// share the same call shape as delegate-remote.
type Collocated interface {
	Dispatch(ctx context.Context, identity, facet, operation string, idempotent bool, requestPayload []byte) (replyFrame []byte, err error)
}

// Reference is a handle to a possibly-remote object: target identity, an
// optional facet, the capability set (scoped interface ids this object
// is known to support), and the transport it dispatches through.
type Reference struct {
	Identity string
	Facet    string
	Caps     map[string]bool
	Mode     Mode
	Timeout  time.Duration

	Transport  Transport
	Collocated Collocated

	rc *refcount.Managed
}

// NewReference returns a Reference starting at one reference, released
// via onRelease when the last holder calls Release.
func NewReference(identity string, onRelease func()) *Reference {
	return &Reference{
		Identity: identity,
		Caps:     map[string]bool{},
		rc:       refcount.NewManaged(onRelease),
	}
}

// NewIdentity mints a fresh identity for a servant registered without an
// explicit name, the same role IceUtil's UUID generation plays for
// anonymous objects.
func NewIdentity() string {
	return uuid.NewV4().String()
}

// IncRef adds a reference.
func (r *Reference) IncRef() { r.rc.IncRef() }

// Release drops a reference, running the configured release callback on
// the last holder.
func (r *Reference) Release() { r.rc.Release() }

// WithFacet returns a new Reference to the same target object and
// transport, but addressing facet. Facet is purely a lookup key: it does
// not change the reference count's ownership root.
func (r *Reference) WithFacet(facet string) (*Reference, error) {
	clone := *r
	clone.Facet = facet
	clone.rc = nil // facet views do not participate in the original's lifecycle
	return &clone, nil
}

// isALocal checks the local capability set without a network round
// trip; IsA uses it for collocated references.
func (r *Reference) isALocal(scopedID string) bool {
	return r.Caps[scopedID]
}

// IsA queries whether the reference's target answers to scopedID. For a
// collocated reference this is a local map lookup; for a remote
// reference it performs the ice_isA round trip via Transport, surfacing
// FacetNotExistException untouched so checkedCast can swallow it.
func (r *Reference) IsA(scopedID string) (bool, error) {
	if r.Mode == Collocated {
		return r.isALocal(scopedID), nil
	}
	if r.Transport == nil {
		return false, &ifaceerr.TransportError{Reason: "reference has no transport", Retryable: false}
	}

	req := encodeIsARequest(scopedID)
	frame, err := r.Transport.Invoke(context.Background(), r.Identity, r.Facet, "ice_isA", true, req, r.Timeout)
	if err != nil {
		return false, err
	}
	return decodeIsAReply(frame)
}
