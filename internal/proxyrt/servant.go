package proxyrt

import "github.com/icebridge-project/icebridge/pkg/refcount"

// Servant is a local implementation of an interface: it owns its data,
// is reference-counted, and is registered behind an adapter (see
// internal/dispatch.Adapter) under an identity and facet that route
// incoming requests to it.
type Servant struct {
	Identity string
	Facet    string
	// Caps is the capability set this servant answers true for on
	// ice_isA: its own scoped id plus its transitive base ids.
	Caps map[string]bool
	// Impl is the user's generated-interface implementation; dispatch
	// code type-asserts it to the concrete servant interface for the
	// operation being invoked.
	Impl interface{}

	rc *refcount.Managed
}

// NewServant wires impl under identity/facet, starting at one reference
// released via onRelease.
func NewServant(identity, facet string, caps map[string]bool, impl interface{}, onRelease func()) *Servant {
	return &Servant{
		Identity: identity,
		Facet:    facet,
		Caps:     caps,
		Impl:     impl,
		rc:       refcount.NewManaged(onRelease),
	}
}

func (s *Servant) IncRef()  { s.rc.IncRef() }
func (s *Servant) Release() { s.rc.Release() }

// IsA reports whether this servant's capability set contains scopedID.
func (s *Servant) IsA(scopedID string) bool { return s.Caps[scopedID] }
