// Package dispatch implements the server-side incoming-request state
// machine (C7): adapter lookup by identity+facet, operation lookup by
// binary range search, demarshal/invoke/marshal-reply, and the exception
// projection that turns anything user code raises into one of a finite
// set of client-decodable kinds.
//
// Grounded on internal/ron/server.go's command registry (name -> handler
// lookup, then invoke) and pkg/minicli's sorted/binary-searched pattern
// table, generalized to identity+facet addressing and the three-kind
// exception projection spec §4.6/§4.8 describe.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/icebridge-project/icebridge/internal/ifaceerr"
	"github.com/icebridge-project/icebridge/internal/proxyrt"
	"github.com/icebridge-project/icebridge/pkg/icelog"
	"github.com/icebridge-project/icebridge/pkg/wire"
)

// OperationHandler demarshals in-parameters from req, invokes the
// matching servant method, and marshals out-parameters/return value onto
// reply, returning the user exception the servant raised (if any).
// Generated servant skeletons register one of these per operation name.
type OperationHandler func(ctx context.Context, servant interface{}, req *wire.Stream, reply *wire.Stream) error

// userException is satisfied by every generated exception type: Error()
// and IceName() are promoted from its embedded ifaceerr.UserException,
// and Write is generated directly on the concrete type.
type userException interface {
	error
	IceName() string
	Write(s *wire.Stream)
}

// Entry is one row of a servant's dispatch table: an operation name, the
// sorted set of user exception identifiers it may raise, and its
// handler. Handlers are addressed by binary search on Name; NewTable
// sorts entries by Name (spec §4.7's tie-break rule: lexicographic on
// unqualified operation name), so callers may pass them in any order.
type Entry struct {
	Name     string
	Declared []string // sorted scoped ids this operation may raise
	Handler  OperationHandler
}

// Table is a sorted, deduplicated dispatch table for one interface,
// exactly the shape generated code builds via internal/gen's
// servantSkeletonVisitor.
type Table struct {
	entries []Entry // sorted by Name
}

// NewTable sorts entries by Name and returns a Table ready for Lookup.
// ice_isA and ice_ping are handled directly by Adapter.Dispatch and need
// not be present in entries.
func NewTable(entries []Entry) *Table {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Table{entries: sorted}
}

// Lookup binary searches for name, returning (entry, true) on a hit.
func (t *Table) Lookup(name string) (Entry, bool) {
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Name >= name })
	if i < len(t.entries) && t.entries[i].Name == name {
		return t.entries[i], true
	}
	return Entry{}, false
}

// Adapter routes incoming requests to registered servants by identity,
// then by facet, the way internal/ron's server keys its command registry
// by name but generalized to the two-level identity+facet key spec §4.6
// step 2 describes.
type Adapter struct {
	mu       sync.RWMutex
	servants map[string]map[string]*proxyrt.Servant // identity -> facet -> servant
	tables   map[string]*Table                      // "identity\x00facet" -> dispatch table
}

// NewAdapter returns an empty adapter.
func NewAdapter() *Adapter {
	return &Adapter{
		servants: map[string]map[string]*proxyrt.Servant{},
		tables:   map[string]*Table{},
	}
}

// Add registers servant under its Identity/Facet with table as its
// dispatch table.
func (a *Adapter) Add(servant *proxyrt.Servant, table *Table) {
	a.mu.Lock()
	defer a.mu.Unlock()

	facets, ok := a.servants[servant.Identity]
	if !ok {
		facets = map[string]*proxyrt.Servant{}
		a.servants[servant.Identity] = facets
	}
	facets[servant.Facet] = servant
	a.tables[tableKey(servant.Identity, servant.Facet)] = table
}

// Remove unregisters the servant at identity/facet, if any.
func (a *Adapter) Remove(identity, facet string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if facets, ok := a.servants[identity]; ok {
		delete(facets, facet)
		if len(facets) == 0 {
			delete(a.servants, identity)
		}
	}
	delete(a.tables, tableKey(identity, facet))
}

func tableKey(identity, facet string) string { return identity + "\x00" + facet }

func (a *Adapter) lookup(identity, facet string) (*proxyrt.Servant, *Table, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	facets, ok := a.servants[identity]
	if !ok {
		return nil, nil, &ifaceerr.ObjectNotExistException{Identity: identity}
	}
	servant, ok := facets[facet]
	if !ok {
		return nil, nil, &ifaceerr.FacetNotExistException{Identity: identity, Facet: facet}
	}
	return servant, a.tables[tableKey(identity, facet)], nil
}

// Dispatch implements spec §4.6 steps 1-6 in full: locate the servant,
// binary-search its dispatch table, demarshal/invoke/marshal, and project
// whatever user code raised into a finite reply frame. It satisfies both
// proxyrt.Collocated (direct in-process calls) and is the handler a
// network listener calls after parsing a frame's header.
func (a *Adapter) Dispatch(ctx context.Context, identity, facet, operation string, idempotent bool, requestPayload []byte) ([]byte, error) {
	servant, table, err := a.lookup(identity, facet)
	if err != nil {
		return replyForLocalException(err), nil
	}

	switch operation {
	case "ice_isA":
		return dispatchIceIsA(servant, requestPayload), nil
	case "ice_ping":
		return okReply(func(*wire.Stream) {}), nil
	}

	entry, ok := table.Lookup(operation)
	if !ok {
		return replyForLocalException(&ifaceerr.OperationNotExistException{Identity: identity, Operation: operation}), nil
	}

	req := wire.NewStream(wire.NewBufferFromBytes(requestPayload))
	reply := wire.NewStream(nil)
	reply.WriteReplyStatus(wire.StatusOK)

	invokeErr := invokeWithRecover(ctx, entry.Handler, servant.Impl, req, reply)
	if invokeErr == nil {
		return reply.Buf.Bytes(), nil
	}

	// The handler may have partially written to reply before raising;
	// discard it and rebuild the frame around the (possibly projected)
	// exception, per §4.6 step 6.
	if ue, ok := invokeErr.(userException); ok && declared(entry.Declared, ue.IceName()) {
		out := wire.NewStream(nil)
		out.WriteReplyStatus(wire.StatusUserException)
		ue.Write(out)
		return out.Buf.Bytes(), nil
	}
	return replyForProjected(ctx, invokeErr), nil
}

func declared(ids []string, scopedID string) bool {
	i := sort.SearchStrings(ids, scopedID)
	return i < len(ids) && ids[i] == scopedID
}

// invokeWithRecover converts a panic in user code into an
// UnknownLocalException instead of crashing the dispatcher, the same
// boundary-trapping role §4.6 step 6 assigns to local runtime failures.
func invokeWithRecover(ctx context.Context, handler OperationHandler, impl interface{}, req, reply *wire.Stream) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ifaceerr.UnknownLocalException{Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return handler(ctx, impl, req, reply)
}

func dispatchIceIsA(servant *proxyrt.Servant, payload []byte) []byte {
	req := wire.NewStream(wire.NewBufferFromBytes(payload))
	scopedID, err := req.ReadString()
	if err != nil {
		return replyForLocalException(&ifaceerr.ProtocolError{Reason: err.Error()})
	}
	return okReply(func(s *wire.Stream) { s.WriteBool(servant.IsA(scopedID)) })
}

func okReply(write func(*wire.Stream)) []byte {
	s := wire.NewStream(nil)
	s.WriteReplyStatus(wire.StatusOK)
	write(s)
	return s.Buf.Bytes()
}

func replyForLocalException(err error) []byte {
	s := wire.NewStream(nil)
	switch e := err.(type) {
	case *ifaceerr.ObjectNotExistException:
		s.WriteReplyStatus(wire.StatusObjectNotExist)
		s.WriteString("") // no forward target
	case *ifaceerr.FacetNotExistException:
		s.WriteReplyStatus(wire.StatusFacetNotExist)
	case *ifaceerr.OperationNotExistException:
		s.WriteReplyStatus(wire.StatusOperationNotExist)
	case *ifaceerr.LocationForward:
		s.WriteReplyStatus(wire.StatusObjectNotExist)
		s.WriteString(e.NewIdentity)
	default:
		s.WriteReplyStatus(wire.StatusUnknownLocalException)
		s.WriteString(err.Error())
	}
	return s.Buf.Bytes()
}

// replyForProjected implements §4.6 step 6's final projection: anything
// that reaches here is not a declared user exception, so it becomes one
// of the three "unknown" kinds. An UnknownException additionally carries
// the log lines the servant emitted while handling this request (see
// icelog.HistoryFor), so an operator can see what led up to the failure
// without correlating timestamps against a separate server log by hand.
func replyForProjected(ctx context.Context, err error) []byte {
	icelog.CtxError(ctx, "dispatch: %v", err)
	projected := ifaceerr.Project(err)
	s := wire.NewStream(nil)
	switch e := projected.(type) {
	case *ifaceerr.UnknownUserException:
		s.WriteReplyStatus(wire.StatusUnknownUserException)
		s.WriteString(e.ScopedID)
	case *ifaceerr.UnknownLocalException:
		s.WriteReplyStatus(wire.StatusUnknownLocalException)
		s.WriteString(e.Reason)
	default:
		s.WriteReplyStatus(wire.StatusUnknownException)
		reason := e.Error()
		if lines := icelog.HistoryFor(icelog.RequestIDFromContext(ctx)); len(lines) > 0 {
			reason += " (recent log: " + strings.Join(lines, " | ") + ")"
		}
		s.WriteString(reason)
	}
	return s.Buf.Bytes()
}
