// Package refcount implements the intrusive, non-throwing reference
// counter every generated proxy and servant embeds, matching the
// IceUtil::Shared / incRef/decRef convention visible throughout
// original_source/cpp/src/IceSSL/Util.cpp (e.g. IceInternal::incRef and
// decRef wrapping DHParams::__incRef/__decRef).
//
// Go has a garbage collector, so this package is not load-bearing for
// memory safety the way it is in the C++ original; it exists so that
// generated code can run deterministic last-release cleanup (closing a
// connection, releasing a cache slot) at the same point the original
// object model does, rather than leaving it to a finalizer.
package refcount

import "sync/atomic"

// Counter is embedded by value in any type that needs deterministic
// last-release semantics. The zero value holds no reference; NewCounter
// and NewManaged start at a single reference, matching the original's
// "a newly constructed Shared has one reference held by its creator"
// convention.
type Counter struct {
	n int64
}

// NewCounter returns a Counter starting at one reference.
func NewCounter() *Counter {
	return &Counter{n: 1}
}

// IncRef adds one reference. It never fails.
func (c *Counter) IncRef() {
	atomic.AddInt64(&c.n, 1)
}

// DecRef releases one reference and reports whether this call dropped
// the count to zero, i.e. whether the caller released the last reference
// and must run release logic.
func (c *Counter) DecRef() (last bool) {
	return atomic.AddInt64(&c.n, -1) == 0
}

// Count returns the current reference count, for diagnostics and tests
// only -- never branch production logic on an observed count other than
// the boolean DecRef returns, since another goroutine may change it
// immediately after the read.
func (c *Counter) Count() int64 {
	return atomic.LoadInt64(&c.n)
}

// Managed pairs a Counter with a release function, so callers don't have
// to hand-roll the "if DecRef returns true, call Close" boilerplate at
// every call site.
type Managed struct {
	Counter
	release func()
}

// NewManaged returns a Managed starting at one reference, invoking
// release the first time its count reaches zero.
func NewManaged(release func()) *Managed {
	return &Managed{Counter: Counter{n: 1}, release: release}
}

// Release calls DecRef and, if that was the last reference, invokes the
// configured release function exactly once.
func (m *Managed) Release() {
	if m.DecRef() && m.release != nil {
		m.release()
	}
}
