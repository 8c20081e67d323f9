// Package invoke implements the client-side outgoing-request state
// machine (C6): Start -> Sending -> Decoding -> {Done, Raising,
// location-forward back to Start, or Retrying -> Start for idempotent
// transport failures}.
//
// Grounded on pkg/miniclient/client.go's Dial (doubling backoff on a
// retryable net.OpError) and internal/ron/command.go's request/response
// record shape; the backoff schedule itself is computed by
// hashicorp/go-retryablehttp's DefaultBackoff rather than the teacher's
// hand-rolled doubling, since that library is already present in the
// pack (nabbar-golib) and is the idiomatic replacement for the same
// concern.
package invoke

import (
	"context"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/icebridge-project/icebridge/internal/ifaceerr"
	"github.com/icebridge-project/icebridge/internal/proxyrt"
	"github.com/icebridge-project/icebridge/pkg/wire"
)

// ExceptionReply carries a declared user exception's wire identity and
// its still-unread field payload; the generated delegate-remote method
// reconstructs the concrete exception type by switching on ScopedID.
type ExceptionReply struct {
	ScopedID string
	Payload  *wire.Stream
}

// Invocation is the per-call state the engine threads through its state
// machine: attempt count, target, marshalled request, and (for
// non-idempotent operations) the commit flag that forbids transparent
// retry once a request has left the host.
type Invocation struct {
	Ref        *proxyrt.Reference
	Operation  string
	Idempotent bool
	Context    map[string]string
	Request    *wire.Stream

	// MaxAttempts bounds transport-failure retries: attempts that leave
	// the host and fail before a reply arrives.
	MaxAttempts int

	// MaxForwards bounds location-forward hops, tracked separately from
	// MaxAttempts per spec §4.5 step 6 ("retry without incrementing the
	// attempt counter") -- a forward re-targets the same logical call, it
	// isn't a failed attempt. Both budgets exist so a misbehaving or
	// cyclically-forwarding adapter still cannot loop the client forever.
	MaxForwards int

	committed bool // set once a non-idempotent request has been sent
}

// New returns an Invocation ready for its caller to write in-parameters
// into Request before calling Invoke.
func New(ref *proxyrt.Reference, operation string, idempotent bool) *Invocation {
	return &Invocation{
		Ref:         ref,
		Operation:   operation,
		Idempotent:  idempotent,
		Request:     wire.NewStream(nil),
		MaxAttempts: 5,
		MaxForwards: 5,
	}
}

// Invoke runs the Start/Sending/Decoding state machine to completion. It
// returns exactly one of: a successful reply stream positioned at the
// start of the operation's out-parameters, an ExceptionReply for a
// declared user exception (the caller decodes it against its own
// declared-exception table), or an error. A reply frame that does not
// decode yields *ifaceerr.ProtocolError; the other reply statuses yield
// *ifaceerr.UnknownUserException, *ifaceerr.UnknownLocalException,
// *ifaceerr.UnknownException, *ifaceerr.ObjectNotExistException,
// *ifaceerr.FacetNotExistException or *ifaceerr.OperationNotExistException.
// An error from the transport itself is returned as is: at once when it
// is not a retryable *ifaceerr.TransportError or the call may not be
// retried, otherwise once MaxAttempts is used up. Exceeding MaxForwards
// yields a non-retryable *ifaceerr.TransportError.
func (inv *Invocation) Invoke(ctx context.Context) (*wire.Stream, *ExceptionReply, error) {
	payload := inv.Request.Buf.Bytes()
	target := inv.Ref

	var lastErr error
	forwards := 0
	for attempt := 0; attempt < inv.MaxAttempts; {
		if attempt > 0 {
			time.Sleep(retryablehttp.DefaultBackoff(50*time.Millisecond, 2*time.Second, attempt, nil))
		}

		frame, err := inv.send(ctx, target, payload)
		if err != nil {
			lastErr = err
			if terr, ok := err.(*ifaceerr.TransportError); ok && terr.Retryable && inv.mayRetry() {
				attempt++
				continue // Retrying -> Start, draws from the attempt budget
			}
			return nil, nil, err
		}

		reply, excReply, forward, derr := decode(frame)
		if forward != "" {
			if forwards >= inv.MaxForwards {
				return nil, nil, &ifaceerr.TransportError{Reason: "too many location forwards", Retryable: false}
			}
			forwards++
			target = retarget(target, forward)
			lastErr = nil
			continue // location-forward -> Start (re-targeted), attempt budget untouched
		}
		return reply, excReply, derr
	}
	return nil, nil, lastErr
}

// send marks a non-idempotent call as committed before the first byte
// leaves the host, matching the "commit flag that forbids transparent
// retry once the request has left the host" invariant from spec §3's
// Invocation Record.
func (inv *Invocation) send(ctx context.Context, ref *proxyrt.Reference, payload []byte) ([]byte, error) {
	if !inv.Idempotent {
		inv.committed = true
	}
	if ref.Mode == proxyrt.Collocated {
		if ref.Collocated == nil {
			return nil, &ifaceerr.TransportError{Reason: "collocated reference has no dispatcher", Retryable: false}
		}
		return ref.Collocated.Dispatch(ctx, ref.Identity, ref.Facet, inv.Operation, inv.Idempotent, payload)
	}
	if ref.Transport == nil {
		return nil, &ifaceerr.TransportError{Reason: "reference has no transport", Retryable: false}
	}
	return ref.Transport.Invoke(ctx, ref.Identity, ref.Facet, inv.Operation, inv.Idempotent, payload, ref.Timeout)
}

// mayRetry reports whether a transport failure may be retried: either
// the operation is idempotent, or it is not yet committed (the failure
// happened before anything reached the wire).
func (inv *Invocation) mayRetry() bool {
	return inv.Idempotent || !inv.committed
}

func retarget(ref *proxyrt.Reference, newIdentity string) *proxyrt.Reference {
	clone := *ref
	clone.Identity = newIdentity
	return &clone
}

// decode implements spec §4.6 step 6's projection in reverse: it reads
// the reply status and returns exactly one outcome.
func decode(frame []byte) (reply *wire.Stream, excReply *ExceptionReply, forwardTo string, err error) {
	s := wire.NewStream(wire.NewBufferFromBytes(frame))
	status, rerr := s.ReadReplyStatus()
	if rerr != nil {
		return nil, nil, "", &ifaceerr.ProtocolError{Reason: rerr.Error()}
	}

	switch status {
	case wire.StatusOK:
		return s, nil, "", nil
	case wire.StatusUserException:
		id, rerr := s.ReadString()
		if rerr != nil {
			return nil, nil, "", &ifaceerr.ProtocolError{Reason: rerr.Error()}
		}
		return nil, &ExceptionReply{ScopedID: id, Payload: s}, "", nil
	case wire.StatusObjectNotExist:
		forward, rerr := s.ReadString()
		if rerr == nil && forward != "" {
			return nil, nil, forward, nil
		}
		return nil, nil, "", &ifaceerr.ObjectNotExistException{}
	case wire.StatusFacetNotExist:
		return nil, nil, "", &ifaceerr.FacetNotExistException{}
	case wire.StatusOperationNotExist:
		return nil, nil, "", &ifaceerr.OperationNotExistException{}
	case wire.StatusUnknownUserException:
		id, _ := s.ReadString()
		return nil, nil, "", &ifaceerr.UnknownUserException{ScopedID: id}
	case wire.StatusUnknownLocalException:
		reason, _ := s.ReadString()
		return nil, nil, "", &ifaceerr.UnknownLocalException{Reason: reason}
	default:
		reason, _ := s.ReadString()
		return nil, nil, "", &ifaceerr.UnknownException{Reason: reason}
	}
}
