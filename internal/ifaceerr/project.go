package ifaceerr

// namedException is satisfied by *UserException itself and by every
// generated exception type, which embeds UserException and so promotes
// IceName. Asserting against this interface instead of the concrete
// *UserException type is what lets Project recognize an undeclared
// *generated* exception, not just a bare UserException value.
type namedException interface {
	error
	IceName() string
}

// Project implements spec §4.6 step 6: at the dispatch boundary, convert
// whatever the user code raised into one of the three kinds a client can
// always decode, unless it was already a declared user exception (the
// caller checks that first via the operation's own exception table and
// only calls Project on the remainder).
func Project(err error) error {
	switch e := err.(type) {
	case namedException:
		// Reached only when the caller didn't find e.IceName() in the
		// operation's declared set; an undeclared user exception is
		// surfaced as unknown, never passed through verbatim.
		return &UnknownUserException{ScopedID: e.IceName()}
	case *ObjectNotExistException, *FacetNotExistException, *OperationNotExistException:
		// Cast/identity mismatches are a distinct local-exception family
		// and pass through unprojected; the dispatch loop never routes
		// them through Project in the first place, but if it did, this
		// keeps them identifiable rather than collapsing them to
		// UnknownLocalException.
		return err
	case *UnknownUserException, *UnknownLocalException, *UnknownException:
		// Already one of the client-decodable kinds (e.g. the
		// UnknownLocalException dispatch builds from a recovered panic).
		return err
	case *ProtocolError, *TransportError:
		return &UnknownLocalException{Reason: e.Error()}
	case nil:
		return nil
	default:
		return &UnknownException{Reason: err.Error()}
	}
}
