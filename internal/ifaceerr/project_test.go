package ifaceerr

import (
	"errors"
	"testing"
)

func TestProjectUndeclaredUserException(t *testing.T) {
	err := Project(&UserException{ScopedID: "::Demo::WeirdException"})
	uue, ok := err.(*UnknownUserException)
	if !ok {
		t.Fatalf("got %T, want *UnknownUserException", err)
	}
	if uue.ScopedID != "::Demo::WeirdException" {
		t.Fatalf("got scoped id %q", uue.ScopedID)
	}
}

func TestProjectIdentityMismatchesPassThrough(t *testing.T) {
	in := &ObjectNotExistException{Identity: "widget"}
	out := Project(in)
	if out != error(in) {
		t.Fatalf("expected identity mismatch to pass through unchanged, got %v", out)
	}
}

func TestProjectLocalFailureBecomesUnknownLocal(t *testing.T) {
	out := Project(&ProtocolError{Reason: "bad magic"})
	if _, ok := out.(*UnknownLocalException); !ok {
		t.Fatalf("got %T, want *UnknownLocalException", out)
	}
}

func TestProjectAnythingElseBecomesUnknown(t *testing.T) {
	out := Project(errors.New("boom"))
	ue, ok := out.(*UnknownException)
	if !ok {
		t.Fatalf("got %T, want *UnknownException", out)
	}
	if ue.Reason != "boom" {
		t.Fatalf("got reason %q", ue.Reason)
	}
}

func TestProjectNil(t *testing.T) {
	if Project(nil) != nil {
		t.Fatal("expected nil passthrough")
	}
}

// generatedException stands in for a real internal/gen-emitted exception
// type: it embeds UserException by value and is never *ifaceerr.UserException
// itself, so Project must duck-type on IceName rather than assert the
// concrete base type.
type generatedException struct {
	UserException
}

func TestProjectUndeclaredGeneratedExceptionType(t *testing.T) {
	err := Project(&generatedException{UserException{ScopedID: "::Demo::OutOfRangeException"}})
	uue, ok := err.(*UnknownUserException)
	if !ok {
		t.Fatalf("got %T, want *UnknownUserException", err)
	}
	if uue.ScopedID != "::Demo::OutOfRangeException" {
		t.Fatalf("got scoped id %q", uue.ScopedID)
	}
}
