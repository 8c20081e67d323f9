package gen

import (
	"strings"
	"testing"

	"github.com/icebridge-project/icebridge/internal/slice"
)

func loadDemo(t *testing.T) *slice.Unit {
	t.Helper()
	u, err := slice.Load("../slice/testdata/demo.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return u
}

func TestGenerateProducesFormattedSource(t *testing.T) {
	u := loadDemo(t)
	out, err := Generate(u, "demo")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	src := string(out)

	for _, want := range []string{
		"package demo",
		"type WidgetPrx struct",
		"type Widget interface",
		"func CheckedWidgetCast(",
		"func UncheckedWidgetCast(",
		"type Point struct",
		"type Color int64",
		"type PointSeq = []Point",
		"type ColorByName = map[string]Color",
		"type NotFoundException struct",
		"type OutOfRangeException struct",
		"func (p *WidgetPrx) SetPoint(",
		"type WidgetDelegate interface",
		"type WidgetDelegateRemote struct",
		"type WidgetDelegateCollocated struct",
		"var WidgetOperationTable = dispatch.NewTable(",
		"func RegisterWidget(",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source missing %q", want)
		}
	}
}

// TestGenerateDispatchTableCoversTransitiveOperations checks that the
// generated source names every operation of Widget's transitive
// operation set (inherited ping included) even though Widget itself only
// declares getPoint and setPoint.
func TestGenerateDispatchTableCoversTransitiveOperations(t *testing.T) {
	u := loadDemo(t)
	out, err := Generate(u, "demo")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	src := string(out)
	for _, opName := range []string{`"getPoint"`, `"setPoint"`, `"ping"`} {
		if !strings.Contains(src, opName) {
			t.Errorf("dispatch table missing operation %s", opName)
		}
	}
}

// TestGenerateExceptionSwitchListsDeclaredThrows pins the
// declared-exception fan-out a delegate-remote method emits for an
// operation with a non-empty Throws list.
func TestGenerateExceptionSwitchListsDeclaredThrows(t *testing.T) {
	u := loadDemo(t)
	out, err := Generate(u, "demo")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	src := string(out)
	if !strings.Contains(src, `case "::Demo::NotFoundException":`) {
		t.Error("missing NotFoundException case")
	}
	if !strings.Contains(src, `case "::Demo::OutOfRangeException":`) {
		t.Error("missing OutOfRangeException case")
	}
	if !strings.Contains(src, "ReadNotFoundException(excReply.Payload)") {
		t.Error("missing NotFoundException decode call")
	}
}

func TestLastSegment(t *testing.T) {
	if got := lastSegment("::Demo::OutOfRangeException"); got != "OutOfRangeException" {
		t.Fatalf("got %q", got)
	}
	if got := lastSegment("Bare"); got != "Bare" {
		t.Fatalf("got %q", got)
	}
}
