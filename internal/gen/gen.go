// Package gen is the code generator (C9): it instantiates one visitor
// (internal/slice's C8 framework) per emitted section and runs them over
// a slice.Unit in the fixed order spec §4.7 mandates, so that forward
// declarations precede definitions and type uses follow type
// declarations.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"

	"github.com/icebridge-project/icebridge/internal/slice"
)

// Generate emits the Go source for u as a single file in package pkgName.
// The ten passes run in the order spec §4.7 specifies; each pass is a
// slice.Visitor that appends to a shared buffer.
func Generate(u *slice.Unit, pkgName string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "// Code generated by icegen from a %q Slice unit. DO NOT EDIT.\n\n", u.Module)
	fmt.Fprintf(&buf, "package %s\n\n", pkgName)
	buf.WriteString(importBlock)
	buf.WriteString("\n")

	passes := []slice.Visitor{
		&proxyForwardVisitor{u: u, out: &buf},
		&servantForwardVisitor{u: u, out: &buf},
		&refcountHooksVisitor{u: u, out: &buf},
		&handleTypedefVisitor{u: u, out: &buf},
		&concreteTypesVisitor{u: u, out: &buf},
		&proxyInterfaceVisitor{u: u, out: &buf},
		&delegateAbstractVisitor{u: u, out: &buf},
		&delegateRemoteVisitor{u: u, out: &buf},
		&delegateCollocatedVisitor{u: u, out: &buf},
		&servantSkeletonVisitor{u: u, out: &buf},
	}
	for _, p := range passes {
		u.Walk(p)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: %s: generated source did not format: %w\n%s", u.Module, err, buf.String())
	}
	return formatted, nil
}

const importBlock = `import (
	"context"

	"github.com/icebridge-project/icebridge/internal/dispatch"
	"github.com/icebridge-project/icebridge/internal/ifaceerr"
	"github.com/icebridge-project/icebridge/internal/invoke"
	"github.com/icebridge-project/icebridge/internal/proxyrt"
	"github.com/icebridge-project/icebridge/pkg/wire"
)
`

// -- pass 1: proxy forward declarations ----------------------------------

type proxyForwardVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *proxyForwardVisitor) VisitInterfaceStart(i *slice.Interface) bool {
	if i.Local {
		return false
	}
	fmt.Fprintf(v.out, "// %sPrx is a proxy for %s.\ntype %sPrx struct {\n\tRef *proxyrt.Reference\n}\n\n",
		exported(i.Name), v.u.ScopedName(i.Name), exported(i.Name))
	return false
}

// -- pass 2: servant forward declarations --------------------------------

type servantForwardVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *servantForwardVisitor) VisitInterfaceStart(i *slice.Interface) bool {
	fmt.Fprintf(v.out, "// %s is the servant interface for %s; user code implements it.\ntype %s interface {\n",
		exported(i.Name), v.u.ScopedName(i.Name), exported(i.Name))
	for _, op := range v.u.TransitiveOperationDefs(i.Name) {
		fmt.Fprintf(v.out, "\t%s\n", operationSignature(op))
	}
	v.out.WriteString("}\n\n")
	return false
}

// -- pass 3: reference-count hooks (checkedCast/uncheckedCast) ----------

type refcountHooksVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *refcountHooksVisitor) VisitInterfaceStart(i *slice.Interface) bool {
	if i.Local {
		return false
	}
	name := exported(i.Name)
	scoped := v.u.ScopedName(i.Name)
	fmt.Fprintf(v.out, `// Checked%sCast queries base's remote object for %q before returning a
// proxy; it returns (nil, nil) if the facet does not exist.
func Checked%sCast(base *proxyrt.Reference, facet string) (*%sPrx, error) {
	ref, err := base.WithFacet(facet)
	if err != nil {
		return nil, err
	}
	ok, err := ref.IsA(%q)
	if err != nil {
		if _, isFacet := err.(*ifaceerr.FacetNotExistException); isFacet {
			return nil, nil
		}
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &%sPrx{Ref: ref}, nil
}

// Unchecked%sCast creates a proxy for facet on base's target without
// probing ice_isA.
func Unchecked%sCast(base *proxyrt.Reference, facet string) (*%sPrx, error) {
	ref, err := base.WithFacet(facet)
	if err != nil {
		return nil, err
	}
	return &%sPrx{Ref: ref}, nil
}

`, name, scoped, name, name, scoped, name, name, name, name, name)
	return false
}

// -- pass 4: handle typedefs ---------------------------------------------

type handleTypedefVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *handleTypedefVisitor) VisitInterfaceStart(i *slice.Interface) bool {
	name := exported(i.Name)
	fmt.Fprintf(v.out, "// %sHandle is the servant handle type for %s.\ntype %sHandle = %s\n\n", name, name, name, name)
	if !i.Local {
		fmt.Fprintf(v.out, "// %sPrxHandle is the proxy handle type for %s.\ntype %sPrxHandle = *%sPrx\n\n", name, name, name, name)
	}
	return false
}

// -- pass 5: concrete types (structs, enums, sequences, dicts, excs) -----

type concreteTypesVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *concreteTypesVisitor) VisitStructStart(s *slice.Struct) bool {
	v.out.WriteString(genStruct(s))
	return false
}

func (v *concreteTypesVisitor) VisitEnumStart(e *slice.Enum) bool {
	v.out.WriteString(genEnum(e))
	return false
}

func (v *concreteTypesVisitor) VisitSequenceStart(s *slice.Sequence) bool {
	fmt.Fprintf(v.out, "// %s is a sequence of %s.\ntype %s = []%s\n\n", exported(s.Name), s.Of, exported(s.Name), goType(s.Of))
	return false
}

func (v *concreteTypesVisitor) VisitDictionaryStart(d *slice.Dictionary) bool {
	fmt.Fprintf(v.out, "// %s maps %s to %s.\ntype %s = map[%s]%s\n\n", exported(d.Name), d.Key, d.Value, exported(d.Name), goType(d.Key), goType(d.Value))
	return false
}

func (v *concreteTypesVisitor) VisitExceptionStart(e *slice.Exception) bool {
	v.out.WriteString(genException(v.u, e))
	return false
}

// -- pass 6: proxy interfaces (methods that invoke through C6) -----------

type proxyInterfaceVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *proxyInterfaceVisitor) VisitInterfaceStart(i *slice.Interface) bool {
	if i.Local {
		return false
	}
	for _, op := range v.u.TransitiveOperationDefs(i.Name) {
		v.out.WriteString(genProxyMethod(exported(i.Name), op))
	}
	return false
}

// -- pass 7: delegate abstract interface ---------------------------------

type delegateAbstractVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *delegateAbstractVisitor) VisitInterfaceStart(i *slice.Interface) bool {
	if i.Local {
		return false
	}
	name := exported(i.Name)
	fmt.Fprintf(v.out, "// %sDelegate is the dispatch-mode-agnostic path a %sPrx method calls through.\ntype %sDelegate interface {\n", name, name, name)
	for _, op := range v.u.TransitiveOperationDefs(i.Name) {
		fmt.Fprintf(v.out, "\t%s\n", operationSignature(op))
	}
	v.out.WriteString("}\n\n")
	return false
}

// -- pass 8: delegate-remote implementation ------------------------------

type delegateRemoteVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *delegateRemoteVisitor) VisitInterfaceStart(i *slice.Interface) bool {
	if i.Local {
		return false
	}
	name := exported(i.Name)
	fmt.Fprintf(v.out, "// %sDelegateRemote marshals each operation over the invocation engine (C6).\ntype %sDelegateRemote struct {\n\tRef *proxyrt.Reference\n}\n\n", name, name)
	for _, op := range v.u.TransitiveOperationDefs(i.Name) {
		v.out.WriteString(genDelegateRemoteMethod(name, op))
	}
	return false
}

// -- pass 9: delegate-collocated implementation --------------------------

type delegateCollocatedVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *delegateCollocatedVisitor) VisitInterfaceStart(i *slice.Interface) bool {
	if i.Local {
		return false
	}
	name := exported(i.Name)
	fmt.Fprintf(v.out, `// %sDelegateCollocated dispatches against a reference whose Mode is
// proxyrt.Collocated, projecting local exceptions into the standardized
// unknown variants at the boundary exactly as a remote dispatch would.
type %sDelegateCollocated struct {
	Ref *proxyrt.Reference
}

`, name, name)
	for _, op := range v.u.TransitiveOperationDefs(i.Name) {
		v.out.WriteString(genDelegateCollocatedMethod(name, op))
	}
	return false
}

// -- pass 10: servant skeletons with dispatch tables ---------------------

type servantSkeletonVisitor struct {
	slice.BaseVisitor
	u   *slice.Unit
	out *bytes.Buffer
}

func (v *servantSkeletonVisitor) VisitInterfaceStart(i *slice.Interface) bool {
	if i.Local {
		return false
	}
	v.out.WriteString(genDispatchTable(v.u, i))
	return false
}

// -- shared helpers -------------------------------------------------------

// operationSignature renders an operation's Go method signature with a
// leading context.Context parameter (every operation is a potentially
// blocking call) and named results (out0, out1, ..., optionally ret,
// always err) so generated bodies can use naked returns.
func operationSignature(op *slice.Operation) string {
	in := []string{"ctx context.Context"}
	for _, p := range op.In {
		in = append(in, fmt.Sprintf("%s %s", p.Name, goType(p.Type)))
	}
	var out []string
	for i, p := range op.Out {
		out = append(out, fmt.Sprintf("out%d %s", i, goType(p.Type)))
	}
	if op.Returns != "" {
		out = append(out, fmt.Sprintf("ret %s", goType(op.Returns)))
	}
	out = append(out, "err error")
	return fmt.Sprintf("%s(%s) (%s)", exported(op.Name), strings.Join(in, ", "), strings.Join(out, ", "))
}
