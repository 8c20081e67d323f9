package gen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/icebridge-project/icebridge/internal/slice"
)

// fieldWrite emits the statement that writes field f of value expr
// through stream s.
func fieldWrite(s, expr string, f slice.Field) string {
	if w := writerFor(f.Type); w != "" {
		return fmt.Sprintf("%s.%s(%s.%s)", s, w, expr, exported(f.Name))
	}
	return fmt.Sprintf("%s.%s.Write(%s)", expr, exported(f.Name), s)
}

// fieldRead emits the statement that reads field f of v from stream s,
// returning (retExpr, err) on failure -- retExpr is whatever the
// enclosing ReadX function's non-error result is ("v" for a struct,
// "e" for an exception).
func fieldRead(s, v string, f slice.Field, retExpr string) string {
	if r := readerFor(f.Type); r != "" {
		return fmt.Sprintf(`if %s.%s, err = %s.%s(); err != nil {
		return %s, err
	}`, v, exported(f.Name), s, r, retExpr)
	}
	return fmt.Sprintf(`if %s.%s, err = Read%s(%s); err != nil {
		return %s, err
	}`, v, exported(f.Name), goType(f.Type), s, retExpr)
}

// paramWrite emits the statement that writes a plain variable (an
// operation parameter, as opposed to a struct field) through stream s.
func paramWrite(s, varName string, p slice.Param) string {
	if w := writerFor(p.Type); w != "" {
		return fmt.Sprintf("%s.%s(%s)", s, w, varName)
	}
	return fmt.Sprintf("%s.Write(%s)", varName, s)
}

// paramReadInto emits the statement that reads a value of p's type from
// stream s into the already-declared variable dst, returning err (the
// caller's named return) on failure.
func paramReadInto(s, dst string, p slice.Param) string {
	if r := readerFor(p.Type); r != "" {
		return fmt.Sprintf(`if %s, err = %s.%s(); err != nil {
		return
	}`, dst, s, r)
	}
	return fmt.Sprintf(`if %s, err = Read%s(%s); err != nil {
		return
	}`, dst, goType(p.Type), s)
}

func genStruct(st *slice.Struct) string {
	name := exported(st.Name)
	var b strings.Builder

	fmt.Fprintf(&b, "// %s is a Slice struct.\ntype %s struct {\n", name, name)
	for _, f := range st.Fields {
		fmt.Fprintf(&b, "\t%s %s\n", exported(f.Name), goType(f.Type))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "// Write marshals v onto s in field declaration order.\nfunc (v %s) Write(s *wire.Stream) {\n", name)
	for _, f := range st.Fields {
		fmt.Fprintf(&b, "\t%s\n", fieldWrite("s", "v", f))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "// Read%s reads a %s from s in field declaration order.\nfunc Read%s(s *wire.Stream) (%s, error) {\n\tvar v %s\n\tvar err error\n", name, name, name, name, name)
	for _, f := range st.Fields {
		fmt.Fprintf(&b, "\t%s\n", fieldRead("s", "v", f, "v"))
	}
	b.WriteString("\treturn v, nil\n}\n\n")

	fmt.Fprintf(&b, "// Equal reports whether v and other have identical fields.\nfunc (v %s) Equal(other %s) bool {\n\treturn ", name, name)
	if len(st.Fields) == 0 {
		b.WriteString("true\n}\n\n")
	} else {
		var conds []string
		for _, f := range st.Fields {
			conds = append(conds, fmt.Sprintf("v.%s == other.%s", exported(f.Name), exported(f.Name)))
		}
		b.WriteString(strings.Join(conds, " &&\n\t\t"))
		b.WriteString("\n}\n\n")
	}

	fmt.Fprintf(&b, "// Less implements the strict total order derived lexicographically from\n// field declaration order.\nfunc (v %s) Less(other %s) bool {\n", name, name)
	for _, f := range st.Fields {
		fn := exported(f.Name)
		fmt.Fprintf(&b, "\tif v.%s != other.%s {\n\t\treturn v.%s < other.%s\n\t}\n", fn, fn, fn, fn)
	}
	b.WriteString("\treturn false\n}\n\n")

	return b.String()
}

func genEnum(e *slice.Enum) string {
	name := exported(e.Name)
	var b strings.Builder

	fmt.Fprintf(&b, "// %s is a Slice enum.\ntype %s int64\n\nconst (\n", name, name)
	for _, m := range e.Members {
		fmt.Fprintf(&b, "\t%s%s %s = %d\n", name, exported(m.Name), name, m.Ordinal)
	}
	b.WriteString(")\n\n")

	fmt.Fprintf(&b, "const %sMemberCount = %d\n\n", name, len(e.Members))

	fmt.Fprintf(&b, "// Write marshals v using the width implied by its cardinality.\nfunc (v %s) Write(s *wire.Stream) {\n\ts.WriteEnum(int64(v), %sMemberCount)\n}\n\n", name, name)
	fmt.Fprintf(&b, "// Read%s reads a %s using the width implied by its cardinality.\nfunc Read%s(s *wire.Stream) (%s, error) {\n\tv, err := s.ReadEnum(%sMemberCount)\n\treturn %s(v), err\n}\n\n", name, name, name, name, name, name)

	return b.String()
}

func genException(u *slice.Unit, exc *slice.Exception) string {
	name := exported(exc.Name)
	var b strings.Builder

	baseType := "ifaceerr.UserException"
	if exc.Base != "" {
		baseType = exported(exc.Base)
	}

	fmt.Fprintf(&b, "// %s is a Slice exception.\ntype %s struct {\n\t%s\n", name, name, baseType)
	for _, f := range exc.Fields {
		fmt.Fprintf(&b, "\t%s %s\n", exported(f.Name), goType(f.Type))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "// New%s constructs a %s with its scoped identifier set.\nfunc New%s() *%s {\n\te := &%s{}\n",
		name, name, name, name, name)
	if exc.Base == "" {
		fmt.Fprintf(&b, "\te.ScopedID = %q\n", u.ScopedName(exc.Name))
	} else {
		fmt.Fprintf(&b, "\te.%s = *New%s()\n\te.ScopedID = %q\n", baseType, baseType, u.ScopedName(exc.Name))
	}
	b.WriteString("\treturn e\n}\n\n")

	// base-then-derived marshal: ExceptionChain is root-first, so the
	// root ancestor's fields are written first and exc's own fields last
	// (the struct embeds UserException/base by value, so Write is only
	// ever invoked on the bottom-most derived type and walks the chain
	// explicitly).
	chain := u.ExceptionChain(exc.Name)
	fmt.Fprintf(&b, "// Write marshals e's scoped identifier then base-then-derived field lists.\nfunc (e *%s) Write(s *wire.Stream) {\n\ts.WriteExceptionID(e.ScopedID)\n", name)
	for _, link := range chain {
		for _, f := range link.Fields {
			fmt.Fprintf(&b, "\t%s\n", fieldWrite("s", "e", f))
		}
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "// Read%s reads a %s's base-then-derived field lists (the identifier\n// itself has already been consumed by dispatch-on-read).\nfunc Read%s(s *wire.Stream) (*%s, error) {\n\te := New%s()\n\tvar err error\n", name, name, name, name, name)
	for _, link := range chain {
		for _, f := range link.Fields {
			fmt.Fprintf(&b, "\t%s\n", fieldRead("s", "e", f, "e"))
		}
	}
	b.WriteString("\treturn e, nil\n}\n\n")

	return b.String()
}

// callArgsWithCtx renders the call-site argument list for invoking an
// operation method from generated code that already has ctx and each
// in-parameter bound to a local variable of the same name.
func callArgsWithCtx(op *slice.Operation) string {
	names := []string{"ctx"}
	for _, p := range op.In {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func genProxyMethod(ifaceName string, op *slice.Operation) string {
	args := callArgsWithCtx(op)
	name := exported(op.Name)
	return fmt.Sprintf(`// %s resolves the active delegate for this call attempt -- collocated
// if the proxy's reference targets an in-process servant, remote
// otherwise -- per the per-attempt delegate resolution rule.
func (p *%sPrx) %s {
	if p.Ref.Mode == proxyrt.Collocated {
		return (&%sDelegateCollocated{Ref: p.Ref}).%s(%s)
	}
	return (&%sDelegateRemote{Ref: p.Ref}).%s(%s)
}

`, name, ifaceName, operationSignature(op), ifaceName, name, args, ifaceName, name, args)
}

// genDelegateMethodBody renders the body shared by delegate-remote and
// delegate-collocated: marshal in-parameters, invoke through the
// engine (C6), decode the reply, and fan out over declared exceptions.
// Both delegate kinds hold a *proxyrt.Reference and call through
// invoke.New/Invoke, which itself performs the remote-vs-collocated
// branch on Ref.Mode; the two generated types exist to satisfy the
// fixed pass order, not to duplicate that branch.
func genDelegateMethodBody(receiver string, op *slice.Operation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "func (d *%s) %s {\n", receiver, operationSignature(op))
	fmt.Fprintf(&b, "\tinv := invoke.New(d.Ref, %q, %t)\n", op.Name, op.Idempotent)
	for _, p := range op.In {
		fmt.Fprintf(&b, "\t%s\n", paramWrite("inv.Request", p.Name, p))
	}

	b.WriteString("\tvar excReply *invoke.ExceptionReply\n\tvar reply *wire.Stream\n")
	b.WriteString("\treply, excReply, err = inv.Invoke(ctx)\n")
	b.WriteString("\tif err != nil {\n\t\treturn\n\t}\n")

	declared := append([]string(nil), op.Throws...)
	sort.Strings(declared)
	if len(declared) > 0 {
		b.WriteString("\tif excReply != nil {\n\t\tswitch excReply.ScopedID {\n")
		for _, id := range declared {
			excName := exported(lastSegment(id))
			fmt.Fprintf(&b, "\t\tcase %q:\n", id)
			fmt.Fprintf(&b, "\t\t\tvar e *%s\n\t\t\tif e, err = Read%s(excReply.Payload); err != nil {\n\t\t\t\treturn\n\t\t\t}\n\t\t\terr = e\n\t\t\treturn\n", excName, excName)
		}
		b.WriteString("\t\tdefault:\n\t\t\terr = &ifaceerr.UnknownUserException{ScopedID: excReply.ScopedID}\n\t\t\treturn\n\t\t}\n\t}\n")
	} else {
		b.WriteString("\tif excReply != nil {\n\t\terr = &ifaceerr.UnknownUserException{ScopedID: excReply.ScopedID}\n\t\treturn\n\t}\n")
	}

	// reply is only read below when the operation has out-parameters or
	// a return value; an operation with neither would otherwise leave it
	// assigned but never read.
	b.WriteString("\t_ = reply\n")

	for i, p := range op.Out {
		fmt.Fprintf(&b, "\t%s\n", paramReadInto("reply", fmt.Sprintf("out%d", i), p))
	}
	if op.Returns != "" {
		fmt.Fprintf(&b, "\t%s\n", paramReadInto("reply", "ret", slice.Param{Type: op.Returns}))
	}
	b.WriteString("\treturn\n}\n\n")
	return b.String()
}

func genDelegateRemoteMethod(ifaceName string, op *slice.Operation) string {
	return genDelegateMethodBody(ifaceName+"DelegateRemote", op)
}

func genDelegateCollocatedMethod(ifaceName string, op *slice.Operation) string {
	return genDelegateMethodBody(ifaceName+"DelegateCollocated", op)
}

// lastSegment returns the unqualified name from a "::A::B::Name" scoped
// identifier.
func lastSegment(scopedID string) string {
	parts := strings.Split(scopedID, "::")
	return parts[len(parts)-1]
}

// genDispatchTable emits the servant skeleton's dispatch table: one
// dispatch.Entry per transitive operation, each demarshalling
// in-parameters from the request stream, invoking the user's
// implementation, and marshalling out-parameters/return value onto the
// reply stream. ice_isA and ice_ping are handled directly by
// internal/dispatch.Adapter and are never placed in the table.
func genDispatchTable(u *slice.Unit, iface *slice.Interface) string {
	name := exported(iface.Name)
	ops := u.TransitiveOperationDefs(iface.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "// %sOperationTable is the dispatch table for %s, built from its\n// transitive operation set (binary-searched by internal/dispatch.Table).\nvar %sOperationTable = dispatch.NewTable([]dispatch.Entry{\n", name, u.ScopedName(iface.Name), name)

	for _, op := range ops {
		declared := append([]string(nil), op.Throws...)
		sort.Strings(declared)

		fmt.Fprintf(&b, "\t{\n\t\tName: %q,\n\t\tDeclared: []string{", op.Name)
		for _, id := range declared {
			fmt.Fprintf(&b, "%q, ", id)
		}
		b.WriteString("},\n")

		fmt.Fprintf(&b, "\t\tHandler: func(ctx context.Context, impl interface{}, req, reply *wire.Stream) error {\n")
		fmt.Fprintf(&b, "\t\t\tsvc := impl.(%s)\n", name)
		if len(op.In) > 0 {
			b.WriteString("\t\t\tvar err error\n")
		}
		for _, p := range op.In {
			v := "in_" + p.Name
			fmt.Fprintf(&b, "\t\t\tvar %s %s\n", v, goType(p.Type))
			if r := readerFor(p.Type); r != "" {
				fmt.Fprintf(&b, "\t\t\tif %s, err = req.%s(); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n", v, r)
			} else {
				fmt.Fprintf(&b, "\t\t\tif %s, err = Read%s(req); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n", v, goType(p.Type))
			}
		}

		var results []string
		for i := range op.Out {
			results = append(results, fmt.Sprintf("out%d", i))
		}
		if op.Returns != "" {
			results = append(results, "ret")
		}
		results = append(results, "opErr")

		var callArgs []string
		callArgs = append(callArgs, "ctx")
		for _, p := range op.In {
			callArgs = append(callArgs, "in_"+p.Name)
		}
		fmt.Fprintf(&b, "\t\t\t%s := svc.%s(%s)\n", strings.Join(results, ", "), exported(op.Name), strings.Join(callArgs, ", "))
		b.WriteString("\t\t\tif opErr != nil {\n\t\t\t\treturn opErr\n\t\t\t}\n")
		for i, p := range op.Out {
			fmt.Fprintf(&b, "\t\t\t%s\n", paramWriteReply(fmt.Sprintf("out%d", i), p))
		}
		if op.Returns != "" {
			fmt.Fprintf(&b, "\t\t\t%s\n", paramWriteReply("ret", slice.Param{Type: op.Returns}))
		}
		b.WriteString("\t\t\treturn nil\n\t\t},\n\t},\n")
	}
	b.WriteString("})\n\n")

	fmt.Fprintf(&b, `// Register%s registers impl as a servant for identity/facet on adapter,
// with capabilities derived from %s's transitive interface set.
func Register%s(adapter *dispatch.Adapter, identity, facet string, impl %s, onRelease func()) *proxyrt.Servant {
	caps := map[string]bool{}
`, name, name, name, name)
	for _, id := range u.TransitiveIDs(iface.Name) {
		fmt.Fprintf(&b, "\tcaps[%q] = true\n", id)
	}
	fmt.Fprintf(&b, "\tservant := proxyrt.NewServant(identity, facet, caps, impl, onRelease)\n\tadapter.Add(servant, %sOperationTable)\n\treturn servant\n}\n\n", name)

	return b.String()
}

func paramWriteReply(varName string, p slice.Param) string {
	if w := writerFor(p.Type); w != "" {
		return fmt.Sprintf("reply.%s(%s)", w, varName)
	}
	return fmt.Sprintf("%s.Write(reply)", varName)
}
