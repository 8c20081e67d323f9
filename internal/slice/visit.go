package slice

// Visitor is the AST walk contract (C8): one Start/End pair per node
// kind. A Start hook returning false prunes that node's subtree --
// its End hook and any children are skipped, but traversal continues
// with the node's siblings.
//
// The generator (C9) implements several Visitors, one per emitted
// section, and runs them over the same Unit in the fixed pass order
// spec §4.7 describes.
type Visitor interface {
	VisitUnitStart(u *Unit) bool
	VisitUnitEnd(u *Unit)

	VisitStructStart(s *Struct) bool
	VisitStructEnd(s *Struct)

	VisitEnumStart(e *Enum) bool
	VisitEnumEnd(e *Enum)

	VisitSequenceStart(s *Sequence) bool
	VisitSequenceEnd(s *Sequence)

	VisitDictionaryStart(d *Dictionary) bool
	VisitDictionaryEnd(d *Dictionary)

	VisitExceptionStart(e *Exception) bool
	VisitExceptionEnd(e *Exception)

	VisitInterfaceStart(i *Interface) bool
	VisitInterfaceEnd(i *Interface)

	VisitOperationStart(op *Operation) bool
	VisitOperationEnd(op *Operation)
}

// BaseVisitor is embedded by visitors that only care about a subset of
// node kinds; every hook it doesn't override defaults to "descend".
type BaseVisitor struct{}

func (BaseVisitor) VisitUnitStart(*Unit) bool             { return true }
func (BaseVisitor) VisitUnitEnd(*Unit)                    {}
func (BaseVisitor) VisitStructStart(*Struct) bool         { return true }
func (BaseVisitor) VisitStructEnd(*Struct)                {}
func (BaseVisitor) VisitEnumStart(*Enum) bool             { return true }
func (BaseVisitor) VisitEnumEnd(*Enum)                    {}
func (BaseVisitor) VisitSequenceStart(*Sequence) bool     { return true }
func (BaseVisitor) VisitSequenceEnd(*Sequence)             {}
func (BaseVisitor) VisitDictionaryStart(*Dictionary) bool { return true }
func (BaseVisitor) VisitDictionaryEnd(*Dictionary)        {}
func (BaseVisitor) VisitExceptionStart(*Exception) bool   { return true }
func (BaseVisitor) VisitExceptionEnd(*Exception)          {}
func (BaseVisitor) VisitInterfaceStart(*Interface) bool   { return true }
func (BaseVisitor) VisitInterfaceEnd(*Interface)          {}
func (BaseVisitor) VisitOperationStart(*Operation) bool   { return true }
func (BaseVisitor) VisitOperationEnd(*Operation)          {}

// Walk drives v over u in declaration order: structs, enums, sequences,
// dictionaries, exceptions, then interfaces (each interface's operations
// in declared order). This is the traversal order the generator's
// per-section visitors rely on to emit forward declarations before
// definitions.
func (u *Unit) Walk(v Visitor) {
	if !v.VisitUnitStart(u) {
		return
	}
	defer v.VisitUnitEnd(u)

	for i := range u.Structs {
		s := &u.Structs[i]
		if v.VisitStructStart(s) {
			v.VisitStructEnd(s)
		}
	}
	for i := range u.Enums {
		e := &u.Enums[i]
		if v.VisitEnumStart(e) {
			v.VisitEnumEnd(e)
		}
	}
	for i := range u.Sequences {
		s := &u.Sequences[i]
		if v.VisitSequenceStart(s) {
			v.VisitSequenceEnd(s)
		}
	}
	for i := range u.Dictionaries {
		d := &u.Dictionaries[i]
		if v.VisitDictionaryStart(d) {
			v.VisitDictionaryEnd(d)
		}
	}
	for i := range u.Exceptions {
		e := &u.Exceptions[i]
		if v.VisitExceptionStart(e) {
			v.VisitExceptionEnd(e)
		}
	}
	for i := range u.Interfaces {
		iface := &u.Interfaces[i]
		if !v.VisitInterfaceStart(iface) {
			continue
		}
		for j := range iface.Operations {
			op := &iface.Operations[j]
			if v.VisitOperationStart(op) {
				v.VisitOperationEnd(op)
			}
		}
		v.VisitInterfaceEnd(iface)
	}
}
