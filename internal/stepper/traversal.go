package stepper

import (
	"ownvm/internal/bir"
	"ownvm/internal/fault"
	"ownvm/internal/machine"
)

// Anchor is a scope marker: it stands for the lifetime of a single
// traversal, over which a mutable borrow of a frame slot is held, so
// that borrow provably ends before the next statement runs. Go has no
// borrow checker to enforce that, but the type documents the intended
// scope even though nothing here checks it.
type Anchor struct{}

// NewAnchor starts a new traversal scope.
func NewAnchor() *Anchor { return &Anchor{} }

// Traversal is the result of resolving a place for reading: the chain of
// permissions traversed root-to-leaf, and the object found at the leaf.
type Traversal struct {
	Traversed []machine.PermHandle
	Object    machine.ObjectHandle
}

// Value reconstructs the (object, permission) pair the traversal landed
// on.
func (t Traversal) Value() machine.Value {
	return machine.Value{Object: t.Object, Permission: t.Traversed[len(t.Traversed)-1]}
}

// Location is a mutable place: a frame slot or an instance field. give
// and plain assignment both write through one.
type Location interface {
	Get() *machine.Value
	Set(*machine.Value)
}

type slotLocation struct {
	frame *machine.Frame
	local bir.LocalVariable
}

func (l slotLocation) Get() *machine.Value  { return l.frame.Slot(l.local) }
func (l slotLocation) Set(v *machine.Value) { l.frame.SetSlot(l.local, v) }

type fieldLocation struct {
	m     machine.MachineOp
	obj   machine.ObjectHandle
	index int
}

func (l fieldLocation) instance() machine.Instance {
	return l.m.Object(l.obj).(machine.Instance)
}

func (l fieldLocation) Get() *machine.Value { return l.instance().Fields[l.index] }
func (l fieldLocation) Set(v *machine.Value) {
	// Instance.Fields is a slice; the arena's copy of the Instance shares
	// the same backing array, so mutating an element here is visible
	// through every other handle to the same object without a SetObject
	// round-trip.
	l.instance().Fields[l.index] = v
}

// traverseToObject resolves a place for reading: every permission
// encountered, including the leaf, must be non-canceled, and the leaf
// must be initialized.
func (s *Stepper) traverseToObject(anchor *Anchor, prog *bir.Bir, place bir.Place) (Traversal, error) {
	switch d := prog.Tables.PlaceData(place).(type) {
	case bir.LocalVariablePlace:
		frame := s.machine.TopFrame()
		slot := frame.Slot(d.Var)
		if slot == nil {
			return Traversal{}, s.fault(fault.Uninitialized, prog.SpanOfPlace(place), "use of uninitialized variable")
		}
		if s.isCanceled(slot.Permission) {
			return Traversal{}, s.fault(fault.UseOfCanceledPermission, prog.SpanOfPlace(place), "use of canceled permission")
		}
		return Traversal{Traversed: []machine.PermHandle{slot.Permission}, Object: slot.Object}, nil

	case bir.DotPlace:
		parent, err := s.traverseToObject(anchor, prog, d.Base)
		if err != nil {
			return Traversal{}, err
		}
		instance, ok := s.machine.Object(parent.Object).(machine.Instance)
		if !ok {
			return Traversal{}, s.fault(fault.TypeMismatch, prog.SpanOfPlace(place), "expected an instance, found %s", s.machine.Object(parent.Object).Kind())
		}
		idx := instance.Class.FieldIndex(d.Field)
		if idx < 0 {
			return Traversal{}, s.fault(fault.NoSuchField, prog.SpanOfPlace(place), "the class `%s` has no field named `%s`", instance.Class.Name, d.Field).
				WithSecondary(fault.Span{}, "class `"+instance.Class.Name+"` declared here")
		}
		field := instance.Fields[idx]
		if field == nil {
			return Traversal{}, s.fault(fault.Uninitialized, prog.SpanOfPlace(place), "use of uninitialized field `%s`", d.Field)
		}
		if s.isCanceled(field.Permission) {
			return Traversal{}, s.fault(fault.UseOfCanceledPermission, prog.SpanOfPlace(place), "use of canceled permission")
		}
		traversed := append(append([]machine.PermHandle{}, parent.Traversed...), field.Permission)
		return Traversal{Traversed: traversed, Object: field.Object}, nil

	case bir.GlobalPlace:
		data, err := s.resolveGlobal(d.Name, prog.SpanOfPlace(place))
		if err != nil {
			return Traversal{}, err
		}
		handle := s.machine.NewObject(data)
		perm := s.machine.NewPermission(machine.NewOur())
		return Traversal{Traversed: []machine.PermHandle{perm}, Object: handle}, nil

	default:
		fault.AssertionViolation("unknown PlaceData variant %T", d)
		panic("unreachable")
	}
}

// resolveGlobal looks a name up in the program table and reifies it as
// heap object data; globals have no fixed home in the heap, so every
// read allocates a fresh `our` handle to it (spec.md §6).
func (s *Stepper) resolveGlobal(name string, span fault.Span) (machine.ObjectData, error) {
	program := s.machine.Program()
	if fn, ok := program.Functions[name]; ok {
		return machine.FunctionObject{Function: fn}, nil
	}
	if class, ok := program.Classes[name]; ok {
		return machine.ClassObject{Class: class}, nil
	}
	if intrinsic, ok := program.Intrinsics[name]; ok {
		return machine.IntrinsicObject{Name: intrinsic}, nil
	}
	return nil, s.fault(fault.TypeMismatch, span, "no such global `%s`", name)
}

// resolveLocation resolves a place to a mutable Location, without
// requiring the leaf to already hold a value — used both by
// traverseToPlace (assignment) and by give (clearing the source slot).
// The path to the leaf (any enclosing Dot base) is still read through
// traverseToObject and so is subject to the usual initialized/canceled
// checks.
func (s *Stepper) resolveLocation(prog *bir.Bir, place bir.Place) (Location, error) {
	switch d := prog.Tables.PlaceData(place).(type) {
	case bir.LocalVariablePlace:
		return slotLocation{frame: s.machine.TopFrame(), local: d.Var}, nil

	case bir.DotPlace:
		anchor := NewAnchor()
		parent, err := s.traverseToObject(anchor, prog, d.Base)
		if err != nil {
			return nil, err
		}
		instance, ok := s.machine.Object(parent.Object).(machine.Instance)
		if !ok {
			return nil, s.fault(fault.TypeMismatch, prog.SpanOfPlace(place), "expected an instance, found %s", s.machine.Object(parent.Object).Kind())
		}
		idx := instance.Class.FieldIndex(d.Field)
		if idx < 0 {
			return nil, s.fault(fault.NoSuchField, prog.SpanOfPlace(place), "the class `%s` has no field named `%s`", instance.Class.Name, d.Field).
				WithSecondary(fault.Span{}, "class `"+instance.Class.Name+"` declared here")
		}
		return fieldLocation{m: s.machine, obj: parent.Object, index: idx}, nil

	case bir.GlobalPlace:
		return nil, s.fault(fault.TypeMismatch, prog.SpanOfPlace(place), "cannot assign to global `%s`", d.Name)

	default:
		fault.AssertionViolation("unknown PlaceData variant %T", d)
		panic("unreachable")
	}
}

// traverseToPlace resolves an assignment target: the Location to write
// through, plus the permissions currently occupying the path (the
// enclosing Dot chain, if any, plus the leaf's current value if one is
// present). Assignment revokes the *tenant* of each of these permissions
// — not the permissions themselves — per the write-propagation rule.
func (s *Stepper) traverseToPlace(prog *bir.Bir, place bir.Place) (Location, []machine.PermHandle, error) {
	var pathTraversed []machine.PermHandle
	if d, ok := prog.Tables.PlaceData(place).(bir.DotPlace); ok {
		anchor := NewAnchor()
		parent, err := s.traverseToObject(anchor, prog, d.Base)
		if err != nil {
			return nil, nil, err
		}
		pathTraversed = parent.Traversed
	}

	loc, err := s.resolveLocation(prog, place)
	if err != nil {
		return nil, nil, err
	}
	if cur := loc.Get(); cur != nil {
		pathTraversed = append(append([]machine.PermHandle{}, pathTraversed...), cur.Permission)
	}
	return loc, pathTraversed, nil
}
