package stepper

import (
	"strconv"

	"ownvm/internal/bir"
	"ownvm/internal/fault"
	"ownvm/internal/machine"
)

// evalExpr evaluates an expression to a value, allocating a fresh object
// and permission for literals and compound expressions (spec.md §4.5).
func (s *Stepper) evalExpr(prog *bir.Bir, e bir.Expr) (machine.Value, error) {
	switch d := prog.Tables.ExprData(e).(type) {
	case bir.BoolLiteral:
		return s.allocateOur(machine.BoolObject{Value: d.Value}), nil
	case bir.SignedIntLiteral:
		return s.allocateOur(machine.IntObject{Value: d.Value}), nil
	case bir.UnsignedIntLiteral:
		return s.allocateOur(machine.UintObject{Value: d.Value}), nil
	case bir.PlainIntLiteral:
		return s.allocateOur(machine.UintObject{Value: d.Value}), nil
	case bir.FloatLiteralExpr:
		return s.allocateOur(machine.FloatObject{Value: d.Value}), nil
	case bir.StringLiteralExpr:
		return s.allocateOur(machine.StringObject{Value: d.Value}), nil
	case bir.UnitExpr:
		return s.allocateOur(machine.UnitObject{}), nil

	case bir.TupleExpr:
		values := make([]machine.Value, len(d.Elements))
		for i, p := range d.Elements {
			v, err := s.give(prog, p)
			if err != nil {
				return machine.Value{}, err
			}
			values[i] = v
		}
		return s.allocateMy(machine.TupleObject{Values: values}), nil

	case bir.ConcatenateExpr:
		result := ""
		for _, p := range d.Parts {
			anchor := NewAnchor()
			traversal, err := s.traverseToObject(anchor, prog, p)
			if err != nil {
				return machine.Value{}, err
			}
			result += s.renderAsText(traversal.Object)
		}
		return s.allocateOur(machine.StringObject{Value: result}), nil

	case bir.ShareExpr:
		return s.share(prog, d.Place)
	case bir.LeaseExpr:
		return s.lease(prog, d.Place)
	case bir.GiveExpr:
		return s.give(prog, d.Place)

	case bir.OpExpr:
		return s.applyOp(prog, d)
	case bir.UnaryExpr:
		return s.applyUnaryOp(prog, d)

	case bir.ErrorExpr:
		return machine.Value{}, s.fault(fault.CompilationError, prog.SpanOfExpr(e), "expression is ill-formed")

	default:
		fault.AssertionViolation("unknown ExprData variant %T", d)
		panic("unreachable")
	}
}

func (s *Stepper) allocateOur(data machine.ObjectData) machine.Value {
	obj := s.machine.NewObject(data)
	perm := s.machine.NewPermission(machine.NewOur())
	return machine.Value{Object: obj, Permission: perm}
}

func (s *Stepper) allocateMy(data machine.ObjectData) machine.Value {
	obj := s.machine.NewObject(data)
	perm := s.machine.NewPermission(machine.NewMy())
	return machine.Value{Object: obj, Permission: perm}
}

// renderAsText is Concatenate's text rendering of a value; it matches
// the text form the reference kernel's `print` intrinsic writes.
func (s *Stepper) renderAsText(h machine.ObjectHandle) string {
	switch o := s.machine.Object(h).(type) {
	case machine.BoolObject:
		return strconv.FormatBool(o.Value)
	case machine.IntObject:
		return strconv.FormatInt(o.Value, 10)
	case machine.UintObject:
		return strconv.FormatUint(o.Value, 10)
	case machine.FloatObject:
		return strconv.FormatFloat(o.Value, 'g', -1, 64)
	case machine.StringObject:
		return o.Value
	case machine.UnitObject:
		return "()"
	default:
		return "<" + o.Kind() + ">"
	}
}
