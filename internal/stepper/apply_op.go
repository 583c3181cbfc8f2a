package stepper

import (
	"ownvm/internal/bir"
	"ownvm/internal/fault"
	"ownvm/internal/machine"
)

// numeric unifies the three numeric object kinds so applyOp can dispatch
// once instead of per-kind.
type numeric struct {
	isFloat bool
	isInt   bool
	f       float64
	i       int64
	u       uint64
}

func (s *Stepper) toNumeric(span fault.Span, h machine.ObjectHandle) (numeric, error) {
	switch o := s.machine.Object(h).(type) {
	case machine.IntObject:
		return numeric{isInt: true, i: o.Value}, nil
	case machine.UintObject:
		return numeric{u: o.Value}, nil
	case machine.FloatObject:
		return numeric{isFloat: true, f: o.Value}, nil
	default:
		return numeric{}, s.fault(fault.TypeMismatch, span, "expected a numeric value, found %s", s.machine.Object(h).Kind())
	}
}

func (n numeric) asFloat() float64 {
	switch {
	case n.isFloat:
		return n.f
	case n.isInt:
		return float64(n.i)
	default:
		return float64(n.u)
	}
}

// applyOp evaluates a binary operator. Arithmetic promotes to float if
// either operand is float; otherwise it is signed (int64) if either
// operand is Int, and unsigned (uint64) only when both are Uint
// (SPEC_FULL.md §4 supplement describing signed/unsigned/float literal
// distinction).
func (s *Stepper) applyOp(prog *bir.Bir, d bir.OpExpr) (machine.Value, error) {
	span := prog.SpanOfPlace(d.LHS)

	anchorL := NewAnchor()
	lhs, err := s.traverseToObject(anchorL, prog, d.LHS)
	if err != nil {
		return machine.Value{}, err
	}
	anchorR := NewAnchor()
	rhs, err := s.traverseToObject(anchorR, prog, d.RHS)
	if err != nil {
		return machine.Value{}, err
	}

	switch d.Op {
	case bir.OpEq:
		return s.allocateOur(machine.BoolObject{Value: s.valuesEqual(lhs.Object, rhs.Object)}), nil

	case bir.OpAnd, bir.OpOr:
		lb, ok := s.machine.Object(lhs.Object).(machine.BoolObject)
		if !ok {
			return machine.Value{}, s.fault(fault.TypeMismatch, span, "expected Bool, found %s", s.machine.Object(lhs.Object).Kind())
		}
		rb, ok := s.machine.Object(rhs.Object).(machine.BoolObject)
		if !ok {
			return machine.Value{}, s.fault(fault.TypeMismatch, span, "expected Bool, found %s", s.machine.Object(rhs.Object).Kind())
		}
		if d.Op == bir.OpAnd {
			return s.allocateOur(machine.BoolObject{Value: lb.Value && rb.Value}), nil
		}
		return s.allocateOur(machine.BoolObject{Value: lb.Value || rb.Value}), nil
	}

	ln, err := s.toNumeric(span, lhs.Object)
	if err != nil {
		return machine.Value{}, err
	}
	rn, err := s.toNumeric(span, rhs.Object)
	if err != nil {
		return machine.Value{}, err
	}

	switch d.Op {
	case bir.OpLt:
		return s.allocateOur(machine.BoolObject{Value: ln.asFloat() < rn.asFloat()}), nil
	case bir.OpLe:
		return s.allocateOur(machine.BoolObject{Value: ln.asFloat() <= rn.asFloat()}), nil
	case bir.OpGt:
		return s.allocateOur(machine.BoolObject{Value: ln.asFloat() > rn.asFloat()}), nil
	case bir.OpGe:
		return s.allocateOur(machine.BoolObject{Value: ln.asFloat() >= rn.asFloat()}), nil
	}

	if ln.isFloat || rn.isFloat {
		a, b := ln.asFloat(), rn.asFloat()
		switch d.Op {
		case bir.OpAdd:
			return s.allocateOur(machine.FloatObject{Value: a + b}), nil
		case bir.OpSub:
			return s.allocateOur(machine.FloatObject{Value: a - b}), nil
		case bir.OpMul:
			return s.allocateOur(machine.FloatObject{Value: a * b}), nil
		case bir.OpDiv:
			return s.allocateOur(machine.FloatObject{Value: a / b}), nil
		case bir.OpMod:
			return machine.Value{}, s.fault(fault.TypeMismatch, span, "cannot apply `%%` to Float")
		}
	}

	if ln.isInt || rn.isInt {
		a, b := int64(ln.asFloat()), int64(rn.asFloat())
		switch d.Op {
		case bir.OpAdd:
			return s.allocateOur(machine.IntObject{Value: a + b}), nil
		case bir.OpSub:
			return s.allocateOur(machine.IntObject{Value: a - b}), nil
		case bir.OpMul:
			return s.allocateOur(machine.IntObject{Value: a * b}), nil
		case bir.OpDiv:
			return s.allocateOur(machine.IntObject{Value: a / b}), nil
		case bir.OpMod:
			return s.allocateOur(machine.IntObject{Value: a % b}), nil
		}
	}

	a, b := ln.u, rn.u
	switch d.Op {
	case bir.OpAdd:
		return s.allocateOur(machine.UintObject{Value: a + b}), nil
	case bir.OpSub:
		return s.allocateOur(machine.UintObject{Value: a - b}), nil
	case bir.OpMul:
		return s.allocateOur(machine.UintObject{Value: a * b}), nil
	case bir.OpDiv:
		return s.allocateOur(machine.UintObject{Value: a / b}), nil
	case bir.OpMod:
		return s.allocateOur(machine.UintObject{Value: a % b}), nil
	}

	fault.AssertionViolation("unknown Op variant %s", d.Op)
	panic("unreachable")
}

// applyUnaryOp evaluates `!place` and `-place` (SPEC_FULL.md §4
// supplemented feature: the original exposes unary negation and boolean
// not, which the distilled spec omitted).
func (s *Stepper) applyUnaryOp(prog *bir.Bir, d bir.UnaryExpr) (machine.Value, error) {
	span := prog.SpanOfPlace(d.RHS)
	anchor := NewAnchor()
	operand, err := s.traverseToObject(anchor, prog, d.RHS)
	if err != nil {
		return machine.Value{}, err
	}

	switch d.Op {
	case bir.OpNot:
		b, ok := s.machine.Object(operand.Object).(machine.BoolObject)
		if !ok {
			return machine.Value{}, s.fault(fault.TypeMismatch, span, "expected Bool, found %s", s.machine.Object(operand.Object).Kind())
		}
		return s.allocateOur(machine.BoolObject{Value: !b.Value}), nil

	case bir.OpNeg:
		switch o := s.machine.Object(operand.Object).(type) {
		case machine.IntObject:
			return s.allocateOur(machine.IntObject{Value: -o.Value}), nil
		case machine.FloatObject:
			return s.allocateOur(machine.FloatObject{Value: -o.Value}), nil
		default:
			return machine.Value{}, s.fault(fault.TypeMismatch, span, "cannot negate %s", s.machine.Object(operand.Object).Kind())
		}

	default:
		return machine.Value{}, s.fault(fault.TypeMismatch, span, "`%s` is not a unary operator", d.Op)
	}
}

// valuesEqual compares two objects structurally for `==`. Instances
// compare by identity (object handle), matching reference-type equality;
// primitives compare by value.
func (s *Stepper) valuesEqual(a, b machine.ObjectHandle) bool {
	if a == b {
		return true
	}
	oa, ob := s.machine.Object(a), s.machine.Object(b)
	switch x := oa.(type) {
	case machine.BoolObject:
		y, ok := ob.(machine.BoolObject)
		return ok && x.Value == y.Value
	case machine.IntObject:
		y, ok := ob.(machine.IntObject)
		return ok && x.Value == y.Value
	case machine.UintObject:
		y, ok := ob.(machine.UintObject)
		return ok && x.Value == y.Value
	case machine.FloatObject:
		y, ok := ob.(machine.FloatObject)
		return ok && x.Value == y.Value
	case machine.StringObject:
		y, ok := ob.(machine.StringObject)
		return ok && x.Value == y.Value
	case machine.UnitObject:
		_, ok := ob.(machine.UnitObject)
		return ok
	default:
		return false
	}
}
