package stepper

import (
	"ownvm/internal/bir"
	"ownvm/internal/fault"
	"ownvm/internal/machine"
)

// stepAssignTerm executes an AssignTerm's Call or Await expression. Both
// variants leave the current frame's PC unmoved to Next until a result
// is actually available to bind — a Call never blocks (it only builds a
// ThunkObject), while an Await of a user function pushes a new frame and
// relies on that frame's eventual ReturnTerm to call back into
// bindCallResult.
func (s *Stepper) stepAssignTerm(pc machine.ProgramCounter, d bir.AssignTerm) (ControlFlow, error) {
	switch e := d.Expr.(type) {
	case bir.CallExpr:
		return s.stepCall(pc, d, e)
	case bir.AwaitExpr:
		return s.stepAwait(pc, d, e)
	default:
		fault.AssertionViolation("unknown TerminatorExpr variant %T", e)
		panic("unreachable")
	}
}

// stepCall reads the callee, give-evaluates its arguments, and packages them
// into a ThunkObject. Calling never runs the callee's body; only an
// Await of the resulting thunk does (spec.md §6, Thunk protocol).
func (s *Stepper) stepCall(pc machine.ProgramCounter, d bir.AssignTerm, call bir.CallExpr) (ControlFlow, error) {
	anchor := NewAnchor()
	calleeTraversal, err := s.traverseToObject(anchor, pc.Bir, call.Function)
	if err != nil {
		return nil, err
	}

	args := make([]machine.Value, len(call.Arguments))
	for i, p := range call.Arguments {
		v, err := s.give(pc.Bir, p)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	// Constructing an instance of a class is immediate: there is no user
	// code to run, so it skips the thunk/await protocol entirely and
	// completes within the same Call terminator.
	if class, ok := s.machine.Object(calleeTraversal.Object).(machine.ClassObject); ok {
		fields := make([]*machine.Value, len(class.Class.FieldOrder))
		for i, v := range args {
			if i < len(fields) {
				fields[i] = &v
			}
		}
		handle := s.machine.NewObject(machine.Instance{Class: class.Class, Fields: fields})
		perm := s.machine.NewPermission(machine.NewMy())
		if err := s.assign(pc.Bir, d.Target, machine.Value{Object: handle, Permission: perm}); err != nil {
			return nil, err
		}
		s.machine.SetPC(pc.MoveToBlock(d.Next))
		return Next{}, nil
	}

	thunk := machine.ThunkObject{Arguments: args}
	switch callee := s.machine.Object(calleeTraversal.Object).(type) {
	case machine.FunctionObject:
		thunk.Function = callee.Function
	case machine.IntrinsicObject:
		thunk.Intrinsic = callee.Name
	default:
		return nil, s.fault(fault.TypeMismatch, pc.Bir.SpanOfPlace(call.Function), "expected a callable, found %s", s.machine.Object(calleeTraversal.Object).Kind())
	}

	handle := s.machine.NewObject(thunk)
	perm := s.machine.NewPermission(machine.NewMy())
	if err := s.assign(pc.Bir, d.Target, machine.Value{Object: handle, Permission: perm}); err != nil {
		return nil, err
	}
	s.machine.SetPC(pc.MoveToBlock(d.Next))
	return Next{}, nil
}

// stepAwait resolves the thunk held at an Await's place: a user function
// thunk pushes a fresh frame (its eventual ReturnTerm resumes this PC via
// bindCallResult); a native intrinsic thunk is resolved immediately
// through the Kernel.
func (s *Stepper) stepAwait(pc machine.ProgramCounter, d bir.AssignTerm, await bir.AwaitExpr) (ControlFlow, error) {
	thunkValue, err := s.give(pc.Bir, await.Thunk)
	if err != nil {
		return nil, err
	}
	thunk, ok := s.machine.Object(thunkValue.Object).(machine.ThunkObject)
	if !ok {
		return nil, s.fault(fault.TypeMismatch, pc.Bir.SpanOfPlace(await.Thunk), "expected a thunk, found %s", s.machine.Object(thunkValue.Object).Kind())
	}

	if thunk.Function != nil {
		frame := machine.NewFrame(thunk.Function)
		for i := 0; i < frame.Function.Bir.NumParameters && i < len(thunk.Arguments); i++ {
			v := thunk.Arguments[i]
			frame.SetSlot(bir.LocalVariable(i), &v)
		}
		s.machine.PushFrame(frame)
		return Next{}, nil
	}

	if s.kernel == nil {
		return nil, s.fault(fault.HostError, pc.Bir.SpanOfPlace(await.Thunk), "no host kernel configured to resolve intrinsic `%s`", thunk.Intrinsic)
	}
	native, err := s.kernel.Intrinsic(thunk.Intrinsic, thunk.Arguments)
	if err != nil {
		return nil, fault.New(fault.HostError, pc.Bir.SpanOfPlace(await.Thunk), "intrinsic `%s` failed", thunk.Intrinsic).Wrap(err)
	}
	value, err := native.Resolve(s.machine)
	if err != nil {
		return nil, fault.New(fault.HostError, pc.Bir.SpanOfPlace(await.Thunk), "intrinsic `%s` failed", thunk.Intrinsic).Wrap(err)
	}

	if err := s.assign(pc.Bir, d.Target, value); err != nil {
		return nil, err
	}
	s.machine.SetPC(pc.MoveToBlock(d.Next))
	return Next{}, nil
}

// bindCallResult writes a returned value into the caller frame's call
// terminator target and advances the caller past it. It is the
// counterpart to stepAwait's frame push: the caller's PC was never
// advanced past its AssignTerm while the callee ran, so it is still
// sitting there waiting to be completed.
func (s *Stepper) bindCallResult(value machine.Value) (ControlFlow, error) {
	caller := s.machine.TopFrame()
	pc := caller.PC
	term := pc.Bir.Tables.Block(pc.Block).Terminator.(bir.AssignTerm)

	if err := s.assign(pc.Bir, term.Target, value); err != nil {
		return nil, err
	}
	s.machine.SetPC(pc.MoveToBlock(term.Next))
	return Next{}, nil
}
