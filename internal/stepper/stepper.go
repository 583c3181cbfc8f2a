// Package stepper implements the single-step interpreter: one call to
// Step executes exactly one statement or terminator and returns a
// ControlFlow describing what happened, so a driver can pause between
// every step for a time-traveling debugger (spec.md §5).
package stepper

import (
	"ownvm/internal/bir"
	"ownvm/internal/fault"
	"ownvm/internal/kernel"
	"ownvm/internal/machine"
)

// Stepper drives a Machine one statement or terminator at a time.
type Stepper struct {
	machine            machine.MachineOp
	kernel             kernel.Kernel
	includeTemporaries bool
	// pinned is the Done value of a finished program; it stays a GC root
	// so the driver can still read the result after the last frame pops.
	pinned *machine.Value
}

// New builds a Stepper over an already-initialized machine (its first
// frame must already be pushed).
func New(m machine.MachineOp, k kernel.Kernel) *Stepper {
	return &Stepper{machine: m, kernel: k}
}

// SetIncludeTemporaries controls whether the heap-graph renderer later
// built over this stepper's machine shows compiler-introduced temporary
// locals (spec.md §4.7 include_temporaries flag). The stepper only
// stores the setting; it is not passed to BreakpointStart/End calls.
func (s *Stepper) SetIncludeTemporaries(v bool) { s.includeTemporaries = v }

// IncludeTemporaries reports the current setting.
func (s *Stepper) IncludeTemporaries() bool { return s.includeTemporaries }

func (s *Stepper) fault(kind fault.Kind, span fault.Span, format string, args ...interface{}) *fault.Fault {
	return fault.New(kind, span, format, args...)
}

func (s *Stepper) isCanceled(h machine.PermHandle) bool {
	return s.machine.Permission(h).Canceled
}

// ControlFlow is the outcome of one Step call. A host Kernel is always
// called synchronously from within Step (print and friends return their
// result immediately), so there is no third "suspended" variant: a
// resume/awaken protocol collapses to an ordinary function return once
// the Kernel interface is synchronous.
type ControlFlow interface {
	isControlFlow()
}

type (
	// Next means the machine is ready for another Step call.
	Next struct{}

	// Done means the outermost frame returned; Value is the program's
	// result.
	Done struct{ Value machine.Value }
)

func (Next) isControlFlow() {}
func (Done) isControlFlow() {}

// Step executes exactly one statement, or the current block's
// terminator if the PC has reached it, and runs a GC pass afterward
// (spec.md §5: "garbage collection happens after, and only after, a
// single step completes").
func (s *Stepper) Step() (ControlFlow, error) {
	pc := s.machine.PC()
	var flow ControlFlow
	var err error

	if pc.AtTerminator() {
		flow, err = s.stepTerminator(pc)
	} else {
		flow, err = s.stepStatement(pc)
	}
	if err != nil {
		return nil, err
	}

	if done, ok := flow.(Done); ok {
		s.pinned = &done.Value
	}
	s.gc()
	return flow, nil
}

func (s *Stepper) stepStatement(pc machine.ProgramCounter) (ControlFlow, error) {
	block := pc.Bir.Tables.Block(pc.Block)
	stmt := block.Statements[pc.Statement]

	switch d := stmt.(type) {
	case bir.AssignExpr:
		value, err := s.evalExpr(pc.Bir, d.Expr)
		if err != nil {
			return nil, err
		}
		if err := s.assign(pc.Bir, d.Target, value); err != nil {
			return nil, err
		}

	case bir.ClearStatement:
		frame := s.machine.TopFrame()
		frame.SetSlot(d.Local, nil)

	case bir.BreakpointStart:
		if s.kernel != nil {
			s.kernel.BreakpointStart(s.machine, d.File, d.Index)
		}

	case bir.BreakpointEnd:
		if s.kernel != nil {
			var inFlight *machine.Value
			if d.InFlight != nil {
				anchor := NewAnchor()
				traversal, err := s.traverseToObject(anchor, pc.Bir, *d.InFlight)
				if err != nil {
					return nil, err
				}
				peeked := traversal.Value()
				inFlight = &peeked
			}
			s.kernel.BreakpointEnd(s.machine, d.File, d.Index, inFlight)
		}

	case bir.NoopStatement:
		// nothing to do

	default:
		fault.AssertionViolation("unknown StatementData variant %T", d)
	}

	s.machine.SetPC(machine.ProgramCounter{Bir: pc.Bir, Block: pc.Block, Statement: pc.Statement + 1})
	return Next{}, nil
}

func (s *Stepper) stepTerminator(pc machine.ProgramCounter) (ControlFlow, error) {
	block := pc.Bir.Tables.Block(pc.Block)

	switch d := block.Terminator.(type) {
	case bir.GotoTerm:
		s.machine.SetPC(pc.MoveToBlock(d.Target))
		return Next{}, nil

	case bir.StartAtomicTerm:
		s.machine.SetPC(pc.MoveToBlock(d.Target))
		return Next{}, nil

	case bir.EndAtomicTerm:
		s.machine.SetPC(pc.MoveToBlock(d.Target))
		return Next{}, nil

	case bir.IfTerm:
		anchor := NewAnchor()
		traversal, err := s.traverseToObject(anchor, pc.Bir, d.Place)
		if err != nil {
			return nil, err
		}
		b, ok := s.machine.Object(traversal.Object).(machine.BoolObject)
		if !ok {
			return nil, s.fault(fault.TypeMismatch, pc.Bir.SpanOfPlace(d.Place), "expected Bool, found %s", s.machine.Object(traversal.Object).Kind())
		}
		if b.Value {
			s.machine.SetPC(pc.MoveToBlock(d.IfTrue))
		} else {
			s.machine.SetPC(pc.MoveToBlock(d.IfFalse))
		}
		return Next{}, nil

	case bir.AssignTerm:
		return s.stepAssignTerm(pc, d)

	case bir.ReturnTerm:
		value, err := s.give(pc.Bir, d.Place)
		if err != nil {
			return nil, err
		}
		s.machine.ClearFrame()
		s.machine.PopFrame()
		if s.machine.TopFrame() == nil {
			return Done{Value: value}, nil
		}
		return s.bindCallResult(value)

	case bir.ErrorTerm:
		return nil, s.fault(fault.CompilationError, fault.Span{}, "execution reached an ill-formed program point")

	case bir.PanicTerm:
		return nil, s.fault(fault.Panic, fault.Span{}, "program panicked")

	default:
		fault.AssertionViolation("unknown TerminatorData variant %T", d)
		panic("unreachable")
	}
}
