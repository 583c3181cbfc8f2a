package machine

import "ownvm/internal/bir"

// ProgramCounter locates the next statement or terminator to execute
// (spec.md §3). Statement == len(block.Statements) denotes "at the
// terminator".
type ProgramCounter struct {
	Bir       *bir.Bir
	Block     bir.BasicBlock
	Statement int
}

// AtTerminator reports whether this PC denotes the block's terminator.
func (pc ProgramCounter) AtTerminator() bool {
	return pc.Statement >= len(pc.Bir.Tables.Block(pc.Block).Statements)
}

// MoveToBlock returns the PC for the start of another block in the same
// Bir.
func (pc ProgramCounter) MoveToBlock(block bir.BasicBlock) ProgramCounter {
	return ProgramCounter{Bir: pc.Bir, Block: block, Statement: 0}
}

// Frame is one call's activation record (spec.md §3): its PC, its local
// variable slots, and an optional in-flight value, which GC treats as a
// root and the heap-graph renderer shows; the stepper never sets it.
type Frame struct {
	Function    *bir.Function
	PC          ProgramCounter
	Variables   []*Value // nil entry = uninitialized slot
	InFlight    *Value
}

// NewFrame allocates a frame for fn with all slots uninitialized.
func NewFrame(fn *bir.Function) *Frame {
	return &Frame{
		Function:  fn,
		PC:        ProgramCounter{Bir: fn.Bir, Block: fn.Bir.StartBlock, Statement: 0},
		Variables: make([]*Value, fn.Bir.Tables.NumLocals()),
	}
}

// Slot returns the current value of a local, or nil if uninitialized.
func (f *Frame) Slot(v bir.LocalVariable) *Value {
	return f.Variables[int(v)]
}

// SetSlot writes (or uninitializes, via nil) a local's slot.
func (f *Frame) SetSlot(v bir.LocalVariable, value *Value) {
	f.Variables[int(v)] = value
}
