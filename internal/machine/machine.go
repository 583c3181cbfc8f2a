package machine

import (
	"github.com/rs/zerolog"

	"ownvm/internal/bir"
)

// StateReader is the small, read-biased interface shared by the live
// Machine and a HeapGraph snapshot (spec.md §9 design note: "Implementers
// should define two concrete types implementing a small, read-biased
// interface ... and give only the live machine the mutator methods.").
// The renderer and any diagnostic code should depend on StateReader, not
// on *Machine, so it works unmodified over a frozen snapshot.
type StateReader interface {
	Object(ObjectHandle) ObjectData
	Permission(PermHandle) PermissionData
	Stack() []*Frame
	TopFrame() *Frame
}

// MachineOp is the full live-machine interface: StateReader plus the
// mutators the Stepper needs. Machine is the sole implementation; it is
// the sole mutator of all three arenas (spec.md §4.2).
type MachineOp interface {
	StateReader

	Program() *bir.Program

	NewObject(ObjectData) ObjectHandle
	NewPermission(PermissionData) PermHandle
	SetObject(ObjectHandle, ObjectData)
	SetPermission(PermHandle, PermissionData)
	NumObjects() int
	NumPermissions() int

	PC() ProgramCounter
	SetPC(ProgramCounter)

	PushFrame(*Frame)
	PopFrame()
	ClearFrame()
}

// Machine is the mutable state of the running interpreter: a call stack,
// an object heap, and a permission table (spec.md §3).
type Machine struct {
	program     *bir.Program
	stack       []*Frame
	objects     arena[ObjectData]
	permissions arena[PermissionData]
	log         zerolog.Logger
}

// New creates an empty machine for the given program.
func New(program *bir.Program, log zerolog.Logger) *Machine {
	return &Machine{program: program, log: log}
}

func (m *Machine) Program() *bir.Program { return m.program }

func (m *Machine) Object(h ObjectHandle) ObjectData { return m.objects.get(int(h)) }

func (m *Machine) Permission(h PermHandle) PermissionData { return m.permissions.get(int(h)) }

func (m *Machine) SetObject(h ObjectHandle, data ObjectData) { m.objects.set(int(h), data) }

func (m *Machine) SetPermission(h PermHandle, data PermissionData) {
	m.permissions.set(int(h), data)
}

func (m *Machine) NewObject(data ObjectData) ObjectHandle {
	return ObjectHandle(m.objects.alloc(data))
}

func (m *Machine) NewPermission(data PermissionData) PermHandle {
	h := PermHandle(m.permissions.alloc(data))
	m.log.Debug().Int("permission", int(h)).Str("kind", data.Kind.String()).Msg("permission allocated")
	return h
}

// NumObjects reports the size of the object arena, including freed
// slots; the Stepper's GC walks [0, NumObjects) every sweep.
func (m *Machine) NumObjects() int { return m.objects.len() }

// NumPermissions reports the size of the permission arena.
func (m *Machine) NumPermissions() int { return m.permissions.len() }

func (m *Machine) Stack() []*Frame { return m.stack }

// TopFrame returns the innermost frame, or nil if the stack is empty.
func (m *Machine) TopFrame() *Frame {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// PC returns the top frame's program counter.
func (m *Machine) PC() ProgramCounter {
	return m.TopFrame().PC
}

// SetPC updates the top frame's program counter.
func (m *Machine) SetPC(pc ProgramCounter) {
	m.TopFrame().PC = pc
}

// PushFrame adds a new activation record on top of the stack.
func (m *Machine) PushFrame(f *Frame) {
	m.stack = append(m.stack, f)
}

// PopFrame removes the top frame from the stack.
func (m *Machine) PopFrame() {
	m.stack = m.stack[:len(m.stack)-1]
}

// ClearFrame uninitializes every slot in the top frame before it is
// popped, so that any permission revocation this triggers is attributed
// to a location inside the callee rather than the caller (spec.md §4.2,
// §8 property 5).
func (m *Machine) ClearFrame() {
	top := m.TopFrame()
	for i := range top.Variables {
		top.Variables[i] = nil
	}
	top.InFlight = nil
}

var _ MachineOp = (*Machine)(nil)
