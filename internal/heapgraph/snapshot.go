// Package heapgraph implements the time-traveling debugger's heap-graph
// feature: a frozen deep copy of machine state taken at a breakpoint,
// and a Graphviz-style renderer that draws paired before/after graphs
// around the expression the breakpoint straddles.
package heapgraph

import (
	"github.com/google/uuid"

	"ownvm/internal/machine"
)

// HeapGraph is an immutable copy of everything a Kernel needs to render
// a heap diagram: the object heap, the permission table, and the call
// stack, all snapshotted at one instant. It implements
// machine.StateReader so the renderer can walk a HeapGraph the same way
// it would walk the live Machine.
type HeapGraph struct {
	// ID identifies this snapshot, so a before/after pair can be
	// correlated without relying on pointer identity.
	ID uuid.UUID

	objects     []machine.ObjectData
	permissions []machine.PermissionData
	frames      []*machine.Frame
}

// Snapshot deep-copies the reachable state of a running machine. Most
// object data is a plain value type, so copying the arenas
// element-by-element is sufficient; Instance and TupleObject additionally
// carry a slice of field/element values that the live machine mutates in
// place through a Location (fieldLocation.Set writes through the shared
// backing array), so those slices are copied too. Otherwise a field
// write performed after the snapshot was taken would retroactively alter
// what the snapshot reports. Frames similarly get fresh *Value pointers
// so a later write through the live machine can never retroactively
// mutate a value already captured here.
func Snapshot(m machine.MachineOp) *HeapGraph {
	hg := &HeapGraph{
		ID:          uuid.New(),
		objects:     make([]machine.ObjectData, m.NumObjects()),
		permissions: make([]machine.PermissionData, m.NumPermissions()),
	}
	for i := range hg.objects {
		hg.objects[i] = copyObjectData(m.Object(machine.ObjectHandle(i)))
	}
	for i := range hg.permissions {
		hg.permissions[i] = m.Permission(machine.PermHandle(i))
	}
	for _, f := range m.Stack() {
		hg.frames = append(hg.frames, copyFrame(f))
	}
	return hg
}

// copyObjectData copies the mutable slices an object's variant owns, so
// the snapshot stops sharing backing arrays with the live machine.
func copyObjectData(o machine.ObjectData) machine.ObjectData {
	switch v := o.(type) {
	case machine.Instance:
		fields := make([]*machine.Value, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = copyValue(f)
		}
		v.Fields = fields
		return v
	case machine.TupleObject:
		values := make([]machine.Value, len(v.Values))
		copy(values, v.Values)
		v.Values = values
		return v
	default:
		return o
	}
}

func copyFrame(f *machine.Frame) *machine.Frame {
	variables := make([]*machine.Value, len(f.Variables))
	for i, v := range f.Variables {
		variables[i] = copyValue(v)
	}
	return &machine.Frame{
		Function:  f.Function,
		PC:        f.PC,
		Variables: variables,
		InFlight:  copyValue(f.InFlight),
	}
}

func copyValue(v *machine.Value) *machine.Value {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func (h *HeapGraph) Object(o machine.ObjectHandle) machine.ObjectData { return h.objects[int(o)] }

func (h *HeapGraph) Permission(p machine.PermHandle) machine.PermissionData {
	return h.permissions[int(p)]
}

func (h *HeapGraph) Stack() []*machine.Frame { return h.frames }

func (h *HeapGraph) TopFrame() *machine.Frame {
	if len(h.frames) == 0 {
		return nil
	}
	return h.frames[len(h.frames)-1]
}

var _ machine.StateReader = (*HeapGraph)(nil)
