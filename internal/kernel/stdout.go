package kernel

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"ownvm/internal/bir"
	"ownvm/internal/heapgraph"
	"ownvm/internal/machine"
)

// StdoutKernel is the reference host: breakpoints render a paired
// before/after heap graph to Graphs (the `run` CLI subcommand's
// --graph-out file), and the `print` intrinsic writes its arguments' text
// form to Out, keeping the interpreter core free of any direct I/O.
type StdoutKernel struct {
	Out                io.Writer
	Graphs             io.Writer
	Log                zerolog.Logger
	IncludeTemporaries bool

	pendingBefore *heapgraph.HeapGraph
}

// BreakpointStart snapshots the machine just before the bracketed
// expression runs; BreakpointEnd pairs it with a snapshot taken after
// and renders both (spec.md §4.5, §6).
func (k *StdoutKernel) BreakpointStart(m machine.StateReader, file string, index int) {
	k.Log.Debug().Str("file", file).Int("index", index).Msg("breakpoint start")
	if live, ok := m.(machine.MachineOp); ok {
		k.pendingBefore = heapgraph.Snapshot(live)
	}
}

func (k *StdoutKernel) BreakpointEnd(m machine.StateReader, file string, index int, value *machine.Value) {
	k.Log.Debug().Str("file", file).Int("index", index).Msg("breakpoint end")
	if k.pendingBefore == nil || k.Graphs == nil {
		return
	}
	live, ok := m.(machine.MachineOp)
	if !ok {
		return
	}
	after := heapgraph.Snapshot(live)
	fmt.Fprintln(k.Graphs, heapgraph.RenderPair(k.pendingBefore, after, k.IncludeTemporaries))
	k.pendingBefore = nil
}

// printThunk resolves the `print` intrinsic: it writes the text form of
// every argument, space-separated, followed by a newline, and evaluates
// to Unit.
type printThunk struct {
	args []machine.Value
	out  io.Writer
}

func (t printThunk) Resolve(m machine.MachineOp) (machine.Value, error) {
	for i, v := range t.args {
		if i > 0 {
			fmt.Fprint(t.out, " ")
		}
		fmt.Fprint(t.out, renderText(m.Object(v.Object)))
	}
	fmt.Fprintln(t.out)

	obj := m.NewObject(machine.UnitObject{})
	perm := m.NewPermission(machine.NewOur())
	return machine.Value{Object: obj, Permission: perm}, nil
}

// Intrinsic resolves a native call by name. `print` is the only
// intrinsic the reference kernel implements; any other name is a host
// error, since this kernel has nothing else to offer.
func (k *StdoutKernel) Intrinsic(name bir.Intrinsic, args []machine.Value) (NativeThunk, error) {
	switch name {
	case "print":
		return printThunk{args: args, out: k.Out}, nil
	default:
		return nil, fmt.Errorf("no such intrinsic: %s", name)
	}
}

func renderText(o machine.ObjectData) string {
	switch v := o.(type) {
	case machine.BoolObject:
		return fmt.Sprintf("%t", v.Value)
	case machine.IntObject:
		return fmt.Sprintf("%d", v.Value)
	case machine.UintObject:
		return fmt.Sprintf("%d", v.Value)
	case machine.FloatObject:
		return fmt.Sprintf("%g", v.Value)
	case machine.StringObject:
		return v.Value
	case machine.UnitObject:
		return "()"
	default:
		return fmt.Sprintf("<%s>", o.Kind())
	}
}

var _ Kernel = (*StdoutKernel)(nil)
