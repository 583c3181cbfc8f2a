package heapgraph

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"ownvm/internal/bir"
	"ownvm/internal/machine"
)

// maxLabelLen is the length at which a rendered value's text is
// truncated to keep the graph readable; truncated text keeps the first
// and last 20 characters with a `[...]` marker between them.
const maxLabelLen = 40

func truncate(s string) string {
	if len(s) <= maxLabelLen {
		return s
	}
	return s[:20] + "[...]" + s[len(s)-20:]
}

// RenderPair renders the paired before/after clusters a BreakpointEnd
// draws: one subgraph for the state just before the bracketed
// expression ran, one for just after, so a reader can see what the
// expression actually changed.
func RenderPair(before, after machine.StateReader, includeTemporaries bool) string {
	var b strings.Builder
	b.WriteString("digraph {\n  node[shape=\"note\"];\n  rankdir=\"LR\";\n\n")
	w := newWriter(&b, "after", includeTemporaries)
	w.indentBlock("subgraph cluster_after {")
	w.println("label=<<b>after</b>>;")
	w.stackAndHeap(after)
	w.undent("}")

	w2 := newWriter(&b, "before", includeTemporaries)
	w2.indentBlock("subgraph cluster_before {")
	w2.println("label=<<b>before</b>>;")
	w2.stackAndHeap(before)
	w2.undent("}")
	b.WriteString("}\n")
	return b.String()
}

// Render renders a single state, with no before/after pairing. Used by
// the `graph` CLI subcommand to dump the state at the current PC without
// a breakpoint-bracketed expression.
func Render(state machine.StateReader, includeTemporaries bool) string {
	var b strings.Builder
	b.WriteString("digraph {\n  node[shape=\"note\"];\n  rankdir=\"LR\";\n\n")
	w := newWriter(&b, "", includeTemporaries)
	w.stackAndHeap(state)
	b.WriteString("}\n")
	return b.String()
}

// writer accumulates one cluster's worth of Graphviz output: the stack
// table, the heap object tables reachable from it, and the edges between
// them, emitted in that order so every edge's source and target node
// already exist by the time the edge line is printed.
type writer struct {
	b                  *strings.Builder
	indent             int
	prefix             string
	includeTemporaries bool

	queue []machine.ObjectHandle
	seen  map[machine.ObjectHandle]bool
	edges []valueEdge
}

// valueEdge is one `source:port -> target` line, deferred until the
// stack and every reachable heap node have been printed.
type valueEdge struct {
	sourceNode string
	sourcePort int
	targetNode string
	permission machine.PermissionData
}

func newWriter(b *strings.Builder, prefix string, includeTemporaries bool) *writer {
	return &writer{b: b, prefix: prefix, includeTemporaries: includeTemporaries, seen: map[machine.ObjectHandle]bool{}}
}

func (w *writer) println(s string) {
	fmt.Fprintf(w.b, "%s%s\n", strings.Repeat(" ", w.indent), s)
}

func (w *writer) indentBlock(s string) {
	w.println(s)
	w.indent += 2
}

func (w *writer) undent(s string) {
	w.indent -= 2
	w.println(s)
}

func (w *writer) nodeName(h machine.ObjectHandle) string {
	return fmt.Sprintf("%snode%d", w.prefix, int(h))
}

// enqueue registers a heap object as one that must get its own table
// node, the first time any place references it.
func (w *writer) enqueue(h machine.ObjectHandle) {
	if w.seen[h] {
		return
	}
	w.seen[h] = true
	w.queue = append(w.queue, h)
}

// stackAndHeap prints the stack node, then every heap object node it (or
// a heap object already printed) references, then the deferred edges,
// mirroring the three-pass structure the `before`/`after` renderers both
// need: nodes must exist before an edge naming them can be emitted.
func (w *writer) stackAndHeap(state machine.StateReader) {
	w.printStack(state)
	for len(w.queue) > 0 {
		h := w.queue[0]
		w.queue = w.queue[1:]
		w.printHeapNode(state, h)
	}
	for _, e := range w.edges {
		style := "solid"
		if e.permission.Tenant != nil {
			style = "dotted"
		}
		label := e.permission.Label(func(p machine.PermHandle) string { return strconv.Itoa(int(p)) })
		fmt.Fprintf(w.b, "%s%s:%d -> %s [label=%q, style=%q];\n",
			strings.Repeat(" ", w.indent), e.sourceNode, e.sourcePort, e.targetNode, label, style)
	}
	w.edges = nil
}

// printStack renders the entire call stack as a single table node: one
// header row per frame (the function name), then one ported row per
// named local and one for the frame's in-flight value, if any, with port
// numbers running continuously across frames so every row in the table
// has a distinct port.
func (w *writer) printStack(state machine.StateReader) {
	stackNode := w.prefix + "stack"
	w.indentBlock(fmt.Sprintf("subgraph cluster_%sstack {", w.prefix))
	w.println(`label=<<b>stack</b>>;`)
	w.println(`rank="source";`)
	w.indentBlock(stackNode + " [")
	w.println(`shape="none";`)
	w.indentBlock("label=<")
	w.println(`<table border="0">`)

	port := 0
	for _, frame := range state.Stack() {
		fmt.Fprintf(w.b, "%s<tr><td border=\"1\">%s()</td></tr>\n", strings.Repeat(" ", w.indent), html.EscapeString(frame.Function.Name))

		for li, slot := range frame.Variables {
			local := frame.Function.Bir.Tables.Local(bir.LocalVariable(li))
			name := local.Name
			if name == "" {
				if !w.includeTemporaries {
					continue
				}
				name = fmt.Sprintf("tmp%d", li)
			}
			if slot == nil {
				continue
			}
			w.printFieldRow(state, stackNode, name, port, slot)
			port++
		}

		if frame.InFlight != nil {
			w.printFieldRow(state, stackNode, "(in-flight)", port, frame.InFlight)
			port++
		}
	}

	w.println(`</table>`)
	w.undent(">;")
	w.undent("];")
	w.undent("}")
}

// printHeapNode renders one heap object as a table node: a header row
// naming its class/kind, then one ported row per field (Instance,
// TupleObject), or, for objects with no field structure of their own,
// (classes, functions, intrinsics, thunks), a single bold label.
func (w *writer) printHeapNode(state machine.StateReader, h machine.ObjectHandle) {
	node := w.nodeName(h)
	data := state.Object(h)

	switch o := data.(type) {
	case machine.Instance:
		w.indentBlock(node + " [")
		w.indentBlock(`label = <<table border="0">`)
		fmt.Fprintf(w.b, "%s<tr><td border=\"1\">%s</td></tr>\n", strings.Repeat(" ", w.indent), html.EscapeString(o.Class.Name))
		for i, field := range o.Fields {
			if field == nil {
				continue
			}
			w.printFieldRow(state, node, o.Class.FieldOrder[i], i, field)
		}
		w.undent(`</table>>;`)
		w.undent("];")

	case machine.TupleObject:
		w.indentBlock(node + " [")
		w.indentBlock(`label = <<table border="0">`)
		w.println(`<tr><td border="1">tuple</td></tr>`)
		for i := range o.Values {
			w.printFieldRow(state, node, strconv.Itoa(i), i, &o.Values[i])
		}
		w.undent(`</table>>;`)
		w.undent("];")

	default:
		w.indentBlock(node + " [")
		fmt.Fprintf(w.b, "%slabel = <<b>%s</b>>;\n", strings.Repeat(" ", w.indent), html.EscapeString(describe(data)))
		w.undent("];")
	}
}

// printFieldRow renders one ported row of a table node. A value whose
// object has no field structure of its own (a Bool, Uint, String, …) is
// inlined as `name: value` text with no outgoing edge; anything else
// gets a plain `name` row plus a deferred source:port -> target edge.
func (w *writer) printFieldRow(state machine.StateReader, sourceNode, name string, port int, v *machine.Value) {
	if isDataLeaf(state.Object(v.Object)) {
		text := html.EscapeString(truncate(describe(state.Object(v.Object))))
		fmt.Fprintf(w.b, "%s<tr><td port=\"%d\">%s: %s</td></tr>\n", strings.Repeat(" ", w.indent), port, html.EscapeString(name), text)
		return
	}

	fmt.Fprintf(w.b, "%s<tr><td port=\"%d\">%s</td></tr>\n", strings.Repeat(" ", w.indent), port, html.EscapeString(name))
	w.enqueue(v.Object)
	w.edges = append(w.edges, valueEdge{
		sourceNode: sourceNode,
		sourcePort: port,
		targetNode: w.nodeName(v.Object),
		permission: state.Permission(v.Permission),
	})
}

// isDataLeaf reports whether an object is rendered inline as text rather
// than as its own table node. True for every primitive with no field
// structure to draw ports for.
func isDataLeaf(o machine.ObjectData) bool {
	switch o.(type) {
	case machine.BoolObject, machine.UintObject, machine.IntObject, machine.FloatObject,
		machine.StringObject, machine.UnitObject, machine.FreedObject:
		return true
	default:
		return false
	}
}

// describe renders an object's content as the text a reader would
// recognize it by.
func describe(o machine.ObjectData) string {
	switch v := o.(type) {
	case machine.BoolObject:
		return strconv.FormatBool(v.Value)
	case machine.IntObject:
		return strconv.FormatInt(v.Value, 10)
	case machine.UintObject:
		return strconv.FormatUint(v.Value, 10)
	case machine.FloatObject:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case machine.StringObject:
		return fmt.Sprintf("%q", v.Value)
	case machine.UnitObject:
		return "()"
	case machine.Instance:
		return v.Class.Name
	case machine.TupleObject:
		return fmt.Sprintf("(tuple, %d elements)", len(v.Values))
	case machine.ClassObject:
		return "class " + v.Class.Name
	case machine.FunctionObject:
		return "fn " + v.Function.Name
	case machine.IntrinsicObject:
		return "intrinsic " + string(v.Name)
	case machine.ThunkObject:
		if v.Function != nil {
			return "thunk " + v.Function.Name
		}
		return "thunk " + string(v.Intrinsic)
	case machine.FreedObject:
		return "<freed>"
	default:
		return o.Kind()
	}
}
