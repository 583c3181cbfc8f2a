package stepper

import "ownvm/internal/machine"

// liveValues visits every Value reachable from the stack (frame
// variables and in-flight values), from a finished program's pinned
// Done value, and from the object graph those values
// lead to (instance fields, tuple elements, thunk-captured arguments),
// calling visit once per Value encountered. It is the single definition
// of "live" both gc and AssertInvariants work from.
func (s *Stepper) liveValues(visit func(*machine.Value)) {
	seen := make(map[machine.ObjectHandle]bool)
	var worklist []machine.ObjectHandle

	mark := func(v *machine.Value) {
		if v == nil {
			return
		}
		visit(v)
		if !seen[v.Object] {
			seen[v.Object] = true
			worklist = append(worklist, v.Object)
		}
	}

	for _, frame := range s.machine.Stack() {
		for _, slot := range frame.Variables {
			mark(slot)
		}
		mark(frame.InFlight)
	}
	mark(s.pinned)

	for len(worklist) > 0 {
		h := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		switch o := s.machine.Object(h).(type) {
		case machine.Instance:
			for _, f := range o.Fields {
				mark(f)
			}
		case machine.TupleObject:
			for i := range o.Values {
				mark(&o.Values[i])
			}
		case machine.ThunkObject:
			for i := range o.Arguments {
				mark(&o.Arguments[i])
			}
		}
	}
}

// reachableObjects is liveValues' object-handle projection, used by both
// gc's sweep and invariant 5's reachability check.
func (s *Stepper) reachableObjects() map[machine.ObjectHandle]bool {
	reachable := make(map[machine.ObjectHandle]bool)
	s.liveValues(func(v *machine.Value) { reachable[v.Object] = true })
	return reachable
}

// gc runs a mark-and-sweep pass over the object heap. It runs after
// every single step completes, and only then (spec.md §3, invariant 5).
// It sweeps objects only: permissions are never reclaimed, so the
// permission arena (and a snapshot of it) keeps every permission ever
// allocated, canceled or not. Reclaiming a handle overwrites
// its arena slot with FreedObject rather than physically removing it:
// the dense handle scheme used throughout this package never reuses or
// renumbers indices once assigned.
func (s *Stepper) gc() {
	reachable := s.reachableObjects()
	for i := 0; i < s.machine.NumObjects(); i++ {
		h := machine.ObjectHandle(i)
		if reachable[h] {
			continue
		}
		if _, alreadyFreed := s.machine.Object(h).(machine.FreedObject); !alreadyFreed {
			s.machine.SetObject(h, machine.FreedObject{})
		}
	}
}
