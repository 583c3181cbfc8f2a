package stepper

import (
	"ownvm/internal/bir"
	"ownvm/internal/fault"
	"ownvm/internal/machine"
)

// give moves a value out of place: if the place holds a `my` permission,
// the slot (or field) is cleared and the permission travels with the
// value unchanged; if it holds `our`, the value is freely duplicated and
// the source is left untouched, since an our permission is never
// exclusively owned in the first place. Leased and shared permissions
// cannot be given away — only shared or leased further.
func (s *Stepper) give(prog *bir.Bir, place bir.Place) (machine.Value, error) {
	anchor := NewAnchor()
	traversal, err := s.traverseToObject(anchor, prog, place)
	if err != nil {
		return machine.Value{}, err
	}

	value := traversal.Value()
	perm := s.machine.Permission(value.Permission)
	switch perm.Kind {
	case machine.My:
		loc, err := s.resolveLocation(prog, place)
		if err != nil {
			return machine.Value{}, err
		}
		loc.Set(nil)
	case machine.Our:
		// already shared; nothing to move
	default:
		return machine.Value{}, s.fault(fault.InsufficientPermission, prog.SpanOfPlace(place), "cannot give a %s permission", perm.Kind)
	}
	return value, nil
}
