package stepper

import (
	"ownvm/internal/bir"
	"ownvm/internal/fault"
	"ownvm/internal/machine"
)

// lease produces a new `leased` (exclusive) tenant of place's permission.
// A shared permission cannot itself be leased from: an exclusive borrow
// cannot be carved out of a non-exclusive one. Nor can an our permission
// be leased from: our has no single owner to revoke the exclusivity
// back from, so granting an exclusive borrow over it would let the
// lease outlive any notion of who could cancel it.
func (s *Stepper) lease(prog *bir.Bir, place bir.Place) (machine.Value, error) {
	anchor := NewAnchor()
	traversal, err := s.traverseToObject(anchor, prog, place)
	if err != nil {
		return machine.Value{}, err
	}

	sourceHandle := traversal.Value().Permission
	source := s.machine.Permission(sourceHandle)
	switch source.Kind {
	case machine.Shared:
		return machine.Value{}, s.fault(fault.InsufficientPermission, prog.SpanOfPlace(place), "cannot lease through a shared permission")
	case machine.Our:
		return machine.Value{}, s.fault(fault.InsufficientPermission, prog.SpanOfPlace(place), "cannot lease a shared value")
	}

	newHandle := s.machine.NewPermission(machine.PermissionData{Kind: machine.Leased, Lessor: &sourceHandle})
	s.installTenant(sourceHandle, newHandle)
	return machine.Value{Object: traversal.Object, Permission: newHandle}, nil
}
