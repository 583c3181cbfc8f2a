package stepper

import (
	"ownvm/internal/bir"
	"ownvm/internal/machine"
)

// share returns an alias of place's permission. Sharing a `my`
// permission permanently downgrades it to `our` in place, and the
// returned value carries that same permission, so every alias taken
// this way, including the source, ends up referencing one live `our`
// permission with no tenant chain between them. Sharing an already-`our`
// permission works the same way: just another alias of it. Only sharing
// out of a `leased` or `shared` source mints a new tenant permission,
// since those sources are already borrows and cannot be aliased
// directly.
func (s *Stepper) share(prog *bir.Bir, place bir.Place) (machine.Value, error) {
	anchor := NewAnchor()
	traversal, err := s.traverseToObject(anchor, prog, place)
	if err != nil {
		return machine.Value{}, err
	}

	sourceHandle := traversal.Value().Permission
	source := s.machine.Permission(sourceHandle)
	switch source.Kind {
	case machine.My:
		source.Kind = machine.Our
		s.machine.SetPermission(sourceHandle, source)
		return machine.Value{Object: traversal.Object, Permission: sourceHandle}, nil
	case machine.Our:
		return machine.Value{Object: traversal.Object, Permission: sourceHandle}, nil
	default:
		newHandle := s.machine.NewPermission(machine.PermissionData{Kind: machine.Shared, Lessor: &sourceHandle})
		s.installTenant(sourceHandle, newHandle)
		return machine.Value{Object: traversal.Object, Permission: newHandle}, nil
	}
}
