package stepper

import (
	"ownvm/internal/bir"
	"ownvm/internal/machine"
)

// assign writes value into target, first revoking the tenant of every
// permission along the access path — the enclosing `.field` chain, if
// any, plus whatever permission previously occupied the target itself
// (spec.md §4.4's write-propagation rule).
func (s *Stepper) assign(prog *bir.Bir, target bir.Place, value machine.Value) error {
	loc, pathTraversed, err := s.traverseToPlace(prog, target)
	if err != nil {
		return err
	}
	for _, p := range pathTraversed {
		s.revokeTenantOf(p)
	}
	loc.Set(&value)
	return nil
}
