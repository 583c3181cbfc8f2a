package stepper

import "ownvm/internal/machine"

// installTenant records tenant as lessor's live borrow, replacing and
// revoking whatever tenant was there before (invariant 3: a permission
// has at most one live tenant at a time).
func (s *Stepper) installTenant(lessor, tenant machine.PermHandle) {
	data := s.machine.Permission(lessor)
	if data.Tenant != nil {
		s.revoke(*data.Tenant)
	}
	t := tenant
	data.Tenant = &t
	s.machine.SetPermission(lessor, data)
}
