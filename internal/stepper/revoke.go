package stepper

import "ownvm/internal/machine"

// revoke cancels a permission and cascades to its whole tenant subtree:
// once a lessor is gone, nothing borrowed under it can remain valid
// (spec.md §4.4).
func (s *Stepper) revoke(h machine.PermHandle) {
	data := s.machine.Permission(h)
	if data.Canceled {
		return
	}
	data.Canceled = true
	tenant := data.Tenant
	data.Tenant = nil
	s.machine.SetPermission(h, data)
	if tenant != nil {
		s.revoke(*tenant)
	}
}

// revokeTenantOf cancels only h's current tenant, leaving h itself live.
// This is the write-propagation rule: overwriting the slot or field that
// occupies h invalidates whoever had borrowed from it, but h was merely
// holding a value that is now being replaced, not itself revoked
// (spec.md §4.4, the `p.x = q.y` example).
func (s *Stepper) revokeTenantOf(h machine.PermHandle) {
	data := s.machine.Permission(h)
	if data.Tenant == nil {
		return
	}
	tenant := *data.Tenant
	data.Tenant = nil
	s.machine.SetPermission(h, data)
	s.revoke(tenant)
}
