package stepper

import (
	"ownvm/internal/fault"
	"ownvm/internal/machine"
)

// AssertInvariants checks the six structural invariants the execution
// core must never violate. A failure here means the Stepper itself has
// a bug, not that the running program is malformed; callers typically
// invoke this from tests after a sequence of Step calls rather than
// from the hot path of Step itself.
func (s *Stepper) AssertInvariants() {
	s.assertLiveValuesNonCanceled()
	s.assertLessorLiveOrSelfCanceled()
	s.assertTenantConsistency()
	s.assertMyOurHaveNoLessorAndMyIsUnaliased()
	s.assertReachabilitySwept()
	s.assertLeaseCanceledBelowCanceledLessor()
}

// invariant 1: every live Value's permission is non-canceled. A value
// that still names a canceled permission is exactly the use-after-cancel
// bug the permission table exists to catch.
func (s *Stepper) assertLiveValuesNonCanceled() {
	s.liveValues(func(v *machine.Value) {
		if s.machine.Permission(v.Permission).Canceled {
			fault.AssertionViolation("live value references canceled permission %d", v.Permission)
		}
	})
}

// invariant 2: every permission's lessor, if present, is either
// non-canceled, or the permission itself is canceled too. A lessor can
// never be canceled out from under a tenant that is still considered
// live.
func (s *Stepper) assertLessorLiveOrSelfCanceled() {
	for i := 0; i < s.machine.NumPermissions(); i++ {
		h := machine.PermHandle(i)
		data := s.machine.Permission(h)
		if data.Lessor == nil {
			continue
		}
		lessor := s.machine.Permission(*data.Lessor)
		if lessor.Canceled && !data.Canceled {
			fault.AssertionViolation("permission %d survives its canceled lessor %d", h, *data.Lessor)
		}
	}
}

// invariant 3: for any permission P, if P.Tenant=Some(T) then
// T.Lessor=Some(P); the reverse direction (at most one T at a time) is
// structural, since Tenant is a single field rather than a set.
func (s *Stepper) assertTenantConsistency() {
	for i := 0; i < s.machine.NumPermissions(); i++ {
		h := machine.PermHandle(i)
		data := s.machine.Permission(h)
		if data.Tenant == nil {
			continue
		}
		tenantData := s.machine.Permission(*data.Tenant)
		if tenantData.Lessor == nil || *tenantData.Lessor != h {
			fault.AssertionViolation("permission %d's tenant %d does not lease from it", h, *data.Tenant)
		}
	}
}

// invariant 4: My and Our permissions have no lessor, and a My
// permission is referenced by at most one live value at a time.
func (s *Stepper) assertMyOurHaveNoLessorAndMyIsUnaliased() {
	for i := 0; i < s.machine.NumPermissions(); i++ {
		data := s.machine.Permission(machine.PermHandle(i))
		if (data.Kind == machine.My || data.Kind == machine.Our) && data.Lessor != nil {
			fault.AssertionViolation("permission %d is %s but has a lessor", i, data.Kind)
		}
	}

	seen := make(map[machine.PermHandle]bool)
	s.liveValues(func(v *machine.Value) {
		if s.machine.Permission(v.Permission).Kind != machine.My {
			return
		}
		if seen[v.Permission] {
			fault.AssertionViolation("my permission %d is referenced by more than one live value", v.Permission)
		}
		seen[v.Permission] = true
	})
}

// invariant 5: the set of objects reachable from the stack and
// in-flight values is the live set; anything else has already been
// swept to FreedObject. gc runs after every Step, so this should hold
// at every point a caller can observe the machine.
func (s *Stepper) assertReachabilitySwept() {
	reachable := s.reachableObjects()
	for i := 0; i < s.machine.NumObjects(); i++ {
		h := machine.ObjectHandle(i)
		_, freed := s.machine.Object(h).(machine.FreedObject)
		if !reachable[h] && !freed {
			fault.AssertionViolation("unreachable object %d was not swept", h)
		}
	}
}

// invariant 6: a Leased permission is canceled whenever any write
// traverses its lessor chain. revoke cancels a permission's whole
// tenant chain in one pass (see revoke.go), so this holds exactly when
// no Leased permission outlives a canceled ancestor anywhere along its
// lessor chain.
func (s *Stepper) assertLeaseCanceledBelowCanceledLessor() {
	for i := 0; i < s.machine.NumPermissions(); i++ {
		h := machine.PermHandle(i)
		data := s.machine.Permission(h)
		if data.Kind != machine.Leased || data.Canceled {
			continue
		}
		for lessor := data.Lessor; lessor != nil; {
			lessorData := s.machine.Permission(*lessor)
			if lessorData.Canceled {
				fault.AssertionViolation("leased permission %d outlives canceled lessor %d", h, *lessor)
				break
			}
			lessor = lessorData.Lessor
		}
	}
}
