package stepper

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ownvm/internal/bir"
	"ownvm/internal/machine"
)

// newTestMachine builds a single-frame machine with one local variable
// ("v") so permission-algebra tests can traverse a real Place without
// driving a full program through Step.
func newTestMachine(t *testing.T) (*machine.Machine, *bir.Bir, bir.Place, bir.LocalVariable) {
	t.Helper()
	b := bir.NewBuilder()
	v := b.Local("v")
	place := b.LocalPlace(v)
	entry := b.NewBlock()
	b.SetBlock(entry, nil, bir.ReturnTerm{Place: place})
	prog := b.Build(entry)

	m := machine.New(bir.NewProgram(), zerolog.Nop())
	m.PushFrame(machine.NewFrame(&bir.Function{Name: "main", Bir: prog}))
	return m, prog, place, v
}

func TestGiveMyClearsSource(t *testing.T) {
	m, prog, place, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.NewMy())
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	got, err := s.give(prog, place)
	require.NoError(t, err)
	assert.Equal(t, perm, got.Permission)
	assert.Nil(t, m.TopFrame().Slot(v), "give of a my permission must clear the source slot")
}

func TestGiveOurLeavesSource(t *testing.T) {
	m, prog, place, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.NewOur())
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	_, err := s.give(prog, place)
	require.NoError(t, err)
	assert.NotNil(t, m.TopFrame().Slot(v), "give of an our permission must leave the source slot intact")
}

func TestGiveLeasedOrSharedFaults(t *testing.T) {
	for _, kind := range []machine.PermKind{machine.Leased, machine.Shared} {
		m, prog, place, v := newTestMachine(t)
		obj := m.NewObject(machine.StringObject{Value: "hi"})
		perm := m.NewPermission(machine.PermissionData{Kind: kind})
		m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

		s := New(m, nil)
		_, err := s.give(prog, place)
		assert.Error(t, err, "give of a %s permission must fault", kind)
	}
}

func TestShareDowngradesMyToOur(t *testing.T) {
	m, prog, place, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.NewMy())
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	shared, err := s.share(prog, place)
	require.NoError(t, err)

	assert.Equal(t, machine.Our, m.Permission(perm).Kind, "sharing a my permission downgrades it to our in place")
	assert.Equal(t, perm, shared.Permission, "share of a my permission returns an alias of the downgraded permission, not a new tenant")
	assert.Nil(t, m.Permission(perm).Lessor)
	assert.Nil(t, m.Permission(perm).Tenant)
}

// TestShareOfMyThenOurYieldsThreeLiveAliases covers p = Point(1,2); q =
// p.share; r = p.share: sharing the already-our permission a second
// time must hand back another alias of the same permission rather than
// installing a new tenant that would cancel the first alias.
func TestShareOfMyThenOurYieldsThreeLiveAliases(t *testing.T) {
	m, prog, place, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.NewMy())
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	q, err := s.share(prog, place)
	require.NoError(t, err)
	r, err := s.share(prog, place)
	require.NoError(t, err)

	assert.Equal(t, machine.Our, m.Permission(perm).Kind)
	assert.Equal(t, perm, q.Permission)
	assert.Equal(t, perm, r.Permission)
	assert.False(t, m.Permission(perm).Canceled, "p, q, and r are all live aliases of the same our permission")
	assert.Nil(t, m.Permission(perm).Tenant, "aliasing our never installs a tenant")
}

func TestLeaseThroughSharedFaults(t *testing.T) {
	m, prog, place, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.PermissionData{Kind: machine.Shared})
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	_, err := s.lease(prog, place)
	assert.Error(t, err)
}

func TestLeaseThroughOurFaults(t *testing.T) {
	m, prog, place, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.NewOur())
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	_, err := s.lease(prog, place)
	assert.Error(t, err, "cannot lease an our permission")
}

func TestInstallTenantCancelsPreviousTenant(t *testing.T) {
	m, prog, place, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.NewMy())
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	firstLease, err := s.lease(prog, place)
	require.NoError(t, err)

	secondLease, err := s.lease(prog, place)
	require.NoError(t, err)

	assert.True(t, m.Permission(firstLease.Permission).Canceled, "installing a second tenant cancels the first")
	assert.False(t, m.Permission(secondLease.Permission).Canceled)
	assert.Equal(t, secondLease.Permission, *m.Permission(perm).Tenant)
}

func TestAssignRevokesTenantOfOverwrittenValue(t *testing.T) {
	m, prog, place, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.NewMy())
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	lease, err := s.lease(prog, place)
	require.NoError(t, err)

	replacement := machine.Value{Object: m.NewObject(machine.UnitObject{}), Permission: m.NewPermission(machine.NewMy())}
	require.NoError(t, s.assign(prog, place, replacement))

	assert.True(t, m.Permission(lease.Permission).Canceled, "overwriting the lessor's slot must cancel its outstanding lease")
	assert.False(t, m.Permission(perm).Canceled, "the overwritten permission itself is not canceled, only its tenant")
}
