package stepper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ownvm/internal/machine"
)

func TestAssertInvariantsPassesAfterShare(t *testing.T) {
	m, prog, place, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.NewMy())
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	_, err := s.share(prog, place)
	require.NoError(t, err)

	assert.NotPanics(t, s.AssertInvariants)
}

func TestAssertInvariantsCatchesLiveValueOnCanceledPermission(t *testing.T) {
	m, _, _, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.PermissionData{Kind: machine.My, Canceled: true})
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})

	s := New(m, nil)
	assert.Panics(t, s.AssertInvariants, "a live value referencing a canceled permission must trip invariant 1")
}

func TestAssertInvariantsCatchesMyPermissionAliasing(t *testing.T) {
	m, _, _, v := newTestMachine(t)
	obj := m.NewObject(machine.StringObject{Value: "hi"})
	perm := m.NewPermission(machine.NewMy())
	m.TopFrame().SetSlot(v, &machine.Value{Object: obj, Permission: perm})
	m.TopFrame().InFlight = &machine.Value{Object: obj, Permission: perm}

	s := New(m, nil)
	assert.Panics(t, s.AssertInvariants, "the same my permission referenced by two live values must trip invariant 4")
}

func TestAssertInvariantsCatchesUnsweptGarbage(t *testing.T) {
	m, _, _, _ := newTestMachine(t)
	m.NewObject(machine.StringObject{Value: "orphan"})

	s := New(m, nil)
	assert.Panics(t, s.AssertInvariants, "an object unreachable from the stack that was never swept must trip invariant 5")
}
