package kernel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ownvm/internal/bir"
	"ownvm/internal/machine"
)

func TestPrintIntrinsicWritesSpaceSeparatedArgs(t *testing.T) {
	m := machine.New(bir.NewProgram(), zerolog.Nop())
	a := m.NewObject(machine.StringObject{Value: "hello"})
	b := m.NewObject(machine.UintObject{Value: 7})
	args := []machine.Value{
		{Object: a, Permission: m.NewPermission(machine.NewOur())},
		{Object: b, Permission: m.NewPermission(machine.NewOur())},
	}

	var out bytes.Buffer
	k := &StdoutKernel{Out: &out, Log: zerolog.Nop()}

	native, err := k.Intrinsic("print", args)
	require.NoError(t, err)
	result, err := native.Resolve(m)
	require.NoError(t, err)

	assert.Equal(t, "hello 7\n", out.String())
	_, isUnit := m.Object(result.Object).(machine.UnitObject)
	assert.True(t, isUnit)
}

func TestUnknownIntrinsicErrors(t *testing.T) {
	k := &StdoutKernel{Out: &bytes.Buffer{}, Log: zerolog.Nop()}
	_, err := k.Intrinsic("launder", nil)
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "launder"))
}
