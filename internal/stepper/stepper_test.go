package stepper

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ownvm/internal/bir"
	"ownvm/internal/kernel"
	"ownvm/internal/machine"
)

func runToDone(t *testing.T, s *Stepper) machine.Value {
	t.Helper()
	for i := 0; i < 1000; i++ {
		flow, err := s.Step()
		require.NoError(t, err)
		s.AssertInvariants()
		if done, ok := flow.(Done); ok {
			return done.Value
		}
	}
	t.Fatal("program did not finish within 1000 steps")
	return machine.Value{}
}

func TestStepArithmeticReturnsDone(t *testing.T) {
	b := bir.NewBuilder()
	one := b.Expr(bir.PlainIntLiteral{Value: 1})
	two := b.Expr(bir.PlainIntLiteral{Value: 2})

	lhs := b.Local("")
	lhsPlace := b.LocalPlace(lhs)
	rhs := b.Local("")
	rhsPlace := b.LocalPlace(rhs)
	sum := b.Local("")
	sumPlace := b.LocalPlace(sum)
	addExpr := b.Expr(bir.OpExpr{LHS: lhsPlace, Op: bir.OpAdd, RHS: rhsPlace})

	entry := b.NewBlock()
	b.SetBlock(entry, []bir.StatementData{
		bir.AssignExpr{Target: lhsPlace, Expr: one},
		bir.AssignExpr{Target: rhsPlace, Expr: two},
		bir.AssignExpr{Target: sumPlace, Expr: addExpr},
	}, bir.ReturnTerm{Place: sumPlace})

	fn := &bir.Function{Name: "main", Bir: b.Build(entry)}
	program := bir.NewProgram()
	program.Functions["main"] = fn

	m := machine.New(program, zerolog.Nop())
	m.PushFrame(machine.NewFrame(fn))
	s := New(m, nil)

	result := runToDone(t, s)
	sumObj, ok := m.Object(result.Object).(machine.UintObject)
	require.True(t, ok, "result object = %T, want UintObject", m.Object(result.Object))
	assert.Equal(t, uint64(3), sumObj.Value)
}

func TestStepCallAndAwaitRunsCallee(t *testing.T) {
	program := bir.NewProgram()

	// addOne(x) { return x + 1 }
	cb := bir.NewBuilder()
	x := cb.Param("x")
	xPlace := cb.LocalPlace(x)
	one := cb.Expr(bir.PlainIntLiteral{Value: 1})
	onePlace := cb.Local("")
	onePlaceRef := cb.LocalPlace(onePlace)
	sum := cb.Local("")
	sumPlace := cb.LocalPlace(sum)
	addExpr := cb.Expr(bir.OpExpr{LHS: xPlace, Op: bir.OpAdd, RHS: onePlaceRef})

	addEntry := cb.NewBlock()
	cb.SetBlock(addEntry, []bir.StatementData{
		bir.AssignExpr{Target: onePlaceRef, Expr: one},
		bir.AssignExpr{Target: sumPlace, Expr: addExpr},
	}, bir.ReturnTerm{Place: sumPlace})
	addOne := &bir.Function{Name: "addOne", Bir: cb.Build(addEntry)}
	program.Functions["addOne"] = addOne

	// main() { x := 5; t := addOne(x); r := await t; return r }
	mb := bir.NewBuilder()
	mx := mb.Local("")
	mxPlace := mb.LocalPlace(mx)
	five := mb.Expr(bir.PlainIntLiteral{Value: 5})
	thunk := mb.Local("")
	thunkPlace := mb.LocalPlace(thunk)
	result := mb.Local("")
	resultPlace := mb.LocalPlace(result)
	calleePlace := mb.GlobalPlace("addOne")

	callBlock := mb.NewBlock()
	awaitBlock := mb.NewBlock()
	returnBlock := mb.NewBlock()

	mb.SetBlock(callBlock, []bir.StatementData{
		bir.AssignExpr{Target: mxPlace, Expr: five},
	}, bir.AssignTerm{Target: thunkPlace, Expr: bir.CallExpr{Function: calleePlace, Arguments: []bir.Place{mxPlace}}, Next: awaitBlock})

	mb.SetBlock(awaitBlock, nil, bir.AssignTerm{Target: resultPlace, Expr: bir.AwaitExpr{Thunk: thunkPlace}, Next: returnBlock})

	mb.SetBlock(returnBlock, nil, bir.ReturnTerm{Place: resultPlace})

	main := &bir.Function{Name: "main", Bir: mb.Build(callBlock)}
	program.Functions["main"] = main

	m := machine.New(program, zerolog.Nop())
	m.PushFrame(machine.NewFrame(main))
	s := New(m, nil)

	result2 := runToDone(t, s)
	sumObj, ok := m.Object(result2.Object).(machine.UintObject)
	require.True(t, ok, "result object = %T, want UintObject", m.Object(result2.Object))
	assert.Equal(t, uint64(6), sumObj.Value)
}

// stubKernel answers the "print" intrinsic without touching stdout, so
// tests can assert on exactly what was printed. It also records each
// argument's object data at call time, since the argument objects are
// swept once the program's last frame returns.
type stubKernel struct {
	m              machine.StateReader
	printed        []machine.Value
	printedObjects []machine.ObjectData
}

func (k *stubKernel) BreakpointStart(machine.StateReader, string, int)               {}
func (k *stubKernel) BreakpointEnd(machine.StateReader, string, int, *machine.Value) {}

func (k *stubKernel) Intrinsic(name bir.Intrinsic, args []machine.Value) (kernel.NativeThunk, error) {
	k.printed = append(k.printed, args...)
	for _, a := range args {
		k.printedObjects = append(k.printedObjects, k.m.Object(a.Object))
	}
	return stubThunk{}, nil
}

type stubThunk struct{}

func (stubThunk) Resolve(m machine.MachineOp) (machine.Value, error) {
	obj := m.NewObject(machine.UnitObject{})
	perm := m.NewPermission(machine.NewOur())
	return machine.Value{Object: obj, Permission: perm}, nil
}

func TestStepAwaitIntrinsicCallsKernel(t *testing.T) {
	program := bir.NewProgram()
	program.Intrinsics["print"] = "print"

	b := bir.NewBuilder()
	x := b.Local("")
	xPlace := b.LocalPlace(x)
	msg := b.Expr(bir.StringLiteralExpr{Value: "hello"})
	thunk := b.Local("")
	thunkPlace := b.LocalPlace(thunk)
	result := b.Local("")
	resultPlace := b.LocalPlace(result)
	printPlace := b.GlobalPlace("print")

	callBlock := b.NewBlock()
	awaitBlock := b.NewBlock()
	returnBlock := b.NewBlock()

	b.SetBlock(callBlock, []bir.StatementData{
		bir.AssignExpr{Target: xPlace, Expr: msg},
	}, bir.AssignTerm{Target: thunkPlace, Expr: bir.CallExpr{Function: printPlace, Arguments: []bir.Place{xPlace}}, Next: awaitBlock})
	b.SetBlock(awaitBlock, nil, bir.AssignTerm{Target: resultPlace, Expr: bir.AwaitExpr{Thunk: thunkPlace}, Next: returnBlock})
	b.SetBlock(returnBlock, nil, bir.ReturnTerm{Place: resultPlace})

	main := &bir.Function{Name: "main", Bir: b.Build(callBlock)}
	program.Functions["main"] = main

	m := machine.New(program, zerolog.Nop())
	m.PushFrame(machine.NewFrame(main))
	k := &stubKernel{m: m}
	s := New(m, k)

	result2 := runToDone(t, s)
	_, isUnit := m.Object(result2.Object).(machine.UnitObject)
	assert.True(t, isUnit, "print's result should be Unit")
	require.Len(t, k.printed, 1)
	str, ok := k.printedObjects[0].(machine.StringObject)
	require.True(t, ok)
	assert.Equal(t, "hello", str.Value)
}
