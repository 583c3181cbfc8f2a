package bir

import "testing"

func TestBuilderAssemblesStraightLineBlock(t *testing.T) {
	b := NewBuilder()
	x := b.Param("x")
	xPlace := b.LocalPlace(x)

	one := b.Expr(PlainIntLiteral{Value: 1})
	sum := b.Expr(OpExpr{LHS: xPlace, Op: OpAdd, RHS: xPlace})
	_ = one

	entry := b.NewBlock()
	b.SetBlock(entry, nil, ReturnTerm{Place: xPlace})

	result := b.Local("")
	resultPlace := b.LocalPlace(result)
	b.SetBlock(entry, []StatementData{
		AssignExpr{Target: resultPlace, Expr: sum},
	}, ReturnTerm{Place: resultPlace})

	prog := b.Build(entry)

	if prog.NumParameters != 1 {
		t.Fatalf("NumParameters = %d, want 1", prog.NumParameters)
	}
	if prog.Tables.NumLocals() != 2 {
		t.Fatalf("NumLocals = %d, want 2", prog.Tables.NumLocals())
	}

	block := prog.Tables.Block(entry)
	if len(block.Statements) != 1 {
		t.Fatalf("len(Statements) = %d, want 1", len(block.Statements))
	}
	if _, ok := block.Terminator.(ReturnTerm); !ok {
		t.Fatalf("Terminator = %T, want ReturnTerm", block.Terminator)
	}
}

func TestSetBlockRecordsStatements(t *testing.T) {
	b := NewBuilder()
	entry := b.NewBlock()
	local := b.Local("")
	place := b.LocalPlace(local)
	b.SetBlock(entry, []StatementData{
		AssignExpr{Target: place, Expr: b.Expr(UnitExpr{})},
	}, ReturnTerm{Place: place})
	prog := b.Build(entry)

	block := prog.Tables.Block(entry)
	if len(block.Statements) != 1 {
		t.Fatalf("len(Statements) = %d, want 1", len(block.Statements))
	}
}

func TestDotPlaceAndGlobalPlace(t *testing.T) {
	b := NewBuilder()
	self := b.Param("self")
	selfPlace := b.LocalPlace(self)
	fieldPlace := b.DotPlace(selfPlace, "x")
	global := b.GlobalPlace("Point")

	if _, ok := b.tables.PlaceData(fieldPlace).(DotPlace); !ok {
		t.Fatalf("fieldPlace resolved to %T, want DotPlace", b.tables.PlaceData(fieldPlace))
	}
	if data, ok := b.tables.PlaceData(global).(GlobalPlace); !ok || data.Name != "Point" {
		t.Fatalf("global = %+v, want GlobalPlace{Name: Point}", b.tables.PlaceData(global))
	}
}

func TestOpStringNames(t *testing.T) {
	cases := map[Op]string{
		OpAdd: "+",
		OpEq:  "==",
		OpAnd: "&&",
		OpNeg: "neg",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Op(%d).String() = %q, want %q", op, got, want)
		}
	}
}
