package main

import "ownvm/internal/bir"

// buildDemoProgram assembles a small built-in program by hand, since
// parsing source syntax to BIR is out of scope for this repository
// (spec.md §1) and this CLI has no front end to drive it. It exercises
// class construction, a lease, a share through that lease, arithmetic,
// intrinsic call/await round trips, a field give, string concatenation,
// and the write-propagation revocation rule (which cascades from the
// lease to the share), all within one function body.
func buildDemoProgram() *bir.Program {
	b := bir.NewBuilder()

	x := b.Local("x")
	y := b.Local("y")
	p := b.Local("p")
	q := b.Local("q")
	l := b.Local("l")
	sum := b.Local("sum")
	lx := b.Local("lx")
	label := b.Local("label")
	msg := b.Local("msg")
	printedSum := b.Local("")
	printedMsg := b.Local("")
	sumThunk := b.Local("")
	msgThunk := b.Local("")

	xPlace := b.LocalPlace(x)
	yPlace := b.LocalPlace(y)
	pPlace := b.LocalPlace(p)
	qPlace := b.LocalPlace(q)
	lPlace := b.LocalPlace(l)
	sumPlace := b.LocalPlace(sum)
	lxPlace := b.LocalPlace(lx)
	labelPlace := b.LocalPlace(label)
	msgPlace := b.LocalPlace(msg)

	pointGlobal := b.GlobalPlace("Point")
	printGlobal1 := b.GlobalPlace("print")
	printGlobal2 := b.GlobalPlace("print")

	entry := b.NewBlock()
	afterConstruct := b.NewBlock()
	afterSumCall := b.NewBlock()
	afterSumAwait := b.NewBlock()
	afterMsgCall := b.NewBlock()
	afterMsgAwait := b.NewBlock()
	final := b.NewBlock()

	b.SetBlock(entry, []bir.StatementData{
		bir.AssignExpr{Target: xPlace, Expr: b.Expr(bir.UnsignedIntLiteral{Value: 10})},
		bir.AssignExpr{Target: yPlace, Expr: b.Expr(bir.UnsignedIntLiteral{Value: 20})},
	}, bir.AssignTerm{
		Target: pPlace,
		Expr:   bir.CallExpr{Function: pointGlobal, Arguments: []bir.Place{xPlace, yPlace}},
		Next:   afterConstruct,
	})

	b.SetBlock(afterConstruct, []bir.StatementData{
		// l takes a leased tenant of p.
		bir.AssignExpr{Target: lPlace, Expr: b.Expr(bir.LeaseExpr{Place: pPlace})},
		// sharing through the leased l installs a new shared tenant of
		// l's permission, held by q.
		bir.AssignExpr{Target: qPlace, Expr: b.Expr(bir.ShareExpr{Place: lPlace})},
		bir.AssignExpr{Target: sumPlace, Expr: b.Expr(bir.OpExpr{LHS: xPlace, Op: bir.OpAdd, RHS: yPlace})},
	}, bir.AssignTerm{
		Target: b.LocalPlace(sumThunk),
		Expr:   bir.CallExpr{Function: printGlobal1, Arguments: []bir.Place{sumPlace}},
		Next:   afterSumCall,
	})

	b.SetBlock(afterSumCall, nil, bir.AssignTerm{
		Target: b.LocalPlace(printedSum),
		Expr:   bir.AwaitExpr{Thunk: b.LocalPlace(sumThunk)},
		Next:   afterSumAwait,
	})

	b.SetBlock(afterSumAwait, []bir.StatementData{
		bir.AssignExpr{Target: lxPlace, Expr: b.Expr(bir.GiveExpr{Place: b.DotPlace(lPlace, "x")})},
		bir.AssignExpr{Target: labelPlace, Expr: b.Expr(bir.StringLiteralExpr{Value: "p.x is "})},
		bir.AssignExpr{Target: msgPlace, Expr: b.Expr(bir.ConcatenateExpr{Parts: []bir.Place{labelPlace, lxPlace}})},
	}, bir.AssignTerm{
		Target: b.LocalPlace(msgThunk),
		Expr:   bir.CallExpr{Function: printGlobal2, Arguments: []bir.Place{msgPlace}},
		Next:   afterMsgCall,
	})

	b.SetBlock(afterMsgCall, nil, bir.AssignTerm{
		Target: b.LocalPlace(printedMsg),
		Expr:   bir.AwaitExpr{Thunk: b.LocalPlace(msgThunk)},
		Next:   afterMsgAwait,
	})

	b.SetBlock(afterMsgAwait, []bir.StatementData{
		// overwriting p.x revokes whatever currently leases p — l, at this
		// point, and with it q's shared tenant of l — without canceling
		// p's own permission.
		bir.AssignExpr{Target: b.DotPlace(pPlace, "x"), Expr: b.Expr(bir.UnsignedIntLiteral{Value: 99})},
	}, bir.GotoTerm{Target: final})

	b.SetBlock(final, nil, bir.ReturnTerm{Place: pPlace})

	fn := &bir.Function{Name: "main", Bir: b.Build(entry)}

	program := bir.NewProgram()
	program.Functions["main"] = fn
	program.Classes["Point"] = &bir.Class{Name: "Point", FieldOrder: []string{"x", "y"}}
	program.Intrinsics["print"] = "print"
	return program
}
