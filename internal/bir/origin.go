package bir

import "ownvm/internal/fault"

// Origins is the side table mapping BIR ids back to source spans. It is
// kept separate from Tables and populated lazily because it is consulted
// only on diagnostics and snapshots, never on the hot execution path
// (spec.md §9).
type Origins struct {
	exprSpans  map[Expr]fault.Span
	placeSpans map[Place]fault.Span
	localSpans map[LocalVariable]fault.Span
}

// NewOrigins creates an empty origin table.
func NewOrigins() *Origins {
	return &Origins{
		exprSpans:  map[Expr]fault.Span{},
		placeSpans: map[Place]fault.Span{},
		localSpans: map[LocalVariable]fault.Span{},
	}
}

// SetExpr records the span an Expr was lowered from.
func (o *Origins) SetExpr(e Expr, span fault.Span) { o.exprSpans[e] = span }

// SetPlace records the span a Place was lowered from.
func (o *Origins) SetPlace(p Place, span fault.Span) { o.placeSpans[p] = span }

// SetLocal records the span a LocalVariable was declared at.
func (o *Origins) SetLocal(v LocalVariable, span fault.Span) { o.localSpans[v] = span }
