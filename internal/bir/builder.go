package bir

// Builder assembles a Bir programmatically. It exists because parsing and
// lowering source syntax to BIR is explicitly out of scope for this
// repository (spec.md §1); this repo's tests, and any embedder that wants
// to hand the execution core a program without writing a front end, use
// Builder directly.
type Builder struct {
	tables    *Tables
	origins   *Origins
	numParams int
}

// NewBuilder starts a fresh Bir under construction.
func NewBuilder() *Builder {
	return &Builder{
		tables:  &Tables{},
		origins: NewOrigins(),
	}
}

// Param declares the next parameter local, in declaration order. All
// parameters must be declared before any non-parameter Local.
func (b *Builder) Param(name string) LocalVariable {
	v := LocalVariable(b.tables.locals.alloc(LocalVariableData{Name: name}))
	b.numParams++
	return v
}

// Local declares a non-parameter local variable. Pass "" for a compiler
// temporary (spec.md §4.7's include_temporaries distinguishes these).
func (b *Builder) Local(name string) LocalVariable {
	return LocalVariable(b.tables.locals.alloc(LocalVariableData{Name: name}))
}

// LocalPlace builds a Place that reads or writes a local variable.
func (b *Builder) LocalPlace(v LocalVariable) Place {
	return Place(b.tables.places.alloc(LocalVariablePlace{Var: v}))
}

// GlobalPlace builds a Place referencing a function, class, or intrinsic
// by name.
func (b *Builder) GlobalPlace(name string) Place {
	return Place(b.tables.places.alloc(GlobalPlace{Name: name}))
}

// DotPlace builds a Place that descends one field from base.
func (b *Builder) DotPlace(base Place, field string) Place {
	return Place(b.tables.places.alloc(DotPlace{Base: base, Field: field}))
}

// Expr interns an expression and returns its handle.
func (b *Builder) Expr(data ExprData) Expr {
	return Expr(b.tables.exprs.alloc(data))
}

// NewBlock reserves a basic block handle so forward jumps (loops,
// branches to a block defined later) can reference it before SetBlock
// fills in its contents.
func (b *Builder) NewBlock() BasicBlock {
	return BasicBlock(b.tables.basicBlocks.alloc(BasicBlockData{}))
}

// SetBlock fills in a previously reserved block's statements and
// terminator.
func (b *Builder) SetBlock(block BasicBlock, statements []StatementData, terminator TerminatorData) {
	b.tables.basicBlocks.set(int(block), BasicBlockData{
		Statements: statements,
		Terminator: terminator,
	})
}

// Origins exposes the origin table under construction so callers can
// record spans as they build (e.g. Builder.Origins().SetExpr(e, span)).
func (b *Builder) Origins() *Origins {
	return b.origins
}

// Build finalizes the Bir with the given entry block.
func (b *Builder) Build(start BasicBlock) *Bir {
	return &Bir{
		Tables:        b.tables,
		NumParameters: b.numParams,
		StartBlock:    start,
		Origins:       b.origins,
	}
}
