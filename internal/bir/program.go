package bir

// Program is the whole-program table of user functions, classes, and
// native intrinsics a Bir's Call terminators resolve GlobalPlace names
// against. The execution core trusts it is well-formed (spec.md §9: "the
// stepper takes BIR as an input and trusts its validity").
type Program struct {
	Functions  map[string]*Function
	Classes    map[string]*Class
	Intrinsics map[string]Intrinsic
}

// NewProgram creates an empty program ready to have functions/classes
// registered into it.
func NewProgram() *Program {
	return &Program{
		Functions:  map[string]*Function{},
		Classes:    map[string]*Class{},
		Intrinsics: map[string]Intrinsic{},
	}
}

// Function is a user-defined function: a name plus its compiled body.
type Function struct {
	Name string
	Bir  *Bir
}

// Class describes an Instance object's shape: its name and the ordered
// field names an Instance of it carries (spec.md §3).
type Class struct {
	Name       string
	FieldOrder []string
}

// FieldIndex returns the index of a field by name, or -1 if absent.
func (c *Class) FieldIndex(name string) int {
	for i, f := range c.FieldOrder {
		if f == name {
			return i
		}
	}
	return -1
}

// Intrinsic names a native operation the Kernel implements (spec.md §6),
// e.g. "print". The execution core never interprets the string itself; it
// is looked up in Program.Intrinsics and then in the Kernel.
type Intrinsic string
