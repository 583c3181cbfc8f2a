// Package fault defines the structured error taxonomy the execution core
// raises. Every fault carries a primary source span and, for a few kinds,
// a secondary label (e.g. pointing back at a class declaration); the
// driver decides how to render them (spec.md §7).
package fault

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Kind classifies why a fault was raised.
type Kind int

const (
	// UseOfCanceledPermission: traversal encountered a canceled permission.
	UseOfCanceledPermission Kind = iota
	// InsufficientPermission: give of leased/shared, lease of shared, etc.
	InsufficientPermission
	// NoSuchField: field name absent on class.
	NoSuchField
	// TypeMismatch: If on non-Bool, arithmetic on incompatible kinds.
	TypeMismatch
	// Uninitialized: read of a cleared slot.
	Uninitialized
	// CompilationError: BIR contains an Error node.
	CompilationError
	// Panic: BIR Panic terminator.
	Panic
	// HostError: the Kernel returned failure.
	HostError
)

func (k Kind) String() string {
	switch k {
	case UseOfCanceledPermission:
		return "UseOfCanceledPermission"
	case InsufficientPermission:
		return "InsufficientPermission"
	case NoSuchField:
		return "NoSuchField"
	case TypeMismatch:
		return "TypeMismatch"
	case Uninitialized:
		return "Uninitialized"
	case CompilationError:
		return "CompilationError"
	case Panic:
		return "Panic"
	case HostError:
		return "HostError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Span identifies a location in a source file. The execution core never
// interprets these fields; it just threads them through from the BIR
// origin table to the diagnostic.
type Span struct {
	File  string
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d-%d", s.File, s.Start, s.End)
}

// SecondaryLabel annotates a fault with an additional span, e.g. "the
// class `Point` is declared here".
type SecondaryLabel struct {
	Span    Span
	Message string
}

// Fault is a structured diagnostic report. It implements `error` so it can
// be returned and wrapped like any other Go error, but callers that need
// the structured fields should type-assert back to *Fault (or use As).
type Fault struct {
	ID        uuid.UUID
	Kind      Kind
	Message   string
	Primary   Span
	Secondary *SecondaryLabel
	cause     error
}

// New builds a fault of the given kind with a primary span and message.
func New(kind Kind, primary Span, format string, args ...interface{}) *Fault {
	return &Fault{
		ID:      uuid.New(),
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Primary: primary,
	}
}

// WithSecondary attaches a secondary label and returns the fault for
// chaining, e.g. fault.New(...).WithSecondary(classSpan, "declared here").
func (f *Fault) WithSecondary(span Span, message string) *Fault {
	f.Secondary = &SecondaryLabel{Span: span, Message: message}
	return f
}

// Wrap attaches an underlying cause (e.g. a host error surfaced through the
// Kernel) and stamps a stack trace via pkg/errors so the driver can print
// one even though Go errors don't carry traces natively.
func (f *Fault) Wrap(cause error) error {
	f.cause = cause
	return errors.WithStack(f)
}

func (f *Fault) Error() string {
	if f.Secondary != nil {
		return fmt.Sprintf("%s at %s: %s (%s: %s)", f.Kind, f.Primary, f.Message, f.Secondary.Span, f.Secondary.Message)
	}
	return fmt.Sprintf("%s at %s: %s", f.Kind, f.Primary, f.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (f *Fault) Unwrap() error {
	return f.cause
}

// AssertionViolation panics with a message identifying an internal
// invariant violation (spec.md §7: "Internal invariant violations abort").
// It is not a Fault: it indicates a bug in the interpreter, not a
// program-level error, and is never recovered inside the core.
func AssertionViolation(format string, args ...interface{}) {
	panic(fmt.Sprintf("internal invariant violated: %s", fmt.Sprintf(format, args...)))
}
