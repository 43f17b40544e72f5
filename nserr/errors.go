// Package nserr defines the error kinds the runtime raises
// and the mechanics for propagating them: a typed, stack-capturing
// error value, and a bailout/recover helper for deeply recursive
// constructors that would otherwise have to thread an error return
// through every call.
package nserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies why a fallible operation failed.
type Kind int

const (
	// OutOfMemory signals an allocation failure. In this Go rendering
	// nothing actually fails to allocate, but the kind is kept so that
	// allocation-checking call sites have a kind to raise if a
	// future embedder wires in an allocation budget.
	OutOfMemory Kind = iota
	// NameError signals an unknown module, symbol, macro, or read
	// macro; a duplicate module creation; or an unbound scope lookup.
	NameError
	// DomainError signals structural misuse: wrong arity to
	// GetInstance, a nil name where a symbol is required, etc.
	DomainError
	// TypeError signals a runtime subtype mismatch. Raised by
	// collaborators (the evaluator) using this package's machinery.
	TypeError
)

func (k Kind) String() string {
	switch k {
	case OutOfMemory:
		return "out_of_memory_error"
	case NameError:
		return "name_error"
	case DomainError:
		return "domain_error"
	case TypeError:
		return "type_error"
	default:
		return "unknown_error"
	}
}

// Raised is the error type returned/recorded whenever the runtime
// raises one of the kinds above. It carries a stack trace captured at
// the raise site via github.com/pkg/errors, so a collaborator that
// formats the error for a user can recover it with errors.StackTrace
// for their own diagnostics.
type Raised struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Raised) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the captured stack-bearing cause to errors.As/Is and
// to github.com/pkg/errors' StackTracer inspection.
func (e *Raised) Unwrap() error {
	return e.cause
}

// New builds a Raised error of the given kind with a formatted
// message, capturing a stack trace at the call site.
func New(kind Kind, format string, args ...interface{}) *Raised {
	msg := fmt.Sprintf(format, args...)
	return &Raised{
		Kind:    kind,
		Message: msg,
		cause:   errors.WithStack(errors.New(msg)),
	}
}

// Is reports whether err is a Raised error of kind k, unwrapping as
// needed.
func Is(err error, k Kind) bool {
	var r *Raised
	if errors.As(err, &r) {
		return r.Kind == k
	}
	return false
}

// bailout is the panic payload used by Guard (below) to implement an
// early-exit idiom for deep recursive construction: a routine that
// discovers it cannot continue raises an error and panics with a
// *Raised wrapped in bailout; Guard recovers exactly that and turns it
// back into a normal error, letting any other panic escape unchanged.
type bailout struct {
	err *Raised
}

// Bail panics with err wrapped as a bailout. Only safe to call from
// within a function that is itself called (directly or transitively)
// from Guard; calling it outside a Guard propagates the panic to the
// caller like any other panic.
func Bail(err *Raised) {
	panic(bailout{err})
}

// Guard runs fn, recovering a Bail panic raised anywhere within it and
// returning it as a plain error. Any other panic is re-raised
// unchanged.
func Guard(fn func()) (err error) {
	defer func() {
		switch p := recover().(type) {
		case nil:
			// normal return
		case bailout:
			err = p.err
		default:
			panic(p)
		}
	}()
	fn()
	return nil
}
