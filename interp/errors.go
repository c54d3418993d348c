package interp

import (
	"fmt"

	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// RunnerErrorKind distinguishes internal interpreter invariant
// violations from in-band Java exceptions, matching spec §4.8's
// "Error" outcome versus "Exception(Value)".
type RunnerErrorKind int

const (
	ErrClassInvalid RunnerErrorKind = iota
	ErrInvalidPC
	ErrUnknownOpcode
	ErrClassNotLoaded
)

func (k RunnerErrorKind) String() string {
	switch k {
	case ErrClassInvalid:
		return "ClassInvalid"
	case ErrInvalidPC:
		return "InvalidPC"
	case ErrUnknownOpcode:
		return "UnknownOpcode"
	case ErrClassNotLoaded:
		return "ClassNotLoaded"
	default:
		return "Unknown"
	}
}

// RunnerError is returned for internal invariant violations — a
// malformed constant pool, an unknown opcode, a descriptor mismatch.
// Grounded on classfile.ReadError's Kind+Msg+Unwrap shape, generalized
// to the interpreter's own error taxonomy (spec §7).
type RunnerError struct {
	Kind RunnerErrorKind
	Msg  string
}

func (e *RunnerError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

func runnerErrorf(kind RunnerErrorKind, format string, args ...interface{}) *RunnerError {
	return &RunnerError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Thrown carries an in-band Java exception object through the Go call
// stack as an error, so that opcode handlers can "throw" with a plain
// return while the outer dispatch loop (not each handler) owns
// unwinding. Grounded on the teacher's *JavaException (pkg/vm/exception.go),
// widened from a bare JObject to the full jvmvalue.Value so arrays and
// primitives could in principle be thrown too (the JVM itself only
// ever throws object references, but nothing in this type constrains
// that).
type Thrown struct {
	Value jvmvalue.Value
}

func (e *Thrown) Error() string {
	if e.Value.IsNullRef() {
		return "NullPointerException"
	}
	return fmt.Sprintf("uncaught exception: %s", e.Value.Obj().Class.Name())
}

// throwNamed loads the given exception class and builds a Thrown
// wrapping a minimal one-level object of it, with detailMessage set
// when message is non-empty — used by opcode handlers (array bounds,
// null dereference, arithmetic) that need to signal a standard JVM
// exception. If the exception class cannot be loaded it returns a
// ClassNotLoaded RunnerError instead of a Thrown. Exception-table
// matching against CatchType happens in unwind (dispatch.go).
// ThrowNamed is the exported form of throwNamed, for intrinsics that
// need to signal a standard JVM exception (NullPointerException,
// ClassNotFoundException, ...) the same way opcode handlers do.
func ThrowNamed(rt *frame.Runtime, className, message string) error {
	return throwNamed(rt, className, message)
}

func throwNamed(rt *frame.Runtime, className, message string) error {
	cls, err := rt.Loader.LoadClass(className)
	if err != nil {
		// The exception class itself failed to load — this is a host
		// configuration problem, not a guest-visible exception.
		return runnerErrorf(ErrClassNotLoaded, "loading exception class %s: %v", className, err)
	}
	obj := jvmvalue.NewObject(cls, rt.NextIdentity())
	if message != "" {
		msgObj := internString(rt, message)
		obj.Fields["detailMessage"] = jvmvalue.ObjectRefValue(msgObj)
	}
	return &Thrown{Value: jvmvalue.ObjectRefValue(obj)}
}
