package frame

import (
	"bytes"
	"fmt"
	"io"

	"github.com/artipop-edu/minigojvm/classloader"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// maxFrameDepth bounds nested method calls (and their natural Go
// recursion inside the interpreter's invoke_nested helper), matching
// the teacher's maxFrameDepth guard in pkg/vm/vm.go.
const maxFrameDepth = 1024

// Runtime is the process-wide state spec §3 groups under "Runtime":
// the class registry/loader, the frame stack, the interned-string
// pool, the class-object pool, a thread placeholder, and the
// monotonic identity/instruction counters.
type Runtime struct {
	Loader *classloader.Loader

	frames []*Frame

	// Interned maps a string's contents to the canonical Object
	// backing java/lang/String.intern() and string-literal ldc.
	Interned map[string]*jvmvalue.Object

	// ClassObjects memoizes get_class_object_from_descriptor (spec
	// §4.10) so repeated getClass()/Class.forName calls for the same
	// descriptor return the identical object.
	ClassObjects map[string]*jvmvalue.Object

	// Thread is the lazily-created java/lang/Thread placeholder
	// returned by Thread.currentThread (spec §4.10, §5).
	Thread *jvmvalue.Object

	identityCounter int64
	instructionCount int64

	Stdout io.Writer
	Stderr io.Writer

	// TraceWriter, when non-nil, receives one line per dispatched
	// opcode from the interpreter's outer loop — nil-able, defaulting
	// to io.Discard, in the same spirit as the teacher's Stdout
	// io.Writer field on VM (pkg/vm/vm.go) but for diagnostic opcode
	// tracing rather than guest program output.
	TraceWriter io.Writer
}

// NewRuntime wires a Loader into a fresh Runtime with Stdout/Stderr
// defaulting to in-memory buffers, matching the teacher's VM.Stdout
// io.Writer field (pkg/vm/vm.go) generalized to capture stderr too
// since intrinsics need to model System.err independently. TraceWriter
// defaults to io.Discard; set it directly to enable opcode tracing.
func NewRuntime(loader *classloader.Loader) *Runtime {
	return &Runtime{
		Loader:       loader,
		Interned:     make(map[string]*jvmvalue.Object),
		ClassObjects: make(map[string]*jvmvalue.Object),
		Stdout:       &bytes.Buffer{},
		Stderr:       &bytes.Buffer{},
		TraceWriter:  io.Discard,
	}
}

// NextIdentity returns the next value of the monotonic identity
// counter — the value installed as an Object/ArrayObject's ID and
// returned by System.identityHashCode.
func (rt *Runtime) NextIdentity() int64 {
	rt.identityCounter++
	return rt.identityCounter
}

// InstructionCount returns the number of opcodes dispatched so far,
// for diagnostics only.
func (rt *Runtime) InstructionCount() int64 { return rt.instructionCount }

// CountInstruction increments the diagnostic instruction counter; the
// interpreter's dispatch loop calls this once per opcode.
func (rt *Runtime) CountInstruction() { rt.instructionCount++ }

// PushFrame installs f as the new current frame.
func (rt *Runtime) PushFrame(f *Frame) error {
	if len(rt.frames) >= maxFrameDepth {
		return fmt.Errorf("stack overflow: exceeded max frame depth %d", maxFrameDepth)
	}
	rt.frames = append(rt.frames, f)
	return nil
}

// PopFrame removes and returns the current frame.
func (rt *Runtime) PopFrame() *Frame {
	n := len(rt.frames)
	if n == 0 {
		return nil
	}
	f := rt.frames[n-1]
	rt.frames = rt.frames[:n-1]
	return f
}

// Current returns the topmost frame, or nil if the frame stack is empty.
func (rt *Runtime) Current() *Frame {
	if len(rt.frames) == 0 {
		return nil
	}
	return rt.frames[len(rt.frames)-1]
}

// Depth reports the number of live frames.
func (rt *Runtime) Depth() int { return len(rt.frames) }

// CallerAt returns the frame at depth levels below the current one (0
// is current, 1 is its caller, ...), or nil if out of range — used by
// sun/reflect/Reflection.getCallerClass.
func (rt *Runtime) CallerAt(depth int) *Frame {
	i := len(rt.frames) - 1 - depth
	if i < 0 || i >= len(rt.frames) {
		return nil
	}
	return rt.frames[i]
}

// StdoutString returns everything written to Stdout so far, when
// Stdout is the default in-memory buffer (callers supplying their own
// io.Writer should read it directly instead).
func (rt *Runtime) StdoutString() string {
	if b, ok := rt.Stdout.(*bytes.Buffer); ok {
		return b.String()
	}
	return ""
}

// StderrString mirrors StdoutString for Stderr.
func (rt *Runtime) StderrString() string {
	if b, ok := rt.Stderr.(*bytes.Buffer); ok {
		return b.String()
	}
	return ""
}
