// Package intrinsics populates interp's (class, method, descriptor)
// intrinsic table (spec §4.10) with handlers for the native methods
// java/lang/Object, java/lang/Class, java/lang/System, and the rest of
// the bootstrap classpath need but whose real implementation either is
// native in the JDK itself or is otherwise unimplementable as bytecode
// this interpreter can run (console I/O, reflection, CAS).
//
// Grounded on the teacher's executeNativeMethod (pkg/vm/vm.go), which
// does the same job as one large inline switch keyed on
// "class.method:descriptor" — generalized here into one init() per
// handler, split across files by JDK class family the way the
// teacher's own pkg/native splits PrintStream/Integer/HashMap into
// separate files.
package intrinsics

import (
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/interp"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// noop satisfies a native method whose JDK semantics are pure
// bookkeeping (registerNatives) that this interpreter has nothing to
// register against.
func noop(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.Value{}, true, nil
}

// identityHash returns the stable identity code for an Object-ref or
// Array-ref Value, 0 for null — the receiver every hashCode/
// identityHashCode intrinsic ultimately reports.
func identityHash(v jvmvalue.Value) int32 {
	switch v.Kind {
	case jvmvalue.KindObjectRef:
		if v.IsNullRef() {
			return 0
		}
		return int32(v.Obj().ID)
	case jvmvalue.KindArrayRef:
		if v.IsNullRef() {
			return 0
		}
		return int32(v.Arr().ID)
	default:
		return 0
	}
}

func register(className, methodName, descriptor string, fn interp.IntrinsicFunc) {
	interp.RegisterIntrinsic(className, methodName, descriptor, fn)
}
