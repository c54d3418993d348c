package interp

import (
	"github.com/artipop-edu/minigojvm/classfile"
	"github.com/artipop-edu/minigojvm/classloader"
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// IntrinsicFunc implements one native method. this/hasThis supply the
// receiver, args the declared parameters (unpadded). The returned bool
// is true for a void method; its value is then ignored.
type IntrinsicFunc func(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error)

// intrinsicRegistry maps "class.method:descriptor" to its handler —
// the exact key format the teacher's executeNativeMethod builds
// (pkg/vm/vm.go) to look up a native method, generalized here from an
// inline switch into an open registry so the intrinsics package can
// populate it without interp importing intrinsics back (interp is the
// lower layer; intrinsics calls RegisterIntrinsic from its own init).
var intrinsicRegistry = make(map[string]IntrinsicFunc)

// RegisterIntrinsic installs fn as the handler for class.method with
// the given descriptor. Intended to be called from intrinsics
// package-level init() functions, one per native method.
func RegisterIntrinsic(className, methodName, descriptor string, fn IntrinsicFunc) {
	intrinsicRegistry[className+"."+methodName+":"+descriptor] = fn
}

func invokeNative(rt *frame.Runtime, class *classloader.Class, method *classfile.MethodInfo, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	key := class.Name() + "." + method.Name + ":" + method.Descriptor
	fn, ok := intrinsicRegistry[key]
	if !ok {
		return jvmvalue.Value{}, true, runnerErrorf(ErrClassInvalid, "no intrinsic registered for native method %s", key)
	}
	return fn(rt, this, hasThis, args)
}

// tryIntrinsic implements spec §4.9's shared invocation setup: the
// intrinsic table is offered the call keyed by the Methodref's OWN
// (class_name, method_name, descriptor) — the statically resolved
// symbolic reference, before the target class is even loaded or
// virtual dispatch runs. This lets intrinsics claim calls the real
// JDK implements with real (non-native) bytecode this interpreter
// doesn't ship a standard library deep enough to run (console I/O
// below java/io/PrintStream, for instance) — see spec §4.10's "or
// otherwise unimplementable in bytecode" clause.
func tryIntrinsic(rt *frame.Runtime, className, methodName, descriptor string, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, bool, error) {
	fn, ok := intrinsicRegistry[className+"."+methodName+":"+descriptor]
	if !ok {
		return jvmvalue.Value{}, false, false, nil
	}
	v, void, err := fn(rt, this, hasThis, args)
	return v, void, true, err
}
