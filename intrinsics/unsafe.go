package intrinsics

import (
	"github.com/artipop-edu/minigojvm/classloader"
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/interp"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func init() {
	register("sun/misc/Unsafe", "registerNatives", "()V", noop)
	register("sun/misc/Unsafe", "arrayBaseOffset", "(Ljava/lang/Class;)I", unsafeArrayBaseOffset)
	register("sun/misc/Unsafe", "arrayIndexScale", "(Ljava/lang/Class;)I", unsafeArrayIndexScale)
	register("sun/misc/Unsafe", "addressSize", "()I", unsafeAddressSize)
	register("sun/misc/Unsafe", "pageSize", "()I", unsafePageSize)
	register("sun/misc/Unsafe", "objectFieldOffset", "(Ljava/lang/reflect/Field;)J", unsafeObjectFieldOffset)
	register("sun/misc/Unsafe", "compareAndSwapObject", "(Ljava/lang/Object;JLjava/lang/Object;Ljava/lang/Object;)Z", unsafeCompareAndSwapObject)

	register("sun/misc/VM", "initialize", "()V", noop)

	register("sun/reflect/Reflection", "getCallerClass", "()Ljava/lang/Class;", reflectionGetCallerClass)
}

func unsafeArrayBaseOffset(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.IntValue(0), false, nil
}

func unsafeArrayIndexScale(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.IntValue(1), false, nil
}

func unsafeAddressSize(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.IntValue(4), false, nil
}

func unsafePageSize(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.IntValue(4096), false, nil
}

// unsafeObjectFieldOffset returns the Field argument's own "slot",
// the index classloader.FieldSlots assigned it during
// getDeclaredFields0 — spec §4.10's "returns the reflected field's
// slot as a Long".
func unsafeObjectFieldOffset(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	fieldObj := args[0].Obj()
	level := fieldObj.FindLevel("java/lang/reflect/Field")
	if level == nil {
		return jvmvalue.LongValue(-1), false, nil
	}
	slot, ok := level.Fields["slot"]
	if !ok {
		return jvmvalue.LongValue(-1), false, nil
	}
	return jvmvalue.LongValue(slot.Long()), false, nil
}

// unsafeCompareAndSwapObject looks the target field up by slot index
// against the receiver's class field table (classloader.FieldSlots),
// compares the current value against expected by reference identity
// (or both-null), and on a match installs update — spec §7's "CAS
// against a real field-slot table" supplemented feature.
func unsafeCompareAndSwapObject(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	obj, offset, expected, update := args[0], args[1].Long(), args[2], args[3]
	if obj.IsNullRef() {
		return jvmvalue.Value{}, false, interp.ThrowNamed(rt, "java/lang/NullPointerException", "")
	}
	target := obj.Obj().MostDerived()
	cls, ok := target.Class.(*classloader.Class)
	if !ok {
		return jvmvalue.BoolValue(false), false, nil
	}
	for _, slot := range classloader.FieldSlots(cls) {
		if int64(slot.Slot) != offset {
			continue
		}
		level := target.FindLevel(slot.ClassName)
		if level == nil {
			return jvmvalue.BoolValue(false), false, nil
		}
		current, ok := level.Fields[slot.Name]
		if !ok || !refEqual(current, expected) {
			return jvmvalue.BoolValue(false), false, nil
		}
		level.Fields[slot.Name] = update
		return jvmvalue.BoolValue(true), false, nil
	}
	return jvmvalue.BoolValue(false), false, nil
}

// refEqual compares two reference Values by identity, or as equal if
// both are null — the comparison compareAndSwapObject needs before
// deciding whether to install the swap.
func refEqual(a, b jvmvalue.Value) bool {
	if a.IsNullRef() && b.IsNullRef() {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case jvmvalue.KindObjectRef:
		return a.Obj() == b.Obj()
	case jvmvalue.KindArrayRef:
		return a.Arr() == b.Arr()
	default:
		return false
	}
}

func reflectionGetCallerClass(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	f := rt.CallerAt(0)
	if f == nil || f.Class == nil {
		return jvmvalue.Value{}, false, interp.ThrowNamed(rt, "java/lang/IllegalStateException", "")
	}
	obj, err := interp.ClassObjectFor(rt, f.Class.Name())
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	return jvmvalue.ObjectRefValue(obj), false, nil
}
