package intrinsics

import (
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/interp"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func init() {
	register("java/lang/Object", "registerNatives", "()V", noop)
	register("java/lang/Object", "hashCode", "()I", objectHashCode)
	register("java/lang/Object", "getClass", "()Ljava/lang/Class;", objectGetClass)
}

func objectHashCode(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.IntValue(identityHash(this)), false, nil
}

func objectGetClass(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	if this.IsNullRef() {
		return jvmvalue.Value{}, false, interp.ThrowNamed(rt, "java/lang/NullPointerException", "")
	}
	name := ""
	switch this.Kind {
	case jvmvalue.KindObjectRef:
		name = this.Obj().Class.Name()
	case jvmvalue.KindArrayRef:
		name = arrayDescriptor(this.Arr())
	}
	obj, err := interp.ClassObjectFor(rt, name)
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	return jvmvalue.ObjectRefValue(obj), false, nil
}

// arrayDescriptor reconstructs the "[..." descriptor an ArrayObject's
// getClass() reports, from whichever of ElemClass/ElemDesc it carries.
func arrayDescriptor(arr *jvmvalue.ArrayObject) string {
	if arr.ElemClass != nil {
		return "[L" + arr.ElemClass.Name() + ";"
	}
	return "[" + string(arr.ElemDesc)
}
