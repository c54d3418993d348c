package intrinsics

import (
	"strings"

	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/interp"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func init() {
	register("java/lang/Class", "registerNatives", "()V", noop)
	register("java/lang/Class", "isArray", "()Z", classIsArray)
	register("java/lang/Class", "isPrimitive", "()Z", classIsPrimitive)
	register("java/lang/Class", "getPrimitiveClass", "(Ljava/lang/String;)Ljava/lang/Class;", classGetPrimitiveClass)
	register("java/lang/Class", "isAssignableFrom", "(Ljava/lang/Class;)Z", classIsAssignableFrom)
	register("java/lang/Class", "getComponentType", "()Ljava/lang/Class;", classGetComponentType)
	register("java/lang/Class", "forName0", "(Ljava/lang/String;ZLjava/lang/ClassLoader;Ljava/lang/Class;)Ljava/lang/Class;", classForName0)
	register("java/lang/Class", "desiredAssertionStatus0", "(Ljava/lang/Class;)Z", classDesiredAssertionStatus0)
	register("java/lang/Class", "getDeclaredFields0", "(Z)[Ljava/lang/reflect/Field;", classGetDeclaredFields0)
	register("java/lang/Class", "getDeclaredMethods0", "(Z)[Ljava/lang/reflect/Method;", classGetDeclaredMethods0)
}

// classBoolField reads a hidden boolean bookkeeping field off a
// java/lang/Class instance (classObjectFor's __is_array/__is_primitive),
// defaulting to false when the field or level is absent.
func classBoolField(this jvmvalue.Value, name string) bool {
	if this.IsNullRef() || this.Kind != jvmvalue.KindObjectRef {
		return false
	}
	level := this.Obj().FindLevel("java/lang/Class")
	if level == nil {
		return false
	}
	v, ok := level.Fields[name]
	return ok && v.Bool()
}

func classIsArray(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.BoolValue(classBoolField(this, "__is_array")), false, nil
}

func classIsPrimitive(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.BoolValue(classBoolField(this, "__is_primitive")), false, nil
}

var primitiveKeywords = map[string]string{
	"byte": "B", "char": "C", "double": "D", "float": "F",
	"int": "I", "long": "J", "short": "S", "boolean": "Z", "void": "V",
}

func classGetPrimitiveClass(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	keyword := interp.GoString(args[0].Obj())
	desc, ok := primitiveKeywords[keyword]
	if !ok {
		return jvmvalue.Value{}, false, interp.ThrowNamed(rt, "java/lang/ClassNotFoundException", keyword)
	}
	obj, err := interp.ClassObjectFor(rt, desc)
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	return jvmvalue.ObjectRefValue(obj), false, nil
}

func classIsAssignableFrom(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	if args[0].IsNullRef() {
		return jvmvalue.Value{}, false, interp.ThrowNamed(rt, "java/lang/NullPointerException", "")
	}
	thisCls, thisOk := interp.ClassObjectClass(this.Obj())
	otherCls, otherOk := interp.ClassObjectClass(args[0].Obj())
	if thisOk && otherOk {
		return jvmvalue.BoolValue(thisCls.IsAssignableFrom(otherCls)), false, nil
	}
	// Arrays and primitives carry no single declaring Class; fall back
	// to identity, which is correct for "X.class.isAssignableFrom(X.class)".
	return jvmvalue.BoolValue(this.Obj() == args[0].Obj()), false, nil
}

func classGetComponentType(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	level := this.Obj().FindLevel("java/lang/Class")
	if level != nil {
		if v, ok := level.Fields["__componentType"]; ok {
			return v, false, nil
		}
	}
	classClass, err := rt.Loader.LoadClass("java/lang/Class")
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	return jvmvalue.ObjectRefValue(jvmvalue.NullObject(classClass)), false, nil
}

func classForName0(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	dotted := interp.GoString(args[0].Obj())
	internal := strings.ReplaceAll(dotted, ".", "/")
	if _, err := rt.Loader.LoadClass(internal); err != nil {
		return jvmvalue.Value{}, false, interp.ThrowNamed(rt, "java/lang/ClassNotFoundException", dotted)
	}
	obj, err := interp.ClassObjectFor(rt, internal)
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	return jvmvalue.ObjectRefValue(obj), false, nil
}

func classDesiredAssertionStatus0(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.BoolValue(false), false, nil
}
