package interp

import (
	"github.com/artipop-edu/minigojvm/classfile"
	"github.com/artipop-edu/minigojvm/classloader"
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func resolveClassAt(rt *frame.Runtime, pool []classfile.CPEntry, classIndex uint16) (*classloader.Class, error) {
	name, err := classfile.GetClassName(pool, classIndex)
	if err != nil {
		return nil, runnerErrorf(ErrClassInvalid, "%v", err)
	}
	cls, err := rt.Loader.LoadClass(name)
	if err != nil {
		return nil, runnerErrorf(ErrClassNotLoaded, "%v", err)
	}
	return cls, nil
}

// classObjectFor returns the memoized java/lang/Class instance for a
// descriptor or internal class name, implementing spec §4.10's
// get_class_object_from_descriptor — one object per distinct name,
// reused across ldc <class>, getClass(), and Class.forName.
// ClassObjectFor is the exported form of classObjectFor, used by
// reflection intrinsics (getClass, forName0, getComponentType) that
// need the same memoized java/lang/Class instance ldc_<class> builds.
func ClassObjectFor(rt *frame.Runtime, name string) (*jvmvalue.Object, error) {
	return classObjectFor(rt, name)
}

// ClassObjectClass is the exported form of classObjectClass.
func ClassObjectClass(classObj *jvmvalue.Object) (*classloader.Class, bool) {
	return classObjectClass(classObj)
}

// classObjectFor materializes the hidden bookkeeping fields spec §4.10
// describes: __is_primitive, __is_array, and, for a plain reference
// descriptor, __class (a null Object-ref typed to the loaded
// classloader.Class, letting reflection intrinsics recover the live
// Class record by type-asserting the field back out rather than
// re-parsing the display name); array descriptors get __componentType
// instead, built recursively.
func classObjectFor(rt *frame.Runtime, name string) (*jvmvalue.Object, error) {
	if obj, ok := rt.ClassObjects[name]; ok {
		return obj, nil
	}
	classClass, err := rt.Loader.LoadClass("java/lang/Class")
	if err != nil {
		return nil, runnerErrorf(ErrClassNotLoaded, "%v", err)
	}
	obj, err := rt.Loader.ConstructObject(classClass, rt.NextIdentity)
	if err != nil {
		return nil, runnerErrorf(ErrClassInvalid, "%v", err)
	}
	// Registered before recursing into the component type or loading
	// the underlying class so a cyclic or repeated descriptor (e.g.
	// "[[I"'s own element "[I", or a self-referential static field)
	// reuses the same memoized instance rather than looping.
	rt.ClassObjects[name] = obj

	level := obj.FindLevel("java/lang/Class")
	if level == nil {
		return obj, nil
	}
	isArray := len(name) > 0 && name[0] == '['
	isPrimitive := isPrimitiveDescriptor(name)
	level.Fields["name"] = jvmvalue.ObjectRefValue(internString(rt, jvmvalue.DisplayName(asReferenceDescriptor(name))))
	level.Fields["__is_primitive"] = jvmvalue.BoolValue(isPrimitive)
	level.Fields["__is_array"] = jvmvalue.BoolValue(isArray)
	switch {
	case isArray:
		elem, _, err := jvmvalue.ParseField(name[1:])
		if err == nil {
			// classObjectFor's key space is internal names
			// ("java/lang/String"), primitive chars, and array
			// descriptors — strip a reference element's "L...;"
			// wrapper back to its internal name to match.
			if len(elem) >= 2 && elem[0] == 'L' {
				elem = elem[1 : len(elem)-1]
			}
			compObj, err := classObjectFor(rt, elem)
			if err == nil {
				level.Fields["__componentType"] = jvmvalue.ObjectRefValue(compObj)
			}
		}
	case !isPrimitive:
		cls, err := rt.Loader.LoadClass(name)
		if err == nil {
			level.Fields["__class"] = jvmvalue.ObjectRefValue(jvmvalue.NullObject(cls))
		}
	}
	return obj, nil
}

// classObjectClass recovers the classloader.Class a Class object
// names, via the __class hidden field classObjectFor sets for plain
// reference descriptors. Returns nil, false for array/primitive Class
// objects (they carry no single declaring Class).
func classObjectClass(classObj *jvmvalue.Object) (*classloader.Class, bool) {
	level := classObj.FindLevel("java/lang/Class")
	if level == nil {
		return nil, false
	}
	v, ok := level.Fields["__class"]
	if !ok || v.Kind != jvmvalue.KindObjectRef || v.Obj() == nil {
		return nil, false
	}
	cls, ok := v.Obj().Class.(*classloader.Class)
	return cls, ok
}

// asReferenceDescriptor turns an internal class name ("java/lang/Object")
// into its field-descriptor form ("Ljava/lang/Object;") so DisplayName
// can render it the way Class.getName() does; array/primitive
// descriptors are already in that form and pass through unchanged.
func asReferenceDescriptor(name string) string {
	if len(name) > 0 && (name[0] == '[' || isPrimitiveDescriptor(name)) {
		return name
	}
	return "L" + name + ";"
}

func isPrimitiveDescriptor(s string) bool {
	return len(s) == 1 && (s == "B" || s == "C" || s == "D" || s == "F" || s == "I" || s == "J" || s == "S" || s == "Z" || s == "V")
}

func getstatic(rt *frame.Runtime, f *frame.Frame) error {
	ref, err := classfile.GetField(f.ConstantPool, f.ReadU16())
	if err != nil {
		return runnerErrorf(ErrClassInvalid, "%v", err)
	}
	cls, err := rt.Loader.LoadClass(ref.ClassName)
	if err != nil {
		return runnerErrorf(ErrClassNotLoaded, "%v", err)
	}
	v, ok := cls.GetStatic(ref.MemberName)
	if !ok {
		return runnerErrorf(ErrClassInvalid, "no static field %s on %s", ref.MemberName, ref.ClassName)
	}
	f.Push(v)
	return nil
}

func putstatic(rt *frame.Runtime, f *frame.Frame) error {
	ref, err := classfile.GetField(f.ConstantPool, f.ReadU16())
	if err != nil {
		return runnerErrorf(ErrClassInvalid, "%v", err)
	}
	cls, err := rt.Loader.LoadClass(ref.ClassName)
	if err != nil {
		return runnerErrorf(ErrClassNotLoaded, "%v", err)
	}
	v := f.Pop()
	if !cls.PutStatic(ref.MemberName, v) {
		return runnerErrorf(ErrClassInvalid, "no static field %s on %s", ref.MemberName, ref.ClassName)
	}
	return nil
}

func getfield(rt *frame.Runtime, f *frame.Frame) error {
	ref, err := classfile.GetField(f.ConstantPool, f.ReadU16())
	if err != nil {
		return runnerErrorf(ErrClassInvalid, "%v", err)
	}
	objVal := f.Pop()
	if objVal.IsNullRef() {
		return throwNamed(rt, "java/lang/NullPointerException", "")
	}
	v, err := classloader.GetField(objVal.Obj(), ref.ClassName, ref.MemberName)
	if err != nil {
		return runnerErrorf(ErrClassInvalid, "%v", err)
	}
	f.Push(v)
	return nil
}

func putfield(rt *frame.Runtime, f *frame.Frame) error {
	ref, err := classfile.GetField(f.ConstantPool, f.ReadU16())
	if err != nil {
		return runnerErrorf(ErrClassInvalid, "%v", err)
	}
	v := f.Pop()
	objVal := f.Pop()
	if objVal.IsNullRef() {
		return throwNamed(rt, "java/lang/NullPointerException", "")
	}
	if err := classloader.PutField(objVal.Obj(), ref.ClassName, ref.MemberName, v); err != nil {
		return runnerErrorf(ErrClassInvalid, "%v", err)
	}
	return nil
}

// popCallArgs pops the argument values for a call to descriptor off f,
// in declared order, plus the receiver when hasThis is set — matching
// spec §4.9's invocation-argument layout.
func popCallArgs(f *frame.Frame, descriptor string, hasThis bool) (jvmvalue.Value, []jvmvalue.Value, error) {
	desc, err := jvmvalue.ParseMethod(descriptor)
	if err != nil {
		return jvmvalue.Value{}, nil, runnerErrorf(ErrClassInvalid, "%v", err)
	}
	args := make([]jvmvalue.Value, len(desc.Params))
	for i := len(desc.Params) - 1; i >= 0; i-- {
		args[i] = f.Pop()
	}
	var this jvmvalue.Value
	if hasThis {
		this = f.Pop()
	}
	return this, args, nil
}

func pushInvokeResult(f *frame.Frame, v jvmvalue.Value, void bool) {
	if !void {
		f.Push(v)
	}
}

func invokeVirtual(rt *frame.Runtime, f *frame.Frame) (outcome, error) {
	ref, err := classfile.GetMethod(f.ConstantPool, f.ReadU16())
	if err != nil {
		return outcome{}, runnerErrorf(ErrClassInvalid, "%v", err)
	}
	this, args, err := popCallArgs(f, ref.Descriptor, true)
	if err != nil {
		return outcome{}, err
	}
	if v, void, handled, err := tryIntrinsic(rt, ref.ClassName, ref.MemberName, ref.Descriptor, this, true, args); handled {
		if err != nil {
			return outcome{}, err
		}
		pushInvokeResult(f, v, void)
		return contOutcome, nil
	}
	if this.IsNullRef() {
		return outcome{}, throwNamed(rt, "java/lang/NullPointerException", "")
	}
	// Virtual dispatch resolves against the receiver's actual (most
	// derived) runtime class, not the static reference in the constant
	// pool — spec §4.9.
	receiverClass, ok := this.Obj().Class.(*classloader.Class)
	if !ok {
		return outcome{}, runnerErrorf(ErrClassInvalid, "receiver has no live class record")
	}
	declClass, method := receiverClass.ResolveMethod(ref.MemberName, ref.Descriptor)
	if method == nil {
		return outcome{}, runnerErrorf(ErrClassInvalid, "no method %s%s on %s", ref.MemberName, ref.Descriptor, receiverClass.Name())
	}
	return invokeResolved(rt, f, declClass, method, this, true, args)
}

func invokeSpecial(rt *frame.Runtime, f *frame.Frame) (outcome, error) {
	ref, err := classfile.GetMethod(f.ConstantPool, f.ReadU16())
	if err != nil {
		return outcome{}, runnerErrorf(ErrClassInvalid, "%v", err)
	}
	this, args, err := popCallArgs(f, ref.Descriptor, true)
	if err != nil {
		return outcome{}, err
	}
	if v, void, handled, err := tryIntrinsic(rt, ref.ClassName, ref.MemberName, ref.Descriptor, this, true, args); handled {
		if err != nil {
			return outcome{}, err
		}
		pushInvokeResult(f, v, void)
		return contOutcome, nil
	}
	if this.IsNullRef() {
		return outcome{}, throwNamed(rt, "java/lang/NullPointerException", "")
	}
	// invokespecial always resolves statically against the symbolic
	// reference's own class (constructors, private methods, and
	// super.foo() calls all bypass virtual dispatch) — spec §4.9.
	staticClass, err := rt.Loader.LoadClass(ref.ClassName)
	if err != nil {
		return outcome{}, runnerErrorf(ErrClassNotLoaded, "%v", err)
	}
	declClass, method := staticClass.ResolveMethod(ref.MemberName, ref.Descriptor)
	if method == nil {
		return outcome{}, runnerErrorf(ErrClassInvalid, "no method %s%s on %s", ref.MemberName, ref.Descriptor, ref.ClassName)
	}
	return invokeResolved(rt, f, declClass, method, this, true, args)
}

func invokeStatic(rt *frame.Runtime, f *frame.Frame) (outcome, error) {
	ref, err := classfile.GetMethod(f.ConstantPool, f.ReadU16())
	if err != nil {
		return outcome{}, runnerErrorf(ErrClassInvalid, "%v", err)
	}
	_, args, err := popCallArgs(f, ref.Descriptor, false)
	if err != nil {
		return outcome{}, err
	}
	if v, void, handled, err := tryIntrinsic(rt, ref.ClassName, ref.MemberName, ref.Descriptor, jvmvalue.Value{}, false, args); handled {
		if err != nil {
			return outcome{}, err
		}
		pushInvokeResult(f, v, void)
		return contOutcome, nil
	}
	cls, err := rt.Loader.LoadClass(ref.ClassName)
	if err != nil {
		return outcome{}, runnerErrorf(ErrClassNotLoaded, "%v", err)
	}
	declClass, method := cls.ResolveMethod(ref.MemberName, ref.Descriptor)
	if method == nil {
		return outcome{}, runnerErrorf(ErrClassInvalid, "no method %s%s on %s", ref.MemberName, ref.Descriptor, ref.ClassName)
	}
	return invokeResolved(rt, f, declClass, method, jvmvalue.Value{}, false, args)
}

func invokeInterface(rt *frame.Runtime, f *frame.Frame) (outcome, error) {
	ref, err := classfile.GetMethod(f.ConstantPool, f.ReadU16())
	if err != nil {
		return outcome{}, runnerErrorf(ErrClassInvalid, "%v", err)
	}
	f.ReadU8() // count, historical
	f.ReadU8() // 0, historical
	this, args, err := popCallArgs(f, ref.Descriptor, true)
	if err != nil {
		return outcome{}, err
	}
	if v, void, handled, err := tryIntrinsic(rt, ref.ClassName, ref.MemberName, ref.Descriptor, this, true, args); handled {
		if err != nil {
			return outcome{}, err
		}
		pushInvokeResult(f, v, void)
		return contOutcome, nil
	}
	if this.IsNullRef() {
		return outcome{}, throwNamed(rt, "java/lang/NullPointerException", "")
	}
	receiverClass, ok := this.Obj().Class.(*classloader.Class)
	if !ok {
		return outcome{}, runnerErrorf(ErrClassInvalid, "receiver has no live class record")
	}
	declClass, method := receiverClass.ResolveMethod(ref.MemberName, ref.Descriptor)
	if method == nil {
		return outcome{}, runnerErrorf(ErrClassInvalid, "no method %s%s on %s", ref.MemberName, ref.Descriptor, receiverClass.Name())
	}
	return invokeResolved(rt, f, declClass, method, this, true, args)
}

// invokeResolved either runs a native method to completion inline
// (pushing its result straight onto the caller's operand stack, since
// an intrinsic has no bytecode frame of its own to dispatch) or pushes
// a new bytecode Frame and reports outInvoke so Execute's own loop
// picks it up next — never recursing back into Execute itself.
func invokeResolved(rt *frame.Runtime, f *frame.Frame, declClass *classloader.Class, method *classfile.MethodInfo, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (outcome, error) {
	if method.AccessFlags&classfile.AccNative != 0 {
		v, void, err := invokeNative(rt, declClass, method, this, hasThis, args)
		if err != nil {
			return outcome{}, err
		}
		pushInvokeResult(f, v, void)
		return contOutcome, nil
	}
	if method.AccessFlags&classfile.AccAbstract != 0 {
		return outcome{}, runnerErrorf(ErrClassInvalid, "cannot invoke abstract method %s.%s", declClass.Name(), method.Name)
	}
	if err := pushMethodFrame(rt, declClass, method, this, hasThis, args); err != nil {
		return outcome{}, err
	}
	return invokeOutcome, nil
}

func newObject(rt *frame.Runtime, f *frame.Frame) error {
	cls, err := resolveClassAt(rt, f.ConstantPool, f.ReadU16())
	if err != nil {
		return err
	}
	obj, err := rt.Loader.ConstructObject(cls, rt.NextIdentity)
	if err != nil {
		return runnerErrorf(ErrClassInvalid, "%v", err)
	}
	f.Push(jvmvalue.ObjectRefValue(obj))
	return nil
}

func newarray(rt *frame.Runtime, f *frame.Frame) error {
	atype := f.ReadU8()
	length := f.Pop().Int()
	if length < 0 {
		return throwNamed(rt, "java/lang/NegativeArraySizeException", "")
	}
	desc, ok := atypeDescriptor(atype)
	if !ok {
		return runnerErrorf(ErrClassInvalid, "newarray: unknown atype %d", atype)
	}
	arr := classloader.ConstructPrimitiveArray(desc, int(length), rt.NextIdentity)
	f.Push(jvmvalue.ArrayRefValue(arr))
	return nil
}

func atypeDescriptor(atype uint8) (byte, bool) {
	switch atype {
	case AtypeBoolean:
		return 'Z', true
	case AtypeChar:
		return 'C', true
	case AtypeFloat:
		return 'F', true
	case AtypeDouble:
		return 'D', true
	case AtypeByte:
		return 'B', true
	case AtypeShort:
		return 'S', true
	case AtypeInt:
		return 'I', true
	case AtypeLong:
		return 'J', true
	default:
		return 0, false
	}
}

func anewarray(rt *frame.Runtime, f *frame.Frame) error {
	cls, err := resolveClassAt(rt, f.ConstantPool, f.ReadU16())
	if err != nil {
		return err
	}
	length := f.Pop().Int()
	if length < 0 {
		return throwNamed(rt, "java/lang/NegativeArraySizeException", "")
	}
	arr := classloader.ConstructArray(cls, int(length), nil, rt.NextIdentity)
	f.Push(jvmvalue.ArrayRefValue(arr))
	return nil
}

// multianewarray supports only the common two-dimension case the test
// programs this interpreter targets use; deeper nesting degrades to an
// array of null sub-arrays of the requested outer length, left for a
// caller to populate.
func multianewarray(rt *frame.Runtime, f *frame.Frame) error {
	cls, err := resolveClassAt(rt, f.ConstantPool, f.ReadU16())
	if err != nil {
		return err
	}
	dims := int(f.ReadU8())
	lengths := make([]int32, dims)
	for i := dims - 1; i >= 0; i-- {
		lengths[i] = f.Pop().Int()
	}
	if lengths[0] < 0 {
		return throwNamed(rt, "java/lang/NegativeArraySizeException", "")
	}
	outer := classloader.ConstructArray(cls, int(lengths[0]), nil, rt.NextIdentity)
	if dims > 1 && lengths[1] >= 0 {
		for i := range outer.Values {
			inner := classloader.ConstructArray(cls, int(lengths[1]), nil, rt.NextIdentity)
			outer.Values[i] = jvmvalue.ArrayRefValue(inner)
		}
	}
	f.Push(jvmvalue.ArrayRefValue(outer))
	return nil
}

func arraylength(rt *frame.Runtime, f *frame.Frame) error {
	v := f.Pop()
	if v.IsNullRef() {
		return throwNamed(rt, "java/lang/NullPointerException", "")
	}
	f.Push(jvmvalue.IntValue(int32(len(v.Arr().Values))))
	return nil
}

func athrow(rt *frame.Runtime, f *frame.Frame) error {
	v := f.Pop()
	if v.IsNullRef() {
		return throwNamed(rt, "java/lang/NullPointerException", "")
	}
	return &Thrown{Value: v}
}

func checkcast(rt *frame.Runtime, f *frame.Frame) error {
	cls, err := resolveClassAt(rt, f.ConstantPool, f.ReadU16())
	if err != nil {
		return err
	}
	v := f.Peek()
	if v.IsNullRef() {
		return nil
	}
	if v.Kind != jvmvalue.KindObjectRef {
		return nil // arrays: instanceof-on-arrays is out of scope beyond the identity case
	}
	actual, ok := v.Obj().Class.(*classloader.Class)
	if !ok || !cls.IsAssignableFrom(actual) {
		return throwNamed(rt, "java/lang/ClassCastException", "")
	}
	return nil
}

// arrayLoad implements the {i,l,f,d,a,b,c,s}aload family: pop index
// then arrayref, null/bounds-check, push the element (narrow types are
// still carried as their own Value kind; the bytecode verifier is
// responsible for matching descriptor width to opcode in a real JVM,
// so no further truncation happens here beyond what the array already
// stores).
func arrayLoad(rt *frame.Runtime, f *frame.Frame, op uint8) error {
	index := f.Pop().Int()
	arrVal := f.Pop()
	if arrVal.IsNullRef() {
		return throwNamed(rt, "java/lang/NullPointerException", "")
	}
	arr := arrVal.Arr()
	if index < 0 || int(index) >= len(arr.Values) {
		return throwNamed(rt, "java/lang/ArrayIndexOutOfBoundsException", "")
	}
	v := arr.Values[index]
	if op == OpCaload {
		// caload zero-extends the char to an Int, per spec §4.8.
		v = jvmvalue.IntValue(int32(v.Char()))
	}
	f.Push(v)
	return nil
}

// arrayStore implements the {i,l,f,d,a,b,c,s}astore family.
func arrayStore(rt *frame.Runtime, f *frame.Frame, op uint8) error {
	v := f.Pop()
	index := f.Pop().Int()
	arrVal := f.Pop()
	if arrVal.IsNullRef() {
		return throwNamed(rt, "java/lang/NullPointerException", "")
	}
	arr := arrVal.Arr()
	if index < 0 || int(index) >= len(arr.Values) {
		return throwNamed(rt, "java/lang/ArrayIndexOutOfBoundsException", "")
	}
	if op == OpAastore && !v.IsNullRef() && v.Kind == jvmvalue.KindObjectRef {
		stored, ok := v.Obj().Class.(*classloader.Class)
		if ok && arr.ElemClass != nil {
			if elemCls, ok2 := arr.ElemClass.(*classloader.Class); ok2 && !elemCls.IsAssignableFrom(stored) {
				return throwNamed(rt, "java/lang/ArrayStoreException", "")
			}
		}
	}
	// bastore/castore/sastore truncate the Int operand before storage,
	// per spec §4.8.
	switch op {
	case OpBastore:
		v = jvmvalue.ByteValue(int8(v.Int()))
	case OpCastore:
		v = jvmvalue.CharValue(uint16(v.Int()))
	case OpSastore:
		v = jvmvalue.ShortValue(int16(v.Int()))
	}
	arr.Values[index] = v
	return nil
}

func instanceof(rt *frame.Runtime, f *frame.Frame) error {
	cls, err := resolveClassAt(rt, f.ConstantPool, f.ReadU16())
	if err != nil {
		return err
	}
	v := f.Pop()
	if v.IsNullRef() || v.Kind != jvmvalue.KindObjectRef {
		f.Push(jvmvalue.BoolValue(false))
		return nil
	}
	actual, ok := v.Obj().Class.(*classloader.Class)
	f.Push(jvmvalue.BoolValue(ok && cls.IsAssignableFrom(actual)))
	return nil
}
