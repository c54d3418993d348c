package intrinsics

import (
	"github.com/artipop-edu/minigojvm/classfile"
	"github.com/artipop-edu/minigojvm/classloader"
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/interp"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// descriptorClassName turns a field/return descriptor into the name
// classObjectFor expects: the bare internal name for a reference
// descriptor, unchanged for primitives and arrays.
func descriptorClassName(desc string) string {
	if len(desc) >= 2 && desc[0] == 'L' && desc[len(desc)-1] == ';' {
		return desc[1 : len(desc)-1]
	}
	return desc
}

func classGetDeclaredFields0(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	cls, ok := interp.ClassObjectClass(this.Obj())
	if !ok {
		arr := classloader.ConstructArray(nil, 0, nil, rt.NextIdentity)
		return jvmvalue.ArrayRefValue(arr), false, nil
	}
	publicOnly := len(args) > 0 && args[0].Bool()
	fieldClass, err := rt.Loader.LoadClass("java/lang/reflect/Field")
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	slots := classloader.FieldSlots(cls)
	slotFor := func(name string) int {
		for _, s := range slots {
			if s.ClassName == cls.Name() && s.Name == name {
				return s.Slot
			}
		}
		return -1
	}

	var out []jvmvalue.Value
	for i := range cls.File.Fields {
		f := &cls.File.Fields[i]
		if f.AccessFlags&classfile.AccStatic != 0 {
			continue
		}
		if publicOnly && f.AccessFlags&classfile.AccPublic == 0 {
			continue
		}
		typeObj, err := interp.ClassObjectFor(rt, descriptorClassName(f.Descriptor))
		if err != nil {
			return jvmvalue.Value{}, false, err
		}
		fieldObj, err := rt.Loader.ConstructObject(fieldClass, rt.NextIdentity)
		if err != nil {
			return jvmvalue.Value{}, false, err
		}
		fieldObj.Fields["name"] = jvmvalue.ObjectRefValue(interp.InternString(rt, f.Name))
		fieldObj.Fields["clazz"] = this
		fieldObj.Fields["modifiers"] = jvmvalue.IntValue(int32(f.AccessFlags))
		fieldObj.Fields["type"] = jvmvalue.ObjectRefValue(typeObj)
		fieldObj.Fields["slot"] = jvmvalue.LongValue(int64(slotFor(f.Name)))
		out = append(out, jvmvalue.ObjectRefValue(fieldObj))
	}
	arr := classloader.ConstructArray(fieldClass, len(out), out, rt.NextIdentity)
	return jvmvalue.ArrayRefValue(arr), false, nil
}

func classGetDeclaredMethods0(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	cls, ok := interp.ClassObjectClass(this.Obj())
	if !ok {
		arr := classloader.ConstructArray(nil, 0, nil, rt.NextIdentity)
		return jvmvalue.ArrayRefValue(arr), false, nil
	}
	publicOnly := len(args) > 0 && args[0].Bool()
	methodClass, err := rt.Loader.LoadClass("java/lang/reflect/Method")
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	classClass, err := rt.Loader.LoadClass("java/lang/Class")
	if err != nil {
		return jvmvalue.Value{}, false, err
	}

	var out []jvmvalue.Value
	for i := range cls.File.Methods {
		m := &cls.File.Methods[i]
		if m.Name == "<init>" || m.Name == "<clinit>" {
			continue
		}
		if publicOnly && m.AccessFlags&classfile.AccPublic == 0 {
			continue
		}
		desc, err := jvmvalue.ParseMethod(m.Descriptor)
		if err != nil {
			return jvmvalue.Value{}, false, err
		}
		paramTypes := make([]jvmvalue.Value, len(desc.Params))
		for i, p := range desc.Params {
			pObj, err := interp.ClassObjectFor(rt, descriptorClassName(p))
			if err != nil {
				return jvmvalue.Value{}, false, err
			}
			paramTypes[i] = jvmvalue.ObjectRefValue(pObj)
		}
		paramArr := classloader.ConstructArray(classClass, len(paramTypes), paramTypes, rt.NextIdentity)

		var returnType jvmvalue.Value
		if desc.IsVoid() {
			voidObj, err := interp.ClassObjectFor(rt, "V")
			if err != nil {
				return jvmvalue.Value{}, false, err
			}
			returnType = jvmvalue.ObjectRefValue(voidObj)
		} else {
			retObj, err := interp.ClassObjectFor(rt, descriptorClassName(desc.Return))
			if err != nil {
				return jvmvalue.Value{}, false, err
			}
			returnType = jvmvalue.ObjectRefValue(retObj)
		}

		methodObj, err := rt.Loader.ConstructObject(methodClass, rt.NextIdentity)
		if err != nil {
			return jvmvalue.Value{}, false, err
		}
		methodObj.Fields["name"] = jvmvalue.ObjectRefValue(interp.InternString(rt, m.Name))
		methodObj.Fields["clazz"] = this
		methodObj.Fields["modifiers"] = jvmvalue.IntValue(int32(m.AccessFlags))
		methodObj.Fields["returnType"] = returnType
		methodObj.Fields["parameterTypes"] = jvmvalue.ArrayRefValue(paramArr)
		out = append(out, jvmvalue.ObjectRefValue(methodObj))
	}
	arr := classloader.ConstructArray(methodClass, len(out), out, rt.NextIdentity)
	return jvmvalue.ArrayRefValue(arr), false, nil
}
