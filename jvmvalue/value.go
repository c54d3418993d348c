// Package jvmvalue holds the runtime value representation shared by the
// class loader and the interpreter: the tagged Value variant, heap
// Object and ArrayObject records, and descriptor parsing.
//
// Object's Class field is the minimal jvmvalue.Class interface rather
// than *classloader.Class, so this package has no dependency on
// classloader (which in turn depends on jvmvalue for its statics
// table) — classloader.Class implements this interface.
package jvmvalue

import "fmt"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindByte Kind = iota
	KindShort
	KindChar
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBoolean
	KindObjectRef
	KindArrayRef
	KindUnresolved
)

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "Byte"
	case KindShort:
		return "Short"
	case KindChar:
		return "Char"
	case KindInt:
		return "Int"
	case KindLong:
		return "Long"
	case KindFloat:
		return "Float"
	case KindDouble:
		return "Double"
	case KindBoolean:
		return "Boolean"
	case KindObjectRef:
		return "ObjectRef"
	case KindArrayRef:
		return "ArrayRef"
	case KindUnresolved:
		return "Unresolved"
	default:
		return "Unknown"
	}
}

// Value is the tagged union every operand-stack slot, local variable,
// field, and return value is expressed in. Only one payload field is
// meaningful for a given Kind.
type Value struct {
	Kind Kind

	i     int64   // Byte/Short/Char/Int/Long/Boolean, sign/zero-extended to int64
	f32   float32 // Float
	f64   float64 // Double
	obj   *Object
	arr   *ArrayObject
	udesc string // Unresolved: the pending descriptor string
}

// IsType1 reports whether this Value occupies one operand-stack slot.
func (v Value) IsType1() bool { return v.Kind != KindLong && v.Kind != KindDouble }

// IsType2 reports whether this Value occupies two operand-stack slots
// (Long and Double only).
func (v Value) IsType2() bool { return !v.IsType1() }

func ByteValue(b int8) Value    { return Value{Kind: KindByte, i: int64(b)} }
func ShortValue(s int16) Value  { return Value{Kind: KindShort, i: int64(s)} }
func CharValue(c uint16) Value  { return Value{Kind: KindChar, i: int64(c)} }
func IntValue(n int32) Value    { return Value{Kind: KindInt, i: int64(n)} }
func LongValue(n int64) Value   { return Value{Kind: KindLong, i: n} }
func FloatValue(f float32) Value { return Value{Kind: KindFloat, f32: f} }
func DoubleValue(f float64) Value { return Value{Kind: KindDouble, f64: f} }

func BoolValue(b bool) Value {
	if b {
		return Value{Kind: KindBoolean, i: 1}
	}
	return Value{Kind: KindBoolean, i: 0}
}

func ObjectRefValue(o *Object) Value { return Value{Kind: KindObjectRef, obj: o} }
func ArrayRefValue(a *ArrayObject) Value { return Value{Kind: KindArrayRef, arr: a} }

// UnresolvedValue carries a field's declared descriptor when its class
// has not been loaded yet — only meaningful during lazy static-field
// typing (see classloader's bootstrap step 4).
func UnresolvedValue(descriptor string) Value {
	return Value{Kind: KindUnresolved, udesc: descriptor}
}

// Int returns the Byte/Short/Char/Int/Boolean payload as an int32.
func (v Value) Int() int32 { return int32(v.i) }

// Long returns the Long payload.
func (v Value) Long() int64 { return v.i }

// Float returns the Float payload.
func (v Value) Float() float32 { return v.f32 }

// Double returns the Double payload.
func (v Value) Double() float64 { return v.f64 }

// Bool returns the Boolean payload.
func (v Value) Bool() bool { return v.i != 0 }

// Byte returns the Byte payload, sign-extended as the JVM stores it.
func (v Value) Byte() int8 { return int8(v.i) }

// Short returns the Short payload.
func (v Value) Short() int16 { return int16(v.i) }

// Char returns the Char payload (a zero-extended UTF-16 code unit).
func (v Value) Char() uint16 { return uint16(v.i) }

// Obj returns the referenced Object. Valid only for KindObjectRef.
func (v Value) Obj() *Object { return v.obj }

// Arr returns the referenced ArrayObject. Valid only for KindArrayRef.
func (v Value) Arr() *ArrayObject { return v.arr }

// UnresolvedDescriptor returns the pending descriptor. Valid only for
// KindUnresolved.
func (v Value) UnresolvedDescriptor() string { return v.udesc }

// IsNullRef reports whether this is a null object or array reference.
func (v Value) IsNullRef() bool {
	switch v.Kind {
	case KindObjectRef:
		return v.obj == nil || v.obj.Null
	case KindArrayRef:
		return v.arr == nil || v.arr.Null
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindFloat:
		return fmt.Sprintf("Float(%v)", v.f32)
	case KindDouble:
		return fmt.Sprintf("Double(%v)", v.f64)
	case KindLong:
		return fmt.Sprintf("Long(%d)", v.i)
	case KindBoolean:
		return fmt.Sprintf("Boolean(%v)", v.Bool())
	case KindObjectRef:
		if v.IsNullRef() {
			return "ObjectRef(null)"
		}
		return fmt.Sprintf("ObjectRef(%s#%d)", v.obj.Class.Name(), v.obj.ID)
	case KindArrayRef:
		if v.IsNullRef() {
			return "ArrayRef(null)"
		}
		return fmt.Sprintf("ArrayRef(len=%d)", len(v.arr.Values))
	case KindUnresolved:
		return fmt.Sprintf("Unresolved(%s)", v.udesc)
	default:
		return fmt.Sprintf("%s(%d)", v.Kind, v.i)
	}
}
