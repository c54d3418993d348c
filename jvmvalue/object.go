package jvmvalue

// Class is the minimal view of a loaded class that jvmvalue needs: a
// stable name to match against during field/method resolution and
// equality checks. classloader.Class implements this.
type Class interface {
	Name() string
}

// Object is one heap instance. A class with a superclass chain is
// represented as a chain of Objects, one per class level, linked by
// Super (strong, toward the root) and sub (weak, toward the most
// derived level) — see ConstructObject in classloader for how the
// chain is built.
type Object struct {
	Null  bool
	Class Class
	// Fields holds only the members declared directly at this Class
	// level; inherited fields live on Super.
	Fields map[string]Value
	Super  *Object // the next-less-derived level, nil at java/lang/Object
	sub    *Object // the next-more-derived level, nil at the most derived
	ID     int64
}

// NewObject allocates one level of an object chain. id must come from
// the owning Runtime's monotonic identity counter.
func NewObject(class Class, id int64) *Object {
	return &Object{
		Class:  class,
		Fields: make(map[string]Value),
		ID:     id,
	}
}

// NullObject represents the null reference typed to class (used as the
// default value of a reference-typed field/local/static).
func NullObject(class Class) *Object {
	return &Object{Null: true, Class: class}
}

// LinkSuper attaches super as the next-less-derived level of obj and
// records the weak back-link, maintaining the invariant that the
// object chain's depth mirrors the class chain's depth.
func LinkSuper(obj, super *Object) {
	obj.Super = super
	super.sub = obj
}

// MostDerived follows the weak sub-class links to the bottom of the
// chain — the object virtual dispatch and instanceof operate against.
func (o *Object) MostDerived() *Object {
	cur := o
	for cur.sub != nil {
		cur = cur.sub
	}
	return cur
}

// FindLevel walks from o upward through Super until it finds the
// Object whose Class name equals className, or nil if none matches.
func (o *Object) FindLevel(className string) *Object {
	for cur := o; cur != nil; cur = cur.Super {
		if cur.Class.Name() == className {
			return cur
		}
	}
	return nil
}

// Equal reports structural equality: same class, same members, and
// matching chain links at every level. The compareAndSwapObject
// intrinsic does not use it; it compares references by identity.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.Null != other.Null {
		return false
	}
	if o.Null {
		return o.Class.Name() == other.Class.Name()
	}
	if o.Class.Name() != other.Class.Name() || len(o.Fields) != len(other.Fields) {
		return false
	}
	for k, v := range o.Fields {
		ov, ok := other.Fields[k]
		if !ok || !valuesShallowEqual(v, ov) {
			return false
		}
	}
	if (o.Super == nil) != (other.Super == nil) {
		return false
	}
	if o.Super != nil {
		return o.Super.Equal(other.Super)
	}
	return true
}

func valuesShallowEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindFloat:
		return a.f32 == b.f32
	case KindDouble:
		return a.f64 == b.f64
	case KindObjectRef:
		return a.obj == b.obj
	case KindArrayRef:
		return a.arr == b.arr
	default:
		return a.i == b.i
	}
}

// ArrayObject is a fixed-length, mutable sequence of Values. Exactly
// one of ElemClass or ElemDesc is meaningful, matching whether this is
// a reference array or a primitive array.
type ArrayObject struct {
	Null      bool
	ElemClass Class  // set for reference-element arrays
	ElemDesc  byte   // set for primitive-element arrays: B C D F I J S Z
	Values    []Value
	ID        int64
}

// NewArrayObject allocates a reference-element array of length with
// every slot defaulted to a null reference typed to elemClass.
func NewArrayObject(elemClass Class, length int, id int64) *ArrayObject {
	values := make([]Value, length)
	for i := range values {
		values[i] = ObjectRefValue(NullObject(elemClass))
	}
	return &ArrayObject{ElemClass: elemClass, Values: values, ID: id}
}

// NewPrimitiveArrayObject allocates a primitive-element array of
// length with every slot defaulted to elemDesc's numeric zero.
func NewPrimitiveArrayObject(elemDesc byte, length int, id int64) *ArrayObject {
	values := make([]Value, length)
	zero := zeroForPrimitive(elemDesc)
	for i := range values {
		values[i] = zero
	}
	return &ArrayObject{ElemDesc: elemDesc, Values: values, ID: id}
}

// NullArray represents the null reference typed to a primitive element
// descriptor or a reference element class (exactly one is set).
func NullArray(elemClass Class, elemDesc byte) *ArrayObject {
	return &ArrayObject{Null: true, ElemClass: elemClass, ElemDesc: elemDesc}
}

func zeroForPrimitive(desc byte) Value {
	switch desc {
	case 'B':
		return ByteValue(0)
	case 'C':
		return CharValue(0)
	case 'D':
		return DoubleValue(0)
	case 'F':
		return FloatValue(0)
	case 'I':
		return IntValue(0)
	case 'J':
		return LongValue(0)
	case 'S':
		return ShortValue(0)
	case 'Z':
		return BoolValue(false)
	default:
		return IntValue(0)
	}
}
