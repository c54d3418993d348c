package classloader

import (
	"fmt"

	"github.com/artipop-edu/minigojvm/classfile"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// ConstructObject implements spec §4.6: allocate one jvmvalue.Object
// per Class in the chain, root first, each holding only the fields
// declared directly at that level, linked Super/sub so the chain depth
// mirrors the class chain depth. nextID is called once per level to
// obtain the object's identity code from the Runtime's monotonic
// counter.
//
// Grounded on JObject{ClassName, Fields} (pkg/vm/object.go) — that
// type allocates a single flat object per instance with no chain;
// ConstructObject is the generalization spec §3/§4.6 requires to
// support super-field shadowing and INVOKESPECIAL's super dispatch.
func (l *Loader) ConstructObject(class *Class, nextID func() int64) (*jvmvalue.Object, error) {
	// Collect the chain root-first so Super links point toward the root.
	var chain []*Class
	for c := class; c != nil; c = c.Parent {
		chain = append(chain, c)
	}
	var prev *jvmvalue.Object
	for i := len(chain) - 1; i >= 0; i-- {
		level := chain[i]
		obj := jvmvalue.NewObject(level, nextID())
		for j := range level.File.Fields {
			f := &level.File.Fields[j]
			if f.AccessFlags&classfile.AccStatic != 0 {
				continue
			}
			v, err := jvmvalue.DefaultValue(f.Descriptor, l.Registry)
			if err != nil {
				return nil, fmt.Errorf("constructing %s: field %s: %w", level.InternalName, f.Name, err)
			}
			obj.Fields[f.Name] = v
		}
		if prev != nil {
			jvmvalue.LinkSuper(obj, prev)
		}
		prev = obj
	}
	return prev, nil // most-derived level
}

// ConstructArray builds a reference-element ArrayObject, optionally
// seeded with initial elements (nil means all-null of length length).
// elemClass is typed as the jvmvalue.Class interface, not *Class,
// specifically so callers can pass a bare nil for "no element class
// known yet" without the typed-nil-in-interface trap a *Class
// parameter would invite.
func ConstructArray(elemClass jvmvalue.Class, length int, initial []jvmvalue.Value, nextID func() int64) *jvmvalue.ArrayObject {
	arr := jvmvalue.NewArrayObject(elemClass, length, nextID())
	copy(arr.Values, initial)
	return arr
}

// ConstructPrimitiveArray builds a primitive-element ArrayObject of
// the given atype descriptor character.
func ConstructPrimitiveArray(elemDesc byte, length int, nextID func() int64) *jvmvalue.ArrayObject {
	return jvmvalue.NewPrimitiveArrayObject(elemDesc, length, nextID())
}

// FieldSlot is one entry of a class's flattened, chain-wide instance
// field layout: the field's name, the internal name of the Class that
// declares it, and a stable index assigned superclass-first. Grounded
// on spec §4.3 step 3 ("For every instance field in the chain
// (superclass-first), record an offset for later reflection-based
// addressing") — Slot is the offset that step describes, used by the
// Unsafe.objectFieldOffset/compareAndSwapObject intrinsics.
type FieldSlot struct {
	Name      string
	ClassName string
	Slot      int
}

// FieldSlots flattens leaf's instance field layout root-first. Two
// classes sharing a common ancestor assign the same slot number to
// the inherited fields, since the walk always starts from the same
// root; a class's own fields are always numbered after its parent's.
func FieldSlots(leaf *Class) []FieldSlot {
	var chain []*Class
	for c := leaf; c != nil; c = c.Parent {
		chain = append(chain, c)
	}
	var slots []FieldSlot
	for i := len(chain) - 1; i >= 0; i-- {
		level := chain[i]
		for _, f := range level.File.Fields {
			if f.AccessFlags&classfile.AccStatic != 0 {
				continue
			}
			slots = append(slots, FieldSlot{Name: f.Name, ClassName: level.InternalName, Slot: len(slots)})
		}
	}
	return slots
}

// GetField implements spec §4.7: walk from obj upward through Super
// until the Object's class name matches declaringClass, then read
// fieldName from that level's member map.
func GetField(obj *jvmvalue.Object, declaringClass, fieldName string) (jvmvalue.Value, error) {
	level := obj.FindLevel(declaringClass)
	if level == nil {
		return jvmvalue.Value{}, fmt.Errorf("class %s not found in object chain", declaringClass)
	}
	v, ok := level.Fields[fieldName]
	if !ok {
		return jvmvalue.Value{}, fmt.Errorf("field %s not found on %s", fieldName, declaringClass)
	}
	return v, nil
}

// PutField is GetField's write counterpart.
func PutField(obj *jvmvalue.Object, declaringClass, fieldName string, v jvmvalue.Value) error {
	level := obj.FindLevel(declaringClass)
	if level == nil {
		return fmt.Errorf("class %s not found in object chain", declaringClass)
	}
	if _, ok := level.Fields[fieldName]; !ok {
		return fmt.Errorf("field %s not found on %s", fieldName, declaringClass)
	}
	level.Fields[fieldName] = v
	return nil
}
