package classloader

import (
	"fmt"

	"github.com/artipop-edu/minigojvm/classfile"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// ClinitInvoker runs a class's <clinit>()V to completion, if it has
// one. It is supplied by the interpreter after construction (Loader
// itself never executes bytecode) — see the package doc for why.
type ClinitInvoker func(class *Class) error

// Loader turns a class name into a bootstrapped, registered Class,
// parsing via classfile.Parse on a cache miss and running the
// superclass-chain/static-field/<clinit> bootstrap sequence from
// spec §4.3.
//
// Grounded on UserClassLoader.LoadClass's cache-then-parent-then-parse
// shape (pkg/vm/classloader.go), generalized from a flat
// map[string]*ClassFile cache to the registry's publish-before-init
// two-phase insert the spec requires.
type Loader struct {
	Registry   *Registry
	SearchPath *SearchPath
	Invoke     ClinitInvoker
}

func NewLoader(registry *Registry, path *SearchPath) *Loader {
	return &Loader{Registry: registry, SearchPath: path}
}

// LoadClass returns the registered, initialised Class for name,
// bootstrapping and parsing it on first reference.
func (l *Loader) LoadClass(name string) (*Class, error) {
	if c, ok := l.Registry.Lookup(name); ok {
		if err := l.Initialise(c); err != nil {
			return nil, err
		}
		return c, nil
	}

	data, err := l.SearchPath.Find(name)
	if err != nil {
		return nil, fmt.Errorf("loading class %s: %w", name, err)
	}
	cf, err := classfile.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing class %s: %w", name, err)
	}
	return l.bootstrap(name, cf)
}

// bootstrap implements spec §4.3 steps 1-5.
func (l *Loader) bootstrap(name string, cf *classfile.ClassFile) (*Class, error) {
	c := &Class{
		InternalName: name,
		File:         cf,
		statics:      make(map[string]jvmvalue.Value),
	}
	// Step 1: publish before the superclass walk or <clinit> runs, so
	// a self-referential <clinit> (e.g. a class whose static
	// initializer constructs an instance of itself) can observe it.
	if err := l.Registry.publish(name, c); err != nil {
		return nil, err
	}

	// Step 2: walk the superclass chain.
	superName, err := cf.SuperClassName()
	if err != nil {
		return nil, fmt.Errorf("bootstrapping %s: %w", name, err)
	}
	if superName != "" {
		super, err := l.LoadClass(superName)
		if err != nil {
			return nil, fmt.Errorf("bootstrapping %s: loading superclass %s: %w", name, superName, err)
		}
		c.Parent = super
	}

	// Steps 3-4: record field layout and zero-init statics. Step 3's
	// instance field offsets are computed on demand by FieldSlots
	// (construct.go), walking File.Fields across the Parent chain
	// rather than caching a table here; it is only consulted by the
	// reflection and Unsafe intrinsics.
	for i := range cf.Fields {
		f := &cf.Fields[i]
		if f.AccessFlags&classfile.AccStatic == 0 {
			continue
		}
		v, err := jvmvalue.DefaultValue(f.Descriptor, l.Registry)
		if err != nil {
			return nil, fmt.Errorf("bootstrapping %s: static field %s: %w", name, f.Name, err)
		}
		if f.ConstantValueIndex != 0 {
			v, err = constantFieldValue(cf, f, v)
			if err != nil {
				return nil, fmt.Errorf("bootstrapping %s: static field %s: %w", name, f.Name, err)
			}
		}
		c.statics[f.Name] = v
	}

	// Step 5.
	if err := l.Initialise(c); err != nil {
		return nil, err
	}
	return c, nil
}

// constantFieldValue resolves a static final field's ConstantValue
// attribute (JVM spec §4.7.2) to its literal value. String/reference
// ConstantValue attributes fall back to the zero-initialised value
// this package already computed, since interning a literal string
// requires the interpreter's intern pool (classloader cannot import
// interp without a cycle); getstatic on such a field returns that
// zero-initialised value unchanged.
func constantFieldValue(cf *classfile.ClassFile, f *classfile.FieldInfo, fallback jvmvalue.Value) (jvmvalue.Value, error) {
	if int(f.ConstantValueIndex) >= len(cf.ConstantPool) {
		return jvmvalue.Value{}, fmt.Errorf("ConstantValue index %d out of range", f.ConstantValueIndex)
	}
	entry := cf.ConstantPool[f.ConstantValueIndex]
	switch f.Descriptor {
	case "I":
		e, ok := entry.(*classfile.CPInteger)
		if !ok {
			return jvmvalue.Value{}, fmt.Errorf("ConstantValue for int field is not CONSTANT_Integer")
		}
		return jvmvalue.IntValue(e.Value), nil
	case "S":
		e, ok := entry.(*classfile.CPInteger)
		if !ok {
			return jvmvalue.Value{}, fmt.Errorf("ConstantValue for short field is not CONSTANT_Integer")
		}
		return jvmvalue.ShortValue(int16(e.Value)), nil
	case "C":
		e, ok := entry.(*classfile.CPInteger)
		if !ok {
			return jvmvalue.Value{}, fmt.Errorf("ConstantValue for char field is not CONSTANT_Integer")
		}
		return jvmvalue.CharValue(uint16(e.Value)), nil
	case "B":
		e, ok := entry.(*classfile.CPInteger)
		if !ok {
			return jvmvalue.Value{}, fmt.Errorf("ConstantValue for byte field is not CONSTANT_Integer")
		}
		return jvmvalue.ByteValue(int8(e.Value)), nil
	case "Z":
		e, ok := entry.(*classfile.CPInteger)
		if !ok {
			return jvmvalue.Value{}, fmt.Errorf("ConstantValue for boolean field is not CONSTANT_Integer")
		}
		return jvmvalue.BoolValue(e.Value != 0), nil
	case "J":
		e, ok := entry.(*classfile.CPLong)
		if !ok {
			return jvmvalue.Value{}, fmt.Errorf("ConstantValue for long field is not CONSTANT_Long")
		}
		return jvmvalue.LongValue(e.Value), nil
	case "F":
		e, ok := entry.(*classfile.CPFloat)
		if !ok {
			return jvmvalue.Value{}, fmt.Errorf("ConstantValue for float field is not CONSTANT_Float")
		}
		return jvmvalue.FloatValue(e.Value), nil
	case "D":
		e, ok := entry.(*classfile.CPDouble)
		if !ok {
			return jvmvalue.Value{}, fmt.Errorf("ConstantValue for double field is not CONSTANT_Double")
		}
		return jvmvalue.DoubleValue(e.Value), nil
	default:
		return fallback, nil
	}
}

// Initialise implements spec §4.4: idempotent, re-entrant-safe
// <clinit> invocation.
func (l *Loader) Initialise(c *Class) error {
	if c.initialised || c.initialising {
		return nil
	}
	c.initialising = true

	if c.Parent != nil {
		if err := l.Initialise(c.Parent); err != nil {
			return err
		}
	}

	if c.File.FindMethod("<clinit>", "()V") != nil && l.Invoke != nil {
		if err := l.Invoke(c); err != nil {
			return fmt.Errorf("initialising %s: %w", c.InternalName, err)
		}
	}

	c.initialised = true
	return nil
}
