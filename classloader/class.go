// Package classloader holds the live, mutable Class record, the
// process-wide registry, bootstrap/initialization, and the ordered
// classpath search used to turn a class name into class bytes.
//
// It deliberately knows nothing about bytecode execution: <clinit>
// invocation is delegated through the Invoke callback set on Loader,
// so this package never imports the interpreter (which itself depends
// on classloader for Class/Runtime) — see DESIGN.md for the cycle this
// avoids.
package classloader

import (
	"github.com/artipop-edu/minigojvm/classfile"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// Class is the loaded, live form of a ClassFile (spec §3 Class).
type Class struct {
	InternalName string
	File         *classfile.ClassFile
	Parent       *Class // nil only for java/lang/Object

	initialising bool
	initialised  bool

	statics map[string]jvmvalue.Value
}

// Name implements jvmvalue.Class.
func (c *Class) Name() string { return c.InternalName }

// Initialised reports whether <clinit> has already run to completion.
func (c *Class) Initialised() bool { return c.initialised }

// FindMethod finds a method on this class only (no superclass walk) —
// a thin convenience over the underlying ClassFile.
func (c *Class) FindMethod(name, descriptor string) *classfile.MethodInfo {
	return c.File.FindMethod(name, descriptor)
}

// ResolveMethod walks the superclass chain (this class first) looking
// for (name, descriptor), returning the declaring Class and method.
func (c *Class) ResolveMethod(name, descriptor string) (*Class, *classfile.MethodInfo) {
	for cur := c; cur != nil; cur = cur.Parent {
		if m := cur.File.FindMethod(name, descriptor); m != nil {
			return cur, m
		}
	}
	return nil, nil
}

// GetStatic walks the superclass chain for a class whose statics table
// holds fieldName.
func (c *Class) GetStatic(fieldName string) (jvmvalue.Value, bool) {
	for cur := c; cur != nil; cur = cur.Parent {
		if v, ok := cur.statics[fieldName]; ok {
			return v, true
		}
	}
	return jvmvalue.Value{}, false
}

// PutStatic walks the superclass chain for the class declaring
// fieldName and overwrites it there; it does not create new entries.
func (c *Class) PutStatic(fieldName string, v jvmvalue.Value) bool {
	for cur := c; cur != nil; cur = cur.Parent {
		if _, ok := cur.statics[fieldName]; ok {
			cur.statics[fieldName] = v
			return true
		}
	}
	return false
}

// IsAssignableFrom reports whether other is c or a subclass of c,
// matching by internal name up other's superclass chain.
func (c *Class) IsAssignableFrom(other *Class) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur.InternalName == c.InternalName {
			return true
		}
	}
	return false
}
