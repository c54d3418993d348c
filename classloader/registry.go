package classloader

import (
	"fmt"
	"sync"

	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// Registry is the process-wide internal-name → Class mapping. Spec §3
// invariant: at-most-once insertion per name, and a Class is published
// BEFORE its superclass walk or <clinit> runs, so <clinit> may observe
// its own (partially bootstrapped) class.
//
// The chosen teacher never needed a registry at all (JmodClassLoader
// and UserClassLoader each cache *classfile.ClassFile keyed by name,
// with no publish-before-init concern since they never run <clinit>);
// this type is new structure required by spec §4.3/§4.4, built in the
// teacher's map-plus-mutex idiom (see Runtime.staticFields/
// initializedClasses in pkg/vm/vm.go, which is a flatter version of
// the same bookkeeping this Registry generalizes).
type Registry struct {
	mu      sync.Mutex
	classes map[string]*Class
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Lookup returns the Class already registered under name, if any.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[name]
	return c, ok
}

// Resolve implements jvmvalue.ClassResolver.
func (r *Registry) Resolve(name string) (jvmvalue.Class, bool) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	return c, true
}

// publish inserts c under name. It is an error to publish the same
// name twice — the loader always checks Lookup first.
func (r *Registry) publish(name string, c *Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.classes[name]; exists {
		return fmt.Errorf("class %s already registered", name)
	}
	r.classes[name] = c
	return nil
}
