package classloader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// writeClass assembles a minimal .class file for className extending
// superName (use "" for java/lang/Object) with one static int field
// "counter", one instance int field "value", and an optional <clinit>
// whose body is a bare return, and writes it into dir as
// "<className>.class". This mirrors parser_test.go's
// inline byte-construction approach (no fixture files available).
func writeClass(t *testing.T, dir, className, superName string, withClinit bool) {
	t.Helper()

	var cp bytes.Buffer
	idx := uint16(1)
	u8 := func(v uint8) { cp.WriteByte(v) }
	u16 := func(v uint16) { binary.Write(&cp, binary.BigEndian, v) }
	utf8 := func(s string) uint16 {
		u8(1)
		u16(uint16(len(s)))
		cp.WriteString(s)
		i := idx
		idx++
		return i
	}
	class := func(nameIdx uint16) uint16 {
		u8(7)
		u16(nameIdx)
		i := idx
		idx++
		return i
	}

	thisClassIdx := class(utf8(className))
	var superClassIdx uint16
	if superName != "" {
		superClassIdx = class(utf8(superName))
	}
	fieldNameIdx := utf8("counter")
	fieldDescIdx := utf8("I")
	instanceFieldNameIdx := utf8("value")
	codeAttrNameIdx := utf8("Code")

	var methods bytes.Buffer
	methodCount := uint16(0)
	if withClinit {
		clinitNameIdx := utf8("<clinit>")
		clinitDescIdx := utf8("()V")
		// iconst_1, putstatic #fieldref, return — but we don't bother
		// wiring a Fieldref here since Initialise only checks for the
		// method's existence before invoking the (stubbed) Invoke
		// callback in these tests; the bytecode body is never run.
		code := []byte{0xB1} // return
		var codeAttr bytes.Buffer
		binary.Write(&codeAttr, binary.BigEndian, uint16(1)) // max_stack
		binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // max_locals
		binary.Write(&codeAttr, binary.BigEndian, uint32(len(code)))
		codeAttr.Write(code)
		binary.Write(&codeAttr, binary.BigEndian, uint16(0))
		binary.Write(&codeAttr, binary.BigEndian, uint16(0))

		binary.Write(&methods, binary.BigEndian, uint16(0x0008)) // static
		binary.Write(&methods, binary.BigEndian, clinitNameIdx)
		binary.Write(&methods, binary.BigEndian, clinitDescIdx)
		binary.Write(&methods, binary.BigEndian, uint16(1))
		binary.Write(&methods, binary.BigEndian, codeAttrNameIdx)
		binary.Write(&methods, binary.BigEndian, uint32(codeAttr.Len()))
		methods.Write(codeAttr.Bytes())
		methodCount++
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(52))
	binary.Write(&out, binary.BigEndian, idx) // constant_pool_count
	out.Write(cp.Bytes())
	binary.Write(&out, binary.BigEndian, uint16(0x0021)) // PUBLIC|SUPER
	binary.Write(&out, binary.BigEndian, thisClassIdx)
	binary.Write(&out, binary.BigEndian, superClassIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces
	binary.Write(&out, binary.BigEndian, uint16(2)) // fields_count
	binary.Write(&out, binary.BigEndian, uint16(0x0008))
	binary.Write(&out, binary.BigEndian, fieldNameIdx)
	binary.Write(&out, binary.BigEndian, fieldDescIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // field attrs
	binary.Write(&out, binary.BigEndian, uint16(0)) // instance field
	binary.Write(&out, binary.BigEndian, instanceFieldNameIdx)
	binary.Write(&out, binary.BigEndian, fieldDescIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // field attrs
	binary.Write(&out, binary.BigEndian, methodCount)
	out.Write(methods.Bytes())
	binary.Write(&out, binary.BigEndian, uint16(0)) // class attrs

	if err := os.WriteFile(filepath.Join(dir, className+".class"), out.Bytes(), 0o644); err != nil {
		t.Fatalf("writing %s.class: %v", className, err)
	}
}

func newTestLoader(t *testing.T) (*Loader, string) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "java/lang"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeClass(t, dir, "java/lang/Object", "", false)
	registry := NewRegistry()
	return NewLoader(registry, NewSearchPath(DirRoot{Path: dir})), dir
}

func TestLoadClassBootstrapsSuperclassChain(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeClass(t, dir, "B", "java/lang/Object", false)
	writeClass(t, dir, "C", "B", false)

	c, err := loader.LoadClass("C")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if c.InternalName != "C" {
		t.Errorf("InternalName = %q, want C", c.InternalName)
	}
	if c.Parent == nil || c.Parent.InternalName != "B" {
		t.Fatalf("Parent = %v, want B", c.Parent)
	}
	if c.Parent.Parent == nil || c.Parent.Parent.InternalName != "java/lang/Object" {
		t.Fatalf("Parent.Parent = %v, want java/lang/Object", c.Parent.Parent)
	}
	if !c.Initialised() {
		t.Errorf("expected C to be initialised after LoadClass")
	}
}

func TestLoadClassIsRegisteredAtMostOnce(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeClass(t, dir, "B", "java/lang/Object", false)

	c1, err := loader.LoadClass("B")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	c2, err := loader.LoadClass("B")
	if err != nil {
		t.Fatalf("LoadClass (second): %v", err)
	}
	if c1 != c2 {
		t.Errorf("expected the same *Class instance on repeated LoadClass")
	}
}

func TestInitialiseRunsClinitExactlyOnce(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeClass(t, dir, "B", "java/lang/Object", true)

	calls := 0
	loader.Invoke = func(c *Class) error {
		calls++
		return nil
	}

	if _, err := loader.LoadClass("B"); err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if calls != 1 {
		t.Fatalf("Invoke called %d times, want 1", calls)
	}

	// A second LoadClass must not re-run <clinit>.
	if _, err := loader.LoadClass("B"); err != nil {
		t.Fatalf("LoadClass (second): %v", err)
	}
	if calls != 1 {
		t.Errorf("Invoke called %d times after second load, want still 1", calls)
	}
}

func TestInitialiseReentrantDuringClinit(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeClass(t, dir, "B", "java/lang/Object", true)

	var reentrantErr error
	loader.Invoke = func(c *Class) error {
		// Simulate <clinit> re-entering Initialise on itself — must be
		// a no-op rather than infinite recursion or a second run.
		reentrantErr = loader.Initialise(c)
		return nil
	}

	if _, err := loader.LoadClass("B"); err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if reentrantErr != nil {
		t.Errorf("reentrant Initialise returned %v, want nil", reentrantErr)
	}
}

func TestStaticFieldDefaultedAndReadWrite(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeClass(t, dir, "B", "java/lang/Object", false)

	c, err := loader.LoadClass("B")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	v, ok := c.GetStatic("counter")
	if !ok {
		t.Fatal("expected static field counter to exist")
	}
	if v.Kind != jvmvalue.KindInt || v.Int() != 0 {
		t.Errorf("counter default = %v, want Int(0)", v)
	}

	if !c.PutStatic("counter", jvmvalue.IntValue(5)) {
		t.Fatal("PutStatic returned false")
	}
	v, _ = c.GetStatic("counter")
	if v.Int() != 5 {
		t.Errorf("counter after PutStatic = %v, want Int(5)", v)
	}
}

func TestGetStaticWalksSuperclassChain(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeClass(t, dir, "B", "java/lang/Object", false)
	writeClass(t, dir, "C", "B", false)

	c, err := loader.LoadClass("C")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if _, ok := c.GetStatic("counter"); !ok {
		t.Fatal("expected C.GetStatic(counter) to find B's static field")
	}
}

func TestClassNotFoundOnSearchPath(t *testing.T) {
	loader, _ := newTestLoader(t)
	if _, err := loader.LoadClass("DoesNotExist"); err == nil {
		t.Fatal("expected an error for a class not on the search path")
	}
}
