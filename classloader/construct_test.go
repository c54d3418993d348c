package classloader

import (
	"testing"

	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func TestConstructObjectBuildsPerLevelFieldMaps(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeClass(t, dir, "B", "java/lang/Object", false)
	writeClass(t, dir, "C", "B", false)

	c, err := loader.LoadClass("C")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}

	var nextID int64
	obj, err := loader.ConstructObject(c, func() int64 { nextID++; return nextID })
	if err != nil {
		t.Fatalf("ConstructObject: %v", err)
	}

	if obj.Class.Name() != "C" {
		t.Fatalf("most-derived object class = %q, want C", obj.Class.Name())
	}
	if _, ok := obj.Fields["value"]; !ok {
		t.Errorf("C-level object should declare its own value field")
	}
	if obj.Super == nil || obj.Super.Class.Name() != "B" {
		t.Fatalf("Super = %v, want B level", obj.Super)
	}
	if _, ok := obj.Super.Fields["value"]; !ok {
		t.Errorf("B-level object should declare its own value field")
	}
	if obj.Super.Super == nil || obj.Super.Super.Class.Name() != "java/lang/Object" {
		t.Fatalf("Super.Super = %v, want java/lang/Object level", obj.Super.Super)
	}
	if obj.Super.Super.Super != nil {
		t.Errorf("java/lang/Object level should have no further Super")
	}

	if got := obj.MostDerived(); got != obj {
		t.Errorf("MostDerived() from the top should return itself")
	}
	if got := obj.Super.Super.MostDerived(); got != obj {
		t.Errorf("MostDerived() from the root should return the most-derived level")
	}
}

func TestGetFieldPutFieldWalkToDeclaringLevel(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeClass(t, dir, "B", "java/lang/Object", false)
	writeClass(t, dir, "C", "B", false)

	c, err := loader.LoadClass("C")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	var nextID int64
	obj, err := loader.ConstructObject(c, func() int64 { nextID++; return nextID })
	if err != nil {
		t.Fatalf("ConstructObject: %v", err)
	}

	if err := PutField(obj, "B", "value", jvmvalue.IntValue(42)); err != nil {
		t.Fatalf("PutField: %v", err)
	}
	v, err := GetField(obj, "B", "value")
	if err != nil {
		t.Fatalf("GetField: %v", err)
	}
	if v.Int() != 42 {
		t.Errorf("GetField(B, value) = %v, want Int(42)", v)
	}

	// C's own (shadowing) value field is untouched.
	cv, err := GetField(obj, "C", "value")
	if err != nil {
		t.Fatalf("GetField(C, value): %v", err)
	}
	if cv.Int() != 0 {
		t.Errorf("GetField(C, value) = %v, want untouched Int(0)", cv)
	}
}

func TestGetFieldUnknownDeclaringClass(t *testing.T) {
	loader, dir := newTestLoader(t)
	writeClass(t, dir, "B", "java/lang/Object", false)
	c, err := loader.LoadClass("B")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	var nextID int64
	obj, err := loader.ConstructObject(c, func() int64 { nextID++; return nextID })
	if err != nil {
		t.Fatalf("ConstructObject: %v", err)
	}
	if _, err := GetField(obj, "NoSuchClass", "counter"); err == nil {
		t.Fatal("expected an error for an unknown declaring class")
	}
}

func TestConstructArrayDefaultsAndSeeds(t *testing.T) {
	var nextID int64
	next := func() int64 { nextID++; return nextID }

	prim := ConstructPrimitiveArray('I', 3, next)
	if len(prim.Values) != 3 {
		t.Fatalf("len = %d, want 3", len(prim.Values))
	}
	for _, v := range prim.Values {
		if v.Kind != jvmvalue.KindInt || v.Int() != 0 {
			t.Errorf("element = %v, want Int(0)", v)
		}
	}

	seeded := ConstructArray(nil, 3, []jvmvalue.Value{jvmvalue.IntValue(1), jvmvalue.IntValue(2)}, next)
	if seeded.Values[0].Int() != 1 || seeded.Values[1].Int() != 2 {
		t.Errorf("seeded values = %v, %v, want 1, 2", seeded.Values[0], seeded.Values[1])
	}
}
