package jvmvalue

import "testing"

func buildChain(t *testing.T) (a, b, c *Object) {
	t.Helper()
	a = NewObject(stubClass("A"), 1) // root
	b = NewObject(stubClass("B"), 2)
	c = NewObject(stubClass("C"), 3) // most derived
	LinkSuper(b, a)
	LinkSuper(c, b)
	return a, b, c
}

func TestObjectChainMostDerivedAndFindLevel(t *testing.T) {
	a, b, c := buildChain(t)

	if got := a.MostDerived(); got != c {
		t.Errorf("a.MostDerived() = %v, want c", got)
	}
	if got := c.MostDerived(); got != c {
		t.Errorf("c.MostDerived() = %v, want c", got)
	}

	if got := c.FindLevel("A"); got != a {
		t.Errorf("c.FindLevel(A) = %v, want a", got)
	}
	if got := c.FindLevel("B"); got != b {
		t.Errorf("c.FindLevel(B) = %v, want b", got)
	}
	if got := c.FindLevel("Z"); got != nil {
		t.Errorf("c.FindLevel(Z) = %v, want nil", got)
	}
}

func TestObjectIdentityIsStable(t *testing.T) {
	o := NewObject(stubClass("X"), 42)
	if o.ID != 42 {
		t.Errorf("ID = %d, want 42", o.ID)
	}
}

func TestObjectEqualStructural(t *testing.T) {
	_, _, c1 := buildChain(t)
	_, _, c2 := buildChain(t)

	c1.Fields["f"] = IntValue(7)
	c1.Super.Fields["g"] = IntValue(9)
	c2.Fields["f"] = IntValue(7)
	c2.Super.Fields["g"] = IntValue(9)

	if !c1.Equal(c2) {
		t.Errorf("expected c1.Equal(c2)")
	}

	c2.Fields["f"] = IntValue(8)
	if c1.Equal(c2) {
		t.Errorf("expected c1 != c2 after mutating a field")
	}
}

func TestNullObjectEqualByClassName(t *testing.T) {
	n1 := NullObject(stubClass("java/lang/String"))
	n2 := NullObject(stubClass("java/lang/String"))
	if !n1.Equal(n2) {
		t.Errorf("expected two null refs of the same class to be equal")
	}
	n3 := NullObject(stubClass("java/lang/Object"))
	if n1.Equal(n3) {
		t.Errorf("expected null refs of different classes to differ")
	}
}

func TestNewArrayObjectDefaultsToNullRefs(t *testing.T) {
	arr := NewArrayObject(stubClass("java/lang/String"), 3, 1)
	if len(arr.Values) != 3 {
		t.Fatalf("len = %d, want 3", len(arr.Values))
	}
	for i, v := range arr.Values {
		if !v.IsNullRef() {
			t.Errorf("element %d = %v, want null ref", i, v)
		}
	}
}

func TestNewPrimitiveArrayObjectDefaultsToZero(t *testing.T) {
	arr := NewPrimitiveArrayObject('I', 4, 1)
	for i, v := range arr.Values {
		if v.Kind != KindInt || v.Int() != 0 {
			t.Errorf("element %d = %v, want Int(0)", i, v)
		}
	}
}

func TestValueIsType1Type2(t *testing.T) {
	if !IntValue(1).IsType1() {
		t.Errorf("Int should be type 1")
	}
	if LongValue(1).IsType1() {
		t.Errorf("Long should not be type 1")
	}
	if !LongValue(1).IsType2() {
		t.Errorf("Long should be type 2")
	}
	if !DoubleValue(1).IsType2() {
		t.Errorf("Double should be type 2")
	}
}
