package jvmvalue

import "testing"

type stubClass string

func (s stubClass) Name() string { return string(s) }

type stubResolver map[string]Class

func (r stubResolver) Resolve(name string) (Class, bool) {
	c, ok := r[name]
	return c, ok
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in, wantDesc, wantRest string
	}{
		{"I", "I", ""},
		{"Ljava/lang/String;", "Ljava/lang/String;", ""},
		{"[I", "[I", ""},
		{"[[Ljava/lang/String;", "[[Ljava/lang/String;", ""},
		{"IJ", "I", "J"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			desc, rest, err := ParseField(tt.in)
			if err != nil {
				t.Fatalf("ParseField(%q): %v", tt.in, err)
			}
			if desc != tt.wantDesc || rest != tt.wantRest {
				t.Errorf("ParseField(%q) = (%q, %q), want (%q, %q)", tt.in, desc, rest, tt.wantDesc, tt.wantRest)
			}
		})
	}
}

func TestParseFieldInvalid(t *testing.T) {
	for _, in := range []string{"", "Q", "Ljava/lang/String"} {
		if _, _, err := ParseField(in); err == nil {
			t.Errorf("ParseField(%q): expected error, got nil", in)
		}
	}
}

func TestParseMethod(t *testing.T) {
	md, err := ParseMethod("(ILjava/lang/String;J)V")
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	wantParams := []string{"I", "Ljava/lang/String;", "J"}
	if len(md.Params) != len(wantParams) {
		t.Fatalf("Params = %v, want %v", md.Params, wantParams)
	}
	for i, p := range wantParams {
		if md.Params[i] != p {
			t.Errorf("Params[%d] = %q, want %q", i, md.Params[i], p)
		}
	}
	if !md.IsVoid() {
		t.Errorf("IsVoid() = false, want true")
	}
	if got := md.SlotCount(); got != 4 {
		t.Errorf("SlotCount() = %d, want 4 (I=1, String=1, J=2)", got)
	}
}

func TestParseMethodNonVoidReturn(t *testing.T) {
	md, err := ParseMethod("()Ljava/lang/Object;")
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	if md.IsVoid() {
		t.Errorf("IsVoid() = true, want false")
	}
	if md.Return != "Ljava/lang/Object;" {
		t.Errorf("Return = %q", md.Return)
	}
}

func TestParamValuesPadsLongAndDouble(t *testing.T) {
	md, err := ParseMethod("(JID)V")
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	args := []Value{LongValue(7), IntValue(3), DoubleValue(1.5)}
	slots, err := md.ParamValues(args)
	if err != nil {
		t.Fatalf("ParamValues: %v", err)
	}
	if len(slots) != 5 {
		t.Fatalf("len(slots) = %d, want 5", len(slots))
	}
	if slots[0].Kind != KindLong || slots[0].Long() != 7 {
		t.Errorf("slot 0 = %v, want Long(7)", slots[0])
	}
	if slots[2].Kind != KindInt || slots[2].Int() != 3 {
		t.Errorf("slot 2 = %v, want Int(3)", slots[2])
	}
	if slots[3].Kind != KindDouble || slots[3].Double() != 1.5 {
		t.Errorf("slot 3 = %v, want Double(1.5)", slots[3])
	}
}

func TestDefaultValuePrimitives(t *testing.T) {
	tests := []struct {
		desc string
		kind Kind
	}{
		{"B", KindByte}, {"C", KindChar}, {"D", KindDouble}, {"F", KindFloat},
		{"I", KindInt}, {"J", KindLong}, {"S", KindShort}, {"Z", KindBoolean},
	}
	for _, tt := range tests {
		v, err := DefaultValue(tt.desc, nil)
		if err != nil {
			t.Fatalf("DefaultValue(%q): %v", tt.desc, err)
		}
		if v.Kind != tt.kind {
			t.Errorf("DefaultValue(%q).Kind = %v, want %v", tt.desc, v.Kind, tt.kind)
		}
	}
}

func TestDefaultValueReferenceResolved(t *testing.T) {
	resolver := stubResolver{"java/lang/String": stubClass("java/lang/String")}
	v, err := DefaultValue("Ljava/lang/String;", resolver)
	if err != nil {
		t.Fatalf("DefaultValue: %v", err)
	}
	if v.Kind != KindObjectRef {
		t.Fatalf("Kind = %v, want KindObjectRef", v.Kind)
	}
	if !v.IsNullRef() {
		t.Errorf("expected null ref")
	}
	if v.Obj().Class.Name() != "java/lang/String" {
		t.Errorf("Class = %q, want java/lang/String", v.Obj().Class.Name())
	}
}

func TestDefaultValueReferenceUnresolvedWhenClassNotLoaded(t *testing.T) {
	v, err := DefaultValue("Ljava/lang/Thing;", stubResolver{})
	if err != nil {
		t.Fatalf("DefaultValue: %v", err)
	}
	if v.Kind != KindUnresolved {
		t.Fatalf("Kind = %v, want KindUnresolved", v.Kind)
	}
	if v.UnresolvedDescriptor() != "Ljava/lang/Thing;" {
		t.Errorf("UnresolvedDescriptor() = %q", v.UnresolvedDescriptor())
	}
}

func TestDefaultValueArrayIsAlwaysConcrete(t *testing.T) {
	v, err := DefaultValue("[I", nil)
	if err != nil {
		t.Fatalf("DefaultValue: %v", err)
	}
	if v.Kind != KindArrayRef || !v.IsNullRef() {
		t.Errorf("DefaultValue([I) = %v, want null ArrayRef", v)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"I":                   "int",
		"Z":                   "boolean",
		"Ljava/lang/String;":  "java.lang.String",
		"[Ljava/lang/String;": "[Ljava.lang.String;",
		"[I":                  "[I",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
