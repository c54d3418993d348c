package intrinsics

import (
	"math"
	"testing"

	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func TestFloatIntBitsRoundTrip(t *testing.T) {
	cases := []float32{0, 1, -1, 3.14159, float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))}
	for _, f := range cases {
		bits, _, err := floatToRawIntBits(nil, jvmvalue.Value{}, false, []jvmvalue.Value{jvmvalue.FloatValue(f)})
		if err != nil {
			t.Fatalf("floatToRawIntBits(%v): %v", f, err)
		}
		back, _, err := intBitsToFloat(nil, jvmvalue.Value{}, false, []jvmvalue.Value{bits})
		if err != nil {
			t.Fatalf("intBitsToFloat: %v", err)
		}
		// Compare raw bits, not float equality, since NaN != NaN.
		if math.Float32bits(back.Float()) != math.Float32bits(f) {
			t.Errorf("round trip of %v (bits=%x) produced %v (bits=%x)", f, math.Float32bits(f), back.Float(), math.Float32bits(back.Float()))
		}
	}
}

func TestDoubleLongBitsRoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, 2.71828182845, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, d := range cases {
		bits, _, err := doubleToRawLongBits(nil, jvmvalue.Value{}, false, []jvmvalue.Value{jvmvalue.DoubleValue(d)})
		if err != nil {
			t.Fatalf("doubleToRawLongBits(%v): %v", d, err)
		}
		back, _, err := longBitsToDouble(nil, jvmvalue.Value{}, false, []jvmvalue.Value{bits})
		if err != nil {
			t.Fatalf("longBitsToDouble: %v", err)
		}
		if math.Float64bits(back.Double()) != math.Float64bits(d) {
			t.Errorf("round trip of %v produced %v", d, back.Double())
		}
	}
}

func TestIdentityHashDistinguishesNullFromNonNull(t *testing.T) {
	if got := identityHash(jvmvalue.ObjectRefValue(jvmvalue.NullObject(nil))); got != 0 {
		t.Errorf("identityHash(null) = %d, want 0", got)
	}
	obj := jvmvalue.NewObject(nil, 7)
	if got := identityHash(jvmvalue.ObjectRefValue(obj)); got != 7 {
		t.Errorf("identityHash(obj id=7) = %d, want 7", got)
	}
}
