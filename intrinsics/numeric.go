package intrinsics

import (
	"math"

	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// Bit-cast intrinsics: the JVM spec requires these to preserve the
// exact IEEE-754 bit pattern, including NaN payloads — math.Float32bits/
// Float32frombits (and their 64-bit counterparts) do exactly that,
// unlike a numeric float->int conversion.
func init() {
	register("java/lang/Float", "floatToRawIntBits", "(F)I", floatToRawIntBits)
	register("java/lang/Float", "intBitsToFloat", "(I)F", intBitsToFloat)
	register("java/lang/Double", "doubleToRawLongBits", "(D)J", doubleToRawLongBits)
	register("java/lang/Double", "longBitsToDouble", "(J)D", longBitsToDouble)
}

func floatToRawIntBits(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.IntValue(int32(math.Float32bits(args[0].Float()))), false, nil
}

func intBitsToFloat(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.FloatValue(math.Float32frombits(uint32(args[0].Int()))), false, nil
}

func doubleToRawLongBits(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.LongValue(int64(math.Float64bits(args[0].Double()))), false, nil
}

func longBitsToDouble(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.DoubleValue(math.Float64frombits(uint64(args[0].Long()))), false, nil
}
