package intrinsics

import (
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/interp"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func init() {
	register("java/lang/String", "intern", "()Ljava/lang/String;", stringIntern)
}

// stringIntern returns the canonical String object for this instance's
// contents, via the same Interned pool ldc uses — spec §4.10,
// testable property "string interning" (spec §8).
func stringIntern(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	if this.IsNullRef() {
		return jvmvalue.Value{}, false, interp.ThrowNamed(rt, "java/lang/NullPointerException", "")
	}
	return jvmvalue.ObjectRefValue(interp.InternString(rt, interp.GoString(this.Obj()))), false, nil
}
