package interp

import (
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// controlStep dispatches the branch/switch/return/field/invoke/object
// opcodes (0x99 and above) — split out of step to keep either switch
// a readable size; together they cover the full opcode table.
func controlStep(rt *frame.Runtime, f *frame.Frame, op uint8) (outcome, error) {
	switch op {
	case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle:
		return contOutcome, branchUnary(f, op, f.Pop().Int())
	case OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple:
		b, a := f.Pop().Int(), f.Pop().Int()
		return contOutcome, branchBinaryInt(f, op, a, b)
	case OpIfAcmpeq, OpIfAcmpne:
		b, a := f.Pop(), f.Pop()
		return contOutcome, branchRefEq(f, op, a, b)
	case OpIfnull, OpIfnonnull:
		v := f.Pop()
		return contOutcome, branchNull(f, op, v)
	case OpGoto:
		target := int(f.InstrPC) + int(f.ReadI16())
		f.PC = target
		return contOutcome, nil
	case OpGotoW:
		target := int(f.InstrPC) + int(f.ReadI32())
		f.PC = target
		return contOutcome, nil
	case OpJsr:
		ret := f.PC + 2
		target := int(f.InstrPC) + int(f.ReadI16())
		f.Push(jvmvalue.IntValue(int32(ret)))
		f.PC = target
		return contOutcome, nil
	case OpJsrW:
		ret := f.PC + 4
		target := int(f.InstrPC) + int(f.ReadI32())
		f.Push(jvmvalue.IntValue(int32(ret)))
		f.PC = target
		return contOutcome, nil
	case OpRet:
		f.PC = int(f.GetLocal(int(f.ReadU8())).Int())
		return contOutcome, nil
	case OpTableswitch:
		return contOutcome, tableswitch(f)
	case OpLookupswitch:
		return contOutcome, lookupswitch(f)

	case OpIreturn, OpFreturn, OpLreturn, OpDreturn, OpAreturn:
		return returnOutcome(f.Pop()), nil
	case OpReturn:
		return voidReturnOutcome, nil

	case OpGetstatic:
		return contOutcome, getstatic(rt, f)
	case OpPutstatic:
		return contOutcome, putstatic(rt, f)
	case OpGetfield:
		return contOutcome, getfield(rt, f)
	case OpPutfield:
		return contOutcome, putfield(rt, f)

	case OpInvokevirtual:
		return invokeVirtual(rt, f)
	case OpInvokespecial:
		return invokeSpecial(rt, f)
	case OpInvokestatic:
		return invokeStatic(rt, f)
	case OpInvokeinterface:
		return invokeInterface(rt, f)
	case OpInvokedynamic:
		return outcome{}, runnerErrorf(ErrClassInvalid, "invokedynamic is not supported")

	case OpNew:
		return contOutcome, newObject(rt, f)
	case OpNewarray:
		return contOutcome, newarray(rt, f)
	case OpAnewarray:
		return contOutcome, anewarray(rt, f)
	case OpMultianewarray:
		return contOutcome, multianewarray(rt, f)
	case OpArraylength:
		return contOutcome, arraylength(rt, f)
	case OpAthrow:
		return outcome{}, athrow(rt, f)
	case OpCheckcast:
		return contOutcome, checkcast(rt, f)
	case OpInstanceof:
		return contOutcome, instanceof(rt, f)
	case OpMonitorenter, OpMonitorexit:
		f.Pop() // single-threaded interpreter: monitors are no-ops
		return contOutcome, nil
	case OpWide:
		return wide(f)

	default:
		return outcome{}, runnerErrorf(ErrUnknownOpcode, "unknown opcode 0x%02x at PC %d", op, f.InstrPC)
	}
}

func branchUnary(f *frame.Frame, op uint8, v int32) error {
	target := int(f.InstrPC) + int(f.ReadI16())
	taken := false
	switch op {
	case OpIfeq:
		taken = v == 0
	case OpIfne:
		taken = v != 0
	case OpIflt:
		taken = v < 0
	case OpIfge:
		taken = v >= 0
	case OpIfgt:
		taken = v > 0
	case OpIfle:
		taken = v <= 0
	}
	if taken {
		f.PC = target
	}
	return nil
}

func branchBinaryInt(f *frame.Frame, op uint8, a, b int32) error {
	target := int(f.InstrPC) + int(f.ReadI16())
	taken := false
	switch op {
	case OpIfIcmpeq:
		taken = a == b
	case OpIfIcmpne:
		taken = a != b
	case OpIfIcmplt:
		taken = a < b
	case OpIfIcmpge:
		taken = a >= b
	case OpIfIcmpgt:
		taken = a > b
	case OpIfIcmple:
		taken = a <= b
	}
	if taken {
		f.PC = target
	}
	return nil
}

func branchRefEq(f *frame.Frame, op uint8, a, b jvmvalue.Value) error {
	target := int(f.InstrPC) + int(f.ReadI16())
	same := refIdentical(a, b)
	if op == OpIfAcmpne {
		same = !same
	}
	if same {
		f.PC = target
	}
	return nil
}

func refIdentical(a, b jvmvalue.Value) bool {
	if a.IsNullRef() && b.IsNullRef() {
		return true
	}
	if a.Kind == jvmvalue.KindObjectRef && b.Kind == jvmvalue.KindObjectRef {
		return a.Obj() == b.Obj()
	}
	if a.Kind == jvmvalue.KindArrayRef && b.Kind == jvmvalue.KindArrayRef {
		return a.Arr() == b.Arr()
	}
	return false
}

func branchNull(f *frame.Frame, op uint8, v jvmvalue.Value) error {
	target := int(f.InstrPC) + int(f.ReadI16())
	isNull := v.IsNullRef()
	if op == OpIfnonnull {
		isNull = !isNull
	}
	if isNull {
		f.PC = target
	}
	return nil
}

// tableswitch/lookupswitch's operand block begins at the first 4-byte
// boundary counted from the start of the code array, per JVM spec
// §6.5 — not relative to the opcode's own offset.
func align4(f *frame.Frame) {
	for f.PC%4 != 0 {
		f.ReadU8()
	}
}

func tableswitch(f *frame.Frame) error {
	align4(f)
	def := f.ReadI32()
	low := f.ReadI32()
	high := f.ReadI32()
	key := f.Pop().Int()
	if key < low || key > high {
		f.PC = f.InstrPC + int(def)
		return nil
	}
	offset := key - low
	for i := int32(0); i < offset; i++ {
		f.ReadI32()
	}
	target := f.ReadI32()
	f.PC = f.InstrPC + int(target)
	return nil
}

func lookupswitch(f *frame.Frame) error {
	align4(f)
	def := f.ReadI32()
	npairs := f.ReadI32()
	key := f.Pop().Int()
	for i := int32(0); i < npairs; i++ {
		match := f.ReadI32()
		target := f.ReadI32()
		if match == key {
			f.PC = f.InstrPC + int(target)
			return nil
		}
	}
	f.PC = f.InstrPC + int(def)
	return nil
}

func wide(f *frame.Frame) (outcome, error) {
	modified := f.ReadU8()
	index := int(f.ReadU16())
	switch modified {
	case OpIload, OpLload, OpFload, OpDload, OpAload:
		f.Push(f.GetLocal(index))
	case OpIstore, OpLstore, OpFstore, OpDstore, OpAstore:
		f.SetLocal(index, f.Pop())
	case OpIinc:
		delta := int32(f.ReadI16())
		f.SetLocal(index, jvmvalue.IntValue(f.GetLocal(index).Int()+delta))
	case OpRet:
		f.PC = int(f.GetLocal(index).Int())
	default:
		return outcome{}, runnerErrorf(ErrUnknownOpcode, "wide: unsupported modified opcode 0x%02x", modified)
	}
	return contOutcome, nil
}
