// Package frame holds the call-stack Frame and the Runtime that owns
// it together with the class registry, interned strings, and the
// other process-wide state spec §3 groups under "Runtime".
package frame

import (
	"fmt"

	"github.com/artipop-edu/minigojvm/classfile"
	"github.com/artipop-edu/minigojvm/classloader"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// Frame is one executing method activation: its constant pool, a
// growable operand stack, indexed local variables, the method's raw
// bytecode, and a cursor into it. Grounded on pkg/vm/frame.go's Frame
// (LocalVars/OperandStack/SP/Code/PC/Class), widened from the
// teacher's 3-kind Value to jvmvalue.Value and carrying the
// constant pool directly rather than the whole ClassFile, since
// frames are cloned per spec §3 ("a clone from its class").
type Frame struct {
	ConstantPool []classfile.CPEntry
	Locals       []jvmvalue.Value
	stack        []jvmvalue.Value
	sp           int
	Code         []byte
	PC           int
	DebugName    string // "class.method:descriptor", for traces and panics

	// Class and Method identify the activation's owning class and
	// method record, set by the interpreter after NewFrame — the
	// exception-unwind loop consults Method.Code.ExceptionTable and
	// invokespecial's super-dispatch rule consults Class.
	Class  *classloader.Class
	Method *classfile.MethodInfo

	// InstrPC is the PC of the opcode currently being dispatched (set
	// before its operand bytes are consumed) — exception-table lookups
	// match against this rather than the live PC cursor, since by the
	// time a callee throws, a caller frame's PC cursor already points
	// past the call instruction's operands.
	InstrPC int
}

// NewFrame allocates a Frame for a method with the given max_locals /
// max_stack and bytecode.
func NewFrame(pool []classfile.CPEntry, maxLocals, maxStack uint16, code []byte, debugName string) *Frame {
	return &Frame{
		ConstantPool: pool,
		Locals:       make([]jvmvalue.Value, maxLocals),
		stack:        make([]jvmvalue.Value, maxStack),
		Code:         code,
		DebugName:    debugName,
	}
}

func (f *Frame) Push(v jvmvalue.Value) {
	if f.sp >= len(f.stack) {
		panic(fmt.Sprintf("%s: operand stack overflow (max=%d)", f.DebugName, len(f.stack)))
	}
	f.stack[f.sp] = v
	f.sp++
}

func (f *Frame) Pop() jvmvalue.Value {
	if f.sp <= 0 {
		panic(fmt.Sprintf("%s: operand stack underflow", f.DebugName))
	}
	f.sp--
	return f.stack[f.sp]
}

// Peek returns the top of the operand stack without popping it.
func (f *Frame) Peek() jvmvalue.Value {
	if f.sp <= 0 {
		panic(fmt.Sprintf("%s: operand stack empty on Peek", f.DebugName))
	}
	return f.stack[f.sp-1]
}

// StackLen reports the current operand-stack depth.
func (f *Frame) StackLen() int { return f.sp }

// ClearStack empties the operand stack — used when an exception
// handler takes over a frame (spec §4.8's Exception(Value) case).
func (f *Frame) ClearStack() { f.sp = 0 }

func (f *Frame) GetLocal(index int) jvmvalue.Value {
	if index < 0 || index >= len(f.Locals) {
		panic(fmt.Sprintf("%s: local index %d out of range (max=%d)", f.DebugName, index, len(f.Locals)))
	}
	return f.Locals[index]
}

func (f *Frame) SetLocal(index int, v jvmvalue.Value) {
	if index < 0 || index >= len(f.Locals) {
		panic(fmt.Sprintf("%s: local index %d out of range (max=%d)", f.DebugName, index, len(f.Locals)))
	}
	f.Locals[index] = v
}

func (f *Frame) ReadU8() uint8 {
	v := f.Code[f.PC]
	f.PC++
	return v
}

func (f *Frame) ReadI8() int8 {
	v := int8(f.Code[f.PC])
	f.PC++
	return v
}

func (f *Frame) ReadU16() uint16 {
	v := uint16(f.Code[f.PC])<<8 | uint16(f.Code[f.PC+1])
	f.PC += 2
	return v
}

func (f *Frame) ReadI16() int16 {
	v := int16(f.Code[f.PC])<<8 | int16(f.Code[f.PC+1])
	f.PC += 2
	return v
}

func (f *Frame) ReadU32() uint32 {
	v := uint32(f.Code[f.PC])<<24 | uint32(f.Code[f.PC+1])<<16 | uint32(f.Code[f.PC+2])<<8 | uint32(f.Code[f.PC+3])
	f.PC += 4
	return v
}

func (f *Frame) ReadI32() int32 { return int32(f.ReadU32()) }
