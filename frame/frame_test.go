package frame

import (
	"testing"

	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func TestFramePushPop(t *testing.T) {
	f := NewFrame(nil, 2, 4, []byte{}, "T.m:()V")
	f.Push(jvmvalue.IntValue(1))
	f.Push(jvmvalue.IntValue(2))
	if got := f.Pop().Int(); got != 2 {
		t.Errorf("Pop() = %d, want 2", got)
	}
	if got := f.Pop().Int(); got != 1 {
		t.Errorf("Pop() = %d, want 1", got)
	}
}

func TestFramePeekDoesNotConsume(t *testing.T) {
	f := NewFrame(nil, 0, 2, []byte{}, "T.m:()V")
	f.Push(jvmvalue.IntValue(7))
	if got := f.Peek().Int(); got != 7 {
		t.Errorf("Peek() = %d, want 7", got)
	}
	if got := f.StackLen(); got != 1 {
		t.Errorf("StackLen() = %d, want 1 after Peek", got)
	}
}

func TestFrameClearStack(t *testing.T) {
	f := NewFrame(nil, 0, 4, []byte{}, "T.m:()V")
	f.Push(jvmvalue.IntValue(1))
	f.Push(jvmvalue.IntValue(2))
	f.ClearStack()
	if got := f.StackLen(); got != 0 {
		t.Errorf("StackLen() = %d after ClearStack, want 0", got)
	}
}

func TestFrameLocals(t *testing.T) {
	f := NewFrame(nil, 3, 0, []byte{}, "T.m:()V")
	f.SetLocal(1, jvmvalue.IntValue(42))
	if got := f.GetLocal(1).Int(); got != 42 {
		t.Errorf("GetLocal(1) = %d, want 42", got)
	}
}

func TestFramePushOverflowPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic on stack overflow")
		}
	}()
	f := NewFrame(nil, 0, 1, []byte{}, "T.m:()V")
	f.Push(jvmvalue.IntValue(1))
	f.Push(jvmvalue.IntValue(2))
}

func TestFrameCodeCursorReaders(t *testing.T) {
	f := NewFrame(nil, 0, 0, []byte{0x01, 0xFF, 0x00, 0x10, 0xFF, 0xFF, 0xFF, 0xFE}, "T.m:()V")
	if got := f.ReadU8(); got != 0x01 {
		t.Errorf("ReadU8() = %#x, want 0x01", got)
	}
	if got := f.ReadI8(); got != -1 {
		t.Errorf("ReadI8() = %d, want -1", got)
	}
	if got := f.ReadU16(); got != 0x0010 {
		t.Errorf("ReadU16() = %#x, want 0x0010", got)
	}
	if got := f.ReadI32(); got != -2 {
		t.Errorf("ReadI32() = %d, want -2", got)
	}
}
