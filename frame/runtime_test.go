package frame

import (
	"testing"

	"github.com/artipop-edu/minigojvm/classloader"
)

func newTestRuntime() *Runtime {
	loader := classloader.NewLoader(classloader.NewRegistry(), classloader.NewSearchPath())
	return NewRuntime(loader)
}

func TestRuntimeFrameStack(t *testing.T) {
	rt := newTestRuntime()
	if rt.Current() != nil {
		t.Fatal("expected no current frame on a fresh Runtime")
	}

	f1 := NewFrame(nil, 0, 0, []byte{}, "A.m:()V")
	f2 := NewFrame(nil, 0, 0, []byte{}, "B.m:()V")
	if err := rt.PushFrame(f1); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}
	if err := rt.PushFrame(f2); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}
	if rt.Current() != f2 {
		t.Errorf("Current() = %v, want f2", rt.Current())
	}
	if rt.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", rt.Depth())
	}
	if rt.CallerAt(1) != f1 {
		t.Errorf("CallerAt(1) = %v, want f1", rt.CallerAt(1))
	}
	if rt.CallerAt(5) != nil {
		t.Errorf("CallerAt(5) = %v, want nil", rt.CallerAt(5))
	}

	if popped := rt.PopFrame(); popped != f2 {
		t.Errorf("PopFrame() = %v, want f2", popped)
	}
	if rt.Current() != f1 {
		t.Errorf("Current() after pop = %v, want f1", rt.Current())
	}
}

func TestRuntimeIdentityCounterMonotonic(t *testing.T) {
	rt := newTestRuntime()
	a := rt.NextIdentity()
	b := rt.NextIdentity()
	if b != a+1 {
		t.Errorf("NextIdentity() sequence = %d, %d, want consecutive", a, b)
	}
}

func TestRuntimeStdoutCapture(t *testing.T) {
	rt := newTestRuntime()
	rt.Stdout.Write([]byte("hello"))
	if got := rt.StdoutString(); got != "hello" {
		t.Errorf("StdoutString() = %q, want %q", got, "hello")
	}
}

func TestRuntimeMaxFrameDepth(t *testing.T) {
	rt := newTestRuntime()
	for i := 0; i < maxFrameDepth; i++ {
		if err := rt.PushFrame(NewFrame(nil, 0, 0, []byte{}, "T.m:()V")); err != nil {
			t.Fatalf("PushFrame %d: %v", i, err)
		}
	}
	if err := rt.PushFrame(NewFrame(nil, 0, 0, []byte{}, "T.m:()V")); err == nil {
		t.Fatal("expected an error pushing past maxFrameDepth")
	}
}
