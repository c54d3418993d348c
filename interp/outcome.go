package interp

import "github.com/artipop-edu/minigojvm/jvmvalue"

// outcomeKind distinguishes the three ways dispatching one opcode can
// end, per spec §4.8's non-local outcomes (Exception and Error are
// reported as the step function's error return instead, not here).
type outcomeKind int

const (
	outContinue outcomeKind = iota // ordinary opcode, keep stepping the same frame
	outReturn                      // a return opcode popped the current method
	outInvoke                      // a bytecode method frame was pushed; resume on it
)

type outcome struct {
	kind  outcomeKind
	value jvmvalue.Value
	void  bool
}

var contOutcome = outcome{kind: outContinue}
var invokeOutcome = outcome{kind: outInvoke}

func returnOutcome(v jvmvalue.Value) outcome { return outcome{kind: outReturn, value: v} }

var voidReturnOutcome = outcome{kind: outReturn, void: true}
