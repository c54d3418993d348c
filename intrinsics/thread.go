package intrinsics

import (
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/interp"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func init() {
	register("java/lang/Thread", "registerNatives", "()V", noop)
	register("java/lang/Thread", "isAlive", "()Z", threadIsAlive)
	register("java/lang/Thread", "start0", "()V", noop)
	register("java/lang/Thread", "setPriority0", "(I)V", threadSetPriority0)
	register("java/lang/Thread", "currentThread", "()Ljava/lang/Thread;", threadCurrentThread)
}

// threadIsAlive always reports false: spec §5's cooperative
// single-threaded model never actually runs start0, so no Thread
// object this interpreter creates is ever really alive.
func threadIsAlive(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.BoolValue(false), false, nil
}

func threadSetPriority0(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	if !this.IsNullRef() {
		if level := this.Obj().FindLevel("java/lang/Thread"); level != nil {
			if _, ok := level.Fields["priority"]; ok {
				level.Fields["priority"] = args[0]
			}
		}
	}
	return jvmvalue.Value{}, true, nil
}

// threadCurrentThread lazily builds the singleton placeholder Thread
// (and its ThreadGroup) spec §4.10/§5 describe, caching it on
// rt.Thread so repeated calls return the identical object.
func threadCurrentThread(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	if rt.Thread != nil {
		return jvmvalue.ObjectRefValue(rt.Thread), false, nil
	}
	groupClass, err := rt.Loader.LoadClass("java/lang/ThreadGroup")
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	group, err := rt.Loader.ConstructObject(groupClass, rt.NextIdentity)
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	threadClass, err := rt.Loader.LoadClass("java/lang/Thread")
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	thread, err := rt.Loader.ConstructObject(threadClass, rt.NextIdentity)
	if err != nil {
		return jvmvalue.Value{}, false, err
	}
	if level := thread.FindLevel("java/lang/Thread"); level != nil {
		if _, ok := level.Fields["name"]; ok {
			level.Fields["name"] = jvmvalue.ObjectRefValue(interp.InternString(rt, "main"))
		}
		if _, ok := level.Fields["priority"]; ok {
			level.Fields["priority"] = jvmvalue.IntValue(5)
		}
		if _, ok := level.Fields["group"]; ok {
			level.Fields["group"] = jvmvalue.ObjectRefValue(group)
		}
	}
	rt.Thread = thread
	return jvmvalue.ObjectRefValue(thread), false, nil
}
