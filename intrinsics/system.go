package intrinsics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/artipop-edu/minigojvm/classloader"
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/interp"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

func init() {
	register("java/lang/System", "registerNatives", "()V", noop)
	register("java/lang/System", "arraycopy", "(Ljava/lang/Object;ILjava/lang/Object;II)V", systemArraycopy)
	register("java/lang/System", "initProperties", "(Ljava/util/Properties;)Ljava/util/Properties;", systemInitProperties)
	register("java/lang/System", "setIn0", "(Ljava/io/InputStream;)V", systemSetIn0)
	register("java/lang/System", "setOut0", "(Ljava/io/PrintStream;)V", systemSetOut0)
	register("java/lang/System", "setErr0", "(Ljava/io/PrintStream;)V", systemSetErr0)
	register("java/lang/System", "identityHashCode", "(Ljava/lang/Object;)I", systemIdentityHashCode)
	register("java/lang/System", "loadLibrary", "(Ljava/lang/String;)V", noop)

	register("java/lang/Runtime", "availableProcessors", "()I", runtimeAvailableProcessors)

	for _, desc := range []string{"()V", "(Ljava/lang/String;)V", "(I)V", "(J)V", "(D)V", "(F)V", "(C)V", "(Z)V", "(Ljava/lang/Object;)V"} {
		desc := desc
		register("java/io/PrintStream", "println", desc, func(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
			return printStream(rt, this, args, true)
		})
		register("java/io/PrintStream", "print", desc, func(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
			return printStream(rt, this, args, false)
		})
	}
}

// systemArraycopy implements spec §4.10's literal description: null-
// check both arrays, then copy element by element (no special-casing
// of overlapping ranges, matching the spec's explicit exemption).
func systemArraycopy(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	src, srcPos, dst, dstPos, length := args[0], args[1].Int(), args[2], args[3].Int(), args[4].Int()
	if src.IsNullRef() || dst.IsNullRef() {
		return jvmvalue.Value{}, true, interp.ThrowNamed(rt, "java/lang/NullPointerException", "")
	}
	srcArr, dstArr := src.Arr(), dst.Arr()
	if srcPos < 0 || dstPos < 0 || length < 0 ||
		int(srcPos+length) > len(srcArr.Values) || int(dstPos+length) > len(dstArr.Values) {
		return jvmvalue.Value{}, true, interp.ThrowNamed(rt, "java/lang/ArrayIndexOutOfBoundsException", "")
	}
	for i := int32(0); i < length; i++ {
		dstArr.Values[dstPos+i] = srcArr.Values[srcPos+i]
	}
	return jvmvalue.Value{}, true, nil
}

// systemInitProperties populates the supplied Properties object with
// the one entry spec §4.10 requires, via a real put() call so the
// result is an ordinary guest Properties instance rather than a
// host-side stand-in.
func systemInitProperties(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	props := args[0]
	if propsClass, ok := props.Obj().Class.(*classloader.Class); ok {
		key := interp.InternString(rt, "file.encoding")
		val := interp.InternString(rt, "us-ascii")
		_, _, err := interp.InvokeNested(rt, propsClass, "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;",
			props, true, []jvmvalue.Value{jvmvalue.ObjectRefValue(key), jvmvalue.ObjectRefValue(val)})
		if err != nil {
			return jvmvalue.Value{}, false, err
		}
	}
	return props, false, nil
}

func systemSetIn0(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return setSystemStatic(rt, "in", args[0])
}

func systemSetOut0(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return setSystemStatic(rt, "out", args[0])
}

func systemSetErr0(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return setSystemStatic(rt, "err", args[0])
}

func setSystemStatic(rt *frame.Runtime, field string, v jvmvalue.Value) (jvmvalue.Value, bool, error) {
	cls, err := rt.Loader.LoadClass("java/lang/System")
	if err != nil {
		return jvmvalue.Value{}, true, err
	}
	cls.PutStatic(field, v)
	return jvmvalue.Value{}, true, nil
}

func systemIdentityHashCode(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.IntValue(identityHash(args[0])), false, nil
}

func runtimeAvailableProcessors(rt *frame.Runtime, this jvmvalue.Value, hasThis bool, args []jvmvalue.Value) (jvmvalue.Value, bool, error) {
	return jvmvalue.IntValue(1), false, nil
}

// printStream resolves this PrintStream instance to rt.Stdout or
// rt.Stderr by identity against java/lang/System's "out"/"err" static
// fields (falling back to Stdout for any other PrintStream, e.g. one
// the guest constructed directly), formats args[0] if present, and
// writes it — spec §5's "print intrinsics write to in-memory buffers"
// requirement.
func printStream(rt *frame.Runtime, this jvmvalue.Value, args []jvmvalue.Value, newline bool) (jvmvalue.Value, bool, error) {
	w := streamFor(rt, this)
	if len(args) == 0 {
		if newline {
			fmt.Fprintln(w)
		}
		return jvmvalue.Value{}, true, nil
	}
	s := formatPrintArg(args[0])
	if newline {
		fmt.Fprintln(w, s)
	} else {
		fmt.Fprint(w, s)
	}
	return jvmvalue.Value{}, true, nil
}

func streamFor(rt *frame.Runtime, this jvmvalue.Value) io.Writer {
	sysCls, err := rt.Loader.LoadClass("java/lang/System")
	if err == nil {
		if errv, ok := sysCls.GetStatic("err"); ok && !errv.IsNullRef() && !this.IsNullRef() && errv.Obj() == this.Obj() {
			return rt.Stderr
		}
	}
	return rt.Stdout
}

func formatPrintArg(v jvmvalue.Value) string {
	switch v.Kind {
	case jvmvalue.KindInt, jvmvalue.KindShort, jvmvalue.KindByte:
		return strconv.FormatInt(int64(v.Int()), 10)
	case jvmvalue.KindLong:
		return strconv.FormatInt(v.Long(), 10)
	case jvmvalue.KindFloat:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case jvmvalue.KindDouble:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case jvmvalue.KindChar:
		return string(rune(v.Char()))
	case jvmvalue.KindBoolean:
		return strconv.FormatBool(v.Bool())
	case jvmvalue.KindObjectRef:
		if v.IsNullRef() {
			return "null"
		}
		if v.Obj().FindLevel("java/lang/String") != nil {
			return interp.GoString(v.Obj())
		}
		return fmt.Sprintf("%s@%x", v.Obj().Class.Name(), v.Obj().ID)
	default:
		return v.String()
	}
}
