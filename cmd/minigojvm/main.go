// Command minigojvm runs a single compiled .class file to completion.
//
// Grounded on the teacher's cmd/gojvm/main.go: the same argv shape (a
// class-file path followed by arguments forwarded to main), the same
// JAVA_HOME/glob fallback for locating java.base.jmod, and the same
// "build a loader, execute a class, report an uncaught error to
// stderr" structure — generalized to drive the new
// classloader.Registry/Loader/frame.Runtime/interp stack instead of
// the teacher's vm.JmodClassLoader/vm.VM pair.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/artipop-edu/minigojvm/classfile"
	"github.com/artipop-edu/minigojvm/classloader"
	"github.com/artipop-edu/minigojvm/frame"
	"github.com/artipop-edu/minigojvm/interp"
	_ "github.com/artipop-edu/minigojvm/intrinsics"
	"github.com/artipop-edu/minigojvm/jvmvalue"
)

// findJmodPath locates java.base.jmod the way the teacher's
// findJmodPath does: an explicit override first, then JAVA_HOME's
// jmods directory, then a best-effort glob over common OpenJDK
// install locations.
func findJmodPath() string {
	if env := os.Getenv("MINIGOJVM_JAVA_BASE_JMOD"); env != "" {
		return env
	}
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		p := filepath.Join(javaHome, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	matches, _ := filepath.Glob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

// buildLoader chains the class's own directory ahead of java.base.jmod
// (when found), first-match-wins, mirroring UserClassLoader falling
// back to the bootstrap JmodClassLoader.
func buildLoader(classDir string) *classloader.Loader {
	roots := []classloader.SearchRoot{classloader.DirRoot{Path: classDir}}
	if jmod := findJmodPath(); jmod != "" {
		roots = append(roots, &classloader.ZipRoot{ArchivePath: jmod, MemberPrefix: "classes/"})
	}
	registry := classloader.NewRegistry()
	return classloader.NewLoader(registry, classloader.NewSearchPath(roots...))
}

// stringArgs builds the String[] argument array a main(String[])
// entry point expects, interning each element the same way a guest
// ldc of a string literal would.
func stringArgs(rt *frame.Runtime, argv []string) (*jvmvalue.ArrayObject, error) {
	strCls, err := rt.Loader.LoadClass("java/lang/String")
	if err != nil {
		return nil, fmt.Errorf("loading java/lang/String: %w", err)
	}
	arr := jvmvalue.NewArrayObject(strCls, len(argv), rt.NextIdentity())
	for i, s := range argv {
		arr.Values[i] = jvmvalue.ObjectRefValue(interp.InternString(rt, s))
	}
	return arr, nil
}

// run loads className from classFile's directory (plus java.base.jmod
// on the search path), resolves methodName on it — preferring the
// conventional (String[])V entry point and falling back to a bare ()V
// one, per spec §6's embedding API — and executes it to completion.
func run(classFile, methodName string, argv []string) (stdout, stderr string, err error) {
	dir := filepath.Dir(classFile)
	name := strings.TrimSuffix(filepath.Base(classFile), ".class")

	loader := buildLoader(dir)
	rt := frame.NewRuntime(loader)
	loader.Invoke = func(c *classloader.Class) error {
		_, _, err := interp.InvokeNested(rt, c, "<clinit>", "()V", jvmvalue.Value{}, false, nil)
		return err
	}
	if os.Getenv("MINIGOJVM_TRACE") != "" {
		rt.TraceWriter = os.Stderr
	}

	cls, loadErr := loader.LoadClass(name)
	if loadErr != nil {
		return "", "", fmt.Errorf("loading class %s: %w", name, loadErr)
	}

	declClass, method := cls.ResolveMethod(methodName, "([Ljava/lang/String;)V")
	var args []jvmvalue.Value
	if method != nil {
		arr, argErr := stringArgs(rt, argv)
		if argErr != nil {
			return "", "", argErr
		}
		args = []jvmvalue.Value{jvmvalue.ArrayRefValue(arr)}
	} else if declClass, method = cls.ResolveMethod(methodName, "()V"); method == nil {
		return "", "", fmt.Errorf("no %s([Ljava/lang/String;)V or %s()V method on %s", methodName, methodName, name)
	}
	if method.AccessFlags&classfile.AccStatic == 0 {
		return "", "", fmt.Errorf("%s.%s is not static", name, methodName)
	}

	_, _, execErr := interp.Execute(rt, declClass, method, jvmvalue.Value{}, false, args)
	return rt.StdoutString(), rt.StderrString(), execErr
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: minigojvm <classfile> [args...]\n")
		os.Exit(1)
	}
	stdout, stderr, err := run(os.Args[1], "main", os.Args[2:])
	os.Stdout.WriteString(stdout)
	os.Stderr.WriteString(stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing: %v\n", err)
		os.Exit(1)
	}
}
