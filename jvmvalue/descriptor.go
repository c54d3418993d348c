package jvmvalue

import (
	"fmt"
	"strings"
)

// ClassResolver looks up an already-loaded class by internal name,
// without triggering a load — used only to decide whether a reference
// field's default value can be a concrete null Object-ref or must fall
// back to Unresolved. classloader.Registry implements this.
type ClassResolver interface {
	Resolve(name string) (Class, bool)
}

// ParseField consumes one field (non-method) type descriptor from the
// front of s and returns it along with the unconsumed remainder.
func ParseField(s string) (desc string, rest string, err error) {
	if s == "" {
		return "", "", fmt.Errorf("empty descriptor")
	}
	switch s[0] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return s[:1], s[1:], nil
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated reference descriptor %q", s)
		}
		return s[:end+1], s[end+1:], nil
	case '[':
		elem, rest, err := ParseField(s[1:])
		if err != nil {
			return "", "", err
		}
		return "[" + elem, rest, nil
	default:
		return "", "", fmt.Errorf("invalid descriptor %q", s)
	}
}

// MethodDescriptor is the parsed form of a `(params)return` method
// descriptor.
type MethodDescriptor struct {
	Params []string // one entry per formal parameter's descriptor
	Return string   // "" if void
}

// ParseMethod parses a complete method descriptor, e.g. "(ILjava/lang/String;)V".
func ParseMethod(s string) (*MethodDescriptor, error) {
	if len(s) == 0 || s[0] != '(' {
		return nil, fmt.Errorf("method descriptor %q missing opening paren", s)
	}
	s = s[1:]
	var params []string
	for len(s) > 0 && s[0] != ')' {
		p, rest, err := ParseField(s)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
		s = rest
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("method descriptor missing closing paren")
	}
	s = s[1:] // consume ')'
	if s == "V" {
		return &MethodDescriptor{Params: params}, nil
	}
	ret, rest, err := ParseField(s)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("trailing data %q after return descriptor", rest)
	}
	return &MethodDescriptor{Params: params, Return: ret}, nil
}

// IsVoid reports whether this descriptor declares no return value.
func (m *MethodDescriptor) IsVoid() bool { return m.Return == "" }

// SlotCount returns the number of local-variable/operand-stack slots
// the parameters occupy, counting Long and Double as two each.
func (m *MethodDescriptor) SlotCount() int {
	n := 0
	for _, p := range m.Params {
		n++
		if p == "J" || p == "D" {
			n++
		}
	}
	return n
}

// ParamValues builds the padded local-variable slots for this
// descriptor's arguments: each supplied argument occupies its natural
// slot count, with a second padding slot inserted after every Long or
// Double so the interpreter's local-variable indices line up with the
// JVM spec's slot numbering.
func (m *MethodDescriptor) ParamValues(args []Value) ([]Value, error) {
	if len(args) != len(m.Params) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(m.Params), len(args))
	}
	out := make([]Value, 0, m.SlotCount())
	for i, p := range m.Params {
		out = append(out, args[i])
		if p == "J" || p == "D" {
			out = append(out, Value{}) // padding slot, never read
		}
	}
	return out, nil
}

// DefaultValue returns the zero value for a field/local/static
// descriptor. Reference descriptors resolve to a concrete null
// Object-ref when resolver already has the class loaded; otherwise
// (or if resolver is nil) they resolve to an Unresolved value carrying
// the descriptor for later lazy typing. Array descriptors always
// resolve to a concrete null ArrayObject-ref since arrays need no class
// load to construct.
func DefaultValue(descriptor string, resolver ClassResolver) (Value, error) {
	if descriptor == "" {
		return Value{}, fmt.Errorf("empty descriptor")
	}
	switch descriptor[0] {
	case 'B':
		return ByteValue(0), nil
	case 'C':
		return CharValue(0), nil
	case 'D':
		return DoubleValue(0), nil
	case 'F':
		return FloatValue(0), nil
	case 'I':
		return IntValue(0), nil
	case 'J':
		return LongValue(0), nil
	case 'S':
		return ShortValue(0), nil
	case 'Z':
		return BoolValue(false), nil
	case 'L':
		if len(descriptor) < 2 || descriptor[len(descriptor)-1] != ';' {
			return Value{}, fmt.Errorf("invalid reference descriptor %q", descriptor)
		}
		className := descriptor[1 : len(descriptor)-1]
		if resolver != nil {
			if cls, ok := resolver.Resolve(className); ok {
				return ObjectRefValue(NullObject(cls)), nil
			}
		}
		return UnresolvedValue(descriptor), nil
	case '[':
		elem, rest, err := ParseField(descriptor[1:])
		if err != nil {
			return Value{}, err
		}
		if rest != "" {
			return Value{}, fmt.Errorf("trailing data %q after array element descriptor", rest)
		}
		if elem[0] == 'L' || elem[0] == '[' {
			var elemClass Class
			if elem[0] == 'L' && resolver != nil {
				elemClass, _ = resolver.Resolve(elem[1 : len(elem)-1])
			}
			return ArrayRefValue(NullArray(elemClass, 0)), nil
		}
		return ArrayRefValue(NullArray(nil, elem[0])), nil
	default:
		return Value{}, fmt.Errorf("invalid descriptor %q", descriptor)
	}
}

// DisplayName renders a descriptor the way java.lang.Class.getName()
// would: primitives as their keyword ("int" not "I"), reference types
// dotted ("java.lang.String" not "Ljava/lang/String;"), arrays kept in
// descriptor form with slashes turned to dots ("[Ljava.lang.String;").
func DisplayName(descriptor string) string {
	switch {
	case descriptor == "B":
		return "byte"
	case descriptor == "C":
		return "char"
	case descriptor == "D":
		return "double"
	case descriptor == "F":
		return "float"
	case descriptor == "I":
		return "int"
	case descriptor == "J":
		return "long"
	case descriptor == "S":
		return "short"
	case descriptor == "Z":
		return "boolean"
	case descriptor == "V":
		return "void"
	case strings.HasPrefix(descriptor, "L") && strings.HasSuffix(descriptor, ";"):
		return strings.ReplaceAll(descriptor[1:len(descriptor)-1], "/", ".")
	case strings.HasPrefix(descriptor, "["):
		return strings.ReplaceAll(descriptor, "/", ".")
	default:
		return descriptor
	}
}
