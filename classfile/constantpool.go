package classfile

import (
	"encoding/binary"
	"io"
	"math"
)

// Constant pool tags (JVM spec table 4.4-A).
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagInvokeDynamic      = 18
)

// CPEntry is implemented by every constant pool item kind.
type CPEntry interface {
	Tag() uint8
}

type CPUtf8 struct{ Value string }

func (c *CPUtf8) Tag() uint8 { return TagUtf8 }

type CPInteger struct{ Value int32 }

func (c *CPInteger) Tag() uint8 { return TagInteger }

type CPLong struct{ Value int64 }

func (c *CPLong) Tag() uint8 { return TagLong }

type CPFloat struct{ Value float32 }

func (c *CPFloat) Tag() uint8 { return TagFloat }

type CPDouble struct{ Value float64 }

func (c *CPDouble) Tag() uint8 { return TagDouble }

type CPClass struct{ NameIndex uint16 }

func (c *CPClass) Tag() uint8 { return TagClass }

type CPString struct{ StringIndex uint16 }

func (c *CPString) Tag() uint8 { return TagString }

type CPFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *CPFieldref) Tag() uint8 { return TagFieldref }

type CPMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *CPMethodref) Tag() uint8 { return TagMethodref }

type CPInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *CPInterfaceMethodref) Tag() uint8 { return TagInterfaceMethodref }

type CPNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *CPNameAndType) Tag() uint8 { return TagNameAndType }

// CPMethodHandle, CPMethodType and CPInvokeDynamic are recorded but
// never resolved by the interpreter (invokedynamic is out of scope for
// the test programs this spec targets); their payload is kept so the
// constant-pool slot accounting (and any future consumer) stays exact.
type CPMethodHandle struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (c *CPMethodHandle) Tag() uint8 { return TagMethodHandle }

type CPMethodType struct{ DescriptorIndex uint16 }

func (c *CPMethodType) Tag() uint8 { return TagMethodType }

type CPInvokeDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *CPInvokeDynamic) Tag() uint8 { return TagInvokeDynamic }

// parseConstantPool reads cpCount-1 entries starting at logical index
// 1. Long and Double entries consume two logical indices; the second
// index of each is left nil, exactly as the JVM spec mandates.
func parseConstantPool(r io.Reader, cpCount uint16) ([]CPEntry, error) {
	pool := make([]CPEntry, cpCount)

	for i := uint16(1); i < cpCount; i++ {
		var tag uint8
		if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
			return nil, ioErrorf("reading constant pool tag at index %d: %v", i, err)
		}

		switch tag {
		case TagUtf8:
			var length uint16
			if err := binary.Read(r, binary.BigEndian, &length); err != nil {
				return nil, ioErrorf("reading Utf8 length at index %d: %v", i, err)
			}
			raw := make([]byte, length)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, ioErrorf("reading Utf8 bytes at index %d: %v", i, err)
			}
			s, err := decodeModifiedUTF8(raw)
			if err != nil {
				return nil, err
			}
			pool[i] = &CPUtf8{Value: s}

		case TagInteger:
			var v int32
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return nil, ioErrorf("reading Integer at index %d: %v", i, err)
			}
			pool[i] = &CPInteger{Value: v}

		case TagFloat:
			var bits uint32
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return nil, ioErrorf("reading Float at index %d: %v", i, err)
			}
			pool[i] = &CPFloat{Value: math.Float32frombits(bits)}

		case TagLong:
			var v int64
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return nil, ioErrorf("reading Long at index %d: %v", i, err)
			}
			pool[i] = &CPLong{Value: v}
			i++ // occupies two logical slots

		case TagDouble:
			var bits uint64
			if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
				return nil, ioErrorf("reading Double at index %d: %v", i, err)
			}
			pool[i] = &CPDouble{Value: math.Float64frombits(bits)}
			i++ // occupies two logical slots

		case TagClass:
			var nameIndex uint16
			if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
				return nil, ioErrorf("reading Class at index %d: %v", i, err)
			}
			pool[i] = &CPClass{NameIndex: nameIndex}

		case TagString:
			var stringIndex uint16
			if err := binary.Read(r, binary.BigEndian, &stringIndex); err != nil {
				return nil, ioErrorf("reading String at index %d: %v", i, err)
			}
			pool[i] = &CPString{StringIndex: stringIndex}

		case TagFieldref:
			classIndex, natIndex, err := readTwoU16(r)
			if err != nil {
				return nil, ioErrorf("reading Fieldref at index %d: %v", i, err)
			}
			pool[i] = &CPFieldref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}

		case TagMethodref:
			classIndex, natIndex, err := readTwoU16(r)
			if err != nil {
				return nil, ioErrorf("reading Methodref at index %d: %v", i, err)
			}
			pool[i] = &CPMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}

		case TagInterfaceMethodref:
			classIndex, natIndex, err := readTwoU16(r)
			if err != nil {
				return nil, ioErrorf("reading InterfaceMethodref at index %d: %v", i, err)
			}
			pool[i] = &CPInterfaceMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}

		case TagNameAndType:
			nameIndex, descIndex, err := readTwoU16(r)
			if err != nil {
				return nil, ioErrorf("reading NameAndType at index %d: %v", i, err)
			}
			pool[i] = &CPNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex}

		case TagMethodHandle:
			var kind uint8
			if err := binary.Read(r, binary.BigEndian, &kind); err != nil {
				return nil, ioErrorf("reading MethodHandle kind at index %d: %v", i, err)
			}
			var refIndex uint16
			if err := binary.Read(r, binary.BigEndian, &refIndex); err != nil {
				return nil, ioErrorf("reading MethodHandle ref index at index %d: %v", i, err)
			}
			pool[i] = &CPMethodHandle{ReferenceKind: kind, ReferenceIndex: refIndex}

		case TagMethodType:
			var descIndex uint16
			if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
				return nil, ioErrorf("reading MethodType at index %d: %v", i, err)
			}
			pool[i] = &CPMethodType{DescriptorIndex: descIndex}

		case TagInvokeDynamic:
			bsmIndex, natIndex, err := readTwoU16(r)
			if err != nil {
				return nil, ioErrorf("reading InvokeDynamic at index %d: %v", i, err)
			}
			pool[i] = &CPInvokeDynamic{BootstrapMethodAttrIndex: bsmIndex, NameAndTypeIndex: natIndex}

		default:
			return nil, parseErrorf("unknown constant pool tag %d at index %d", tag, i)
		}
	}

	return pool, nil
}

func readTwoU16(r io.Reader) (uint16, uint16, error) {
	var a, b uint16
	if err := binary.Read(r, binary.BigEndian, &a); err != nil {
		return 0, 0, err
	}
	if err := binary.Read(r, binary.BigEndian, &b); err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func cpEntryAt(pool []CPEntry, index uint16) (CPEntry, error) {
	if int(index) >= len(pool) || pool[index] == nil {
		return nil, parseErrorf("invalid constant pool index %d", index)
	}
	return pool[index], nil
}

// GetUtf8 returns the string held by a CONSTANT_Utf8 entry.
func GetUtf8(pool []CPEntry, index uint16) (string, error) {
	entry, err := cpEntryAt(pool, index)
	if err != nil {
		return "", err
	}
	utf8, ok := entry.(*CPUtf8)
	if !ok {
		return "", parseErrorf("constant pool index %d is not Utf8 (tag=%d)", index, entry.Tag())
	}
	return utf8.Value, nil
}

// GetClassName resolves a CONSTANT_Class entry to its internal name.
func GetClassName(pool []CPEntry, classIndex uint16) (string, error) {
	entry, err := cpEntryAt(pool, classIndex)
	if err != nil {
		return "", err
	}
	class, ok := entry.(*CPClass)
	if !ok {
		return "", parseErrorf("constant pool index %d is not Class (tag=%d)", classIndex, entry.Tag())
	}
	return GetUtf8(pool, class.NameIndex)
}

// GetNameAndType resolves a CONSTANT_NameAndType entry.
func GetNameAndType(pool []CPEntry, index uint16) (name, descriptor string, err error) {
	entry, err := cpEntryAt(pool, index)
	if err != nil {
		return "", "", err
	}
	nat, ok := entry.(*CPNameAndType)
	if !ok {
		return "", "", parseErrorf("constant pool index %d is not NameAndType (tag=%d)", index, entry.Tag())
	}
	name, err = GetUtf8(pool, nat.NameIndex)
	if err != nil {
		return "", "", err
	}
	descriptor, err = GetUtf8(pool, nat.DescriptorIndex)
	if err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// RefInfo is the resolved shape shared by field and method references.
type RefInfo struct {
	ClassName  string
	MemberName string
	Descriptor string
}

func resolveRef(pool []CPEntry, index uint16, classIndex, natIndex uint16, kind string) (*RefInfo, error) {
	className, err := GetClassName(pool, classIndex)
	if err != nil {
		return nil, parseErrorf("resolving %s class at index %d: %v", kind, index, err)
	}
	name, descriptor, err := GetNameAndType(pool, natIndex)
	if err != nil {
		return nil, parseErrorf("resolving %s name-and-type at index %d: %v", kind, index, err)
	}
	return &RefInfo{ClassName: className, MemberName: name, Descriptor: descriptor}, nil
}

// GetField resolves a CONSTANT_Fieldref entry to (class, field, descriptor).
func GetField(pool []CPEntry, index uint16) (*RefInfo, error) {
	entry, err := cpEntryAt(pool, index)
	if err != nil {
		return nil, err
	}
	f, ok := entry.(*CPFieldref)
	if !ok {
		return nil, parseErrorf("constant pool index %d is not Fieldref (tag=%d)", index, entry.Tag())
	}
	return resolveRef(pool, index, f.ClassIndex, f.NameAndTypeIndex, "Fieldref")
}

// GetMethod resolves a CONSTANT_Methodref or CONSTANT_InterfaceMethodref
// entry to (class, method, descriptor) — both kinds are accepted since
// invokestatic on a JDK interface method used to reach the runtime via
// either constant pool shape.
func GetMethod(pool []CPEntry, index uint16) (*RefInfo, error) {
	entry, err := cpEntryAt(pool, index)
	if err != nil {
		return nil, err
	}
	switch m := entry.(type) {
	case *CPMethodref:
		return resolveRef(pool, index, m.ClassIndex, m.NameAndTypeIndex, "Methodref")
	case *CPInterfaceMethodref:
		return resolveRef(pool, index, m.ClassIndex, m.NameAndTypeIndex, "InterfaceMethodref")
	default:
		return nil, parseErrorf("constant pool index %d is not a method reference (tag=%d)", index, entry.Tag())
	}
}
