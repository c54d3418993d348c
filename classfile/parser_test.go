package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// cpBuilder assembles a constant pool byte-by-byte, the way
// parser_test.go's fixtures are hand-assembled in the teacher repo,
// but entirely in memory so the test carries no external fixture files.
type cpBuilder struct {
	buf   bytes.Buffer
	count uint16 // next free logical index (starts at 1)
}

func newCPBuilder() *cpBuilder {
	return &cpBuilder{count: 1}
}

func (b *cpBuilder) u8(v uint8)   { b.buf.WriteByte(v) }
func (b *cpBuilder) u16(v uint16) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *cpBuilder) u32(v uint32) { binary.Write(&b.buf, binary.BigEndian, v) }

func (b *cpBuilder) utf8(s string) uint16 {
	b.u8(TagUtf8)
	b.u16(uint16(len(s)))
	b.buf.WriteString(s)
	return b.next()
}

func (b *cpBuilder) class(nameIdx uint16) uint16 {
	b.u8(TagClass)
	b.u16(nameIdx)
	return b.next()
}

func (b *cpBuilder) nameAndType(nameIdx, descIdx uint16) uint16 {
	b.u8(TagNameAndType)
	b.u16(nameIdx)
	b.u16(descIdx)
	return b.next()
}

func (b *cpBuilder) methodref(classIdx, natIdx uint16) uint16 {
	b.u8(TagMethodref)
	b.u16(classIdx)
	b.u16(natIdx)
	return b.next()
}

func (b *cpBuilder) next() uint16 {
	idx := b.count
	b.count++
	return idx
}

// buildMinimalClass assembles a complete .class byte image for a class
// named className extending java/lang/Object, with a single method
// whose raw bytecode and max_stack/max_locals are supplied directly.
func buildMinimalClass(t *testing.T, className string, methodName, descriptor string, maxStack, maxLocals uint16, code []byte) []byte {
	t.Helper()

	cp := newCPBuilder()
	thisNameIdx := cp.utf8(className)
	thisClassIdx := cp.class(thisNameIdx)
	superNameIdx := cp.utf8("java/lang/Object")
	superClassIdx := cp.class(superNameIdx)
	methodNameIdx := cp.utf8(methodName)
	methodDescIdx := cp.utf8(descriptor)
	codeAttrNameIdx := cp.utf8("Code")

	var codeAttr bytes.Buffer
	binary.Write(&codeAttr, binary.BigEndian, maxStack)
	binary.Write(&codeAttr, binary.BigEndian, maxLocals)
	binary.Write(&codeAttr, binary.BigEndian, uint32(len(code)))
	codeAttr.Write(code)
	binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // exception_table_length
	binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // nested attributes_count

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major (Java 8)
	binary.Write(&out, binary.BigEndian, cp.count)    // constant_pool_count
	out.Write(cp.buf.Bytes())
	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccSuper)) // access_flags
	binary.Write(&out, binary.BigEndian, thisClassIdx)
	binary.Write(&out, binary.BigEndian, superClassIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // fields_count
	binary.Write(&out, binary.BigEndian, uint16(1)) // methods_count

	// one method: access_flags, name, descriptor, attributes_count=1, Code
	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccStatic))
	binary.Write(&out, binary.BigEndian, methodNameIdx)
	binary.Write(&out, binary.BigEndian, methodDescIdx)
	binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count
	binary.Write(&out, binary.BigEndian, codeAttrNameIdx)
	binary.Write(&out, binary.BigEndian, uint32(codeAttr.Len()))
	out.Write(codeAttr.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes_count

	return out.Bytes()
}

func TestParseMinimalClass(t *testing.T) {
	code := []byte{0xB1} // return
	data := buildMinimalClass(t, "Hello", "main", "()V", 1, 1, code)

	cf, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cf.MajorVersion != 52 {
		t.Errorf("MajorVersion = %d, want 52", cf.MajorVersion)
	}

	name, err := cf.ClassName()
	if err != nil {
		t.Fatalf("ClassName: %v", err)
	}
	if name != "Hello" {
		t.Errorf("ClassName = %q, want %q", name, "Hello")
	}

	super, err := cf.SuperClassName()
	if err != nil {
		t.Fatalf("SuperClassName: %v", err)
	}
	if super != "java/lang/Object" {
		t.Errorf("SuperClassName = %q, want java/lang/Object", super)
	}

	m := cf.FindMethod("main", "()V")
	if m == nil {
		t.Fatal("main()V not found")
	}
	if m.Code == nil {
		t.Fatal("main has no Code attribute")
	}
	if !bytes.Equal(m.Code.Code, code) {
		t.Errorf("Code bytes = %v, want %v", m.Code.Code, code)
	}
	if m.Code.MaxStack != 1 || m.Code.MaxLocals != 1 {
		t.Errorf("MaxStack/MaxLocals = %d/%d, want 1/1", m.Code.MaxStack, m.Code.MaxLocals)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	data := buildMinimalClass(t, "HeaderOnly", "main", "()V", 1, 1, []byte{0xB1})
	cf, err := ParseHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	name, err := cf.ClassName()
	if err != nil {
		t.Fatalf("ClassName: %v", err)
	}
	if name != "HeaderOnly" {
		t.Errorf("ClassName = %q, want HeaderOnly", name)
	}
	// ParseHeader must not have consumed fields/methods: cf.Methods is empty.
	if len(cf.Methods) != 0 {
		t.Errorf("ParseHeader should not parse methods, got %d", len(cf.Methods))
	}
}

func TestParseInvalidMagic(t *testing.T) {
	_, err := ParseBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	if err == nil {
		t.Fatal("expected error for bad magic, got nil")
	}
	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ReadError, got %T", err)
	}
	if re.Kind != ErrParse {
		t.Errorf("Kind = %v, want ErrParse", re.Kind)
	}
}

func TestParseUnsupportedVersion(t *testing.T) {
	data := buildMinimalClass(t, "TooNew", "main", "()V", 1, 1, []byte{0xB1})
	// major version lives right after magic+minor, at offset 6.
	binary.BigEndian.PutUint16(data[6:8], 53)
	_, err := ParseBytes(data)
	if err == nil {
		t.Fatal("expected UnsupportedVersion error, got nil")
	}
	var re *ReadError
	if !errors.As(err, &re) || re.Kind != ErrUnsupportedVersion {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestConstantPoolLongDoubleTakeTwoSlots(t *testing.T) {
	cp := newCPBuilder()
	cp.u8(TagLong)
	cp.u32(0)
	cp.u32(1) // value = 1 (we only need the slot accounting, not the value)
	afterLong := cp.next()
	cp.next() // the hole left by Long's second slot
	idx := cp.utf8("after")

	pool, err := parseConstantPool(bytes.NewReader(cp.buf.Bytes()), cp.count)
	if err != nil {
		t.Fatalf("parseConstantPool: %v", err)
	}
	if pool[afterLong] == nil {
		t.Fatalf("expected Long entry at index %d", afterLong)
	}
	if _, ok := pool[afterLong].(*CPLong); !ok {
		t.Errorf("pool[%d] = %T, want *CPLong", afterLong, pool[afterLong])
	}
	s, err := GetUtf8(pool, idx)
	if err != nil {
		t.Fatalf("GetUtf8: %v", err)
	}
	if s != "after" {
		t.Errorf("GetUtf8 = %q, want %q", s, "after")
	}
}

func TestDecodeModifiedUTF8Supplementary(t *testing.T) {
	// U+1F600 (😀), encoded as the 6-byte modified-UTF-8 supplementary
	// form (JVM spec 4.4.7): ED A0 BD ED B8 80.
	raw := []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}
	s, err := decodeModifiedUTF8(raw)
	if err != nil {
		t.Fatalf("decodeModifiedUTF8: %v", err)
	}
	want := string(rune(0x1F600))
	if s != want {
		t.Errorf("decoded = %q, want %q", s, want)
	}
}

func TestGetMethodResolvesMethodrefAndInterfaceMethodref(t *testing.T) {
	cp := newCPBuilder()
	objClassIdx := cp.class(cp.utf8("java/lang/Object"))
	hashNatIdx := cp.nameAndType(cp.utf8("hashCode"), cp.utf8("()I"))
	hashIdx := cp.methodref(objClassIdx, hashNatIdx)

	runClassIdx := cp.class(cp.utf8("java/lang/Runnable"))
	runNatIdx := cp.nameAndType(cp.utf8("run"), cp.utf8("()V"))
	cp.u8(TagInterfaceMethodref)
	cp.u16(runClassIdx)
	cp.u16(runNatIdx)
	imIdx := cp.next()

	pool, err := parseConstantPool(bytes.NewReader(cp.buf.Bytes()), cp.count)
	if err != nil {
		t.Fatalf("parseConstantPool: %v", err)
	}

	ref, err := GetMethod(pool, hashIdx)
	if err != nil {
		t.Fatalf("GetMethod(methodref): %v", err)
	}
	if ref.ClassName != "java/lang/Object" || ref.MemberName != "hashCode" || ref.Descriptor != "()I" {
		t.Errorf("GetMethod(methodref) = %+v, want java/lang/Object.hashCode()I", ref)
	}

	iref, err := GetMethod(pool, imIdx)
	if err != nil {
		t.Fatalf("GetMethod(interfacemethodref): %v", err)
	}
	if iref.ClassName != "java/lang/Runnable" || iref.MemberName != "run" || iref.Descriptor != "()V" {
		t.Errorf("GetMethod(interfacemethodref) = %+v, want java/lang/Runnable.run()V", iref)
	}
}
