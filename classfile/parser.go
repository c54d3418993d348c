package classfile

import (
	"encoding/binary"
	"io"
	"strconv"
)

const (
	classMagic = 0xCAFEBABE

	minSupportedMajor = 45
	maxSupportedMajor = 52
)

// ParseHeader reads just enough of a class file to learn its own
// name — magic, version, the constant pool, and the this_class index —
// without parsing fields, methods or attributes. Parse uses it for the
// first part of a full parse; on its own it lets a caller discover a
// class's declared name when it only knows the file it came from.
func ParseHeader(r io.Reader) (*ClassFile, error) {
	cf := &ClassFile{}
	if err := readMagicAndVersion(r, cf); err != nil {
		return nil, err
	}

	var cpCount uint16
	if err := binary.Read(r, binary.BigEndian, &cpCount); err != nil {
		return nil, ioErrorf("reading constant_pool_count: %v", err)
	}
	pool, err := parseConstantPool(r, cpCount)
	if err != nil {
		return nil, err
	}
	cf.ConstantPool = pool

	if err := binary.Read(r, binary.BigEndian, &cf.AccessFlags); err != nil {
		return nil, ioErrorf("reading access_flags: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &cf.ThisClass); err != nil {
		return nil, ioErrorf("reading this_class: %v", err)
	}
	return cf, nil
}

// Parse reads a complete .class file from r and returns its parsed
// form. r is consumed sequentially; class files are always read fully
// into memory by the caller before this is invoked (per spec: no
// streaming, no partial parses).
func Parse(r io.Reader) (*ClassFile, error) {
	cf, err := ParseHeader(r)
	if err != nil {
		return nil, err
	}

	if err := binary.Read(r, binary.BigEndian, &cf.SuperClass); err != nil {
		return nil, ioErrorf("reading super_class: %v", err)
	}

	var interfaceCount uint16
	if err := binary.Read(r, binary.BigEndian, &interfaceCount); err != nil {
		return nil, ioErrorf("reading interfaces_count: %v", err)
	}
	cf.Interfaces = make([]uint16, interfaceCount)
	for i := range cf.Interfaces {
		if err := binary.Read(r, binary.BigEndian, &cf.Interfaces[i]); err != nil {
			return nil, ioErrorf("reading interface %d: %v", i, err)
		}
	}

	var fieldsCount uint16
	if err := binary.Read(r, binary.BigEndian, &fieldsCount); err != nil {
		return nil, ioErrorf("reading fields_count: %v", err)
	}
	cf.Fields, err = parseFields(r, cf.ConstantPool, fieldsCount)
	if err != nil {
		return nil, err
	}

	var methodsCount uint16
	if err := binary.Read(r, binary.BigEndian, &methodsCount); err != nil {
		return nil, ioErrorf("reading methods_count: %v", err)
	}
	cf.Methods, err = parseMethods(r, cf.ConstantPool, methodsCount)
	if err != nil {
		return nil, err
	}

	var classAttrCount uint16
	if err := binary.Read(r, binary.BigEndian, &classAttrCount); err != nil {
		return nil, ioErrorf("reading class attributes_count: %v", err)
	}
	cf.Attributes, err = parseAttributes(r, cf.ConstantPool, classAttrCount)
	if err != nil {
		return nil, err
	}

	return cf, nil
}

func readMagicAndVersion(r io.Reader, cf *ClassFile) error {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return ioErrorf("reading magic: %v", err)
	}
	if magic != classMagic {
		return parseErrorf("bad magic 0x%08X, expected 0x%08X", magic, classMagic)
	}
	if err := binary.Read(r, binary.BigEndian, &cf.MinorVersion); err != nil {
		return ioErrorf("reading minor_version: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &cf.MajorVersion); err != nil {
		return ioErrorf("reading major_version: %v", err)
	}
	if cf.MajorVersion < minSupportedMajor || cf.MajorVersion > maxSupportedMajor {
		return newReadError(ErrUnsupportedVersion,
			fmtVersion(cf.MajorVersion, minSupportedMajor, maxSupportedMajor), nil)
	}
	return nil
}

func fmtVersion(got, lo, hi uint16) string {
	return "major version " + strconv.Itoa(int(got)) + " outside supported range [" +
		strconv.Itoa(int(lo)) + ", " + strconv.Itoa(int(hi)) + "]"
}

func parseFields(r io.Reader, pool []CPEntry, count uint16) ([]FieldInfo, error) {
	fields := make([]FieldInfo, count)
	for i := range fields {
		f, err := parseFieldOrMethod(r, pool)
		if err != nil {
			return nil, err
		}
		fields[i] = FieldInfo{
			AccessFlags:     f.accessFlags,
			NameIndex:       f.nameIndex,
			DescriptorIndex: f.descIndex,
			Name:            f.name,
			Descriptor:      f.descriptor,
			Attributes:      f.attrs,
		}
		for _, a := range f.attrs {
			if a.Name == "ConstantValue" && len(a.Data) == 2 {
				fields[i].ConstantValueIndex = binary.BigEndian.Uint16(a.Data)
			}
		}
	}
	return fields, nil
}

func parseMethods(r io.Reader, pool []CPEntry, count uint16) ([]MethodInfo, error) {
	methods := make([]MethodInfo, count)
	for i := range methods {
		m, err := parseFieldOrMethod(r, pool)
		if err != nil {
			return nil, err
		}
		methods[i] = MethodInfo{
			AccessFlags:     m.accessFlags,
			NameIndex:       m.nameIndex,
			DescriptorIndex: m.descIndex,
			Name:            m.name,
			Descriptor:      m.descriptor,
			Attributes:      m.attrs,
		}
		for _, a := range m.attrs {
			if a.Name == "Code" {
				code, err := parseCodeAttribute(pool, a.Data)
				if err != nil {
					return nil, parseErrorf("parsing Code attribute of %s%s: %v", m.name, m.descriptor, err)
				}
				methods[i].Code = code
				break
			}
		}
	}
	return methods, nil
}

type rawMember struct {
	accessFlags uint16
	nameIndex   uint16
	descIndex   uint16
	name        string
	descriptor  string
	attrs       []AttributeInfo
}

func parseFieldOrMethod(r io.Reader, pool []CPEntry) (*rawMember, error) {
	var accessFlags, nameIndex, descIndex, attrCount uint16
	if err := binary.Read(r, binary.BigEndian, &accessFlags); err != nil {
		return nil, ioErrorf("reading access_flags: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
		return nil, ioErrorf("reading name_index: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &descIndex); err != nil {
		return nil, ioErrorf("reading descriptor_index: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &attrCount); err != nil {
		return nil, ioErrorf("reading attributes_count: %v", err)
	}
	name, err := GetUtf8(pool, nameIndex)
	if err != nil {
		return nil, err
	}
	descriptor, err := GetUtf8(pool, descIndex)
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributes(r, pool, attrCount)
	if err != nil {
		return nil, err
	}
	return &rawMember{accessFlags, nameIndex, descIndex, name, descriptor, attrs}, nil
}

func parseAttributes(r io.Reader, pool []CPEntry, count uint16) ([]AttributeInfo, error) {
	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		var nameIndex uint16
		if err := binary.Read(r, binary.BigEndian, &nameIndex); err != nil {
			return nil, ioErrorf("reading attribute %d name_index: %v", i, err)
		}
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, ioErrorf("reading attribute %d length: %v", i, err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, ioErrorf("reading attribute %d data: %v", i, err)
		}
		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, err
		}
		attrs[i] = AttributeInfo{Name: name, Data: data}
	}
	return attrs, nil
}

// parseCodeAttribute decodes a Code attribute's body (the u2/u4 header
// fields, the bytecode, the exception table, and nested attributes —
// only LineNumberTable and similar debug attributes are expected here
// and they are kept opaque).
func parseCodeAttribute(pool []CPEntry, data []byte) (*CodeAttribute, error) {
	if len(data) < 8 {
		return nil, parseErrorf("Code attribute too short (%d bytes)", len(data))
	}
	maxStack := binary.BigEndian.Uint16(data[0:2])
	maxLocals := binary.BigEndian.Uint16(data[2:4])
	codeLength := binary.BigEndian.Uint32(data[4:8])

	offset := 8
	if len(data) < offset+int(codeLength) {
		return nil, parseErrorf("Code attribute truncated: need %d code bytes, have %d", codeLength, len(data)-offset)
	}
	code := make([]byte, codeLength)
	copy(code, data[offset:offset+int(codeLength)])
	offset += int(codeLength)

	if len(data) < offset+2 {
		return nil, parseErrorf("Code attribute truncated before exception_table_length")
	}
	excCount := binary.BigEndian.Uint16(data[offset : offset+2])
	offset += 2

	excTable := make([]ExceptionTableEntry, excCount)
	for i := range excTable {
		if len(data) < offset+8 {
			return nil, parseErrorf("Code attribute truncated in exception table entry %d", i)
		}
		excTable[i] = ExceptionTableEntry{
			StartPC:   binary.BigEndian.Uint16(data[offset : offset+2]),
			EndPC:     binary.BigEndian.Uint16(data[offset+2 : offset+4]),
			HandlerPC: binary.BigEndian.Uint16(data[offset+4 : offset+6]),
			CatchType: binary.BigEndian.Uint16(data[offset+6 : offset+8]),
		}
		offset += 8
	}

	if len(data) < offset+2 {
		return nil, parseErrorf("Code attribute truncated before attributes_count")
	}
	nestedAttrCount := binary.BigEndian.Uint16(data[offset : offset+2])
	offset += 2

	nested := make([]AttributeInfo, nestedAttrCount)
	for i := range nested {
		if len(data) < offset+6 {
			return nil, parseErrorf("Code attribute truncated in nested attribute %d", i)
		}
		nameIndex := binary.BigEndian.Uint16(data[offset : offset+2])
		length := binary.BigEndian.Uint32(data[offset+2 : offset+6])
		offset += 6
		if len(data) < offset+int(length) {
			return nil, parseErrorf("Code attribute truncated in nested attribute %d data", i)
		}
		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, err
		}
		nested[i] = AttributeInfo{Name: name, Data: data[offset : offset+int(length)]}
		offset += int(length)
	}

	return &CodeAttribute{
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Code:           code,
		ExceptionTable: excTable,
		Attributes:     nested,
	}, nil
}
