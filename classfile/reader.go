package classfile

import (
	"bytes"
	"io"
	"os"
)

// ParseFile reads and parses a .class file at path. File handles are
// opened, read fully, and closed before parsing begins (per spec:
// archive/file resources do not outlive the read).
func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioErrorf("reading %s: %v", path, err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a complete in-memory class file image.
func ParseBytes(data []byte) (*ClassFile, error) {
	return Parse(bytes.NewReader(data))
}

// ReadAll slurps r fully into memory, for collaborators (e.g. archive
// members) that hand back an io.Reader rather than a byte slice.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ioErrorf("reading class bytes: %v", err)
	}
	return data, nil
}
