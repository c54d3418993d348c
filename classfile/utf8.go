package classfile

import "strings"

// decodeModifiedUTF8 decodes the JVM's "modified UTF-8" encoding (JVM
// spec 4.4.7) into a Go string. It differs from standard UTF-8 in two
// ways: the NUL code point is encoded as two bytes (0xC0 0x80) rather
// than one, and code points above the basic multilingual plane are
// encoded as a 6-byte pair of UTF-16 surrogates rather than standard
// 4-byte UTF-8. Both extensions decode to ordinary Go runes here.
func decodeModifiedUTF8(b []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(b))

	i := 0
	for i < len(b) {
		x := b[i]
		switch {
		case x&0x80 == 0: // 0xxxxxxx: 1-byte, codepoint < 0x80
			sb.WriteByte(x)
			i++

		case x&0xE0 == 0xC0: // 110xxxxx 10xxxxxx: 2-byte, codepoint < 0x800
			if i+1 >= len(b) {
				return "", utf8Errorf("truncated 2-byte sequence at offset %d", i)
			}
			y := b[i+1]
			if y&0xC0 != 0x80 {
				return "", utf8Errorf("malformed continuation byte at offset %d", i+1)
			}
			cp := (rune(x&0x1F) << 6) | rune(y&0x3F)
			sb.WriteRune(cp)
			i += 2

		case x == 0xED && i+5 < len(b) && b[i+3] == 0xED:
			// 6-byte supplementary encoding: a surrogate pair folded
			// into modified UTF-8. Form: ED(1010xxxx)10xxxxxx ED(1011xxxx)10xxxxxx
			v := b[i+1]
			w := b[i+2]
			y := b[i+4]
			z := b[i+5]
			if v&0xF0 != 0xA0 || w&0xC0 != 0x80 || y&0xF0 != 0xB0 || z&0xC0 != 0x80 {
				return "", utf8Errorf("malformed supplementary sequence at offset %d", i)
			}
			cp := 0x10000 | (rune(v&0x0F) << 16) | (rune(w&0x3F) << 10) | (rune(y&0x0F) << 6) | rune(z&0x3F)
			sb.WriteRune(cp)
			i += 6

		case x&0xF0 == 0xE0: // 1110xxxx 10xxxxxx 10xxxxxx: 3-byte, codepoint < 0x10000
			if i+2 >= len(b) {
				return "", utf8Errorf("truncated 3-byte sequence at offset %d", i)
			}
			y := b[i+1]
			z := b[i+2]
			if y&0xC0 != 0x80 || z&0xC0 != 0x80 {
				return "", utf8Errorf("malformed continuation byte at offset %d", i+1)
			}
			cp := (rune(x&0x0F) << 12) | (rune(y&0x3F) << 6) | rune(z&0x3F)
			sb.WriteRune(cp)
			i += 3

		default:
			return "", utf8Errorf("invalid leading byte 0x%02X at offset %d", x, i)
		}
	}
	return sb.String(), nil
}
