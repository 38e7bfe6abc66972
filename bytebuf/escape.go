package bytebuf

const hexDigits = "0123456789ABCDEF"

// AppendLiteralString appends s as a parenthesised literal string. Backslash
// and both parentheses are escaped, the usual control characters get their
// short escapes and any other non-printable byte becomes a three digit octal
// escape.
func AppendLiteralString(dst, s []byte) []byte {
	dst = append(dst, '(')
	for _, ch := range s {
		switch ch {
		case '\\', '(', ')':
			dst = append(dst, '\\', ch)
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		default:
			if ch < 0x20 || ch >= 0x7F {
				dst = append(dst, '\\', '0'+(ch>>6), '0'+((ch>>3)&7), '0'+(ch&7))
			} else {
				dst = append(dst, ch)
			}
		}
	}
	return append(dst, ')')
}

// AppendHexString appends s as an upper-case hex string in angle brackets.
func AppendHexString(dst, s []byte) []byte {
	dst = append(dst, '<')
	for _, ch := range s {
		dst = append(dst, hexDigits[ch>>4], hexDigits[ch&0x0F])
	}
	return append(dst, '>')
}

// AppendName appends name with its leading solidus. Bytes outside the regular
// printable range, delimiters and '#' are written as #XX.
func AppendName(dst []byte, name string) []byte {
	dst = append(dst, '/')
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch < '!' || ch > '~' || ch == '#' || IsDelimiter(ch) {
			dst = append(dst, '#', hexDigits[ch>>4], hexDigits[ch&0x0F])
			continue
		}
		dst = append(dst, ch)
	}
	return dst
}

func (b *Buffer) WriteLiteralString(s []byte) { b.b = AppendLiteralString(b.b, s) }
func (b *Buffer) WriteHexString(s []byte)     { b.b = AppendHexString(b.b, s) }
func (b *Buffer) WriteName(name string)       { b.b = AppendName(b.b, name) }

// IsWhitespace reports whether c is one of the six PDF whitespace bytes.
func IsWhitespace(c byte) bool {
	switch c {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

// IsDelimiter reports whether c is a PDF delimiter.
func IsDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// IsRegular reports whether c is neither whitespace nor a delimiter.
func IsRegular(c byte) bool {
	return !IsWhitespace(c) && !IsDelimiter(c)
}
