package raw

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// pdfDocHigh maps the PDFDocEncoding bytes that differ from Latin-1.
var pdfDocHigh = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
	0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
	0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
	0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0xA0: '€',
}

// Text decodes s as a PDF text string: UTF-16 with a byte order mark, UTF-8
// with a BOM, or PDFDocEncoding otherwise.
func (s String) Text() string {
	b := s.Bytes
	switch {
	case bytes.HasPrefix(b, bomUTF16BE):
		return decodeUTF16(b, unicode.BigEndian)
	case bytes.HasPrefix(b, bomUTF16LE):
		return decodeUTF16(b, unicode.LittleEndian)
	case bytes.HasPrefix(b, bomUTF8):
		return string(b[len(bomUTF8):])
	}
	var sb []byte
	for _, c := range b {
		r, ok := pdfDocHigh[c]
		if !ok {
			r = rune(c)
		}
		sb = utf8.AppendRune(sb, r)
	}
	return string(sb)
}

func decodeUTF16(b []byte, order unicode.Endianness) string {
	dec := unicode.UTF16(order, unicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// TextString encodes text for use as a PDF text string. ASCII text is kept
// as is; anything else is written as UTF-16BE with a byte order mark.
func TextString(text string) String {
	ascii := true
	for i := 0; i < len(text); i++ {
		if text[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return String{Bytes: []byte(text)}
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	out, err := enc.Bytes([]byte(text))
	if err != nil {
		return String{Bytes: []byte(text)}
	}
	return String{Bytes: out, Hex: true}
}
