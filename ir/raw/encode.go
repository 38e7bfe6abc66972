package raw

import (
	"bytes"

	"github.com/wudi/pdfcore/bytebuf"
)

// Append writes the textual form of o to b. Streams are written as their
// dictionary followed by the framed payload; the caller keeps Length in sync.
func Append(b *bytebuf.Buffer, o Object) {
	switch v := o.(type) {
	case nil:
		b.WriteString("null")
	case Name:
		b.WriteName(string(v))
	case Number:
		b.WriteNumber(float64(v))
	case Bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case NullObj:
		b.WriteString("null")
	case String:
		if v.Hex {
			b.WriteHexString(v.Bytes)
		} else {
			b.WriteLiteralString(v.Bytes)
		}
	case *Array:
		b.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			Append(b, it)
		}
		b.WriteByte(']')
	case *Dict:
		if v.Len() == 0 {
			b.WriteString("<<>>")
			return
		}
		b.WriteString("<<")
		v.Range(func(k Name, val Object) bool {
			b.WriteByte(' ')
			b.WriteName(string(k))
			b.WriteByte(' ')
			Append(b, val)
			return true
		})
		b.WriteString(" >>")
	case *Stream:
		Append(b, v.Dict)
		b.WriteString("\nstream\n")
		b.Write(v.Data)
		b.WriteString("\nendstream")
	case *Reference:
		b.WriteInt(int64(v.num))
		b.WriteByte(' ')
		b.WriteInt(int64(v.gen))
		b.WriteString(" R")
	default:
		b.WriteString("null")
	}
}

// Serialize returns the textual form of o.
func Serialize(o Object) []byte {
	var b bytebuf.Buffer
	Append(&b, o)
	return b.Bytes()
}

// Equal reports structural equality. References compare by number and
// generation; strings compare by bytes regardless of form.
func Equal(a, b Object) bool {
	switch x := a.(type) {
	case Name, Number, Bool, NullObj:
		return a == b
	case String:
		y, ok := b.(String)
		return ok && bytes.Equal(x.Bytes, y.Bytes)
	case *Reference:
		y, ok := b.(*Reference)
		return ok && x.Ref() == y.Ref()
	case *Array:
		y, ok := b.(*Array)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.vals[k]
			if !ok || !Equal(x.vals[k], yv) {
				return false
			}
		}
		return true
	case *Stream:
		y, ok := b.(*Stream)
		return ok && Equal(x.Dict, y.Dict) && bytes.Equal(x.Data, y.Data)
	case nil:
		return b == nil
	}
	return false
}
