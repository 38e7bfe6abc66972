package raw

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeObjects(t *testing.T) {
	d := NewDict()
	d.Set("Type", Name("Page"))
	d.Set("MediaBox", NewArray(Int(0), Int(0), Real(612), Real(792.5)))
	d.Set("Title", Str("a(b)"))
	d.Set("ID", HexStr([]byte{0xDE, 0xAD}))
	d.Set("Parent", NewRef(2, 0))
	d.Set("Hidden", False)
	d.Set("Opt", Null)
	d.Set("Odd Key", Real(0.1+0.2))

	got := string(Serialize(d))
	assert.Equal(t, `<< /Type /Page /MediaBox [0 0 612 792.5] /Title (a\(b\)) /ID <DEAD> /Parent 2 0 R /Hidden false /Opt null /Odd#20Key 0.3 >>`, got)
	assert.Equal(t, "<<>>", string(Serialize(NewDict())))
	assert.Equal(t, "[]", string(Serialize(NewArray())))
}

func TestSerializeStream(t *testing.T) {
	d := NewDict()
	d.Set("Length", Int(5))
	assert.Equal(t, "<< /Length 5 >>\nstream\nhello\nendstream", string(Serialize(NewStream(d, []byte("hello")))))
}

func TestDictKeepsInsertionOrder(t *testing.T) {
	d := NewDict()
	for _, k := range []Name{"Z", "A", "M"} {
		d.Set(k, Int(1))
	}
	d.Set("A", Int(2))
	assert.Equal(t, []Name{"Z", "A", "M"}, d.Keys())
	v, _ := d.Int("A")
	assert.Equal(t, int64(2), v)

	d.Delete("Z")
	assert.Equal(t, []Name{"A", "M"}, d.Keys())
	_, ok := d.Get("Z")
	assert.False(t, ok)
}

func TestDictTypedAccessors(t *testing.T) {
	d := NewDict()
	d.Set("Type", Name("XRef"))
	d.Set("Size", Int(10))
	d.Set("Scale", Real(1.5))
	d.Set("Root", NewRef(1, 0))
	assert.True(t, d.IsType("XRef"))
	n, ok := d.Int("Size")
	assert.True(t, ok)
	assert.Equal(t, int64(10), n)
	_, ok = d.Int("Scale")
	assert.False(t, ok, "reals are not integers")
	r, ok := d.Ref("Root")
	require.True(t, ok)
	assert.Equal(t, ObjectRef{1, 0}, r.Ref())

	var nilDict *Dict
	_, ok = nilDict.Get("Type")
	assert.False(t, ok)
}

func TestNameCacheInterning(t *testing.T) {
	c := NewNameCache(2)
	assert.True(t, c.Permanent("Type"))
	assert.Equal(t, Name("Type"), c.Intern([]byte("Type")))
	assert.Zero(t, c.Len(), "permanent names bypass the LRU")

	a := c.Intern([]byte("Custom1"))
	b := c.InternString("Custom1")
	assert.Equal(t, a, b)
	c.Intern([]byte("Custom2"))
	c.Intern([]byte("Custom3"))
	assert.Equal(t, 2, c.Len())
	// Evicted names are recreated and still compare equal.
	assert.Equal(t, Name("Custom1"), c.Intern([]byte("Custom1")))
}

func TestRefCacheSharesIdentity(t *testing.T) {
	c := NewRefCache(8)
	a := c.Get(12, 0)
	b := c.Get(12, 0)
	assert.Same(t, a, b)
	assert.NotSame(t, a, c.Get(12, 1))
	assert.True(t, Equal(a, NewRef(12, 0)))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "12 0 R", a.String())
}

func TestEqual(t *testing.T) {
	mk := func() *Dict {
		d := NewDict()
		d.Set("K", NewArray(Int(1), Str("x"), NewRef(3, 0)))
		return d
	}
	assert.True(t, Equal(mk(), mk()))
	other := mk()
	other.Set("K", NewArray(Int(1), Str("y"), NewRef(3, 0)))
	assert.False(t, Equal(mk(), other))
	assert.True(t, Equal(Str("ab"), HexStr([]byte("ab"))))
	assert.False(t, Equal(Int(1), Name("1")))
	assert.True(t, Equal(Null, Null))
}

func TestNumber(t *testing.T) {
	assert.True(t, Int(-14).IsInteger())
	assert.False(t, Real(2.5).IsInteger())
	assert.Equal(t, int64(-14), Int(-14).Int())
}

func TestTextStringRoundTrip(t *testing.T) {
	for _, s := range []string{"plain", "Grüße", "日本語", ""} {
		enc := TextString(s)
		assert.Equal(t, s, enc.Text(), fmt.Sprintf("%q", s))
	}
	assert.False(t, TextString("plain").Hex)
	assert.Equal(t, []byte{0xFE, 0xFF, 0x00, 0x47}, TextString("Grüße").Bytes[:4])
}

func TestTextDecoding(t *testing.T) {
	assert.Equal(t, "A•B", String{Bytes: []byte{'A', 0x80, 'B'}}.Text())
	assert.Equal(t, "hé", String{Bytes: []byte{'h', 0xE9}}.Text())
	assert.Equal(t, "AB", String{Bytes: []byte{0xFF, 0xFE, 'A', 0, 'B', 0}}.Text())
	assert.Equal(t, "ok", String{Bytes: []byte{0xEF, 0xBB, 0xBF, 'o', 'k'}}.Text())
}

func TestDeepCopy(t *testing.T) {
	inner := NewArray(Int(1), Str("a"))
	d := NewDict()
	d.Set("K", inner)
	s := NewStream(d, []byte("xy"))

	c := DeepCopy(s).(*Stream)
	inner.Append(Int(2))
	inner.Items[1].(String).Bytes[0] = 'z'
	s.Data[0] = 'q'
	assert.Equal(t, "<< /K [1 (a)] >>", string(Serialize(c.Dict)))
	assert.Equal(t, []byte("xy"), c.Data)
	assert.Equal(t, NewRef(3, 0).Ref(), DeepCopy(NewRef(3, 0)).(*Reference).Ref())
}
