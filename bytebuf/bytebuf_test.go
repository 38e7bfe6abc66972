package bytebuf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-14, "-14"},
		{100, "100"},
		{2.5, "2.5"},
		{0.1 + 0.2, "0.3"},
		{-0.25, "-0.25"},
		{1.0 / 3.0, "0.3333333333"},
		{612.0000000000001, "612"},
		{-1e-13, "0"},
		{4294967296, "4294967296"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatNumber(tc.in), "FormatNumber(%v)", tc.in)
	}
}

func TestFormatNumberHasNoTrailingZeros(t *testing.T) {
	for _, v := range []float64{0.5, 1.25, 3.125, 10.1, 99.99} {
		s := FormatNumber(v)
		assert.NotEqual(t, byte('0'), s[len(s)-1], s)
		assert.NotEqual(t, byte('.'), s[len(s)-1], s)
	}
}

func TestAppendLiteralString(t *testing.T) {
	got := AppendLiteralString(nil, []byte("a(b)c\\d\n\x01\xff"))
	assert.Equal(t, `(a\(b\)c\\d\n\001\377)`, string(got))
}

func TestAppendHexString(t *testing.T) {
	assert.Equal(t, "<00AB7F>", string(AppendHexString(nil, []byte{0x00, 0xab, 0x7f})))
}

func TestAppendName(t *testing.T) {
	assert.Equal(t, "/Type", string(AppendName(nil, "Type")))
	assert.Equal(t, "/A#20B", string(AppendName(nil, "A B")))
	assert.Equal(t, "/x#23y#2F", string(AppendName(nil, "x#y/")))
}

func TestBufferWritePadded(t *testing.T) {
	var b Buffer
	b.WritePadded(1234, 10)
	b.WriteByte(' ')
	b.WritePadded(0, 5)
	assert.Equal(t, "0000001234 00000", b.String())
}

type failingWriter struct{ calls int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	return 0, errors.New("disk full")
}

func TestWriterIsSticky(t *testing.T) {
	fw := &failingWriter{}
	w := NewWriter(fw)
	w.WriteString("one")
	w.WriteString("two")
	require.Error(t, w.Err())
	assert.Equal(t, 1, fw.calls)
	assert.Equal(t, int64(0), w.Offset())
}

func TestWriterCountsOffset(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	w.WriteString("%PDF-1.7\n")
	b := New(16)
	b.WriteInt(42)
	w.WriteBuffer(b)
	require.NoError(t, w.Err())
	assert.Equal(t, int64(11), w.Offset())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, "%PDF-1.7\n42", out.String())
}
