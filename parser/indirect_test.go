package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/scanner"
	"github.com/wudi/pdfcore/security"
)

func parseIndirect(t *testing.T, src string, resolve LengthResolver, opts ...Option) (*IndirectObject, error) {
	t.Helper()
	return NewIndirect(scanner.NewCursor([]byte(src)), resolve, opts...).ParseObject()
}

func TestIndirect_Catalog(t *testing.T) {
	obj, err := parseIndirect(t, "1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, obj.Num)
	assert.Equal(t, 0, obj.Gen)
	d := obj.Value.(*raw.Dict)
	typ, _ := d.Name("Type")
	assert.Equal(t, raw.Name("Catalog"), typ)
	pages, ok := d.Ref("Pages")
	require.True(t, ok)
	assert.Equal(t, raw.ObjectRef{Num: 2, Gen: 0}, pages.Ref())
}

func TestIndirect_Stream(t *testing.T) {
	obj, err := parseIndirect(t, "1 0 obj\n<< /Length 5 >>\nstream\nHello\nendstream\nendobj", nil)
	require.NoError(t, err)
	stm, ok := obj.Value.(*raw.Stream)
	require.True(t, ok)
	assert.Equal(t, "Hello", string(stm.Data))
}

func TestIndirect_StreamCRLF(t *testing.T) {
	obj, err := parseIndirect(t, "4 0 obj<</Length 3>>stream\r\n\r\nxendstream endobj", nil)
	require.NoError(t, err)
	assert.Equal(t, "\r\nx", string(obj.Value.(*raw.Stream).Data))
}

func TestIndirect_StreamLoneCRIsRejected(t *testing.T) {
	src := "1 0 obj\n<< /Length 2 >>\nstream\rab\nendstream\nendobj"
	_, err := parseIndirect(t, src, nil)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "invalid stream line terminator", se.Msg)

	var w warnings
	obj, err := parseIndirect(t, src, nil, lenient(&w)...)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(obj.Value.(*raw.Stream).Data))
	assert.Equal(t, []string{"invalid stream line terminator"}, w.msgs)
}

func TestIndirect_IndirectLength(t *testing.T) {
	src := "7 0 obj\n<< /Length 8 0 R >>\nstream\nabc\nendstream\nendobj"
	var asked raw.ObjectRef
	obj, err := parseIndirect(t, src, func(ref raw.ObjectRef) (int64, bool) {
		asked = ref
		return 3, true
	})
	require.NoError(t, err)
	assert.Equal(t, raw.ObjectRef{Num: 8}, asked)
	assert.Equal(t, "abc", string(obj.Value.(*raw.Stream).Data))
}

func TestIndirect_UnresolvableLengthFailsInBothModes(t *testing.T) {
	src := "7 0 obj\n<< /Length 8 0 R >>\nstream\nabc\nendstream\nendobj"
	fail := func(raw.ObjectRef) (int64, bool) { return 0, false }

	_, err := parseIndirect(t, src, fail)
	assert.ErrorIs(t, err, ErrStreamLength)
	assert.Contains(t, err.Error(), "cannot resolve stream length")

	var w warnings
	_, err = parseIndirect(t, src, fail, lenient(&w)...)
	assert.ErrorIs(t, err, ErrStreamLength)

	_, err = parseIndirect(t, src, nil, lenient(&w)...)
	assert.ErrorIs(t, err, ErrStreamLength)
}

func TestIndirect_WrongLengthRecovers(t *testing.T) {
	src := "3 0 obj\n<< /Length 2 >>\nstream\nHello\nendstream\nendobj"
	_, err := parseIndirect(t, src, nil)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "missing endstream", se.Msg)

	var w warnings
	obj, err := parseIndirect(t, src, nil, lenient(&w)...)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(obj.Value.(*raw.Stream).Data))
	assert.Equal(t, []string{"missing endstream"}, w.msgs)
}

func TestIndirect_MissingLength(t *testing.T) {
	src := "3 0 obj\n<< /Filter /FlateDecode >>\nstream\nabcd\r\nendstream\nendobj"
	_, err := parseIndirect(t, src, nil)
	assert.ErrorIs(t, err, ErrStreamLength)

	var w warnings
	obj, err := parseIndirect(t, src, nil, lenient(&w)...)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(obj.Value.(*raw.Stream).Data))
	assert.Len(t, w.msgs, 1)
}

func TestIndirect_PayloadPastEnd(t *testing.T) {
	src := "3 0 obj\n<< /Length 500 >>\nstream\nabc"
	for _, opts := range [][]Option{nil, {WithRecovery(true)}} {
		_, err := parseIndirect(t, src, nil, opts...)
		var se *SyntaxError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "stream payload exceeds input", se.Msg)
	}
}

func TestIndirect_StreamLengthLimit(t *testing.T) {
	src := "3 0 obj\n<< /Length 10 >>\nstream\n0123456789\nendstream\nendobj"
	_, err := parseIndirect(t, src, nil, WithLimits(security.Limits{MaxStreamLength: 4}))
	assert.ErrorIs(t, err, security.ErrLimitExceeded)
}

func TestIndirect_MissingEndobj(t *testing.T) {
	src := "1 0 obj\n42\n2 0 obj\n43\nendobj"
	_, err := parseIndirect(t, src, nil)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "missing endobj", se.Msg)

	var w warnings
	ip := NewIndirect(scanner.NewCursor([]byte(src)), nil, lenient(&w)...)
	first, err := ip.ParseObject()
	require.NoError(t, err)
	assert.Equal(t, raw.Int(42), first.Value)
	second, err := ip.ParseObject()
	require.NoError(t, err)
	assert.Equal(t, 2, second.Num)
	assert.Equal(t, raw.Int(43), second.Value)
	assert.Equal(t, []string{"missing endobj"}, w.msgs)
	_, err = ip.ParseObject()
	assert.ErrorIs(t, err, ErrEndOfInput)
}

func TestIndirect_EmptyObjectBody(t *testing.T) {
	var w warnings
	obj, err := parseIndirect(t, "5 0 obj\nendobj", nil, lenient(&w)...)
	require.NoError(t, err)
	assert.Equal(t, raw.Null, obj.Value)
	assert.Len(t, w.msgs, 1)
}

func TestIndirect_InvalidHeader(t *testing.T) {
	_, err := parseIndirect(t, "xref\n0 1", nil, WithRecovery(true))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "invalid object header", se.Msg)
}

func TestIndirect_ParseObjectAt(t *testing.T) {
	src := "%PDF-1.7\n1 0 obj\n(one)\nendobj\n2 0 obj\n(two)\nendobj\n"
	ip := NewIndirect(scanner.NewCursor([]byte(src)), nil)
	obj, err := ip.ParseObjectAt(30)
	require.NoError(t, err)
	assert.Equal(t, 2, obj.Num)
	assert.Equal(t, int64(30), obj.Offset)
	assert.Equal(t, "two", string(obj.Value.(raw.String).Bytes))

	_, err = ip.ParseObjectAt(int64(len(src) + 1))
	assert.Error(t, err)
}
