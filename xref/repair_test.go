package xref_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfcore/scanner"
	"github.com/wudi/pdfcore/xref"
)

func TestRepair_WithoutXRef(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	f.obj(2, "<< /Type /Pages /Count 0 >>")
	f.obj(2, "<< /Type /Pages /Count 1 >>")
	f.buf.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\n%%EOF\n")
	data := f.buf.Bytes()

	_, err := xref.Resolve(scanner.NewCursor(data))
	require.ErrorIs(t, err, xref.ErrStartXRefNotFound)

	var w warnings
	ix, err := xref.Repair(scanner.NewCursor(data), xref.WithWarnings(w.add))
	require.NoError(t, err)
	assert.Equal(t, "repaired", ix.Type())
	assert.True(t, ix.Repaired)
	assert.Len(t, w, 1)

	e, ok := ix.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, xref.InUseEntry{Offset: f.offsets[2]}, e, "the later definition wins")
	assert.Equal(t, 1, ix.Trailer.Root.Num())
	assert.Equal(t, 3, ix.Trailer.Size)
	assert.Nil(t, ix.Trailer.Prev)
}

func TestRepair_FindsCatalogWithoutTrailer(t *testing.T) {
	f := newFixture()
	f.obj(4, "<< /Type /Pages /Count 0 >>")
	f.obj(7, "<< /Type /Catalog /Pages 4 0 R >>")
	f.obj(12, "(not an endobj 3 0 obj lookalike)")

	ix, err := xref.Repair(scanner.NewCursor(f.buf.Bytes()))
	require.NoError(t, err)
	require.NotNil(t, ix.Trailer.Root)
	assert.Equal(t, 7, ix.Trailer.Root.Num())
	assert.Equal(t, 13, ix.Trailer.Size)
	assert.Contains(t, ix.Objects(), 3, "headers inside strings are indistinguishable by scanning")
}

func TestRepair_StaleTrailerRoot(t *testing.T) {
	f := newFixture()
	f.obj(2, "<< /Type /Catalog >>")
	f.buf.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\n")

	ix, err := xref.Repair(scanner.NewCursor(f.buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Trailer.Root.Num())
}

func TestRepair_ObjectStream(t *testing.T) {
	f := newFixture()
	body := "<< /Type /Catalog /Pages 6 0 R >> << /Type /Pages /Count 0 >>"
	hdr := fmt.Sprintf("5 0 6 %d ", strings.Index(body, " <<")+1)
	f.stream(3, fmt.Sprintf("/Type /ObjStm /N 2 /First %d", len(hdr)), []byte(hdr+body))

	ix, err := xref.Repair(scanner.NewCursor(f.buf.Bytes()))
	require.NoError(t, err)

	e, ok := ix.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, xref.CompressedEntry{Container: 3, Index: 0}, e)
	e, _ = ix.Lookup(6)
	assert.Equal(t, xref.CompressedEntry{Container: 3, Index: 1}, e)
	require.NotNil(t, ix.Trailer.Root)
	assert.Equal(t, 5, ix.Trailer.Root.Num())
}

func TestRepair_NoObjects(t *testing.T) {
	_, err := xref.Repair(scanner.NewCursor([]byte("%PDF-1.7\nnothing here\n%%EOF")))
	var fe *xref.FormatError
	assert.ErrorAs(t, err, &fe)
}
