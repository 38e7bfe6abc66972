package xref_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfcore/filters"
	"github.com/wudi/pdfcore/scanner"
	"github.com/wudi/pdfcore/security"
	"github.com/wudi/pdfcore/xref"
)

type fixture struct {
	buf     bytes.Buffer
	offsets map[int]int64
}

func newFixture() *fixture {
	f := &fixture{offsets: make(map[int]int64)}
	f.buf.WriteString("%PDF-1.7\n")
	return f
}

func (f *fixture) obj(num int, body string) {
	f.offsets[num] = int64(f.buf.Len())
	fmt.Fprintf(&f.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (f *fixture) stream(num int, dict string, data []byte) {
	f.offsets[num] = int64(f.buf.Len())
	fmt.Fprintf(&f.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(data))
	f.buf.Write(data)
	f.buf.WriteString("\nendstream\nendobj\n")
}

// table writes a classic section holding the free head plus nums.
func (f *fixture) table(trailer string, nums ...int) int64 {
	off := int64(f.buf.Len())
	f.buf.WriteString("xref\n0 1\n0000000000 65535 f \n")
	for _, n := range nums {
		fmt.Fprintf(&f.buf, "%d 1\n%010d 00000 n \n", n, f.offsets[n])
	}
	fmt.Fprintf(&f.buf, "trailer\n%s\n", trailer)
	return off
}

func (f *fixture) finish(startxref int64) []byte {
	fmt.Fprintf(&f.buf, "startxref\n%d\n%%%%EOF\n", startxref)
	return f.buf.Bytes()
}

// row encodes one xref stream row with /W [1 2 1].
func row(typ byte, f2 int, f3 byte) []byte {
	return []byte{typ, byte(f2 >> 8), byte(f2), f3}
}

type warnings []string

func (w *warnings) add(msg string, _ int64) { *w = append(*w, msg) }

func parseTable(t *testing.T, src string, opts ...xref.Option) (*xref.Section, error) {
	t.Helper()
	return xref.NewParser(scanner.NewCursor([]byte(src)), opts...).ParseTable()
}

func TestParseTable_FreeHeadAndInUse(t *testing.T) {
	sec, err := parseTable(t, "xref\n0 2\n0000000000 65535 f\n0000000015 00000 n\ntrailer\n<< /Size 2 >>")
	require.NoError(t, err)

	assert.Equal(t, xref.FreeEntry{Next: 0, Gen: 65535}, sec.Entries[0])
	assert.Equal(t, xref.InUseEntry{Offset: 15, Gen: 0}, sec.Entries[1])
	assert.Equal(t, 2, sec.Trailer.Size)
	assert.False(t, sec.Stream)
}

func TestParseTable_LineSeparators(t *testing.T) {
	tests := []struct {
		name string
		eol  string
	}{
		{"space LF", " \n"},
		{"space CR", " \r"},
		{"CRLF", "\r\n"},
		{"LF", "\n"},
		{"bare CR", "\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "xref\n0 3\n" +
				"0000000000 65535 f" + tt.eol +
				"0000000015 00000 n" + tt.eol +
				"0000000120 00002 n" + tt.eol +
				"trailer\n<< /Size 3 >>\n"
			sec, err := parseTable(t, src)
			require.NoError(t, err)
			assert.Len(t, sec.Entries, 3)
			assert.Equal(t, xref.InUseEntry{Offset: 120, Gen: 2}, sec.Entries[2])
		})
	}
}

func TestParseTable_MissingSpaces(t *testing.T) {
	src := "xref\n0 3\n" +
		"0000000000 65535f\n" +
		"000000001500000 n\n" +
		"0000000042 00000n\n" +
		"trailer << /Size 3 >>"
	sec, err := parseTable(t, src)
	require.NoError(t, err)
	assert.Equal(t, xref.FreeEntry{Next: 0, Gen: 65535}, sec.Entries[0])
	assert.Equal(t, xref.InUseEntry{Offset: 15}, sec.Entries[1])
	assert.Equal(t, xref.InUseEntry{Offset: 42}, sec.Entries[2])
}

func TestParseTable_Gaps(t *testing.T) {
	src := "xref\n0 1\n0000000000 65535 f \n" +
		"5 2\n0000000100 00000 n \n0000000200 00000 n \n" +
		"trailer\n<< /Size 7 >>"
	sec, err := parseTable(t, src)
	require.NoError(t, err)

	assert.Len(t, sec.Entries, 3)
	for _, missing := range []int{1, 2, 3, 4} {
		_, ok := sec.Entries[missing]
		assert.False(t, ok, "object %d", missing)
	}
	assert.Equal(t, xref.InUseEntry{Offset: 200}, sec.Entries[6])
}

func TestParseTable_TrailerFields(t *testing.T) {
	src := "xref\n0 1\n0000000000 65535 f \n" +
		"trailer\n<< /Size 9 /Root 1 0 R /Info 7 0 R /Prev 1234 /ID [<0102> <0304>] >>"
	sec, err := parseTable(t, src)
	require.NoError(t, err)

	tr := sec.Trailer
	assert.Equal(t, 9, tr.Size)
	require.NotNil(t, tr.Root)
	assert.Equal(t, 1, tr.Root.Num())
	require.NotNil(t, tr.Info)
	assert.Equal(t, 7, tr.Info.Num())
	require.NotNil(t, sec.Prev)
	assert.Equal(t, int64(1234), *sec.Prev)
	require.Len(t, tr.ID, 2)
	assert.Equal(t, []byte{1, 2}, tr.ID[0].Bytes)
	assert.Nil(t, tr.XRefStm)
}

func TestParseTable_InvalidEntry(t *testing.T) {
	src := "xref\n0 2\n0000000000 65535 f \n00000000x5 00000 n \ntrailer\n<< /Size 2 >>"

	_, err := parseTable(t, src)
	var fe *xref.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "invalid xref entry", fe.Msg)

	var w warnings
	sec, err := parseTable(t, src, xref.WithRecovery(true), xref.WithWarnings(w.add))
	require.NoError(t, err)
	assert.Equal(t, warnings{"invalid xref entry"}, w)
	assert.Len(t, sec.Entries, 1)
	assert.Equal(t, 2, sec.Trailer.Size)
}

func TestParseTable_ShortSubsection(t *testing.T) {
	src := "xref\n0 3\n0000000000 65535 f \n0000000015 00000 n \ntrailer\n<< /Size 2 >>"

	_, err := parseTable(t, src)
	require.Error(t, err)

	var w warnings
	sec, err := parseTable(t, src, xref.WithRecovery(true), xref.WithWarnings(w.add))
	require.NoError(t, err)
	assert.Equal(t, warnings{"subsection shorter than declared"}, w)
	assert.Len(t, sec.Entries, 2)
}

func TestParseTable_SubsectionNumberedFromOne(t *testing.T) {
	src := "xref\n1 3\n0000000000 65535 f \n0000000015 00000 n \n0000000030 00000 n \ntrailer\n<< /Size 3 >>"

	sec, err := parseTable(t, src)
	require.NoError(t, err)
	assert.Equal(t, xref.InUseEntry{Offset: 15}, sec.Entries[2])

	var w warnings
	sec, err = parseTable(t, src, xref.WithRecovery(true), xref.WithWarnings(w.add))
	require.NoError(t, err)
	assert.Len(t, w, 1)
	assert.Equal(t, xref.FreeEntry{Gen: 65535}, sec.Entries[0])
	assert.Equal(t, xref.InUseEntry{Offset: 15}, sec.Entries[1])
	assert.Equal(t, xref.InUseEntry{Offset: 30}, sec.Entries[2])
}

func TestParseTable_SubsectionRange(t *testing.T) {
	for _, header := range []string{"18446744073709551615 1", "8388607 2", "1 18446744073709551615"} {
		src := "xref\n" + header + "\n0000000015 00000 n \n0000000030 00000 n \ntrailer\n<< /Size 1 >>\n"

		_, err := parseTable(t, src)
		var fe *xref.FormatError
		require.ErrorAs(t, err, &fe, header)

		var w warnings
		sec, err := parseTable(t, src, xref.WithRecovery(true), xref.WithWarnings(w.add))
		require.NoError(t, err, header)
		assert.Len(t, w, 1, header)
		assert.Empty(t, sec.Entries, header)
	}
}

func TestParseTable_MissingTrailer(t *testing.T) {
	src := "xref\n0 1\n0000000000 65535 f \n"
	_, err := parseTable(t, src)
	require.Error(t, err)

	var w warnings
	sec, err := parseTable(t, src, xref.WithRecovery(true), xref.WithWarnings(w.add))
	require.NoError(t, err)
	assert.Equal(t, warnings{"missing trailer"}, w)
	assert.NotNil(t, sec.Trailer.Dict)
}

func TestLocateStartXRef(t *testing.T) {
	tests := []struct {
		name string
		tail string
		want int64
	}{
		{"LF", "startxref\n123\n%%EOF\n", 123},
		{"CRLF", "startxref\r\n123\r\n%%EOF\r\n", 123},
		{"CR", "startxref\r123\r%%EOF", 123},
		{"no EOF marker", "startxref\n77", 77},
		{"trailing garbage", "startxref\n5\n%%EOF\n\x00\x00junk", 5},
		{"last usable wins", "startxref\n10\n%%EOF\nstartxref\n20\n%%EOF\nstartxref\n%%EOF", 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := scanner.NewCursor([]byte("%PDF-1.4\n" + tt.tail))
			got, err := xref.LocateStartXRef(c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(0), c.Pos())
		})
	}

	_, err := xref.LocateStartXRef(scanner.NewCursor([]byte("%PDF-1.4\n1 0 obj null endobj")))
	assert.ErrorIs(t, err, xref.ErrStartXRefNotFound)
}

func TestResolve_Table(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	f.obj(2, "<< /Type /Pages /Count 0 >>")
	data := f.finish(f.table("<< /Size 3 /Root 1 0 R >>", 1, 2))

	ix, err := xref.Resolve(scanner.NewCursor(data))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, ix.Objects())
	for _, num := range []int{1, 2} {
		e, ok := ix.Lookup(num)
		require.True(t, ok)
		assert.Equal(t, xref.InUseEntry{Offset: f.offsets[num]}, e)
	}
	assert.Equal(t, "table", ix.Type())
	assert.Equal(t, 1, ix.Trailer.Root.Num())
	assert.Equal(t, 3, ix.Size())
}

func TestResolve_IncrementalUpdateWins(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	f.obj(2, "<< /Type /Pages /Count 0 >>")
	base := f.table("<< /Size 3 /Root 1 0 R /Info 9 0 R >>", 1, 2)
	baseOffset2 := f.offsets[2]

	f.obj(2, "<< /Type /Pages /Count 1 >>")
	f.obj(3, "<< /Type /Page /Parent 2 0 R >>")
	update := f.table(fmt.Sprintf("<< /Size 4 /Prev %d >>", base), 2, 3)
	data := f.finish(update)

	ix, err := xref.Resolve(scanner.NewCursor(data))
	require.NoError(t, err)
	require.Len(t, ix.Sections, 2)
	assert.Equal(t, update, ix.Sections[0].Offset)

	e, _ := ix.Lookup(2)
	assert.Equal(t, xref.InUseEntry{Offset: f.offsets[2]}, e)
	assert.NotEqual(t, baseOffset2, f.offsets[2])

	e, _ = ix.Lookup(1)
	assert.Equal(t, xref.InUseEntry{Offset: f.offsets[1]}, e)

	e, _ = ix.Lookup(3)
	assert.Equal(t, xref.InUseEntry{Offset: f.offsets[3]}, e)

	// The update trailer lacks Root and Info; they come from the base.
	assert.Equal(t, 4, ix.Trailer.Size)
	require.NotNil(t, ix.Trailer.Root)
	assert.Equal(t, 1, ix.Trailer.Root.Num())
	require.NotNil(t, ix.Trailer.Info)
	assert.Equal(t, 9, ix.Trailer.Info.Num())
}

func TestMerge_Precedence(t *testing.T) {
	newer := &xref.Section{Entries: map[int]xref.Entry{
		1: xref.InUseEntry{Offset: 500, Gen: 1},
		4: xref.FreeEntry{Next: 0, Gen: 1},
	}}
	older := &xref.Section{Entries: map[int]xref.Entry{
		1: xref.InUseEntry{Offset: 10},
		2: xref.InUseEntry{Offset: 20},
		4: xref.InUseEntry{Offset: 40},
	}}

	ix := xref.Merge(newer, older)
	for num, want := range map[int]xref.Entry{
		1: xref.InUseEntry{Offset: 500, Gen: 1},
		2: xref.InUseEntry{Offset: 20},
		4: xref.FreeEntry{Next: 0, Gen: 1},
	} {
		got, ok := ix.Lookup(num)
		require.True(t, ok)
		assert.Equal(t, want, got, "object %d", num)
	}
	assert.Equal(t, 3, ix.Len())
}

func TestResolve_PrevCycle(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog >>")
	self := int64(f.buf.Len())
	f.table(fmt.Sprintf("<< /Size 2 /Root 1 0 R /Prev %d >>", self), 1)
	data := f.finish(self)

	_, err := xref.Resolve(scanner.NewCursor(data))
	var fe *xref.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "xref chain loops", fe.Msg)

	var w warnings
	ix, err := xref.Resolve(scanner.NewCursor(data), xref.WithRecovery(true), xref.WithWarnings(w.add))
	require.NoError(t, err)
	assert.Equal(t, warnings{"xref chain loops"}, w)
	assert.Len(t, ix.Sections, 1)
}

func TestResolve_ChainDepthLimit(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog >>")
	prev := f.table("<< /Size 2 /Root 1 0 R >>", 1)
	for i := 0; i < 3; i++ {
		prev = f.table(fmt.Sprintf("<< /Size 2 /Prev %d >>", prev), 1)
	}
	data := f.finish(prev)

	lim := security.DefaultLimits()
	lim.MaxXRefDepth = 2
	for _, lenient := range []bool{false, true} {
		_, err := xref.Resolve(scanner.NewCursor(data), xref.WithLimits(lim), xref.WithRecovery(lenient))
		assert.ErrorIs(t, err, security.ErrLimitExceeded)
	}

	ix, err := xref.Resolve(scanner.NewCursor(data))
	require.NoError(t, err)
	assert.Len(t, ix.Sections, 4)
}

func TestResolve_BadPrevInRecovery(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog >>")
	data := f.finish(f.table("<< /Size 2 /Root 1 0 R /Prev 99999 >>", 1))

	_, err := xref.Resolve(scanner.NewCursor(data))
	require.Error(t, err)

	var w warnings
	ix, err := xref.Resolve(scanner.NewCursor(data), xref.WithRecovery(true), xref.WithWarnings(w.add))
	require.NoError(t, err)
	assert.Equal(t, warnings{"unreadable previous xref section"}, w)
	_, ok := ix.Lookup(1)
	assert.True(t, ok)
}

func TestResolve_XRefStream(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	f.obj(2, "<< /Type /Pages /Count 0 >>")
	xoff := f.buf.Len()
	var rows []byte
	rows = append(rows, row(0, 0, 255)...)
	rows = append(rows, row(1, int(f.offsets[1]), 0)...)
	rows = append(rows, row(1, int(f.offsets[2]), 0)...)
	rows = append(rows, row(1, xoff, 0)...)
	rows = append(rows, row(2, 7, 3)...)
	f.stream(3, "/Type /XRef /Size 5 /W [1 2 1] /Root 1 0 R", rows)
	data := f.finish(int64(xoff))

	ix, err := xref.Resolve(scanner.NewCursor(data))
	require.NoError(t, err)
	assert.Equal(t, "stream", ix.Type())
	assert.True(t, ix.Sections[0].Stream)

	e, _ := ix.Lookup(0)
	assert.Equal(t, xref.FreeEntry{Gen: 255}, e)
	e, _ = ix.Lookup(2)
	assert.Equal(t, xref.InUseEntry{Offset: f.offsets[2]}, e)
	e, _ = ix.Lookup(4)
	assert.Equal(t, xref.CompressedEntry{Container: 7, Index: 3}, e)
	assert.Equal(t, 0, e.Generation())
	assert.Equal(t, 1, ix.Trailer.Root.Num())
}

func TestResolve_XRefStreamFlatePredictor(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog >>")
	xoff := f.buf.Len()

	var plain []byte
	for _, r := range [][]byte{row(0, 0, 0), row(1, int(f.offsets[1]), 0), row(1, xoff, 0)} {
		plain = append(plain, 0) // PNG "None" row filter
		plain = append(plain, r...)
	}
	enc, err := filters.FlateEncode(plain)
	require.NoError(t, err)
	f.stream(2, "/Type /XRef /Size 3 /W [1 2 1] /Root 1 0 R /Filter /FlateDecode /DecodeParms << /Predictor 12 /Columns 4 >>", enc)
	data := f.finish(int64(xoff))

	ix, err := xref.Resolve(scanner.NewCursor(data))
	require.NoError(t, err)
	e, _ := ix.Lookup(1)
	assert.Equal(t, xref.InUseEntry{Offset: f.offsets[1]}, e)
	e, _ = ix.Lookup(2)
	assert.Equal(t, xref.InUseEntry{Offset: int64(xoff)}, e)
}

func TestResolve_XRefStreamIndirectLength(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog >>")
	rows := append(row(0, 0, 0), row(1, int(f.offsets[1]), 0)...)
	f.obj(9, fmt.Sprint(len(rows)))
	xoff := f.buf.Len()
	fmt.Fprintf(&f.buf, "2 0 obj\n<< /Type /XRef /Size 2 /W [1 2 1] /Root 1 0 R /Length 9 0 R >>\nstream\n")
	f.buf.Write(rows)
	f.buf.WriteString("\nendstream\nendobj\n")
	data := f.finish(int64(xoff))

	ix, err := xref.Resolve(scanner.NewCursor(data))
	require.NoError(t, err)
	e, _ := ix.Lookup(1)
	assert.Equal(t, xref.InUseEntry{Offset: f.offsets[1]}, e)
}

func TestResolve_XRefStreamIndex(t *testing.T) {
	f := newFixture()
	f.obj(10, "<< /Type /Catalog >>")
	xoff := f.buf.Len()
	rows := append(row(1, int(f.offsets[10]), 0), row(2, 10, 0)...)
	f.stream(11, "/Type /XRef /Size 21 /Index [10 1 20 1] /W [1 2 1] /Root 10 0 R", rows)
	data := f.finish(int64(xoff))

	ix, err := xref.Resolve(scanner.NewCursor(data))
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, ix.Objects())
	e, _ := ix.Lookup(20)
	assert.Equal(t, xref.CompressedEntry{Container: 10}, e)
}

func TestResolve_Hybrid(t *testing.T) {
	f := newFixture()
	f.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	f.obj(2, "<< /Type /Pages /Count 0 >>")
	soff := f.buf.Len()
	rows := append(row(1, 999, 0), row(2, 5, 0)...)
	f.stream(4, "/Type /XRef /Size 6 /Index [2 2] /W [1 2 1]", rows)
	toff := f.table(fmt.Sprintf("<< /Size 6 /Root 1 0 R /XRefStm %d >>", soff), 1, 2)
	data := f.finish(toff)

	ix, err := xref.Resolve(scanner.NewCursor(data))
	require.NoError(t, err)
	assert.Equal(t, "hybrid", ix.Type())
	require.Len(t, ix.Sections, 2)

	e, _ := ix.Lookup(2)
	assert.Equal(t, xref.InUseEntry{Offset: f.offsets[2]}, e, "table entries shadow the stream")
	e, _ = ix.Lookup(3)
	assert.Equal(t, xref.CompressedEntry{Container: 5}, e)
}

func TestFreeList(t *testing.T) {
	entries := map[int]xref.Entry{
		0: xref.FreeEntry{Next: 3, Gen: 65535},
		1: xref.FreeEntry{Next: 0, Gen: 1},
		2: xref.InUseEntry{Offset: 10},
		3: xref.FreeEntry{Next: 1, Gen: 1},
	}
	visited, closed := xref.FreeList(entries, 0)
	assert.Equal(t, []int{3, 1, 0}, visited)
	assert.True(t, closed)

	t.Run("ends at in-use object", func(t *testing.T) {
		entries := map[int]xref.Entry{
			0: xref.FreeEntry{Next: 3},
			2: xref.InUseEntry{Offset: 10},
			3: xref.FreeEntry{Next: 2},
		}
		visited, closed := xref.FreeList(entries, 0)
		assert.Equal(t, []int{3}, visited)
		assert.False(t, closed)
	})

	t.Run("loop not through head", func(t *testing.T) {
		entries := map[int]xref.Entry{
			0: xref.FreeEntry{Next: 1},
			1: xref.FreeEntry{Next: 2},
			2: xref.FreeEntry{Next: 1},
		}
		visited, closed := xref.FreeList(entries, 0)
		assert.Equal(t, []int{1, 2}, visited)
		assert.False(t, closed)
	})

	t.Run("no head", func(t *testing.T) {
		visited, closed := xref.FreeList(map[int]xref.Entry{}, 0)
		assert.Empty(t, visited)
		assert.False(t, closed)
	})
}

func TestIndex_FreeListFromTable(t *testing.T) {
	src := "xref\n0 4\n0000000003 65535 f \n0000000000 00001 f \n0000000015 00000 n \n0000000001 00001 f \n" +
		"trailer\n<< /Size 4 >>\nstartxref\n0\n%%EOF\n"
	ix, err := xref.Resolve(scanner.NewCursor([]byte(src)))
	require.NoError(t, err)
	visited, closed := ix.FreeList()
	assert.Equal(t, []int{3, 1, 0}, visited)
	assert.True(t, closed)
}

func TestParseAt_OutOfRange(t *testing.T) {
	p := xref.NewParser(scanner.NewCursor([]byte("xref")))
	_, err := p.ParseAt(100)
	var fe *xref.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, int64(100), fe.Offset)
}
