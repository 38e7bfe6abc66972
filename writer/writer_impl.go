package writer

import (
	"context"
	"hash"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/bytebuf"
	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/observability"
)

// SerializeObject frames obj as "num gen obj ... endobj". A stream gets a
// Length matching its data; the caller's dictionary is left alone.
func SerializeObject(ref raw.ObjectRef, obj raw.Object) []byte {
	b := bytebuf.New(64)
	appendObject(b, ref, obj)
	return b.Bytes()
}

func appendObject(b *bytebuf.Buffer, ref raw.ObjectRef, obj raw.Object) {
	b.WriteInt(int64(ref.Num))
	b.WriteByte(' ')
	b.WriteInt(int64(ref.Gen))
	b.WriteString(" obj\n")
	if s, ok := obj.(*raw.Stream); ok {
		d := s.Dict.Clone()
		d.Set("Length", raw.Int(int64(len(s.Data))))
		obj = raw.NewStream(d, s.Data)
	}
	raw.Append(b, obj)
	b.WriteString("\nendobj\n")
}

const binaryComment = "%\xE2\xE3\xCF\xD3\n"

// tableEntry is one line of a classic xref table.
type tableEntry struct {
	offset int64 // next free object for free entries
	gen    int
	free   bool
}

// WriteFile writes a complete document: header, objects in ascending number
// order, a single xref table, trailer and startxref. Numbers that no object
// uses are chained into the free list.
func WriteFile(ctx context.Context, w io.Writer, objs []Object, tr Trailer, cfg Config) (err error) {
	cfg = cfg.withDefaults()
	ctx, span := cfg.Tracer.StartSpan(ctx, "writer.write_file")
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	sorted, err := sortObjects(objs)
	if err != nil {
		return err
	}
	out := bytebuf.NewWriter(w)
	out.WriteString("%PDF-" + cfg.Version + "\n" + binaryComment)

	h := idHash()
	table := make(map[int]tableEntry, len(sorted)+1)
	if err := writeObjects(ctx, out, h, sorted, table, cfg); err != nil {
		return err
	}

	size := 1
	if n := len(sorted); n > 0 {
		size = sorted[n-1].Ref.Num + 1
	}
	var missing []int
	for num := 1; num < size; num++ {
		if _, ok := table[num]; !ok {
			missing = append(missing, num)
		}
	}
	chainFree(table, missing, nil)

	trailer := trailerDict(size, tr, h, cfg)
	if err := finish(out, table, trailer); err != nil {
		return err
	}
	span.SetTag(observability.TagObjectCount, len(sorted))
	span.SetTag(observability.TagBytesWritten, out.Offset())
	cfg.Logger.Debug("wrote file",
		observability.Int("objects", len(sorted)),
		observability.Int64("bytes", out.Offset()))
	return nil
}

func sortObjects(objs []Object) ([]Object, error) {
	sorted := append([]Object(nil), objs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ref.Num < sorted[j].Ref.Num })
	for i, o := range sorted {
		if o.Ref.Num <= 0 {
			return nil, errors.Errorf("invalid object number %d", o.Ref.Num)
		}
		if i > 0 && sorted[i-1].Ref.Num == o.Ref.Num {
			return nil, errors.Errorf("object %d written twice", o.Ref.Num)
		}
	}
	return sorted, nil
}

func writeObjects(ctx context.Context, out *bytebuf.Writer, h hash.Hash, objs []Object, table map[int]tableEntry, cfg Config) error {
	b := bytebuf.New(4096)
	for _, o := range objs {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := prepare(o.Value, cfg)
		if err != nil {
			return errors.Wrapf(err, "compress object %d", o.Ref.Num)
		}
		table[o.Ref.Num] = tableEntry{offset: out.Offset(), gen: o.Ref.Gen}
		appendObject(b, o.Ref, v)
		h.Write(b.Bytes())
		out.WriteBuffer(b)
	}
	return out.Err()
}

// chainFree links object 0 and the free numbers into a list in ascending
// order, ending back at 0. gens gives the generation for each number;
// numbers without one get generation 0.
func chainFree(table map[int]tableEntry, free []int, gens map[int]int) {
	sort.Ints(free)
	head := tableEntry{gen: 65535, free: true}
	if len(free) > 0 {
		head.offset = int64(free[0])
	}
	table[0] = head
	for i, num := range free {
		e := tableEntry{gen: gens[num], free: true}
		if i+1 < len(free) {
			e.offset = int64(free[i+1])
		}
		table[num] = e
	}
}

func trailerDict(size int, tr Trailer, h hash.Hash, cfg Config) *raw.Dict {
	d := raw.NewDict()
	d.Set("Size", raw.Int(int64(size)))
	d.Set("Root", raw.NewRef(tr.Root.Num, tr.Root.Gen))
	if tr.Info != nil {
		d.Set("Info", raw.NewRef(tr.Info.Num, tr.Info.Gen))
	}
	if tr.Encrypt != nil {
		d.Set("Encrypt", tr.Encrypt)
	}
	id := tr.ID
	if len(id[0]) == 0 && len(id[1]) == 0 {
		sum := fileID(h, cfg.Deterministic)
		id = [2][]byte{sum, sum}
	} else if len(id[1]) == 0 {
		id[1] = fileID(h, cfg.Deterministic)
	}
	d.Set("ID", raw.NewArray(raw.HexStr(id[0]), raw.HexStr(id[1])))
	return d
}

// finish writes the xref table, the trailer and the startxref footer.
func finish(out *bytebuf.Writer, table map[int]tableEntry, trailer *raw.Dict) error {
	xoff := out.Offset()
	b := bytebuf.New(32 + 20*len(table))
	appendTable(b, table)
	b.WriteString("trailer\n")
	raw.Append(b, trailer)
	b.WriteString("\nstartxref\n")
	b.WriteInt(xoff)
	b.WriteString("\n%%EOF\n")
	out.WriteBuffer(b)
	return out.Err()
}

// appendTable writes table as subsections of consecutive object numbers.
// Every entry line is exactly 20 bytes.
func appendTable(b *bytebuf.Buffer, table map[int]tableEntry) {
	nums := make([]int, 0, len(table))
	for num := range table {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	b.WriteString("xref\n")
	for i := 0; i < len(nums); {
		j := i + 1
		for j < len(nums) && nums[j] == nums[j-1]+1 {
			j++
		}
		b.WriteInt(int64(nums[i]))
		b.WriteByte(' ')
		b.WriteInt(int64(j - i))
		b.WriteByte('\n')
		for _, num := range nums[i:j] {
			e := table[num]
			b.WritePadded(e.offset, 10)
			b.WriteByte(' ')
			b.WritePadded(int64(e.gen), 5)
			if e.free {
				b.WriteString(" f\r\n")
			} else {
				b.WriteString(" n\r\n")
			}
		}
		i = j
	}
}
