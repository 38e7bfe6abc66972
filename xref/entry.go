// Package xref reads cross-reference tables and streams and merges the
// sections of an incrementally updated file into a single object index.
package xref

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/ir/raw"
)

// Object numbers above this are rejected as implausible.
const maxObjectNumber = 8388607

const maxGeneration = 65535

// ErrStartXRefNotFound is returned when no usable startxref is present.
var ErrStartXRefNotFound = errors.New("startxref not found")

// FormatError is a malformed table or stream.
type FormatError struct {
	Msg    string
	Offset int64
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("xref: %s at offset %d", e.Msg, e.Offset)
}

// Entry is one of FreeEntry, InUseEntry or CompressedEntry.
type Entry interface {
	Generation() int
	isEntry()
}

// FreeEntry marks a deleted object; Next links to the next free object.
type FreeEntry struct {
	Next int
	Gen  int
}

// InUseEntry locates an uncompressed object by byte offset.
type InUseEntry struct {
	Offset int64
	Gen    int
}

// CompressedEntry locates an object inside the object stream Container.
type CompressedEntry struct {
	Container int
	Index     int
}

func (e FreeEntry) Generation() int     { return e.Gen }
func (e InUseEntry) Generation() int    { return e.Gen }
func (CompressedEntry) Generation() int { return 0 }

func (FreeEntry) isEntry()       {}
func (InUseEntry) isEntry()      {}
func (CompressedEntry) isEntry() {}

// Trailer holds the entries of a trailer dictionary (or of an xref stream
// dictionary) that the index cares about.
type Trailer struct {
	Size    int
	Root    *raw.Reference
	Info    *raw.Reference
	ID      []raw.String
	Prev    *int64
	XRefStm *int64
	Encrypt raw.Object
	Dict    *raw.Dict
}

func trailerFrom(d *raw.Dict) Trailer {
	if d == nil {
		d = raw.NewDict()
	}
	t := Trailer{Dict: d}
	if n, ok := d.Int("Size"); ok && n > 0 {
		t.Size = int(n)
	}
	t.Root, _ = d.Ref("Root")
	t.Info, _ = d.Ref("Info")
	if n, ok := d.Int("Prev"); ok && n >= 0 {
		t.Prev = &n
	}
	if n, ok := d.Int("XRefStm"); ok && n >= 0 {
		t.XRefStm = &n
	}
	if arr, ok := d.Array("ID"); ok {
		for _, it := range arr.Items {
			if s, ok := it.(raw.String); ok {
				t.ID = append(t.ID, s)
			}
		}
	}
	t.Encrypt, _ = d.Get("Encrypt")
	return t
}

// backfill copies fields t lacks from an older trailer.
func (t *Trailer) backfill(older Trailer) {
	if t.Size == 0 {
		t.Size = older.Size
	}
	if t.Root == nil {
		t.Root = older.Root
	}
	if t.Info == nil {
		t.Info = older.Info
	}
	if t.ID == nil {
		t.ID = older.ID
	}
	if t.Encrypt == nil {
		t.Encrypt = older.Encrypt
	}
}

// Section is one xref table or stream with its trailer.
type Section struct {
	Entries map[int]Entry
	Trailer Trailer
	Prev    *int64
	Offset  int64
	Stream  bool
}

func newSection(offset int64) *Section {
	return &Section{Entries: make(map[int]Entry), Offset: offset}
}

func (s *Section) setTrailer(d *raw.Dict) {
	s.Trailer = trailerFrom(d)
	s.Prev = s.Trailer.Prev
}
