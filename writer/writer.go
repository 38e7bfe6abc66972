// Package writer serializes raw objects into complete PDF files and
// incremental update sections.
package writer

import (
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/observability"
)

const PDF17 = "1.7"

type Config struct {
	// Version goes into the %PDF- header. Empty means 1.7.
	Version string
	// Compress Flate-encodes streams that carry no /Filter yet, when that
	// makes them smaller.
	Compress bool
	// Deterministic derives the file identifier from the written bytes so
	// the same input always yields the same output.
	Deterministic bool
	Logger        observability.Logger
	Tracer        observability.Tracer
}

func (c Config) withDefaults() Config {
	if c.Version == "" {
		c.Version = PDF17
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	if c.Tracer == nil {
		c.Tracer = observability.NopTracer()
	}
	return c
}

// Object is an indirect object to be written.
type Object struct {
	Ref   raw.ObjectRef
	Value raw.Object
}

// Trailer names the document-level objects of a file.
type Trailer struct {
	Root raw.ObjectRef
	Info *raw.ObjectRef
	// ID is generated when both halves are empty.
	ID [2][]byte
	// Encrypt is copied into the trailer verbatim when set.
	Encrypt raw.Object
}

// Info is the document information dictionary.
type Info struct {
	Title, Author, Subject, Keywords string
	Creator, Producer                string
	CreationDate, ModDate            time.Time
}

// Dict builds the information dictionary. Empty fields are left out; text is
// NFC-normalized and written as PDF text strings.
func (i Info) Dict() *raw.Dict {
	d := raw.NewDict()
	for _, f := range []struct {
		key raw.Name
		val string
	}{
		{"Title", i.Title}, {"Author", i.Author}, {"Subject", i.Subject},
		{"Keywords", i.Keywords}, {"Creator", i.Creator}, {"Producer", i.Producer},
	} {
		if f.val != "" {
			d.Set(f.key, raw.TextString(norm.NFC.String(f.val)))
		}
	}
	if !i.CreationDate.IsZero() {
		d.Set("CreationDate", raw.Str(FormatDate(i.CreationDate)))
	}
	if !i.ModDate.IsZero() {
		d.Set("ModDate", raw.Str(FormatDate(i.ModDate)))
	}
	return d
}
