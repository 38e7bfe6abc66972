// Command pdfinspect prints the cross-reference index and objects of a PDF.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/midbel/hexdump"
	"go.uber.org/zap/zapcore"

	"github.com/wudi/pdfcore/contentstream"
	"github.com/wudi/pdfcore/document"
	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/observability"
	"github.com/wudi/pdfcore/xref"
)

type options struct {
	xref    bool
	obj     int
	gen     int
	dump    bool
	ops     bool
	recover bool
	verbose bool
}

func main() {
	var o options
	fs := flag.NewFlagSet("pdfinspect", flag.ExitOnError)
	fs.BoolVar(&o.xref, "xref", false, "print the merged xref index")
	fs.IntVar(&o.obj, "obj", 0, "print object `num`")
	fs.IntVar(&o.gen, "gen", 0, "generation of -obj")
	fs.BoolVar(&o.dump, "dump", false, "hex dump the decoded stream of -obj")
	fs.BoolVar(&o.ops, "ops", false, "list the content stream operators of -obj")
	fs.BoolVar(&o.recover, "recover", true, "tolerate malformed files")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: pdfinspect [flags] file.pdf")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	level := zapcore.WarnLevel
	if o.verbose {
		level = zapcore.DebugLevel
	}
	logger, err := observability.Development(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(context.Background(), os.Stdout, fs.Arg(0), o, logger); err != nil {
		logger.Error("inspect failed", observability.Error("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, path string, o options, logger observability.Logger) error {
	doc, err := document.OpenFile(ctx, path, document.Config{Recovery: o.recover, Logger: logger})
	if err != nil {
		return err
	}
	summary(w, doc)
	if o.xref {
		printIndex(w, doc.Index())
	}
	if o.obj > 0 {
		return printObject(ctx, w, doc, raw.ObjectRef{Num: o.obj, Gen: o.gen}, o)
	}
	return nil
}

func summary(w io.Writer, doc *document.Document) {
	ix := doc.Index()
	fmt.Fprintf(w, "version %s, xref %s, %d objects in %d sections\n",
		doc.Version(), ix.Type(), len(doc.Objects()), len(ix.Sections))
	if tr := doc.Trailer(); tr.Root != nil {
		fmt.Fprintf(w, "root %s\n", tr.Root)
	}
	for _, warn := range doc.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func printIndex(w io.Writer, ix *xref.Index) {
	for _, num := range ix.Objects() {
		e, _ := ix.Lookup(num)
		switch e := e.(type) {
		case xref.InUseEntry:
			fmt.Fprintf(w, "%6d %5d n offset %d\n", num, e.Gen, e.Offset)
		case xref.CompressedEntry:
			fmt.Fprintf(w, "%6d %5d c stream %d index %d\n", num, 0, e.Container, e.Index)
		case xref.FreeEntry:
			fmt.Fprintf(w, "%6d %5d f next %d\n", num, e.Gen, e.Next)
		}
	}
	if free, closed := ix.FreeList(); len(free) > 0 {
		fmt.Fprintf(w, "free list %v closed=%v\n", free, closed)
	}
}

func printObject(ctx context.Context, w io.Writer, doc *document.Document, ref raw.ObjectRef, o options) error {
	v, err := doc.Object(ref)
	if err != nil {
		return err
	}
	s, isStream := v.(*raw.Stream)
	if !isStream {
		fmt.Fprintf(w, "%s\n", raw.Serialize(v))
		return nil
	}
	fmt.Fprintf(w, "%s\n%d bytes encoded\n", raw.Serialize(s.Dict), len(s.Data))
	if !o.dump && !o.ops {
		return nil
	}
	data, err := doc.DecodeStream(ctx, s)
	if err != nil {
		return err
	}
	if o.dump {
		fmt.Fprintln(w, hexdump.Dump(data))
	}
	if o.ops {
		ops, err := contentstream.Parse(data)
		if err != nil {
			return err
		}
		boxes, err := contentstream.Trace(ops)
		if err != nil {
			return err
		}
		at := make(map[int]string, len(boxes))
		for _, b := range boxes {
			at[b.OpIndex] = fmt.Sprintf("  %% [%g %g %g %g]", b.Rect.LLX, b.Rect.LLY, b.Rect.URX, b.Rect.URY)
		}
		for i, op := range ops {
			fmt.Fprintf(w, "%s%s\n", op, at[i])
		}
	}
	return nil
}
