package parser

import (
	"testing"

	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/scanner"
)

func FuzzParser(f *testing.F) {
	f.Add([]byte("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj"))
	f.Add([]byte("1 0 obj\n<< /Length 5 >>\nstream\nHello\nendstream\nendobj"))
	f.Add([]byte("1 0 obj << /A [1 2 << /B (x) >> ] /C 3 0 R"))
	f.Add([]byte("[[[[[[[[[["))

	f.Fuzz(func(t *testing.T, data []byte) {
		resolve := func(raw.ObjectRef) (int64, bool) { return 1, true }
		for _, rec := range []bool{false, true} {
			ip := NewIndirect(scanner.NewCursor(data), resolve, WithRecovery(rec), WithNameCache(raw.NewNameCache(64)), WithRefCache(raw.NewRefCache(64)))
			for i := 0; i < 64; i++ {
				if _, err := ip.ParseObject(); err != nil {
					break
				}
			}
		}
	})
}
