package writer

import (
	"crypto/rand"
	"fmt"
	"hash"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/wudi/pdfcore/filters"
	"github.com/wudi/pdfcore/ir/raw"
)

// FormatDate renders t as a PDF date string, D:YYYYMMDDHHmmSSOHH'mm'.
func FormatDate(t time.Time) string {
	_, off := t.Zone()
	if off == 0 {
		return t.Format("D:20060102150405") + "Z"
	}
	sign := byte('+')
	if off < 0 {
		sign, off = '-', -off
	}
	return fmt.Sprintf("%s%c%02d'%02d'", t.Format("D:20060102150405"), sign, off/3600, off%3600/60)
}

// idHash accumulates the bytes an identifier is derived from.
func idHash() hash.Hash {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(err) // only for sizes outside 1..64
	}
	return h
}

// fileID finishes h into an identifier. Without determinism the digest is
// salted with random bytes so two writes of the same objects differ.
func fileID(h hash.Hash, deterministic bool) []byte {
	if !deterministic {
		var salt [16]byte
		_, _ = rand.Read(salt[:])
		h.Write(salt[:])
		h.Write([]byte(time.Now().UTC().Format(time.RFC3339Nano)))
	}
	return h.Sum(nil)
}

// prepare returns the value to write for o, compressing unfiltered streams
// when cfg asks for it. o itself is never modified.
func prepare(o raw.Object, cfg Config) (raw.Object, error) {
	s, ok := o.(*raw.Stream)
	if !ok || !cfg.Compress {
		return o, nil
	}
	if _, filtered := s.Dict.Get("Filter"); filtered || len(s.Data) == 0 {
		return o, nil
	}
	enc, err := filters.FlateEncode(s.Data)
	if err != nil {
		return nil, err
	}
	if len(enc) >= len(s.Data) {
		return o, nil
	}
	d := s.Dict.Clone()
	d.Delete("DecodeParms")
	d.Set("Filter", raw.Name("FlateDecode"))
	return raw.NewStream(d, enc), nil
}
