package optimize

import (
	"encoding/binary"
	"hash"
	"math"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/wudi/pdfcore/ir/raw"
)

type digest [blake2b.Size256]byte

// hashObject returns a structural digest of obj. References are hashed by
// number, not followed, so equal digests mean equal direct content.
func hashObject(obj raw.Object) digest {
	h, _ := blake2b.New256(nil)
	writeHash(h, obj)
	var d digest
	h.Sum(d[:0])
	return d
}

func writeLen(h hash.Hash, tag byte, n int) {
	var b [9]byte
	b[0] = tag
	binary.BigEndian.PutUint64(b[1:], uint64(n))
	h.Write(b[:])
}

func writeHash(h hash.Hash, obj raw.Object) {
	switch t := obj.(type) {
	case nil, raw.NullObj:
		h.Write([]byte{'z'})
	case raw.Name:
		writeLen(h, '/', len(t))
		h.Write([]byte(t))
	case raw.Number:
		var b [9]byte
		b[0] = '#'
		binary.BigEndian.PutUint64(b[1:], math.Float64bits(float64(t)))
		h.Write(b[:])
	case raw.Bool:
		if t {
			h.Write([]byte{'t'})
		} else {
			h.Write([]byte{'f'})
		}
	case raw.String:
		// Literal and hex forms of the same bytes are the same string.
		writeLen(h, '(', len(t.Bytes))
		h.Write(t.Bytes)
	case *raw.Reference:
		writeLen(h, 'R', t.Num())
		writeLen(h, 'g', t.Gen())
	case *raw.Array:
		writeLen(h, '[', t.Len())
		for _, it := range t.Items {
			writeHash(h, it)
		}
	case *raw.Dict:
		keys := t.Keys()
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		writeLen(h, '<', len(keys))
		for _, k := range keys {
			v, _ := t.Get(k)
			writeHash(h, k)
			writeHash(h, v)
		}
	case *raw.Stream:
		writeLen(h, 's', len(t.Data))
		writeHash(h, withoutLength(t.Dict))
		h.Write(t.Data)
	}
}

// withoutLength drops /Length, which the writer recomputes and which may be
// an indirect reference that differs between otherwise equal streams.
func withoutLength(d *raw.Dict) *raw.Dict {
	if _, ok := d.Get("Length"); !ok {
		return d
	}
	c := d.Clone()
	c.Delete("Length")
	return c
}
