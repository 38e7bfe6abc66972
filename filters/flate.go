package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"context"
	"io"

	"github.com/wudi/pdfcore/ir/raw"
)

type flateDecoder struct{ limits Limits }

func NewFlateDecoder(limits Limits) Decoder { return flateDecoder{limits: limits} }

func (flateDecoder) Name() string { return "FlateDecode" }

// Decode inflates zlib data. Streams missing the zlib header are read as raw
// deflate, and a truncated tail keeps whatever was inflated before it.
func (d flateDecoder) Decode(ctx context.Context, in []byte, params *raw.Dict) ([]byte, error) {
	var r io.ReadCloser
	zr, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		r = flate.NewReader(bytes.NewReader(in))
	} else {
		r = zr
	}
	defer r.Close()
	out, err := readLimited(r, limitOf(d.limits))
	if err != nil && (len(out) == 0 || !isTruncation(err)) {
		return nil, err
	}
	return applyPredictor(out, params)
}

func isTruncation(err error) bool {
	return err == io.ErrUnexpectedEOF || err == zlib.ErrChecksum
}

func limitOf(l Limits) int64 {
	if l.MaxDecompressedSize > 0 {
		return l.MaxDecompressedSize
	}
	return 1 << 62
}

// FlateEncode compresses data with zlib at the default level.
func FlateEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
