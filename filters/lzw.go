package filters

import (
	"bytes"
	"context"

	"github.com/hhrutter/lzw"

	"github.com/wudi/pdfcore/ir/raw"
)

type lzwDecoder struct{ limits Limits }

func NewLZWDecoder(limits Limits) Decoder { return lzwDecoder{limits: limits} }

func (lzwDecoder) Name() string { return "LZWDecode" }

// Decode honours /EarlyChange, which defaults to 1.
func (d lzwDecoder) Decode(ctx context.Context, in []byte, params *raw.Dict) ([]byte, error) {
	early := intParam(params, "EarlyChange", 1) == 1
	r := lzw.NewReader(bytes.NewReader(in), early)
	defer r.Close()
	out, err := readLimited(r, limitOf(d.limits))
	if err != nil {
		return nil, err
	}
	return applyPredictor(out, params)
}
