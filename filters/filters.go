// Package filters decodes stream payloads. Each filter named in a stream's
// /Filter entry is applied in order with its /DecodeParms.
package filters

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/security"
)

// ErrUnsupportedFilter is returned for filters this package cannot decode.
var ErrUnsupportedFilter = errors.New("unsupported filter")

type Decoder interface {
	Name() string
	Decode(ctx context.Context, input []byte, params *raw.Dict) ([]byte, error)
}

type Limits struct {
	MaxDecompressedSize int64
}

type Pipeline struct {
	decoders map[string]Decoder
	limits   Limits
}

// NewPipeline returns a pipeline with every built-in decoder registered.
func NewPipeline(limits Limits) *Pipeline {
	if limits.MaxDecompressedSize <= 0 {
		limits.MaxDecompressedSize = security.DefaultLimits().MaxDecompressedSize
	}
	p := &Pipeline{decoders: make(map[string]Decoder), limits: limits}
	for _, d := range []Decoder{
		NewFlateDecoder(limits),
		NewLZWDecoder(limits),
		NewASCIIHexDecoder(),
		NewASCII85Decoder(),
		NewRunLengthDecoder(),
	} {
		p.Register(d)
	}
	return p
}

// Register adds or replaces a decoder.
func (p *Pipeline) Register(d Decoder) { p.decoders[d.Name()] = d }

// abbreviations used in inline images.
var shortNames = map[string]string{
	"Fl":  "FlateDecode",
	"LZW": "LZWDecode",
	"AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode",
	"RL":  "RunLengthDecode",
}

func (p *Pipeline) lookup(name string) (Decoder, bool) {
	if long, ok := shortNames[name]; ok {
		name = long
	}
	d, ok := p.decoders[name]
	return d, ok
}

// Decode applies names in order. params may be shorter than names.
func (p *Pipeline) Decode(ctx context.Context, input []byte, names []string, params []*raw.Dict) ([]byte, error) {
	data := input
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dec, ok := p.lookup(name)
		if !ok {
			return nil, errors.Wrap(ErrUnsupportedFilter, name)
		}
		var param *raw.Dict
		if i < len(params) {
			param = params[i]
		}
		out, err := dec.Decode(ctx, data, param)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		if int64(len(out)) > p.limits.MaxDecompressedSize {
			return nil, security.Exceeded("decoded stream size", p.limits.MaxDecompressedSize, 0)
		}
		data = out
	}
	return data, nil
}

// DecodeStream decodes the payload of s using its own filter entries.
func (p *Pipeline) DecodeStream(ctx context.Context, s *raw.Stream) ([]byte, error) {
	names, params := ExtractFilters(s.Dict)
	return p.Decode(ctx, s.Data, names, params)
}

// ExtractFilters reads Filter and DecodeParms entries from a stream dictionary.
func ExtractFilters(dict *raw.Dict) ([]string, []*raw.Dict) {
	var names []string
	var params []*raw.Dict

	filterObj, ok := dict.Get("Filter")
	if !ok {
		return names, params
	}
	switch f := filterObj.(type) {
	case raw.Name:
		names = append(names, string(f))
	case *raw.Array:
		for _, item := range f.Items {
			if n, ok := item.(raw.Name); ok {
				names = append(names, string(n))
			}
		}
	}
	if len(names) == 0 {
		return names, params
	}
	pObj, ok := dict.Get("DecodeParms")
	if !ok {
		pObj, ok = dict.Get("DP")
	}
	if ok {
		switch p := pObj.(type) {
		case *raw.Dict:
			params = append(params, p)
		case *raw.Array:
			for _, item := range p.Items {
				d, _ := item.(*raw.Dict)
				params = append(params, d)
			}
		}
	}
	return names, params
}

// readLimited reads r fully, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	var out bytes.Buffer
	n, err := io.Copy(&out, io.LimitReader(r, limit+1))
	if n > limit {
		return nil, security.Exceeded("decoded stream size", limit, 0)
	}
	if err != nil {
		return out.Bytes(), err
	}
	return out.Bytes(), nil
}

func intParam(params *raw.Dict, key raw.Name, def int) int {
	if params == nil {
		return def
	}
	if v, ok := params.Int(key); ok {
		return int(v)
	}
	return def
}
