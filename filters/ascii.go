package filters

import (
	"bytes"
	"context"
	stdascii85 "encoding/ascii85"

	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/bytebuf"
	"github.com/wudi/pdfcore/ir/raw"
)

type asciiHexDecoder struct{}

func NewASCIIHexDecoder() Decoder { return asciiHexDecoder{} }

func (asciiHexDecoder) Name() string { return "ASCIIHexDecode" }

func (asciiHexDecoder) Decode(ctx context.Context, in []byte, params *raw.Dict) ([]byte, error) {
	out := make([]byte, 0, len(in)/2)
	var hi byte
	half := false
	for _, c := range in {
		if c == '>' {
			break
		}
		if bytebuf.IsWhitespace(c) {
			continue
		}
		v, ok := hexValue(c)
		if !ok {
			return nil, errors.Errorf("invalid hex digit %q", c)
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out, nil
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

type ascii85Decoder struct{}

func NewASCII85Decoder() Decoder { return ascii85Decoder{} }

func (ascii85Decoder) Name() string { return "ASCII85Decode" }

func (ascii85Decoder) Decode(ctx context.Context, in []byte, params *raw.Dict) ([]byte, error) {
	trimmed := bytes.TrimSpace(in)
	trimmed = bytes.TrimPrefix(trimmed, []byte("<~"))
	if i := bytes.Index(trimmed, []byte("~>")); i >= 0 {
		trimmed = trimmed[:i]
	}
	out := make([]byte, len(trimmed)*4+4)
	n, _, err := stdascii85.Decode(out, trimmed, true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}
