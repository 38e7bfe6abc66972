package filters

import (
	"context"

	"github.com/wudi/pdfcore/ir/raw"
)

type runLengthDecoder struct{}

func NewRunLengthDecoder() Decoder { return runLengthDecoder{} }

func (runLengthDecoder) Name() string { return "RunLengthDecode" }

// Decode expands length-prefixed runs: 0..127 copies n+1 literal bytes,
// 129..255 repeats the next byte 257-n times, 128 ends the data.
func (runLengthDecoder) Decode(ctx context.Context, in []byte, params *raw.Dict) ([]byte, error) {
	var out []byte
	for i := 0; i < len(in); {
		n := int(in[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := i + n + 1
			if end > len(in) {
				end = len(in)
			}
			out = append(out, in[i:end]...)
			i = end
		default:
			if i >= len(in) {
				return out, nil
			}
			for k := 0; k < 257-n; k++ {
				out = append(out, in[i])
			}
			i++
		}
	}
	return out, nil
}
