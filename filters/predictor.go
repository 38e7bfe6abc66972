package filters

import (
	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/ir/raw"
)

// applyPredictor undoes the /Predictor transform described by params.
// Predictor 1 (or none) is the identity, 2 is TIFF, 10-15 are PNG.
func applyPredictor(data []byte, params *raw.Dict) ([]byte, error) {
	predictor := intParam(params, "Predictor", 1)
	if predictor <= 1 {
		return data, nil
	}
	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)
	columns := intParam(params, "Columns", 1)
	if colors < 1 || bpc < 1 || columns < 1 {
		return nil, errors.Errorf("invalid predictor parameters colors=%d bpc=%d columns=%d", colors, bpc, columns)
	}
	bpp := (colors*bpc + 7) / 8
	rowLen := (colors*bpc*columns + 7) / 8
	switch {
	case predictor == 2:
		return tiffPredict(data, rowLen, bpp, bpc), nil
	case predictor >= 10:
		return pngPredict(data, rowLen, bpp)
	}
	return nil, errors.Errorf("unsupported predictor %d", predictor)
}

func pngPredict(data []byte, rowLen, bpp int) ([]byte, error) {
	stride := rowLen + 1
	out := make([]byte, 0, len(data)/stride*rowLen)
	prev := make([]byte, rowLen)
	for off := 0; off < len(data); off += stride {
		end := off + stride
		if end > len(data) {
			// Short last row: decode what is there.
			end = len(data)
		}
		if end-off < 2 {
			break
		}
		filter := data[off]
		row := make([]byte, rowLen)
		copy(row, data[off+1:end])
		for i := 0; i < rowLen; i++ {
			var left, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch filter {
			case 0:
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, errors.Errorf("invalid PNG filter type %d", filter)
			}
		}
		out = append(out, row[:end-off-1]...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// tiffPredict handles 8-bit components only; other depths pass through.
func tiffPredict(data []byte, rowLen, bpp, bpc int) []byte {
	if bpc != 8 {
		return data
	}
	out := make([]byte, len(data))
	copy(out, data)
	for off := 0; off+rowLen <= len(out); off += rowLen {
		row := out[off : off+rowLen]
		for i := bpp; i < rowLen; i++ {
			row[i] += row[i-bpp]
		}
	}
	return out
}
