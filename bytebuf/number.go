package bytebuf

import (
	"math"
	"strconv"
)

// fractionDigits bounds the fractional part of real numbers. Binary noise past
// this point (0.1+0.2) is rounded away.
const fractionDigits = 10

// maxExactInt is the largest magnitude a float64 holds without losing integers.
const maxExactInt = 1 << 53

// AppendNumber appends the textual form of v to dst. Integral values have no
// decimal point; other values use the fewest digits that survive rounding to
// fractionDigits, with no trailing zeros.
func AppendNumber(dst []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(dst, '0')
	}
	if v == math.Trunc(v) && math.Abs(v) < maxExactInt {
		if v == 0 {
			return append(dst, '0')
		}
		return strconv.AppendInt(dst, int64(v), 10)
	}
	start := len(dst)
	dst = strconv.AppendFloat(dst, v, 'f', fractionDigits, 64)
	dst = trimFraction(dst, start)
	if string(dst[start:]) == "-0" {
		dst = append(dst[:start], '0')
	}
	return dst
}

// FormatNumber returns the textual form of v.
func FormatNumber(v float64) string {
	var tmp [32]byte
	return string(AppendNumber(tmp[:0], v))
}

func trimFraction(b []byte, start int) []byte {
	dot := -1
	for i := start; i < len(b); i++ {
		if b[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return b
	}
	end := len(b)
	for end > dot+1 && b[end-1] == '0' {
		end--
	}
	if end == dot+1 {
		end = dot
	}
	return b[:end]
}
