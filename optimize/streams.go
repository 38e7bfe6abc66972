package optimize

import (
	"context"

	"github.com/wudi/pdfcore/filters"
	"github.com/wudi/pdfcore/ir/raw"
)

// compressStreams Flate-encodes streams that have no filter, keeping the
// result only when it is smaller.
func compressStreams(ctx context.Context, s *Set) (int, error) {
	n := 0
	for _, ref := range s.refs() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		st, ok := s.Objects[ref].(*raw.Stream)
		if !ok || len(st.Data) == 0 {
			continue
		}
		if _, filtered := st.Dict.Get("Filter"); filtered {
			continue
		}
		enc, err := filters.FlateEncode(st.Data)
		if err != nil {
			return n, err
		}
		if len(enc) >= len(st.Data) {
			continue
		}
		d := st.Dict.Clone()
		d.Set("Filter", raw.Name("FlateDecode"))
		d.Set("Length", raw.Int(int64(len(enc))))
		d.Delete("DecodeParms")
		s.Objects[ref] = raw.NewStream(d, enc)
		n++
	}
	return n, nil
}
