package optimize

import (
	"context"

	"github.com/wudi/pdfcore/ir/raw"
)

// Deduplicate folds structurally identical indirect objects into the one
// with the lowest number and rewrites every reference to the dropped ones,
// including Root and Info. With all false only streams are considered.
// Folding repeats until nothing changes, since rewriting references can make
// parents identical in turn. It returns the number of objects dropped.
func Deduplicate(ctx context.Context, s *Set, all bool) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		seen := make(map[digest]raw.ObjectRef)
		repl := make(map[raw.ObjectRef]raw.ObjectRef)
		for _, ref := range s.refs() {
			obj := s.Objects[ref]
			if _, isStream := obj.(*raw.Stream); !isStream && !all {
				continue
			}
			d := hashObject(obj)
			if keep, ok := seen[d]; ok {
				repl[ref] = keep
			} else {
				seen[d] = ref
			}
		}
		if len(repl) == 0 {
			return total, nil
		}
		for dup := range repl {
			delete(s.Objects, dup)
		}
		for _, obj := range s.Objects {
			replaceRefs(obj, repl)
		}
		if to, ok := repl[s.Root]; ok {
			s.Root = to
		}
		if s.Info != nil {
			if to, ok := repl[*s.Info]; ok {
				s.Info = &to
			}
		}
		total += len(repl)
	}
}

func replaceRefs(obj raw.Object, repl map[raw.ObjectRef]raw.ObjectRef) {
	swap := func(v raw.Object) (raw.Object, bool) {
		r, ok := v.(*raw.Reference)
		if !ok {
			return nil, false
		}
		to, found := repl[r.Ref()]
		if !found {
			return nil, false
		}
		return raw.NewRef(to.Num, to.Gen), true
	}
	switch t := obj.(type) {
	case *raw.Array:
		for i, v := range t.Items {
			if nv, ok := swap(v); ok {
				t.Items[i] = nv
			} else {
				replaceRefs(v, repl)
			}
		}
	case *raw.Dict:
		for _, k := range t.Keys() {
			v, _ := t.Get(k)
			if nv, ok := swap(v); ok {
				t.Set(k, nv)
			} else {
				replaceRefs(v, repl)
			}
		}
	case *raw.Stream:
		replaceRefs(t.Dict, repl)
	}
}
