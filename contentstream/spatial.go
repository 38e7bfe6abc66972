package contentstream

import (
	"sort"

	"github.com/wudi/pdfcore/coords"
)

// quadTree stores operator extents. A rect that straddles a split line
// stays in the node whose bounds hold it.
type quadTree struct {
	bounds   coords.Rect
	capacity int
	items    []OpBBox
	nodes    []*quadTree
}

func newQuadTree(bounds coords.Rect, capacity int) *quadTree {
	return &quadTree{bounds: bounds, capacity: capacity, items: make([]OpBBox, 0, capacity)}
}

func (qt *quadTree) insert(b OpBBox) bool {
	if !qt.bounds.Intersects(b.Rect) {
		return false
	}
	if qt.nodes != nil {
		for _, n := range qt.nodes {
			if n.bounds.Contains(b.Rect) && n.insert(b) {
				return true
			}
		}
		qt.items = append(qt.items, b)
		return true
	}
	if len(qt.items) < qt.capacity || qt.bounds.Width() < 1 || qt.bounds.Height() < 1 {
		qt.items = append(qt.items, b)
		return true
	}
	qt.subdivide()
	old := qt.items
	qt.items = make([]OpBBox, 0, qt.capacity)
	for _, it := range old {
		qt.insert(it)
	}
	return qt.insert(b)
}

func (qt *quadTree) subdivide() {
	r := qt.bounds
	mx, my := (r.LLX+r.URX)/2, (r.LLY+r.URY)/2
	qt.nodes = []*quadTree{
		newQuadTree(coords.Rect{LLX: r.LLX, LLY: my, URX: mx, URY: r.URY}, qt.capacity),
		newQuadTree(coords.Rect{LLX: mx, LLY: my, URX: r.URX, URY: r.URY}, qt.capacity),
		newQuadTree(coords.Rect{LLX: r.LLX, LLY: r.LLY, URX: mx, URY: my}, qt.capacity),
		newQuadTree(coords.Rect{LLX: mx, LLY: r.LLY, URX: r.URX, URY: my}, qt.capacity),
	}
}

func (qt *quadTree) query(r coords.Rect, found []int) []int {
	if !qt.bounds.Intersects(r) {
		return found
	}
	for _, it := range qt.items {
		if it.Rect.Intersects(r) {
			found = append(found, it.OpIndex)
		}
	}
	for _, n := range qt.nodes {
		found = n.query(r, found)
	}
	return found
}

// SpatialIndex answers which operators paint inside a region of a page.
type SpatialIndex struct {
	tree    *quadTree
	outside []OpBBox
}

// NewSpatialIndex traces ops and indexes every painted extent. Extents
// falling outside page are kept aside and still searched.
func NewSpatialIndex(page coords.Rect, ops []Operator) (*SpatialIndex, error) {
	boxes, err := Trace(ops)
	if err != nil {
		return nil, err
	}
	idx := &SpatialIndex{tree: newQuadTree(page, 8)}
	for _, b := range boxes {
		if !idx.tree.insert(b) {
			idx.outside = append(idx.outside, b)
		}
	}
	return idx, nil
}

// Query returns the indexes of operators whose extent meets r, ascending.
func (idx *SpatialIndex) Query(r coords.Rect) []int {
	found := idx.tree.query(r, nil)
	for _, b := range idx.outside {
		if b.Rect.Intersects(r) {
			found = append(found, b.OpIndex)
		}
	}
	sort.Ints(found)
	return found
}
