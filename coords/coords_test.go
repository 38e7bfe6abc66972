package coords

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplyOrder(t *testing.T) {
	// Scale then translate: (1,1) -> (2,2) -> (12,22).
	m := Scale(2, 2).Multiply(Translate(10, 20))
	assert.Equal(t, Point{X: 12, Y: 22}, m.Transform(Point{X: 1, Y: 1}))

	// Translate then scale: (1,1) -> (11,21) -> (22,42).
	m = Translate(10, 20).Multiply(Scale(2, 2))
	assert.Equal(t, Point{X: 22, Y: 42}, m.Transform(Point{X: 1, Y: 1}))
}

func TestInverse(t *testing.T) {
	m := Rotate(math.Pi / 6).Multiply(Scale(3, 0.5)).Multiply(Translate(-4, 7))
	inv, err := m.Inverse()
	require.NoError(t, err)

	id := m.Multiply(inv)
	for i, want := range Identity() {
		assert.InDelta(t, want, id[i], 1e-9)
	}

	_, err = Scale(0, 1).Inverse()
	assert.Error(t, err)
}

func TestRect(t *testing.T) {
	r := Rect{LLX: 0, LLY: 0, URX: 4, URY: 2}
	assert.Equal(t, 4.0, r.Width())
	assert.Equal(t, 2.0, r.Height())
	assert.False(t, r.Empty())
	assert.True(t, Rect{}.Empty())

	assert.Equal(t, r, Rect{}.Union(r))
	assert.Equal(t, Rect{LLX: -1, LLY: 0, URX: 4, URY: 5}, r.Union(Rect{LLX: -1, LLY: 1, URX: 0, URY: 5}))

	assert.Equal(t, Rect{LLX: 10, LLY: 10, URX: 18, URY: 14}, r.Transform(Scale(2, 2).Multiply(Translate(10, 10))))
}

func TestBounds(t *testing.T) {
	assert.Equal(t, Rect{}, Bounds())
	assert.Equal(t, Rect{LLX: -2, LLY: 1, URX: 3, URY: 7},
		Bounds(Point{X: 3, Y: 1}, Point{X: -2, Y: 7}, Point{X: 0, Y: 4}))
}

func TestRectPredicates(t *testing.T) {
	page := Rect{URX: 100, URY: 100}
	assert.True(t, page.Contains(Rect{LLX: 10, LLY: 10, URX: 20, URY: 20}))
	assert.False(t, page.Contains(Rect{LLX: 90, LLY: 90, URX: 110, URY: 95}))
	assert.True(t, page.Intersects(Rect{LLX: 100, LLY: 0, URX: 120, URY: 10}), "touching edges meet")
	assert.False(t, page.Intersects(Rect{LLX: 101, URX: 120, URY: 10}))
}
