package xref

import "github.com/bits-and-blooms/bitset"

// FreeList follows next-free links from object start and returns the object
// numbers visited in order. closed reports whether the chain led back to
// start. The walk stops at the first number that is not a free entry or that
// was already visited.
func FreeList(entries map[int]Entry, start int) (visited []int, closed bool) {
	head, ok := entries[start].(FreeEntry)
	if !ok {
		return nil, false
	}
	seen := bitset.New(uint(len(entries)))
	seen.Set(uint(start))

	next := head.Next
	for {
		if next == start {
			return append(visited, start), true
		}
		e, ok := entries[next].(FreeEntry)
		if !ok || next < 0 || seen.Test(uint(next)) {
			return visited, false
		}
		seen.Set(uint(next))
		visited = append(visited, next)
		next = e.Next
	}
}
