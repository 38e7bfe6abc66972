package raw

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRefCacheSize bounds a RefCache built with a non-positive size.
const DefaultRefCacheSize = 16384

// RefCache hands out one *Reference per (num, gen) pair so references that
// are structurally equal are also identical. Entries are evicted least
// recently used first; identity is only shared while an entry is cached,
// so compare references with Ref() or Equal. It is safe for concurrent use.
type RefCache struct {
	lru *lru.Cache[ObjectRef, *Reference]
}

func NewRefCache(size int) *RefCache {
	if size <= 0 {
		size = DefaultRefCacheSize
	}
	c, err := lru.New[ObjectRef, *Reference](size)
	if err != nil {
		panic(err)
	}
	return &RefCache{lru: c}
}

// DefaultRefs is the process-wide cache used when a parser is not given one.
var DefaultRefs = NewRefCache(DefaultRefCacheSize)

func (c *RefCache) Get(num, gen int) *Reference {
	key := ObjectRef{Num: num, Gen: gen}
	if r, ok := c.lru.Get(key); ok {
		return r
	}
	r := &Reference{num: num, gen: gen}
	if prev, ok, _ := c.lru.PeekOrAdd(key, r); ok {
		return prev
	}
	return r
}

// Len reports how many references are cached.
func (c *RefCache) Len() int { return c.lru.Len() }
