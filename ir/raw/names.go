package raw

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultNameCacheSize bounds the evictable part of a NameCache.
const DefaultNameCacheSize = 4096

// commonNames are kept for the life of a NameCache.
var commonNames = []Name{
	"Type", "Subtype", "Length", "Filter", "DecodeParms", "Root", "Size", "Prev",
	"Info", "ID", "Encrypt", "XRefStm", "Index", "W", "N", "First", "Extends",
	"Catalog", "Pages", "Page", "Kids", "Count", "Parent", "MediaBox", "CropBox",
	"Resources", "Contents", "Font", "XObject", "ExtGState", "ColorSpace",
	"Pattern", "Shading", "ProcSet", "Properties", "Annots", "Rotate",
	"BaseFont", "Encoding", "FontDescriptor", "Widths", "FirstChar", "LastChar",
	"Form", "Image", "BBox", "Matrix", "Group", "Width", "Height",
	"BitsPerComponent", "Predictor", "Columns", "Colors", "EarlyChange",
	"FlateDecode", "LZWDecode", "ASCIIHexDecode", "ASCII85Decode",
	"RunLengthDecode", "DCTDecode", "XRef", "ObjStm", "S", "D", "F", "P", "R",
	"Title", "Author", "Producer", "Creator", "CreationDate", "ModDate",
	"DeviceRGB", "DeviceGray", "DeviceCMYK", "Outlines", "Names", "Dests",
	"AcroForm", "Metadata", "StructTreeRoot", "Dest", "A", "URI", "Next",
}

// NameCache interns names. A fixed set of common names is permanent; every
// other name lives in a bounded LRU. Interning only saves memory: equal names
// compare equal whether or not they came from the same cache.
type NameCache struct {
	fixed map[string]Name
	lru   *lru.Cache[string, Name]
}

// NewNameCache returns a cache whose evictable part holds size names.
func NewNameCache(size int) *NameCache {
	if size <= 0 {
		size = DefaultNameCacheSize
	}
	c, err := lru.New[string, Name](size)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	fixed := make(map[string]Name, len(commonNames))
	for _, n := range commonNames {
		fixed[string(n)] = n
	}
	return &NameCache{fixed: fixed, lru: c}
}

// DefaultNames is the process-wide cache used when a parser is not given one.
var DefaultNames = NewNameCache(DefaultNameCacheSize)

// Intern returns the shared Name for b.
func (c *NameCache) Intern(b []byte) Name {
	if n, ok := c.fixed[string(b)]; ok {
		return n
	}
	key := string(b)
	if n, ok := c.lru.Get(key); ok {
		return n
	}
	n := Name(key)
	c.lru.Add(key, n)
	return n
}

func (c *NameCache) InternString(s string) Name {
	if n, ok := c.fixed[s]; ok {
		return n
	}
	if n, ok := c.lru.Get(s); ok {
		return n
	}
	n := Name(s)
	c.lru.Add(s, n)
	return n
}

// Permanent reports whether s is one of the never-evicted names.
func (c *NameCache) Permanent(s string) bool {
	_, ok := c.fixed[s]
	return ok
}

// Len reports how many evictable names are cached.
func (c *NameCache) Len() int { return c.lru.Len() }
