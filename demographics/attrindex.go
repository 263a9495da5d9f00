package demographics

import (
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// AttributeIndex is an inverted index from attribute values to the rows of
// an embedding index, backed by roaring bitmaps. It supports restricting a
// search to a cohort, e.g. only reference cases with the user's skin type.
type AttributeIndex struct {
	mu      sync.RWMutex
	bitmaps map[string]*roaring.Bitmap // "key=value" -> rows
}

// NewAttributeIndex creates an empty AttributeIndex.
func NewAttributeIndex() *AttributeIndex {
	return &AttributeIndex{
		bitmaps: make(map[string]*roaring.Bitmap),
	}
}

func attrKey(key, value string) string {
	return strings.ToLower(strings.TrimSpace(key)) + "=" + strings.ToLower(strings.TrimSpace(value))
}

// Register records the known attributes of the vector stored at row.
func (ai *AttributeIndex) Register(row uint32, p Profile) {
	if p.IsEmpty() {
		return
	}

	ai.mu.Lock()
	defer ai.mu.Unlock()

	for key, value := range p.Map() {
		k := attrKey(key, value)
		bm, ok := ai.bitmaps[k]
		if !ok {
			bm = roaring.New()
			ai.bitmaps[k] = bm
		}
		bm.Add(row)
	}
}

// Rows returns the rows whose registered profile matches every known
// attribute of p (an AND over attributes). A profile with no known
// attributes matches nothing.
func (ai *AttributeIndex) Rows(p Profile) *roaring.Bitmap {
	ai.mu.RLock()
	defer ai.mu.RUnlock()

	var acc *roaring.Bitmap
	for key, value := range p.Map() {
		bm, ok := ai.bitmaps[attrKey(key, value)]
		if !ok {
			return roaring.New()
		}
		if acc == nil {
			acc = bm.Clone()
			continue
		}
		acc.And(bm)
	}

	if acc == nil {
		return roaring.New()
	}
	return acc
}

// Filter returns a row predicate suitable for a filtered index scan, or nil
// if p has no known attributes (meaning: no restriction).
func (ai *AttributeIndex) Filter(p Profile) func(row uint32) bool {
	if p.IsEmpty() {
		return nil
	}

	rows := ai.Rows(p)
	return func(row uint32) bool {
		return rows.Contains(row)
	}
}
