package model

// ItemKey identifies one of the fixed service item categories.
type ItemKey string

const (
	ItemBedrooms       ItemKey = "bedrooms"
	ItemBathrooms      ItemKey = "bathrooms"
	ItemLargeFurniture ItemKey = "largeFurniture"
	ItemTables         ItemKey = "tables"
	ItemChairs         ItemKey = "chairs"
)

// ItemKeys lists every category in display order.
var ItemKeys = []ItemKey{
	ItemBedrooms,
	ItemBathrooms,
	ItemLargeFurniture,
	ItemTables,
	ItemChairs,
}

// ValidItemKey reports whether k is one of the fixed categories.
func ValidItemKey(k ItemKey) bool {
	for _, known := range ItemKeys {
		if k == known {
			return true
		}
	}
	return false
}

// ItemCounts maps each category to a non-negative item count.
type ItemCounts map[ItemKey]int

// NewItemCounts returns a zeroed count for every category.
func NewItemCounts() ItemCounts {
	counts := make(ItemCounts, len(ItemKeys))
	for _, k := range ItemKeys {
		counts[k] = 0
	}
	return counts
}

// Adjust applies a relative delta to one category, clamped at zero.
func (c ItemCounts) Adjust(key ItemKey, delta int) {
	next := c[key] + delta
	if next < 0 {
		next = 0
	}
	c[key] = next
}

// Add merges other into c category by category.
func (c ItemCounts) Add(other ItemCounts) {
	for _, k := range ItemKeys {
		c[k] += other[k]
	}
}

// Empty reports whether every category is zero.
func (c ItemCounts) Empty() bool {
	for _, k := range ItemKeys {
		if c[k] > 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the counts.
func (c ItemCounts) Clone() ItemCounts {
	out := make(ItemCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
