package model

import "time"

// LocalizedText holds the two site languages side by side.
type LocalizedText struct {
	EN string `json:"en"`
	TR string `json:"tr"`
}

// Product is a catalog entry. Views is maintained separately as an
// atomic counter and overlaid onto the snapshot at load time.
type Product struct {
	ID          string        `json:"id"`
	Title       LocalizedText `json:"title"`
	Description LocalizedText `json:"description"`
	Price       float64       `json:"price"`
	Category    string        `json:"category"`
	ImageURLs   []string      `json:"imageUrls,omitempty"`
	Views       int64         `json:"views"`
	Rating      float64       `json:"rating"`
	Featured    bool          `json:"featured,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt,omitempty"`
}

// Sort options accepted by the filter pipeline.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceLow  = "priceLow"
	SortPriceHigh = "priceHigh"
	SortRating    = "rating"
	SortPopular   = "popular"
)

// CategoryAll matches every product.
const CategoryAll = "all"

// PriceRange carries the raw user-supplied bounds. Empty or
// unparsable values impose no constraint.
type PriceRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// FilterSpec describes which subset and order of the catalog to show.
// Transient UI state; never persisted.
type FilterSpec struct {
	Category    string     `json:"category"`
	PriceRange  PriceRange `json:"priceRange"`
	SortBy      string     `json:"sortBy"`
	SearchQuery string     `json:"searchQuery"`
}

// DefaultFilterSpec returns the spec that shows the whole catalog,
// newest first.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		Category: CategoryAll,
		SortBy:   SortNewest,
	}
}
