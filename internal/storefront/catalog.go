package storefront

import (
	"math"
	"sort"
	"strings"

	"jewelcatalog/internal/models"
)

// AllCategories is the category option that disables the category filter.
const AllCategories = "all"

// Default price bounds used when no product has a usable price.
const (
	DefaultPriceMin = 0
	DefaultPriceMax = 200000
)

const priceStep = 1000

// DeriveCategoryOptions returns "all" followed by the distinct non-blank
// categories in first-seen order.
func DeriveCategoryOptions(products []models.Product) []string {
	options := []string{AllCategories}
	seen := make(map[string]struct{})
	for _, p := range products {
		c := strings.TrimSpace(p.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		options = append(options, c)
	}
	return options
}

// PriceBounds is the outer range of the price filter.
type PriceBounds struct {
	Min float64
	Max float64
}

// DerivePriceBounds spans the positive prices of products, with the lower
// bound floored and the upper bound ceiled to a multiple of 1000.
func DerivePriceBounds(products []models.Product) PriceBounds {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range products {
		if p.PriceMissing || p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		lo = math.Min(lo, p.Price)
		hi = math.Max(hi, p.Price)
	}
	if math.IsInf(lo, 1) {
		return PriceBounds{Min: DefaultPriceMin, Max: DefaultPriceMax}
	}
	return PriceBounds{
		Min: math.Floor(lo/priceStep) * priceStep,
		Max: math.Ceil(hi/priceStep) * priceStep,
	}
}

// PriceRange is a two-handle range inside fixed bounds. Moving one handle
// past the other drags the other along, so Min never exceeds Max.
type PriceRange struct {
	bounds PriceBounds
	min    float64
	max    float64
}

// NewPriceRange returns a range spanning the whole of b.
func NewPriceRange(b PriceBounds) PriceRange {
	if b.Max < b.Min {
		b.Min, b.Max = b.Max, b.Min
	}
	return PriceRange{bounds: b, min: b.Min, max: b.Max}
}

func (r *PriceRange) clamp(v float64) float64 {
	return math.Max(r.bounds.Min, math.Min(r.bounds.Max, v))
}

// SetMin moves the lower handle.
func (r *PriceRange) SetMin(v float64) {
	r.min = r.clamp(v)
	if r.max < r.min {
		r.max = r.min
	}
}

// SetMax moves the upper handle.
func (r *PriceRange) SetMax(v float64) {
	r.max = r.clamp(v)
	if r.min > r.max {
		r.min = r.max
	}
}

// Min is the lower handle.
func (r PriceRange) Min() float64 { return r.min }

// Max is the upper handle.
func (r PriceRange) Max() float64 { return r.max }

// Bounds returns the outer range.
func (r PriceRange) Bounds() PriceBounds { return r.bounds }

// LowerActive reports whether the lower handle is above the lower bound.
func (r PriceRange) LowerActive() bool { return r.min > r.bounds.Min }

// UpperActive reports whether the upper handle is below the upper bound.
func (r PriceRange) UpperActive() bool { return r.max < r.bounds.Max }

// Criteria selects products. Blank or "all" text criteria and nil price
// limits are inactive.
type Criteria struct {
	Category  string
	MetalType string
	Search    string
	PriceMin  *float64
	PriceMax  *float64
}

// Limit returns a price limit for Criteria.
func Limit(v float64) *float64 { return &v }

// Filter returns the products matching every active criterion, in order.
func Filter(products []models.Product, c Criteria) []models.Product {
	category := strings.TrimSpace(c.Category)
	if strings.EqualFold(category, AllCategories) {
		category = ""
	}
	metal := strings.TrimSpace(c.MetalType)
	if strings.EqualFold(metal, AllCategories) {
		metal = ""
	}
	search := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if category != "" && p.Category != category {
			continue
		}
		if metal != "" && !strings.EqualFold(strings.TrimSpace(p.MetalType), metal) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Category), search) {
			continue
		}
		if !p.PriceMissing {
			if c.PriceMin != nil && p.Price < *c.PriceMin {
				continue
			}
			if c.PriceMax != nil && p.Price > *c.PriceMax {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// SortKey orders a product list.
type SortKey string

const (
	SortNone       SortKey = "none"
	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortRatingDesc SortKey = "rating-desc"
)

// ParseSortKey maps a user supplied key to a SortKey; unknown keys mean
// SortNone.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPriceAsc, SortPriceDesc, SortRatingDesc:
		return k
	default:
		return SortNone
	}
}

// Sort returns a stably sorted copy of products.
func Sort(products []models.Product, key SortKey) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)

	var less func(a, b models.Product) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b models.Product) bool { return price(a) < price(b) }
	case SortPriceDesc:
		less = func(a, b models.Product) bool { return price(a) > price(b) }
	case SortRatingDesc:
		less = func(a, b models.Product) bool { return a.Rating > b.Rating }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func price(p models.Product) float64 {
	if p.PriceMissing {
		return 0
	}
	return p.Price
}
