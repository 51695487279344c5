// Package catalog narrows and orders an already fetched product list.
// Every step returns a new slice and leaves its input untouched.
package catalog

import (
	"sort"
	"strings"

	"locamat/internal/models"
	"locamat/pkg/lib/geo"

	"github.com/shopspring/decimal"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

var DefaultMaxPrice = decimal.NewFromInt(1_000_000)

type Filter struct {
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Category string
	// Origin enables the distance sort when the user shared a location.
	Origin *geo.Point
}

type Result struct {
	models.Product
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

type Pipeline struct {
	defaultMax decimal.Decimal
}

// New returns a pipeline whose price filter is capped at defaultMax when the
// filter sets no maximum. A non-positive defaultMax falls back to DefaultMaxPrice.
func New(defaultMax decimal.Decimal) *Pipeline {
	if !defaultMax.IsPositive() {
		defaultMax = DefaultMaxPrice
	}
	return &Pipeline{defaultMax: defaultMax}
}

// Apply runs search, price, category and the optional distance sort, in that order.
func (p *Pipeline) Apply(products []models.Product, f Filter) []Result {
	upper := p.defaultMax
	if f.MaxPrice != nil {
		upper = *f.MaxPrice
	}

	filtered := Search(products, f.Query)
	filtered = PriceRange(filtered, f.MinPrice, &upper)
	filtered = ByCategory(filtered, f.Category)

	if f.Origin != nil {
		return SortByDistance(filtered, *f.Origin)
	}

	results := make([]Result, len(filtered))
	for i, prod := range filtered {
		results[i] = Result{Product: prod}
	}
	return results
}

// Search keeps products whose title, category or description contains query,
// ignoring case. The query is not trimmed. An empty query keeps everything.
func Search(products []models.Product, query string) []models.Product {
	q := strings.ToLower(query)
	if q == "" {
		return clone(products)
	}

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(string(p.Category)), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

// PriceRange keeps products priced within [lower, upper]. A nil bound is open.
func PriceRange(products []models.Product, lower, upper *decimal.Decimal) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if lower != nil && p.Price.LessThan(*lower) {
			continue
		}
		if upper != nil && p.Price.GreaterThan(*upper) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func ByCategory(products []models.Product, category string) []models.Product {
	if category == "" || category == CategoryAll {
		return clone(products)
	}

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if string(p.Category) == category {
			out = append(out, p)
		}
	}
	return out
}

// SortByDistance orders products with coordinates by ascending distance from
// origin. Products without coordinates follow, in their original order.
func SortByDistance(products []models.Product, origin geo.Point) []Result {
	located := make([]Result, 0, len(products))
	unlocated := make([]Result, 0)

	for _, p := range products {
		if !p.HasCoordinates() {
			unlocated = append(unlocated, Result{Product: p})
			continue
		}
		d := geo.Distance(origin, geo.Point{Lat: *p.Latitude, Lng: *p.Longitude})
		located = append(located, Result{Product: p, DistanceKm: &d})
	}

	sort.SliceStable(located, func(i, j int) bool {
		return *located[i].DistanceKm < *located[j].DistanceKm
	})

	return append(located, unlocated...)
}

// Featured returns the n most recently created products.
func Featured(products []models.Product, n int) []models.Product {
	out := clone(products)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// CategoryCounts counts listings per known category, zero included.
func CategoryCounts(products []models.Product) map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}
	for _, p := range products {
		if p.Category.Valid() {
			counts[p.Category]++
		}
	}
	return counts
}

func clone(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}
