package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/model"
)

// Apply narrows and orders a catalog snapshot according to the filter
// spec. Pure and deterministic: the input slice is never mutated, the
// sort is stable, and the stages always run in the same order so the
// sort sees the fully filtered set.
func Apply(products []model.Product, spec model.FilterSpec) []model.Product {
	result := make([]model.Product, 0, len(products))

	// Stage 1: category
	for _, p := range products {
		if spec.Category == "" || spec.Category == model.CategoryAll || p.Category == spec.Category {
			result = append(result, p)
		}
	}

	// Stage 2: text search across both languages. The query is matched
	// literally, without trimming; whitespace-only queries filter too.
	if spec.SearchQuery != "" {
		query := strings.ToLower(spec.SearchQuery)
		matched := result[:0]
		for _, p := range result {
			if matchesQuery(p, query) {
				matched = append(matched, p)
			}
		}
		result = result[:len(matched)]
	}

	// Stage 3: price range. Unset or unparsable bounds impose no
	// constraint; min > max simply yields an empty result.
	if min, ok := parsePrice(spec.PriceRange.Min); ok {
		result = filterPrice(result, func(price float64) bool { return price >= min })
	}
	if max, ok := parsePrice(spec.PriceRange.Max); ok {
		result = filterPrice(result, func(price float64) bool { return price <= max })
	}

	// Stage 4: stable sort, ties keep the incoming order.
	sortProducts(result, spec.SortBy)

	return result
}

func matchesQuery(p model.Product, query string) bool {
	fields := [4]string{p.Title.EN, p.Title.TR, p.Description.EN, p.Description.TR}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func parsePrice(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func filterPrice(products []model.Product, keep func(float64) bool) []model.Product {
	kept := products[:0]
	for _, p := range products {
		if keep(p.Price) {
			kept = append(kept, p)
		}
	}
	return products[:len(kept)]
}

func sortProducts(products []model.Product, sortBy string) {
	switch sortBy {
	case model.SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case model.SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	case model.SortRating:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	case model.SortPopular:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Views > products[j].Views
		})
	case model.SortNewest:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		})
	case model.SortOldest:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].CreatedAt.Before(products[j].CreatedAt)
		})
	}
}
