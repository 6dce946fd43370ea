package domain

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// ListShopCountries returns every country with at least one shop and its shop
// count, ordered by count descending then country name ascending. Shops
// without a country are excluded; shops without coordinates are not.
func (e *Engine) ListShopCountries(ctx context.Context) ([]CountryCount, error) {
	shops, err := e.source.ListShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}

	counts := make(map[string]int)
	for _, shop := range shops {
		if shop.Country == "" {
			continue
		}
		counts[shop.Country]++
	}

	catalogue := make([]CountryCount, 0, len(counts))
	for country, n := range counts {
		catalogue = append(catalogue, CountryCount{Country: country, ShopCount: n})
	}

	slices.SortFunc(catalogue, func(a, b CountryCount) int {
		if c := cmp.Compare(b.ShopCount, a.ShopCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Country, b.Country)
	})

	return catalogue, nil
}
