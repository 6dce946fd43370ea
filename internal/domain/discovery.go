package domain

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
)

// ShopSource is the read model the discovery engine runs over. Implementations
// own persistence and row mapping; the engine only ever sees typed shops.
type ShopSource interface {
	// ListGeolocatedShops returns every shop with both coordinates present.
	ListGeolocatedShops(ctx context.Context) ([]Shop, error)

	// ListShops returns every shop, geolocated or not.
	ListShops(ctx context.Context) ([]Shop, error)

	// HasAvailableOffering reports whether the shop has an available offering
	// for the category. Absence of any offering row means false.
	HasAvailableOffering(ctx context.Context, shopID, category string) (bool, error)
}

// Engine answers discovery queries against an injected ShopSource. It is
// stateless and safe for concurrent use.
type Engine struct {
	source ShopSource
	logger *slog.Logger
}

// NewEngine creates a discovery engine over the given source.
func NewEngine(source ShopSource, logger *slog.Logger) *Engine {
	return &Engine{source: source, logger: logger}
}

// FindNearbyShops returns shops within the query radius, filtered by country
// and service category, ordered nearest first and capped at the result limit.
// An empty result is not an error. Coordinate validation is the caller's
// responsibility; the math is defined for any finite input.
func (e *Engine) FindNearbyShops(ctx context.Context, query DiscoveryQuery) ([]RankedShopResult, error) {
	query = query.withDefaults()

	shops, err := e.source.ListGeolocatedShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("list geolocated shops: %w", err)
	}

	results := make([]RankedShopResult, 0, len(shops))
	for _, shop := range shops {
		if !shop.Geolocated() {
			// Defends the exclusion invariant against a source that ignores
			// its contract; such shops must never be ranked.
			continue
		}
		if query.Country != "" && !countryMatches(shop.Country, query.Country) {
			continue
		}

		dist := GreatCircleKm(query.Latitude, query.Longitude, *shop.Latitude, *shop.Longitude)
		if dist > query.MaxDistanceKm {
			continue
		}

		offers := true
		if query.Category != "" {
			offers, err = e.source.HasAvailableOffering(ctx, shop.ID, query.Category)
			if err != nil {
				return nil, fmt.Errorf("check offering for shop %s: %w", shop.ID, err)
			}
			if !offers {
				continue
			}
		}

		results = append(results, RankedShopResult{
			Shop:          shop,
			DistanceKm:    dist,
			OffersService: offers,
		})
	}

	slices.SortStableFunc(results, compareResults)

	if len(results) > query.ResultLimit {
		results = results[:query.ResultLimit]
	}

	e.logger.Debug("discovery query served",
		"lat", query.Latitude,
		"lon", query.Longitude,
		"category", query.Category,
		"country", query.Country,
		"results", len(results),
	)
	return results, nil
}

// countryMatches is the country filter policy: case-insensitive exact match
// on the trimmed stored value.
func countryMatches(stored, filter string) bool {
	return strings.EqualFold(strings.TrimSpace(stored), strings.TrimSpace(filter))
}

// compareResults orders by offers-service (true first), then distance
// ascending, then rating descending with nil ratings last.
func compareResults(a, b RankedShopResult) int {
	if a.OffersService != b.OffersService {
		if a.OffersService {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
		return c
	}
	return cmp.Compare(ratingOrNegInf(b.Rating), ratingOrNegInf(a.Rating))
}

// ratingOrNegInf treats an unknown rating as below every known one.
func ratingOrNegInf(r *float64) float64 {
	if r == nil {
		return math.Inf(-1)
	}
	return *r
}
