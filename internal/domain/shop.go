package domain

import "time"

// Shop is a repair shop as mirrored from the upstream catalog.
type Shop struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Website   string    `json:"website,omitempty"`
	Rating    *float64  `json:"rating,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Geolocated reports whether the shop has both coordinates.
func (s Shop) Geolocated() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// ServiceOffering records that a shop provides a service category.
type ServiceOffering struct {
	ShopID    string    `json:"shop_id"`
	Category  string    `json:"category"`
	Available bool      `json:"available"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Default query parameters, applied when the caller leaves them unset.
const (
	DefaultMaxDistanceKm = 50
	DefaultResultLimit   = 20
)

// DiscoveryQuery describes one nearest-shop search. Category and Country are
// optional; empty means no filter. The country filter is case-insensitive
// exact match (an earlier revision also accepted prefixes; that behavior was
// dropped as accidental).
type DiscoveryQuery struct {
	Latitude      float64
	Longitude     float64
	Category      string
	Country       string
	MaxDistanceKm float64
	ResultLimit   int
}

// withDefaults fills in unset distance and limit parameters.
func (q DiscoveryQuery) withDefaults() DiscoveryQuery {
	if q.MaxDistanceKm <= 0 {
		q.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if q.ResultLimit <= 0 {
		q.ResultLimit = DefaultResultLimit
	}
	return q
}

// RankedShopResult is a shop annotated with its computed distance from the
// query point and whether it offers the requested service category.
type RankedShopResult struct {
	Shop
	DistanceKm    float64 `json:"distance_km"`
	OffersService bool    `json:"offers_service"`
}

// CountryCount is one row of the country catalogue.
type CountryCount struct {
	Country   string `json:"country"`
	ShopCount int    `json:"shop_count"`
}
