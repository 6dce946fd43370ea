package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds accepted on the catalog feed topic.
const (
	KindShop     = "shop"
	KindOffering = "offering"
)

// RawEvent is an unprocessed message from the catalog feed.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// CatalogEvent is a typed catalog feed event: exactly one of Shop or Offering
// is set, according to Kind.
type CatalogEvent struct {
	Kind     string
	Shop     *Shop
	Offering *ServiceOffering
}

// rawCatalogEvent is the wire shape of a feed message. This is the single
// deserialization boundary between the loosely-typed feed and the domain.
type rawCatalogEvent struct {
	Kind     string           `json:"kind"`
	Shop     *Shop            `json:"shop,omitempty"`
	Offering *ServiceOffering `json:"offering,omitempty"`
}

// ParseCatalogEvent validates and types a raw feed payload. The returned
// record is stamped with the current clock time.
func ParseCatalogEvent(raw RawEvent) (CatalogEvent, error) {
	var wire rawCatalogEvent
	if err := json.Unmarshal(raw.Value, &wire); err != nil {
		return CatalogEvent{}, fmt.Errorf("decode catalog event: %w", err)
	}

	now := clock.Now().UTC()

	switch wire.Kind {
	case KindShop:
		if wire.Shop == nil {
			return CatalogEvent{}, fmt.Errorf("catalog event kind %q missing shop payload", wire.Kind)
		}
		if wire.Shop.ID == "" {
			return CatalogEvent{}, fmt.Errorf("shop event missing id")
		}
		if wire.Shop.Name == "" {
			return CatalogEvent{}, fmt.Errorf("shop event %s missing name", wire.Shop.ID)
		}
		if (wire.Shop.Latitude == nil) != (wire.Shop.Longitude == nil) {
			// Half a coordinate is always an upstream bug; a shop either has a
			// location or it does not.
			return CatalogEvent{}, fmt.Errorf("shop event %s has only one coordinate", wire.Shop.ID)
		}
		if r := wire.Shop.Rating; r != nil && (*r < 0 || *r > 5) {
			return CatalogEvent{}, fmt.Errorf("shop event %s rating %v outside 0-5", wire.Shop.ID, *r)
		}
		wire.Shop.UpdatedAt = now
		return CatalogEvent{Kind: KindShop, Shop: wire.Shop}, nil

	case KindOffering:
		if wire.Offering == nil {
			return CatalogEvent{}, fmt.Errorf("catalog event kind %q missing offering payload", wire.Kind)
		}
		if wire.Offering.ShopID == "" || wire.Offering.Category == "" {
			return CatalogEvent{}, fmt.Errorf("offering event missing shop id or category")
		}
		wire.Offering.UpdatedAt = now
		return CatalogEvent{Kind: KindOffering, Offering: wire.Offering}, nil

	default:
		return CatalogEvent{}, fmt.Errorf("unknown catalog event kind %q", wire.Kind)
	}
}
