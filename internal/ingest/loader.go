package ingest

import (
	"context"
	"fmt"

	"github.com/motoatlas/shop-discovery-service/internal/domain"
)

// CatalogWriter is the store-side write surface for catalog batches.
type CatalogWriter interface {
	UpsertShops(ctx context.Context, shops []domain.Shop) error
	UpsertOfferings(ctx context.Context, offerings []domain.ServiceOffering) error
}

// Invalidator drops cached read-model state after a batch lands.
type Invalidator interface {
	Reset()
}

// StoreApplier implements BatchApplier by splitting a catalog batch into
// shop and offering upserts, then invalidating the offering cache.
type StoreApplier struct {
	writer CatalogWriter
	cache  Invalidator // optional
}

// NewStoreApplier creates an applier over the given writer. Cache may be nil.
func NewStoreApplier(writer CatalogWriter, cache Invalidator) *StoreApplier {
	return &StoreApplier{writer: writer, cache: cache}
}

// ApplyBatch writes shops before offerings so an offering never references a
// shop the same batch created but has not written yet.
func (a *StoreApplier) ApplyBatch(ctx context.Context, events []domain.CatalogEvent) error {
	var shops []domain.Shop
	var offerings []domain.ServiceOffering

	for _, event := range events {
		switch event.Kind {
		case domain.KindShop:
			shops = append(shops, *event.Shop)
		case domain.KindOffering:
			offerings = append(offerings, *event.Offering)
		default:
			return fmt.Errorf("unexpected catalog event kind %q", event.Kind)
		}
	}

	if err := a.writer.UpsertShops(ctx, shops); err != nil {
		return fmt.Errorf("apply shop batch: %w", err)
	}
	if err := a.writer.UpsertOfferings(ctx, offerings); err != nil {
		return fmt.Errorf("apply offering batch: %w", err)
	}

	if a.cache != nil && len(offerings) > 0 {
		a.cache.Reset()
	}
	return nil
}
