package storecache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoatlas/shop-discovery-service/internal/domain"
)

type countingSource struct {
	offerings     map[string]bool
	offeringErr   error
	offeringCalls int
	listCalls     int
}

func (s *countingSource) ListGeolocatedShops(_ context.Context) ([]domain.Shop, error) {
	s.listCalls++
	return nil, nil
}

func (s *countingSource) ListShops(_ context.Context) ([]domain.Shop, error) {
	s.listCalls++
	return nil, nil
}

func (s *countingSource) HasAvailableOffering(_ context.Context, shopID, category string) (bool, error) {
	s.offeringCalls++
	if s.offeringErr != nil {
		return false, s.offeringErr
	}
	return s.offerings[shopID+"|"+category], nil
}

func TestCachedSource_OfferingLookupCached(t *testing.T) {
	src := &countingSource{offerings: map[string]bool{"shop-1|brake": true}}
	cached := New(src, 10, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		available, err := cached.HasAvailableOffering(ctx, "shop-1", "brake")
		require.NoError(t, err)
		assert.True(t, available)
	}

	assert.Equal(t, 1, src.offeringCalls)
}

func TestCachedSource_NegativeResultsAlsoCached(t *testing.T) {
	src := &countingSource{}
	cached := New(src, 10, nil)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		available, err := cached.HasAvailableOffering(ctx, "shop-1", "engine")
		require.NoError(t, err)
		assert.False(t, available)
	}

	// "not offered" is a valid answer, not a transient failure; cache it too.
	assert.Equal(t, 1, src.offeringCalls)
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	src := &countingSource{offeringErr: errors.New("store down")}
	cached := New(src, 10, nil)

	ctx := context.Background()
	_, err := cached.HasAvailableOffering(ctx, "shop-1", "brake")
	require.Error(t, err)
	_, err = cached.HasAvailableOffering(ctx, "shop-1", "brake")
	require.Error(t, err)

	assert.Equal(t, 2, src.offeringCalls)
}

func TestCachedSource_EvictsLeastRecentlyUsed(t *testing.T) {
	src := &countingSource{offerings: map[string]bool{}}
	cached := New(src, 2, nil)

	ctx := context.Background()
	_, _ = cached.HasAvailableOffering(ctx, "a", "brake")
	_, _ = cached.HasAvailableOffering(ctx, "b", "brake")
	_, _ = cached.HasAvailableOffering(ctx, "a", "brake") // refresh a, b is now LRU
	_, _ = cached.HasAvailableOffering(ctx, "c", "brake") // evicts b

	src.offeringCalls = 0
	_, _ = cached.HasAvailableOffering(ctx, "a", "brake") // still cached
	_, _ = cached.HasAvailableOffering(ctx, "b", "brake") // evicted, refetch
	assert.Equal(t, 1, src.offeringCalls)
}

func TestCachedSource_ResetDropsEntries(t *testing.T) {
	src := &countingSource{offerings: map[string]bool{"shop-1|brake": true}}
	cached := New(src, 10, nil)

	ctx := context.Background()
	_, _ = cached.HasAvailableOffering(ctx, "shop-1", "brake")
	cached.Reset()
	_, _ = cached.HasAvailableOffering(ctx, "shop-1", "brake")

	assert.Equal(t, 2, src.offeringCalls)
}

func TestCachedSource_ListingsPassThrough(t *testing.T) {
	src := &countingSource{}
	cached := New(src, 10, nil)

	ctx := context.Background()
	_, err := cached.ListGeolocatedShops(ctx)
	require.NoError(t, err)
	_, err = cached.ListShops(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, src.listCalls)
}
