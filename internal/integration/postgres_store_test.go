//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgstore "github.com/motoatlas/shop-discovery-service/internal/adapter/postgres"
	"github.com/motoatlas/shop-discovery-service/internal/domain"
	"github.com/motoatlas/shop-discovery-service/internal/observability"
)

func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shops"),
		tcpostgres.WithUsername("shops"),
		tcpostgres.WithPassword("shops"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func fp(v float64) *float64 { return &v }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPostgresStoreRoundTrip verifies the store adapter end to end: schema
// creation, batch upserts, null handling at the scan boundary, and the
// discovery engine running over real rows.
func TestPostgresStoreRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	dsn := startPostgres(ctx, t)

	metrics := observability.NewMetricsForTesting()
	store, err := pgstore.New(ctx, dsn, testLogger(), metrics)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.InitSchema(ctx))
	require.NoError(t, store.CheckReadiness(ctx))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StoreUp))

	now := time.Now().UTC()
	shops := []domain.Shop{
		{
			ID: "shop-sthlm", Name: "Söder MC Service",
			City: "Stockholm", Country: "Sweden",
			Rating: fp(4.5), Latitude: fp(59.3293), Longitude: fp(18.0686),
			UpdatedAt: now,
		},
		{
			ID: "shop-gbg", Name: "Gbg Motorverkstad",
			City: "Gothenburg", Country: "Sweden",
			Latitude: fp(57.7089), Longitude: fp(11.9746), // no rating
			UpdatedAt: now,
		},
		{
			ID: "shop-nogeo", Name: "Phone-Only Garage",
			Country:   "Norway", // no coordinates
			UpdatedAt: now,
		},
	}
	require.NoError(t, store.UpsertShops(ctx, shops))
	require.NoError(t, store.UpsertOfferings(ctx, []domain.ServiceOffering{
		{ShopID: "shop-sthlm", Category: "brake", Available: true, UpdatedAt: now},
		{ShopID: "shop-gbg", Category: "brake", Available: false, UpdatedAt: now},
	}))

	// Geolocated listing excludes the shop without coordinates.
	geolocated, err := store.ListGeolocatedShops(ctx)
	require.NoError(t, err)
	require.Len(t, geolocated, 2)
	for _, s := range geolocated {
		assert.True(t, s.Geolocated())
	}

	all, err := store.ListShops(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Null columns come back as nil pointers, not zeros.
	for _, s := range all {
		if s.ID == "shop-gbg" {
			assert.Nil(t, s.Rating)
		}
	}

	offers, err := store.HasAvailableOffering(ctx, "shop-sthlm", "brake")
	require.NoError(t, err)
	assert.True(t, offers)

	offers, err = store.HasAvailableOffering(ctx, "shop-gbg", "brake")
	require.NoError(t, err)
	assert.False(t, offers, "unavailable offering row must not count")

	offers, err = store.HasAvailableOffering(ctx, "shop-sthlm", "engine")
	require.NoError(t, err)
	assert.False(t, offers, "absent offering row must not count")

	// Discovery over real rows: the Stockholm exact-match scenario.
	engine := domain.NewEngine(store, testLogger())
	results, err := engine.FindNearbyShops(ctx, domain.DiscoveryQuery{
		Latitude:      59.3293,
		Longitude:     18.0686,
		Category:      "brake",
		Country:       "Sweden",
		MaxDistanceKm: 50,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "shop-sthlm", results[0].ID)
	assert.Equal(t, 0.0, results[0].DistanceKm)
	assert.True(t, results[0].OffersService)

	catalogue, err := engine.ListShopCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.CountryCount{
		{Country: "Sweden", ShopCount: 2},
		{Country: "Norway", ShopCount: 1},
	}, catalogue)

	// Upsert is an update on conflict, not a duplicate insert.
	updated := shops[0]
	updated.Rating = fp(4.8)
	require.NoError(t, store.UpsertShops(ctx, []domain.Shop{updated}))

	all, err = store.ListShops(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, s := range all {
		if s.ID == "shop-sthlm" {
			require.NotNil(t, s.Rating)
			assert.Equal(t, 4.8, *s.Rating)
		}
	}
}
