package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalogEvent_Shop(t *testing.T) {
	frozen := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })

	raw := RawEvent{Value: []byte(`{
		"kind": "shop",
		"shop": {
			"id": "shop-1",
			"name": "Söder MC Service",
			"city": "Stockholm",
			"country": "Sweden",
			"rating": 4.5,
			"latitude": 59.3293,
			"longitude": 18.0686
		}
	}`)}

	event, err := ParseCatalogEvent(raw)
	require.NoError(t, err)

	require.Equal(t, KindShop, event.Kind)
	require.NotNil(t, event.Shop)
	assert.Equal(t, "shop-1", event.Shop.ID)
	assert.Equal(t, "Sweden", event.Shop.Country)
	require.NotNil(t, event.Shop.Rating)
	assert.Equal(t, 4.5, *event.Shop.Rating)
	assert.True(t, event.Shop.Geolocated())
	assert.Equal(t, frozen, event.Shop.UpdatedAt)
}

func TestParseCatalogEvent_ShopWithoutCoordinates(t *testing.T) {
	raw := RawEvent{Value: []byte(`{"kind":"shop","shop":{"id":"shop-2","name":"Garage"}}`)}

	event, err := ParseCatalogEvent(raw)
	require.NoError(t, err)
	assert.False(t, event.Shop.Geolocated())
}

func TestParseCatalogEvent_Offering(t *testing.T) {
	raw := RawEvent{Value: []byte(`{
		"kind": "offering",
		"offering": {"shop_id": "shop-1", "category": "brake", "available": true}
	}`)}

	event, err := ParseCatalogEvent(raw)
	require.NoError(t, err)

	require.Equal(t, KindOffering, event.Kind)
	require.NotNil(t, event.Offering)
	assert.Equal(t, "shop-1", event.Offering.ShopID)
	assert.Equal(t, "brake", event.Offering.Category)
	assert.True(t, event.Offering.Available)
}

func TestParseCatalogEvent_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"malformed json", `{"kind":`, "decode catalog event"},
		{"unknown kind", `{"kind":"review"}`, "unknown catalog event kind"},
		{"shop without payload", `{"kind":"shop"}`, "missing shop payload"},
		{"shop without id", `{"kind":"shop","shop":{"name":"X"}}`, "missing id"},
		{"shop without name", `{"kind":"shop","shop":{"id":"s1"}}`, "missing name"},
		{"half a coordinate", `{"kind":"shop","shop":{"id":"s1","name":"X","latitude":59.3}}`, "only one coordinate"},
		{"rating out of range", `{"kind":"shop","shop":{"id":"s1","name":"X","rating":8}}`, "outside 0-5"},
		{"offering without payload", `{"kind":"offering"}`, "missing offering payload"},
		{"offering without category", `{"kind":"offering","offering":{"shop_id":"s1"}}`, "missing shop id or category"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCatalogEvent(RawEvent{Value: []byte(tc.payload)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
