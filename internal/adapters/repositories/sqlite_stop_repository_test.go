package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"nourishnet-route-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func ptr[T any](v T) *T { return &v }

func testSeed() Seed {
	return Seed{
		Vendors: []VendorSeed{
			{VendorID: "v-andheri", Name: "Annapurna Tiffins", Address: "Andheri West", Lon: ptr(72.8362), Lat: ptr(19.1364)},
			{VendorID: "v-bandra", Name: "Bandra Dabba", Address: "Bandra", Lon: ptr(72.8400), Lat: ptr(19.0544)},
			{VendorID: "v-pending", Name: "Not Geocoded Yet", Address: "Unknown"},
		},
		Subscribers: []SubscriberSeed{
			{SubscriberID: "s-02", VendorID: "v-andheri", Name: "Ravi", Address: "Lokhandwala", Lon: ptr(72.8258), Lat: ptr(19.1418)},
			{SubscriberID: "s-01", VendorID: "v-andheri", Name: "Meera", Address: "Versova", Lon: ptr(72.8122), Lat: ptr(19.1310)},
			{SubscriberID: "s-03", VendorID: "v-andheri", Name: "Kabir", Address: "No pin dropped"},
			{SubscriberID: "s-04", VendorID: "v-andheri", Name: "Paused", Address: "Juhu", Lon: ptr(72.8267), Lat: ptr(19.1075), Active: ptr(false)},
			{SubscriberID: "s-10", VendorID: "v-bandra", Name: "Zoya", Address: "Pali Hill", Lon: ptr(72.8270), Lat: ptr(19.0680)},
		},
	}
}

func setupSqlite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "routes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, InitSchema(db, DialectSQLite))
	require.NoError(t, ApplySeed(db, DialectSQLite, testSeed()))

	return db
}

func TestSqliteStopRepository_ListVendorIDs(t *testing.T) {
	repo := NewSqliteStopRepository(setupSqlite(t))

	ids, err := repo.ListVendorIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"v-andheri", "v-bandra"}, ids)
}

func TestSqliteStopRepository_GetVendor(t *testing.T) {
	repo := NewSqliteStopRepository(setupSqlite(t))
	ctx := context.Background()

	v, err := repo.GetVendor(ctx, "v-andheri")
	require.NoError(t, err)
	assert.Equal(t, "Annapurna Tiffins", v.Name)
	require.NotNil(t, v.Location)
	assert.Equal(t, domain.Coordinates{Lon: 72.8362, Lat: 19.1364}, *v.Location)

	pending, err := repo.GetVendor(ctx, "v-pending")
	require.NoError(t, err)
	assert.Nil(t, pending.Location)

	_, err = repo.GetVendor(ctx, "v-missing")
	assert.ErrorIs(t, err, domain.ErrVendorNotFound)
}

func TestSqliteStopRepository_ListDeliveryStops(t *testing.T) {
	repo := NewSqliteStopRepository(setupSqlite(t))
	ctx := context.Background()

	stops, err := repo.ListDeliveryStops(ctx, "v-andheri")
	require.NoError(t, err)
	assert.Equal(t, []domain.Stop{
		{ID: "s-01", Name: "Meera", Address: "Versova", Location: domain.Coordinates{Lon: 72.8122, Lat: 19.1310}},
		{ID: "s-02", Name: "Ravi", Address: "Lokhandwala", Location: domain.Coordinates{Lon: 72.8258, Lat: 19.1418}},
	}, stops)

	skipped, err := repo.CountStopsWithoutLocation(ctx, "v-andheri")
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	none, err := repo.ListDeliveryStops(ctx, "v-pending")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSeedFromJSON(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, InitSchema(db, DialectSQLite))

	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"vendors": [{"vendor_id": "v1", "name": "Kitchen", "address": "A", "lon": 77.59, "lat": 12.97}],
		"subscribers": [{"subscriber_id": "s1", "vendor_id": "v1", "name": "Sub", "address": "B", "lon": 77.60, "lat": 12.98}]
	}`), 0o600))

	// Seeding is an upsert; running it twice must not fail.
	require.NoError(t, SeedFromJSON(db, DialectSQLite, path))
	require.NoError(t, SeedFromJSON(db, DialectSQLite, path))

	stops, err := NewSqliteStopRepository(db).ListDeliveryStops(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "s1", stops[0].ID)
}

func TestApplySeedValidation(t *testing.T) {
	db := setupSqlite(t)

	err := ApplySeed(db, DialectSQLite, Seed{Vendors: []VendorSeed{{VendorID: " "}}})
	assert.Error(t, err)

	err = ApplySeed(db, DialectSQLite, Seed{Subscribers: []SubscriberSeed{{SubscriberID: "s", VendorID: "v-bandra", Lon: ptr(1.0)}}})
	assert.Error(t, err)
}

func TestDialectPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", DialectSQLite.placeholders(3))
	assert.Equal(t, "$1, $2, $3", DialectPostgres.placeholders(3))
}
