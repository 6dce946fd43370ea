// Package postgres implements the shop read model and the catalog ingest
// writer over a Postgres mirror of the upstream shop tables.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/motoatlas/shop-discovery-service/internal/domain"
	"github.com/motoatlas/shop-discovery-service/internal/observability"
)

const shopColumns = `id, name, address, city, country, phone, email, website, rating, latitude, longitude, updated_at`

// Store provides shop and service-offering access backed by Postgres.
// It implements domain.ShopSource and the ingest load side.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New opens a pooled connection to the given DSN and verifies it with a ping.
// The metrics may be nil for tools that do not export them.
func New(ctx context.Context, dsn string, logger *slog.Logger, metrics *observability.Metrics) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, logger: logger, metrics: metrics}
	s.setStoreUp(1)
	return s, nil
}

// InitSchema creates the shops and service_offerings tables if they do not
// exist. Used by the seed tool and integration tests; production schemas are
// managed by migrations upstream.
func (s *Store) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS shops (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			address    TEXT,
			city       TEXT,
			country    TEXT,
			phone      TEXT,
			email      TEXT,
			website    TEXT,
			rating     DOUBLE PRECISION,
			latitude   DOUBLE PRECISION,
			longitude  DOUBLE PRECISION,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS service_offerings (
			shop_id    TEXT NOT NULL,
			category   TEXT NOT NULL,
			available  BOOLEAN NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (shop_id, category)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_shops_geolocated
			ON shops (country) WHERE latitude IS NOT NULL AND longitude IS NOT NULL;`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// ListGeolocatedShops returns every shop with both coordinates present.
func (s *Store) ListGeolocatedShops(ctx context.Context) ([]domain.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL`
	return s.queryShops(ctx, query)
}

// ListShops returns every shop, geolocated or not.
func (s *Store) ListShops(ctx context.Context) ([]domain.Shop, error) {
	return s.queryShops(ctx, `SELECT `+shopColumns+` FROM shops`)
}

func (s *Store) queryShops(ctx context.Context, query string) ([]domain.Shop, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query shops: %w", err)
	}
	defer rows.Close()

	var shops []domain.Shop
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		shops = append(shops, shop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shops: %w", err)
	}
	return shops, nil
}

// HasAvailableOffering reports whether an available offering row exists for
// the (shop, category) pair.
func (s *Store) HasAvailableOffering(ctx context.Context, shopID, category string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM service_offerings
			WHERE shop_id = $1 AND category = $2 AND available
		)`, shopID, category).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check offering: %w", err)
	}
	return exists, nil
}

// UpsertShops writes a batch of shop records in one transaction.
func (s *Store) UpsertShops(ctx context.Context, shops []domain.Shop) error {
	if len(shops) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin shop upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shops (`+shopColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			website = EXCLUDED.website,
			rating = EXCLUDED.rating,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare shop upsert: %w", err)
	}
	defer stmt.Close()

	for _, shop := range shops {
		_, err := stmt.ExecContext(ctx,
			shop.ID, shop.Name,
			nullString(shop.Address), nullString(shop.City), nullString(shop.Country),
			nullString(shop.Phone), nullString(shop.Email), nullString(shop.Website),
			nullFloat(shop.Rating), nullFloat(shop.Latitude), nullFloat(shop.Longitude),
			shop.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert shop %s: %w", shop.ID, err)
		}
	}
	return tx.Commit()
}

// UpsertOfferings writes a batch of service-offering records in one transaction.
func (s *Store) UpsertOfferings(ctx context.Context, offerings []domain.ServiceOffering) error {
	if len(offerings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin offering upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO service_offerings (shop_id, category, available, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (shop_id, category) DO UPDATE SET
			available = EXCLUDED.available,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare offering upsert: %w", err)
	}
	defer stmt.Close()

	for _, o := range offerings {
		if _, err := stmt.ExecContext(ctx, o.ShopID, o.Category, o.Available, o.UpdatedAt); err != nil {
			return fmt.Errorf("upsert offering %s/%s: %w", o.ShopID, o.Category, err)
		}
	}
	return tx.Commit()
}

// CheckReadiness pings the database; used by the /readyz endpoint. It also
// drives the store-up gauge.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		s.setStoreUp(0)
		return fmt.Errorf("database unreachable: %w", err)
	}
	s.setStoreUp(1)
	return nil
}

func (s *Store) setStoreUp(v float64) {
	if s.metrics != nil {
		s.metrics.StoreUp.Set(v)
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// scanShop maps one nullable shops row into the typed domain record. This is
// the only place loosely-typed rows cross into the domain.
func scanShop(rows *sql.Rows) (domain.Shop, error) {
	var (
		shop                                          domain.Shop
		address, city, country, phone, email, website sql.NullString
		rating, latitude, longitude                   sql.NullFloat64
	)

	err := rows.Scan(
		&shop.ID, &shop.Name,
		&address, &city, &country, &phone, &email, &website,
		&rating, &latitude, &longitude,
		&shop.UpdatedAt,
	)
	if err != nil {
		return domain.Shop{}, fmt.Errorf("scan shop row: %w", err)
	}

	shop.Address = address.String
	shop.City = city.String
	shop.Country = country.String
	shop.Phone = phone.String
	shop.Email = email.String
	shop.Website = website.String
	if rating.Valid {
		shop.Rating = &rating.Float64
	}
	if latitude.Valid {
		shop.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		shop.Longitude = &longitude.Float64
	}
	return shop, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
