package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"nourishnet-route-service/internal/domain"
)

// SQLite-backed implementation of the StopRepository port.
type SqliteStopRepository struct{ DB *sql.DB }

func NewSqliteStopRepository(db *sql.DB) *SqliteStopRepository {
	return &SqliteStopRepository{DB: db}
}

// Return vendors that have a depot location, ordered by id.
func (s *SqliteStopRepository) ListVendorIDs(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite stop repository: DB is nil")
	}

	query := `
	SELECT vendor_id
	FROM vendors
	WHERE lon IS NOT NULL AND lat IS NOT NULL
	ORDER BY vendor_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vendors: query vendors table: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, 16)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list vendors: scan row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vendors: row iteration: %w", err)
	}

	return ids, nil
}

func (s *SqliteStopRepository) GetVendor(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite stop repository: DB is nil")
	}

	query := `
	SELECT vendor_id, name, address, lon, lat
	FROM vendors
	WHERE vendor_id = ?;
	`

	var (
		v        domain.Vendor
		lon, lat sql.NullFloat64
	)
	err := s.DB.QueryRowContext(ctx, query, vendorID).Scan(&v.ID, &v.Name, &v.Address, &lon, &lat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get vendor %q: %w", vendorID, domain.ErrVendorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor %q: %w", vendorID, err)
	}

	if lon.Valid && lat.Valid {
		v.Location = &domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}
	}

	return &v, nil
}

// Return active, located subscribers of a vendor ordered by subscriber id.
func (s *SqliteStopRepository) ListDeliveryStops(ctx context.Context, vendorID string) ([]domain.Stop, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite stop repository: DB is nil")
	}

	query := `
	SELECT subscriber_id, name, address, lon, lat
	FROM subscribers
	WHERE vendor_id = ?
		AND active = TRUE
		AND lon IS NOT NULL
		AND lat IS NOT NULL
	ORDER BY subscriber_id;
	`
	rows, err := s.DB.QueryContext(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list delivery stops: query subscribers table: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 32)
	for rows.Next() {
		var st domain.Stop
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &st.Location.Lon, &st.Location.Lat); err != nil {
			return nil, fmt.Errorf("list delivery stops: scan row: %w", err)
		}
		stops = append(stops, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list delivery stops: row iteration: %w", err)
	}

	return stops, nil
}

func (s *SqliteStopRepository) CountStopsWithoutLocation(ctx context.Context, vendorID string) (int, error) {
	if s.DB == nil {
		return 0, errors.New("sqlite stop repository: DB is nil")
	}

	query := `
	SELECT COUNT(*)
	FROM subscribers
	WHERE vendor_id = ?
		AND active = TRUE
		AND (lon IS NULL OR lat IS NULL);
	`

	var n int
	if err := s.DB.QueryRowContext(ctx, query, vendorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unlocated stops: %w", err)
	}
	return n, nil
}
