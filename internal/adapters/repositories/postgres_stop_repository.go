package repositories

import (
	"context"
	"errors"
	"fmt"
	"nourishnet-route-service/internal/domain"
	"nourishnet-route-service/internal/platform/obs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL-backed implementation of the StopRepository port.
type PostgresStopRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresStopRepository(pool *pgxpool.Pool) *PostgresStopRepository {
	return &PostgresStopRepository{Pool: pool}
}

func (r *PostgresStopRepository) ListVendorIDs(ctx context.Context) (_ []string, err error) {
	defer obs.Time(ctx, "stops.ListVendorIDs")(&err)

	if r.Pool == nil {
		return nil, errors.New("postgres stop repository: pool is nil")
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT vendor_id
		FROM vendors
		WHERE lon IS NOT NULL AND lat IS NOT NULL
		ORDER BY vendor_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list vendors: query vendors table: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list vendors: collect rows: %w", err)
	}

	return ids, nil
}

func (r *PostgresStopRepository) GetVendor(ctx context.Context, vendorID string) (_ *domain.Vendor, err error) {
	defer obs.Time(ctx, "stops.GetVendor")(&err)

	if r.Pool == nil {
		return nil, errors.New("postgres stop repository: pool is nil")
	}

	var (
		v        domain.Vendor
		lon, lat *float64
	)
	err = r.Pool.QueryRow(ctx, `
		SELECT vendor_id, name, address, lon, lat
		FROM vendors
		WHERE vendor_id = $1
	`, vendorID).Scan(&v.ID, &v.Name, &v.Address, &lon, &lat)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get vendor %q: %w", vendorID, domain.ErrVendorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor %q: %w", vendorID, err)
	}

	if lon != nil && lat != nil {
		v.Location = &domain.Coordinates{Lon: *lon, Lat: *lat}
	}

	return &v, nil
}

func (r *PostgresStopRepository) ListDeliveryStops(ctx context.Context, vendorID string) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "stops.ListDeliveryStops")(&err)

	if r.Pool == nil {
		return nil, errors.New("postgres stop repository: pool is nil")
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT subscriber_id, name, address, lon, lat
		FROM subscribers
		WHERE vendor_id = $1
			AND active
			AND lon IS NOT NULL
			AND lat IS NOT NULL
		ORDER BY subscriber_id
	`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list delivery stops: query subscribers table: %w", err)
	}

	stops, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Stop, error) {
		var st domain.Stop
		err := row.Scan(&st.ID, &st.Name, &st.Address, &st.Location.Lon, &st.Location.Lat)
		return st, err
	})
	if err != nil {
		return nil, fmt.Errorf("list delivery stops: scan rows: %w", err)
	}

	return stops, nil
}

func (r *PostgresStopRepository) CountStopsWithoutLocation(ctx context.Context, vendorID string) (int, error) {
	if r.Pool == nil {
		return 0, errors.New("postgres stop repository: pool is nil")
	}

	var n int
	err := r.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM subscribers
		WHERE vendor_id = $1
			AND active
			AND (lon IS NULL OR lat IS NULL)
	`, vendorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unlocated stops: %w", err)
	}

	return n, nil
}
