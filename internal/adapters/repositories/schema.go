package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// SQL dialect of a database/sql handle.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) placeholders(count int) string {
	ph := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		ph = append(ph, d.placeholder(i))
	}
	return strings.Join(ph, ", ")
}

// Initialize the vendor/subscriber schema.
func InitSchema(db *sql.DB, d Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	coord := "REAL"
	if d == DialectPostgres {
		coord = "DOUBLE PRECISION"
	}

	createVendorsQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS vendors (
		vendor_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		lon %[1]s,
		lat %[1]s
	);
	`, coord)

	createSubscribersQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS subscribers (
		subscriber_id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL REFERENCES vendors(vendor_id),
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		lon %[1]s,
		lat %[1]s,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);
	`, coord)

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_subscribers_vendor_active
	ON subscribers(vendor_id, active);
	`

	statements := []string{
		createVendorsQuery,
		createSubscribersQuery,
		createIndexQuery,
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type VendorSeed struct {
	VendorID string   `json:"vendor_id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Lon      *float64 `json:"lon"`
	Lat      *float64 `json:"lat"`
}

type SubscriberSeed struct {
	SubscriberID string   `json:"subscriber_id"`
	VendorID     string   `json:"vendor_id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Lon          *float64 `json:"lon"`
	Lat          *float64 `json:"lat"`
	Active       *bool    `json:"active"`
}

type Seed struct {
	Vendors     []VendorSeed     `json:"vendors"`
	Subscribers []SubscriberSeed `json:"subscribers"`
}

// Populate the database with vendors and subscribers from a JSON file.
// Rows are upserted, so seeding twice is harmless.
func SeedFromJSON(db *sql.DB, d Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	return ApplySeed(db, d, data)
}

// ApplySeed validates and upserts seed rows in a single transaction.
func ApplySeed(db *sql.DB, d Dialect, data Seed) error {
	if db == nil {
		return errors.New("seed: DB is nil")
	}

	for i, v := range data.Vendors {
		if strings.TrimSpace(v.VendorID) == "" {
			return fmt.Errorf("seed: vendor at index %d: vendor_id cannot be empty", i+1)
		}
		if (v.Lon == nil) != (v.Lat == nil) {
			return fmt.Errorf("seed: vendor %q: lon and lat must be set together", v.VendorID)
		}
	}
	for i, s := range data.Subscribers {
		if strings.TrimSpace(s.SubscriberID) == "" || strings.TrimSpace(s.VendorID) == "" {
			return fmt.Errorf("seed: subscriber at index %d: subscriber_id and vendor_id cannot be empty", i+1)
		}
		if (s.Lon == nil) != (s.Lat == nil) {
			return fmt.Errorf("seed: subscriber %q: lon and lat must be set together", s.SubscriberID)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	vendorStmt, err := tx.Prepare(fmt.Sprintf(`
	INSERT INTO vendors (vendor_id, name, address, lon, lat)
	VALUES (%s)
	ON CONFLICT (vendor_id) DO UPDATE
	SET name = excluded.name,
		address = excluded.address,
		lon = excluded.lon,
		lat = excluded.lat;
	`, d.placeholders(5)))
	if err != nil {
		return fmt.Errorf("seed: prepare vendor insert: %w", err)
	}
	defer vendorStmt.Close()

	for _, v := range data.Vendors {
		if _, err := vendorStmt.Exec(strings.TrimSpace(v.VendorID), v.Name, v.Address, v.Lon, v.Lat); err != nil {
			return fmt.Errorf("seed: insert vendor_id=%q: %w", v.VendorID, err)
		}
	}

	subStmt, err := tx.Prepare(fmt.Sprintf(`
	INSERT INTO subscribers (subscriber_id, vendor_id, name, address, lon, lat, active)
	VALUES (%s)
	ON CONFLICT (subscriber_id) DO UPDATE
	SET vendor_id = excluded.vendor_id,
		name = excluded.name,
		address = excluded.address,
		lon = excluded.lon,
		lat = excluded.lat,
		active = excluded.active;
	`, d.placeholders(7)))
	if err != nil {
		return fmt.Errorf("seed: prepare subscriber insert: %w", err)
	}
	defer subStmt.Close()

	for _, s := range data.Subscribers {
		active := true
		if s.Active != nil {
			active = *s.Active
		}
		if _, err := subStmt.Exec(strings.TrimSpace(s.SubscriberID), strings.TrimSpace(s.VendorID), s.Name, s.Address, s.Lon, s.Lat, active); err != nil {
			return fmt.Errorf("seed: insert subscriber_id=%q: %w", s.SubscriberID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
