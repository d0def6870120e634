package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ethical-rent/models"
	"ethical-rent/utils"
)

// ErrPropertyNotFound is returned by FetchByID when no row matches.
var ErrPropertyNotFound = errors.New("postgres: property not found")

const propertyColumns = `
	id, title, url, property_type, housing_type, bedrooms, bathrooms, square_footage,
	amenities, city, state, floor, parking_spaces, year_built, asking_rent,
	has_elevator, is_furnished, utilities_included, pet_friendly, has_balcony, has_garden,
	near_transport, near_schools, near_shopping, updated_at`

// PostgresReader reads the property read model. The pricing run never writes
// to it; the listing flow owns the rows.
type PostgresReader struct {
	db *sql.DB
}

// NewPostgresReader opens a connection, waits for the database with retry,
// ensures the schema exists and returns a ready-to-use reader.
func NewPostgresReader(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresReader, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pr := &PostgresReader{db: db}
	if err := pr.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pr, nil
}

func (pr *PostgresReader) migrate(ctx context.Context) error {
	_, err := pr.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS properties (
			id                 TEXT          PRIMARY KEY,
			title              TEXT          NOT NULL DEFAULT '',
			url                TEXT          NOT NULL DEFAULT '',
			property_type      VARCHAR(40)   NOT NULL,
			housing_type       VARCHAR(20)   NOT NULL DEFAULT 'private',
			bedrooms           INTEGER       NOT NULL DEFAULT 0,
			bathrooms          NUMERIC(3,1)  NOT NULL DEFAULT 1,
			square_footage     NUMERIC(10,2) NOT NULL DEFAULT 0,
			amenities          TEXT[]        NOT NULL DEFAULT '{}',
			city               TEXT          NOT NULL DEFAULT '',
			state              TEXT          NOT NULL DEFAULT '',
			floor              INTEGER,
			parking_spaces     INTEGER,
			year_built         INTEGER,
			asking_rent        NUMERIC(10,2),
			has_elevator       BOOLEAN       NOT NULL DEFAULT FALSE,
			is_furnished       BOOLEAN       NOT NULL DEFAULT FALSE,
			utilities_included BOOLEAN       NOT NULL DEFAULT FALSE,
			pet_friendly       BOOLEAN       NOT NULL DEFAULT FALSE,
			has_balcony        BOOLEAN       NOT NULL DEFAULT FALSE,
			has_garden         BOOLEAN       NOT NULL DEFAULT FALSE,
			near_transport     BOOLEAN       NOT NULL DEFAULT FALSE,
			near_schools       BOOLEAN       NOT NULL DEFAULT FALSE,
			near_shopping      BOOLEAN       NOT NULL DEFAULT FALSE,
			updated_at         TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_properties_type ON properties(property_type);
		CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);
	`)
	return err
}

// FetchAll retrieves every property, ordered by ID.
func (pr *PostgresReader) FetchAll(ctx context.Context) ([]*models.PropertyRecord, error) {
	rows, err := pr.db.QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []*models.PropertyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FetchByID retrieves a single property, or ErrPropertyNotFound.
func (pr *PostgresReader) FetchByID(ctx context.Context, id string) (*models.PropertyRecord, error) {
	return fetchOne(pr.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id), id)
}

func fetchOne(row scanner, id string) (*models.PropertyRecord, error) {
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch %s: %w", id, err)
	}
	return rec, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.PropertyRecord, error) {
	var row propertyRow
	if err := s.Scan(row.dest()...); err != nil {
		return nil, err
	}
	return row.toRecord(), nil
}

func (pr *PostgresReader) Close() error {
	return pr.db.Close()
}

// propertyRow mirrors one row of the properties table, nullable columns included.
type propertyRow struct {
	ID, Title, URL, PropertyType, HousingType string
	Bedrooms                                  int
	Bathrooms, SquareFootage                  float64
	Amenities                                 []string
	City, State                               string
	Floor, ParkingSpaces, YearBuilt           sql.NullInt64
	AskingRent                                sql.NullFloat64

	HasElevator, IsFurnished, UtilitiesIncluded, PetFriendly bool
	HasBalcony, HasGarden                                    bool
	NearTransport, NearSchools, NearShopping                 bool

	UpdatedAt time.Time
}

func (r *propertyRow) dest() []any {
	return []any{
		&r.ID, &r.Title, &r.URL, &r.PropertyType, &r.HousingType,
		&r.Bedrooms, &r.Bathrooms, &r.SquareFootage,
		pq.Array(&r.Amenities), &r.City, &r.State,
		&r.Floor, &r.ParkingSpaces, &r.YearBuilt, &r.AskingRent,
		&r.HasElevator, &r.IsFurnished, &r.UtilitiesIncluded, &r.PetFriendly,
		&r.HasBalcony, &r.HasGarden,
		&r.NearTransport, &r.NearSchools, &r.NearShopping,
		&r.UpdatedAt,
	}
}

func (r *propertyRow) toRecord() *models.PropertyRecord {
	rec := &models.PropertyRecord{
		ID:     r.ID,
		Source: "postgres",
		Title:  r.Title,
		URL:    r.URL,
		Characteristics: models.PropertyCharacteristics{
			Type:          models.PropertyType(r.PropertyType),
			HousingType:   models.HousingType(r.HousingType),
			Bedrooms:      r.Bedrooms,
			Bathrooms:     r.Bathrooms,
			SquareFootage: r.SquareFootage,
			Amenities:     r.Amenities,
			Location:      models.Location{City: r.City, State: r.State},

			Floor:         nullInt(r.Floor),
			ParkingSpaces: nullInt(r.ParkingSpaces),
			YearBuilt:     nullInt(r.YearBuilt),

			HasElevator:          r.HasElevator,
			IsFurnished:          r.IsFurnished,
			UtilitiesIncluded:    r.UtilitiesIncluded,
			PetFriendly:          r.PetFriendly,
			HasBalcony:           r.HasBalcony,
			HasGarden:            r.HasGarden,
			ProximityToTransport: r.NearTransport,
			ProximityToSchools:   r.NearSchools,
			ProximityToShopping:  r.NearShopping,
		},
		UpdatedAt: r.UpdatedAt,
	}
	if r.AskingRent.Valid {
		v := r.AskingRent.Float64
		rec.AskingRent = &v
	}
	return rec
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
