package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ethical-rent/models"
)

// ErrMissingTypeColumn is returned when a CSV header has no property type column.
var ErrMissingTypeColumn = errors.New("csv: header has no type column")

// csvColumns maps accepted header names onto RawProperty fields.
var csvColumns = map[string]func(*models.RawProperty, string){
	"id":                     func(p *models.RawProperty, v string) { p.ID = v },
	"title":                  func(p *models.RawProperty, v string) { p.Title = v },
	"url":                    func(p *models.RawProperty, v string) { p.URL = v },
	"type":                   func(p *models.RawProperty, v string) { p.Type = v },
	"property_type":          func(p *models.RawProperty, v string) { p.Type = v },
	"housing_type":           func(p *models.RawProperty, v string) { p.HousingType = v },
	"bedrooms":               func(p *models.RawProperty, v string) { p.Bedrooms = v },
	"bathrooms":              func(p *models.RawProperty, v string) { p.Bathrooms = v },
	"square_footage":         func(p *models.RawProperty, v string) { p.SquareFootage = v },
	"sqft":                   func(p *models.RawProperty, v string) { p.SquareFootage = v },
	"amenities":              func(p *models.RawProperty, v string) { p.Amenities = v },
	"city":                   func(p *models.RawProperty, v string) { p.City = v },
	"state":                  func(p *models.RawProperty, v string) { p.State = v },
	"location":               func(p *models.RawProperty, v string) { p.Location = v },
	"floor":                  func(p *models.RawProperty, v string) { p.Floor = v },
	"parking_spaces":         func(p *models.RawProperty, v string) { p.ParkingSpaces = v },
	"year_built":             func(p *models.RawProperty, v string) { p.YearBuilt = v },
	"asking_rent":            func(p *models.RawProperty, v string) { p.AskingRent = v },
	"has_elevator":           func(p *models.RawProperty, v string) { p.HasElevator = v },
	"is_furnished":           func(p *models.RawProperty, v string) { p.IsFurnished = v },
	"utilities_included":     func(p *models.RawProperty, v string) { p.UtilitiesIncluded = v },
	"pet_friendly":           func(p *models.RawProperty, v string) { p.PetFriendly = v },
	"has_balcony":            func(p *models.RawProperty, v string) { p.HasBalcony = v },
	"has_garden":             func(p *models.RawProperty, v string) { p.HasGarden = v },
	"proximity_to_transport": func(p *models.RawProperty, v string) { p.ProximityToTransport = v },
	"proximity_to_schools":   func(p *models.RawProperty, v string) { p.ProximityToSchools = v },
	"proximity_to_shopping":  func(p *models.RawProperty, v string) { p.ProximityToShopping = v },
}

// CSVReader reads raw property rows from a CSV export of the listings store.
// The first row is a header; unknown columns are ignored.
type CSVReader struct {
	file io.ReadCloser
	name string
}

// NewCSVReader opens the CSV file at path.
func NewCSVReader(path string) (*CSVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	return &CSVReader{file: f, name: path}, nil
}

// NewCSVReaderFrom wraps an already open stream.
func NewCSVReaderFrom(r io.Reader, name string) *CSVReader {
	return &CSVReader{file: io.NopCloser(r), name: name}
}

// ReadRaw reads every data row. Blank lines are skipped by encoding/csv.
func (c *CSVReader) ReadRaw(ctx context.Context) ([]*models.RawProperty, error) {
	r := csv.NewReader(c.file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	setters := make([]func(*models.RawProperty, string), len(header))
	hasType := false
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		setters[i] = csvColumns[key]
		if key == "type" || key == "property_type" {
			hasType = true
		}
	}
	if !hasType {
		return nil, fmt.Errorf("%w in %s", ErrMissingTypeColumn, c.name)
	}

	now := time.Now()
	var out []*models.RawProperty
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("csv: read row %d: %w", line, err)
		}

		p := &models.RawProperty{Source: "csv", FetchedAt: now}
		for i, v := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](p, strings.TrimSpace(v))
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// Close closes the underlying file.
func (c *CSVReader) Close() error {
	return c.file.Close()
}
