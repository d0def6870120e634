package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"ethical-rent/models"
	"ethical-rent/pricing"
	"ethical-rent/utils"
)

var (
	// numberRegexp captures the first numeric value, commas already stripped
	numberRegexp = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	// separatorRegexp splits amenity lists written with commas, semicolons, pipes or newlines
	separatorRegexp = regexp.MustCompile(`[,;|\n]+`)
	// identifierRegexp collapses anything that is not a letter or digit
	identifierRegexp = regexp.MustCompile(`[^a-z0-9]+`)
)

var typeAliases = map[string]models.PropertyType{
	"flat":          models.TypeApartment,
	"rental_unit":   models.TypeApartment,
	"unit":          models.TypeApartment,
	"home":          models.TypeHouse,
	"single_family": models.TypeHouse,
	"private_room":  models.TypeRoom,
	"shared_room":   models.TypeRoom,
	"b_and_b":       models.TypeBedAndBreakfast,
	"bnb":           models.TypeBedAndBreakfast,
	"guest_house":   models.TypeGuesthouse,
	"camper":        models.TypeRV,
	"camper_rv":     models.TypeRV,
	"tent":          models.TypeCampsite,
	"boat":          models.TypeHouseboat,
	"condominium":   models.TypeCondo,
	"dorm":          models.TypeDormitory,
}

var amenityAliases = map[string]string{
	"wi_fi":           "wifi",
	"wireless":        "wifi",
	"internet":        "wifi",
	"ac":              "air_conditioning",
	"a_c":             "air_conditioning",
	"aircon":          "air_conditioning",
	"washer":          "laundry",
	"dryer":           "laundry",
	"washer_dryer":    "laundry",
	"free_parking":    "parking",
	"garage":          "parking",
	"fitness_center":  "gym",
	"swimming_pool":   "pool",
	"patio":           "balcony",
	"terrace":         "balcony",
	"yard":            "garden",
	"backyard":        "garden",
	"central_heating": "heating",
}

// Cleaner turns raw property rows into validated PropertyRecords. It performs
// the shape checks the pricing engine expects its callers to make.
type Cleaner struct {
	logger *utils.Logger
	tables *pricing.Tables
}

// NewCleaner creates a Cleaner with the given logger. When tables is non-nil,
// Screen also drops property types the tables have no base rate for.
func NewCleaner(logger *utils.Logger, tables *pricing.Tables) *Cleaner {
	return &Cleaner{logger: logger, tables: tables}
}

// Clean parses raw rows and returns the records that pass Screen.
func (c *Cleaner) Clean(raw []*models.RawProperty) []*models.PropertyRecord {
	records := make([]*models.PropertyRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, c.parse(r))
	}
	return c.Screen(records)
}

// Screen drops records the engine cannot price sensibly: missing or duplicate
// IDs, unknown types, non-positive area for anything but a room, negative
// bedrooms, and fewer than one bathroom.
func (c *Cleaner) Screen(records []*models.PropertyRecord) []*models.PropertyRecord {
	seen := make(map[string]struct{}, len(records))
	result := make([]*models.PropertyRecord, 0, len(records))

	for _, rec := range records {
		if rec == nil {
			continue
		}
		p := rec.Characteristics

		if rec.ID == "" {
			c.logger.Warn("[cleaner] Dropping property with empty ID: %s", rec.Title)
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			c.logger.Debug("[cleaner] Duplicate property skipped: %s", rec.ID)
			continue
		}
		seen[rec.ID] = struct{}{}

		switch {
		case p.Type == "":
			c.logger.Warn("[cleaner] Dropping %s: missing property type", rec.ID)
			continue
		case c.tables != nil && !c.tables.KnownType(p.Type):
			c.logger.Warn("[cleaner] Dropping %s: unknown property type %q", rec.ID, p.Type)
			continue
		case p.Type != models.TypeRoom && p.SquareFootage <= 0:
			c.logger.Warn("[cleaner] Dropping %s: square footage %.0f must be positive for %s", rec.ID, p.SquareFootage, p.Type)
			continue
		case p.Bedrooms < 0:
			c.logger.Warn("[cleaner] Dropping %s: negative bedroom count %d", rec.ID, p.Bedrooms)
			continue
		case p.Bathrooms < 1:
			c.logger.Warn("[cleaner] Dropping %s: bathrooms %.1f below one", rec.ID, p.Bathrooms)
			continue
		}

		result = append(result, rec)
	}

	c.logger.Info("[cleaner] Screened %d → %d properties (dropped %d)",
		len(records), len(result), len(records)-len(result))
	return result
}

func (c *Cleaner) parse(r *models.RawProperty) *models.PropertyRecord {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = strings.TrimSpace(r.URL)
	}

	city, state := normaliseText(r.City), normaliseText(r.State)
	if city == "" && state == "" {
		city, state = splitLocation(r.Location)
	}

	bathrooms := 1.0
	if v, ok := parseNumber(r.Bathrooms); ok {
		bathrooms = v
	} else {
		c.logger.Debug("[cleaner] %s: no bathroom count, assuming 1", id)
	}

	p := models.PropertyCharacteristics{
		Type:          normaliseType(r.Type),
		HousingType:   models.HousingType(normaliseIdentifier(r.HousingType)),
		Bedrooms:      parseIntOr(r.Bedrooms, 0),
		Bathrooms:     bathrooms,
		SquareFootage: parseFloatOr(r.SquareFootage, 0),
		Amenities:     parseAmenities(r.Amenities),
		Location:      models.Location{City: city, State: state},

		Floor:         parseOptionalInt(r.Floor),
		ParkingSpaces: parseOptionalInt(r.ParkingSpaces),
		YearBuilt:     parseOptionalInt(r.YearBuilt),

		HasElevator:          parseBool(r.HasElevator),
		IsFurnished:          parseBool(r.IsFurnished),
		UtilitiesIncluded:    parseBool(r.UtilitiesIncluded),
		PetFriendly:          parseBool(r.PetFriendly),
		HasBalcony:           parseBool(r.HasBalcony),
		HasGarden:            parseBool(r.HasGarden),
		ProximityToTransport: parseBool(r.ProximityToTransport),
		ProximityToSchools:   parseBool(r.ProximityToSchools),
		ProximityToShopping:  parseBool(r.ProximityToShopping),
	}

	rec := &models.PropertyRecord{
		ID:              id,
		Source:          strings.ToLower(strings.TrimSpace(r.Source)),
		Title:           normaliseText(r.Title),
		URL:             strings.TrimSpace(r.URL),
		Characteristics: p,
		UpdatedAt:       r.FetchedAt,
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	if rent, ok := parseNumber(r.AskingRent); ok && rent > 0 {
		rec.AskingRent = &rent
	}
	return rec
}

// parseNumber extracts the first number from free text such as "1,200 sq ft"
// or "$2,450/month".
func parseNumber(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := numberRegexp.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseFloatOr(raw string, fallback float64) float64 {
	if v, ok := parseNumber(raw); ok {
		return v
	}
	return fallback
}

func parseIntOr(raw string, fallback int) int {
	if v, ok := parseNumber(raw); ok {
		return int(v)
	}
	return fallback
}

func parseOptionalInt(raw string) *int {
	if v, ok := parseNumber(raw); ok {
		n := int(v)
		return &n
	}
	return nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "y", "yes", "true", "t", "x", "✓":
		return true
	}
	return false
}

// parseAmenities splits, normalises and deduplicates an amenity list while
// keeping first-seen order.
func parseAmenities(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range separatorRegexp.Split(raw, -1) {
		id := normaliseIdentifier(part)
		if alias, ok := amenityAliases[id]; ok {
			id = alias
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normaliseType(raw string) models.PropertyType {
	id := normaliseIdentifier(raw)
	id = strings.TrimPrefix(id, "entire_")
	if alias, ok := typeAliases[id]; ok {
		return alias
	}
	return models.PropertyType(id)
}

// normaliseIdentifier lower-cases s and joins its words with underscores:
// "Bed & Breakfast" becomes "bed_and_breakfast".
func normaliseIdentifier(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", " and ")
	s = identifierRegexp.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// splitLocation reads "City, State[, Country]".
func splitLocation(raw string) (string, string) {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = normaliseText(parts[i])
	}
	switch {
	case len(parts) >= 2:
		return parts[0], parts[1]
	case len(parts) == 1:
		return parts[0], ""
	}
	return "", ""
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), unicode.IsSpace)
	return strings.Join(fields, " ")
}
