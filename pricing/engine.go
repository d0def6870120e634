// Package pricing derives an ethical rent recommendation from property
// characteristics. The engine is pure arithmetic over injected tables: it does
// no I/O and holds no mutable state, so one Engine may serve any number of
// goroutines.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"ethical-rent/models"
)

var (
	// ErrUnknownPropertyType is returned for a type absent from the base-rate table.
	ErrUnknownPropertyType = errors.New("pricing: unknown property type")
	// ErrUnknownHousingType is returned for a housing type absent from the multiplier table.
	ErrUnknownHousingType = errors.New("pricing: unknown housing type")
	// ErrInvalidTables is returned when a coefficient table cannot be priced with.
	ErrInvalidTables = errors.New("pricing: invalid tables")
)

// Engine computes pricing recommendations.
type Engine struct {
	tables *Tables
}

// NewEngine returns an Engine pricing with a private copy of tables.
// A nil tables argument selects DefaultTables.
func NewEngine(tables *Tables) *Engine {
	if tables == nil {
		return &Engine{tables: DefaultTables()}
	}
	return &Engine{tables: tables.Clone()}
}

// Tables returns a copy of the coefficients the engine prices with.
func (e *Engine) Tables() *Tables {
	return e.tables.Clone()
}

// run carries the running price and the itemised output of one calculation.
type run struct {
	price     float64
	reasoning []string
	breakdown models.PriceBreakdown
}

// multiply applies m to the running price, records the delta in *field and
// appends a reasoning line when the price actually moved.
func (r *run) multiply(m float64, field *float64, format string, args ...any) {
	before := r.price
	r.price *= m
	*field = r.price - before
	if r.price != before {
		r.reasoning = append(r.reasoning, fmt.Sprintf(format, args...)+
			fmt.Sprintf(" (×%.2f → $%.2f)", m, r.price))
	}
}

// CalculateEthicalRent runs the adjustment pipeline for p and returns a fresh
// recommendation. The only errors are unknown type or housing type values.
func (e *Engine) CalculateEthicalRent(p models.PropertyCharacteristics) (*models.PricingRecommendation, error) {
	t := e.tables

	rate, ok := t.BaseRates[p.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPropertyType, p.Type)
	}
	housing := p.HousingType
	if housing == "" {
		housing = models.HousingPrivate
	}
	housingMultiplier, ok := t.HousingMultipliers[housing]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHousingType, p.HousingType)
	}

	r := &run{}

	// 1. Base price
	if p.Type == models.TypeRoom {
		r.price = t.RoomBasePrice
		r.reasoning = append(r.reasoning, fmt.Sprintf("Base price for a room: $%.2f", r.price))
	} else {
		r.price = p.SquareFootage * rate
		r.reasoning = append(r.reasoning, fmt.Sprintf("Base price: %.0f sq ft × $%.2f/sq ft (%s) = $%.2f",
			p.SquareFootage, rate, p.Type, r.price))
	}
	r.breakdown.BasePrice = r.price

	// 2. Location
	locationMultiplier, matched := e.locationMultiplier(p.Location)
	r.multiply(locationMultiplier, &r.breakdown.LocationAdjustment, "Location adjustment for %s", matched)

	// 3. Bedrooms
	r.multiply(t.Bedrooms.Floor(float64(p.Bedrooms)), &r.breakdown.RoomAdjustment,
		"Bedroom adjustment for %d bedroom(s)", p.Bedrooms)

	// 4. Bathrooms
	r.multiply(t.Bathrooms.Floor(p.Bathrooms), &r.breakdown.BathroomAdjustment,
		"Bathroom adjustment for %g bathroom(s)", p.Bathrooms)

	// 5. Size efficiency. Rooms are priced without their area.
	if p.Type != models.TypeRoom {
		r.multiply(t.SizeEfficiency.Ceiling(p.SquareFootage), &r.breakdown.SizeAdjustment,
			"Size efficiency adjustment for %.0f sq ft", p.SquareFootage)
	}

	// 6. Build quality
	if p.YearBuilt != nil {
		r.multiply(t.BuildYear.Floor(float64(*p.YearBuilt)), &r.breakdown.QualityAdjustment,
			"Build quality adjustment for year built %d", *p.YearBuilt)
	}

	// 7. Floor level
	if p.Floor != nil && *p.Floor > 0 {
		r.multiply(t.FloorLevel.Ceiling(float64(*p.Floor)), &r.breakdown.UtilityAdjustment,
			"Floor adjustment for floor %d", *p.Floor)
	}

	// 8. Amenities are flat additions
	amenityValue, items := e.amenityValue(p)
	if amenityValue > 0 {
		r.price += amenityValue
		r.reasoning = append(r.reasoning, fmt.Sprintf("Amenity value: +$%.2f (%s) → $%.2f",
			amenityValue, strings.Join(items, ", "), r.price))
	}
	r.breakdown.AmenityAdjustment = amenityValue

	// 9. Housing type
	r.multiply(housingMultiplier, &r.breakdown.HousingAdjustment, "Housing type adjustment for %s housing", housing)

	suggested := roundRent(r.price)
	rec := &models.PricingRecommendation{
		SuggestedRent:        suggested,
		MinRent:              roundRent(float64(suggested) * (1 - t.EthicalBand)),
		MaxRent:              roundRent(float64(suggested) * (1 + t.EthicalBand)),
		IsWithinEthicalRange: true,
		Reasoning:            r.reasoning,
		Breakdown:            r.breakdown,
	}
	rec.Warnings = e.warnings(p, locationMultiplier, amenityValue, suggested)
	return rec, nil
}

// ValidateEthicalPricing recomputes the recommendation for p and reports
// whether proposedRent stays at or below its upper bound. There is no lower
// bound: any proposal under the maximum is acceptable.
func (e *Engine) ValidateEthicalPricing(proposedRent float64, p models.PropertyCharacteristics) (*models.PricingRecommendation, error) {
	rec, err := e.CalculateEthicalRent(p)
	if err != nil {
		return nil, err
	}
	rec.IsWithinEthicalRange = proposedRent <= float64(rec.MaxRent)
	if !rec.IsWithinEthicalRange {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf(
			"Speculative pricing: proposed rent $%.2f exceeds the ethical maximum of $%d by $%.2f",
			proposedRent, rec.MaxRent, proposedRent-float64(rec.MaxRent)))
	}
	return rec, nil
}

// IsSpeculativePricing reports whether proposedRent exceeds the ethical maximum for p.
func (e *Engine) IsSpeculativePricing(proposedRent float64, p models.PropertyCharacteristics) (bool, error) {
	rec, err := e.CalculateEthicalRent(p)
	if err != nil {
		return false, err
	}
	return proposedRent > float64(rec.MaxRent), nil
}

// locationMultiplier looks the location up by exact city, then state, then
// falls back to the default. The second result names what matched.
func (e *Engine) locationMultiplier(loc models.Location) (float64, string) {
	if m, ok := e.tables.CityMultipliers[loc.City]; ok && loc.City != "" {
		return m, loc.City
	}
	if m, ok := e.tables.StateMultipliers[loc.State]; ok && loc.State != "" {
		return m, loc.State
	}
	return e.tables.DefaultLocationMultiplier, "unlisted location"
}

// amenityValue sums the flat dollar additions and returns the contributing items
// in a stable order: listed amenities first, then features, then parking.
func (e *Engine) amenityValue(p models.PropertyCharacteristics) (float64, []string) {
	t := e.tables
	var total float64
	var items []string

	seen := make(map[string]struct{}, len(p.Amenities)+2)
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		if v, ok := t.Amenities[name]; ok && v > 0 {
			total += v
			items = append(items, name)
		}
	}
	for _, a := range p.Amenities {
		add(a)
	}
	if p.HasBalcony {
		add("balcony")
	}
	if p.HasGarden {
		add("garden")
	}

	feature := func(on bool, v float64, name string) {
		if on && v > 0 {
			total += v
			items = append(items, name)
		}
	}
	feature(p.HasElevator, t.Features.Elevator, "elevator")
	feature(p.IsFurnished, t.Features.Furnished, "furnished")
	feature(p.PetFriendly, t.Features.PetFriendly, "pet friendly")
	feature(p.UtilitiesIncluded, t.Features.UtilitiesIncluded, "utilities included")
	feature(p.ProximityToTransport, t.Features.Transport, "near transport")
	feature(p.ProximityToSchools, t.Features.Schools, "near schools")
	feature(p.ProximityToShopping, t.Features.Shopping, "near shopping")

	if p.ParkingSpaces != nil && *p.ParkingSpaces > 1 {
		if v := e.extraParkingValue(*p.ParkingSpaces - 1); v > 0 {
			total += v
			items = append(items, fmt.Sprintf("%d extra parking space(s)", *p.ParkingSpaces-1))
		}
	}
	return total, items
}

// extraParkingValue prices the spaces beyond the first. Spaces past the end
// of the table reuse its last value.
func (e *Engine) extraParkingValue(extra int) float64 {
	values := e.tables.ExtraParkingSpaces
	if len(values) == 0 {
		return 0
	}
	var total float64
	for i := 0; i < extra; i++ {
		if i < len(values) {
			total += values[i]
		} else {
			total += values[len(values)-1]
		}
	}
	return total
}

func (e *Engine) warnings(p models.PropertyCharacteristics, locationMultiplier, amenityValue float64, suggested int) []string {
	w := e.tables.Warnings
	var out []string

	if p.Type != models.TypeRoom && p.SquareFootage < w.SmallSquareFootage {
		out = append(out, fmt.Sprintf("Very small property (%.0f sq ft): make sure the space is livable for the price", p.SquareFootage))
	}
	if p.Bedrooms > w.LargeBedrooms {
		out = append(out, fmt.Sprintf("Large property (%d bedrooms): verify market value with comparable listings", p.Bedrooms))
	}
	if locationMultiplier > w.HighCostMultiplier {
		out = append(out, fmt.Sprintf("High-cost area (×%.2f): rent may strain local affordability", locationMultiplier))
	}
	if p.YearBuilt != nil && *p.YearBuilt < w.OldBuildYear {
		out = append(out, fmt.Sprintf("Very old property (built %d): check maintenance and safety standards", *p.YearBuilt))
	}
	if p.Floor != nil && *p.Floor > w.HighFloor {
		out = append(out, fmt.Sprintf("Very high floor (%d): confirm elevator access and emergency exits", *p.Floor))
	}
	if amenityValue > float64(suggested)*w.AmenityShare {
		out = append(out, fmt.Sprintf("High amenity value ($%.2f) makes up more than %.0f%% of the suggested rent",
			amenityValue, w.AmenityShare*100))
	}
	return out
}

func roundRent(v float64) int {
	return int(math.Round(v))
}
