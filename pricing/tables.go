package pricing

import (
	"errors"
	"fmt"
	"sort"

	"ethical-rent/models"
)

// Step is a single (threshold, multiplier) pair of a StepTable.
type Step struct {
	Threshold  float64 `yaml:"threshold"`
	Multiplier float64 `yaml:"multiplier"`
}

// StepTable is an ordered list of steps, ascending by threshold.
// Lookups never extrapolate: inputs past either edge clamp to the edge step.
type StepTable []Step

// Ceiling returns the multiplier of the first step whose threshold is >= v.
// Values above the last threshold use the last step.
func (t StepTable) Ceiling(v float64) float64 {
	if len(t) == 0 {
		return 1.0
	}
	for _, s := range t {
		if v <= s.Threshold {
			return s.Multiplier
		}
	}
	return t[len(t)-1].Multiplier
}

// Floor returns the multiplier of the last step whose threshold is <= v.
// Values below the first threshold use the first step.
func (t StepTable) Floor(v float64) float64 {
	if len(t) == 0 {
		return 1.0
	}
	for i := len(t) - 1; i >= 0; i-- {
		if v >= t[i].Threshold {
			return t[i].Multiplier
		}
	}
	return t[0].Multiplier
}

func (t StepTable) sorted() StepTable {
	if t == nil {
		return nil
	}
	out := make(StepTable, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out
}

// FeatureValues are the flat dollar bonuses for optional boolean attributes.
type FeatureValues struct {
	Elevator          float64 `yaml:"elevator"`
	Furnished         float64 `yaml:"furnished"`
	PetFriendly       float64 `yaml:"pet_friendly"`
	UtilitiesIncluded float64 `yaml:"utilities_included"`
	Transport         float64 `yaml:"transport"`
	Schools           float64 `yaml:"schools"`
	Shopping          float64 `yaml:"shopping"`
}

// WarningThresholds drive the heuristic caution checks.
type WarningThresholds struct {
	SmallSquareFootage float64 `yaml:"small_square_footage"`
	LargeBedrooms      int     `yaml:"large_bedrooms"`
	HighCostMultiplier float64 `yaml:"high_cost_multiplier"`
	OldBuildYear       int     `yaml:"old_build_year"`
	HighFloor          int     `yaml:"high_floor"`
	AmenityShare       float64 `yaml:"amenity_share"`
}

// Tables is the full coefficient set the engine prices with.
// An Engine keeps its own copy, so a Tables value may be reused or modified
// after it has been handed over.
type Tables struct {
	RoomBasePrice             float64                         `yaml:"room_base_price"`
	BaseRates                 map[models.PropertyType]float64 `yaml:"base_rates"`
	CityMultipliers           map[string]float64              `yaml:"city_multipliers"`
	StateMultipliers          map[string]float64              `yaml:"state_multipliers"`
	DefaultLocationMultiplier float64                         `yaml:"default_location_multiplier"`
	Bedrooms                  StepTable                       `yaml:"bedrooms"`
	Bathrooms                 StepTable                       `yaml:"bathrooms"`
	SizeEfficiency            StepTable                       `yaml:"size_efficiency"`
	BuildYear                 StepTable                       `yaml:"build_year"`
	FloorLevel                StepTable                       `yaml:"floor_level"`
	Amenities                 map[string]float64              `yaml:"amenities"`
	Features                  FeatureValues                   `yaml:"features"`
	ExtraParkingSpaces        []float64                       `yaml:"extra_parking_spaces"`
	HousingMultipliers        map[models.HousingType]float64  `yaml:"housing_multipliers"`
	EthicalBand               float64                         `yaml:"ethical_band"`
	Warnings                  WarningThresholds               `yaml:"warnings"`
}

// DefaultTables returns a fresh copy of the built-in coefficient set.
func DefaultTables() *Tables {
	return &Tables{
		RoomBasePrice: 800,
		BaseRates: map[models.PropertyType]float64{
			models.TypeApartment:       1.2,
			models.TypeHouse:           1.0,
			models.TypeStudio:          1.5,
			models.TypeRoom:            0,
			models.TypeDuplex:          1.1,
			models.TypePenthouse:       2.5,
			models.TypeLoft:            1.4,
			models.TypeTownhouse:       1.05,
			models.TypeCondo:           1.3,
			models.TypeVilla:           1.8,
			models.TypeCabin:           0.9,
			models.TypeCottage:         0.95,
			models.TypeTinyHouse:       1.6,
			models.TypeMobileHome:      0.7,
			models.TypeHouseboat:       1.2,
			models.TypeTreehouse:       1.0,
			models.TypeHostel:          0.6,
			models.TypeGuesthouse:      0.85,
			models.TypeBedAndBreakfast: 0.9,
			models.TypeDormitory:       0.5,
			models.TypeColiving:        1.1,
			models.TypeFarmstay:        0.8,
			models.TypeCampsite:        0.3,
			models.TypeRV:              0.5,
			models.TypeCouchsurfing:    0.0,
		},
		CityMultipliers: map[string]float64{
			"New York":      2.5,
			"San Francisco": 2.4,
			"Boston":        2.1,
			"Los Angeles":   2.0,
			"Washington":    2.0,
			"Seattle":       1.9,
			"San Diego":     1.8,
			"Miami":         1.7,
			"Chicago":       1.5,
			"Denver":        1.4,
			"Austin":        1.4,
			"Portland":      1.35,
			"Atlanta":       1.2,
			"Dallas":        1.1,
			"Phoenix":       1.05,
			"Houston":       1.0,
			"Detroit":       0.8,
		},
		StateMultipliers: map[string]float64{
			"Hawaii":        2.2,
			"New York":      2.0,
			"California":    1.8,
			"Massachusetts": 1.7,
			"Washington":    1.5,
			"Colorado":      1.3,
			"Florida":       1.3,
			"Illinois":      1.1,
			"Texas":         1.0,
			"Georgia":       1.0,
			"Arizona":       1.0,
			"Ohio":          0.85,
			"Michigan":      0.85,
			"Mississippi":   0.75,
		},
		DefaultLocationMultiplier: 1.0,
		Bedrooms: StepTable{
			{0, 0.8}, {1, 1.0}, {2, 1.3}, {3, 1.6}, {4, 1.9},
			{5, 2.2}, {6, 2.5}, {7, 2.8}, {8, 3.1},
		},
		Bathrooms: StepTable{
			{1, 1.0}, {1.5, 1.05}, {2, 1.1}, {2.5, 1.15}, {3, 1.2},
			{3.5, 1.25}, {4, 1.3}, {4.5, 1.375}, {5, 1.45},
		},
		SizeEfficiency: StepTable{
			{200, 1.2}, {400, 1.1}, {600, 1.05}, {800, 1.0}, {1200, 0.95}, {2000, 0.9},
		},
		BuildYear: StepTable{
			{1980, 0.75}, {1990, 0.9}, {2000, 1.0}, {2010, 1.1}, {2020, 1.15},
		},
		FloorLevel: StepTable{
			{1, 0.95}, {3, 1.0}, {5, 1.05}, {8, 1.1}, {10, 1.2},
		},
		Amenities: map[string]float64{
			"wifi":             25,
			"parking":          75,
			"gym":              50,
			"pool":             100,
			"laundry":          40,
			"dishwasher":       30,
			"air_conditioning": 60,
			"heating":          40,
			"balcony":          50,
			"garden":           75,
			"storage":          30,
			"security":         45,
			"doorman":          80,
			"fireplace":        35,
		},
		Features: FeatureValues{
			Elevator:          50,
			Furnished:         150,
			PetFriendly:       50,
			UtilitiesIncluded: 120,
			Transport:         75,
			Schools:           50,
			Shopping:          40,
		},
		ExtraParkingSpaces: []float64{75, 60, 50},
		HousingMultipliers: map[models.HousingType]float64{
			models.HousingPrivate: 1.0,
			models.HousingPublic:  0.8,
		},
		EthicalBand: 0.15,
		Warnings: WarningThresholds{
			SmallSquareFootage: 200,
			LargeBedrooms:      5,
			HighCostMultiplier: 2.0,
			OldBuildYear:       1980,
			HighFloor:          10,
			AmenityShare:       0.30,
		},
	}
}

// Clone returns a deep copy of t with every step table sorted ascending.
func (t *Tables) Clone() *Tables {
	c := *t
	c.BaseRates = make(map[models.PropertyType]float64, len(t.BaseRates))
	for k, v := range t.BaseRates {
		c.BaseRates[k] = v
	}
	c.CityMultipliers = cloneFloatMap(t.CityMultipliers)
	c.StateMultipliers = cloneFloatMap(t.StateMultipliers)
	c.Amenities = cloneFloatMap(t.Amenities)
	c.HousingMultipliers = make(map[models.HousingType]float64, len(t.HousingMultipliers))
	for k, v := range t.HousingMultipliers {
		c.HousingMultipliers[k] = v
	}
	c.Bedrooms = t.Bedrooms.sorted()
	c.Bathrooms = t.Bathrooms.sorted()
	c.SizeEfficiency = t.SizeEfficiency.sorted()
	c.BuildYear = t.BuildYear.sorted()
	c.FloorLevel = t.FloorLevel.sorted()
	c.ExtraParkingSpaces = append([]float64(nil), t.ExtraParkingSpaces...)
	return &c
}

// KnownType reports whether the base-rate table lists pt.
func (t *Tables) KnownType(pt models.PropertyType) bool {
	_, ok := t.BaseRates[pt]
	return ok
}

// Validate checks the tables for values the engine cannot price with and
// sorts every step table ascending.
func (t *Tables) Validate() error {
	var errs []error

	if t.RoomBasePrice < 0 {
		errs = append(errs, fmt.Errorf("room_base_price %v is negative", t.RoomBasePrice))
	}
	if t.DefaultLocationMultiplier < 0 {
		errs = append(errs, fmt.Errorf("default_location_multiplier %v is negative", t.DefaultLocationMultiplier))
	}
	if t.EthicalBand <= 0 || t.EthicalBand >= 1 {
		errs = append(errs, fmt.Errorf("ethical_band %v must be in (0, 1)", t.EthicalBand))
	}
	for k, v := range t.BaseRates {
		if v < 0 {
			errs = append(errs, fmt.Errorf("base rate for %q is negative", k))
		}
	}
	for k, v := range t.HousingMultipliers {
		if v < 0 {
			errs = append(errs, fmt.Errorf("housing multiplier for %q is negative", k))
		}
	}
	for name, steps := range map[string]StepTable{
		"bedrooms":        t.Bedrooms,
		"bathrooms":       t.Bathrooms,
		"size_efficiency": t.SizeEfficiency,
		"build_year":      t.BuildYear,
		"floor_level":     t.FloorLevel,
	} {
		for _, s := range steps {
			if s.Multiplier < 0 {
				errs = append(errs, fmt.Errorf("%s step %v has negative multiplier", name, s.Threshold))
			}
		}
	}

	t.Bedrooms = t.Bedrooms.sorted()
	t.Bathrooms = t.Bathrooms.sorted()
	t.SizeEfficiency = t.SizeEfficiency.sorted()
	t.BuildYear = t.BuildYear.sorted()
	t.FloorLevel = t.FloorLevel.sorted()

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTables, errors.Join(errs...))
	}
	return nil
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
