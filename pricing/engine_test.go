package pricing

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"ethical-rent/models"
)

func houstonApartment() models.PropertyCharacteristics {
	return models.PropertyCharacteristics{
		Type:          models.TypeApartment,
		Bedrooms:      1,
		Bathrooms:     1,
		SquareFootage: 500,
		Amenities:     []string{},
		Location:      models.Location{City: "Houston", State: "Texas"},
	}
}

func mustCalculate(t *testing.T, e *Engine, p models.PropertyCharacteristics) *models.PricingRecommendation {
	t.Helper()
	rec, err := e.CalculateEthicalRent(p)
	if err != nil {
		t.Fatalf("CalculateEthicalRent: unexpected error: %v", err)
	}
	return rec
}

func hasWarning(rec *models.PricingRecommendation, fragment string) bool {
	for _, w := range rec.Warnings {
		if strings.Contains(w, fragment) {
			return true
		}
	}
	return false
}

func TestCalculateHoustonApartment(t *testing.T) {
	rec := mustCalculate(t, NewEngine(nil), houstonApartment())

	if rec.SuggestedRent != 630 {
		t.Errorf("SuggestedRent: got %d, want 630", rec.SuggestedRent)
	}
	if rec.MinRent != 536 {
		t.Errorf("MinRent: got %d, want 536", rec.MinRent)
	}
	if rec.MaxRent != 725 {
		t.Errorf("MaxRent: got %d, want 725", rec.MaxRent)
	}
	if !rec.IsWithinEthicalRange {
		t.Error("fresh recommendation should be within the ethical range")
	}
	if len(rec.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", rec.Warnings)
	}
	if len(rec.Reasoning) != 2 {
		t.Fatalf("expected base and size reasoning only, got %v", rec.Reasoning)
	}
	if !strings.HasPrefix(rec.Reasoning[0], "Base price") {
		t.Errorf("Reasoning[0] = %q, want base price first", rec.Reasoning[0])
	}
	if !strings.HasPrefix(rec.Reasoning[1], "Size efficiency") {
		t.Errorf("Reasoning[1] = %q, want size efficiency second", rec.Reasoning[1])
	}
	if rec.Breakdown.BasePrice != 600 {
		t.Errorf("Breakdown.BasePrice: got %.2f, want 600", rec.Breakdown.BasePrice)
	}
	if math.Abs(rec.Breakdown.SizeAdjustment-30) > 1e-9 {
		t.Errorf("Breakdown.SizeAdjustment: got %.2f, want 30", rec.Breakdown.SizeAdjustment)
	}
	if rec.Breakdown.LocationAdjustment != 0 || rec.Breakdown.RoomAdjustment != 0 {
		t.Errorf("neutral stages should record zero deltas, got %+v", rec.Breakdown)
	}
}

func TestCalculateFullyFeaturedApartment(t *testing.T) {
	p := models.PropertyCharacteristics{
		Type:          models.TypeApartment,
		Bedrooms:      2,
		Bathrooms:     2,
		SquareFootage: 1000,
		Amenities:     []string{"wifi", "gym", "wifi", "unknown_amenity"},
		Location:      models.Location{City: "New York", State: "New York"},
		Floor:         models.IntPtr(12),
		ParkingSpaces: models.IntPtr(3),
		YearBuilt:     models.IntPtr(2021),
		HasElevator:   true,
	}
	rec := mustCalculate(t, NewEngine(nil), p)

	if rec.SuggestedRent != 5884 {
		t.Errorf("SuggestedRent: got %d, want 5884", rec.SuggestedRent)
	}
	if rec.MinRent != 5001 || rec.MaxRent != 6767 {
		t.Errorf("range: got [%d, %d], want [5001, 6767]", rec.MinRent, rec.MaxRent)
	}
	if rec.Breakdown.AmenityAdjustment != 260 {
		t.Errorf("AmenityAdjustment: got %.2f, want 260", rec.Breakdown.AmenityAdjustment)
	}
	// base, location, bedrooms, bathrooms, size, quality, floor, amenities
	if len(rec.Reasoning) != 8 {
		t.Errorf("expected 8 reasoning lines, got %d: %v", len(rec.Reasoning), rec.Reasoning)
	}
	if !hasWarning(rec, "High-cost area") {
		t.Error("expected high-cost area warning")
	}
	if !hasWarning(rec, "Very high floor") {
		t.Error("expected very high floor warning")
	}
	if len(rec.Warnings) != 2 {
		t.Errorf("expected exactly 2 warnings, got %v", rec.Warnings)
	}
}

func TestRangeInvariant(t *testing.T) {
	e := NewEngine(nil)
	cases := []models.PropertyCharacteristics{
		houstonApartment(),
		{Type: models.TypeRoom, Bedrooms: 1, Bathrooms: 1, Location: models.Location{City: "Boston"}},
		{Type: models.TypePenthouse, Bedrooms: 4, Bathrooms: 3.5, SquareFootage: 2400,
			Location: models.Location{City: "San Francisco", State: "California"}, Floor: models.IntPtr(30)},
		{Type: models.TypeCabin, Bedrooms: 0, Bathrooms: 1, SquareFootage: 180,
			Location: models.Location{State: "Ohio"}, YearBuilt: models.IntPtr(1950)},
		{Type: models.TypeCouchsurfing, Bedrooms: 0, Bathrooms: 1, SquareFootage: 300},
	}

	for _, p := range cases {
		rec := mustCalculate(t, e, p)
		if rec.MinRent > rec.SuggestedRent || rec.SuggestedRent > rec.MaxRent {
			t.Errorf("%s: range [%d, %d] does not contain %d", p.Type, rec.MinRent, rec.MaxRent, rec.SuggestedRent)
		}
		if want := int(math.Round(float64(rec.SuggestedRent) * 1.15)); rec.MaxRent != want {
			t.Errorf("%s: MaxRent %d, want %d", p.Type, rec.MaxRent, want)
		}
		if want := int(math.Round(float64(rec.SuggestedRent) * 0.85)); rec.MinRent != want {
			t.Errorf("%s: MinRent %d, want %d", p.Type, rec.MinRent, want)
		}
		if got := int(math.Round(rec.Breakdown.Total())); got != rec.SuggestedRent {
			t.Errorf("%s: breakdown total %d, want %d", p.Type, got, rec.SuggestedRent)
		}
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	e := NewEngine(nil)
	p := houstonApartment()
	p.Amenities = []string{"pool", "wifi", "parking"}
	p.YearBuilt = models.IntPtr(1995)

	first := mustCalculate(t, e, p)
	for i := 0; i < 10; i++ {
		again := mustCalculate(t, e, p)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("call %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestRoomIgnoresSquareFootage(t *testing.T) {
	e := NewEngine(nil)
	for _, area := range []float64{0, 90, 150, 600, 5000} {
		p := models.PropertyCharacteristics{
			Type: models.TypeRoom, Bedrooms: 1, Bathrooms: 1, SquareFootage: area,
			Location: models.Location{City: "Houston", State: "Texas"},
		}
		rec := mustCalculate(t, e, p)
		if rec.Breakdown.BasePrice != 800 {
			t.Errorf("area %.0f: BasePrice %.2f, want 800", area, rec.Breakdown.BasePrice)
		}
		if rec.SuggestedRent != 800 {
			t.Errorf("area %.0f: SuggestedRent %d, want 800", area, rec.SuggestedRent)
		}
		if rec.MaxRent != 920 || rec.MinRent != 680 {
			t.Errorf("area %.0f: range [%d, %d], want [680, 920]", area, rec.MinRent, rec.MaxRent)
		}
	}
}

func TestSquareFootageMonotonicWithinBands(t *testing.T) {
	e := NewEngine(nil)
	bands := [][2]float64{{1, 200}, {201, 400}, {401, 600}, {601, 800}, {801, 1200}, {1201, 2000}, {2001, 4000}}

	for _, band := range bands {
		prev := -1
		for area := band[0]; area <= band[1]; area += 25 {
			p := houstonApartment()
			p.SquareFootage = area
			rec := mustCalculate(t, e, p)
			if rec.SuggestedRent < prev {
				t.Errorf("band %v: rent fell to %d at %.0f sq ft (previous %d)", band, rec.SuggestedRent, area, prev)
			}
			prev = rec.SuggestedRent
		}
	}
}

func TestSizeEfficiencyBandEdges(t *testing.T) {
	e := NewEngine(nil)
	tests := []struct {
		area float64
		want int
	}{
		{200, 288},   // 240 × 1.2
		{201, 265},   // 241.2 × 1.1
		{400, 528},   // 480 × 1.1
		{401, 505},   // 481.2 × 1.05
		{600, 756},   // 720 × 1.05
		{601, 721},   // 721.2 × 1.0
		{2000, 2160}, // 2400 × 0.9
		{3000, 3240}, // clamps to the last band
	}

	for _, tt := range tests {
		p := houstonApartment()
		p.SquareFootage = tt.area
		rec := mustCalculate(t, e, p)
		if rec.SuggestedRent != tt.want {
			t.Errorf("area %.0f: SuggestedRent %d, want %d", tt.area, rec.SuggestedRent, tt.want)
		}
	}
}

func TestPublicHousingDiscount(t *testing.T) {
	e := NewEngine(nil)
	cases := []models.PropertyCharacteristics{
		houstonApartment(),
		{Type: models.TypeHouse, Bedrooms: 3, Bathrooms: 2, SquareFootage: 1500,
			Location: models.Location{City: "Chicago"}, Amenities: []string{"garden", "parking"}},
		{Type: models.TypeRoom, Bedrooms: 1, Bathrooms: 1, IsFurnished: true},
	}

	for _, p := range cases {
		p.HousingType = models.HousingPrivate
		private := mustCalculate(t, e, p)
		p.HousingType = models.HousingPublic
		public := mustCalculate(t, e, p)

		want := float64(private.SuggestedRent) * 0.8
		if math.Abs(float64(public.SuggestedRent)-want) > 1 {
			t.Errorf("%s: public rent %d, want ≈ %.1f", p.Type, public.SuggestedRent, want)
		}
	}

	p := houstonApartment()
	p.HousingType = models.HousingPublic
	if rec := mustCalculate(t, e, p); rec.SuggestedRent != 504 {
		t.Errorf("public Houston apartment: got %d, want 504", rec.SuggestedRent)
	}
}

func TestEmptyHousingTypeIsPrivate(t *testing.T) {
	e := NewEngine(nil)
	p := houstonApartment()
	unset := mustCalculate(t, e, p)
	p.HousingType = models.HousingPrivate
	private := mustCalculate(t, e, p)
	if !reflect.DeepEqual(unset, private) {
		t.Errorf("empty housing type should price as private:\n%+v\n%+v", unset, private)
	}
}

func TestUnknownEnumsAreRejected(t *testing.T) {
	e := NewEngine(nil)

	p := houstonApartment()
	p.Type = "castle"
	if _, err := e.CalculateEthicalRent(p); !errors.Is(err, ErrUnknownPropertyType) {
		t.Errorf("unknown type: got %v, want ErrUnknownPropertyType", err)
	}

	p = houstonApartment()
	p.HousingType = "military"
	if _, err := e.CalculateEthicalRent(p); !errors.Is(err, ErrUnknownHousingType) {
		t.Errorf("unknown housing type: got %v, want ErrUnknownHousingType", err)
	}
	if _, err := e.IsSpeculativePricing(1000, p); !errors.Is(err, ErrUnknownHousingType) {
		t.Errorf("IsSpeculativePricing: got %v, want ErrUnknownHousingType", err)
	}
	if _, err := e.ValidateEthicalPricing(1000, p); !errors.Is(err, ErrUnknownHousingType) {
		t.Errorf("ValidateEthicalPricing: got %v, want ErrUnknownHousingType", err)
	}
}

func TestLocationFallback(t *testing.T) {
	e := NewEngine(nil)
	tests := []struct {
		loc  models.Location
		want float64
	}{
		{models.Location{City: "Boston", State: "Massachusetts"}, 2.1},
		{models.Location{City: "Cambridge", State: "Massachusetts"}, 1.7},
		{models.Location{City: "Springfield", State: "Nowhere"}, 1.0},
		{models.Location{City: "boston", State: "massachusetts"}, 1.0},
		{models.Location{}, 1.0},
	}

	for _, tt := range tests {
		got, _ := e.locationMultiplier(tt.loc)
		if got != tt.want {
			t.Errorf("locationMultiplier(%+v) = %.2f; want %.2f", tt.loc, got, tt.want)
		}
	}
}

func TestBedroomAndBathroomClamp(t *testing.T) {
	e := NewEngine(nil)

	eight := houstonApartment()
	eight.Bedrooms = 8
	twelve := houstonApartment()
	twelve.Bedrooms = 12
	if a, b := mustCalculate(t, e, eight), mustCalculate(t, e, twelve); a.SuggestedRent != b.SuggestedRent {
		t.Errorf("12 bedrooms should clamp to the 8-bedroom multiplier: %d vs %d", b.SuggestedRent, a.SuggestedRent)
	}

	five := houstonApartment()
	five.Bathrooms = 5
	seven := houstonApartment()
	seven.Bathrooms = 7
	if a, b := mustCalculate(t, e, five), mustCalculate(t, e, seven); a.SuggestedRent != b.SuggestedRent {
		t.Errorf("7 bathrooms should clamp to the 5-bathroom multiplier: %d vs %d", b.SuggestedRent, a.SuggestedRent)
	}

	studio := houstonApartment()
	studio.Bedrooms = 0
	if rec := mustCalculate(t, e, studio); rec.SuggestedRent != 504 {
		t.Errorf("0 bedrooms: got %d, want 504", rec.SuggestedRent)
	}
}

func TestWarnings(t *testing.T) {
	e := NewEngine(nil)

	small := houstonApartment()
	small.SquareFootage = 150
	if !hasWarning(mustCalculate(t, e, small), "Very small property") {
		t.Error("150 sq ft apartment should warn about size")
	}

	smallRoom := houstonApartment()
	smallRoom.Type = models.TypeRoom
	smallRoom.SquareFootage = 150
	if hasWarning(mustCalculate(t, e, smallRoom), "Very small property") {
		t.Error("150 sq ft room should not warn about size")
	}

	large := houstonApartment()
	large.Bedrooms = 6
	if !hasWarning(mustCalculate(t, e, large), "Large property") {
		t.Error("6 bedrooms should warn about size")
	}

	old := houstonApartment()
	old.YearBuilt = models.IntPtr(1975)
	rec := mustCalculate(t, e, old)
	if !hasWarning(rec, "Very old property") {
		t.Error("1975 build should warn about age")
	}
	if rec.SuggestedRent != 473 { // 630 × 0.75
		t.Errorf("1975 build: got %d, want 473", rec.SuggestedRent)
	}

	edge := houstonApartment()
	edge.YearBuilt = models.IntPtr(1980)
	edge.Floor = models.IntPtr(10)
	rec = mustCalculate(t, e, edge)
	if hasWarning(rec, "Very old property") || hasWarning(rec, "Very high floor") {
		t.Errorf("threshold values should not warn, got %v", rec.Warnings)
	}

	amenityHeavy := models.PropertyCharacteristics{
		Type: models.TypeRoom, Bedrooms: 1, Bathrooms: 1,
		Amenities:   []string{"pool"},
		IsFurnished: true, UtilitiesIncluded: true,
	}
	rec = mustCalculate(t, e, amenityHeavy)
	if rec.SuggestedRent != 1170 {
		t.Errorf("amenity-heavy room: got %d, want 1170", rec.SuggestedRent)
	}
	if !hasWarning(rec, "High amenity value") {
		t.Error("370 of 1170 in amenities should warn")
	}
}

func TestOptionalStagesSkippedWhenAbsent(t *testing.T) {
	e := NewEngine(nil)

	p := houstonApartment()
	p.Floor = models.IntPtr(0)
	rec := mustCalculate(t, e, p)
	if rec.Breakdown.UtilityAdjustment != 0 || rec.Breakdown.QualityAdjustment != 0 {
		t.Errorf("floor 0 and no build year should leave both deltas at zero: %+v", rec.Breakdown)
	}
	if len(rec.Reasoning) != 2 {
		t.Errorf("expected 2 reasoning lines, got %v", rec.Reasoning)
	}

	p.Floor = models.IntPtr(1)
	if rec := mustCalculate(t, e, p); rec.SuggestedRent != 599 { // 630 × 0.95 = 598.5
		t.Errorf("ground floor: got %d, want 599", rec.SuggestedRent)
	}
}

func TestAmenityDeduplication(t *testing.T) {
	e := NewEngine(nil)

	p := houstonApartment()
	p.Amenities = []string{"balcony", "garden"}
	listed := mustCalculate(t, e, p)

	p.HasBalcony = true
	p.HasGarden = true
	both := mustCalculate(t, e, p)
	if listed.Breakdown.AmenityAdjustment != both.Breakdown.AmenityAdjustment {
		t.Errorf("balcony/garden counted twice: %.2f vs %.2f",
			both.Breakdown.AmenityAdjustment, listed.Breakdown.AmenityAdjustment)
	}

	p.Amenities = nil
	flagsOnly := mustCalculate(t, e, p)
	if flagsOnly.Breakdown.AmenityAdjustment != 125 {
		t.Errorf("flags only: got %.2f, want 125", flagsOnly.Breakdown.AmenityAdjustment)
	}
}

func TestExtraParkingValue(t *testing.T) {
	e := NewEngine(nil)
	tests := []struct {
		spaces int
		want   float64
	}{
		{0, 0},
		{1, 0},
		{2, 75},
		{3, 135},
		{4, 185},
		{6, 285},
	}

	for _, tt := range tests {
		p := houstonApartment()
		p.ParkingSpaces = models.IntPtr(tt.spaces)
		rec := mustCalculate(t, e, p)
		if rec.Breakdown.AmenityAdjustment != tt.want {
			t.Errorf("%d spaces: amenity value %.2f, want %.2f", tt.spaces, rec.Breakdown.AmenityAdjustment, tt.want)
		}
	}
}

func TestValidateEthicalPricing(t *testing.T) {
	e := NewEngine(nil)
	p := houstonApartment()
	base := mustCalculate(t, e, p)

	tests := []struct {
		proposed float64
		within   bool
	}{
		{100, true},
		{630, true},
		{725, true},
		{725.5, false},
		{900, false},
	}

	for _, tt := range tests {
		rec, err := e.ValidateEthicalPricing(tt.proposed, p)
		if err != nil {
			t.Fatalf("ValidateEthicalPricing(%.2f): %v", tt.proposed, err)
		}
		if rec.IsWithinEthicalRange != tt.within {
			t.Errorf("ValidateEthicalPricing(%.2f).IsWithinEthicalRange = %v; want %v", tt.proposed, rec.IsWithinEthicalRange, tt.within)
		}
		if rec.IsWithinEthicalRange != (tt.proposed <= float64(base.MaxRent)) {
			t.Errorf("ValidateEthicalPricing(%.2f) disagrees with MaxRent %d", tt.proposed, base.MaxRent)
		}
		if got := hasWarning(rec, "exceeds the ethical maximum"); got == tt.within {
			t.Errorf("ValidateEthicalPricing(%.2f): excess warning present = %v", tt.proposed, got)
		}
		if !reflect.DeepEqual(rec.Reasoning, base.Reasoning) || rec.Breakdown != base.Breakdown {
			t.Errorf("ValidateEthicalPricing(%.2f) changed reasoning or breakdown", tt.proposed)
		}
	}
}

func TestIsSpeculativePricing(t *testing.T) {
	e := NewEngine(nil)
	p := houstonApartment()
	max := mustCalculate(t, e, p).MaxRent

	for _, proposed := range []float64{0, 630, float64(max), float64(max) + 0.01, 2000} {
		got, err := e.IsSpeculativePricing(proposed, p)
		if err != nil {
			t.Fatalf("IsSpeculativePricing(%.2f): %v", proposed, err)
		}
		if want := proposed > float64(max); got != want {
			t.Errorf("IsSpeculativePricing(%.2f) = %v; want %v", proposed, got, want)
		}
	}
}

func TestInjectedTables(t *testing.T) {
	tables := DefaultTables()
	tables.RoomBasePrice = 1000
	e := NewEngine(tables)

	// the engine keeps its own copy
	tables.RoomBasePrice = 1
	tables.BaseRates[models.TypeApartment] = 100

	room := models.PropertyCharacteristics{Type: models.TypeRoom, Bedrooms: 1, Bathrooms: 1}
	if rec := mustCalculate(t, e, room); rec.SuggestedRent != 1000 {
		t.Errorf("room with injected base: got %d, want 1000", rec.SuggestedRent)
	}
	if rec := mustCalculate(t, e, houstonApartment()); rec.SuggestedRent != 630 {
		t.Errorf("apartment after caller mutation: got %d, want 630", rec.SuggestedRent)
	}
	if e.Tables().RoomBasePrice != 1000 {
		t.Errorf("Tables() should report the engine's copy")
	}
}

func TestInjectedUnsortedStepTables(t *testing.T) {
	tables := DefaultTables()
	tables.SizeEfficiency = StepTable{{2000, 0.9}, {600, 1.05}, {200, 1.2}, {1200, 0.95}, {400, 1.1}, {800, 1.0}}
	tables.Bedrooms = StepTable{{8, 3.1}, {1, 1.0}, {0, 0.8}, {2, 1.3}}

	e := NewEngine(tables)
	if rec := mustCalculate(t, e, houstonApartment()); rec.SuggestedRent != 630 {
		t.Errorf("Houston apartment with unsorted tables: got %d, want 630", rec.SuggestedRent)
	}
	if got := e.Tables().SizeEfficiency[0].Threshold; got != 200 {
		t.Errorf("engine tables not sorted: first threshold %v", got)
	}
}

func TestEngineConcurrentUse(t *testing.T) {
	e := NewEngine(nil)
	p := houstonApartment()
	want := mustCalculate(t, e, p).SuggestedRent

	done := make(chan int, 50)
	for i := 0; i < 50; i++ {
		go func() {
			rec, err := e.CalculateEthicalRent(p)
			if err != nil {
				done <- -1
				return
			}
			done <- rec.SuggestedRent
		}()
	}
	for i := 0; i < 50; i++ {
		if got := <-done; got != want {
			t.Errorf("concurrent call returned %d, want %d", got, want)
		}
	}
}
