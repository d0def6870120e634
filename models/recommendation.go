package models

// PriceBreakdown records the dollar delta each pipeline stage introduced.
// The fields sum to the unrounded final price.
type PriceBreakdown struct {
	BasePrice          float64 `json:"basePrice"`
	LocationAdjustment float64 `json:"locationAdjustment"`
	RoomAdjustment     float64 `json:"roomAdjustment"`
	BathroomAdjustment float64 `json:"bathroomAdjustment"`
	SizeAdjustment     float64 `json:"sizeAdjustment"`
	QualityAdjustment  float64 `json:"qualityAdjustment"`
	UtilityAdjustment  float64 `json:"utilityAdjustment"` // floor level
	AmenityAdjustment  float64 `json:"amenityAdjustment"`
	HousingAdjustment  float64 `json:"housingAdjustment"`
}

// Total returns the sum of every stage delta.
func (b PriceBreakdown) Total() float64 {
	return b.BasePrice + b.LocationAdjustment + b.RoomAdjustment + b.BathroomAdjustment +
		b.SizeAdjustment + b.QualityAdjustment + b.UtilityAdjustment +
		b.AmenityAdjustment + b.HousingAdjustment
}

// PricingRecommendation is the engine's output for a single property.
type PricingRecommendation struct {
	SuggestedRent        int            `json:"suggestedRent"`
	MinRent              int            `json:"minRent"`
	MaxRent              int            `json:"maxRent"`
	IsWithinEthicalRange bool           `json:"isWithinEthicalRange"`
	Reasoning            []string       `json:"reasoning"`
	Warnings             []string       `json:"warnings"`
	Breakdown            PriceBreakdown `json:"breakdown"`
}

// PricedProperty pairs a record with the recommendation computed for it.
type PricedProperty struct {
	Record         *PropertyRecord
	Recommendation *PricingRecommendation
	Speculative    bool
	Excess         float64
}

// PricingReport holds the aggregated results of a batch pricing run.
type PricingReport struct {
	RunID             string
	TotalProperties   int
	PricedProperties  int
	SkippedProperties int
	WithAskingRent    int
	AverageSuggested  float64
	MinSuggested      int
	MaxSuggested      int
	MostExpensive     *PricedProperty
	Speculative       []*PricedProperty
	PropertiesByCity  map[string]int
	WarningCounts     map[string]int
}
