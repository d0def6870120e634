package models

import "time"

// PropertyType identifies the accommodation category of a property.
type PropertyType string

const (
	TypeApartment       PropertyType = "apartment"
	TypeHouse           PropertyType = "house"
	TypeStudio          PropertyType = "studio"
	TypeRoom            PropertyType = "room"
	TypeDuplex          PropertyType = "duplex"
	TypePenthouse       PropertyType = "penthouse"
	TypeLoft            PropertyType = "loft"
	TypeTownhouse       PropertyType = "townhouse"
	TypeCondo           PropertyType = "condo"
	TypeVilla           PropertyType = "villa"
	TypeCabin           PropertyType = "cabin"
	TypeCottage         PropertyType = "cottage"
	TypeTinyHouse       PropertyType = "tiny_house"
	TypeMobileHome      PropertyType = "mobile_home"
	TypeHouseboat       PropertyType = "houseboat"
	TypeTreehouse       PropertyType = "treehouse"
	TypeHostel          PropertyType = "hostel"
	TypeGuesthouse      PropertyType = "guesthouse"
	TypeBedAndBreakfast PropertyType = "bed_and_breakfast"
	TypeDormitory       PropertyType = "dormitory"
	TypeColiving        PropertyType = "coliving"
	TypeFarmstay        PropertyType = "farmstay"
	TypeCampsite        PropertyType = "campsite"
	TypeRV              PropertyType = "rv"
	TypeCouchsurfing    PropertyType = "couchsurfing"
)

// HousingType separates market-rate from subsidised housing.
type HousingType string

const (
	HousingPrivate HousingType = "private"
	HousingPublic  HousingType = "public"
)

// Location is matched against the cost-of-living tables by exact city, then state.
type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// PropertyCharacteristics is the structured input of the pricing engine.
// Pointer fields are optional; nil means the attribute is absent.
type PropertyCharacteristics struct {
	Type          PropertyType `json:"type"`
	HousingType   HousingType  `json:"housingType,omitempty"`
	Bedrooms      int          `json:"bedrooms"`
	Bathrooms     float64      `json:"bathrooms"`
	SquareFootage float64      `json:"squareFootage"`
	Amenities     []string     `json:"amenities"`
	Location      Location     `json:"location"`

	Floor         *int `json:"floor,omitempty"`
	ParkingSpaces *int `json:"parkingSpaces,omitempty"`
	YearBuilt     *int `json:"yearBuilt,omitempty"`

	HasElevator          bool `json:"hasElevator,omitempty"`
	IsFurnished          bool `json:"isFurnished,omitempty"`
	UtilitiesIncluded    bool `json:"utilitiesIncluded,omitempty"`
	PetFriendly          bool `json:"petFriendly,omitempty"`
	HasBalcony           bool `json:"hasBalcony,omitempty"`
	HasGarden            bool `json:"hasGarden,omitempty"`
	ProximityToTransport bool `json:"proximityToTransport,omitempty"`
	ProximityToSchools   bool `json:"proximityToSchools,omitempty"`
	ProximityToShopping  bool `json:"proximityToShopping,omitempty"`
}

// RawProperty holds unparsed property fields as they arrive from a CSV export
// or a rendered listing page. The cleaner turns it into a PropertyRecord.
type RawProperty struct {
	ID            string
	Source        string
	Title         string
	URL           string
	Type          string
	HousingType   string
	Bedrooms      string
	Bathrooms     string
	SquareFootage string
	Amenities     string
	City          string
	State         string
	Location      string
	Floor         string
	ParkingSpaces string
	YearBuilt     string
	AskingRent    string

	HasElevator          string
	IsFurnished          string
	UtilitiesIncluded    string
	PetFriendly          string
	HasBalcony           string
	HasGarden            string
	ProximityToTransport string
	ProximityToSchools   string
	ProximityToShopping  string

	FetchedAt time.Time
}

// PropertyRecord is a validated property from the read model, ready for pricing.
type PropertyRecord struct {
	ID              string
	Source          string
	Title           string
	URL             string
	AskingRent      *float64
	Characteristics PropertyCharacteristics
	UpdatedAt       time.Time
}

// IntPtr is a convenience for filling optional integer attributes.
func IntPtr(v int) *int { return &v }
