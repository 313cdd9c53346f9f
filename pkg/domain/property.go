package domain

// Property is a catalog listing. The catalog owns it; the core never mutates one.
type Property struct {
	ID             string   `json:"id"`
	Address        string   `json:"address"`
	Bedrooms       int      `json:"bedrooms"`
	Bathrooms      int      `json:"bathrooms,omitempty"`
	Rent           int      `json:"rent"`
	Pets           string   `json:"pets"`
	AvailableDates []string `json:"available_dates,omitempty"`
}

// NoMatch marks a search that had filters but found nothing.
type NoMatch struct {
	NoExactMatch bool   `json:"_no_exact_match"`
	Suggestion   string `json:"_suggestion_message"`
}

// Card is one element of the outbound property list: either a listing or a
// NoMatch marker. Nil embedded pointers are omitted when encoded.
type Card struct {
	*Property
	*NoMatch
	SearchMessage string `json:"_search_message,omitempty"`
}

// PropertyCard wraps a listing.
func PropertyCard(p Property) Card {
	return Card{Property: &p}
}

// NoMatchCard wraps a no-match marker.
func NoMatchCard(suggestion string) Card {
	return Card{NoMatch: &NoMatch{NoExactMatch: true, Suggestion: suggestion}}
}

// Slot is a bookable viewing time for one property.
type Slot struct {
	ID        string `json:"id"`
	Display   string `json:"display"`
	DateTime  string `json:"datetime"`
	Available bool   `json:"available"`
}

// Details is the expanded view of a listing shown on inquiry.
type Details struct {
	BasicInfo    BasicInfo    `json:"basic_info"`
	Description  string       `json:"description"`
	Amenities    []string     `json:"amenities"`
	LocationInfo LocationInfo `json:"location_info"`
	LeaseTerms   LeaseTerms   `json:"lease_terms"`
	ContactInfo  ContactInfo  `json:"contact_info"`
}

type BasicInfo struct {
	ID            string `json:"id"`
	Address       string `json:"address"`
	Bedrooms      int    `json:"bedrooms"`
	Bathrooms     int    `json:"bathrooms,omitempty"`
	Rent          int    `json:"rent"`
	AvailableDate string `json:"available_date,omitempty"`
	PetPolicy     string `json:"pet_policy"`
}

type LocationInfo struct {
	Neighborhood     string   `json:"neighborhood"`
	NearbyAmenities  []string `json:"nearby_amenities"`
	SchoolDistrict   string   `json:"school_district"`
	WalkabilityScore string   `json:"walkability_score"`
}

type LeaseTerms struct {
	LeaseLength         string   `json:"lease_length"`
	SecurityDeposit     string   `json:"security_deposit"`
	ApplicationFee      string   `json:"application_fee"`
	UtilitiesIncluded   string   `json:"utilities_included"`
	UtilitiesTenantPays string   `json:"utilities_tenant_pays"`
	MoveInRequirements  []string `json:"move_in_requirements"`
}

type ContactInfo struct {
	LeasingOffice string `json:"leasing_office"`
	Email         string `json:"email"`
	OfficeHours   string `json:"office_hours"`
}
