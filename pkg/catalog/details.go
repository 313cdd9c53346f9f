package catalog

import (
	"fmt"
	"strings"

	"github.com/propertytek/rentbot/pkg/domain"
)

var baseAmenities = []string{
	"Air Conditioning",
	"Heating",
	"Kitchen Appliances",
	"Parking Space",
	"Laundry Facilities",
}

var nearbyAmenities = []string{
	"Grocery Store (0.5 miles)",
	"Public Transportation (0.3 miles)",
	"Park/Recreation (0.8 miles)",
	"Shopping Center (1.2 miles)",
}

var moveInRequirements = []string{
	"First month rent",
	"Security deposit",
	"Proof of income (3x rent)",
	"Background check",
	"References",
}

// BuildDetails expands a listing into the inquiry view.
func BuildDetails(p domain.Property) *domain.Details {
	available := ""
	if len(p.AvailableDates) > 0 {
		available = p.AvailableDates[0]
	}
	return &domain.Details{
		BasicInfo: domain.BasicInfo{
			ID:            p.ID,
			Address:       p.Address,
			Bedrooms:      p.Bedrooms,
			Bathrooms:     p.Bathrooms,
			Rent:          p.Rent,
			AvailableDate: available,
			PetPolicy:     p.Pets,
		},
		Description:  describe(p),
		Amenities:    amenities(p),
		LocationInfo: locationInfo(p.Address),
		LeaseTerms: domain.LeaseTerms{
			LeaseLength:         "12 months (flexible options available)",
			SecurityDeposit:     "One month rent",
			ApplicationFee:      "$50",
			UtilitiesIncluded:   "Water and Trash",
			UtilitiesTenantPays: "Electricity, Gas, Internet",
			MoveInRequirements:  append([]string(nil), moveInRequirements...),
		},
		ContactInfo: domain.ContactInfo{
			LeasingOffice: "(555) 123-4567",
			Email:         "leasing@propertytek.com",
			OfficeHours:   "Mon-Fri 9AM-6PM, Sat 10AM-4PM",
		},
	}
}

func describe(p domain.Property) string {
	return fmt.Sprintf("Beautiful %d bedroom property located at %s. Monthly rent is $%d. Pet policy: %s. "+
		"This property features modern amenities and is conveniently located with easy access to shopping, dining, and transportation.",
		p.Bedrooms, p.Address, p.Rent, p.Pets)
}

func amenities(p domain.Property) []string {
	out := append([]string(nil), baseAmenities...)
	if p.Bedrooms >= 2 {
		out = append(out, "Walk-in Closet", "Multiple Bathrooms")
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(p.Pets)), "no pet") {
		out = append(out, "Pet-Friendly")
	}
	return out
}

func locationInfo(address string) domain.LocationInfo {
	info := domain.LocationInfo{
		Neighborhood:     "Residential Area",
		NearbyAmenities:  append([]string(nil), nearbyAmenities...),
		SchoolDistrict:   "Local School District",
		WalkabilityScore: "7/10",
	}
	lower := strings.ToLower(address)
	switch {
	case containsAny(lower, "downtown", "center", "main"):
		info.Neighborhood = "Downtown/City Center"
		info.WalkabilityScore = "9/10"
	case containsAny(lower, "suburb", "residential", "quiet"):
		info.Neighborhood = "Quiet Residential"
		info.WalkabilityScore = "6/10"
	}
	return info
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
