// Package criteria accumulates search preferences across conversation turns.
//
// Merge is the only operation the router needs; Decode, Sanitize and Extract
// turn language-model output or raw text into a Criteria record first.
package criteria

import "github.com/propertytek/rentbot/pkg/domain"

// Merge returns prev with every field that is set in next overwritten.
// Fields absent from next keep their previous value. Rent is one criterion:
// an exact rent replaces the range and a range bound replaces the exact rent.
func Merge(prev, next domain.Criteria) domain.Criteria {
	out := prev.Clone()
	n := next.Clone()

	if n.City != "" {
		out.City = n.City
	}
	if n.Area != "" {
		out.Area = n.Area
	}
	if n.Bedrooms != nil {
		out.Bedrooms = n.Bedrooms
	}
	if n.RentMin != nil || n.RentMax != nil {
		out.RentExact = nil
	}
	if n.RentMin != nil {
		out.RentMin = n.RentMin
	}
	if n.RentMax != nil {
		out.RentMax = n.RentMax
	}
	if n.RentExact != nil {
		out.RentExact = n.RentExact
		out.RentMin, out.RentMax = n.RentMin, n.RentMax
	}
	if n.Pets != "" {
		out.Pets = n.Pets
	}
	if n.AvailableDate != "" {
		out.AvailableDate = n.AvailableDate
	}
	return out
}
