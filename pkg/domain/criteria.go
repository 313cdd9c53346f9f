package domain

// Criteria is the accumulated search preference of a session.
// Pointer fields distinguish "not supplied" from a zero value.
type Criteria struct {
	City          string `json:"city,omitempty" mapstructure:"city"`
	Area          string `json:"area,omitempty" mapstructure:"area"`
	Bedrooms      *int   `json:"bedrooms,omitempty" mapstructure:"bedrooms"`
	RentMin       *int   `json:"rent_min,omitempty" mapstructure:"rent_min"`
	RentMax       *int   `json:"rent_max,omitempty" mapstructure:"rent_max"`
	RentExact     *int   `json:"rent_exact,omitempty" mapstructure:"rent_exact"`
	Pets          string `json:"pets,omitempty" mapstructure:"pets"`
	AvailableDate string `json:"available_date,omitempty" mapstructure:"available_date"`
}

// IsEmpty reports whether no field is set.
func (c Criteria) IsEmpty() bool {
	return c.City == "" && c.Area == "" && c.Bedrooms == nil &&
		c.RentMin == nil && c.RentMax == nil && c.RentExact == nil &&
		c.Pets == "" && c.AvailableDate == ""
}

// Fields returns the names of the fields that are set, in declaration order.
func (c Criteria) Fields() []string {
	var out []string
	if c.City != "" {
		out = append(out, "city")
	}
	if c.Area != "" {
		out = append(out, "area")
	}
	if c.Bedrooms != nil {
		out = append(out, "bedrooms")
	}
	if c.RentMin != nil {
		out = append(out, "rent_min")
	}
	if c.RentMax != nil {
		out = append(out, "rent_max")
	}
	if c.RentExact != nil {
		out = append(out, "rent_exact")
	}
	if c.Pets != "" {
		out = append(out, "pets")
	}
	if c.AvailableDate != "" {
		out = append(out, "available_date")
	}
	return out
}

// Entities renders the criteria as the loose mapping sent to clients.
func (c Criteria) Entities() map[string]any {
	out := make(map[string]any)
	if c.City != "" {
		out["city"] = c.City
	}
	if c.Area != "" {
		out["area"] = c.Area
	}
	if c.Bedrooms != nil {
		out["bedrooms"] = *c.Bedrooms
	}
	if c.RentMin != nil {
		out["rent_min"] = *c.RentMin
	}
	if c.RentMax != nil {
		out["rent_max"] = *c.RentMax
	}
	if c.RentExact != nil {
		out["rent_exact"] = *c.RentExact
	}
	if c.Pets != "" {
		out["pets"] = c.Pets
	}
	if c.AvailableDate != "" {
		out["available_date"] = c.AvailableDate
	}
	return out
}

// Clone returns a deep copy.
func (c Criteria) Clone() Criteria {
	out := c
	out.Bedrooms = cloneInt(c.Bedrooms)
	out.RentMin = cloneInt(c.RentMin)
	out.RentMax = cloneInt(c.RentMax)
	out.RentExact = cloneInt(c.RentExact)
	return out
}

// IntPtr is a helper for building criteria literals.
func IntPtr(v int) *int {
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
