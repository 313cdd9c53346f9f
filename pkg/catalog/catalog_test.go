package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceCatalog struct {
	props    []domain.Property
	searches int
	err      error
}

func (s *sliceCatalog) Search(_ context.Context, m ports.Matcher) ([]domain.Property, error) {
	s.searches++
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Property
	for _, p := range s.props {
		if m.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *sliceCatalog) Get(_ context.Context, id string) (*domain.Property, error) {
	for _, p := range s.props {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrPropertyNotFound
}

func (s *sliceCatalog) Details(ctx context.Context, id string) (*domain.Details, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildDetails(*p), nil
}

func (s *sliceCatalog) Slots(context.Context, string) ([]domain.Slot, error) {
	return SlotGenerator{}.Slots(), nil
}

func fixture() *sliceCatalog {
	return &sliceCatalog{props: []domain.Property{
		{ID: "1", Address: "12 Main St, Austin, TX", Bedrooms: 2, Rent: 1500, Pets: "cats and dogs allowed"},
		{ID: "2", Address: "40 Oak Ave, Dallas, TX", Bedrooms: 2, Rent: 1800, Pets: "no pets allowed"},
		{ID: "3", Address: "7 Quiet Ln, Austin, TX", Bedrooms: 1, Rent: 1100, Pets: "cats only"},
		{ID: "4", Address: "99 Elm St, Houston, TX", Bedrooms: 3, Rent: 2400, Pets: "dogs only"},
	}}
}

func TestFilter_Match(t *testing.T) {
	p := domain.Property{Address: "12 Main St, Austin, TX", Bedrooms: 2, Rent: 1500, Pets: "cats and dogs allowed"}

	tests := []struct {
		name string
		c    domain.Criteria
		want bool
	}{
		{"Empty", domain.Criteria{}, true},
		{"City Case Insensitive", domain.Criteria{City: "austin"}, true},
		{"Wrong City", domain.Criteria{City: "Dallas"}, false},
		{"Area", domain.Criteria{Area: "main st"}, true},
		{"Bedrooms", domain.Criteria{Bedrooms: domain.IntPtr(2)}, true},
		{"Studio", domain.Criteria{Bedrooms: domain.IntPtr(0)}, false},
		{"Range", domain.Criteria{RentMin: domain.IntPtr(1000), RentMax: domain.IntPtr(1500)}, true},
		{"Below Min", domain.Criteria{RentMin: domain.IntPtr(1501)}, false},
		{"Exact Overrides Range", domain.Criteria{RentExact: domain.IntPtr(1500), RentMax: domain.IntPtr(100)}, true},
		{"Exact Miss", domain.Criteria{RentExact: domain.IntPtr(1400)}, false},
		{"Pets", domain.Criteria{Pets: "Dogs"}, true},
		{"All Must Hold", domain.Criteria{City: "Austin", Bedrooms: domain.IntPtr(3)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFilter(tt.c).Match(p))
		})
	}
}

func TestAdapter_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("Bedrooms Only", func(t *testing.T) {
		res, err := NewAdapter(fixture()).Search(ctx, domain.Criteria{Bedrooms: domain.IntPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		assert.False(t, res.NoMatch)
		assert.False(t, res.Unfiltered)
		require.Len(t, res.Cards, 2)
		assert.Equal(t, "1", res.Cards[0].Property.ID)
	})

	t.Run("Merged Filters Narrow", func(t *testing.T) {
		res, err := NewAdapter(fixture()).Search(ctx, domain.Criteria{Bedrooms: domain.IntPtr(2), City: "Austin"})
		require.NoError(t, err)
		require.Len(t, res.Matches, 1)
		assert.Equal(t, "1", res.Matches[0].ID)
	})

	t.Run("No Filters Shows Everything", func(t *testing.T) {
		res, err := NewAdapter(fixture(), WithDisplayLimit(3)).Search(ctx, domain.Criteria{})
		require.NoError(t, err)
		assert.True(t, res.Unfiltered)
		assert.False(t, res.NoMatch)
		assert.Equal(t, 4, res.Total)
		require.Len(t, res.Cards, 3)
		assert.Equal(t, "Showing 3 of 4 results. Try adding bedrooms, pet policy, rent range or location to find exactly what you need.", res.Cards[0].SearchMessage)
	})

	t.Run("No Match", func(t *testing.T) {
		res, err := NewAdapter(fixture()).Search(ctx, domain.Criteria{City: "Austin", Bedrooms: domain.IntPtr(5)})
		require.NoError(t, err)
		assert.True(t, res.NoMatch)
		assert.Empty(t, res.Matches)
		require.Len(t, res.Cards, 1)
		require.NotNil(t, res.Cards[0].NoMatch)
		assert.True(t, res.Cards[0].NoExactMatch)
		assert.Nil(t, res.Cards[0].Property)
	})

	t.Run("Exact Price Suggestion", func(t *testing.T) {
		res, err := NewAdapter(fixture()).Search(ctx, domain.Criteria{RentExact: domain.IntPtr(1600)})
		require.NoError(t, err)
		require.True(t, res.NoMatch)
		assert.Equal(t, ExactPriceSuggestion(1600, 2, 2), res.Cards[0].Suggestion)
		assert.Contains(t, res.Cards[0].Suggestion, "under $1600 or above $1600")
	})

	t.Run("Catalog Error", func(t *testing.T) {
		cat := fixture()
		cat.err = errors.New("disk gone")
		_, err := NewAdapter(cat).Search(ctx, domain.Criteria{City: "Austin"})
		assert.ErrorContains(t, err, "disk gone")
	})
}

func TestExactPriceSuggestion(t *testing.T) {
	assert.Equal(t,
		"We couldn't find properties at exactly $900. Try searching for properties above $900, or specify other criteria like location, bedrooms, or pet policy to find more options.",
		ExactPriceSuggestion(900, 0, 3))
	assert.Equal(t,
		"We couldn't find properties at exactly $900. Try specifying other criteria like location, bedrooms, or pet policy to find available options.",
		ExactPriceSuggestion(900, 0, 0))
}

func TestBuildDetails(t *testing.T) {
	d := BuildDetails(domain.Property{ID: "7", Address: "1 Downtown Plaza", Bedrooms: 2, Rent: 2000, Pets: "no pets allowed"})

	assert.Equal(t, "7", d.BasicInfo.ID)
	assert.Equal(t, "Downtown/City Center", d.LocationInfo.Neighborhood)
	assert.Equal(t, "9/10", d.LocationInfo.WalkabilityScore)
	assert.Contains(t, d.Amenities, "Walk-in Closet")
	assert.NotContains(t, d.Amenities, "Pet-Friendly")
	assert.Contains(t, d.Description, "Monthly rent is $2000.")
	assert.Len(t, d.LeaseTerms.MoveInRequirements, 5)

	d = BuildDetails(domain.Property{Address: "5 Quiet Ct", Bedrooms: 1, Pets: "cats only"})
	assert.Equal(t, "Quiet Residential", d.LocationInfo.Neighborhood)
	assert.Contains(t, d.Amenities, "Pet-Friendly")
	assert.NotContains(t, d.Amenities, "Walk-in Closet")
}

func TestSlotGenerator(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, time.January, 1, 15, 30, 0, 0, loc)
	slots := SlotGenerator{Now: func() time.Time { return now }, Location: loc}.Slots()

	require.Len(t, slots, 10)
	assert.Equal(t, "2025-01-02_09:00", slots[0].ID)
	assert.Equal(t, "Thursday, January 02 at 9:00 AM", slots[0].Display)
	assert.Equal(t, "2025-01-02 09:00:00", slots[0].DateTime)
	assert.True(t, slots[0].Available)
	assert.Equal(t, "2025-01-03_14:00", slots[6].ID)
	for i, s := range slots {
		assert.NotEmpty(t, s.ID, fmt.Sprint(i))
	}
}
