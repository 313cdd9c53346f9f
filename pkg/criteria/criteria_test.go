package criteria

import (
	"testing"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_OrderInsensitiveAcrossFields(t *testing.T) {
	city := domain.Criteria{City: "Austin"}
	beds := domain.Criteria{Bedrooms: domain.IntPtr(2)}

	a := Merge(Merge(domain.Criteria{}, city), beds)
	b := Merge(Merge(domain.Criteria{}, beds), city)

	assert.Equal(t, a, b)
	assert.Equal(t, "Austin", a.City)
	require.NotNil(t, a.Bedrooms)
	assert.Equal(t, 2, *a.Bedrooms)
}

func TestMerge_LastWriteWins(t *testing.T) {
	prev := domain.Criteria{City: "Austin", Pets: "cats", RentMax: domain.IntPtr(1500)}
	next := domain.Criteria{City: "Dallas"}

	got := Merge(prev, next)
	assert.Equal(t, "Dallas", got.City)
	assert.Equal(t, "cats", got.Pets)
	assert.Equal(t, 1500, *got.RentMax)
}

func TestMerge_RentIsOneCriterion(t *testing.T) {
	exact := Merge(domain.Criteria{}, domain.Criteria{RentExact: domain.IntPtr(1234)})

	ranged := Merge(exact, domain.Criteria{RentMax: domain.IntPtr(1999)})
	assert.Nil(t, ranged.RentExact)
	require.NotNil(t, ranged.RentMax)
	assert.Equal(t, 1999, *ranged.RentMax)

	back := Merge(ranged, domain.Criteria{RentExact: domain.IntPtr(1500)})
	assert.Nil(t, back.RentMin)
	assert.Nil(t, back.RentMax)
	assert.Equal(t, 1500, *back.RentExact)

	bounded := Merge(domain.Criteria{RentMin: domain.IntPtr(900)}, domain.Criteria{RentMax: domain.IntPtr(2000)})
	assert.Equal(t, 900, *bounded.RentMin)
	assert.Equal(t, 2000, *bounded.RentMax)
}

func TestMerge_DoesNotAlias(t *testing.T) {
	prev := domain.Criteria{Bedrooms: domain.IntPtr(1)}
	got := Merge(prev, domain.Criteria{})
	*got.Bedrooms = 9
	assert.Equal(t, 1, *prev.Bedrooms)
}

func TestDecode(t *testing.T) {
	t.Run("Weak Types", func(t *testing.T) {
		c, err := Decode(map[string]any{
			"bedrooms": "2",
			"rent_max": "$1,800",
			"rent_min": float64(900),
			"city":     "Austin",
			"address":  "Downtown",
			"pets":     nil,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, *c.Bedrooms)
		assert.Equal(t, 1800, *c.RentMax)
		assert.Equal(t, 900, *c.RentMin)
		assert.Equal(t, "Austin", c.City)
		assert.Equal(t, "Downtown", c.Area)
		assert.Empty(t, c.Pets)
	})

	t.Run("Skips Junk", func(t *testing.T) {
		c, err := Decode(map[string]any{"bedrooms": "a few", "city": "null", "unknown": "x"})
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
	})
}

func TestSanitize(t *testing.T) {
	in := domain.Criteria{Bedrooms: domain.IntPtr(2), AvailableDate: "now"}

	got := Sanitize("something cheap in Austin", in)
	assert.Nil(t, got.Bedrooms)
	assert.Empty(t, got.AvailableDate)

	got = Sanitize("2 bedroom", domain.Criteria{Bedrooms: domain.IntPtr(2), AvailableDate: "March"})
	assert.Equal(t, 2, *got.Bedrooms)
	assert.Equal(t, "March", got.AvailableDate)

	got = Sanitize("", domain.Criteria{AvailableDate: "2025-03-01"})
	assert.Equal(t, "2025-03-01", got.AvailableDate)
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.Criteria
	}{
		{"Bedrooms Only", "Show me 2 bedroom places", domain.Criteria{Bedrooms: domain.IntPtr(2)}},
		{"City Only", "in Austin", domain.Criteria{City: "Austin"}},
		{"Unsupported City", "apartments in Chicago", domain.Criteria{City: "Chicago"}},
		{"Studio", "any studio in san antonio?", domain.Criteria{City: "San Antonio", Bedrooms: domain.IntPtr(0)}},
		{"Under", "3 br under $2,000", domain.Criteria{Bedrooms: domain.IntPtr(3), RentMax: domain.IntPtr(1999)}},
		{"Over", "over 1500 in Dallas", domain.Criteria{City: "Dallas", RentMin: domain.IntPtr(1501)}},
		{"Between", "between 1200 and 1000", domain.Criteria{RentMin: domain.IntPtr(1000), RentMax: domain.IntPtr(1200)}},
		{"Around", "around 2000", domain.Criteria{RentMin: domain.IntPtr(1900), RentMax: domain.IntPtr(2100)}},
		{"Exact", "I want $1800", domain.Criteria{RentExact: domain.IntPtr(1800)}},
		{"Pets", "houston place that allows dogs and cats", domain.Criteria{City: "Houston", Pets: "cats and dogs"}},
		{"No Pets", "no pets please", domain.Criteria{Pets: "no pets"}},
		{"Month", "available in March", domain.Criteria{AvailableDate: "March"}},
		{"Area", "something downtown", domain.Criteria{Area: "downtown"}},
		{"Nothing", "hello there", domain.Criteria{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.query))
		})
	}
}
