package flatfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/propertytek/rentbot/pkg/catalog"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC) }

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "props.json", `[
		{"id": 3, "address": "1 Main St, Austin, TX", "bedrooms": 2, "rent": 1500, "pets": "Dogs"},
		{"id": "b-7", "address": "2 Oak St, Dallas, TX", "bedrooms": 1, "rent": 900, "pets": "", "available_dates": ["March 2025"]},
		{"address": "no id"}
	]`)

	c, err := Load(path, WithClock(fixedNow))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	p, err := c.Get(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "dogs only", p.Pets)
	// id 3 has no stagger, so availability starts next month.
	assert.Equal(t, []string{"February 2025", "March 2025", "April 2025", "May 2025"}, p.AvailableDates)

	p, err = c.Get(context.Background(), "b-7")
	require.NoError(t, err)
	assert.Equal(t, "no pets allowed", p.Pets)
	assert.Equal(t, []string{"March 2025"}, p.AvailableDates)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "props.yaml", "- id: 1\n  address: 9 Elm, Houston, TX\n  bedrooms: 3\n  rent: 2000\n  pets: cats and dogs\n")
	c, err := Load(path)
	require.NoError(t, err)
	p, err := c.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Bedrooms)
	assert.Equal(t, "cats and dogs allowed", p.Pets)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.json", "{not json"))
	assert.Error(t, err)
}

func TestCatalog_Search(t *testing.T) {
	c, err := Sample(WithClock(fixedNow))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := c.Search(ctx, catalog.NewFilter(domain.Criteria{City: "Austin"}))
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, p := range got {
		assert.Contains(t, p.Address, "Austin")
	}

	got[0].AvailableDates[0] = "mutated"
	again, err := c.Search(ctx, catalog.NewFilter(domain.Criteria{City: "Austin"}))
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0].AvailableDates[0])
}

func TestCatalog_DetailsAndSlots(t *testing.T) {
	c, err := Sample(WithClock(fixedNow), WithLocation(time.UTC))
	require.NoError(t, err)
	ctx := context.Background()

	d, err := c.Details(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1200 Main St, Houston, TX", d.BasicInfo.Address)

	slots, err := c.Slots(ctx, "1")
	require.NoError(t, err)
	require.Len(t, slots, 10)
	assert.Equal(t, "2025-01-16_09:00", slots[0].ID)

	_, err = c.Details(ctx, "404")
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
	_, err = c.Slots(ctx, "404")
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestNormalizePets(t *testing.T) {
	cases := map[string]string{
		"":              "no pets allowed",
		"No Pets":       "no pets allowed",
		"Cats and Dogs": "cats and dogs allowed",
		"Dogs":          "dogs only",
		"dogs allowed":  "dogs only",
		"Cats":          "cats only",
		"Birds":         "Birds",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePets(in), in)
	}
}
