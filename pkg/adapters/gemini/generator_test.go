package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}

func TestNew_Options(t *testing.T) {
	g, err := New(context.Background(), "test-key", WithModel("gemini-test"), WithTemperature(0.7))
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, "gemini-test", g.model)
	assert.InDelta(t, 0.7, float64(g.temperature), 0.001)

	g2, err := New(context.Background(), "test-key", WithModel(""))
	require.NoError(t, err)
	defer g2.Close()
	assert.Equal(t, DefaultModel, g2.model)
}
