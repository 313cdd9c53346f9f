// Package gemini implements ports.Generator with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/propertytek/rentbot/pkg/ports"
	"google.golang.org/api/option"
)

// DefaultModel is a low-latency model suited to classification.
const DefaultModel = "gemini-2.0-flash"

// Generator produces JSON text with a Gemini model.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
}

var _ ports.Generator = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator)

// WithModel selects the model name.
func WithModel(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.model = name
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// New creates a Gemini client. apiKey comes from configuration.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g := &Generator{client: client, model: DefaultModel, temperature: 0.2}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Close releases the client.
func (g *Generator) Close() error {
	return g.client.Close()
}

// Generate runs one completion in JSON mode.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(g.temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response candidates from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return text.String(), nil
}
