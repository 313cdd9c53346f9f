package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/market"
	"github.com/propertytek/rentbot/pkg/ports"
)

const analyzePrompt = `Analyze the user's message for a Texas rental-property assistant.

Intent categories:
- property_search: the user wants to find properties. Bedroom counts ("2 beds", "1br", "studio"), rent or budget numbers, pet mentions, housing words (apartment, house, condo, rental) and any city mention mean property_search.
- schedule_tour: the user wants to book a viewing.
- ask_question: general questions about the listings or the service.
- greeting: greetings and small talk.
- self_introduction: the user introduces themselves without asking anything.
- non_property: products, shopping or anything clearly unrelated to real estate.
When ambiguous prefer property_search.

Extract these entities when present, null otherwise:
- city: the city name as written
- address: street, neighborhood or area (partial match)
- bedrooms: integer, only if the user gives a number
- rent_exact: "3000" or "i want 3000" means exactly 3000
- rent_max: "under 3000" means 2999
- rent_min: "over 2000" means 2001
- "between 1500 and 2500" means rent_min 1500 and rent_max 2500; "around 2000" means rent_min 1900 and rent_max 2100
- pets: one of "No Pets", "Dogs", "Cats", "Cats and Dogs" ("pet friendly" means "Dogs")
- available_date: only a month name or a date, never "now" or "vacant"

Return ONLY a JSON object: {"intent": "...", "entities": {...}, "confidence": 0.0-1.0}`

const summarizePrompt = `You are a helpful property rental assistant. Write a short, friendly reply for the user based on the context.

Rules:
- Use ONLY the property data given in the context. Never invent addresses, prices or names.
- If viewing slots are listed, include them.
- If the context has a suggestion for a missing exact price, use it verbatim.
- For greetings, greet back and invite the user to share location, budget, bedrooms and pets.
- For off-topic requests, explain you focus on home rentals and mention the criteria names (location, budget, bedrooms, pets, available date) without values.
- Offer two or three concrete next steps.

Return ONLY a JSON object: {"message": "...", "suggested_actions": ["...", "..."]}`

// Client is an Understander backed by a language model.
type Client struct {
	gen    ports.Generator
	logger *slog.Logger
}

var _ ports.Understander = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient wraps a generator.
func NewClient(gen ports.Generator, opts ...ClientOption) *Client {
	c := &Client{gen: gen, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type analyzeResponse struct {
	Intent     string         `json:"intent"`
	Entities   map[string]any `json:"entities"`
	Confidence float64        `json:"confidence"`
}

// Analyze asks the model for intent and entities. Unknown intent labels map
// to inquiry; a response that is not JSON is an error.
func (c *Client) Analyze(ctx context.Context, query string) (domain.Analysis, error) {
	raw, err := c.gen.Generate(ctx, analyzePrompt, query)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("analyze: %w", err)
	}
	var resp analyzeResponse
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &resp); err != nil {
		return domain.Analysis{}, fmt.Errorf("failed to parse analysis: %w", err)
	}
	if resp.Entities == nil {
		resp.Entities = map[string]any{}
	}
	return domain.Analysis{
		Intent:     domain.ParseIntent(resp.Intent),
		Entities:   resp.Entities,
		Confidence: resp.Confidence,
	}, nil
}

// Summarize asks the model to phrase the reply. Malformed output falls back
// to the locally composed message instead of failing.
func (c *Client) Summarize(ctx context.Context, in domain.SummaryInput) (domain.Summary, error) {
	raw, err := c.gen.Generate(ctx, summarizePrompt, summaryContext(in))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	var out domain.Summary
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &out); err != nil || strings.TrimSpace(out.Message) == "" {
		c.logger.Warn("Unusable summary from model, using local reply", "err", err)
		return fallbackSummary(in), nil
	}
	if len(out.SuggestedActions) == 0 {
		out.SuggestedActions = fallbackSummary(in).SuggestedActions
	}
	return out, nil
}

func fallbackSummary(in domain.SummaryInput) domain.Summary {
	s := Compose(in)
	if in.Fallback != "" {
		s.Message = in.Fallback
	}
	return s
}

func summaryContext(in domain.SummaryInput) string {
	var b strings.Builder
	if len(in.History) > 0 {
		b.WriteString("Conversation history (most recent last):\n")
		start := 0
		if len(in.History) > 10 {
			start = len(in.History) - 10
		}
		for _, m := range in.History[start:] {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User query: %s\nIntent: %s\n", in.Query, in.Intent)

	switch in.Err {
	case domain.KindMarketRejected:
		fmt.Fprintf(&b, "The requested city is not served. Suggest these cities: %s\n", strings.Join(market.Supported(), ", "))
	case "":
	default:
		fmt.Fprintf(&b, "Error occurred: %s\n", in.Err)
	}

	if fields := in.Criteria.Fields(); len(fields) > 0 {
		fmt.Fprintf(&b, "Detected fields: %s\n", strings.Join(fields, ", "))
	}

	if len(in.Properties) == 1 && in.Properties[0].NoMatch != nil {
		fmt.Fprintf(&b, "No exact match found.\nSuggestion: %s\n", in.Properties[0].Suggestion)
	} else if len(in.Properties) > 0 {
		fmt.Fprintf(&b, "Found %d properties:\n", len(in.Properties))
		for _, p := range in.Properties {
			if p.Property == nil {
				continue
			}
			fmt.Fprintf(&b, "- %s: %d bedrooms, $%d/month, Pets: %s\n", p.Address, p.Bedrooms, p.Rent, p.Pets)
		}
	}
	if len(in.Slots) > 0 {
		b.WriteString("Available viewing slots:\n")
		for i, s := range in.Slots {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s.Display)
		}
	}
	if in.Appointment != nil {
		fmt.Fprintf(&b, "Appointment confirmed: %s\n", in.Appointment.Slot.Display)
	}
	if in.Fallback != "" {
		fmt.Fprintf(&b, "Draft reply: %s\n", in.Fallback)
	}
	return b.String()
}

// cleanJSON strips markdown fences some models wrap JSON in.
func cleanJSON(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
