package nlu

import (
	"fmt"
	"strings"

	"github.com/propertytek/rentbot/pkg/domain"
)

// Canned texts shared by the router and the fallbacks.
const (
	MsgTimeout     = "I apologize, but the request is taking longer than expected. Please try again in a moment."
	MsgGreeting    = "Hi there! I can help you find a place to rent in Houston, Dallas, Austin or San Antonio. Tell me a city, your budget, how many bedrooms you need and whether you have pets, and I'll get started."
	MsgOffTopic    = "I focus on home rentals in Texas, so I can't help with that. Tell me a location, budget, bedrooms, pets or available date and I'll find places for you."
	MsgNeedDetails = "Great, I'll help you find your place. Could you share your preferred area, your budget or rent range, how many bedrooms you'd like, and whether you have pets? I'll search right away."
	MsgInquiry     = "I can answer questions about our rental listings. Search for properties or pick one to see its details and book a viewing."
)

var (
	foundActions = []string{"View property details", "Schedule a tour", "Filter by bedrooms"}
	emptyActions = []string{"Share preferred area", "Set budget/rent range", "Specify bedrooms/pets"}
)

// Compose builds a reply from structured results alone. It is the message of
// last resort, so it never fails.
func Compose(in domain.SummaryInput) domain.Summary {
	switch {
	case in.Appointment != nil:
		where := in.Appointment.Address
		if where == "" {
			where = "the property"
		}
		return domain.Summary{
			Message:          fmt.Sprintf("Your viewing at %s is booked for %s. You'll receive a confirmation SMS shortly.", where, in.Appointment.Slot.Display),
			SuggestedActions: []string{"booking_confirmed", string(domain.ActionNewSearch)},
		}
	case in.Err == domain.KindUpstreamUnavailable:
		return domain.Summary{Message: MsgTimeout, SuggestedActions: []string{"Try again"}}
	case len(in.Slots) > 0:
		return domain.Summary{Message: slotList(in.Slots), SuggestedActions: []string{string(domain.ActionSelectSlot), string(domain.ActionCancelBooking)}}
	case len(in.Properties) > 0:
		return composeProperties(in.Properties)
	case in.Intent == domain.IntentGreeting:
		return domain.Summary{Message: MsgGreeting, SuggestedActions: emptyActions}
	case in.Intent == domain.IntentOffTopic:
		return domain.Summary{Message: MsgOffTopic, SuggestedActions: emptyActions}
	case in.Intent == domain.IntentInquiry:
		return domain.Summary{Message: MsgInquiry, SuggestedActions: []string{"search_properties"}}
	}
	return domain.Summary{Message: MsgNeedDetails, SuggestedActions: emptyActions}
}

func composeProperties(cards []domain.Card) domain.Summary {
	if len(cards) == 1 && cards[0].NoMatch != nil {
		return domain.Summary{Message: cards[0].Suggestion, SuggestedActions: emptyActions}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d %s matching your search:", len(cards), plural(len(cards), "property", "properties"))
	for _, c := range cards {
		if c.Property == nil {
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %d bedrooms, $%d/month, Pets: %s", c.Address, c.Bedrooms, c.Rent, c.Pets)
	}
	if msg := cards[0].SearchMessage; msg != "" {
		b.WriteString("\n")
		b.WriteString(msg)
	}
	return domain.Summary{Message: b.String(), SuggestedActions: foundActions}
}

func slotList(slots []domain.Slot) string {
	var b strings.Builder
	b.WriteString("Here are the available viewing times:")
	for i, s := range slots {
		fmt.Fprintf(&b, "\n%d. %s", i+1, s.Display)
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
