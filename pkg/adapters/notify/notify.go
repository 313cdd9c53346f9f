// Package notify holds the appointment side effects that talk to people: a
// calendar event for the leasing office and an SMS confirmation for the
// renter. Both render their payload and hand it to a Deliverer; the default
// Deliverer only logs.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/domain"
)

// DefaultTimezone is where viewings take place.
const DefaultTimezone = "America/Chicago"

// slotLayout matches domain.Slot.DateTime.
const slotLayout = "2006-01-02 15:04:05"

// Event is a calendar entry for one viewing.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// Deliverer ships a rendered notification somewhere.
type Deliverer interface {
	Deliver(ctx context.Context, channel, to, body string) error
}

// LogDeliverer writes notifications to the logger instead of sending them.
type LogDeliverer struct {
	Logger *slog.Logger
}

func (d LogDeliverer) Deliver(ctx context.Context, channel, to, body string) error {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.InfoContext(ctx, "notification", "channel", channel, "to", to, "body", body)
	return nil
}

// Calendar implements ports.AppointmentSink by creating a one-hour event.
type Calendar struct {
	loc       *time.Location
	deliverer Deliverer
}

// NewCalendar builds a calendar sink in loc; nil means DefaultTimezone
// (falling back to UTC when the zone database is missing).
func NewCalendar(loc *time.Location, d Deliverer) *Calendar {
	if loc == nil {
		var err error
		if loc, err = time.LoadLocation(DefaultTimezone); err != nil {
			loc = time.UTC
		}
	}
	if d == nil {
		d = LogDeliverer{}
	}
	return &Calendar{loc: loc, deliverer: d}
}

// BuildEvent renders the calendar entry for a.
func (c *Calendar) BuildEvent(a domain.Appointment) (Event, error) {
	start, err := time.ParseInLocation(slotLayout, a.Slot.DateTime, c.loc)
	if err != nil {
		return Event{}, fmt.Errorf("invalid slot time %q: %w", a.Slot.DateTime, err)
	}
	where := a.Address
	if where == "" {
		where = "property " + a.PropertyID
	}
	desc := strings.Join([]string{
		"Property tour appointment",
		"Client: " + a.Contact.Name,
		"Email: " + a.Contact.Email,
		"Phone: " + a.Contact.Phone,
		"Pets: " + a.Contact.Pets,
		"Appointment ID: " + a.ID,
	}, "\n")
	return Event{
		Summary:     "Property Tour - " + where,
		Description: desc,
		Start:       start,
		End:         start.Add(time.Hour),
		Attendees:   []string{a.Contact.Email},
	}, nil
}

// Record creates the event for a.
func (c *Calendar) Record(ctx context.Context, a domain.Appointment) error {
	ev, err := c.BuildEvent(a)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("%s | %s - %s", ev.Summary, ev.Start.Format(time.RFC3339), ev.End.Format(time.RFC3339))
	return c.deliverer.Deliver(ctx, "calendar", a.Contact.Email, body)
}

// SMS implements ports.AppointmentSink by texting the renter a confirmation.
type SMS struct {
	deliverer Deliverer
	office    string
}

// NewSMS builds an SMS sink. office is the call-back number quoted in the text.
func NewSMS(d Deliverer, office string) *SMS {
	if d == nil {
		d = LogDeliverer{}
	}
	if office == "" {
		office = "(555) 123-4567"
	}
	return &SMS{deliverer: d, office: office}
}

// Confirmation renders the text message for a.
func (s *SMS) Confirmation(a domain.Appointment) string {
	where := a.Address
	if where == "" {
		where = a.PropertyID
	}
	pets := a.Contact.Pets
	if pets == "" {
		pets = "Not specified"
	}
	var b strings.Builder
	b.WriteString("PropertyTek Appointment Confirmation\n\n")
	fmt.Fprintf(&b, "Client: %s\nPets: %s\n\n", a.Contact.Name, pets)
	fmt.Fprintf(&b, "Property: %s\nDate & Time: %s\nAppointment ID: %s\n\n", where, a.Slot.Display, a.ID)
	b.WriteString("Arrive 5 minutes early and bring a valid photo ID. Reply CANCEL to cancel.\n")
	fmt.Fprintf(&b, "Questions? Call %s", s.office)
	return b.String()
}

// Record sends the confirmation for a.
func (s *SMS) Record(ctx context.Context, a domain.Appointment) error {
	if a.Contact.Phone == "" {
		return fmt.Errorf("appointment %s has no phone number", a.ID)
	}
	return s.deliverer.Deliver(ctx, "sms", a.Contact.Phone, s.Confirmation(a))
}
