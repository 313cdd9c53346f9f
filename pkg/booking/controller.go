package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/intake"
	"github.com/propertytek/rentbot/pkg/ports"
)

// User-facing texts.
const (
	MsgSelectProperty = "Please select a property first."
	MsgNotFound       = "Property not found. Please try again."
	MsgChooseSlot     = "Please select an available time slot for your property visit:"
	MsgCancelled      = "Booking canceled. You can start again when ready."
	MsgNoSlotsYet     = "Please ask for available viewing times first."
	MsgSlotUnknown    = "That time slot is not available. Please choose one of the offered slots."
	MsgNoIntake       = "There is no booking in progress. Select a property and a time slot first."
	MsgBusy           = "You already have a booking in progress. Finish it or cancel it first."
	MsgNothingToStop  = "There is no active booking to cancel."
)

// Listings is the slice of the catalog the controller needs.
type Listings interface {
	Get(ctx context.Context, id string) (*domain.Property, error)
	Slots(ctx context.Context, id string) ([]domain.Slot, error)
}

// Controller advances bookings. It holds no session state of its own.
type Controller struct {
	listings Listings
	sinks    []ports.AppointmentSink
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithSinks registers receivers for confirmed appointments.
func WithSinks(sinks ...ports.AppointmentSink) Option {
	return func(c *Controller) {
		c.sinks = append(c.sinks, sinks...)
	}
}

// WithClock sets the clock used for appointment timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDGenerator replaces the uuid generator for appointment IDs.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) {
		c.newID = gen
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a controller over a listing source.
func NewController(l Listings, opts ...Option) *Controller {
	c := &Controller{
		listings: l,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Offer selects a property and offers its viewing slots. An empty id uses the
// session's current selection. A finished booking is reset first.
func (c *Controller) Offer(ctx context.Context, s *domain.Session, propertyID string, r *domain.Reply) error {
	if propertyID == "" {
		propertyID = s.SelectedPropertyID
	}
	if propertyID == "" {
		return invalid(MsgSelectProperty)
	}
	from := state(s)
	if from == domain.BookingIntake {
		return invalid(MsgBusy)
	}
	if from.Terminal() {
		from = domain.BookingNone
	}
	if !CanTransition(from, domain.BookingOffered) {
		return invalid(MsgBusy)
	}

	if _, err := c.listings.Get(ctx, propertyID); err != nil {
		if errors.Is(err, domain.ErrPropertyNotFound) {
			return invalid(MsgNotFound)
		}
		return fmt.Errorf("failed to load property %s: %w", propertyID, err)
	}
	slots, err := c.listings.Slots(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("failed to load slots for %s: %w", propertyID, err)
	}

	s.SelectedPropertyID = propertyID
	s.Booking = domain.Booking{
		State:        domain.BookingOffered,
		PropertyID:   propertyID,
		OfferedSlots: slots,
	}

	r.Response = MsgChooseSlot
	r.AvailableSlots = VisibleSlots(s)
	r.SuggestedActions = []string{string(domain.ActionSelectSlot), string(domain.ActionCancelBooking)}
	r.SetStep(domain.StepSlotSelection)
	c.logger.Debug("Slots offered", "user_id", s.UserID, "property_id", propertyID, "slots", len(slots))
	return nil
}

// SelectSlot records the chosen slot and opens the intake.
func (c *Controller) SelectSlot(ctx context.Context, s *domain.Session, slotID string, r *domain.Reply) error {
	if s.SelectedPropertyID == "" {
		return invalid(MsgSelectProperty)
	}
	if state(s) != domain.BookingOffered {
		return invalid(MsgNoSlotsYet)
	}
	var chosen *domain.Slot
	for _, slot := range s.Booking.OfferedSlots {
		if slot.ID == slotID && slot.Available {
			chosen = &slot
			break
		}
	}
	if chosen == nil {
		return invalid(MsgSlotUnknown)
	}

	s.Booking.State = domain.BookingSelected
	s.Booking.SelectedSlot = chosen

	// Contact details are always required, so the intake opens immediately.
	s.Booking.State = domain.BookingIntake
	s.Booking.Intake = domain.NewIntake()

	r.Response = intake.Intro
	r.AskFor(s.Booking.Intake.NextField, intake.Prompt(s.Booking.Intake.NextField))
	r.SuggestedActions = []string{string(domain.ActionProvideInfo), string(domain.ActionCancelBooking)}
	r.SetStep(domain.StepInfoCollection)
	return nil
}

// Provide feeds contact values into the intake. text answers the current
// field when values leave it empty.
func (c *Controller) Provide(ctx context.Context, s *domain.Session, values domain.Contact, text string, r *domain.Reply) error {
	if state(s) != domain.BookingIntake || s.Booking.Intake == nil {
		return invalid(MsgNoIntake)
	}
	out := intake.Submit(s.Booking.Intake, values, text)
	switch {
	case out.Recovery:
		c.recoveryReply(s, out, r)
		return nil
	case out.Complete:
		return c.complete(ctx, s, r)
	case out.Failed != "":
		r.Error = domain.KindValidationFailed
	}
	r.Response = out.Message
	r.AskFor(s.Booking.Intake.NextField, intake.Prompt(s.Booking.Intake.NextField))
	r.SuggestedActions = []string{string(domain.ActionProvideInfo), string(domain.ActionCancelBooking)}
	r.SetStep(domain.StepInfoCollection)
	return nil
}

// Command applies a typed recovery command to the intake.
func (c *Controller) Command(ctx context.Context, s *domain.Session, cmd domain.Command, r *domain.Reply) error {
	if cmd == domain.CommandCancel {
		return c.Cancel(ctx, s, r)
	}
	if state(s) != domain.BookingIntake || s.Booking.Intake == nil {
		return invalid(MsgNoIntake)
	}
	if !intake.ValidCommand(cmd) {
		return invalid(fmt.Sprintf("Unknown command %q. Use help, restart or cancel.", cmd))
	}
	out, err := intake.Apply(s.Booking.Intake, cmd)
	if err != nil {
		return err
	}
	r.Response = out.Message
	r.AskFor(s.Booking.Intake.NextField, intake.Prompt(s.Booking.Intake.NextField))
	r.SuggestedActions = []string{string(domain.ActionProvideInfo), string(domain.ActionCancelBooking)}
	r.SetStep(domain.StepInfoCollection)
	return nil
}

// Cancel tears the booking down. Criteria and the selected property survive.
func (c *Controller) Cancel(_ context.Context, s *domain.Session, r *domain.Reply) error {
	if !CanTransition(state(s), domain.BookingCancelled) {
		return invalid(MsgNothingToStop)
	}
	s.Booking = domain.Booking{State: domain.BookingCancelled}

	r.Response = MsgCancelled
	r.SuggestedActions = []string{"search_properties", string(domain.ActionBookSchedule)}
	r.SetStep(domain.StepPropertySearch)
	c.logger.Debug("Booking cancelled", "user_id", s.UserID)
	return nil
}

// Reset returns a finished booking to none. It is a no-op otherwise.
func Reset(s *domain.Session) {
	if state(s).Terminal() {
		s.Booking = domain.Booking{State: domain.BookingNone}
	}
}

// VisibleSlots is the only way slots leave the controller: none are visible
// until a property is selected and slots were offered for it.
func VisibleSlots(s *domain.Session) []domain.Slot {
	if s.SelectedPropertyID == "" || state(s) != domain.BookingOffered ||
		s.Booking.PropertyID != s.SelectedPropertyID {
		return []domain.Slot{}
	}
	return append([]domain.Slot{}, s.Booking.OfferedSlots...)
}

// Dispatch hands a confirmed appointment to every sink. Failures are logged
// and never reach the user.
func (c *Controller) Dispatch(ctx context.Context, a domain.Appointment) {
	for _, sink := range c.sinks {
		if err := sink.Record(ctx, a); err != nil {
			c.logger.Error("Appointment sink failed", "appointment_id", a.ID, "err", err)
		}
	}
}

func (c *Controller) recoveryReply(s *domain.Session, out intake.Outcome, r *domain.Reply) {
	r.Response = out.Message
	r.Error = domain.KindValidationFailed
	r.AskFor(out.Failed, intake.Prompt(out.Failed))
	r.SuggestedActions = []string{string(domain.CommandHelp), string(domain.CommandRestart), string(domain.CommandCancel)}
	r.SetStep(domain.StepRecovery)
	c.logger.Info("Intake entered recovery", "user_id", s.UserID, "field", out.Failed)
}

func (c *Controller) complete(ctx context.Context, s *domain.Session, r *domain.Reply) error {
	b := &s.Booking
	if b.SelectedSlot == nil || !intake.Complete(b.Intake) || !CanTransition(b.State, domain.BookingComplete) {
		return invalid(MsgNoIntake)
	}

	address := ""
	if p, err := c.listings.Get(ctx, b.PropertyID); err == nil {
		address = p.Address
	}
	appt := domain.Appointment{
		ID:         c.newID(),
		UserID:     s.UserID,
		PropertyID: b.PropertyID,
		Address:    address,
		Slot:       *b.SelectedSlot,
		Contact:    b.Intake.Contact,
		CreatedAt:  c.now().UTC(),
	}
	b.State = domain.BookingComplete
	s.Appointment = &appt

	r.Response = fmt.Sprintf("Great! Your appointment has been scheduled for %s. You'll receive a confirmation SMS shortly.", appt.Slot.Display)
	r.Appointment = &appt
	r.SuggestedActions = []string{"booking_confirmed", string(domain.ActionNewSearch)}
	r.SetStep(domain.StepBookingComplete)
	c.logger.Info("Booking completed", "user_id", s.UserID, "appointment_id", appt.ID, "property_id", appt.PropertyID)
	return nil
}

func invalid(msg string) error {
	return domain.NewError(domain.KindInvalidAction, msg)
}
