package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/propertytek/rentbot/pkg/booking"
	"github.com/propertytek/rentbot/pkg/criteria"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/intake"
	"github.com/propertytek/rentbot/pkg/nlu"
)

// User-facing texts owned by the router.
const (
	MsgNewSearch = "Let's start a new search. Tell me the city, budget, bedrooms or pets you have in mind."
	MsgPickSlot  = "Please select a time slot."
)

// route runs inside the session's critical section.
func (r *Router) route(ctx context.Context, s *domain.Session, t domain.Turn, a *domain.Analysis, res *result) error {
	reply := res.reply
	switch t.Action() {
	case domain.ActionInquire:
		res.path = "inquire"
		return r.details(ctx, s, deref(t.PropertyID), reply)
	case domain.ActionBookSchedule:
		res.path = "book_schedule"
		return r.booking.Offer(ctx, s, deref(t.PropertyID), reply)
	case domain.ActionSelectSlot:
		res.path = "select_slot"
		slot := deref(t.SelectedSlot)
		if slot == "" {
			return domain.NewError(domain.KindInvalidAction, MsgPickSlot)
		}
		return r.booking.SelectSlot(ctx, s, slot, reply)
	case domain.ActionProvideInfo:
		res.path = "provide_info"
		if t.IntakeCommand != "" {
			return r.command(ctx, s, t.IntakeCommand, res)
		}
		var values domain.Contact
		if t.UserInfo != nil {
			values = *t.UserInfo
		}
		return r.provide(ctx, s, values, t.Query, res)
	case domain.ActionCancelBooking:
		res.path = "cancel"
		return r.cancel(ctx, s, reply)
	case domain.ActionNewSearch:
		res.path = "new_search"
		s.Criteria = domain.Criteria{}
		s.Candidates = nil
		s.SelectedPropertyID = ""
		booking.Reset(s)
		reply.Response = MsgNewSearch
		reply.SuggestedActions = []string{"Share preferred area", "Set budget/rent range", "Specify bedrooms/pets"}
		if a == nil {
			return nil
		}
		res.record = true
		return r.converse(ctx, s, t, *a, res)
	}

	if t.IntakeCommand != "" {
		res.path = "command"
		return r.command(ctx, s, t.IntakeCommand, res)
	}

	// Intake answers never reach the language model.
	if s.Booking.State == domain.BookingIntake {
		res.path = "intake"
		res.record = true
		if cmd := intake.ParseCommand(t.Query); cmd != domain.CommandNone {
			return r.command(ctx, s, cmd, res)
		}
		return r.provide(ctx, s, domain.Contact{}, t.Query, res)
	}

	if a == nil {
		// The session entered intake between analysis and lock, or left it.
		h, _ := nlu.Heuristic{}.Analyze(ctx, t.Query)
		a = &h
	}
	res.record = true
	return r.converse(ctx, s, t, *a, res)
}

// converse branches on the analysed intent of a free-text turn.
func (r *Router) converse(ctx context.Context, s *domain.Session, t domain.Turn, a domain.Analysis, res *result) error {
	reply := res.reply
	reply.SetIntent(a.Intent)

	found, err := criteria.Decode(a.Entities)
	if err != nil {
		r.logger.Warn("Discarding undecodable entities", "user_id", s.UserID, "err", err)
		found = domain.Criteria{}
	}
	found = criteria.Sanitize(t.Query, found)

	switch {
	case a.Intent == domain.IntentBooking:
		res.path = "book_schedule"
		return r.booking.Offer(ctx, s, "", reply)
	case a.Intent == domain.IntentPropertySearch || !found.IsEmpty():
		res.path = "search"
		return r.search(ctx, s, t, a.Intent, found, res)
	case a.Intent == domain.IntentInquiry && s.SelectedPropertyID != "":
		res.path = "details"
		if err := r.details(ctx, s, "", reply); err != nil {
			return err
		}
		res.summary = r.summaryInput(t, s, a.Intent, reply)
		return nil
	}

	res.path = string(a.Intent)
	in := r.summaryInput(t, s, a.Intent, reply)
	sum := nlu.Compose(*in)
	reply.Response = sum.Message
	reply.SuggestedActions = sum.SuggestedActions
	in.Fallback = sum.Message
	res.summary = in
	return nil
}

// search merges the turn's criteria, gates the market and queries the catalog.
func (r *Router) search(ctx context.Context, s *domain.Session, t domain.Turn, intent domain.Intent, found domain.Criteria, res *result) error {
	reply := res.reply
	merged := criteria.Merge(s.Criteria, found)

	v := r.gate.Check(merged.City)
	if !v.Passed {
		// Keep the rest of the turn but never persist an unserved city.
		merged.City = s.Criteria.City
		s.Criteria = merged
		reply.Entities = merged.Entities()
		reply.SuggestedActions = v.Suggestions
		r.metrics.Search(false)
		r.logger.Info("Market rejected", "user_id", s.UserID, "city", v.Rejected)
		return v.Err()
	}
	merged.City = v.City
	s.Criteria = merged
	reply.Entities = merged.Entities()

	out, err := r.catalog.Search(ctx, merged)
	if err != nil {
		return err
	}
	r.metrics.Search(!out.NoMatch)
	s.Candidates = out.Matches
	reply.Properties = out.Cards
	if out.NoMatch {
		reply.Error = domain.KindNoMatch
	}

	in := r.summaryInput(t, s, intent, reply)
	sum := nlu.Compose(*in)
	reply.Response = sum.Message
	reply.SuggestedActions = sum.SuggestedActions
	if len(out.Matches) > 0 {
		reply.SuggestedActions = []string{string(domain.ActionInquire), string(domain.ActionBookSchedule)}
	}
	in.Fallback = reply.Response
	res.summary = in
	return nil
}

// details shows a listing and makes it the session's selection.
func (r *Router) details(ctx context.Context, s *domain.Session, propertyID string, reply *domain.Reply) error {
	if propertyID == "" {
		propertyID = s.SelectedPropertyID
	}
	if propertyID == "" {
		return domain.NewError(domain.KindInvalidAction, booking.MsgSelectProperty)
	}
	if err := booking.Reselect(s, propertyID); err != nil {
		return err
	}
	p, err := r.catalog.Get(ctx, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrPropertyNotFound) {
			return domain.NewError(domain.KindInvalidAction, booking.MsgNotFound)
		}
		return err
	}
	d, err := r.catalog.Details(ctx, propertyID)
	if err != nil {
		return err
	}

	s.SelectedPropertyID = propertyID
	reply.PropertyDetails = d
	reply.Response = fmt.Sprintf("Here are the details for %s:", p.Address)
	reply.SuggestedActions = []string{string(domain.ActionBookSchedule), "back_to_search"}
	reply.SetStep(domain.StepPropertyDetails)
	return nil
}

func (r *Router) provide(ctx context.Context, s *domain.Session, values domain.Contact, text string, res *result) error {
	if err := r.booking.Provide(ctx, s, values, text, res.reply); err != nil {
		return err
	}
	if s.Booking.State == domain.BookingComplete && res.reply.Appointment != nil {
		appt := *res.reply.Appointment
		res.appointment = &appt
		r.metrics.Booking(domain.BookingComplete)
	}
	return nil
}

func (r *Router) command(ctx context.Context, s *domain.Session, cmd domain.Command, res *result) error {
	if cmd == domain.CommandCancel {
		return r.cancel(ctx, s, res.reply)
	}
	return r.booking.Command(ctx, s, cmd, res.reply)
}

func (r *Router) cancel(ctx context.Context, s *domain.Session, reply *domain.Reply) error {
	if err := r.booking.Cancel(ctx, s, reply); err != nil {
		return err
	}
	r.metrics.Booking(domain.BookingCancelled)
	return nil
}

func (r *Router) summaryInput(t domain.Turn, s *domain.Session, intent domain.Intent, reply *domain.Reply) *domain.SummaryInput {
	return &domain.SummaryInput{
		Query:      t.Query,
		Intent:     intent,
		Criteria:   s.Criteria.Clone(),
		Properties: reply.Properties,
		Slots:      reply.AvailableSlots,
		Err:        reply.Error,
		Fallback:   reply.Response,
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
