package domain

import "time"

// BookingState is the position of a session in the viewing-booking flow.
type BookingState string

const (
	BookingNone      BookingState = "none"
	BookingOffered   BookingState = "slot_offered"
	BookingSelected  BookingState = "slot_selected"
	BookingIntake    BookingState = "intake_in_progress"
	BookingComplete  BookingState = "complete"
	BookingCancelled BookingState = "cancelled"
)

// Terminal reports whether the state ends a booking cycle.
func (s BookingState) Terminal() bool {
	return s == BookingComplete || s == BookingCancelled
}

// HoldsSlot reports whether a selected slot may exist in this state.
func (s BookingState) HoldsSlot() bool {
	return s == BookingSelected || s == BookingIntake || s == BookingComplete
}

// IntakeField is one of the contact fields collected before a booking completes.
type IntakeField string

const (
	FieldName  IntakeField = "name"
	FieldEmail IntakeField = "email"
	FieldPhone IntakeField = "phone"
	FieldPets  IntakeField = "pets"
)

// IntakeOrder is the fixed traversal order of the intake.
var IntakeOrder = []IntakeField{FieldName, FieldEmail, FieldPhone, FieldPets}

// Valid reports whether f is a known field.
func (f IntakeField) Valid() bool {
	switch f {
	case FieldName, FieldEmail, FieldPhone, FieldPets:
		return true
	}
	return false
}

// Contact is the (possibly partial) set of intake values.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Pets  string `json:"pets,omitempty"`
}

// Get returns the value stored for f.
func (c Contact) Get(f IntakeField) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldEmail:
		return c.Email
	case FieldPhone:
		return c.Phone
	case FieldPets:
		return c.Pets
	}
	return ""
}

// Set stores v for f. Unknown fields are ignored.
func (c *Contact) Set(f IntakeField, v string) {
	switch f {
	case FieldName:
		c.Name = v
	case FieldEmail:
		c.Email = v
	case FieldPhone:
		c.Phone = v
	case FieldPets:
		c.Pets = v
	}
}

// Intake tracks progress through the contact fields.
type Intake struct {
	Contact          Contact                `json:"contact"`
	NextField        IntakeField            `json:"next_field,omitempty"`
	Failures         map[IntakeField]int    `json:"failures,omitempty"`
	ValidationErrors map[IntakeField]string `json:"validation_errors,omitempty"`
	Recovering       bool                   `json:"recovering,omitempty"`
	FailedField      IntakeField            `json:"failed_field,omitempty"`
}

// NewIntake starts an intake at the first field.
func NewIntake() *Intake {
	return &Intake{
		NextField:        IntakeOrder[0],
		Failures:         make(map[IntakeField]int),
		ValidationErrors: make(map[IntakeField]string),
	}
}

// Booking is the per-session booking sub-state. PropertyID is the listing the
// offered slots belong to; it can differ from the session's selection while
// the user browses.
type Booking struct {
	State        BookingState `json:"state"`
	PropertyID   string       `json:"property_id,omitempty"`
	OfferedSlots []Slot       `json:"offered_slots,omitempty"`
	SelectedSlot *Slot        `json:"selected_slot,omitempty"`
	Intake       *Intake      `json:"intake,omitempty"`
}

// Appointment is a confirmed viewing.
type Appointment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	PropertyID string    `json:"property_id"`
	Address    string    `json:"address,omitempty"`
	Slot       Slot      `json:"slot"`
	Contact    Contact   `json:"contact"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is all server-side state for one user_id.
type Session struct {
	UserID             string       `json:"user_id"`
	Criteria           Criteria     `json:"criteria"`
	Candidates         []Property   `json:"candidates,omitempty"`
	SelectedPropertyID string       `json:"selected_property_id,omitempty"`
	Booking            Booking      `json:"booking"`
	Appointment        *Appointment `json:"appointment,omitempty"`
	Turns              int          `json:"turns"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`

	// Sealed holds the encrypted form of the session when it sits behind an
	// encrypting store. It is empty on every session the router sees.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession creates an empty session for userID.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Booking:   Booking{State: BookingNone},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so stores never share memory with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Criteria = s.Criteria.Clone()
	if s.Candidates != nil {
		out.Candidates = make([]Property, len(s.Candidates))
		for i, p := range s.Candidates {
			p.AvailableDates = append([]string(nil), p.AvailableDates...)
			out.Candidates[i] = p
		}
	}
	if s.Booking.OfferedSlots != nil {
		out.Booking.OfferedSlots = append([]Slot(nil), s.Booking.OfferedSlots...)
	}
	if s.Booking.SelectedSlot != nil {
		slot := *s.Booking.SelectedSlot
		out.Booking.SelectedSlot = &slot
	}
	if s.Booking.Intake != nil {
		in := *s.Booking.Intake
		in.Failures = make(map[IntakeField]int, len(s.Booking.Intake.Failures))
		for k, v := range s.Booking.Intake.Failures {
			in.Failures[k] = v
		}
		in.ValidationErrors = make(map[IntakeField]string, len(s.Booking.Intake.ValidationErrors))
		for k, v := range s.Booking.Intake.ValidationErrors {
			in.ValidationErrors[k] = v
		}
		out.Booking.Intake = &in
	}
	if s.Appointment != nil {
		a := *s.Appointment
		out.Appointment = &a
	}
	if s.Sealed != nil {
		out.Sealed = append([]byte(nil), s.Sealed...)
	}
	return &out
}
