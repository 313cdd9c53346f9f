package domain

import "strings"

// Intent is the classification label of a free-text turn.
type Intent string

const (
	IntentPropertySearch Intent = "property_search"
	IntentInquiry        Intent = "inquiry"
	IntentBooking        Intent = "booking_action"
	IntentGreeting       Intent = "greeting"
	IntentOffTopic       Intent = "off_topic"
)

// ParseIntent maps a label (including the aliases language models tend to
// produce) onto a known Intent. Unknown labels become IntentInquiry.
func ParseIntent(label string) Intent {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "property_search", "search", "search_properties":
		return IntentPropertySearch
	case "inquiry", "ask_question", "question", "property_details":
		return IntentInquiry
	case "booking_action", "schedule_tour", "confirm_booking", "book", "booking":
		return IntentBooking
	case "greeting", "self_introduction":
		return IntentGreeting
	case "off_topic", "non_property":
		return IntentOffTopic
	}
	return IntentInquiry
}

// ActionType is an explicit UI action attached to a turn.
type ActionType string

const (
	ActionNone          ActionType = "none"
	ActionInquire       ActionType = "inquire"
	ActionBookSchedule  ActionType = "book_schedule"
	ActionSelectSlot    ActionType = "select_slot"
	ActionProvideInfo   ActionType = "provide_info"
	ActionCancelBooking ActionType = "cancel_booking"
	ActionNewSearch     ActionType = "new_search"
)

// Command is a typed intake recovery command.
type Command string

const (
	CommandNone    Command = ""
	CommandCancel  Command = "cancel"
	CommandRestart Command = "restart"
	CommandHelp    Command = "help"
)

// Turn is one inbound request.
type Turn struct {
	Query               string     `json:"query"`
	UserID              string     `json:"user_id"`
	ConversationHistory *string    `json:"conversation_history,omitempty"`
	ActionType          ActionType `json:"action_type,omitempty"`
	PropertyID          *string    `json:"property_id,omitempty"`
	SelectedSlot        *string    `json:"selected_slot,omitempty"`
	UserInfo            *Contact   `json:"user_info,omitempty"`
	IntakeCommand       Command    `json:"intake_command,omitempty"`
}

// Action returns the action type, treating an empty value as ActionNone.
func (t Turn) Action() ActionType {
	if t.ActionType == "" {
		return ActionNone
	}
	return t.ActionType
}

// Step names the flow position reported back to the client.
type Step string

const (
	StepPropertySearch  Step = "property_search"
	StepPropertyDetails Step = "property_details"
	StepSlotSelection   Step = "slot_selection"
	StepInfoCollection  Step = "info_collection"
	StepRecovery        Step = "intake_recovery"
	StepBookingComplete Step = "booking_complete"
)

// Reply is one outbound response.
type Reply struct {
	Response         string         `json:"response"`
	Intent           *Intent        `json:"intent"`
	Entities         map[string]any `json:"entities"`
	SuggestedActions []string       `json:"suggested_actions"`
	Properties       []Card         `json:"properties"`
	AvailableSlots   []Slot         `json:"available_slots"`
	PropertyDetails  *Details       `json:"property_details"`
	RequiresUserInfo bool           `json:"requires_user_info"`
	NextField        *IntakeField   `json:"next_field"`
	InfoPrompt       *string        `json:"info_prompt"`
	CurrentStep      *Step          `json:"current_step"`
	Error            ErrorKind      `json:"error,omitempty"`
	Appointment      *Appointment   `json:"appointment,omitempty"`
}

// NewReply returns a reply with empty, non-nil collections so clients never
// see null lists.
func NewReply() *Reply {
	return &Reply{
		Entities:         map[string]any{},
		SuggestedActions: []string{},
		Properties:       []Card{},
		AvailableSlots:   []Slot{},
	}
}

// SetStep records the flow position.
func (r *Reply) SetStep(s Step) {
	r.CurrentStep = &s
}

// SetIntent records the classified intent.
func (r *Reply) SetIntent(i Intent) {
	r.Intent = &i
}

// AskFor records the next intake field and its prompt.
func (r *Reply) AskFor(f IntakeField, prompt string) {
	r.RequiresUserInfo = true
	r.NextField = &f
	r.InfoPrompt = &prompt
}

// Analysis is the NLU classification of a query.
type Analysis struct {
	Intent     Intent         `json:"intent"`
	Entities   map[string]any `json:"entities"`
	Confidence float64        `json:"confidence"`
}

// SummaryInput is everything the NLU needs to phrase a reply.
type SummaryInput struct {
	Query       string
	Intent      Intent
	Criteria    Criteria
	Properties  []Card
	Slots       []Slot
	Appointment *Appointment
	Err         ErrorKind
	History     []Message

	// Fallback is the locally built reply, used when the model is
	// unavailable or returns nothing usable.
	Fallback string
}

// Summary is the NLU-phrased reply text.
type Summary struct {
	Message          string   `json:"message"`
	SuggestedActions []string `json:"suggested_actions"`
}

// Message is one line of a conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	At      int64  `json:"at"`
}
