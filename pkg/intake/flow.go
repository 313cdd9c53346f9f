package intake

import (
	"errors"
	"fmt"

	"github.com/propertytek/rentbot/pkg/domain"
)

// Intro opens the intake.
const Intro = "To complete your booking, please provide the following information:"

// Outcome reports the effect of one submission or command.
type Outcome struct {
	// Accepted lists the fields stored by this submission, in order.
	Accepted []domain.IntakeField
	// Failed is the field that failed validation, if any.
	Failed domain.IntakeField
	// Err is the validation error for Failed.
	Err error
	// Recovery is set when the intake is in the recovery sub-state.
	Recovery bool
	// Complete is set when all fields hold valid values.
	Complete bool
	// Message is the user-facing text.
	Message string
}

// Submit feeds values into the intake starting at NextField. Values come
// from the structured record; text answers the current field when the record
// leaves it empty. Processing stops at the first missing or invalid field.
// While recovering nothing is validated and the menu is repeated.
func Submit(in *domain.Intake, values domain.Contact, text string) Outcome {
	ensure(in)
	if in.Recovering {
		return Outcome{Recovery: true, Failed: in.FailedField, Message: RecoveryMenu(in.FailedField)}
	}

	var out Outcome
	current := in.NextField
	for _, f := range remaining(current) {
		v := values.Get(f)
		if v == "" && f == current {
			v = FromText(f, text)
		}
		if v == "" {
			break
		}

		norm, err := Validate(f, v)
		if err != nil {
			in.Failures[f]++
			in.ValidationErrors[f] = errMessage(err)
			out.Failed = f
			out.Err = err
			if in.Failures[f] >= MaxRetries {
				in.Recovering = true
				in.FailedField = f
				out.Recovery = true
				out.Message = RecoveryMenu(f)
				return out
			}
			out.Message = fmt.Sprintf("Invalid %s: %s. Please try again (%d of %d attempts used).",
				f, errMessage(err), in.Failures[f], MaxRetries)
			return out
		}

		in.Contact.Set(f, norm)
		delete(in.ValidationErrors, f)
		in.NextField = next(f)
		out.Accepted = append(out.Accepted, f)
	}

	if in.NextField == "" {
		out.Complete = true
		return out
	}
	out.Message = Prompt(in.NextField)
	return out
}

// Apply runs a recovery command that the intake owns. Cancel belongs to the
// booking controller and is rejected here.
func Apply(in *domain.Intake, cmd domain.Command) (Outcome, error) {
	ensure(in)
	switch cmd {
	case domain.CommandHelp:
		f := in.FailedField
		if f == "" {
			f = in.NextField
		}
		if f != "" {
			in.Failures[f] = 0
		}
		in.Recovering = false
		in.FailedField = ""
		return Outcome{Message: fmt.Sprintf("%s %s", Rule(f), Prompt(f))}, nil
	case domain.CommandRestart:
		*in = *domain.NewIntake()
		return Outcome{Message: "Let's start over. " + Prompt(in.NextField)}, nil
	}
	return Outcome{}, domain.NewError(domain.KindInvalidAction, fmt.Sprintf("%q is not an intake command", cmd))
}

// Complete reports whether every field holds a valid value.
func Complete(in *domain.Intake) bool {
	if in == nil {
		return false
	}
	for _, f := range domain.IntakeOrder {
		if _, err := Validate(f, in.Contact.Get(f)); err != nil {
			return false
		}
	}
	return true
}

// RecoveryMenu is shown once a field has used up its attempts.
func RecoveryMenu(f domain.IntakeField) string {
	return fmt.Sprintf("We couldn't validate your %s after %d attempts. Reply \"help\" to see what we need, "+
		"\"restart\" to start the form over, or \"cancel\" to stop this booking.", f, MaxRetries)
}

func remaining(from domain.IntakeField) []domain.IntakeField {
	for i, f := range domain.IntakeOrder {
		if f == from {
			return domain.IntakeOrder[i:]
		}
	}
	return nil
}

func next(f domain.IntakeField) domain.IntakeField {
	for i, g := range domain.IntakeOrder {
		if g == f && i+1 < len(domain.IntakeOrder) {
			return domain.IntakeOrder[i+1]
		}
	}
	return ""
}

func ensure(in *domain.Intake) {
	if in.Failures == nil {
		in.Failures = make(map[domain.IntakeField]int)
	}
	if in.ValidationErrors == nil {
		in.ValidationErrors = make(map[domain.IntakeField]string)
	}
}

func errMessage(err error) string {
	var e *domain.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
