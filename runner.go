package rentbot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/propertytek/rentbot/pkg/domain"
)

// Chatter processes one conversation turn.
type Chatter interface {
	Handle(ctx context.Context, t domain.Turn) (*domain.Reply, error)
}

// ContentRenderer transforms reply markdown before it is written, so a
// terminal front end can render ANSI without coupling the core package.
type ContentRenderer func(string) (string, error)

// Runner is a line-oriented chat loop over provided IO. Plain lines are sent
// as queries; slash commands map onto explicit actions:
//
//	/details <id>   inquire about a listing
//	/book [id]      offer viewing slots
//	/slot <id>      pick a slot
//	/cancel         cancel the booking (or the intake, while recovering)
//	/restart        restart contact intake
//	/help           intake help
//	/new            start a new search
//	/quit           leave
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	UserID   string
	Headless bool
	Renderer ContentRenderer
}

// NewRunner creates a Runner for userID. Input and Output must be set
// before Run.
func NewRunner(userID string) *Runner {
	return &Runner{UserID: userID}
}

// Run reads lines until EOF, /quit or ctx is done.
func (r *Runner) Run(ctx context.Context, chat Chatter) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if r.UserID == "" {
		return fmt.Errorf("user id must be set")
	}
	lines := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintln(r.Output, "Tell me what you are looking for, e.g. \"2 bedroom in Austin under $1500\". /quit to leave.")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lines.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)
		if input == "" {
			if errors.Is(err, io.EOF) {
				return nil
			}
			continue
		}

		turn, quit := ParseInput(r.UserID, input)
		if quit {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}

		reply, herr := chat.Handle(ctx, turn)
		if herr != nil {
			if errors.Is(herr, domain.ErrInvalidTurn) {
				fmt.Fprintf(r.Output, "! %v\n", herr)
				continue
			}
			return fmt.Errorf("turn failed: %w", herr)
		}
		r.print(FormatReply(reply))

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (r *Runner) print(md string) {
	output := md
	if r.Renderer != nil {
		if rendered, err := r.Renderer(md); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}

// ParseInput turns one REPL line into a turn. quit is true for /quit and
// /exit.
func ParseInput(userID, line string) (t domain.Turn, quit bool) {
	t = domain.Turn{UserID: userID}
	if !strings.HasPrefix(line, "/") {
		if line == "exit" || line == "quit" {
			return t, true
		}
		t.Query = line
		return t, false
	}

	fields := strings.Fields(line)
	cmd, arg := strings.ToLower(fields[0]), ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}
	switch cmd {
	case "/quit", "/exit":
		return t, true
	case "/details":
		t.ActionType = domain.ActionInquire
		t.PropertyID = &arg
	case "/book":
		t.ActionType = domain.ActionBookSchedule
		if arg != "" {
			t.PropertyID = &arg
		}
	case "/slot":
		t.ActionType = domain.ActionSelectSlot
		t.SelectedSlot = &arg
	case "/cancel":
		t.IntakeCommand = domain.CommandCancel
	case "/restart":
		t.IntakeCommand = domain.CommandRestart
	case "/help":
		t.IntakeCommand = domain.CommandHelp
	case "/new":
		t.ActionType = domain.ActionNewSearch
		t.Query = arg
	default:
		t.Query = line
	}
	return t, false
}

// FormatReply renders a reply as markdown.
func FormatReply(rep *domain.Reply) string {
	var b strings.Builder
	b.WriteString(rep.Response)
	b.WriteString("\n")

	for _, c := range rep.Properties {
		if c.Property == nil {
			continue
		}
		p := c.Property
		fmt.Fprintf(&b, "\n- **%s** `%s`: %d bd, $%d/mo, pets: %s", p.Address, p.ID, p.Bedrooms, p.Rent, p.Pets)
	}
	if len(rep.Properties) > 0 && rep.Properties[0].SearchMessage != "" {
		fmt.Fprintf(&b, "\n\n_%s_", rep.Properties[0].SearchMessage)
	}

	if d := rep.PropertyDetails; d != nil {
		fmt.Fprintf(&b, "\n### %s\n\n%s\n\n", d.BasicInfo.Address, d.Description)
		fmt.Fprintf(&b, "- Rent: $%d/mo\n- Bedrooms: %d\n- Pets: %s\n", d.BasicInfo.Rent, d.BasicInfo.Bedrooms, d.BasicInfo.PetPolicy)
		if len(d.Amenities) > 0 {
			fmt.Fprintf(&b, "- Amenities: %s\n", strings.Join(d.Amenities, ", "))
		}
	}

	for _, s := range rep.AvailableSlots {
		fmt.Fprintf(&b, "\n- %s `/slot %s`", s.Display, s.ID)
	}

	if rep.InfoPrompt != nil {
		fmt.Fprintf(&b, "\n\n**%s**", *rep.InfoPrompt)
	}
	if a := rep.Appointment; a != nil {
		fmt.Fprintf(&b, "\n\nConfirmation `%s`", a.ID)
	}
	if len(rep.SuggestedActions) > 0 {
		fmt.Fprintf(&b, "\n\n> %s", strings.Join(rep.SuggestedActions, " · "))
	}
	return b.String()
}
