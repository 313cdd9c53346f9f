package catalog

import (
	"time"

	"github.com/propertytek/rentbot/pkg/domain"
)

const (
	slotDays  = 7
	slotLimit = 10
)

var slotHours = []int{9, 11, 14, 16}

// SlotGenerator produces viewing times starting the day after "now".
type SlotGenerator struct {
	Now      func() time.Time
	Location *time.Location
}

// Slots returns up to ten viewing slots over the next seven days.
func (g SlotGenerator) Slots() []domain.Slot {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	loc := g.Location
	if loc == nil {
		loc = time.Local
	}
	today := now().In(loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	out := make([]domain.Slot, 0, slotLimit)
	for d := 1; d <= slotDays; d++ {
		day := start.AddDate(0, 0, d)
		for _, h := range slotHours {
			if len(out) == slotLimit {
				return out
			}
			at := day.Add(time.Duration(h) * time.Hour)
			out = append(out, domain.Slot{
				ID:        at.Format("2006-01-02_15:04"),
				Display:   at.Format("Monday, January 02 at 3:04 PM"),
				DateTime:  at.Format("2006-01-02 15:04:05"),
				Available: true,
			})
		}
	}
	return out
}
