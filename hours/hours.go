// Package hours decides whether ordering is currently allowed based on the
// store's weekly schedule.
package hours

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront-api/models"
)

// Status is the result of an ordering-allowed check.
type Status struct {
	Allowed  bool       `json:"allowed"`
	Message  string     `json:"message"`
	NextOpen *time.Time `json:"next_open,omitempty"`
}

// Checker evaluates a weekly schedule. The zero value is unusable; build one
// with New from the persisted settings blob.
type Checker struct {
	schedule models.BusinessHours
}

func New(schedule models.BusinessHours) *Checker {
	return &Checker{schedule: schedule}
}

// OrderingAllowed reports whether now falls inside today's [open, close)
// window. When closed it scans forward up to seven days for the next opening.
func (c *Checker) OrderingAllowed(now time.Time) Status {
	day := c.schedule.Days[now.Weekday()]
	if day.IsOpen {
		open, openErr := atTime(now, day.OpenTime)
		closing, closeErr := atTime(now, day.CloseTime)
		if openErr == nil && closeErr == nil && !now.Before(open) && now.Before(closing) {
			return Status{Allowed: true, Message: "open"}
		}
		// before today's opening still counts as "next open today"
		if openErr == nil && now.Before(open) {
			return Status{
				Allowed:  false,
				Message:  fmt.Sprintf("store is closed, opens at %s", open.Format("15:04")),
				NextOpen: &open,
			}
		}
	}

	next := c.nextOpen(now)
	if next == nil {
		return Status{Allowed: false, Message: "store is closed"}
	}
	return Status{
		Allowed:  false,
		Message:  fmt.Sprintf("store is closed, opens %s at %s", next.Weekday(), next.Format("15:04")),
		NextOpen: next,
	}
}

// nextOpen finds the earliest opening strictly after now, within 7 days.
func (c *Checker) nextOpen(now time.Time) *time.Time {
	for i := 1; i <= 7; i++ {
		candidate := now.AddDate(0, 0, i)
		day := c.schedule.Days[candidate.Weekday()]
		if !day.IsOpen {
			continue
		}
		open, err := atTime(candidate, day.OpenTime)
		if err != nil {
			continue
		}
		return &open
	}
	return nil
}

// FormatWeek renders the schedule for storefront display.
func (c *Checker) FormatWeek() string {
	var b strings.Builder
	// start the listing on Monday
	for i := 1; i <= 7; i++ {
		wd := time.Weekday(i % 7)
		day := c.schedule.Days[wd]
		if i > 1 {
			b.WriteString("\n")
		}
		if !day.IsOpen {
			fmt.Fprintf(&b, "%s: closed", wd)
			continue
		}
		fmt.Fprintf(&b, "%s: %s - %s", wd, day.OpenTime, day.CloseTime)
	}
	return b.String()
}

// atTime combines the date of ref with an "HH:MM" clock value in ref's location.
func atTime(ref time.Time, hhmm string) (time.Time, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time %q", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return time.Time{}, fmt.Errorf("invalid hour in %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), h, m, 0, 0, ref.Location()), nil
}
