package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDescription is stored when an event is created without one.
const DefaultDescription = "No description given"

// All-day events occupy a fixed working-hours window on their date.
const (
	AllDayStartHour = 8
	AllDayEndHour   = 17
)

type LocationType string

const (
	LocationUnknown  LocationType = "UNKNOWN"
	LocationPhysical LocationType = "PHYSICAL"
	LocationOnline   LocationType = "ONLINE"
)

type Status string

const (
	StatusUnknown Status = "UNKNOWN"
	StatusPublic  Status = "PUBLIC"
	StatusPrivate Status = "PRIVATE"
)

type EventType string

const (
	EventTypeSingle EventType = "SINGLE"
	EventTypeSeries EventType = "SERIES"
)

// Event is a single calendar occurrence. Events are values: edits produce a
// new Event rather than mutating a shared one.
type Event struct {
	Subject     string
	Start       time.Time
	End         time.Time
	Description string
	Location    LocationType
	Status      Status
	AllDay      bool
	SeriesID    uuid.UUID
}

// NewEvent builds a standalone event. All-day events are snapped to the
// AllDayStartHour..AllDayEndHour window of their start and end dates.
func NewEvent(subject string, start, end time.Time, allDay bool) (Event, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Event{}, fmt.Errorf("%w: subject is required", ErrInvalidEvent)
	}

	if allDay {
		start, end = AllDaySpan(start, end)
	} else if !end.After(start) {
		return Event{}, fmt.Errorf("%w: end must be after start", ErrInvalidInterval)
	}

	return Event{
		Subject:     subject,
		Start:       start,
		End:         end,
		Description: DefaultDescription,
		Location:    LocationUnknown,
		Status:      StatusUnknown,
		AllDay:      allDay,
	}, nil
}

// AllDaySpan returns the all-day window running from the date of start to the
// date of end, both in start's location. An end date before the start date
// collapses to a single day.
func AllDaySpan(start, end time.Time) (time.Time, time.Time) {
	loc := start.Location()
	end = end.In(loc)
	from := time.Date(start.Year(), start.Month(), start.Day(), AllDayStartHour, 0, 0, 0, loc)
	to := time.Date(end.Year(), end.Month(), end.Day(), AllDayEndHour, 0, 0, 0, loc)
	if to.Before(from) {
		to = time.Date(start.Year(), start.Month(), start.Day(), AllDayEndHour, 0, 0, 0, loc)
	}
	return from, to
}

func (e Event) Type() EventType {
	if e.IsSeries() {
		return EventTypeSeries
	}
	return EventTypeSingle
}

func (e Event) IsSeries() bool {
	return e.SeriesID != uuid.Nil
}

// SameSeries reports whether both events belong to one series.
func (e Event) SameSeries(other Event) bool {
	return e.IsSeries() && e.SeriesID == other.SeriesID
}

// Matches reports whether the event is identified by subject and start. A
// zero end matches any end time.
func (e Event) Matches(subject string, start, end time.Time) bool {
	if e.Subject != subject || !e.Start.Equal(start) {
		return false
	}
	return end.IsZero() || e.End.Equal(end)
}

// Overlaps reports whether the event intersects the closed range [from, to].
func (e Event) Overlaps(from, to time.Time) bool {
	return !e.Start.After(to) && !e.End.Before(from)
}

// Covers reports whether the instant falls inside [Start, End).
func (e Event) Covers(at time.Time) bool {
	return !at.Before(e.Start) && at.Before(e.End)
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidEvent)
	}
	if e.End.Before(e.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidInterval,
			e.End.Format(TimestampLayout), e.Start.Format(TimestampLayout))
	}
	return nil
}
