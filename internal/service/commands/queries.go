package commands

import (
	"time"

	"calsched/internal/domain"
	"calsched/internal/store"
)

// EventView is the read-only shape of an event handed to front ends. Times
// are in the calendar's timezone.
type EventView struct {
	Subject     string
	Start       time.Time
	End         time.Time
	Description string
	Location    domain.LocationType
	Status      domain.Status
	AllDay      bool
	IsSeries    bool
}

// Availability is the answer to a status query.
type Availability string

const (
	Busy      Availability = "busy"
	Available Availability = "available"
)

// CalendarsView lists the registered calendars.
type CalendarsView struct {
	Names    []string
	Active   string
	Timezone string
}

// DayEvents returns the active calendar's events intersecting the calendar
// date of day.
func (h *Handler) DayEvents(day time.Time) ([]EventView, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cal, err := h.container.Active()
	if err != nil {
		return nil, err
	}
	from := startOfDay(day, cal.Location())
	return views(cal, from, from.AddDate(0, 0, 1).Add(-time.Second)), nil
}

// MonthEvents groups the month's events by their start date, formatted as
// domain.DateLayout.
func (h *Handler) MonthEvents(year int, month time.Month) (map[string][]EventView, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cal, err := h.container.Active()
	if err != nil {
		return nil, err
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, cal.Location())
	to := from.AddDate(0, 1, 0).Add(-time.Second)

	out := make(map[string][]EventView)
	for _, v := range views(cal, from, to) {
		key := v.Start.Format(domain.DateLayout)
		out[key] = append(out[key], v)
	}
	return out, nil
}

// RangeEvents returns the events intersecting [from, to].
func (h *Handler) RangeEvents(from, to time.Time) ([]EventView, error) {
	if to.Before(from) {
		return nil, validationError("range end must not be before its start")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	cal, err := h.container.Active()
	if err != nil {
		return nil, err
	}
	return views(cal, from, to), nil
}

// Status reports whether any event of the active calendar covers at.
func (h *Handler) Status(at time.Time) (Availability, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cal, err := h.container.Active()
	if err != nil {
		return "", err
	}
	if cal.Busy(at) {
		return Busy, nil
	}
	return Available, nil
}

func (h *Handler) Calendars() CalendarsView {
	h.mu.Lock()
	defer h.mu.Unlock()

	v := CalendarsView{Names: h.container.Names(), Active: h.container.ActiveName()}
	if cal, err := h.container.Active(); err == nil {
		v.Timezone = cal.Location().String()
	}
	return v
}

// ActiveLocation is the timezone query values are read in. Without an active
// calendar it is UTC.
func (h *Handler) ActiveLocation() *time.Location {
	h.mu.Lock()
	defer h.mu.Unlock()

	cal, err := h.container.Active()
	if err != nil {
		return time.UTC
	}
	return cal.Location()
}

func views(cal *store.Calendar, from, to time.Time) []EventView {
	events := cal.Events(from, to)
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, EventView{
			Subject:     e.Subject,
			Start:       e.Start.In(cal.Location()),
			End:         e.End.In(cal.Location()),
			Description: e.Description,
			Location:    e.Location,
			Status:      e.Status,
			AllDay:      e.AllDay,
			IsSeries:    e.IsSeries(),
		})
	}
	return out
}

// startOfDay keeps the calendar date of t as written and anchors it in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
