package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"calsched/internal/domain"
)

const (
	icalProductID  = "-//calsched//Calendar Export//EN"
	icalDateLayout = "20060102"
)

// propertySeriesID carries the series identifier so a re-read calendar keeps
// its grouping.
const propertySeriesID = ical.ComponentProperty("X-CALSCHED-SERIES-ID")

// WriteICal renders events as one VCALENDAR with a VEVENT per event. Timed
// events are written in UTC, all-day events as DATE values with an exclusive
// end date.
func WriteICal(w io.Writer, name string, events []domain.Event, loc *time.Location, stamp time.Time) error {
	if loc == nil {
		loc = time.UTC
	}
	cal := ical.NewCalendar()
	cal.SetProductId(icalProductID)
	cal.SetMethod(ical.MethodPublish)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	cal.SetXWRTimezone(loc.String())

	for i, e := range events {
		ve := cal.AddEvent(eventUID(i, e))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Subject)
		if e.AllDay {
			start, end := e.Start.In(loc), e.End.In(loc)
			ve.SetAllDayStartAt(start)
			ve.SetAllDayEndAt(time.Date(end.Year(), end.Month(), end.Day()+1, 0, 0, 0, 0, loc))
		} else {
			ve.SetStartAt(e.Start)
			ve.SetEndAt(e.End)
		}
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != domain.LocationUnknown && e.Location != "" {
			ve.SetLocation(string(e.Location))
		}
		switch e.Status {
		case domain.StatusPublic:
			ve.SetClass(ical.ClassificationPublic)
		case domain.StatusPrivate:
			ve.SetClass(ical.ClassificationPrivate)
		}
		if e.IsSeries() {
			ve.SetProperty(propertySeriesID, e.SeriesID.String())
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("write ical: %w", err)
	}
	return nil
}

// ReadICal parses a VCALENDAR back into events. All-day entries are read as
// dates in loc and snapped to the all-day window.
func ReadICal(r io.Reader, loc *time.Location) ([]domain.Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse ical: %w", err)
	}

	events := make([]domain.Event, 0)
	for _, ve := range cal.Events() {
		e, err := icalEvent(ve, loc)
		if err != nil {
			return nil, fmt.Errorf("parse vevent %q: %w", ve.Id(), err)
		}
		events = append(events, e)
	}
	return events, nil
}

func icalEvent(ve *ical.VEvent, loc *time.Location) (domain.Event, error) {
	e := domain.Event{
		Description: domain.DefaultDescription,
		Location:    domain.LocationUnknown,
		Status:      domain.StatusUnknown,
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		e.Subject = strings.TrimSpace(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return domain.Event{}, fmt.Errorf("%w: missing DTSTART", domain.ErrInvalidEvent)
	}
	e.AllDay = isDateValue(dtStart)

	if e.AllDay {
		start, err := icalDate(dtStart.Value, loc)
		if err != nil {
			return domain.Event{}, err
		}
		end := start
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			exclusive, err := icalDate(p.Value, loc)
			if err != nil {
				return domain.Event{}, err
			}
			end = exclusive.AddDate(0, 0, -1)
		}
		e.Start, e.End = domain.AllDaySpan(start, end)
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
		}
		end := start
		if ve.HasProperty(ical.ComponentPropertyDtEnd) {
			if end, err = ve.GetEndAt(); err != nil {
				return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
			}
		}
		e.Start, e.End = start.In(loc), end.In(loc)
	}

	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil && p.Value != "" {
		e.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil && p.Value != "" {
		if l, err := domain.ParseLocation(p.Value); err == nil {
			e.Location = l
		} else {
			e.Location = domain.LocationPhysical
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyClass); p != nil {
		switch ical.Classification(strings.ToUpper(p.Value)) {
		case ical.ClassificationPublic:
			e.Status = domain.StatusPublic
		case ical.ClassificationPrivate, ical.ClassificationConfidential:
			e.Status = domain.StatusPrivate
		}
	}
	if p := ve.GetProperty(propertySeriesID); p != nil {
		id, err := uuid.Parse(strings.TrimSpace(p.Value))
		if err != nil {
			return domain.Event{}, fmt.Errorf("%w: series id %q", domain.ErrInvalidValue, p.Value)
		}
		e.SeriesID = id
	}

	if err := e.Validate(); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

// isDateValue detects DATE values the same way calendar clients do: an
// explicit VALUE=DATE parameter or a value without a time part.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func icalDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) < len(icalDateLayout) {
		return time.Time{}, fmt.Errorf("%w: malformed date %q", domain.ErrInvalidValue, value)
	}
	t, err := time.ParseInLocation(icalDateLayout, value[:len(icalDateLayout)], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed date %q", domain.ErrInvalidValue, value)
	}
	return t, nil
}

// eventUID is stable for a given event and position, so repeated exports of
// an unchanged calendar produce the same identifiers.
func eventUID(i int, e domain.Event) string {
	key := fmt.Sprintf("calsched:event:%d:%s:%d:%d", i, e.Subject, e.Start.Unix(), e.End.Unix())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String() + "@calsched"
}
