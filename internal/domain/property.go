package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	TimestampLayout = "2006-01-02T15:04"
	DateLayout      = "2006-01-02"
)

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

type Property string

const (
	PropertySubject     Property = "subject"
	PropertyStart       Property = "start"
	PropertyEnd         Property = "end"
	PropertyDescription Property = "description"
	PropertyLocation    Property = "location"
	PropertyStatus      Property = "status"
)

func ParseProperty(s string) (Property, error) {
	switch p := Property(strings.ToLower(strings.TrimSpace(s))); p {
	case PropertySubject, PropertyStart, PropertyEnd, PropertyDescription, PropertyLocation, PropertyStatus:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidProperty, s)
	}
}

func ParseLocation(s string) (LocationType, error) {
	switch l := LocationType(strings.ToUpper(strings.TrimSpace(s))); l {
	case LocationUnknown, LocationPhysical, LocationOnline:
		return l, nil
	default:
		return "", fmt.Errorf("%w: unknown location %q", ErrInvalidValue, s)
	}
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusUnknown, StatusPublic, StatusPrivate:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidValue, s)
	}
}

// ParseTimestamp reads a local date-time (or a bare date, meaning midnight)
// in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: malformed timestamp %q", ErrInvalidValue, s)
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed date %q", ErrInvalidValue, s)
	}
	return t, nil
}

// WithProperty returns a copy of e with one property replaced. Timestamps are
// read in loc.
func (e Event) WithProperty(p Property, value string, loc *time.Location) (Event, error) {
	switch p {
	case PropertySubject:
		subject := strings.TrimSpace(value)
		if subject == "" {
			return Event{}, fmt.Errorf("%w: subject must not be empty", ErrInvalidValue)
		}
		e.Subject = subject
	case PropertyStart, PropertyEnd:
		t, err := ParseTimestamp(value, loc)
		if err != nil {
			return Event{}, err
		}
		if p == PropertyStart {
			e.Start = t
		} else {
			e.End = t
		}
		if e.End.Before(e.Start) {
			return Event{}, fmt.Errorf("%w: %q would end at %s before it starts at %s", ErrInvalidInterval,
				e.Subject, e.End.Format(TimestampLayout), e.Start.Format(TimestampLayout))
		}
	case PropertyDescription:
		if strings.TrimSpace(value) == "" {
			value = DefaultDescription
		}
		e.Description = value
	case PropertyLocation:
		l, err := ParseLocation(value)
		if err != nil {
			return Event{}, err
		}
		e.Location = l
	case PropertyStatus:
		st, err := ParseStatus(value)
		if err != nil {
			return Event{}, err
		}
		e.Status = st
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidProperty, p)
	}
	return e, nil
}
