package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"calsched/internal/domain"
)

// Scope selects which events of a series a mutation reaches.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeFrom   Scope = "from"
	ScopeSeries Scope = "series"
)

func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScopeSingle, ScopeFrom, ScopeSeries:
		return sc, nil
	case "":
		return ScopeSingle, nil
	default:
		return "", fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidValue, s)
	}
}

// Anchor identifies the event a scoped mutation starts from. A zero End
// matches any end time.
type Anchor struct {
	Subject string
	Start   time.Time
	End     time.Time
}

func (a Anchor) String() string {
	s := fmt.Sprintf("%q at %s", a.Subject, a.Start.Format(domain.TimestampLayout))
	if !a.End.IsZero() {
		s += " to " + a.End.Format(domain.TimestampLayout)
	}
	return s
}

// Calendar holds events in insertion order. It is not safe for concurrent
// use; hosts serialize access.
type Calendar struct {
	loc    *time.Location
	events []domain.Event
}

func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

// Location is the zone new timestamp values are read in. It does not change
// the instants of stored events.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

func (c *Calendar) Len() int {
	return len(c.events)
}

// Add stores events. Either every event is stored or none is.
func (c *Calendar) Add(events ...domain.Event) error {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	c.events = append(c.events, events...)
	return nil
}

// All returns every stored event ordered by start time.
func (c *Calendar) All() []domain.Event {
	out := make([]domain.Event, len(c.events))
	copy(out, c.events)
	sortByStart(out)
	return out
}

// Events returns the events intersecting [from, to] ordered by start time.
func (c *Calendar) Events(from, to time.Time) []domain.Event {
	out := make([]domain.Event, 0)
	for _, e := range c.events {
		if e.Overlaps(from, to) {
			out = append(out, e)
		}
	}
	sortByStart(out)
	return out
}

// Busy reports whether any event covers the instant.
func (c *Calendar) Busy(at time.Time) bool {
	for _, e := range c.events {
		if e.Covers(at) {
			return true
		}
	}
	return false
}

// Edit applies one property change to the events selected by anchor and
// scope and returns the edited events. The change is validated against every
// selected event before any of them is replaced.
func (c *Calendar) Edit(anchor Anchor, scope Scope, property, value string) ([]domain.Event, error) {
	prop, err := domain.ParseProperty(property)
	if err != nil {
		return nil, err
	}

	var edited []domain.Event
	err = c.inTransaction(func(tx *calendarTx) error {
		idx, err := tx.find(anchor)
		if err != nil {
			return err
		}
		for _, i := range tx.affected(idx, scope) {
			e, err := tx.events[i].WithProperty(prop, value, c.loc)
			if err != nil {
				return err
			}
			tx.events[i] = e
			edited = append(edited, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByStart(edited)
	return edited, nil
}

// Delete removes the events selected by anchor and scope and returns how many
// were removed.
func (c *Calendar) Delete(anchor Anchor, scope Scope) (int, error) {
	var removed int
	err := c.inTransaction(func(tx *calendarTx) error {
		idx, err := tx.find(anchor)
		if err != nil {
			return err
		}
		drop := make(map[int]struct{})
		for _, i := range tx.affected(idx, scope) {
			drop[i] = struct{}{}
		}
		kept := tx.events[:0]
		for i, e := range tx.events {
			if _, ok := drop[i]; ok {
				continue
			}
			kept = append(kept, e)
		}
		tx.events = kept
		removed = len(drop)
		return nil
	})
	return removed, err
}

// calendarTx is a working copy of the event list. It replaces the calendar's
// events only when the transaction function succeeds.
type calendarTx struct {
	events []domain.Event
}

func (c *Calendar) inTransaction(fn func(tx *calendarTx) error) error {
	tx := &calendarTx{events: make([]domain.Event, len(c.events))}
	copy(tx.events, c.events)
	if err := fn(tx); err != nil {
		return err
	}
	c.events = tx.events
	return nil
}

// find returns the index of the first event, in insertion order, matching the
// anchor.
func (tx *calendarTx) find(anchor Anchor) (int, error) {
	for i, e := range tx.events {
		if e.Matches(anchor.Subject, anchor.Start, anchor.End) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrEventNotFound, anchor)
}

// affected resolves the scope around the anchor at idx. An anchor outside any
// series only ever affects itself.
func (tx *calendarTx) affected(idx int, scope Scope) []int {
	anchor := tx.events[idx]
	if scope == ScopeSingle || !anchor.IsSeries() {
		return []int{idx}
	}
	out := make([]int, 0)
	for i, e := range tx.events {
		if !e.SameSeries(anchor) {
			continue
		}
		if scope == ScopeFrom && e.Start.Before(anchor.Start) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func sortByStart(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].Subject < events[j].Subject
		}
		return events[i].Start.Before(events[j].Start)
	})
}
