package store

import (
	"errors"
	"testing"
	"time"

	"calsched/internal/domain"
)

func date(day, hour, minute int) time.Time {
	return time.Date(2025, 11, day, hour, minute, 0, 0, time.UTC)
}

func newStandupCalendar(t *testing.T) (*Calendar, []domain.Event) {
	t.Helper()
	until := time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)
	series, err := domain.GenerateSeries(domain.SeriesSpec{
		Subject:  "Standup",
		Start:    date(3, 9, 0),
		End:      date(3, 9, 15),
		Weekdays: "MWF",
		Until:    &until,
	})
	if err != nil {
		t.Fatalf("GenerateSeries error: %v", err)
	}
	cal := NewCalendar(time.UTC)
	if err := cal.Add(series...); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	return cal, series
}

func TestCalendar_SingleEventDayQuery(t *testing.T) {
	cal := NewCalendar(time.UTC)
	e, err := domain.NewEvent("Meeting", date(3, 9, 0), date(3, 10, 0), false)
	if err != nil {
		t.Fatalf("NewEvent error: %v", err)
	}
	if err := cal.Add(e); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	got := cal.Events(date(3, 0, 0), time.Date(2025, 11, 3, 23, 59, 59, 0, time.UTC))
	if len(got) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(got))
	}
	if got[0].Subject != "Meeting" || !got[0].Start.Equal(date(3, 9, 0)) || !got[0].End.Equal(date(3, 10, 0)) {
		t.Fatalf("event = %+v, want Meeting 09:00..10:00", got[0])
	}
	if other := cal.Events(date(4, 0, 0), date(4, 23, 59)); len(other) != 0 {
		t.Fatalf("len(next day events) = %d, want 0", len(other))
	}
}

func TestCalendar_AddRejectsInvertedInterval(t *testing.T) {
	cal := NewCalendar(nil)
	good := domain.Event{Subject: "ok", Start: date(3, 9, 0), End: date(3, 10, 0)}
	bad := domain.Event{Subject: "bad", Start: date(3, 9, 0), End: date(3, 8, 0)}
	if err := cal.Add(good, bad); !errors.Is(err, domain.ErrInvalidInterval) {
		t.Fatalf("error = %v, want %v", err, domain.ErrInvalidInterval)
	}
	if cal.Len() != 0 {
		t.Fatalf("Len = %d, want 0", cal.Len())
	}
}

func TestCalendar_OverlapsAllowed(t *testing.T) {
	cal := NewCalendar(time.UTC)
	a := domain.Event{Subject: "a", Start: date(3, 9, 0), End: date(3, 11, 0)}
	b := domain.Event{Subject: "b", Start: date(3, 10, 0), End: date(3, 12, 0)}
	if err := cal.Add(b, a); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	got := cal.Events(date(3, 0, 0), date(3, 23, 0))
	if len(got) != 2 || got[0].Subject != "a" || got[1].Subject != "b" {
		t.Fatalf("events = %+v, want a then b", got)
	}
	if !cal.Busy(date(3, 10, 30)) || cal.Busy(date(3, 12, 0)) {
		t.Fatalf("Busy mismatch")
	}
}

func TestCalendar_EditFromKeepsEarlierOccurrences(t *testing.T) {
	cal, _ := newStandupCalendar(t)

	edited, err := cal.Edit(Anchor{Subject: "Standup", Start: date(10, 9, 0)}, ScopeFrom, "description", "new agenda")
	if err != nil {
		t.Fatalf("Edit error: %v", err)
	}
	if len(edited) != 4 {
		t.Fatalf("len(edited) = %d, want 4", len(edited))
	}

	for _, e := range cal.All() {
		want := domain.DefaultDescription
		if e.Start.Day() >= 10 {
			want = "new agenda"
		}
		if e.Description != want {
			t.Fatalf("%v description = %q, want %q", e.Start, e.Description, want)
		}
	}
}

func TestCalendar_EditSeriesReachesEveryOccurrence(t *testing.T) {
	cal, _ := newStandupCalendar(t)

	edited, err := cal.Edit(Anchor{Subject: "Standup", Start: date(12, 9, 0)}, ScopeSeries, "location", "online")
	if err != nil {
		t.Fatalf("Edit error: %v", err)
	}
	if len(edited) != 7 {
		t.Fatalf("len(edited) = %d, want 7", len(edited))
	}
	for _, e := range cal.All() {
		if e.Location != domain.LocationOnline {
			t.Fatalf("%v location = %s, want %s", e.Start, e.Location, domain.LocationOnline)
		}
	}
}

func TestCalendar_EditSingleRequiresExactEnd(t *testing.T) {
	cal, _ := newStandupCalendar(t)

	_, err := cal.Edit(Anchor{Subject: "Standup", Start: date(5, 9, 0), End: date(5, 9, 30)}, ScopeSingle, "subject", "x")
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrEventNotFound)
	}

	edited, err := cal.Edit(Anchor{Subject: "Standup", Start: date(5, 9, 0), End: date(5, 9, 15)}, ScopeSingle, "subject", "Retro")
	if err != nil {
		t.Fatalf("Edit error: %v", err)
	}
	if len(edited) != 1 || edited[0].Subject != "Retro" {
		t.Fatalf("edited = %+v, want one Retro", edited)
	}
	if !edited[0].IsSeries() {
		t.Fatalf("single edit detached the occurrence from its series")
	}
}

func TestCalendar_EditSeriesStartAppliesSameAbsoluteValue(t *testing.T) {
	cal := NewCalendar(time.UTC)
	count := 2
	series, err := domain.GenerateSeries(domain.SeriesSpec{
		Subject:  "Gym",
		Start:    date(3, 18, 0),
		End:      date(3, 19, 0),
		Weekdays: "M",
		Count:    &count,
	})
	if err != nil {
		t.Fatalf("GenerateSeries error: %v", err)
	}
	if err := cal.Add(series...); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	// Both occurrences end on or after the 3rd at 19:00, so one absolute
	// start stays valid for each.
	_, err = cal.Edit(Anchor{Subject: "Gym", Start: date(3, 18, 0)}, ScopeSeries, "start", "2025-11-03T17:00")
	if err != nil {
		t.Fatalf("Edit error: %v", err)
	}
	for _, e := range cal.All() {
		if !e.Start.Equal(date(3, 17, 0)) {
			t.Fatalf("start = %v, want %v", e.Start, date(3, 17, 0))
		}
	}
}

func TestCalendar_EditIsAllOrNothing(t *testing.T) {
	cal, _ := newStandupCalendar(t)
	before := cal.All()

	// Pushing every end to the 8th inverts the later occurrences.
	_, err := cal.Edit(Anchor{Subject: "Standup", Start: date(3, 9, 0)}, ScopeSeries, "end", "2025-11-08T10:00")
	if !errors.Is(err, domain.ErrInvalidInterval) {
		t.Fatalf("error = %v, want %v", err, domain.ErrInvalidInterval)
	}

	after := cal.All()
	if len(after) != len(before) {
		t.Fatalf("len = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if !after[i].End.Equal(before[i].End) {
			t.Fatalf("event %d end changed to %v after failed edit", i, after[i].End)
		}
	}
}

func TestCalendar_EditErrors(t *testing.T) {
	cal, _ := newStandupCalendar(t)

	tests := []struct {
		name     string
		anchor   Anchor
		property string
		value    string
		wantErr  error
	}{
		{"unknown property", Anchor{Subject: "Standup", Start: date(3, 9, 0)}, "colour", "red", domain.ErrInvalidProperty},
		{"unknown anchor", Anchor{Subject: "Standup", Start: date(4, 9, 0)}, "subject", "x", ErrEventNotFound},
		{"bad timestamp", Anchor{Subject: "Standup", Start: date(3, 9, 0)}, "start", "soon", domain.ErrInvalidValue},
		{"bad enum", Anchor{Subject: "Standup", Start: date(3, 9, 0)}, "status", "hidden", domain.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cal.Edit(tt.anchor, ScopeFrom, tt.property, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCalendar_DeleteSingleKeepsSeries(t *testing.T) {
	cal, series := newStandupCalendar(t)

	n, err := cal.Delete(Anchor{Subject: "Standup", Start: date(7, 9, 0), End: date(7, 9, 15)}, ScopeSingle)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if n != 1 {
		t.Fatalf("removed = %d, want 1", n)
	}

	rest := cal.All()
	if len(rest) != len(series)-1 {
		t.Fatalf("len = %d, want %d", len(rest), len(series)-1)
	}
	for _, e := range rest {
		if e.Start.Day() == 7 {
			t.Fatalf("deleted occurrence still present")
		}
		if e.SeriesID != series[0].SeriesID {
			t.Fatalf("series id changed for %v", e.Start)
		}
	}
}

func TestCalendar_DeleteFrom(t *testing.T) {
	cal, _ := newStandupCalendar(t)

	n, err := cal.Delete(Anchor{Subject: "Standup", Start: date(12, 9, 0)}, ScopeFrom)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if n != 3 {
		t.Fatalf("removed = %d, want 3", n)
	}
	for _, e := range cal.All() {
		if e.Start.Day() >= 12 {
			t.Fatalf("occurrence on %v should be gone", e.Start)
		}
	}
}

func TestCalendar_DeleteSeriesTwice(t *testing.T) {
	cal, _ := newStandupCalendar(t)
	other := domain.Event{Subject: "Lunch", Start: date(5, 12, 0), End: date(5, 13, 0)}
	if err := cal.Add(other); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	anchor := Anchor{Subject: "Standup", Start: date(5, 9, 0)}
	n, err := cal.Delete(anchor, ScopeSeries)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if n != 7 {
		t.Fatalf("removed = %d, want 7", n)
	}
	snapshot := cal.All()

	if _, err := cal.Delete(anchor, ScopeSeries); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("second delete error = %v, want %v", err, ErrEventNotFound)
	}
	after := cal.All()
	if len(after) != 1 || len(snapshot) != 1 || after[0].Subject != "Lunch" {
		t.Fatalf("calendar changed by failed delete: %+v", after)
	}
}

func TestCalendar_FromScopeOnSingleEventOnlyTouchesIt(t *testing.T) {
	cal := NewCalendar(time.UTC)
	a := domain.Event{Subject: "a", Start: date(3, 9, 0), End: date(3, 10, 0)}
	b := domain.Event{Subject: "b", Start: date(4, 9, 0), End: date(4, 10, 0)}
	if err := cal.Add(a, b); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	n, err := cal.Delete(Anchor{Subject: "a", Start: date(3, 9, 0)}, ScopeSeries)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if n != 1 || cal.Len() != 1 {
		t.Fatalf("removed = %d, remaining = %d, want 1 and 1", n, cal.Len())
	}
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopeSingle, "single": ScopeSingle, "FROM": ScopeFrom, " series ": ScopeSeries} {
		got, err := ParseScope(in)
		if err != nil || got != want {
			t.Fatalf("ParseScope(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseScope("all"); !errors.Is(err, domain.ErrInvalidValue) {
		t.Fatalf("error = %v, want %v", err, domain.ErrInvalidValue)
	}
}
