package domain

import (
	"errors"
	"testing"
	"time"
)

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func TestGenerateSeries_Validation(t *testing.T) {
	base := SeriesSpec{
		Subject:  "Standup",
		Start:    time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 11, 3, 9, 15, 0, 0, time.UTC),
		Weekdays: "MWF",
		Until:    timePtr(time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)),
	}

	tests := []struct {
		name    string
		spec    SeriesSpec
		wantErr error
	}{
		{
			name: "empty weekday set",
			spec: func() SeriesSpec {
				s := base
				s.Weekdays = ""
				return s
			}(),
			wantErr: ErrInvalidRecurrence,
		},
		{
			name: "unknown weekday token",
			spec: func() SeriesSpec {
				s := base
				s.Weekdays = "MX"
				return s
			}(),
			wantErr: ErrInvalidRecurrence,
		},
		{
			name: "missing termination",
			spec: func() SeriesSpec {
				s := base
				s.Until = nil
				return s
			}(),
			wantErr: ErrInvalidRecurrence,
		},
		{
			name: "zero count",
			spec: func() SeriesSpec {
				s := base
				s.Until = nil
				s.Count = intPtr(0)
				return s
			}(),
			wantErr: ErrInvalidRecurrence,
		},
		{
			name: "until before start",
			spec: func() SeriesSpec {
				s := base
				s.Until = timePtr(time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC))
				return s
			}(),
			wantErr: ErrInvalidRecurrence,
		},
		{
			name: "no matching weekday before until",
			spec: func() SeriesSpec {
				s := base
				s.Weekdays = "S"
				s.Until = timePtr(time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC))
				return s
			}(),
			wantErr: ErrInvalidRecurrence,
		},
		{
			name: "end time before start time",
			spec: func() SeriesSpec {
				s := base
				s.End = time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)
				return s
			}(),
			wantErr: ErrInvalidRecurrence,
		},
		{
			name: "spans two days",
			spec: func() SeriesSpec {
				s := base
				s.End = time.Date(2025, 11, 4, 9, 30, 0, 0, time.UTC)
				return s
			}(),
			wantErr: ErrInvalidRecurrence,
		},
		{
			name: "blank subject",
			spec: func() SeriesSpec {
				s := base
				s.Subject = "  "
				return s
			}(),
			wantErr: ErrInvalidEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSeries(tt.spec)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateSeries_UntilMondayWednesdayFriday(t *testing.T) {
	events, err := GenerateSeries(SeriesSpec{
		Subject:  "Standup",
		Start:    time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 11, 3, 9, 15, 0, 0, time.UTC),
		Weekdays: "MWF",
		Until:    timePtr(time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("GenerateSeries error: %v", err)
	}

	wantDays := []int{3, 5, 7, 10, 12, 14, 17}
	if len(events) != len(wantDays) {
		t.Fatalf("len(events) = %d, want %d", len(events), len(wantDays))
	}
	seriesID := events[0].SeriesID
	if !events[0].IsSeries() {
		t.Fatalf("expected series events")
	}
	for i, e := range events {
		if e.Start.Day() != wantDays[i] || e.Start.Month() != time.November {
			t.Fatalf("events[%d].Start = %v, want 2025-11-%02d", i, e.Start, wantDays[i])
		}
		if e.Start.Hour() != 9 || e.Start.Minute() != 0 || e.End.Hour() != 9 || e.End.Minute() != 15 {
			t.Fatalf("events[%d] span = %v..%v, want 09:00..09:15", i, e.Start, e.End)
		}
		if e.SeriesID != seriesID {
			t.Fatalf("events[%d].SeriesID = %s, want %s", i, e.SeriesID, seriesID)
		}
		if e.Type() != EventTypeSeries {
			t.Fatalf("events[%d].Type() = %s, want %s", i, e.Type(), EventTypeSeries)
		}
	}
}

func TestGenerateSeries_UntilPropertyHoldsForEveryMask(t *testing.T) {
	start := time.Date(2025, 11, 5, 14, 0, 0, 0, time.UTC)
	until := time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC)
	lastDay := until.AddDate(0, 0, 1)

	for _, mask := range []string{"M", "T", "W", "R", "F", "S", "U", "MTWRFSU", "TR", "SU", "wf"} {
		t.Run(mask, func(t *testing.T) {
			allowed, err := ParseWeekdays(mask)
			if err != nil {
				t.Fatalf("ParseWeekdays error: %v", err)
			}
			events, err := GenerateSeries(SeriesSpec{
				Subject:  "x",
				Start:    start,
				End:      start.Add(time.Hour),
				Weekdays: mask,
				Until:    &until,
			})
			if err != nil {
				t.Fatalf("GenerateSeries error: %v", err)
			}
			if len(events) == 0 {
				t.Fatalf("expected at least one event")
			}
			for _, e := range events {
				if !containsWeekday(allowed, e.Start.Weekday()) {
					t.Fatalf("event on %s, mask %q", e.Start.Weekday(), mask)
				}
				if !e.Start.Before(lastDay) {
					t.Fatalf("event at %v is after until %v", e.Start, until)
				}
				if e.Start.Before(start) {
					t.Fatalf("event at %v is before start %v", e.Start, start)
				}
				if e.SeriesID != events[0].SeriesID {
					t.Fatalf("series id mismatch")
				}
			}
		})
	}
}

func TestGenerateSeries_CountIgnoresUntil(t *testing.T) {
	events, err := GenerateSeries(SeriesSpec{
		Subject:  "Gym",
		Start:    time.Date(2025, 11, 4, 18, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 11, 4, 19, 0, 0, 0, time.UTC),
		Weekdays: "TR",
		Count:    intPtr(5),
		Until:    timePtr(time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("GenerateSeries error: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("len(events) = %d, want 5", len(events))
	}
	for i := 1; i < len(events); i++ {
		if !events[i-1].Start.Before(events[i].Start) {
			t.Fatalf("events not ordered: %v then %v", events[i-1].Start, events[i].Start)
		}
	}
	if got := events[4].Start; !got.Equal(time.Date(2025, 11, 18, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("last start = %v, want 2025-11-18T18:00", got)
	}
}

func TestGenerateSeries_SkipsStartDateWhenNotInMask(t *testing.T) {
	// 2025-11-04 is a Tuesday.
	events, err := GenerateSeries(SeriesSpec{
		Subject:  "Review",
		Start:    time.Date(2025, 11, 4, 10, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 11, 4, 11, 0, 0, 0, time.UTC),
		Weekdays: "M",
		Count:    intPtr(2),
	})
	if err != nil {
		t.Fatalf("GenerateSeries error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Start.Day() != 10 || events[1].Start.Day() != 17 {
		t.Fatalf("days = %d, %d, want 10, 17", events[0].Start.Day(), events[1].Start.Day())
	}
}

func TestGenerateSeries_AllDayUsesWorkingHours(t *testing.T) {
	events, err := GenerateSeries(SeriesSpec{
		Subject:  "Offsite",
		Start:    time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
		Weekdays: "M",
		Count:    intPtr(2),
		AllDay:   true,
	})
	if err != nil {
		t.Fatalf("GenerateSeries error: %v", err)
	}
	for _, e := range events {
		if !e.AllDay {
			t.Fatalf("expected all-day event")
		}
		if e.Start.Hour() != AllDayStartHour || e.End.Hour() != AllDayEndHour {
			t.Fatalf("span = %v..%v, want %02d:00..%02d:00", e.Start, e.End, AllDayStartHour, AllDayEndHour)
		}
	}
}

func TestGenerateSeries_DSTMaintainsLocalHour(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}

	events, err := GenerateSeries(SeriesSpec{
		Subject:  "Call",
		Start:    time.Date(2026, 3, 1, 9, 0, 0, 0, loc),
		End:      time.Date(2026, 3, 1, 10, 0, 0, 0, loc),
		Weekdays: "U",
		Count:    intPtr(3),
	})
	if err != nil {
		t.Fatalf("GenerateSeries error: %v", err)
	}
	for _, e := range events {
		if e.Start.In(loc).Hour() != 9 || e.End.In(loc).Hour() != 10 {
			t.Fatalf("local span = %v..%v, want 09:00..10:00", e.Start.In(loc), e.End.In(loc))
		}
	}
}

func TestParseWeekdays_NormalizesOrderAndDuplicates(t *testing.T) {
	got, err := ParseWeekdays("UFMM")
	if err != nil {
		t.Fatalf("ParseWeekdays error: %v", err)
	}
	want := []time.Weekday{time.Monday, time.Friday, time.Sunday}
	if len(got) != len(want) {
		t.Fatalf("ParseWeekdays = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ParseWeekdays = %v, want %v", got, want)
		}
	}
}

func containsWeekday(set []time.Weekday, wd time.Weekday) bool {
	for _, w := range set {
		if w == wd {
			return true
		}
	}
	return false
}
