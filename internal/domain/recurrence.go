package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

// weekdayTokens maps the single-letter mask tokens to weekdays. R is
// Thursday and U is Sunday.
var weekdayTokens = map[rune]time.Weekday{
	'M': time.Monday,
	'T': time.Tuesday,
	'W': time.Wednesday,
	'R': time.Thursday,
	'F': time.Friday,
	'S': time.Saturday,
	'U': time.Sunday,
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// SeriesSpec describes a weekly series. Exactly one of Until and Count is
// expected; when both are set Count wins.
type SeriesSpec struct {
	Subject  string
	Start    time.Time
	End      time.Time
	Weekdays string
	Until    *time.Time
	Count    *int
	AllDay   bool
}

// ParseWeekdays decodes a mask such as "MWF" into weekdays ordered Monday
// first. Repeated tokens are ignored.
func ParseWeekdays(mask string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]struct{}, 7)
	out := make([]time.Weekday, 0, 7)
	for _, r := range strings.ToUpper(strings.TrimSpace(mask)) {
		wd, ok := weekdayTokens[r]
		if !ok {
			return nil, fmt.Errorf("%w: invalid weekday %q", ErrInvalidRecurrence, string(r))
		}
		if _, ok := seen[wd]; ok {
			continue
		}
		seen[wd] = struct{}{}
		out = append(out, wd)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one weekday is required", ErrInvalidRecurrence)
	}
	sort.Slice(out, func(i, j int) bool {
		return weekdayOffsetFromMonday(out[i]) < weekdayOffsetFromMonday(out[j])
	})
	return out, nil
}

// GenerateSeries expands spec into one event per matching date, starting at
// the date of spec.Start. Every event shares one freshly minted series ID and
// the time-of-day span of spec.Start..spec.End.
func GenerateSeries(spec SeriesSpec) ([]Event, error) {
	subject := strings.TrimSpace(spec.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidEvent)
	}

	weekdays, err := ParseWeekdays(spec.Weekdays)
	if err != nil {
		return nil, err
	}

	start, end := spec.Start, spec.End.In(spec.Start.Location())
	if spec.AllDay {
		start, end = AllDaySpan(start, start)
	} else {
		// Occurrences repeat a time-of-day span within one date; a span
		// that crosses midnight has no single date to repeat on.
		if !sameDate(start, end) {
			return nil, fmt.Errorf("%w: series events must start and end on the same day", ErrInvalidRecurrence)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidRecurrence)
		}
	}

	byweekday := make([]rrule.Weekday, 0, len(weekdays))
	for _, wd := range weekdays {
		byweekday = append(byweekday, rruleWeekdays[wd])
	}

	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Byweekday: byweekday,
		Wkst:      rrule.MO,
	}
	switch {
	case spec.Count != nil:
		if *spec.Count < 1 {
			return nil, fmt.Errorf("%w: count must be at least 1", ErrInvalidRecurrence)
		}
		opt.Count = *spec.Count
	case spec.Until != nil:
		u := spec.Until.In(start.Location())
		until := time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 0, start.Location())
		if until.Before(start) {
			return nil, fmt.Errorf("%w: until date %s is before the start date", ErrInvalidRecurrence, u.Format(DateLayout))
		}
		opt.Until = until
	default:
		return nil, fmt.Errorf("%w: until or count is required", ErrInvalidRecurrence)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	starts := rule.All()
	if len(starts) == 0 {
		return nil, fmt.Errorf("%w: recurrence rule produces no occurrences", ErrInvalidRecurrence)
	}

	seriesID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(starts))
	for _, s := range starts {
		s = s.In(start.Location())
		occEnd := time.Date(s.Year(), s.Month(), s.Day(), end.Hour(), end.Minute(), end.Second(), end.Nanosecond(), s.Location())
		out = append(out, Event{
			Subject:     subject,
			Start:       s,
			End:         occEnd,
			Description: DefaultDescription,
			Location:    LocationUnknown,
			Status:      StatusUnknown,
			AllDay:      spec.AllDay,
			SeriesID:    seriesID,
		})
	}

	return out, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func weekdayOffsetFromMonday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}
