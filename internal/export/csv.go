package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"calsched/internal/domain"
)

const (
	csvDateLayout   = "01/02/2006"
	csvTimeLayout   = "03:04:05 PM"
	csvOffsetLayout = "-07:00"
)

// csvTimeLayouts are the clock layouts ReadCSV accepts. Files written by
// other tools commonly leave out the seconds.
var csvTimeLayouts = []string{csvTimeLayout, "03:04 PM"}

var csvHeaders = []string{
	"Subject",
	"Start Date",
	"Start Time",
	"End Date",
	"End Time",
	"All Day Event",
	"Description",
	"Location",
	"Status",
	"Start Offset",
	"End Offset",
}

// WriteCSV renders events as CSV rows with dates and times in loc. Timed rows
// carry the UTC offset of each wall time so the repeated hour at a DST change
// reads back as the same instant. All-day rows leave the time and offset
// columns empty.
func WriteCSV(w io.Writer, events []domain.Event, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeaders); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, e := range events {
		start, end := e.Start.In(loc), e.End.In(loc)
		record := []string{
			e.Subject,
			start.Format(csvDateLayout),
			"",
			end.Format(csvDateLayout),
			"",
			"False",
			e.Description,
			enumField(string(e.Location), string(domain.LocationUnknown)),
			enumField(string(e.Status), string(domain.StatusUnknown)),
			"",
			"",
		}
		if e.AllDay {
			record[5] = "True"
		} else {
			record[2] = start.Format(csvTimeLayout)
			record[4] = end.Format(csvTimeLayout)
			record[9] = start.Format(csvOffsetLayout)
			record[10] = end.Format(csvOffsetLayout)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses rows produced by WriteCSV. Columns are matched by header
// name, so extra or reordered columns are tolerated. Rows without an offset
// are read as wall times in loc.
func ReadCSV(r io.Reader, loc *time.Location) ([]domain.Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	reader := csv.NewReader(r)
	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv headers: empty input")
		}
		return nil, fmt.Errorf("read csv headers: %w", err)
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}
	for _, h := range []string{"Subject", "Start Date", "End Date"} {
		if _, ok := index[h]; !ok {
			return nil, fmt.Errorf("read csv headers: missing %q column", h)
		}
	}

	events := make([]domain.Event, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		e, err := csvEvent(field, loc)
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func csvEvent(field func(string) string, loc *time.Location) (domain.Event, error) {
	allDay := strings.EqualFold(field("All Day Event"), "true")
	start, err := csvTimestamp(field("Start Date"), field("Start Time"), field("Start Offset"), loc)
	if err != nil {
		return domain.Event{}, err
	}
	end, err := csvTimestamp(field("End Date"), field("End Time"), field("End Offset"), loc)
	if err != nil {
		return domain.Event{}, err
	}

	if allDay {
		start, end = domain.AllDaySpan(start, end)
	}
	e := domain.Event{
		Subject:     strings.TrimSpace(field("Subject")),
		Start:       start,
		End:         end,
		Description: domain.DefaultDescription,
		Location:    domain.LocationUnknown,
		Status:      domain.StatusUnknown,
		AllDay:      allDay,
	}
	if err := e.Validate(); err != nil {
		return domain.Event{}, err
	}

	if d := field("Description"); d != "" {
		e.Description = d
	}
	if l := field("Location"); l != "" {
		if e.Location, err = domain.ParseLocation(l); err != nil {
			return domain.Event{}, err
		}
	}
	if s := field("Status"); s != "" {
		if e.Status, err = domain.ParseStatus(s); err != nil {
			return domain.Event{}, err
		}
	}
	return e, nil
}

func csvTimestamp(date, clock, offset string, loc *time.Location) (time.Time, error) {
	if clock == "" {
		t, err := time.ParseInLocation(csvDateLayout, date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: malformed date %q", domain.ErrInvalidValue, date)
		}
		return t, nil
	}
	for _, layout := range csvTimeLayouts {
		if offset == "" {
			if t, err := time.ParseInLocation(csvDateLayout+" "+layout, date+" "+clock, loc); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.Parse(csvDateLayout+" "+layout+" "+csvOffsetLayout, date+" "+clock+" "+offset); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: malformed time %q %q %q", domain.ErrInvalidValue, date, clock, offset)
}

func enumField(value, unknown string) string {
	if value == unknown {
		return ""
	}
	return value
}
