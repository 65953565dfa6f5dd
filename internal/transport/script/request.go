package script

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"calsched/internal/service/commands"
	"calsched/internal/store"
)

// Script operations.
const (
	OpCreateCalendar = "create-calendar"
	OpEditCalendar   = "edit-calendar"
	OpUseCalendar    = "use-calendar"
	OpCreateEvent    = "create-event"
	OpEditEvent      = "edit-event"
	OpDeleteEvent    = "delete-event"
	OpExport         = "export"
	OpPrintEvents    = "print-events"
	OpShowStatus     = "show-status"
	OpListCalendars  = "list-calendars"
)

// Request is one scripted operation. Which fields apply depends on Op.
type Request struct {
	Op string `yaml:"op"`

	Calendar string `yaml:"calendar"`
	Timezone string `yaml:"timezone"`

	Subject     string `yaml:"subject"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	AllDay      bool   `yaml:"all_day"`
	Weekdays    string `yaml:"weekdays"`
	Until       string `yaml:"until"`
	Count       *int   `yaml:"count"`
	Description string `yaml:"description"`
	Location    string `yaml:"location"`
	Status      string `yaml:"status"`

	Scope    string `yaml:"scope"`
	Property string `yaml:"property"`
	Value    string `yaml:"value"`

	File   string `yaml:"file"`
	Format string `yaml:"format"`

	On   string `yaml:"on"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
	At   string `yaml:"at"`
}

// Decode reads a YAML sequence of requests. An empty document yields no
// requests.
func Decode(r io.Reader) ([]Request, error) {
	var reqs []Request
	if err := yaml.NewDecoder(r).Decode(&reqs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return reqs, nil
}

// DecodeLine reads a single request written as a YAML mapping, usually in
// flow style: {op: use-calendar, calendar: work}.
func DecodeLine(line string) (Request, error) {
	var req Request
	if err := yaml.Unmarshal([]byte(line), &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// Command translates a mutating request into its command record.
func (r Request) Command() (commands.Command, error) {
	switch r.op() {
	case OpCreateCalendar:
		return commands.CreateCalendar{Name: r.Calendar, Timezone: r.Timezone}, nil
	case OpEditCalendar:
		return commands.EditCalendar{Name: r.Calendar, Property: r.Property, Value: r.Value}, nil
	case OpUseCalendar:
		return commands.UseCalendar{Name: r.Calendar}, nil
	case OpCreateEvent:
		c := commands.CreateEvent{
			Subject:     r.Subject,
			Start:       r.Start,
			End:         r.End,
			Weekdays:    r.Weekdays,
			AllDay:      r.AllDay,
			Description: r.Description,
			Location:    r.Location,
			Status:      r.Status,
		}
		switch {
		case r.Count != nil:
			c.TerminationKind, c.TerminationValue = "count", strconv.Itoa(*r.Count)
		case r.Until != "":
			c.TerminationKind, c.TerminationValue = "until", r.Until
		}
		return c, nil
	case OpEditEvent:
		scope, err := store.ParseScope(r.Scope)
		if err != nil {
			return nil, err
		}
		switch scope {
		case store.ScopeFrom:
			return commands.EditEventsFrom{Property: r.Property, Subject: r.Subject, Start: r.Start, Value: r.Value}, nil
		case store.ScopeSeries:
			return commands.EditSeries{Property: r.Property, Subject: r.Subject, Start: r.Start, Value: r.Value}, nil
		default:
			return commands.EditEvent{Property: r.Property, Subject: r.Subject, Start: r.Start, End: r.End, Value: r.Value}, nil
		}
	case OpDeleteEvent:
		scope, err := store.ParseScope(r.Scope)
		if err != nil {
			return nil, err
		}
		switch scope {
		case store.ScopeFrom:
			return commands.DeleteEventsFrom{Subject: r.Subject, Start: r.Start}, nil
		case store.ScopeSeries:
			return commands.DeleteSeries{Subject: r.Subject, Start: r.Start}, nil
		default:
			return commands.DeleteEvent{Subject: r.Subject, Start: r.Start, End: r.End}, nil
		}
	case OpExport:
		return commands.Export{FileName: r.File, Format: r.Format}, nil
	case "":
		return nil, errors.New("op is required")
	default:
		return nil, fmt.Errorf("unknown op %q", strings.TrimSpace(r.Op))
	}
}

func (r Request) op() string {
	return strings.ToLower(strings.TrimSpace(r.Op))
}
