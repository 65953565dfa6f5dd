package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"calsched/internal/domain"
	"calsched/internal/export"
	"calsched/internal/store"
)

const errorPrefix = "Error: "

// Handler applies command records to a calendar container and reports each
// outcome as a result string. Calls are serialized.
type Handler struct {
	mu        sync.Mutex
	container *store.Container
	exporter  *export.Exporter
	validate  *validator.Validate
	metrics   *Metrics
	logger    *slog.Logger
}

// NewHandler wires a handler. A nil exporter writes to the working directory
// by extension; nil metrics and logger disable those concerns.
func NewHandler(container *store.Container, exporter *export.Exporter, metrics *Metrics, logger *slog.Logger) *Handler {
	if container == nil {
		container = store.NewContainer()
	}
	if exporter == nil {
		exporter = export.NewExporter(".", "")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		container: container,
		exporter:  exporter,
		validate:  newValidator(),
		metrics:   metrics,
		logger:    logger.With("component", "commands"),
	}
}

// target is the calendar an event command runs against.
type target struct {
	name string
	cal  *store.Calendar
}

// Handle runs cmd. Event and export commands run against the active
// calendar. The result never carries a raw fault: failures come back as
// "Error: <cause>".
func (h *Handler) Handle(ctx context.Context, cmd Command) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.dispatch(ctx, cmd, func() (target, error) {
		cal, err := h.container.Active()
		if err != nil {
			return target{}, err
		}
		return target{name: h.container.ActiveName(), cal: cal}, nil
	})
}

// HandleOn runs cmd against cal instead of the active calendar. Calendar
// registry commands still act on the container.
func (h *Handler) HandleOn(ctx context.Context, cal *store.Calendar, cmd Command) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.dispatch(ctx, cmd, func() (target, error) {
		if cal == nil {
			return target{}, fieldError("calendar", "is required")
		}
		return target{cal: cal}, nil
	})
}

func (h *Handler) dispatch(ctx context.Context, cmd Command, resolve func() (target, error)) (result string) {
	if cmd == nil {
		return errorPrefix + "command is required"
	}
	op := cmd.Operation()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(ctx, "command panicked", "operation", op, "panic", r)
			h.metrics.observe(op, OutcomeFault, time.Since(started))
			result = fmt.Sprintf("%sFailed to %s: %v", errorPrefix, op, r)
		}
	}()

	msg, err := h.run(cmd, resolve)
	elapsed := time.Since(started)
	if err == nil {
		h.logger.InfoContext(ctx, "command handled", "operation", op, "result", msg)
		h.metrics.observe(op, OutcomeSuccess, elapsed)
		return msg
	}

	if isKnown(err) {
		h.logger.WarnContext(ctx, "command rejected", "operation", op, "error", err)
		h.metrics.observe(op, OutcomeError, elapsed)
		return ErrorResult(err)
	}
	h.logger.ErrorContext(ctx, "command failed", "operation", op, "error", err)
	h.metrics.observe(op, OutcomeFault, elapsed)
	return fmt.Sprintf("%sFailed to %s: %v", errorPrefix, op, err)
}

func (h *Handler) run(cmd Command, resolve func() (target, error)) (string, error) {
	if err := validateRecord(h.validate, cmd); err != nil {
		return "", err
	}

	switch c := cmd.(type) {
	case CreateCalendar:
		return h.createCalendar(c)
	case EditCalendar:
		return h.editCalendar(c)
	case UseCalendar:
		return h.useCalendar(c)
	}

	t, err := resolve()
	if err != nil {
		return "", err
	}

	switch c := cmd.(type) {
	case CreateEvent:
		return createEvent(t, c)
	case EditEvent:
		return editEvent(t, store.ScopeSingle, c.Property, c.Subject, c.Start, c.End, c.Value)
	case EditEventsFrom:
		return editEvent(t, store.ScopeFrom, c.Property, c.Subject, c.Start, "", c.Value)
	case EditSeries:
		return editEvent(t, store.ScopeSeries, c.Property, c.Subject, c.Start, "", c.Value)
	case DeleteEvent:
		return deleteEvent(t, store.ScopeSingle, c.Subject, c.Start, c.End)
	case DeleteEventsFrom:
		return deleteEvent(t, store.ScopeFrom, c.Subject, c.Start, "")
	case DeleteSeries:
		return deleteEvent(t, store.ScopeSeries, c.Subject, c.Start, "")
	case Export:
		return h.exportCalendar(t, c)
	default:
		return "", fmt.Errorf("unsupported command %T", cmd)
	}
}

func createEvent(t target, c CreateEvent) (string, error) {
	loc := t.cal.Location()
	attrs, err := parseAttributes(c)
	if err != nil {
		return "", err
	}

	start, err := domain.ParseTimestamp(c.Start, loc)
	if err != nil {
		return "", err
	}
	end := start
	if c.End != "" {
		if end, err = domain.ParseTimestamp(c.End, loc); err != nil {
			return "", err
		}
	} else if !c.AllDay {
		return "", fieldError("end", "is required")
	}

	if c.Weekdays == "" {
		e, err := domain.NewEvent(c.Subject, start, end, c.AllDay)
		if err != nil {
			return "", err
		}
		if err := t.cal.Add(attrs.apply(e)); err != nil {
			return "", err
		}
		return fmt.Sprintf("Event %q created", e.Subject), nil
	}

	spec := domain.SeriesSpec{
		Subject:  c.Subject,
		Start:    start,
		End:      end,
		Weekdays: c.Weekdays,
		AllDay:   c.AllDay,
	}
	switch c.TerminationKind {
	case "until":
		until, err := domain.ParseTimestamp(c.TerminationValue, loc)
		if err != nil {
			return "", err
		}
		spec.Until = &until
	case "count":
		n, err := strconv.Atoi(strings.TrimSpace(c.TerminationValue))
		if err != nil {
			return "", fieldError("count", "must be a whole number")
		}
		spec.Count = &n
	default:
		return "", validationError("termination is required for a series")
	}

	events, err := domain.GenerateSeries(spec)
	if err != nil {
		return "", err
	}
	for i := range events {
		events[i] = attrs.apply(events[i])
	}
	if err := t.cal.Add(events...); err != nil {
		return "", err
	}
	return fmt.Sprintf("Series %q created with %d events", events[0].Subject, len(events)), nil
}

// attributes are the optional create-time fields applied to every created
// occurrence.
type attributes struct {
	description string
	location    domain.LocationType
	status      domain.Status
}

func parseAttributes(c CreateEvent) (attributes, error) {
	a := attributes{
		description: domain.DefaultDescription,
		location:    domain.LocationUnknown,
		status:      domain.StatusUnknown,
	}
	if strings.TrimSpace(c.Description) != "" {
		a.description = c.Description
	}
	var err error
	if c.Location != "" {
		if a.location, err = domain.ParseLocation(c.Location); err != nil {
			return attributes{}, err
		}
	}
	if c.Status != "" {
		if a.status, err = domain.ParseStatus(c.Status); err != nil {
			return attributes{}, err
		}
	}
	return a, nil
}

func (a attributes) apply(e domain.Event) domain.Event {
	e.Description = a.description
	e.Location = a.location
	e.Status = a.status
	return e
}

func editEvent(t target, scope store.Scope, property, subject, start, end, value string) (string, error) {
	anchor, err := parseAnchor(t.cal.Location(), subject, start, end)
	if err != nil {
		return "", err
	}
	edited, err := t.cal.Edit(anchor, scope, property, value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Edited %s on %d event(s)", strings.ToLower(strings.TrimSpace(property)), len(edited)), nil
}

func deleteEvent(t target, scope store.Scope, subject, start, end string) (string, error) {
	anchor, err := parseAnchor(t.cal.Location(), subject, start, end)
	if err != nil {
		return "", err
	}
	n, err := t.cal.Delete(anchor, scope)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted %d event(s)", n), nil
}

func parseAnchor(loc *time.Location, subject, start, end string) (store.Anchor, error) {
	a := store.Anchor{Subject: strings.TrimSpace(subject)}
	var err error
	if a.Start, err = domain.ParseTimestamp(start, loc); err != nil {
		return store.Anchor{}, err
	}
	if end != "" {
		if a.End, err = domain.ParseTimestamp(end, loc); err != nil {
			return store.Anchor{}, err
		}
	}
	return a, nil
}

func (h *Handler) exportCalendar(t target, c Export) (string, error) {
	var format export.Format
	if c.Format != "" {
		f, err := export.ParseFormat(c.Format)
		if err != nil {
			return "", err
		}
		format = f
	}
	var (
		path string
		err  error
	)
	if format == "" {
		path, err = h.exporter.Export(c.FileName, t.name, t.cal)
	} else {
		path, err = h.exporter.ExportAs(format, c.FileName, t.name, t.cal)
	}
	if err != nil {
		return "", err
	}
	return "Calendar exported to " + path, nil
}

// createCalendar registers the calendar and makes it active, so follow-up
// event commands land in it.
func (h *Handler) createCalendar(c CreateCalendar) (string, error) {
	loc, err := store.LoadLocation(c.Timezone)
	if err != nil {
		return "", err
	}
	if err := h.container.Add(c.Name, store.NewCalendar(loc)); err != nil {
		return "", err
	}
	if err := h.container.SetActive(c.Name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Calendar %q created", c.Name), nil
}

func (h *Handler) editCalendar(c EditCalendar) (string, error) {
	if err := h.container.Edit(c.Name, c.Property, c.Value); err != nil {
		return "", err
	}
	name := c.Name
	if strings.EqualFold(strings.TrimSpace(c.Property), store.CalendarPropertyName) {
		name = c.Value
	}
	return fmt.Sprintf("Calendar %q updated", name), nil
}

func (h *Handler) useCalendar(c UseCalendar) (string, error) {
	if err := h.container.SetActive(c.Name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Using calendar %q", c.Name), nil
}

var knownErrors = []error{
	domain.ErrInvalidEvent,
	domain.ErrInvalidRecurrence,
	domain.ErrInvalidProperty,
	domain.ErrInvalidValue,
	domain.ErrInvalidInterval,
	store.ErrEventNotFound,
	store.ErrDuplicateName,
	store.ErrCalendarNotFound,
	store.ErrNoActiveCalendar,
	export.ErrUnsupportedFormat,
}

func isKnown(err error) bool {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return true
	}
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

// ErrorResult renders err the way handlers report failures.
func ErrorResult(err error) string {
	return errorPrefix + capitalize(err.Error())
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
