package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"calsched/internal/domain"
	"calsched/internal/service/commands"
)

// Runner feeds scripted requests to a command handler and writes one result
// block per request.
type Runner struct {
	handler *commands.Handler
	out     io.Writer
	log     *slog.Logger
}

func NewRunner(handler *commands.Handler, out io.Writer, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		handler: handler,
		out:     out,
		log:     log.With(slog.String("component", "transport.script")),
	}
}

// Execute runs one request and returns its printable result.
func (r *Runner) Execute(ctx context.Context, req Request) string {
	switch req.op() {
	case OpPrintEvents:
		return r.printEvents(req)
	case OpShowStatus:
		return r.showStatus(req)
	case OpListCalendars:
		return renderCalendars(r.handler.Calendars())
	}

	cmd, err := req.Command()
	if err != nil {
		r.log.Warn("invalid request", slog.String("op", req.Op), slog.Any("err", err))
		return commands.ErrorResult(err)
	}
	return r.handler.Handle(ctx, cmd)
}

// Run executes a headless script: a YAML sequence of requests, each result
// written on its own line. It stops early when ctx is done.
func (r *Runner) Run(ctx context.Context, in io.Reader) error {
	reqs, err := Decode(in)
	if err != nil {
		return err
	}
	r.log.Info("script loaded", slog.Int("requests", len(reqs)))

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			r.log.Warn("script interrupted", slog.Int("executed", i))
			return err
		}
		if _, err := fmt.Fprintln(r.out, r.Execute(ctx, req)); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

// Interactive reads one request per line until "exit", end of input or ctx
// is done. Blank lines and lines starting with '#' are skipped.
func (r *Runner) Interactive(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.EqualFold(line, "exit") {
			r.log.Info("interactive session ended")
			return nil
		}

		var result string
		req, err := DecodeLine(line)
		if err != nil {
			result = commands.ErrorResult(err)
		} else {
			result = r.Execute(ctx, req)
		}
		if _, err := fmt.Fprintln(r.out, result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (r *Runner) printEvents(req Request) string {
	loc := r.handler.ActiveLocation()
	var (
		events []commands.EventView
		err    error
	)
	switch {
	case req.On != "":
		day, perr := domain.ParseDate(req.On, loc)
		if perr != nil {
			return commands.ErrorResult(perr)
		}
		events, err = r.handler.DayEvents(day)
	case req.From != "" && req.To != "":
		from, perr := domain.ParseTimestamp(req.From, loc)
		if perr != nil {
			return commands.ErrorResult(perr)
		}
		to, perr := domain.ParseTimestamp(req.To, loc)
		if perr != nil {
			return commands.ErrorResult(perr)
		}
		events, err = r.handler.RangeEvents(from, to)
	default:
		return commands.ErrorResult(errors.New("print-events needs on or from and to"))
	}
	if err != nil {
		return commands.ErrorResult(err)
	}
	return renderEvents(events)
}

func (r *Runner) showStatus(req Request) string {
	if req.At == "" {
		return commands.ErrorResult(errors.New("at is required"))
	}
	at, err := domain.ParseTimestamp(req.At, r.handler.ActiveLocation())
	if err != nil {
		return commands.ErrorResult(err)
	}
	st, err := r.handler.Status(at)
	if err != nil {
		return commands.ErrorResult(err)
	}
	if st == commands.Busy {
		return "Busy"
	}
	return "Available"
}
