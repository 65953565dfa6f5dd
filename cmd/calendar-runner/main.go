package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"calsched/internal/config"
	"calsched/internal/export"
	"calsched/internal/service/commands"
	"calsched/internal/store"
	"calsched/internal/transport/script"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "calendar-runner"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  calendar-runner --mode interactive")
		fmt.Fprintln(os.Stderr, "  calendar-runner --mode headless <script.yaml>")
		os.Exit(2)
	}

	log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("service", "calendar-runner"),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("mode", cfg.Mode),
		slog.String("log_level", cfg.LogLevel),
		slog.String("calendar", cfg.CalendarName),
		slog.String("timezone", cfg.CalendarTZ),
	)

	container, err := newContainer(cfg)
	if err != nil {
		log.Error("default calendar setup failed", slog.Any("err", err))
		os.Exit(1)
	}

	var format export.Format
	if cfg.ExportFormat != "" {
		if format, err = export.ParseFormat(cfg.ExportFormat); err != nil {
			log.Error("invalid export format", slog.Any("err", err))
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	metrics := commands.NewMetrics(registry)
	handler := commands.NewHandler(container, export.NewExporter(cfg.ExportDir, format), metrics, log)
	runner := script.NewRunner(handler, os.Stdout, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runner); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("runner stopped with error", slog.Any("err", err))
		stop()
		os.Exit(1)
	}

	if cfg.MetricsOnExit {
		logCommandTotals(log, registry)
	}
	log.Info("stopped")
}

// newContainer registers the default calendar and makes it active.
func newContainer(cfg config.Config) (*store.Container, error) {
	loc, err := store.LoadLocation(cfg.CalendarTZ)
	if err != nil {
		return nil, err
	}
	container := store.NewContainer()
	if err := container.Add(cfg.CalendarName, store.NewCalendar(loc)); err != nil {
		return nil, err
	}
	if err := container.SetActive(cfg.CalendarName); err != nil {
		return nil, err
	}
	return container, nil
}

func run(ctx context.Context, cfg config.Config, runner *script.Runner) error {
	if cfg.Mode == config.ModeHeadless {
		f, err := os.Open(cfg.ScriptPath)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		return runner.Run(ctx, f)
	}
	return runner.Interactive(ctx, stdin(ctx))
}

// stdin returns a reader that reports EOF once ctx is done, so a pending
// interactive read does not outlive a shutdown signal.
func stdin(ctx context.Context) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		_, err := io.Copy(pw, os.Stdin)
		pw.CloseWithError(err)
	}()
	go func() {
		<-ctx.Done()
		pw.CloseWithError(io.EOF)
	}()
	return pr
}

func logCommandTotals(log *slog.Logger, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		log.Warn("metrics gather failed", slog.Any("err", err))
		return
	}
	for _, mf := range families {
		if mf.GetName() != "calsched_commands_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			attrs := make([]any, 0, len(m.GetLabel())+1)
			for _, l := range m.GetLabel() {
				attrs = append(attrs, slog.String(l.GetName(), l.GetValue()))
			}
			attrs = append(attrs, slog.Float64("total", m.GetCounter().GetValue()))
			log.Info("command totals", attrs...)
		}
	}
}
