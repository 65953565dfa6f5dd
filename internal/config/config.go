package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ModeHeadless    = "headless"
	ModeInteractive = "interactive"
)

type Config struct {
	LogLevel      string
	CalendarName  string
	CalendarTZ    string
	ExportDir     string
	ExportFormat  string
	Mode          string
	ScriptPath    string
	ConfigFile    string
	MetricsOnExit bool
}

// Load resolves configuration from defaults, an optional YAML file,
// CALSCHED_* environment variables and command-line flags, in increasing
// precedence. A positional argument is taken as the script path.
func Load(args []string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CALSCHED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("calendar.default_name", "default")
	v.SetDefault("calendar.default_timezone", "UTC")
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.format", "")
	v.SetDefault("runner.mode", ModeInteractive)
	v.SetDefault("runner.script", "")
	v.SetDefault("metrics.log_on_exit", true)

	_ = v.BindEnv("log.level", "CALSCHED_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("calendar.default_name", "CALSCHED_CALENDAR_DEFAULT_NAME")
	_ = v.BindEnv("calendar.default_timezone", "CALSCHED_CALENDAR_DEFAULT_TIMEZONE")
	_ = v.BindEnv("export.dir", "CALSCHED_EXPORT_DIR")
	_ = v.BindEnv("export.format", "CALSCHED_EXPORT_FORMAT")
	_ = v.BindEnv("runner.mode", "CALSCHED_RUNNER_MODE")
	_ = v.BindEnv("runner.script", "CALSCHED_RUNNER_SCRIPT")
	_ = v.BindEnv("metrics.log_on_exit", "CALSCHED_METRICS_LOG_ON_EXIT")

	fs := pflag.NewFlagSet("calendar-runner", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("mode", ModeInteractive, "runner mode: headless or interactive")
	fs.String("script", "", "headless script path")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("timezone", "UTC", "timezone of the default calendar")
	fs.String("calendar", "default", "name of the default calendar")
	fs.String("export-dir", ".", "directory export paths are resolved against")
	fs.String("export-format", "", "force an export format: csv or ical")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	for key, flag := range map[string]string{
		"runner.mode":               "mode",
		"runner.script":             "script",
		"log.level":                 "log-level",
		"calendar.default_timezone": "timezone",
		"calendar.default_name":     "calendar",
		"export.dir":                "export-dir",
		"export.format":             "export-format",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, err
		}
	}

	configFile, _ := fs.GetString("config")
	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	if fs.NArg() > 0 && !fs.Changed("script") {
		v.Set("runner.script", fs.Arg(0))
	}

	cfg := Config{
		LogLevel:      v.GetString("log.level"),
		CalendarName:  strings.TrimSpace(v.GetString("calendar.default_name")),
		CalendarTZ:    strings.TrimSpace(v.GetString("calendar.default_timezone")),
		ExportDir:     v.GetString("export.dir"),
		ExportFormat:  strings.TrimSpace(v.GetString("export.format")),
		Mode:          strings.ToLower(strings.TrimSpace(v.GetString("runner.mode"))),
		ScriptPath:    strings.TrimSpace(v.GetString("runner.script")),
		ConfigFile:    configFile,
		MetricsOnExit: v.GetBool("metrics.log_on_exit"),
	}

	switch cfg.Mode {
	case ModeInteractive:
	case ModeHeadless:
		if cfg.ScriptPath == "" {
			return Config{}, errors.New("headless mode requires a script")
		}
	default:
		return Config{}, fmt.Errorf("unknown runner mode %q", cfg.Mode)
	}
	if cfg.CalendarName == "" {
		return Config{}, errors.New("calendar.default_name must not be empty")
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SlogLevel is the handler level for LogLevel. Load has already rejected
// unknown names.
func (c Config) SlogLevel() slog.Level {
	lvl, _ := parseLogLevel(c.LogLevel)
	return lvl
}

// parseLogLevel accepts slog level names in any case, with offsets such as
// "warn+2", plus "warning" for warn.
func parseLogLevel(name string) (slog.Level, error) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "warning") {
		name = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
	return lvl, nil
}
