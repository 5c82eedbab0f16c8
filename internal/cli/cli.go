package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/specialistvlad/microfix/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// varsFlag collects repeated -var key=value pairs.
type varsFlag map[string]string

func (v varsFlag) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+v[k])
	}
	return strings.Join(pairs, ",")
}

func (v varsFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	v[strings.TrimSpace(key)] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("microfix", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
MicroFix - A thread-safe directive-batch execution pipeline.

Usage:
  microfix [options] [DIRECTIVE...]

Arguments:
  DIRECTIVE
    Directive text to execute. Appended after any batch from the config.

Options:
`)
		flagSet.PrintDefaults()
	}

	vars := varsFlag{}
	configFlag := flagSet.String("config", "", "Path to an .hcl config file or a directory of them.")
	cFlag := flagSet.String("c", "", "Path to an .hcl config file or directory (shorthand).")
	parallelFlag := flagSet.Bool("parallel", false, "Execute directives concurrently. Output order is not preserved.")
	workersFlag := flagSet.Int("workers", 0, "Bound on concurrent execution tasks in parallel mode. 0 keeps the configured value.")
	flagSet.Var(vars, "var", "Set a config variable as key=value, available as var.<key>. Repeatable.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFileFlag := flagSet.String("log-file", "", "Also append logs to this file.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *configFlag
	if path == "" {
		path = *cFlag
	}
	directives := flagSet.Args()
	slog.Debug("Inputs determined.", "config", path, "directives", len(directives))

	if path == "" && len(directives) == 0 {
		slog.Debug("No config or directives provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath: path,
		Directives: directives,
		Vars:       vars,
		Parallel:   *parallelFlag,
		Workers:    *workersFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		LogFile:    *logFileFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
