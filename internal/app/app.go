package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/microfix/internal/config"
	"github.com/specialistvlad/microfix/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	model   *config.Model
	logFile *os.File
}

// NewApp is the constructor for the main application. Executed lines go to
// outW, structured logs to logW. A failure to open the log file or to load
// the configuration is a fatal startup error and panics.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader) *App {
	var (
		logFile *os.File
		extra   []io.Writer
	)
	if appConfig.LogFile != "" {
		f, err := os.OpenFile(appConfig.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		logFile = f
		extra = append(extra, f)
	}

	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW, extra...)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.", "log_file", appConfig.LogFile)

	var paths []string
	if appConfig.ConfigPath != "" {
		paths = append(paths, appConfig.ConfigPath)
	}

	model, err := loader.Load(ctx, appConfig.Vars, paths...)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.",
		"rules", len(model.Rules), "directives", len(model.Directives))

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		model:   model,
		logFile: logFile,
	}
}

// Model returns the loaded configuration model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Close releases the log file, if any.
func (a *App) Close() error {
	if a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	return err
}
