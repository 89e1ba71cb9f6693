package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"

	"mclauncher/config"
	"mclauncher/database"
	"mclauncher/version"
)

type logOptions struct {
	Level   string
	File    string
	Console bool
	RunID   uuid.UUID
}

// setupLogging configures the standard logger: level, console and rotated file output, and the optional ClickHouse hook.
// The returned function releases the outputs.
func setupLogging(ctx context.Context, cfg *config.Configuration, o logOptions) func() {
	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: !o.Console, FullTimestamp: true})

	if lvl, err := logrus.ParseLevel(o.Level); err != nil {
		logrus.Warnf("invalid log level %q: %v", o.Level, err)
	} else {
		logger.SetLevel(lvl)
	}

	var (
		writers []io.Writer
		closers []func() error
	)

	if o.Console {
		writers = append(writers, os.Stderr)
	}

	if o.File != "" {
		if err := os.MkdirAll(filepath.Dir(o.File), 0755); err != nil {
			logrus.Errorf("failed to create log directory: %v", err)
		} else {
			lj := &lumberjack.Logger{
				Filename:   o.File,
				MaxSize:    10,
				MaxBackups: 4,
				MaxAge:     28,
			}
			writers = append(writers, lj)
			closers = append(closers, lj.Close)
		}
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	if cfg.GetBool("launcher.telemetry.clickhouse.enabled") {
		if closeHook := setupTelemetry(ctx, cfg, o.RunID); closeHook != nil {
			closers = append(closers, closeHook)
		}
	}

	return func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logrus.Errorf("failed to close log output: %v", err)
			}
		}
	}
}

func setupTelemetry(ctx context.Context, cfg *config.Configuration, runID uuid.UUID) func() error {
	conn, err := database.SetupClickhouse(ctx, database.Options{
		Host:     cfg.GetString("launcher.telemetry.clickhouse.host"),
		Port:     cfg.GetInt("launcher.telemetry.clickhouse.port"),
		Database: cfg.GetString("launcher.telemetry.clickhouse.database"),
		Username: cfg.GetString("launcher.telemetry.clickhouse.username"),
		Password: cfg.GetString("launcher.telemetry.clickhouse.password"),
	})
	if err != nil {
		logrus.Errorf("failed to setup clickhouse: %s", err.Error())
		return nil
	}

	hook, err := database.NewHook(conn, cfg.GetString("launcher.telemetry.clickhouse.table"), runID)
	if err == nil {
		err = hook.EnsureTable(ctx)
	}
	if err != nil {
		logrus.Errorf("failed to setup logrus hook: %s", err.Error())
		_ = conn.Close()
		return nil
	}

	logger := logrus.StandardLogger()
	logger.AddHook(hook)

	return func() error {
		removeHook(logger, hook)
		return multierr.Combine(hook.Close(), conn.Close())
	}
}

// removeHook detaches the hook so nothing fires into it once its connection is closed.
func removeHook(logger *logrus.Logger, hook logrus.Hook) {
	kept := make(logrus.LevelHooks)
	for level, hooks := range logger.Hooks {
		for _, h := range hooks {
			if h != hook {
				kept[level] = append(kept[level], h)
			}
		}
	}
	logger.ReplaceHooks(kept)
}

func printSystemInfo(cfg *config.Configuration) {
	wd, _ := os.Getwd()
	logrus.WithFields(logrus.Fields{
		"launcher": version.AppVersion.String(),
		"go":       runtime.Version(),
		"os":       runtime.GOOS,
		"arch":     runtime.GOARCH,
		"cpus":     runtime.NumCPU(),
		"wd":       wd,
		"config":   cfg.UserFile(),
	}).Info("system information")
}
