package main

import (
	"io"
	"log/slog"
	"path/filepath"

	"breakmate/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerResult contains the results of setting up logging.
type LoggerResult struct {
	Logger   *slog.Logger
	LogFile  io.WriteCloser
	FilePath string
}

// Close closes the log file if it was opened.
func (r *LoggerResult) Close() error {
	if r.LogFile != nil {
		return r.LogFile.Close()
	}
	return nil
}

// SetupLogger creates a JSON logger writing to a rotating file in logDir.
// When echo is non-nil every record is also written to it.
func SetupLogger(logDir string, level slog.Leveler, logCfg config.LogConfig, echo io.Writer) *LoggerResult {
	logPath := filepath.Join(logDir, logCfg.File)

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logCfg.MaxSizeMB,
		MaxBackups: logCfg.MaxBackups,
		MaxAge:     logCfg.MaxAgeDays,
		Compress:   logCfg.Compress,
	}

	var out io.Writer = logWriter
	if echo != nil {
		out = io.MultiWriter(logWriter, echo)
	}

	return &LoggerResult{
		Logger:   SetupLoggerWithWriter(out, level),
		LogFile:  logWriter,
		FilePath: logPath,
	}
}

// SetupLoggerWithWriter creates a logger that writes to the given writer.
func SetupLoggerWithWriter(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
