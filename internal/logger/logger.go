package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

const maxLogSize = 10 * 1024 * 1024

// Options controls where and how logs are written.
type Options struct {
	Level  string // logrus level name, e.g. "info"
	Format string // "text" or "json"
	File   string // optional log file; empty means stderr
}

var logFile *os.File

// Init configures the standard logrus logger.
func Init(opts Options) error {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	logrus.SetLevel(level)

	switch opts.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.File == "" {
		logrus.SetOutput(os.Stderr)
		return nil
	}

	f, err := openLogFile(opts.File)
	if err != nil {
		return err
	}
	logFile = f
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))

	logrus.WithField("path", opts.File).Info("Logger initialized")
	return nil
}

// openLogFile opens path for appending, rotating it first when it is too large.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if info, err := os.Stat(path); err == nil && info.Size() > maxLogSize {
		backupPath := fmt.Sprintf("%s.%d", path, time.Now().Unix())
		_ = os.Rename(path, backupPath)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Close closes the log file, if any
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// WithRoom returns an entry tagged with the room id.
func WithRoom(roomID string) *logrus.Entry {
	return logrus.WithField("room", roomID)
}

// WithPlayer returns an entry tagged with the player id.
func WithPlayer(playerID string) *logrus.Entry {
	return logrus.WithField("player", playerID)
}

// LogPanic logs a panic with stack trace
func LogPanic(r any) {
	logrus.WithField("stack", string(debug.Stack())).Errorf("[PANIC] %v", r)
}
