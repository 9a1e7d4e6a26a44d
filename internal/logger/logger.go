package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"inventorycam/internal/config"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to rotated files and stdout.
type Logger struct {
	entry  *logrus.Logger
	logDir string
	files  map[string]*lumberjack.Logger
	mu     sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	l := &Logger{
		entry:  logrus.New(),
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.entry.SetLevel(level)
	l.entry.SetOutput(os.Stdout)
	l.entry.SetFormatter(&formatter.Formatter{
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        true,
	})

	l.setupFiles()
	return l
}

// Discard returns a Logger that drops every entry. Intended for tests.
func Discard() *Logger {
	entry := logrus.New()
	entry.SetOutput(io.Discard)
	return &Logger{entry: entry, files: map[string]*lumberjack.Logger{}}
}

// setupFiles attaches one rotated file per level.
func (l *Logger) setupFiles() {
	for _, name := range []string{InfoFile, WarningFile, ErrorFile} {
		l.files[name] = &lumberjack.Logger{
			Filename:   filepath.Join(l.logDir, name),
			MaxSize:    20,
			MaxBackups: 3,
			MaxAge:     14,
			LocalTime:  true,
		}
	}

	l.entry.AddHook(&fileHook{
		formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
		writers: map[logrus.Level]io.Writer{
			logrus.InfoLevel:  l.files[InfoFile],
			logrus.WarnLevel:  l.files[WarningFile],
			logrus.ErrorLevel: l.files[ErrorFile],
		},
	})
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.entry.Info(fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.entry.Warn(fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.entry.Error(fmt.Sprintf(format, v...))
}

// Debug writes a formatted debug-level log entry. Debug entries go to stdout only.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.entry.Debug(fmt.Sprintf(format, v...))
}

// Directory returns the directory holding the per-level log files.
func (l *Logger) Directory() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logDir == "" {
		return nil
	}

	if rotated, ok := l.files[fileName]; ok {
		// lumberjack keeps the file open, close it before truncating
		if err := rotated.Close(); err != nil {
			l.Error("Error closing log file %s: %v", fileName, err)
		}
	}

	filePath := filepath.Join(l.logDir, fileName)
	if err := os.Truncate(filePath, 0); err != nil && !os.IsNotExist(err) {
		l.Error("Error truncating file %s: %v", fileName, err)
		return err
	}

	l.Info("File %s has been cleared.", fileName)
	return nil
}

// Close flushes and closes all log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// fileHook copies entries of the given levels to their own writer.
type fileHook struct {
	formatter logrus.Formatter
	writers   map[logrus.Level]io.Writer
	mu        sync.Mutex
}

func (h *fileHook) Levels() []logrus.Level {
	levels := make([]logrus.Level, 0, len(h.writers))
	for level := range h.writers {
		levels = append(levels, level)
	}
	return levels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	w, ok := h.writers[entry.Level]
	if !ok {
		return nil
	}

	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = w.Write(line)
	return err
}
