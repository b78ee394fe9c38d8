package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides leveled, printf-style logging throughout the application.
// It wraps logrus; when a log file is configured the output is duplicated to
// a size-rotated file.
type Logger struct {
	l *logrus.Logger
}

// NewLogger creates a Logger writing to stdout. The level comes from
// LOG_LEVEL (default info).
func NewLogger() *Logger {
	return NewFileLogger("")
}

// NewFileLogger creates a Logger that also appends to the given rotated log
// file. An empty path means stdout only.
func NewFileLogger(path string) *Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	var out io.Writer = os.Stdout
	if path != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    20, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}
	l.SetOutput(out)

	return &Logger{l: l}
}

func (l *Logger) Info(format string, args ...any)  { l.l.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.l.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.l.Errorf(format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.l.Debugf(format, args...) }
