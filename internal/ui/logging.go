package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Log is the leveled logger handed to the scraping and download code.
type Log interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type Logger struct {
	Debug bool
	l     *log.Logger
}

func NewLogger(debug bool) *Logger {
	return NewLoggerTo(os.Stderr, debug)
}

func NewLoggerTo(w io.Writer, debug bool) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: debug,
		Level:           log.InfoLevel,
	})
	if debug {
		l.SetLevel(log.DebugLevel)
	}

	return &Logger{Debug: debug, l: l}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.l.Debugf(trimNewline(format), args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.l.Infof(trimNewline(format), args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.l.Warnf(trimNewline(format), args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.l.Errorf(trimNewline(format), args...)
}

// charmbracelet/log terminates every record itself.
func trimNewline(format string) string {
	return strings.TrimSuffix(format, "\n")
}
