package pgsh

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Logger is the narrow interface the rest of this package logs through,
// grounded in canonical-pebble's internal/logger.Logger: two levels,
// Notice (always shown) and Debug (gated), no structured fields.
type Logger interface {
	Notice(message string)
	Debug(message string)
}

var logger Logger = defaultLogger{}

// SetLogger replaces the package-level logger, for callers that want
// output routed somewhere other than stderr. A nil l restores the default.
func SetLogger(l Logger) {
	if l == nil {
		l = defaultLogger{}
	}
	logger = l
}

// Noticef logs at Notice level with formatting.
func Noticef(format string, args ...interface{}) {
	logger.Notice(fmt.Sprintf(format, args...))
}

// Debugf logs at Debug level with formatting.
func Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

// defaultLogger writes timestamp-prefixed lines to stderr. Debug output is
// gated behind PGSH_DEBUG so a normal interactive session stays quiet.
type defaultLogger struct{}

var debugEnabled = os.Getenv("PGSH_DEBUG") != ""

func (defaultLogger) Notice(message string) {
	writeLog(os.Stderr, "NOTICE", message)
}

func (defaultLogger) Debug(message string) {
	if !debugEnabled {
		return
	}
	writeLog(os.Stderr, "DEBUG", message)
}

func writeLog(w io.Writer, level, message string) {
	fmt.Fprintf(w, "%s %-6s %s\n", time.Now().Format("2006-01-02T15:04:05.000Z07:00"), level, message)
}

// discardLogger is handy for tests that want silence rather than stderr
// noise.
type discardLogger struct{}

func (discardLogger) Notice(string) {}
func (discardLogger) Debug(string)  {}
