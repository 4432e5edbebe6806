// Package logging builds the leveled loggers shared by the control loop and
// the echo servers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

// ParseLevel maps LOG_LEVEL values to gommon levels. Unknown values mean info.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off", "none":
		return log.OFF
	default:
		return log.INFO
	}
}

// New returns a logger writing JSON lines to stderr.
func New(prefix, level string) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(os.Stderr)
	l.SetLevel(ParseLevel(level))
	return l
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	l := log.New("-")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// Named returns a logger sharing l's output and level under another prefix.
func Named(l *log.Logger, prefix string) *log.Logger {
	if l == nil {
		return Discard()
	}
	n := log.New(prefix)
	n.SetOutput(l.Output())
	n.SetLevel(l.Level())
	return n
}
