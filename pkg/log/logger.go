// Package log provides named, leveled loggers for the renderer's
// subsystems, backed by go-logging.
package log

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

// Level selects logger verbosity.
type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levels = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} %{level:.4s}%{color:reset} %{message}`,
)

var backend logging.LeveledBackend

// Logger is what render subsystems log through. Each package holds one
// named after itself.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New returns the named logger for a subsystem.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// SetSink redirects all loggers to the given writer. The previous level
// is not preserved; call SetLevel after.
func SetSink(sink io.Writer) {
	raw := logging.NewLogBackend(sink, "", 0)
	backend = logging.AddModuleLevel(logging.NewBackendFormatter(raw, format))
	logging.SetBackend(backend)
}

// SetLevel sets the verbosity of every logger.
func SetLevel(level Level) {
	l, ok := levels[level]
	if !ok {
		l = logging.NOTICE
	}
	backend.SetLevel(l, "")
}

func init() {
	SetSink(os.Stderr)
	SetLevel(Notice)
}
