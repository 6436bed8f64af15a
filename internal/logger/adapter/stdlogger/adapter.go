// Package stdlogger adapts the global zerolog logger to the logger shapes third party
// clients expect: a Printf method (kafka writer) or a standard library *log.Logger (cron).
package stdlogger

import (
	"fmt"
	stdlog "log"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger writes printf style messages to the global zerolog logger at a fixed level.
type Logger struct {
	level     zerolog.Level
	component string
}

// NewLevel returns a Logger logging at level, tagged with a component name.
func NewLevel(level zerolog.Level, component string) *Logger {
	return &Logger{level: level, component: component}
}

// NewStd returns a standard library logger whose output becomes zerolog events.
func NewStd(level zerolog.Level, component string) *stdlog.Logger {
	return stdlog.New(NewLevel(level, component), "", 0)
}

// Printf implements the Printf(format, args...) logger interface.
func (l *Logger) Printf(format string, args ...any) {
	l.emit(fmt.Sprintf(format, args...))
}

// Write implements io.Writer; every call is one event.
func (l *Logger) Write(p []byte) (int, error) {
	l.emit(strings.TrimRight(string(p), "\n"))

	return len(p), nil
}

func (l *Logger) emit(msg string) {
	ev := log.WithLevel(l.level)
	if ev == nil {
		return
	}

	if l.component != "" {
		ev = ev.Str("component", l.component)
	}

	ev.Msg(msg)
}
