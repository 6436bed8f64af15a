package logger

import (
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelWriter routes each event to the writer of its level class:
// trace, debug+info, warn, and error and above.
type LevelWriter struct {
	io.Writer
	Trace io.Writer
	Info  io.Writer
	Warn  io.Writer
	Error io.Writer
}

// WriteLevel implements zerolog.LevelWriter.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	switch {
	case l == zerolog.Disabled:
		return 0, nil
	case l == zerolog.TraceLevel:
		return lw.Trace.Write(p) //nolint:wrapcheck
	case l == zerolog.WarnLevel:
		return lw.Warn.Write(p) //nolint:wrapcheck
	case l > zerolog.WarnLevel:
		return lw.Error.Write(p) //nolint:wrapcheck
	default:
		return lw.Info.Write(p) //nolint:wrapcheck
	}
}

// Init replaces the global zerolog logger according to cfg.
// With neither console nor file enabled every event is dropped.
func Init(cfg Log) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "log level %q is not supported", cfg.LogLevel)
	}

	if cfg.ServiceName == "" {
		return ErrServiceNameIsEmpty
	}

	if cfg.AppName == "" {
		return ErrAppNameIsEmpty
	}

	trace := level == zerolog.TraceLevel
	if trace {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
	}

	zerolog.SetGlobalLevel(level)

	var writers []io.Writer

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg))
	}

	if cfg.File.Enabled {
		if fw := newRollingFiles(cfg.File); fw != nil {
			writers = append(writers, fw)
		}
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Hook(newMetricsHook(cfg.ServiceName)).
		With().Timestamp().
		Str("service", cfg.ServiceName).
		Str("app", cfg.AppName)

	if cfg.LogEnv != "" {
		ctx = ctx.Str("env", cfg.LogEnv)
	}

	if cfg.ReportCaller {
		ctx = ctx.Caller()
		if trace {
			ctx = ctx.Stack()
		}
	}

	log.Logger = ctx.Logger()

	return nil
}

// RollingFile opens a lumberjack writer for r below dir. It creates dir when missing
// and returns nil when that fails.
func RollingFile(dir string, r Rotation) io.Writer {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd
			log.Error().Err(err).Str("path", dir).Msg("can't create log directory")

			return nil
		}
	}

	return &lumberjack.Logger{
		Filename:   path.Join(dir, r.Name),
		MaxSize:    r.MaxSize,
		MaxAge:     r.MaxAge,
		MaxBackups: r.MaxBackups,
	}
}

func newRollingFiles(f LogFile) io.Writer {
	lw := LevelWriter{
		Trace: RollingFile(f.Path, f.Trace),
		Info:  RollingFile(f.Path, f.Info),
		Warn:  RollingFile(f.Path, f.Warn),
		Error: RollingFile(f.Path, f.Error),
	}

	if lw.Trace == nil || lw.Info == nil || lw.Warn == nil || lw.Error == nil {
		return nil
	}

	return &lw
}

// NewConsoleWriter sends info and debug to stdout and everything else to stderr.
func NewConsoleWriter(cfg Log) io.Writer {
	wrap := func(w io.Writer) io.Writer {
		if !cfg.Console.UseConsoleWriter {
			return w
		}

		return zerolog.ConsoleWriter{Out: w, TimeFormat: zerolog.TimeFieldFormat}
	}

	return &LevelWriter{
		Trace: wrap(os.Stderr),
		Info:  wrap(os.Stdout),
		Warn:  wrap(os.Stderr),
		Error: wrap(os.Stderr),
	}
}
