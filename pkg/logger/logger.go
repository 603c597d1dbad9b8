package logger

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

type Logger interface {
	Printf(format string, args ...interface{})
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// DefaultLogger writes human readable lines to stdout.
type DefaultLogger struct {
	zl zerolog.Logger
}

var defaultLogger *DefaultLogger

func Default() *DefaultLogger {
	if defaultLogger == nil {
		defaultLogger = New(os.Stdout, "info")
	}
	return defaultLogger
}

// New returns a console logger writing to out. Unknown levels fall back to info.
// Colors are only used when out is a terminal.
func New(out io.Writer, level string) *DefaultLogger {
	consoleWriter := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: !isTerminal(out)}
	zl := zerolog.New(consoleWriter).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
	return &DefaultLogger{zl: zl}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l DefaultLogger) Printf(format string, args ...interface{}) {
	l.zl.Log().Msgf(format, args...)
}

func (l DefaultLogger) Tracef(format string, args ...interface{}) {
	l.zl.Trace().Msgf(format, args...)
}

func (l DefaultLogger) Debugf(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l DefaultLogger) Infof(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l DefaultLogger) Warnf(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l DefaultLogger) Errorf(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}
