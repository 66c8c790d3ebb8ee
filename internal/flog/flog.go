package flog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	None
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	SetOutput(os.Stderr)
	SetLevel(Info)
}

// SetOutput redirects all log lines to w using the human readable console format.
func SetOutput(w io.Writer) {
	l := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05.000"}).
		With().Timestamp().Logger()
	if cur := logger.Load(); cur != nil {
		l = l.Level(cur.GetLevel())
	}
	logger.Store(&l)
}

func SetLevel(lvl Level) {
	l := logger.Load().Level(lvl.zerolog())
	logger.Store(&l)
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info", "":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	case "none", "off":
		return None, nil
	}
	return Info, fmt.Errorf("unknown log level %q", s)
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Info:
		return zerolog.InfoLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	}
	return zerolog.Disabled
}

func Debugf(format string, args ...any) { logger.Load().Debug().Msgf(format, args...) }
func Infof(format string, args ...any)  { logger.Load().Info().Msgf(format, args...) }
func Warnf(format string, args ...any)  { logger.Load().Warn().Msgf(format, args...) }
func Errorf(format string, args ...any) { logger.Load().Error().Msgf(format, args...) }

// Fatalf logs and exits the process with status 1.
func Fatalf(format string, args ...any) {
	logger.Load().WithLevel(zerolog.FatalLevel).Msgf(format, args...)
	os.Exit(1)
}
