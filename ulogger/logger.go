// Package ulogger provides the structured logger used by every component
// in the node. It wraps zerolog so log lines carry a component name and a
// consistent pretty/JSON console format.
package ulogger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ordishs/gocore"
	"github.com/rs/zerolog"
)

const (
	colorRed = iota + 31
	colorGreen
	colorYellow
	colorBlue
)

// Logger is the logging surface every package in this module depends on.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	With(fields map[string]interface{}) Logger
}

type ZLogger struct {
	zerolog.Logger
	component string
}

// New builds a component-scoped logger. level is one of
// DEBUG/INFO/WARN/ERROR/FATAL; an unrecognised value defaults to INFO.
func New(component string, level ...string) *ZLogger {
	if component == "" {
		component = "tenebra"
	}

	var z *ZLogger
	if gocore.Config().GetBool("PRETTY_LOGS", true) {
		z = prettyLogger(component)
	} else {
		z = &ZLogger{
			zerolog.New(os.Stdout).With().Timestamp().Logger(),
			component,
		}
	}

	if len(level) > 0 {
		setLevel(level[0], z)
	}

	return z
}

func setLevel(level string, z *ZLogger) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		z.Logger = z.Logger.Level(zerolog.DebugLevel)
	case "WARN":
		z.Logger = z.Logger.Level(zerolog.WarnLevel)
	case "ERROR":
		z.Logger = z.Logger.Level(zerolog.ErrorLevel)
	case "FATAL":
		z.Logger = z.Logger.Level(zerolog.FatalLevel)
	default:
		z.Logger = z.Logger.Level(zerolog.InfoLevel)
	}
}

func prettyLogger(component string) *ZLogger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	output.FormatTimestamp = func(i interface{}) string {
		parsed, _ := time.Parse(time.RFC3339, i.(string))
		return parsed.Format("15:04:05")
	}

	output.FormatLevel = func(i interface{}) string {
		l := strings.ToUpper(fmt.Sprintf("%-5s", i))
		switch i {
		case "debug":
			l = colorize(l, colorBlue)
		case "info":
			l = colorize(l, colorGreen)
		case "warn":
			l = colorize(l, colorYellow)
		case "error", "fatal", "panic":
			l = colorize(l, colorRed)
		}
		return fmt.Sprintf("| %s|", l)
	}

	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("| %-10s| %s", component, i)
	}

	output.FormatCaller = func(i interface{}) string {
		c, _ := i.(string)
		if c == "" {
			return c
		}
		if cwd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(cwd, c); err == nil {
				c = rel
			}
		}
		return c
	}

	return &ZLogger{
		zerolog.New(output).With().Timestamp().Logger(),
		component,
	}
}

func (z *ZLogger) Debugf(format string, args ...interface{}) { z.Logger.Debug().Msgf(format, args...) }
func (z *ZLogger) Infof(format string, args ...interface{})  { z.Logger.Info().Msgf(format, args...) }
func (z *ZLogger) Warnf(format string, args ...interface{})  { z.Logger.Warn().Msgf(format, args...) }
func (z *ZLogger) Errorf(format string, args ...interface{}) { z.Logger.Error().Msgf(format, args...) }
func (z *ZLogger) Fatalf(format string, args ...interface{}) { z.Logger.Fatal().Msgf(format, args...) }

// With returns a child logger carrying the given fields on every line.
func (z *ZLogger) With(fields map[string]interface{}) Logger {
	ctx := z.Logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &ZLogger{ctx.Logger(), z.component}
}

// Output duplicates the logger with a different writer; used by tests.
func (z *ZLogger) Output(w io.Writer) *ZLogger {
	return &ZLogger{z.Logger.Output(w), z.component}
}

func colorize(s string, c int) string {
	if os.Getenv("NO_COLOR") != "" {
		return s
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", c, s)
}
