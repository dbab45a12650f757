// Package logger is the process-wide zerolog wrapper. Every long-lived task
// (precalc, dispatcher, recovery, worker slots) logs through it; WithContext
// picks up whatever scope fields the caller attached — an HTTP request id on
// the admin server, a task name on the scheduler ticks, a delivery scope on
// the worker pool.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/viper"
)

type Logger struct {
	log zerolog.Logger
}

var Log Logger
var Debug = false

// fieldsKey carries scope fields attached with ContextWith.
type fieldsKey struct{}

func Init(debug bool, pretty bool) {
	Debug = debug
	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = "2006-01-02 15:04:05.00007Z07:00"
	wd, _ := os.Getwd()
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		file = strings.TrimPrefix(file, wd+"/")
		return fmt.Sprintf("%s:%d", file, line)
	}

	Log.log = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", viper.GetString("app.name")).
		CallerWithSkipFrameCount(3).
		Logger().
		Level(level)
	if Debug {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	}
	if pretty {
		Log.log = Log.log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.DateTime,
		})
	}
}

func (l Logger) GetLogger() zerolog.Logger {
	return l.log
}

// ContextWith returns a ctx whose WithContext logger carries the given
// fields on every line. Fields accumulate across nested calls; a repeated
// key takes the innermost value.
func ContextWith(ctx context.Context, fields map[string]string) context.Context {
	merged := make(map[string]string, len(fields))
	if prev, ok := ctx.Value(fieldsKey{}).(map[string]string); ok {
		for k, v := range prev {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// WithContext returns a Logger carrying the ctx's scope fields: anything
// attached with ContextWith, plus the echo request id when inside the admin
// server's request cycle.
func WithContext(ctx context.Context) Logger {
	log := Log.log
	if fields, ok := ctx.Value(fieldsKey{}).(map[string]string); ok {
		lc := log.With()
		for k, v := range fields {
			lc = lc.Str(k, v)
		}
		log = lc.Logger()
	}
	if reqID, ok := ctx.Value(echo.HeaderXRequestID).(string); ok {
		log = log.With().Str(echo.HeaderXRequestID, reqID).Logger()
	}
	return Logger{log: log}
}

func (l Logger) Infof(format string, v ...interface{}) {
	l.log.Info().Msgf(format, v...)
}

func (l Logger) Debugf(format string, v ...interface{}) {
	if Debug {
		l.log.Debug().Msgf(format, v...)
	}
}

func (l Logger) Warnf(format string, v ...interface{}) {
	l.log.Warn().Msgf(format, v...)
}

func (l Logger) Errorf(format string, v ...interface{}) {
	l.log.Error().Msgf(format, v...)
}

func (l Logger) Info(v ...interface{}) {
	l.log.Info().Msgf("%v", v...)
}

func (l Logger) Debug(v ...interface{}) {
	if Debug {
		l.log.Debug().Msgf("%v", v...)
	}
}

func (l Logger) Warn(v ...interface{}) {
	l.log.Warn().Msgf("%v", v...)
}

func Error(err error, v ...interface{}) {
	Log.log.Error().
		Stack().
		Err(err).
		Msgf("%v", v...)
}

func Infof(format string, v ...interface{}) {
	Log.log.Info().Msgf(format, v...)
}

func Debugf(format string, v ...interface{}) {
	if Debug {
		Log.log.Debug().Msgf(format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	Log.log.Warn().Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Log.log.Error().Msgf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	Log.log.Fatal().Msgf(format, v...)
}
