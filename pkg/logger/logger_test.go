package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// useBufferLogger swaps Log.log to write into buf at the given level.
func useBufferLogger(buf *bytes.Buffer, level zerolog.Level) {
	Log.log = zerolog.New(buf).Level(level)
}

func TestWithContext_IncludesRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	useBufferLogger(buf, zerolog.InfoLevel)

	ctx := context.WithValue(context.Background(), echo.HeaderXRequestID, "req-xyz-123")
	l := WithContext(ctx)

	buf.Reset()
	l.Infof("testing ctx")

	line := buf.String()
	if line == "" {
		t.Fatal("expected a log line, but buffer was empty")
	}

	var evt map[string]interface{}
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %q", err, line)
	}

	if id, ok := evt[echo.HeaderXRequestID]; !ok {
		t.Errorf("expected JSON to include field %q, but it did not: %v", echo.HeaderXRequestID, evt)
	} else if id.(string) != "req-xyz-123" {
		t.Errorf("expected %q == %q; got %q", echo.HeaderXRequestID, "req-xyz-123", id)
	}

	if !strings.Contains(line, `"testing ctx"`) {
		t.Errorf("expected log message to be present in JSON; got: %q", line)
	}
}

func TestWithContext_IncludesScopeFields(t *testing.T) {
	buf := &bytes.Buffer{}
	useBufferLogger(buf, zerolog.InfoLevel)

	ctx := ContextWith(context.Background(), map[string]string{"task": "dispatcher"})
	ctx = ContextWith(ctx, map[string]string{"tick": "2026-07-31T13:00:00Z"})

	buf.Reset()
	WithContext(ctx).Infof("tick complete")

	var evt map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &evt); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %q", err, buf.String())
	}
	if evt["task"] != "dispatcher" {
		t.Errorf("expected task=dispatcher, got %v", evt["task"])
	}
	if evt["tick"] != "2026-07-31T13:00:00Z" {
		t.Errorf("expected nested ContextWith fields to accumulate, got %v", evt["tick"])
	}
}

func TestContextWith_InnermostValueWins(t *testing.T) {
	buf := &bytes.Buffer{}
	useBufferLogger(buf, zerolog.InfoLevel)

	ctx := ContextWith(context.Background(), map[string]string{"task": "precalc"})
	ctx = ContextWith(ctx, map[string]string{"task": "recovery"})

	buf.Reset()
	WithContext(ctx).Infof("x")

	var evt map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &evt); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}
	if evt["task"] != "recovery" {
		t.Errorf("expected innermost task value to win, got %v", evt["task"])
	}
}

func TestLevelMethods_BasicOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	useBufferLogger(buf, zerolog.TraceLevel)

	buf.Reset()
	Warnf("warn %d", 7)
	if !strings.Contains(buf.String(), `"warn 7"`) {
		t.Errorf("Warnf did not write expected message; got: %q", buf.String())
	}

	buf.Reset()
	Errorf("error %d", 8)
	if !strings.Contains(buf.String(), `"error 8"`) {
		t.Errorf("Errorf did not write expected message; got: %q", buf.String())
	}

	buf.Reset()
	Infof("info %s", "foobar")
	if !strings.Contains(buf.String(), `"info foobar"`) {
		t.Errorf("Infof did not write expected message; got: %q", buf.String())
	}
}
