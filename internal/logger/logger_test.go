package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestJSONLogging(t *testing.T) {
	var buf bytes.Buffer

	config := Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	InitLoggerWithWriter(config, &buf)
	slog.Info("test message", "key", "value")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if logEntry["service"] != "test-service" {
		t.Errorf("Expected service=test-service, got %v", logEntry["service"])
	}
	if logEntry["environment"] != "test" {
		t.Errorf("Expected environment=test, got %v", logEntry["environment"])
	}
	if logEntry["msg"] != "test message" {
		t.Errorf("Expected msg='test message', got %v", logEntry["msg"])
	}
	if logEntry["key"] != "value" {
		t.Errorf("Expected key=value, got %v", logEntry["key"])
	}
}

func TestDebugFiltered(t *testing.T) {
	var buf bytes.Buffer

	config := DefaultConfig()
	config.Level = "warn"
	InitLoggerWithWriter(config, &buf)

	slog.Debug("hidden")
	slog.Info("also hidden")
	slog.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug/info output filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("Expected warn output present, got %q", out)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	id := GenerateRequestID()
	if id == "" {
		t.Fatal("Expected non-empty request ID")
	}

	ctx := WithRequestID(context.Background(), id)
	got, ok := RequestIDFromContext(ctx)
	if !ok || got != id {
		t.Errorf("Expected request ID %q, got %q (ok=%v)", id, got, ok)
	}

	if _, ok := RequestIDFromContext(context.Background()); ok {
		t.Error("Expected no request ID on empty context")
	}
}

func TestLogLevelParsing(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}

	for in, want := range cases {
		cfg := Config{Level: in}
		if got := cfg.LogLevel(); got != want {
			t.Errorf("Level %q: expected %v, got %v", in, want, got)
		}
	}
}
