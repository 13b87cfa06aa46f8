package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetState() {
	mu.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig = Config{}
	initialized = false
	mu.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"recorder": "debug",
			"segments": "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"recorder", true, true, true},
		{"segments", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			if got := handler.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(context.Background(), slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	// Before Initialize the module logger defaults to info.
	loggerBefore := GetLogger("recorder")
	handlerBefore := loggerBefore.Handler()
	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should not have debug enabled")
	}

	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"recorder": "debug"},
	})

	// The logger is cached; its LevelVar was updated in place.
	if loggerAfter := GetLogger("recorder"); loggerBefore != loggerAfter {
		t.Error("logger should be cached across Initialize")
	}
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("cached logger should have debug enabled after Initialize")
	}
}

func TestFanoutHandlerNoDuplicates(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewFanoutHandler(debugHandler, infoHandler))
	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("expected 1 debug message, got %d. Output: %s", count, output)
	}
}

func TestFanoutHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer

	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(NewFanoutHandler(inner)).With("camera", "gate")
	logger.Info("started")

	if output := buf.String(); !strings.Contains(output, "camera=gate") {
		t.Errorf("attribute not propagated through fanout: %s", output)
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			} else if *got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}
