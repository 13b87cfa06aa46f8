package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// testOptions mirrors the Options struct in main.go.
type testOptions struct {
	Config string `help:"Config file path"`

	MetricsAddr  string   `toml:"metrics.addr" env:"METRICS_ADDR"`
	GraceTimeout int      `toml:"recording.grace_timeout_seconds" env:"GRACE_TIMEOUT"`
	Verbose      bool     `toml:"logging.verbose" env:"VERBOSE"`
	ExtraArgs    []string `toml:"recording.extra_args" env:"EXTRA_ARGS"`
}

func writeTempToml(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeTempToml(t, `
[metrics]
addr = ":9090"

[recording]
grace_timeout_seconds = 10
extra_args = ["-an", "-sn"]

[logging]
verbose = true
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q", opts.MetricsAddr)
	}
	if opts.GraceTimeout != 10 {
		t.Errorf("GraceTimeout = %d", opts.GraceTimeout)
	}
	if !opts.Verbose {
		t.Error("Verbose not set from TOML")
	}
	if want := []string{"-an", "-sn"}; !reflect.DeepEqual(opts.ExtraArgs, want) {
		t.Errorf("ExtraArgs = %v, want %v", opts.ExtraArgs, want)
	}
}

func TestLoadConfigEnvOverridesToml(t *testing.T) {
	path := writeTempToml(t, `
[metrics]
addr = ":9090"

[recording]
grace_timeout_seconds = 10
`)

	t.Setenv("CAMREC_METRICS_ADDR", ":7070")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.MetricsAddr != ":7070" {
		t.Errorf("MetricsAddr = %q, want env override :7070", opts.MetricsAddr)
	}
	// TOML still applies where no env var overrides.
	if opts.GraceTimeout != 10 {
		t.Errorf("GraceTimeout = %d, want 10 from TOML", opts.GraceTimeout)
	}
}

func TestLoadConfigEnvTypes(t *testing.T) {
	t.Setenv("CAMREC_GRACE_TIMEOUT", "7")
	t.Setenv("CAMREC_VERBOSE", "true")
	t.Setenv("CAMREC_EXTRA_ARGS", " -an , -sn ")

	opts := &testOptions{}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.GraceTimeout != 7 {
		t.Errorf("GraceTimeout = %d", opts.GraceTimeout)
	}
	if !opts.Verbose {
		t.Error("Verbose not parsed from env")
	}
	if want := []string{"-an", "-sn"}; !reflect.DeepEqual(opts.ExtraArgs, want) {
		t.Errorf("ExtraArgs = %v, want %v", opts.ExtraArgs, want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: "nonexistent.toml"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeTempToml(t, "[broken\nnot toml")
	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid TOML")
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"recording": map[string]any{
			"camera": map[string]any{"delay": "5"},
			"dir":    "/data",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"recording.dir", "/data"},
		{"recording.camera.delay", "5"},
		{"missing", nil},
		{"recording.missing", nil},
	}

	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.expected {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Config", "config"},
		{"MetricsAddr", "metrics-addr"},
		{"GraceTimeout", "grace-timeout"},
	}
	for _, tt := range tests {
		if got := fieldNameToFlag(tt.in); got != tt.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeTempToml(t, `
[logging]
level = "debug"
format = "json"
recorder = "warn"
segments = "error"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("level/format = %q/%q", cfg.Level, cfg.Format)
	}
	want := map[string]string{"recorder": "warn", "segments": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("modules = %v, want %v", cfg.Modules, want)
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg := LoadLoggingConfig("")
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Errorf("defaults = %q/%q, want info/text", cfg.Level, cfg.Format)
	}
}
