package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	terrors "github.com/vango-dev/trellis/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Root != DefaultRoot {
		t.Errorf("Root = %q, want %q", cfg.Root, DefaultRoot)
	}
	if cfg.QueueSize != DefaultQueueSize {
		t.Errorf("QueueSize = %d, want %d", cfg.QueueSize, DefaultQueueSize)
	}
	if !cfg.Collect {
		t.Error("Collect should default to true")
	}
	if cfg.LengthPolicy != PolicyReplace {
		t.Errorf("LengthPolicy = %q, want %q", cfg.LengthPolicy, PolicyReplace)
	}
	if cfg.Serve.Addr != DefaultAddr {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, DefaultAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if !errors.Is(err, terrors.New("E020")) {
		t.Errorf("Load() error = %v, want E020", err)
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	configJSON := `{
  "root": "/html/body/*[2]",
  "collect": false,
  "lengthPolicy": "zip",
  "serve": {
    "addr": ":8080"
  }
}
`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Root != "/html/body/*[2]" {
		t.Errorf("Root = %q", cfg.Root)
	}
	if cfg.Collect {
		t.Error("Collect = true, want false")
	}
	if cfg.LengthPolicy != PolicyZip {
		t.Errorf("LengthPolicy = %q, want zip", cfg.LengthPolicy)
	}
	if cfg.Serve.Addr != ":8080" {
		t.Errorf("Serve.Addr = %q, want :8080", cfg.Serve.Addr)
	}
	// Defaults survive for fields the file leaves out.
	if cfg.QueueSize != DefaultQueueSize || cfg.Serve.Example != DefaultExample {
		t.Errorf("defaults lost: queueSize=%d example=%q", cfg.QueueSize, cfg.Serve.Example)
	}
	if cfg.Path() != configPath {
		t.Errorf("Path() = %q, want %q", cfg.Path(), configPath)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `root: /html/body
queueSize: 16
collect: true
log:
  level: debug
  format: json
metrics:
  namespace: demo
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QueueSize != 16 {
		t.Errorf("QueueSize = %d, want 16", cfg.QueueSize)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Metrics.Namespace != "demo" {
		t.Errorf("Metrics.Namespace = %q, want demo", cfg.Metrics.Namespace)
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if !errors.Is(err, terrors.New("E021")) {
		t.Errorf("LoadFile() error = %v, want E021", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"out.json", "out.yaml"} {
		cfg := New()
		cfg.QueueSize = 7
		cfg.LengthPolicy = PolicyZip

		p := filepath.Join(tmpDir, name)
		if err := cfg.SaveTo(p); err != nil {
			t.Fatalf("SaveTo(%s) error = %v", name, err)
		}
		got, err := LoadFile(p)
		if err != nil {
			t.Fatalf("LoadFile(%s) error = %v", name, err)
		}
		if got.QueueSize != 7 || got.LengthPolicy != PolicyZip || !got.Collect {
			t.Errorf("%s: reloaded %+v", name, got)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative root", func(c *Config) { c.Root = "body" }},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }},
		{"unknown policy", func(c *Config) { c.LengthPolicy = "keyed" }},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	if err != nil || level != slog.LevelWarn {
		t.Errorf("ParseLevel(warn) = %v, %v", level, err)
	}
}
