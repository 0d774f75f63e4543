package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/trellis/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "trellis.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "trellis.yaml"

	// DefaultRoot is the default root locator.
	DefaultRoot = "/html/body"

	// DefaultQueueSize is the default capacity of the message queue.
	DefaultQueueSize = 256

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "trellis"

	// DefaultAddr is the default listen address of `trellis serve`.
	DefaultAddr = ":3000"

	// DefaultExample is the example `trellis serve` mounts by default.
	DefaultExample = "counter"
)

// Length policies accepted by LengthPolicy.
const (
	PolicyReplace = "replace"
	PolicyZip     = "zip"
)

// Config represents the complete trellis.json configuration.
type Config struct {
	// Root is the locator of the node the root component renders into.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`

	// QueueSize is the capacity of the message queue used by Run.
	QueueSize int `json:"queueSize,omitempty" yaml:"queueSize,omitempty"`

	// Collect removes registry entries for components that left the tree.
	Collect bool `json:"collect" yaml:"collect"`

	// LengthPolicy decides how child lists of different length are
	// reconciled: "replace" or "zip".
	LengthPolicy string `json:"lengthPolicy,omitempty" yaml:"lengthPolicy,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Metrics contains metrics configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Serve contains `trellis serve` configuration.
	Serve ServeConfig `json:"serve,omitempty" yaml:"serve,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text", "json" or "auto" (text on a terminal).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// ServeConfig contains `trellis serve` settings.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Example is the name of the example mounted for each connection.
	Example string `json:"example,omitempty" yaml:"example,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Root:         DefaultRoot,
		QueueSize:    DefaultQueueSize,
		Collect:      true,
		LengthPolicy: PolicyReplace,
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Serve: ServeConfig{
			Addr:    DefaultAddr,
			Example: DefaultExample,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for trellis.json, then trellis.yaml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return nil, errors.New("E020").
		WithDetail("No trellis.json or trellis.yaml found in " + dir).
		WithSuggestion("Create trellis.json or pass --config")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E020").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("E021").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E021").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check the file's syntax")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to the specified path, as YAML when the
// path ends in .yaml or .yml.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		// Add newline at end of file
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E021").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E021").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.LengthPolicy == "" {
		c.LengthPolicy = PolicyReplace
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "auto"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.Example == "" {
		c.Serve.Example = DefaultExample
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Root, "/") {
		return errors.New("E021").
			WithDetail("root must be an absolute locator, got " + strconv.Quote(c.Root))
	}
	if c.QueueSize < 1 {
		return errors.New("E021").
			WithDetail("queueSize must be positive")
	}
	switch c.LengthPolicy {
	case PolicyReplace, PolicyZip:
	default:
		return errors.New("E021").
			WithDetail("lengthPolicy must be \"replace\" or \"zip\", got " + strconv.Quote(c.LengthPolicy))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return errors.New("E021").
			WithDetail("log.format must be auto, text or json")
	}
	return nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.New("E021").
			WithDetail("unknown log level " + strconv.Quote(s))
	}
	return level, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
