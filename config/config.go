// Package config loads the optional YAML configuration of svgviewbox.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "embed"

	"github.com/benoitkugler/svgviewbox/svgdoc"
	"github.com/benoitkugler/svgviewbox/svgopt"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "svgviewbox.yaml"

//go:embed schema.json
var schemaJSON string

// Config is the top-level configuration.
type Config struct {
	Output    string          `yaml:"output"`
	Sort      bool            `yaml:"sort"`
	LogLevel  string          `yaml:"log_level"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Client    ClientConfig    `yaml:"client"`
	Watch     WatchConfig     `yaml:"watch"`
	Bake      BakeConfig      `yaml:"bake"`
}

// OptimizerConfig mirrors svgopt.Config.
type OptimizerConfig struct {
	Multipass        bool     `yaml:"multipass"`
	MaxPasses        int      `yaml:"max_passes"`
	Precision        int      `yaml:"precision"`
	PreservePrefixes []string `yaml:"preserve_prefixes"`
	RemoveAttrs      []string `yaml:"remove_attrs"`
	RemoveXMLNS      bool     `yaml:"remove_xmlns"`
}

// ClientConfig parametrizes the script of the generated page.
type ClientConfig struct {
	DownloadName  string `yaml:"download_name"`
	ContentType   string `yaml:"content_type"`
	PreviewHeight string `yaml:"preview_height"`
}

// WatchConfig controls the regeneration on changes.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// BakeConfig controls the headless browser run.
type BakeConfig struct {
	Output    string `yaml:"output"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// RemoteURL is the DevTools URL of a running browser.
	// When empty, a local browser is launched.
	RemoteURL string `yaml:"remote_url"`
	// Bin is the path of the browser to launch.
	// When empty, a browser is looked up in the usual locations.
	Bin string `yaml:"bin"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	opt := svgopt.DefaultConfig()
	client := svgdoc.DefaultOptions()
	return &Config{
		Output:   "output.html",
		LogLevel: "warn",
		Optimizer: OptimizerConfig{
			Multipass:        opt.Multipass,
			MaxPasses:        opt.MaxPasses,
			Precision:        opt.Precision,
			PreservePrefixes: opt.PreservePrefixes,
			RemoveAttrs:      opt.RemoveAttrs,
			RemoveXMLNS:      opt.RemoveXMLNS,
		},
		Client: ClientConfig{
			DownloadName:  client.DownloadName,
			ContentType:   client.ContentType,
			PreviewHeight: client.PreviewHeight,
		},
		Watch: WatchConfig{DebounceMs: 300},
		Bake:  BakeConfig{Output: client.DownloadName, TimeoutMs: 30000},
	}
}

// ValidationError lists the schema violations of a configuration file.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration %s:\n%s", e.Path, strings.Join(e.Errors, "\n"))
}

// Validate checks the YAML document `data` against the configuration schema.
// An empty document is valid.
func Validate(path string, data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		return nil
	}

	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(doc)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}
	if result.Valid() {
		return nil
	}
	out := &ValidationError{Path: path}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, e.String())
	}
	return out
}

// Load reads, validates and decodes the file at `path`.
// Keys absent from the file keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(path, data); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is like Load, but returns the default configuration
// when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// OptimizerConfig returns the svgopt configuration.
func (c *Config) OptimizerConfig() svgopt.Config {
	return svgopt.Config{
		Multipass:        c.Optimizer.Multipass,
		MaxPasses:        c.Optimizer.MaxPasses,
		Precision:        c.Optimizer.Precision,
		PreservePrefixes: append([]string(nil), c.Optimizer.PreservePrefixes...),
		RemoveAttrs:      append([]string(nil), c.Optimizer.RemoveAttrs...),
		RemoveXMLNS:      c.Optimizer.RemoveXMLNS,
	}
}

// ClientOptions returns the parameters of the page script.
func (c *Config) ClientOptions() svgdoc.Options {
	return svgdoc.Options{
		DownloadName:  c.Client.DownloadName,
		ContentType:   c.Client.ContentType,
		PreviewHeight: c.Client.PreviewHeight,
	}
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Debounce is the delay the watcher waits for changes to settle.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// BakeTimeout bounds the headless browser run.
func (c *Config) BakeTimeout() time.Duration {
	return time.Duration(c.Bake.TimeoutMs) * time.Millisecond
}
