// Package config loads and validates mondrian configuration files.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidConfig is returned when a config file does not match the schema.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/mondrian/config.schema.json"

// Config holds all configuration options for mondrian.
type Config struct {
	// Calls to leave out of the graph, keyed by calling "Type::method".
	Calling map[string]CallingRule `koanf:"calling" toml:"calling" yaml:"calling" json:"calling"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude" json:"exclude"`

	// Parsing settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" yaml:"analysis" json:"analysis"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output" json:"output"`

	// Graph export defaults
	Graph GraphConfig `koanf:"graph" toml:"graph" yaml:"graph" json:"graph"`
}

// CallingRule lists the callees ("Type::method") a method's calls must not
// link to.
type CallingRule struct {
	Ignore []string `koanf:"ignore" toml:"ignore" yaml:"ignore" json:"ignore"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" yaml:"patterns" json:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" yaml:"dirs" json:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore" json:"gitignore"`
}

// AnalysisConfig controls parsing.
type AnalysisConfig struct {
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" yaml:"max_file_size" json:"max_file_size"` // bytes, 0 = unlimited
	Workers     int   `koanf:"workers" toml:"workers" yaml:"workers" json:"workers"`                         // 0 = NumCPU*2
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format" yaml:"format" json:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color" yaml:"color" json:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose" yaml:"verbose" json:"verbose"`
}

// GraphConfig sets the export defaults.
type GraphConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format" json:"format"` // dot, svg, json, mermaid, toon
	Layout string `koanf:"layout" toml:"layout" yaml:"layout" json:"layout"` // LR, RL, TB, BT
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Calling: map[string]CallingRule{},
		Exclude: ExcludeConfig{
			Patterns: []string{},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".mondrian",
			},
			Gitignore: true,
		},
		Analysis: AnalysisConfig{
			MaxFileSize: 1 << 20,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Graph: GraphConfig{
			Format: "dot",
			Layout: "LR",
		},
	}
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is the file path, empty when only defaults apply.
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads the given file instead of searching for one.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithDir searches dir instead of the working directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) { o.dir = dir }
}

// LoadConfig loads the configuration named by WithPath, or the first file
// found in the standard locations. Without any file the defaults apply.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{dir: "."}
	for _, opt := range opts {
		opt(o)
	}

	path := o.path
	if path == "" {
		path = find(o.dir)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// Load loads configuration from a file, validates it and merges it over the
// defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Determine parser based on extension
	var parser koanf.Parser
	isTOML := false
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		parser = toml.Parser()
		isTOML = true
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := Validate(k.Raw()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if cfg.Calling == nil {
		cfg.Calling = map[string]CallingRule{}
	}
	if isTOML {
		cfg.Calling = unescapeKeys(cfg.Calling)
	}
	return cfg, nil
}

// tomlKeyEscapes undoes the basic-string escapes the TOML parser leaves in
// quoted table keys. Values are already unescaped.
var tomlKeyEscapes = strings.NewReplacer(`\\`, `\`, `\"`, `"`)

func unescapeKeys(calling map[string]CallingRule) map[string]CallingRule {
	out := make(map[string]CallingRule, len(calling))
	for caller, rule := range calling {
		key := tomlKeyEscapes.Replace(caller)
		if prev, ok := out[key]; ok {
			rule.Ignore = append(prev.Ignore, rule.Ignore...)
		}
		out[key] = rule
	}
	return out
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path := find("."); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// find returns the first standard config file under dir.
func find(dir string) string {
	configNames := []string{
		"mondrian.toml",
		"mondrian.yaml",
		"mondrian.yml",
		"mondrian.json",
		".mondrian.toml",
		".mondrian.yaml",
		".mondrian.yml",
		".mondrian.json",
	}

	// Search in the directory and its .mondrian subdirectory
	for _, sub := range []string{".", ".mondrian"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Validate checks a decoded config document against the embedded schema.
func Validate(doc map[string]any) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so parser-specific value types (TOML integers,
	// YAML maps) reach the validator as plain JSON values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to read config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add config schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile config schema: %w", err)
	}
	return schema, nil
}

// Exclusions returns the call exclusions in the form the graph builder
// consumes. A leading namespace separator is dropped from every name.
func (c *Config) Exclusions() map[string][]string {
	out := make(map[string][]string, len(c.Calling))
	for caller, rule := range c.Calling {
		callees := make([]string, 0, len(rule.Ignore))
		for _, callee := range rule.Ignore {
			callees = append(callees, strings.TrimPrefix(callee, `\`))
		}
		sort.Strings(callees)
		key := strings.TrimPrefix(caller, `\`)
		out[key] = append(out[key], callees...)
	}
	return out
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.ToSlash(path)); matched {
			return true
		}
	}

	return false
}
