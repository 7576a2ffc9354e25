// Package config loads the tool configuration from
// ~/.config/regenbib/config.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joachimneu/regenbib/internal/render"
	"github.com/joachimneu/regenbib/internal/suggest"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME and
	// XDG_CACHE_HOME.
	ConfigDir = "regenbib"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// CacheFile is the response cache file name.
	CacheFile = "cache.db"
)

// Defaults mirror the CLI flag defaults.
const (
	DefaultYaml = "references.yaml"
	DefaultBib  = "references.bib"
	DefaultAux  = "_build/main.aux"

	// DefaultCacheTTL is how long fetched archive responses stay fresh.
	DefaultCacheTTL = 14 * 24 * time.Hour
)

// Config is the tool configuration. Every field has a default; a
// missing config file yields the default configuration.
type Config struct {
	// Yaml, Bib and Aux are the store, bibliography and LaTeX aux file
	// paths, relative to the working directory.
	Yaml string `yaml:"yaml,omitempty"`
	Bib  string `yaml:"bib,omitempty"`
	Aux  string `yaml:"aux,omitempty"`

	CachePath string   `yaml:"cache_path,omitempty"`
	CacheTTL  Duration `yaml:"cache_ttl,omitempty"`

	OpenAI OpenAI `yaml:"openai,omitempty"`

	Render render.HookConfig `yaml:"render,omitempty"`
}

// OpenAI configures the AI-assisted import backend.
type OpenAI struct {
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// Path returns the config file path. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/regenbib/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// DefaultCachePath returns the response cache path. Respects
// XDG_CACHE_HOME, defaults to ~/.cache/regenbib/cache.db.
func DefaultCachePath() string {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, ConfigDir, CacheFile)
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Yaml:      DefaultYaml,
		Bib:       DefaultBib,
		Aux:       DefaultAux,
		CachePath: DefaultCachePath(),
		CacheTTL:  Duration(DefaultCacheTTL),
		OpenAI:    OpenAI{BaseURL: suggest.DefaultBaseURL, Model: suggest.DefaultModel},
		Render:    render.DefaultHookConfig(),
	}
}

// Load reads the configuration at path, filling unset values with
// defaults. A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.merge(&file)
	return cfg, nil
}

// LoadDefault reads the configuration from the default path.
func LoadDefault() (*Config, error) {
	return Load(Path())
}

// merge overlays the set fields of o onto c.
func (c *Config) merge(o *Config) {
	if o.Yaml != "" {
		c.Yaml = o.Yaml
	}
	if o.Bib != "" {
		c.Bib = o.Bib
	}
	if o.Aux != "" {
		c.Aux = o.Aux
	}
	if o.CachePath != "" {
		c.CachePath = ExpandPath(o.CachePath)
	}
	if o.CacheTTL != 0 {
		c.CacheTTL = o.CacheTTL
	}
	if o.OpenAI.BaseURL != "" {
		c.OpenAI.BaseURL = o.OpenAI.BaseURL
	}
	if o.OpenAI.Model != "" {
		c.OpenAI.Model = o.OpenAI.Model
	}
	// A render section replaces the built-in hook rules wholesale.
	if len(o.Render.SeriesAbbreviations) > 0 || len(o.Render.StripNoteURLPrefixes) > 0 {
		c.Render = o.Render
	}
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Duration wraps time.Duration for YAML values like "72h", "14d" or
// "2w".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ParseDuration accepts Go duration syntax plus day and week units.
func ParseDuration(s string) (time.Duration, error) {
	if dur, err := time.ParseDuration(s); err == nil {
		return dur, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration")
	}

	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid duration")
	}
	switch s[len(s)-1] {
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown duration unit %q", s[len(s)-1:])
}
