// Package v1 contains the configuration file format of the deobf command line tool.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/transform/command"
)

const (
	ConfigType = "deobf.config.ocm.software"
	Version    = "v1"
)

// DefaultCacheDirName is the directory below the user cache dir used as default cache root.
const DefaultCacheDirName = "deobf"

// Config is the root configuration document.
type Config struct {
	Type string `json:"type"`
	// Cache is the root of the artifact cache shared by all configurations.
	Cache string `json:"cache,omitempty"`
	// Repositories are local Maven-layout directories searched in order.
	Repositories []string `json:"repositories,omitempty"`
	// Configurations each define one deobfuscating repository.
	Configurations []Configuration `json:"configurations,omitempty"`
	Transformer    Transformer     `json:"transformer"`
}

type Configuration struct {
	Name string `json:"name"`
	// Dependencies are coordinate notations of the declared dependencies.
	Dependencies []string `json:"dependencies"`
	// Components optionally restricts the repository to group:name globs.
	Components []string `json:"components,omitempty"`
}

type Transformer struct {
	// Command is the argv template of the external transformer.
	Command []string `json:"command"`
	Timeout *Timeout `json:"timeout,omitempty"`
}

// Timeout is a time.Duration marshalled as human-readable duration string.
type Timeout time.Duration

func NewTimeout(d time.Duration) *Timeout {
	v := Timeout(d)
	return &v
}

// Value returns the underlying time.Duration, 0 for nil.
func (d *Timeout) Value() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

func (d Timeout) String() string {
	return time.Duration(d).String()
}

func (d Timeout) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Timeout) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to parse timeout: %w", err)
	}
	switch value := v.(type) {
	case float64:
		*d = Timeout(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout value %q: must be a duration like 30s or 5m: %w", value, err)
		}
		*d = Timeout(tmp)
		return nil
	default:
		return fmt.Errorf("timeout must be a duration string or nanoseconds number, got %T", v)
	}
}

// Load reads, defaults and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration failed: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration failed: %w", err)
	}
	if err := cfg.Default(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default expands paths and fills unset fields.
func (c *Config) Default() error {
	if c.Cache == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("unable to determine default cache directory: %w", err)
		}
		c.Cache = filepath.Join(dir, DefaultCacheDirName)
	}
	var err error
	if c.Cache, err = ExpandPath(c.Cache); err != nil {
		return err
	}
	for i, repo := range c.Repositories {
		if c.Repositories[i], err = ExpandPath(repo); err != nil {
			return err
		}
	}
	if c.Transformer.Timeout == nil {
		c.Transformer.Timeout = NewTimeout(command.DefaultTimeout)
	}
	return nil
}

// Validate reports all problems of the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Type {
	case ConfigType + "/" + Version, ConfigType:
	default:
		errs = append(errs, fmt.Errorf("unsupported configuration type %q, expected %s/%s", c.Type, ConfigType, Version))
	}
	if len(c.Transformer.Command) == 0 {
		errs = append(errs, fmt.Errorf("transformer command must not be empty"))
	}
	if c.Transformer.Timeout.Value() < 0 {
		errs = append(errs, fmt.Errorf("transformer timeout must not be negative"))
	}
	names := map[string]struct{}{}
	for i, cfg := range c.Configurations {
		if cfg.Name == "" {
			errs = append(errs, fmt.Errorf("configuration %d has no name", i))
		} else if _, ok := names[cfg.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate configuration name %q", cfg.Name))
		}
		names[cfg.Name] = struct{}{}
		if len(cfg.Dependencies) == 0 {
			errs = append(errs, fmt.Errorf("configuration %q declares no dependencies", cfg.Name))
		}
		for _, dep := range cfg.Dependencies {
			if _, err := coordinate.Parse(dep); err != nil {
				errs = append(errs, fmt.Errorf("configuration %q: %w", cfg.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Coordinates parses the declared dependencies of the configuration.
func (c Configuration) Coordinates() ([]coordinate.Coordinate, error) {
	coords := make([]coordinate.Coordinate, 0, len(c.Dependencies))
	for _, dep := range c.Dependencies {
		parsed, err := coordinate.Parse(dep)
		if err != nil {
			return nil, fmt.Errorf("configuration %q: %w", c.Name, err)
		}
		coords = append(coords, parsed)
	}
	return coords, nil
}

// ExpandPath expands environment variables and a leading ~ in path.
func ExpandPath(path string) (string, error) {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("unable to expand %q: %w", path, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}
