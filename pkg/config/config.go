// Package config loads deppatcher's optional configuration file.
//
// The file is TOML:
//
//	force_inline = true
//	exclude = ["vendor", "third_party"]
//	cargo = "/opt/rust/bin/cargo"
//	cache_ttl = "30m"
//	no_cache = false
//
// It is searched at ./.deppatcher.toml, then
// $XDG_CONFIG_HOME/deppatcher/config.toml (~/.config when unset). Command
// line flags override every value.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/deppatcher/pkg/errors"
)

const (
	appName       = "deppatcher"
	localFileName = ".deppatcher.toml"
)

// Config holds the settings shared by all commands.
type Config struct {
	ForceInline bool     `toml:"force_inline"`
	Exclude     []string `toml:"exclude"`
	Cargo       string   `toml:"cargo"`
	CacheTTL    Duration `toml:"cache_ttl"`
	NoCache     bool     `toml:"no_cache"`
}

// Duration is a time.Duration written as a string ("1h30m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{CacheTTL: Duration{time.Hour}}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.CacheTTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache_ttl must not be negative")
	}
	for _, ex := range c.Exclude {
		if ex == "" || filepath.Base(ex) != ex {
			return errors.New(errors.ErrCodeInvalidConfig, "exclude entry %q must be a directory name", ex)
		}
	}
	return nil
}

// Load reads the file at path, or the first file found by [Find] when path
// is empty. Missing files yield [Default]. The returned string is the file
// that was read, if any.
func Load(path string) (*Config, string, error) {
	if path == "" {
		found, ok := Find()
		if !ok {
			return Default(), "", nil
		}
		path = found
	}
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s not found", path)
		}
		return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, "", errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, path, nil
}

// Find returns the first existing configuration file.
func Find() (string, bool) {
	candidates := []string{localFileName}
	if dir, err := Dir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.toml"))
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c, true
		}
	}
	return "", false
}

// Dir returns the configuration directory using the XDG standard
// (~/.config/deppatcher/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// CacheDir returns the cache directory using the XDG standard
// (~/.cache/deppatcher/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
