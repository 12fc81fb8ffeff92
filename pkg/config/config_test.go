package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/deppatcher/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `force_inline = true
exclude = ["vendor"]
cargo = "/opt/cargo"
cache_ttl = "30m"
`)
	cfg, used, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		ForceInline: true,
		Exclude:     []string{"vendor"},
		Cargo:       "/opt/cargo",
		CacheTTL:    Duration{30 * time.Minute},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
	if used != path {
		t.Errorf("used = %q, want %q", used, path)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, used, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if used != "" {
		t.Errorf("used = %q, want none", used)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
}

func TestFind(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())

	global := filepath.Join(xdg, "deppatcher", "config.toml")
	writeFile(t, global, "no_cache = true\n")
	if got, ok := Find(); !ok || got != global {
		t.Errorf("Find = %q, %v, want %q", got, ok, global)
	}

	writeFile(t, localFileName, "no_cache = false\n")
	if got, ok := Find(); !ok || got != localFileName {
		t.Errorf("Find = %q, %v, want the local file", got, ok)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "force_inline = \n"},
		{"unknown key", "colour = \"red\"\n"},
		{"bad duration", "cache_ttl = \"soon\"\n"},
		{"negative ttl", "cache_ttl = \"-1h\"\n"},
		{"exclude path", "exclude = [\"a/b\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			writeFile(t, path, tt.content)
			if _, _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load = %v, want INVALID_CONFIG", err)
			}
		})
	}
	if _, _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load(missing) = %v, want INVALID_CONFIG", err)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")
	dir, err := CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/xdg/cache", "deppatcher") {
		t.Errorf("CacheDir = %q", dir)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	dir, err = CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	home, _ := os.UserHomeDir()
	if dir != filepath.Join(home, ".cache", "deppatcher") {
		t.Errorf("CacheDir = %q", dir)
	}
}
