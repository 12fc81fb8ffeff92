// Package metadata runs `cargo metadata` and turns its output into a
// resolved [graph.Graph] or a map of workspace member directories.
//
// Output is cached keyed by the command arguments and the content of every
// manifest and lock file below the working directory, so repeated runs over
// an unchanged workspace skip cargo entirely.
package metadata

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deppatcher/pkg/cache"
	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/graph"
	"github.com/matzehuels/deppatcher/pkg/lockfile"
	"github.com/matzehuels/deppatcher/pkg/manifest"
	"github.com/matzehuels/deppatcher/pkg/observability"
)

// DefaultTTL is how long cached metadata stays valid.
const DefaultTTL = time.Hour

// ExecFunc runs name with args in dir and returns its standard output.
type ExecFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// Runner runs cargo metadata.
type Runner struct {
	// Cargo is the cargo binary. Empty means $CARGO, else "cargo".
	Cargo string

	// Cache stores command output. Nil disables caching.
	Cache cache.Cache
	TTL   time.Duration

	// Exec overrides how the command is run.
	Exec ExecFunc

	// Excludes are directory names skipped when fingerprinting manifests.
	Excludes []string

	Hooks  observability.ResolveHooks
	Logger *log.Logger
}

// Graph loads the resolved dependency graph of the workspace at dir.
func (r *Runner) Graph(ctx context.Context, dir string) (*graph.Graph, error) {
	m, err := r.Load(ctx, dir, false)
	if err != nil {
		return nil, err
	}
	return m.Graph()
}

// Paths maps each workspace member of the workspace at dir to its
// directory.
func (r *Runner) Paths(ctx context.Context, dir string) (map[string]string, error) {
	m, err := r.Load(ctx, dir, true)
	if err != nil {
		return nil, err
	}
	return m.Paths(), nil
}

// Load runs cargo metadata in dir, or returns a cached result.
func (r *Runner) Load(ctx context.Context, dir string, noDeps bool) (m *Metadata, err error) {
	args := []string{"metadata", "--format-version", "1"}
	if noDeps {
		args = append(args, "--no-deps")
	}
	hooks := r.hooks()
	start := time.Now()
	cached := false
	defer func() { hooks.OnMetadata(ctx, args, cached, time.Since(start), err) }()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "resolve %s", dir)
	}

	var key string
	if r.Cache != nil {
		fp, err := r.fingerprint(ctx, abs)
		if err != nil {
			return nil, err
		}
		key = cache.Key("metadata", abs, args, fp)
		data, ok, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.logger().Warn("metadata cache read failed", "err", err)
		}
		if ok {
			cached = true
			r.logger().Debug("metadata cache hit", "dir", abs)
			return Decode(data)
		}
	}

	r.logger().Debug("running cargo", "dir", abs, "args", strings.Join(args, " "))
	out, err := r.exec()(ctx, abs, r.cargo(), args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeMetadataFailed, err, "cargo metadata in %s", abs)
	}
	m, err = Decode(out)
	if err != nil {
		return nil, err
	}
	if r.Cache != nil {
		ttl := r.TTL
		if ttl == 0 {
			ttl = DefaultTTL
		}
		if err := r.Cache.Set(ctx, key, out, ttl); err != nil {
			r.logger().Warn("metadata cache write failed", "err", err)
		}
	}
	return m, nil
}

// fingerprint hashes every manifest below dir and the lock file of dir.
func (r *Runner) fingerprint(ctx context.Context, dir string) ([]string, error) {
	paths, err := manifest.Discover(ctx, dir, r.Excludes...)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, lockfile.FileName)); err == nil {
		paths = append(paths, filepath.Join(dir, lockfile.FileName))
	}
	fp := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", p)
		}
		fp = append(fp, p+"="+cache.Hash(data))
	}
	return fp, nil
}

func (r *Runner) cargo() string {
	if r.Cargo != "" {
		return r.Cargo
	}
	if env := os.Getenv("CARGO"); env != "" {
		return env
	}
	return "cargo"
}

func (r *Runner) exec() ExecFunc {
	if r.Exec != nil {
		return r.Exec
	}
	return Command
}

func (r *Runner) hooks() observability.ResolveHooks {
	if r.Hooks != nil {
		return r.Hooks
	}
	return observability.Resolve()
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Command is the default [ExecFunc]. The process is killed when ctx is done;
// its standard error becomes part of the returned error.
func Command(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrap(errors.ErrCodeMetadataFailed, err, "%s", msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
