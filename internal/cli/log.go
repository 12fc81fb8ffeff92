package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deppatcher/pkg/observability"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Patched 12 manifests (84ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Hooks
// =============================================================================

// stats counts what the engines report during one command.
type stats struct {
	observability.NoopPatchHooks
	observability.NoopResolveHooks

	logger    *log.Logger
	decisions int
	changed   int
	visited   int
	overrides int
}

func (s *stats) OnManifestComplete(_ context.Context, path string, changes int, d time.Duration, err error) {
	if err == nil {
		s.logger.Debug("manifest done", "path", path, "changes", changes, "took", d.Round(time.Microsecond))
	}
}

func (s *stats) OnDecision(_ context.Context, _, _ string, changed bool) {
	s.decisions++
	if changed {
		s.changed++
	}
}

func (s *stats) OnResolveComplete(_ context.Context, visited, overrides int, d time.Duration, err error) {
	s.visited, s.overrides = visited, overrides
	if err == nil {
		s.logger.Debug("graph walked", "visited", visited, "overrides", overrides, "took", d.Round(time.Millisecond))
	}
}

func (s *stats) OnMetadata(_ context.Context, args []string, cached bool, d time.Duration, err error) {
	if err == nil {
		s.logger.Debug("cargo metadata", "args", args, "cached", cached, "took", d.Round(time.Millisecond))
	}
}

// cacheLogHooks logs cache traffic at debug level.
type cacheLogHooks struct {
	logger *log.Logger
}

func (h *cacheLogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *cacheLogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *cacheLogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
