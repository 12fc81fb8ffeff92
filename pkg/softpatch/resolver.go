package softpatch

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/graph"
	"github.com/matzehuels/deppatcher/pkg/observability"
	"github.com/matzehuels/deppatcher/pkg/source"
)

// Resolver applies a decision function to a resolved graph.
type Resolver struct {
	Decider source.Decider

	// Hooks overrides the globally registered resolve hooks.
	Hooks observability.ResolveHooks

	// Logger receives warnings about skipped overrides. Nil discards output.
	Logger *log.Logger
}

// Override is one package whose source the decision function replaced.
type Override struct {
	Record source.Record
	Source graph.Source // where the package currently resolves to
	To     source.Descriptor
}

// Overrides is the result of [Resolver.Resolve], in discovery order.
type Overrides struct {
	Items   []Override
	Visited int

	logger *log.Logger
}

// Len returns the number of overrides.
func (o *Overrides) Len() int { return len(o.Items) }

type decisionKey struct {
	pkg  string
	desc string
}

// Resolve walks g level by level from its roots. Cancellation is checked
// between levels. The graph may be cyclic.
func (r *Resolver) Resolve(ctx context.Context, g *graph.Graph) (out *Overrides, err error) {
	hooks := r.Hooks
	if hooks == nil {
		hooks = observability.Resolve()
	}
	start := time.Now()
	hooks.OnResolveStart(ctx, len(g.Packages))
	out = &Overrides{logger: r.logger()}
	defer func() {
		hooks.OnResolveComplete(ctx, out.Visited, out.Len(), time.Since(start), err)
	}()

	if r.Decider == nil {
		return out, errors.New(errors.ErrCodeInternal, "no decider configured")
	}

	visited := make(map[graph.PackageID]bool)
	decided := make(map[decisionKey]bool)
	level := append([]graph.PackageID(nil), g.Roots...)

	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		var next []graph.PackageID
		for _, id := range level {
			if visited[id] {
				continue
			}
			visited[id] = true
			out.Visited++

			pkg, ok := g.Package(id)
			if !ok {
				return out, errors.New(errors.ErrCodeInvalidGraph, "unknown package %s", id)
			}
			for _, e := range pkg.Deps {
				if !e.Linked() {
					continue
				}
				to, ok := g.Package(e.To)
				if !ok {
					return out, errors.New(errors.ErrCodeInvalidGraph, "%s depends on unknown package %s", id, e.To)
				}
				if err := r.decide(to, decided, out); err != nil {
					return out, err
				}
				next = append(next, e.To)
			}
		}
		level = next
	}
	return out, nil
}

func (r *Resolver) decide(p *graph.Package, decided map[decisionKey]bool, out *Overrides) error {
	desc := p.Descriptor()
	key := decisionKey{pkg: p.Name, desc: desc.Key()}
	if decided[key] {
		return nil
	}
	decided[key] = true

	rec := source.Record{
		Name:     p.Name,
		Package:  p.Name,
		Source:   desc,
		Original: desc,
		Resolved: p.Source.Resolved,
	}
	outcome, err := r.Decider.Decide(rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDecisionFailed, err, "decide %s %s", p.Name, p.Version)
	}
	if !outcome.IsChange() || outcome.Descriptor().Equal(desc) {
		return nil
	}
	out.Items = append(out.Items, Override{Record: rec, Source: p.Source, To: outcome.Descriptor()})
	return nil
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}
