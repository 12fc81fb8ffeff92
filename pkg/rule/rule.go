package rule

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/lockfile"
	"github.com/matzehuels/deppatcher/pkg/source"
)

// =============================================================================
// Input
// =============================================================================

// Input is the text of a rule and where it came from.
type Input struct {
	Name string // file name, <cmdline> or <stdin>
	Code string
	Dir  string // base for relative helper arguments
}

// FromExpr wraps an inline expression.
func FromExpr(code string) Input {
	dir, _ := os.Getwd()
	return Input{Name: "<cmdline>", Code: code, Dir: dir}
}

// FromReader reads a rule from r, typically standard input.
func FromReader(r io.Reader) (Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Input{}, errors.Wrap(errors.ErrCodeIO, err, "read rule")
	}
	in := FromExpr(string(data))
	in.Name = "<stdin>"
	return in, nil
}

// FromFile reads a rule file.
func FromFile(path string) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, errors.Wrap(errors.ErrCodeIO, err, "read rule")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Input{}, errors.Wrap(errors.ErrCodeIO, err, "resolve %s", path)
	}
	return Input{Name: path, Code: string(data), Dir: filepath.Dir(abs)}, nil
}

// ParseExt parses key=value pairs given with --ext-str.
func ParseExt(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid --ext-str %q, want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

// =============================================================================
// Rule
// =============================================================================

// PathsFunc lists the workspace members of the workspace at dir.
type PathsFunc func(dir string) (map[string]string, error)

// Options configure [Compile].
type Options struct {
	Ext map[string]string

	// Paths backs loadPaths. Nil makes loadPaths fail.
	Paths PathsFunc
}

// Rule is a compiled expression rule. It implements [source.Decider].
type Rule struct {
	name    string
	program *vm.Program
	ext     map[string]any

	memo map[string]map[string]any
}

// Compile compiles a rule. Syntax errors and references to unknown
// variables are INVALID_RULE errors.
func Compile(in Input, opts Options) (*Rule, error) {
	r := &Rule{
		name: in.Name,
		ext:  make(map[string]any, len(opts.Ext)),
		memo: make(map[string]map[string]any),
	}
	for k, v := range opts.Ext {
		r.ext[k] = v
	}
	h := &helpers{dir: in.Dir, paths: opts.Paths, rule: r}
	program, err := expr.Compile(in.Code, append([]expr.Option{expr.Env(r.env(source.Record{}))}, h.options()...)...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRule, err, "compile %s", in.Name)
	}
	r.program = program
	return r, nil
}

func (r *Rule) env(rec source.Record) map[string]any {
	cur := rec.Source.Map()
	return map[string]any{
		"name":           rec.Name,
		"package":        rec.Package,
		"source":         cur,
		"currentSource":  cur,
		"originalSource": rec.Original.Map(),
		"resolved":       rec.Resolved,
		"ext":            r.ext,
	}
}

// Decide implements [source.Decider].
func (r *Rule) Decide(rec source.Record) (source.Outcome, error) {
	res, err := expr.Run(r.program, r.env(rec))
	if err != nil {
		return source.Outcome{}, fmt.Errorf("%s: %w", r.name, err)
	}
	return outcome(res)
}

func outcome(res any) (source.Outcome, error) {
	switch v := res.(type) {
	case nil:
		return source.Unchanged(), nil
	case map[string]any:
		fields := make(map[string]any, len(v))
		for k, x := range v {
			if x != nil {
				fields[k] = x
			}
		}
		d, err := source.FromMap(fields)
		if err != nil {
			return source.Outcome{}, errors.Wrap(errors.ErrCodeInvalidRule, err, "invalid source returned")
		}
		return source.Replace(d), nil
	}
	return source.Outcome{}, errors.New(errors.ErrCodeInvalidRule, "rule returned %T, want nil or a map", res)
}

// =============================================================================
// Helpers
// =============================================================================

type helpers struct {
	dir   string
	paths PathsFunc
	rule  *Rule
}

func (h *helpers) options() []expr.Option {
	return []expr.Option{
		expr.Function("loadPaths", func(params ...any) (any, error) {
			return h.memoized("paths", params[0].(string), h.loadPaths)
		},
			new(func(string) map[string]any)),
		expr.Function("loadLocked", func(params ...any) (any, error) {
			return h.memoized("locked", params[0].(string), loadLocked)
		},
			new(func(string) map[string]any)),
		expr.Function("getenv", func(params ...any) (any, error) {
			return os.Getenv(params[0].(string)), nil
		},
			new(func(string) string)),
	}
}

func (h *helpers) resolve(p string) string {
	if filepath.IsAbs(p) || h.dir == "" {
		return p
	}
	return filepath.Join(h.dir, p)
}

func (h *helpers) memoized(kind, arg string, load func(string) (map[string]string, error)) (map[string]any, error) {
	path := h.resolve(arg)
	key := kind + "\x00" + path
	if m, ok := h.rule.memo[key]; ok {
		return m, nil
	}
	res, err := load(path)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(res))
	for k, v := range res {
		m[k] = v
	}
	h.rule.memo[key] = m
	return m, nil
}

func (h *helpers) loadPaths(dir string) (map[string]string, error) {
	if h.paths == nil {
		return nil, errors.New(errors.ErrCodeInternal, "loadPaths is not available")
	}
	return h.paths(dir)
}

func loadLocked(path string) (map[string]string, error) {
	lf, err := lockfile.Load(path)
	if err != nil {
		return nil, err
	}
	return lf.Local(), nil
}
