package patch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/deppatcher/pkg/errors"
	"github.com/matzehuels/deppatcher/pkg/ledger"
	"github.com/matzehuels/deppatcher/pkg/observability"
	"github.com/matzehuels/deppatcher/pkg/source"
	"github.com/matzehuels/deppatcher/pkg/tomledit"
)

const scenario = `[package]
name = "demo"
version = "0.1.0"

[dependencies]
foo = "1.0"
`

const workspaceManifest = `# top comment
[package]
name = "app"
version = "0.1.0"

[dependencies]
serde = { version = "1.0", features = ["derive"] } # keep me
log = "0.4"
local = { path = "../local" }
renamed = { package = "real-name", version = "2" }
weird = 1

[dependencies.rand]
version = "0.8"
default-features = false

[dev-dependencies]
tokio.version = "1"
tokio.features = ["full"]

[target.'cfg(unix)'.dependencies]
libc = "0.2"

[workspace]
members = ["crates/*"]

[workspace.dependencies]
anyhow = "1.0"
`

// mapDecider replaces the source of the listed packages and leaves the rest.
func mapDecider(m map[string]source.Descriptor) source.Decider {
	return source.DeciderFunc(func(r source.Record) (source.Outcome, error) {
		if d, ok := m[r.Package]; ok {
			return source.Replace(d), nil
		}
		return source.Unchanged(), nil
	})
}

// localPaths points every version-sourced package at /local/<package>.
var localPaths = source.DeciderFunc(func(r source.Record) (source.Outcome, error) {
	if r.Original.Version == "" || r.Original.Path != "" {
		return source.Unchanged(), nil
	}
	return source.Replace(source.Descriptor{Path: "/local/" + r.Package}), nil
})

var unchanged = source.DeciderFunc(func(source.Record) (source.Outcome, error) {
	return source.Unchanged(), nil
})

func writeManifest(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Cargo.toml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readManifest(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	path := writeManifest(t, scenario)
	e := &Engine{Decider: mapDecider(map[string]source.Descriptor{"foo": {Path: "/local/foo"}})}

	rep, err := e.PatchFile(ctx, path, false)
	if err != nil {
		t.Fatalf("PatchFile: %v", err)
	}
	want := `[package]
name = "demo"
version = "0.1.0"

[dependencies]
foo = { path = "/local/foo" }

[package.metadata.deppatcher.originals.dependencies]
foo = { version = "1.0" }
`
	if diff := cmp.Diff(want, readManifest(t, path)); diff != "" {
		t.Fatalf("after patch (-want +got):\n%s", diff)
	}
	if !rep.Written || len(rep.Changes) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	c := rep.Changes[0]
	if c.Path.String() != "dependencies.foo" || !c.From.Equal(source.Descriptor{Version: "1.0"}) || c.Restored {
		t.Errorf("change = %+v", c)
	}

	// Second run is a no-op.
	rep, err = e.PatchFile(ctx, path, false)
	if err != nil {
		t.Fatalf("second PatchFile: %v", err)
	}
	if rep.Written || len(rep.Changes) != 0 {
		t.Errorf("second run changed the manifest: %+v", rep.Changes)
	}

	// Revert restores the original bytes.
	rep, err = e.RevertFile(ctx, path, false)
	if err != nil {
		t.Fatalf("RevertFile: %v", err)
	}
	if diff := cmp.Diff(scenario, readManifest(t, path)); diff != "" {
		t.Errorf("after revert (-want +got):\n%s", diff)
	}
	if len(rep.Changes) != 1 || !rep.Changes[0].Restored {
		t.Errorf("revert report = %+v", rep.Changes)
	}
}

func TestMinimality(t *testing.T) {
	for name, src := range map[string]string{"scenario": scenario, "workspace": workspaceManifest} {
		t.Run(name, func(t *testing.T) {
			path := writeManifest(t, src)
			e := &Engine{Decider: unchanged}
			rep, err := e.PatchFile(context.Background(), path, false)
			if err != nil {
				t.Fatalf("PatchFile: %v", err)
			}
			if rep.Written || rep.Modified() {
				t.Error("unchanged decider modified the manifest")
			}
			if diff := cmp.Diff(src, readManifest(t, path)); diff != "" {
				t.Errorf("manifest changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIdempotenceAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := writeManifest(t, workspaceManifest)
	e := &Engine{Decider: localPaths}

	if _, err := e.PatchFile(ctx, path, false); err != nil {
		t.Fatalf("PatchFile: %v", err)
	}
	patched := readManifest(t, path)
	if patched == workspaceManifest {
		t.Fatal("patch changed nothing")
	}

	rep, err := e.PatchFile(ctx, path, false)
	if err != nil {
		t.Fatalf("second PatchFile: %v", err)
	}
	if len(rep.Changes) != 0 {
		t.Errorf("second run changes: %+v", rep.Changes)
	}
	if diff := cmp.Diff(patched, readManifest(t, path)); diff != "" {
		t.Errorf("second run changed bytes (-want +got):\n%s", diff)
	}

	if _, err := e.RevertFile(ctx, path, false); err != nil {
		t.Fatalf("RevertFile: %v", err)
	}
	doc, err := tomledit.Parse([]byte(readManifest(t, path)))
	if err != nil {
		t.Fatal(err)
	}
	before, _ := tomledit.Parse([]byte(workspaceManifest))
	for _, key := range []ledger.KeyPath{
		{"dependencies", "serde"},
		{"dependencies", "log"},
		{"dependencies", "renamed"},
		{"dependencies", "rand"},
		{"dev-dependencies", "tokio"},
		{"target", "cfg(unix)", "dependencies", "libc"},
		{"workspace", "dependencies", "anyhow"},
	} {
		want := readDecl(t, before, key)
		got := readDecl(t, doc, key)
		if !got.Equal(want) {
			t.Errorf("%s after revert = %s, want %s", key, got, want)
		}
	}
	led, _ := ledger.Open(doc)
	if led.Len() != 0 {
		t.Errorf("ledger still has %d entries: %+v", led.Len(), led.Entries())
	}
}

func readDecl(t *testing.T, doc *tomledit.Document, key ledger.KeyPath) source.Descriptor {
	t.Helper()
	n, ok := tomledit.Lookup(doc.Root(), key...)
	if !ok {
		t.Fatalf("missing declaration %s", key)
	}
	d, ok := source.ReadNode(n)
	if !ok {
		t.Fatalf("%s is not a declaration", key)
	}
	return d
}

func TestVisitOrder(t *testing.T) {
	doc, err := tomledit.Parse([]byte(workspaceManifest))
	if err != nil {
		t.Fatal(err)
	}
	var visited []string
	e := &Engine{Decider: source.DeciderFunc(func(r source.Record) (source.Outcome, error) {
		visited = append(visited, fmt.Sprintf("%s/%s", r.Name, r.Package))
		return source.Unchanged(), nil
	})}
	if _, err := e.PatchDocument(context.Background(), doc); err != nil {
		t.Fatalf("PatchDocument: %v", err)
	}
	want := []string{
		"serde/serde", "log/log", "local/local", "renamed/real-name", "rand/rand",
		"tokio/tokio",
		"libc/libc",
		"anyhow/anyhow",
	}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestRenamedDependencyLedger(t *testing.T) {
	ctx := context.Background()
	path := writeManifest(t, workspaceManifest)
	e := &Engine{Decider: mapDecider(map[string]source.Descriptor{"real-name": {Path: "/p"}})}

	if _, err := e.PatchFile(ctx, path, false); err != nil {
		t.Fatalf("PatchFile: %v", err)
	}
	doc, err := tomledit.Parse([]byte(readManifest(t, path)))
	if err != nil {
		t.Fatal(err)
	}
	led, _ := ledger.Open(doc)
	got, ok := led.Lookup(ledger.KeyPath{"dependencies", "real-name"})
	if !ok || !got.Equal(source.Descriptor{Version: "2"}) {
		t.Errorf("ledger entry = %s, %v", got, ok)
	}
	if _, ok := led.Lookup(ledger.KeyPath{"dependencies", "renamed"}); ok {
		t.Error("ledger entry stored under the alias")
	}
	decl := readDecl(t, doc, ledger.KeyPath{"dependencies", "renamed"})
	if !decl.Equal(source.Descriptor{Path: "/p"}) {
		t.Errorf("declaration = %s", decl)
	}

	if _, err := e.RevertFile(ctx, path, false); err != nil {
		t.Fatalf("RevertFile: %v", err)
	}
	if diff := cmp.Diff(workspaceManifest, readManifest(t, path)); diff != "" {
		t.Errorf("after revert (-want +got):\n%s", diff)
	}
}

func TestForms(t *testing.T) {
	toPath := map[string]source.Descriptor{"foo": {Path: "/p"}}
	tests := []struct {
		name        string
		src         string
		decide      map[string]source.Descriptor
		forceInline bool
		want        string
	}{
		{
			name:   "header table kept",
			src:    "[package]\nname = \"x\"\n\n[dependencies.foo]\nversion = \"1.0\"\nfeatures = [\"x\"]\n",
			decide: toPath,
			want: "[package]\nname = \"x\"\n\n[dependencies.foo]\npath = \"/p\"\nfeatures = [\"x\"]\n" +
				"\n[package.metadata.deppatcher.originals.dependencies]\nfoo = { version = \"1.0\" }\n",
		},
		{
			name:        "header table forced inline",
			src:         "[package]\nname = \"x\"\n\n[dependencies.foo]\nversion = \"1.0\"\nfeatures = [\"x\"]\n",
			decide:      toPath,
			forceInline: true,
			want: "[package]\nname = \"x\"\n\n[dependencies]\nfoo = { path = \"/p\", features = [\"x\"] }\n" +
				"\n[package.metadata.deppatcher.originals.dependencies]\nfoo = { version = \"1.0\" }\n",
		},
		{
			name:        "forced inline leaves unchanged declarations",
			src:         "[package]\nname = \"x\"\n\n[dependencies]\nbar.version = \"2\"\nbar.features = [\"y\"]\n\n[dependencies.foo]\nversion = \"1.0\"\n",
			decide:      toPath,
			forceInline: true,
			want: "[package]\nname = \"x\"\n\n[dependencies]\nbar.version = \"2\"\nbar.features = [\"y\"]\nfoo = { path = \"/p\" }\n" +
				"\n[package.metadata.deppatcher.originals.dependencies]\nfoo = { version = \"1.0\" }\n",
		},
		{
			name:   "dotted kept",
			src:    "[package]\nname = \"x\"\n\n[dependencies]\nfoo.version = \"1.0\"\nfoo.features = [\"x\"]\n",
			decide: toPath,
			want: "[package]\nname = \"x\"\n\n[dependencies]\nfoo.path = \"/p\"\nfoo.features = [\"x\"]\n" +
				"\n[package.metadata.deppatcher.originals.dependencies]\nfoo = { version = \"1.0\" }\n",
		},
		{
			name:   "inline collapses to string",
			src:    "[package]\nname = \"x\"\n\n[dependencies]\nfoo = { version = \"1.0\", path = \"../foo\" }\n",
			decide: map[string]source.Descriptor{"foo": {Version: "1.0"}},
			want: "[package]\nname = \"x\"\n\n[dependencies]\nfoo = \"1.0\"\n" +
				"\n[package.metadata.deppatcher.originals.dependencies]\nfoo = { version = \"1.0\", path = \"../foo\" }\n",
		},
		{
			name:   "string stays string",
			src:    "[package]\nname = \"x\"\n\n[dependencies]\nfoo = \"1.0\" # pinned\n",
			decide: map[string]source.Descriptor{"foo": {Version: "2.0"}},
			want: "[package]\nname = \"x\"\n\n[dependencies]\nfoo = \"2.0\" # pinned\n" +
				"\n[package.metadata.deppatcher.originals.dependencies]\nfoo = { version = \"1.0\" }\n",
		},
		{
			name:   "empty replacement is a change",
			src:    "[package]\nname = \"x\"\n\n[dependencies]\nfoo = \"1.0\"\n",
			decide: map[string]source.Descriptor{"foo": {}},
			want: "[package]\nname = \"x\"\n\n[dependencies]\nfoo = {}\n" +
				"\n[package.metadata.deppatcher.originals.dependencies]\nfoo = { version = \"1.0\" }\n",
		},
		{
			name:   "unchanged inline table keeps its form",
			src:    "[package]\nname = \"x\"\n\n[dependencies]\nfoo = { version = \"1.0\" }\n",
			decide: map[string]source.Descriptor{"foo": {Version: "1.0"}},
			want:   "[package]\nname = \"x\"\n\n[dependencies]\nfoo = { version = \"1.0\" }\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := tomledit.Parse([]byte(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			e := &Engine{Decider: mapDecider(tt.decide), Options: Options{ForceInline: tt.forceInline}}
			if _, err := e.PatchDocument(context.Background(), doc); err != nil {
				t.Fatalf("PatchDocument: %v", err)
			}
			if diff := cmp.Diff(tt.want, doc.String()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPatchTwiceThenRevert(t *testing.T) {
	ctx := context.Background()
	path := writeManifest(t, scenario)

	first := &Engine{Decider: mapDecider(map[string]source.Descriptor{"foo": {Path: "/local/foo"}})}
	second := &Engine{Decider: mapDecider(map[string]source.Descriptor{"foo": {Git: "https://example.com/foo", Branch: "dev"}})}
	for _, e := range []*Engine{first, second} {
		if _, err := e.PatchFile(ctx, path, false); err != nil {
			t.Fatalf("PatchFile: %v", err)
		}
	}
	doc, _ := tomledit.Parse([]byte(readManifest(t, path)))
	led, _ := ledger.Open(doc)
	if got, _ := led.Lookup(ledger.KeyPath{"dependencies", "foo"}); !got.Equal(source.Descriptor{Version: "1.0"}) {
		t.Errorf("ledger keeps %s, want the first original", got)
	}

	if _, err := first.RevertFile(ctx, path, false); err != nil {
		t.Fatalf("RevertFile: %v", err)
	}
	if diff := cmp.Diff(scenario, readManifest(t, path)); diff != "" {
		t.Errorf("after revert (-want +got):\n%s", diff)
	}
}

func TestFreezeThenRevert(t *testing.T) {
	ctx := context.Background()
	path := writeManifest(t, scenario)
	e := &Engine{Decider: localPaths}

	if _, err := e.PatchFile(ctx, path, false); err != nil {
		t.Fatal(err)
	}
	rep, err := e.FreezeFile(ctx, path, false)
	if err != nil {
		t.Fatalf("FreezeFile: %v", err)
	}
	if !rep.Frozen {
		t.Error("FreezeFile removed nothing")
	}
	frozen := readManifest(t, path)
	want := "[package]\nname = \"demo\"\nversion = \"0.1.0\"\n\n[dependencies]\nfoo = { path = \"/local/foo\" }\n"
	if diff := cmp.Diff(want, frozen); diff != "" {
		t.Errorf("after freeze (-want +got):\n%s", diff)
	}

	rep, err = e.RevertFile(ctx, path, false)
	if err != nil {
		t.Fatalf("RevertFile: %v", err)
	}
	if rep.Written || len(rep.Changes) != 0 {
		t.Errorf("revert after freeze changed the manifest: %+v", rep.Changes)
	}

	rep, err = e.FreezeFile(ctx, path, false)
	if err != nil || rep.Frozen || rep.Written {
		t.Errorf("second freeze = %+v, %v", rep, err)
	}
}

func TestMalformedLedger(t *testing.T) {
	src := "[package]\nname = \"x\"\nmetadata = \"oops\"\n\n[dependencies]\nfoo = \"1.0\"\n"
	path := writeManifest(t, src)
	called := false
	e := &Engine{Decider: source.DeciderFunc(func(source.Record) (source.Outcome, error) {
		called = true
		return source.Replace(source.Descriptor{Path: "/p"}), nil
	})}

	_, err := e.PatchFile(context.Background(), path, false)
	if !errors.Is(err, errors.ErrCodeMalformedLedger) {
		t.Fatalf("err = %v, want MALFORMED_LEDGER", err)
	}
	if called {
		t.Error("decider called for a manifest with a malformed ledger")
	}
	if readManifest(t, path) != src {
		t.Error("manifest modified")
	}
}

func TestDecisionFailure(t *testing.T) {
	src := "[package]\nname = \"x\"\n\n[dependencies]\na = \"1\"\nb = \"2\"\n"
	path := writeManifest(t, src)
	e := &Engine{Decider: source.DeciderFunc(func(r source.Record) (source.Outcome, error) {
		if r.Name == "b" {
			return source.Outcome{}, fmt.Errorf("boom")
		}
		return source.Replace(source.Descriptor{Path: "/a"}), nil
	})}

	_, err := e.PatchFile(context.Background(), path, false)
	if !errors.Is(err, errors.ErrCodeDecisionFailed) {
		t.Fatalf("err = %v, want DECISION_FAILED", err)
	}
	if readManifest(t, path) != src {
		t.Error("manifest written despite the failure")
	}
}

func TestInvalidManifest(t *testing.T) {
	path := writeManifest(t, "[package\n")
	_, err := (&Engine{Decider: unchanged}).PatchFile(context.Background(), path, false)
	if !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("err = %v, want INVALID_MANIFEST", err)
	}

	_, err = (&Engine{Decider: unchanged}).PatchFile(context.Background(), filepath.Join(t.TempDir(), "missing.toml"), false)
	if !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("err = %v, want IO_ERROR", err)
	}
}

func TestDryRun(t *testing.T) {
	path := writeManifest(t, scenario)
	e := &Engine{Decider: localPaths}
	rep, err := e.PatchFile(context.Background(), path, true)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Written || !rep.Modified() {
		t.Errorf("dry run report = written %v, modified %v", rep.Written, rep.Modified())
	}
	if readManifest(t, path) != scenario {
		t.Error("dry run wrote the manifest")
	}
}

func TestPatchFilesStopsOnCancel(t *testing.T) {
	paths := []string{writeManifest(t, scenario), writeManifest(t, scenario)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := (&Engine{Decider: localPaths}).PatchFiles(ctx, paths, false)
	if err == nil || len(reports) != 0 {
		t.Errorf("PatchFiles = %d reports, %v; want cancellation", len(reports), err)
	}
	for _, p := range paths {
		if readManifest(t, p) != scenario {
			t.Errorf("%s written after cancellation", p)
		}
	}
}

type countingHooks struct {
	observability.NoopPatchHooks
	decisions, changed, manifests int
}

func (h *countingHooks) OnDecision(_ context.Context, _, _ string, changed bool) {
	h.decisions++
	if changed {
		h.changed++
	}
}

func (h *countingHooks) OnManifestComplete(context.Context, string, int, time.Duration, error) {
	h.manifests++
}

func TestHooks(t *testing.T) {
	hooks := &countingHooks{}
	e := &Engine{Decider: localPaths, Hooks: hooks}
	paths := []string{writeManifest(t, scenario), writeManifest(t, workspaceManifest)}
	if _, err := e.PatchFiles(context.Background(), paths, true); err != nil {
		t.Fatal(err)
	}
	// local is the only declaration without a version.
	if hooks.manifests != 2 || hooks.decisions != 9 || hooks.changed != 8 {
		t.Errorf("hooks = %+v", hooks)
	}
}

const aliasedManifest = `[package]
name = "demo"
version = "0.1.0"

[dependencies]
rand_old = { package = "rand", version = "0.7" }
rand = "0.8"
`

func TestAliasedDeclarationsKeepSeparateOriginals(t *testing.T) {
	ctx := context.Background()
	path := writeManifest(t, aliasedManifest)
	e := &Engine{Decider: mapDecider(map[string]source.Descriptor{"rand": {Path: "/local/rand"}})}

	rep, err := e.PatchFile(ctx, path, false)
	if err != nil {
		t.Fatalf("PatchFile: %v", err)
	}
	if len(rep.Changes) != 2 {
		t.Fatalf("changes = %+v, want 2", rep.Changes)
	}
	want := `[package]
name = "demo"
version = "0.1.0"

[dependencies]
rand_old = { package = "rand", path = "/local/rand" }
rand = { path = "/local/rand" }

[package.metadata.deppatcher.originals.dependencies]
rand_old = { version = "0.7" }
rand = { version = "0.8" }
`
	if diff := cmp.Diff(want, readManifest(t, path)); diff != "" {
		t.Fatalf("after patch (-want +got):\n%s", diff)
	}

	originals := map[string]string{}
	seen := source.DeciderFunc(func(r source.Record) (source.Outcome, error) {
		originals[r.Name] = r.Original.Version
		return source.Unchanged(), nil
	})
	if _, err := (&Engine{Decider: seen}).PatchFile(ctx, path, false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"rand_old": "0.7", "rand": "0.8"}, originals); diff != "" {
		t.Errorf("originals seen by the decider (-want +got):\n%s", diff)
	}

	if _, err := e.RevertFile(ctx, path, false); err != nil {
		t.Fatalf("RevertFile: %v", err)
	}
	if diff := cmp.Diff(aliasedManifest, readManifest(t, path)); diff != "" {
		t.Errorf("after revert (-want +got):\n%s", diff)
	}
}

func TestBackupSlots(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    map[string]ledger.KeyPath
		wantErr bool
	}{
		{
			name: "plain and renamed",
			src:  "[dependencies]\nserde = \"1\"\nlog2 = { package = \"log\", version = \"0.4\" }\n",
			want: map[string]ledger.KeyPath{
				"serde": {"dependencies", "serde"},
				"log2":  {"dependencies", "log"},
			},
		},
		{
			name: "two declarations of one package",
			src:  "[dependencies]\nrand_old = { package = \"rand\", version = \"0.7\" }\nrand = \"0.8\"\n",
			want: map[string]ledger.KeyPath{
				"rand_old": {"dependencies", "rand_old"},
				"rand":     {"dependencies", "rand"},
			},
		},
		{
			name: "two aliases and no plain declaration",
			src:  "[dependencies]\na = { package = \"x\", version = \"1\" }\nb = { package = \"x\", version = \"2\" }\n",
			want: map[string]ledger.KeyPath{
				"a": {"dependencies", "a"},
				"b": {"dependencies", "b"},
			},
		},
		{
			name:    "alias name taken by another package",
			src:     "[dependencies]\na = { package = \"x\", version = \"1\" }\nb = { package = \"x\", version = \"2\" }\nc = { package = \"a\", version = \"3\" }\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := tomledit.Parse([]byte(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			n, _ := doc.Root().Get("dependencies")
			got, err := backupSlots(n.(tomledit.TableLike), ledger.KeyPath{"dependencies"})
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidManifest) {
					t.Errorf("err = %v, want INVALID_MANIFEST", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("slots (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSharedSlotFailsBeforeRewriting(t *testing.T) {
	src := "[dependencies]\na = { package = \"x\", version = \"1\" }\nb = { package = \"x\", version = \"2\" }\nc = { package = \"a\", version = \"3\" }\n"
	doc, err := tomledit.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	_, err = (&Engine{Decider: localPaths}).PatchDocument(context.Background(), doc)
	if !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Fatalf("err = %v, want INVALID_MANIFEST", err)
	}
	if doc.String() != src {
		t.Errorf("document changed:\n%s", doc.String())
	}
}

func TestLayoutSurvivesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
		to   source.Descriptor
	}{
		{
			name: "renamed inline table",
			src:  "[package]\nname = \"x\"\n\n[dependencies]\nfoo = { package = \"real\", version = \"2\", features = [\"x\"] }\n",
			to:   source.Descriptor{Path: "/p"},
		},
		{
			name: "dotted group",
			src:  "[package]\nname = \"x\"\n\n[dependencies]\nfoo.version = \"1\"\nfoo.features = [\"full\"]\nb = \"2\"\n",
			to:   source.Descriptor{Git: "https://g", Branch: "dev"},
		},
		{
			name: "header table",
			src:  "[package]\nname = \"x\"\n\n[dependencies.foo]\nversion = \"1\"\ndefault-features = false\n\n[dependencies.bar]\nversion = \"3\"\n",
			to:   source.Descriptor{Git: "https://g", Rev: "abc"},
		},
		{
			name: "no final newline",
			src:  "[package]\nname = \"demo\"\n\n[dependencies]\nfoo = \"1.0\"",
			to:   source.Descriptor{Path: "/p"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := writeManifest(t, tt.src)
			e := &Engine{Decider: mapDecider(map[string]source.Descriptor{"foo": tt.to, "real": tt.to})}

			if _, err := e.PatchFile(ctx, path, false); err != nil {
				t.Fatalf("PatchFile: %v", err)
			}
			if _, err := e.RevertFile(ctx, path, false); err != nil {
				t.Fatalf("RevertFile: %v", err)
			}
			if diff := cmp.Diff(tt.src, readManifest(t, path)); diff != "" {
				t.Errorf("after revert (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDottedPatchKeepsGroup(t *testing.T) {
	doc, err := tomledit.Parse([]byte("[package]\nname = \"x\"\n\n[dependencies]\ntokio.version = \"1\"\ntokio.features = [\"full\"]\nb = \"2\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	e := &Engine{Decider: mapDecider(map[string]source.Descriptor{"tokio": {Git: "https://g", Branch: "dev"}})}
	if _, err := e.PatchDocument(context.Background(), doc); err != nil {
		t.Fatal(err)
	}
	want := "[package]\nname = \"x\"\n\n[dependencies]\ntokio.git = \"https://g\"\ntokio.features = [\"full\"]\ntokio.branch = \"dev\"\nb = \"2\"\n" +
		"\n[package.metadata.deppatcher.originals.dependencies]\ntokio = { version = \"1\" }\n"
	if diff := cmp.Diff(want, doc.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
