package source

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/deppatcher/pkg/tomledit"
)

func TestEqualAndKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Descriptor
		equal bool
	}{
		{"both empty", Descriptor{}, Descriptor{}, true},
		{"same version", Descriptor{Version: "1.0"}, Descriptor{Version: "1.0"}, true},
		{"no normalization", Descriptor{Version: "1"}, Descriptor{Version: "1.0"}, false},
		{"workspace absent vs false", Descriptor{}, Descriptor{Workspace: Bool(false)}, false},
		{"workspace same", Descriptor{Workspace: Bool(true)}, Descriptor{Workspace: Bool(true)}, true},
		{"git pin", Descriptor{Git: "u", Rev: "a"}, Descriptor{Git: "u", Tag: "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal = %v, want %v", got, tt.equal)
			}
			if got := tt.a.Key() == tt.b.Key(); got != tt.equal {
				t.Errorf("Key equality = %v, want %v (%q vs %q)", got, tt.equal, tt.a.Key(), tt.b.Key())
			}
		})
	}
}

func TestReadNode(t *testing.T) {
	doc, err := tomledit.Parse([]byte(`
a = "1.0"
b = { path = "../b", version = "0.2", features = ["x"] }
c = { workspace = true, optional = true }
d = 3
e = { version = 1 }
`))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		key  string
		want Descriptor
		ok   bool
	}{
		{"a", Descriptor{Version: "1.0"}, true},
		{"b", Descriptor{Path: "../b", Version: "0.2"}, true},
		{"c", Descriptor{Workspace: Bool(true)}, true},
		{"d", Descriptor{}, false},
		{"e", Descriptor{}, true},
	}
	for _, tt := range tests {
		n, _ := doc.Root().Get(tt.key)
		got, ok := ReadNode(n)
		if ok != tt.ok {
			t.Errorf("%s: ok = %v, want %v", tt.key, ok, tt.ok)
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %s, want %s", tt.key, got, tt.want)
		}
	}
}

func TestWriteToSwapsInPlace(t *testing.T) {
	tests := []struct {
		name string
		src  string
		d    Descriptor
		want string
	}{
		{
			name: "path takes the place of version",
			src:  `foo = { version = "1.0", features = ["a"], optional = true }`,
			d:    Descriptor{Path: "/local/foo"},
			want: `foo = { path = "/local/foo", features = ["a"], optional = true }`,
		},
		{
			name: "renamed package keeps its layout",
			src:  `foo = { package = "real", version = "2", features = ["x"] }`,
			d:    Descriptor{Path: "/p"},
			want: `foo = { package = "real", path = "/p", features = ["x"] }`,
		},
		{
			name: "two fields swapped for two",
			src:  `foo = { version = "1", registry = "r", features = [] }`,
			d:    Descriptor{Git: "https://g", Branch: "dev"},
			want: `foo = { git = "https://g", branch = "dev", features = [] }`,
		},
		{
			name: "extra field appended",
			src:  `foo = { version = "1", features = [] }`,
			d:    Descriptor{Git: "https://g", Branch: "dev"},
			want: `foo = { git = "https://g", features = [], branch = "dev" }`,
		},
		{
			name: "workspace swapped for version",
			src:  `foo = { workspace = true, features = ["x"] }`,
			d:    Descriptor{Version: "1"},
			want: `foo = { version = "1", features = ["x"] }`,
		},
		{
			name: "leftover field removed",
			src:  `foo = { git = "https://g", branch = "dev", optional = true }`,
			d:    Descriptor{Path: "/p"},
			want: `foo = { path = "/p", optional = true }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := tomledit.Parse([]byte(tt.src + "\n"))
			if err != nil {
				t.Fatal(err)
			}
			n, _ := doc.Root().Get("foo")
			tt.d.WriteTo(n.(tomledit.TableLike))
			if diff := cmp.Diff(tt.want+"\n", doc.String()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteToRoundTrip(t *testing.T) {
	const src = "[dependencies.foo]\npackage = \"real\"\nversion = \"2\"\nfeatures = [\"x\"]\n"
	doc, err := tomledit.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	n, _ := tomledit.Lookup(doc.Root(), "dependencies", "foo")
	tbl := n.(tomledit.TableLike)
	original := Read(tbl)

	Descriptor{Git: "https://g", Rev: "abc"}.WriteTo(tbl)
	original.WriteTo(tbl)
	if diff := cmp.Diff(src, doc.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteToKeepsUnchangedFields(t *testing.T) {
	doc, err := tomledit.Parse([]byte(`foo = { version = '1.0', git = "https://x" }` + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	n, _ := doc.Root().Get("foo")
	Descriptor{Version: "1.0", Git: "https://x", Branch: "dev"}.WriteTo(n.(tomledit.TableLike))

	want := `foo = { version = '1.0', git = "https://x", branch = "dev" }` + "\n"
	if diff := cmp.Diff(want, doc.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestString(t *testing.T) {
	d := Descriptor{Version: "1", Git: "https://g", Branch: "main", Workspace: Bool(false)}
	want := `{ version = "1", git = "https://g", branch = "main", workspace = false }`
	if got := d.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
	if got := (Descriptor{}).String(); got != "{}" {
		t.Errorf("empty String() = %s", got)
	}
}

func TestMapRoundTrip(t *testing.T) {
	d := Descriptor{Version: "1", Path: "/p", Workspace: Bool(true)}
	m := d.Map()
	if diff := cmp.Diff(map[string]any{"version": "1", "path": "/p", "workspace": true}, m); diff != "" {
		t.Errorf("Map mismatch (-want +got):\n%s", diff)
	}
	back, err := FromMap(m)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d) {
		t.Errorf("FromMap(Map()) = %s, want %s", back, d)
	}
}

func TestFromMapErrors(t *testing.T) {
	for _, m := range []map[string]any{
		{"features": "x"},
		{"version": 1},
		{"workspace": "true"},
	} {
		if _, err := FromMap(m); err == nil {
			t.Errorf("FromMap(%v) succeeded, want error", m)
		}
	}
}

func TestVersionOnly(t *testing.T) {
	tests := []struct {
		d    Descriptor
		want bool
	}{
		{Descriptor{Version: "1"}, true},
		{Descriptor{}, false},
		{Descriptor{Version: "1", Registry: "r"}, false},
		{Descriptor{Path: "/p"}, false},
	}
	for _, tt := range tests {
		if got := tt.d.VersionOnly(); got != tt.want {
			t.Errorf("%s.VersionOnly() = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestOutcome(t *testing.T) {
	if Unchanged().IsChange() {
		t.Error("Unchanged() is a change")
	}
	o := Replace(Descriptor{})
	if !o.IsChange() {
		t.Error("Replace(empty) should be a change")
	}
	if !o.Descriptor().IsEmpty() {
		t.Errorf("Descriptor() = %s", o.Descriptor())
	}

	var calls int
	dec := DeciderFunc(func(r Record) (Outcome, error) {
		calls++
		return Replace(r.Original), nil
	})
	out, err := dec.Decide(Record{Original: Descriptor{Version: "2"}})
	if err != nil || calls != 1 || out.Descriptor().Version != "2" {
		t.Errorf("Decide = %v, %v (calls %d)", out, err, calls)
	}
}
