// Package source defines the data exchanged between the patch engines and a
// decision function: where a dependency comes from ([Descriptor]), what the
// function is asked about ([Record]) and what it answers ([Outcome]).
package source

import (
	"fmt"
	"strings"

	"github.com/matzehuels/deppatcher/pkg/tomledit"
)

// Field names in the order they are written into a declaration.
const (
	FieldVersion   = "version"
	FieldPath      = "path"
	FieldGit       = "git"
	FieldRev       = "rev"
	FieldTag       = "tag"
	FieldBranch    = "branch"
	FieldRegistry  = "registry"
	FieldWorkspace = "workspace"
)

// Fields lists every descriptor field in write order.
var Fields = []string{
	FieldVersion, FieldPath, FieldGit, FieldRev, FieldTag, FieldBranch, FieldRegistry, FieldWorkspace,
}

// Descriptor is where a dependency's code comes from. Empty strings and a nil
// Workspace mean the field is absent. Two descriptors are equal only when
// every field is equal; "1" and "1.0" are different versions.
type Descriptor struct {
	Version   string
	Registry  string
	Path      string
	Git       string
	Rev       string
	Tag       string
	Branch    string
	Workspace *bool
}

// Bool returns a pointer to b, for Descriptor.Workspace.
func Bool(b bool) *bool { return &b }

func (d *Descriptor) str(field string) *string {
	switch field {
	case FieldVersion:
		return &d.Version
	case FieldPath:
		return &d.Path
	case FieldGit:
		return &d.Git
	case FieldRev:
		return &d.Rev
	case FieldTag:
		return &d.Tag
	case FieldBranch:
		return &d.Branch
	case FieldRegistry:
		return &d.Registry
	}
	return nil
}

// Read extracts the descriptor fields of a declaration table. Other keys
// (features, optional, package, ...) are ignored, as are fields of the
// wrong type.
func Read(t tomledit.TableLike) Descriptor {
	var d Descriptor
	for _, f := range Fields {
		n, ok := t.Get(f)
		if !ok {
			continue
		}
		if f == FieldWorkspace {
			if b, ok := tomledit.AsBool(n); ok {
				d.Workspace = Bool(b)
			}
			continue
		}
		if s, ok := tomledit.AsString(n); ok {
			*d.str(f) = s
		}
	}
	return d
}

// ReadNode reads a declaration in either of its forms: a bare version
// string or a table. It reports false for any other node.
func ReadNode(n tomledit.Node) (Descriptor, bool) {
	if s, ok := tomledit.AsString(n); ok {
		return Descriptor{Version: s}, true
	}
	if t, ok := tomledit.AsTableLike(n); ok {
		return Read(t), true
	}
	return Descriptor{}, false
}

// WriteTo makes the descriptor fields of t match d. Fields that already hold
// the wanted value are left as written and keys that are not descriptor
// fields are never touched. A field that has to go makes room for a field
// that has to be added, so a swapped source keeps its place in the table.
func (d Descriptor) WriteTo(t tomledit.TableLike) {
	cur := Read(t)
	var stale []string
	for _, f := range Fields {
		if _, ok := t.Get(f); ok && !d.has(f) {
			stale = append(stale, f)
		}
	}
	for _, f := range Fields {
		if !d.has(f) {
			continue
		}
		_, present := t.Get(f)
		switch {
		case !present && len(stale) > 0:
			t.Rename(stale[0], f)
			stale = stale[1:]
			t.Set(f, d.value(f))
		case !present || !d.sameField(cur, f):
			t.Set(f, d.value(f))
		}
	}
	for _, f := range stale {
		t.Remove(f)
	}
}

func (d Descriptor) has(field string) bool {
	if field == FieldWorkspace {
		return d.Workspace != nil
	}
	return *d.str(field) != ""
}

func (d Descriptor) value(field string) tomledit.Value {
	if field == FieldWorkspace {
		return tomledit.NewBool(*d.Workspace)
	}
	return tomledit.NewString(*d.str(field))
}

func (d Descriptor) sameField(o Descriptor, field string) bool {
	if field == FieldWorkspace {
		return o.Workspace != nil && *o.Workspace == *d.Workspace
	}
	return *o.str(field) == *d.str(field)
}

// InlineTable returns a new inline table holding the present fields.
func (d Descriptor) InlineTable() *tomledit.InlineTable {
	it := tomledit.NewInlineTable()
	d.WriteTo(it)
	return it
}

// IsEmpty reports whether no field is present.
func (d Descriptor) IsEmpty() bool { return d.Equal(Descriptor{}) }

// VersionOnly reports whether version is the only present field, which is
// the one shape a bare string declaration can express.
func (d Descriptor) VersionOnly() bool {
	return d.Version != "" && d.Equal(Descriptor{Version: d.Version})
}

// Equal reports field-wise equality.
func (d Descriptor) Equal(o Descriptor) bool {
	if (d.Workspace == nil) != (o.Workspace == nil) {
		return false
	}
	if d.Workspace != nil && *d.Workspace != *o.Workspace {
		return false
	}
	return d.Version == o.Version && d.Registry == o.Registry && d.Path == o.Path &&
		d.Git == o.Git && d.Rev == o.Rev && d.Tag == o.Tag && d.Branch == o.Branch
}

// Key returns a string that is equal for two descriptors exactly when they
// are [Descriptor.Equal]. It is used as a map key.
func (d Descriptor) Key() string {
	var b strings.Builder
	for _, f := range Fields {
		if f == FieldWorkspace {
			if d.Workspace != nil {
				fmt.Fprintf(&b, "%s=%t;", f, *d.Workspace)
			}
			continue
		}
		if v := *d.str(f); v != "" {
			fmt.Fprintf(&b, "%s=%q;", f, v)
		}
	}
	return b.String()
}

// String formats the descriptor as an inline table.
func (d Descriptor) String() string { return d.InlineTable().String() }

// Map returns the present fields as a map, the shape decision functions
// receive.
func (d Descriptor) Map() map[string]any {
	m := make(map[string]any)
	for _, f := range Fields {
		if f == FieldWorkspace {
			if d.Workspace != nil {
				m[f] = *d.Workspace
			}
			continue
		}
		if v := *d.str(f); v != "" {
			m[f] = v
		}
	}
	return m
}

// FromMap builds a descriptor from the shape returned by decision functions.
// Unknown keys and values of the wrong type are errors; an empty string
// counts as absent.
func FromMap(m map[string]any) (Descriptor, error) {
	var d Descriptor
	for k, v := range m {
		if k == FieldWorkspace {
			b, ok := v.(bool)
			if !ok {
				return Descriptor{}, fmt.Errorf("field %q: want bool, got %T", k, v)
			}
			d.Workspace = Bool(b)
			continue
		}
		p := d.str(k)
		if p == nil {
			return Descriptor{}, fmt.Errorf("unknown field %q", k)
		}
		s, ok := v.(string)
		if !ok {
			return Descriptor{}, fmt.Errorf("field %q: want string, got %T", k, v)
		}
		*p = s
	}
	return d, nil
}
