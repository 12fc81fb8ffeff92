package source

// Record is what a decision function is asked about: one declaration in a
// manifest, or one package reached in the resolved graph.
type Record struct {
	// Name is the key the dependency is declared under.
	Name string
	// Package is the real package identity; it differs from Name only for
	// renamed dependencies.
	Package string
	// Source is the live descriptor.
	Source Descriptor
	// Original is the descriptor recorded before the first patch, or Source
	// when nothing was recorded.
	Original Descriptor
	// Resolved is the locked git commit, known only in graph mode.
	Resolved string
}

// Outcome is the answer of a decision function: leave the declaration alone,
// or replace its source. Replacing with an empty descriptor is a change.
type Outcome struct {
	replace bool
	desc    Descriptor
}

// Unchanged returns the outcome that never mutates anything.
func Unchanged() Outcome { return Outcome{} }

// Replace returns an outcome that sets the source to d.
func Replace(d Descriptor) Outcome { return Outcome{replace: true, desc: d} }

// IsChange reports whether the outcome carries a replacement.
func (o Outcome) IsChange() bool { return o.replace }

// Descriptor returns the replacement. It is the zero descriptor for
// [Unchanged].
func (o Outcome) Descriptor() Descriptor { return o.desc }

func (o Outcome) String() string {
	if !o.replace {
		return "unchanged"
	}
	return o.desc.String()
}

// Decider decides the source of each record. Implementations are called
// sequentially and need not be safe for concurrent use.
type Decider interface {
	Decide(Record) (Outcome, error)
}

// DeciderFunc adapts a function to [Decider].
type DeciderFunc func(Record) (Outcome, error)

// Decide implements [Decider].
func (f DeciderFunc) Decide(r Record) (Outcome, error) { return f(r) }
