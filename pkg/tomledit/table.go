package tomledit

import "strings"

// entry is one key of a table. Leaf entries (values) correspond to one
// key = value line and carry that line's formatting.
type entry struct {
	key    string
	rawKey string // key as written; for leaves, the full (possibly dotted) key of the line
	node   Node

	prefix string // blank lines, comments and indentation before the line
	sep    string // text between key and value, including '='
	suffix string // text after the value through the end of the line
	seq    int    // parse order of the line, -1 once inserted by an edit
	added  bool   // inserted by an edit next to the line seq
}

// Table is a header table, a dotted-key table or an implicit table.
type Table struct {
	entries  []*entry
	implicit bool
	dotted   bool
	position int // order of the header in the source, -1 for tables created by edits

	header  string // header text as written, e.g. [target.'cfg(unix)'.dependencies]
	hprefix string // blank lines and comments before the header
	hsuffix string // text after the header through the end of the line
}

// NewTable returns an empty explicit table.
func NewTable() *Table { return &Table{position: -1} }

// NewImplicitTable returns an empty table that prints no header until it
// holds values.
func NewImplicitTable() *Table { return &Table{position: -1, implicit: true} }

// Kind implements [Node].
func (t *Table) Kind() Kind { return KindTable }

// IsImplicit reports whether the table has no header of its own.
func (t *Table) IsImplicit() bool { return t.implicit }

// SetImplicit marks the table implicit. Implicit tables with values still
// print a header.
func (t *Table) SetImplicit(v bool) { t.implicit = v }

// IsDotted reports whether the table was defined through dotted keys.
func (t *Table) IsDotted() bool { return t.dotted }

// SetDotted makes the table print as dotted keys inside its parent body.
func (t *Table) SetDotted(v bool) { t.dotted = v }

func (t *Table) find(key string) int {
	for i, e := range t.entries {
		if e.key == key {
			return i
		}
	}
	return -1
}

// Get implements [TableLike].
func (t *Table) Get(key string) (Node, bool) {
	if i := t.find(key); i >= 0 {
		return t.entries[i].node, true
	}
	return nil, false
}

// Set implements [TableLike]. Replacing a value keeps the line's key,
// comments and spacing. Replacing a table with a value moves the value into
// this table's body.
func (t *Table) Set(key string, n Node) {
	i := t.find(key)
	if i < 0 {
		ne := &entry{key: key, node: n, seq: -1}
		if _, ok := n.(Value); ok && t.dotted {
			// Keep the new line with the rest of the dotted group.
			if last := t.lastLeaf(); last != nil {
				ne.seq = last.seq
				ne.added = true
				ne.prefix = last.prefix[strings.LastIndexByte(last.prefix, '\n')+1:]
			}
		}
		t.entries = append(t.entries, ne)
		return
	}
	old := t.entries[i]
	_, oldValue := old.node.(Value)
	_, newValue := n.(Value)
	switch {
	case oldValue && newValue:
		old.node = n
	case newValue:
		ne := &entry{key: key, node: n, seq: -1}
		if sub, ok := old.node.(*Table); ok {
			t.takeOver(ne, sub)
		}
		t.entries[i] = ne
	default:
		ne := &entry{key: key, node: n, seq: -1}
		if !oldValue {
			ne.rawKey = old.rawKey
		}
		t.entries[i] = ne
	}
}

// takeOver keeps the place of a table that is being replaced by the value ne.
// A dotted table hands over its first line; a header table hands its header
// slot to this table when this one has none.
func (t *Table) takeOver(ne *entry, sub *Table) {
	if sub.dotted {
		if first := sub.firstLeaf(); first != nil {
			ne.seq = first.seq
			ne.prefix = first.prefix
			ne.suffix = first.suffix
		}
		return
	}
	if t.implicit && t.position < 0 && sub.position >= 0 {
		t.implicit = false
		t.position = sub.position
		t.hprefix = sub.hprefix
	}
}

func (t *Table) firstLeaf() *entry {
	var first *entry
	for _, l := range t.leaves("") {
		if l.entry.seq >= 0 && (first == nil || l.entry.seq < first.seq) {
			first = l.entry
		}
	}
	return first
}

func (t *Table) lastLeaf() *entry {
	var last *entry
	for _, l := range t.leaves("") {
		if l.entry.seq >= 0 && (last == nil || l.entry.seq >= last.seq) {
			last = l.entry
		}
	}
	return last
}

// Rename moves the entry stored under old to key, keeping its place and
// formatting. It reports false when old is missing or key is taken.
func (t *Table) Rename(old, key string) bool {
	i := t.find(old)
	if i < 0 || t.find(key) >= 0 {
		return false
	}
	e := t.entries[i]
	e.key = key
	if _, ok := e.node.(Value); ok {
		e.rawKey = ""
	}
	return true
}

// Remove implements [TableLike].
func (t *Table) Remove(key string) bool {
	i := t.find(key)
	if i < 0 {
		return false
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	return true
}

// Keys implements [TableLike].
func (t *Table) Keys() []string {
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.key
	}
	return keys
}

// Len implements [TableLike].
func (t *Table) Len() int { return len(t.entries) }

// IsEmpty reports whether the table has no keys.
func (t *Table) IsEmpty() bool { return len(t.entries) == 0 }

// hasValues reports whether the body of the table prints any line.
func (t *Table) hasValues() bool {
	for _, e := range t.entries {
		switch n := e.node.(type) {
		case Value:
			return true
		case *Table:
			if n.dotted && n.hasValues() {
				return true
			}
		}
	}
	return false
}

// ToInline converts the table and its sub-tables into an inline table.
// Comments inside the table are dropped.
func (t *Table) ToInline() *InlineTable {
	it := NewInlineTable()
	for _, e := range t.entries {
		switch n := e.node.(type) {
		case Value:
			it.Set(e.key, n)
		case *Table:
			it.Set(e.key, n.ToInline())
		case *ArrayOfTables:
			items := make([]Value, len(n.tables))
			for i, el := range n.tables {
				items[i] = el.ToInline()
			}
			it.Set(e.key, NewArray(items...))
		}
	}
	return it
}

// EnsureTable returns the table at path below t, creating implicit tables
// for missing segments. It fails when a segment holds something other than
// a table.
func EnsureTable(t *Table, path ...string) (*Table, error) {
	for _, key := range path {
		n, ok := t.Get(key)
		if !ok {
			sub := NewImplicitTable()
			t.Set(key, sub)
			t = sub
			continue
		}
		sub, ok := n.(*Table)
		if !ok {
			return nil, &PathError{Key: key, Kind: n.Kind()}
		}
		t = sub
	}
	return t, nil
}

// PathError reports a key that was expected to hold a table.
type PathError struct {
	Key  string
	Kind Kind
}

func (e *PathError) Error() string {
	return "key " + quoteKey(e.Key) + " holds " + e.Kind.String() + ", not a table"
}
