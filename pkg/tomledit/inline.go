package tomledit

import "strings"

type inlineEntry struct {
	path   []string // key segments; dotted keys are kept but not addressable
	rawKey string
	node   Value
	prefix string // whitespace after '{' or ','
	sep    string
	suffix string // whitespace before ',' or '}'
}

// InlineTable is a { key = value } table.
type InlineTable struct {
	entries  []*inlineEntry
	trailing string // text between the last entry and '}', including a trailing comma
}

// NewInlineTable returns an empty inline table.
func NewInlineTable() *InlineTable { return &InlineTable{} }

// Kind implements [Node].
func (t *InlineTable) Kind() Kind { return KindInlineTable }

func (t *InlineTable) find(key string) int {
	for i, e := range t.entries {
		if len(e.path) == 1 && e.path[0] == key {
			return i
		}
	}
	return -1
}

// Get implements [TableLike].
func (t *InlineTable) Get(key string) (Node, bool) {
	if i := t.find(key); i >= 0 {
		return t.entries[i].node, true
	}
	return nil, false
}

// Set implements [TableLike]. Tables are converted with [Table.ToInline].
func (t *InlineTable) Set(key string, n Node) {
	v := toValue(n)
	if i := t.find(key); i >= 0 {
		t.entries[i].node = v
		return
	}
	ne := &inlineEntry{path: []string{key}, node: v, prefix: " ", sep: " = "}
	if len(t.entries) == 0 {
		ne.suffix = " "
		if strings.TrimSpace(t.trailing) == "" {
			t.trailing = ""
		}
	} else {
		last := t.entries[len(t.entries)-1]
		ne.suffix, last.suffix = last.suffix, ""
	}
	t.entries = append(t.entries, ne)
}

func toValue(n Node) Value {
	switch x := n.(type) {
	case Value:
		return x
	case *Table:
		return x.ToInline()
	case *ArrayOfTables:
		items := make([]Value, len(x.tables))
		for i, el := range x.tables {
			items[i] = el.ToInline()
		}
		return NewArray(items...)
	}
	return NewInlineTable()
}

// Rename implements [TableLike].
func (t *InlineTable) Rename(old, key string) bool {
	i := t.find(old)
	if i < 0 || t.find(key) >= 0 {
		return false
	}
	t.entries[i].path = []string{key}
	t.entries[i].rawKey = ""
	return true
}

// Remove implements [TableLike].
func (t *InlineTable) Remove(key string) bool {
	i := t.find(key)
	if i < 0 {
		return false
	}
	removed := t.entries[i]
	switch {
	case len(t.entries) == 1:
		t.trailing = ""
	case i == len(t.entries)-1:
		t.entries[i-1].suffix = removed.suffix
	case i == 0:
		t.entries[1].prefix = removed.prefix
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	return true
}

// Keys implements [TableLike]. Dotted keys are reported by their full path.
func (t *InlineTable) Keys() []string {
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = strings.Join(e.path, ".")
	}
	return keys
}

// Len implements [TableLike].
func (t *InlineTable) Len() int { return len(t.entries) }

func (t *InlineTable) encode() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(e.prefix)
		if e.rawKey != "" {
			b.WriteString(e.rawKey)
		} else {
			b.WriteString(joinKey(e.path))
		}
		b.WriteString(e.sep)
		b.WriteString(e.node.encode())
		b.WriteString(e.suffix)
	}
	b.WriteString(t.trailing)
	b.WriteByte('}')
	return b.String()
}

// String returns the inline table as printed in a document.
func (t *InlineTable) String() string { return t.encode() }
