package tomledit

// Kind identifies the type of a [Node].
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindLiteral
	KindArray
	KindInlineTable
	KindTable
	KindArrayOfTables
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindLiteral:
		return "literal"
	case KindArray:
		return "array"
	case KindInlineTable:
		return "inline table"
	case KindTable:
		return "table"
	case KindArrayOfTables:
		return "array of tables"
	}
	return "unknown"
}

// Node is any item stored under a key.
type Node interface {
	Kind() Kind
}

// Value is a node that can appear on the right-hand side of key = value.
type Value interface {
	Node
	encode() string
}

// String is a TOML string of any quoting style.
type String struct {
	value string
	raw   string // original text, empty once the value is built in code
}

// NewString returns a string value. It is printed as a basic string, or as
// a literal string when that avoids escaping.
func NewString(s string) *String { return &String{value: s} }

// Kind implements [Node].
func (s *String) Kind() Kind { return KindString }

// Value returns the decoded string.
func (s *String) Value() string { return s.value }

func (s *String) encode() string {
	if s.raw != "" {
		return s.raw
	}
	return quoteString(s.value)
}

// Bool is a TOML boolean.
type Bool struct {
	value bool
}

// NewBool returns a boolean value.
func NewBool(b bool) *Bool { return &Bool{value: b} }

// Kind implements [Node].
func (b *Bool) Kind() Kind { return KindBool }

// Value returns the boolean.
func (b *Bool) Value() bool { return b.value }

func (b *Bool) encode() string {
	if b.value {
		return "true"
	}
	return "false"
}

// Literal holds integers, floats and datetimes verbatim.
type Literal struct {
	raw string
}

// NewLiteral returns a literal printed exactly as raw.
func NewLiteral(raw string) *Literal { return &Literal{raw: raw} }

// Kind implements [Node].
func (l *Literal) Kind() Kind { return KindLiteral }

// Raw returns the literal text.
func (l *Literal) Raw() string { return l.raw }

func (l *Literal) encode() string { return l.raw }

// Array is an array value kept verbatim, including inner comments and
// line breaks.
type Array struct {
	raw   string
	items []Value
}

// NewArray builds an array value from items.
func NewArray(items ...Value) *Array {
	raw := "["
	for i, it := range items {
		if i > 0 {
			raw += ", "
		}
		raw += it.encode()
	}
	raw += "]"
	return &Array{raw: raw, items: items}
}

// Kind implements [Node].
func (a *Array) Kind() Kind { return KindArray }

// Items returns the array elements.
func (a *Array) Items() []Value { return a.items }

// Raw returns the array text.
func (a *Array) Raw() string { return a.raw }

func (a *Array) encode() string { return a.raw }

// ArrayOfTables holds the tables of a [[header]] array.
type ArrayOfTables struct {
	tables []*Table
}

// Kind implements [Node].
func (a *ArrayOfTables) Kind() Kind { return KindArrayOfTables }

// Tables returns the elements in document order.
func (a *ArrayOfTables) Tables() []*Table { return a.tables }

// Len returns the number of elements.
func (a *ArrayOfTables) Len() int { return len(a.tables) }

// Append adds a new element printed after every existing header.
func (a *ArrayOfTables) Append() *Table {
	t := NewTable()
	a.tables = append(a.tables, t)
	return t
}

// TableLike is the capability shared by header tables, dotted tables and
// inline tables.
type TableLike interface {
	Node
	// Get returns the node stored under key.
	Get(key string) (Node, bool)
	// Set stores n under key, keeping the formatting of an existing entry.
	Set(key string, n Node)
	// Rename moves old to key in place and reports whether it did.
	Rename(old, key string) bool
	// Remove deletes key and reports whether it was present.
	Remove(key string) bool
	// Keys returns the keys in document order.
	Keys() []string
	// Len returns the number of keys.
	Len() int
}

var (
	_ TableLike = (*Table)(nil)
	_ TableLike = (*InlineTable)(nil)
)

// AsTableLike returns n as a [TableLike] when it is a table or inline table.
func AsTableLike(n Node) (TableLike, bool) {
	t, ok := n.(TableLike)
	return t, ok
}

// AsString returns the decoded string held by n.
func AsString(n Node) (string, bool) {
	s, ok := n.(*String)
	if !ok {
		return "", false
	}
	return s.value, true
}

// AsBool returns the boolean held by n.
func AsBool(n Node) (bool, bool) {
	b, ok := n.(*Bool)
	if !ok {
		return false, false
	}
	return b.value, true
}

// Lookup follows path through table-like nodes starting at n.
func Lookup(n Node, path ...string) (Node, bool) {
	for _, key := range path {
		t, ok := AsTableLike(n)
		if !ok {
			return nil, false
		}
		if n, ok = t.Get(key); !ok {
			return nil, false
		}
	}
	return n, n != nil
}
