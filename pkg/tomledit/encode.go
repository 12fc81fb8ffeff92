package tomledit

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

func isBareKey(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isBareKeyChar(s[i]) {
			return false
		}
	}
	return true
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

func quoteKey(k string) string {
	if isBareKey(k) {
		return k
	}
	return quoteBasic(k)
}

// FormatKey renders a key path the way it is written in a document, quoting
// segments that are not bare keys.
func FormatKey(path ...string) string { return joinKey(path) }

func joinKey(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = quoteKey(p)
	}
	return strings.Join(parts, ".")
}

// quoteString prefers a literal string when the basic form would need escapes.
func quoteString(s string) string {
	if strings.ContainsAny(s, `"\`) && !strings.ContainsRune(s, '\'') && !hasControl(s) {
		return "'" + s + "'"
	}
	return quoteBasic(s)
}

func hasControl(s string) bool {
	for _, r := range s {
		if r < 0x20 && r != '\t' || r == 0x7f {
			return true
		}
	}
	return false
}

func quoteBasic(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f || r == utf8.RuneError {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

type leaf struct {
	entry *entry
	key   string
}

// leaves flattens the value lines of a table body, descending into dotted
// tables.
func (t *Table) leaves(prefix string) []leaf {
	var out []leaf
	for _, e := range t.entries {
		switch n := e.node.(type) {
		case Value:
			key := e.rawKey
			if key == "" {
				key = prefix + quoteKey(e.key)
			}
			out = append(out, leaf{entry: e, key: key})
		case *Table:
			if n.dotted {
				seg := e.rawKey
				if seg == "" {
					seg = quoteKey(e.key)
				}
				out = append(out, n.leaves(prefix+seg+".")...)
			}
		}
	}
	return out
}

type headerItem struct {
	table *Table
	path  string
	array bool
}

func collectHeaders(t *Table, path string, out *[]headerItem) {
	for _, e := range t.entries {
		seg := e.rawKey
		if seg == "" {
			seg = quoteKey(e.key)
		}
		p := seg
		if path != "" {
			p = path + "." + seg
		}
		switch n := e.node.(type) {
		case *Table:
			if !n.dotted && (!n.implicit || n.hasValues()) {
				*out = append(*out, headerItem{table: n, path: p})
			}
			collectHeaders(n, p, out)
		case *ArrayOfTables:
			for _, el := range n.tables {
				*out = append(*out, headerItem{table: el, path: p, array: true})
				collectHeaders(el, p, out)
			}
		}
	}
}

type writer struct {
	b  strings.Builder
	nl string
}

func (w *writer) ensureNewline() {
	s := w.b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		w.b.WriteString(w.nl)
	}
}

func (w *writer) body(t *Table) {
	leaves := t.leaves("")
	sort.SliceStable(leaves, func(i, j int) bool {
		return rank(leaves[i].entry.seq) < rank(leaves[j].entry.seq)
	})
	for _, l := range leaves {
		e := l.entry
		fresh := e.seq < 0 || e.added
		if fresh {
			w.ensureNewline()
		}
		w.b.WriteString(e.prefix)
		w.b.WriteString(l.key)
		if e.sep == "" {
			w.b.WriteString(" = ")
		} else {
			w.b.WriteString(e.sep)
		}
		w.b.WriteString(e.node.(Value).encode())
		w.b.WriteString(e.suffix)
		if fresh && !strings.HasSuffix(e.suffix, "\n") {
			w.b.WriteString(w.nl)
		}
	}
}

func (w *writer) header(h headerItem) {
	t := h.table
	w.ensureNewline()
	if t.header != "" {
		w.b.WriteString(t.hprefix)
		w.b.WriteString(t.header)
		w.b.WriteString(t.hsuffix)
		return
	}
	if t.hprefix != "" {
		w.b.WriteString(t.hprefix)
	} else if w.b.Len() > 0 {
		w.b.WriteString(w.nl)
	}
	if h.array {
		w.b.WriteString("[[" + h.path + "]]")
	} else {
		w.b.WriteString("[" + h.path + "]")
	}
	w.b.WriteString(w.nl)
}

func rank(pos int) int {
	if pos < 0 {
		return math.MaxInt
	}
	return pos
}

func (d *Document) encode() string {
	w := &writer{nl: d.newline}
	w.body(d.root)
	var headers []headerItem
	collectHeaders(d.root, "", &headers)
	sort.SliceStable(headers, func(i, j int) bool {
		return rank(headers[i].table.position) < rank(headers[j].table.position)
	})
	for _, h := range headers {
		w.header(h)
		w.body(h.table)
	}
	if d.trailing != "" {
		w.b.WriteString(d.trailing)
	}
	out := w.b.String()
	if d.noEOL {
		out = strings.TrimSuffix(strings.TrimSuffix(out, "\n"), "\r")
	}
	return out
}
