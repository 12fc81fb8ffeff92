package tomledit

import (
	"strings"

	"github.com/BurntSushi/toml"
)

// Document is an editable TOML document.
type Document struct {
	root     *Table
	trailing string // comments and blank lines after the last line
	newline  string
	noEOL    bool // the source did not end with a newline
}

// New returns an empty document.
func New() *Document {
	return &Document{root: NewImplicitTable(), newline: "\n"}
}

// Parse validates data and builds an editable document from it.
func Parse(data []byte) (*Document, error) {
	src := string(data)
	var decoded map[string]any
	if _, err := toml.Decode(src, &decoded); err != nil {
		return nil, err
	}
	return parse(src)
}

// Root returns the top-level table.
func (d *Document) Root() *Table { return d.root }

// String prints the document.
func (d *Document) String() string { return d.encode() }

// Bytes prints the document.
func (d *Document) Bytes() []byte { return []byte(d.encode()) }

func detectNewline(src string) string {
	if i := strings.IndexByte(src, '\n'); i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
