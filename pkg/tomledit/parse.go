package tomledit

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseError reports a document the editor cannot represent.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("toml: line %d: %s", e.Line, e.Msg)
}

type parser struct {
	src      string
	pos      int
	doc      *Document
	cur      *Table
	seq      int
	position int
}

func parse(src string) (*Document, error) {
	d := &Document{
		root:    NewImplicitTable(),
		newline: detectNewline(src),
		noEOL:   src != "" && !strings.HasSuffix(src, "\n"),
	}
	p := &parser{src: src, doc: d, cur: d.root}
	for {
		prefix := p.trivia()
		if p.eof() {
			d.trailing = prefix
			return d, nil
		}
		var err error
		if p.src[p.pos] == '[' {
			err = p.parseHeader(prefix)
		} else {
			err = p.parseKeyValue(prefix)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{
		Line: 1 + strings.Count(p.src[:p.pos], "\n"),
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) rest() string { return p.src[p.pos:] }

func (p *parser) skipSpaces() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) skipComment() {
	i := strings.IndexByte(p.rest(), '\n')
	if i < 0 {
		p.pos = len(p.src)
		return
	}
	p.pos += i
	if p.src[p.pos-1] == '\r' {
		p.pos--
	}
}

// skipNewline consumes one line break.
func (p *parser) skipNewline() bool {
	switch {
	case strings.HasPrefix(p.rest(), "\n"):
		p.pos++
	case strings.HasPrefix(p.rest(), "\r\n"):
		p.pos += 2
	default:
		return false
	}
	return true
}

// trivia consumes blank lines, comment lines and the indentation of the
// next line.
func (p *parser) trivia() string {
	start := p.pos
	for {
		p.skipSpaces()
		if !p.eof() && p.src[p.pos] == '#' {
			p.skipComment()
		}
		if !p.skipNewline() {
			break
		}
	}
	return p.src[start:p.pos]
}

// multiTrivia consumes whitespace, comments and line breaks inside arrays
// and inline tables.
func (p *parser) multiTrivia() {
	for {
		p.skipSpaces()
		if !p.eof() && p.src[p.pos] == '#' {
			p.skipComment()
		}
		if !p.skipNewline() {
			return
		}
	}
}

func (p *parser) lineEnd() (string, error) {
	start := p.pos
	p.skipSpaces()
	if !p.eof() && p.src[p.pos] == '#' {
		p.skipComment()
	}
	if !p.eof() && !p.skipNewline() {
		return "", p.errorf("unexpected %q at end of line", p.src[p.pos])
	}
	return p.src[start:p.pos], nil
}

func (p *parser) parseHeader(prefix string) error {
	start := p.pos
	array := strings.HasPrefix(p.rest(), "[[")
	closing := "]"
	if array {
		closing = "]]"
		p.pos += 2
	} else {
		p.pos++
	}
	p.skipSpaces()
	segs, raws, err := p.parseKey()
	if err != nil {
		return err
	}
	p.skipSpaces()
	if !strings.HasPrefix(p.rest(), closing) {
		return p.errorf("expected %q to close table header", closing)
	}
	p.pos += len(closing)
	header := p.src[start:p.pos]
	suffix, err := p.lineEnd()
	if err != nil {
		return err
	}
	t, err := p.openTable(segs, raws, array)
	if err != nil {
		return err
	}
	t.header = header
	t.hprefix = prefix
	t.hsuffix = suffix
	t.position = p.position
	p.position++
	p.cur = t
	return nil
}

func (p *parser) openTable(segs, raws []string, array bool) (*Table, error) {
	t := p.doc.root
	last := len(segs) - 1
	for i := 0; i < last; i++ {
		n, _ := t.Get(segs[i])
		switch x := n.(type) {
		case nil:
			sub := NewImplicitTable()
			t.entries = append(t.entries, &entry{key: segs[i], rawKey: raws[i], node: sub, seq: -1})
			t = sub
		case *Table:
			t = x
		case *ArrayOfTables:
			t = x.tables[len(x.tables)-1]
		default:
			return nil, p.errorf("key %s is not a table", quoteKey(segs[i]))
		}
	}
	key := segs[last]
	n, _ := t.Get(key)
	if array {
		switch x := n.(type) {
		case nil:
			aot := &ArrayOfTables{}
			t.entries = append(t.entries, &entry{key: key, rawKey: raws[last], node: aot, seq: -1})
			return aot.Append(), nil
		case *ArrayOfTables:
			return x.Append(), nil
		}
		return nil, p.errorf("key %s is not an array of tables", quoteKey(key))
	}
	switch x := n.(type) {
	case nil:
		sub := NewTable()
		t.entries = append(t.entries, &entry{key: key, rawKey: raws[last], node: sub, seq: -1})
		return sub, nil
	case *Table:
		if x.implicit && !x.dotted && x.header == "" {
			x.implicit = false
			return x, nil
		}
	}
	return nil, p.errorf("table %s defined more than once", quoteKey(key))
}

func (p *parser) parseKeyValue(prefix string) error {
	keyStart := p.pos
	segs, raws, err := p.parseKey()
	if err != nil {
		return err
	}
	rawKey := p.src[keyStart:p.pos]
	sepStart := p.pos
	p.skipSpaces()
	if p.eof() || p.src[p.pos] != '=' {
		return p.errorf("expected '=' after key %s", rawKey)
	}
	p.pos++
	p.skipSpaces()
	sep := p.src[sepStart:p.pos]
	v, err := p.parseValue()
	if err != nil {
		return err
	}
	suffix, err := p.lineEnd()
	if err != nil {
		return err
	}

	t := p.cur
	for i := 0; i < len(segs)-1; i++ {
		n, ok := t.Get(segs[i])
		if !ok {
			sub := NewImplicitTable()
			sub.dotted = true
			t.entries = append(t.entries, &entry{key: segs[i], rawKey: raws[i], node: sub, seq: -1})
			t = sub
			continue
		}
		sub, ok := n.(*Table)
		if !ok {
			return p.errorf("key %s is not a table", quoteKey(segs[i]))
		}
		t = sub
	}
	key := segs[len(segs)-1]
	if _, ok := t.Get(key); ok {
		return p.errorf("duplicate key %s", quoteKey(key))
	}
	t.entries = append(t.entries, &entry{
		key:    key,
		rawKey: rawKey,
		node:   v,
		prefix: prefix,
		sep:    sep,
		suffix: suffix,
		seq:    p.seq,
	})
	p.seq++
	return nil
}

// parseKey reads a possibly dotted key and returns its decoded segments and
// the raw text of each segment.
func (p *parser) parseKey() (segs, raws []string, err error) {
	for {
		start := p.pos
		seg, err := p.parseKeySegment()
		if err != nil {
			return nil, nil, err
		}
		segs = append(segs, seg)
		raws = append(raws, p.src[start:p.pos])
		save := p.pos
		p.skipSpaces()
		if !p.eof() && p.src[p.pos] == '.' {
			p.pos++
			p.skipSpaces()
			continue
		}
		p.pos = save
		return segs, raws, nil
	}
}

func (p *parser) parseKeySegment() (string, error) {
	if p.eof() {
		return "", p.errorf("expected key")
	}
	switch p.src[p.pos] {
	case '"':
		return p.parseBasic()
	case '\'':
		return p.parseLiteralString()
	}
	start := p.pos
	for !p.eof() && isBareKeyChar(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("unexpected %q, expected key", p.src[p.pos])
	}
	return p.src[start:p.pos], nil
}

func (p *parser) parseValue() (Value, error) {
	if p.eof() {
		return nil, p.errorf("expected value")
	}
	start := p.pos
	switch c := p.src[p.pos]; c {
	case '"', '\'':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return &String{value: s, raw: p.src[start:p.pos]}, nil
	case '[':
		return p.parseArray()
	case '{':
		return p.parseInlineTable()
	}
	for _, word := range []string{"true", "false"} {
		if strings.HasPrefix(p.rest(), word) && !p.literalAt(p.pos+len(word)) {
			p.pos += len(word)
			return &Bool{value: word == "true"}, nil
		}
	}
	return p.parseLiteral()
}

func (p *parser) literalAt(i int) bool {
	return i < len(p.src) && isLiteralChar(p.src[i])
}

func isLiteralChar(c byte) bool {
	return isBareKeyChar(c) || c == '+' || c == '.' || c == ':'
}

func (p *parser) parseLiteral() (Value, error) {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if isLiteralChar(c) || c == ' ' && p.dateTimeSpace(start) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return nil, p.errorf("unexpected %q, expected value", p.src[p.pos])
	}
	return &Literal{raw: p.src[start:p.pos]}, nil
}

// dateTimeSpace reports whether the space at p.pos separates the date and
// time of a datetime literal.
func (p *parser) dateTimeSpace(start int) bool {
	tok := p.src[start:p.pos]
	if len(tok) != 10 || tok[4] != '-' || tok[7] != '-' {
		return false
	}
	next := p.pos + 1
	return next < len(p.src) && p.src[next] >= '0' && p.src[next] <= '9'
}

func (p *parser) parseArray() (Value, error) {
	start := p.pos
	p.pos++
	var items []Value
	for {
		p.multiTrivia()
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			break
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.multiTrivia()
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == ']' {
			p.pos++
			break
		}
		return nil, p.errorf("expected ',' or ']' in array")
	}
	return &Array{raw: p.src[start:p.pos], items: items}, nil
}

func (p *parser) parseInlineTable() (Value, error) {
	p.pos++
	t := &InlineTable{}
	comma := ""
	for {
		wsStart := p.pos
		p.multiTrivia()
		ws := p.src[wsStart:p.pos]
		if p.eof() {
			return nil, p.errorf("unterminated inline table")
		}
		if p.src[p.pos] == '}' {
			t.trailing = comma + ws
			p.pos++
			return t, nil
		}
		if len(t.entries) > 0 && comma == "" {
			return nil, p.errorf("expected ',' or '}' in inline table")
		}
		keyStart := p.pos
		segs, _, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		rawKey := p.src[keyStart:p.pos]
		sepStart := p.pos
		p.multiTrivia()
		if p.eof() || p.src[p.pos] != '=' {
			return nil, p.errorf("expected '=' after key %s", rawKey)
		}
		p.pos++
		p.multiTrivia()
		sep := p.src[sepStart:p.pos]
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		sufStart := p.pos
		p.multiTrivia()
		t.entries = append(t.entries, &inlineEntry{
			path:   segs,
			rawKey: rawKey,
			node:   v,
			prefix: ws,
			sep:    sep,
			suffix: p.src[sufStart:p.pos],
		})
		comma = ""
		if !p.eof() && p.src[p.pos] == ',' {
			p.pos++
			comma = ","
		}
	}
}

func (p *parser) parseString() (string, error) {
	switch {
	case strings.HasPrefix(p.rest(), `"""`):
		return p.parseMultiBasic()
	case strings.HasPrefix(p.rest(), `'''`):
		return p.parseMultiLiteral()
	case p.src[p.pos] == '"':
		return p.parseBasic()
	}
	return p.parseLiteralString()
}

func (p *parser) parseBasic() (string, error) {
	p.pos++
	var b strings.Builder
	for !p.eof() {
		switch c := p.src[p.pos]; c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			if err := p.escape(&b, false); err != nil {
				return "", err
			}
		case '\n':
			return "", p.errorf("newline in string")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *parser) parseMultiBasic() (string, error) {
	p.pos += 3
	p.skipNewline()
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case strings.HasPrefix(p.rest(), `"""`):
			n := quoteRun(p.rest(), '"')
			b.WriteString(strings.Repeat(`"`, n-3))
			p.pos += n
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b, true); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *parser) parseLiteralString() (string, error) {
	p.pos++
	i := strings.IndexByte(p.rest(), '\'')
	if i < 0 || strings.ContainsRune(p.rest()[:i], '\n') {
		return "", p.errorf("unterminated literal string")
	}
	s := p.rest()[:i]
	p.pos += i + 1
	return s, nil
}

func (p *parser) parseMultiLiteral() (string, error) {
	p.pos += 3
	p.skipNewline()
	i := strings.Index(p.rest(), `'''`)
	if i < 0 {
		return "", p.errorf("unterminated literal string")
	}
	n := quoteRun(p.rest()[i:], '\'')
	s := p.rest()[:i] + strings.Repeat("'", n-3)
	p.pos += i + n
	return s, nil
}

// quoteRun counts the closing delimiter run, allowing up to two quotes of
// content before it.
func quoteRun(s string, q byte) int {
	n := 0
	for n < len(s) && n < 5 && s[n] == q {
		n++
	}
	return n
}

func (p *parser) escape(b *strings.Builder, multiline bool) error {
	p.pos++
	if p.eof() {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	switch c {
	case 'b':
		b.WriteByte('\b')
	case 't':
		b.WriteByte('\t')
	case 'n':
		b.WriteByte('\n')
	case 'f':
		b.WriteByte('\f')
	case 'r':
		b.WriteByte('\r')
	case 'e':
		b.WriteByte(0x1b)
	case '"':
		b.WriteByte('"')
	case '\\':
		b.WriteByte('\\')
	case 'x', 'u', 'U':
		size := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		if p.pos+1+size > len(p.src) {
			return p.errorf("short unicode escape")
		}
		code, err := strconv.ParseUint(p.src[p.pos+1:p.pos+1+size], 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return p.errorf("invalid unicode escape")
		}
		b.WriteRune(rune(code))
		p.pos += size
	default:
		if !multiline || (c != ' ' && c != '\t' && c != '\n' && c != '\r') {
			return p.errorf("invalid escape \\%c", c)
		}
		// Line-ending backslash: drop the break and the next line's indentation.
		p.skipSpaces()
		if !p.skipNewline() {
			return p.errorf("invalid escape")
		}
		for {
			p.skipSpaces()
			if !p.skipNewline() {
				return nil
			}
		}
	}
	p.pos++
	return nil
}
