package upf

import (
	"regexp"
	"strconv"
	"strings"
)

// Parser parses UPF text into Documents. A Parser is safe to reuse across
// files; per-document state lives on the stack of each Parse call.
type Parser struct {
	table *Table

	// openRe matches an opening tag and captures the name and the rest of
	// the line.
	openRe *regexp.Regexp

	// closeRe matches a closing tag on a line of its own.
	closeRe *regexp.Regexp

	// attrRe matches one key="value" attribute.
	attrRe *regexp.Regexp
}

// NewParser creates a parser using the default section table.
func NewParser() *Parser {
	return &Parser{
		table:   DefaultTable(),
		openRe:  regexp.MustCompile(`^\s*<([A-Za-z_][A-Za-z0-9_.]*)(.*)$`),
		closeRe: regexp.MustCompile(`^\s*</([A-Za-z_][A-Za-z0-9_.]*)>\s*$`),
		attrRe:  regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_.]*)\s*=\s*"([^"]*)"`),
	}
}

// WithTable sets a custom section table.
func (p *Parser) WithTable(t *Table) *Parser {
	if t != nil {
		p.table = t
	}
	return p
}

// Parse parses a complete UPF document.
func (p *Parser) Parse(data []byte) (*Document, error) {
	ps := &parse{Parser: p, cur: newCursor(data)}
	doc := &Document{table: p.table}

	// Comments may precede the root tag; anything else may not.
	var prolog []*Section
	rootOpen := false
	for {
		line, ok := ps.cur.next()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "<!--"):
			prolog = append(prolog, ps.comment(line))
			continue
		}
		m := p.openRe.FindStringSubmatch(line)
		if m == nil || m[1] != "UPF" {
			return nil, parseErrorf("", ps.cur.line(), ErrMissingRoot, "expected <UPF ...>, found %q", trimmed)
		}
		attrs, selfClosing, err := ps.finishOpenTag("UPF", m[2])
		if err != nil {
			return nil, err
		}
		if selfClosing {
			return nil, parseErrorf("UPF", ps.cur.line(), ErrMalformedTag, "root tag is self-closing")
		}
		for _, a := range attrs {
			if a.Key == "version" {
				doc.Version = a.Value
			}
		}
		rootOpen = true
		break
	}
	if !rootOpen {
		return nil, parseErrorf("", 0, ErrMissingRoot, "no <UPF ...> tag in input")
	}

	body, err := ps.children("UPF")
	if err != nil {
		return nil, err
	}
	doc.Sections = append(prolog, body...)

	for {
		line, ok := ps.cur.next()
		if !ok {
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return nil, parseErrorf("", ps.cur.line(), ErrMalformedTag, "content after </UPF>: %q", trimmed)
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Parse parses a UPF document with the default parser and section table.
func Parse(data []byte) (*Document, error) {
	return NewParser().Parse(data)
}

// parse is the per-document state of one Parse call.
type parse struct {
	*Parser
	cur *cursor

	// header is the PP_HEADER section once seen; matrix sections read their
	// dimensions from it.
	header *Section
}

// children parses sections until the parent's closing tag.
func (ps *parse) children(parent string) ([]*Section, error) {
	var out []*Section
	for {
		line, ok := ps.cur.next()
		if !ok {
			return nil, parseErrorf(parent, ps.cur.line(), ErrMalformedTag, "missing </%s>", parent)
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "<!--"):
			out = append(out, ps.comment(line))
			continue
		}
		if m := ps.closeRe.FindStringSubmatch(line); m != nil {
			if m[1] != parent {
				return nil, parseErrorf(parent, ps.cur.line(), ErrMalformedTag, "unexpected </%s>", m[1])
			}
			return out, nil
		}
		m := ps.openRe.FindStringSubmatch(line)
		if m == nil {
			return nil, parseErrorf(parent, ps.cur.line(), ErrMalformedTag, "unexpected content %q", trimmed)
		}
		s, err := ps.section(m[1], m[2], line)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

// section parses one section whose opening tag begins on the current line.
func (ps *parse) section(name, rest, openLine string) (*Section, error) {
	def, known := ps.table.Lookup(name)
	if !known || def.Kind == KindVerbatim {
		return ps.verbatim(name, rest, openLine)
	}

	attrs, selfClosing, err := ps.finishOpenTag(name, rest)
	if err != nil {
		return nil, err
	}
	s := &Section{Name: name, Kind: def.Kind, Mesh: def.Mesh, Attrs: attrs, SelfClosing: selfClosing}

	switch def.Kind {
	case KindAttributes:
		if s.Family() == "PP_HEADER" && ps.header == nil {
			ps.header = s
		}
		if !selfClosing {
			if err := ps.expectClose(name); err != nil {
				return nil, err
			}
		}
	case KindContainer:
		if selfClosing {
			break
		}
		children, err := ps.children(name)
		if err != nil {
			return nil, err
		}
		s.Children = children
	case KindArray1D, KindArray2D:
		if selfClosing {
			return nil, parseErrorf(name, ps.cur.line(), ErrMalformedTag, "data section is self-closing")
		}
		if err := ps.readValues(s); err != nil {
			return nil, err
		}
		if def.Kind == KindArray2D {
			if err := ps.reshape(s, def); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// finishOpenTag consumes the remainder of an opening tag, which may span
// multiple lines, and returns its attributes. Content after the closing '>'
// on the same line is handed back to the cursor.
func (ps *parse) finishOpenTag(name, rest string) (attrs []Attr, selfClosing bool, err error) {
	text := rest
	for {
		if idx, ok := unquotedByte(text, '>'); ok {
			head := strings.TrimSpace(text[:idx])
			if strings.HasSuffix(head, "/") {
				selfClosing = true
				head = strings.TrimSpace(strings.TrimSuffix(head, "/"))
			}
			attrs, err = ps.parseAttrs(name, head)
			if err != nil {
				return nil, false, err
			}
			if tail := text[idx+1:]; strings.TrimSpace(tail) != "" {
				ps.cur.inject(tail)
			}
			return attrs, selfClosing, nil
		}
		line, ok := ps.cur.next()
		if !ok {
			return nil, false, parseErrorf(name, ps.cur.line(), ErrMalformedTag, "unterminated <%s tag", name)
		}
		text += " " + line
	}
}

// parseAttrs extracts key="value" pairs, rejecting any non-attribute text.
func (ps *parse) parseAttrs(name, text string) ([]Attr, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	matches := ps.attrRe.FindAllStringSubmatchIndex(text, -1)
	attrs := make([]Attr, 0, len(matches))
	last := 0
	for _, m := range matches {
		if strings.TrimSpace(text[last:m[0]]) != "" {
			return nil, parseErrorf(name, ps.cur.line(), ErrMalformedTag, "bad attribute syntax near %q", strings.TrimSpace(text[last:m[0]]))
		}
		attrs = append(attrs, Attr{Key: text[m[2]:m[3]], Value: text[m[4]:m[5]]})
		last = m[1]
	}
	if strings.TrimSpace(text[last:]) != "" {
		return nil, parseErrorf(name, ps.cur.line(), ErrMalformedTag, "bad attribute syntax near %q", strings.TrimSpace(text[last:]))
	}
	return attrs, nil
}

// expectClose consumes blank lines followed by the section's closing tag.
func (ps *parse) expectClose(name string) error {
	for {
		line, ok := ps.cur.next()
		if !ok {
			return parseErrorf(name, ps.cur.line(), ErrMalformedTag, "missing </%s>", name)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := ps.closeRe.FindStringSubmatch(line); m != nil && m[1] == name {
			return nil
		}
		return parseErrorf(name, ps.cur.line(), ErrMalformedTag, "expected </%s>, found %q", name, strings.TrimSpace(line))
	}
}

// readValues consumes numeric data lines up to the closing tag and checks
// the count against the declared size.
func (ps *parse) readValues(s *Section) error {
	for {
		line, ok := ps.cur.next()
		if !ok {
			return parseErrorf(s.Name, ps.cur.line(), ErrMalformedTag, "missing </%s>", s.Name)
		}
		if m := ps.closeRe.FindStringSubmatch(line); m != nil {
			if m[1] != s.Name {
				return parseErrorf(s.Name, ps.cur.line(), ErrMalformedTag, "unexpected </%s>", m[1])
			}
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "<") {
			return parseErrorf(s.Name, ps.cur.line(), ErrMalformedTag, "unexpected tag inside data: %q", trimmed)
		}
		for _, tok := range strings.Fields(line) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return parseErrorf(s.Name, ps.cur.line(), ErrBadNumber, "token %q", tok)
			}
			s.Values = append(s.Values, v)
		}
	}

	declared, err := s.IntAttr("size")
	if err != nil {
		return err
	}
	if declared != len(s.Values) {
		return parseErrorf(s.Name, ps.cur.line(), ErrLengthMismatch, "size=%d, found %d values", declared, len(s.Values))
	}
	return nil
}

// reshape gives a matrix section its dimensions from the header attributes
// named by the table.
func (ps *parse) reshape(s *Section, def SectionDef) error {
	if ps.header == nil {
		return parseErrorf(s.Name, 0, ErrMissingSection, "PP_HEADER must precede %s", s.Name)
	}
	rows, err := ps.header.IntAttr(def.RowsFrom)
	if err != nil {
		return err
	}
	cols, err := ps.header.IntAttr(def.ColsFrom)
	if err != nil {
		return err
	}
	if rows <= 0 || cols <= 0 {
		return parseErrorf(s.Name, 0, ErrLengthMismatch, "invalid dimensions %dx%d", rows, cols)
	}
	if rows*cols != len(s.Values) {
		return parseErrorf(s.Name, 0, ErrLengthMismatch, "%dx%d dimensions, found %d values", rows, cols, len(s.Values))
	}
	s.RowCount, s.ColCount = rows, cols
	return nil
}

// verbatim captures a section byte for byte: the original opening tag
// lines, the body, and an implied closing tag. PP_INFO and unrecognized
// sections take this path so nothing inside them is ever rewritten.
func (ps *parse) verbatim(name, rest, openLine string) (*Section, error) {
	s := &Section{Name: name, Kind: KindVerbatim, RawOpen: []string{openLine}}
	text := rest
	for {
		if idx, ok := unquotedByte(text, '>'); ok {
			if strings.HasSuffix(strings.TrimSpace(text[:idx]), "/") {
				s.SelfClosing = true
				return s, nil
			}
			break
		}
		line, ok := ps.cur.next()
		if !ok {
			return nil, parseErrorf(name, ps.cur.line(), ErrMalformedTag, "unterminated <%s tag", name)
		}
		s.RawOpen = append(s.RawOpen, line)
		text += " " + line
	}
	for {
		line, ok := ps.cur.next()
		if !ok {
			return nil, parseErrorf(name, ps.cur.line(), ErrMalformedTag, "missing </%s>", name)
		}
		if m := ps.closeRe.FindStringSubmatch(line); m != nil && m[1] == name {
			return s, nil
		}
		s.Raw = append(s.Raw, line)
	}
}

// comment captures a <!-- ... --> block starting on the given line.
func (ps *parse) comment(first string) *Section {
	s := &Section{Kind: KindComment, Raw: []string{first}}
	for !strings.Contains(first, "-->") {
		line, ok := ps.cur.next()
		if !ok {
			// An unterminated trailing comment is preserved as-is.
			break
		}
		s.Raw = append(s.Raw, line)
		first = line
	}
	return s
}

// unquotedByte returns the index of the first occurrence of b outside
// double quotes.
func unquotedByte(s string, b byte) (int, bool) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"':
			inQuote = !inQuote
		case s[i] == b && !inQuote:
			return i, true
		}
	}
	return 0, false
}

// cursor steps through input lines, tolerating CRLF endings and allowing a
// partial line to be handed back.
type cursor struct {
	lines   []string
	pos     int
	pending string
	hasPend bool
}

func newCursor(data []byte) *cursor {
	lines := strings.Split(string(data), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	// A trailing newline produces one empty trailing element; drop it so
	// line counts match the file.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return &cursor{lines: lines}
}

// next returns the next line, preferring a handed-back fragment.
func (c *cursor) next() (string, bool) {
	if c.hasPend {
		c.hasPend = false
		return c.pending, true
	}
	if c.pos >= len(c.lines) {
		return "", false
	}
	line := c.lines[c.pos]
	c.pos++
	return line, true
}

// inject hands a line fragment back to be returned by the next call.
func (c *cursor) inject(line string) {
	c.pending = line
	c.hasPend = true
}

// line is the 1-based number of the most recently returned line.
func (c *cursor) line() int {
	return c.pos
}
