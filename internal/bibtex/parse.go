package bibtex

import (
	"fmt"
	"os"
	"strings"
)

// Parse reads every citation record found in text. Text outside records
// is ignored, as are @comment, @preamble and @string blocks.
func Parse(text string) (*Database, error) {
	db := NewDatabase()
	p := &parser{src: text}
	for {
		e, err := p.next()
		if err != nil {
			return nil, err
		}
		if e == nil {
			return db, nil
		}
		db.Set(e)
	}
}

// ParseOne parses text and requires it to contain exactly one record.
func ParseOne(text string) (*Entry, error) {
	db, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if db.Len() != 1 {
		return nil, fmt.Errorf("expected exactly one entry, got %d", db.Len())
	}
	return db.Entries()[0], nil
}

// ParseFile parses the records in the file at path. A missing file
// yields an empty database.
func ParseFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDatabase(), nil
		}
		return nil, err
	}
	return Parse(string(data))
}

// ParseLax reads every record it can from text, dropping records that
// fail to parse instead of failing the whole parse.
func ParseLax(text string) *Database {
	db := NewDatabase()
	p := &parser{src: text}
	for {
		e, err := p.next()
		if err != nil {
			// The parser stopped inside the bad record; the next
			// iteration resumes at the following @.
			continue
		}
		if e == nil {
			return db
		}
		db.Set(e)
	}
}

// ParseFileLax parses the file at path the way ParseLax does. A missing
// file yields an empty database.
func ParseFileLax(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDatabase(), nil
		}
		return nil, err
	}
	return ParseLax(string(data)), nil
}

type parser struct {
	src string
	pos int
}

// next returns the next record, or nil at end of input.
func (p *parser) next() (*Entry, error) {
	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return nil, nil
		}
		p.pos += at + 1
		name := strings.ToLower(p.ident())
		switch name {
		case "comment", "preamble", "string":
			if err := p.skipBlock(); err != nil {
				return nil, err
			}
		case "":
			// stray @ in commentary, keep scanning
		default:
			return p.parseEntry(name)
		}
	}
}

func (p *parser) parseEntry(entryType string) (*Entry, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '{' && p.src[p.pos] != '(') {
		return nil, fmt.Errorf("entry @%s: expected opening delimiter", entryType)
	}
	closer := byte('}')
	if p.src[p.pos] == '(' {
		closer = ')'
	}
	p.pos++

	key, err := p.readKey(closer)
	if err != nil {
		return nil, fmt.Errorf("entry @%s: %w", entryType, err)
	}
	e := NewEntry(entryType, key)

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("entry %s: unterminated entry", key)
		}
		switch p.src[p.pos] {
		case closer:
			p.pos++
			return e, nil
		case ',':
			p.pos++
			continue
		}
		name := strings.ToLower(p.ident())
		if name == "" {
			return nil, fmt.Errorf("entry %s: expected field name", key)
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '=' {
			return nil, fmt.Errorf("entry %s: field %s: expected =", key, name)
		}
		p.pos++
		value, err := p.readValue(closer)
		if err != nil {
			return nil, fmt.Errorf("entry %s: field %s: %w", key, name, err)
		}
		if name == "ids" {
			e.IDs = splitIDs(value)
		} else {
			e.Fields[name] = value
		}
	}
}

func (p *parser) readKey(closer byte) (string, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ',' || c == closer {
			key := strings.TrimSpace(p.src[start:p.pos])
			if key == "" {
				return "", fmt.Errorf("missing citation key")
			}
			if c == ',' {
				p.pos++
			}
			return key, nil
		}
		p.pos++
	}
	return "", fmt.Errorf("unterminated entry")
}

func (p *parser) readValue(closer byte) (string, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return "", fmt.Errorf("missing value")
	}
	switch p.src[p.pos] {
	case '{':
		return p.readBraced()
	case '"':
		return p.readQuoted()
	default:
		return p.readBare(closer), nil
	}
}

// readBraced consumes a {...} value, keeping nested braces verbatim.
func (p *parser) readBraced() (string, error) {
	depth := 0
	start := p.pos + 1
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				val := p.src[start:p.pos]
				p.pos++
				return normalizeSpace(val), nil
			}
		}
	}
	return "", fmt.Errorf("unterminated braced value")
}

// readQuoted consumes a "..." value. Quotes nested inside braces do not
// terminate the value.
func (p *parser) readQuoted() (string, error) {
	p.pos++
	start := p.pos
	depth := 0
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '"':
			if depth == 0 {
				val := p.src[start:p.pos]
				p.pos++
				return normalizeSpace(val), nil
			}
		}
	}
	return "", fmt.Errorf("unterminated quoted value")
}

func (p *parser) readBare(closer byte) string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ',' || c == closer {
			break
		}
		p.pos++
	}
	return normalizeSpace(p.src[start:p.pos])
}

// skipBlock consumes a balanced @comment/@preamble/@string block.
func (p *parser) skipBlock() error {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil
	}
	opener := p.src[p.pos]
	var closer byte
	switch opener {
	case '{':
		closer = '}'
	case '(':
		closer = ')'
	default:
		return nil
	}
	depth := 0
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		}
	}
	return fmt.Errorf("unterminated block")
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func isIdentChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}

// normalizeSpace collapses whitespace runs to single spaces, the way
// TeX treats them.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func splitIDs(value string) []string {
	var ids []string
	for _, id := range strings.Split(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
