// Package selector parses the CSS selector subset understood by the
// selector VM compiler.
package selector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const whitespace = " \t\n\r\f"

var (
	// ErrUnsupported reports valid CSS the matcher cannot express.
	ErrUnsupported = errors.New("unsupported selector")

	errEmptySelector   = errors.New("empty selector")
	errUnexpectedEOF   = errors.New("unexpected end of selector")
	errUnexpectedChar  = errors.New("unexpected character")
	errExpectedIdent   = errors.New("expected identifier")
	errExpectedValue   = errors.New("expected attribute value")
	errUnterminatedStr = errors.New("unterminated string")
	errInvalidNth      = errors.New("invalid an+b expression")
)

// SyntaxError reports a selector parse failure with its offset.
type SyntaxError struct {
	Err    error
	Input  string
	Offset int
}

// Error formats the failure with offset and cause.
func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("selector %q at offset %d: %v", e.Input, e.Offset, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SyntaxError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Parse parses a comma-separated selector list.
func Parse(input string) ([]Selector, error) {
	p := &parser{in: input}
	var out []Selector
	for {
		p.skipSpace()
		if p.eof() {
			if len(out) == 0 {
				return nil, p.fail(errEmptySelector)
			}
			return nil, p.fail(errUnexpectedEOF)
		}
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
		if p.eof() {
			return out, nil
		}
		// parseSelector stops only at ',' or end of input.
		p.pos++
	}
}

type parser struct {
	in  string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.in)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.in[p.pos]
}

func (p *parser) skipSpace() bool {
	start := p.pos
	for !p.eof() && strings.IndexByte(whitespace, p.in[p.pos]) >= 0 {
		p.pos++
	}
	return p.pos > start
}

func (p *parser) fail(err error) error {
	return &SyntaxError{Input: p.in, Offset: p.pos, Err: err}
}

func (p *parser) parseSelector() (Selector, error) {
	var sel Selector
	comb := CombinatorNone
	for {
		compound, err := p.parseCompound()
		if err != nil {
			return Selector{}, err
		}
		sel.Parts = append(sel.Parts, Part{Combinator: comb, Compound: compound})

		sawSpace := p.skipSpace()
		if p.eof() || p.peek() == ',' {
			return sel, nil
		}
		switch c := p.peek(); c {
		case '>':
			p.pos++
			p.skipSpace()
			comb = CombinatorChild
		case '+', '~':
			return Selector{}, p.fail(fmt.Errorf("%w: sibling combinator %q", ErrUnsupported, c))
		default:
			if !sawSpace {
				return Selector{}, p.fail(fmt.Errorf("%w %q", errUnexpectedChar, c))
			}
			comb = CombinatorDescendant
		}
	}
}

func (p *parser) parseCompound() (Compound, error) {
	var c Compound
	start := p.pos
	switch {
	case p.peek() == '*':
		p.pos++
	case isNameStart(p.peek()):
		tag, err := p.ident()
		if err != nil {
			return Compound{}, err
		}
		c.Tag = strings.ToLower(tag)
	}

	for !p.eof() {
		switch p.peek() {
		case '#':
			p.pos++
			id, err := p.ident()
			if err != nil {
				return Compound{}, err
			}
			c.Attributes = append(c.Attributes, Attribute{Name: "id", Op: AttrEquals, Value: id})
		case '.':
			p.pos++
			class, err := p.ident()
			if err != nil {
				return Compound{}, err
			}
			c.Attributes = append(c.Attributes, Attribute{Name: "class", Op: AttrIncludes, Value: class})
		case '[':
			attr, err := p.parseAttribute()
			if err != nil {
				return Compound{}, err
			}
			c.Attributes = append(c.Attributes, attr)
		case ':':
			pseudo, err := p.parsePseudo()
			if err != nil {
				return Compound{}, err
			}
			c.Pseudos = append(c.Pseudos, pseudo)
		default:
			if p.pos == start {
				return Compound{}, p.fail(fmt.Errorf("%w %q", errUnexpectedChar, p.peek()))
			}
			return c, nil
		}
	}
	if p.pos == start {
		return Compound{}, p.fail(errUnexpectedEOF)
	}
	return c, nil
}

func (p *parser) parseAttribute() (Attribute, error) {
	p.pos++ // '['
	p.skipSpace()
	name, err := p.ident()
	if err != nil {
		return Attribute{}, err
	}
	attr := Attribute{Name: strings.ToLower(name), Op: AttrExists}
	p.skipSpace()
	if p.eof() {
		return Attribute{}, p.fail(errUnexpectedEOF)
	}
	if p.peek() == ']' {
		p.pos++
		return attr, nil
	}

	switch p.peek() {
	case '=':
		attr.Op = AttrEquals
		p.pos++
	case '~', '|', '^', '$', '*':
		if p.pos+1 >= len(p.in) || p.in[p.pos+1] != '=' {
			return Attribute{}, p.fail(fmt.Errorf("%w %q", errUnexpectedChar, p.peek()))
		}
		attr.Op = attrOps[p.peek()]
		p.pos += 2
	default:
		return Attribute{}, p.fail(fmt.Errorf("%w %q", errUnexpectedChar, p.peek()))
	}

	p.skipSpace()
	switch c := p.peek(); {
	case c == '"' || c == '\'':
		attr.Value, err = p.str()
	case isNameStart(c) || isNameChar(c):
		attr.Value, err = p.name()
	default:
		err = p.fail(errExpectedValue)
	}
	if err != nil {
		return Attribute{}, err
	}

	p.skipSpace()
	if c := p.peek(); c == 'i' || c == 'I' || c == 's' || c == 'S' {
		attr.IgnoreCase = c == 'i' || c == 'I'
		p.pos++
		p.skipSpace()
	}
	if p.eof() {
		return Attribute{}, p.fail(errUnexpectedEOF)
	}
	if p.peek() != ']' {
		return Attribute{}, p.fail(fmt.Errorf("%w %q", errUnexpectedChar, p.peek()))
	}
	p.pos++
	return attr, nil
}

var attrOps = map[byte]AttrOp{
	'~': AttrIncludes,
	'|': AttrDashMatch,
	'^': AttrPrefix,
	'$': AttrSuffix,
	'*': AttrSubstring,
}

func (p *parser) parsePseudo() (Pseudo, error) {
	p.pos++ // ':'
	start := p.pos
	name, err := p.ident()
	if err != nil {
		return Pseudo{}, err
	}
	name = strings.ToLower(name)
	switch name {
	case "first-child":
		return Pseudo{Kind: PseudoNthChild, Nth: Nth{B: 1}}, nil
	case "first-of-type":
		return Pseudo{Kind: PseudoNthOfType, Nth: Nth{B: 1}}, nil
	case "nth-child", "nth-of-type":
		nth, err := p.parseNthArgument()
		if err != nil {
			return Pseudo{}, err
		}
		kind := PseudoNthChild
		if name == "nth-of-type" {
			kind = PseudoNthOfType
		}
		return Pseudo{Kind: kind, Nth: nth}, nil
	default:
		p.pos = start
		return Pseudo{}, p.fail(fmt.Errorf("%w: pseudo-class :%s", ErrUnsupported, name))
	}
}

func (p *parser) parseNthArgument() (Nth, error) {
	if p.peek() != '(' {
		return Nth{}, p.fail(fmt.Errorf("%w: missing argument", errInvalidNth))
	}
	p.pos++
	end := strings.IndexByte(p.in[p.pos:], ')')
	if end < 0 {
		return Nth{}, p.fail(errUnexpectedEOF)
	}
	arg := p.in[p.pos : p.pos+end]
	nth, err := ParseNth(arg)
	if err != nil {
		return Nth{}, p.fail(err)
	}
	p.pos += end + 1
	return nth, nil
}

// ParseNth parses an an+b expression, including the odd and even keywords.
func ParseNth(expr string) (Nth, error) {
	s := strings.ToLower(strings.Map(func(r rune) rune {
		if strings.ContainsRune(whitespace, r) {
			return -1
		}
		return r
	}, expr))

	switch s {
	case "":
		return Nth{}, fmt.Errorf("%w: empty", errInvalidNth)
	case "odd":
		return Nth{A: 2, B: 1}, nil
	case "even":
		return Nth{A: 2, B: 0}, nil
	}

	before, after, hasN := strings.Cut(s, "n")
	if !hasN {
		b, err := strconv.Atoi(s)
		if err != nil {
			return Nth{}, fmt.Errorf("%w: %q", errInvalidNth, expr)
		}
		return Nth{B: b}, nil
	}

	var nth Nth
	switch before {
	case "", "+":
		nth.A = 1
	case "-":
		nth.A = -1
	default:
		a, err := strconv.Atoi(before)
		if err != nil {
			return Nth{}, fmt.Errorf("%w: %q", errInvalidNth, expr)
		}
		nth.A = a
	}
	if after == "" {
		return nth, nil
	}
	if after[0] != '+' && after[0] != '-' {
		return Nth{}, fmt.Errorf("%w: %q", errInvalidNth, expr)
	}
	b, err := strconv.Atoi(after)
	if err != nil {
		return Nth{}, fmt.Errorf("%w: %q", errInvalidNth, expr)
	}
	nth.B = b
	return nth, nil
}

func (p *parser) ident() (string, error) {
	if p.eof() {
		return "", p.fail(errUnexpectedEOF)
	}
	if !isNameStart(p.peek()) {
		return "", p.fail(errExpectedIdent)
	}
	return p.name()
}

// name reads a run of name characters and escapes.
func (p *parser) name() (string, error) {
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '\\':
			r, err := p.escape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		case isNameChar(c):
			b.WriteByte(c)
			p.pos++
		default:
			return p.nonEmpty(b.String())
		}
	}
	return p.nonEmpty(b.String())
}

func (p *parser) nonEmpty(s string) (string, error) {
	if s == "" {
		return "", p.fail(errExpectedIdent)
	}
	return s, nil
}

// escape decodes a backslash escape: up to six hex digits followed by an
// optional whitespace, or a single literal character.
func (p *parser) escape() (rune, error) {
	p.pos++ // '\\'
	if p.eof() {
		return 0, p.fail(errUnexpectedEOF)
	}
	start := p.pos
	for p.pos < len(p.in) && p.pos-start < 6 && isHex(p.in[p.pos]) {
		p.pos++
	}
	if p.pos > start {
		v, _ := strconv.ParseUint(p.in[start:p.pos], 16, 32)
		if !p.eof() && strings.IndexByte(whitespace, p.peek()) >= 0 {
			p.pos++
		}
		r := rune(v)
		if r == 0 || !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		return r, nil
	}
	r, size := utf8.DecodeRuneInString(p.in[p.pos:])
	p.pos += size
	return r, nil
}

func (p *parser) str() (string, error) {
	quote := p.peek()
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			r, err := p.escape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.fail(errUnterminatedStr)
}

func isNameStart(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_' || c == '-' || c == '\\' || c >= 0x80
}

func isNameChar(c byte) bool {
	return isNameStart(c) && c != '\\' || '0' <= c && c <= '9'
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
