// Package tokenizer splits HTML input into start tag, end tag, text and
// comment tokens. Parse reports how many trailing bytes of a chunk it could
// not resolve, so a caller can carry them over into the next chunk.
package tokenizer

import (
	"bytes"

	"github.com/jacoelho/tagstream/pkg/selectorvm"
)

// Directive selects how much work the tokenizer does per token.
type Directive uint8

const (
	// DirectiveScanForTags reports tags only. Attributes are lexed on demand
	// and text and comments pass unreported.
	DirectiveScanForTags Directive = iota
	// DirectiveLex reports every token and lexes attributes eagerly.
	DirectiveLex
)

// String returns a stable name for the directive.
func (d Directive) String() string {
	switch d {
	case DirectiveScanForTags:
		return "ScanForTags"
	case DirectiveLex:
		return "Lex"
	default:
		return "Unknown"
	}
}

// Handler receives tokens in input order. Spans index into input, which is
// only valid for the duration of the call. An error aborts Parse.
type Handler interface {
	HandleStartTag(input []byte, tag *StartTag) error
	HandleEndTag(input []byte, tag *EndTag) error
	HandleText(input []byte, text Span) error
	HandleComment(input []byte, comment Span) error
	// Directive is consulted after every token.
	Directive() Directive
}

// Tokenizer tokenizes a sequence of chunks. Raw-text element state carries
// over between Parse calls.
type Tokenizer struct {
	handler   Handler
	opts      Options
	start     StartTag
	end       EndTag
	rawText   selectorvm.LocalName
	directive Directive
}

// New returns a tokenizer reporting to handler.
func New(handler Handler, directive Directive, opts ...Options) *Tokenizer {
	return &Tokenizer{
		handler:   handler,
		directive: directive,
		opts:      JoinOptions(opts...),
	}
}

// Directive returns the directive in effect.
func (t *Tokenizer) Directive() Directive {
	return t.directive
}

// RawTextElement returns the raw-text element whose content is being
// scanned, or the zero LocalName.
func (t *Tokenizer) RawTextElement() selectorvm.LocalName {
	return t.rawText
}

type markupKind uint8

const (
	markupNone markupKind = iota
	markupIncomplete
	markupStartTag
	markupEndTag
	markupComment
	// markupSkip is markup with no token: doctypes and "</>".
	markupSkip
)

type markup struct {
	kind        markupKind
	end         int
	nameEnd     int
	selfClosing bool
}

// Parse tokenizes chunk and returns the number of trailing bytes that form
// an incomplete token. Those bytes must be presented again at the start of
// the next chunk. The last chunk never blocks.
func (t *Tokenizer) Parse(chunk Chunk) (int, error) {
	input := chunk.Bytes()
	last := chunk.IsLast()

	pos, textStart := 0, 0
	for pos < len(input) {
		if !t.rawText.IsEmpty() {
			next, blocked, err := t.parseRawText(input, pos, last)
			if err != nil || blocked > 0 {
				return blocked, err
			}
			pos, textStart = next, next
			continue
		}

		lt := bytes.IndexByte(input[pos:], '<')
		if lt < 0 {
			break
		}
		lt += pos

		m := classify(input, lt, last)
		switch m.kind {
		case markupNone:
			pos = lt + 1
			continue
		case markupIncomplete:
			return len(input) - lt, t.text(input, textStart, lt)
		}
		if err := t.text(input, textStart, lt); err != nil {
			return 0, err
		}
		if err := t.emit(input, lt, m); err != nil {
			return 0, err
		}
		pos, textStart = m.end, m.end
	}
	return 0, t.text(input, textStart, len(input))
}

func (t *Tokenizer) text(input []byte, start, end int) error {
	if end <= start || t.directive != DirectiveLex {
		return nil
	}
	return t.handler.HandleText(input, Span{Start: start, End: end})
}

func (t *Tokenizer) emit(input []byte, lt int, m markup) error {
	var err error
	switch m.kind {
	case markupStartTag:
		tag := &t.start
		tag.input = input
		tag.decode = t.opts.decode
		tag.name = selectorvm.NewLocalName(input[lt+1 : m.nameEnd])
		tag.Span = Span{Start: lt, End: m.end}
		tag.attrStart = m.nameEnd
		tag.SelfClosing = m.selfClosing
		tag.attrs = tag.attrs[:0]
		tag.lexed = false
		if t.directive == DirectiveLex {
			tag.AttributeList()
		}
		err = t.handler.HandleStartTag(input, tag)
		if tag.Opens() && IsRawTextElement(tag.name) {
			t.rawText = tag.name
		}
	case markupEndTag:
		t.end = EndTag{
			input: input,
			name:  selectorvm.NewLocalName(input[lt+2 : m.nameEnd]),
			Span:  Span{Start: lt, End: m.end},
		}
		err = t.handler.HandleEndTag(input, &t.end)
	case markupComment:
		if t.directive == DirectiveLex {
			err = t.handler.HandleComment(input, Span{Start: lt, End: m.end})
		}
	}
	if err != nil {
		return err
	}
	t.directive = t.handler.Directive()
	return nil
}

// classify inspects the markup starting with '<' at input[i].
func classify(input []byte, i int, last bool) markup {
	n := len(input)
	if i+1 >= n {
		return incomplete(last)
	}
	switch c := input[i+1]; {
	case c == '!':
		rest := input[i:]
		if len(rest) < len("<!--") && bytes.HasPrefix([]byte("<!--"), rest) {
			if last {
				return markup{kind: markupComment, end: n}
			}
			return markup{kind: markupIncomplete}
		}
		if bytes.HasPrefix(rest, []byte("<!--")) {
			// Searching from "<!" also terminates "<!-->" and "<!--->".
			idx := bytes.Index(input[i+2:], []byte("-->"))
			if idx < 0 {
				return unterminatedComment(n, last)
			}
			return markup{kind: markupComment, end: i + 2 + idx + len("-->")}
		}
		m := bogusComment(input, i, last)
		if m.kind == markupComment && m.end <= n && hasFoldPrefix(input[i+2:], "doctype") && input[m.end-1] == '>' {
			m.kind = markupSkip
		}
		return m
	case c == '?':
		return bogusComment(input, i, last)
	case c == '/':
		if i+2 >= n {
			return incomplete(last)
		}
		switch c2 := input[i+2]; {
		case c2 == '>':
			return markup{kind: markupSkip, end: i + 3}
		case isASCIIAlpha(c2):
			nameEnd := scanName(input, i+2)
			end, _, ok := scanTag(input, nameEnd)
			if !ok {
				return incomplete(last)
			}
			return markup{kind: markupEndTag, end: end, nameEnd: nameEnd}
		default:
			return bogusComment(input, i, last)
		}
	case isASCIIAlpha(c):
		nameEnd := scanName(input, i+1)
		end, selfClosing, ok := scanTag(input, nameEnd)
		if !ok {
			return incomplete(last)
		}
		return markup{kind: markupStartTag, end: end, nameEnd: nameEnd, selfClosing: selfClosing}
	default:
		return markup{kind: markupNone}
	}
}

// incomplete resolves unterminated tag markup: on the last chunk it is text.
func incomplete(last bool) markup {
	if last {
		return markup{kind: markupNone}
	}
	return markup{kind: markupIncomplete}
}

func unterminatedComment(n int, last bool) markup {
	if last {
		return markup{kind: markupComment, end: n}
	}
	return markup{kind: markupIncomplete}
}

func bogusComment(input []byte, i int, last bool) markup {
	idx := bytes.IndexByte(input[i+2:], '>')
	if idx < 0 {
		return unterminatedComment(len(input), last)
	}
	return markup{kind: markupComment, end: i + 2 + idx + 1}
}

// parseRawText scans element content up to the end tag closing the current
// raw-text element. It returns the offset of that end tag, or the number of
// trailing bytes that may begin it.
func (t *Tokenizer) parseRawText(input []byte, pos int, last bool) (int, int, error) {
	name := t.rawText.String()
	for i := pos; ; {
		idx := bytes.Index(input[i:], []byte("</"))
		if idx < 0 {
			tail := 0
			if !last && input[len(input)-1] == '<' {
				tail = 1
			}
			end := len(input) - tail
			return end, tail, t.text(input, pos, end)
		}
		closer := i + idx
		rest := input[closer+2:]
		if len(rest) <= len(name) {
			if !last && hasFoldPrefix(rest, name[:len(rest)]) {
				return closer, len(input) - closer, t.text(input, pos, closer)
			}
		} else if hasFoldPrefix(rest, name) && isEndTagDelimiter(rest[len(name)]) {
			t.rawText = selectorvm.LocalName{}
			return closer, 0, t.text(input, pos, closer)
		}
		i = closer + 2
	}
}

func isEndTagDelimiter(c byte) bool {
	return isSpace(c) || c == '/' || c == '>'
}
