package tokenizer

import (
	"strings"

	"github.com/jacoelho/tagstream/pkg/selectorvm"
)

// Span is a half-open byte range within the chunk passed to a handler.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Of returns the bytes of input covered by s.
func (s Span) Of(input []byte) []byte {
	return input[s.Start:s.End]
}

// Attribute is one lexed name/value pair.
type Attribute struct {
	// Name is ASCII-lowercased.
	Name  string
	Value string
	// Raw covers the whole attribute as written, including any quotes.
	Raw Span
}

// Attributes is the attribute list of a start tag in source order.
// Later duplicates of a name are dropped when lexing.
type Attributes []Attribute

// Value returns the value of the named attribute.
func (a Attributes) Value(name string) (string, bool) {
	for i := range a {
		if strings.EqualFold(a[i].Name, name) {
			return a[i].Value, true
		}
	}
	return "", false
}

// StartTag is a start tag token. Handlers must not retain it past the
// callback: the tokenizer reuses it and the input it refers to.
type StartTag struct {
	input       []byte
	decode      func([]byte) string
	name        selectorvm.LocalName
	attrs       Attributes
	Span        Span
	attrStart   int
	SelfClosing bool
	lexed       bool
}

// LocalName returns the lowercased tag name.
func (t *StartTag) LocalName() selectorvm.LocalName {
	return t.name
}

// Attributes lexes the attribute list on first use.
func (t *StartTag) Attributes() selectorvm.AttributeMatcher {
	return t.AttributeList()
}

// AttributeList returns the lexed attributes.
func (t *StartTag) AttributeList() Attributes {
	if !t.lexed {
		t.attrs = lexAttributes(t.attrs[:0], t.input, t.attrStart, t.Span.End-1, t.decode)
		t.lexed = true
	}
	return t.attrs
}

// AttributesReady reports whether attributes were already lexed.
func (t *StartTag) AttributesReady() bool {
	return t.lexed
}

// Raw returns the tag bytes, from '<' to '>' inclusive.
func (t *StartTag) Raw() []byte {
	return t.Span.Of(t.input)
}

// Opens reports whether the tag starts an element that later content nests in.
func (t *StartTag) Opens() bool {
	return !t.SelfClosing && !IsVoidElement(t.name)
}

// EndTag is an end tag token.
type EndTag struct {
	input []byte
	name  selectorvm.LocalName
	Span  Span
}

// LocalName returns the lowercased tag name.
func (t *EndTag) LocalName() selectorvm.LocalName {
	return t.name
}

// Raw returns the tag bytes, from '<' to '>' inclusive.
func (t *EndTag) Raw() []byte {
	return t.Span.Of(t.input)
}

var _ selectorvm.Element = (*StartTag)(nil)
