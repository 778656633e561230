package dispatch

import (
	"io"

	"github.com/jacoelho/tagstream/internal/tokenizer"
	"github.com/jacoelho/tagstream/pkg/selectorvm"
)

// CaptureFlags selects the non-tag tokens a controller wants to see.
type CaptureFlags uint8

const (
	CaptureText CaptureFlags = 1 << iota
	CaptureComments
)

// Has reports whether every bit of flag is set.
func (f CaptureFlags) Has(flag CaptureFlags) bool {
	return f&flag == flag
}

// IsEmpty reports whether no token kind is captured.
func (f CaptureFlags) IsEmpty() bool {
	return f == 0
}

// TokenKind identifies a captured token.
type TokenKind uint8

const (
	TokenText TokenKind = iota
	TokenComment
)

// String returns a stable name for the kind.
func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "Text"
	case TokenComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Token is a captured text or comment token.
// Raw is only valid during the controller call.
type Token struct {
	Raw  []byte
	Kind TokenKind
}

// Element is a start tag together with the payloads it matched.
// It is only valid during the controller call.
type Element[P comparable] struct {
	tag     *tokenizer.StartTag
	payload []P
	depth   int
}

// LocalName returns the lowercased tag name.
func (e *Element[P]) LocalName() selectorvm.LocalName {
	return e.tag.LocalName()
}

// Attributes returns the attribute list, lexing it if needed.
func (e *Element[P]) Attributes() tokenizer.Attributes {
	return e.tag.AttributeList()
}

// Payload returns the payloads of every selector the element matched.
func (e *Element[P]) Payload() []P {
	return e.payload
}

// Matched reports whether any selector matched.
func (e *Element[P]) Matched() bool {
	return len(e.payload) > 0
}

// Depth returns the 1-based nesting depth of an element that opens, or 0
// for void and self-closing elements.
func (e *Element[P]) Depth() int {
	return e.depth
}

// Opens reports whether content will nest inside the element.
func (e *Element[P]) Opens() bool {
	return e.tag.Opens()
}

// Raw returns the start tag bytes.
func (e *Element[P]) Raw() []byte {
	return e.tag.Raw()
}

// EndTag is an end tag together with the payloads of the element it closes.
// Depth is the depth of that element, or 0 when no open element matches the
// name. Raw is only valid during the controller call.
type EndTag[P comparable] struct {
	Name    selectorvm.LocalName
	Raw     []byte
	Payload []P
	Depth   int
}

// Rewrite describes the output for one token. The zero Rewrite passes the
// token through unchanged.
type Rewrite struct {
	Before  []byte
	After   []byte
	Replace []byte
	Remove  bool
}

// Controller decides how tokens are rewritten.
type Controller[P comparable] interface {
	// InitialCaptureFlags is consulted once before the first token.
	InitialCaptureFlags() CaptureFlags
	// CaptureFlags is consulted after every token.
	CaptureFlags() CaptureFlags
	HandleStartTag(el *Element[P]) (Rewrite, error)
	HandleEndTag(tag *EndTag[P]) (Rewrite, error)
	HandleToken(tok *Token) (Rewrite, error)
}

// OutputSink receives output bytes in input order. A zero-length chunk
// signals the end of output.
type OutputSink interface {
	HandleChunk(chunk []byte) error
}

// SinkFunc adapts a function to OutputSink.
type SinkFunc func(chunk []byte) error

// HandleChunk calls f(chunk).
func (f SinkFunc) HandleChunk(chunk []byte) error {
	return f(chunk)
}

// WriterSink writes output to W and ignores the end signal.
type WriterSink struct {
	W io.Writer
}

// HandleChunk writes chunk to W.
func (s WriterSink) HandleChunk(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	_, err := s.W.Write(chunk)
	return err
}
