// Package tagstream rewrites HTML as it streams through. Input arrives in
// arbitrary chunks; start tags are matched against a compiled selector
// program and a controller decides how each token is written out.
package tagstream

import (
	stderrors "errors"

	"github.com/jacoelho/tagstream/errors"
	"github.com/jacoelho/tagstream/internal/dispatch"
	"github.com/jacoelho/tagstream/internal/selector"
	"github.com/jacoelho/tagstream/internal/tokenizer"
	"github.com/jacoelho/tagstream/pkg/selectorvm"
)

type (
	// CaptureFlags selects the text and comment tokens a controller sees.
	CaptureFlags = dispatch.CaptureFlags
	// Rewrite describes the output for one token.
	Rewrite = dispatch.Rewrite
	// Token is a captured text or comment token.
	Token = dispatch.Token
	// TokenKind identifies a captured token.
	TokenKind = dispatch.TokenKind
	// OutputSink receives rewritten output in input order.
	OutputSink = dispatch.OutputSink
	// SinkFunc adapts a function to OutputSink.
	SinkFunc = dispatch.SinkFunc
	// WriterSink writes output to an io.Writer.
	WriterSink = dispatch.WriterSink
	// Attributes is the attribute list of a start tag.
	Attributes = tokenizer.Attributes
	// Attribute is one attribute of a start tag.
	Attribute = tokenizer.Attribute
)

// Element is a start tag with the payloads of the selectors it matched.
type Element[P comparable] = dispatch.Element[P]

// EndTag is an end tag with the payloads of the element it closes.
type EndTag[P comparable] = dispatch.EndTag[P]

// TransformController decides how tokens are rewritten.
type TransformController[P comparable] = dispatch.Controller[P]

// Rule binds a selector list to a payload.
type Rule[P comparable] = selectorvm.Rule[P]

const (
	CaptureText     = dispatch.CaptureText
	CaptureComments = dispatch.CaptureComments

	TokenText    = dispatch.TokenText
	TokenComment = dispatch.TokenComment
)

// Compile builds a selector program from rules.
// Parse failures carry errors.ErrSelectorSyntax and constructs the matcher
// cannot express carry errors.ErrUnsupportedSelector.
func Compile[P comparable](rules []Rule[P]) (*selectorvm.Program[P], error) {
	program, err := selectorvm.Compile(rules)
	if err == nil {
		return program, nil
	}
	code := errors.ErrSelectorSyntax
	if stderrors.Is(err, selector.ErrUnsupported) {
		code = errors.ErrUnsupportedSelector
	}
	return nil, errors.Wrap(code, "compile selectors", err)
}
