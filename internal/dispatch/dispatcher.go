// Package dispatch routes tokens through the selector matcher and a
// controller, and writes the resulting bytes to an output sink in input
// order.
package dispatch

import (
	"github.com/jacoelho/tagstream/errors"
	"github.com/jacoelho/tagstream/internal/tokenizer"
	"github.com/jacoelho/tagstream/pkg/selectorvm"
)

// Dispatcher implements tokenizer.Handler. Bytes between reported tokens
// pass through unchanged.
type Dispatcher[P comparable] struct {
	matcher    *selectorvm.Matcher[P]
	controller Controller[P]
	sink       OutputSink
	element    Element[P]
	endTag     EndTag[P]
	token      Token
	// consumed is the offset in the current chunk up to which output has
	// been emitted.
	consumed int
}

// New returns a dispatcher matching elements against program.
func New[P comparable](program *selectorvm.Program[P], controller Controller[P], sink OutputSink) *Dispatcher[P] {
	return &Dispatcher[P]{
		matcher:    selectorvm.NewMatcher(program),
		controller: controller,
		sink:       sink,
	}
}

// InitialDirective returns the tokenizer directive for the first chunk.
func (d *Dispatcher[P]) InitialDirective() tokenizer.Directive {
	return directiveFor(d.controller.InitialCaptureFlags())
}

// Directive returns the tokenizer directive for the next token.
func (d *Dispatcher[P]) Directive() tokenizer.Directive {
	return directiveFor(d.controller.CaptureFlags())
}

func directiveFor(flags CaptureFlags) tokenizer.Directive {
	if flags.IsEmpty() {
		return tokenizer.DirectiveScanForTags
	}
	return tokenizer.DirectiveLex
}

// Depth returns the number of open elements.
func (d *Dispatcher[P]) Depth() int {
	return d.matcher.Depth()
}

// HandleStartTag matches the tag and applies the controller's rewrite.
func (d *Dispatcher[P]) HandleStartTag(input []byte, tag *tokenizer.StartTag) error {
	opens := tag.Opens()
	payload := d.matcher.Enter(tag, opens)
	depth := 0
	if opens {
		depth = d.matcher.Depth()
	}
	d.element = Element[P]{tag: tag, payload: payload, depth: depth}
	rw, err := d.controller.HandleStartTag(&d.element)
	d.element = Element[P]{}
	if err != nil {
		return errors.Wrap(errors.ErrController, "start tag handler failed", err)
	}
	return d.emitToken(input, tag.Span, rw)
}

// HandleEndTag closes the matching element and applies the controller's rewrite.
func (d *Dispatcher[P]) HandleEndTag(input []byte, tag *tokenizer.EndTag) error {
	payload, depth := d.matcher.Leave(tag.LocalName())
	d.endTag = EndTag[P]{
		Name:    tag.LocalName(),
		Raw:     tag.Raw(),
		Payload: payload,
		Depth:   depth,
	}
	rw, err := d.controller.HandleEndTag(&d.endTag)
	d.endTag = EndTag[P]{}
	if err != nil {
		return errors.Wrap(errors.ErrController, "end tag handler failed", err)
	}
	return d.emitToken(input, tag.Span, rw)
}

// HandleText passes text to the controller when it captures text.
func (d *Dispatcher[P]) HandleText(input []byte, text tokenizer.Span) error {
	return d.handleToken(input, text, TokenText, CaptureText)
}

// HandleComment passes a comment to the controller when it captures comments.
func (d *Dispatcher[P]) HandleComment(input []byte, comment tokenizer.Span) error {
	return d.handleToken(input, comment, TokenComment, CaptureComments)
}

func (d *Dispatcher[P]) handleToken(input []byte, span tokenizer.Span, kind TokenKind, flag CaptureFlags) error {
	if !d.controller.CaptureFlags().Has(flag) {
		return nil
	}
	d.token = Token{Kind: kind, Raw: span.Of(input)}
	rw, err := d.controller.HandleToken(&d.token)
	d.token = Token{}
	if err != nil {
		return errors.Wrap(errors.ErrController, "token handler failed", err)
	}
	return d.emitToken(input, span, rw)
}

func (d *Dispatcher[P]) emitToken(input []byte, span tokenizer.Span, rw Rewrite) error {
	if err := d.emit(input[d.consumed:span.Start]); err != nil {
		return err
	}
	d.consumed = span.End
	if err := d.emit(rw.Before); err != nil {
		return err
	}
	switch {
	case rw.Remove:
	case rw.Replace != nil:
		if err := d.emit(rw.Replace); err != nil {
			return err
		}
	default:
		if err := d.emit(span.Of(input)); err != nil {
			return err
		}
	}
	return d.emit(rw.After)
}

// FlushRemainingInput emits every byte of input not yet emitted except the
// trailing blocked bytes, which the caller presents again in the next chunk.
func (d *Dispatcher[P]) FlushRemainingInput(input []byte, blocked int) error {
	end := len(input) - blocked
	var err error
	if d.consumed < end {
		err = d.emit(input[d.consumed:end])
	}
	d.consumed = 0
	return err
}

// Finish emits the rest of the last chunk and signals the end of output.
func (d *Dispatcher[P]) Finish(input []byte) error {
	if err := d.FlushRemainingInput(input, 0); err != nil {
		return err
	}
	if err := d.sink.HandleChunk(nil); err != nil {
		return errors.Wrap(errors.ErrOutput, "output sink failed", err)
	}
	return nil
}

func (d *Dispatcher[P]) emit(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := d.sink.HandleChunk(b); err != nil {
		return errors.Wrap(errors.ErrOutput, "output sink failed", err)
	}
	return nil
}
