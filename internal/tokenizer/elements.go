package tokenizer

import (
	"golang.org/x/net/html/atom"

	"github.com/jacoelho/tagstream/pkg/selectorvm"
)

// IsVoidElement reports whether name never has content or an end tag.
func IsVoidElement(name selectorvm.LocalName) bool {
	switch name.Atom() {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Keygen, atom.Link, atom.Meta, atom.Param, atom.Source,
		atom.Track, atom.Wbr:
		return true
	default:
		return false
	}
}

// IsRawTextElement reports whether the content of name is text up to the
// matching end tag.
func IsRawTextElement(name selectorvm.LocalName) bool {
	switch name.Atom() {
	case atom.Script, atom.Style, atom.Textarea, atom.Title, atom.Xmp,
		atom.Iframe, atom.Noembed, atom.Noframes:
		return true
	default:
		return false
	}
}
