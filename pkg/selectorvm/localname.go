package selectorvm

import "golang.org/x/net/html/atom"

// LocalName is an ASCII-lowercased tag name.
// Known HTML names are interned as atoms; two LocalNames are equal iff they
// denote the same name, so the type is usable as a map key.
type LocalName struct {
	name string
	atom atom.Atom
}

const localNameStackSize = 32

// NewLocalName builds a LocalName from raw tag-name bytes.
func NewLocalName(raw []byte) LocalName {
	var stack [localNameStackSize]byte
	var lower []byte
	if len(raw) <= len(stack) {
		lower = stack[:len(raw)]
	} else {
		lower = make([]byte, len(raw))
	}
	for i, c := range raw {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower[i] = c
	}
	if a := atom.Lookup(lower); a != 0 {
		return LocalName{atom: a}
	}
	return LocalName{name: string(lower)}
}

// LocalNameFromString builds a LocalName from a tag name string.
func LocalNameFromString(name string) LocalName {
	return NewLocalName([]byte(name))
}

// Atom returns the interned atom, or 0 for names unknown to HTML.
func (n LocalName) Atom() atom.Atom {
	return n.atom
}

// IsEmpty reports whether n is the zero LocalName.
func (n LocalName) IsEmpty() bool {
	return n.atom == 0 && n.name == ""
}

func (n LocalName) String() string {
	if n.atom != 0 {
		return n.atom.String()
	}
	return n.name
}
