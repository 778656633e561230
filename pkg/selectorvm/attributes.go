package selectorvm

import "strings"

// AttributeMatcher looks up attributes of a fully parsed start tag.
// Names are passed lowercased and compared ASCII case-insensitively by
// implementations; values are returned as written.
type AttributeMatcher interface {
	Value(name string) (string, bool)
}

// HasAttribute reports whether the named attribute is present.
func HasAttribute(attrs AttributeMatcher, name string) bool {
	_, ok := attrs.Value(name)
	return ok
}

// HasID reports whether the id attribute equals id.
func HasID(attrs AttributeMatcher, id string) bool {
	v, ok := attrs.Value("id")
	return ok && v == id
}

// HasClass reports whether class appears in the whitespace-separated class list.
func HasClass(attrs AttributeMatcher, class string) bool {
	v, ok := attrs.Value("class")
	if !ok {
		return false
	}
	return includesWord(v, class, false)
}

func includesWord(list, word string, foldCase bool) bool {
	if word == "" || strings.ContainsAny(word, htmlSpace) {
		return false
	}
	for field := range strings.FieldsFuncSeq(list, isHTMLSpace) {
		if field == word || (foldCase && strings.EqualFold(field, word)) {
			return true
		}
	}
	return false
}

const htmlSpace = " \t\n\f\r"

func isHTMLSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	default:
		return false
	}
}
