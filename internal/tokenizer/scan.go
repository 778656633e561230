package tokenizer

import "strings"

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	default:
		return false
	}
}

func isASCIIAlpha(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// scanName returns the end of the tag name starting at pos.
func scanName(input []byte, pos int) int {
	for pos < len(input) {
		c := input[pos]
		if isSpace(c) || c == '/' || c == '>' {
			break
		}
		pos++
	}
	return pos
}

// scanTag finds the '>' closing a tag whose attributes start at pos.
// A '>' inside a quoted value does not close the tag. It returns the offset
// just past '>', whether the tag is self-closing, and false when the input
// ends first.
func scanTag(input []byte, pos int) (int, bool, bool) {
	const (
		stateTag = iota
		stateBeforeValue
		stateQuoted
		stateUnquoted
	)
	state := stateTag
	var quote byte
	for i := pos; i < len(input); i++ {
		c := input[i]
		switch state {
		case stateQuoted:
			if c == quote {
				state = stateTag
			}
		case stateUnquoted:
			switch {
			case c == '>':
				return i + 1, false, true
			case isSpace(c):
				state = stateTag
			}
		case stateBeforeValue:
			switch {
			case c == '>':
				return i + 1, false, true
			case c == '"' || c == '\'':
				quote = c
				state = stateQuoted
			case !isSpace(c):
				state = stateUnquoted
			}
		default:
			switch c {
			case '>':
				return i + 1, i > pos && input[i-1] == '/', true
			case '=':
				state = stateBeforeValue
			}
		}
	}
	return 0, false, false
}

// lexAttributes appends the attributes found in input[pos:end] to dst.
func lexAttributes(dst Attributes, input []byte, pos, end int, decode func([]byte) string) Attributes {
	i := pos
	for {
		for i < end && (isSpace(input[i]) || input[i] == '/') {
			i++
		}
		if i >= end {
			return dst
		}

		start := i
		i++ // a leading '=' belongs to the name
		for i < end && !isSpace(input[i]) && input[i] != '/' && input[i] != '=' {
			i++
		}
		name := strings.ToLower(string(input[start:i]))

		j := i
		for j < end && isSpace(input[j]) {
			j++
		}
		var value []byte
		if j < end && input[j] == '=' {
			j++
			for j < end && isSpace(input[j]) {
				j++
			}
			switch {
			case j < end && (input[j] == '"' || input[j] == '\''):
				q := input[j]
				vs := j + 1
				ve := vs
				for ve < end && input[ve] != q {
					ve++
				}
				value = input[vs:ve]
				j = min(ve+1, end)
			default:
				vs := j
				for j < end && !isSpace(input[j]) {
					j++
				}
				value = input[vs:j]
			}
			i = j
		}

		if _, dup := dst.Value(name); !dup {
			dst = append(dst, Attribute{
				Name:  name,
				Value: decodeValue(value, decode),
				Raw:   Span{Start: start, End: i},
			})
		}
	}
}

func decodeValue(raw []byte, decode func([]byte) string) string {
	if decode == nil {
		return string(raw)
	}
	return decode(raw)
}

// hasFoldPrefix reports whether b begins with the ASCII-lowercase prefix.
func hasFoldPrefix(b []byte, prefix string) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := b[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != prefix[i] {
			return false
		}
	}
	return true
}
