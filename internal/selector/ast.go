package selector

import (
	"slices"
	"strconv"
	"strings"
)

// Combinator links a compound selector to the one before it.
type Combinator uint8

const (
	// CombinatorNone marks the first compound of a selector.
	CombinatorNone Combinator = iota
	// CombinatorDescendant matches any descendant (whitespace).
	CombinatorDescendant
	// CombinatorChild matches direct children only (">").
	CombinatorChild
)

func (c Combinator) String() string {
	switch c {
	case CombinatorDescendant:
		return " "
	case CombinatorChild:
		return " > "
	default:
		return ""
	}
}

// Selector is a chain of compound selectors, leftmost first.
type Selector struct {
	Parts []Part
}

// Part is one compound selector and the combinator joining it to the
// previous part.
type Part struct {
	Compound   Compound
	Combinator Combinator
}

func (s Selector) String() string {
	var b strings.Builder
	for _, part := range s.Parts {
		b.WriteString(part.Combinator.String())
		b.WriteString(part.Compound.String())
	}
	return b.String()
}

// Compound is a sequence of simple selectors applying to one element.
type Compound struct {
	// Tag is the lowercased type selector; empty matches any element.
	Tag        string
	Attributes []Attribute
	Pseudos    []Pseudo
}

// String renders the compound in canonical form: simple selectors other
// than the type are sorted, so equivalent compounds render identically.
func (c Compound) String() string {
	parts := make([]string, 0, len(c.Attributes)+len(c.Pseudos))
	for _, attr := range c.Attributes {
		parts = append(parts, attr.String())
	}
	for _, pseudo := range c.Pseudos {
		parts = append(parts, pseudo.String())
	}
	slices.Sort(parts)
	tag := c.Tag
	if tag == "" {
		tag = "*"
	}
	return tag + strings.Join(parts, "")
}

// AttrOp is an attribute selector operator.
type AttrOp uint8

const (
	AttrExists    AttrOp = iota // [a]
	AttrEquals                  // [a=v]
	AttrIncludes                // [a~=v]
	AttrDashMatch               // [a|=v]
	AttrPrefix                  // [a^=v]
	AttrSuffix                  // [a$=v]
	AttrSubstring               // [a*=v]
)

func (op AttrOp) String() string {
	switch op {
	case AttrEquals:
		return "="
	case AttrIncludes:
		return "~="
	case AttrDashMatch:
		return "|="
	case AttrPrefix:
		return "^="
	case AttrSuffix:
		return "$="
	case AttrSubstring:
		return "*="
	default:
		return ""
	}
}

// Attribute is an attribute predicate. #id and .class are expressed as
// [id=v] and [class~=v].
type Attribute struct {
	Name       string
	Value      string
	Op         AttrOp
	IgnoreCase bool
}

func (a Attribute) String() string {
	if a.Op == AttrExists {
		return "[" + a.Name + "]"
	}
	s := "[" + a.Name + a.Op.String() + strconv.Quote(a.Value)
	if a.IgnoreCase {
		s += " i"
	}
	return s + "]"
}

// Matches applies the predicate to a present attribute value.
func (a Attribute) Matches(value string) bool {
	want := a.Value
	if a.IgnoreCase {
		value = strings.ToLower(value)
		want = strings.ToLower(want)
	}
	switch a.Op {
	case AttrExists:
		return true
	case AttrEquals:
		return value == want
	case AttrIncludes:
		if want == "" || strings.ContainsAny(want, whitespace) {
			return false
		}
		for field := range strings.FieldsSeq(value) {
			if field == want {
				return true
			}
		}
		return false
	case AttrDashMatch:
		return value == want || strings.HasPrefix(value, want+"-")
	case AttrPrefix:
		return want != "" && strings.HasPrefix(value, want)
	case AttrSuffix:
		return want != "" && strings.HasSuffix(value, want)
	case AttrSubstring:
		return want != "" && strings.Contains(value, want)
	default:
		return false
	}
}

// PseudoKind is a supported structural pseudo-class.
type PseudoKind uint8

const (
	PseudoNthChild PseudoKind = iota
	PseudoNthOfType
)

// Pseudo is a structural pseudo-class with its an+b argument.
// :first-child and :first-of-type are stored as nth with A=0, B=1.
type Pseudo struct {
	Nth  Nth
	Kind PseudoKind
}

func (p Pseudo) String() string {
	name := ":nth-child"
	if p.Kind == PseudoNthOfType {
		name = ":nth-of-type"
	}
	return name + "(" + p.Nth.String() + ")"
}

// Nth is an an+b expression.
type Nth struct {
	A int
	B int
}

// Matches reports whether the 1-based index is a*n+b for some n >= 0.
func (n Nth) Matches(index int) bool {
	if index < 1 {
		return false
	}
	if n.A == 0 {
		return index == n.B
	}
	diff := index - n.B
	return diff%n.A == 0 && diff/n.A >= 0
}

func (n Nth) String() string {
	return strconv.Itoa(n.A) + "n" + signed(n.B)
}

func signed(v int) string {
	if v < 0 {
		return strconv.Itoa(v)
	}
	return "+" + strconv.Itoa(v)
}
