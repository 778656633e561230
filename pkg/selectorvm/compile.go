package selectorvm

import (
	"fmt"
	"slices"

	"github.com/jacoelho/tagstream/internal/selector"
)

// Rule binds a selector list to the payload reported when it matches.
type Rule[P comparable] struct {
	Payload  P
	Selector string
}

// Compile builds a program from rules. Compounds that are structurally
// identical under the same parent and combinator share one instruction, so a
// branch may carry several payloads.
func Compile[P comparable](rules []Rule[P]) (*Program[P], error) {
	var c compiler[P]
	for _, rule := range rules {
		selectors, err := selector.Parse(rule.Selector)
		if err != nil {
			return nil, fmt.Errorf("compile selector %q: %w", rule.Selector, err)
		}
		for _, sel := range selectors {
			c.add(sel, rule.Payload)
		}
	}
	return c.program(), nil
}

type node[P comparable] struct {
	key         string
	compound    selector.Compound
	payload     []P
	children    []*node[P]
	descendants []*node[P]
}

type compiler[P comparable] struct {
	roots []*node[P]
	flags ProgramFlags
}

func (c *compiler[P]) add(sel selector.Selector, payload P) {
	level := &c.roots
	for i, part := range sel.Parts {
		n := findOrAddNode(level, part.Compound)
		for _, pseudo := range part.Compound.Pseudos {
			if pseudo.Kind == selector.PseudoNthOfType {
				c.flags |= FlagNthOfType
			}
		}
		if i == len(sel.Parts)-1 {
			if !slices.Contains(n.payload, payload) {
				n.payload = append(n.payload, payload)
			}
			return
		}
		if sel.Parts[i+1].Combinator == selector.CombinatorChild {
			level = &n.children
		} else {
			level = &n.descendants
		}
	}
}

func findOrAddNode[P comparable](level *[]*node[P], compound selector.Compound) *node[P] {
	key := compound.String()
	for _, n := range *level {
		if n.key == key {
			return n
		}
	}
	n := &node[P]{key: key, compound: compound}
	*level = append(*level, n)
	return n
}

type slot[P comparable] struct {
	node *node[P]
	addr int
}

// program lays nodes out breadth first so each node's children and
// descendants occupy contiguous address ranges.
func (c *compiler[P]) program() *Program[P] {
	var (
		instructions []Instruction[P]
		queue        []slot[P]
	)
	place := func(nodes []*node[P]) AddressRange {
		start := len(instructions)
		for _, n := range nodes {
			queue = append(queue, slot[P]{node: n, addr: len(instructions)})
			instructions = append(instructions, Instruction[P]{})
		}
		return AddressRange{Start: start, End: len(instructions)}
	}

	entry := place(c.roots)
	for i := 0; i < len(queue); i++ {
		s := queue[i]
		instr := compileInstruction(s.node)
		if len(s.node.children) > 0 {
			r := place(s.node.children)
			instr.AssociatedBranch.Jumps = &r
		}
		if len(s.node.descendants) > 0 {
			r := place(s.node.descendants)
			instr.AssociatedBranch.HereditaryJumps = &r
		}
		instructions[s.addr] = instr
	}

	return &Program[P]{
		Instructions: instructions,
		EntryPoints:  entry,
		Flags:        c.flags,
	}
}

func compileInstruction[P comparable](n *node[P]) Instruction[P] {
	instr := Instruction[P]{
		AssociatedBranch: ExecutionBranch[P]{MatchedPayload: slices.Clone(n.payload)},
	}
	if tag := n.compound.Tag; tag != "" {
		instr.LocalNameExprs = append(instr.LocalNameExprs, localNameEquals(LocalNameFromString(tag)))
	}
	for _, pseudo := range n.compound.Pseudos {
		instr.LocalNameExprs = append(instr.LocalNameExprs, pseudoExpr(pseudo))
	}
	for _, attr := range n.compound.Attributes {
		instr.AttributeExprs = append(instr.AttributeExprs, attributeExpr(attr))
	}
	return instr
}

func localNameEquals(want LocalName) LocalNameExpr {
	return func(_ *SelectorState, name LocalName) bool {
		return name == want
	}
}

func pseudoExpr(pseudo selector.Pseudo) LocalNameExpr {
	nth := pseudo.Nth
	if pseudo.Kind == selector.PseudoNthOfType {
		return func(state *SelectorState, _ LocalName) bool {
			return nth.Matches(state.IndexOfType())
		}
	}
	return func(state *SelectorState, _ LocalName) bool {
		return nth.Matches(state.Index())
	}
}

func attributeExpr(attr selector.Attribute) AttributeExpr {
	switch {
	case attr.Name == "id" && attr.Op == selector.AttrEquals && !attr.IgnoreCase:
		id := attr.Value
		return func(_ *SelectorState, attrs AttributeMatcher) bool {
			return HasID(attrs, id)
		}
	case attr.Name == "class" && attr.Op == selector.AttrIncludes:
		class, fold := attr.Value, attr.IgnoreCase
		return func(_ *SelectorState, attrs AttributeMatcher) bool {
			v, ok := attrs.Value("class")
			return ok && includesWord(v, class, fold)
		}
	default:
		return func(_ *SelectorState, attrs AttributeMatcher) bool {
			v, ok := attrs.Value(attr.Name)
			return ok && attr.Matches(v)
		}
	}
}
