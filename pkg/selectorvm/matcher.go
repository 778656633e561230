package selectorvm

import (
	"fmt"
	"slices"

	"github.com/jacoelho/tagstream/internal/stack"
)

// Element is the start tag being matched.
type Element interface {
	LocalName() LocalName
	// Attributes materialises the attribute list. Matcher calls it at most
	// once per Enter, and only when a predicate needs it.
	Attributes() AttributeMatcher
	// AttributesReady reports whether the attributes are already parsed.
	AttributesReady() bool
}

type frame[P comparable] struct {
	name       LocalName
	payload    []P
	jumps      []AddressRange
	hereditary []AddressRange
	children   siblingCounter
}

// Matcher tracks the open-element stack and the address ranges active for
// each level. It is not safe for concurrent use.
type Matcher[P comparable] struct {
	program    *Program[P]
	stack      stack.Stack[frame[P]]
	root       siblingCounter
	ranges     []AddressRange
	pending    []int
	matched    []P
	jumps      []AddressRange
	hereditary []AddressRange
	trackTypes bool
}

// NewMatcher returns a matcher for program.
// It panics if the program references an address range outside its
// instruction table.
func NewMatcher[P comparable](program *Program[P]) *Matcher[P] {
	if err := program.Validate(); err != nil {
		panic(fmt.Sprintf("selectorvm: %v", err))
	}
	return &Matcher[P]{
		program:    program,
		trackTypes: program.Flags.Has(FlagNthOfType),
	}
}

// Program returns the program being executed.
func (m *Matcher[P]) Program() *Program[P] {
	return m.program
}

// Depth returns the number of open elements.
func (m *Matcher[P]) Depth() int {
	return m.stack.Len()
}

// Reset clears the open-element stack and sibling counters.
func (m *Matcher[P]) Reset() {
	m.stack.Reset()
	m.root.reset()
}

// Enter matches a start tag against every active range and returns the
// payloads it satisfies. When opens is true the element is pushed so that
// its jumps apply to the content that follows; void and self-closing
// elements pass false.
func (m *Matcher[P]) Enter(el Element, opens bool) []P {
	name := el.LocalName()

	parent := m.stack.Top()
	counter := &m.root
	if parent != nil {
		counter = &parent.children
	}
	state := counter.next(name, m.trackTypes)

	m.ranges = append(m.ranges[:0], m.program.EntryPoints)
	var inherited []AddressRange
	if parent != nil {
		inherited = parent.hereditary
		m.ranges = appendUniqueRanges(m.ranges, parent.jumps...)
		m.ranges = appendUniqueRanges(m.ranges, inherited...)
	}

	m.matched = m.matched[:0]
	m.jumps = m.jumps[:0]
	m.hereditary = m.hereditary[:0]
	m.pending = m.pending[:0]

	if el.AttributesReady() {
		attrs := el.Attributes()
		m.each(func(instr *Instruction[P], _ int) {
			if branch := instr.Exec(&state, name, attrs); branch != nil {
				m.apply(branch, inherited)
			}
		})
	} else {
		m.each(func(instr *Instruction[P], addr int) {
			res := instr.TryExecWithoutAttrs(&state, name)
			switch res.Kind {
			case ResultBranch:
				m.apply(res.Branch, inherited)
			case ResultAttributesRequired:
				m.pending = append(m.pending, addr)
			}
		})
		if len(m.pending) > 0 {
			attrs := el.Attributes()
			for _, addr := range m.pending {
				if branch := m.program.Instructions[addr].CompleteExecWithAttrs(&state, attrs); branch != nil {
					m.apply(branch, inherited)
				}
			}
		}
	}

	payload := slices.Clone(m.matched)
	if !opens {
		return payload
	}

	next := frame[P]{
		name:       name,
		payload:    payload,
		jumps:      slices.Clone(m.jumps),
		hereditary: inherited,
	}
	if len(m.hereditary) > 0 {
		merged := make([]AddressRange, 0, len(inherited)+len(m.hereditary))
		merged = append(merged, inherited...)
		next.hereditary = append(merged, m.hereditary...)
	}
	m.stack.Push(next)
	return payload
}

// Leave closes the nearest open element named name, together with any
// element opened after it. It returns the payloads the closed element
// matched and its 1-based depth. An end tag with no open counterpart is
// ignored and reports depth 0.
func (m *Matcher[P]) Leave(name LocalName) ([]P, int) {
	i := m.stack.LastIndex(func(f *frame[P]) bool { return f.name == name })
	if i < 0 {
		return nil, 0
	}
	payload := m.stack.At(i).payload
	m.stack.Truncate(i)
	return payload, i + 1
}

func (m *Matcher[P]) each(fn func(instr *Instruction[P], addr int)) {
	for _, r := range m.ranges {
		for addr := r.Start; addr < r.End; addr++ {
			fn(&m.program.Instructions[addr], addr)
		}
	}
}

func (m *Matcher[P]) apply(branch *ExecutionBranch[P], inherited []AddressRange) {
	for _, p := range branch.MatchedPayload {
		if !slices.Contains(m.matched, p) {
			m.matched = append(m.matched, p)
		}
	}
	if branch.Jumps != nil && !branch.Jumps.Empty() {
		m.jumps = appendUniqueRanges(m.jumps, *branch.Jumps)
	}
	if r := branch.HereditaryJumps; r != nil && !r.Empty() && !slices.Contains(inherited, *r) {
		m.hereditary = appendUniqueRanges(m.hereditary, *r)
	}
}

func appendUniqueRanges(dst []AddressRange, ranges ...AddressRange) []AddressRange {
	for _, r := range ranges {
		if !slices.Contains(dst, r) {
			dst = append(dst, r)
		}
	}
	return dst
}
