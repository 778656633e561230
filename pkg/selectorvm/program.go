package selectorvm

import (
	"errors"
	"fmt"
)

// ErrInvalidRange reports an address range outside the instruction table.
var ErrInvalidRange = errors.New("invalid address range")

// AddressRange is a half-open range [Start, End) of instruction addresses.
type AddressRange struct {
	Start int
	End   int
}

// Len returns the number of addresses in the range.
func (r AddressRange) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range holds no address.
func (r AddressRange) Empty() bool {
	return r.End <= r.Start
}

func (r AddressRange) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

func (r AddressRange) valid(n int) bool {
	return 0 <= r.Start && r.Start <= r.End && r.End <= n
}

// ProgramFlags are runtime capabilities a compiled program requires.
type ProgramFlags uint16

const (
	// FlagNthOfType enables per-name sibling counting.
	FlagNthOfType ProgramFlags = 1 << iota
)

// Has reports whether all bits of flag are set.
func (f ProgramFlags) Has(flag ProgramFlags) bool {
	return f&flag == flag
}

// LocalNameExpr is a predicate evaluable from the tag name alone.
type LocalNameExpr func(state *SelectorState, name LocalName) bool

// AttributeExpr is a predicate evaluable once all attributes are parsed.
type AttributeExpr func(state *SelectorState, attrs AttributeMatcher) bool

// ExecutionBranch is the outcome of a matched instruction.
type ExecutionBranch[P comparable] struct {
	// Jumps are tried against direct children of the matched element.
	Jumps *AddressRange
	// HereditaryJumps are tried against every descendant of the matched element.
	HereditaryJumps *AddressRange
	// MatchedPayload holds the payloads fully satisfied by the element, without repeats.
	MatchedPayload []P
}

// Program is an immutable compiled selector automaton.
type Program[P comparable] struct {
	Instructions []Instruction[P]
	EntryPoints  AddressRange
	Flags        ProgramFlags
}

// Validate checks that every referenced address range lies within the
// instruction table.
func (p *Program[P]) Validate() error {
	if p == nil {
		return fmt.Errorf("nil program: %w", ErrInvalidRange)
	}
	n := len(p.Instructions)
	if !p.EntryPoints.valid(n) {
		return fmt.Errorf("entry points %s with %d instructions: %w", p.EntryPoints, n, ErrInvalidRange)
	}
	for addr := range p.Instructions {
		branch := &p.Instructions[addr].AssociatedBranch
		if branch.Jumps != nil && !branch.Jumps.valid(n) {
			return fmt.Errorf("instruction %d jumps %s with %d instructions: %w", addr, branch.Jumps, n, ErrInvalidRange)
		}
		if branch.HereditaryJumps != nil && !branch.HereditaryJumps.valid(n) {
			return fmt.Errorf("instruction %d hereditary jumps %s with %d instructions: %w", addr, branch.HereditaryJumps, n, ErrInvalidRange)
		}
	}
	return nil
}
