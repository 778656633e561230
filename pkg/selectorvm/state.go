package selectorvm

// SelectorState carries per-element bookkeeping visible to predicates.
type SelectorState struct {
	index       int
	indexOfType int
}

// NewSelectorState returns a state for an element at the given 1-based
// sibling positions.
func NewSelectorState(index, indexOfType int) SelectorState {
	return SelectorState{index: index, indexOfType: indexOfType}
}

// Index returns the 1-based position of the element among its siblings.
func (s *SelectorState) Index() int {
	return s.index
}

// IndexOfType returns the 1-based position of the element among siblings
// with the same local name. It is 0 unless the program sets FlagNthOfType.
func (s *SelectorState) IndexOfType() int {
	return s.indexOfType
}

type siblingCounter struct {
	byType map[LocalName]int
	count  int
}

func (c *siblingCounter) next(name LocalName, trackTypes bool) SelectorState {
	c.count++
	state := SelectorState{index: c.count}
	if trackTypes {
		if c.byType == nil {
			c.byType = make(map[LocalName]int)
		}
		c.byType[name]++
		state.indexOfType = c.byType[name]
	}
	return state
}

func (c *siblingCounter) reset() {
	c.count = 0
	clear(c.byType)
}
