// Package stack provides the open-element stack used by the selector matcher.
package stack

// Stack is a reusable LIFO stack whose entries can be updated in place.
type Stack[T any] struct {
	items []T
}

// New creates a stack with an optional capacity hint.
func New[T any](capacity int) Stack[T] {
	if capacity <= 0 {
		return Stack[T]{}
	}
	return Stack[T]{items: make([]T, 0, capacity)}
}

// Push adds one value to the stack top.
func (s *Stack[T]) Push(value T) {
	s.items = append(s.items, value)
}

// Top returns a pointer to the top value, or nil when empty.
// The pointer is invalidated by the next Push.
func (s *Stack[T]) Top() *T {
	if len(s.items) == 0 {
		return nil
	}
	return &s.items[len(s.items)-1]
}

// At returns a pointer to the value at depth i, counted from the bottom.
func (s *Stack[T]) At(i int) *T {
	return &s.items[i]
}

// Len reports the current stack depth.
func (s *Stack[T]) Len() int {
	return len(s.items)
}

// LastIndex returns the index of the topmost value satisfying match, or -1.
func (s *Stack[T]) LastIndex(match func(*T) bool) int {
	for i := len(s.items) - 1; i >= 0; i-- {
		if match(&s.items[i]) {
			return i
		}
	}
	return -1
}

// Truncate pops every value at index n and above.
// Popped slots are zeroed so they do not retain memory.
func (s *Stack[T]) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(s.items) {
		return
	}
	clear(s.items[n:])
	s.items = s.items[:n]
}

// Reset clears the stack while retaining capacity.
func (s *Stack[T]) Reset() {
	s.Truncate(0)
}
