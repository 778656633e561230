// Package buffer holds carry-over bytes between stream writes in a
// fixed-capacity region.
package buffer

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded reports that bytes did not fit in the buffer.
var ErrCapacityExceeded = errors.New("buffer capacity exceeded")

// CapacityError describes a rejected InitWith or Append.
type CapacityError struct {
	Requested int
	Capacity  int
}

// Error formats the requested size against the capacity.
func (e *CapacityError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("buffer capacity exceeded: need %d bytes, capacity %d", e.Requested, e.Capacity)
}

// Is matches ErrCapacityExceeded.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// Buffer is a byte region that never grows past its capacity.
// The zero value has capacity 0.
type Buffer struct {
	data     []byte
	capacity int
}

// New returns a buffer limited to capacity bytes.
// Memory is reserved on first use.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{capacity: capacity}
}

// Bytes returns the buffered bytes. The slice is only valid until the next mutation.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return b.capacity
}

// Available returns how many more bytes Append accepts.
func (b *Buffer) Available() int {
	return b.capacity - len(b.data)
}

// InitWith replaces the contents with data.
// The buffer is left unchanged when data does not fit.
func (b *Buffer) InitWith(data []byte) error {
	if len(data) > b.capacity {
		return &CapacityError{Requested: len(data), Capacity: b.capacity}
	}
	b.reserve()
	b.data = append(b.data[:0], data...)
	return nil
}

// Append adds data after the current contents.
// The buffer is left unchanged when the result would not fit.
func (b *Buffer) Append(data []byte) error {
	if need := len(b.data) + len(data); need > b.capacity {
		return &CapacityError{Requested: need, Capacity: b.capacity}
	}
	b.reserve()
	b.data = append(b.data, data...)
	return nil
}

// ShrinkToLast keeps only the trailing n bytes, moved to the front.
func (b *Buffer) ShrinkToLast(n int) {
	if n >= len(b.data) {
		return
	}
	if n <= 0 {
		b.data = b.data[:0]
		return
	}
	copy(b.data, b.data[len(b.data)-n:])
	b.data = b.data[:n]
}

// Reset drops all buffered bytes and keeps the reserved memory.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

func (b *Buffer) reserve() {
	if b.data == nil {
		b.data = make([]byte, 0, b.capacity)
	}
}
