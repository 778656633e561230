package tokenizer

// Chunk is a contiguous slice of input handed to Parse.
// The last chunk of a stream lets the tokenizer resolve markup it would
// otherwise block on.
type Chunk struct {
	data []byte
	last bool
}

// NewChunk wraps data that may be followed by more input.
func NewChunk(data []byte) Chunk {
	return Chunk{data: data}
}

// LastChunk wraps the final bytes of the input.
func LastChunk(data []byte) Chunk {
	return Chunk{data: data, last: true}
}

// LastEmptyChunk marks the end of input when nothing is left to parse.
func LastEmptyChunk() Chunk {
	return Chunk{last: true}
}

// Bytes returns the chunk contents.
func (c Chunk) Bytes() []byte {
	return c.data
}

// Len returns the number of bytes in the chunk.
func (c Chunk) Len() int {
	return len(c.data)
}

// IsLast reports whether no input follows this chunk.
func (c Chunk) IsLast() bool {
	return c.last
}
