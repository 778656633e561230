package tokenizer

// Options holds tokenizer configuration values.
// The zero value means no overrides.
type Options struct {
	decode func([]byte) string

	decodeSet bool
}

// JoinOptions combines multiple option sets into one in declaration order.
// Later options override earlier ones when set.
func JoinOptions(srcs ...Options) Options {
	var merged Options
	for _, src := range srcs {
		merged.merge(src)
	}
	return merged
}

func (opts *Options) merge(src Options) {
	if src.decodeSet {
		opts.decode = src.decode
		opts.decodeSet = true
	}
}

// WithDecoder converts raw attribute values to UTF-8 strings.
// A nil decoder copies the bytes unchanged.
func WithDecoder(fn func([]byte) string) Options {
	return Options{decode: fn, decodeSet: true}
}
