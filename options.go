package tagstream

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/jacoelho/tagstream/errors"
)

const (
	defaultBufferCapacity = 64 << 10
	defaultReadSize       = 32 << 10
	defaultEncoding       = "utf-8"
)

type intOption struct {
	value int
	set   bool
}

func (o intOption) resolved(fallback int) int {
	if !o.set || o.value == 0 {
		return fallback
	}
	return o.value
}

// Options configures a stream. The zero value is valid and uses defaults.
type Options struct {
	logger         *slog.Logger
	encoding       string
	bufferCapacity intOption
	readSize       intOption
}

type resolvedOptions struct {
	logger         *slog.Logger
	encoding       encoding.Encoding
	encodingName   string
	bufferCapacity int
	readSize       int
}

// NewOptions returns a default, valid options value.
func NewOptions() Options {
	return Options{}
}

// WithBufferCapacity sets the largest token, in bytes, that may span two
// writes (0 uses default).
func (o Options) WithBufferCapacity(value int) Options {
	o.bufferCapacity = intOption{value: value, set: true}
	return o
}

// WithReadSize sets the chunk size used by ReadFrom (0 uses default).
func (o Options) WithReadSize(value int) Options {
	o.readSize = intOption{value: value, set: true}
	return o
}

// WithEncoding sets the WHATWG encoding label of the input (empty uses UTF-8).
// Attribute values are decoded to UTF-8 before selectors compare them.
func (o Options) WithEncoding(label string) Options {
	o.encoding = label
	return o
}

// WithLogger sets the logger receiving debug trace events.
func (o Options) WithLogger(logger *slog.Logger) Options {
	o.logger = logger
	return o
}

// Validate validates option values.
func (o Options) Validate() error {
	_, err := o.withDefaults()
	return err
}

func (o Options) withDefaults() (resolvedOptions, error) {
	if o.bufferCapacity.value < 0 {
		return resolvedOptions{}, errors.New(errors.ErrInvalidOptions, "buffer capacity must be >= 0")
	}
	if o.readSize.value < 0 {
		return resolvedOptions{}, errors.New(errors.ErrInvalidOptions, "read size must be >= 0")
	}
	enc, name, err := lookupEncoding(o.encoding)
	if err != nil {
		return resolvedOptions{}, err
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return resolvedOptions{
		logger:         logger,
		encoding:       enc,
		encodingName:   name,
		bufferCapacity: o.bufferCapacity.resolved(defaultBufferCapacity),
		readSize:       o.readSize.resolved(defaultReadSize),
	}, nil
}

// lookupEncoding resolves a WHATWG label. Encodings that cannot represent
// markup bytes as ASCII are rejected, since the tokenizer scans raw bytes.
func lookupEncoding(label string) (encoding.Encoding, string, error) {
	if label == "" {
		label = defaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrUnsupportedEncoding, fmt.Sprintf("encoding %q", label), err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrUnsupportedEncoding, fmt.Sprintf("encoding %q", label), err)
	}
	switch name {
	case "utf-16be", "utf-16le", "iso-2022-jp", "replacement":
		return nil, "", errors.New(errors.ErrUnsupportedEncoding, fmt.Sprintf("encoding %q is not ASCII-compatible", label))
	}
	return enc, name, nil
}

// attributeDecoder returns the attribute value decoder for enc, or nil when
// values are already UTF-8.
func attributeDecoder(enc encoding.Encoding, name string) func([]byte) string {
	if name == defaultEncoding {
		return nil
	}
	dec := enc.NewDecoder()
	return func(raw []byte) string {
		out, err := dec.Bytes(raw)
		if err != nil {
			return string(raw)
		}
		return string(out)
	}
}
