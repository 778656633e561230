package tagstream

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jacoelho/tagstream/errors"
	"github.com/jacoelho/tagstream/internal/buffer"
	"github.com/jacoelho/tagstream/internal/dispatch"
	"github.com/jacoelho/tagstream/internal/tokenizer"
	"github.com/jacoelho/tagstream/pkg/selectorvm"
)

const bufferErrorContext = "caused by an extremely long tag or a comment captured by a selector; " +
	"raise the buffer capacity to accept it"

// Stream rewrites one HTML document. Bytes are fed with Write and the
// document is completed with End. A Stream is not safe for concurrent use,
// and must not be called from its own controller or sink.
type Stream[P comparable] struct {
	logger     *slog.Logger
	dispatcher *dispatch.Dispatcher[P]
	tokenizer  *tokenizer.Tokenizer
	buffer     *buffer.Buffer
	err        error
	readSize   int
	id         uuid.UUID
	// hasBufferedData is set while the buffer holds a blocked tail.
	hasBufferedData bool
	finished        bool
	busy            bool
}

// NewStream returns a stream that matches start tags against program and
// writes the output chosen by controller to sink.
func NewStream[P comparable](program *selectorvm.Program[P], controller TransformController[P], sink OutputSink, opts Options) (*Stream[P], error) {
	if program == nil {
		return nil, errors.New(errors.ErrInvalidOptions, "nil selector program")
	}
	if controller == nil {
		return nil, errors.New(errors.ErrInvalidOptions, "nil transform controller")
	}
	if sink == nil {
		return nil, errors.New(errors.ErrInvalidOptions, "nil output sink")
	}
	if err := program.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidOptions, "invalid selector program", err)
	}
	resolved, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	d := dispatch.New(program, controller, sink)
	s := &Stream[P]{
		id:         id,
		logger:     resolved.logger.With(slog.String("stream", id.String())),
		dispatcher: d,
		buffer:     buffer.New(resolved.bufferCapacity),
		readSize:   resolved.readSize,
	}
	s.tokenizer = tokenizer.New(d, d.InitialDirective(),
		tokenizer.WithDecoder(attributeDecoder(resolved.encoding, resolved.encodingName)))
	s.logger.Debug("stream created",
		slog.Int("buffer_capacity", resolved.bufferCapacity),
		slog.String("encoding", resolved.encodingName),
		slog.String("directive", s.tokenizer.Directive().String()))
	return s, nil
}

// ID returns the identifier carried in the stream's trace events.
func (s *Stream[P]) ID() uuid.UUID {
	return s.id
}

// Write feeds the next bytes of the document. Output for every token that
// is complete is emitted before Write returns; an incomplete trailing token
// is held until more input arrives.
// Once Write or End fails, every later call returns the same error.
// Write panics if called after End.
func (s *Stream[P]) Write(data []byte) error {
	s.enter()
	defer s.leave()
	if s.finished {
		panic("tagstream: Write called after End")
	}
	if s.err != nil {
		return s.err
	}
	s.logger.Debug("write", slog.Int("bytes", len(data)), slog.Int("buffered", s.buffer.Len()))

	for len(data) > 0 {
		if !s.hasBufferedData {
			blocked, err := s.process(data)
			if err != nil {
				return s.fail(err)
			}
			if blocked > 0 {
				if err := s.buffer.InitWith(data[len(data)-blocked:]); err != nil {
					return s.fail(capacityError(err))
				}
				s.hasBufferedData = true
				s.logger.Debug("buffered", slog.Int("bytes", blocked))
			}
			return nil
		}

		// Only the room left in the buffer is appended, so the capacity
		// bounds a single token rather than the size of a write.
		n := min(len(data), s.buffer.Available())
		if n == 0 {
			return s.fail(capacityError(s.buffer.Append(data)))
		}
		if err := s.buffer.Append(data[:n]); err != nil {
			return s.fail(capacityError(err))
		}
		data = data[n:]

		blocked, err := s.process(s.buffer.Bytes())
		if err != nil {
			return s.fail(err)
		}
		s.buffer.ShrinkToLast(blocked)
		s.hasBufferedData = blocked > 0
	}
	return nil
}

// End completes the document: any held bytes are resolved as the final
// chunk and the sink receives the end of output.
// End panics if called twice.
func (s *Stream[P]) End() error {
	s.enter()
	defer s.leave()
	if s.finished {
		panic("tagstream: End called twice")
	}
	s.finished = true
	if s.err != nil {
		return s.err
	}

	chunk := tokenizer.LastEmptyChunk()
	if s.hasBufferedData {
		chunk = tokenizer.LastChunk(s.buffer.Bytes())
	}
	s.logger.Debug("end", slog.Int("buffered", chunk.Len()))
	if _, err := s.tokenizer.Parse(chunk); err != nil {
		return s.fail(err)
	}
	if err := s.dispatcher.Finish(chunk.Bytes()); err != nil {
		return s.fail(err)
	}
	s.buffer.Reset()
	s.hasBufferedData = false
	return nil
}

// ReadFrom writes everything read from r to the stream. It does not call End.
func (s *Stream[P]) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, s.readSize)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if werr := s.Write(buf[:n]); werr != nil {
				return total, werr
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

func (s *Stream[P]) process(input []byte) (int, error) {
	blocked, err := s.tokenizer.Parse(tokenizer.NewChunk(input))
	if err != nil {
		return 0, err
	}
	if err := s.dispatcher.FlushRemainingInput(input, blocked); err != nil {
		return 0, err
	}
	s.logger.Debug("chunk",
		slog.Int("bytes", len(input)),
		slog.Int("blocked", blocked),
		slog.Int("depth", s.dispatcher.Depth()),
		slog.String("directive", s.tokenizer.Directive().String()))
	return blocked, nil
}

func (s *Stream[P]) fail(err error) error {
	s.err = err
	s.logger.Debug("stream failed", slog.Any("error", err))
	return err
}

func (s *Stream[P]) enter() {
	if s.busy {
		panic("tagstream: stream called re-entrantly from a controller or sink")
	}
	s.busy = true
}

func (s *Stream[P]) leave() {
	s.busy = false
}

func capacityError(err error) error {
	return errors.Wrap(errors.ErrBufferCapacity, "token does not fit in stream buffer", err).WithContext(bufferErrorContext)
}
