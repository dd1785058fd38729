package markov

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxLineSize is the longest input line, in bytes, a stream accepts
// before failing with bufio.ErrTooLong.
const DefaultMaxLineSize = 1 << 20

// DefaultTokenizer is the default implementation of the Tokenizer interface.
// Word mode splits on Unicode whitespace; char mode yields every rune.
// Its behavior can be customized with functional options.
type DefaultTokenizer struct {
	mode        Mode
	separator   string
	maxLineSize int
}

// Option is a function that configures a DefaultTokenizer.
type Option func(*DefaultTokenizer)

// WithSeparator overrides the string used for joining units during output.
// Default: " " in word mode, "" in char mode.
func WithSeparator(sep string) Option {
	return func(t *DefaultTokenizer) {
		t.separator = sep
	}
}

// WithMaxLineSize sets the longest accepted input line in bytes.
// Default: DefaultMaxLineSize
func WithMaxLineSize(n int) Option {
	return func(t *DefaultTokenizer) {
		if n > 0 {
			t.maxLineSize = n
		}
	}
}

// NewDefaultTokenizer creates a tokenizer for the given mode. An unknown mode
// yields an error wrapping ErrUnknownMode.
func NewDefaultTokenizer(mode Mode, opts ...Option) (*DefaultTokenizer, error) {
	t := &DefaultTokenizer{
		mode:        mode,
		maxLineSize: DefaultMaxLineSize,
	}
	switch mode {
	case ModeWord:
		t.separator = " "
	case ModeChar:
		t.separator = ""
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Mode reports the granularity this tokenizer was built for.
func (t *DefaultTokenizer) Mode() Mode {
	return t.mode
}

// Separator Returns the configured separator string.
func (t *DefaultTokenizer) Separator() string {
	return t.separator
}

// Split returns the units of one line.
func (t *DefaultTokenizer) Split(line string) []string {
	if t.mode == ModeChar {
		units := make([]string, 0, len(line))
		for _, r := range line {
			units = append(units, string(r))
		}
		return units
	}
	return strings.Fields(line)
}

// NewStream Returns the stream processor.
func (t *DefaultTokenizer) NewStream(r io.Reader) StreamTokenizer {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), t.maxLineSize)
	return &DefaultStreamTokenizer{
		scanner:   scanner,
		tokenizer: t,
	}
}

// DefaultStreamTokenizer is the default implementation of the StreamTokenizer
// interface. It uses a bufio.Scanner to read one line per call.
type DefaultStreamTokenizer struct {
	scanner   *bufio.Scanner
	tokenizer *DefaultTokenizer
}

// Next returns the units of the next line and a nil error on success. When the
// stream is exhausted, it returns nil and io.EOF. Any other error indicates a
// problem reading from the underlying stream.
func (s *DefaultStreamTokenizer) Next() ([]string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return s.tokenizer.Split(s.scanner.Text()), nil
}
