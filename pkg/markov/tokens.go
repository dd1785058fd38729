package markov

import (
	"fmt"
	"io"
	"strings"
)

// Mode selects the granularity of the units a Tokenizer produces.
type Mode string

const (
	// ModeWord splits lines on whitespace and joins output with a space.
	ModeWord Mode = "word"
	// ModeChar treats every character of a line, whitespace included, as a unit.
	ModeChar Mode = "char"
)

// ParseMode converts a user-supplied mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWord:
		return ModeWord, nil
	case ModeChar:
		return ModeChar, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Tokenizer is an interface that defines the contract for splitting input text
// into units. This allows the training and output logic to be independent of
// the granularity in use.
type Tokenizer interface {
	// NewStream returns a stateful StreamTokenizer for processing an io.Reader
	// line by line.
	NewStream(io.Reader) StreamTokenizer
	// Split returns the raw, un-normalized units of a single line.
	Split(line string) []string
	// Separator returns the string used to join units in generated output.
	Separator() string
}

// StreamTokenizer is an interface for a stateful tokenizer that processes a
// stream of data one line at a time.
type StreamTokenizer interface {
	// Next returns the units of the next line. Lines without units are
	// returned as an empty slice. It returns io.EOF as the error when the
	// stream is fully consumed.
	Next() ([]string, error)
}
