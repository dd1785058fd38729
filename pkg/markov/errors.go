package markov

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrUnknownMode indicates a granularity mode other than "word" or "char".
	ErrUnknownMode = errors.New("markov: unknown tokenizer mode")

	// ErrUnknownFormat indicates a model dump format other than "text" or "json".
	ErrUnknownFormat = errors.New("markov: unknown model format")

	// ErrTableClosed is returned by SQLTable operations after Close.
	ErrTableClosed = errors.New("markov: transition table closed")
)
