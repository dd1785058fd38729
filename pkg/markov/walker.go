package markov

import (
	"io"
	"iter"
	"log/slog"
	"math"
	"math/rand/v2"
)

const (
	// DefaultThreshold is the rejection threshold used when none is given or
	// when the given one lies outside [0, 1].
	DefaultThreshold = 0.75
	// DefaultMaxDraws bounds the threshold rejection loop. Once reached, the
	// most recent draw is accepted whatever its value.
	DefaultMaxDraws = 30
	// DefaultMaxAttempts bounds the candidate attempts spent on one item before
	// the walker falls back to a deterministic pick.
	DefaultMaxAttempts = 30
)

// Source is the randomness a Walker consumes. *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

// globalSource draws from the math/rand/v2 top-level generator.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// walkOptions is used by NewWalker to configure default options.
type walkOptions struct {
	threshold    float64
	maxDraws     int
	maxAttempts  int
	stubbornness int
	source       Source
	logger       *slog.Logger
}

// WalkOption is a function that configures a Walker.
type WalkOption func(*walkOptions)

// WithThreshold sets the rejection threshold. Draws below it are redrawn, which
// pushes accepted values, and therefore chosen indices, toward the frequent end
// of each ranking. Values outside [0, 1] fall back to DefaultThreshold.
func WithThreshold(t float64) WalkOption {
	return func(o *walkOptions) { o.threshold = ClampThreshold(t) }
}

// WithMaxDraws bounds the threshold rejection loop. Non-positive values are
// ignored.
func WithMaxDraws(n int) WalkOption {
	return func(o *walkOptions) {
		if n > 0 {
			o.maxDraws = n
		}
	}
}

// WithMaxAttempts bounds the attempts spent on one item. Non-positive values
// are ignored.
func WithMaxAttempts(n int) WalkOption {
	return func(o *walkOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithStubbornness rejects the first n candidates of every item regardless of
// their value, forcing extra resampling. It is clamped so that at least one
// attempt per item can succeed. The default is 0.
func WithStubbornness(n int) WalkOption {
	return func(o *walkOptions) {
		if n >= 0 {
			o.stubbornness = n
		}
	}
}

// WithSource sets the random source. By default the math/rand/v2 global
// generator is used.
func WithSource(src Source) WalkOption {
	return func(o *walkOptions) {
		if src != nil {
			o.source = src
		}
	}
}

// WithLogger sets the logger for the Walker. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) WalkOption {
	return func(o *walkOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// ClampThreshold returns t if it lies in [0, 1] and DefaultThreshold otherwise.
func ClampThreshold(t float64) float64 {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return DefaultThreshold
	}
	return t
}

// Walker is a lazy, unbounded generator over a RankedNeighbors. Each call to
// Next moves from the current token to one of its ranked neighbors, never to
// the current token itself. Once the current token has no entry the walker is
// exhausted for good.
//
// A Walker is not safe for concurrent use, but any number of walkers may share
// one RankedNeighbors, which must outlive them.
type Walker struct {
	ranked    *RankedNeighbors
	current   string
	exhausted bool
	emitted   int
	opts      walkOptions
}

// NewWalker returns a walker positioned at the normalized seed. The seed itself
// is never emitted.
func NewWalker(ranked *RankedNeighbors, seed string, opts ...WalkOption) *Walker {
	options := walkOptions{
		threshold:   DefaultThreshold,
		maxDraws:    DefaultMaxDraws,
		maxAttempts: DefaultMaxAttempts,
		source:      globalSource{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.stubbornness >= options.maxAttempts {
		options.stubbornness = options.maxAttempts - 1
	}

	return &Walker{
		ranked:  ranked,
		current: Normalize(seed),
		opts:    options,
	}
}

// Current returns the token the walker is positioned at.
func (w *Walker) Current() string {
	return w.current
}

// Exhausted reports whether the walker has stopped for good.
func (w *Walker) Exhausted() bool {
	return w.exhausted
}

// Next produces the next token. It returns false once the walker is exhausted.
func (w *Walker) Next() (string, bool) {
	if w.exhausted {
		return "", false
	}

	candidates, ok := w.ranked.next[w.current]
	if !ok {
		w.exhaust("dead end")
		return "", false
	}

	for attempt := 0; attempt < w.opts.maxAttempts; attempt++ {
		next := candidates[pickIndex(w.draw(), len(candidates))]
		if attempt < w.opts.stubbornness || next == w.current {
			continue
		}
		return w.advance(next), true
	}

	// Out of attempts: take the most frequent neighbor that is not a self-loop.
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i] != w.current {
			w.opts.logger.Debug("Walker fell back after attempt ceiling",
				slog.String("current", w.current),
				slog.String("next", candidates[i]),
				slog.Int("max_attempts", w.opts.maxAttempts),
			)
			return w.advance(candidates[i]), true
		}
	}

	w.exhaust("self-loop only")
	return "", false
}

// All returns an iterator over the remaining tokens. Breaking out of the range
// loop leaves the walker where it stopped.
func (w *Walker) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			token, ok := w.Next()
			if !ok || !yield(token) {
				return
			}
		}
	}
}

// Take pulls at most n tokens. Fewer are returned if the walker exhausts.
func (w *Walker) Take(n int) []string {
	if n <= 0 {
		return []string{}
	}
	tokens := make([]string, 0, n)
	for len(tokens) < n {
		token, ok := w.Next()
		if !ok {
			break
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// draw returns a uniform value, redrawing while it falls below the threshold
// for at most maxDraws draws.
func (w *Walker) draw() float64 {
	var x float64
	for i := 0; i < w.opts.maxDraws; i++ {
		x = w.opts.source.Float64()
		if x >= w.opts.threshold {
			break
		}
	}
	return x
}

// pickIndex maps x in [0, 1) onto an index of a list of length n.
func pickIndex(x float64, n int) int {
	i := int(x * float64(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (w *Walker) advance(next string) string {
	w.current = next
	w.emitted++
	return next
}

func (w *Walker) exhaust(reason string) {
	w.exhausted = true
	w.opts.logger.Debug("Walker exhausted",
		slog.String("reason", reason),
		slog.String("current", w.current),
		slog.Int("emitted", w.emitted),
	)
}
