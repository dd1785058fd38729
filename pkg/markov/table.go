package markov

import (
	"context"
	"math"
	"slices"
)

// Counter accumulates transitions during ingestion and freezes them into a
// RankedNeighbors view afterwards. TransitionTable and SQLTable implement it.
type Counter interface {
	// Observe records that neighbor immediately followed token.
	Observe(ctx context.Context, token, neighbor string) error
	// Rank builds the read-only neighbor ranking from the counts seen so far.
	Rank(ctx context.Context, opts ...RankOption) (*RankedNeighbors, error)
	// Stats summarizes the counts seen so far.
	Stats(ctx context.Context) (Stats, error)
	// Close releases any resources held by the counter.
	Close() error
}

// TransitionTable counts, for every observed token, how many times each other
// token immediately followed it. Counts only ever grow. It is not safe for
// concurrent writers.
type TransitionTable struct {
	next map[string]map[string]uint32
}

// NewTransitionTable returns an empty table.
func NewTransitionTable() *TransitionTable {
	return &TransitionTable{next: make(map[string]map[string]uint32)}
}

// Update increments the count of neighbor under token, creating either entry
// as needed. Counts saturate at math.MaxUint32.
func (t *TransitionTable) Update(token, neighbor string) {
	links, ok := t.next[token]
	if !ok {
		links = make(map[string]uint32)
		t.next[token] = links
	}
	if links[neighbor] < math.MaxUint32 {
		links[neighbor]++
	}
}

// Count returns how many times neighbor followed token.
func (t *TransitionTable) Count(token, neighbor string) uint32 {
	return t.next[token][neighbor]
}

// Neighbors returns a copy of the counts recorded under token, or nil if token
// was never seen with a successor.
func (t *TransitionTable) Neighbors(token string) map[string]uint32 {
	links, ok := t.next[token]
	if !ok {
		return nil
	}
	out := make(map[string]uint32, len(links))
	for k, v := range links {
		out[k] = v
	}
	return out
}

// Tokens returns every token that has at least one successor, sorted.
func (t *TransitionTable) Tokens() []string {
	tokens := make([]string, 0, len(t.next))
	for token := range t.next {
		tokens = append(tokens, token)
	}
	slices.Sort(tokens)
	return tokens
}

// Len returns the number of tokens with at least one successor.
func (t *TransitionTable) Len() int {
	return len(t.next)
}

// Observe implements Counter. It never fails.
func (t *TransitionTable) Observe(_ context.Context, token, neighbor string) error {
	t.Update(token, neighbor)
	return nil
}

// Rank implements Counter by calling BuildRanked.
func (t *TransitionTable) Rank(_ context.Context, opts ...RankOption) (*RankedNeighbors, error) {
	return BuildRanked(t, opts...), nil
}

// Stats implements Counter.
func (t *TransitionTable) Stats(_ context.Context) (Stats, error) {
	var s Stats
	vocab := make(map[string]struct{}, len(t.next))
	for token, links := range t.next {
		vocab[token] = struct{}{}
		for neighbor, count := range links {
			vocab[neighbor] = struct{}{}
			s.Links++
			s.TotalFrequency += uint64(count)
			if neighbor == token {
				s.SelfLoops++
			}
		}
	}
	s.Tokens = len(t.next)
	s.Vocabulary = len(vocab)
	return s, nil
}

// Close implements Counter. An in-memory table holds nothing to release.
func (t *TransitionTable) Close() error {
	return nil
}
