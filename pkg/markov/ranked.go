package markov

import (
	"cmp"
	"slices"
)

// RankedNeighbors is the read-only view walkers sample from: for every token,
// its distinct neighbors ordered by ascending observed count. The most frequent
// neighbor is therefore last, which is the end a Walker's sampling favors.
//
// A RankedNeighbors is never mutated after construction and may be shared by
// any number of goroutines.
type RankedNeighbors struct {
	next map[string][]string
}

// rankOptions is used by BuildRanked and SQLTable.Rank.
type rankOptions struct {
	minFrequency uint32
}

// RankOption is a function that configures ranking.
type RankOption func(*rankOptions)

// WithMinFrequency drops links observed fewer than n times before ranking.
// Tokens left without any link are omitted entirely. The default of 0 keeps
// every link.
func WithMinFrequency(n uint32) RankOption {
	return func(o *rankOptions) { o.minFrequency = n }
}

func newRankOptions(opts []RankOption) *rankOptions {
	options := &rankOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// rankedLink pairs a neighbor with its count while sorting.
type rankedLink struct {
	token string
	count uint32
}

// compareLinks orders by count, then by token text so that ties resolve the
// same way in every construction and in every backend.
func compareLinks(a, b rankedLink) int {
	if c := cmp.Compare(a.count, b.count); c != 0 {
		return c
	}
	return cmp.Compare(a.token, b.token)
}

// BuildRanked freezes a TransitionTable into a RankedNeighbors. Counts are
// discarded; only the relative order survives.
func BuildRanked(t *TransitionTable, opts ...RankOption) *RankedNeighbors {
	options := newRankOptions(opts)

	ranked := &RankedNeighbors{next: make(map[string][]string, len(t.next))}
	links := make([]rankedLink, 0)
	for token, neighbors := range t.next {
		links = links[:0]
		for neighbor, count := range neighbors {
			if count < options.minFrequency {
				continue
			}
			links = append(links, rankedLink{token: neighbor, count: count})
		}
		if len(links) == 0 {
			continue
		}
		slices.SortStableFunc(links, compareLinks)

		ordered := make([]string, len(links))
		for i, link := range links {
			ordered[i] = link.token
		}
		ranked.next[token] = ordered
	}
	return ranked
}

// NewRankedNeighbors builds a view from explicit, already ordered neighbor
// lists. The input is copied; empty lists are skipped and repeated neighbors
// keep only their first position.
func NewRankedNeighbors(lists map[string][]string) *RankedNeighbors {
	ranked := &RankedNeighbors{next: make(map[string][]string, len(lists))}
	for token, list := range lists {
		seen := make(map[string]struct{}, len(list))
		ordered := make([]string, 0, len(list))
		for _, neighbor := range list {
			if _, dup := seen[neighbor]; dup {
				continue
			}
			seen[neighbor] = struct{}{}
			ordered = append(ordered, neighbor)
		}
		if len(ordered) > 0 {
			ranked.next[token] = ordered
		}
	}
	return ranked
}

// Candidates returns a copy of the ranked neighbors of token, least frequent
// first. The boolean is false when token has no entry.
func (r *RankedNeighbors) Candidates(token string) ([]string, bool) {
	list, ok := r.next[token]
	if !ok {
		return nil, false
	}
	return slices.Clone(list), true
}

// Tokens returns every token with an entry, sorted.
func (r *RankedNeighbors) Tokens() []string {
	tokens := make([]string, 0, len(r.next))
	for token := range r.next {
		tokens = append(tokens, token)
	}
	slices.Sort(tokens)
	return tokens
}

// Len returns the number of tokens with an entry.
func (r *RankedNeighbors) Len() int {
	return len(r.next)
}
