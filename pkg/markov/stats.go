package markov

// Stats holds aggregated statistics for a transition table.
type Stats struct {
	Tokens         int    // The number of tokens with at least one successor.
	Vocabulary     int    // The number of distinct tokens seen in either position.
	Links          int    // The number of unique token->neighbor links.
	TotalFrequency uint64 // The sum of all link counts; the total number of observed transitions.
	SelfLoops      int    // The number of tokens observed following themselves.
}
