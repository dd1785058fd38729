/*
Package markov provides a small, in-process toolkit for learning first-order
token transitions from text and walking them to produce gibberish that mimics
the local statistics of the input.

Text is split into units (words or characters), folded to a canonical form
with Normalize, and counted pairwise into a TransitionTable (or an SQLTable
when the counts should live in a scratch SQLite database). The counts are then
frozen into a RankedNeighbors view, which any number of Walkers can sample
concurrently. A Walker is lazy and unbounded; callers decide how many tokens
to pull.

Sampling is deliberately approximate: each step draws a uniform value, rejects
draws below a threshold, and maps the accepted value onto the ascending
frequency ranking, which biases the walk toward the most frequent neighbors
without building a cumulative distribution.
*/
package markov
