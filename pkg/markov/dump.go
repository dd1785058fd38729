package markov

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format selects how WriteModel renders a RankedNeighbors.
type Format string

const (
	// FormatText renders one quoted token per line followed by its ranked
	// neighbors.
	FormatText Format = "text"
	// FormatJSON renders an object mapping each token to its ranked neighbors.
	FormatJSON Format = "json"
)

// ParseFormat converts a user-supplied format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// MarshalJSON encodes the view as an object of token to ranked neighbor list.
func (r *RankedNeighbors) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.next)
}

// WriteModel writes r to w in the given format. Tokens appear in sorted order
// and each neighbor list keeps its ascending-frequency order.
func WriteModel(w io.Writer, r *RankedNeighbors, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r.next)
	case FormatText:
		bw := bufio.NewWriter(w)
		var line []byte
		for _, token := range r.Tokens() {
			line = strconv.AppendQuote(line[:0], token)
			line = append(line, ':')
			for _, neighbor := range r.next[token] {
				line = append(line, ' ')
				line = strconv.AppendQuote(line, neighbor)
			}
			line = append(line, '\n')
			if _, err := bw.Write(line); err != nil {
				return err
			}
		}
		return bw.Flush()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
