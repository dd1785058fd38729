package markov

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Trainer feeds tokenized, normalized text into a Counter.
type Trainer struct {
	tokenizer Tokenizer
	logger    *slog.Logger
}

// NewTrainer creates a Trainer that splits input with the given tokenizer.
func NewTrainer(tokenizer Tokenizer) *Trainer {
	return &Trainer{
		tokenizer: tokenizer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Trainer. By default, all logs are discarded.
func (tr *Trainer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		tr.logger = logger
	}
}

// Train reads data line by line and records every transition in c. Within a
// line the units form a cycle: each unit is paired with the one after it and
// the last unit with the first, so a single-unit line pairs the unit with
// itself. Pairing never crosses line boundaries.
func (tr *Trainer) Train(ctx context.Context, data io.Reader, c Counter) error {
	stream := tr.tokenizer.NewStream(data)

	var lineCount, pairCount int64
	var units []string

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("tokenizer error: %w", err)
		}
		lineCount++

		units = units[:0]
		for _, unit := range raw {
			units = append(units, Normalize(unit))
		}

		n := len(units)
		for i, unit := range units {
			if err = c.Observe(ctx, unit, units[(i+1)%n]); err != nil {
				return fmt.Errorf("failed to record transition on line %d: %w", lineCount, err)
			}
			pairCount++
		}
	}

	tr.logger.InfoContext(ctx, "Training completed",
		slog.Int64("lines_processed", lineCount),
		slog.Int64("transitions_recorded", pairCount),
	)
	return nil
}
