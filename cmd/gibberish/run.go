package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/natefinch/atomic"

	"github.com/CTAG07/Gibberish/pkg/markov"
)

// run trains a model on the configured input and either dumps it or walks it
// to produce cfg.Generate.WordCount tokens on stdout.
func run(ctx context.Context, cfg Config, s settings, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	in := stdin
	if cfg.Input.Path != "" && cfg.Input.Path != "-" {
		f, err := os.Open(cfg.Input.Path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	tokenizer, err := markov.NewDefaultTokenizer(s.mode, markov.WithMaxLineSize(cfg.Input.MaxLineSize))
	if err != nil {
		return err
	}

	counter, cleanup, err := newCounter(cfg, s, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("Failed to clean up transition store", "error", err)
		}
	}()

	trainer := markov.NewTrainer(tokenizer)
	trainer.SetLogger(logger)
	if err = trainer.Train(ctx, in, counter); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	stats, err := counter.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect model stats: %w", err)
	}
	logger.InfoContext(ctx, "Model trained",
		slog.String("backend", s.backend),
		slog.String("mode", string(s.mode)),
		slog.Int("tokens", stats.Tokens),
		slog.Int("vocabulary", stats.Vocabulary),
		slog.Int("links", stats.Links),
		slog.Uint64("total_frequency", stats.TotalFrequency),
		slog.Int("self_loops", stats.SelfLoops))

	ranked, err := counter.Rank(ctx, markov.WithMinFrequency(cfg.Model.MinFrequency))
	if err != nil {
		return fmt.Errorf("failed to rank transitions: %w", err)
	}

	if cfg.Model.Print {
		return printModel(ranked, s.format, cfg.Model.Out, stdout)
	}
	return generate(cfg.Generate, ranked, tokenizer.Separator(), stdout, logger)
}

// newCounter opens the transition store selected by the backend setting.
func newCounter(cfg Config, s settings, logger *slog.Logger) (markov.Counter, func() error, error) {
	if s.backend == backendMemory {
		table := markov.NewTransitionTable()
		return table, table.Close, nil
	}

	db, closeDB, err := openScratchDB(cfg.Input.ScratchDir)
	if err != nil {
		return nil, nil, err
	}
	if err = markov.SetupSchema(db); err != nil {
		_ = closeDB()
		return nil, nil, fmt.Errorf("failed to set up scratch database: %w", err)
	}
	table, err := markov.NewSQLTable(db)
	if err != nil {
		_ = closeDB()
		return nil, nil, err
	}
	table.SetLogger(logger)

	cleanup := func() error {
		err := table.Close()
		if cerr := closeDB(); err == nil {
			err = cerr
		}
		return err
	}
	return table, cleanup, nil
}

func printModel(ranked *markov.RankedNeighbors, format markov.Format, out string, stdout io.Writer) error {
	if out == "" {
		if err := markov.WriteModel(stdout, ranked, format); err != nil {
			return fmt.Errorf("failed to write model: %w", err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := markov.WriteModel(&buf, ranked, format); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := atomic.WriteFile(out, &buf); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}

func generate(cfg GenerateConfig, ranked *markov.RankedNeighbors, separator string, stdout io.Writer, logger *slog.Logger) error {
	threshold := markov.ClampThreshold(cfg.Threshold)
	if threshold != cfg.Threshold {
		logger.Debug("Threshold out of range, using default",
			slog.Float64("requested", cfg.Threshold),
			slog.Float64("threshold", threshold))
	}

	opts := []markov.WalkOption{
		markov.WithThreshold(threshold),
		markov.WithStubbornness(cfg.Stubbornness),
		markov.WithMaxAttempts(cfg.MaxAttempts),
		markov.WithMaxDraws(cfg.MaxDraws),
		markov.WithLogger(logger),
	}
	if cfg.RandSeed != 0 {
		opts = append(opts, markov.WithSource(rand.New(rand.NewPCG(cfg.RandSeed, cfg.RandSeed))))
	}
	walker := markov.NewWalker(ranked, cfg.Start, opts...)

	w := bufio.NewWriter(stdout)
	var emitted uint
	for emitted < cfg.WordCount {
		token, ok := walker.Next()
		if !ok {
			break
		}
		if emitted > 0 {
			_, _ = w.WriteString(separator)
		}
		_, _ = w.WriteString(token)
		emitted++
	}
	_ = w.WriteByte('\n')
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.Debug("Generation finished",
		slog.Uint64("requested", uint64(cfg.WordCount)),
		slog.Uint64("emitted", uint64(emitted)),
		slog.Bool("exhausted", walker.Exhausted()))
	return nil
}
