package markov

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
)

// SetupSchema initializes the tables an SQLTable stores its counts in. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaVocab = `
CREATE TABLE IF NOT EXISTS gibberish_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_text TEXT NOT NULL UNIQUE
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS gibberish_transitions (
    token_id INTEGER NOT NULL,
    next_token_id INTEGER NOT NULL,
    frequency INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (token_id, next_token_id)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaVocab); err != nil {
		return fmt.Errorf("could not create vocabulary schema: %w", err)
	}

	if _, err = tx.Exec(schemaTransitions); err != nil {
		return fmt.Errorf("could not create transitions schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// linkBatchSize determines how many links are buffered in memory before being
// written to the database in a single batch.
const linkBatchSize = 1000

// chainLink is a struct used for batching link upserts.
type chainLink struct {
	tokenID     int64
	nextTokenID int64
}

// SQLTable is a Counter that keeps its counts in SQLite instead of a Go map.
// Observations are buffered and written inside a single transaction, which is
// committed by Flush, Rank or Stats. The caller owns the database handle.
//
// An SQLTable is not safe for concurrent use.
type SQLTable struct {
	db              *sql.DB
	tx              *sql.Tx
	txInsertVocab   *sql.Stmt
	txInsertLink    *sql.Stmt
	stmtInsertVocab *sql.Stmt
	stmtInsertLink  *sql.Stmt
	stmtGetCount    *sql.Stmt
	stmtRank        *sql.Stmt
	stmtStats       *sql.Stmt
	stmtVocabLen    *sql.Stmt
	vocabCache      map[string]int64
	batch           []chainLink
	pendingLinks    int64
	closed          bool
	logger          *slog.Logger
}

// NewSQLTable prepares the statements an SQLTable needs. SetupSchema must have
// been called on db first.
func NewSQLTable(db *sql.DB) (table *SQLTable, err error) {
	var prepared []*sql.Stmt
	defer func() {
		if err != nil {
			for _, stmt := range prepared {
				_ = stmt.Close()
			}
		}
	}()
	prepare := func(query string) (*sql.Stmt, error) {
		stmt, err := db.Prepare(query)
		if err != nil {
			return nil, fmt.Errorf("could not prepare statement: %w", err)
		}
		prepared = append(prepared, stmt)
		return stmt, nil
	}

	stmtInsertVocab, err := prepare(`INSERT INTO gibberish_vocabulary (token_text) VALUES (?) ON CONFLICT(token_text) DO UPDATE SET token_text=excluded.token_text RETURNING token_id;`)
	if err != nil {
		return nil, err
	}

	stmtInsertLink, err := prepare(`INSERT INTO gibberish_transitions (token_id, next_token_id, frequency) VALUES (?, ?, 1) ON CONFLICT(token_id, next_token_id) DO UPDATE SET frequency = frequency + 1;`)
	if err != nil {
		return nil, err
	}

	stmtGetCount, err := prepare(`
		SELECT t.frequency FROM gibberish_transitions t
		JOIN gibberish_vocabulary a ON a.token_id = t.token_id
		JOIN gibberish_vocabulary b ON b.token_id = t.next_token_id
		WHERE a.token_text = ? AND b.token_text = ?;`)
	if err != nil {
		return nil, err
	}

	stmtRank, err := prepare(`
		SELECT a.token_text, b.token_text, t.frequency FROM gibberish_transitions t
		JOIN gibberish_vocabulary a ON a.token_id = t.token_id
		JOIN gibberish_vocabulary b ON b.token_id = t.next_token_id
		WHERE t.frequency >= ?
		ORDER BY a.token_text, t.frequency, b.token_text;`)
	if err != nil {
		return nil, err
	}

	stmtStats, err := prepare(`
		SELECT COUNT(DISTINCT token_id), COUNT(*), coalesce(SUM(frequency), 0),
		       coalesce(SUM(CASE WHEN token_id = next_token_id THEN 1 ELSE 0 END), 0)
		FROM gibberish_transitions;`)
	if err != nil {
		return nil, err
	}

	stmtVocabLen, err := prepare(`SELECT COUNT(*) FROM gibberish_vocabulary;`)
	if err != nil {
		return nil, err
	}

	return &SQLTable{
		db:              db,
		stmtInsertVocab: stmtInsertVocab,
		stmtInsertLink:  stmtInsertLink,
		stmtGetCount:    stmtGetCount,
		stmtRank:        stmtRank,
		stmtStats:       stmtStats,
		stmtVocabLen:    stmtVocabLen,
		vocabCache:      make(map[string]int64),
		batch:           make([]chainLink, 0, linkBatchSize),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the SQLTable. By default, all logs are discarded.
func (s *SQLTable) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Update increments the count of neighbor under token. The write is buffered
// until the batch fills or the table is flushed.
func (s *SQLTable) Update(ctx context.Context, token, neighbor string) error {
	if s.closed {
		return ErrTableClosed
	}
	if err := s.begin(ctx); err != nil {
		return err
	}

	tokenID, err := s.tokenID(ctx, token)
	if err != nil {
		return err
	}
	nextTokenID, err := s.tokenID(ctx, neighbor)
	if err != nil {
		return err
	}

	s.batch = append(s.batch, chainLink{tokenID: tokenID, nextTokenID: nextTokenID})
	if len(s.batch) >= linkBatchSize {
		return s.commitBatch(ctx)
	}
	return nil
}

// Observe implements Counter by calling Update.
func (s *SQLTable) Observe(ctx context.Context, token, neighbor string) error {
	return s.Update(ctx, token, neighbor)
}

// Flush writes any buffered links and commits the open transaction, making
// every observation so far visible to queries.
func (s *SQLTable) Flush(ctx context.Context) error {
	if s.closed {
		return ErrTableClosed
	}
	if s.tx == nil {
		return nil
	}
	if err := s.commitBatch(ctx); err != nil {
		return err
	}

	tx := s.tx
	s.tx, s.txInsertVocab, s.txInsertLink = nil, nil, nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transitions: %w", err)
	}

	s.logger.DebugContext(ctx, "Transitions flushed",
		slog.Int64("links_written", s.pendingLinks),
		slog.Int("vocab_cached", len(s.vocabCache)),
	)
	s.pendingLinks = 0
	return nil
}

// Count returns how many times neighbor followed token.
func (s *SQLTable) Count(ctx context.Context, token, neighbor string) (uint32, error) {
	if err := s.Flush(ctx); err != nil {
		return 0, err
	}
	var freq int64
	err := s.stmtGetCount.QueryRowContext(ctx, token, neighbor).Scan(&freq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not get count for %q -> %q: %w", token, neighbor, err)
	}
	return saturate(freq), nil
}

// Rank implements Counter. The ordering matches BuildRanked exactly: ascending
// count, ties by token text.
func (s *SQLTable) Rank(ctx context.Context, opts ...RankOption) (*RankedNeighbors, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	options := newRankOptions(opts)

	rows, err := s.stmtRank.QueryContext(ctx, int64(options.minFrequency))
	if err != nil {
		return nil, fmt.Errorf("could not query transitions: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	ranked := &RankedNeighbors{next: make(map[string][]string)}
	var token, neighbor string
	var freq int64
	for rows.Next() {
		if err = rows.Scan(&token, &neighbor, &freq); err != nil {
			return nil, err
		}
		ranked.next[token] = append(ranked.next[token], neighbor)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Transitions ranked",
		slog.Int("tokens", len(ranked.next)),
		slog.Int("min_frequency", int(options.minFrequency)),
	)
	return ranked, nil
}

// Stats implements Counter.
func (s *SQLTable) Stats(ctx context.Context) (Stats, error) {
	if err := s.Flush(ctx); err != nil {
		return Stats{}, err
	}

	var stats Stats
	var total int64
	err := s.stmtStats.QueryRowContext(ctx).Scan(&stats.Tokens, &stats.Links, &total, &stats.SelfLoops)
	if err != nil {
		return Stats{}, err
	}
	stats.TotalFrequency = uint64(total)

	if err = s.stmtVocabLen.QueryRowContext(ctx).Scan(&stats.Vocabulary); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Close discards any unflushed observations and releases the prepared
// statements. It does not close the database.
func (s *SQLTable) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	_ = s.stmtInsertVocab.Close()
	_ = s.stmtInsertLink.Close()
	_ = s.stmtGetCount.Close()
	_ = s.stmtRank.Close()
	_ = s.stmtStats.Close()
	_ = s.stmtVocabLen.Close()
	return nil
}

// begin opens the ingestion transaction if none is open.
func (s *SQLTable) begin(ctx context.Context) error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	s.tx = tx
	s.txInsertVocab = tx.StmtContext(ctx, s.stmtInsertVocab)
	s.txInsertLink = tx.StmtContext(ctx, s.stmtInsertLink)
	return nil
}

// tokenID returns the vocabulary id of text, inserting it if needed.
func (s *SQLTable) tokenID(ctx context.Context, text string) (int64, error) {
	if id, ok := s.vocabCache[text]; ok {
		return id, nil
	}
	var id int64
	if err := s.txInsertVocab.QueryRowContext(ctx, text).Scan(&id); err != nil {
		return 0, fmt.Errorf("sql insert vocabulary error for token %q: %w", text, err)
	}
	s.vocabCache[text] = id
	return id, nil
}

func (s *SQLTable) commitBatch(ctx context.Context) error {
	for _, link := range s.batch {
		if _, err := s.txInsertLink.ExecContext(ctx, link.tokenID, link.nextTokenID); err != nil {
			return fmt.Errorf("failed during batch insert of link (%d -> %d): %w", link.tokenID, link.nextTokenID, err)
		}
	}
	s.pendingLinks += int64(len(s.batch))
	s.batch = s.batch[:0]
	return nil
}

// saturate converts a stored frequency to the uint32 range used in memory.
func saturate(freq int64) uint32 {
	if freq > math.MaxUint32 {
		return math.MaxUint32
	}
	if freq < 0 {
		return 0
	}
	return uint32(freq)
}
