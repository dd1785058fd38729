package markov

import (
	"context"
	"database/sql"
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a new SQLite database in a temp dir and an SQLTable on it.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t testing.TB) (*sql.DB, *SQLTable) {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	table, err := NewSQLTable(db)
	if err != nil {
		t.Fatalf("NewSQLTable() error = %v", err)
	}
	t.Cleanup(func() { _ = table.Close() })

	return db, table
}

// mustTokenizer builds a DefaultTokenizer or fails the test.
func mustTokenizer(t testing.TB, mode Mode, opts ...Option) *DefaultTokenizer {
	t.Helper()
	tok, err := NewDefaultTokenizer(mode, opts...)
	if err != nil {
		t.Fatalf("NewDefaultTokenizer(%q) error = %v", mode, err)
	}
	return tok
}

// trainTable trains a fresh in-memory table on text in the given mode.
func trainTable(t testing.TB, mode Mode, text string) *TransitionTable {
	t.Helper()
	table := NewTransitionTable()
	if err := NewTrainer(mustTokenizer(t, mode)).Train(context.Background(), strings.NewReader(text), table); err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	return table
}

// fakeSource replays a fixed list of draws and fails the test if more are needed.
type fakeSource struct {
	t      testing.TB
	values []float64
	index  int
}

func (f *fakeSource) Float64() float64 {
	if f.index >= len(f.values) {
		f.t.Fatalf("fakeSource exhausted after %d draws", f.index)
	}
	v := f.values[f.index]
	f.index++
	return v
}

// constSource always returns the same draw.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = "this is a fallback corpus for benchmarking. it is not very long but will prevent a crash. "
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
