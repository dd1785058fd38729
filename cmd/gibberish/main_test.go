package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the root command against stdin and returns what it wrote. A
// dotenv path inside a temp dir keeps a stray .env from leaking into tests; it
// goes first so a trailing flag in args is still left without a value.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := NewRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), ".env")}, args...)))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
