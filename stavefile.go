//go:build stave

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

const binary = "bin/gibberish"

// Default target when running `stave` with no arguments.
var Default = All

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

// All runs lint, test and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// Build compiles the gibberish binary with the pure-Go sqlite driver.
func Build() error {
	st.Deps(Init)

	rebuild, err := target.Glob(binary, "**/*.go", "go.mod", "go.sum")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Println("gibberish is up to date")
		}
		return nil
	}

	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", binary, "./cmd/gibberish")
}

// Build_CGO compiles the gibberish binary against mattn/go-sqlite3.
func Build_CGO() error {
	st.Deps(Init)
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"},
		"go", "build", "-tags", "cgo_sqlite", "-ldflags", buildLdflags(), "-o", binary, "./cmd/gibberish")
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	date := time.Now().Format(time.RFC3339)

	return fmt.Sprintf(
		"-X main.Version=%s -X main.Commit=%s -X main.BuildDate=%s",
		strings.TrimSpace(version),
		strings.TrimSpace(commit),
		date,
	)
}

// Test runs all tests with race detection and coverage.
func Test() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// Test_CGO runs the tests with the cgo sqlite driver in the CLI.
func Test_CGO() error {
	st.Deps(Init)
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "-tags", "cgo_sqlite", "./...")
}

// Lint runs golangci-lint on the codebase.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := sh.Rm("bin/"); err != nil {
		return fmt.Errorf("removing bin/: %w", err)
	}
	return nil
}

// Install builds and installs the binary to GOBIN.
func Install() error {
	st.Deps(Build)

	gocmd := st.GoCmd()
	bin, err := sh.Output(gocmd, "env", "GOBIN")
	if err != nil {
		return fmt.Errorf("determining GOBIN: %w", err)
	}
	if bin == "" {
		gopath, err := sh.Output(gocmd, "env", "GOPATH")
		if err != nil {
			return fmt.Errorf("determining GOPATH: %w", err)
		}
		bin = gopath + "/bin"
	}

	dst := bin + "/gibberish"
	if runtime.GOOS == "windows" {
		dst += ".exe"
	}
	if err := sh.Copy(dst, binary); err != nil {
		return fmt.Errorf("installing gibberish: %w", err)
	}
	if st.Verbose() {
		fmt.Printf("Installed gibberish to %s\n", dst)
	}
	return nil
}

// Bench namespace for benchmark-related targets.
type Bench st.Namespace

// Run runs the markov package benchmarks.
func (Bench) Run() error {
	return sh.RunV("go", "test", "-run", "^$", "-bench", ".", "-benchmem", "./pkg/markov/")
}

// Sample trains on the file named by GIBBERISH_CORPUS and prints a short
// sample from both backends.
func (Bench) Sample() error {
	corpus := os.Getenv("GIBBERISH_CORPUS")
	if corpus == "" {
		return fmt.Errorf("GIBBERISH_CORPUS is not set")
	}
	st.Deps(Build)

	for _, backend := range []string{"memory", "sqlite"} {
		if err := sh.RunV("./"+binary, "--input", corpus, "--backend", backend, "--start", "the", "-n", "40"); err != nil {
			return fmt.Errorf("sample with %s backend: %w", backend, err)
		}
	}
	return nil
}
