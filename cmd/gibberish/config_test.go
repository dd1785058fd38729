package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatal(err)
	}
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())
	if err := fs.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Generate.Threshold != 0.75 {
		t.Errorf("expected threshold 0.75, got %v", cfg.Generate.Threshold)
	}
	if cfg.Generate.WordCount != 100 {
		t.Errorf("expected word count 100, got %d", cfg.Generate.WordCount)
	}
	if cfg.Generate.Start != "A" {
		t.Errorf("expected start %q, got %q", "A", cfg.Generate.Start)
	}
	if cfg.Input.Mode != "word" || cfg.Input.Backend != backendMemory {
		t.Errorf("unexpected input defaults %+v", cfg.Input)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected log level warn, got %q", cfg.LogLevel)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{
		Flags:    newFlagSet(t),
		EnvFile:  filepath.Join(t.TempDir(), ".env"),
		Defaults: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("expected defaults\nwant %+v\ngot  %+v", DefaultConfig(), cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	configFile := writeFile(t, "gibberish.yaml", `
generate:
  word_count: 3
  start: fromfile
  threshold: 0.5
model:
  format: json
  min_frequency: 4
`)

	t.Run("config file over defaults", func(t *testing.T) {
		unsetEnv(t, "GIBBERISH_GENERATE_START")
		cfg, err := Load(LoadOptions{
			Flags:      newFlagSet(t),
			ConfigFile: configFile,
			EnvFile:    filepath.Join(t.TempDir(), ".env"),
			Defaults:   DefaultConfig(),
		})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Generate.WordCount != 3 || cfg.Generate.Start != "fromfile" || cfg.Generate.Threshold != 0.5 {
			t.Errorf("config file values not applied: %+v", cfg.Generate)
		}
		if cfg.Model.Format != "json" || cfg.Model.MinFrequency != 4 {
			t.Errorf("config file values not applied: %+v", cfg.Model)
		}
		if cfg.Generate.MaxAttempts != DefaultConfig().Generate.MaxAttempts {
			t.Errorf("expected default max attempts, got %d", cfg.Generate.MaxAttempts)
		}
	})

	t.Run("env over config file", func(t *testing.T) {
		t.Setenv("GIBBERISH_GENERATE_START", "fromenv")
		cfg, err := Load(LoadOptions{
			Flags:      newFlagSet(t),
			ConfigFile: configFile,
			EnvFile:    filepath.Join(t.TempDir(), ".env"),
			Defaults:   DefaultConfig(),
		})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Generate.Start != "fromenv" {
			t.Errorf("expected start from env, got %q", cfg.Generate.Start)
		}
		if cfg.Generate.WordCount != 3 {
			t.Errorf("expected word count from file, got %d", cfg.Generate.WordCount)
		}
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("GIBBERISH_GENERATE_START", "fromenv")
		cfg, err := Load(LoadOptions{
			Flags:      newFlagSet(t, "-s", "fromflag", "-n", "9"),
			ConfigFile: configFile,
			EnvFile:    filepath.Join(t.TempDir(), ".env"),
			Defaults:   DefaultConfig(),
		})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Generate.Start != "fromflag" || cfg.Generate.WordCount != 9 {
			t.Errorf("flag values not applied: %+v", cfg.Generate)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	unsetEnv(t, "GIBBERISH_INPUT_MODE")
	unsetEnv(t, "GIBBERISH_MODEL_MIN_FREQUENCY")
	envFile := writeFile(t, ".env", "GIBBERISH_INPUT_MODE=char\nGIBBERISH_MODEL_MIN_FREQUENCY=2\n")

	cfg, err := Load(LoadOptions{Flags: newFlagSet(t), EnvFile: envFile, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Input.Mode != "char" {
		t.Errorf("expected mode char from env file, got %q", cfg.Input.Mode)
	}
	if cfg.Model.MinFrequency != 2 {
		t.Errorf("expected min frequency 2 from env file, got %d", cfg.Model.MinFrequency)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"),
		EnvFile:    filepath.Join(t.TempDir(), ".env"),
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Fatal("expected an error for an explicit missing config file")
	}
}

func TestConfigParse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Mode = " CHAR "
	cfg.Input.Backend = "SQLite"
	cfg.Model.Format = "json"
	cfg.LogLevel = "debug"

	s, err := cfg.parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if s.mode != "char" || s.backend != backendSQLite || s.format != "json" || s.level != slog.LevelDebug {
		t.Errorf("unexpected settings %+v", s)
	}
}

func TestParseLogLevel(t *testing.T) {
	testCases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseLogLevel(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("parseLogLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gibberish.json")

	stdout, _, err := execute(t, "", "config", "init", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(stdout, path) {
		t.Errorf("expected confirmation naming %s, got %q", path, stdout)
	}

	cfg, err := Load(LoadOptions{
		ConfigFile: path,
		EnvFile:    filepath.Join(t.TempDir(), ".env"),
		Defaults:   Config{},
	})
	if err != nil {
		t.Fatalf("failed to load written config: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("written config does not round-trip\nwant %+v\ngot  %+v", DefaultConfig(), cfg)
	}

	if _, _, err = execute(t, "", "config", "init", path); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected an already-exists error, got %v", err)
	}
	if _, _, err = execute(t, "", "config", "init", "--force", path); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}
}

func TestConfigFileDrivesRoot(t *testing.T) {
	configFile := writeFile(t, "custom.json", `{"generate": {"word_count": 3, "start": "x"}}`)

	stdout, _, err := execute(t, "x y\n", "--config", configFile)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if stdout != "y x y\n" {
		t.Errorf("expected %q, got %q", "y x y\n", stdout)
	}

	stdout, _, err = execute(t, "x y\n", "--config", configFile, "-n", "1")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if stdout != "y\n" {
		t.Errorf("expected flag to override config file, got %q", stdout)
	}
}
