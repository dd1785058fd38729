package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/CTAG07/Gibberish/pkg/markov"
)

const (
	backendMemory = "memory"
	backendSQLite = "sqlite"
)

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel string         `mapstructure:"log_level" json:"log_level"`
	Input    InputConfig    `mapstructure:"input" json:"input"`
	Generate GenerateConfig `mapstructure:"generate" json:"generate"`
	Model    ModelConfig    `mapstructure:"model" json:"model"`
}

// InputConfig controls how text is read and where counts are kept.
type InputConfig struct {
	Path        string `mapstructure:"path" json:"path"`
	Mode        string `mapstructure:"mode" json:"mode"`
	Backend     string `mapstructure:"backend" json:"backend"`
	ScratchDir  string `mapstructure:"scratch_dir" json:"scratch_dir"`
	MaxLineSize int    `mapstructure:"max_line_size" json:"max_line_size"`
}

// GenerateConfig holds the walker settings.
type GenerateConfig struct {
	Threshold    float64 `mapstructure:"threshold" json:"threshold"`
	WordCount    uint    `mapstructure:"word_count" json:"word_count"`
	Start        string  `mapstructure:"start" json:"start"`
	RandSeed     uint64  `mapstructure:"rand_seed" json:"rand_seed"`
	Stubbornness int     `mapstructure:"stubbornness" json:"stubbornness"`
	MaxAttempts  int     `mapstructure:"max_attempts" json:"max_attempts"`
	MaxDraws     int     `mapstructure:"max_draws" json:"max_draws"`
}

// ModelConfig controls ranking and the model dump.
type ModelConfig struct {
	Print        bool   `mapstructure:"print" json:"print"`
	Format       string `mapstructure:"format" json:"format"`
	Out          string `mapstructure:"out" json:"out"`
	MinFrequency uint32 `mapstructure:"min_frequency" json:"min_frequency"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() Config {
	return Config{
		LogLevel: "warn",
		Input: InputConfig{
			Path:        "",
			Mode:        string(markov.ModeWord),
			Backend:     backendMemory,
			ScratchDir:  "",
			MaxLineSize: markov.DefaultMaxLineSize,
		},
		Generate: GenerateConfig{
			Threshold:    markov.DefaultThreshold,
			WordCount:    100,
			Start:        "A",
			RandSeed:     0,
			Stubbornness: 0,
			MaxAttempts:  markov.DefaultMaxAttempts,
			MaxDraws:     markov.DefaultMaxDraws,
		},
		Model: ModelConfig{
			Print:        false,
			Format:       string(markov.FormatText),
			Out:          "",
			MinFrequency: 0,
		},
	}
}

// flagKeys maps each command line flag to its configuration key.
var flagKeys = map[string]string{
	"log-level":     "log_level",
	"input":         "input.path",
	"mode":          "input.mode",
	"backend":       "input.backend",
	"scratch-dir":   "input.scratch_dir",
	"max-line-size": "input.max_line_size",
	"threshold":     "generate.threshold",
	"word-count":    "generate.word_count",
	"start":         "generate.start",
	"rand-seed":     "generate.rand_seed",
	"stubbornness":  "generate.stubbornness",
	"max-attempts":  "generate.max_attempts",
	"max-draws":     "generate.max_draws",
	"print-model":   "model.print",
	"model-format":  "model.format",
	"model-out":     "model.out",
	"min-frequency": "model.min_frequency",
}

// RegisterFlags adds every configuration flag to fs.
func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	fs.StringP("input", "i", defaults.Input.Path, "Read text from this file instead of standard input")
	fs.String("mode", defaults.Input.Mode, "Token granularity: word or char")
	fs.String("backend", defaults.Input.Backend, "Where transition counts are kept: memory or sqlite")
	fs.String("scratch-dir", defaults.Input.ScratchDir, "Directory for the sqlite scratch database (default: system temp dir)")
	fs.Int("max-line-size", defaults.Input.MaxLineSize, "Longest accepted input line in bytes")
	fs.Float64P("threshold", "t", defaults.Generate.Threshold, "Rejection threshold in [0,1]; higher favors frequent neighbors")
	fs.UintP("word-count", "n", defaults.Generate.WordCount, "Number of tokens to generate")
	fs.StringP("start", "s", defaults.Generate.Start, "Token the walk starts from")
	fs.Uint64("rand-seed", defaults.Generate.RandSeed, "Seed for reproducible output (0 picks a random seed)")
	fs.Int("stubbornness", defaults.Generate.Stubbornness, "Candidates rejected unconditionally before each token")
	fs.Int("max-attempts", defaults.Generate.MaxAttempts, "Candidate attempts per token before falling back")
	fs.Int("max-draws", defaults.Generate.MaxDraws, "Random draws per attempt before accepting below the threshold")
	fs.BoolP("print-model", "p", defaults.Model.Print, "Print the ranked model instead of generating")
	fs.String("model-format", defaults.Model.Format, "Model dump format: text or json")
	fs.String("model-out", defaults.Model.Out, "Write the model dump to this file instead of standard output")
	fs.Uint32("min-frequency", defaults.Model.MinFrequency, "Ignore transitions seen fewer times than this")
}

// LoadOptions describes where Load looks for configuration.
type LoadOptions struct {
	Flags      *pflag.FlagSet
	ConfigFile string
	EnvFile    string
	Defaults   Config
}

// Load merges defaults, an optional config file, environment variables
// (GIBBERISH_*, optionally seeded from a .env file) and flags, in increasing
// order of precedence.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Flags != nil {
		for name, key := range flagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %q: %w", name, err)
			}
		}
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}
	v.SetEnvPrefix("GIBBERISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("gibberish")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("input.path", c.Input.Path)
	v.SetDefault("input.mode", c.Input.Mode)
	v.SetDefault("input.backend", c.Input.Backend)
	v.SetDefault("input.scratch_dir", c.Input.ScratchDir)
	v.SetDefault("input.max_line_size", c.Input.MaxLineSize)
	v.SetDefault("generate.threshold", c.Generate.Threshold)
	v.SetDefault("generate.word_count", c.Generate.WordCount)
	v.SetDefault("generate.start", c.Generate.Start)
	v.SetDefault("generate.rand_seed", c.Generate.RandSeed)
	v.SetDefault("generate.stubbornness", c.Generate.Stubbornness)
	v.SetDefault("generate.max_attempts", c.Generate.MaxAttempts)
	v.SetDefault("generate.max_draws", c.Generate.MaxDraws)
	v.SetDefault("model.print", c.Model.Print)
	v.SetDefault("model.format", c.Model.Format)
	v.SetDefault("model.out", c.Model.Out)
	v.SetDefault("model.min_frequency", c.Model.MinFrequency)
}

// loadEnvFile seeds the environment from a dotenv file. A missing file is not
// an error; variables already set are left alone.
func loadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// WriteConfigFile writes cfg as indented JSON to path, atomically replacing
// any existing file.
func WriteConfigFile(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')
	if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// settings are the parsed, validated forms of the string options in Config.
type settings struct {
	mode    markov.Mode
	format  markov.Format
	level   slog.Level
	backend string
}

// parse validates the string-typed options.
func (c Config) parse() (settings, error) {
	var s settings
	var err error

	if s.mode, err = markov.ParseMode(c.Input.Mode); err != nil {
		return settings{}, err
	}
	if s.format, err = markov.ParseFormat(c.Model.Format); err != nil {
		return settings{}, err
	}
	if s.level, err = parseLogLevel(c.LogLevel); err != nil {
		return settings{}, err
	}

	switch strings.ToLower(c.Input.Backend) {
	case backendMemory:
		s.backend = backendMemory
	case backendSQLite:
		s.backend = backendSQLite
	default:
		return settings{}, fmt.Errorf("unknown backend %q: want %s or %s", c.Input.Backend, backendMemory, backendSQLite)
	}
	return s, nil
}
