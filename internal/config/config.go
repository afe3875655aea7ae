// Package config loads the YAML configuration shared by the taxirl commands.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"taxi-rl-go/internal/engine"
	"taxi-rl-go/internal/taxi"
)

var ErrInvalidConfig = errors.New("config: invalid")

//go:embed config.schema.json
var schemaJSON string

type Config struct {
	LogLevel string        `yaml:"log_level"`
	Train    engine.Config `yaml:"train"`
	Layout   taxi.Layout   `yaml:"layout"`
	Plan     Plan          `yaml:"plan"`
	Store    Store         `yaml:"store"`
	Chart    Chart         `yaml:"chart"`
	Serve    Serve         `yaml:"serve"`
}

type Plan struct {
	Gamma         float64 `yaml:"gamma"`
	Theta         float64 `yaml:"theta"`
	MaxIterations int     `yaml:"max_iterations"`
	EvalEpisodes  int     `yaml:"eval_episodes"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Chart struct {
	Path   string `yaml:"path"`
	Window int    `yaml:"window"`
}

type Serve struct {
	Addr        string `yaml:"addr"`
	StepDelayMs int    `yaml:"step_delay_ms"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Train: engine.Config{
			Episodes:          2000,
			Seed:              1,
			Epsilon:           0.9,
			EpsilonMin:        0.05,
			EpsilonDecay:      0.995,
			Alpha:             0.5,
			Gamma:             0.95,
			MaxSteps:          taxi.MaxEpisodeSteps,
			Algorithm:         engine.AlgorithmQLearning,
			SkipStepSnapshots: true,
		},
		Layout: taxi.DefaultLayout(),
		Plan: Plan{
			Gamma:         1,
			Theta:         1e-9,
			MaxIterations: 1000,
			EvalEpisodes:  1000,
		},
		Store: Store{Path: "taxirl.db"},
		Chart: Chart{Path: "charts/rewards.html", Window: 100},
		Serve: Serve{Addr: "127.0.0.1:8089", StepDelayMs: 50},
	}
}

// Load reads path on top of Default. The document is checked against the
// embedded schema before it is decoded.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := Parse(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates raw YAML and decodes it into cfg, keeping any fields the
// document does not set.
func Parse(raw []byte, cfg *Config) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if doc != nil {
		if err := validateSchema(doc); err != nil {
			return err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return cfg.Validate()
}

func validateSchema(doc any) error {
	schema, err := jsonschema.CompileString("config.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	// Round-trip through JSON so numbers and maps have the shapes the
	// validator expects.
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks what the schema cannot express.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: layout: %w", ErrInvalidConfig, err)
	}
	if c.Train.EpsilonMin > c.Train.Epsilon {
		return fmt.Errorf("%w: train.epsilon_min %.3f exceeds train.epsilon %.3f", ErrInvalidConfig, c.Train.EpsilonMin, c.Train.Epsilon)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level name onto a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, name)
}
