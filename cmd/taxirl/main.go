package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"taxi-rl-go/internal/config"
	"taxi-rl-go/internal/taxi"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taxirl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return errors.New("missing subcommand; try 'train', 'plan', 'table', 'render', 'serve' or 'runs'")
	}

	subcommand := args[0]
	switch subcommand {
	case "train":
		return runTrain(args[1:])
	case "plan":
		return runPlan(args[1:])
	case "table":
		return runTable(args[1:])
	case "render":
		return runRender(args[1:])
	case "serve":
		return runServe(args[1:])
	case "runs":
		return runRuns(args[1:])
	default:
		return fmt.Errorf("unknown subcommand %q", subcommand)
	}
}

// common holds the flags every subcommand accepts.
type common struct {
	configPath string
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file (defaults when empty)")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
}

// load reads the config and installs the default logger.
func (c *common) load() (config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return cfg, nil, err
		}
		cfg = loaded
	}
	if c.verbose {
		cfg.LogLevel = "debug"
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func buildModel(cfg config.Config, logger *slog.Logger) (*taxi.Model, error) {
	model, err := taxi.Build(cfg.Layout)
	if err != nil {
		return nil, err
	}
	logger.Debug("model built",
		"states", taxi.NumStates,
		"actions", taxi.NumActions,
		"destinations", fmt.Sprint(cfg.Layout.Destinations),
		"hazards", fmt.Sprint(cfg.Layout.Hazards))
	return model, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}
