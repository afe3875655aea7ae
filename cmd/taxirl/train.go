package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"

	"taxi-rl-go/internal/engine"
	"taxi-rl-go/internal/plot"
	"taxi-rl-go/internal/store"
	"taxi-rl-go/internal/taxi"
)

func runTrain(args []string) error {
	fs := newFlagSet("train")
	var c common
	c.register(fs)
	episodes := fs.Int("episodes", 0, "number of training episodes (0 keeps the config value)")
	algorithm := fs.String("algorithm", "", "q-learning, sarsa or montecarlo (empty keeps the config value)")
	seed := fs.Int64("seed", 0, "deterministic seed (0 keeps the config value)")
	storePath := fs.String("store", "", "SQLite database for runs (empty keeps the config value)")
	noStore := fs.Bool("no-store", false, "do not record the run")
	chartPath := fs.String("chart", "", "reward chart HTML path (empty keeps the config value)")
	noChart := fs.Bool("no-chart", false, "do not write a reward chart")
	progress := fs.Int("progress", 100, "log progress every N episodes")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	if *episodes != 0 {
		cfg.Train.Episodes = *episodes
	}
	if *algorithm != "" {
		cfg.Train.Algorithm = *algorithm
	}
	if *seed != 0 {
		cfg.Train.Seed = *seed
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if *chartPath != "" {
		cfg.Chart.Path = *chartPath
	}
	if cfg.Train.Episodes <= 0 {
		return fmt.Errorf("episodes must be positive (got %d)", cfg.Train.Episodes)
	}
	if *progress <= 0 {
		*progress = cfg.Train.Episodes
	}

	model, err := buildModel(cfg, logger)
	if err != nil {
		return err
	}
	tcfg := cfg.Train
	tcfg.Grid = taxi.Grid{}
	tcfg.SkipStepSnapshots = true
	trainer, err := engine.NewTrainer(model, tcfg, logger)
	if err != nil {
		return err
	}
	tcfg = trainer.Config()
	logger.Info("train config",
		"env", taxi.EnvID,
		"algorithm", tcfg.Algorithm,
		"episodes", tcfg.Episodes,
		"seed", tcfg.Seed,
		"epsilon", tcfg.Epsilon,
		"alpha", tcfg.Alpha,
		"gamma", tcfg.Gamma,
		"max_steps", tcfg.MaxSteps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		records []store.Episode
		rewards []float64
		final   engine.Snapshot
	)
	for snap := range trainer.Run(ctx) {
		final = snap
		switch snap.Status {
		case engine.StatusEpisodeComplete:
			records = append(records, store.Episode{
				Episode: snap.Episode,
				Reward:  snap.EpisodeReward,
				Steps:   snap.EpisodeSteps,
				Success: snap.Success,
			})
			rewards = append(rewards, snap.EpisodeReward)
			if snap.Episode%*progress == 0 {
				avg := plot.MovingAverage(rewards, *progress)
				logger.Info("progress",
					"episode", snap.Episode,
					"mean_reward", fmt.Sprintf("%.2f", avg[len(avg)-1]),
					"successes", snap.SuccessCount,
					"epsilon", fmt.Sprintf("%.3f", snap.Epsilon))
			}
		case engine.StatusCancelled:
			logger.Warn("training interrupted", "episode", snap.Episode)
		}
	}
	if final.EpisodesCompleted == 0 {
		return fmt.Errorf("no episodes completed")
	}

	n := float64(final.EpisodesCompleted)
	avgReward := final.TotalReward / n
	avgSteps := float64(final.TotalSteps) / n
	successRate := float64(final.SuccessCount) / n
	fmt.Printf("summary: episodes=%s steps=%s avg_reward=%.2f avg_steps=%.2f success_rate=%.2f\n",
		humanize.Comma(int64(final.EpisodesCompleted)), humanize.Comma(int64(final.TotalSteps)),
		avgReward, avgSteps, successRate)

	reg := taxi.DefaultRegistration()
	if cfg.Plan.EvalEpisodes > 0 {
		eval, err := engine.EvaluatePolicy(trainer.Env(), trainer.GreedyPolicy(), cfg.Plan.EvalEpisodes)
		if err != nil {
			return err
		}
		fmt.Printf("greedy policy: mean_return=%.2f mean_steps=%.2f success_rate=%.2f solved=%t (threshold %.0f)\n",
			eval.MeanReturn, eval.MeanSteps, eval.SuccessRate, reg.Solved(eval.MeanReturn), reg.RewardThreshold)
	}

	if !*noChart && cfg.Chart.Path != "" {
		title := fmt.Sprintf("%s %s", taxi.EnvID, tcfg.Algorithm)
		err := plot.WriteRewards(cfg.Chart.Path, title,
			plot.Series{Name: "episode reward", Values: rewards},
			plot.Series{Name: fmt.Sprintf("moving average (%d)", cfg.Chart.Window), Values: plot.MovingAverage(rewards, cfg.Chart.Window)},
		)
		if err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		logger.Info("chart written", "path", cfg.Chart.Path)
	}

	if !*noStore && cfg.Store.Path != "" {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		run := store.Run{
			ID:           store.NewRunID(),
			Algorithm:    tcfg.Algorithm,
			Episodes:     final.EpisodesCompleted,
			Seed:         tcfg.Seed,
			SuccessCount: final.SuccessCount,
			MeanReward:   avgReward,
			MeanSteps:    avgSteps,
		}
		if err := db.SaveRun(run, trainer.Config(), records, taxi.NumStates, taxi.NumActions, trainer.QValues()); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		logger.Info("run saved", "id", run.ID, "path", cfg.Store.Path)
		fmt.Printf("run: %s\n", run.ID)
	}
	return nil
}
