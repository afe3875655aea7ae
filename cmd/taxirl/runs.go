package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"taxi-rl-go/internal/config"
	"taxi-rl-go/internal/engine"
	"taxi-rl-go/internal/store"
	"taxi-rl-go/internal/taxi"
)

func runRuns(args []string) error {
	fs := newFlagSet("runs")
	var c common
	c.register(fs)
	storePath := fs.String("store", "", "SQLite database (empty keeps the config value)")
	limit := fs.Int("limit", 20, "newest runs to list")
	id := fs.String("id", "", "re-evaluate the greedy policy of this run")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if *id != "" {
		return evaluateRun(db, *id, cfg, logger)
	}

	runs, err := db.Runs(*limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tcreated\talgorithm\tepisodes\tsuccesses\tmean_reward\tmean_steps")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\n",
			r.ID, humanize.Time(r.CreatedAt), r.Algorithm,
			humanize.Comma(int64(r.Episodes)), humanize.Comma(int64(r.SuccessCount)),
			r.MeanReward, r.MeanSteps)
	}
	return tw.Flush()
}

// evaluateRun loads the Q table of a stored run and measures its greedy
// policy on the configured layout.
func evaluateRun(db *store.DB, id string, cfg config.Config, logger *slog.Logger) error {
	run, err := db.Run(id)
	if err != nil {
		return err
	}
	states, actions, q, err := db.QTable(id)
	if err != nil {
		return err
	}
	if states != taxi.NumStates || actions != taxi.NumActions {
		return fmt.Errorf("run %s has a %dx%d q table, want %dx%d", id, states, actions, taxi.NumStates, taxi.NumActions)
	}
	model, err := buildModel(cfg, logger)
	if err != nil {
		return err
	}
	trainer, err := engine.NewTrainer(model, engine.Config{
		Episodes:  1,
		Seed:      cfg.Train.Seed,
		MaxSteps:  cfg.Train.MaxSteps,
		Algorithm: run.Algorithm,
	}, logger)
	if err != nil {
		return err
	}
	if err := trainer.LoadQValues(q); err != nil {
		return err
	}
	episodes, err := db.Episodes(id)
	if err != nil {
		return err
	}
	tail := tailStats(episodes, cfg.Chart.Window)

	eval, err := engine.EvaluatePolicy(trainer.Env(), trainer.GreedyPolicy(), cfg.Plan.EvalEpisodes)
	if err != nil {
		return err
	}
	reg := taxi.DefaultRegistration()
	fmt.Printf("run %s (%s, %s episodes, trained %s)\n", run.ID, run.Algorithm,
		humanize.Comma(int64(run.Episodes)), humanize.Time(run.CreatedAt))
	if tail.Episodes > 0 {
		fmt.Printf("last %d training episodes: mean_reward=%.2f mean_steps=%.2f success_rate=%.2f\n",
			tail.Episodes, tail.MeanReturn, tail.MeanSteps, tail.SuccessRate)
	}
	fmt.Printf("greedy policy: mean_return=%.2f mean_steps=%.2f success_rate=%.2f solved=%t\n",
		eval.MeanReturn, eval.MeanSteps, eval.SuccessRate, reg.Solved(eval.MeanReturn))
	return nil
}

// tailStats summarizes the last window stored episodes of a run.
func tailStats(episodes []store.Episode, window int) engine.Evaluation {
	if window > 0 && len(episodes) > window {
		episodes = episodes[len(episodes)-window:]
	}
	if len(episodes) == 0 {
		return engine.Evaluation{}
	}
	var reward float64
	var steps, successes int
	for _, ep := range episodes {
		reward += ep.Reward
		steps += ep.Steps
		if ep.Success {
			successes++
		}
	}
	n := float64(len(episodes))
	return engine.Evaluation{
		Episodes:    len(episodes),
		MeanReturn:  reward / n,
		MeanSteps:   float64(steps) / n,
		SuccessRate: float64(successes) / n,
	}
}
