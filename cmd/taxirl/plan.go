package main

import (
	"fmt"
	"math/rand"
	"os"

	"taxi-rl-go/internal/engine"
	"taxi-rl-go/internal/taxi"
)

func runPlan(args []string) error {
	fs := newFlagSet("plan")
	var c common
	c.register(fs)
	gamma := fs.Float64("gamma", 0, "discount (0 keeps the config value)")
	demo := fs.Int("demo", -1, "render one greedy episode from this start state")
	color := fs.Bool("color", true, "colored frames for -demo")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	if *gamma != 0 {
		cfg.Plan.Gamma = *gamma
	}

	model, err := buildModel(cfg, logger)
	if err != nil {
		return err
	}
	plan, err := engine.ValueIteration(model, cfg.Plan.Gamma, cfg.Plan.Theta, cfg.Plan.MaxIterations)
	if err != nil {
		return err
	}
	logger.Info("value iteration finished",
		"gamma", cfg.Plan.Gamma,
		"iterations", plan.Iterations,
		"delta", plan.Delta)

	env, err := engine.NewEnv(model, cfg.Train.MaxSteps, rand.New(rand.NewSource(cfg.Train.Seed)))
	if err != nil {
		return err
	}

	var starts []int
	for s, w := range model.InitialDistribution {
		if w > 0 {
			starts = append(starts, s)
		}
	}
	exact, err := engine.EvaluateFromStates(env, plan.Policy, starts)
	if err != nil {
		return err
	}
	reg := taxi.DefaultRegistration()
	fmt.Printf("plan: iterations=%d starts=%d mean_return=%.4f mean_steps=%.2f success_rate=%.2f solved=%t (threshold %.0f)\n",
		plan.Iterations, exact.Episodes, exact.MeanReturn, exact.MeanSteps, exact.SuccessRate,
		reg.Solved(exact.MeanReturn), reg.RewardThreshold)

	if cfg.Plan.EvalEpisodes > 0 {
		sampled, err := engine.EvaluatePolicy(env, plan.Policy, cfg.Plan.EvalEpisodes)
		if err != nil {
			return err
		}
		fmt.Printf("sampled: episodes=%d mean_return=%.4f mean_steps=%.2f\n",
			sampled.Episodes, sampled.MeanReturn, sampled.MeanSteps)
	}

	if *demo >= 0 {
		return playEpisode(model, env, plan.Policy, *demo, *color)
	}
	return nil
}

// playEpisode follows policy from start and draws every frame to stdout.
func playEpisode(model *taxi.Model, env *engine.Env, policy []int, start int, color bool) error {
	if err := env.ResetTo(start); err != nil {
		return err
	}
	if err := model.Render(os.Stdout, start, nil, color); err != nil {
		return err
	}
	total := 0.0
	for {
		a := taxi.Action(policy[env.State()])
		res, err := env.Step(int(a))
		if err != nil {
			return err
		}
		total += res.Reward
		if err := model.Render(os.Stdout, res.State, &a, color); err != nil {
			return err
		}
		if res.Done || res.Truncated {
			fmt.Printf("return=%.0f steps=%d delivered=%t\n", total, env.Steps(), res.Done)
			return nil
		}
	}
}
