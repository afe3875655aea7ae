package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"
)

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

const (
	StatusRunning         = "running"
	StatusEpisodeComplete = "episode_complete"
	StatusDone            = "done"
	StatusCancelled       = "cancelled"
)

const (
	AlgorithmMonteCarlo = "montecarlo"
	AlgorithmQLearning  = "q-learning"
	AlgorithmSARSA      = "sarsa"
)

type Config struct {
	Episodes          int     `json:"episodes" yaml:"episodes"`
	Seed              int64   `json:"seed" yaml:"seed"`
	Epsilon           float64 `json:"epsilon" yaml:"epsilon"`
	EpsilonMin        float64 `json:"epsilon_min" yaml:"epsilon_min"`
	EpsilonDecay      float64 `json:"epsilon_decay" yaml:"epsilon_decay"`
	Alpha             float64 `json:"alpha" yaml:"alpha"`
	Gamma             float64 `json:"gamma" yaml:"gamma"`
	MaxSteps          int     `json:"max_steps" yaml:"max_steps"`
	StepDelayMs       int     `json:"step_delay_ms" yaml:"step_delay_ms"`
	Algorithm         string  `json:"algorithm" yaml:"algorithm"`
	SkipStepSnapshots bool    `json:"skip_step_snapshots" yaml:"skip_step_snapshots"`

	// Grid, when set, enables a per-episode visit heatmap at debug level.
	Grid GridProjection `json:"-" yaml:"-"`
}

type Snapshot struct {
	Step              int     `json:"step"`
	Episode           int     `json:"episode"`
	EpisodeSteps      int     `json:"episode_steps"`
	EpisodeReward     float64 `json:"episode_reward"`
	Reward            float64 `json:"reward"`
	State             int     `json:"state"`
	Action            int     `json:"action"`
	Success           bool    `json:"success"`
	SuccessCount      int     `json:"success_count"`
	EpisodesCompleted int     `json:"episodes_completed"`
	TotalReward       float64 `json:"total_reward"`
	TotalSteps        int     `json:"total_steps"`
	Epsilon           float64 `json:"epsilon"`
	Config            Config  `json:"config"`
	Status            string  `json:"status"`
}

type Trainer struct {
	cfg               Config
	rng               *rand.Rand
	env               *Env
	agent             *epsilonGreedyAgent
	qvalues           *qTable
	log               *slog.Logger
	step              int
	successCount      int
	episodesCompleted int
	totalReward       float64
	totalSteps        int
}

// NewTrainer sanitizes cfg and prepares a tabular learner over model.
// An empty algorithm selects Q-learning.
func NewTrainer(model Model, cfg Config, logger *slog.Logger) (*Trainer, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmQLearning
	}
	switch cfg.Algorithm {
	case AlgorithmMonteCarlo, AlgorithmQLearning, AlgorithmSARSA:
		// allowed
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Algorithm, ErrUnknownAlgorithm)
	}
	if cfg.Episodes < 0 {
		cfg.Episodes = 0
	}
	if cfg.StepDelayMs < 0 {
		cfg.StepDelayMs = 0
	}
	if cfg.MaxSteps < 0 {
		cfg.MaxSteps = 0
	}
	if cfg.Gamma <= 0 || cfg.Gamma > 1 {
		cfg.Gamma = 0.9
	}
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = 0.1
	}
	if cfg.Epsilon <= 0 || cfg.Epsilon > 1 {
		cfg.Epsilon = 0.1
	}
	if cfg.EpsilonMin < 0 || cfg.EpsilonMin > cfg.Epsilon {
		cfg.EpsilonMin = 0
	}
	if cfg.EpsilonDecay < 0 || cfg.EpsilonDecay > 1 {
		cfg.EpsilonDecay = 0
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	rng := rand.New(rand.NewSource(seed))
	env, err := NewEnv(model, cfg.MaxSteps, rng)
	if err != nil {
		return nil, fmt.Errorf("new trainer: %w", err)
	}
	cfg.MaxSteps = env.MaxSteps()
	qvalues := newQTable(env.NumStates(), env.NumActions())
	agent := newEpsilonGreedyAgent(rng, qvalues, cfg.Epsilon)
	return &Trainer{
		cfg:     cfg,
		rng:     rng,
		env:     env,
		agent:   agent,
		qvalues: qvalues,
		log:     logger,
	}, nil
}

func (t *Trainer) Config() Config {
	return t.cfg
}

func (t *Trainer) Run(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		if t.cfg.Episodes <= 0 {
			return
		}
		for episode := 1; episode <= t.cfg.Episodes; episode++ {
			select {
			case <-ctx.Done():
				out <- t.snapshot(StatusCancelled, episode, 0, 0, 0, false)
				return
			default:
			}
			t.agent.setEpsilon(t.cfg.Epsilon)
			if !t.runEpisode(ctx, episode, out) {
				return
			}
			if t.cfg.EpsilonDecay > 0 {
				t.cfg.Epsilon = maxFloat(t.cfg.EpsilonMin, t.cfg.Epsilon*t.cfg.EpsilonDecay)
			}
		}
		t.log.Info("training finished",
			"algorithm", t.cfg.Algorithm,
			"episodes", t.episodesCompleted,
			"successes", t.successCount,
			"total_steps", t.totalSteps)
		out <- t.snapshot(StatusDone, t.cfg.Episodes, 0, 0, 0, false)
	}()
	return out
}

// runEpisode returns false when ctx was cancelled mid-episode.
func (t *Trainer) runEpisode(ctx context.Context, episode int, out chan<- Snapshot) bool {
	state := t.env.Reset()
	action := t.agent.act(state)
	var mcStates, mcActions []int
	var mcRewards []float64
	if t.cfg.Algorithm == AlgorithmMonteCarlo {
		mcStates = append(mcStates, state)
		mcActions = append(mcActions, action)
		mcRewards = make([]float64, 0, t.env.MaxSteps())
	}
	visits := make(map[int]int)
	visits[state]++
	steps := 0
	episodeReward := 0.0
	var lastReward float64
	success := false
	for {
		select {
		case <-ctx.Done():
			out <- t.snapshot(StatusCancelled, episode, steps, episodeReward, lastReward, false)
			return false
		default:
		}
		res, err := t.env.Step(action)
		if err != nil {
			// The agent only picks actions inside the table.
			panic(err)
		}
		nextState := res.State
		reward := res.Reward
		done := res.Done
		terminal := done || res.Truncated
		if done {
			success = true
		}
		episodeReward += reward
		steps++
		t.step++
		lastReward = reward
		var nextAction int
		switch t.cfg.Algorithm {
		case AlgorithmQLearning:
			t.updateQLearning(state, action, reward, nextState, done)
		case AlgorithmSARSA:
			if !terminal {
				nextAction = t.agent.act(nextState)
			}
			t.updateSARSA(state, action, reward, nextState, nextAction, done)
		case AlgorithmMonteCarlo:
			mcRewards = append(mcRewards, reward)
			if !terminal {
				nextAction = t.agent.act(nextState)
				mcStates = append(mcStates, nextState)
				mcActions = append(mcActions, nextAction)
			}
		}
		visits[nextState]++
		if !t.cfg.SkipStepSnapshots {
			out <- t.snapshot(StatusRunning, episode, steps, episodeReward, reward, success)
		}
		if !t.cfg.SkipStepSnapshots && t.cfg.StepDelayMs > 0 {
			select {
			case <-ctx.Done():
				out <- t.snapshot(StatusCancelled, episode, steps, episodeReward, reward, success)
				return false
			case <-time.After(time.Duration(t.cfg.StepDelayMs) * time.Millisecond):
			}
		}
		if terminal {
			break
		}
		state = nextState
		switch t.cfg.Algorithm {
		case AlgorithmSARSA, AlgorithmMonteCarlo:
			action = nextAction
		default:
			action = t.agent.act(state)
		}
	}
	if success {
		t.successCount++
	}
	if t.cfg.Algorithm == AlgorithmMonteCarlo {
		t.updateMonteCarloQ(mcStates, mcActions, mcRewards)
	}
	t.totalReward += episodeReward
	t.totalSteps += steps
	t.episodesCompleted++
	t.logVisitHeatmap(episode, visits)
	out <- t.snapshot(StatusEpisodeComplete, episode, steps, episodeReward, lastReward, success)
	return true
}

func (t *Trainer) updateMonteCarloQ(states, actions []int, rewards []float64) {
	if len(states) == 0 || len(states) != len(actions) || len(rewards) != len(actions) {
		return
	}
	type visitKey struct {
		state  int
		action int
	}
	// First-visit: only the earliest occurrence of a pair is updated.
	firstVisit := make(map[visitKey]int, len(actions))
	for i := range states {
		key := visitKey{state: states[i], action: actions[i]}
		if _, ok := firstVisit[key]; !ok {
			firstVisit[key] = i
		}
	}
	G := 0.0
	for i := len(rewards) - 1; i >= 0; i-- {
		G = rewards[i] + t.cfg.Gamma*G
		key := visitKey{state: states[i], action: actions[i]}
		if firstVisit[key] != i {
			continue
		}
		current := t.qvalues.get(key.state, key.action)
		t.qvalues.set(key.state, key.action, current+t.cfg.Alpha*(G-current))
	}
}

func (t *Trainer) updateQLearning(state, action int, reward float64, next int, done bool) {
	current := t.qvalues.get(state, action)
	var nextValue float64
	if !done {
		nextValue = t.qvalues.maxValue(next)
	}
	target := reward + t.cfg.Gamma*nextValue
	t.qvalues.set(state, action, current+t.cfg.Alpha*(target-current))
}

func (t *Trainer) updateSARSA(state, action int, reward float64, next, nextAction int, done bool) {
	current := t.qvalues.get(state, action)
	var nextValue float64
	if !done {
		nextValue = t.qvalues.get(next, nextAction)
	}
	target := reward + t.cfg.Gamma*nextValue
	t.qvalues.set(state, action, current+t.cfg.Alpha*(target-current))
}

func (t *Trainer) logVisitHeatmap(episode int, visits map[int]int) {
	if t.cfg.Grid == nil || !t.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	t.log.Debug("visit heatmap", "episode", episode, "heatmap", "\n"+visitHeatmap(t.cfg.Grid, visits))
}

func visitHeatmap(grid GridProjection, visits map[int]int) string {
	rows, cols := grid.Dims()
	counts := make([][]int, rows)
	for r := range counts {
		counts[r] = make([]int, cols)
	}
	for state, n := range visits {
		r, c := grid.Cell(state)
		counts[r][c] += n
	}
	var b strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if counts[r][c] == 0 {
				b.WriteString("  . ")
			} else {
				fmt.Fprintf(&b, "%3d ", counts[r][c])
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// GreedyPolicy returns the best known action for every state.
func (t *Trainer) GreedyPolicy() []int {
	policy := make([]int, t.qvalues.states)
	for s := range policy {
		policy[s] = t.qvalues.argmax(s)
	}
	return policy
}

// QValues returns a copy of the Q table laid out state-major.
func (t *Trainer) QValues() []float64 {
	return t.qvalues.clone()
}

// StateValues returns max_a Q(s, a) for every state.
func (t *Trainer) StateValues() []float64 {
	return t.qvalues.stateValues()
}

// LoadQValues seeds the Q table, for example from a stored run.
func (t *Trainer) LoadQValues(data []float64) error {
	return t.qvalues.load(data)
}

// Env exposes the runtime the trainer steps, for evaluation after training.
func (t *Trainer) Env() *Env {
	return t.env
}

func (t *Trainer) snapshot(status string, episode, episodeSteps int, episodeReward, reward float64, success bool) Snapshot {
	return Snapshot{
		Step:              t.step,
		Episode:           episode,
		EpisodeSteps:      episodeSteps,
		EpisodeReward:     episodeReward,
		Reward:            reward,
		State:             t.env.State(),
		Action:            t.env.LastAction(),
		Success:           success,
		SuccessCount:      t.successCount,
		EpisodesCompleted: t.episodesCompleted,
		TotalReward:       t.totalReward,
		TotalSteps:        t.totalSteps,
		Epsilon:           t.agent.epsilon,
		Config:            t.cfg,
		Status:            status,
	}
}
