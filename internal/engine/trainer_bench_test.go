package engine

import (
	"context"
	"testing"

	"taxi-rl-go/internal/taxi"
)

func benchmarkEpisodes(b *testing.B, cfg Config) {
	model := taxiModel(b)
	for i := 0; i < b.N; i++ {
		trainer, err := NewTrainer(model, cfg, nil)
		if err != nil {
			b.Fatal(err)
		}
		ctx := context.Background()
		for range trainer.Run(ctx) {
		}
	}
}

func BenchmarkEpisodeMonteCarlo(b *testing.B) {
	cfg := Config{
		Episodes:     1,
		Seed:         99,
		Algorithm:    AlgorithmMonteCarlo,
		MaxSteps:     taxi.MaxEpisodeSteps,
		Epsilon:      0.2,
		EpsilonMin:   0.05,
		EpsilonDecay: 0.999,
		Alpha:        0.2,
		Gamma:        0.9,
	}
	benchmarkEpisodes(b, cfg)
}

func BenchmarkEpisodeQLearning(b *testing.B) {
	cfg := Config{
		Episodes:     1,
		Seed:         99,
		Algorithm:    AlgorithmQLearning,
		MaxSteps:     taxi.MaxEpisodeSteps,
		Epsilon:      0.2,
		EpsilonMin:   0.05,
		EpsilonDecay: 0.999,
		Alpha:        0.2,
		Gamma:        0.9,
	}
	benchmarkEpisodes(b, cfg)
}

func BenchmarkValueIteration(b *testing.B) {
	model := taxiModel(b)
	for i := 0; i < b.N; i++ {
		if _, err := ValueIteration(model, 1, 1e-9, 0); err != nil {
			b.Fatal(err)
		}
	}
}
