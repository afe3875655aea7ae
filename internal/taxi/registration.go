package taxi

// Registration carries the parameters a host runtime needs to expose the
// environment under a name.
type Registration struct {
	ID              string  `json:"id" yaml:"id"`
	RewardThreshold float64 `json:"reward_threshold" yaml:"reward_threshold"`
	MaxEpisodeSteps int     `json:"max_episode_steps" yaml:"max_episode_steps"`
}

const (
	EnvID           = "TaxiCustom-v0"
	RewardThreshold = 8.0
	MaxEpisodeSteps = 200
)

func DefaultRegistration() Registration {
	return Registration{
		ID:              EnvID,
		RewardThreshold: RewardThreshold,
		MaxEpisodeSteps: MaxEpisodeSteps,
	}
}

// Solved reports whether an average episode return meets the threshold.
func (r Registration) Solved(meanReturn float64) bool {
	return meanReturn >= r.RewardThreshold
}
