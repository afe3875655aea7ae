package ws

import "taxi-rl-go/internal/engine"

const (
	TypeStart    = "START"
	TypeStop     = "STOP"
	TypeSnapshot = "SNAPSHOT"
	TypeError    = "ERROR"
)

// StartMsg opens a training session. Zero fields keep the server defaults.
type StartMsg struct {
	Type          string `json:"type"`
	Episodes      int    `json:"episodes,omitempty"`
	Algorithm     string `json:"algorithm,omitempty"`
	Seed          int64  `json:"seed,omitempty"`
	StepDelayMs   *int   `json:"step_delay_ms,omitempty"`
	StepSnapshots *bool  `json:"step_snapshots,omitempty"`
}

type SnapshotMsg struct {
	Type     string          `json:"type"`
	Session  string          `json:"session"`
	Snapshot engine.Snapshot `json:"snapshot"`
	Frame    string          `json:"frame,omitempty"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
