package domain

import "encoding/json"

const (
	CHANNEL_ERROR       = "error"
	CHANNEL_INNER_STATS = "inner_stats"
	CHANNEL_OUTER_STATS = "outer_stats"
)

// PassStats is the heartbeat payload of one timed pass. The duration is
// wall-clock elapsed time in milliseconds, measured with the monotonic clock.
// Absence of updates on its channel means the agent is stuck or down.
type PassStats struct {
	UpdateDuration int64 `json:"update_duration"`
}

func (s PassStats) Encode() (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

func DecodePassStats(payload string) (PassStats, error) {
	var s PassStats
	err := json.Unmarshal([]byte(payload), &s)
	return s, err
}
