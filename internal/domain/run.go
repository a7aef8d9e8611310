package domain

import "time"

type RunStatus string

const (
	RunSuccess        RunStatus = "SUCCESS"
	RunPartialSuccess RunStatus = "PARTIAL_SUCCESS"
	RunFailure        RunStatus = "FAILURE"
)

// SourceRunStats is one persisted telemetry row per source per run.
type SourceRunStats struct {
	ID            int64
	JobSourceID   int64
	RunID         string
	RunStartedAt  time.Time
	RunEndedAt    time.Time
	Status        RunStatus
	JobsFound     int
	JobsRelevant  int
	JobsProcessed int
	JobsErrored   int
	ErrorMessage  string
	DurationMs    int64
}
