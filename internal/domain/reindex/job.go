package reindex

import "time"

// State is the lifecycle state of a reindex job.
type State string

// Job states.
const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Report is a snapshot of a reindex job's progress and outcome.
type Report struct {
	JobID      string
	Force      bool
	State      State
	Total      int // products selected for (re)embedding
	Processed  int // successfully embedded and stored
	Errors     int // per-item failures
	Scanned    int // products examined during selection
	StartedAt  time.Time
	FinishedAt time.Time
	Err        string // fatal error message, if the run aborted
}

// SuccessRate is Processed/Total, or 0 when nothing was selected.
func (r Report) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Processed) / float64(r.Total)
}

// Remaining returns how many selected items are still pending.
func (r Report) Remaining() int {
	n := r.Total - r.Processed - r.Errors
	if n < 0 {
		return 0
	}
	return n
}

// Duration returns the run's elapsed time (up to now for running jobs).
func (r Report) Duration(now time.Time) time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	if r.FinishedAt.IsZero() {
		return now.Sub(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stats describes embedding coverage of the catalog.
type Stats struct {
	TotalProducts   int
	TotalEmbeddings int
	Missing         int // products without a usable embedding
	Stale           int // products whose embedding no longer matches content
	Dimension       int
	ModelVersion    string
}

// CoveragePercentage is the share of products with an embedding, in percent.
func (s Stats) CoveragePercentage() float64 {
	if s.TotalProducts == 0 {
		return 0
	}
	covered := s.TotalProducts - s.Missing
	if covered < 0 {
		covered = 0
	}
	return float64(covered) / float64(s.TotalProducts) * 100
}
