// Package run models one conversion of an AOP-Wiki export and the ledger
// that records it.
package run

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/aopwiki-graph/internal/domain/aop"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one ledger row.
type Run struct {
	ID           uuid.UUID      `json:"id"`
	Source       string         `json:"source"`
	Lexicon      string         `json:"lexicon,omitempty"`
	Status       Status         `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	Counts       map[string]int `json:"counts,omitempty"`
	GeneMentions int            `json:"gene_mentions"`
	SoftFailures int            `json:"soft_failures"`
	Outputs      []string       `json:"outputs,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// NewRun starts a run for source at now.
func NewRun(source, lexicon string, now time.Time) *Run {
	return &Run{
		ID:        uuid.New(),
		Source:    source,
		Lexicon:   lexicon,
		Status:    StatusRunning,
		StartedAt: now.UTC(),
	}
}

// Succeed records the report of a completed run.
func (r *Run) Succeed(rep *aop.Report, outputs []string, now time.Time) {
	finished := now.UTC()
	r.Status = StatusSucceeded
	r.FinishedAt = &finished
	r.Outputs = outputs
	if rep != nil {
		r.Counts = make(map[string]int, len(rep.Counts))
		for k, v := range rep.Counts {
			r.Counts[string(k)] = v
		}
		r.GeneMentions = rep.GeneMentions
		r.SoftFailures = rep.SoftFailureCount()
	}
}

// Fail records the first fatal error of the run.
func (r *Run) Fail(err error, now time.Time) {
	finished := now.UTC()
	r.Status = StatusFailed
	r.FinishedAt = &finished
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration is zero while the run is in progress.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
