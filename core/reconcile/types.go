package reconcile

import (
	"context"
	"time"
)

// Pass is one reconciliation routine.
type Pass interface {
	// Name returns the unique pass name (e.g. "expire").
	Name() string
	// Run performs one full pass and reports what it changed.
	Run(ctx context.Context) (Report, error)
}

// Report summarises one execution of a pass.
type Report struct {
	// Pass is the name of the pass that produced this report.
	Pass string `json:"pass"`

	// Affected counts items or products the pass changed.
	Affected int `json:"affected"`

	// Details breaks Affected down by key, usually product id.
	Details map[string]int `json:"details,omitempty"`

	// Failures lists per-key errors the pass tolerated.
	Failures []string `json:"failures,omitempty"`

	// StartedAt is when the pass began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the pass returned.
	FinishedAt time.Time `json:"finished_at"`

	// Error is set when the pass failed as a whole.
	Error string `json:"error,omitempty"`

	// Skipped is set when another process held the pass lease.
	Skipped bool `json:"skipped,omitempty"`
}

// Add records n affected entries under key.
func (r *Report) Add(key string, n int) {
	if n == 0 {
		return
	}
	if r.Details == nil {
		r.Details = make(map[string]int)
	}
	r.Details[key] += n
	r.Affected += n
}

// Fail records a tolerated failure for key.
func (r *Report) Fail(key string, err error) {
	r.Failures = append(r.Failures, key+": "+err.Error())
}

// Duration returns how long the pass ran.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type funcPass struct {
	name string
	fn   func(ctx context.Context) (Report, error)
}

func (p funcPass) Name() string { return p.name }

func (p funcPass) Run(ctx context.Context) (Report, error) { return p.fn(ctx) }

// NewPass adapts a function into a Pass.
func NewPass(name string, fn func(ctx context.Context) (Report, error)) Pass {
	return funcPass{name: name, fn: fn}
}
