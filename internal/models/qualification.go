// internal/models/qualification.go
package models

import "time"

// Qualification is the persisted evaluation record for one (job, user) pair,
// upserted on every re-evaluation. NotifiedAt is set once and never cleared by
// re-evaluation; only explicit mark-notified or re-notify operations touch it.
type Qualification struct {
	JobID         string     `json:"jobId"`
	UserID        string     `json:"userId"`
	Qualifies     bool       `json:"qualifies"`
	DomainScore   float64    `json:"domainScore"`
	TaskScore     float64    `json:"taskScore"`
	FinalScore    float64    `json:"finalScore"`
	ThresholdUsed float64    `json:"thresholdUsed"`
	FilterReason  string     `json:"filterReason,omitempty"`
	EvaluatedAt   time.Time  `json:"evaluatedAt"`
	NotifiedAt    *time.Time `json:"notifiedAt,omitempty"`
	NotifiedVia   string     `json:"notifiedVia,omitempty"`

	// Denormalized from the job record for fast filtering; kept in sync by
	// SyncActiveJobs whenever a job's active flag changes.
	JobActive bool `json:"jobActive"`
}

// JobRecord is the minimal job projection the tracker reconciles against.
type JobRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromScoredResult builds a Qualification row from an evaluation result.
func FromScoredResult(r ScoredResult, jobActive bool, evaluatedAt time.Time) Qualification {
	return Qualification{
		JobID:         r.JobID,
		UserID:        r.UserID,
		Qualifies:     r.AboveThreshold,
		DomainScore:   r.DomainScore,
		TaskScore:     r.TaskScore,
		FinalScore:    r.FinalScore,
		ThresholdUsed: r.ThresholdUsed,
		FilterReason:  r.FilterReason,
		EvaluatedAt:   evaluatedAt,
		JobActive:     jobActive,
	}
}
