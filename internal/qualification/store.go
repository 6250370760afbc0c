// internal/qualification/store.go

// Package qualification persists per-(job, user) evaluation records and
// reconciles them against the job catalog. The notified timestamp is
// write-once at the SQL level so re-evaluations and concurrent runs can never
// double-notify.
package qualification

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	stderrors "labelmatch/internal/common/errors"
	"labelmatch/internal/models"
)

// Store is the persistence contract the tracker consumes.
type Store interface {
	Upsert(ctx context.Context, q models.Qualification) error
	FindByJob(ctx context.Context, jobID string) ([]models.Qualification, error)
	FindPendingNotification(ctx context.Context, jobID string) ([]models.Qualification, error)
	MarkNotified(ctx context.Context, jobID, userID, via string, at time.Time) error
	SetJobActive(ctx context.Context, jobID string, active bool) error
}

// PostgresStore implements Store on a qualifications table keyed
// (job_id, user_id).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert writes the evaluation result for the pair. The COALESCE on
// notified_at keeps an already-set notification timestamp no matter what the
// incoming row carries, in a single atomic statement.
func (s *PostgresStore) Upsert(ctx context.Context, q models.Qualification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO qualifications (
			job_id, user_id, qualifies, domain_score, task_score, final_score,
			threshold_used, filter_reason, evaluated_at, notified_at, notified_via, job_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (job_id, user_id) DO UPDATE SET
			qualifies      = EXCLUDED.qualifies,
			domain_score   = EXCLUDED.domain_score,
			task_score     = EXCLUDED.task_score,
			final_score    = EXCLUDED.final_score,
			threshold_used = EXCLUDED.threshold_used,
			filter_reason  = EXCLUDED.filter_reason,
			evaluated_at   = EXCLUDED.evaluated_at,
			notified_at    = COALESCE(qualifications.notified_at, EXCLUDED.notified_at),
			notified_via   = COALESCE(NULLIF(qualifications.notified_via, ''), EXCLUDED.notified_via),
			job_active     = EXCLUDED.job_active`,
		q.JobID, q.UserID, q.Qualifies, q.DomainScore, q.TaskScore, q.FinalScore,
		q.ThresholdUsed, q.FilterReason, q.EvaluatedAt, q.NotifiedAt, q.NotifiedVia, q.JobActive,
	)
	if err != nil {
		return stderrors.NewPersistenceError("upsert qualification", err)
	}
	return nil
}

// FindByJob returns every qualification row for a job, highest score first.
func (s *PostgresStore) FindByJob(ctx context.Context, jobID string) ([]models.Qualification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, user_id, qualifies, domain_score, task_score, final_score,
		       threshold_used, filter_reason, evaluated_at, notified_at, notified_via, job_active
		FROM qualifications
		WHERE job_id = $1
		ORDER BY final_score DESC`, jobID)
	if err != nil {
		return nil, stderrors.NewPersistenceError("find qualifications by job", err)
	}
	defer rows.Close()
	return scanQualifications(rows)
}

// FindPendingNotification returns the qualifying, not-yet-notified rows for an
// active job. Inactive jobs never notify.
func (s *PostgresStore) FindPendingNotification(ctx context.Context, jobID string) ([]models.Qualification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, user_id, qualifies, domain_score, task_score, final_score,
		       threshold_used, filter_reason, evaluated_at, notified_at, notified_via, job_active
		FROM qualifications
		WHERE job_id = $1 AND qualifies = TRUE AND notified_at IS NULL AND job_active = TRUE
		ORDER BY final_score DESC`, jobID)
	if err != nil {
		return nil, stderrors.NewPersistenceError("find pending notifications", err)
	}
	defer rows.Close()
	return scanQualifications(rows)
}

// MarkNotified sets the notification timestamp for the pair if it is not set
// yet. Losing the race to another notifier is not an error.
func (s *PostgresStore) MarkNotified(ctx context.Context, jobID, userID, via string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE qualifications
		SET notified_at = $3, notified_via = $4
		WHERE job_id = $1 AND user_id = $2 AND notified_at IS NULL`,
		jobID, userID, at, via)
	if err != nil {
		return stderrors.NewPersistenceError("mark notified", err)
	}
	return nil
}

// SetJobActive updates the denormalized job_active flag on every row of a job.
func (s *PostgresStore) SetJobActive(ctx context.Context, jobID string, active bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE qualifications SET job_active = $2 WHERE job_id = $1`,
		jobID, active)
	if err != nil {
		return stderrors.NewPersistenceError("set job active", err)
	}
	return nil
}

// FindByJobs returns rows for a set of jobs in one round trip.
func (s *PostgresStore) FindByJobs(ctx context.Context, jobIDs []string) ([]models.Qualification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, user_id, qualifies, domain_score, task_score, final_score,
		       threshold_used, filter_reason, evaluated_at, notified_at, notified_via, job_active
		FROM qualifications
		WHERE job_id = ANY($1)
		ORDER BY job_id, final_score DESC`, pq.Array(jobIDs))
	if err != nil {
		return nil, stderrors.NewPersistenceError("find qualifications by jobs", err)
	}
	defer rows.Close()
	return scanQualifications(rows)
}

func scanQualifications(rows *sql.Rows) ([]models.Qualification, error) {
	var out []models.Qualification
	for rows.Next() {
		var q models.Qualification
		var filterReason, notifiedVia sql.NullString
		var notifiedAt sql.NullTime
		if err := rows.Scan(
			&q.JobID, &q.UserID, &q.Qualifies, &q.DomainScore, &q.TaskScore, &q.FinalScore,
			&q.ThresholdUsed, &filterReason, &q.EvaluatedAt, &notifiedAt, &notifiedVia, &q.JobActive,
		); err != nil {
			return nil, stderrors.NewPersistenceError("scan qualification", err)
		}
		q.FilterReason = filterReason.String
		q.NotifiedVia = notifiedVia.String
		if notifiedAt.Valid {
			t := notifiedAt.Time
			q.NotifiedAt = &t
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewPersistenceError("iterate qualifications", err)
	}
	return out, nil
}
