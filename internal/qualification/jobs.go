// internal/qualification/jobs.go
package qualification

import (
	"context"
	"database/sql"

	stderrors "labelmatch/internal/common/errors"
	"labelmatch/internal/models"
)

// JobStore reads the job catalog and flips active flags, cascading the change
// into the denormalized qualification rows inside one transaction.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

// ListJobs returns all jobs, optionally only active ones.
func (s *JobStore) ListJobs(ctx context.Context, activeOnly bool) ([]models.JobRecord, error) {
	query := `SELECT id, title, active, updated_at FROM jobs`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, stderrors.NewPersistenceError("list jobs", err)
	}
	defer rows.Close()

	var out []models.JobRecord
	for rows.Next() {
		var j models.JobRecord
		if err := rows.Scan(&j.ID, &j.Title, &j.Active, &j.UpdatedAt); err != nil {
			return nil, stderrors.NewPersistenceError("scan job", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewPersistenceError("iterate jobs", err)
	}
	return out, nil
}

// SetJobActive flips a job's active flag and cascades it into the
// qualifications table in the same transaction, so the denormalized copy can
// never drift from the source row.
func (s *JobStore) SetJobActive(ctx context.Context, jobID string, active bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stderrors.NewPersistenceError("begin set job active", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET active = $2, updated_at = NOW() WHERE id = $1`,
		jobID, active); err != nil {
		return stderrors.NewPersistenceError("update job active", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE qualifications SET job_active = $2 WHERE job_id = $1`,
		jobID, active); err != nil {
		return stderrors.NewPersistenceError("cascade job active", err)
	}

	if err := tx.Commit(); err != nil {
		return stderrors.NewPersistenceError("commit set job active", err)
	}
	return nil
}
