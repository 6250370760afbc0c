// internal/qualification/tracker.go
package qualification

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"labelmatch/internal/common/logger"
	"labelmatch/internal/models"
)

const defaultStoreConcurrency = 8

// StoreOptions tunes a StoreResults call.
type StoreOptions struct {
	// JobActive is the job's current active flag, denormalized onto every row.
	JobActive bool
	// MarkNotified stamps newly stored qualifying rows as already notified,
	// for backfills that must not trigger notifications.
	MarkNotified bool
	// Via names the channel recorded when MarkNotified is set.
	Via string
}

// StoreSummary reports a batch write. Per-row failures are collected rather
// than aborting the batch; one bad row never loses the rest of an evaluation.
type StoreSummary struct {
	Stored int
	Errors []error
}

// Tracker coordinates qualification persistence for evaluation runs.
type Tracker struct {
	store       Store
	jobs        *JobStore
	concurrency int
	now         func() time.Time
	log         logger.Logger
}

func NewTracker(store Store, jobs *JobStore, log logger.Logger) *Tracker {
	return &Tracker{
		store:       store,
		jobs:        jobs,
		concurrency: defaultStoreConcurrency,
		now:         time.Now,
		log:         log,
	}
}

// StoreResults upserts one evaluation's scored results. Writes fan out under a
// bounded errgroup; each row's error is captured independently.
func (t *Tracker) StoreResults(ctx context.Context, results []models.ScoredResult, opts StoreOptions) StoreSummary {
	evaluatedAt := t.now().UTC()

	type rowErr struct {
		userID string
		err    error
	}
	errCh := make(chan rowErr, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for _, r := range results {
		r := r
		g.Go(func() error {
			q := models.FromScoredResult(r, opts.JobActive, evaluatedAt)
			if opts.MarkNotified && q.Qualifies {
				at := evaluatedAt
				q.NotifiedAt = &at
				q.NotifiedVia = opts.Via
			}
			if err := t.store.Upsert(gctx, q); err != nil {
				errCh <- rowErr{userID: r.UserID, err: err}
			}
			return nil
		})
	}
	g.Wait()
	close(errCh)

	summary := StoreSummary{Stored: len(results)}
	for re := range errCh {
		summary.Stored--
		summary.Errors = append(summary.Errors, re.err)
		t.log.WithError(re.err).Error("failed to store qualification", map[string]interface{}{
			"userId": re.userID,
		})
	}
	return summary
}

// FindNewlyQualifying returns the users who qualify for the job but have not
// been notified yet. A second call after MarkNotified returns nothing for
// those users, which is what makes notification idempotent.
func (t *Tracker) FindNewlyQualifying(ctx context.Context, jobID string) ([]models.Qualification, error) {
	return t.store.FindPendingNotification(ctx, jobID)
}

// MarkNotified stamps the pair as notified now via the given channel.
func (t *Tracker) MarkNotified(ctx context.Context, jobID, userID, via string) error {
	return t.store.MarkNotified(ctx, jobID, userID, via, t.now().UTC())
}

// SyncActiveJobs reconciles the denormalized job_active flags against the job
// catalog. Safe to run on a schedule; flipping a flag to its current value is
// a no-op.
func (t *Tracker) SyncActiveJobs(ctx context.Context) error {
	jobs, err := t.jobs.ListJobs(ctx, false)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			return t.store.SetJobActive(gctx, job.ID, job.Active)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	t.log.Debug("synced active job flags", map[string]interface{}{
		"jobs": len(jobs),
	})
	return nil
}
