// internal/qualification/store_test.go
package qualification

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelmatch/internal/models"
)

var qualificationColumns = []string{
	"job_id", "user_id", "qualifies", "domain_score", "task_score", "final_score",
	"threshold_used", "filter_reason", "evaluated_at", "notified_at", "notified_via", "job_active",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_Upsert_PreservesNotifiedAt(t *testing.T) {
	store, mock := newMockStore(t)

	// The write-once semantics for notified_at live in the statement itself,
	// not in read-modify-write application code.
	mock.ExpectExec(regexp.QuoteMeta("COALESCE(qualifications.notified_at, EXCLUDED.notified_at)")).
		WithArgs("job-1", "user-1", true, 0.9, 0.4, 0.825, 0.5, "",
			sqlmock.AnyArg(), nil, "", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Upsert(context.Background(), models.Qualification{
		JobID:         "job-1",
		UserID:        "user-1",
		Qualifies:     true,
		DomainScore:   0.9,
		TaskScore:     0.4,
		FinalScore:    0.825,
		ThresholdUsed: 0.5,
		EvaluatedAt:   time.Now().UTC(),
		JobActive:     true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindPendingNotification(t *testing.T) {
	store, mock := newMockStore(t)

	evaluatedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("qualifies = TRUE AND notified_at IS NULL AND job_active = TRUE")).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(qualificationColumns).
			AddRow("job-1", "user-1", true, 0.9, 0.4, 0.825, 0.5, nil, evaluatedAt, nil, nil, true).
			AddRow("job-1", "user-2", true, 0.8, 0.3, 0.725, 0.5, nil, evaluatedAt, nil, nil, true))

	rows, err := store.FindPendingNotification(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "user-1", rows[0].UserID)
	assert.Nil(t, rows[0].NotifiedAt)
	assert.Empty(t, rows[0].FilterReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkNotified_OnlyWhenUnset(t *testing.T) {
	store, mock := newMockStore(t)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("notified_at IS NULL")).
		WithArgs("job-1", "user-1", at, "email").
		WillReturnResult(sqlmock.NewResult(0, 0)) // lost the race: zero rows, no error

	err := store.MarkNotified(context.Background(), "job-1", "user-1", "email", at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Upsert_WrapsDriverError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO qualifications").
		WillReturnError(assert.AnError)

	err := store.Upsert(context.Background(), models.Qualification{JobID: "j", UserID: "u"})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestJobStore_ListJobs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewJobStore(db)

	updated := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "active", "updated_at"}).
			AddRow("job-1", "Medical Reviewer", true, updated))

	jobs, err := store.ListJobs(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.True(t, jobs[0].Active)
}

func TestJobStore_SetJobActive_CascadesInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewJobStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs SET active = $2")).
		WithArgs("job-1", false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE qualifications SET job_active = $2")).
		WithArgs("job-1", false).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, store.SetJobActive(context.Background(), "job-1", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
