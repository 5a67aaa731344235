package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/compete-cli/internal/model"
)

var jobCols = []string{
	"id", "business_idea", "location", "status", "progress", "result",
	"report_path", "error", "created_at", "updated_at", "completed_at",
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS jobs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateJob(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO jobs`).
		WithArgs(pgxmock.AnyArg(), "coffee shop", "Islamabad", "started", ProgressStarted, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	job, err := s.CreateJob(context.Background(), model.AnalysisRequest{BusinessIdea: "coffee shop", Location: "Islamabad"})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobStatusStarted, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateJobStatus(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE jobs SET status`).
		WithArgs("analyzing", ProgressAnalyzing, pgxmock.AnyArg(), "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpdateJobStatus(context.Background(), "job-1", model.JobStatusAnalyzing, ProgressAnalyzing))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateJobStatus_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE jobs SET status`).
		WithArgs("analyzing", ProgressAnalyzing, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateJobStatus(context.Background(), "missing", model.JobStatusAnalyzing, ProgressAnalyzing)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CompleteJob(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE jobs SET status`).
		WithArgs("completed", ProgressCompleted, pgxmock.AnyArg(), "/reports/a.xlsx", pgxmock.AnyArg(), pgxmock.AnyArg(), "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteJob(context.Background(), "job-1", &model.AnalysisResult{Status: model.AnalysisStatusSuccess}, "/reports/a.xlsx")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FailJob(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE jobs SET status`).
		WithArgs("failed", ProgressFailed, "boom", pgxmock.AnyArg(), "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.FailJob(context.Background(), "job-1", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetJob(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	result, err := json.Marshal(model.AnalysisResult{
		Status:      model.AnalysisStatusSuccess,
		Competitors: []model.CompetitorRecord{{BusinessName: "Gym 4U", Rank: 1}},
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows(jobCols).AddRow(
			"job-1", "gym", "Lahore", "completed", ProgressCompleted, result,
			"/reports/gym.xlsx", "", now, now, &now,
		))

	job, err := s.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, "/reports/gym.xlsx", job.ReportPath)
	require.NotNil(t, job.Result)
	assert.Equal(t, "Gym 4U", job.Result.Competitors[0].BusinessName)
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, now, *job.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetJob_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetJob(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListJobs(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE 1=1 AND status = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("started", 10, 5).
		WillReturnRows(pgxmock.NewRows(jobCols).
			AddRow("a", "coffee", "Islamabad", "started", ProgressStarted, nil, "", "", now, now, nil).
			AddRow("b", "bakery", "Karachi", "started", ProgressStarted, nil, "", "", now, now, nil))

	jobs, err := s.ListJobs(context.Background(), model.JobFilter{Status: model.JobStatusStarted, Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].ID)
	assert.Nil(t, jobs[0].Result)
	assert.Nil(t, jobs[0].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListJobs_DefaultLimit(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT \$1$`).
		WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows(jobCols))

	jobs, err := s.ListJobs(context.Background(), model.JobFilter{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
