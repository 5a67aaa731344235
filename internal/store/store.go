// Package store persists analysis jobs for the job service.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compete-cli/internal/model"
)

// ErrNotFound is returned when a job ID does not exist.
var ErrNotFound = eris.New("store: job not found")

// defaultListLimit caps ListJobs when the filter sets no limit.
const defaultListLimit = 100

// Store defines the persistence interface for background analysis jobs.
type Store interface {
	CreateJob(ctx context.Context, req model.AnalysisRequest) (*model.Job, error)
	UpdateJobStatus(ctx context.Context, id string, status model.JobStatus, progress string) error
	CompleteJob(ctx context.Context, id string, result *model.AnalysisResult, reportPath string) error
	FailJob(ctx context.Context, id string, message string) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context, filter model.JobFilter) ([]model.Job, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Progress messages for each job status.
const (
	ProgressStarted          = "Initializing analysis..."
	ProgressSearching        = "Searching for competitors..."
	ProgressAnalyzing        = "Analyzing competitor data..."
	ProgressGeneratingReport = "Generating report..."
	ProgressCompleted        = "Analysis completed successfully!"
	ProgressFailed           = "Analysis failed"
)

func listLimit(f model.JobFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
