package model

import "time"

// JobStatus is the lifecycle state of a background analysis job.
type JobStatus string

const (
	JobStatusStarted          JobStatus = "started"
	JobStatusSearching        JobStatus = "searching"
	JobStatusAnalyzing        JobStatus = "analyzing"
	JobStatusGeneratingReport JobStatus = "generating_report"
	JobStatusCompleted        JobStatus = "completed"
	JobStatusFailed           JobStatus = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a submitted analysis tracked by the job service.
type Job struct {
	ID           string          `json:"id"`
	BusinessIdea string          `json:"business_idea"`
	Location     string          `json:"location"`
	Status       JobStatus       `json:"status"`
	Progress     string          `json:"progress"`
	Result       *AnalysisResult `json:"result,omitempty"`
	ReportPath   string          `json:"report_path,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// JobFilter narrows job listings.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}
