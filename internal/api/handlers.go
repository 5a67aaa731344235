package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/compete-cli/internal/model"
	"github.com/sells-group/compete-cli/internal/report"
	"github.com/sells-group/compete-cli/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var writeReport = report.Write

type analyzeResponse struct {
	ID      string          `json:"id"`
	Status  model.JobStatus `json:"status"`
	Message string          `json:"message"`
}

type statusResponse struct {
	ID          string          `json:"id"`
	Status      model.JobStatus `json:"status"`
	Progress    string          `json:"progress"`
	Error       string          `json:"error,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type resultsResponse struct {
	ID           string                   `json:"id"`
	BusinessIdea string                   `json:"business_idea"`
	Location     string                   `json:"location"`
	Competitors  []model.CompetitorRecord `json:"competitors"`
	Analysis     string                   `json:"analysis"`
	UsedFallback bool                     `json:"used_fallback,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	}
	if s.states != nil {
		body["breakers"] = s.states()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req model.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.BusinessIdea = strings.TrimSpace(req.BusinessIdea)
	req.Location = strings.TrimSpace(req.Location)

	switch {
	case req.BusinessIdea == "":
		writeError(w, http.StatusBadRequest, "Business idea is required")
		return
	case req.Location == "":
		writeError(w, http.StatusBadRequest, "Location is required")
		return
	}

	job, err := s.store.CreateJob(r.Context(), req)
	if err != nil {
		zap.L().Error("api: create job", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start analysis")
		return
	}
	s.submit(job)

	zap.L().Info("api: analysis submitted",
		zap.String("job_id", job.ID),
		zap.String("business_idea", req.BusinessIdea),
		zap.String("location", req.Location),
	)
	writeJSON(w, http.StatusOK, analyzeResponse{
		ID:      job.ID,
		Status:  job.Status,
		Message: "Analysis started",
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.JobFilter{Status: model.JobStatus(q.Get("status"))}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	jobs, err := s.store.ListJobs(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list jobs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	out := make([]statusResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toStatus(&j))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStatus(job))
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if job.Status != model.JobStatusCompleted || job.Result == nil {
		writeError(w, http.StatusBadRequest, "Analysis not completed yet")
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{
		ID:           job.ID,
		BusinessIdea: job.BusinessIdea,
		Location:     job.Location,
		Competitors:  job.Result.Competitors,
		Analysis:     job.Result.Analysis,
		UsedFallback: job.Result.UsedFallback,
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if job.Status != model.JobStatusCompleted {
		writeError(w, http.StatusBadRequest, "Analysis not completed yet")
		return
	}
	if job.ReportPath == "" {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if _, err := os.Stat(job.ReportPath); err != nil {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(job.BusinessIdea, job.Location)+`"`)
	http.ServeFile(w, r, job.ReportPath)
}

// lookup loads the job named in the URL, writing a 404 when it is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*model.Job, bool) {
	job, err := s.store.GetJob(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return nil, false
	}
	if err != nil {
		zap.L().Error("api: get job", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load analysis")
		return nil, false
	}
	return job, true
}

func toStatus(j *model.Job) statusResponse {
	return statusResponse{
		ID:          j.ID,
		Status:      j.Status,
		Progress:    j.Progress,
		Error:       j.Error,
		CompletedAt: j.CompletedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
