// Package api exposes the background analysis job service over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/compete-cli/internal/model"
	"github.com/sells-group/compete-cli/internal/store"
)

// Runner executes one research run. It never returns an error; failures
// are reported through the result status.
type Runner interface {
	Run(ctx context.Context, req model.AnalysisRequest) model.AnalysisResult
}

// Server owns the job routes and the goroutines processing submitted jobs.
type Server struct {
	store      store.Store
	runner     Runner
	reportsDir string
	origins    []string
	jobTimeout time.Duration
	states     func() map[string]string
	now        func() time.Time
	baseCtx    context.Context
	wg         sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithReportsDir sets where xlsx reports are written.
func WithReportsDir(dir string) Option {
	return func(s *Server) { s.reportsDir = dir }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithJobTimeout bounds each background job. Zero means no bound.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Server) { s.jobTimeout = d }
}

// WithBreakerStates reports circuit breaker states on the health route.
func WithBreakerStates(fn func() map[string]string) Option {
	return func(s *Server) { s.states = fn }
}

// WithBaseContext sets the parent context for background jobs.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) { s.baseCtx = ctx }
}

// New creates a Server.
func New(st store.Store, runner Runner, opts ...Option) *Server {
	s := &Server{
		store:      st,
		runner:     runner,
		reportsDir: "reports",
		origins:    []string{"*"},
		now:        time.Now,
		baseCtx:    context.Background(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/status/{id}", s.handleStatus)
		r.Get("/results/{id}", s.handleResults)
		r.Get("/download/{id}", s.handleDownload)
	})
	return r
}

// Wait blocks until every submitted job has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

// submit starts processing job in the background.
func (s *Server) submit(job *model.Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(job)
	}()
}

func (s *Server) process(job *model.Job) {
	ctx := s.baseCtx
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}
	log := zap.L().With(zap.String("job_id", job.ID))

	// Status writes use a detached context so a cancelled job still records its end state.
	bg := context.WithoutCancel(ctx)
	advance := func(status model.JobStatus, progress string) {
		if err := s.store.UpdateJobStatus(bg, job.ID, status, progress); err != nil {
			log.Warn("api: update job status", zap.String("status", string(status)), zap.Error(err))
		}
	}
	fail := func(msg string) {
		log.Error("api: job failed", zap.String("error", msg))
		if err := s.store.FailJob(bg, job.ID, msg); err != nil {
			log.Warn("api: record job failure", zap.Error(err))
		}
	}

	advance(model.JobStatusSearching, store.ProgressSearching)
	result := s.runner.Run(ctx, model.AnalysisRequest{BusinessIdea: job.BusinessIdea, Location: job.Location})
	if result.Status == model.AnalysisStatusError {
		fail(result.Error)
		return
	}

	advance(model.JobStatusAnalyzing, store.ProgressAnalyzing)
	advance(model.JobStatusGeneratingReport, store.ProgressGeneratingReport)

	path, err := writeReport(s.reportsDir, job.ID, &result)
	if err != nil {
		fail(err.Error())
		return
	}

	if err := s.store.CompleteJob(bg, job.ID, &result, path); err != nil {
		log.Error("api: complete job", zap.Error(err))
		return
	}
	log.Info("api: job completed",
		zap.Int("competitors", len(result.Competitors)),
		zap.Bool("used_fallback", result.UsedFallback),
		zap.String("report", path),
	)
}
