// Package analysis turns a business idea and location into an
// AnalysisResult: it runs the research agent, substitutes the lead-table
// narrative when the agent cannot produce one, and parses the narrative
// into competitor records.
package analysis

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compete-cli/internal/agent"
	"github.com/sells-group/compete-cli/internal/leads"
	"github.com/sells-group/compete-cli/internal/model"
	"github.com/sells-group/compete-cli/internal/narrative"
)

// Researcher produces a narrative report. *agent.Orchestrator satisfies it.
type Researcher interface {
	Run(ctx context.Context, businessIdea, location string) (agent.Outcome, error)
}

// Pipeline runs research requests. It keeps no state between runs.
type Pipeline struct {
	researcher Researcher
}

// New creates a Pipeline. A nil researcher serves every request from the
// lead tables.
func New(r Researcher) *Pipeline {
	return &Pipeline{researcher: r}
}

// Run always returns a result. Agent failures other than cancellation fall
// back to the lead-table narrative with status success. Cancellation and
// panics produce status error with no competitors.
func (p *Pipeline) Run(ctx context.Context, req model.AnalysisRequest) (res model.AnalysisResult) {
	log := zap.L().With(
		zap.String("business_idea", req.BusinessIdea),
		zap.String("location", req.Location),
	)
	defer func() {
		if r := recover(); r != nil {
			log.Error("analysis: panic during research", zap.Any("panic", r))
			res = Failed(req, eris.Errorf("analysis: panic: %v", r))
		}
	}()

	var (
		out agent.Outcome
		err error
	)
	if p.researcher != nil {
		out, err = p.researcher.Run(ctx, req.BusinessIdea, req.Location)
	} else {
		err = eris.New("analysis: no researcher configured")
	}

	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		log.Warn("analysis: cancelled", zap.Error(ctxErr))
		res = Failed(req, ctxErr)
		res.Usage = out.Usage
		return res
	}

	text := out.Narrative
	usedFallback := false
	if err != nil || text == "" {
		log.Warn("analysis: research failed, using lead tables", zap.Error(err))
		text, _ = leads.Generate(agent.LeadQuery(req.BusinessIdea, req.Location))
		usedFallback = true
	}

	competitors := narrative.Parse(text, req.BusinessIdea, req.Location)
	log.Info("analysis: complete",
		zap.Int("competitors", len(competitors)),
		zap.Bool("used_fallback", usedFallback),
		zap.Int("rounds", out.Rounds),
		zap.Float64("cost_usd", out.Usage.Cost),
	)
	return model.AnalysisResult{
		Status:       model.AnalysisStatusSuccess,
		BusinessIdea: req.BusinessIdea,
		Location:     req.Location,
		Competitors:  competitors,
		Analysis:     text,
		UsedFallback: usedFallback,
		Usage:        out.Usage,
	}
}

// Failed is the result for an unrecoverable error.
func Failed(req model.AnalysisRequest, cause error) model.AnalysisResult {
	return model.AnalysisResult{
		Status:       model.AnalysisStatusError,
		BusinessIdea: req.BusinessIdea,
		Location:     req.Location,
		Competitors:  []model.CompetitorRecord{},
		Analysis:     fmt.Sprintf("Error occurred during research: %v", cause),
		Error:        cause.Error(),
	}
}
