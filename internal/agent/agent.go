// Package agent runs the research conversation: a language model chooses
// between lead lookup, page extraction and market analysis until it can
// return a narrative report.
package agent

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compete-cli/internal/model"
	"github.com/sells-group/compete-cli/internal/resilience"
	"github.com/sells-group/compete-cli/pkg/anthropic"
)

// ErrExhausted means the iteration bound was reached without a narrative.
var ErrExhausted = eris.New("agent: iteration limit reached without a narrative")

const (
	DefaultModel         = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens     = 4096
	DefaultTemperature   = 0.3
	DefaultMaxIterations = 10
)

// Config holds the model settings shared by the orchestrator and the
// analysis tool. Zero fields take the defaults above; a nil Temperature
// means DefaultTemperature, so an explicit 0 is kept.
type Config struct {
	Model         string
	MaxTokens     int64
	Temperature   *float64
	MaxIterations int
	Retry         resilience.RetryConfig
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = resilience.DefaultRetryConfig()
	}
	return c
}

// Toolbox is the closed set of operations the model may invoke.
type Toolbox interface {
	LookupLeads(ctx context.Context, query string) (string, error)
	FetchAndExtract(ctx context.Context, urlsJSON string) (string, error)
	Synthesize(ctx context.Context, marketContext string) (Synthesis, error)
}

// Synthesis is the analysis tool's narrative and what it cost.
type Synthesis struct {
	Narrative string
	Usage     model.TokenUsage
}

// Outcome is the result of a run. Usage covers every model call made,
// including the analysis tool's.
type Outcome struct {
	Narrative string
	Rounds    int
	Usage     model.TokenUsage
}

// Orchestrator drives one research conversation per Run. It holds no
// per-run state and is safe for concurrent use.
type Orchestrator struct {
	client anthropic.Client
	tools  Toolbox
	cfg    Config
}

// New creates an Orchestrator.
func New(client anthropic.Client, tools Toolbox, cfg Config) *Orchestrator {
	return &Orchestrator{client: client, tools: tools, cfg: cfg.withDefaults()}
}

// session is the turn history of a single run.
type session struct {
	messages      []anthropic.Message
	rounds        int
	lastSynthesis string
	usage         model.TokenUsage
}

func (s *session) outcome(narrative string) Outcome {
	return Outcome{Narrative: narrative, Rounds: s.rounds, Usage: s.usage}
}

// record appends the model's reply and the observation it produced.
func (s *session) record(reply, observation string) {
	if strings.TrimSpace(reply) == "" {
		reply = "Thought: (no reply)"
	}
	s.messages = append(s.messages,
		anthropic.Message{Role: "assistant", Content: reply},
		anthropic.Message{Role: "user", Content: observationMarker + " " + observation},
	)
}

// Run researches businessIdea in location. It returns ErrExhausted when
// the iteration bound is hit before any narrative exists; the latest
// analysis tool output counts as a narrative.
func (o *Orchestrator) Run(ctx context.Context, businessIdea, location string) (Outcome, error) {
	log := zap.L().With(
		zap.String("business_idea", businessIdea),
		zap.String("location", location),
	)
	s := &session{
		messages: []anthropic.Message{{Role: "user", Content: researchPrompt(businessIdea, location)}},
	}

	for s.rounds < o.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return s.outcome(""), eris.Wrap(err, "agent: run cancelled")
		}
		s.rounds++

		reply, usage, err := complete(ctx, o.client, o.cfg, anthropic.MessageRequest{
			System:        anthropic.BuildCachedSystemBlocks(systemPrompt),
			Messages:      s.messages,
			StopSequences: []string{"\n" + observationMarker},
		}, "orchestrate")
		s.usage.Add(usage)
		if err != nil {
			if s.lastSynthesis != "" && ctx.Err() == nil {
				log.Warn("agent: model call failed, using last analysis", zap.Int("rounds", s.rounds), zap.Error(err))
				return s.outcome(s.lastSynthesis), nil
			}
			return s.outcome(""), eris.Wrap(err, "agent: model call")
		}

		st := parseStep(reply)
		var observation string
		switch st.kind {
		case stepFinal:
			narrative := st.answer
			if narrative == "" {
				narrative = s.lastSynthesis
			}
			if narrative != "" {
				log.Info("agent: final answer", zap.Int("rounds", s.rounds))
				return s.outcome(narrative), nil
			}
			observation = "Final Answer was empty. Use analyze_market to write the report first."
		case stepAction:
			log.Debug("agent: tool call", zap.String("tool", string(st.tool)), zap.Int("round", s.rounds))
			observation = o.dispatch(ctx, s, st)
		default:
			log.Debug("agent: unparseable reply", zap.String("problem", st.problem), zap.Int("round", s.rounds))
			observation = st.problem
		}
		s.record(reply, observation)
	}

	if s.lastSynthesis != "" {
		log.Warn("agent: iteration limit reached, using last analysis", zap.Int("rounds", s.rounds))
		return s.outcome(s.lastSynthesis), nil
	}
	log.Warn("agent: iteration limit reached", zap.Int("rounds", s.rounds))
	return s.outcome(""), ErrExhausted
}

// dispatch runs a tool. Tool failures become observations.
func (o *Orchestrator) dispatch(ctx context.Context, s *session, st step) string {
	var (
		out string
		err error
	)
	switch st.tool {
	case ToolLookupLeads:
		out, err = o.tools.LookupLeads(ctx, st.input)
	case ToolFetchPages:
		out, err = o.tools.FetchAndExtract(ctx, st.input)
	case ToolAnalyzeMarket:
		var syn Synthesis
		syn, err = o.tools.Synthesize(ctx, st.input)
		s.usage.Add(syn.Usage)
		if err == nil && strings.TrimSpace(syn.Narrative) != "" {
			s.lastSynthesis = syn.Narrative
		}
		out = syn.Narrative
	}
	if err != nil {
		zap.L().Warn("agent: tool failed", zap.String("tool", string(st.tool)), zap.Error(err))
		return "Error: " + err.Error()
	}
	return out
}

// complete sends one request with retries and returns its text and usage.
func complete(ctx context.Context, client anthropic.Client, cfg Config, req anthropic.MessageRequest, phase string) (string, model.TokenUsage, error) {
	temp := *cfg.Temperature
	req.Model = cfg.Model
	req.MaxTokens = cfg.MaxTokens
	req.Temperature = &temp

	retry := cfg.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("anthropic", phase)
	}
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return client.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", model.TokenUsage{}, err
	}

	resp.Usage.LogCost(cfg.Model, phase)
	return resp.Text(), model.TokenUsage{
		InputTokens:         int(resp.Usage.InputTokens),
		OutputTokens:        int(resp.Usage.OutputTokens),
		CacheCreationTokens: int(resp.Usage.CacheCreationInputTokens),
		CacheReadTokens:     int(resp.Usage.CacheReadInputTokens),
		Cost:                resp.Usage.EstimateCost(cfg.Model),
	}, nil
}
