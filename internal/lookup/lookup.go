// Package lookup finds competitor leads for a search query. A live provider
// is tried first; any failure falls back to the deterministic lead tables.
package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compete-cli/internal/leads"
	"github.com/sells-group/compete-cli/internal/model"
	"github.com/sells-group/compete-cli/internal/resilience"
	"github.com/sells-group/compete-cli/pkg/jina"
	"github.com/sells-group/compete-cli/pkg/perplexity"
)

// Provider names accepted in configuration.
const (
	ProviderNone       = "none"
	ProviderJina       = "jina"
	ProviderPerplexity = "perplexity"
)

// Provider is a live source of leads. Implementations return a numbered
// list of businesses as plain text.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) (string, error)
}

// Result is what a lookup produced and where it came from.
type Result struct {
	Text   string
	Source string
}

// Service looks up leads through an optional live provider guarded by a
// retry policy and a circuit breaker.
type Service struct {
	provider Provider
	breakers *resilience.ServiceBreakers
	retry    resilience.RetryConfig
}

// Option configures a Service.
type Option func(*Service)

// WithProvider sets the live provider. nil disables live lookup.
func WithProvider(p Provider) Option {
	return func(s *Service) { s.provider = p }
}

// WithBreakers shares a circuit breaker registry with other components.
func WithBreakers(b *resilience.ServiceBreakers) Option {
	return func(s *Service) { s.breakers = b }
}

// WithRetry overrides the retry policy for live calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(s *Service) { s.retry = cfg }
}

// New creates a Service. Without WithProvider every lookup is served from
// the lead tables.
func New(opts ...Option) *Service {
	s := &Service{
		breakers: resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Lookup never fails: a missing provider, a provider error, an open
// circuit, or an empty answer all yield the fallback narrative.
func (s *Service) Lookup(ctx context.Context, query string) Result {
	if s.provider != nil {
		text, err := s.live(ctx, query)
		if err == nil {
			return Result{Text: text, Source: s.provider.Name()}
		}
		zap.L().Warn("lookup: live provider failed, using lead tables",
			zap.String("provider", s.provider.Name()),
			zap.String("query", query),
			zap.Error(err),
		)
	}
	narrative, _ := leads.Generate(query)
	return Result{Text: narrative, Source: ProviderNone}
}

func (s *Service) live(ctx context.Context, query string) (string, error) {
	name := s.provider.Name()
	retry := s.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(name, "lookup")
	}
	cb := s.breakers.Get(name)

	text, err := resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (string, error) {
		return resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
			return s.provider.Search(ctx, query)
		})
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", eris.Errorf("lookup: %s returned no results", name)
	}
	return text, nil
}

// States reports the circuit state of each provider used so far.
func (s *Service) States() map[string]string {
	return s.breakers.States()
}

// JinaProvider searches with Jina AI Search.
type JinaProvider struct {
	client jina.Client
}

// NewJinaProvider wraps a Jina client.
func NewJinaProvider(c jina.Client) *JinaProvider {
	return &JinaProvider{client: c}
}

func (p *JinaProvider) Name() string { return ProviderJina }

// Search formats up to five hits as "N. Title - description (url)".
func (p *JinaProvider) Search(ctx context.Context, query string) (string, error) {
	resp, err := p.client.Search(ctx, query)
	if err != nil {
		return "", eris.Wrap(err, "lookup: jina search")
	}

	var b strings.Builder
	n := 0
	for _, r := range resp.Data {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		n++
		desc := strings.TrimSpace(r.Description)
		if desc == "" {
			desc = "No description available"
		}
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", n, title, desc, r.URL)
		if n == model.MaxCompetitorsPerRun {
			break
		}
	}
	return b.String(), nil
}

const perplexityPrompt = `List the top %d existing competitors for this search: %s
Reply only with a numbered list, one business per line, formatted as:
1. Business Name - one sentence description (website URL)`

// PerplexityProvider asks Perplexity's online model for a ranked list.
type PerplexityProvider struct {
	client perplexity.Client
}

// NewPerplexityProvider wraps a Perplexity client.
func NewPerplexityProvider(c perplexity.Client) *PerplexityProvider {
	return &PerplexityProvider{client: c}
}

func (p *PerplexityProvider) Name() string { return ProviderPerplexity }

// Search returns the model's answer verbatim.
func (p *PerplexityProvider) Search(ctx context.Context, query string) (string, error) {
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "user", Content: fmt.Sprintf(perplexityPrompt, model.MaxCompetitorsPerRun, query)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "lookup: perplexity search")
	}
	return resp.Content(), nil
}
