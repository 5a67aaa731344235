package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compete-cli/internal/agent"
	"github.com/sells-group/compete-cli/internal/analysis"
	"github.com/sells-group/compete-cli/internal/config"
	"github.com/sells-group/compete-cli/internal/extract"
	"github.com/sells-group/compete-cli/internal/lookup"
	"github.com/sells-group/compete-cli/internal/resilience"
	"github.com/sells-group/compete-cli/internal/store"
	anthropicpkg "github.com/sells-group/compete-cli/pkg/anthropic"
	"github.com/sells-group/compete-cli/pkg/jina"
	"github.com/sells-group/compete-cli/pkg/perplexity"
)

// researchEnv holds the clients and pipeline shared by analyze, batch and serve.
type researchEnv struct {
	Pipeline *analysis.Pipeline
	Leads    *lookup.Service
}

// initResearch builds the lookup service, extractor, agent and analysis
// pipeline from cfg.
func initResearch(c *config.Config) *researchEnv {
	retry := resilience.FromRetryConfig(
		c.Retry.MaxAttempts,
		c.Retry.InitialBackoffMs,
		c.Retry.MaxBackoffMs,
		c.Retry.Multiplier,
		c.Retry.JitterFraction,
	)
	breakers := resilience.NewServiceBreakers(resilience.FromCircuitConfig(
		c.Circuit.FailureThreshold,
		c.Circuit.ResetTimeoutSecs,
	))

	leadOpts := []lookup.Option{lookup.WithBreakers(breakers), lookup.WithRetry(retry)}
	if p := leadProvider(c); p != nil {
		leadOpts = append(leadOpts, lookup.WithProvider(p))
		zap.L().Info("live lead lookup enabled", zap.String("provider", p.Name()))
	} else {
		zap.L().Debug("live lead lookup disabled, using lead tables")
	}
	leads := lookup.New(leadOpts...)

	pages := extract.New(
		extract.WithDelay(time.Duration(c.Scrape.DelayMs)*time.Millisecond),
		extract.WithTimeout(time.Duration(c.Scrape.TimeoutSecs)*time.Second),
		extract.WithUserAgent(c.Scrape.UserAgent),
		extract.WithMaxBodyBytes(int64(c.Scrape.MaxBodyKB)*1024),
	)

	client := anthropicpkg.NewClient(c.Anthropic.Key, c.Anthropic.BaseURL)
	temperature := c.Anthropic.Temperature
	agentCfg := agent.Config{
		Model:         c.Anthropic.Model,
		MaxTokens:     c.Anthropic.MaxTokens,
		Temperature:   &temperature,
		MaxIterations: c.Agent.MaxIterations,
		Retry:         retry,
	}
	tools := agent.NewTools(leads, pages, client, agentCfg)
	orchestrator := agent.New(client, tools, agentCfg)

	return &researchEnv{
		Pipeline: analysis.New(orchestrator),
		Leads:    leads,
	}
}

// leadProvider returns the configured live provider, or nil for table-only lookups.
func leadProvider(c *config.Config) lookup.Provider {
	hc := &http.Client{Timeout: time.Duration(c.Leads.TimeoutSecs) * time.Second}

	switch c.Leads.Provider {
	case config.ProviderJina:
		opts := []jina.Option{
			jina.WithHTTPClient(hc),
			// Retries happen in the lookup service.
			jina.WithRetry(resilience.RetryConfig{MaxAttempts: 1}),
		}
		if c.Jina.SearchBaseURL != "" {
			opts = append(opts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
		}
		return lookup.NewJinaProvider(jina.NewClient(c.Jina.Key, opts...))
	case config.ProviderPerplexity:
		return lookup.NewPerplexityProvider(perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
			perplexity.WithHTTPClient(hc),
		))
	default:
		return nil
	}
}

// runTimeout bounds a single research run; zero means unbounded.
func runTimeout(c *config.Config) time.Duration {
	return time.Duration(c.Agent.RunTimeoutSecs) * time.Second
}

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
