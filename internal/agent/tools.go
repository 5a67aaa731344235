package agent

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compete-cli/internal/lookup"
	"github.com/sells-group/compete-cli/internal/model"
	"github.com/sells-group/compete-cli/pkg/anthropic"
)

// Fixed replies for malformed fetch_pages input.
const (
	msgInvalidURLJSON = "Error: Invalid JSON format for URLs"
	msgNotURLList     = "Error: Input must be a JSON list of URLs"
)

// LeadFinder is satisfied by *lookup.Service.
type LeadFinder interface {
	Lookup(ctx context.Context, query string) lookup.Result
}

// PageExtractor is satisfied by *extract.Extractor.
type PageExtractor interface {
	ExtractAll(ctx context.Context, urls []string) []model.ExtractionResult
}

// Tools is the production Toolbox.
type Tools struct {
	leads  LeadFinder
	pages  PageExtractor
	client anthropic.Client
	cfg    Config
}

// NewTools wires the three tool backends.
func NewTools(leads LeadFinder, pages PageExtractor, client anthropic.Client, cfg Config) *Tools {
	return &Tools{leads: leads, pages: pages, client: client, cfg: cfg.withDefaults()}
}

// LookupLeads never fails; the lookup service falls back internally.
func (t *Tools) LookupLeads(ctx context.Context, query string) (string, error) {
	return t.leads.Lookup(ctx, query).Text, nil
}

// FetchAndExtract takes a JSON list of URLs and returns a JSON list of
// extraction results in the same order. Malformed input yields a fixed
// message for the model rather than an error.
func (t *Tools) FetchAndExtract(ctx context.Context, urlsJSON string) (string, error) {
	var raw any
	if err := json.Unmarshal([]byte(urlsJSON), &raw); err != nil {
		return msgInvalidURLJSON, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return msgNotURLList, nil
	}
	urls := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return msgNotURLList, nil
		}
		urls = append(urls, s)
	}

	out, err := json.MarshalIndent(t.pages.ExtractAll(ctx, urls), "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "agent: encode extraction results")
	}
	return string(out), nil
}

// Synthesize asks the model for the seven-section analysis report.
func (t *Tools) Synthesize(ctx context.Context, marketContext string) (Synthesis, error) {
	text, usage, err := complete(ctx, t.client, t.cfg, anthropic.MessageRequest{
		Messages: []anthropic.Message{{Role: "user", Content: analysisPrompt(marketContext)}},
	}, "analyze")
	if err != nil {
		return Synthesis{Usage: usage}, eris.Wrap(err, "agent: analyze market")
	}
	return Synthesis{Narrative: text, Usage: usage}, nil
}
