package agent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/compete-cli/internal/lookup"
	"github.com/sells-group/compete-cli/internal/model"
	"github.com/sells-group/compete-cli/pkg/anthropic"
)

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

type mockToolbox struct {
	mock.Mock
}

func (m *mockToolbox) LookupLeads(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

func (m *mockToolbox) FetchAndExtract(ctx context.Context, urlsJSON string) (string, error) {
	args := m.Called(ctx, urlsJSON)
	return args.String(0), args.Error(1)
}

func (m *mockToolbox) Synthesize(ctx context.Context, marketContext string) (Synthesis, error) {
	args := m.Called(ctx, marketContext)
	return args.Get(0).(Synthesis), args.Error(1)
}

type mockLeadFinder struct {
	mock.Mock
}

func (m *mockLeadFinder) Lookup(ctx context.Context, query string) lookup.Result {
	args := m.Called(ctx, query)
	return args.Get(0).(lookup.Result)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) ExtractAll(ctx context.Context, urls []string) []model.ExtractionResult {
	args := m.Called(ctx, urls)
	return args.Get(0).([]model.ExtractionResult)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:      "msg_test",
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}
