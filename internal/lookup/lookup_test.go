package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/compete-cli/internal/resilience"
	"github.com/sells-group/compete-cli/pkg/jina"
	"github.com/sells-group/compete-cli/pkg/perplexity"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Search(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

type mockJinaClient struct {
	mock.Mock
}

func (m *mockJinaClient) Search(ctx context.Context, query string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.SearchResponse), args.Error(1)
}

type mockPerplexityClient struct {
	mock.Mock
}

func (m *mockPerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

const query = "coffee shop competitors Islamabad"

func TestLookup_NoProviderUsesTables(t *testing.T) {
	res := New().Lookup(context.Background(), query)
	assert.Equal(t, ProviderNone, res.Source)
	assert.Contains(t, res.Text, "1. Espresso Lounge F-7 - Established coffee shop serving Islamabad")
}

func TestLookup_LiveSuccess(t *testing.T) {
	p := new(mockProvider)
	p.On("Search", mock.Anything, query).Return("1. Monal Restaurant - hilltop dining (https://monal.pk)\n", nil).Once()

	res := New(WithProvider(p), WithRetry(fastRetry())).Lookup(context.Background(), query)
	assert.Equal(t, "mock", res.Source)
	assert.Contains(t, res.Text, "Monal Restaurant")
	p.AssertExpectations(t)
}

func TestLookup_TransientErrorRetriedThenFallback(t *testing.T) {
	p := new(mockProvider)
	p.On("Search", mock.Anything, query).Return("", resilience.NewTransientError(errors.New("rate limited"), 429)).Twice()

	res := New(WithProvider(p), WithRetry(fastRetry())).Lookup(context.Background(), query)
	assert.Equal(t, ProviderNone, res.Source)
	assert.Contains(t, res.Text, "Local Coffee Shop Competitors in Islamabad")
	p.AssertExpectations(t)
}

func TestLookup_EmptyAnswerFallsBack(t *testing.T) {
	p := new(mockProvider)
	p.On("Search", mock.Anything, query).Return("  \n", nil).Once()

	res := New(WithProvider(p), WithRetry(fastRetry())).Lookup(context.Background(), query)
	assert.Equal(t, ProviderNone, res.Source)
}

func TestLookup_OpenCircuitSkipsProvider(t *testing.T) {
	breakers := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	p := new(mockProvider)
	p.On("Search", mock.Anything, query).Return("", errors.New("invalid api key")).Once()

	svc := New(WithProvider(p), WithBreakers(breakers), WithRetry(fastRetry()))
	svc.Lookup(context.Background(), query)
	res := svc.Lookup(context.Background(), query)

	assert.Equal(t, ProviderNone, res.Source)
	assert.Equal(t, map[string]string{"mock": "open"}, svc.States())
	p.AssertNumberOfCalls(t, "Search", 1)
}

func TestJinaProvider_FormatsResults(t *testing.T) {
	c := new(mockJinaClient)
	c.On("Search", mock.Anything, query).Return(&jina.SearchResponse{Data: []jina.SearchResult{
		{Title: "Bean Scene", URL: "https://beanscene.pk", Description: "Specialty coffee"},
		{Title: "  ", URL: "https://skip.example"},
		{Title: "Cafe Barbera", URL: "https://barbera.pk"},
	}}, nil)

	text, err := NewJinaProvider(c).Search(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t,
		"1. Bean Scene - Specialty coffee (https://beanscene.pk)\n"+
			"2. Cafe Barbera - No description available (https://barbera.pk)\n",
		text)
}

func TestJinaProvider_CapsAtFive(t *testing.T) {
	var data []jina.SearchResult
	for i := 0; i < 8; i++ {
		data = append(data, jina.SearchResult{Title: "Shop", URL: "https://shop.example"})
	}
	c := new(mockJinaClient)
	c.On("Search", mock.Anything, query).Return(&jina.SearchResponse{Data: data}, nil)

	text, err := NewJinaProvider(c).Search(context.Background(), query)
	require.NoError(t, err)
	assert.Contains(t, text, "5. Shop")
	assert.NotContains(t, text, "6. Shop")
}

func TestJinaProvider_Error(t *testing.T) {
	c := new(mockJinaClient)
	c.On("Search", mock.Anything, query).Return(nil, errors.New("boom"))

	_, err := NewJinaProvider(c).Search(context.Background(), query)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup: jina search")
}

func TestPerplexityProvider(t *testing.T) {
	c := new(mockPerplexityClient)
	c.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req perplexity.ChatCompletionRequest) bool {
		return len(req.Messages) == 1 && req.Messages[0].Role == "user"
	})).Return(&perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: "1. Monal Restaurant - views"}}},
	}, nil)

	p := NewPerplexityProvider(c)
	assert.Equal(t, ProviderPerplexity, p.Name())
	text, err := p.Search(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, "1. Monal Restaurant - views", text)
}

func TestPerplexityProvider_Error(t *testing.T) {
	c := new(mockPerplexityClient)
	c.On("ChatCompletion", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	_, err := NewPerplexityProvider(c).Search(context.Background(), query)
	assert.ErrorContains(t, err, "lookup: perplexity search")
}
