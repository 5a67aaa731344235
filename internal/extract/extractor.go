// Package extract fetches business web pages and pulls typed fields out of
// their HTML with ordered heuristic fallbacks.
package extract

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/sells-group/compete-cli/internal/model"
)

const (
	// DefaultUserAgent mimics a desktop browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultDelay     = time.Second
	DefaultTimeout   = 10 * time.Second
	DefaultMaxBody   = 512 * 1024
)

// Extractor fetches pages one at a time and extracts business fields.
type Extractor struct {
	client    *http.Client
	delay     time.Duration
	userAgent string
	maxBody   int64
	sleep     func(context.Context, time.Duration) error
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient replaces the HTTP client. Its Timeout is left as given.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

// WithDelay sets the pause before each request.
func WithDelay(d time.Duration) Option {
	return func(e *Extractor) { e.delay = d }
}

// WithTimeout sets the per-request timeout on the current client.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.client.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithMaxBodyBytes caps how much of each response is read.
func WithMaxBodyBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBody = n
		}
	}
}

// New creates an Extractor with the default delay, timeout and User-Agent.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: DefaultTimeout,
				}).DialContext,
				TLSHandshakeTimeout: DefaultTimeout,
			},
		},
		delay:     DefaultDelay,
		userAgent: DefaultUserAgent,
		maxBody:   DefaultMaxBody,
		sleep:     sleepCtx,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract fetches pageURL and returns its business fields. Fetch failures
// come back as a degraded result with Error set, never as an error.
func (e *Extractor) Extract(ctx context.Context, pageURL string) model.ExtractionResult {
	log := zap.L().With(zap.String("url", pageURL))
	log.Info("extract: fetching page")

	doc, err := e.fetch(ctx, pageURL)
	if err != nil {
		log.Warn("extract: fetch failed", zap.Error(err))
		return model.DegradedExtraction(pageURL, err)
	}

	result := model.ExtractionResult{
		URL:          pageURL,
		BusinessName: businessName(doc, pageURL),
		Description:  description(doc),
		Services:     services(doc),
		ContactInfo:  contactInfo(doc),
		Address:      address(doc),
		PricingInfo:  pricing(doc),
	}
	log.Info("extract: page extracted", zap.String("business_name", result.BusinessName))
	return result
}

// ExtractAll extracts each URL in order. URLs without a scheme get https://.
func (e *Extractor) ExtractAll(ctx context.Context, urls []string) []model.ExtractionResult {
	results := make([]model.ExtractionResult, 0, len(urls))
	for _, u := range urls {
		results = append(results, e.Extract(ctx, NormalizeURL(u)))
	}
	return results
}

// NormalizeURL prefixes https:// when u has no http(s) scheme.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := e.sleep(ctx, e.delay); err != nil {
		return nil, eris.Wrap(err, "extract: delay")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "extract: create request")
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "extract: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "extract: read body")
	}

	if block := DetectBlock(resp, body); block != BlockNone {
		return nil, eris.Errorf("extract: blocked (%s)", block)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("extract: status %d", resp.StatusCode)
	}

	r, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, eris.Wrap(err, "extract: decode charset")
	}
	return newDocument(r)
}

// newDocument parses r and drops elements whose text never counts as page
// content.
func newDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}
	doc.Find("script, style, noscript, template").Remove()
	return doc, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
