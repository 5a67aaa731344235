package model

// Sentinel values stand in for business fields that could not be determined.
// A field is never left empty; it carries one of these instead.
const (
	SentinelUnknownName       = "Unknown"
	SentinelNoDescription     = "No description available"
	SentinelNoServices        = "Services not specified"
	SentinelNoContact         = "Contact information not available"
	SentinelNoAddress         = "Address not available"
	SentinelNoPricing         = "Pricing information not available"
	SentinelExtractFailed     = "Unable to extract information"
	SentinelServicesFailed    = "Unable to extract services"
	SentinelNotAvailable      = "Not available"
	SentinelContactViaWebsite = "Visit website for contact details"
	SentinelPricingViaWebsite = "Visit website for current pricing"
	MaxCompetitorsPerRun      = 5
)

// CompetitorRecord is one discovered or inferred competitor.
type CompetitorRecord struct {
	BusinessName string `json:"business_name"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	Services     string `json:"services"`
	ContactInfo  string `json:"contact_info"`
	Address      string `json:"address"`
	PricingInfo  string `json:"pricing_info"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	Rank         int    `json:"competitor_rank"`
}

// ExtractionResult is the heuristic extraction outcome for a single page.
type ExtractionResult struct {
	URL          string `json:"url"`
	BusinessName string `json:"business_name"`
	Description  string `json:"description"`
	Services     string `json:"services"`
	ContactInfo  string `json:"contact_info"`
	Address      string `json:"address"`
	PricingInfo  string `json:"pricing_info"`
	Error        string `json:"error,omitempty"`
}

// Failed reports whether the page could not be fetched.
func (r ExtractionResult) Failed() bool {
	return r.Error != ""
}

// DegradedExtraction builds the result returned when a page cannot be fetched.
func DegradedExtraction(url string, cause error) ExtractionResult {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return ExtractionResult{
		URL:          url,
		BusinessName: SentinelUnknownName,
		Description:  SentinelExtractFailed,
		Services:     SentinelServicesFailed,
		ContactInfo:  SentinelNotAvailable,
		Address:      SentinelNotAvailable,
		PricingInfo:  SentinelNotAvailable,
		Error:        "Failed to scrape: " + msg,
	}
}

// AnalysisStatus is the outcome of a single research run.
type AnalysisStatus string

const (
	AnalysisStatusSuccess AnalysisStatus = "success"
	AnalysisStatusError   AnalysisStatus = "error"
)

// AnalysisRequest is the input to a research run.
type AnalysisRequest struct {
	BusinessIdea string `json:"business_idea"`
	Location     string `json:"location"`
}

// AnalysisResult is the output of a research run. Competitors and Analysis
// are handed as-is to report rendering.
type AnalysisResult struct {
	Status       AnalysisStatus     `json:"status"`
	BusinessIdea string             `json:"business_idea"`
	Location     string             `json:"location"`
	Competitors  []CompetitorRecord `json:"competitors"`
	Analysis     string             `json:"analysis"`
	Error        string             `json:"error,omitempty"`
	UsedFallback bool               `json:"used_fallback,omitempty"`
	Usage        TokenUsage         `json:"usage"`
}
