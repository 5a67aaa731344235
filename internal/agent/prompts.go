package agent

import "fmt"

const systemPrompt = `You are a market research assistant that studies the competitive landscape for new businesses.

You can use these tools:

lookup_leads: Find competitors for a business type and location. Input is a search query such as "coffee shop competitors Islamabad". Returns a ranked list of local competitors and notes on the market.
fetch_pages: Fetch competitor websites and extract business details. Input is a JSON list of URLs, for example ["https://www.example.com"]. Returns a JSON list with one record per URL.
analyze_market: Write a full competitive analysis report. Input is the business context plus everything you have learned about the competitors.

To use a tool, reply in exactly this format and then stop writing:

Thought: what you plan to do next
Action: one of [lookup_leads, fetch_pages, analyze_market]
Action Input: the tool input

The tool result arrives in the next message, starting with "Observation:".

When the report is ready, reply in this format:

Thought: I have the final report
Final Answer: the complete report`

// researchPrompt opens a run for one business idea and location.
func researchPrompt(businessIdea, location string) string {
	return fmt.Sprintf(`I need you to research the competitive landscape for a %[1]s business in %[2]s.

Follow these steps:
1. Use lookup_leads to study the market for "%[3]s".
2. If the results list competitor websites, use fetch_pages on them to collect details.
3. Use analyze_market with everything you found to produce a comprehensive analysis with:
   - 3-5 major competitor names and profiles
   - Market saturation and competition level
   - Pricing strategies and service offerings
   - Market opportunities and gaps
   - Strategic positioning recommendations
   - Actionable business insights
4. Return the complete report as your Final Answer.

Name specific competitors in a numbered list and give detailed analysis for each.`,
		businessIdea, location, LeadQuery(businessIdea, location))
}

// LeadQuery is the lead search query for a business idea and location.
func LeadQuery(businessIdea, location string) string {
	return businessIdea + " competitors " + location
}

// analysisPrompt asks for the seven-section competitive analysis report.
func analysisPrompt(marketContext string) string {
	return fmt.Sprintf(`Based on the following market information: %s

Provide a comprehensive competitive analysis with this structure:

# COMPETITIVE ANALYSIS REPORT

## 1. MAJOR COMPETITORS
List 3-5 specific competitor names (real or typical for this market) as a numbered list, each followed by " - " and a brief description.

## 2. MARKET OVERVIEW
- Market saturation level
- Competition intensity
- Market size and growth trends

## 3. COMPETITOR PROFILES
For each major competitor, analyze:
- Business model and positioning
- Pricing strategy
- Key strengths and weaknesses
- Market share and customer base

## 4. MARKET GAPS AND OPPORTUNITIES
- Underserved customer segments
- Service gaps in the market
- Emerging trends and opportunities

## 5. COMPETITIVE POSITIONING STRATEGY
- Recommended market positioning
- Differentiation opportunities
- Pricing strategy recommendations

## 6. SUCCESS FACTORS AND CHALLENGES
- Key factors for success in this market
- Main barriers to entry
- Potential risks and mitigation strategies

## 7. ACTIONABLE RECOMMENDATIONS
- Specific steps to enter the market
- Timeline and milestones
- Resource requirements

Format the response with clear headings and bullet points.`, marketContext)
}
