package agent

import (
	"fmt"
	"regexp"
	"strings"
)

// Tool names one of the orchestrator's three operations.
type Tool string

const (
	ToolLookupLeads   Tool = "lookup_leads"
	ToolFetchPages    Tool = "fetch_pages"
	ToolAnalyzeMarket Tool = "analyze_market"
)

var allTools = []Tool{ToolLookupLeads, ToolFetchPages, ToolAnalyzeMarket}

func (t Tool) valid() bool {
	for _, known := range allTools {
		if t == known {
			return true
		}
	}
	return false
}

const (
	finalMarker       = "Final Answer:"
	observationMarker = "Observation:"
)

var actionRe = regexp.MustCompile(`(?s)Action\s*:\s*(.*?)\s*Action\s*Input\s*:\s*(.*)`)

type stepKind int

const (
	stepInvalid stepKind = iota
	stepAction
	stepFinal
)

// step is one parsed model reply. Model output is only ever matched
// against the closed tool set, never executed.
type step struct {
	kind   stepKind
	tool   Tool
	input  string
	answer string
	// problem is fed back to the model when kind is stepInvalid.
	problem string
}

// parseStep reads a model reply as either a tool call or a final answer.
func parseStep(text string) step {
	text = stripObservation(text)
	m := actionRe.FindStringSubmatch(text)
	finalAt := strings.Index(text, finalMarker)

	switch {
	case m != nil && finalAt >= 0:
		return invalid("Invalid Format: reply with either an Action or a Final Answer, not both.")
	case finalAt >= 0:
		return step{kind: stepFinal, answer: strings.TrimSpace(text[finalAt+len(finalMarker):])}
	case m == nil && strings.Contains(text, "Action:"):
		return invalid("Invalid Format: Missing 'Action Input:' after 'Action:'")
	case m == nil:
		return invalid("Invalid Format: Missing 'Action:' after 'Thought:'")
	}

	tool := Tool(strings.Trim(strings.TrimSpace(m[1]), "`*"))
	if !tool.valid() {
		return invalid(fmt.Sprintf("%s is not a valid tool, try one of [%s].", tool, toolList()))
	}
	return step{
		kind:  stepAction,
		tool:  tool,
		input: strings.Trim(strings.TrimSpace(m[2]), `"`),
	}
}

func invalid(problem string) step {
	return step{kind: stepInvalid, problem: problem}
}

// stripObservation drops anything the model wrote in place of a tool result.
func stripObservation(text string) string {
	if i := strings.Index(text, "\n"+observationMarker); i >= 0 {
		return text[:i]
	}
	return text
}

func toolList() string {
	names := make([]string, len(allTools))
	for i, t := range allTools {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
