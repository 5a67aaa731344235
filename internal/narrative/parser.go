// Package narrative recovers ranked competitor records from free-text market
// analysis.
package narrative

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/compete-cli/internal/leads"
	"github.com/sells-group/compete-cli/internal/model"
)

const (
	bullet      = "•"
	minNameLen  = 3
	numberedSep = ". "
	bulletSep   = "• "
)

// ExtractNames returns competitor names from numbered or bulleted lines in
// encounter order, capped at model.MaxCompetitorsPerRun.
func ExtractNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		name, ok := nameFromLine(line)
		if !ok {
			continue
		}
		names = append(names, name)
		if len(names) == model.MaxCompetitorsPerRun {
			break
		}
	}
	return names
}

func nameFromLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsDigit(first) && !strings.HasPrefix(line, bullet) {
		return "", false
	}

	var part string
	switch {
	case strings.Contains(line, numberedSep):
		_, part, _ = strings.Cut(line, numberedSep)
	case strings.Contains(line, bulletSep):
		_, part, _ = strings.Cut(line, bulletSep)
	default:
		return "", false
	}

	if before, _, found := strings.Cut(part, " - "); found {
		part = before
	} else if before, _, found := strings.Cut(part, " ("); found {
		part = before
	}

	// Markdown emphasis around the name is not part of it.
	name := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "*_"))
	if utf8.RuneCountInString(name) < minNameLen {
		return "", false
	}
	return name, true
}

// Parse builds ranked records from text. When no names can be recovered the
// canonical names for businessIdea and location are used instead.
func Parse(text, businessIdea, location string) []model.CompetitorRecord {
	names := ExtractNames(text)
	if len(names) == 0 {
		zap.L().Info("narrative: no competitor lines found, using canonical names",
			zap.String("business_idea", businessIdea),
			zap.String("location", location),
		)
		names = leads.Names(businessIdea, location)
	}
	return Records(names, businessIdea, location)
}

// Records turns names into ranked records with resolved websites and
// boilerplate fields.
func Records(names []string, businessIdea, location string) []model.CompetitorRecord {
	if len(names) > model.MaxCompetitorsPerRun {
		names = names[:model.MaxCompetitorsPerRun]
	}
	records := make([]model.CompetitorRecord, 0, len(names))
	for i, name := range names {
		records = append(records, model.CompetitorRecord{
			BusinessName: name,
			URL:          ResolveWebsite(name),
			Description:  name + " is a well-known " + businessIdea + " business in " + location + ".",
			Services:     "Professional " + businessIdea + " services",
			ContactInfo:  model.SentinelContactViaWebsite,
			Address:      location,
			PricingInfo:  model.SentinelPricingViaWebsite,
			Category:     businessIdea,
			Location:     location,
			Rank:         i + 1,
		})
	}
	return records
}

// Format renders records as a ranked list that ExtractNames reads back.
func Format(records []model.CompetitorRecord) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%d. %s - %s\n", r.Rank, r.BusinessName, r.Description)
	}
	return b.String()
}
