package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/compete-cli/internal/model"
)

const (
	maxTitleLen       = 100
	maxHeadingLen     = 50
	minSectionLen     = 50
	minParagraphLen   = 20
	maxDescriptionLen = 500
	maxServiceTextLen = 200
	maxServiceItems   = 10
	maxAddressLen     = 200
	maxPricingLen     = 100
	maxPricingItems   = 5
	pricingTableRows  = 5
	leadParagraphs    = 3
)

var (
	titleSuffixRe = regexp.MustCompile(`(?i)\s*[-|–]\s*(Home|Welcome|Official Site).*$`)
	phoneRe       = regexp.MustCompile(`(\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4})`)
	emailRe       = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	addressRe     = regexp.MustCompile(`\d+.*[A-Za-z].*\d+`)
	ratePeriodRe  = regexp.MustCompile(`(?i)\b\d+.*(?:hour|day|month|year|project)\b`)
	currencyRe    = regexp.MustCompile(`[$€£₨]|\bRs\.?\s*\d|\bPKR\b`)
)

// descriptionSelectors are tried in order after the meta description.
var descriptionSelectors = []string{
	`section[class*="about"]`,
	`div[class*="about"]`,
	`section[class*="description"]`,
	`div[class*="description"]`,
	".hero-text",
	".intro",
}

var (
	serviceClassKeywords = []string{"service", "offering", "product", "solution", "specialt"}
	serviceLinkKeywords  = []string{"service", "product", "solution"}
	addressSelectors     = []string{
		`[class*="address"]`,
		`[class*="location"]`,
		`[class*="contact"]`,
		"address",
	}
	pricingClassKeywords = []string{"price", "cost", "rate", "fee", "pricing", "$"}
	pricingTableKeywords = []string{"price", "cost", "rate", "$"}
	excludedEmailParts   = []string{"noreply", "no-reply", "example"}
)

// businessName prefers a cleaned page title, then a short h1, then the
// titleized domain.
func businessName(doc *goquery.Document, pageURL string) string {
	if t := doc.Find("title").First(); t.Length() > 0 {
		name := strings.TrimSpace(titleSuffixRe.ReplaceAllString(text(t), ""))
		if name != "" && utf8.RuneCountInString(name) < maxTitleLen {
			return name
		}
	}

	var heading string
	doc.Find("h1").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if t := text(h); t != "" && utf8.RuneCountInString(t) < maxHeadingLen {
			heading = t
			return false
		}
		return true
	})
	if heading != "" {
		return heading
	}

	if name := domainName(pageURL); name != "" {
		return name
	}
	return model.SentinelUnknownName
}

// domainName turns https://www.beanscene.pk/menu into "Beanscene".
func domainName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	host := strings.ReplaceAll(u.Hostname(), "www.", "")
	label, _, _ := strings.Cut(host, ".")
	return cases.Title(language.English).String(label)
}

func description(doc *goquery.Document) string {
	content, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	if content = strings.TrimSpace(content); content != "" {
		return content
	}

	for _, sel := range descriptionSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if t := text(el); utf8.RuneCountInString(t) > minSectionLen {
			return truncate(t, maxDescriptionLen)
		}
	}

	var parts []string
	doc.Find("p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		if i >= leadParagraphs {
			return false
		}
		if t := text(p); utf8.RuneCountInString(t) > minParagraphLen {
			parts = append(parts, t)
		}
		return true
	})
	if len(parts) == 0 {
		return model.SentinelNoDescription
	}
	return truncate(strings.Join(parts, " "), maxDescriptionLen)
}

func services(doc *goquery.Document) string {
	var found []string

	for _, kw := range serviceClassKeywords {
		doc.Find("div, section, ul").FilterFunction(classFold(kw)).Each(func(_ int, el *goquery.Selection) {
			items := el.Find("li")
			if items.Length() == 0 {
				if t := text(el); t != "" && utf8.RuneCountInString(t) < maxServiceTextLen {
					found = append(found, t)
				}
				return
			}
			items.EachWithBreak(func(i int, li *goquery.Selection) bool {
				if i >= maxServiceItems {
					return false
				}
				if t := text(li); t != "" {
					found = append(found, t)
				}
				return true
			})
		})
	}

	doc.Find("nav, ul, ol").Each(func(_ int, menu *goquery.Selection) {
		menu.Find("a").Each(func(_ int, a *goquery.Selection) {
			if t := text(a); t != "" && containsAny(strings.ToLower(t), serviceLinkKeywords) {
				found = append(found, t)
			}
		})
	})

	found = limit(dedupe(found), maxServiceItems)
	if len(found) == 0 {
		return model.SentinelNoServices
	}
	return strings.Join(found, "; ")
}

func contactInfo(doc *goquery.Document) string {
	body := text(doc.Selection)
	var parts []string

	if m := phoneRe.FindStringSubmatch(body); m != nil {
		parts = append(parts, "Phone: "+strings.TrimSpace(m[1]))
	}
	for _, email := range emailRe.FindAllString(body, -1) {
		if !containsAny(strings.ToLower(email), excludedEmailParts) {
			parts = append(parts, "Email: "+email)
			break
		}
	}

	if len(parts) == 0 {
		return model.SentinelNoContact
	}
	return strings.Join(parts, "; ")
}

func address(doc *goquery.Document) string {
	for _, sel := range addressSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			t := text(el)
			lower := strings.ToLower(t)
			if addressRe.MatchString(t) || strings.Contains(lower, "street") || strings.Contains(lower, "ave") {
				found = truncate(t, maxAddressLen)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return model.SentinelNoAddress
}

func pricing(doc *goquery.Document) string {
	var found []string

	for _, kw := range pricingClassKeywords {
		doc.Find("div, section, span, p").FilterFunction(classFold(kw)).Each(func(_ int, el *goquery.Selection) {
			if t := text(el); currencyRe.MatchString(t) || ratePeriodRe.MatchString(t) {
				found = append(found, truncate(t, maxPricingLen))
			}
		})
	}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if !containsAny(strings.ToLower(text(table)), pricingTableKeywords) {
			return
		}
		table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
			if i >= pricingTableRows {
				return false
			}
			if t := text(row); currencyRe.MatchString(t) {
				found = append(found, truncate(t, maxPricingLen))
			}
			return true
		})
	})

	found = limit(dedupe(found), maxPricingItems)
	if len(found) == 0 {
		return model.SentinelNoPricing
	}
	return strings.Join(found, "; ")
}

// text returns the text under s with whitespace collapsed.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// classFold matches elements whose class attribute contains kw, ignoring case.
func classFold(kw string) func(int, *goquery.Selection) bool {
	kw = strings.ToLower(kw)
	return func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(s.AttrOr("class", "")), kw)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// dedupe drops repeated values, keeping first occurrences in order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func limit(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
