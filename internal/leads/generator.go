// Package leads produces deterministic competitor leads for a business
// category and location without touching the network.
package leads

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// NamesPerTable is the number of canonical names every table row carries.
const NamesPerTable = 5

//go:embed data/tables.yaml
var tablesYAML []byte

// Location is a known market location.
type Location struct {
	Key     string `yaml:"key"`
	Display string `yaml:"display"`
}

// Category is a business category with its match keywords and name tables.
type Category struct {
	Key      string              `yaml:"key"`
	Label    string              `yaml:"label"`
	Keywords []string            `yaml:"keywords"`
	Names    map[string][]string `yaml:"names"`
}

// Tables holds the static lead data.
type Tables struct {
	DefaultCategory string     `yaml:"default_category"`
	DefaultLabel    string     `yaml:"default_label"`
	GenericLocation string     `yaml:"generic_location"`
	Locations       []Location `yaml:"locations"`
	Categories      []Category `yaml:"categories"`
}

// Classification is the outcome of matching a query against the tables.
type Classification struct {
	Category string
	Label    string
	Location string
	Names    []string
}

var (
	tablesOnce sync.Once
	tables     *Tables
	tablesErr  error
)

// ParseTables decodes and validates lead tables.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "leads: parse tables")
	}
	if t.category(t.DefaultCategory) == nil {
		return nil, eris.Errorf("leads: default category %q not defined", t.DefaultCategory)
	}
	for _, c := range t.Categories {
		if _, ok := c.Names["generic"]; !ok {
			return nil, eris.Errorf("leads: category %q has no generic names", c.Key)
		}
		for loc, names := range c.Names {
			if len(names) != NamesPerTable {
				return nil, eris.Errorf("leads: category %q location %q has %d names, want %d", c.Key, loc, len(names), NamesPerTable)
			}
		}
	}
	return &t, nil
}

// Default returns the embedded tables, parsed once.
func Default() *Tables {
	tablesOnce.Do(func() {
		tables, tablesErr = ParseTables(tablesYAML)
	})
	if tablesErr != nil {
		panic(tablesErr)
	}
	return tables
}

func (t *Tables) category(key string) *Category {
	for i := range t.Categories {
		if t.Categories[i].Key == key {
			return &t.Categories[i]
		}
	}
	return nil
}

// matchCategory returns the first category whose keywords occur in text.
func (t *Tables) matchCategory(text string) (*Category, string) {
	lower := strings.ToLower(text)
	for i := range t.Categories {
		for _, kw := range t.Categories[i].Keywords {
			if strings.Contains(lower, kw) {
				return &t.Categories[i], t.Categories[i].Label
			}
		}
	}
	return t.category(t.DefaultCategory), t.DefaultLabel
}

// matchLocation returns the first known location occurring in text.
func (t *Tables) matchLocation(text string) (Location, bool) {
	lower := strings.ToLower(text)
	for _, loc := range t.Locations {
		if strings.Contains(lower, loc.Key) {
			return loc, true
		}
	}
	return Location{}, false
}

// Classify matches a single free-text query for both category and location.
func (t *Tables) Classify(query string) Classification {
	return t.classify(query, query)
}

func (t *Tables) classify(categoryText, locationText string) Classification {
	cat, label := t.matchCategory(categoryText)
	c := Classification{
		Category: cat.Key,
		Label:    label,
		Location: t.GenericLocation,
		Names:    cat.Names["generic"],
	}
	if loc, ok := t.matchLocation(locationText); ok {
		c.Location = loc.Display
		if names, ok := cat.Names[loc.Key]; ok {
			c.Names = names
		}
	}
	c.Names = append([]string(nil), c.Names...)
	return c
}

// Generate classifies query and returns the competitor narrative together
// with the five names it lists.
func Generate(query string) (string, []string) {
	c := Default().Classify(query)
	return Narrative(c), c.Names
}

// Names returns the canonical names for a business idea and location, each
// classified on its own text.
func Names(businessIdea, location string) []string {
	return Default().classify(businessIdea, location).Names
}

// Narrative renders the ranked list and market boilerplate for c.
func Narrative(c Classification) string {
	title := cases.Title(language.English).String(c.Label)

	var b strings.Builder
	fmt.Fprintf(&b, "Local %s Competitors in %s:\n\n", title, c.Location)
	b.WriteString("MAJOR COMPETITORS IDENTIFIED:\n")
	for i, name := range c.Names {
		fmt.Fprintf(&b, "%d. %s - Established %s serving %s\n", i+1, name, c.Label, c.Location)
	}
	b.WriteString("\nMARKET ANALYSIS:\n")
	fmt.Fprintf(&b, "• Market Type: %s industry in %s\n", title, c.Location)
	b.WriteString("• Competition Level: Moderate to High\n")
	b.WriteString("• Market Characteristics:\n")
	for _, line := range marketCharacteristics {
		b.WriteString("  - " + line + "\n")
	}
	b.WriteString("\nCOMPETITOR CATEGORIES:\n")
	for _, line := range competitorCategories {
		b.WriteString("• " + line + "\n")
	}
	fmt.Fprintf(&b, "\nThis provides a foundation for detailed competitive analysis of the %s market in %s.", c.Label, c.Location)
	return b.String()
}

var marketCharacteristics = []string{
	"Mix of established brands and local independents",
	"Price competition across budget to premium segments",
	"Location-based competitive advantages",
	"Growing demand for quality service",
	"Digital presence becoming increasingly important",
}

var competitorCategories = []string{
	"Established Chain Competitors: Well-known brands with multiple locations",
	"Local Independent Competitors: Family-owned businesses with loyal customer base",
	"Premium Competitors: Higher-end establishments targeting affluent customers",
	"Budget-Friendly Competitors: Cost-conscious options for price-sensitive customers",
	"Emerging Competitors: New entrants with modern approaches and digital focus",
}
