package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/compete-cli/internal/model"
)

func readSheet(path, name string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, nil
	}
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		Status:       model.AnalysisStatusSuccess,
		BusinessIdea: "coffee shop",
		Location:     "Islamabad",
		Competitors: []model.CompetitorRecord{
			{Rank: 1, BusinessName: "Espresso Lounge F-7", URL: "https://www.google.com/search?q=Espresso+Lounge+F-7", Description: "Coffee shop", Services: "Espresso", ContactInfo: "Visit website for contact details", Address: "Islamabad", PricingInfo: "Visit website for current pricing"},
			{Rank: 2, BusinessName: "Street 1 Cafe", URL: "https://www.google.com/search?q=Street+1+Cafe"},
		},
		Analysis: "# COMPETITIVE ANALYSIS REPORT\n## 1. MAJOR COMPETITORS\n1. Espresso Lounge F-7",
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name, idea, loc, want string
	}{
		{"short", "coffee shop", "Islamabad", "competitive_analysis_coffee_shop_Islamabad.xlsx"},
		{"truncated", "artisanal sourdough bakery and cafe", "Rawalpindi Cantonment", "competitive_analysis_artisanal_sourdough__Rawalpindi_Cant.xlsx"},
		{"separators", "a/b", `c\d`, "competitive_analysis_a_b_c_d.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.idea, tt.loc))
		})
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := Write(dir, "job-1", sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "job-1_competitive_analysis_coffee_shop_Islamabad.xlsx"), path)

	rows, err := readSheet(path, CompetitorsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, competitorHeader, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Espresso Lounge F-7", rows[1][1])
	assert.Equal(t, "Visit website for current pricing", rows[1][7])
	assert.Equal(t, "2", rows[2][0])

	lines, err := readSheet(path, AnalysisSheet)
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Equal(t, "Competitive analysis: coffee shop in Islamabad", lines[0][0])
	assert.Equal(t, "## 1. MAJOR COMPETITORS", lines[2][0])
}

func TestWrite_NoCompetitors(t *testing.T) {
	res := sampleResult()
	res.Competitors = nil

	path, err := Write(t.TempDir(), "job-1", res)
	require.NoError(t, err)

	rows, err := readSheet(path, CompetitorsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWrite_NilResult(t *testing.T) {
	_, err := Write(t.TempDir(), "job-1", nil)
	assert.Error(t, err)
}

func TestWrite_InvalidKey(t *testing.T) {
	for _, key := range []string{"", "../escape", `a\b`} {
		_, err := Write(t.TempDir(), key, sampleResult())
		assert.Error(t, err, key)
	}
}

func TestWrite_SamePrefixDistinctKeys(t *testing.T) {
	dir := t.TempDir()
	first := sampleResult()
	first.BusinessIdea = "coffee shop near the university"
	first.Competitors[0].BusinessName = "University Brew"
	second := sampleResult()
	second.BusinessIdea = "coffee shop near the airport"
	second.Competitors[0].BusinessName = "Airport Brew"
	require.Equal(t, Filename(first.BusinessIdea, first.Location), Filename(second.BusinessIdea, second.Location))

	p1, err := Write(dir, "job-1", first)
	require.NoError(t, err)
	p2, err := Write(dir, "job-2", second)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	rows, err := readSheet(p1, CompetitorsSheet)
	require.NoError(t, err)
	assert.Equal(t, "University Brew", rows[1][1])
	rows, err = readSheet(p2, CompetitorsSheet)
	require.NoError(t, err)
	assert.Equal(t, "Airport Brew", rows[1][1])
}
