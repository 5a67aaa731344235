// Package report renders an analysis result as a spreadsheet workbook.
package report

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/compete-cli/internal/model"
)

// Sheet names in a generated workbook.
const (
	CompetitorsSheet = "Competitors"
	AnalysisSheet    = "Analysis"
)

const (
	ideaNameLen     = 20
	locationNameLen = 15
)

var competitorHeader = []string{
	"Rank", "Business Name", "Website", "Description", "Services",
	"Contact", "Address", "Pricing",
}

// Filename returns the download name for an idea and location. It is not
// unique; saved workbooks are keyed by StoredName.
func Filename(businessIdea, location string) string {
	return "competitive_analysis_" + slug(businessIdea, ideaNameLen) + "_" + slug(location, locationNameLen) + ".xlsx"
}

func slug(s string, n int) string {
	s = strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

// StoredName returns the on-disk name of the workbook saved under key.
func StoredName(key string, result *model.AnalysisResult) string {
	return key + "_" + Filename(result.BusinessIdea, result.Location)
}

// Write renders result into dir under a name unique to key, such as a job ID,
// and returns the workbook path.
func Write(dir, key string, result *model.AnalysisResult) (string, error) {
	if result == nil {
		return "", eris.New("report: nil result")
	}
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", eris.Errorf("report: invalid key %q", key)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create dir %s", dir)
	}

	f, err := Build(result)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, StoredName(key, result))
	if err := f.Save(path); err != nil {
		return "", eris.Wrapf(err, "report: save %s", path)
	}
	return path, nil
}

// Build assembles the workbook without touching the filesystem.
func Build(result *model.AnalysisResult) (*xlsx.File, error) {
	f := xlsx.NewFile()

	comp, err := f.AddSheet(CompetitorsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "report: add competitors sheet")
	}
	header := xlsx.NewStyle()
	header.Font.Bold = true
	header.ApplyFont = true

	addRow(comp, competitorHeader, header)
	for _, c := range result.Competitors {
		addRow(comp, []string{
			strconv.Itoa(c.Rank), c.BusinessName, c.URL, c.Description,
			c.Services, c.ContactInfo, c.Address, c.PricingInfo,
		}, nil)
	}

	analysis, err := f.AddSheet(AnalysisSheet)
	if err != nil {
		return nil, eris.Wrap(err, "report: add analysis sheet")
	}
	addRow(analysis, []string{"Competitive analysis: " + result.BusinessIdea + " in " + result.Location}, header)
	for _, line := range strings.Split(result.Analysis, "\n") {
		addRow(analysis, []string{line}, nil)
	}
	return f, nil
}

func addRow(sheet *xlsx.Sheet, values []string, style *xlsx.Style) {
	row := sheet.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		cell.SetString(v)
		if style != nil {
			cell.SetStyle(style)
		}
	}
}
