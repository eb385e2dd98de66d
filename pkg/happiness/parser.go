// Package happiness parses World Happiness Report spreadsheets into rows
// ready for reconciliation and storage.
//
// Two workbook layouts are supported: a single sheet carrying all years with
// a Year column, and one sheet per report year where the year is inferred
// from a 4-digit substring of the sheet name. Parse failures degrade to an
// empty result at this boundary; a corrupt spreadsheet never aborts a batch.
package happiness

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/config"
	"github.com/happydata/happydata-engine/pkg/countrymap"
	"github.com/happydata/happydata-engine/pkg/models"
)

// Column headers as they appear in the published report. Header cells are
// whitespace-trimmed before lookup; the whisker columns really are
// lowercase-unspaced in the source file.
const (
	colCountryName  = "Country name"
	colYear         = "Year"
	colLadderScore  = "Ladder score"
	colUpperWhisker = "upperwhisker"
	colLowerWhisker = "lowerwhisker"
	colLogGDP       = "Explained by: Log GDP per capita"
	colSocial       = "Explained by: Social support"
	colHealthyLife  = "Explained by: Healthy life expectancy"
	colFreedom      = "Explained by: Freedom to make life choices"
	colGenerosity   = "Explained by: Generosity"
	colCorruption   = "Explained by: Perceptions of corruption"
	colDystopia     = "Dystopia + residual"
)

var yearPattern = regexp.MustCompile(`(\d{4})`)

// Parser reads World Happiness Report workbooks.
type Parser struct {
	cfg    *config.HappinessConfig
	logger *zap.Logger
}

// NewParser creates a spreadsheet parser for the configured year range.
func NewParser(cfg *config.HappinessConfig, logger *zap.Logger) *Parser {
	return &Parser{
		cfg:    cfg,
		logger: logger.Named("happiness"),
	}
}

// ParseFile reads the workbook at path. Open and parse failures are logged
// and yield an empty slice.
func (p *Parser) ParseFile(path string) []models.HappinessData {
	f, err := excelize.OpenFile(path)
	if err != nil {
		p.logger.Error("Failed to open happiness workbook",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	defer f.Close()

	return p.parseWorkbook(f)
}

// Parse reads a workbook from r. Same degradation semantics as ParseFile.
func (p *Parser) Parse(r io.Reader) []models.HappinessData {
	f, err := excelize.OpenReader(r)
	if err != nil {
		p.logger.Error("Failed to read happiness workbook", zap.Error(err))
		return nil
	}
	defer f.Close()

	return p.parseWorkbook(f)
}

func (p *Parser) parseWorkbook(f *excelize.File) []models.HappinessData {
	sheets := f.GetSheetList()
	p.logger.Info("Parsing happiness workbook", zap.Strings("sheets", sheets))

	var all []models.HappinessData
	if len(sheets) == 1 {
		// A single sheet is assumed to carry all years via its Year column.
		all = p.parseSheet(f, sheets[0], 0)
	} else {
		for _, sheet := range sheets {
			all = append(all, p.parseSheet(f, sheet, inferYear(sheet))...)
		}
	}

	p.logger.Info("Parsed happiness records", zap.Int("count", len(all)))
	return all
}

// inferYear extracts a 4-digit year from a sheet name like "2021" or
// "Data2021". Returns 0 when no year is present.
func inferYear(sheetName string) int {
	match := yearPattern.FindString(sheetName)
	if match == "" {
		return 0
	}
	year, _ := strconv.Atoi(match)
	return year
}

func (p *Parser) parseSheet(f *excelize.File, sheet string, fallbackYear int) []models.HappinessData {
	rows, err := f.GetRows(sheet)
	if err != nil {
		p.logger.Error("Failed to read sheet",
			zap.String("sheet", sheet), zap.Error(err))
		return nil
	}
	if len(rows) < 2 {
		return nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.TrimSpace(header)] = i
	}

	yearIdx, hasYearColumn := columns[colYear]
	if !hasYearColumn && fallbackYear == 0 {
		p.logger.Warn("Could not determine year for sheet, skipping",
			zap.String("sheet", sheet))
		return nil
	}

	records := make([]models.HappinessData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name := cell(colCountryName)
		if name == "" || strings.EqualFold(name, "nan") || strings.EqualFold(name, "none") {
			continue
		}
		name = countrymap.Normalize(name)

		year := fallbackYear
		if hasYearColumn {
			if parsed := parseYear(row, yearIdx); parsed != 0 {
				year = parsed
			}
		}
		if year < p.cfg.StartYear || year > p.cfg.EndYear {
			continue
		}

		record := models.HappinessData{
			CountryName:                        name,
			Year:                               year,
			LadderScore:                        safeScore(cell(colLadderScore)),
			UpperWhisker:                       safeScore(cell(colUpperWhisker)),
			LowerWhisker:                       safeScore(cell(colLowerWhisker)),
			ExplainedByLogGDPPerCapita:         safeScore(cell(colLogGDP)),
			ExplainedBySocialSupport:           safeScore(cell(colSocial)),
			ExplainedByHealthyLifeExpectancy:   safeScore(cell(colHealthyLife)),
			ExplainedByFreedomOfLifeChoices:    safeScore(cell(colFreedom)),
			ExplainedByGenerosity:              safeScore(cell(colGenerosity)),
			ExplainedByPerceptionsOfCorruption: safeScore(cell(colCorruption)),
			DystopiaPlusResidual:               safeScore(cell(colDystopia)),
		}

		// A row without a ladder score carries nothing worth keeping.
		if record.LadderScore == nil {
			continue
		}
		records = append(records, record)
	}
	return records
}

// parseYear reads the year cell, tolerating the "2021.0" shape some export
// tools produce for integer columns.
func parseYear(row []string, idx int) int {
	if idx >= len(row) {
		return 0
	}
	raw := strings.TrimSpace(row[idx])
	if raw == "" {
		return 0
	}
	if year, err := strconv.Atoi(raw); err == nil {
		return year
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(v)
	}
	return 0
}

// safeScore parses one score cell. Empty, "nan", "none", and unparsable
// cells are nil. A value of zero to six decimal places is the report's
// not-reported sentinel and is also normalized to nil.
func safeScore(raw string) *float64 {
	if raw == "" || strings.EqualFold(raw, "nan") || strings.EqualFold(raw, "none") {
		return nil
	}
	// Localized exports occasionally use a decimal comma; a comma alongside
	// a dot is a thousands separator instead.
	if strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", "")
	} else if strings.Count(raw, ",") == 1 {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	if math.Abs(v) < 0.0000005 {
		return nil
	}
	return &v
}

// FormatSummary renders an ingestion outcome for operator-facing logs.
func FormatSummary(created, updated int, unmatched []string) string {
	return fmt.Sprintf("%d created, %d updated, %d unmatched (%s)",
		created, updated, len(unmatched), countrymap.FormatUnmatched(unmatched, 10))
}
