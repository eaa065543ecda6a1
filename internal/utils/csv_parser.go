package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"mortgage-qualification-engine/internal/models"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
)

// RequiredColumns defines the columns that must be present in a catalog CSV.
var RequiredColumns = []string{
	"id",
	"bank",
	"property_type",
	"min_loan_size",
	"package_name",
	"rates",
	"category",
}

// ColumnAliases maps alternative column names to standard names.
var ColumnAliases = map[string]string{
	"package_id": "id",
	"packageid":  "id",
	"code":       "id",

	"lender":    "bank",
	"bank_name": "bank",
	"bank name": "bank",

	"property":      "property_type",
	"propertytype":  "property_type",
	"property type": "property_type",

	"min_loan":      "min_loan_size",
	"minimum_loan":  "min_loan_size",
	"min loan size": "min_loan_size",
	"minloansize":   "min_loan_size",

	"name":         "package_name",
	"package":      "package_name",
	"package name": "package_name",

	"lock_in":        "lockin_period",
	"lock-in":        "lockin_period",
	"lockin":         "lockin_period",
	"lock in period": "lockin_period",

	"rate":           "rates",
	"interest_rate":  "rates",
	"interest rates": "rates",

	"type":      "category",
	"rate_type": "category",
	"rate type": "category",

	"feature":    "features",
	"subsidy":    "subsidies",
	"remark":     "remarks",
	"notes":      "remarks",
	"updated":    "last_updated",
	"updated_at": "last_updated",
}

// CSVParser handles parsing of mortgage package catalog files.
type CSVParser struct {
	columnMapping map[string]int
	now           func() time.Time
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{
		columnMapping: make(map[string]int),
		now:           time.Now,
	}
}

// ParsePackages parses catalog CSV content. Bad rows are reported and skipped.
func (p *CSVParser) ParsePackages(content string) ([]*models.MortgagePackage, []error) {
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	var packages []*models.MortgagePackage
	var parseErrors []error
	seen := make(map[string]int)
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		pkg, err := p.parseRow(record)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		if err := models.ValidateMortgagePackage(pkg); err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		if first, dup := seen[pkg.ID]; dup {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: duplicate package id %q (first seen on line %d)", lineNum, pkg.ID, first))
			continue
		}
		seen[pkg.ID] = lineNum

		packages = append(packages, pkg)
	}

	if len(packages) == 0 && len(parseErrors) > 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return packages, parseErrors
}

func normalizeColumn(col string) string {
	normalized := strings.ToLower(strings.TrimSpace(col))
	if alias, ok := ColumnAliases[normalized]; ok {
		return alias
	}
	return normalized
}

// buildColumnMapping creates a mapping of standard column names to their indices.
func (p *CSVParser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)

	for i, col := range header {
		p.columnMapping[normalizeColumn(col)] = i
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := p.columnMapping[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

// parseRow parses a single CSV row into a MortgagePackage.
func (p *CSVParser) parseRow(record []string) (*models.MortgagePackage, error) {
	value := func(column string) string {
		idx, ok := p.columnMapping[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	optional := func(column string) *string {
		if v := value(column); v != "" {
			return &v
		}
		return nil
	}

	minLoan, err := parseFloat(value("min_loan_size"))
	if err != nil {
		return nil, fmt.Errorf("invalid min_loan_size: %w", err)
	}

	lastUpdated := p.now().UTC()
	if raw := value("last_updated"); raw != "" {
		lastUpdated, err = parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid last_updated: %w", err)
		}
	}

	return &models.MortgagePackage{
		ID:           value("id"),
		Bank:         value("bank"),
		PropertyType: value("property_type"),
		MinLoanSize:  minLoan,
		PackageName:  value("package_name"),
		LockinPeriod: value("lockin_period"),
		Rates:        value("rates"),
		Features:     optional("features"),
		Subsidies:    optional("subsidies"),
		Remarks:      optional("remarks"),
		LastUpdated:  lastUpdated,
		Category:     value("category"),
	}, nil
}

// parseFloat parses amounts such as "S$500,000" or "$1,200,000.00".
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "SGD")
	s = strings.TrimPrefix(s, "S$")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)

	return strconv.ParseFloat(s, 64)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "02/01/2006", "2 Jan 2006"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ValidateCSVStructure performs a quick validation of CSV structure without full parsing.
func ValidateCSVStructure(content string) *CSVValidationResult {
	result := &CSVValidationResult{
		Columns:        []string{},
		MissingColumns: []string{},
		Errors:         []string{},
	}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, "empty file")
		return result
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read header: %v", err))
		return result
	}

	present := make(map[string]bool)
	for _, col := range header {
		present[normalizeColumn(col)] = true
		result.Columns = append(result.Columns, col)
	}

	for _, required := range RequiredColumns {
		if !present[required] {
			result.MissingColumns = append(result.MissingColumns, required)
		}
	}

	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row error: %v", err))
			continue
		}
		result.RowCount++
	}

	result.Valid = len(result.MissingColumns) == 0 && result.RowCount > 0

	return result
}

// CSVValidationResult contains the results of CSV validation.
type CSVValidationResult struct {
	Valid          bool     `json:"valid"`
	RowCount       int      `json:"row_count"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns"`
	Errors         []string `json:"errors"`
}
