package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCatalogCSV = `id,bank,property_type,min_loan_size,package_name,lockin_period,rates,features,subsidies,remarks,last_updated,category
dbs-hdb-2y,DBS,HDB,"100,000",2Y Fixed,2 years,2.60% p.a.,Free conversion,Legal subsidy,,2025-01-15,Fixed
ocbc-pte-sora,OCBC,Private,S$500000,3M SORA Premier,none,3M SORA + 0.25%,,,"Min 500k",2025-02-01,Floating
`

func TestCSVParser_ParsePackages_Valid(t *testing.T) {
	parser := NewCSVParser()
	packages, errs := parser.ParsePackages(validCatalogCSV)

	require.Empty(t, errs)
	require.Len(t, packages, 2)

	first := packages[0]
	assert.Equal(t, "dbs-hdb-2y", first.ID)
	assert.Equal(t, "DBS", first.Bank)
	assert.Equal(t, float64(100000), first.MinLoanSize)
	assert.Equal(t, "2 years", first.LockinPeriod)
	require.NotNil(t, first.Features)
	assert.Equal(t, "Free conversion", *first.Features)
	assert.Nil(t, first.Remarks)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), first.LastUpdated)

	second := packages[1]
	assert.Equal(t, float64(500000), second.MinLoanSize)
	assert.Nil(t, second.Features)
	require.NotNil(t, second.Remarks)
	assert.Equal(t, "Min 500k", *second.Remarks)
	assert.Equal(t, "Floating", second.Category)
}

func TestCSVParser_ColumnAliases(t *testing.T) {
	content := `Package ID,Lender,Property Type,Minimum_Loan,Package Name,Interest Rates,Rate Type
uob-hdb,UOB,HDB,200000,Fixed Advantage,2.75%,Fixed
`
	fixed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	parser := NewCSVParser()
	parser.now = func() time.Time { return fixed }

	packages, errs := parser.ParsePackages(content)

	require.Empty(t, errs)
	require.Len(t, packages, 1)
	assert.Equal(t, "uob-hdb", packages[0].ID)
	assert.Equal(t, "UOB", packages[0].Bank)
	assert.Equal(t, "2.75%", packages[0].Rates)
	assert.Equal(t, fixed, packages[0].LastUpdated)
}

func TestCSVParser_MissingColumns(t *testing.T) {
	content := "id,bank,rates\nx,DBS,2%\n"

	packages, errs := NewCSVParser().ParsePackages(content)

	assert.Nil(t, packages)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrMissingColumns))
	assert.Contains(t, errs[0].Error(), "property_type")
	assert.Contains(t, errs[0].Error(), "category")
}

func TestCSVParser_EmptyContent(t *testing.T) {
	packages, errs := NewCSVParser().ParsePackages("   ")

	assert.Nil(t, packages)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrEmptyCSV)
}

func TestCSVParser_SkipsBadRows(t *testing.T) {
	content := `id,bank,property_type,min_loan_size,package_name,rates,category
good,DBS,HDB,100000,Good,2.5%,Fixed
bad-amount,DBS,HDB,lots,Bad,2.5%,Fixed
,DBS,HDB,100000,No ID,2.5%,Fixed
good,OCBC,HDB,100000,Duplicate,2.5%,Fixed
negative,DBS,HDB,-5,Negative,2.5%,Fixed
`

	packages, errs := NewCSVParser().ParsePackages(content)

	require.Len(t, packages, 1)
	assert.Equal(t, "good", packages[0].ID)
	require.Len(t, errs, 4)
	assert.Contains(t, errs[0].Error(), "line 3")
	assert.Contains(t, errs[0].Error(), "min_loan_size")
	assert.Contains(t, errs[2].Error(), "duplicate package id")
}

func TestCSVParser_NoValidRows(t *testing.T) {
	content := `id,bank,property_type,min_loan_size,package_name,rates,category
x,DBS,HDB,abc,Bad,2.5%,Fixed
`

	packages, errs := NewCSVParser().ParsePackages(content)

	assert.Nil(t, packages)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], ErrNoDataRows)
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"500000", 500000, false},
		{"1,200,000", 1200000, false},
		{"$750,000.50", 750000.50, false},
		{"S$300000", 300000, false},
		{"SGD 450000", 450000, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidateCSVStructure(t *testing.T) {
	result := ValidateCSVStructure(validCatalogCSV)
	assert.True(t, result.Valid)
	assert.Equal(t, 2, result.RowCount)
	assert.Empty(t, result.MissingColumns)

	result = ValidateCSVStructure("bank,rates\nDBS,2%\n")
	assert.False(t, result.Valid)
	assert.Contains(t, result.MissingColumns, "id")

	result = ValidateCSVStructure("")
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "empty file")
}
