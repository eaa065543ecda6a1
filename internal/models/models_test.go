package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgage-qualification-engine/internal/models"
)

func TestNewUserContext_AllUnknown(t *testing.T) {
	ctx := models.NewUserContext()

	assert.Equal(t, models.PropertyTypeUnknown, ctx.PropertyType)
	assert.Equal(t, models.LoanPurposeUnknown, ctx.LoanPurpose)
	assert.Equal(t, models.RatePreferenceUnknown, ctx.RatePreference)
	assert.Nil(t, ctx.LoanSize)
	assert.False(t, ctx.HasLoanSize())
	assert.Equal(t, float64(0), ctx.LoanAmount())
}

func TestUserContext_HasLoanSize(t *testing.T) {
	zero := float64(0)
	size := float64(650000)

	assert.False(t, models.UserContext{LoanSize: &zero}.HasLoanSize())
	assert.True(t, models.UserContext{LoanSize: &size}.HasLoanSize())
}

func TestParsePropertyType(t *testing.T) {
	tests := []struct {
		input    string
		expected models.PropertyType
	}{
		{"HDB", models.PropertyTypeHDB},
		{" hdb ", models.PropertyTypeHDB},
		{"Private", models.PropertyTypePrivate},
		{"condo", models.PropertyTypePrivate},
		{"Landed", models.PropertyTypePrivate},
		{"Unknown", models.PropertyTypeUnknown},
		{"", models.PropertyTypeUnknown},
		{"shophouse", models.PropertyTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, models.ParsePropertyType(tt.input))
		})
	}
}

func TestParseLoanPurpose(t *testing.T) {
	tests := []struct {
		input    string
		expected models.LoanPurpose
	}{
		{"New Purchase", models.LoanPurposeNewPurchase},
		{"new_purchase", models.LoanPurposeNewPurchase},
		{"new-purchase", models.LoanPurposeNewPurchase},
		{"Refinance", models.LoanPurposeRefinance},
		{"refinancing", models.LoanPurposeRefinance},
		{"Unknown", models.LoanPurposeUnknown},
		{"renovation", models.LoanPurposeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, models.ParseLoanPurpose(tt.input))
		})
	}
}

func TestParseRatePreference(t *testing.T) {
	assert.Equal(t, models.RatePreferenceFixed, models.ParseRatePreference("FIXED"))
	assert.Equal(t, models.RatePreferenceFloating, models.ParseRatePreference("floating"))
	assert.Equal(t, models.RatePreferenceFloating, models.ParseRatePreference("SORA"))
	assert.Equal(t, models.RatePreferenceUnknown, models.ParseRatePreference("variable-ish"))
}

func TestParseIntent_DefaultsToMixed(t *testing.T) {
	assert.Equal(t, models.IntentDirect, models.ParseIntent("Direct"))
	assert.Equal(t, models.IntentExploratory, models.ParseIntent("exploratory"))
	assert.Equal(t, models.IntentMixed, models.ParseIntent("mixed"))
	assert.Equal(t, models.IntentMixed, models.ParseIntent(""))
	assert.Equal(t, models.IntentMixed, models.ParseIntent("curious"))
}

func TestValidateMessageText(t *testing.T) {
	text, err := models.ValidateMessageText("  I want to refinance  ")
	require.NoError(t, err)
	assert.Equal(t, "I want to refinance", text)

	_, err = models.ValidateMessageText("   ")
	assert.ErrorIs(t, err, models.ErrEmptyMessage)
}

func TestValidateDirectionChoice(t *testing.T) {
	pref, err := models.ValidateDirectionChoice("Fixed")
	require.NoError(t, err)
	assert.Equal(t, models.RatePreferenceFixed, pref)

	pref, err = models.ValidateDirectionChoice("floating")
	require.NoError(t, err)
	assert.Equal(t, models.RatePreferenceFloating, pref)

	_, err = models.ValidateDirectionChoice("Unknown")
	assert.ErrorIs(t, err, models.ErrInvalidRatePreference)
}

func TestValidateMortgagePackage(t *testing.T) {
	valid := &models.MortgagePackage{
		ID:           "dbs-hdb-fixed-2y",
		Bank:         "DBS",
		PropertyType: "HDB",
		MinLoanSize:  100000,
		PackageName:  "2Y Fixed",
		Category:     "Fixed",
	}
	assert.NoError(t, models.ValidateMortgagePackage(valid))

	noID := *valid
	noID.ID = " "
	assert.ErrorIs(t, models.ValidateMortgagePackage(&noID), models.ErrEmptyPackageID)

	negative := *valid
	negative.MinLoanSize = -1
	assert.ErrorIs(t, models.ValidateMortgagePackage(&negative), models.ErrInvalidMinLoanSize)

	noCategory := *valid
	noCategory.Category = ""
	assert.ErrorIs(t, models.ValidateMortgagePackage(&noCategory), models.ErrInvalidPackage)
}

func TestDirectionOptions(t *testing.T) {
	options := models.DirectionOptions()
	require.Len(t, options, 2)
	assert.Equal(t, models.RatePreferenceFixed, options[0].Preference)
	assert.Equal(t, "Prioritize Stability", options[0].Title)
	assert.Equal(t, models.RatePreferenceFloating, options[1].Preference)
	assert.Equal(t, "Maximize Flexibility", options[1].Title)
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		0:         "0",
		999:       "999",
		650000:    "650,000",
		1250000:   "1,250,000",
		1250000.5: "1,250,000.5",
		12345.678: "12,345.68",
		-2500:     "-2,500",
	}
	for in, want := range tests {
		assert.Equal(t, want, models.FormatAmount(in))
	}
}
