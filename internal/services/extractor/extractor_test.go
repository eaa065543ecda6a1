package extractor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/services/extractor"
	"mortgage-qualification-engine/internal/services/llm"
)

type fakeGenerator struct {
	output   string
	err      error
	requests []llm.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.output, f.err
}

func TestQuickParse_Keywords(t *testing.T) {
	tests := []struct {
		text     string
		property models.PropertyType
		purpose  models.LoanPurpose
		rate     models.RatePreference
	}{
		{"I have an HDB flat", models.PropertyTypeHDB, models.LoanPurposeUnknown, models.RatePreferenceUnknown},
		{"looking at a condo", models.PropertyTypePrivate, models.LoanPurposeUnknown, models.RatePreferenceUnknown},
		{"Landed property", models.PropertyTypePrivate, models.LoanPurposeUnknown, models.RatePreferenceUnknown},
		{"moving from hdb to private", models.PropertyTypePrivate, models.LoanPurposeUnknown, models.RatePreferenceUnknown},
		{"I want to REFINANCE", models.PropertyTypeUnknown, models.LoanPurposeRefinance, models.RatePreferenceUnknown},
		{"planning to buy", models.PropertyTypeUnknown, models.LoanPurposeNewPurchase, models.RatePreferenceUnknown},
		{"refinance or purchase?", models.PropertyTypeUnknown, models.LoanPurposeNewPurchase, models.RatePreferenceUnknown},
		{"prefer fixed", models.PropertyTypeUnknown, models.LoanPurposeUnknown, models.RatePreferenceFixed},
		{"SORA pegged please", models.PropertyTypeUnknown, models.LoanPurposeUnknown, models.RatePreferenceFloating},
		{"fixed or floating", models.PropertyTypeUnknown, models.LoanPurposeUnknown, models.RatePreferenceFloating},
		{"hello there", models.PropertyTypeUnknown, models.LoanPurposeUnknown, models.RatePreferenceUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := extractor.QuickParse(tt.text, models.NewUserContext())
			assert.Equal(t, tt.property, got.PropertyType)
			assert.Equal(t, tt.purpose, got.LoanPurpose)
			assert.Equal(t, tt.rate, got.RatePreference)
			assert.Nil(t, got.LoanSize)
		})
	}
}

func TestQuickParse_DoesNotOverwriteKnownFields(t *testing.T) {
	current := models.UserContext{
		PropertyType:   models.PropertyTypeHDB,
		LoanPurpose:    models.LoanPurposeRefinance,
		RatePreference: models.RatePreferenceFixed,
	}

	got := extractor.QuickParse("actually a condo, I want to buy, floating", current)

	assert.Equal(t, current, got)
}

func TestExtract_SufficientContextSkipsRemoteCall(t *testing.T) {
	gen := &fakeGenerator{}
	ex := extractor.New(gen, zaptest.NewLogger(t))
	current := models.UserContext{
		PropertyType:   models.PropertyTypeHDB,
		LoanPurpose:    models.LoanPurposeNewPurchase,
		RatePreference: models.RatePreferenceUnknown,
	}

	result := ex.Extract(context.Background(), "I'd like fixed", current)

	assert.Empty(t, gen.requests)
	assert.Equal(t, models.IntentDirect, result.Intent)
	assert.Equal(t, extractor.ReasoningSufficient, result.Reasoning)
	require.NotNil(t, result.RatePreference)
	assert.Equal(t, models.RatePreferenceFixed, *result.RatePreference)
	assert.Nil(t, result.LoanSize)
}

func TestExtract_RemoteResult(t *testing.T) {
	gen := &fakeGenerator{output: `{"propertyType":"HDB","loanSize":700000,"loanPurpose":"New Purchase","intent":"exploratory","reasoning":"user is browsing"}`}
	ex := extractor.New(gen, zaptest.NewLogger(t))

	result := ex.Extract(context.Background(), "hdb flat, 700k loan, first home", models.NewUserContext())

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.True(t, req.JSON)
	assert.NotNil(t, req.Schema)
	assert.Equal(t, extractor.SystemPrompt, req.SystemInstruction)
	assert.True(t, strings.HasPrefix(req.Prompt, "Current Context: {"))
	assert.Contains(t, req.Prompt, `User Input: "hdb flat, 700k loan, first home"`)

	assert.Equal(t, models.IntentExploratory, result.Intent)
	require.NotNil(t, result.PropertyType)
	assert.Equal(t, models.PropertyTypeHDB, *result.PropertyType)
	require.NotNil(t, result.LoanSize)
	assert.Equal(t, float64(700000), *result.LoanSize)
	require.NotNil(t, result.LoanPurpose)
	assert.Equal(t, models.LoanPurposeNewPurchase, *result.LoanPurpose)
	assert.Nil(t, result.RatePreference)
}

func TestExtract_LocalFactsFillRemoteGaps(t *testing.T) {
	gen := &fakeGenerator{output: `{"loanSize":500000,"intent":"mixed","reasoning":"amount only"}`}
	ex := extractor.New(gen, zaptest.NewLogger(t))

	result := ex.Extract(context.Background(), "500k for my condo", models.NewUserContext())

	require.NotNil(t, result.PropertyType)
	assert.Equal(t, models.PropertyTypePrivate, *result.PropertyType)
	assert.Nil(t, result.LoanPurpose)
	assert.Nil(t, result.RatePreference)
}

func TestExtract_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"transport error", &fakeGenerator{err: errors.New("language model unavailable")}},
		{"empty output", &fakeGenerator{output: "  "}},
		{"not json", &fakeGenerator{output: "Sure! You want an HDB loan."}},
		{"schema violation", &fakeGenerator{output: `{"loanSize":"a lot","intent":"direct"}`}},
		{"missing intent", &fakeGenerator{output: `{"propertyType":"HDB"}`}},
		{"broken json", &fakeGenerator{output: `{"intent": "direct",}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := extractor.New(tt.gen, zaptest.NewLogger(t))

			result := ex.Extract(context.Background(), "my hdb", models.NewUserContext())

			assert.Equal(t, models.ExtractionResult{
				Intent:    models.IntentMixed,
				Reasoning: extractor.ReasoningFallback,
			}, result)
		})
	}
}

func TestParseOutput_NormalisesValues(t *testing.T) {
	result, err := extractor.ParseOutput("```json\n" + `{"propertyType":"private","loanPurpose":"refinance","ratePreference":"SORA","lockInStatus":" ends June ","intent":"Direct","reasoning":"r"}` + "\n```")

	require.NoError(t, err)
	assert.Equal(t, models.PropertyTypePrivate, *result.PropertyType)
	assert.Equal(t, models.LoanPurposeRefinance, *result.LoanPurpose)
	assert.Equal(t, models.RatePreferenceFloating, *result.RatePreference)
	assert.Equal(t, "ends June", *result.LockInStatus)
	assert.Equal(t, models.IntentDirect, result.Intent)
}

func TestParseOutput_NullFields(t *testing.T) {
	result, err := extractor.ParseOutput(`{"propertyType":null,"loanSize":null,"intent":"mixed","reasoning":"nothing"}`)

	require.NoError(t, err)
	assert.Nil(t, result.PropertyType)
	assert.Nil(t, result.LoanSize)
	assert.Equal(t, models.IntentMixed, result.Intent)
}

func TestParseOutput_Errors(t *testing.T) {
	_, err := extractor.ParseOutput("")
	assert.ErrorIs(t, err, extractor.ErrEmptyOutput)

	_, err = extractor.ParseOutput(`{"intent":"maybe"}`)
	assert.ErrorIs(t, err, extractor.ErrSchemaViolation)
}

func TestSufficient(t *testing.T) {
	assert.False(t, extractor.Sufficient(models.NewUserContext()))
	assert.True(t, extractor.Sufficient(models.UserContext{
		PropertyType:   models.PropertyTypePrivate,
		LoanPurpose:    models.LoanPurposeRefinance,
		RatePreference: models.RatePreferenceFloating,
	}))
}
