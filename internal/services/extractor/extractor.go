// Package extractor turns a user message into qualification facts and an intent.
//
// A keyword pass runs first. When it leaves the context incomplete, the message
// is sent to the language model for structured extraction.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/metrics"
	"mortgage-qualification-engine/internal/models"
	"mortgage-qualification-engine/internal/services/llm"
)

// Reasoning strings for results the extractor synthesises itself.
const (
	ReasoningSufficient = "context already sufficient"
	ReasoningFallback   = "fallback due to error"
)

// ErrEmptyOutput is returned when the model answers with no text.
var ErrEmptyOutput = errors.New("empty extraction output")

// Extractor extracts entities and intent from user messages.
type Extractor struct {
	generator llm.Generator
	logger    *zap.Logger
}

// New creates an extractor over the given generator.
func New(generator llm.Generator, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{generator: generator, logger: logger}
}

// Extract never fails; remote problems degrade to a mixed-intent result with no facts.
func (e *Extractor) Extract(ctx context.Context, text string, current models.UserContext) models.ExtractionResult {
	local := QuickParse(text, current)

	if Sufficient(local) {
		metrics.Extractions.WithLabelValues(metrics.SourceLocal).Inc()
		return localResult(local)
	}

	remote, err := e.extractRemote(ctx, text, current)
	if err != nil {
		metrics.Extractions.WithLabelValues(metrics.SourceFallback).Inc()
		e.logger.Warn("Extraction failed, using fallback", zap.Error(err))
		return models.ExtractionResult{
			Intent:    models.IntentMixed,
			Reasoning: ReasoningFallback,
		}
	}

	metrics.Extractions.WithLabelValues(metrics.SourceRemote).Inc()
	return foldLocal(remote, current, local)
}

// QuickParse applies keyword rules to fields that are still unknown.
// Later rules win, so "buy" beats "refinance" and "condo" beats "hdb".
// Loan size and intent are never inferred here.
func QuickParse(text string, current models.UserContext) models.UserContext {
	m := strings.ToLower(text)
	updated := current

	if !current.PropertyType.IsKnown() {
		if strings.Contains(m, "hdb") {
			updated.PropertyType = models.PropertyTypeHDB
		}
		if strings.Contains(m, "private") || strings.Contains(m, "condo") || strings.Contains(m, "landed") {
			updated.PropertyType = models.PropertyTypePrivate
		}
	}

	if !current.LoanPurpose.IsKnown() {
		if strings.Contains(m, "refinance") {
			updated.LoanPurpose = models.LoanPurposeRefinance
		}
		if strings.Contains(m, "buy") || strings.Contains(m, "purchase") {
			updated.LoanPurpose = models.LoanPurposeNewPurchase
		}
	}

	if !current.RatePreference.IsKnown() {
		if strings.Contains(m, "fixed") {
			updated.RatePreference = models.RatePreferenceFixed
		}
		if strings.Contains(m, "floating") || strings.Contains(m, "sora") {
			updated.RatePreference = models.RatePreferenceFloating
		}
	}

	return updated
}

// Sufficient reports whether the remote call can be skipped.
// Loan size is deliberately not part of this check.
func Sufficient(ctx models.UserContext) bool {
	return ctx.PropertyType.IsKnown() && ctx.LoanPurpose.IsKnown() && ctx.RatePreference.IsKnown()
}

func localResult(local models.UserContext) models.ExtractionResult {
	pt, lp, rp := local.PropertyType, local.LoanPurpose, local.RatePreference
	return models.ExtractionResult{
		PropertyType:   &pt,
		LoanPurpose:    &lp,
		RatePreference: &rp,
		Intent:         models.IntentDirect,
		Reasoning:      ReasoningSufficient,
	}
}

// foldLocal fills facts the model left empty with whatever the keyword pass found.
func foldLocal(remote models.ExtractionResult, current, local models.UserContext) models.ExtractionResult {
	if (remote.PropertyType == nil || !remote.PropertyType.IsKnown()) && local.PropertyType != current.PropertyType {
		pt := local.PropertyType
		remote.PropertyType = &pt
	}
	if (remote.LoanPurpose == nil || !remote.LoanPurpose.IsKnown()) && local.LoanPurpose != current.LoanPurpose {
		lp := local.LoanPurpose
		remote.LoanPurpose = &lp
	}
	if (remote.RatePreference == nil || !remote.RatePreference.IsKnown()) && local.RatePreference != current.RatePreference {
		rp := local.RatePreference
		remote.RatePreference = &rp
	}
	return remote
}

// rawExtraction mirrors the model's JSON before normalisation.
type rawExtraction struct {
	PropertyType   *string  `json:"propertyType"`
	LoanSize       *float64 `json:"loanSize"`
	LoanPurpose    *string  `json:"loanPurpose"`
	RatePreference *string  `json:"ratePreference"`
	LockInStatus   *string  `json:"lockInStatus"`
	Intent         string   `json:"intent"`
	Reasoning      string   `json:"reasoning"`
}

func (e *Extractor) extractRemote(ctx context.Context, text string, current models.UserContext) (models.ExtractionResult, error) {
	output, err := e.generator.Generate(ctx, llm.Request{
		Prompt:            BuildPrompt(text, current),
		SystemInstruction: SystemPrompt,
		JSON:              true,
		Schema:            responseSchema,
	})
	if err != nil {
		return models.ExtractionResult{}, fmt.Errorf("failed to call language model: %w", err)
	}

	return ParseOutput(output)
}

// ParseOutput validates and decodes the model's JSON answer.
func ParseOutput(output string) (models.ExtractionResult, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return models.ExtractionResult{}, ErrEmptyOutput
	}

	// tolerate prose or code fences around the object
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start == -1 || end < start {
		return models.ExtractionResult{}, fmt.Errorf("no JSON object in extraction output")
	}
	output = output[start : end+1]

	if err := validateOutput(output); err != nil {
		return models.ExtractionResult{}, err
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		return models.ExtractionResult{}, fmt.Errorf("failed to decode extraction output: %w", err)
	}

	result := models.ExtractionResult{
		Intent:    models.ParseIntent(raw.Intent),
		Reasoning: raw.Reasoning,
		LoanSize:  raw.LoanSize,
	}
	if raw.PropertyType != nil {
		pt := models.ParsePropertyType(*raw.PropertyType)
		result.PropertyType = &pt
	}
	if raw.LoanPurpose != nil {
		lp := models.ParseLoanPurpose(*raw.LoanPurpose)
		result.LoanPurpose = &lp
	}
	if raw.RatePreference != nil {
		rp := models.ParseRatePreference(*raw.RatePreference)
		result.RatePreference = &rp
	}
	if raw.LockInStatus != nil && strings.TrimSpace(*raw.LockInStatus) != "" {
		status := strings.TrimSpace(*raw.LockInStatus)
		result.LockInStatus = &status
	}

	return result, nil
}
