// Package qualification holds the context merge policy and the state transition rules.
package qualification

import "mortgage-qualification-engine/internal/models"

// Labels used when asking the user for a missing fact.
const (
	FieldPropertyType = "Property Type (HDB or Private)"
	FieldLoanAmount   = "Loan Amount"
	FieldLoanPurpose  = "Loan Purpose (New or Refinance)"
)

// MissingFields lists the mandatory facts that are still unknown.
// Rate preference is not mandatory here; it is collected at the direction step.
func MissingFields(ctx models.UserContext) []string {
	missing := make([]string, 0, 3)
	if !ctx.PropertyType.IsKnown() {
		missing = append(missing, FieldPropertyType)
	}
	if !ctx.HasLoanSize() {
		missing = append(missing, FieldLoanAmount)
	}
	if !ctx.LoanPurpose.IsKnown() {
		missing = append(missing, FieldLoanPurpose)
	}
	return missing
}

// NextState decides where the conversation goes after a turn.
func NextState(ctx models.UserContext, intent models.Intent) models.QualificationState {
	if len(MissingFields(ctx)) > 0 {
		return models.StateFactFinding
	}

	if intent == models.IntentDirect && ctx.RatePreference.IsKnown() {
		return models.StatePackageRecommendation
	}

	if !ctx.RatePreference.IsKnown() {
		return models.StateDirectionOutput
	}

	return models.StatePackageRecommendation
}

// Merge folds an extraction into the running context.
// Known extracted values win; absent or Unknown ones leave the current value in place.
func Merge(current models.UserContext, extracted models.ExtractionResult) models.UserContext {
	merged := current

	if extracted.PropertyType != nil && extracted.PropertyType.IsKnown() {
		merged.PropertyType = *extracted.PropertyType
	}

	if extracted.LoanSize != nil && *extracted.LoanSize != 0 {
		size := *extracted.LoanSize
		merged.LoanSize = &size
	} else if current.LoanSize != nil {
		size := *current.LoanSize
		merged.LoanSize = &size
	}

	if extracted.LoanPurpose != nil && extracted.LoanPurpose.IsKnown() {
		merged.LoanPurpose = *extracted.LoanPurpose
	}

	if extracted.RatePreference != nil && extracted.RatePreference.IsKnown() {
		merged.RatePreference = *extracted.RatePreference
	}

	if extracted.LockInStatus != nil && *extracted.LockInStatus != "" {
		merged.LockInStatus = *extracted.LockInStatus
	}

	return merged
}
