// Package models defines the data structures for the mortgage qualification engine.
package models

import (
	"strconv"
	"strings"
)

// PropertyType represents the kind of property the loan is for.
type PropertyType string

const (
	PropertyTypeHDB     PropertyType = "HDB"
	PropertyTypePrivate PropertyType = "Private"
	PropertyTypeUnknown PropertyType = "Unknown"
)

// IsKnown reports whether the property type has been established.
func (p PropertyType) IsKnown() bool {
	return p == PropertyTypeHDB || p == PropertyTypePrivate
}

// LoanPurpose represents why the user needs the loan.
type LoanPurpose string

const (
	LoanPurposeNewPurchase LoanPurpose = "New Purchase"
	LoanPurposeRefinance   LoanPurpose = "Refinance"
	LoanPurposeUnknown     LoanPurpose = "Unknown"
)

// IsKnown reports whether the loan purpose has been established.
func (l LoanPurpose) IsKnown() bool {
	return l == LoanPurposeNewPurchase || l == LoanPurposeRefinance
}

// RatePreference represents the user's interest rate leaning.
type RatePreference string

const (
	RatePreferenceFixed    RatePreference = "Fixed"
	RatePreferenceFloating RatePreference = "Floating"
	RatePreferenceUnknown  RatePreference = "Unknown"
)

// IsKnown reports whether the rate preference has been established.
func (r RatePreference) IsKnown() bool {
	return r == RatePreferenceFixed || r == RatePreferenceFloating
}

// Intent classifies how close the user is to wanting concrete deals.
type Intent string

const (
	IntentExploratory Intent = "exploratory"
	IntentDirect      Intent = "direct"
	IntentMixed       Intent = "mixed"
)

// QualificationState is a step of the qualification flow.
type QualificationState string

const (
	StateInit                  QualificationState = "INIT"
	StateFactFinding           QualificationState = "FACT_FINDING"
	StateDirectionOutput       QualificationState = "DIRECTION_OUTPUT"
	StatePackageRecommendation QualificationState = "PACKAGE_RECOMMENDATION"
	StateHandover              QualificationState = "HANDOVER"
)

// UserContext holds the qualification facts gathered during one conversation.
type UserContext struct {
	PropertyType   PropertyType   `json:"propertyType"`
	LoanSize       *float64       `json:"loanSize"`
	LoanPurpose    LoanPurpose    `json:"loanPurpose"`
	RatePreference RatePreference `json:"ratePreference"`
	LockInStatus   string         `json:"lockInStatus,omitempty"`
}

// NewUserContext returns a context with every fact unknown.
func NewUserContext() UserContext {
	return UserContext{
		PropertyType:   PropertyTypeUnknown,
		LoanPurpose:    LoanPurposeUnknown,
		RatePreference: RatePreferenceUnknown,
	}
}

// HasLoanSize reports whether a usable loan size is known.
func (c UserContext) HasLoanSize() bool {
	return c.LoanSize != nil && *c.LoanSize != 0
}

// LoanAmount returns the loan size or zero when it is not known.
func (c UserContext) LoanAmount() float64 {
	if c.LoanSize == nil {
		return 0
	}
	return *c.LoanSize
}

// ExtractionResult is the output of one extraction pass over a user message.
// Nil or Unknown fields mean the pass found nothing for that fact.
type ExtractionResult struct {
	PropertyType   *PropertyType   `json:"propertyType,omitempty"`
	LoanSize       *float64        `json:"loanSize,omitempty"`
	LoanPurpose    *LoanPurpose    `json:"loanPurpose,omitempty"`
	RatePreference *RatePreference `json:"ratePreference,omitempty"`
	LockInStatus   *string         `json:"lockInStatus,omitempty"`
	Intent         Intent          `json:"intent"`
	Reasoning      string          `json:"reasoning"`
}

// ParsePropertyType maps free text onto a PropertyType.
func ParsePropertyType(s string) PropertyType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hdb":
		return PropertyTypeHDB
	case "private", "condo", "condominium", "landed":
		return PropertyTypePrivate
	default:
		return PropertyTypeUnknown
	}
}

// ParseLoanPurpose maps free text onto a LoanPurpose.
func ParseLoanPurpose(s string) LoanPurpose {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)

	switch normalized {
	case "new purchase", "newpurchase", "new", "purchase":
		return LoanPurposeNewPurchase
	case "refinance", "refinancing", "refi":
		return LoanPurposeRefinance
	default:
		return LoanPurposeUnknown
	}
}

// ParseRatePreference maps free text onto a RatePreference.
func ParseRatePreference(s string) RatePreference {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return RatePreferenceFixed
	case "floating", "float", "sora":
		return RatePreferenceFloating
	default:
		return RatePreferenceUnknown
	}
}

// ParseIntent maps free text onto an Intent, defaulting to mixed.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentExploratory:
		return IntentExploratory
	case IntentDirect:
		return IntentDirect
	default:
		return IntentMixed
	}
}

// FormatAmount renders a dollar amount with thousands separators, e.g. 650,000 or 1,250,000.5.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
