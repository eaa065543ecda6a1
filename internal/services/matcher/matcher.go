// Package matcher filters and ranks mortgage packages for a qualified user.
package matcher

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/metrics"
	"mortgage-qualification-engine/internal/models"
)

// MaxRecommendations is the number of packages shown to the user.
const MaxRecommendations = 3

// MissingRate is the rate assigned to packages whose rates text has no number.
const MissingRate = 999.0

var rateNumber = regexp.MustCompile(`[\d.]+`)

// CatalogQuery is the eligibility filter pushed down to the catalog store.
type CatalogQuery struct {
	PropertyType   models.PropertyType
	MaxMinLoanSize float64
	RatePreference models.RatePreference
}

// Catalog returns raw, unranked packages matching a query.
type Catalog interface {
	FindEligible(ctx context.Context, q CatalogQuery) ([]*models.MortgagePackage, error)
}

// Service produces recommendations from a catalog.
type Service struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewService creates a new matcher service.
func NewService(catalog Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog: catalog,
		logger:  logger,
	}
}

// Recommend queries the catalog and returns at most three ranked packages.
// A catalog failure yields an empty slice and an error wrapping models.ErrCatalogUnavailable.
func (s *Service) Recommend(ctx context.Context, propertyType models.PropertyType, loanSize float64, pref models.RatePreference) ([]models.MortgagePackage, error) {
	query := CatalogQuery{
		PropertyType:   propertyType,
		MaxMinLoanSize: loanSize,
		RatePreference: pref,
	}

	rows, err := s.catalog.FindEligible(ctx, query)
	if err != nil {
		metrics.CatalogFailures.Inc()
		s.logger.Error("Catalog query failed",
			zap.String("property_type", string(propertyType)),
			zap.Float64("loan_size", loanSize),
			zap.String("rate_preference", string(pref)),
			zap.Error(err),
		)
		return []models.MortgagePackage{}, fmt.Errorf("%w: %v", models.ErrCatalogUnavailable, err)
	}

	catalog := make([]models.MortgagePackage, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			catalog = append(catalog, *row)
		}
	}

	ranked := Rank(propertyType, loanSize, pref, catalog)
	metrics.PackagesRecommended.Observe(float64(len(ranked)))

	s.logger.Info("Ranked packages",
		zap.Int("candidates", len(catalog)),
		zap.Int("recommended", len(ranked)),
		zap.String("property_type", string(propertyType)),
		zap.Float64("loan_size", loanSize),
	)

	return ranked, nil
}

// Rank filters the catalog for eligibility and orders it by tier, then by rate.
func Rank(propertyType models.PropertyType, loanSize float64, pref models.RatePreference, catalog []models.MortgagePackage) []models.MortgagePackage {
	eligible := make([]models.MortgagePackage, 0, len(catalog))
	for _, p := range catalog {
		if Eligible(p, propertyType, loanSize, pref) {
			eligible = append(eligible, p)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].MinLoanSize != eligible[j].MinLoanSize {
			return eligible[i].MinLoanSize > eligible[j].MinLoanSize
		}
		return ParseRate(eligible[i].Rates) < ParseRate(eligible[j].Rates)
	})

	if len(eligible) > MaxRecommendations {
		eligible = eligible[:MaxRecommendations]
	}

	return eligible
}

// Eligible applies the loan size, property type and rate category filters.
// Private means "not tagged HDB"; Floating means "not tagged Fixed".
func Eligible(p models.MortgagePackage, propertyType models.PropertyType, loanSize float64, pref models.RatePreference) bool {
	if p.MinLoanSize > loanSize {
		return false
	}

	isHDB := containsFold(p.PropertyType, "HDB")
	if propertyType == models.PropertyTypeHDB {
		if !isHDB {
			return false
		}
	} else if isHDB {
		return false
	}

	isFixed := containsFold(p.Category, "Fixed")
	if pref == models.RatePreferenceFixed {
		return isFixed
	}
	return !isFixed
}

// ParseRate returns the first number in a rates description, or MissingRate.
// Ranges such as "2.5%-2.8%" yield only the first value.
func ParseRate(rates string) float64 {
	match := rateNumber.FindString(rates)
	if match == "" {
		return MissingRate
	}

	// "1.2.3" reads as 1.2
	if first := strings.Index(match, "."); first >= 0 {
		if second := strings.Index(match[first+1:], "."); second >= 0 {
			match = match[:first+1+second]
		}
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return MissingRate
	}
	return value
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
