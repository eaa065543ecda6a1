// Package models defines the data structures for the mortgage qualification engine.
package models

import (
	"strings"
	"time"
)

// MortgagePackage is a bank mortgage package from the catalog.
type MortgagePackage struct {
	ID           string    `json:"id" db:"id"`
	Bank         string    `json:"bank" db:"bank"`
	PropertyType string    `json:"property_type" db:"property_type"`
	MinLoanSize  float64   `json:"min_loan_size" db:"min_loan_size"`
	PackageName  string    `json:"package_name" db:"package_name"`
	LockinPeriod string    `json:"lockin_period" db:"lockin_period"`
	Rates        string    `json:"rates" db:"rates"`
	Features     *string   `json:"features" db:"features"`
	Subsidies    *string   `json:"subsidies" db:"subsidies"`
	Remarks      *string   `json:"remarks" db:"remarks"`
	LastUpdated  time.Time `json:"last_updated" db:"last_updated"`
	Category     string    `json:"category" db:"category"`
}

// MortgagePackageSummary is the short form used in adviser notifications.
type MortgagePackageSummary struct {
	Bank         string `json:"bank"`
	PackageName  string `json:"package_name"`
	Rates        string `json:"rates"`
	LockinPeriod string `json:"lockin_period,omitempty"`
}

// ToSummary converts a MortgagePackage to MortgagePackageSummary.
func (p *MortgagePackage) ToSummary() MortgagePackageSummary {
	return MortgagePackageSummary{
		Bank:         p.Bank,
		PackageName:  p.PackageName,
		Rates:        p.Rates,
		LockinPeriod: p.LockinPeriod,
	}
}

// ValidateMortgagePackage checks the fields a catalog import must supply.
func ValidateMortgagePackage(p *MortgagePackage) error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyPackageID
	}
	if strings.TrimSpace(p.Bank) == "" || strings.TrimSpace(p.PackageName) == "" {
		return ErrInvalidPackage
	}
	if p.MinLoanSize < 0 {
		return ErrInvalidMinLoanSize
	}
	if strings.TrimSpace(p.PropertyType) == "" || strings.TrimSpace(p.Category) == "" {
		return ErrInvalidPackage
	}
	return nil
}
