// Package models defines the data structures for the mortgage qualification engine.
package models

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrEmptyMessage          = errors.New("message text cannot be empty")
	ErrInvalidRatePreference = errors.New("rate preference must be Fixed or Floating")
	ErrSessionNotFound       = errors.New("session not found")
	ErrTurnInProgress        = errors.New("a turn is already being processed for this session")
	ErrCatalogUnavailable    = errors.New("package catalog unavailable")
	ErrInvalidPackage        = errors.New("package requires bank, package name, property type and category")
	ErrEmptyPackageID        = errors.New("package id cannot be empty")
	ErrInvalidMinLoanSize    = errors.New("min loan size cannot be negative")
)

// ValidateMessageText trims and checks user input.
func ValidateMessageText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	return trimmed, nil
}

// ValidateDirectionChoice accepts only a known rate preference.
func ValidateDirectionChoice(raw string) (RatePreference, error) {
	pref := ParseRatePreference(raw)
	if !pref.IsKnown() {
		return RatePreferenceUnknown, ErrInvalidRatePreference
	}
	return pref, nil
}
