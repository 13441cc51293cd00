package domain

import (
	"errors"
	"fmt"
)

var (
	// Currency errors
	ErrCurrencyNotFound  = errors.New("currency not found")
	ErrDuplicateCurrency = errors.New("currency already exists")
	ErrMissingRate       = errors.New("exchange rate missing")
	ErrBaseCurrencyRate  = errors.New("base currency cannot carry a rate")

	// Account errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrCurrencyMismatch = errors.New("line currency does not match account currency")

	// Transaction errors
	ErrUnbalanced      = errors.New("transaction is unbalanced")
	ErrArchiveMismatch = errors.New("archived count does not match deleted count")
)

// DomainError is a business-rule violation. Subject names the offending
// currency, account or field.
type DomainError struct {
	Err     error
	Subject string
	Detail  string
}

func (e *DomainError) Error() string {
	msg := e.Err.Error()
	if e.Subject != "" {
		msg += ": " + e.Subject
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// ValidationError is a DomainError raised at a value-object boundary, before
// any mutation or aggregation begins.
type ValidationError struct {
	DomainError
}

func (e *ValidationError) Error() string {
	return "validation: " + e.DomainError.Error()
}

// As lets errors.As match a *ValidationError against *DomainError.
func (e *ValidationError) As(target any) bool {
	if t, ok := target.(**DomainError); ok {
		*t = &e.DomainError
		return true
	}
	return false
}

// NewDomainError wraps err with the offending subject.
func NewDomainError(err error, subject string, format string, args ...any) error {
	return &DomainError{Err: err, Subject: subject, Detail: fmt.Sprintf(format, args...)}
}

// NewValidationError wraps err as a validation failure on subject.
func NewValidationError(err error, subject string, format string, args ...any) error {
	return &ValidationError{DomainError{Err: err, Subject: subject, Detail: fmt.Sprintf(format, args...)}}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDomain reports whether err is (or wraps) a DomainError, validation
// errors included.
func IsDomain(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
