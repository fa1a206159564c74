package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryMessage       ErrorCategory = "message"
	CategoryValidation    ErrorCategory = "validation"
	CategoryScreening     ErrorCategory = "screening"
	CategoryPersistence   ErrorCategory = "persistence"
	CategoryLedger        ErrorCategory = "ledger"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryNetwork       ErrorCategory = "network"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Message errors
	CodeNotAnOrder    ErrorCode = "not_an_order"
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingLabel  ErrorCode = "missing_label"

	// Validation errors
	CodeMissingField     ErrorCode = "missing_field"
	CodeInvalidAmount    ErrorCode = "invalid_amount"
	CodeInvalidIBAN      ErrorCode = "invalid_iban"
	CodeInvalidSwiftCode ErrorCode = "invalid_swift_code"
	CodeBankNameMismatch ErrorCode = "bank_name_mismatch"

	// Screening errors
	CodeSanctionsHit         ErrorCode = "sanctions_hit"
	CodeScreeningUnavailable ErrorCode = "screening_unavailable"

	// Persistence errors
	CodeDuplicateOrder ErrorCode = "duplicate_order"
	CodeOrderNotFound  ErrorCode = "order_not_found"
	CodeStorageError   ErrorCode = "storage_error"

	// Ledger errors
	CodeLedgerWriteFailed ErrorCode = "ledger_write_failed"
	CodeLedgerRowMissing  ErrorCode = "ledger_row_missing"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Network errors
	CodeConnectionFailed   ErrorCode = "connection_failed"
	CodeTimeout            ErrorCode = "timeout"
	CodeServiceUnavailable ErrorCode = "service_unavailable"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// VerifierError is the base error type for all application errors
type VerifierError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *VerifierError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *VerifierError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *VerifierError) GetExitCode() int {
	switch e.Category {
	case CategoryMessage, CategoryValidation:
		return 2
	case CategoryScreening:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryPersistence, CategoryLedger, CategoryInternal:
		return 5
	case CategoryNetwork:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *VerifierError) WithContext(key string, value interface{}) *VerifierError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *VerifierError) WithSuggestion(suggestion string) *VerifierError {
	e.Suggestion = suggestion
	return e
}

// New creates a new VerifierError
func New(category ErrorCategory, code ErrorCode, message string) *VerifierError {
	return &VerifierError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with VerifierError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *VerifierError {
	if err == nil {
		return nil
	}

	return &VerifierError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// MessageError creates an order-message error
func MessageError(code ErrorCode, orderRef string, err error) *VerifierError {
	var message string
	var suggestion string

	switch code {
	case CodeNotAnOrder:
		message = "message does not contain an order reference"
		suggestion = "ensure the message starts with an 'Order Ref:' label"
	case CodeInvalidFormat:
		message = fmt.Sprintf("order message has an invalid format: %s", orderRef)
		suggestion = "use 'Field: Value' lines for every field"
	case CodeMissingLabel:
		message = fmt.Sprintf("order message is missing a required label: %s", orderRef)
		suggestion = "include Order Reference, Currency, Amount and Pay Out Company"
	default:
		message = fmt.Sprintf("order message error: %s", orderRef)
		suggestion = "check the message format and try again"
	}

	var result *VerifierError
	if err != nil {
		result = Wrap(err, CategoryMessage, code, message)
	} else {
		result = New(CategoryMessage, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("order_ref", orderRef)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *VerifierError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g., '12.34')"
	case CodeInvalidIBAN:
		message = fmt.Sprintf("invalid IBAN in field '%s': %v", field, value)
		suggestion = "check the IBAN country code, length and checksum"
	case CodeInvalidSwiftCode:
		message = fmt.Sprintf("invalid SWIFT code in field '%s': %v", field, value)
		suggestion = "verify the SWIFT/BIC code with the beneficiary bank"
	case CodeBankNameMismatch:
		message = fmt.Sprintf("bank name does not match the SWIFT registry: %v", value)
		suggestion = "ensure the claimed bank name contains the registered name"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *VerifierError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ScreeningError creates a sanctions-screening error
func ScreeningError(code ErrorCode, beneficiary string, err error) *VerifierError {
	var message string
	var suggestion string

	switch code {
	case CodeSanctionsHit:
		message = fmt.Sprintf("beneficiary '%s' matched a sanctions list", beneficiary)
		suggestion = "the transfer cannot proceed; escalate to compliance"
	case CodeScreeningUnavailable:
		message = fmt.Sprintf("sanctions screening unavailable for '%s'", beneficiary)
		suggestion = "the order was processed without screening; re-screen when the service recovers"
	default:
		message = fmt.Sprintf("screening error for '%s'", beneficiary)
		suggestion = "retry the screening or escalate to compliance"
	}

	var result *VerifierError
	if err != nil {
		result = Wrap(err, CategoryScreening, code, message)
	} else {
		result = New(CategoryScreening, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("beneficiary", beneficiary)
}

// PersistenceError creates a storage-related error
func PersistenceError(code ErrorCode, orderRef string, err error) *VerifierError {
	var message string
	var suggestion string

	switch code {
	case CodeDuplicateOrder:
		message = fmt.Sprintf("order reference '%s' was already processed", orderRef)
		suggestion = "check whether the order was submitted twice"
	case CodeOrderNotFound:
		message = fmt.Sprintf("order '%s' not found", orderRef)
		suggestion = "verify the order reference"
	case CodeStorageError:
		message = fmt.Sprintf("failed to persist order '%s'", orderRef)
		suggestion = "check database connectivity and retry"
	default:
		message = fmt.Sprintf("persistence error for order '%s'", orderRef)
		suggestion = "check the database and try again"
	}

	var result *VerifierError
	if err != nil {
		result = Wrap(err, CategoryPersistence, code, message)
	} else {
		result = New(CategoryPersistence, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("order_ref", orderRef)
}

// LedgerError creates a bookkeeping-related error
func LedgerError(code ErrorCode, sheet string, err error) *VerifierError {
	var message string
	var suggestion string

	switch code {
	case CodeLedgerWriteFailed:
		message = fmt.Sprintf("failed to write to ledger '%s'", sheet)
		suggestion = "check spreadsheet service availability; the order itself is saved"
	case CodeLedgerRowMissing:
		message = fmt.Sprintf("no matching row found in ledger '%s'", sheet)
		suggestion = "ensure the order reference was entered in the ledger"
	default:
		message = fmt.Sprintf("ledger error in '%s'", sheet)
		suggestion = "check the ledger and try again"
	}

	var result *VerifierError
	if err != nil {
		result = Wrap(err, CategoryLedger, code, message)
	} else {
		result = New(CategoryLedger, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("sheet", sheet)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *VerifierError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *VerifierError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// NetworkError creates a network-related error
func NetworkError(code ErrorCode, endpoint string, err error) *VerifierError {
	var message string
	var suggestion string

	switch code {
	case CodeConnectionFailed:
		message = fmt.Sprintf("connection failed to %s", endpoint)
		suggestion = "check network connectivity and endpoint availability"
	case CodeTimeout:
		message = fmt.Sprintf("timeout connecting to %s", endpoint)
		suggestion = "increase timeout setting or check network speed"
	case CodeServiceUnavailable:
		message = fmt.Sprintf("service unavailable: %s", endpoint)
		suggestion = "try again later or contact service administrator"
	default:
		message = fmt.Sprintf("network error: %s", endpoint)
		suggestion = "check network connection and try again"
	}

	var result *VerifierError
	if err != nil {
		result = Wrap(err, CategoryNetwork, code, message)
	} else {
		result = New(CategoryNetwork, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("endpoint", endpoint)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *VerifierError {
	var message string
	var suggestion string

	switch code {
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	var result *VerifierError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*VerifierError      `json:"errors"`
	SampleErrors []*VerifierError      `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errors []*VerifierError) *ErrorSummary {
	if len(errors) == 0 {
		return &ErrorSummary{
			Total:      0,
			ByCategory: make(map[ErrorCategory]int),
			ByCode:     make(map[ErrorCode]int),
			Errors:     []*VerifierError{},
		}
	}

	summary := &ErrorSummary{
		Total:      len(errors),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errors,
	}

	// Count by category and code
	for _, err := range errors {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errors) > maxSamples {
		summary.SampleErrors = errors[:maxSamples]
	} else {
		summary.SampleErrors = errors
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsVerifierError checks if an error is a VerifierError
func IsVerifierError(err error) bool {
	_, ok := err.(*VerifierError)
	return ok
}

// AsVerifierError extracts a VerifierError from an error chain
func AsVerifierError(err error) (*VerifierError, bool) {
	var verifierErr *VerifierError
	if errors.As(err, &verifierErr) {
		return verifierErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a VerifierError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *VerifierError {
	if err == nil {
		return nil
	}

	if verifierErr, ok := AsVerifierError(err); ok {
		return verifierErr
	}

	return Wrap(err, category, code, message)
}
