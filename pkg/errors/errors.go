package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryConflict   ErrorCategory = "conflict"
	CategoryAllocation ErrorCategory = "allocation"
	CategoryStore      ErrorCategory = "store"
	CategoryIngest     ErrorCategory = "ingest"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Validation errors
	CodeInvalidDate        ErrorCode = "invalid_date"
	CodeInvalidAmount      ErrorCode = "invalid_amount"
	CodeInvalidRule        ErrorCode = "invalid_rule"
	CodeRangeInverted      ErrorCode = "range_inverted"
	CodeRangeTooLarge      ErrorCode = "range_too_large"
	CodeUnsupportedCountry ErrorCode = "unsupported_country"
	CodeMissingField       ErrorCode = "missing_field"
	CodeInvalidDirection   ErrorCode = "invalid_direction"
	CodeInvalidPeriod      ErrorCode = "invalid_period"

	// Conflict errors
	CodeAlreadyArchived     ErrorCode = "already_archived"
	CodeDuplicateAllocation ErrorCode = "duplicate_allocation"
	CodeOverlappingPattern  ErrorCode = "overlapping_pattern"

	// Allocation errors
	CodeOverAllocation ErrorCode = "over_allocation"

	// Store errors
	CodeNotFound         ErrorCode = "not_found"
	CodeConnectionFailed ErrorCode = "connection_failed"
	CodeTxFailed         ErrorCode = "tx_failed"

	// Ingest errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// EngineError is the base error type for all application errors
type EngineError struct {
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
func (e *EngineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error to the status code the HTTP surface reports.
// Malformed input (dates that do not parse) is 422; semantically invalid
// input (inverted ranges, unknown countries) is 400; conflicts are 409.
func (e *EngineError) HTTPStatus() int {
	switch e.Category {
	case CategoryValidation:
		if e.Code == CodeInvalidDate {
			return 422
		}
		return 400
	case CategoryConflict:
		return 409
	case CategoryAllocation:
		return 400
	case CategoryStore:
		if e.Code == CodeNotFound {
			return 404
		}
		return 500
	default:
		return 500
	}
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *EngineError) WithSuggestion(suggestion string) *EngineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new EngineError
func New(category ErrorCategory, code ErrorCode, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Newf creates a new EngineError with a formatted message
func Newf(category ErrorCategory, code ErrorCode, format string, args ...interface{}) *EngineError {
	return New(category, code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with EngineError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err == nil {
		return nil
	}

	return &EngineError{
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

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in '%s': %v", field, value)
		suggestion = "use calendar dates in YYYY-MM-DD format"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in '%s': %v", field, value)
		suggestion = "amounts are signed integer minor units"
	case CodeInvalidRule:
		message = fmt.Sprintf("invalid recurrence rule in '%s': %v", field, value)
		suggestion = "recognized keys are frequency, interval and bank_day_adjustment"
	case CodeRangeInverted:
		message = fmt.Sprintf("inverted date range in '%s': %v", field, value)
		suggestion = "from date must not be after to date"
	case CodeRangeTooLarge:
		message = fmt.Sprintf("date range too large in '%s': %v", field, value)
		suggestion = "limit the range to 366 days"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidDirection:
		message = fmt.Sprintf("invalid direction in '%s': %v", field, value)
		suggestion = "direction must be income, expense or transfer"
	case CodeInvalidPeriod:
		message = fmt.Sprintf("invalid period in '%s': %v", field, value)
		suggestion = "periods are a calendar year and month"
	default:
		message = fmt.Sprintf("validation error in '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return New(CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// UnsupportedCountryError creates a validation error for an unrecognized
// country code
func UnsupportedCountryError(country string) *EngineError {
	return New(CategoryValidation, CodeUnsupportedCountry,
		fmt.Sprintf("unsupported country code: %q", country)).
		WithSuggestion("register a holiday calendar for this country or use DK").
		WithContext("country", country)
}

// AlreadyArchivedError creates a conflict error for re-archival of a period
func AlreadyArchivedError(budgetID string, categoryPath string, year int, month int) *EngineError {
	return New(CategoryConflict, CodeAlreadyArchived,
		fmt.Sprintf("period %04d-%02d is already archived for %s", year, month, categoryPath)).
		WithSuggestion("treat as success at the caller if the re-run was intentional").
		WithContext("budget_id", budgetID).
		WithContext("category_path", categoryPath).
		WithContext("period", fmt.Sprintf("%04d-%02d", year, month))
}

// OverlappingPatternError creates a conflict error for two patterns of
// one budget post claiming the same date
func OverlappingPatternError(budgetPostID string, date string, firstPatternID, secondPatternID string) *EngineError {
	return New(CategoryConflict, CodeOverlappingPattern,
		fmt.Sprintf("patterns %s and %s of post %s both claim %s",
			firstPatternID, secondPatternID, budgetPostID, date)).
		WithSuggestion("narrow one pattern's window or change its schedule so the dates no longer collide").
		WithContext("budget_post_id", budgetPostID).
		WithContext("date", date)
}

// DuplicateAllocationError creates a conflict error for a repeated
// (transaction, target) allocation pair
func DuplicateAllocationError(transactionID string, target string) *EngineError {
	return New(CategoryConflict, CodeDuplicateAllocation,
		fmt.Sprintf("transaction %s is already allocated to %s", transactionID, target)).
		WithSuggestion("retry against the next candidate or leave the transaction unallocated").
		WithContext("transaction_id", transactionID).
		WithContext("target", target)
}

// OverAllocationError creates an error for allocations exceeding the
// transaction amount
func OverAllocationError(transactionID string, allocated, requested, limit int64) *EngineError {
	return New(CategoryAllocation, CodeOverAllocation,
		fmt.Sprintf("allocating %d would bring transaction %s to %d of %d minor units",
			requested, transactionID, allocated+requested, limit)).
		WithSuggestion("reduce the allocated amount or split differently").
		WithContext("transaction_id", transactionID).
		WithContext("already_allocated", allocated).
		WithContext("requested", requested).
		WithContext("transaction_amount", limit)
}

// StoreError creates a store-related error
func StoreError(code ErrorCode, operation string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeNotFound:
		message = fmt.Sprintf("record not found during %s", operation)
		suggestion = "check the identifier and that the record is not deleted"
	case CodeConnectionFailed:
		message = fmt.Sprintf("store connection failed during %s", operation)
		suggestion = "the unit of work was rolled back; the caller decides on retry"
	case CodeTxFailed:
		message = fmt.Sprintf("unit of work failed during %s", operation)
		suggestion = "the unit of work was rolled back; the caller decides on retry"
	default:
		message = fmt.Sprintf("store error during %s", operation)
		suggestion = "check store availability"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryStore, code, message)
	} else {
		result = New(CategoryStore, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// IngestError creates an ingest-related error for a CSV row or column
func IngestError(code ErrorCode, file string, line int, column string, value string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
		suggestion = "verify the file has all required columns with correct headers"
	default:
		message = fmt.Sprintf("ingest error in file %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryIngest, code, message)
	} else {
		result = New(CategoryIngest, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *EngineError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*EngineError        `json:"errors"`
	SampleErrors []*EngineError        `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*EngineError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*EngineError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
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

// Utility functions

// IsEngineError checks if an error is an EngineError
func IsEngineError(err error) bool {
	_, ok := err.(*EngineError)
	return ok
}

// AsEngineError extracts an EngineError from an error chain
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// IsCategory reports whether err carries the given category
func IsCategory(err error, category ErrorCategory) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Category == category
	}
	return false
}

// IsCode reports whether err carries the given code
func IsCode(err error, code ErrorCode) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Code == code
	}
	return false
}

// IsConflict reports whether err is any conflict-category error
func IsConflict(err error) bool {
	return IsCategory(err, CategoryConflict)
}

// IsValidation reports whether err is any validation-category error
func IsValidation(err error) bool {
	return IsCategory(err, CategoryValidation)
}

// WrapIfNeeded wraps an error if it's not already an EngineError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err == nil {
		return nil
	}

	if engineErr, ok := AsEngineError(err); ok {
		return engineErr
	}

	return Wrap(err, category, code, message)
}
