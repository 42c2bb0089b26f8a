// Package errors provides standardized error handling for the chat API and BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Conversation outcomes
const (
	ErrCodeInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrCodeFormatInvalid           ErrorCode = "FORMAT_INVALID"
	ErrCodeRuleFailure             ErrorCode = "RULE_FAILURE"
	ErrCodeCollaboratorUnavailable ErrorCode = "COLLABORATOR_UNAVAILABLE"
)

// Infrastructure
const (
	ErrCodeSessionStoreFailed         ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeDatabaseConnectionFailed   ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed       ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDuplicateApplication       ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeNotificationSendFailed     ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeElasticsearchIndexFailed   ErrorCode = "ELASTICSEARCH_INDEX_FAILED"
	ErrCodeValidationFailed           ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrCodeLetterNotFound             ErrorCode = "LETTER_NOT_FOUND"
	ErrCodeProcessStartFailed         ErrorCode = "PROCESS_START_FAILED"
	ErrCodeInternal                   ErrorCode = "INTERNAL_ERROR"
	ErrCodeOfferGenerationFailed      ErrorCode = "OFFER_GENERATION_FAILED"
	ErrCodeExternalServiceUnavailable ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error metadata and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError is raised for chat input that does not parse for the current step.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Input not accepted for the current step", details, false)
}

// NewFormatInvalidError is raised for an identity number that fails its format check.
func NewFormatInvalidError(field, details string) *StandardError {
	return newError(ErrCodeFormatInvalid, fmt.Sprintf("Invalid %s format", field), details, false).
		WithMetadata("field", field)
}

// NewRuleFailureError carries every reason an application was rejected.
func NewRuleFailureError(reasons []string) *StandardError {
	return newError(ErrCodeRuleFailure, "Application rejected", strings.Join(reasons, "; "), false).
		WithMetadata("reasons", reasons)
}

// NewCollaboratorUnavailableError wraps a failed call to an external collaborator.
func NewCollaboratorUnavailableError(collaborator string, err error) *StandardError {
	return newError(ErrCodeCollaboratorUnavailable,
		fmt.Sprintf("Collaborator '%s' unavailable", collaborator), errDetails(err), true).
		WithMetadata("collaborator", collaborator)
}

func NewSessionStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store unavailable", errDetails(err), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Failed to connect to database", errDetails(err), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Failed to insert record into database", errDetails(err), true)
}

func NewDuplicateApplicationError(sessionID string) *StandardError {
	return newError(ErrCodeDuplicateApplication, "A sanctioned application already exists for this session",
		fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed,
		fmt.Sprintf("Failed to send %s notification", channel), errDetails(err), true)
}

func NewElasticsearchIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeElasticsearchIndexFailed,
		fmt.Sprintf("Failed to index document into '%s'", index), errDetails(err), true)
}

func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Request validation failed", details, false)
}

func NewUnauthorizedError(details string) *StandardError {
	return newError(ErrCodeUnauthorized, "Authentication failed", details, false)
}

func NewLetterNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeLetterNotFound, "Sanction letter not available", sessionID, false)
}

func NewProcessStartFailedError(processID string, err error) *StandardError {
	return newError(ErrCodeProcessStartFailed,
		fmt.Sprintf("Failed to start process '%s'", processID), errDetails(err), true)
}

func NewOfferGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeOfferGenerationFailed, "Failed to generate loan offers", errDetails(err), false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalServiceUnavailable,
		fmt.Sprintf("External service '%s' error", service), errDetails(err), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), false)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the loan BPMN models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:               "INVALID_INPUT",
	ErrCodeFormatInvalid:              "FORMAT_INVALID",
	ErrCodeRuleFailure:                "RULE_FAILURE",
	ErrCodeCollaboratorUnavailable:    "COLLABORATOR_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed:   "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:       "DATABASE_INSERT_FAILED",
	ErrCodeDuplicateApplication:       "DUPLICATE_APPLICATION",
	ErrCodeNotificationSendFailed:     "NOTIFICATION_SEND_FAILED",
	ErrCodeElasticsearchIndexFailed:   "ELASTICSEARCH_INDEX_FAILED",
	ErrCodeValidationFailed:           "VALIDATION_FAILED",
	ErrCodeOfferGenerationFailed:      "OFFER_GENERATION_FAILED",
	ErrCodeExternalServiceUnavailable: "EXTERNAL_SERVICE_ERROR",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeElasticsearchIndexFailed,
		ErrCodeExternalServiceUnavailable:
		return 3

	case ErrCodeCollaboratorUnavailable,
		ErrCodeSessionStoreFailed,
		ErrCodeProcessStartFailed:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if reasons, ok := stdErr.Metadata["reasons"]; ok {
		vars["reasons"] = reasons
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err into a StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "DUPLICATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "COLLABORATOR") || strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "PROCESS"):
		return "INTEGRATION"
	case strings.Contains(codeStr, "RULE"):
		return "DECISION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "UNAUTHORIZED"):
		return "AUTH"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code onto the status returned by the chat API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeFormatInvalid, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeLetterNotFound:
		return http.StatusNotFound
	case ErrCodeSessionStoreFailed, ErrCodeCollaboratorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
