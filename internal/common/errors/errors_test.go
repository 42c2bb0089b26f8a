package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError_RetryableKeepsRetries(t *testing.T) {
	stdErr := NewDatabaseInsertFailedError(fmt.Errorf("connection reset"))

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "DATABASE_INSERT_FAILED", bpmnErr.Code)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, "DATABASE_INSERT_FAILED", bpmnErr.ErrorVariables["originalErrorCode"])
}

func TestConvertToBPMNError_RuleFailureCarriesReasons(t *testing.T) {
	reasons := []string{"Applicant must be at least 18 years old.", "Aadhaar eKYC not completed."}

	bpmnErr := ConvertToBPMNError(NewRuleFailureError(reasons))

	assert.Equal(t, "RULE_FAILURE", bpmnErr.Code)
	assert.Zero(t, bpmnErr.Retries)
	assert.Equal(t, reasons, bpmnErr.ErrorVariables["reasons"])

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "RULE_FAILURE", vars["errorCode"])
	assert.Equal(t, reasons, vars["reasons"])
}

func TestConvertToBPMNError_UnmappedCodeFallsBack(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewSessionStoreFailedError(fmt.Errorf("redis down")))
	assert.Equal(t, "SESSION_STORE_FAILED", bpmnErr.Code)
}

func TestAsStandardError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("save: %w", NewSessionStoreFailedError(fmt.Errorf("timeout")))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeSessionStoreFailed, stdErr.Code)

	_, ok = AsStandardError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeLetterNotFound, http.StatusNotFound},
		{ErrCodeSessionStoreFailed, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDuplicateApplication))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeElasticsearchIndexFailed))
	assert.Equal(t, "INTEGRATION", GetErrorCategory(ErrCodeCollaboratorUnavailable))
	assert.Equal(t, "DECISION", GetErrorCategory(ErrCodeRuleFailure))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeFormatInvalid))
	assert.True(t, IsRetryableErrorCode(ErrCodeNotificationSendFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeDuplicateApplication))
}
