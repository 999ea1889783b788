// Package errors provides the standardized error codes shared by the HTTP
// surface and the lead follow-up job workers, plus their BPMN conversion.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Collaborator (generative AI) failures
	ErrCodeCollaboratorTimeout     ErrorCode = "COLLABORATOR_TIMEOUT"
	ErrCodeCollaboratorQuota       ErrorCode = "COLLABORATOR_QUOTA_EXCEEDED"
	ErrCodeCollaboratorMalformed   ErrorCode = "COLLABORATOR_MALFORMED_RESPONSE"
	ErrCodeCollaboratorUnavailable ErrorCode = "COLLABORATOR_UNAVAILABLE"

	// Persistence
	ErrCodeStorageQuotaExceeded ErrorCode = "STORAGE_QUOTA_EXCEEDED"
	ErrCodeStorageFailed        ErrorCode = "STORAGE_FAILED"
	ErrCodeLeadNotFound         ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeProductNotFound      ErrorCode = "PRODUCT_NOT_FOUND"

	// Search
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	// Request handling
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"

	// Lead follow-up
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCRMSyncFailed          ErrorCode = "CRM_SYNC_FAILED"
	ErrCodeQuotationDraftFailed   ErrorCode = "QUOTATION_DRAFT_FAILED"
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Zeebe engine.
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

// ToErrorVariables returns a map suitable for job fail variables.
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

// NewCollaboratorTimeoutError is retryable once by the follow-up process.
func NewCollaboratorTimeoutError(op string) *StandardError {
	return newError(ErrCodeCollaboratorTimeout, "Generative AI call timed out", fmt.Sprintf("op: %s", op), true)
}

func NewCollaboratorQuotaError(op string, err error) *StandardError {
	return newError(ErrCodeCollaboratorQuota, "Generative AI quota exhausted", fmt.Sprintf("op: %s, error: %v", op, err), false)
}

func NewCollaboratorMalformedError(op string, details string) *StandardError {
	return newError(ErrCodeCollaboratorMalformed, "Generative AI returned an unusable response", fmt.Sprintf("op: %s, %s", op, details), true)
}

func NewCollaboratorUnavailableError(op string, err error) *StandardError {
	return newError(ErrCodeCollaboratorUnavailable, "Generative AI service unavailable", fmt.Sprintf("op: %s, error: %v", op, err), true)
}

func NewStorageQuotaExceededError(key string) *StandardError {
	return newError(ErrCodeStorageQuotaExceeded, "Storage quota exceeded", fmt.Sprintf("key: %s", key), false)
}

func NewStorageFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStorageFailed, "Storage operation failed", fmt.Sprintf("key: %s, error: %v", key, err), true)
}

func NewLeadNotFoundError(id string) *StandardError {
	return newError(ErrCodeLeadNotFound, "Lead not found", fmt.Sprintf("id: %s", id), false)
}

func NewProductNotFoundError(id string) *StandardError {
	return newError(ErrCodeProductNotFound, "Product not found", fmt.Sprintf("id: %s", id), false)
}

func NewSearchQueryFailedError(err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Catalog search failed", err.Error(), true)
}

func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Request validation failed", details, false)
}

func NewUnauthorizedError() *StandardError {
	return newError(ErrCodeUnauthorized, "Invalid access key", "", false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", fmt.Sprintf("channel: %s, error: %v", channel, err), true)
}

// NewQuotationDraftFailedError reports a draft that could not be used even
// though the model answered.
func NewQuotationDraftFailedError(leadID, details string) *StandardError {
	return newError(ErrCodeQuotationDraftFailed, "Quotation draft unusable", fmt.Sprintf("lead: %s, %s", leadID, details), true)
}

func NewCRMSyncFailedError(err error) *StandardError {
	return newError(ErrCodeCRMSyncFailed, "CRM contact sync failed", err.Error(), true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorageFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeCRMSyncFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeCollaboratorUnavailable:
		return 3
	case ErrCodeCollaboratorMalformed, ErrCodeQuotationDraftFailed:
		return 2
	case ErrCodeCollaboratorTimeout:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory groups codes for log aggregation.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "COLLABORATOR"):
		return "AI"
	case strings.Contains(codeStr, "SEARCH"), strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.HasPrefix(codeStr, "STORAGE"), strings.HasSuffix(codeStr, "NOT_FOUND"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"), strings.Contains(codeStr, "CRM"), strings.Contains(codeStr, "QUOTATION"):
		return "FOLLOW_UP"
	case strings.Contains(codeStr, "VALIDATION"), codeStr == string(ErrCodeUnauthorized):
		return "REQUEST"
	default:
		return "OTHER"
	}
}

// AsStandard normalizes any error into a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
