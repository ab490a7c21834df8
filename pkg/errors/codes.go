package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeExternalService    ErrorCode = "COMMON_012"
	ErrCodeNotImplemented     ErrorCode = "COMMON_013"
	ErrCodeUnknown            ErrorCode = "COMMON_099"

	// CodeOK is the pseudo-code reported for a nil error.
	CodeOK ErrorCode = "OK"
)

// Configuration Error Codes.  These are raised before any record is
// processed; a CFG_* error always aborts the run.
const (
	ErrCodeThresholdInvalid     ErrorCode = "CFG_001"
	ErrCodeMaxPerMatchIDInvalid ErrorCode = "CFG_002"
	ErrCodeSplitPatternInvalid  ErrorCode = "CFG_003"
	ErrCodeConfigInvalid        ErrorCode = "CFG_004"
)

// Vocabulary Module Error Codes
const (
	ErrCodeVocabularyEmpty       ErrorCode = "VOC_001"
	ErrCodeVocabularyFetchFailed ErrorCode = "VOC_002"
	ErrCodeVocabularyParseFailed ErrorCode = "VOC_003"
	ErrCodeVocabularyNotLoaded   ErrorCode = "VOC_004"
)

// Matching Module Error Codes
const (
	ErrCodeMatchingFailed ErrorCode = "MAT_001"
	ErrCodeScorerInvalid  ErrorCode = "MAT_002"
)

// Job Module Error Codes
const (
	ErrCodeJobInvalid       ErrorCode = "JOB_001"
	ErrCodeJobPublishFailed ErrorCode = "JOB_002"
	ErrCodeJobDecodeFailed  ErrorCode = "JOB_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeThresholdInvalid:     http.StatusBadRequest,
	ErrCodeMaxPerMatchIDInvalid: http.StatusBadRequest,
	ErrCodeSplitPatternInvalid:  http.StatusBadRequest,
	ErrCodeConfigInvalid:        http.StatusBadRequest,

	ErrCodeVocabularyEmpty:       http.StatusUnprocessableEntity,
	ErrCodeVocabularyFetchFailed: http.StatusBadGateway,
	ErrCodeVocabularyParseFailed: http.StatusBadGateway,
	ErrCodeVocabularyNotLoaded:   http.StatusServiceUnavailable,

	ErrCodeMatchingFailed: http.StatusInternalServerError,
	ErrCodeScorerInvalid:  http.StatusInternalServerError,

	ErrCodeJobInvalid:       http.StatusBadRequest,
	ErrCodeJobPublishFailed: http.StatusInternalServerError,
	ErrCodeJobDecodeFailed:  http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeThresholdInvalid:     "similarity threshold outside (0, 1]",
	ErrCodeMaxPerMatchIDInvalid: "max matches per entry must be at least 1",
	ErrCodeSplitPatternInvalid:  "split pattern does not compile",
	ErrCodeConfigInvalid:        "invalid configuration",

	ErrCodeVocabularyEmpty:       "reference vocabulary is empty",
	ErrCodeVocabularyFetchFailed: "failed to fetch reference vocabulary",
	ErrCodeVocabularyParseFailed: "failed to parse reference vocabulary",
	ErrCodeVocabularyNotLoaded:   "reference vocabulary not loaded",

	ErrCodeMatchingFailed: "matching failed",
	ErrCodeScorerInvalid:  "invalid similarity scorer",

	ErrCodeJobInvalid:       "invalid match job",
	ErrCodeJobPublishFailed: "failed to publish match job",
	ErrCodeJobDecodeFailed:  "failed to decode match job",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode, e.g. "CFG" for
// CFG_001.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
