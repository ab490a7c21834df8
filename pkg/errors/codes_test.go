package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeNotFound, 404},
		{ErrCodeValidation, 422},
		{ErrCodeThresholdInvalid, 400},
		{ErrCodeMaxPerMatchIDInvalid, 400},
		{ErrCodeSplitPatternInvalid, 400},
		{ErrCodeVocabularyEmpty, 422},
		{ErrCodeVocabularyFetchFailed, 502},
		{ErrCodeVocabularyNotLoaded, 503},
		{ErrorCode("UNKNOWN"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code))
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal server error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "similarity threshold outside (0, 1]", DefaultMessageForCode(ErrCodeThresholdInvalid))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.True(t, IsClientError(ErrCodeThresholdInvalid))
	assert.False(t, IsClientError(ErrCodeInternal))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(ErrCodeInternal))
	assert.True(t, IsServerError(ErrCodeVocabularyFetchFailed))
	assert.False(t, IsServerError(ErrCodeBadRequest))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "CFG", ModuleForCode(ErrCodeThresholdInvalid))
	assert.Equal(t, "VOC", ModuleForCode(ErrCodeVocabularyEmpty))
	assert.Equal(t, "MAT", ModuleForCode(ErrCodeMatchingFailed))
	assert.Equal(t, "JOB", ModuleForCode(ErrCodeJobInvalid))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	allCodes := []ErrorCode{
		ErrCodeInternal, ErrCodeBadRequest, ErrCodeThresholdInvalid,
		ErrCodeMaxPerMatchIDInvalid, ErrCodeSplitPatternInvalid,
		ErrCodeVocabularyEmpty, ErrCodeVocabularyFetchFailed,
		ErrCodeMatchingFailed, ErrCodeJobInvalid,
	}
	for _, code := range allCodes {
		assert.Regexp(t, re, string(code))
	}
}

func TestErrorCodeMappings_Completeness(t *testing.T) {
	allCodes := []ErrorCode{
		ErrCodeInternal, ErrCodeBadRequest, ErrCodeNotFound,
		ErrCodeThresholdInvalid, ErrCodeMaxPerMatchIDInvalid, ErrCodeSplitPatternInvalid,
		ErrCodeConfigInvalid, ErrCodeVocabularyEmpty, ErrCodeVocabularyFetchFailed,
		ErrCodeVocabularyParseFailed, ErrCodeVocabularyNotLoaded,
		ErrCodeMatchingFailed, ErrCodeScorerInvalid,
		ErrCodeJobInvalid, ErrCodeJobPublishFailed, ErrCodeJobDecodeFailed,
	}
	for _, code := range allCodes {
		_, hasStatus := ErrorCodeHTTPStatus[code]
		_, hasMessage := ErrorCodeMessage[code]
		assert.True(t, hasStatus, "missing status for %s", code)
		assert.True(t, hasMessage, "missing message for %s", code)
	}
}
