package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusAndKind(t *testing.T) {
	challenge := NewChallengeUnresolvedError(3)
	wrapped := NewAcquisitionError("challenge", challenge, "var/malt/jdoe/failure.html")

	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"invalid url", NewInvalidURLError("x", "bad"), http.StatusBadRequest, KindInvalidURL},
		{"wrapped invalid url", fmt.Errorf("process: %w", NewInvalidURLError("x", "bad")), http.StatusBadRequest, KindInvalidURL},
		{"session", NewSessionInitError(errors.New("no chrome")), http.StatusInternalServerError, KindSessionInit},
		{"challenge inside acquisition", wrapped, http.StatusInternalServerError, KindChallengeUnresolved},
		{"extraction", NewDataExtractionError("no landmark", nil), http.StatusInternalServerError, KindDataExtraction},
		{"acquisition", NewAcquisitionError("navigate", errors.New("boom"), ""), http.StatusInternalServerError, KindAcquisition},
		{"in progress", NewAcquisitionInProgressError("jdoe"), http.StatusConflict, KindAcquisitionInProgress},
		{"not found", NewNotFoundError("jdoe"), http.StatusNotFound, KindNotFound},
		{"plain", errors.New("plain"), http.StatusInternalServerError, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.kind, ErrorKind(tt.err))
		})
	}
}

func TestAcquisitionErrorUnwraps(t *testing.T) {
	cause := NewChallengeUnresolvedError(3)
	err := NewAcquisitionError("challenge", cause, "")

	assert.True(t, IsAcquisition(err))
	assert.True(t, IsChallengeUnresolved(err))
	assert.False(t, IsDataExtraction(err))
	assert.Contains(t, err.Error(), "stage challenge")
}

func TestDedupeStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, DedupeStrings([]string{"a", "", "b", "a"}))
	assert.Empty(t, DedupeStrings(nil))
}

func TestErrorMessage(t *testing.T) {
	wrapped := NewAcquisitionError("consent_handled", NewChallengeUnresolvedError(3), "")

	assert.Equal(t, "Bot challenge not passed", ErrorMessage(wrapped))
	assert.Equal(t, "Invalid URL", ErrorMessage(NewInvalidURLError("x", "bad")))
	assert.Equal(t, "Internal Server Error", ErrorMessage(errors.New("plain")))
}
