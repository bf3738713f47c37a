package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds, stable strings used in API payloads and logs
const (
	KindInvalidURL            = "invalid_url"
	KindBadRequest            = "bad_request"
	KindSessionInit           = "session_init"
	KindChallengeUnresolved   = "challenge_unresolved"
	KindDataExtraction        = "data_extraction"
	KindAcquisition           = "acquisition"
	KindAcquisitionInProgress = "acquisition_in_progress"
	KindNotFound              = "not_found"
	KindRateLimited           = "rate_limited"
	KindTimeout               = "timeout"
	KindInternal              = "internal"
)

// CustomError represents a custom application error
type CustomError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// InvalidURLError reports a malformed or foreign profile URL. Not retried.
type InvalidURLError struct {
	CustomError
	URL string `json:"url"`
}

func NewInvalidURLError(url, detail string) *InvalidURLError {
	return &InvalidURLError{
		CustomError: CustomError{Code: http.StatusBadRequest, Kind: KindInvalidURL, Message: "Invalid URL", Detail: detail},
		URL:         url,
	}
}

// SessionInitError reports that the browser engine could not start. Fatal, not retried.
type SessionInitError struct {
	CustomError
	Cause error `json:"-"`
}

func NewSessionInitError(cause error) *SessionInitError {
	return &SessionInitError{
		CustomError: CustomError{Code: http.StatusInternalServerError, Kind: KindSessionInit, Message: "Browser session failed to start", Detail: errDetail(cause)},
		Cause:       cause,
	}
}

func (e *SessionInitError) Unwrap() error { return e.Cause }

// ChallengeUnresolvedError reports a bot challenge still blocking after every attempt
type ChallengeUnresolvedError struct {
	CustomError
	Attempts int `json:"attempts"`
}

func NewChallengeUnresolvedError(attempts int) *ChallengeUnresolvedError {
	return &ChallengeUnresolvedError{
		CustomError: CustomError{
			Code:    http.StatusInternalServerError,
			Kind:    KindChallengeUnresolved,
			Message: "Bot challenge not passed",
			Detail:  fmt.Sprintf("still blocked after %d attempts", attempts),
		},
		Attempts: attempts,
	}
}

// DataExtractionError reports that neither full name nor headline could be read from a ready page
type DataExtractionError struct {
	CustomError
	Cause error `json:"-"`
}

func NewDataExtractionError(detail string, cause error) *DataExtractionError {
	if cause != nil {
		detail = fmt.Sprintf("%s: %v", detail, cause)
	}
	return &DataExtractionError{
		CustomError: CustomError{Code: http.StatusInternalServerError, Kind: KindDataExtraction, Message: "Profile data extraction failed", Detail: detail},
		Cause:       cause,
	}
}

func (e *DataExtractionError) Unwrap() error { return e.Cause }

// AcquisitionError wraps any other failure raised while driving the page
type AcquisitionError struct {
	CustomError
	Stage string `json:"stage"`
	// Snapshot is the workspace path of the page markup captured at failure time, if any
	Snapshot string `json:"snapshot,omitempty"`
	Cause    error  `json:"-"`
}

func NewAcquisitionError(stage string, cause error, snapshot string) *AcquisitionError {
	return &AcquisitionError{
		CustomError: CustomError{
			Code:    http.StatusInternalServerError,
			Kind:    KindAcquisition,
			Message: "Profile acquisition failed",
			Detail:  fmt.Sprintf("stage %s: %s", stage, errDetail(cause)),
		},
		Stage:    stage,
		Snapshot: snapshot,
		Cause:    cause,
	}
}

func (e *AcquisitionError) Unwrap() error { return e.Cause }

// AcquisitionInProgressError reports that another acquisition holds the lock for this profile
type AcquisitionInProgressError struct {
	CustomError
	ProfileID string `json:"profile_id"`
}

func NewAcquisitionInProgressError(profileID string) *AcquisitionInProgressError {
	return &AcquisitionInProgressError{
		CustomError: CustomError{Code: http.StatusConflict, Kind: KindAcquisitionInProgress, Message: "Profile acquisition already running", Detail: profileID},
		ProfileID:   profileID,
	}
}

// NotFoundError reports an unknown profile identifier
type NotFoundError struct {
	CustomError
}

func NewNotFoundError(what string) *NotFoundError {
	return &NotFoundError{CustomError: CustomError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Not found", Detail: what}}
}

func NewBadRequestError(message string) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: message}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Validation failed", Detail: detail}
}

func IsInvalidURL(err error) bool {
	var target *InvalidURLError
	return errors.As(err, &target)
}

func IsSessionInit(err error) bool {
	var target *SessionInitError
	return errors.As(err, &target)
}

func IsChallengeUnresolved(err error) bool {
	var target *ChallengeUnresolvedError
	return errors.As(err, &target)
}

func IsDataExtraction(err error) bool {
	var target *DataExtractionError
	return errors.As(err, &target)
}

func IsAcquisition(err error) bool {
	var target *AcquisitionError
	return errors.As(err, &target)
}

// ErrorKind returns the most specific typed error kind found in err's chain
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if ce := customError(err); ce != nil {
		return ce.Kind
	}
	return KindInternal
}

// ErrorMessage returns the short public message of the most specific typed error in err's chain
func ErrorMessage(err error) string {
	if ce := customError(err); ce != nil {
		return ce.Message
	}
	return http.StatusText(HTTPStatus(err))
}

// HTTPStatus maps an error to the status the API layer answers with.
// Only bad input, lock contention and unknown profiles escape the 500 bucket.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if ce := customError(err); ce != nil && ce.Code != 0 {
		return ce.Code
	}
	return http.StatusInternalServerError
}

func customError(err error) *CustomError {
	var (
		invalid    *InvalidURLError
		session    *SessionInitError
		challenge  *ChallengeUnresolvedError
		extraction *DataExtractionError
		acq        *AcquisitionError
		inProgress *AcquisitionInProgressError
		notFound   *NotFoundError
		custom     *CustomError
	)

	switch {
	case errors.As(err, &invalid):
		return &invalid.CustomError
	case errors.As(err, &inProgress):
		return &inProgress.CustomError
	case errors.As(err, &notFound):
		return &notFound.CustomError
	case errors.As(err, &session):
		return &session.CustomError
	case errors.As(err, &challenge):
		return &challenge.CustomError
	case errors.As(err, &extraction):
		return &extraction.CustomError
	case errors.As(err, &acq):
		return &acq.CustomError
	case errors.As(err, &custom):
		return custom
	}
	return nil
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
