package model

import (
	"errors"
	"fmt"
)

// PublishErrorCode enumerates the terminal failure classes of a publish attempt.
type PublishErrorCode string

const (
	ErrNoCredential      PublishErrorCode = "no_credential"
	ErrRefreshFailed     PublishErrorCode = "refresh_failed"
	ErrFileNotFound      PublishErrorCode = "file_not_found"
	ErrAuthDenied        PublishErrorCode = "auth_denied"
	ErrPermissionDenied  PublishErrorCode = "permission_denied"
	ErrSchedulingInvalid PublishErrorCode = "scheduling_invalid"
	ErrProviderError     PublishErrorCode = "provider_error"
	ErrUploadIncomplete  PublishErrorCode = "upload_incomplete"
)

// advice maps each code to the instruction shown to the end user.
var advice = map[PublishErrorCode]string{
	ErrNoCredential:      "Connect your YouTube account before publishing",
	ErrRefreshFailed:     "Your YouTube connection expired - reconnect your account",
	ErrFileNotFound:      "The rendered video file is missing - render it again before publishing",
	ErrAuthDenied:        "YouTube rejected the credentials - reconnect your account",
	ErrPermissionDenied:  "Create a YouTube channel for this account first, then reconnect",
	ErrSchedulingInvalid: "Choose a publish time further in the future",
	ErrProviderError:     "YouTube reported an error - try again later",
	ErrUploadIncomplete:  "The upload did not finish - try again",
}

// PublishError is the terminal error for a publish attempt. Message carries the
// provider or internal detail unmodified; Advice is human-actionable.
type PublishError struct {
	Code    PublishErrorCode `json:"code"`
	Message string           `json:"message"`
	Advice  string           `json:"advice"`
	Err     error            `json:"-"`
}

func (e *PublishError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PublishError) Unwrap() error { return e.Err }

// NewPublishError builds a PublishError with the default advice for the code.
func NewPublishError(code PublishErrorCode, message string) *PublishError {
	return &PublishError{Code: code, Message: message, Advice: advice[code]}
}

// WrapPublishError is NewPublishError with an underlying cause preserved for
// errors.Is/As chains.
func WrapPublishError(code PublishErrorCode, message string, err error) *PublishError {
	return &PublishError{Code: code, Message: message, Advice: advice[code], Err: err}
}

// CodeOf extracts the publish error code from err, or "" when err is not a
// PublishError.
func CodeOf(err error) PublishErrorCode {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
