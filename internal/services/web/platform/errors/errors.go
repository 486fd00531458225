// Package errors defines web typed application errors.
package errors

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/items"
)

// Kind classifies application failures for consistent HTTP mapping.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindInvalidInput Kind = "invalid_input"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnavailable  Kind = "unavailable"
)

// Error is a typed web application failure.
type Error struct {
	Kind    Kind
	Key     string
	Message string
}

// Error renders the human-readable message.
func (e Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// E builds a typed Error.
func E(kind Kind, message string) error {
	return Error{Kind: kind, Message: message}
}

// EK builds a typed Error with a localization key.
func EK(kind Kind, key string, message string) error {
	return Error{Kind: kind, Key: strings.TrimSpace(key), Message: message}
}

// LocalizationKey returns the structured localization key when available.
func LocalizationKey(err error) string {
	if err == nil {
		return ""
	}
	var appErr Error
	if !stderrors.As(err, &appErr) {
		return ""
	}
	return strings.TrimSpace(appErr.Key)
}

// statusCarrier is implemented by transport errors that know the HTTP status
// of the failed call, such as smithy-go response errors.
type statusCarrier interface {
	HTTPStatusCode() int
}

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr Error
	if stderrors.As(err, &appErr) {
		return kindHTTPStatus(appErr.Kind)
	}
	var carrier statusCarrier
	if stderrors.As(err, &carrier) {
		if code := carrier.HTTPStatusCode(); code >= 400 {
			return code
		}
	}
	return sentinelHTTPStatus(err, http.StatusInternalServerError)
}

func kindHTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func sentinelHTTPStatus(err error, fallback int) int {
	switch {
	case stderrors.Is(err, items.ErrUnauthorized), stderrors.Is(err, identity.ErrNoSession):
		return http.StatusUnauthorized
	case stderrors.Is(err, items.ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, items.ErrNotFound), stderrors.Is(err, identity.ErrUserNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, identity.ErrUserExists):
		return http.StatusConflict
	case stderrors.Is(err, identity.ErrLimitExceeded):
		return http.StatusTooManyRequests
	case stderrors.Is(err, identity.ErrUnavailable):
		return http.StatusServiceUnavailable
	case stderrors.Is(err, items.ErrInvalidInput),
		stderrors.Is(err, identity.ErrInvalidCredentials),
		stderrors.Is(err, identity.ErrInvalidUsername),
		stderrors.Is(err, identity.ErrInvalidPassword),
		stderrors.Is(err, identity.ErrInvalidCode),
		stderrors.Is(err, identity.ErrCodeExpired),
		stderrors.Is(err, identity.ErrUserNotConfirmed),
		stderrors.Is(err, identity.ErrUnsupportedFlow):
		return http.StatusBadRequest
	default:
		return fallback
	}
}

// NoticeKey returns the localization key that best describes err for a
// user-facing notice.
func NoticeKey(err error) string {
	if key := LocalizationKey(err); key != "" {
		return key
	}
	switch {
	case stderrors.Is(err, identity.ErrInvalidCredentials):
		return "error.auth.invalid_credentials"
	case stderrors.Is(err, identity.ErrUserExists):
		return "error.auth.user_exists"
	case stderrors.Is(err, identity.ErrUserNotConfirmed):
		return "error.auth.user_not_confirmed"
	case stderrors.Is(err, identity.ErrInvalidPassword):
		return "error.auth.invalid_password"
	case stderrors.Is(err, identity.ErrInvalidUsername):
		return "error.auth.invalid_username"
	case stderrors.Is(err, identity.ErrInvalidCode), stderrors.Is(err, identity.ErrCodeExpired):
		return "error.auth.invalid_code"
	case stderrors.Is(err, identity.ErrLimitExceeded):
		return "error.auth.limit_exceeded"
	case stderrors.Is(err, identity.ErrUnsupportedFlow):
		return "error.auth.unsupported_flow"
	case stderrors.Is(err, identity.ErrUnavailable):
		return "error.auth.unavailable"
	case stderrors.Is(err, items.ErrInvalidInput):
		return "error.items.invalid_input"
	case stderrors.Is(err, items.ErrNotFound):
		return "error.items.not_found"
	case stderrors.Is(err, items.ErrForbidden):
		return "error.items.forbidden"
	default:
		return "error.generic"
	}
}
