package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/items"
)

func TestHTTPStatusMapsKnownKinds(t *testing.T) {
	t.Parallel()

	if got := HTTPStatus(E(KindUnauthorized, "unauthorized")); got != http.StatusUnauthorized {
		t.Fatalf("unauthorized status = %d, want %d", got, http.StatusUnauthorized)
	}
	if got := HTTPStatus(E(KindInvalidInput, "bad")); got != http.StatusBadRequest {
		t.Fatalf("invalid input status = %d, want %d", got, http.StatusBadRequest)
	}
}

func TestHTTPStatusDefaultsToInternalError(t *testing.T) {
	t.Parallel()

	if got := HTTPStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", got, http.StatusInternalServerError)
	}
}

func TestErrorStringFallsBackToKindWhenMessageEmpty(t *testing.T) {
	t.Parallel()

	err := Error{Kind: KindForbidden}
	if got := err.Error(); got != string(KindForbidden) {
		t.Fatalf("Error() = %q, want %q", got, string(KindForbidden))
	}
}

func TestHTTPStatusCoversNilAndAdditionalKinds(t *testing.T) {
	t.Parallel()

	if got := HTTPStatus(nil); got != http.StatusOK {
		t.Fatalf("HTTPStatus(nil) = %d, want %d", got, http.StatusOK)
	}
	if got := HTTPStatus(E(KindForbidden, "forbidden")); got != http.StatusForbidden {
		t.Fatalf("forbidden status = %d, want %d", got, http.StatusForbidden)
	}
	if got := HTTPStatus(E(KindUnavailable, "unavailable")); got != http.StatusServiceUnavailable {
		t.Fatalf("unavailable status = %d, want %d", got, http.StatusServiceUnavailable)
	}
	if got := HTTPStatus(E(KindNotFound, "missing")); got != http.StatusNotFound {
		t.Fatalf("not-found status = %d, want %d", got, http.StatusNotFound)
	}
	if got := HTTPStatus(E(KindConflict, "conflict")); got != http.StatusConflict {
		t.Fatalf("conflict status = %d, want %d", got, http.StatusConflict)
	}
	if got := HTTPStatus(E(KindUnknown, "unknown")); got != http.StatusInternalServerError {
		t.Fatalf("unknown status = %d, want %d", got, http.StatusInternalServerError)
	}
}

func responseError(status int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
		Err:      errors.New("api error"),
	}
}

func TestHTTPStatusReadsTransportStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "smithy 401", err: responseError(http.StatusUnauthorized), want: http.StatusUnauthorized},
		{name: "smithy 403 wrapped", err: fmt.Errorf("get user: %w", responseError(http.StatusForbidden)), want: http.StatusForbidden},
		{name: "smithy 400", err: responseError(http.StatusBadRequest), want: http.StatusBadRequest},
		{name: "smithy 500", err: responseError(http.StatusInternalServerError), want: http.StatusInternalServerError},
		{name: "provider unavailable", err: fmt.Errorf("get user: %w", identity.ErrUnavailable), want: http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus(err) = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestHTTPStatusMapsDomainSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "items unauthorized", err: items.ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "items forbidden", err: fmt.Errorf("update item: %w", items.ErrForbidden), want: http.StatusForbidden},
		{name: "items not found", err: items.ErrNotFound, want: http.StatusNotFound},
		{name: "items invalid", err: items.ErrInvalidInput, want: http.StatusBadRequest},
		{name: "no session", err: identity.ErrNoSession, want: http.StatusUnauthorized},
		{name: "user exists", err: identity.ErrUserExists, want: http.StatusConflict},
		{name: "bad password", err: identity.ErrInvalidCredentials, want: http.StatusBadRequest},
		{name: "throttled", err: identity.ErrLimitExceeded, want: http.StatusTooManyRequests},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus(err) = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestHTTPStatusPrefersTransportStatusOverSentinel(t *testing.T) {
	t.Parallel()

	// Cognito reports rejected passwords as 400 NotAuthorizedException.
	err := fmt.Errorf("%w: %w", identity.ErrInvalidCredentials, responseError(http.StatusBadRequest))
	if got := HTTPStatus(err); got != http.StatusBadRequest {
		t.Fatalf("HTTPStatus(err) = %d, want %d", got, http.StatusBadRequest)
	}
}

func TestLocalizationKeyReturnsStructuredKey(t *testing.T) {
	t.Parallel()

	err := EK(KindInvalidInput, "error.reset.missing_params", "code and username are required")
	if got := LocalizationKey(err); got != "error.reset.missing_params" {
		t.Fatalf("LocalizationKey(err) = %q, want %q", got, "error.reset.missing_params")
	}
}

func TestLocalizationKeyReturnsEmptyForUnstructuredError(t *testing.T) {
	t.Parallel()

	if got := LocalizationKey(errors.New("boom")); got != "" {
		t.Fatalf("LocalizationKey(err) = %q, want empty", got)
	}
}

func TestNoticeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{err: EK(KindInvalidInput, "custom.key", "x"), want: "custom.key"},
		{err: fmt.Errorf("sign in: %w", identity.ErrInvalidCredentials), want: "error.auth.invalid_credentials"},
		{err: identity.ErrUserExists, want: "error.auth.user_exists"},
		{err: identity.ErrCodeExpired, want: "error.auth.invalid_code"},
		{err: items.ErrInvalidInput, want: "error.items.invalid_input"},
		{err: errors.New("boom"), want: "error.generic"},
	}
	for _, tc := range tests {
		if got := NoticeKey(tc.err); got != tc.want {
			t.Fatalf("NoticeKey(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
