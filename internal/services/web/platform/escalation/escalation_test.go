package escalation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/louisbranch/itemdesk/internal/items"
	"github.com/louisbranch/itemdesk/internal/services/web/navigation"
	apperrors "github.com/louisbranch/itemdesk/internal/services/web/platform/errors"
	"github.com/louisbranch/itemdesk/internal/services/web/querycache"
)

func responseError(status int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
		Err:      errors.New("simulated"),
	}
}

func TestHandlerForcesLoginOnAuthFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantForce bool
	}{
		{name: "provider 401", err: responseError(http.StatusUnauthorized), wantForce: true},
		{name: "provider 403", err: responseError(http.StatusForbidden), wantForce: true},
		{name: "typed unauthorized", err: apperrors.E(apperrors.KindUnauthorized, "expired"), wantForce: true},
		{name: "wrapped forbidden", err: fmt.Errorf("update item: %w", items.ErrForbidden), wantForce: true},
		{name: "provider 500", err: responseError(http.StatusInternalServerError)},
		{name: "not found", err: items.ErrNotFound},
		{name: "nil", err: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			nav := navigation.New()
			nav.Navigate("/")
			Handler(navigation.WithNavigator(context.Background(), nav), tc.err)

			target, mode, _ := nav.Target()
			if tc.wantForce {
				if target != LoginPath || mode != navigation.ModeHard {
					t.Fatalf("target = %q (%v), want %q hard", target, mode, LoginPath)
				}
				return
			}
			if target != "/" || mode != navigation.ModeSoft {
				t.Fatalf("target = %q (%v), want untouched soft /", target, mode)
			}
		})
	}
}

func TestHandlerInstalledOnCacheHooks(t *testing.T) {
	t.Parallel()

	cache := querycache.New(querycache.Config{OnQueryError: Handler, OnMutationError: Handler})

	queryNav := navigation.New()
	ctx := navigation.WithNavigator(context.Background(), queryNav)
	_, _ = cache.Query(ctx, querycache.Key{"items"}, func(context.Context) (any, error) {
		return nil, responseError(http.StatusUnauthorized)
	})
	if !queryNav.Forced() {
		t.Fatal("query 401 did not force navigation")
	}

	mutationNav := navigation.New()
	ctx = navigation.WithNavigator(context.Background(), mutationNav)
	_ = cache.Mutate(ctx, querycache.Mutation{Fn: func(context.Context) error {
		return responseError(http.StatusForbidden)
	}})
	if !mutationNav.Forced() {
		t.Fatal("mutation 403 did not force navigation")
	}

	serverNav := navigation.New()
	ctx = navigation.WithNavigator(context.Background(), serverNav)
	_ = cache.Mutate(ctx, querycache.Mutation{Fn: func(context.Context) error {
		return responseError(http.StatusInternalServerError)
	}})
	if _, _, ok := serverNav.Target(); ok {
		t.Fatal("500 should not navigate")
	}
}

func TestHandlerWithoutNavigator(t *testing.T) {
	t.Parallel()

	Handler(context.Background(), responseError(http.StatusUnauthorized))
}
