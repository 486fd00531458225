// Package app composes module route groups behind their guards.
package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/louisbranch/itemdesk/internal/services/web/guard"
	module "github.com/louisbranch/itemdesk/internal/services/web/module"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/itemdesk/internal/services/web/platform/i18n"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
)

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	// SignedIn backs every route guard.
	SignedIn guard.SignedIn
	// PublicModules are reachable with or without a session.
	PublicModules []module.Module
	// AuthOnlyModules send signed-in browsers home.
	AuthOnlyModules []module.Module
	// ProtectedModules send anonymous browsers to sign in.
	ProtectedModules []module.Module
	// AuthOnlyMiddleware runs after the auth-only guard, typically the
	// credential rate limiter.
	AuthOnlyMiddleware  []httpx.Middleware
	RequestSchemePolicy requestmeta.SchemePolicy
}

// Compose builds a root HTTP handler from module groups.
func Compose(input ComposeInput) (http.Handler, error) {
	root := http.NewServeMux()
	if input.SignedIn == nil {
		input.SignedIn = func(*http.Request) bool { return false }
	}
	seen := make(map[string]string)
	sameOrigin := requireCookieSessionSameOrigin(input.RequestSchemePolicy)

	groups := []struct {
		name    string
		modules []module.Module
		wrap    []httpx.Middleware
	}{
		{
			name:    "public",
			modules: input.PublicModules,
			wrap:    []httpx.Middleware{sameOrigin},
		},
		{
			name:    "auth-only",
			modules: input.AuthOnlyModules,
			wrap: append([]httpx.Middleware{
				guard.Middleware(guard.RequireAnonymous(input.SignedIn, routepath.Home)),
				sameOrigin,
			}, input.AuthOnlyMiddleware...),
		},
		{
			name:    "protected",
			modules: input.ProtectedModules,
			wrap: []httpx.Middleware{
				guard.Middleware(guard.RequireSession(input.SignedIn, routepath.Login)),
				sameOrigin,
			},
		},
	}
	for _, group := range groups {
		for _, feature := range group.modules {
			if feature == nil {
				return nil, fmt.Errorf("%s module is nil", group.name)
			}
			if err := mountModule(root, feature, seen, group.wrap); err != nil {
				return nil, err
			}
		}
	}
	return root, nil
}

func mountModule(root *http.ServeMux, feature module.Module, seen map[string]string, wrap []httpx.Middleware) error {
	mount, prefix, err := resolveMount(feature)
	if err != nil {
		return err
	}
	if previous, ok := seen[prefix]; ok {
		return fmt.Errorf("module %q duplicates prefix %q owned by module %q", feature.ID(), prefix, previous)
	}
	seen[prefix] = feature.ID()
	root.Handle(prefix, httpx.Chain(mount.Handler, wrap...))
	return nil
}

func resolveMount(feature module.Module) (module.Mount, string, error) {
	mount, err := feature.Mount()
	if err != nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	if err := validatePrefix(mount.Prefix); err != nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q has invalid prefix %q: %w", feature.ID(), mount.Prefix, err)
	}
	if mount.Handler == nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: handler is required", feature.ID())
	}
	return mount, mount.Prefix, nil
}

// validatePrefix accepts exact paths ("/login"), subtrees ("/items/") and
// the exact site root ("/{$}").
func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if strings.TrimSpace(prefix) != prefix || strings.ContainsAny(prefix, " \t") {
		return fmt.Errorf("prefix must not include whitespace")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("prefix must begin with /")
	}
	if prefix == "/" {
		return fmt.Errorf("prefix must not claim every path; use /{$} for the root")
	}
	return nil
}

// requireCookieSessionSameOrigin rejects cross-origin form posts from
// browsers that already carry a client cookie.
func requireCookieSessionSameOrigin(policy requestmeta.SchemePolicy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutationMethod(r) || !hasSessionCookie(r) || policy.SameOrigin(r) {
				next.ServeHTTP(w, r)
				return
			}
			loc := webi18n.FromContext(httpx.RequestContext(r))
			http.Error(w, loc.T("error.form.origin"), http.StatusForbidden)
		})
	}
}

func isMutationMethod(r *http.Request) bool {
	if r == nil {
		return false
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func hasSessionCookie(r *http.Request) bool {
	_, ok := sessioncookie.Read(r)
	return ok
}
