// Package guard evaluates ordered pre-navigation checks before a page
// handler runs.
package guard

import (
	"net/http"
	"strings"

	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
)

// Decision is the outcome of one guard: allow, or redirect elsewhere.
type Decision struct {
	redirect string
}

// Allow lets navigation continue.
func Allow() Decision { return Decision{} }

// RedirectTo sends the browser to target instead.
func RedirectTo(target string) Decision {
	return Decision{redirect: strings.TrimSpace(target)}
}

// Redirect returns the redirect target, if any.
func (d Decision) Redirect() (string, bool) {
	return d.redirect, d.redirect != ""
}

// Allowed reports whether navigation may continue.
func (d Decision) Allowed() bool {
	return d.redirect == ""
}

// Guard inspects a request before its page renders.
type Guard func(*http.Request) Decision

// SignedIn reports whether the request carries a live provider session.
type SignedIn func(*http.Request) bool

// Evaluate runs guards in order and returns the first redirect.
func Evaluate(r *http.Request, guards ...Guard) Decision {
	for _, g := range guards {
		if g == nil {
			continue
		}
		if decision := g(r); !decision.Allowed() {
			return decision
		}
	}
	return Allow()
}

// Middleware redirects before next runs when any guard objects.
func Middleware(guards ...Guard) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if target, ok := Evaluate(r, guards...).Redirect(); ok {
				httpx.WriteRedirect(w, r, target)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession sends anonymous visitors to loginPath.
func RequireSession(signedIn SignedIn, loginPath string) Guard {
	return func(r *http.Request) Decision {
		if signedIn != nil && signedIn(r) {
			return Allow()
		}
		return RedirectTo(loginPath)
	}
}

// RequireAnonymous sends signed-in visitors to homePath. It guards the pages
// that only make sense without a session.
func RequireAnonymous(signedIn SignedIn, homePath string) Guard {
	return func(r *http.Request) Decision {
		if signedIn != nil && signedIn(r) {
			return RedirectTo(homePath)
		}
		return Allow()
	}
}
