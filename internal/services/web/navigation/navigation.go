// Package navigation records where a request should send the browser once
// its handler has finished.
//
// Handlers and cache callbacks call Navigate or Force on the request's
// Navigator; Write turns the final target into a redirect response.
package navigation

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
)

// Mode selects how the browser moves to the target.
type Mode int

const (
	// ModeSoft keeps the page shell; pending notices are shown on arrival.
	ModeSoft Mode = iota + 1
	// ModeHard reloads the whole document and drops pending notices.
	ModeHard
)

func (m Mode) String() string {
	switch m {
	case ModeSoft:
		return "soft"
	case ModeHard:
		return "hard"
	default:
		return "none"
	}
}

// Navigator holds the navigation decided while serving one request. A nil
// Navigator ignores every call.
type Navigator struct {
	mu     sync.Mutex
	target string
	mode   Mode
	notice *flash.Notice
}

// New returns an empty Navigator.
func New() *Navigator {
	return &Navigator{}
}

// Navigate requests a soft navigation. It does not replace a forced target.
func (n *Navigator) Navigate(to string) {
	if n == nil {
		return
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.mode == ModeHard {
		return
	}
	n.target = to
	n.mode = ModeSoft
}

// Force requests a hard navigation that overrides any soft target.
func (n *Navigator) Force(to string) {
	if n == nil {
		return
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = to
	n.mode = ModeHard
}

// Notify queues a notice for the next page. The latest notice wins.
func (n *Navigator) Notify(notice flash.Notice) {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notice = &notice
}

// Target returns the pending target and its mode.
func (n *Navigator) Target() (string, Mode, bool) {
	if n == nil {
		return "", 0, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.target == "" {
		return "", 0, false
	}
	return n.target, n.mode, true
}

// Notice returns the queued notice, if any.
func (n *Navigator) Notice() (flash.Notice, bool) {
	if n == nil {
		return flash.Notice{}, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.notice == nil {
		return flash.Notice{}, false
	}
	return *n.notice, true
}

// Forced reports whether a hard navigation is pending.
func (n *Navigator) Forced() bool {
	_, mode, ok := n.Target()
	return ok && mode == ModeHard
}

type contextKey struct{}

// WithNavigator stores nav in ctx.
func WithNavigator(ctx context.Context, nav *Navigator) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, nav)
}

// FromContext returns the request navigator, or nil.
func FromContext(ctx context.Context) *Navigator {
	if ctx == nil {
		return nil
	}
	nav, _ := ctx.Value(contextKey{}).(*Navigator)
	return nav
}

// Middleware attaches a fresh Navigator to every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithNavigator(r.Context(), New())))
	})
}

// Write sends the pending navigation as the response and reports whether it
// did. Soft navigations carry the queued notice through the flash store;
// hard navigations drop it.
func Write(w http.ResponseWriter, r *http.Request, nav *Navigator, notices flash.Store) bool {
	target, mode, ok := nav.Target()
	if !ok {
		return false
	}
	if mode == ModeSoft {
		if notice, ok := nav.Notice(); ok {
			notices.Write(w, r, notice)
		}
		if httpx.IsHTMXRequest(r) {
			httpx.WriteHXLocation(w, target)
			return true
		}
	}
	httpx.WriteRedirect(w, r, target)
	return true
}
