// Package modulehandler provides a composable base for protected web module
// handlers.
//
// Protected modules share viewer resolution, localization, page rendering
// and error handling. Modules embed Base rather than duplicating it.
package modulehandler

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/louisbranch/itemdesk/internal/items"
	module "github.com/louisbranch/itemdesk/internal/services/web/module"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/itemdesk/internal/services/web/platform/i18n"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/pagerender"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/weberror"
	"github.com/louisbranch/itemdesk/internal/services/web/webclient"
)

// Base carries the request-scoped resolvers used by protected handlers.
type Base struct {
	resolveViewer module.ResolveViewer
	notices       flash.Store
}

// NewBase builds a handler base.
func NewBase(resolveViewer module.ResolveViewer, notices flash.Store) Base {
	return Base{resolveViewer: resolveViewer, notices: notices}
}

// NewTestBase builds a handler base with an anonymous viewer.
func NewTestBase() Base {
	return Base{resolveViewer: func(*http.Request) module.Viewer { return module.Viewer{} }}
}

// ResolveRequestViewer resolves chrome viewer state for a request.
func (b Base) ResolveRequestViewer(r *http.Request) module.Viewer {
	if b.resolveViewer == nil {
		return module.Viewer{}
	}
	return b.resolveViewer(r)
}

// NoticeStore returns the flash notice store.
func (b Base) NoticeStore() flash.Store {
	return b.notices
}

// Localizer returns the request localizer.
func (b Base) Localizer(r *http.Request) webi18n.Localizer {
	return webi18n.FromContext(httpx.RequestContext(r))
}

// RequestPrincipal returns the signed-in caller for gateway calls. The access
// token comes from the browser's credential slot.
func (b Base) RequestPrincipal(r *http.Request) (items.Principal, bool) {
	viewer := b.ResolveRequestViewer(r)
	userID := strings.TrimSpace(viewer.UserID)
	if !viewer.SignedIn || userID == "" {
		return items.Principal{}, false
	}
	principal := items.Principal{UserID: userID}
	if client := webclient.FromContext(httpx.RequestContext(r)); client != nil {
		principal.AccessToken = client.Credentials().AccessToken
	}
	return principal, true
}

// WriteError renders a localized module error response.
func (b Base) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WriteModuleError(w, r, err, b)
}

// WriteNotFound renders a 404 error page within the app shell.
func (b Base) WriteNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound, b)
}

// WritePage renders a full module page (HTMX-aware).
func (b Base) WritePage(w http.ResponseWriter, r *http.Request, title string, statusCode int, fragment templ.Component) {
	if err := pagerender.WritePage(w, r, b, pagerender.Page{
		Title:      title,
		StatusCode: statusCode,
		Fragment:   fragment,
	}); err != nil {
		b.WriteError(w, r, err)
	}
}
