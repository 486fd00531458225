// Package publichandler provides a shared base for unauthenticated web module
// handlers.
package publichandler

import (
	"net/http"

	"github.com/a-h/templ"

	module "github.com/louisbranch/itemdesk/internal/services/web/module"
	apperrors "github.com/louisbranch/itemdesk/internal/services/web/platform/errors"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/itemdesk/internal/services/web/platform/i18n"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/pagerender"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/weberror"
)

// Base provides error handling and page rendering for public modules.
type Base struct {
	notices flash.Store
}

// NewBase builds a public handler base.
func NewBase(notices flash.Store) Base {
	return Base{notices: notices}
}

// ResolveRequestViewer always reports an anonymous viewer; public pages
// render without the signed-in chrome.
func (Base) ResolveRequestViewer(*http.Request) module.Viewer {
	return module.Viewer{}
}

// NoticeStore returns the flash notice store.
func (b Base) NoticeStore() flash.Store {
	return b.notices
}

// Localizer returns the request localizer.
func (Base) Localizer(r *http.Request) webi18n.Localizer {
	return webi18n.FromContext(httpx.RequestContext(r))
}

// WritePublicPage renders a full public page.
func (b Base) WritePublicPage(w http.ResponseWriter, r *http.Request, title string, statusCode int, body templ.Component) {
	if err := pagerender.WritePage(w, r, b, pagerender.Page{
		Title:      title,
		StatusCode: statusCode,
		Fragment:   body,
	}); err != nil {
		b.WriteError(w, r, err)
	}
}

// WriteNotFound renders a localized 404 error page.
func (b Base) WriteNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound, b)
}

// WriteError renders a user-safe error response: error pages for not-found
// and server errors, plain-text status messages for everything else.
func (b Base) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil {
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	if weberror.ShouldRenderAppError(statusCode) {
		weberror.WriteAppError(w, r, statusCode, b)
		return
	}
	http.Error(w, weberror.PublicMessage(b.Localizer(r), err), statusCode)
}
