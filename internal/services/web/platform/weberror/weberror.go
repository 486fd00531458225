// Package weberror renders shared error responses for web modules.
package weberror

import (
	"log"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/itemdesk/internal/services/web/platform/errors"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/itemdesk/internal/services/web/platform/i18n"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/pagerender"
	webtemplates "github.com/louisbranch/itemdesk/internal/services/web/templates"
)

// ShouldRenderAppError reports whether status should use the error page.
func ShouldRenderAppError(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe localized error message.
func PublicMessage(loc webi18n.Localizer, err error) string {
	if err == nil {
		return ""
	}
	if localized := strings.TrimSpace(loc.T(apperrors.NoticeKey(err))); localized != "" {
		return localized
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	return http.StatusText(statusCode)
}

// WriteAppError writes a localized error page for full-page and HTMX
// requests.
func WriteAppError(w http.ResponseWriter, r *http.Request, statusCode int, resolver pagerender.RequestResolver) {
	if w == nil {
		return
	}
	if !ShouldRenderAppError(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	loc := webi18n.FromContext(httpx.RequestContext(r))
	err := pagerender.WritePage(w, r, resolver, pagerender.Page{
		Title:      http.StatusText(statusCode),
		StatusCode: statusCode,
		Fragment:   webtemplates.ErrorPage(statusCode, loc),
	})
	if err != nil {
		http.Error(w, http.StatusText(statusCode), statusCode)
	}
}

// WriteModuleError writes a module-safe localized error response.
func WriteModuleError(w http.ResponseWriter, r *http.Request, err error, resolver pagerender.RequestResolver) {
	if w == nil {
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode >= http.StatusInternalServerError {
		log.Printf("web request failed method=%s path=%s request_id=%s err=%v", r.Method, r.URL.Path, httpx.RequestIDFrom(r), err)
	}
	if ShouldRenderAppError(statusCode) {
		WriteAppError(w, r, statusCode, resolver)
		return
	}
	loc := webi18n.FromContext(httpx.RequestContext(r))
	http.Error(w, PublicMessage(loc, err), statusCode)
}
