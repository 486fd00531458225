// Package pagerender centralizes module page rendering behavior.
package pagerender

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	module "github.com/louisbranch/itemdesk/internal/services/web/module"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/itemdesk/internal/services/web/platform/i18n"
	webtemplates "github.com/louisbranch/itemdesk/internal/services/web/templates"
)

// RequestResolver resolves viewer state and pending notices for a request.
type RequestResolver interface {
	ResolveRequestViewer(r *http.Request) module.Viewer
	NoticeStore() flash.Store
}

// Page describes a page response for both full-page and HTMX flows.
type Page struct {
	Title      string
	StatusCode int
	Fragment   templ.Component
}

// WritePage renders page inside the app layout, or only its main content for
// HTMX requests. The pending flash notice is consumed either way.
func WritePage(w http.ResponseWriter, r *http.Request, resolver RequestResolver, page Page) error {
	if w == nil {
		return nil
	}
	statusCode := page.StatusCode
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	ctx := httpx.RequestContext(r)
	loc := webi18n.FromContext(ctx)
	viewer := module.Viewer{}
	var toast *webtemplates.Toast
	if resolver != nil {
		viewer = resolver.ResolveRequestViewer(r)
		toast = resolveFlashToast(w, r, resolver.NoticeStore(), loc)
	}

	var component templ.Component
	if httpx.IsHTMXRequest(r) {
		component = webtemplates.MainContent(toast, page.Fragment)
	} else {
		pageContext := webtemplates.PageContext{
			Lang:        loc.Tag().String(),
			Loc:         loc,
			CurrentPath: currentPath(r),
			Toast:       toast,
		}
		if viewer.SignedIn {
			pageContext.UserName = displayName(viewer)
		}
		component = webtemplates.Layout(pageContext, page.Title, page.Fragment)
	}

	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
	return nil
}

func resolveFlashToast(w http.ResponseWriter, r *http.Request, notices flash.Store, loc webi18n.Localizer) *webtemplates.Toast {
	notice, ok := notices.ReadAndClear(w, r)
	if !ok {
		return nil
	}
	message := strings.TrimSpace(loc.T(notice.Key))
	if message == "" {
		return nil
	}
	return &webtemplates.Toast{Kind: string(notice.Kind), Message: message}
}

func displayName(viewer module.Viewer) string {
	if name := strings.TrimSpace(viewer.DisplayName); name != "" {
		return name
	}
	return viewer.UserID
}

func currentPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Path
}
