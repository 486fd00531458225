package templates

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
)

// ErrorPage renders a short message for a failed request.
func ErrorPage(statusCode int, loc Localizer) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<section id="app-error-state"><h1>`)
		h.text(http.StatusText(statusCode))
		h.raw("</h1><p>")
		if statusCode == http.StatusNotFound {
			h.text(T(loc, "error.items.not_found"))
		} else {
			h.text(T(loc, "error.generic"))
		}
		h.raw("</p></section>")
	})
}
