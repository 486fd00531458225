package templates

import (
	"context"

	"github.com/a-h/templ"
)

// HomePage greets the signed-in user.
func HomePage(loc Localizer, displayName string) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw("<section><h1>")
		h.text(T(loc, "home.greeting", displayName))
		h.raw("</h1><p>")
		h.text(T(loc, "home.welcome"))
		h.raw("</p></section>")
	})
}
