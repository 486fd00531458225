package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/louisbranch/itemdesk/internal/platform/branding"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
)

// Toast is a one-time notice shown at the top of a page.
type Toast struct {
	Kind    string
	Message string
}

// PageContext provides shared layout context for pages.
type PageContext struct {
	Lang        string
	Loc         Localizer
	CurrentPath string
	// UserName is the signed-in user's display name; empty for anonymous
	// pages.
	UserName string
	Toast    *Toast
}

// ComposePageTitle appends the product name to a page title.
func ComposePageTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" || title == branding.AppName {
		return branding.AppName
	}
	if strings.HasSuffix(title, " | "+branding.AppName) {
		return title
	}
	return title + " | " + branding.AppName
}

// Layout renders a full document around body.
func Layout(page PageContext, title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		lang := page.Lang
		if lang == "" {
			lang = "en-US"
		}
		h.raw("<!DOCTYPE html><html")
		h.attr("lang", lang)
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4" defer></script><title>`)
		h.text(ComposePageTitle(title))
		h.raw(`</title></head><body hx-boost="true">`)
		if page.UserName != "" {
			writeNav(h, page)
		}
		h.raw(`<main id="main">`)
		h.render(ctx, MainContent(page.Toast, body))
		h.raw("</main></body></html>")
	})
}

// MainContent renders only the toast and body, as swapped by HTMX requests.
func MainContent(toast *Toast, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		if toast != nil && strings.TrimSpace(toast.Message) != "" {
			h.raw(`<div role="status"`)
			h.attr("class", "toast toast-"+toast.Kind)
			h.raw(">")
			h.text(toast.Message)
			h.raw("</div>")
		}
		h.render(ctx, body)
	})
}

func writeNav(h *htmlWriter, page PageContext) {
	h.raw(`<nav><a`)
	h.href(routepath.Home)
	h.raw(">")
	h.text(T(page.Loc, "nav.home"))
	h.raw(`</a> <a`)
	h.href(routepath.ItemsPrefix)
	h.raw(">")
	h.text(T(page.Loc, "nav.items"))
	h.raw(`</a> <span>`)
	h.text(T(page.Loc, "nav.sign_in", page.UserName))
	h.raw(`</span><form method="post"`)
	h.attr("action", routepath.Logout)
	h.raw(`><button type="submit">`)
	h.text(T(page.Loc, "nav.logout"))
	h.raw("</button></form></nav>")
}
