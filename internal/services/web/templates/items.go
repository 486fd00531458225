package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
)

// ItemRow is one item in the listing.
type ItemRow struct {
	ID          string
	Title       string
	Description string
	// CanModify shows the edit and delete actions.
	CanModify bool
}

// ItemsPage lists the caller's visible items.
func ItemsPage(loc Localizer, rows []ItemRow) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw("<section><h1>")
		h.text(T(loc, "items.title"))
		h.raw("</h1><a")
		h.href(routepath.ItemsNew)
		h.raw(">")
		h.text(T(loc, "items.add"))
		h.raw("</a>")
		if len(rows) == 0 {
			h.raw(`<div class="empty"><h2>`)
			h.text(T(loc, "items.empty"))
			h.raw("</h2><p>")
			h.text(T(loc, "items.empty_help"))
			h.raw("</p></div></section>")
			return
		}
		h.raw("<table><thead><tr><th>")
		h.text(T(loc, "items.col_title"))
		h.raw("</th><th>")
		h.text(T(loc, "items.col_description"))
		h.raw("</th><th>")
		h.text(T(loc, "items.col_actions"))
		h.raw("</th></tr></thead><tbody>")
		for _, row := range rows {
			h.raw("<tr")
			h.attr("id", "item-"+row.ID)
			h.raw("><td>")
			h.text(row.Title)
			h.raw("</td><td>")
			if row.Description == "" {
				h.text(T(loc, "items.no_description"))
			} else {
				h.text(row.Description)
			}
			h.raw("</td><td>")
			if row.CanModify {
				writeItemActions(h, loc, row.ID)
			}
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table></section>")
	})
}

func writeItemActions(h *htmlWriter, loc Localizer, itemID string) {
	h.raw(`<details class="actions"><summary>⋮</summary><a`)
	h.href(routepath.ItemEdit(itemID))
	h.raw(">")
	h.text(T(loc, "items.edit"))
	h.raw("</a><a")
	h.href(routepath.ItemDelete(itemID))
	h.raw(">")
	h.text(T(loc, "items.delete"))
	h.raw("</a></details>")
}

// ItemFormView carries the add and edit form state.
type ItemFormView struct {
	Loc         Localizer
	Action      string
	TitleKey    string
	Title       string
	Description string
	Error       string
}

// ItemFormPage renders the add or edit form.
func ItemFormPage(view ItemFormView) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw("<section><h1>")
		h.text(T(view.Loc, view.TitleKey))
		h.raw("</h1>")
		if view.Error != "" {
			h.raw(`<p role="alert" class="form-error">`)
			h.text(view.Error)
			h.raw("</p>")
		}
		h.raw(`<form method="post"`)
		h.attr("action", view.Action)
		h.raw("><label>")
		h.text(T(view.Loc, "items.field_title"))
		h.raw(`<input type="text" name="title" required`)
		h.attr("value", view.Title)
		h.raw("></label><label>")
		h.text(T(view.Loc, "items.field_description"))
		h.raw(`<input type="text" name="description"`)
		h.attr("value", view.Description)
		h.raw(`></label><button type="submit">`)
		h.text(T(view.Loc, "items.save"))
		h.raw("</button><a")
		h.href(routepath.ItemsPrefix)
		h.raw(">")
		h.text(T(view.Loc, "items.cancel"))
		h.raw("</a></form></section>")
	})
}

// ItemDeletePage asks for confirmation before deleting.
func ItemDeletePage(loc Localizer, itemID, title string) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw("<section><h1>")
		h.text(T(loc, "items.delete"))
		h.raw("</h1><p><strong>")
		h.text(title)
		h.raw("</strong></p><p>")
		h.text(T(loc, "items.delete_confirm"))
		h.raw(`</p><form method="post"`)
		h.attr("action", routepath.ItemDelete(itemID))
		h.raw(`><button type="submit">`)
		h.text(T(loc, "items.delete"))
		h.raw("</button><a")
		h.href(routepath.ItemsPrefix)
		h.raw(">")
		h.text(T(loc, "items.cancel"))
		h.raw("</a></form></section>")
	})
}
