package items

import (
	"errors"
	"net/http"
	"strings"

	itemdomain "github.com/louisbranch/itemdesk/internal/items"
	"github.com/louisbranch/itemdesk/internal/services/web/navigation"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/modulehandler"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/weberror"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
	webtemplates "github.com/louisbranch/itemdesk/internal/services/web/templates"
)

type handlers struct {
	modulehandler.Base
	service service
}

func (h handlers) handleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	list, err := h.service.list(r.Context(), principal)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows := make([]webtemplates.ItemRow, 0, len(list))
	for _, item := range list {
		rows = append(rows, webtemplates.ItemRow{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			CanModify:   h.service.canModify(principal, item),
		})
	}
	loc := h.Localizer(r)
	h.WritePage(w, r, loc.T("items.title"), http.StatusOK, webtemplates.ItemsPage(loc, rows))
}

func (h handlers) handleNew(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	h.writeForm(w, r, http.StatusOK, webtemplates.ItemFormView{Action: routepath.ItemsNew, TitleKey: "items.add"})
}

func (h handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	input, ok := h.parseInput(w, r)
	if !ok {
		return
	}
	err := h.service.create(r.Context(), principal, input)
	h.finishForm(w, r, err, webtemplates.ItemFormView{
		Action:      routepath.ItemsNew,
		TitleKey:    "items.add",
		Title:       input.Title,
		Description: input.Description,
	})
}

func (h handlers) handleEdit(w http.ResponseWriter, r *http.Request) {
	_, item, ok := h.modifiableItem(w, r)
	if !ok {
		return
	}
	h.writeForm(w, r, http.StatusOK, webtemplates.ItemFormView{
		Action:      routepath.ItemEdit(item.ID),
		TitleKey:    "items.edit",
		Title:       item.Title,
		Description: item.Description,
	})
}

func (h handlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	itemID := itemIDFrom(r)
	input, ok := h.parseInput(w, r)
	if !ok {
		return
	}
	err := h.service.update(r.Context(), principal, itemID, input)
	h.finishForm(w, r, err, webtemplates.ItemFormView{
		Action:      routepath.ItemEdit(itemID),
		TitleKey:    "items.edit",
		Title:       input.Title,
		Description: input.Description,
	})
}

func (h handlers) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	_, item, ok := h.modifiableItem(w, r)
	if !ok {
		return
	}
	loc := h.Localizer(r)
	h.WritePage(w, r, loc.T("items.delete"), http.StatusOK, webtemplates.ItemDeletePage(loc, item.ID, item.Title))
}

func (h handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	err := h.service.remove(r.Context(), principal, itemIDFrom(r))
	if navigation.Write(w, r, navigation.FromContext(r.Context()), h.NoticeStore()) {
		return
	}
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	httpx.WriteRedirect(w, r, routepath.ItemsPrefix)
}

// principal resolves the signed-in caller, sending the browser to sign in
// when the session cannot be resolved.
func (h handlers) principal(w http.ResponseWriter, r *http.Request) (itemdomain.Principal, bool) {
	principal, ok := h.RequestPrincipal(r)
	if !ok {
		httpx.WriteRedirect(w, r, routepath.Login)
		return itemdomain.Principal{}, false
	}
	return principal, true
}

// modifiableItem loads the routed item for the edit and delete pages. Items
// the caller cannot change are reported as missing.
func (h handlers) modifiableItem(w http.ResponseWriter, r *http.Request) (itemdomain.Principal, itemdomain.Item, bool) {
	principal, ok := h.principal(w, r)
	if !ok {
		return itemdomain.Principal{}, itemdomain.Item{}, false
	}
	item, err := h.service.get(r.Context(), principal, itemIDFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return itemdomain.Principal{}, itemdomain.Item{}, false
	}
	if !h.service.canModify(principal, item) {
		h.WriteNotFound(w, r)
		return itemdomain.Principal{}, itemdomain.Item{}, false
	}
	return principal, item, true
}

func (h handlers) parseInput(w http.ResponseWriter, r *http.Request) (itemdomain.Input, bool) {
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, r, itemdomain.ErrInvalidInput)
		return itemdomain.Input{}, false
	}
	return itemdomain.Input{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}, true
}

// finishForm sends the navigation decided by the mutation, re-renders the
// form on invalid input, or writes the error.
func (h handlers) finishForm(w http.ResponseWriter, r *http.Request, err error, view webtemplates.ItemFormView) {
	if navigation.Write(w, r, navigation.FromContext(r.Context()), h.NoticeStore()) {
		return
	}
	switch {
	case err == nil:
		httpx.WriteRedirect(w, r, routepath.ItemsPrefix)
	case errors.Is(err, itemdomain.ErrInvalidInput):
		status := http.StatusBadRequest
		if httpx.IsHTMXRequest(r) {
			status = http.StatusOK
		}
		view.Error = weberror.PublicMessage(h.Localizer(r), err)
		h.writeForm(w, r, status, view)
	default:
		h.WriteError(w, r, err)
	}
}

// fail prefers a navigation queued by the cache hooks over the error page.
func (h handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if navigation.Write(w, r, navigation.FromContext(r.Context()), h.NoticeStore()) {
		return
	}
	h.WriteError(w, r, err)
}

func (h handlers) writeForm(w http.ResponseWriter, r *http.Request, status int, view webtemplates.ItemFormView) {
	loc := h.Localizer(r)
	view.Loc = loc
	h.WritePage(w, r, loc.T(view.TitleKey), status, webtemplates.ItemFormPage(view))
}

func itemIDFrom(r *http.Request) string {
	return strings.TrimSpace(r.PathValue(routepath.ItemIDPathValueKey))
}
