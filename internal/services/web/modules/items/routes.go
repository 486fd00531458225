package items

import (
	"net/http"

	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.ItemsPrefix+"{$}", h.handleList)
	mux.HandleFunc(http.MethodGet+" "+routepath.ItemsNew, h.handleNew)
	mux.HandleFunc(http.MethodPost+" "+routepath.ItemsNew, h.handleCreate)
	mux.HandleFunc(http.MethodGet+" "+routepath.ItemEditPattern, h.handleEdit)
	mux.HandleFunc(http.MethodPost+" "+routepath.ItemEditPattern, h.handleUpdate)
	mux.HandleFunc(http.MethodGet+" "+routepath.ItemDeletePattern, h.handleDeleteConfirm)
	mux.HandleFunc(http.MethodPost+" "+routepath.ItemDeletePattern, h.handleDelete)
	mux.HandleFunc(http.MethodGet+" "+routepath.ItemsPrefix+"{rest...}", h.WriteNotFound)
}
