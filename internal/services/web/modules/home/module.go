// Package home serves the signed-in landing page.
package home

import (
	"net/http"

	module "github.com/louisbranch/itemdesk/internal/services/web/module"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/modulehandler"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
	webtemplates "github.com/louisbranch/itemdesk/internal/services/web/templates"
)

// Module provides the home route.
type Module struct {
	deps module.Dependencies
}

// New returns a home module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "home" }

// Mount wires the home handler at the site root only.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, handlers{Base: modulehandler.NewBase(m.deps.ResolveViewer, m.deps.Notices)})
	return module.Mount{Prefix: routepath.Root + "{$}", Handler: mux}, nil
}

type handlers struct {
	modulehandler.Base
}

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.Root+"{$}", h.handleIndex)
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	loc := h.Localizer(r)
	viewer := h.ResolveRequestViewer(r)
	h.WritePage(w, r, loc.T("nav.home"), http.StatusOK, webtemplates.HomePage(loc, viewer.DisplayName))
}
