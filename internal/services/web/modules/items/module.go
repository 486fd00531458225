// Package items serves the Item listing and its add, edit and delete forms.
package items

import (
	"net/http"

	module "github.com/louisbranch/itemdesk/internal/services/web/module"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/modulehandler"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
)

// Module provides the authenticated item routes.
type Module struct {
	deps module.Dependencies
}

// New returns an items module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "items" }

// Mount wires item route handlers.
func (m Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(m.deps))
	return module.Mount{Prefix: routepath.ItemsPrefix, Handler: mux}, nil
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{
		Base:    modulehandler.NewBase(deps.ResolveViewer, deps.Notices),
		service: newService(deps.Items, deps.Policy),
	}
}
