// Package publicauth serves the credential pages: sign in, sign up, password
// recovery and reset, plus sign out.
package publicauth

import (
	"net/http"

	module "github.com/louisbranch/itemdesk/internal/services/web/module"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/publichandler"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
)

// Surface is one credential page mounted at an exact path.
type Surface struct {
	id      string
	path    string
	handler http.Handler
}

// ID returns a stable module identifier.
func (s Surface) ID() string { return s.id }

// Mount returns the surface path and the shared route handler.
func (s Surface) Mount() (module.Mount, error) {
	return module.Mount{Prefix: s.path, Handler: s.handler}, nil
}

// AuthOnlyModules returns the pages that only make sense without a session.
func AuthOnlyModules(deps module.Dependencies) []module.Module {
	mux := newMux(deps)
	return []module.Module{
		Surface{id: "publicauth.login", path: routepath.Login, handler: mux},
		Surface{id: "publicauth.signup", path: routepath.Signup, handler: mux},
		Surface{id: "publicauth.recover", path: routepath.RecoverPassword, handler: mux},
		Surface{id: "publicauth.reset", path: routepath.ResetPassword, handler: mux},
	}
}

// SessionModules returns the unguarded session endpoints.
func SessionModules(deps module.Dependencies) []module.Module {
	return []module.Module{
		Surface{id: "publicauth.logout", path: routepath.Logout, handler: newMux(deps)},
	}
}

func newMux(deps module.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(deps))
	return mux
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{Base: publichandler.NewBase(deps.Notices), flow: deps.Auth}
}
