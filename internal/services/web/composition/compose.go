// Package composition wires the feature modules and the session flow into
// the application route tree.
package composition

import (
	"errors"
	"net/http"

	"github.com/louisbranch/itemdesk/internal/items"
	webapp "github.com/louisbranch/itemdesk/internal/services/web/app"
	"github.com/louisbranch/itemdesk/internal/services/web/authflow"
	module "github.com/louisbranch/itemdesk/internal/services/web/module"
	"github.com/louisbranch/itemdesk/internal/services/web/modules"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/requestmeta"
)

// ComposeInput describes the contracts needed to compose the application mux.
type ComposeInput struct {
	Auth   *authflow.Flow
	Items  items.Gateway
	Policy items.Policy
	// AuthOnlyMiddleware wraps the sign in, sign up and password pages.
	AuthOnlyMiddleware  []httpx.Middleware
	RequestSchemePolicy requestmeta.SchemePolicy
}

// ComposeAppHandler builds the web app handler from the module registry.
func ComposeAppHandler(input ComposeInput) (http.Handler, error) {
	if input.Auth == nil {
		return nil, errors.New("auth flow is required")
	}
	deps := modules.Dependencies{
		Auth:          input.Auth,
		Items:         input.Items,
		Policy:        input.Policy,
		Notices:       flash.Store{Policy: input.RequestSchemePolicy},
		ResolveViewer: ViewerResolver(input.Auth),
	}
	return webapp.Compose(webapp.ComposeInput{
		SignedIn:            input.Auth.SignedIn,
		PublicModules:       modules.PublicModules(deps),
		AuthOnlyModules:     modules.AuthOnlyModules(deps),
		ProtectedModules:    modules.ProtectedModules(deps),
		AuthOnlyMiddleware:  input.AuthOnlyMiddleware,
		RequestSchemePolicy: input.RequestSchemePolicy,
	})
}

// ViewerResolver resolves page chrome from the browser's cached identity.
func ViewerResolver(flow *authflow.Flow) module.ResolveViewer {
	return func(r *http.Request) module.Viewer {
		if flow == nil || r == nil {
			return module.Viewer{}
		}
		current, ok := flow.CurrentIdentity(r.Context())
		if !ok {
			return module.Viewer{}
		}
		name := current.FullName
		if name == "" {
			name = current.Email
		}
		return module.Viewer{UserID: current.ID, DisplayName: name, SignedIn: true}
	}
}
