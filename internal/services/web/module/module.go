// Package module defines the feature contract used by web composition.
package module

import (
	"net/http"

	"github.com/louisbranch/itemdesk/internal/items"
	"github.com/louisbranch/itemdesk/internal/services/web/authflow"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
)

// Viewer contains user-facing chrome data for signed-in pages.
type Viewer struct {
	UserID      string
	DisplayName string
	SignedIn    bool
}

// ResolveViewer resolves chrome viewer state for a request.
type ResolveViewer func(*http.Request) Viewer

// Mount describes a module route mount.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module declares the minimum contract required by web composition.
type Module interface {
	ID() string
	Mount() (Mount, error)
}

// Dependencies carries what modules need from the composed server.
type Dependencies struct {
	Auth          *authflow.Flow
	Items         items.Gateway
	Policy        items.Policy
	Notices       flash.Store
	ResolveViewer ResolveViewer
}
