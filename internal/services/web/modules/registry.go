package modules

import (
	"github.com/louisbranch/itemdesk/internal/services/web/modules/home"
	"github.com/louisbranch/itemdesk/internal/services/web/modules/items"
	"github.com/louisbranch/itemdesk/internal/services/web/modules/publicauth"
)

// PublicModules returns modules reachable with or without a session.
func PublicModules(deps Dependencies) []Module {
	return publicauth.SessionModules(deps)
}

// AuthOnlyModules returns modules that send signed-in browsers home.
func AuthOnlyModules(deps Dependencies) []Module {
	return publicauth.AuthOnlyModules(deps)
}

// ProtectedModules returns modules that require a live session.
func ProtectedModules(deps Dependencies) []Module {
	return []Module{
		home.New(deps),
		items.New(deps),
	}
}
