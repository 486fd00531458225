// Package escalation reacts to authorization failures from any cached query
// or mutation by sending the browser back to sign in.
package escalation

import (
	"context"
	"log"
	"net/http"

	"github.com/louisbranch/itemdesk/internal/services/web/navigation"
	apperrors "github.com/louisbranch/itemdesk/internal/services/web/platform/errors"
)

// LoginPath is where authorization failures land.
const LoginPath = "/login"

// Handler forces a hard navigation to LoginPath when err carries a 401 or
// 403 status. Other failures are left to the caller.
func Handler(ctx context.Context, err error) {
	if err == nil {
		return
	}
	status := apperrors.HTTPStatus(err)
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return
	}
	nav := navigation.FromContext(ctx)
	if nav == nil {
		log.Printf("auth escalation without navigator status=%d err=%v", status, err)
		return
	}
	nav.Force(LoginPath)
}
