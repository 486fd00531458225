package publicauth

import (
	"net/http"

	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.Login, h.handleLoginPage)
	mux.HandleFunc(http.MethodPost+" "+routepath.Login, h.handleLoginSubmit)
	mux.HandleFunc(http.MethodGet+" "+routepath.Signup, h.handleSignupPage)
	mux.HandleFunc(http.MethodPost+" "+routepath.Signup, h.handleSignupSubmit)
	mux.HandleFunc(http.MethodGet+" "+routepath.RecoverPassword, h.handleRecoverPage)
	mux.HandleFunc(http.MethodPost+" "+routepath.RecoverPassword, h.handleRecoverSubmit)
	mux.HandleFunc(http.MethodGet+" "+routepath.ResetPassword, h.handleResetPage)
	mux.HandleFunc(http.MethodPost+" "+routepath.ResetPassword, h.handleResetSubmit)
	mux.HandleFunc(http.MethodPost+" "+routepath.Logout, h.handleLogout)
	mux.Handle(routepath.Logout, httpx.MethodNotAllowed(http.MethodPost))
}
