package publicauth

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/louisbranch/itemdesk/internal/services/web/authflow"
	"github.com/louisbranch/itemdesk/internal/services/web/navigation"
	apperrors "github.com/louisbranch/itemdesk/internal/services/web/platform/errors"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/publichandler"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/weberror"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
	webtemplates "github.com/louisbranch/itemdesk/internal/services/web/templates"
)

type handlers struct {
	publichandler.Base
	flow *authflow.Flow
}

type formPage struct {
	titleKey string
	action   string
	render   func(webtemplates.AuthFormView) templ.Component
}

func loginPage() formPage {
	return formPage{titleKey: "login.title", action: routepath.Login, render: webtemplates.LoginPage}
}

func signupPage() formPage {
	return formPage{titleKey: "signup.title", action: routepath.Signup, render: webtemplates.SignupPage}
}

func recoverPage() formPage {
	return formPage{titleKey: "recover.title", action: routepath.RecoverPassword, render: webtemplates.RecoverPasswordPage}
}

func resetPage(r *http.Request) formPage {
	action := routepath.ResetPassword
	if r != nil && r.URL != nil && r.URL.RawQuery != "" {
		action += "?" + r.URL.RawQuery
	}
	return formPage{titleKey: "reset.title", action: action, render: webtemplates.ResetPasswordPage}
}

func (h handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.writeForm(w, r, loginPage(), http.StatusOK, nil, "")
}

func (h handlers) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := authflow.AccessToken{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	err := h.flow.SignIn(r.Context(), form)
	h.finish(w, r, loginPage(), err, map[string]string{"username": form.Username})
}

func (h handlers) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	h.writeForm(w, r, signupPage(), http.StatusOK, nil, "")
}

func (h handlers) handleSignupSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := authflow.UserRegister{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		FullName: strings.TrimSpace(r.PostFormValue("full_name")),
	}
	values := map[string]string{"email": form.Email, "full_name": form.FullName}
	if confirm := r.PostFormValue("confirm_password"); confirm != "" && confirm != form.Password {
		err := apperrors.EK(apperrors.KindInvalidInput, "error.form.password_mismatch", "passwords do not match")
		h.finish(w, r, signupPage(), err, values)
		return
	}
	err := h.flow.SignUp(r.Context(), form)
	h.finish(w, r, signupPage(), err, values)
}

func (h handlers) handleRecoverPage(w http.ResponseWriter, r *http.Request) {
	h.writeForm(w, r, recoverPage(), http.StatusOK, nil, "")
}

func (h handlers) handleRecoverSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	err := h.flow.RecoverPassword(r.Context(), email)
	h.finish(w, r, recoverPage(), err, map[string]string{"email": email})
}

func (h handlers) handleResetPage(w http.ResponseWriter, r *http.Request) {
	h.writeForm(w, r, resetPage(r), http.StatusOK, nil, "")
}

func (h handlers) handleResetSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	err := h.flow.ConfirmResetPassword(r.Context(), r.URL.Query(), authflow.NewPasswordForm{
		NewPassword:     r.PostFormValue("new_password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	})
	h.finish(w, r, resetPage(r), err, nil)
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Provider failures are logged by the flow; the browser is signed out
	// locally either way.
	_ = h.flow.SignOut(r.Context())
	if navigation.Write(w, r, navigation.FromContext(r.Context()), h.NoticeStore()) {
		return
	}
	httpx.WriteRedirect(w, r, routepath.Login)
}

func (h handlers) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, r, apperrors.EK(apperrors.KindInvalidInput, "error.form.required", "parse form"))
		return false
	}
	return true
}

// finish sends the navigation decided by the flow, or re-renders the form
// with the failure.
func (h handlers) finish(w http.ResponseWriter, r *http.Request, page formPage, err error, values map[string]string) {
	if navigation.Write(w, r, navigation.FromContext(r.Context()), h.NoticeStore()) {
		return
	}
	if err == nil {
		httpx.WriteRedirect(w, r, page.action)
		return
	}
	status := apperrors.HTTPStatus(err)
	if httpx.IsHTMXRequest(r) {
		status = http.StatusOK
	}
	h.writeForm(w, r, page, status, values, weberror.PublicMessage(h.Localizer(r), err))
}

func (h handlers) writeForm(w http.ResponseWriter, r *http.Request, page formPage, status int, values map[string]string, message string) {
	loc := h.Localizer(r)
	h.WritePublicPage(w, r, loc.T(page.titleKey), status, page.render(webtemplates.AuthFormView{
		Loc:    loc,
		Action: page.action,
		Values: values,
		Error:  message,
	}))
}
