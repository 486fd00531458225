package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
)

// AuthFormView carries the state of one credential form.
type AuthFormView struct {
	Loc Localizer
	// Action is the form target, including any query it must carry.
	Action string
	// Values refills fields after a failed submission. Passwords are never
	// echoed.
	Values map[string]string
	// Error is the localized failure message, when the last submission
	// failed.
	Error string
}

type field struct {
	name      string
	labelKey  string
	inputType string
	required  bool
}

func authForm(view AuthFormView, titleKey, helpKey, submitKey string, fields []field, footer func(*htmlWriter)) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw("<section><h1>")
		h.text(T(view.Loc, titleKey))
		h.raw("</h1>")
		if helpKey != "" {
			h.raw("<p>")
			h.text(T(view.Loc, helpKey))
			h.raw("</p>")
		}
		if view.Error != "" {
			h.raw(`<p role="alert" class="form-error">`)
			h.text(view.Error)
			h.raw("</p>")
		}
		h.raw(`<form method="post"`)
		h.attr("action", view.Action)
		h.raw(">")
		for _, f := range fields {
			h.raw("<label>")
			h.text(T(view.Loc, f.labelKey))
			h.raw("<input")
			h.attr("type", f.inputType)
			h.attr("name", f.name)
			if f.inputType != "password" {
				h.attr("value", view.Values[f.name])
			}
			if f.required {
				h.raw(" required")
			}
			h.raw("></label>")
		}
		h.raw(`<button type="submit">`)
		h.text(T(view.Loc, submitKey))
		h.raw("</button></form>")
		if footer != nil {
			footer(h)
		}
		h.raw("</section>")
	})
}

func link(h *htmlWriter, loc Localizer, promptKey, linkKey, url string) {
	h.raw("<p>")
	if promptKey != "" {
		h.text(T(loc, promptKey))
		h.raw(" ")
	}
	h.raw("<a")
	h.href(url)
	h.raw(">")
	h.text(T(loc, linkKey))
	h.raw("</a></p>")
}

// LoginPage renders the sign-in form.
func LoginPage(view AuthFormView) templ.Component {
	return authForm(view, "login.title", "", "login.submit", []field{
		{name: "username", labelKey: "login.username", inputType: "email", required: true},
		{name: "password", labelKey: "login.password", inputType: "password", required: true},
	}, func(h *htmlWriter) {
		link(h, view.Loc, "", "login.forgot", routepath.RecoverPassword)
		link(h, view.Loc, "login.signup_prompt", "login.signup_link", routepath.Signup)
	})
}

// SignupPage renders the registration form.
func SignupPage(view AuthFormView) templ.Component {
	return authForm(view, "signup.title", "", "signup.submit", []field{
		{name: "full_name", labelKey: "signup.full_name", inputType: "text"},
		{name: "email", labelKey: "signup.email", inputType: "email", required: true},
		{name: "password", labelKey: "signup.password", inputType: "password", required: true},
		{name: "confirm_password", labelKey: "signup.confirm_password", inputType: "password", required: true},
	}, func(h *htmlWriter) {
		link(h, view.Loc, "signup.login_prompt", "signup.login_link", routepath.Login)
	})
}

// RecoverPasswordPage renders the password recovery form.
func RecoverPasswordPage(view AuthFormView) templ.Component {
	return authForm(view, "recover.title", "recover.help", "recover.submit", []field{
		{name: "email", labelKey: "recover.email", inputType: "email", required: true},
	}, nil)
}

// ResetPasswordPage renders the new password form.
func ResetPasswordPage(view AuthFormView) templ.Component {
	return authForm(view, "reset.title", "reset.help", "reset.submit", []field{
		{name: "new_password", labelKey: "reset.new_password", inputType: "password", required: true},
		{name: "confirm_password", labelKey: "reset.confirm_password", inputType: "password", required: true},
	}, nil)
}
