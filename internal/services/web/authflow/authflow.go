// Package authflow implements the browser's authentication state: the cached
// current identity and the credential mutations that change it.
//
// Every operation reads the browser's web client and navigator from the
// request context. Failures flow through the client's query cache so the
// cache-wide error hooks observe them exactly once.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/platform/timeouts"
	"github.com/louisbranch/itemdesk/internal/services/web/navigation"
	apperrors "github.com/louisbranch/itemdesk/internal/services/web/platform/errors"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
	"github.com/louisbranch/itemdesk/internal/services/web/querycache"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
	"github.com/louisbranch/itemdesk/internal/services/web/webclient"
)

// Cache keys owned by the auth flow.
var (
	CurrentUserKey = querycache.Key{"currentUser"}
	UsersKey       = querycache.Key{"users"}
)

// ErrNoClient reports a request that was not routed through the web client
// middleware.
var ErrNoClient = errors.New("web client is required")

// UserRegister is the sign-up form.
type UserRegister struct {
	Email    string
	Password string
	FullName string
}

// AccessToken is the sign-in form.
type AccessToken struct {
	Username string
	Password string
}

// NewPasswordForm is the reset-password form.
type NewPasswordForm struct {
	NewPassword     string
	ConfirmPassword string
}

// Flow runs the auth operations against one identity provider.
type Flow struct {
	provider identity.Provider
}

// New builds a Flow.
func New(provider identity.Provider) *Flow {
	return &Flow{provider: provider}
}

// IsLoggedIn asks the provider, without caching, whether creds belong to a
// live session. Credentials already past their expiry are rejected without a
// provider call.
func IsLoggedIn(ctx context.Context, provider identity.Provider, creds identity.Credentials) bool {
	if provider == nil || creds.IsZero() || creds.Expired(time.Now()) {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
	defer cancel()
	_, err := provider.CurrentUser(ctx, creds)
	return err == nil
}

// SignedIn reports whether the request's browser holds a live session. It is
// the predicate behind every page guard.
func (f *Flow) SignedIn(r *http.Request) bool {
	if r == nil {
		return false
	}
	client := webclient.FromContext(r.Context())
	if client == nil {
		return false
	}
	return IsLoggedIn(r.Context(), f.provider, client.Credentials())
}

// CurrentIdentity returns the signed-in user's identity, resolved once per
// cache generation under CurrentUserKey. Any provider failure yields an
// absent identity, but only a missing session is cached; other failures are
// retried by the next call.
func (f *Flow) CurrentIdentity(ctx context.Context) (identity.Identity, bool) {
	client := webclient.FromContext(ctx)
	if client == nil {
		return identity.Identity{}, false
	}
	current, err := querycache.Fetch(ctx, client.Cache(), CurrentUserKey, func(ctx context.Context) (*identity.Identity, error) {
		return f.resolveIdentity(ctx, client.Credentials())
	})
	if err != nil || current == nil {
		return identity.Identity{}, false
	}
	return *current, true
}

func (f *Flow) resolveIdentity(ctx context.Context, creds identity.Credentials) (*identity.Identity, error) {
	if creds.IsZero() {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
	defer cancel()

	user, err := f.provider.CurrentUser(ctx, creds)
	if errors.Is(err, identity.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		log.Printf("resolve current user failed err=%v", err)
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	attrs, err := f.provider.FetchAttributes(ctx, creds)
	if errors.Is(err, identity.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		log.Printf("fetch user attributes failed user_id=%s err=%v", user.UserID, err)
		return nil, fmt.Errorf("fetch user attributes: %w", err)
	}
	return &identity.Identity{
		ID:       user.UserID,
		Email:    attrs.Get(identity.AttrEmail),
		FullName: attrs.Get(identity.AttrName),
	}, nil
}

// SignUp registers a new user with the email as username. On success the
// browser is sent to sign in.
func (f *Flow) SignUp(ctx context.Context, form UserRegister) error {
	client, nav, err := state(ctx)
	if err != nil {
		return err
	}
	var result identity.SignUpResult
	return client.Cache().Mutate(ctx, querycache.Mutation{
		Fn: func(ctx context.Context) error {
			email := strings.TrimSpace(form.Email)
			if email == "" || form.Password == "" {
				return requiredFieldError()
			}
			ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
			defer cancel()
			res, err := f.provider.SignUp(ctx, identity.SignUpInput{
				Username: email,
				Password: form.Password,
				Attributes: identity.Attributes{
					identity.AttrEmail: email,
					identity.AttrName:  strings.TrimSpace(form.FullName),
				},
			})
			if err != nil {
				return fmt.Errorf("sign up: %w", err)
			}
			result = res
			return nil
		},
		OnSuccess: func(context.Context) {
			if result.Confirmed {
				nav.Notify(flash.Success("notice.signup_success"))
			} else {
				nav.Notify(flash.Info("notice.signup_confirm"))
			}
			nav.Navigate(routepath.Login)
		},
		OnSettled: func(context.Context, error) {
			client.Cache().Invalidate(UsersKey)
		},
	})
}

// SignIn authenticates with a password, stores the credentials on the
// browser's client and sends it home.
func (f *Flow) SignIn(ctx context.Context, form AccessToken) error {
	client, nav, err := state(ctx)
	if err != nil {
		return err
	}
	return client.Cache().Mutate(ctx, querycache.Mutation{
		Fn: func(ctx context.Context) error {
			username := strings.TrimSpace(form.Username)
			if username == "" || form.Password == "" {
				return requiredFieldError()
			}
			ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
			defer cancel()
			creds, err := f.provider.SignIn(ctx, identity.SignInInput{Username: username, Password: form.Password})
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			client.SetCredentials(creds)
			return nil
		},
		OnSuccess: func(context.Context) {
			client.Cache().Invalidate(CurrentUserKey)
			nav.Navigate(routepath.Home)
		},
	})
}

// SignOut ends the provider session. The browser's cache and credentials are
// dropped even when the provider call fails.
func (f *Flow) SignOut(ctx context.Context) error {
	client, nav, err := state(ctx)
	if err != nil {
		return err
	}
	creds := client.Credentials()
	return client.Cache().Mutate(ctx, querycache.Mutation{
		Fn: func(ctx context.Context) error {
			if creds.IsZero() {
				return nil
			}
			ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
			defer cancel()
			if err := f.provider.SignOut(ctx, creds); err != nil {
				return fmt.Errorf("sign out: %w", err)
			}
			return nil
		},
		OnError: func(_ context.Context, err error) {
			log.Printf("provider sign out failed client_id=%s err=%v", client.ID(), err)
		},
		OnSettled: func(context.Context, error) {
			client.Cache().Clear()
			client.ClearCredentials()
			nav.Navigate(routepath.Login)
		},
	})
}

// RecoverPassword asks the provider to send a reset code to email.
func (f *Flow) RecoverPassword(ctx context.Context, email string) error {
	client, nav, err := state(ctx)
	if err != nil {
		return err
	}
	return client.Cache().Mutate(ctx, querycache.Mutation{
		Fn: func(ctx context.Context) error {
			email := strings.TrimSpace(email)
			if email == "" {
				return requiredFieldError()
			}
			ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
			defer cancel()
			if err := f.provider.ForgotPassword(ctx, email); err != nil {
				return fmt.Errorf("forgot password: %w", err)
			}
			return nil
		},
		OnSuccess: func(context.Context) {
			nav.Notify(flash.Success("notice.recovery_sent"))
			nav.Navigate(routepath.Login)
		},
	})
}

// ConfirmResetPassword sets a new password using the code and username
// carried in the reset link's query. A link missing either value fails
// without contacting the provider.
func (f *Flow) ConfirmResetPassword(ctx context.Context, query url.Values, form NewPasswordForm) error {
	client, nav, err := state(ctx)
	if err != nil {
		return err
	}
	return client.Cache().Mutate(ctx, querycache.Mutation{
		Fn: func(ctx context.Context) error {
			code := strings.TrimSpace(query.Get(routepath.ResetCodeQueryKey))
			username := strings.TrimSpace(query.Get(routepath.ResetUserQueryKey))
			if code == "" || username == "" {
				return apperrors.EK(apperrors.KindInvalidInput, "error.reset.missing_params", "missing code or username")
			}
			if form.NewPassword == "" {
				return requiredFieldError()
			}
			if form.ConfirmPassword != "" && form.ConfirmPassword != form.NewPassword {
				return apperrors.EK(apperrors.KindInvalidInput, "error.form.password_mismatch", "passwords do not match")
			}
			ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
			defer cancel()
			if err := f.provider.ConfirmResetPassword(ctx, identity.ConfirmResetInput{
				Username:    username,
				Code:        code,
				NewPassword: form.NewPassword,
			}); err != nil {
				return fmt.Errorf("confirm reset password: %w", err)
			}
			return nil
		},
		OnSuccess: func(context.Context) {
			nav.Notify(flash.Success("notice.password_updated"))
			nav.Navigate(routepath.Login)
		},
	})
}

func state(ctx context.Context) (*webclient.Client, *navigation.Navigator, error) {
	client := webclient.FromContext(ctx)
	if client == nil {
		return nil, nil, ErrNoClient
	}
	return client, navigation.FromContext(ctx), nil
}

func requiredFieldError() error {
	return apperrors.EK(apperrors.KindInvalidInput, "error.form.required", "required field is missing")
}
