// Package identity defines the contract with the hosted identity provider.
//
// The web service never owns user records; it holds provider credentials for
// a browser and asks the provider who they belong to.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Attribute names shared by every provider.
const (
	AttrEmail = "email"
	AttrName  = "name"
	AttrSub   = "sub"
)

// Identity is the signed-in user's public profile as exposed by the app.
type Identity struct {
	ID       string
	Email    string
	FullName string
}

// User is the provider's answer to "who holds these credentials".
type User struct {
	UserID   string
	Username string
}

// Attributes are the provider-side profile attributes of a user.
type Attributes map[string]string

// Get returns the trimmed attribute value, or "" when absent.
func (a Attributes) Get(name string) string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a[name])
}

// Credentials are the provider session tokens held for one browser.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    time.Time
}

// IsZero reports whether no access token is present.
func (c Credentials) IsZero() bool {
	return strings.TrimSpace(c.AccessToken) == ""
}

// Expired reports whether the credentials carry a known expiry in the past.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// SignUpInput registers a new user.
type SignUpInput struct {
	Username   string
	Password   string
	Attributes Attributes
}

// SignUpResult reports the outcome of a registration.
type SignUpResult struct {
	UserID    string
	Confirmed bool
	// Destination is where a confirmation code was sent, when one was.
	Destination string
}

// SignInInput authenticates a user with a password.
type SignInInput struct {
	Username string
	Password string
}

// ConfirmResetInput completes a password reset with an emailed code.
type ConfirmResetInput struct {
	Username    string
	Code        string
	NewPassword string
}

// Provider is the identity provider surface consumed by the web service.
type Provider interface {
	// CurrentUser returns the user owning creds or ErrNoSession.
	CurrentUser(ctx context.Context, creds Credentials) (User, error)
	// FetchAttributes returns the profile attributes of the user owning creds.
	FetchAttributes(ctx context.Context, creds Credentials) (Attributes, error)
	SignUp(ctx context.Context, input SignUpInput) (SignUpResult, error)
	SignIn(ctx context.Context, input SignInInput) (Credentials, error)
	// SignOut ends the provider session behind creds.
	SignOut(ctx context.Context, creds Credentials) error
	// ForgotPassword sends a reset code to the user's verified address.
	ForgotPassword(ctx context.Context, username string) error
	ConfirmResetPassword(ctx context.Context, input ConfirmResetInput) error
}

// Provider failures. Implementations wrap these so callers can classify
// errors with errors.Is regardless of the backing provider.
var (
	ErrNoSession          = errors.New("no active session")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidUsername    = errors.New("username is not valid")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUserNotConfirmed   = errors.New("user is not confirmed")
	ErrInvalidPassword    = errors.New("password does not meet requirements")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrLimitExceeded      = errors.New("attempt limit exceeded")
	ErrUnsupportedFlow    = errors.New("sign-in requires an unsupported challenge")
	ErrUnavailable        = errors.New("identity provider unavailable")
)
