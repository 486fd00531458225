package authflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/services/web/navigation"
	apperrors "github.com/louisbranch/itemdesk/internal/services/web/platform/errors"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/escalation"
	"github.com/louisbranch/itemdesk/internal/services/web/querycache"
	"github.com/louisbranch/itemdesk/internal/services/web/webclient"
)

type fakeProvider struct {
	mu sync.Mutex

	user      identity.User
	attrs     identity.Attributes
	userErr   error
	attrsErr  error
	signUp    identity.SignUpResult
	signUpErr error
	creds     identity.Credentials
	signInErr error
	signOut   error
	forgotErr error
	resetErr  error

	calls       map[string]int
	lastSignUp  identity.SignUpInput
	lastReset   identity.ConfirmResetInput
	lastForgot  string
	lastSignOut identity.Credentials
}

func (f *fakeProvider) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeProvider) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeProvider) CurrentUser(_ context.Context, creds identity.Credentials) (identity.User, error) {
	f.record("CurrentUser")
	if creds.IsZero() {
		return identity.User{}, identity.ErrNoSession
	}
	return f.user, f.userErr
}

func (f *fakeProvider) FetchAttributes(context.Context, identity.Credentials) (identity.Attributes, error) {
	f.record("FetchAttributes")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attrs, f.attrsErr
}

func (f *fakeProvider) setAttrsErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrsErr = err
}

func (f *fakeProvider) SignUp(_ context.Context, input identity.SignUpInput) (identity.SignUpResult, error) {
	f.record("SignUp")
	f.lastSignUp = input
	return f.signUp, f.signUpErr
}

func (f *fakeProvider) SignIn(context.Context, identity.SignInInput) (identity.Credentials, error) {
	f.record("SignIn")
	return f.creds, f.signInErr
}

func (f *fakeProvider) SignOut(_ context.Context, creds identity.Credentials) error {
	f.record("SignOut")
	f.lastSignOut = creds
	return f.signOut
}

func (f *fakeProvider) ForgotPassword(_ context.Context, username string) error {
	f.record("ForgotPassword")
	f.lastForgot = username
	return f.forgotErr
}

func (f *fakeProvider) ConfirmResetPassword(_ context.Context, input identity.ConfirmResetInput) error {
	f.record("ConfirmResetPassword")
	f.lastReset = input
	return f.resetErr
}

func liveCreds() identity.Credentials {
	return identity.Credentials{AccessToken: "access", ExpiresAt: time.Now().Add(time.Hour)}
}

func requestState(t *testing.T) (context.Context, *webclient.Client, *navigation.Navigator) {
	t.Helper()

	reg := webclient.NewRegistry(webclient.Config{Cache: querycache.Config{
		OnQueryError:    escalation.Handler,
		OnMutationError: escalation.Handler,
	}})
	client, err := reg.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	nav := navigation.New()
	ctx := webclient.WithClient(context.Background(), client)
	ctx = navigation.WithNavigator(ctx, nav)
	return ctx, client, nav
}

func assertTarget(t *testing.T, nav *navigation.Navigator, want string, wantMode navigation.Mode) {
	t.Helper()

	target, mode, ok := nav.Target()
	if !ok || target != want || mode != wantMode {
		t.Fatalf("target = %q (%v, %v), want %q (%v)", target, mode, ok, want, wantMode)
	}
}

func TestCurrentIdentityFromProviderAttributes(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		user:  identity.User{UserID: "sub-1", Username: "ada@example.com"},
		attrs: identity.Attributes{identity.AttrEmail: "ada@example.com", identity.AttrName: "Ada Lovelace"},
	}
	ctx, client, _ := requestState(t)
	client.SetCredentials(liveCreds())
	flow := New(provider)

	got, ok := flow.CurrentIdentity(ctx)
	if !ok {
		t.Fatal("CurrentIdentity() absent, want present")
	}
	want := identity.Identity{ID: "sub-1", Email: "ada@example.com", FullName: "Ada Lovelace"}
	if got != want {
		t.Fatalf("identity = %+v, want %+v", got, want)
	}

	if _, ok := flow.CurrentIdentity(ctx); !ok {
		t.Fatal("second CurrentIdentity() absent")
	}
	if n := provider.count("CurrentUser"); n != 1 {
		t.Fatalf("CurrentUser calls = %d, want 1 (cached)", n)
	}
}

func TestCurrentIdentityMissingAttributes(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{user: identity.User{UserID: "sub-2"}, attrs: identity.Attributes{}}
	ctx, client, _ := requestState(t)
	client.SetCredentials(liveCreds())

	got, ok := New(provider).CurrentIdentity(ctx)
	if !ok || got.ID != "sub-2" || got.Email != "" || got.FullName != "" {
		t.Fatalf("identity = %+v, %v; want id only", got, ok)
	}
}

func TestCurrentIdentityAbsentWithoutSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		creds    identity.Credentials
		provider *fakeProvider
	}{
		{name: "no credentials", provider: &fakeProvider{}},
		{name: "provider rejects", creds: liveCreds(), provider: &fakeProvider{userErr: identity.ErrNoSession}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, client, nav := requestState(t)
			client.SetCredentials(tc.creds)
			if _, ok := New(tc.provider).CurrentIdentity(ctx); ok {
				t.Fatal("CurrentIdentity() present, want absent")
			}
			if _, _, ok := nav.Target(); ok {
				t.Fatal("absent identity must not navigate")
			}
			if _, _, cached := client.Cache().Peek(CurrentUserKey); !cached {
				t.Fatal("absent identity should be cached")
			}
		})
	}
}

func TestCurrentIdentityRecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()

	unavailable := apperrors.EK(apperrors.KindUnavailable, "error.unavailable", "cognito 503")
	provider := &fakeProvider{
		user:     identity.User{UserID: "sub-3"},
		attrs:    identity.Attributes{identity.AttrEmail: "grace@example.com"},
		attrsErr: unavailable,
	}
	ctx, client, nav := requestState(t)
	client.SetCredentials(liveCreds())
	flow := New(provider)

	if _, ok := flow.CurrentIdentity(ctx); ok {
		t.Fatal("CurrentIdentity() present during outage, want absent")
	}
	if _, _, ok := nav.Target(); ok {
		t.Fatal("transient failure must not navigate")
	}
	if _, _, cached := client.Cache().Peek(CurrentUserKey); cached {
		t.Fatal("transient failure should not be cached")
	}

	provider.setAttrsErr(nil)
	got, ok := flow.CurrentIdentity(ctx)
	if !ok || got.ID != "sub-3" || got.Email != "grace@example.com" {
		t.Fatalf("identity after recovery = %+v, %v; want sub-3", got, ok)
	}
	if n := provider.count("FetchAttributes"); n != 2 {
		t.Fatalf("FetchAttributes calls = %d, want 2", n)
	}
}

func TestCurrentIdentityWithoutClient(t *testing.T) {
	t.Parallel()

	if _, ok := New(&fakeProvider{}).CurrentIdentity(context.Background()); ok {
		t.Fatal("CurrentIdentity() present without a client")
	}
}

func TestSignInStoresCredentialsAndInvalidatesCurrentUser(t *testing.T) {
	t.Parallel()

	creds := liveCreds()
	provider := &fakeProvider{creds: creds, user: identity.User{UserID: "sub"}, attrs: identity.Attributes{}}
	ctx, client, nav := requestState(t)
	flow := New(provider)

	if _, ok := flow.CurrentIdentity(ctx); ok {
		t.Fatal("anonymous identity present")
	}
	if err := flow.SignIn(ctx, AccessToken{Username: "ada@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if got := client.Credentials(); got.AccessToken != creds.AccessToken {
		t.Fatalf("stored token = %q, want %q", got.AccessToken, creds.AccessToken)
	}
	if _, stale, ok := client.Cache().Peek(CurrentUserKey); !ok || !stale {
		t.Fatalf("currentUser stale = %v, present = %v; want stale entry", stale, ok)
	}
	assertTarget(t, nav, "/", navigation.ModeSoft)

	if _, ok := flow.CurrentIdentity(ctx); !ok {
		t.Fatal("identity absent after sign in")
	}
}

func TestSignInFailureSurfacesWithoutNavigation(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{signInErr: identity.ErrInvalidCredentials}
	ctx, client, nav := requestState(t)

	err := New(provider).SignIn(ctx, AccessToken{Username: "ada", Password: "wrong-pass"})
	if !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
	if apperrors.NoticeKey(err) != "error.auth.invalid_credentials" {
		t.Fatalf("notice key = %q", apperrors.NoticeKey(err))
	}
	if !client.Credentials().IsZero() {
		t.Fatal("credentials stored after failure")
	}
	if _, _, ok := nav.Target(); ok {
		t.Fatal("failed sign in must not navigate")
	}
}

func TestSignInRequiresFields(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	ctx, _, _ := requestState(t)
	err := New(provider).SignIn(ctx, AccessToken{Username: " "})
	if apperrors.LocalizationKey(err) != "error.form.required" {
		t.Fatalf("err = %v, want required field error", err)
	}
	if provider.count("SignIn") != 0 {
		t.Fatal("provider called for incomplete form")
	}
}

func TestAuthorizationFailureForcesLogin(t *testing.T) {
	t.Parallel()

	denied := &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusForbidden}},
		Err:      errors.New("denied"),
	}
	provider := &fakeProvider{signInErr: denied}
	ctx, _, nav := requestState(t)

	_ = New(provider).SignIn(ctx, AccessToken{Username: "ada", Password: "secret123"})
	assertTarget(t, nav, "/login", navigation.ModeHard)
}

func TestSignOutClearsEverything(t *testing.T) {
	t.Parallel()

	for _, providerErr := range []error{nil, errors.New("network down")} {
		provider := &fakeProvider{user: identity.User{UserID: "sub"}, attrs: identity.Attributes{}, signOut: providerErr}
		ctx, client, nav := requestState(t)
		client.SetCredentials(liveCreds())
		flow := New(provider)
		if _, ok := flow.CurrentIdentity(ctx); !ok {
			t.Fatal("identity absent before sign out")
		}
		_, _ = client.Cache().Query(ctx, querycache.Key{"items"}, func(context.Context) (any, error) { return 1, nil })

		err := flow.SignOut(ctx)
		if !errors.Is(err, providerErr) {
			t.Fatalf("SignOut() error = %v, want %v", err, providerErr)
		}
		if n := client.Cache().Len(); n != 0 {
			t.Fatalf("cache entries = %d, want 0", n)
		}
		if !client.Credentials().IsZero() {
			t.Fatal("credentials kept after sign out")
		}
		if provider.lastSignOut.AccessToken != "access" {
			t.Fatalf("provider sign out token = %q", provider.lastSignOut.AccessToken)
		}
		assertTarget(t, nav, "/login", navigation.ModeSoft)
	}
}

func TestSignOutWithoutCredentialsSkipsProvider(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	ctx, _, nav := requestState(t)
	if err := New(provider).SignOut(ctx); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if provider.count("SignOut") != 0 {
		t.Fatal("provider called without credentials")
	}
	assertTarget(t, nav, "/login", navigation.ModeSoft)
}

func TestSignUpUsesEmailAsUsername(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{signUp: identity.SignUpResult{UserID: "sub", Confirmed: true}}
	ctx, client, nav := requestState(t)
	_, _ = client.Cache().Query(ctx, querycache.Key{"users"}, func(context.Context) (any, error) { return 0, nil })

	err := New(provider).SignUp(ctx, UserRegister{Email: " ada@example.com ", Password: "secret123", FullName: "Ada"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	got := provider.lastSignUp
	if got.Username != "ada@example.com" || got.Attributes[identity.AttrEmail] != "ada@example.com" || got.Attributes[identity.AttrName] != "Ada" {
		t.Fatalf("sign up input = %+v", got)
	}
	assertTarget(t, nav, "/login", navigation.ModeSoft)
	if notice, ok := nav.Notice(); !ok || notice.Key != "notice.signup_success" {
		t.Fatalf("notice = %+v, %v", notice, ok)
	}
	if _, stale, _ := client.Cache().Peek(UsersKey); !stale {
		t.Fatal("users query not invalidated")
	}
}

func TestSignUpFailureStillInvalidatesUsers(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{signUpErr: identity.ErrUserExists}
	ctx, client, nav := requestState(t)
	_, _ = client.Cache().Query(ctx, UsersKey, func(context.Context) (any, error) { return 0, nil })

	err := New(provider).SignUp(ctx, UserRegister{Email: "ada@example.com", Password: "secret123"})
	if !errors.Is(err, identity.ErrUserExists) {
		t.Fatalf("err = %v, want user exists", err)
	}
	if _, stale, _ := client.Cache().Peek(UsersKey); !stale {
		t.Fatal("users query not invalidated on failure")
	}
	if _, _, ok := nav.Target(); ok {
		t.Fatal("failed sign up must not navigate")
	}
}

func TestConfirmResetPasswordRequiresLinkParams(t *testing.T) {
	t.Parallel()

	tests := []url.Values{
		{},
		{"code": {"123456"}},
		{"username": {"ada@example.com"}},
		{"code": {" "}, "username": {"ada@example.com"}},
	}
	for _, query := range tests {
		provider := &fakeProvider{}
		ctx, _, nav := requestState(t)
		err := New(provider).ConfirmResetPassword(ctx, query, NewPasswordForm{NewPassword: "secret123", ConfirmPassword: "secret123"})
		if apperrors.LocalizationKey(err) != "error.reset.missing_params" {
			t.Fatalf("query %v: err = %v, want missing params", query, err)
		}
		if provider.count("ConfirmResetPassword") != 0 {
			t.Fatalf("query %v: provider called", query)
		}
		if _, _, ok := nav.Target(); ok {
			t.Fatalf("query %v: navigated", query)
		}
	}
}

func TestConfirmResetPasswordSuccess(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	ctx, _, nav := requestState(t)
	query := url.Values{"code": {"123456"}, "username": {"ada@example.com"}}

	if err := New(provider).ConfirmResetPassword(ctx, query, NewPasswordForm{NewPassword: "n3w-secret", ConfirmPassword: "n3w-secret"}); err != nil {
		t.Fatalf("ConfirmResetPassword() error = %v", err)
	}
	want := identity.ConfirmResetInput{Username: "ada@example.com", Code: "123456", NewPassword: "n3w-secret"}
	if provider.lastReset != want {
		t.Fatalf("reset input = %+v, want %+v", provider.lastReset, want)
	}
	if notice, ok := nav.Notice(); !ok || notice.Key != "notice.password_updated" {
		t.Fatalf("notice = %+v, %v", notice, ok)
	}
	assertTarget(t, nav, "/login", navigation.ModeSoft)
}

func TestConfirmResetPasswordMismatch(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	ctx, _, _ := requestState(t)
	query := url.Values{"code": {"1"}, "username": {"ada"}}
	err := New(provider).ConfirmResetPassword(ctx, query, NewPasswordForm{NewPassword: "one-secret", ConfirmPassword: "two-secret"})
	if apperrors.LocalizationKey(err) != "error.form.password_mismatch" {
		t.Fatalf("err = %v, want mismatch", err)
	}
}

func TestRecoverPassword(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	ctx, _, nav := requestState(t)
	if err := New(provider).RecoverPassword(ctx, " ada@example.com "); err != nil {
		t.Fatalf("RecoverPassword() error = %v", err)
	}
	if provider.lastForgot != "ada@example.com" {
		t.Fatalf("forgot username = %q", provider.lastForgot)
	}
	assertTarget(t, nav, "/login", navigation.ModeSoft)
}

func TestSignedInUsesProviderEachTime(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{user: identity.User{UserID: "sub"}}
	ctx, client, _ := requestState(t)
	client.SetCredentials(liveCreds())
	req := httptest.NewRequest(http.MethodGet, "/reset-password", nil).WithContext(ctx)
	flow := New(provider)

	if !flow.SignedIn(req) || !flow.SignedIn(req) {
		t.Fatal("SignedIn() = false, want true")
	}
	if n := provider.count("CurrentUser"); n != 2 {
		t.Fatalf("CurrentUser calls = %d, want 2", n)
	}
	if flow.SignedIn(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Fatal("SignedIn() without client = true")
	}
}

func TestOperationsRequireClient(t *testing.T) {
	t.Parallel()

	if err := New(&fakeProvider{}).SignOut(context.Background()); !errors.Is(err, ErrNoClient) {
		t.Fatalf("err = %v, want ErrNoClient", err)
	}
}

func TestIsLoggedIn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider identity.Provider
		creds    identity.Credentials
		want     bool
	}{
		{name: "no provider", creds: liveCreds(), want: false},
		{name: "no credentials", provider: &fakeProvider{}, want: false},
		{name: "live session", provider: &fakeProvider{}, creds: liveCreds(), want: true},
		{name: "expired session", provider: &fakeProvider{userErr: identity.ErrNoSession}, creds: liveCreds(), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := IsLoggedIn(context.Background(), tc.provider, tc.creds); got != tc.want {
				t.Fatalf("IsLoggedIn() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsLoggedInSkipsProviderForExpiredCredentials(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	expired := identity.Credentials{AccessToken: "access", ExpiresAt: time.Now().Add(-time.Minute)}
	if IsLoggedIn(context.Background(), provider, expired) {
		t.Fatal("IsLoggedIn() = true for expired credentials")
	}
	if n := provider.count("CurrentUser"); n != 0 {
		t.Fatalf("CurrentUser calls = %d, want 0", n)
	}
}
