package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/louisbranch/itemdesk/internal/identity"
)

type fakeAPI struct {
	getUserOut  *cip.GetUserOutput
	getUserErr  error
	signUpIn    *cip.SignUpInput
	signUpOut   *cip.SignUpOutput
	signUpErr   error
	authIn      *cip.InitiateAuthInput
	authOut     *cip.InitiateAuthOutput
	authErr     error
	signOutIn   *cip.GlobalSignOutInput
	signOutErr  error
	forgotIn    *cip.ForgotPasswordInput
	forgotErr   error
	confirmIn   *cip.ConfirmForgotPasswordInput
	confirmErr  error
	getUserCall int
}

func (f *fakeAPI) GetUser(_ context.Context, _ *cip.GetUserInput, _ ...func(*cip.Options)) (*cip.GetUserOutput, error) {
	f.getUserCall++
	return f.getUserOut, f.getUserErr
}

func (f *fakeAPI) SignUp(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	f.signUpIn = in
	return f.signUpOut, f.signUpErr
}

func (f *fakeAPI) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	f.authIn = in
	return f.authOut, f.authErr
}

func (f *fakeAPI) GlobalSignOut(_ context.Context, in *cip.GlobalSignOutInput, _ ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error) {
	f.signOutIn = in
	return &cip.GlobalSignOutOutput{}, f.signOutErr
}

func (f *fakeAPI) ForgotPassword(_ context.Context, in *cip.ForgotPasswordInput, _ ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error) {
	f.forgotIn = in
	return &cip.ForgotPasswordOutput{}, f.forgotErr
}

func (f *fakeAPI) ConfirmForgotPassword(_ context.Context, in *cip.ConfirmForgotPasswordInput, _ ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error) {
	f.confirmIn = in
	return &cip.ConfirmForgotPasswordOutput{}, f.confirmErr
}

func validCreds() identity.Credentials {
	return identity.Credentials{AccessToken: "access"}
}

func TestCurrentUserUsesSubAttribute(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{getUserOut: &cip.GetUserOutput{
		Username: aws.String("ada@example.com"),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("sub"), Value: aws.String("user-1")},
			{Name: aws.String("email"), Value: aws.String("ada@example.com")},
		},
	}}
	p := NewWithAPI(api, Config{ClientID: "client"})

	user, err := p.CurrentUser(context.Background(), validCreds())
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user.UserID != "user-1" || user.Username != "ada@example.com" {
		t.Fatalf("user = %+v, want user-1/ada@example.com", user)
	}
}

func TestCurrentUserFallsBackToUsername(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{getUserOut: &cip.GetUserOutput{Username: aws.String("ada")}}
	p := NewWithAPI(api, Config{ClientID: "client"})

	user, err := p.CurrentUser(context.Background(), validCreds())
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user.UserID != "ada" {
		t.Fatalf("user id = %q, want %q", user.UserID, "ada")
	}
}

func TestCurrentUserWithoutCredentialsSkipsProvider(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	p := NewWithAPI(api, Config{ClientID: "client"})

	_, err := p.CurrentUser(context.Background(), identity.Credentials{})
	if !errors.Is(err, identity.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	expired := identity.Credentials{AccessToken: "x", ExpiresAt: time.Now().Add(-time.Minute)}
	if _, err := p.CurrentUser(context.Background(), expired); !errors.Is(err, identity.ErrNoSession) {
		t.Fatalf("expired err = %v, want ErrNoSession", err)
	}
	if api.getUserCall != 0 {
		t.Fatalf("GetUser calls = %d, want 0", api.getUserCall)
	}
}

func TestCurrentUserNotAuthorizedIsNoSession(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{getUserErr: &types.NotAuthorizedException{Message: aws.String("Access Token has been revoked")}}
	p := NewWithAPI(api, Config{ClientID: "client"})

	_, err := p.CurrentUser(context.Background(), validCreds())
	if !errors.Is(err, identity.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestGetUserServerFailuresAreUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "internal error", err: &types.InternalErrorException{}, want: true},
		{name: "http 503", err: &smithyhttp.ResponseError{Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusServiceUnavailable}}}, want: true},
		{name: "http 400", err: &smithyhttp.ResponseError{Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusBadRequest}}}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := NewWithAPI(&fakeAPI{getUserErr: tc.err}, Config{ClientID: "client"})
			_, err := p.FetchAttributes(context.Background(), validCreds())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, identity.ErrUnavailable); got != tc.want {
				t.Fatalf("errors.Is(err, ErrUnavailable) = %v, want %v (err = %v)", got, tc.want, err)
			}
			if errors.Is(err, identity.ErrNoSession) {
				t.Fatalf("err = %v, must not read as a missing session", err)
			}
		})
	}
}

func TestFetchAttributes(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{getUserOut: &cip.GetUserOutput{
		Username: aws.String("ada"),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String("ada@example.com")},
			{Name: aws.String("name"), Value: aws.String("Ada Lovelace")},
		},
	}}
	p := NewWithAPI(api, Config{ClientID: "client"})

	attrs, err := p.FetchAttributes(context.Background(), validCreds())
	if err != nil {
		t.Fatalf("FetchAttributes() error = %v", err)
	}
	if got := attrs.Get(identity.AttrName); got != "Ada Lovelace" {
		t.Fatalf("name = %q, want %q", got, "Ada Lovelace")
	}
}

func TestSignUpSendsSecretHashAndAttributes(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{signUpOut: &cip.SignUpOutput{
		UserSub:             aws.String("user-1"),
		UserConfirmed:       false,
		CodeDeliveryDetails: &types.CodeDeliveryDetailsType{Destination: aws.String("a***@example.com")},
	}}
	p := NewWithAPI(api, Config{ClientID: "client", ClientSecret: "secret"})

	res, err := p.SignUp(context.Background(), identity.SignUpInput{
		Username:   "ada@example.com",
		Password:   "password1",
		Attributes: identity.Attributes{identity.AttrEmail: "ada@example.com", identity.AttrName: "Ada"},
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if res.UserID != "user-1" || res.Confirmed || res.Destination != "a***@example.com" {
		t.Fatalf("result = %+v", res)
	}

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("ada@example.comclient"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if got := aws.ToString(api.signUpIn.SecretHash); got != want {
		t.Fatalf("secret hash = %q, want %q", got, want)
	}
	if len(api.signUpIn.UserAttributes) != 2 {
		t.Fatalf("attributes = %d, want 2", len(api.signUpIn.UserAttributes))
	}
}

func TestSignUpMapsUsernameExists(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{signUpErr: &types.UsernameExistsException{Message: aws.String("exists")}}
	p := NewWithAPI(api, Config{ClientID: "client"})

	_, err := p.SignUp(context.Background(), identity.SignUpInput{Username: "ada", Password: "password1"})
	if !errors.Is(err, identity.ErrUserExists) {
		t.Fatalf("err = %v, want ErrUserExists", err)
	}
	var original *types.UsernameExistsException
	if !errors.As(err, &original) {
		t.Fatalf("original cognito error lost: %v", err)
	}
}

func TestSignUpWithoutSecretOmitsHash(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{signUpOut: &cip.SignUpOutput{UserSub: aws.String("u")}}
	p := NewWithAPI(api, Config{ClientID: "client"})

	if _, err := p.SignUp(context.Background(), identity.SignUpInput{Username: "ada", Password: "password1"}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if api.signUpIn.SecretHash != nil {
		t.Fatalf("secret hash = %q, want nil", aws.ToString(api.signUpIn.SecretHash))
	}
}

func TestSignInReturnsCredentials(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{authOut: &cip.InitiateAuthOutput{AuthenticationResult: &types.AuthenticationResultType{
		AccessToken:  aws.String("access"),
		IdToken:      aws.String("id"),
		RefreshToken: aws.String("refresh"),
		ExpiresIn:    3600,
	}}}
	p := NewWithAPI(api, Config{ClientID: "client"})
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return now }

	creds, err := p.SignIn(context.Background(), identity.SignInInput{Username: "ada", Password: "pw"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if creds.AccessToken != "access" || creds.IDToken != "id" || creds.RefreshToken != "refresh" {
		t.Fatalf("creds = %+v", creds)
	}
	if want := now.Add(time.Hour); !creds.ExpiresAt.Equal(want) {
		t.Fatalf("expires at = %v, want %v", creds.ExpiresAt, want)
	}
	if api.authIn.AuthFlow != types.AuthFlowTypeUserPasswordAuth {
		t.Fatalf("auth flow = %q, want USER_PASSWORD_AUTH", api.authIn.AuthFlow)
	}
	if api.authIn.AuthParameters["USERNAME"] != "ada" {
		t.Fatalf("USERNAME = %q, want %q", api.authIn.AuthParameters["USERNAME"], "ada")
	}
	if _, ok := api.authIn.AuthParameters["SECRET_HASH"]; ok {
		t.Fatal("SECRET_HASH sent without a client secret")
	}
}

func TestSignInChallengeIsUnsupported(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{authOut: &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}}
	p := NewWithAPI(api, Config{ClientID: "client"})

	_, err := p.SignIn(context.Background(), identity.SignInInput{Username: "ada", Password: "pw"})
	if !errors.Is(err, identity.ErrUnsupportedFlow) {
		t.Fatalf("err = %v, want ErrUnsupportedFlow", err)
	}
}

func TestSignInErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not authorized", err: &types.NotAuthorizedException{}, want: identity.ErrInvalidCredentials},
		{name: "not confirmed", err: &types.UserNotConfirmedException{}, want: identity.ErrUserNotConfirmed},
		{name: "not found", err: &types.UserNotFoundException{}, want: identity.ErrUserNotFound},
		{name: "throttled", err: &types.TooManyRequestsException{}, want: identity.ErrLimitExceeded},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := NewWithAPI(&fakeAPI{authErr: tc.err}, Config{ClientID: "client"})
			_, err := p.SignIn(context.Background(), identity.SignInInput{Username: "ada", Password: "pw"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSignOutSkipsEmptyCredentials(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	p := NewWithAPI(api, Config{ClientID: "client"})

	if err := p.SignOut(context.Background(), identity.Credentials{}); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if api.signOutIn != nil {
		t.Fatal("GlobalSignOut called without credentials")
	}
	if err := p.SignOut(context.Background(), validCreds()); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if got := aws.ToString(api.signOutIn.AccessToken); got != "access" {
		t.Fatalf("access token = %q, want %q", got, "access")
	}
}

func TestConfirmResetPasswordMapsCodeErrors(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{confirmErr: &types.CodeMismatchException{}}
	p := NewWithAPI(api, Config{ClientID: "client"})

	err := p.ConfirmResetPassword(context.Background(), identity.ConfirmResetInput{Username: "ada", Code: "123456", NewPassword: "password1"})
	if !errors.Is(err, identity.ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}
	if got := aws.ToString(api.confirmIn.ConfirmationCode); got != "123456" {
		t.Fatalf("code = %q, want %q", got, "123456")
	}

	api.confirmErr = &types.ExpiredCodeException{}
	err = p.ConfirmResetPassword(context.Background(), identity.ConfirmResetInput{Username: "ada", Code: "1", NewPassword: "password1"})
	if !errors.Is(err, identity.ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}
}

func TestForgotPassword(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	p := NewWithAPI(api, Config{ClientID: "client"})
	if err := p.ForgotPassword(context.Background(), "ada"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	if got := aws.ToString(api.forgotIn.Username); got != "ada" {
		t.Fatalf("username = %q, want %q", got, "ada")
	}

	api.forgotErr = &types.LimitExceededException{}
	if err := p.ForgotPassword(context.Background(), "ada"); !errors.Is(err, identity.ErrLimitExceeded) {
		t.Fatalf("err = %v, want ErrLimitExceeded", err)
	}
}

func TestNewRequiresClientID(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without client id")
	}
}

var _ identity.Provider = (*Provider)(nil)
