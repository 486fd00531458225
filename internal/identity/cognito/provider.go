// Package cognito implements identity.Provider against an AWS Cognito user
// pool app client.
package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/platform/timeouts"
)

// API is the subset of the Cognito client used by Provider.
type API interface {
	GetUser(ctx context.Context, params *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, params *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
	ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
}

// Config identifies the user pool app client.
type Config struct {
	Region       string `env:"ITEMDESK_COGNITO_REGION"`
	UserPoolID   string `env:"ITEMDESK_COGNITO_USER_POOL_ID"`
	ClientID     string `env:"ITEMDESK_COGNITO_CLIENT_ID"`
	ClientSecret string `env:"ITEMDESK_COGNITO_CLIENT_SECRET"`
}

// Provider talks to Cognito with USER_PASSWORD_AUTH.
type Provider struct {
	api          API
	clientID     string
	clientSecret string
	now          func() time.Time
}

// New loads the default AWS configuration and builds a Provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("cognito client id is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if region := strings.TrimSpace(cfg.Region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAPI(cip.NewFromConfig(awsCfg), cfg), nil
}

// NewWithAPI builds a Provider over an existing API implementation.
func NewWithAPI(api API, cfg Config) *Provider {
	return &Provider{
		api:          api,
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		now:          time.Now,
	}
}

// CurrentUser resolves the user id (the pool "sub") behind the access token.
func (p *Provider) CurrentUser(ctx context.Context, creds identity.Credentials) (identity.User, error) {
	out, err := p.getUser(ctx, creds)
	if err != nil {
		return identity.User{}, err
	}
	attrs := attributesFrom(out.UserAttributes)
	username := aws.ToString(out.Username)
	userID := attrs.Get(identity.AttrSub)
	if userID == "" {
		userID = username
	}
	return identity.User{UserID: userID, Username: username}, nil
}

// FetchAttributes returns the user's pool attributes.
func (p *Provider) FetchAttributes(ctx context.Context, creds identity.Credentials) (identity.Attributes, error) {
	out, err := p.getUser(ctx, creds)
	if err != nil {
		return nil, err
	}
	return attributesFrom(out.UserAttributes), nil
}

func (p *Provider) getUser(ctx context.Context, creds identity.Credentials) (*cip.GetUserOutput, error) {
	if creds.IsZero() || creds.Expired(p.now()) {
		return nil, identity.ErrNoSession
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
	defer cancel()

	out, err := p.api.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(creds.AccessToken)})
	if err != nil {
		var notAuthorized *types.NotAuthorizedException
		var notFound *types.UserNotFoundException
		if errors.As(err, &notAuthorized) || errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", identity.ErrNoSession, err)
		}
		return nil, fmt.Errorf("get user: %w", mapError(err))
	}
	return out, nil
}

// SignUp registers a user; Cognito emails the confirmation code.
func (p *Provider) SignUp(ctx context.Context, input identity.SignUpInput) (identity.SignUpResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
	defer cancel()

	params := &cip.SignUpInput{
		ClientId:       aws.String(p.clientID),
		Username:       aws.String(input.Username),
		Password:       aws.String(input.Password),
		SecretHash:     p.secretHash(input.Username),
		UserAttributes: attributeTypes(input.Attributes),
	}
	out, err := p.api.SignUp(ctx, params)
	if err != nil {
		return identity.SignUpResult{}, fmt.Errorf("sign up: %w", mapError(err))
	}
	result := identity.SignUpResult{
		UserID:    aws.ToString(out.UserSub),
		Confirmed: out.UserConfirmed,
	}
	if out.CodeDeliveryDetails != nil {
		result.Destination = aws.ToString(out.CodeDeliveryDetails.Destination)
	}
	return result, nil
}

// SignIn runs the USER_PASSWORD_AUTH flow.
func (p *Provider) SignIn(ctx context.Context, input identity.SignInInput) (identity.Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
	defer cancel()

	authParams := map[string]string{
		"USERNAME": input.Username,
		"PASSWORD": input.Password,
	}
	if hash := p.secretHash(input.Username); hash != nil {
		authParams["SECRET_HASH"] = *hash
	}
	started := p.now()
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(p.clientID),
		AuthParameters: authParams,
	})
	if err != nil {
		return identity.Credentials{}, fmt.Errorf("sign in: %w", mapError(err))
	}
	if out.ChallengeName != "" {
		return identity.Credentials{}, fmt.Errorf("sign in: %w: %s", identity.ErrUnsupportedFlow, out.ChallengeName)
	}
	result := out.AuthenticationResult
	if result == nil || aws.ToString(result.AccessToken) == "" {
		return identity.Credentials{}, errors.New("sign in: cognito returned no tokens")
	}
	creds := identity.Credentials{
		AccessToken:  aws.ToString(result.AccessToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		IDToken:      aws.ToString(result.IdToken),
	}
	if result.ExpiresIn > 0 {
		creds.ExpiresAt = started.Add(time.Duration(result.ExpiresIn) * time.Second)
	}
	return creds, nil
}

// SignOut revokes every token issued for the user.
func (p *Provider) SignOut(ctx context.Context, creds identity.Credentials) error {
	if creds.IsZero() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
	defer cancel()

	if _, err := p.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(creds.AccessToken)}); err != nil {
		return fmt.Errorf("sign out: %w", mapError(err))
	}
	return nil
}

// ForgotPassword asks Cognito to deliver a reset code.
func (p *Provider) ForgotPassword(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
	defer cancel()

	_, err := p.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(p.clientID),
		Username:   aws.String(username),
		SecretHash: p.secretHash(username),
	})
	if err != nil {
		return fmt.Errorf("forgot password: %w", mapError(err))
	}
	return nil
}

// ConfirmResetPassword sets a new password using the delivered code.
func (p *Provider) ConfirmResetPassword(ctx context.Context, input identity.ConfirmResetInput) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
	defer cancel()

	_, err := p.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(input.Username),
		ConfirmationCode: aws.String(input.Code),
		Password:         aws.String(input.NewPassword),
		SecretHash:       p.secretHash(input.Username),
	})
	if err != nil {
		return fmt.Errorf("confirm reset password: %w", mapError(err))
	}
	return nil
}

// secretHash computes SECRET_HASH for app clients configured with a secret.
func (p *Provider) secretHash(username string) *string {
	if p.clientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(p.clientSecret))
	mac.Write([]byte(username + p.clientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func attributesFrom(in []types.AttributeType) identity.Attributes {
	attrs := make(identity.Attributes, len(in))
	for _, attr := range in {
		name := aws.ToString(attr.Name)
		if name == "" {
			continue
		}
		attrs[name] = aws.ToString(attr.Value)
	}
	return attrs
}

func attributeTypes(attrs identity.Attributes) []types.AttributeType {
	out := make([]types.AttributeType, 0, len(attrs))
	for name, value := range attrs {
		if strings.TrimSpace(value) == "" {
			continue
		}
		out = append(out, types.AttributeType{Name: aws.String(name), Value: aws.String(value)})
	}
	return out
}

// mapError joins Cognito's modeled exceptions with the provider-neutral
// sentinels while keeping the original error in the chain.
func mapError(err error) error {
	var (
		notAuthorized   *types.NotAuthorizedException
		usernameExists  *types.UsernameExistsException
		userNotFound    *types.UserNotFoundException
		notConfirmed    *types.UserNotConfirmedException
		invalidPassword *types.InvalidPasswordException
		codeMismatch    *types.CodeMismatchException
		expiredCode     *types.ExpiredCodeException
		limitExceeded   *types.LimitExceededException
		tooManyRequests *types.TooManyRequestsException
		tooManyAttempts *types.TooManyFailedAttemptsException
		internalErr     *types.InternalErrorException
		response        *smithyhttp.ResponseError
	)
	switch {
	case errors.As(err, &notAuthorized):
		return fmt.Errorf("%w: %w", identity.ErrInvalidCredentials, err)
	case errors.As(err, &usernameExists):
		return fmt.Errorf("%w: %w", identity.ErrUserExists, err)
	case errors.As(err, &userNotFound):
		return fmt.Errorf("%w: %w", identity.ErrUserNotFound, err)
	case errors.As(err, &notConfirmed):
		return fmt.Errorf("%w: %w", identity.ErrUserNotConfirmed, err)
	case errors.As(err, &invalidPassword):
		return fmt.Errorf("%w: %w", identity.ErrInvalidPassword, err)
	case errors.As(err, &codeMismatch):
		return fmt.Errorf("%w: %w", identity.ErrInvalidCode, err)
	case errors.As(err, &expiredCode):
		return fmt.Errorf("%w: %w", identity.ErrCodeExpired, err)
	case errors.As(err, &limitExceeded), errors.As(err, &tooManyRequests), errors.As(err, &tooManyAttempts):
		return fmt.Errorf("%w: %w", identity.ErrLimitExceeded, err)
	case errors.As(err, &internalErr):
		return fmt.Errorf("%w: %w", identity.ErrUnavailable, err)
	case errors.As(err, &response) && response.HTTPStatusCode() >= 500:
		return fmt.Errorf("%w: %w", identity.ErrUnavailable, err)
	default:
		return err
	}
}
