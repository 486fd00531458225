// Package local implements identity.Provider on a SQLite user table so the
// web service can run without a hosted user pool.
package local

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/platform/id"
)

const (
	// MinPasswordLength is the shortest password accepted on sign-up and reset.
	MinPasswordLength = 8

	defaultTokenTTL     = time.Hour
	defaultResetCodeTTL = 15 * time.Minute
	maxResetAttempts    = 5
	resetCodeDigits     = 6
)

// CodeSink delivers a password reset code to the user.
type CodeSink func(ctx context.Context, username, code string)

// Config configures the local provider.
type Config struct {
	DBPath       string        `env:"ITEMDESK_LOCAL_IDENTITY_DB" envDefault:"data/identity.db"`
	TokenSecret  string        `env:"ITEMDESK_LOCAL_TOKEN_SECRET"`
	TokenTTL     time.Duration `env:"ITEMDESK_LOCAL_TOKEN_TTL" envDefault:"1h"`
	ResetCodeTTL time.Duration `env:"ITEMDESK_LOCAL_RESET_CODE_TTL" envDefault:"15m"`
	// CodeSink defaults to logging the code.
	CodeSink CodeSink
}

// Provider is a SQLite-backed identity provider.
type Provider struct {
	store        *store
	signer       tokenSigner
	resetCodeTTL time.Duration
	sink         CodeSink
	now          func() time.Time
}

// Open opens (and migrates) the user database and returns a Provider.
func Open(ctx context.Context, cfg Config) (*Provider, error) {
	secret := strings.TrimSpace(cfg.TokenSecret)
	if secret == "" {
		return nil, errors.New("local identity token secret is required")
	}
	st, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open local identity store: %w", err)
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	resetTTL := cfg.ResetCodeTTL
	if resetTTL <= 0 {
		resetTTL = defaultResetCodeTTL
	}
	sink := cfg.CodeSink
	if sink == nil {
		sink = logCodeSink
	}
	return &Provider{
		store:        st,
		signer:       tokenSigner{secret: []byte(secret), ttl: ttl},
		resetCodeTTL: resetTTL,
		sink:         sink,
		now:          time.Now,
	}, nil
}

// Close releases the user database.
func (p *Provider) Close() error {
	if p == nil {
		return nil
	}
	return p.store.Close()
}

func logCodeSink(_ context.Context, username, code string) {
	log.Printf("password reset code issued username=%s code=%s", username, code)
}

// CurrentUser validates the access token and resolves its subject.
func (p *Provider) CurrentUser(ctx context.Context, creds identity.Credentials) (identity.User, error) {
	u, err := p.authenticate(ctx, creds)
	if err != nil {
		return identity.User{}, err
	}
	return identity.User{UserID: u.ID, Username: u.Username}, nil
}

// FetchAttributes returns the stored profile attributes of the token's user.
func (p *Provider) FetchAttributes(ctx context.Context, creds identity.Credentials) (identity.Attributes, error) {
	u, err := p.authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	return identity.Attributes{
		identity.AttrSub:   u.ID,
		identity.AttrEmail: u.Email,
		identity.AttrName:  u.Name,
	}, nil
}

func (p *Provider) authenticate(ctx context.Context, creds identity.Credentials) (userRecord, error) {
	if creds.IsZero() {
		return userRecord{}, identity.ErrNoSession
	}
	claims, err := p.signer.parse(creds.AccessToken, p.now())
	if err != nil {
		return userRecord{}, fmt.Errorf("%w: %w", identity.ErrNoSession, err)
	}
	revoked, err := p.store.isRevoked(ctx, claims.ID)
	if err != nil {
		return userRecord{}, err
	}
	if revoked {
		return userRecord{}, fmt.Errorf("%w: token revoked", identity.ErrNoSession)
	}
	u, err := p.store.userByID(ctx, claims.Subject)
	if errors.Is(err, identity.ErrUserNotFound) {
		return userRecord{}, fmt.Errorf("%w: %w", identity.ErrNoSession, err)
	}
	return u, err
}

// SignUp creates a confirmed user.
func (p *Provider) SignUp(ctx context.Context, input identity.SignUpInput) (identity.SignUpResult, error) {
	username := normalizeUsername(input.Username)
	if username == "" {
		return identity.SignUpResult{}, identity.ErrInvalidUsername
	}
	if err := checkPassword(input.Password); err != nil {
		return identity.SignUpResult{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return identity.SignUpResult{}, fmt.Errorf("hash password: %w", err)
	}
	userID, err := id.NewID()
	if err != nil {
		return identity.SignUpResult{}, err
	}
	rec := userRecord{
		ID:           userID,
		Username:     username,
		PasswordHash: string(hash),
		Email:        input.Attributes.Get(identity.AttrEmail),
		Name:         input.Attributes.Get(identity.AttrName),
	}
	if err := p.store.insertUser(ctx, rec, p.now().UTC()); err != nil {
		return identity.SignUpResult{}, err
	}
	return identity.SignUpResult{UserID: userID, Confirmed: true}, nil
}

// SignIn checks the password and issues a signed access token.
func (p *Provider) SignIn(ctx context.Context, input identity.SignInInput) (identity.Credentials, error) {
	u, err := p.store.userByUsername(ctx, normalizeUsername(input.Username))
	if errors.Is(err, identity.ErrUserNotFound) {
		return identity.Credentials{}, identity.ErrInvalidCredentials
	}
	if err != nil {
		return identity.Credentials{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return identity.Credentials{}, identity.ErrInvalidCredentials
	}
	jti, err := id.NewID()
	if err != nil {
		return identity.Credentials{}, err
	}
	token, expiresAt, err := p.signer.issue(u.ID, u.Username, jti, p.now())
	if err != nil {
		return identity.Credentials{}, err
	}
	return identity.Credentials{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// SignOut revokes the access token until it would have expired anyway.
func (p *Provider) SignOut(ctx context.Context, creds identity.Credentials) error {
	if creds.IsZero() {
		return nil
	}
	now := p.now()
	claims, err := p.signer.parse(creds.AccessToken, now)
	if err != nil {
		// Expired or foreign tokens grant nothing, so there is nothing to revoke.
		return nil
	}
	return p.store.revokeToken(ctx, claims.ID, claims.ExpiresAt.Time, now)
}

// ForgotPassword issues a fresh reset code through the configured sink.
// Unknown usernames succeed silently.
func (p *Provider) ForgotPassword(ctx context.Context, username string) error {
	username = normalizeUsername(username)
	if _, err := p.store.userByUsername(ctx, username); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil
		}
		return err
	}
	code, err := newResetCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash reset code: %w", err)
	}
	if err := p.store.putResetCode(ctx, username, string(hash), p.now().Add(p.resetCodeTTL)); err != nil {
		return err
	}
	p.sink(ctx, username, code)
	return nil
}

// ConfirmResetPassword replaces the password when code matches the pending
// reset code.
func (p *Provider) ConfirmResetPassword(ctx context.Context, input identity.ConfirmResetInput) error {
	username := normalizeUsername(input.Username)
	rec, ok, err := p.store.resetCode(ctx, username)
	if err != nil {
		return err
	}
	if !ok {
		return identity.ErrInvalidCode
	}
	if !p.now().Before(rec.ExpiresAt) {
		return identity.ErrCodeExpired
	}
	if rec.Attempts >= maxResetAttempts {
		return identity.ErrLimitExceeded
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(strings.TrimSpace(input.Code))); err != nil {
		if err := p.store.recordResetAttempt(ctx, username); err != nil {
			return err
		}
		return identity.ErrInvalidCode
	}
	if err := checkPassword(input.NewPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return p.store.updatePassword(ctx, username, string(hash), p.now().UTC())
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", identity.ErrInvalidPassword, MinPasswordLength)
	}
	if len(password) > 72 {
		return fmt.Errorf("%w: must be at most 72 bytes", identity.ErrInvalidPassword)
	}
	return nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%0*d", resetCodeDigits, n.Int64()), nil
}
