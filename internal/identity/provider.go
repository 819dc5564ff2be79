package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Token is a verified ID token.
type Token struct {
	UID       string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// CreateAccountParams describes a new account.
type CreateAccountParams struct {
	Email       string
	Password    string
	DisplayName string
	Phone       string
	Disabled    bool
}

// Provider is the identity provider: it owns accounts, credentials and ID tokens.
type Provider struct {
	accounts    AccountStore
	revocations RevocationStore
	tokens      *TokenManager
	bcryptCost  int
	now         func() time.Time
}

// NewProvider wires the provider.
func NewProvider(accounts AccountStore, revocations RevocationStore, tokens *TokenManager, bcryptCost int) *Provider {
	return &Provider{
		accounts:    accounts,
		revocations: revocations,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
		now:         time.Now,
	}
}

// VerifyToken checks signature, expiry, issuer, account state and revocation.
func (p *Provider) VerifyToken(ctx context.Context, raw string) (*Token, error) {
	claims, err := p.tokens.ParseToken(raw)
	if err != nil {
		return nil, err
	}

	account, err := p.accounts.GetByID(ctx, claims.UID)
	if err != nil {
		return nil, err
	}
	if account.Disabled {
		return nil, ErrAccountDisabled
	}

	revokedAt, revoked, err := p.revocations.RevokedAt(ctx, claims.UID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	issuedAt := claims.IssuedAtTime()
	if revoked && !issuedAt.After(revokedAt) {
		return nil, ErrTokenRevoked
	}

	return &Token{
		UID:       claims.UID,
		Email:     claims.Email,
		IssuedAt:  issuedAt,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// CreateUser registers a new account and returns it.
func (p *Provider) CreateUser(ctx context.Context, params CreateAccountParams) (*Account, error) {
	email := normalizeEmail(params.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	if len(params.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	if _, err := p.accounts.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	hash, err := HashPassword(params.Password, p.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &Account{
		UID:          newUID(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(params.DisplayName),
		Phone:        strings.TrimSpace(params.Phone),
		Disabled:     params.Disabled,
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetUser returns an account by UID.
func (p *Provider) GetUser(ctx context.Context, uid string) (*Account, error) {
	return p.accounts.GetByID(ctx, uid)
}

// GetUserByEmail returns an account by email address.
func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*Account, error) {
	return p.accounts.GetByEmail(ctx, normalizeEmail(email))
}

// SetDisabled enables or disables an account. Disabling also revokes every
// token issued to the account so far.
func (p *Provider) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	if err := p.accounts.SetDisabled(ctx, uid, disabled); err != nil {
		return err
	}
	if !disabled {
		return nil
	}
	if err := p.revocations.Revoke(ctx, uid, p.now()); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

// DeleteUser removes an account.
func (p *Provider) DeleteUser(ctx context.Context, uid string) error {
	return p.accounts.Delete(ctx, uid)
}

// SignIn exchanges credentials for an ID token.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Account, string, time.Time, error) {
	account, err := p.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if err := ComparePassword(account.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if account.Disabled {
		return nil, "", time.Time{}, ErrAccountDisabled
	}

	token, exp, err := p.tokens.GenerateToken(account.UID, account.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return account, token, exp, nil
}

// Ping reports whether the account store is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	return p.accounts.Ping(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
