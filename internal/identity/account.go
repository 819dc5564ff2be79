package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAccountNotFound    = errors.New("identity: no account record for the provided identifier")
	ErrEmailExists        = errors.New("identity: the email address is already in use by another account")
	ErrAccountDisabled    = errors.New("identity: the account has been disabled")
	ErrTokenRevoked       = errors.New("identity: the token has been revoked")
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrWeakPassword       = errors.New("identity: the password must be a string with at least 6 characters")
	ErrInvalidEmail       = errors.New("identity: the email address is improperly formatted")
)

// Account is an identity-provider record.
type Account struct {
	UID          string
	Email        string
	PasswordHash string
	DisplayName  string
	Phone        string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountStore persists identity accounts.
type AccountStore interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, uid string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	SetDisabled(ctx context.Context, uid string, disabled bool) error
	Delete(ctx context.Context, uid string) error
	Ping(ctx context.Context) error
}

// RevocationStore records the instant before which an account's tokens are no longer valid.
type RevocationStore interface {
	Revoke(ctx context.Context, uid string, at time.Time) error
	RevokedAt(ctx context.Context, uid string) (time.Time, bool, error)
}
