package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type postgresAccounts struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountStore returns a Postgres-backed account store.
func NewPostgresAccountStore(pool *pgxpool.Pool) AccountStore {
	return &postgresAccounts{pool: pool}
}

func (r *postgresAccounts) Create(ctx context.Context, account *Account) error {
	const query = `
        INSERT INTO identity_accounts (uid, email, password_hash, display_name, phone, disabled)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.UID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.Phone,
		account.Disabled,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailExists
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *postgresAccounts) GetByID(ctx context.Context, uid string) (*Account, error) {
	const query = `
        SELECT uid, email, password_hash, display_name, phone, disabled, created_at, updated_at
        FROM identity_accounts WHERE uid=$1`
	return r.fetchSingle(ctx, query, uid)
}

func (r *postgresAccounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `
        SELECT uid, email, password_hash, display_name, phone, disabled, created_at, updated_at
        FROM identity_accounts WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *postgresAccounts) fetchSingle(ctx context.Context, query string, arg any) (*Account, error) {
	var account Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.UID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&account.Phone,
		&account.Disabled,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *postgresAccounts) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	const query = `UPDATE identity_accounts SET disabled=$1, updated_at=NOW() WHERE uid=$2`

	cmd, err := r.pool.Exec(ctx, query, disabled, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *postgresAccounts) Delete(ctx context.Context, uid string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM identity_accounts WHERE uid=$1`, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *postgresAccounts) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
