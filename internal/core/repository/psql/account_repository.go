package psql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *AccountRepository) PhoneNumberRegistered(ctx context.Context, phoneNumber string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE phone_number = $1)`, phoneNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check phone number registered: %w", err)
	}
	return exists, nil
}

// CreateAccount inserts the account and its profile in one transaction
func (r *AccountRepository) CreateAccount(ctx context.Context, account *domain.Account, profile *domain.Profile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create account: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (username, password_hash, name, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, account.Username, account.PasswordHash, account.Name, account.IsActive).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", mapAccountConflict(err))
	}

	profile.AccountID = account.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO profiles (account_id, phone_number, email)
		VALUES ($1, $2, $3)
		RETURNING id, spam_count
	`, profile.AccountID, profile.PhoneNumber, profile.Email).Scan(&profile.ID, &profile.SpamCount)
	if err != nil {
		return fmt.Errorf("insert profile: %w", mapAccountConflict(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create account: %w", mapAccountConflict(err))
	}
	return nil
}

func (r *AccountRepository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.getAccount(ctx, `WHERE id = $1`, id)
}

func (r *AccountRepository) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getAccount(ctx, `WHERE username = $1`, username)
}

func (r *AccountRepository) getAccount(ctx context.Context, where string, arg any) (*domain.Account, error) {
	var a domain.Account
	var name *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, name, is_active, created_at FROM accounts `+where, arg,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &name, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	if name != nil {
		a.Name = *name
	}
	return &a, nil
}

// GetProfileByAccountID returns nil if the account has no profile
func (r *AccountRepository) GetProfileByAccountID(ctx context.Context, accountID int64) (*domain.Profile, error) {
	var p domain.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, phone_number, email, spam_count
		FROM profiles WHERE account_id = $1
	`, accountID).Scan(&p.ID, &p.AccountID, &p.PhoneNumber, &p.Email, &p.SpamCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &p, nil
}

// DeleteAccountByUsername removes the account; profile, contacts and reports cascade
func (r *AccountRepository) DeleteAccountByUsername(ctx context.Context, username string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE username = $1`, username); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func mapAccountConflict(err error) error {
	switch c, ok := violatedConstraint(err); {
	case ok && c == constraintUsername:
		return domain.ErrDuplicateUsername
	case ok && c == constraintProfilePhone:
		return domain.ErrDuplicatePhoneNumber
	default:
		return err
	}
}
