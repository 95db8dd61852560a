package psql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

// DirectoryRepository implements domain.DirectoryRepository using PostgreSQL.
// It only reads committed data and takes no locks.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository creates a new PostgreSQL directory repository
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) FindProfilesByName(ctx context.Context, query string) ([]domain.NameMatch, error) {
	// strpos instead of ILIKE so '%' and '_' in the query match literally.
	return r.findByName(ctx, `
		SELECT a.name, p.phone_number
		FROM profiles p
		JOIN accounts a ON a.id = p.account_id
		WHERE a.name IS NOT NULL AND strpos(lower(a.name), lower($1)) > 0
		ORDER BY p.id
	`, query)
}

func (r *DirectoryRepository) FindContactsByName(ctx context.Context, query string) ([]domain.NameMatch, error) {
	return r.findByName(ctx, `
		SELECT c.name, c.phone_number
		FROM contacts c
		WHERE strpos(lower(c.name), lower($1)) > 0
		ORDER BY c.id
	`, query)
}

func (r *DirectoryRepository) findByName(ctx context.Context, sql, query string) ([]domain.NameMatch, error) {
	rows, err := r.pool.Query(ctx, sql, query)
	if err != nil {
		return nil, fmt.Errorf("search by name: %w", err)
	}
	defer rows.Close()

	var matches []domain.NameMatch
	for rows.Next() {
		var m domain.NameMatch
		if err := rows.Scan(&m.Name, &m.PhoneNumber); err != nil {
			return nil, fmt.Errorf("scan name match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate name matches: %w", err)
	}
	return matches, nil
}

func (r *DirectoryRepository) GetProfileByPhone(ctx context.Context, phoneNumber string) (*domain.RegisteredProfile, error) {
	var p domain.RegisteredProfile
	var name *string
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.account_id, p.phone_number, p.email, p.spam_count, a.name
		FROM profiles p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.phone_number = $1
	`, phoneNumber).Scan(&p.ID, &p.AccountID, &p.PhoneNumber, &p.Email, &p.SpamCount, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query profile by phone: %w", err)
	}
	if name != nil {
		p.AccountName = *name
	}
	return &p, nil
}

// GroupContactsByPhone returns one row per distinct contact name saved for
// the number, in order of first appearance.
func (r *DirectoryRepository) GroupContactsByPhone(ctx context.Context, phoneNumber string) ([]domain.ContactGroup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, phone_number, COUNT(*)
		FROM contacts
		WHERE phone_number = $1
		GROUP BY name, phone_number
		ORDER BY MIN(id)
	`, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("group contacts by phone: %w", err)
	}
	defer rows.Close()

	var groups []domain.ContactGroup
	for rows.Next() {
		var g domain.ContactGroup
		if err := rows.Scan(&g.Name, &g.PhoneNumber, &g.Count); err != nil {
			return nil, fmt.Errorf("scan contact group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact groups: %w", err)
	}
	return groups, nil
}

func (r *DirectoryRepository) HasContact(ctx context.Context, ownerID int64, phoneNumber string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM contacts WHERE owner_id = $1 AND phone_number = $2)
	`, ownerID, phoneNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check contact: %w", err)
	}
	return exists, nil
}
