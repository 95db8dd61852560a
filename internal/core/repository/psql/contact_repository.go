package psql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

// ContactRepository implements domain.ContactRepository using PostgreSQL
type ContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new PostgreSQL contact repository
func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// contactColumns includes the live report count for the contact's number.
const contactColumns = `
	c.id, c.owner_id, c.name, c.phone_number, c.spam_reported, c.created_at,
	(SELECT COUNT(*) FROM spam_reports s WHERE s.phone_number = c.phone_number)`

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.PhoneNumber, &c.SpamReported, &c.CreatedAt, &c.ReportCount)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) ListContacts(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts c WHERE c.owner_id = $1 ORDER BY c.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepository) GetContact(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts c WHERE c.owner_id = $1 AND c.id = $2`, ownerID, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContactNotFound
		}
		return nil, fmt.Errorf("query contact: %w", err)
	}
	return c, nil
}

// ContactExists reports whether the owner already saved phoneNumber on a
// contact other than excludeID
func (r *ContactRepository) ContactExists(ctx context.Context, ownerID int64, phoneNumber string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM contacts WHERE owner_id = $1 AND phone_number = $2 AND id <> $3)
	`, ownerID, phoneNumber, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check contact exists: %w", err)
	}
	return exists, nil
}

func (r *ContactRepository) CreateContact(ctx context.Context, contact *domain.Contact) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (owner_id, name, phone_number)
		VALUES ($1, $2, $3)
		RETURNING id, spam_reported, created_at
	`, contact.OwnerID, contact.Name, contact.PhoneNumber).Scan(&contact.ID, &contact.SpamReported, &contact.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact: %w", mapContactConflict(err))
	}
	return nil
}

func (r *ContactRepository) UpdateContact(ctx context.Context, contact *domain.Contact) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE contacts
		SET name = $3, phone_number = $4
		WHERE owner_id = $1 AND id = $2
		RETURNING spam_reported, created_at
	`, contact.OwnerID, contact.ID, contact.Name, contact.PhoneNumber).Scan(&contact.SpamReported, &contact.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrContactNotFound
		}
		return fmt.Errorf("update contact: %w", mapContactConflict(err))
	}
	return nil
}

func (r *ContactRepository) DeleteContact(ctx context.Context, ownerID, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrContactNotFound
	}
	return nil
}

func mapContactConflict(err error) error {
	if c, ok := violatedConstraint(err); ok && c == constraintContactPhone {
		return domain.ErrDuplicateContact
	}
	return err
}
