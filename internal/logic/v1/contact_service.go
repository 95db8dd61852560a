package v1

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/callerid-service/internal/core/domain"
	"github.com/duynhne/callerid-service/middleware"
)

// ContactService manages the caller's own address book
type ContactService struct {
	contacts domain.ContactRepository
	reports  domain.SpamReportRepository
}

// NewContactService creates a new contact service
func NewContactService(contacts domain.ContactRepository, reports domain.SpamReportRepository) *ContactService {
	return &ContactService{contacts: contacts, reports: reports}
}

func (s *ContactService) List(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	ctx, span := startContactSpan(ctx, "contact.list", ownerID)
	defer span.End()

	contacts, err := s.contacts.ListContacts(ctx, ownerID)
	if err != nil {
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Get(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	ctx, span := startContactSpan(ctx, "contact.get", ownerID)
	defer span.End()

	return s.contacts.GetContact(ctx, ownerID, id)
}

func (s *ContactService) Create(ctx context.Context, ownerID int64, in domain.ContactInput) (*domain.Contact, error) {
	ctx, span := startContactSpan(ctx, "contact.create", ownerID)
	defer span.End()

	contact := &domain.Contact{OwnerID: ownerID}
	applyContactInput(contact, in)
	if err := s.checkWritable(ctx, contact); err != nil {
		return nil, err
	}

	if err := s.contacts.CreateContact(ctx, contact); err != nil {
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return s.withReportCount(ctx, contact)
}

// Update applies in to an existing contact; nil fields keep their value
func (s *ContactService) Update(ctx context.Context, ownerID, id int64, in domain.ContactInput) (*domain.Contact, error) {
	ctx, span := startContactSpan(ctx, "contact.update", ownerID)
	defer span.End()

	contact, err := s.contacts.GetContact(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	applyContactInput(contact, in)
	if err := s.checkWritable(ctx, contact); err != nil {
		return nil, err
	}

	if err := s.contacts.UpdateContact(ctx, contact); err != nil {
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("update contact %d: %w", id, err)
	}
	return s.withReportCount(ctx, contact)
}

func (s *ContactService) Delete(ctx context.Context, ownerID, id int64) error {
	ctx, span := startContactSpan(ctx, "contact.delete", ownerID)
	defer span.End()

	return s.contacts.DeleteContact(ctx, ownerID, id)
}

func (s *ContactService) checkWritable(ctx context.Context, contact *domain.Contact) error {
	if err := validateContact(contact); err != nil {
		return err
	}
	dup, err := s.contacts.ContactExists(ctx, contact.OwnerID, contact.PhoneNumber, contact.ID)
	if err != nil {
		return fmt.Errorf("check duplicate contact: %w", err)
	}
	if dup {
		return domain.ErrDuplicateContact
	}
	return nil
}

func (s *ContactService) withReportCount(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	count, err := s.reports.CountReports(ctx, contact.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("count spam reports: %w", err)
	}
	contact.ReportCount = count
	return contact, nil
}

func applyContactInput(c *domain.Contact, in domain.ContactInput) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.PhoneNumber != nil {
		c.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
}

func startContactSpan(ctx context.Context, name string, ownerID int64) (context.Context, trace.Span) {
	return middleware.StartSpan(ctx, name, trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("owner.id", ownerID),
	))
}
