// Package memory is an in-process implementation of the directory
// repositories. It enforces the same uniqueness rules as the PostgreSQL
// schema and applies every write under one lock, so a spam report's effects
// become visible all at once.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

// Store implements domain.AccountRepository, domain.ContactRepository,
// domain.SpamReportRepository and domain.DirectoryRepository.
type Store struct {
	mu sync.RWMutex

	nextID   int64
	accounts []*domain.Account
	profiles []*domain.Profile
	contacts []*domain.Contact
	reports  []*domain.SpamReport

	now func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Accounts

func (s *Store) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountByUsername(username) != nil, nil
}

func (s *Store) PhoneNumberRegistered(_ context.Context, phoneNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileByPhone(phoneNumber) != nil, nil
}

func (s *Store) CreateAccount(_ context.Context, account *domain.Account, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accountByUsername(account.Username) != nil {
		return domain.ErrDuplicateUsername
	}
	if s.profileByPhone(profile.PhoneNumber) != nil {
		return domain.ErrDuplicatePhoneNumber
	}

	account.ID = s.id()
	account.CreatedAt = s.now()
	a := *account
	s.accounts = append(s.accounts, &a)

	profile.ID = s.id()
	profile.AccountID = account.ID
	profile.SpamCount = 0
	p := *profile
	s.profiles = append(s.profiles, &p)
	return nil
}

func (s *Store) GetAccountByID(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *Store) GetAccountByUsername(_ context.Context, username string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a := s.accountByUsername(username); a != nil {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (s *Store) GetProfileByAccountID(_ context.Context, accountID int64) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.AccountID == accountID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

// DeleteAccountByUsername cascades to the profile, contacts and reports.
func (s *Store) DeleteAccountByUsername(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountByUsername(username)
	if a == nil {
		return nil
	}
	id := a.ID
	s.accounts = filter(s.accounts, func(x *domain.Account) bool { return x.ID != id })
	s.profiles = filter(s.profiles, func(x *domain.Profile) bool { return x.AccountID != id })
	s.contacts = filter(s.contacts, func(x *domain.Contact) bool { return x.OwnerID != id })
	s.reports = filter(s.reports, func(x *domain.SpamReport) bool { return x.ReporterID != id })
	return nil
}

// SetAccountActive toggles login eligibility.
func (s *Store) SetAccountActive(username string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.accountByUsername(username); a != nil {
		a.IsActive = active
	}
}

// Contacts

func (s *Store) ListContacts(_ context.Context, ownerID int64) ([]domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Contact{}
	for _, c := range s.contacts {
		if c.OwnerID == ownerID {
			out = append(out, s.withCount(c))
		}
	}
	return out, nil
}

func (s *Store) GetContact(_ context.Context, ownerID, id int64) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.contact(ownerID, id)
	if c == nil {
		return nil, domain.ErrContactNotFound
	}
	cp := s.withCount(c)
	return &cp, nil
}

func (s *Store) ContactExists(_ context.Context, ownerID int64, phoneNumber string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerHasNumber(ownerID, phoneNumber, excludeID), nil
}

func (s *Store) CreateContact(_ context.Context, contact *domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownerHasNumber(contact.OwnerID, contact.PhoneNumber, 0) {
		return domain.ErrDuplicateContact
	}
	contact.ID = s.id()
	contact.CreatedAt = s.now()
	contact.SpamReported = false
	c := *contact
	c.ReportCount = 0
	s.contacts = append(s.contacts, &c)
	return nil
}

func (s *Store) UpdateContact(_ context.Context, contact *domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.contact(contact.OwnerID, contact.ID)
	if c == nil {
		return domain.ErrContactNotFound
	}
	if s.ownerHasNumber(contact.OwnerID, contact.PhoneNumber, contact.ID) {
		return domain.ErrDuplicateContact
	}
	c.Name = contact.Name
	c.PhoneNumber = contact.PhoneNumber
	contact.SpamReported = c.SpamReported
	contact.CreatedAt = c.CreatedAt
	return nil
}

func (s *Store) DeleteContact(_ context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contact(ownerID, id) == nil {
		return domain.ErrContactNotFound
	}
	s.contacts = filter(s.contacts, func(x *domain.Contact) bool { return x.ID != id })
	return nil
}

// Spam reports

func (s *Store) ReportExists(_ context.Context, reporterID int64, phoneNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report(reporterID, phoneNumber) != nil, nil
}

func (s *Store) RecordReport(_ context.Context, reporterID int64, phoneNumber string) (*domain.SpamReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report(reporterID, phoneNumber) != nil {
		return nil, domain.ErrDuplicateReport
	}
	var username string
	for _, a := range s.accounts {
		if a.ID == reporterID {
			username = a.Username
		}
	}

	r := &domain.SpamReport{
		ID:               s.id(),
		ReporterID:       reporterID,
		ReporterUsername: username,
		PhoneNumber:      phoneNumber,
		CreatedAt:        s.now(),
	}
	s.reports = append(s.reports, r)

	for _, c := range s.contacts {
		if c.PhoneNumber == phoneNumber {
			c.SpamReported = true
		}
	}
	if p := s.profileByPhone(phoneNumber); p != nil {
		p.SpamCount++
	}

	cp := *r
	return &cp, nil
}

func (s *Store) ListReportsByReporter(_ context.Context, reporterID int64) ([]domain.SpamReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.SpamReport{}
	for i := len(s.reports) - 1; i >= 0; i-- {
		if s.reports[i].ReporterID == reporterID {
			out = append(out, *s.reports[i])
		}
	}
	return out, nil
}

func (s *Store) CountReports(_ context.Context, phoneNumber string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countReports(phoneNumber), nil
}

// Directory

func (s *Store) FindProfilesByName(_ context.Context, query string) ([]domain.NameMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(query)
	var out []domain.NameMatch
	for _, p := range s.profiles {
		a := s.accountByID(p.AccountID)
		if a == nil || a.Name == "" {
			continue
		}
		if strings.Contains(strings.ToLower(a.Name), needle) {
			out = append(out, domain.NameMatch{Name: a.Name, PhoneNumber: p.PhoneNumber})
		}
	}
	return out, nil
}

func (s *Store) FindContactsByName(_ context.Context, query string) ([]domain.NameMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(query)
	var out []domain.NameMatch
	for _, c := range s.contacts {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			out = append(out, domain.NameMatch{Name: c.Name, PhoneNumber: c.PhoneNumber})
		}
	}
	return out, nil
}

func (s *Store) GetProfileByPhone(_ context.Context, phoneNumber string) (*domain.RegisteredProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.profileByPhone(phoneNumber)
	if p == nil {
		return nil, nil
	}
	rp := &domain.RegisteredProfile{Profile: *p}
	if a := s.accountByID(p.AccountID); a != nil {
		rp.AccountName = a.Name
	}
	return rp, nil
}

func (s *Store) GroupContactsByPhone(_ context.Context, phoneNumber string) ([]domain.ContactGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index := map[string]int{}
	var groups []domain.ContactGroup
	for _, c := range s.contacts {
		if c.PhoneNumber != phoneNumber {
			continue
		}
		if i, ok := index[c.Name]; ok {
			groups[i].Count++
			continue
		}
		index[c.Name] = len(groups)
		groups = append(groups, domain.ContactGroup{Name: c.Name, PhoneNumber: c.PhoneNumber, Count: 1})
	}
	return groups, nil
}

func (s *Store) HasContact(_ context.Context, ownerID int64, phoneNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerHasNumber(ownerID, phoneNumber, 0), nil
}

// Snapshot helpers for tests and diagnostics.

// ProfileSpamCount returns the stored counter for a registered number.
func (s *Store) ProfileSpamCount(phoneNumber string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.profileByPhone(phoneNumber); p != nil {
		return p.SpamCount, true
	}
	return 0, false
}

// ContactFlags returns spam_reported for every contact holding the number,
// ordered by contact id.
func (s *Store) ContactFlags(phoneNumber string) []bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int64
	flags := map[int64]bool{}
	for _, c := range s.contacts {
		if c.PhoneNumber == phoneNumber {
			ids = append(ids, c.ID)
			flags[c.ID] = c.SpamReported
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]bool, len(ids))
	for i, id := range ids {
		out[i] = flags[id]
	}
	return out
}

// unexported lookups; callers hold s.mu

func (s *Store) accountByUsername(username string) *domain.Account {
	for _, a := range s.accounts {
		if a.Username == username {
			return a
		}
	}
	return nil
}

func (s *Store) accountByID(id int64) *domain.Account {
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *Store) profileByPhone(phoneNumber string) *domain.Profile {
	for _, p := range s.profiles {
		if p.PhoneNumber == phoneNumber {
			return p
		}
	}
	return nil
}

func (s *Store) contact(ownerID, id int64) *domain.Contact {
	for _, c := range s.contacts {
		if c.OwnerID == ownerID && c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Store) ownerHasNumber(ownerID int64, phoneNumber string, excludeID int64) bool {
	for _, c := range s.contacts {
		if c.OwnerID == ownerID && c.PhoneNumber == phoneNumber && c.ID != excludeID {
			return true
		}
	}
	return false
}

func (s *Store) report(reporterID int64, phoneNumber string) *domain.SpamReport {
	for _, r := range s.reports {
		if r.ReporterID == reporterID && r.PhoneNumber == phoneNumber {
			return r
		}
	}
	return nil
}

func (s *Store) countReports(phoneNumber string) int {
	n := 0
	for _, r := range s.reports {
		if r.PhoneNumber == phoneNumber {
			n++
		}
	}
	return n
}

func (s *Store) withCount(c *domain.Contact) domain.Contact {
	cp := *c
	cp.ReportCount = s.countReports(c.PhoneNumber)
	return cp
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
