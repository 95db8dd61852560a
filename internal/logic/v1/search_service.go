package v1

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/callerid-service/internal/core/domain"
	"github.com/duynhne/callerid-service/middleware"
)

// SearchService resolves name and phone queries against profiles and contacts
type SearchService struct {
	directory domain.DirectoryRepository
	reports   domain.SpamReportRepository
	accounts  domain.AccountRepository
}

// NewSearchService creates a new search service
func NewSearchService(directory domain.DirectoryRepository, reports domain.SpamReportRepository, accounts domain.AccountRepository) *SearchService {
	return &SearchService{directory: directory, reports: reports, accounts: accounts}
}

// Search runs query in the given mode on behalf of requesterID.
// Phone searches that match nothing return domain.ErrNoResults; name searches
// return an empty slice.
func (s *SearchService) Search(ctx context.Context, query string, mode domain.SearchMode, requesterID int64) ([]domain.SearchResult, error) {
	ctx, span := middleware.StartSpan(ctx, "search", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("search.mode", string(mode)),
	))
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		middleware.ObserveSearch(string(mode), "invalid", 0)
		return nil, domain.ErrEmptyQuery
	}

	var (
		results []domain.SearchResult
		err     error
	)
	if mode == domain.SearchByPhone {
		results, err = s.searchByPhone(ctx, query, requesterID)
	} else {
		results, err = s.searchByName(ctx, query)
	}

	switch {
	case errors.Is(err, domain.ErrNoResults):
		middleware.ObserveSearch(string(mode), "empty", 0)
		return nil, err
	case err != nil:
		middleware.RecordError(span, err)
		middleware.ObserveSearch(string(mode), "error", 0)
		return nil, err
	}

	span.SetAttributes(attribute.Int("search.results", len(results)))
	middleware.ObserveSearch(string(mode), "ok", len(results))
	return results, nil
}

func (s *SearchService) searchByName(ctx context.Context, query string) ([]domain.SearchResult, error) {
	profiles, err := s.directory.FindProfilesByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search profiles by name: %w", err)
	}
	contacts, err := s.directory.FindContactsByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search contacts by name: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(profiles)+len(contacts))
	for _, m := range profiles {
		results = append(results, domain.SearchResult{Name: m.Name, PhoneNumber: m.PhoneNumber})
	}
	for _, m := range contacts {
		results = append(results, domain.SearchResult{Name: m.Name, PhoneNumber: m.PhoneNumber})
	}
	RankByName(query, results)
	return results, nil
}

// Match tiers for name ranking, best first.
const (
	tierExact = iota
	tierPrefix
	tierSubstring
)

func nameTier(query, name string) int {
	q := strings.ToLower(query)
	n := strings.ToLower(name)
	switch {
	case n == q:
		return tierExact
	case strings.HasPrefix(n, q):
		return tierPrefix
	default:
		return tierSubstring
	}
}

// RankByName orders results in place: exact case-insensitive matches, then
// prefix matches, then other substring matches; by stored name within a tier.
// Equal keys keep their discovery order.
func RankByName(query string, results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ti, tj := nameTier(query, results[i].Name), nameTier(query, results[j].Name)
		if ti != tj {
			return ti < tj
		}
		return results[i].Name < results[j].Name
	})
}

func (s *SearchService) searchByPhone(ctx context.Context, phoneNumber string, requesterID int64) ([]domain.SearchResult, error) {
	count, err := s.reports.CountReports(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("count spam reports: %w", err)
	}
	likelihood := domain.LikelihoodFromCount(count)

	owner, err := s.directory.GetProfileByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("lookup profile by phone: %w", err)
	}
	if owner != nil {
		result := domain.SearchResult{
			Name:           owner.AccountName,
			PhoneNumber:    phoneNumber,
			SpamLikelihood: likelihood,
			IsRegistered:   true,
		}
		requester, err := s.accounts.GetProfileByAccountID(ctx, requesterID)
		if err != nil {
			return nil, fmt.Errorf("lookup requester profile: %w", err)
		}
		visible, err := s.CanSeeEmail(ctx, owner, requester)
		if err != nil {
			return nil, err
		}
		if visible {
			result.Email = owner.Email
		}
		return []domain.SearchResult{result}, nil
	}

	groups, err := s.directory.GroupContactsByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("group contacts by phone: %w", err)
	}
	if len(groups) == 0 {
		return nil, domain.ErrNoResults
	}

	// No profile holds this number, so none of these rows is registered and
	// none can disclose an email.
	results := make([]domain.SearchResult, 0, len(groups))
	for _, g := range groups {
		contactCount := g.Count
		results = append(results, domain.SearchResult{
			Name:           g.Name,
			PhoneNumber:    g.PhoneNumber,
			SpamLikelihood: likelihood,
			IsRegistered:   false,
			ContactCount:   &contactCount,
		})
	}
	return results, nil
}

// CanSeeEmail reports whether requester may see owner's email: the owner must
// have saved the requester's own registered number as a contact. A requester
// without a profile never sees it.
func (s *SearchService) CanSeeEmail(ctx context.Context, owner *domain.RegisteredProfile, requester *domain.Profile) (bool, error) {
	if owner == nil || owner.Email == nil || requester == nil || requester.PhoneNumber == "" {
		return false, nil
	}
	ok, err := s.directory.HasContact(ctx, owner.AccountID, requester.PhoneNumber)
	if err != nil {
		return false, fmt.Errorf("check email visibility: %w", err)
	}
	return ok, nil
}
