package domain

import "strings"

// SearchMode selects how a query is matched.
type SearchMode string

const (
	SearchByName  SearchMode = "name"
	SearchByPhone SearchMode = "phone"
)

// ParseSearchMode returns SearchByPhone for "phone" and SearchByName otherwise.
func ParseSearchMode(s string) SearchMode {
	if strings.EqualFold(strings.TrimSpace(s), string(SearchByPhone)) {
		return SearchByPhone
	}
	return SearchByName
}

// NameMatch is a raw name-search hit before ranking.
type NameMatch struct {
	Name        string
	PhoneNumber string
}

// SearchResult is produced per query and never persisted.
// ContactCount is only set for unregistered phone matches.
type SearchResult struct {
	Name           string
	PhoneNumber    string
	SpamLikelihood Likelihood
	IsRegistered   bool
	ContactCount   *int
	Email          *string
}
