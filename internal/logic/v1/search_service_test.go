package v1

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

func names(results []domain.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}

func TestSearchByNameRanking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "jw", "John Wilson", "+1000000001", nil)
	f.register(t, "bj", "Bob Johnson", "+1000000002", nil)
	owner := f.register(t, "owner", "Owner", "+1000000003", nil)
	f.addContact(t, owner.ID, "Johnson Brown", "+1000000011")
	f.addContact(t, owner.ID, "John Doe", "+1000000012")
	f.addContact(t, owner.ID, "Johnny Smith", "+1000000013")
	f.addContact(t, owner.ID, "JOHN", "+1000000014")
	f.addContact(t, owner.ID, "Alice", "+1000000015")

	results, err := f.search.Search(ctx, "john", domain.SearchByName, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"JOHN",
		"John Doe",
		"John Wilson",
		"Johnny Smith",
		"Johnson Brown",
		"Bob Johnson",
	}, names(results))
	for _, r := range results {
		assert.Empty(t, r.SpamLikelihood, "name results carry name and number only")
	}
}

func TestSearchByNameKeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "a", "A", "+1000000001", nil)
	b := f.register(t, "b", "B", "+1000000002", nil)
	f.addContact(t, a.ID, "Mike", "+1000000020")
	f.addContact(t, b.ID, "Mike", "+1000000021")

	results, err := f.search.Search(ctx, "mike", domain.SearchByName, a.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "+1000000020", results[0].PhoneNumber, "ties keep discovery order")
	assert.Equal(t, "+1000000021", results[1].PhoneNumber)
}

func TestSearchByNameNoMatch(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a", "A", "+1000000001", nil)

	results, err := f.search.Search(context.Background(), "zzz", domain.SearchByName, a.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	f := newFixture(t)
	_, err := f.search.Search(context.Background(), "  ", domain.SearchByPhone, 1)
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestSearchByPhoneRegistered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner", "Owner Name", "+1000000001", strPtr("owner@example.com"))
	friend := f.register(t, "friend", "Friend", "+1000000002", nil)
	stranger := f.register(t, "stranger", "Stranger", "+1000000003", nil)
	f.addContact(t, owner.ID, "My Friend", "+1000000002")
	// Contacts saved by others under different names are ignored for registered numbers.
	f.addContact(t, stranger.ID, "Somebody", "+1000000001")

	results, err := f.search.Search(ctx, "+1000000001", domain.SearchByPhone, friend.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Owner Name", r.Name)
	assert.True(t, r.IsRegistered)
	assert.Nil(t, r.ContactCount)
	assert.Equal(t, domain.LikelihoodLow, r.SpamLikelihood)
	require.NotNil(t, r.Email)
	assert.Equal(t, "owner@example.com", *r.Email)

	results, err = f.search.Search(ctx, "+1000000001", domain.SearchByPhone, stranger.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Email, "owner has not saved the stranger's number")
}

func TestSearchByPhoneEmailNotReciprocalTheOtherWay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "owner", "Owner", "+1000000001", strPtr("owner@example.com"))
	requester := f.register(t, "requester", "Requester", "+1000000002", nil)
	f.addContact(t, requester.ID, "Owner", "+1000000001")

	results, err := f.search.Search(ctx, "+1000000001", domain.SearchByPhone, requester.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Email)
}

func TestSearchByPhoneUnregistered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	accounts := make([]*domain.Account, 3)
	for i := range accounts {
		accounts[i] = f.register(t, fmt.Sprintf("u%d", i), "User", fmt.Sprintf("+10000000%02d", i), nil)
	}
	f.addContact(t, accounts[0].ID, "Spam Caller", "+1555000000")
	f.addContact(t, accounts[1].ID, "Pizza Place", "+1555000000")
	f.addContact(t, accounts[2].ID, "Spam Caller", "+1555000000")

	for _, a := range accounts {
		_, err := f.spam.Report(ctx, a.ID, "+1555000000")
		require.NoError(t, err)
	}

	results, err := f.search.Search(ctx, "+1555000000", domain.SearchByPhone, accounts[0].ID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Spam Caller", results[0].Name)
	require.NotNil(t, results[0].ContactCount)
	assert.Equal(t, 2, *results[0].ContactCount)
	assert.Equal(t, "Pizza Place", results[1].Name)
	assert.Equal(t, 1, *results[1].ContactCount)

	for _, r := range results {
		assert.False(t, r.IsRegistered)
		assert.Nil(t, r.Email)
		assert.Equal(t, domain.LikelihoodHigh, r.SpamLikelihood)
	}
}

func TestSearchByPhoneNoResults(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a", "A", "+1000000001", nil)

	_, err := f.search.Search(context.Background(), "+1999999999", domain.SearchByPhone, a.ID)
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestSearchLikelihoodTracksReportCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "target", "Target", "+1000000099", nil)

	want := []domain.Likelihood{
		domain.LikelihoodMedium, domain.LikelihoodMedium,
		domain.LikelihoodHigh, domain.LikelihoodHigh, domain.LikelihoodHigh,
		domain.LikelihoodVeryHigh,
	}
	for i, likelihood := range want {
		reporter := f.register(t, fmt.Sprintf("r%d", i), "R", fmt.Sprintf("+12000000%02d", i), nil)
		_, err := f.spam.Report(ctx, reporter.ID, "+1000000099")
		require.NoError(t, err)

		results, err := f.search.Search(ctx, "+1000000099", domain.SearchByPhone, reporter.ID)
		require.NoError(t, err)
		assert.Equal(t, likelihood, results[0].SpamLikelihood, "after %d reports", i+1)
	}
}

func TestRankByNameIsStable(t *testing.T) {
	results := []domain.SearchResult{
		{Name: "anna", PhoneNumber: "1"},
		{Name: "Anna", PhoneNumber: "2"},
		{Name: "anna", PhoneNumber: "3"},
	}
	RankByName("anna", results)
	assert.Equal(t, []string{"2", "1", "3"}, []string{results[0].PhoneNumber, results[1].PhoneNumber, results[2].PhoneNumber})
}

func TestCanSeeEmailWithoutRequesterProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner", "Owner", "+1000000001", strPtr("owner@example.com"))
	f.register(t, "friend", "Friend", "+1000000002", nil)
	f.addContact(t, owner.ID, "Friend", "+1000000002")

	profile, err := f.store.GetProfileByPhone(ctx, "+1000000001")
	require.NoError(t, err)
	require.NotNil(t, profile)

	visible, err := f.search.CanSeeEmail(ctx, profile, nil)
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = f.search.CanSeeEmail(ctx, profile, &domain.Profile{PhoneNumber: "+1000000002"})
	require.NoError(t, err)
	assert.True(t, visible, "owner saved the requester's number")
}

func TestCanSeeEmailOwnerWithoutEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner", "Owner", "+1000000001", nil)
	friend := f.register(t, "friend", "Friend", "+1000000002", nil)
	f.addContact(t, owner.ID, "Friend", "+1000000002")

	profile, err := f.store.GetProfileByPhone(ctx, "+1000000001")
	require.NoError(t, err)

	visible, err := f.search.CanSeeEmail(ctx, profile, &domain.Profile{AccountID: friend.ID, PhoneNumber: "+1000000002"})
	require.NoError(t, err)
	assert.False(t, visible)

	results, err := f.search.Search(ctx, "+1000000001", domain.SearchByPhone, friend.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Email)
}
