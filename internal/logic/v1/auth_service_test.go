package v1

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

func TestRegisterCreatesAccountAndProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	account := f.register(t, "alice", "Alice Smith", "+1234567890", strPtr("alice@example.com"))
	assert.NotZero(t, account.ID)
	assert.True(t, account.IsActive)
	assert.NotEqual(t, "Secret123", account.PasswordHash)

	profile, err := f.store.GetProfileByAccountID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "+1234567890", profile.PhoneNumber)
	assert.Equal(t, "alice@example.com", *profile.Email)
	assert.Zero(t, profile.SpamCount)
}

func TestRegisterReportsBothConflicts(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "Alice", "+1234567890", nil)

	_, err := f.auth.Register(context.Background(), domain.RegisterRequest{
		Username:    "alice",
		Password:    "Secret123",
		PhoneNumber: "+1234567890",
		Name:        "Someone Else",
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, domain.ErrDuplicateUsername, verr.Fields["username"])
	assert.Equal(t, domain.ErrDuplicatePhoneNumber, verr.Fields["phone_number"])
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterRejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.Register(ctx, domain.RegisterRequest{
		Username:    "bob",
		Password:    "nodigits",
		PhoneNumber: "+1234567890",
		Name:        "Bob",
	})
	require.ErrorIs(t, err, domain.ErrWeakPassword)

	taken, err := f.store.UsernameExists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, taken)
	registered, err := f.store.PhoneNumberRegistered(ctx, "+1234567890")
	require.NoError(t, err)
	assert.False(t, registered)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.register(t, "alice", "Alice", "+1234567890", nil)

	pair, err := f.auth.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	claims, err := f.tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.AccountID)
	assert.Equal(t, "+1234567890", claims.PhoneNumber)

	_, err = f.auth.Login(ctx, "alice", "wrong123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "nobody", "Secret123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	f.store.SetAccountActive("alice", false)
	_, err = f.auth.Login(ctx, "alice", "Secret123")
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.register(t, "alice", "Alice", "+1234567890", nil)

	pair, err := f.auth.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	rotated, err := f.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := f.tokens.VerifyAccess(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.AccountID)

	_, err = f.auth.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "access tokens cannot be used to refresh")

	require.NoError(t, f.auth.ResetAccount(ctx, "alice"))
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestResetAccountAllowsReRegistration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "testuser", "Test User", "+1234567890", nil)

	require.NoError(t, f.auth.ResetAccount(ctx, "testuser"))
	f.register(t, "testuser", "Test User", "+1234567890", nil)
}
