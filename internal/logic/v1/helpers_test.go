package v1

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/callerid-service/internal/core/domain"
	"github.com/duynhne/callerid-service/internal/core/repository/memory"
	"github.com/duynhne/callerid-service/middleware"
)

const testSecret = "test-secret-with-enough-length-1234"

type recordingPublisher struct {
	mu      sync.Mutex
	reports []domain.SpamReport
	err     error
}

func (p *recordingPublisher) PublishSpamReported(_ context.Context, report *domain.SpamReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, *report)
	return p.err
}

type fixture struct {
	store     *memory.Store
	tokens    *middleware.TokenManager
	publisher *recordingPublisher
	auth      *AuthService
	search    *SearchService
	spam      *SpamService
	contacts  *ContactService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	tokens := middleware.NewTokenManager(testSecret, 15*time.Minute, time.Hour)
	publisher := &recordingPublisher{}

	auth := NewAuthService(store, tokens)
	auth.bcryptCost = bcrypt.MinCost

	return &fixture{
		store:     store,
		tokens:    tokens,
		publisher: publisher,
		auth:      auth,
		search:    NewSearchService(store, store, store),
		spam:      NewSpamService(store, publisher, nil),
		contacts:  NewContactService(store, store),
	}
}

func (f *fixture) register(t *testing.T, username, name, phone string, email *string) *domain.Account {
	t.Helper()
	account, err := f.auth.Register(context.Background(), domain.RegisterRequest{
		Username:    username,
		Password:    "Secret123",
		PhoneNumber: phone,
		Name:        name,
		Email:       email,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) addContact(t *testing.T, ownerID int64, name, phone string) *domain.Contact {
	t.Helper()
	c, err := f.contacts.Create(context.Background(), ownerID, domain.ContactInput{Name: &name, PhoneNumber: &phone})
	require.NoError(t, err)
	return c
}

func strPtr(s string) *string { return &s }
