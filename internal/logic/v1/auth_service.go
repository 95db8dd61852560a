package v1

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/callerid-service/internal/core/domain"
	"github.com/duynhne/callerid-service/middleware"
)

// TokenIssuer issues token pairs and resolves refresh tokens back to an account
type TokenIssuer interface {
	Issue(subject domain.TokenSubject) (*domain.TokenPair, error)
	VerifyRefresh(token string) (int64, error)
}

// AuthService handles registration and credential exchange
type AuthService struct {
	accounts   domain.AccountRepository
	tokens     TokenIssuer
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(accounts domain.AccountRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{
		accounts:   accounts,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register validates the request and creates the account with its profile.
// Every check runs before the first write; the store's unique constraints
// catch anything that races past the existence checks.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	if err := validateRegistration(&req); err != nil {
		span.SetAttributes(attribute.Bool("account.created", false))
		middleware.ObserveRegistration("invalid")
		return nil, err
	}

	var verr domain.ValidationError
	taken, err := s.accounts.UsernameExists(ctx, req.Username)
	if err != nil {
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("register %q: %w", req.Username, err)
	}
	if taken {
		verr.Add("username", domain.ErrDuplicateUsername)
	}
	registered, err := s.accounts.PhoneNumberRegistered(ctx, req.PhoneNumber)
	if err != nil {
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("register %q: %w", req.Username, err)
	}
	if registered {
		verr.Add("phone_number", domain.ErrDuplicatePhoneNumber)
	}
	if err := verr.OrNil(); err != nil {
		span.SetAttributes(attribute.Bool("account.created", false))
		middleware.ObserveRegistration("conflict")
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
		IsActive:     true,
	}
	profile := &domain.Profile{
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	}
	if err := s.accounts.CreateAccount(ctx, account, profile); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateUsername):
			verr.Add("username", domain.ErrDuplicateUsername)
		case errors.Is(err, domain.ErrDuplicatePhoneNumber):
			verr.Add("phone_number", domain.ErrDuplicatePhoneNumber)
		default:
			middleware.RecordError(span, err)
			middleware.ObserveRegistration("error")
			return nil, fmt.Errorf("create account %q: %w", req.Username, err)
		}
		middleware.ObserveRegistration("conflict")
		return nil, &verr
	}

	span.SetAttributes(
		attribute.Int64("account.id", account.ID),
		attribute.Bool("account.created", true),
	)
	middleware.ObserveRegistration("created")
	return account, nil
}

// Login exchanges username and password for a token pair
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", username),
	))
	defer span.End()

	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("login %q: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	return s.issue(ctx, account)
}

// Refresh rotates a refresh token into a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.refresh", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	accountID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidToken
		}
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("refresh for account %d: %w", accountID, err)
	}
	if !account.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	return s.issue(ctx, account)
}

func (s *AuthService) issue(ctx context.Context, account *domain.Account) (*domain.TokenPair, error) {
	profile, err := s.accounts.GetProfileByAccountID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile for account %d: %w", account.ID, err)
	}
	subject := domain.TokenSubject{AccountID: account.ID, Username: account.Username}
	if profile != nil {
		subject.PhoneNumber = profile.PhoneNumber
	}
	pair, err := s.tokens.Issue(subject)
	if err != nil {
		return nil, fmt.Errorf("issue tokens for account %d: %w", account.ID, err)
	}
	return pair, nil
}

// ResetAccount deletes any account holding username so it can be registered afresh
func (s *AuthService) ResetAccount(ctx context.Context, username string) error {
	return s.accounts.DeleteAccountByUsername(ctx, username)
}
