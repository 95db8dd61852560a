package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

// Gin context keys set by AuthMiddleware
const (
	ContextAccountID   = "account_id"
	ContextUsername    = "username"
	ContextPhoneNumber = "phone_number"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the JWT claims carried by access and refresh tokens
type Claims struct {
	AccountID   int64  `json:"account_id"`
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number,omitempty"`
	TokenType   string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a token manager with the given secret and lifetimes
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue returns a fresh access/refresh token pair for the subject
func (m *TokenManager) Issue(subject domain.TokenSubject) (*domain.TokenPair, error) {
	if subject.AccountID == 0 || subject.Username == "" {
		return nil, errors.New("required inputs are missing to generate token")
	}
	access, err := m.sign(subject, tokenTypeAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(subject, tokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *TokenManager) sign(subject domain.TokenSubject, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		AccountID:   subject.AccountID,
		Username:    subject.Username,
		PhoneNumber: subject.PhoneNumber,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(subject.AccountID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// VerifyAccess validates an access token and returns its claims
func (m *TokenManager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, tokenTypeAccess)
}

// VerifyRefresh validates a refresh token and returns the account it was issued to
func (m *TokenManager) VerifyRefresh(token string) (int64, error) {
	claims, err := m.verify(token, tokenTypeRefresh)
	if err != nil {
		return 0, err
	}
	return claims.AccountID, nil
}

func (m *TokenManager) verify(tokenString, tokenType string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, domain.ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.TokenType != tokenType || claims.AccountID == 0 {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// AuthMiddleware validates the bearer access token.
// It sets "account_id" (int64), "username" and "phone_number" in the gin
// context if authentication succeeds, otherwise it aborts with 401.
func AuthMiddleware(tokens *TokenManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		// Extract token from "Bearer <token>"
		const bearerPrefix = "Bearer "
		if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		claims, err := tokens.VerifyAccess(authHeader[len(bearerPrefix):])
		if err != nil {
			if logger != nil {
				logger.Debug("Auth validation failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextAccountID, claims.AccountID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextPhoneNumber, claims.PhoneNumber)
		c.Next()
	}
}

// AccountID returns the authenticated account id, or 0 if the request is anonymous
func AccountID(c *gin.Context) int64 {
	if v, ok := c.Get(ContextAccountID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
