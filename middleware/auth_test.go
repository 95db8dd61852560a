package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

const testSecret = "test-secret-with-enough-length-1234"

func TestTokenManagerRoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute, time.Hour)
	pair, err := m.Issue(domain.TokenSubject{AccountID: 7, Username: "alice", PhoneNumber: "+1234567890"})
	require.NoError(t, err)

	claims, err := m.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.AccountID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "+1234567890", claims.PhoneNumber)

	id, err := m.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestTokenManagerRejects(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute, time.Hour)
	pair, err := m.Issue(domain.TokenSubject{AccountID: 7, Username: "alice"})
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "refresh token used as access token")
	_, err = m.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	other := NewTokenManager("another-secret-with-enough-length-99", time.Minute, time.Hour)
	_, err = other.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "wrong signing key")

	_, err = m.VerifyAccess("")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "expired")

	_, err = m.Issue(domain.TokenSubject{})
	assert.Error(t, err)
}

func TestTokenManagerRejectsNoneAlgorithm(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute, time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		AccountID: 1,
		Username:  "mallory",
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.VerifyAccess(signed)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewTokenManager(testSecret, time.Minute, time.Hour)
	pair, err := m.Issue(domain.TokenSubject{AccountID: 42, Username: "bob"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(m, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": AccountID(c), "username": c.GetString(ContextUsername)})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"valid", "Bearer " + pair.AccessToken, http.StatusOK},
		{"lowercase scheme", "bearer " + pair.AccessToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":42,"username":"bob"}`, w.Body.String())
			}
		})
	}
}
