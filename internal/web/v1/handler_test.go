package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/callerid-service/internal/core/repository/memory"
	logicv1 "github.com/duynhne/callerid-service/internal/logic/v1"
	"github.com/duynhne/callerid-service/middleware"
)

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T, limits Limiters) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	tokens := middleware.NewTokenManager("handler-test-secret-0123456789abcdef", 15*time.Minute, time.Hour)
	handlers := Handlers{
		Auth:     NewAuthHandler(logicv1.NewAuthService(store, tokens)),
		Search:   NewSearchHandler(logicv1.NewSearchService(store, store, store)),
		Spam:     NewSpamReportHandler(logicv1.NewSpamService(store, nil, nil)),
		Contacts: NewContactHandler(logicv1.NewContactService(store, store)),
	}

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), handlers, middleware.AuthMiddleware(tokens, nil), limits)
	return &testServer{router: r, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in, returning an access token
func (s *testServer) signup(t *testing.T, username, name, phone string, extra map[string]any) string {
	t.Helper()
	body := map[string]any{
		"username":     username,
		"password":     "Secret123",
		"phone_number": phone,
		"name":         name,
	}
	for k, v := range extra {
		body[k] = v
	}
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": "Secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	return pair["access_token"]
}

func TestRegisterEndpoint(t *testing.T) {
	s := newTestServer(t, Limiters{})

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice", "password": "Secret123", "phone_number": "+1234567890", "name": "Alice",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"User registered successfully","username":"alice"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice", "password": "Secret123", "phone_number": "+1234567890", "name": "Other",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{
		"username": ["This username is already taken"],
		"phone_number": ["This phone number is already registered"]
	}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "bob", "password": "weak", "phone_number": "555", "name": "Bob",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var fields map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fields))
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "phone_number")

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndRefreshEndpoints(t *testing.T) {
	s := newTestServer(t, Limiters{})
	s.signup(t, "alice", "Alice", "+1234567890", nil)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "Secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var pair map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(t, pair["refresh_token"])

	w = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": pair["refresh_token"]})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.store.SetAccountActive("alice", false)
	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "Secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"User account disabled"}`, w.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, Limiters{})
	for _, path := range []string{"/api/v1/search?q=x", "/api/v1/spam-reports", "/api/v1/contacts"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t, Limiters{})
	owner := s.signup(t, "owner", "John Owner", "+1000000001", map[string]any{"email": "owner@example.com"})
	friend := s.signup(t, "friend", "Friend", "+1000000002", nil)

	w := s.do(t, http.MethodPost, "/api/v1/contacts", owner, map[string]string{"name": "Johnny Caller", "phone_number": "+1555000000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/v1/contacts", owner, map[string]string{"name": "Buddy", "phone_number": "+1000000002"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/search?q=john&type=name", friend, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"name":"John Owner","phone_number":"+1000000001"},
		{"name":"Johnny Caller","phone_number":"+1555000000"}
	]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/search?q=%2B1000000001&type=phone", friend, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{
		"name":"John Owner","phone_number":"+1000000001","spam_likelihood":"Low",
		"is_registered":true,"email":"owner@example.com"
	}]`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/spam-reports", friend, map[string]string{"phone_number": "+1555000000"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/search?q=%2B1555000000&type=phone", friend, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{
		"name":"Johnny Caller","phone_number":"+1555000000","spam_likelihood":"Medium",
		"is_registered":false,"contact_count":1,"email":null
	}]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/search?q=%2B1999999999&type=phone", friend, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"No results found","results":[]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/search?q=zzz", friend, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/search?q=", friend, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Search query is required"}`, w.Body.String())
}

func TestSpamReportEndpoints(t *testing.T) {
	s := newTestServer(t, Limiters{})
	token := s.signup(t, "reporter", "Reporter", "+1000000001", nil)

	w := s.do(t, http.MethodPost, "/api/v1/spam-reports", token, map[string]string{"phone_number": "+1555000000"})
	require.Equal(t, http.StatusCreated, w.Code)
	var report map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "reporter", report["reporter_username"])
	assert.Equal(t, "+1555000000", report["phone_number"])
	assert.Contains(t, report, "timestamp")
	assert.NotContains(t, report, "ReporterID")

	w = s.do(t, http.MethodPost, "/api/v1/spam-reports", token, map[string]string{"phone_number": "+1555000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"You have already reported this number"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/spam-reports", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Phone number is required"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/spam-reports", token, map[string]string{"phone_number": "+123456789012345678901"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Ensure this field has no more than 17 characters."}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/spam-reports", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	assert.Len(t, reports, 1)
}

func TestContactEndpoints(t *testing.T) {
	s := newTestServer(t, Limiters{})
	owner := s.signup(t, "owner", "Owner", "+1000000001", nil)
	other := s.signup(t, "other", "Other", "+1000000002", nil)

	w := s.do(t, http.MethodPost, "/api/v1/contacts", owner, map[string]string{"name": "Plumber", "phone_number": "+1555000000"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created ContactResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, ContactResponse{ID: created.ID, Name: "Plumber", PhoneNumber: "+1555000000", SpamLikelihood: "Low"}, created)

	path := "/api/v1/contacts/" + itoa(created.ID)

	w = s.do(t, http.MethodPost, "/api/v1/contacts", owner, map[string]string{"name": "Dup", "phone_number": "+1555000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, path, owner, map[string]string{"name": "Only name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "phone_number")

	w = s.do(t, http.MethodPatch, path, owner, map[string]string{"name": "Pipes Inc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Pipes Inc"`)

	w = s.do(t, http.MethodPut, path, owner, map[string]string{"name": "Pipes", "phone_number": "+1555000001"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phone_number":"+1555000001"`)

	w = s.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/contacts/abc", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/contacts", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []ContactResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = s.do(t, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, Limiters{Login: middleware.NewSlidingWindowLimiter("login", 2, time.Hour)})

	creds := map[string]string{"username": "ghost", "password": "whatever1"}
	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "other auth routes keep their own budget")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
