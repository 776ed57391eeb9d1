package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewhub/internal/api/models"
	"reviewhub/internal/api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) ExchangeCode(ctx context.Context, username, code string) (string, error) {
	args := m.Called(ctx, username, code)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func setupAuthRouter(authService service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAuthHandler(authService).RegisterRoutes(r.Group("/api/v1/auth"))
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupEndpoint_Success(t *testing.T) {
	authService := new(MockAuthService)
	r := setupAuthRouter(authService)

	authService.On("Signup", mock.Anything, "alice", "alice@example.com").
		Return(&models.User{Username: "alice", Email: "alice@example.com"}, nil)

	w := postJSON(r, "/api/v1/auth/signup", gin.H{"username": "alice", "email": "alice@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["username"])
	assert.Equal(t, "alice@example.com", resp["email"])
}

func TestSignupEndpoint_ReservedUsername(t *testing.T) {
	authService := new(MockAuthService)
	r := setupAuthRouter(authService)

	authService.On("Signup", mock.Anything, "me", "me@example.com").
		Return(nil, service.ErrReservedUsername)

	w := postJSON(r, "/api/v1/auth/signup", gin.H{"username": "me", "email": "me@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupEndpoint_EmailMismatch(t *testing.T) {
	authService := new(MockAuthService)
	r := setupAuthRouter(authService)

	authService.On("Signup", mock.Anything, "alice", "other@example.com").
		Return(nil, service.ErrEmailMismatch)

	w := postJSON(r, "/api/v1/auth/signup", gin.H{"username": "alice", "email": "other@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupEndpoint_InvalidEmail(t *testing.T) {
	authService := new(MockAuthService)
	r := setupAuthRouter(authService)

	w := postJSON(r, "/api/v1/auth/signup", gin.H{"username": "alice", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	authService.AssertNotCalled(t, "Signup")
}

func TestSignupEndpoint_DeliveryFailure(t *testing.T) {
	authService := new(MockAuthService)
	r := setupAuthRouter(authService)

	authService.On("Signup", mock.Anything, "alice", "alice@example.com").
		Return(nil, service.ErrDeliveryFailed)

	w := postJSON(r, "/api/v1/auth/signup", gin.H{"username": "alice", "email": "alice@example.com"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTokenEndpoint_Success(t *testing.T) {
	authService := new(MockAuthService)
	r := setupAuthRouter(authService)

	authService.On("ExchangeCode", mock.Anything, "alice", "code-123").
		Return("signed.jwt.token", nil)

	w := postJSON(r, "/api/v1/auth/token", gin.H{"username": "alice", "confirmation_code": "code-123"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "signed.jwt.token", resp["token"])
}

func TestTokenEndpoint_UnknownUser(t *testing.T) {
	authService := new(MockAuthService)
	r := setupAuthRouter(authService)

	authService.On("ExchangeCode", mock.Anything, "ghost", "code-123").
		Return("", service.ErrUserNotFound)

	w := postJSON(r, "/api/v1/auth/token", gin.H{"username": "ghost", "confirmation_code": "code-123"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenEndpoint_BadCode(t *testing.T) {
	authService := new(MockAuthService)
	r := setupAuthRouter(authService)

	authService.On("ExchangeCode", mock.Anything, "alice", "wrong").
		Return("", service.ErrInvalidCode)

	w := postJSON(r, "/api/v1/auth/token", gin.H{"username": "alice", "confirmation_code": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
