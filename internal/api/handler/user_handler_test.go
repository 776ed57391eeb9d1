package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/models"
	"reviewhub/internal/api/permissions"
	"reviewhub/internal/api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserService mocks the UserService interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, d dto.CreateUserDTO) (*models.User, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedUserResponse, error) {
	args := m.Called(ctx, search, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedUserResponse), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, username string, d dto.UpdateUserDTO) (*models.User, error) {
	args := m.Called(ctx, username, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateSelf(ctx context.Context, userID string, d dto.UpdateSelfDTO) (*models.User, error) {
	args := m.Called(ctx, userID, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func setupUserRouter(userService service.UserService, actor *permissions.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	authRequired := func(c *gin.Context) {
		if actor == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}
		c.Set("actor", *actor)
		c.Next()
	}
	NewUserHandler(userService).RegisterRoutes(r.Group("/api/v1"), authRequired)
	return r
}

func TestGetMe(t *testing.T) {
	userService := new(MockUserService)
	actor := permissions.Actor{ID: "user-1", Username: "alice", Role: permissions.RoleUser, Authenticated: true}
	r := setupUserRouter(userService, &actor)

	userService.On("GetByID", mock.Anything, "user-1").
		Return(&models.User{ID: "user-1", Username: "alice", Email: "alice@example.com", Role: "user"}, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/users/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["username"])
	assert.Equal(t, "user", resp["role"])
}

func TestUpdateMe_RoleKeyIgnored(t *testing.T) {
	userService := new(MockUserService)
	actor := permissions.Actor{ID: "user-1", Username: "alice", Role: permissions.RoleUser, Authenticated: true}
	r := setupUserRouter(userService, &actor)

	first := "Alice"
	userService.On("UpdateSelf", mock.Anything, "user-1", dto.UpdateSelfDTO{FirstName: &first}).
		Return(&models.User{ID: "user-1", Username: "alice", FirstName: "Alice", Role: "user"}, nil)

	// the role key has no binding target and is silently dropped
	w := doJSON(r, http.MethodPatch, "/api/v1/users/me", gin.H{"first_name": "Alice", "role": "admin"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user", resp["role"])
	userService.AssertExpectations(t)
}

func TestUserList_PlainUserForbidden(t *testing.T) {
	userService := new(MockUserService)
	actor := permissions.Actor{ID: "user-1", Username: "alice", Role: permissions.RoleUser, Authenticated: true}
	r := setupUserRouter(userService, &actor)

	w := doJSON(r, http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	userService.AssertNotCalled(t, "List")
}

func TestUserList_ModeratorForbidden(t *testing.T) {
	// moderation covers content, not accounts
	userService := new(MockUserService)
	actor := permissions.Actor{ID: "mod-1", Username: "mod", Role: permissions.RoleModerator, Authenticated: true}
	r := setupUserRouter(userService, &actor)

	w := doJSON(r, http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserList_Admin(t *testing.T) {
	userService := new(MockUserService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupUserRouter(userService, &actor)

	userService.On("List", mock.Anything, "", 1, 20).
		Return(dto.NewPaginatedUserResponse([]dto.UserResponse{}, 0, 1, 20), nil)

	w := doJSON(r, http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserRoutes_Anonymous(t *testing.T) {
	userService := new(MockUserService)
	r := setupUserRouter(userService, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserUpdate_AdminChangesRole(t *testing.T) {
	userService := new(MockUserService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupUserRouter(userService, &actor)

	role := "moderator"
	userService.On("Update", mock.Anything, "carol", dto.UpdateUserDTO{Role: &role}).
		Return(&models.User{ID: "user-2", Username: "carol", Role: "moderator"}, nil)

	w := doJSON(r, http.MethodPatch, "/api/v1/users/carol", gin.H{"role": "moderator"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "moderator", resp["role"])
}

func TestUserDelete_Admin(t *testing.T) {
	userService := new(MockUserService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupUserRouter(userService, &actor)

	userService.On("Delete", mock.Anything, "carol").Return(nil)

	w := doJSON(r, http.MethodDelete, "/api/v1/users/carol", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUserGet_NotFound(t *testing.T) {
	userService := new(MockUserService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupUserRouter(userService, &actor)

	userService.On("GetByUsername", mock.Anything, "ghost").
		Return(nil, service.ErrUserNotFound)

	w := doJSON(r, http.MethodGet, "/api/v1/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
