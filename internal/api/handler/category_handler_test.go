package handler

import (
	"context"
	"net/http"
	"testing"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/permissions"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCategoryService mocks the CategoryService interface
type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) Create(ctx context.Context, d dto.CreateCategoryDTO) (*dto.CategoryResponse, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CategoryResponse), args.Error(1)
}

func (m *MockCategoryService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error) {
	args := m.Called(ctx, search, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedCategoryResponse), args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func setupCategoryRouter(categoryService service.CategoryService, actor *permissions.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	authOptional := func(c *gin.Context) {
		if actor != nil {
			c.Set("actor", *actor)
		} else {
			c.Set("actor", permissions.Anonymous())
		}
		c.Next()
	}
	NewCategoryHandler(categoryService).RegisterRoutes(r.Group("/api/v1"), authOptional)
	return r
}

func TestCategoryList_Anonymous(t *testing.T) {
	categoryService := new(MockCategoryService)
	r := setupCategoryRouter(categoryService, nil)

	categoryService.On("List", mock.Anything, "", 1, 20).
		Return(dto.NewPaginatedCategoryResponse([]dto.CategoryResponse{}, 0, 1, 20), nil)

	w := doJSON(r, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCategoryCreate_AnonymousRejected(t *testing.T) {
	categoryService := new(MockCategoryService)
	r := setupCategoryRouter(categoryService, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/categories", gin.H{"name": "Movies", "slug": "movies"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	categoryService.AssertNotCalled(t, "Create")
}

func TestCategoryCreate_ModeratorForbidden(t *testing.T) {
	// catalog writes are the admin's, moderation only covers user content
	categoryService := new(MockCategoryService)
	actor := permissions.Actor{ID: "mod-1", Username: "mod", Role: permissions.RoleModerator, Authenticated: true}
	r := setupCategoryRouter(categoryService, &actor)

	w := doJSON(r, http.MethodPost, "/api/v1/categories", gin.H{"name": "Movies", "slug": "movies"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCategoryCreate_Admin(t *testing.T) {
	categoryService := new(MockCategoryService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupCategoryRouter(categoryService, &actor)

	categoryService.On("Create", mock.Anything, dto.CreateCategoryDTO{Name: "Movies", Slug: "movies"}).
		Return(&dto.CategoryResponse{Name: "Movies", Slug: "movies"}, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/categories", gin.H{"name": "Movies", "slug": "movies"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCategoryCreate_DuplicateSlug(t *testing.T) {
	categoryService := new(MockCategoryService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupCategoryRouter(categoryService, &actor)

	categoryService.On("Create", mock.Anything, mock.AnythingOfType("dto.CreateCategoryDTO")).
		Return(nil, repository.ErrDuplicateSlug)

	w := doJSON(r, http.MethodPost, "/api/v1/categories", gin.H{"name": "Movies", "slug": "movies"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryDelete_NotFound(t *testing.T) {
	categoryService := new(MockCategoryService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupCategoryRouter(categoryService, &actor)

	categoryService.On("Delete", mock.Anything, "ghost").Return(service.ErrCategoryNotFound)

	w := doJSON(r, http.MethodDelete, "/api/v1/categories/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
