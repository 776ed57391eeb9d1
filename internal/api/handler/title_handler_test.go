package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/permissions"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTitleService mocks the TitleService interface
type MockTitleService struct {
	mock.Mock
}

func (m *MockTitleService) Create(ctx context.Context, d dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TitleResponse), args.Error(1)
}

func (m *MockTitleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TitleResponse), args.Error(1)
}

func (m *MockTitleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error) {
	args := m.Called(ctx, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedTitleResponse), args.Error(1)
}

func (m *MockTitleService) Update(ctx context.Context, id int64, d dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	args := m.Called(ctx, id, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TitleResponse), args.Error(1)
}

func (m *MockTitleService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTitleService) Rating(ctx context.Context, titleID int64) (*float64, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

func setupTitleRouter(titleService service.TitleService, actor *permissions.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	titles := r.Group("/api/v1/titles")
	if actor != nil {
		titles.Use(injectActor(*actor))
	}
	NewTitleHandler(titleService).RegisterRoutes(titles)
	return r
}

func TestTitleGet_RatingInBody(t *testing.T) {
	titleService := new(MockTitleService)
	r := setupTitleRouter(titleService, nil)

	rating := 9.0
	titleService.On("Get", mock.Anything, int64(1)).
		Return(&dto.TitleResponse{ID: 1, Name: "Example", Year: 1999, Rating: &rating}, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/titles/1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 9.0, resp["rating"])
}

func TestTitleGet_RatingNullWithoutReviews(t *testing.T) {
	titleService := new(MockTitleService)
	r := setupTitleRouter(titleService, nil)

	titleService.On("Get", mock.Anything, int64(2)).
		Return(&dto.TitleResponse{ID: 2, Name: "Unreviewed", Year: 2020}, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/titles/2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	value, present := resp["rating"]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestTitleCreate_AnonymousRejected(t *testing.T) {
	titleService := new(MockTitleService)
	r := setupTitleRouter(titleService, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/titles", gin.H{"name": "X", "year": 2000})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	titleService.AssertNotCalled(t, "Create")
}

func TestTitleCreate_PlainUserForbidden(t *testing.T) {
	titleService := new(MockTitleService)
	actor := permissions.Actor{ID: "user-1", Username: "alice", Role: permissions.RoleUser, Authenticated: true}
	r := setupTitleRouter(titleService, &actor)

	w := doJSON(r, http.MethodPost, "/api/v1/titles", gin.H{"name": "X", "year": 2000})
	assert.Equal(t, http.StatusForbidden, w.Code)
	titleService.AssertNotCalled(t, "Create")
}

func TestTitleCreate_Admin(t *testing.T) {
	titleService := new(MockTitleService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupTitleRouter(titleService, &actor)

	titleService.On("Create", mock.Anything, mock.AnythingOfType("dto.CreateTitleDTO")).
		Return(&dto.TitleResponse{ID: 3, Name: "New", Year: 2000}, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/titles", gin.H{"name": "New", "year": 2000})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTitleCreate_FutureYear(t *testing.T) {
	titleService := new(MockTitleService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupTitleRouter(titleService, &actor)

	titleService.On("Create", mock.Anything, mock.AnythingOfType("dto.CreateTitleDTO")).
		Return(nil, service.ErrFutureYear)

	w := doJSON(r, http.MethodPost, "/api/v1/titles", gin.H{"name": "Soon", "year": 3000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTitleList_Filters(t *testing.T) {
	titleService := new(MockTitleService)
	r := setupTitleRouter(titleService, nil)

	year := 1999
	titleService.On("List", mock.Anything, repository.TitleFilter{
		CategorySlug: "movies",
		GenreSlug:    "drama",
		Year:         &year,
	}, 1, 20).Return(dto.NewPaginatedTitleResponse([]dto.TitleResponse{}, 0, 1, 20), nil)

	w := doJSON(r, http.MethodGet, "/api/v1/titles?category=movies&genre=drama&year=1999", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTitleList_BadYearFilter(t *testing.T) {
	titleService := new(MockTitleService)
	r := setupTitleRouter(titleService, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/titles?year=nineteen", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	titleService.AssertNotCalled(t, "List")
}

func TestTitleDelete_Admin(t *testing.T) {
	titleService := new(MockTitleService)
	actor := permissions.Actor{ID: "admin-1", Username: "root", Role: permissions.RoleAdmin, Authenticated: true}
	r := setupTitleRouter(titleService, &actor)

	titleService.On("Delete", mock.Anything, int64(5)).Return(nil)

	w := doJSON(r, http.MethodDelete, "/api/v1/titles/5", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTitleGet_NotFound(t *testing.T) {
	titleService := new(MockTitleService)
	r := setupTitleRouter(titleService, nil)

	titleService.On("Get", mock.Anything, int64(404)).Return(nil, service.ErrTitleNotFound)

	w := doJSON(r, http.MethodGet, "/api/v1/titles/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
