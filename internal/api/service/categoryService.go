package service

import (
	"context"
	"errors"
	"regexp"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/repository"

	"gorm.io/gorm"
)

var (
	ErrInvalidSlug      = errors.New("slug may only contain letters, digits, hyphens and underscores")
	ErrCategoryNotFound = errors.New("category not found")
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type CategoryService interface {
	Create(ctx context.Context, d dto.CreateCategoryDTO) (*dto.CategoryResponse, error)
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) Create(ctx context.Context, d dto.CreateCategoryDTO) (*dto.CategoryResponse, error) {
	if !slugPattern.MatchString(d.Slug) {
		return nil, ErrInvalidSlug
	}

	category := d.ToModel()
	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		return nil, err
	}
	return dto.FromModelToCategoryResponse(&category), nil
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error) {
	categories, total, err := s.categoryRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		responses = append(responses, *dto.FromModelToCategoryResponse(&categories[i]))
	}
	return dto.NewPaginatedCategoryResponse(responses, int(total), page, pageSize), nil
}

// Delete removes the category. Titles referencing it keep existing with
// a null category.
func (s *categoryService) Delete(ctx context.Context, slug string) error {
	if err := s.categoryRepo.Delete(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}
