package service

import (
	"context"
	"errors"
	"math"
	"time"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/models"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/cache"

	"gorm.io/gorm"
)

var (
	ErrTitleNotFound = errors.New("title not found")
	ErrFutureYear    = errors.New("year must not be in the future")
)

type TitleService interface {
	Create(ctx context.Context, d dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error)
	Update(ctx context.Context, id int64, d dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
	// Rating is the mean review score rounded to one decimal,
	// nil while the title has no reviews.
	Rating(ctx context.Context, titleID int64) (*float64, error)
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	ratings      cache.RatingCache
}

func NewTitleService(
	titleRepo repository.TitleRepository,
	categoryRepo repository.CategoryRepository,
	genreRepo repository.GenreRepository,
	ratings cache.RatingCache,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		ratings:      ratings,
	}
}

func (s *titleService) Create(ctx context.Context, d dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	// checked against the clock at write time, not cached
	if d.Year > time.Now().Year() {
		return nil, ErrFutureYear
	}

	title := models.Title{
		Name:        d.Name,
		Year:        d.Year,
		Description: d.Description,
	}

	if d.Category != nil {
		category, err := s.categoryRepo.FindBySlug(ctx, *d.Category)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		title.CategoryID = &category.ID
	}

	genres, err := s.resolveGenres(ctx, d.Genre)
	if err != nil {
		return nil, err
	}
	title.Genres = genres

	if err := s.titleRepo.Create(ctx, &title); err != nil {
		return nil, err
	}
	return s.Get(ctx, title.ID)
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	rating, err := s.Rating(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(title, rating), nil
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error) {
	titles, total, err := s.titleRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TitleResponse, 0, len(titles))
	for i := range titles {
		rating, err := s.Rating(ctx, titles[i].ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *dto.FromModelToTitleResponse(&titles[i], rating))
	}
	return dto.NewPaginatedTitleResponse(responses, int(total), page, pageSize), nil
}

func (s *titleService) Update(ctx context.Context, id int64, d dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	if d.Year != nil && *d.Year > time.Now().Year() {
		return nil, ErrFutureYear
	}

	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	if d.Name != nil {
		title.Name = *d.Name
	}
	if d.Year != nil {
		title.Year = *d.Year
	}
	// empty string clears the optional fields; absent leaves them alone
	if d.Description != nil {
		if *d.Description == "" {
			title.Description = nil
		} else {
			title.Description = d.Description
		}
	}
	if d.Category != nil {
		if *d.Category == "" {
			title.CategoryID = nil
			title.Category = nil
		} else {
			category, err := s.categoryRepo.FindBySlug(ctx, *d.Category)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrCategoryNotFound
				}
				return nil, err
			}
			title.CategoryID = &category.ID
			title.Category = category
		}
	}

	if d.Genre != nil {
		genres, err := s.resolveGenres(ctx, *d.Genre)
		if err != nil {
			return nil, err
		}
		if err := s.titleRepo.ReplaceGenres(ctx, title, genres); err != nil {
			return nil, err
		}
	}

	// avoid re-saving associations Save would upsert
	title.Genres = nil
	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the title together with its reviews and their comments.
func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	s.ratings.Invalidate(ctx, id)
	return nil
}

func (s *titleService) Rating(ctx context.Context, titleID int64) (*float64, error) {
	if rating, ok := s.ratings.Get(ctx, titleID); ok {
		return rating, nil
	}

	avg, err := s.titleRepo.AverageScore(ctx, titleID)
	if err != nil {
		return nil, err
	}
	if avg != nil {
		rounded := math.Round(*avg*10) / 10
		avg = &rounded
	}
	s.ratings.Set(ctx, titleID, avg)
	return avg, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	genres, err := s.genreRepo.FindBySlugs(ctx, slugs)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGenreNotFound
		}
		return nil, err
	}
	return genres, nil
}
