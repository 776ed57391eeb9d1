package service

import (
	"context"
	"errors"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/models"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/cache"

	"gorm.io/gorm"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = repository.ErrDuplicateReview
	ErrInvalidScore    = errors.New("score must be between 1 and 10")
)

const (
	minScore = 1
	maxScore = 10
)

type ReviewService interface {
	Create(ctx context.Context, titleID int64, authorID string, d dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	List(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error)
	Update(ctx context.Context, review *models.Review, d dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, review *models.Review) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  repository.TitleRepository
	ratings    cache.RatingCache
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	titleRepo repository.TitleRepository,
	ratings cache.RatingCache,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
		ratings:    ratings,
	}
}

// Create inserts a review for (title, author). The storage-layer unique
// constraint arbitrates concurrent submissions: exactly one wins, the
// rest get ErrDuplicateReview. An existing review is never overwritten.
func (s *reviewService) Create(ctx context.Context, titleID int64, authorID string, d dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	if d.Score < minScore || d.Score > maxScore {
		return nil, ErrInvalidScore
	}

	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: &authorID,
		Text:     d.Text,
		Score:    d.Score,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	s.ratings.Invalidate(ctx, titleID)

	// reload to pick up the author association
	created, err := s.reviewRepo.GetByID(ctx, titleID, review.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(created), nil
}

// Get returns the review model so callers can run the object-level
// permission check against its author before mutating it.
func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) List(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error) {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	reviews, total, err := s.reviewRepo.ListByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, *dto.FromModelToReviewResponse(&reviews[i]))
	}
	return dto.NewPaginatedReviewResponse(responses, int(total), page, pageSize), nil
}

// Update edits a review's text or score. Author and title bindings are
// immutable after creation.
func (s *reviewService) Update(ctx context.Context, review *models.Review, d dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	if d.Score != nil && (*d.Score < minScore || *d.Score > maxScore) {
		return nil, ErrInvalidScore
	}

	if d.Text != nil {
		review.Text = *d.Text
	}
	if d.Score != nil {
		review.Score = *d.Score
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	s.ratings.Invalidate(ctx, review.TitleID)
	return dto.FromModelToReviewResponse(review), nil
}

// Delete removes the review and its comments via cascade.
func (s *reviewService) Delete(ctx context.Context, review *models.Review) error {
	if err := s.reviewRepo.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	s.ratings.Invalidate(ctx, review.TitleID)
	return nil
}
