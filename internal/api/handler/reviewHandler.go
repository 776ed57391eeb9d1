package handler

import (
	"errors"
	"net/http"
	"strconv"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/middleware"
	"reviewhub/internal/api/permissions"
	"reviewhub/internal/api/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// RegisterRoutes registers review routes nested under a title. Reads are
// open to anyone, anonymous included; writes run the object-level
// author-or-staff check after loading the resource.
func (h *ReviewHandler) RegisterRoutes(titles *gin.RouterGroup) {
	reviews := titles.Group("/:title_id/reviews")

	reviews.GET("", h.List)
	reviews.GET("/:review_id", h.Get)

	reviews.POST("", h.Create)
	reviews.PATCH("/:review_id", h.Update)
	reviews.DELETE("/:review_id", h.Delete)
}

// List retrieves the reviews of a title
// GET /api/v1/titles/:title_id/reviews?page=1&page_size=20
func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := titleIDParam(c)
	if !ok {
		return
	}
	page, pageSize := paginationParams(c)

	reviews, err := h.reviewService.List(c.Request.Context(), titleID, page, pageSize)
	if err != nil {
		respondReviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// Get retrieves a single review
// GET /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}

	review, err := h.reviewService.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		respondReviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToReviewResponse(review))
}

// Create submits the caller's review of a title; one review per user
// per title
// POST /api/v1/titles/:title_id/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := titleIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	if !middleware.RespondDecision(c, permissions.ContentCreate(actor)) {
		return
	}

	var req dto.CreateReviewDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), titleID, actor.ID, req)
	if err != nil {
		respondReviewError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// Update edits a review; author, moderator or admin only
// PATCH /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}

	review, err := h.reviewService.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	if !middleware.RespondDecision(c, permissions.ContentWrite(actor, review.AuthorID)) {
		return
	}

	var req dto.UpdateReviewDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.reviewService.Update(c.Request.Context(), review, req)
	if err != nil {
		respondReviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes a review and its comments; author, moderator or admin only
// DELETE /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}

	review, err := h.reviewService.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	if !middleware.RespondDecision(c, permissions.ContentWrite(actor, review.AuthorID)) {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), review); err != nil {
		respondReviewError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func reviewParams(c *gin.Context) (titleID, reviewID int64, ok bool) {
	titleID, ok = titleIDParam(c)
	if !ok {
		return 0, 0, false
	}
	reviewID, err := strconv.ParseInt(c.Param("review_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid review ID"})
		return 0, 0, false
	}
	return titleID, reviewID, true
}

func respondReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTitleNotFound), errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateReview), errors.Is(err, service.ErrInvalidScore):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
