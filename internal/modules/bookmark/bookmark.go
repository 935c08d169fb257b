package bookmark

import (
	"context"
	"errors"

	"github.com/chirp-social/core/internal/middleware"
	"github.com/chirp-social/core/internal/models"
	"github.com/chirp-social/core/internal/pkg/pagination"
	"github.com/chirp-social/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BookmarkDTO struct {
	TweetID string `json:"tweet_id" binding:"required"`
}

var errTweetNotFound = errors.New("tweet not found")

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Add is idempotent: bookmarking the same tweet twice keeps a single row.
func (s *Service) Add(ctx context.Context, userID, tweetID string) (*models.BookmarkModel, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TweetModel{}).
		Where("id = ?", tweetID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errTweetNotFound
	}

	var existing models.BookmarkModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	b := models.BookmarkModel{UserID: userID, TweetID: tweetID}
	return &b, s.db.WithContext(ctx).Create(&b).Error
}

func (s *Service) Remove(ctx context.Context, userID, tweetID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		Delete(&models.BookmarkModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Service) List(ctx context.Context, userID string, q pagination.Query) ([]models.BookmarkModel, response.Pagination, error) {
	query := s.db.WithContext(ctx).Model(&models.BookmarkModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	var bookmarks []models.BookmarkModel
	meta, err := pagination.Paginate(query, q, &bookmarks)
	return bookmarks, meta, err
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/bookmarks", authMW, middleware.VerifiedOnly())

	g.POST("", h.add)
	g.GET("", h.list)
	g.DELETE("/tweets/:tweet_id", h.remove)
}

func (h *Handler) add(c *gin.Context) {
	var dto BookmarkDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	b, err := h.svc.Add(c.Request.Context(), middleware.CurrentUserID(c), dto.TweetID)
	if err != nil {
		if errors.Is(err, errTweetNotFound) {
			response.NotFoundMsg(c, errTweetNotFound.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, b)
}

func (h *Handler) list(c *gin.Context) {
	bookmarks, meta, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, bookmarks, meta)
}

func (h *Handler) remove(c *gin.Context) {
	removed, err := h.svc.Remove(c.Request.Context(), middleware.CurrentUserID(c), c.Param("tweet_id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !removed {
		response.OK(c, gin.H{"message": "bookmark already removed"})
		return
	}
	response.OK(c, gin.H{"message": "unbookmark success"})
}
