package tweet

import (
	"context"
	"errors"
	"strings"

	"github.com/chirp-social/core/internal/models"
	"github.com/chirp-social/core/internal/pkg/pagination"
	"github.com/chirp-social/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func validateCreate(dto *CreateTweetDTO) error {
	content := strings.TrimSpace(dto.Content)
	switch dto.Type {
	case models.TweetTypeTweet:
		if dto.ParentID != nil {
			return errParentNotAllowed
		}
		if content == "" {
			return errContentRequired
		}
	case models.TweetTypeRetweet:
		if dto.ParentID == nil {
			return errParentRequired
		}
		if content != "" {
			return errContentNotAllowed
		}
	case models.TweetTypeComment, models.TweetTypeQuote:
		if dto.ParentID == nil {
			return errParentRequired
		}
		if content == "" {
			return errContentRequired
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID string, dto *CreateTweetDTO) (*models.TweetModel, error) {
	if err := validateCreate(dto); err != nil {
		return nil, err
	}
	if dto.ParentID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.TweetModel{}).
			Where("id = ?", *dto.ParentID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, errTweetNotFound
		}
	}

	t := models.TweetModel{
		UserID:   userID,
		Type:     dto.Type,
		Audience: dto.Audience,
		Content:  strings.TrimSpace(dto.Content),
		ParentID: dto.ParentID,
	}
	return &t, s.db.WithContext(ctx).Create(&t).Error
}

// Get returns a tweet after the audience check and bumps its view counter.
// Guests and signed-in viewers are counted separately.
func (s *Service) Get(ctx context.Context, viewerID, tweetID string) (*models.TweetModel, error) {
	t, err := s.load(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAudience(ctx, viewerID, t); err != nil {
		return nil, err
	}

	column := "guest_views"
	if viewerID != "" {
		column = "user_views"
	}
	if err := s.db.WithContext(ctx).Model(t).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// Children lists retweets, comments or quotes of a tweet, newest first.
func (s *Service) Children(ctx context.Context, viewerID, tweetID string, tweetType models.TweetType, q pagination.Query) ([]models.TweetModel, response.Pagination, error) {
	parent, err := s.load(ctx, tweetID)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	if err := s.checkAudience(ctx, viewerID, parent); err != nil {
		return nil, response.Pagination{}, err
	}

	query := s.db.WithContext(ctx).Model(&models.TweetModel{}).
		Where("parent_id = ? AND type = ?", tweetID, tweetType).
		Order("created_at DESC")

	var children []models.TweetModel
	meta, err := pagination.Paginate(query, q, &children)
	return children, meta, err
}

// Feed lists recent tweets from followed accounts plus the viewer's own.
func (s *Service) Feed(ctx context.Context, userID string, q pagination.Query) ([]models.TweetModel, response.Pagination, error) {
	followed := s.db.Model(&models.FollowerModel{}).
		Select("followed_user_id").
		Where("user_id = ?", userID)

	// Following the author is exactly what circle visibility requires, so no
	// extra audience filter is needed here.
	query := s.db.WithContext(ctx).Model(&models.TweetModel{}).
		Where("user_id = ? OR user_id IN (?)", userID, followed).
		Order("created_at DESC")

	var tweets []models.TweetModel
	meta, err := pagination.Paginate(query, q, &tweets)
	return tweets, meta, err
}

func (s *Service) load(ctx context.Context, tweetID string) (*models.TweetModel, error) {
	var t models.TweetModel
	if err := s.db.WithContext(ctx).First(&t, "id = ?", tweetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errTweetNotFound
		}
		return nil, err
	}
	return &t, nil
}

// checkAudience enforces circle visibility: a circle tweet is readable only
// by its author and the author's followers.
func (s *Service) checkAudience(ctx context.Context, viewerID string, t *models.TweetModel) error {
	if t.Audience == models.AudienceEveryone || viewerID == t.UserID {
		return nil
	}
	if viewerID == "" {
		return errAudienceRestricted
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.FollowerModel{}).
		Where("user_id = ? AND followed_user_id = ?", viewerID, t.UserID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errAudienceRestricted
	}
	return nil
}
