package tweet

import (
	"errors"

	"github.com/chirp-social/core/internal/models"
)

type CreateTweetDTO struct {
	Type     models.TweetType     `json:"type"`
	Audience models.TweetAudience `json:"audience"`
	Content  string               `json:"content"`
	ParentID *string              `json:"parent_id"`
}

var (
	errTweetNotFound      = errors.New("tweet not found")
	errParentRequired     = errors.New("parent_id is required for this tweet type")
	errParentNotAllowed   = errors.New("parent_id must be empty for a root tweet")
	errContentRequired    = errors.New("content is required")
	errContentNotAllowed  = errors.New("content must be empty for a retweet")
	errAudienceRestricted = errors.New("tweet is not available to you")
)
