package models

// TweetType discriminates a root tweet from its derivatives.
type TweetType int

const (
	TweetTypeTweet TweetType = iota
	TweetTypeRetweet
	TweetTypeComment
	TweetTypeQuote
)

// TweetAudience controls who may see a tweet.
type TweetAudience int

const (
	AudienceEveryone TweetAudience = iota
	AudienceCircle
)

type TweetModel struct {
	Base
	UserID     string        `json:"user_id"     gorm:"index;not null"`
	Type       TweetType     `json:"type"`
	Audience   TweetAudience `json:"audience"`
	Content    string        `json:"content"     gorm:"type:longtext"`
	ParentID   *string       `json:"parent_id"   gorm:"index"`
	GuestViews int64         `json:"guest_views"`
	UserViews  int64         `json:"user_views"`
}

func (TweetModel) TableName() string { return "tweets" }

type BookmarkModel struct {
	Base
	UserID  string `json:"user_id"  gorm:"index:idx_bookmark_user_tweet;not null"`
	TweetID string `json:"tweet_id" gorm:"index:idx_bookmark_user_tweet;not null"`
}

func (BookmarkModel) TableName() string { return "bookmarks" }

type FollowerModel struct {
	Base
	UserID         string `json:"user_id"          gorm:"index:idx_follower_pair;not null"`
	FollowedUserID string `json:"followed_user_id" gorm:"index:idx_follower_pair;not null"`
}

func (FollowerModel) TableName() string { return "followers" }
