package tweet

import (
	"testing"

	"github.com/chirp-social/core/internal/models"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestValidateCreate(t *testing.T) {
	cases := []struct {
		name string
		dto  CreateTweetDTO
		want error
	}{
		{"root tweet ok", CreateTweetDTO{Type: models.TweetTypeTweet, Content: "hello"}, nil},
		{"root tweet with parent", CreateTweetDTO{Type: models.TweetTypeTweet, Content: "hello", ParentID: strPtr("p1")}, errParentNotAllowed},
		{"root tweet without content", CreateTweetDTO{Type: models.TweetTypeTweet, Content: "  "}, errContentRequired},
		{"retweet ok", CreateTweetDTO{Type: models.TweetTypeRetweet, ParentID: strPtr("p1")}, nil},
		{"retweet without parent", CreateTweetDTO{Type: models.TweetTypeRetweet}, errParentRequired},
		{"retweet with content", CreateTweetDTO{Type: models.TweetTypeRetweet, ParentID: strPtr("p1"), Content: "no"}, errContentNotAllowed},
		{"comment ok", CreateTweetDTO{Type: models.TweetTypeComment, ParentID: strPtr("p1"), Content: "nice"}, nil},
		{"comment without parent", CreateTweetDTO{Type: models.TweetTypeComment, Content: "nice"}, errParentRequired},
		{"quote without content", CreateTweetDTO{Type: models.TweetTypeQuote, ParentID: strPtr("p1")}, errContentRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateCreate(&tc.dto)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
