package tweet

import (
	"errors"
	"strconv"

	"github.com/chirp-social/core/internal/middleware"
	"github.com/chirp-social/core/internal/models"
	"github.com/chirp-social/core/internal/pkg/pagination"
	"github.com/chirp-social/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/tweets")

	g.POST("", authMW, middleware.VerifiedOnly(), h.create)
	g.GET("", authMW, middleware.VerifiedOnly(), h.feed)
	g.GET("/:tweet_id", middleware.OptionalAccessToken(), h.get)
	g.GET("/:tweet_id/children", middleware.OptionalAccessToken(), h.children)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateTweetDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	t, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errTweetNotFound):
			response.NotFoundMsg(c, errTweetNotFound.Error())
		case errors.Is(err, errParentRequired),
			errors.Is(err, errParentNotAllowed),
			errors.Is(err, errContentRequired),
			errors.Is(err, errContentNotAllowed):
			response.UnprocessableEntity(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, t)
}

func (h *Handler) get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("tweet_id"))
	if err != nil {
		h.listError(c, err)
		return
	}
	response.OK(c, t)
}

func (h *Handler) children(c *gin.Context) {
	tweetType := models.TweetTypeComment
	if raw := c.Query("tweet_type"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "invalid tweet_type")
			return
		}
		tweetType = models.TweetType(v)
	}

	children, meta, err := h.svc.Children(
		c.Request.Context(),
		middleware.CurrentUserID(c),
		c.Param("tweet_id"),
		tweetType,
		pagination.FromContext(c),
	)
	if err != nil {
		h.listError(c, err)
		return
	}
	response.Paged(c, children, meta)
}

func (h *Handler) feed(c *gin.Context) {
	tweets, meta, err := h.svc.Feed(c.Request.Context(), middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, tweets, meta)
}

func (h *Handler) listError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errTweetNotFound):
		response.NotFoundMsg(c, errTweetNotFound.Error())
	case errors.Is(err, errAudienceRestricted):
		response.ForbiddenMsg(c, errAudienceRestricted.Error())
	default:
		response.InternalError(c, err)
	}
}
