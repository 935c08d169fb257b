package user

import (
	"context"
	"errors"
	"time"

	"github.com/chirp-social/core/internal/middleware"
	"github.com/chirp-social/core/internal/models"
	jwtpkg "github.com/chirp-social/core/internal/pkg/jwt"
	"github.com/chirp-social/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UpdateMeDTO struct {
	Name        *string    `json:"name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Bio         *string    `json:"bio"`
	Location    *string    `json:"location"`
	Website     *string    `json:"website"`
	Username    *string    `json:"username"`
	Avatar      *string    `json:"avatar"`
	CoverPhoto  *string    `json:"cover_photo"`
}

type FollowDTO struct {
	FollowedUserID string `json:"followed_user_id" binding:"required"`
}

type meResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Username    string              `json:"username"`
	DateOfBirth *time.Time          `json:"date_of_birth"`
	Verify      jwtpkg.VerifyStatus `json:"verify"`
	Bio         string              `json:"bio"`
	Location    string              `json:"location"`
	Website     string              `json:"website"`
	Avatar      string              `json:"avatar"`
	CoverPhoto  string              `json:"cover_photo"`
	CreatedAt   time.Time           `json:"created"`
}

type profileResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	Website        string    `json:"website"`
	Avatar         string    `json:"avatar"`
	CoverPhoto     string    `json:"cover_photo"`
	CreatedAt      time.Time `json:"created"`
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
}

var (
	errUserNotFound     = errors.New("user not found")
	errUsernameTaken    = errors.New("username already in use")
	errCannotFollowSelf = errors.New("cannot follow yourself")
)

func toMeResponse(u *models.UserModel) *meResponse {
	return &meResponse{
		ID: u.ID, Name: u.Name, Email: u.Email, Username: u.Username,
		DateOfBirth: u.DateOfBirth, Verify: u.Verify,
		Bio: u.Bio, Location: u.Location, Website: u.Website,
		Avatar: u.Avatar, CoverPhoto: u.CoverPhoto, CreatedAt: u.CreatedAt,
	}
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) GetByID(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) GetProfile(ctx context.Context, username string) (*profileResponse, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).
		Where("username = ?", username).
		First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}

	var followers, following int64
	if err := s.db.WithContext(ctx).Model(&models.FollowerModel{}).
		Where("followed_user_id = ?", u.ID).Count(&followers).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.FollowerModel{}).
		Where("user_id = ?", u.ID).Count(&following).Error; err != nil {
		return nil, err
	}

	return &profileResponse{
		ID: u.ID, Name: u.Name, Username: u.Username,
		Bio: u.Bio, Location: u.Location, Website: u.Website,
		Avatar: u.Avatar, CoverPhoto: u.CoverPhoto, CreatedAt: u.CreatedAt,
		FollowerCount: followers, FollowingCount: following,
	}, nil
}

func (s *Service) UpdateMe(ctx context.Context, id string, dto *UpdateMeDTO) (*models.UserModel, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
		u.Name = *dto.Name
	}
	if dto.DateOfBirth != nil {
		updates["date_of_birth"] = *dto.DateOfBirth
		u.DateOfBirth = dto.DateOfBirth
	}
	if dto.Bio != nil {
		updates["bio"] = *dto.Bio
		u.Bio = *dto.Bio
	}
	if dto.Location != nil {
		updates["location"] = *dto.Location
		u.Location = *dto.Location
	}
	if dto.Website != nil {
		updates["website"] = *dto.Website
		u.Website = *dto.Website
	}
	if dto.Username != nil && *dto.Username != u.Username {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.UserModel{}).
			Where("username = ? AND id <> ?", *dto.Username, id).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errUsernameTaken
		}
		updates["username"] = *dto.Username
		u.Username = *dto.Username
	}
	if dto.Avatar != nil {
		updates["avatar"] = *dto.Avatar
		u.Avatar = *dto.Avatar
	}
	if dto.CoverPhoto != nil {
		updates["cover_photo"] = *dto.CoverPhoto
		u.CoverPhoto = *dto.CoverPhoto
	}
	if len(updates) == 0 {
		return u, nil
	}
	return u, s.db.WithContext(ctx).Model(u).Updates(updates).Error
}

// Follow is idempotent: following an already-followed account reports
// success without writing a second edge.
func (s *Service) Follow(ctx context.Context, userID, followedID string) (bool, error) {
	if userID == followedID {
		return false, errCannotFollowSelf
	}
	if _, err := s.GetByID(ctx, followedID); err != nil {
		return false, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.FollowerModel{}).
		Where("user_id = ? AND followed_user_id = ?", userID, followedID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	edge := models.FollowerModel{UserID: userID, FollowedUserID: followedID}
	return true, s.db.WithContext(ctx).Create(&edge).Error
}

func (s *Service) Unfollow(ctx context.Context, userID, followedID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND followed_user_id = ?", userID, followedID).
		Delete(&models.FollowerModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/users")

	g.GET("/me", authMW, h.me)
	g.PATCH("/me", authMW, middleware.VerifiedOnly(), h.updateMe)
	g.POST("/follow", authMW, middleware.VerifiedOnly(), h.follow)
	g.DELETE("/follow/:user_id", authMW, middleware.VerifiedOnly(), h.unfollow)
	g.GET("/:username", h.profile)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.GetByID(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFoundMsg(c, errUserNotFound.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, toMeResponse(u))
}

func (h *Handler) updateMe(c *gin.Context) {
	var dto UpdateMeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	u, err := h.svc.UpdateMe(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, errUserNotFound.Error())
		case errors.Is(err, errUsernameTaken):
			response.Conflict(c, errUsernameTaken.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, toMeResponse(u))
}

func (h *Handler) profile(c *gin.Context) {
	p, err := h.svc.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFoundMsg(c, errUserNotFound.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) follow(c *gin.Context) {
	var dto FollowDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	created, err := h.svc.Follow(c.Request.Context(), middleware.CurrentUserID(c), dto.FollowedUserID)
	if err != nil {
		switch {
		case errors.Is(err, errCannotFollowSelf):
			response.BadRequest(c, errCannotFollowSelf.Error())
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, errUserNotFound.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	if !created {
		response.OK(c, gin.H{"message": "already followed"})
		return
	}
	response.OK(c, gin.H{"message": "follow success"})
}

func (h *Handler) unfollow(c *gin.Context) {
	removed, err := h.svc.Unfollow(c.Request.Context(), middleware.CurrentUserID(c), c.Param("user_id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !removed {
		response.OK(c, gin.H{"message": "already unfollowed"})
		return
	}
	response.OK(c, gin.H{"message": "unfollow success"})
}
