package auth

import (
	"errors"

	"github.com/chirp-social/core/internal/config"
	"github.com/chirp-social/core/internal/middleware"
	"github.com/chirp-social/core/internal/pkg/ledger"
	"github.com/chirp-social/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type Handler struct {
	svc   *Service
	oauth config.OAuthConfig
}

func NewHandler(svc *Service, oauth config.OAuthConfig) *Handler {
	return &Handler{svc: svc, oauth: oauth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/login", h.login)
	a.POST("/register", h.register)
	a.POST("/logout", authMW, middleware.RefreshToken(h.svc.led), h.logout)
	a.POST("/refresh-token", middleware.RefreshToken(h.svc.led), h.refreshToken)
	a.POST("/verify-email", middleware.EmailVerifyToken(h.svc.db), h.verifyEmail)
	a.POST("/resend-verify-email", authMW, h.resendVerifyEmail)
	a.POST("/forgot-password", h.forgotPassword)
	a.POST("/verify-forgot-password", middleware.ForgotPasswordToken(h.svc.db), h.verifyForgotPassword)
	a.POST("/reset-password", middleware.ForgotPasswordToken(h.svc.db), h.resetPassword)
	a.PUT("/change-password", authMW, middleware.VerifiedOnly(), h.changePassword)
	a.GET("/oauth/google", h.oauthGoogle)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, errCredentialMismatch) {
			response.ForbiddenMsg(c, errCredentialMismatch.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, pair)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	pair, err := h.svc.Register(c.Request.Context(), &dto)
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			response.Conflict(c, errEmailTaken.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, pair)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.RawRefreshToken(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "logout success"})
}

func (h *Handler) refreshToken(c *gin.Context) {
	claims := middleware.RefreshClaims(c)
	pair, err := h.svc.Refresh(c.Request.Context(), claims, middleware.RawRefreshToken(c))
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			// A concurrent refresh consumed the token first.
			response.UnauthorizedMsg(c, middleware.ErrTokenRevoked.Error())
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, errUserNotFound.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, pair)
}

func (h *Handler) verifyEmail(c *gin.Context) {
	claims := middleware.SingleUseClaims(c)
	pair, err := h.svc.VerifyEmail(c.Request.Context(), claims.UserID, middleware.SingleUseToken(c))
	if err != nil {
		switch {
		case errors.Is(err, errAlreadyVerified):
			response.OK(c, gin.H{"message": "email already verified"})
		case errors.Is(err, errTokenMismatch):
			response.UnauthorizedMsg(c, errTokenMismatch.Error())
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, errUserNotFound.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, pair)
}

func (h *Handler) resendVerifyEmail(c *gin.Context) {
	err := h.svc.ResendVerifyEmail(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, errAlreadyVerified):
			response.OK(c, gin.H{"message": "email already verified"})
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, errUserNotFound.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"message": "verification email sent"})
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var dto ForgotPasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), dto.Email); err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFoundMsg(c, errUserNotFound.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "check your email to reset password"})
}

func (h *Handler) verifyForgotPassword(c *gin.Context) {
	claims := middleware.SingleUseClaims(c)
	err := h.svc.CheckForgotPasswordToken(c.Request.Context(), claims.UserID, middleware.SingleUseToken(c))
	if err != nil {
		switch {
		case errors.Is(err, errTokenMismatch):
			response.UnauthorizedMsg(c, errTokenMismatch.Error())
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, errUserNotFound.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"message": "forgot password token is valid"})
}

func (h *Handler) resetPassword(c *gin.Context) {
	// The token middleware already consumed the body; re-bind from the cache.
	var dto ResetPasswordDTO
	if err := c.ShouldBindBodyWith(&dto, binding.JSON); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	claims := middleware.SingleUseClaims(c)
	err := h.svc.ResetPassword(c.Request.Context(), claims.UserID, middleware.SingleUseToken(c), dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, errTokenMismatch):
			response.UnauthorizedMsg(c, errTokenMismatch.Error())
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, errUserNotFound.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"message": "reset password success"})
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	err := h.svc.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), dto.OldPassword, dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, errOldPasswordMismatch):
			response.UnauthorizedMsg(c, errOldPasswordMismatch.Error())
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, errUserNotFound.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"message": "change password success"})
}
