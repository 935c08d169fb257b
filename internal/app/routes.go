package app

import (
	"context"
	"net/http"

	"github.com/chirp-social/core/internal/middleware"
	"github.com/chirp-social/core/internal/modules/auth"
	"github.com/chirp-social/core/internal/modules/bookmark"
	"github.com/chirp-social/core/internal/modules/conversation"
	"github.com/chirp-social/core/internal/modules/gateway"
	"github.com/chirp-social/core/internal/modules/tweet"
	"github.com/chirp-social/core/internal/modules/user"
	"github.com/chirp-social/core/internal/pkg/ledger"
	"github.com/chirp-social/core/internal/pkg/mail"
	pkgredis "github.com/chirp-social/core/internal/pkg/redis"
	"github.com/chirp-social/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(rc *pkgredis.Client, led ledger.Ledger, mailer *mail.Sender, convSvc *conversation.Service) {
	r := a.router
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": "chirp-core", "env": a.cfg.Env})
	})
	r.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	r.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })

	// Socket handshake path lives outside the API prefix.
	gateway.RegisterRoutes(r.Group(""), a.hub)

	api := r.Group("/api/v1")
	authMW := middleware.AccessToken()

	authSvc := auth.NewService(a.db, led, mailer, a.cfg.JWT, auth.WithLogger(a.logger))
	auth.NewHandler(authSvc, a.cfg.OAuth).RegisterRoutes(api, authMW)

	user.NewHandler(user.NewService(a.db)).RegisterRoutes(api, authMW)
	tweet.NewHandler(tweet.NewService(a.db)).RegisterRoutes(api, authMW)
	bookmark.NewHandler(bookmark.NewService(a.db)).RegisterRoutes(api, authMW)
	conversation.NewHandler(convSvc).RegisterRoutes(api, authMW)

	a.registerJobRoutes(api, authMW)
}

func (a *App) registerJobRoutes(api *gin.RouterGroup, authMW gin.HandlerFunc) {
	jobs := api.Group("/jobs", authMW)
	jobs.GET("", func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	jobs.GET("/:name", func(c *gin.Context) {
		result, err := a.sched.Status(c.Param("name"))
		if err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.OK(c, result)
	})
	jobs.POST("/:name/run", func(c *gin.Context) {
		// A manual run outlives the request, so it is not bound to the
		// request context.
		if err := a.sched.Run(context.Background(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		c.Status(http.StatusAccepted)
	})
}
