package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chirp-social/core/internal/config"
	"github.com/chirp-social/core/internal/database"
	"github.com/chirp-social/core/internal/middleware"
	"github.com/chirp-social/core/internal/modules/conversation"
	"github.com/chirp-social/core/internal/modules/gateway"
	pkgcron "github.com/chirp-social/core/internal/pkg/cron"
	jwtpkg "github.com/chirp-social/core/internal/pkg/jwt"
	"github.com/chirp-social/core/internal/pkg/ledger"
	"github.com/chirp-social/core/internal/pkg/mail"
	"github.com/chirp-social/core/internal/pkg/mongodb"
	pkgredis "github.com/chirp-social/core/internal/pkg/redis"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	mongo  *mongodb.Client
	hub    *gateway.Hub
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler
}

// New initializes the application: config → stores → hub → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	jwtpkg.Configure(jwtpkg.Secrets{
		Access:         cfg.JWT.AccessSecret,
		Refresh:        cfg.JWT.RefreshSecret,
		ForgotPassword: cfg.JWT.ForgotPasswordSecret,
		EmailVerify:    cfg.JWT.EmailVerifySecret,
	})

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	mongo, err := mongodb.Connect(context.Background(), cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(corsMiddleware(cfg))

	mailer := mail.New(mail.BuildConfig(cfg))
	convSvc := conversation.NewService(mongo)
	hub := gateway.NewHub(convSvc, rc, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	led := ledger.NewStore(db)
	sched := pkgcron.New()
	registerCronJobs(sched, led, logger)
	go sched.Start(ctx)

	app := &App{
		cfg: cfg, router: router, db: db, mongo: mongo,
		hub: hub, logger: logger, cancel: cancel, sched: sched,
	}
	app.registerRoutes(rc, led, mailer, convSvc)
	return app, nil
}

func corsMiddleware(cfg *config.AppConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return cors.New(corsConfig)
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and closes the Mongo session.
func (a *App) Shutdown() {
	a.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.mongo.Disconnect(ctx)
}
