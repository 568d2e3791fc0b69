// internal/server/server.go
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Raymond16-cyber/aura-backend/internal/config"
	"github.com/Raymond16-cyber/aura-backend/internal/handler"
	"github.com/Raymond16-cyber/aura-backend/internal/mailer"
	"github.com/Raymond16-cyber/aura-backend/internal/middleware"
	"github.com/Raymond16-cyber/aura-backend/internal/repository"
	"github.com/Raymond16-cyber/aura-backend/internal/service"
	"github.com/Raymond16-cyber/aura-backend/internal/token"
)

// Auth endpoints share one fixed-window rate limit bucket per IP.
const (
	authRateLimit  = 20
	authRateWindow = time.Minute
)

type AppServer struct {
	cfg    *config.Config
	logger *zap.Logger
	mongo  *mongo.Client
	rdb    *redis.Client
	echo   *echo.Echo
	cron   *cron.Cron
}

func NewAppServer(cfg *config.Config, logger *zap.Logger) (*AppServer, error) {
	sugar := logger.Sugar()

	// MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		sugar.Errorf("failed to connect to mongo: %v", err)
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		sugar.Errorf("failed to ping mongo: %v", err)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(cfg.Mongo.Database)
	if err := repository.EnsureUserIndexes(ctx, db); err != nil {
		return nil, err
	}
	if err := repository.EnsureWaitlistIndexes(ctx, db); err != nil {
		return nil, err
	}

	// Redis (optional, backs the auth rate limiter)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			sugar.Errorf("failed to ping redis: %v", err)
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	gateway, err := mailer.NewSMTPMailer(cfg.SMTP, sugar)
	if err != nil {
		return nil, err
	}
	tokens := token.NewService([]byte(cfg.JWT.SigningKey))

	// Repository → Service → Handler
	userRepo := repository.NewUserRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)
	authSvc := service.NewAuthService(userRepo, tokens, gateway, cfg.App.FrontendURL, sugar)
	waitlistSvc := service.NewWaitlistService(waitlistRepo, gateway, cfg.App.FrontendURL, sugar)
	authHandler := handler.NewAuthHandler(authSvc, cfg.IsProduction())
	waitlistHandler := handler.NewWaitlistHandler(waitlistSvc)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.App.FrontendURL},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogging(sugar))

	e.GET("/", handler.Health)

	auth := e.Group("/api/auth")
	auth.Use(middleware.RateLimit(rdb, authRateLimit, authRateWindow, sugar))
	auth.POST("/register", authHandler.Register)
	auth.GET("/verify-email/:token", authHandler.VerifyEmail)
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	e.POST("/waitlist/join", waitlistHandler.Join)

	// Daily follow-up batch at midnight.
	c := cron.New()
	_, err = c.AddFunc("0 0 * * *", func() {
		sugar.Info("running daily follow-up email job")
		n, err := waitlistSvc.SendFollowUps(context.Background())
		if err != nil {
			sugar.Errorf("follow-up job failed: %v", err)
			return
		}
		sugar.Infof("follow-up emails processed: %d", n)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling follow-up job: %w", err)
	}

	sugar.Infof("AppServer initialized successfully")
	return &AppServer{
		cfg:    cfg,
		logger: logger,
		mongo:  client,
		rdb:    rdb,
		echo:   e,
		cron:   c,
	}, nil
}

func (a *AppServer) Run() error {
	sugar := a.logger.Sugar()
	a.cron.Start()
	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	sugar.Infof("HTTP server listening on %s", addr)
	return a.echo.Start(addr)
}

func (a *AppServer) GracefulStop() {
	sugar := a.logger.Sugar()
	sugar.Info("Shutting down HTTP server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	<-a.cron.Stop().Done()
	if err := a.echo.Shutdown(ctx); err != nil {
		sugar.Errorf("http shutdown: %v", err)
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if err := a.mongo.Disconnect(ctx); err != nil {
		sugar.Errorf("mongo disconnect: %v", err)
	}
	sugar.Info("Resources closed, server stopped")
}
