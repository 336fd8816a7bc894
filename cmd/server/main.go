package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "photogallery/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"photogallery/internal/auth"
	"photogallery/internal/cache"
	"photogallery/internal/config"
	"photogallery/internal/db"
	"photogallery/internal/handler"
	"photogallery/internal/logger"
	"photogallery/internal/media"
	"photogallery/internal/repository"
	"photogallery/internal/router"
	"photogallery/internal/service"
	"photogallery/internal/session"
	"photogallery/internal/validation"
)

const shutdownTimeout = 10 * time.Second

// @title Photo Gallery API
// @version 1.0
// @description Account lifecycle, group rights and image delivery for the photo gallery.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name gallery_session
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer func() { _ = log.Sync() }()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, cfg.LogLevel)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}
	if err := db.Migrate(gormDB, log); err != nil {
		log.Fatal("database migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, log)
	defer cacheClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Warn("redis unreachable, sessions will not persist", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancelPing()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	groupRepo := repository.NewGroupRepository(gormDB)
	photoRepo := repository.NewPhotoRepository(gormDB)

	validate := validation.New()
	deps := service.UserDeps{
		Users:         userRepo,
		Groups:        groupRepo,
		Content:       service.NewPhotoService(photoRepo, cfg.Gallery, log),
		Policy:        cfg.Groups,
		DefaultAvatar: cfg.Gallery.DefaultAvatar,
		Log:           log,
		Validate:      validate,
	}
	build := func(ctx context.Context, sess *session.Session) (handler.AccountManager, error) {
		m, err := service.NewUserManager(ctx, deps, sess)
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	tokens := auth.NewJWTService(cfg.SessionSecret, cfg.SessionTTL)
	store := session.NewStore(cacheClient, cfg.SessionTTL)
	pipeline := media.NewPipeline(cfg.Gallery, log)
	for _, b := range media.DefaultBackends() {
		log.Info("thumbnail backend", zap.String("name", b.Name()), zap.Bool("available", b.Available()))
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, log, tokens,
		handler.NewSessionMiddleware(store, tokens, build, cfg.Environment == "production", log),
		validate,
		router.Handlers{
			Auth:  handler.NewAuthHandler(cfg.Gallery.SiteURL, log),
			User:  handler.NewUserHandler(),
			Group: handler.NewGroupHandler(),
			Image: handler.NewImageHandler(pipeline, cfg.Gallery, log),
		},
	)

	swaggerHost := cfg.SwaggerHost
	if swaggerHost == "" {
		swaggerHost = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(swaggerHost, "http://") && !strings.HasPrefix(swaggerHost, "https://") {
		swaggerHost = "http://" + swaggerHost
	}
	log.Info("swagger documentation available", zap.String("url", swaggerHost+"/swagger/index.html"))

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("starting HTTP server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("server start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
