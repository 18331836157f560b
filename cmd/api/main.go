package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/photocard/photocard-api/internal/config"
	"github.com/photocard/photocard-api/internal/domain/auth"
	"github.com/photocard/photocard-api/internal/domain/listing"
	"github.com/photocard/photocard-api/internal/domain/notification"
	"github.com/photocard/photocard-api/internal/domain/photocard"
	"github.com/photocard/photocard-api/internal/domain/point"
	"github.com/photocard/photocard-api/internal/domain/user"
	"github.com/photocard/photocard-api/internal/middleware"
	"github.com/photocard/photocard-api/internal/pkg/database"
	"github.com/photocard/photocard-api/internal/pkg/jwt"
	"github.com/photocard/photocard-api/internal/pkg/logger"
	"github.com/photocard/photocard-api/internal/pkg/ratelimit"
	pkgresponse "github.com/photocard/photocard-api/internal/pkg/response"
	"github.com/photocard/photocard-api/internal/pkg/storage"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to init logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting photocard API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Storage ----------
	var cardStorage storage.Storage
	if cfg.StorageEnabled() {
		s3, err := storage.NewS3Storage(ctx, storage.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			AccessKeySecret: cfg.S3AccessKeySecret,
			Bucket:          cfg.S3BucketName,
			PublicURL:       cfg.S3PublicURL,
			PresignTTL:      cfg.S3PresignTTL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 storage")
		}
		cardStorage = s3
	} else {
		log.Warn().Msg("S3 credentials not set, photo card image uploads are disabled")
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	refreshRepo := auth.NewRefreshTokenRepository(db)
	pointRepo := point.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	photoCardRepo := photocard.NewRepository(db)
	listingRepo := listing.NewRepository(db)

	// ---------- Services ----------
	notificationService := notification.NewService(notificationRepo, redis)
	authService := auth.NewService(userRepo, jwtService, refreshRepo)
	userService := user.NewService(userRepo)
	pointService := point.NewService(pointRepo, nil, notificationService, cfg.DrawCooldown)
	photoCardService := photocard.NewService(photoCardRepo, cardStorage, cfg.PhotoCardMonthlyLimit)
	listingService := listing.NewService(listingRepo)

	cleanupJob := notification.NewCleanupJob(notificationRepo, cfg.NotificationRetentionDays, cfg.NotificationCleanupEvery)

	router := newRouter(cfg.AllowedOrigins, routes{
		auth:          auth.NewHandler(authService),
		users:         user.NewHandler(userService),
		points:        point.NewHandler(pointService),
		notifications: notification.NewHandler(notificationService),
		photocards:    photocard.NewHandler(photoCardService),
		listings:      listing.NewHandler(listingService),
		requireAuth:   middleware.Auth(jwtService),
		loginLimit:    middleware.RateLimitByIP(ratelimit.New(redis, "login", cfg.LoginRateLimit, time.Minute)),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return cleanupJob.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}

	log.Info().Msg("Server exited properly")
}

type routes struct {
	auth          *auth.Handler
	users         *user.Handler
	points        *point.Handler
	notifications *notification.Handler
	photocards    *photocard.Handler
	listings      *listing.Handler

	requireAuth func(http.Handler) http.Handler
	loginLimit  func(http.Handler) http.Handler
}

func newRouter(allowedOrigins []string, rt routes) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(allowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/auth", rt.auth.Routes(rt.requireAuth, rt.loginLimit))
		r.Mount("/users", rt.users.Routes(rt.requireAuth))
		r.Mount("/points", rt.points.Routes(rt.requireAuth))
		r.Mount("/notifications", rt.notifications.Routes(rt.requireAuth))
		r.Mount("/photocards", rt.photocards.Routes(rt.requireAuth))
		r.Mount("/gallery", rt.photocards.GalleryRoutes(rt.requireAuth))
		r.Mount("/listings", rt.listings.Routes(rt.requireAuth))
	})

	return r
}
