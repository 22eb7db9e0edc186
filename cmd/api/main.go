package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "production" {
		logger = logger.Level(zerolog.InfoLevel)
	}

	dbOptions := database.Options{
		Driver:      cfg.DatabaseDriver,
		Path:        cfg.DatabasePath,
		URL:         cfg.DatabaseURL,
		BusyTimeout: cfg.DatabaseBusyTimeout,
	}
	gw, err := database.Open(dbOptions)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer gw.Close()

	if err := database.Migrate(gw, dbOptions); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	studentRepo := repository.NewStudentRepository(gw)
	analyticsRepo := repository.NewAnalyticsRepository(gw)

	seeded, err := service.NewSeedService(studentRepo, cfg.SeedOnStart, logger).SeedStudents(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed students")
	}
	if seeded > 0 {
		logger.Info().Int("students", seeded).Msg("seeded empty database")
	}

	var limiterStorage fiber.Storage
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, login limiter falls back to memory")
		} else {
			defer redisClient.Close()
			limiterStorage = database.NewRedisStorage(redisClient, "classroom:limiter:")
		}
	}

	validate := utils.NewValidator()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	authService := service.NewAuthService(auth.NewStaticProvider(cfg.AuthUsername, cfg.AuthPassword), tokens, validate, logger)
	studentService := service.NewStudentService(studentRepo, validate, service.StudentServiceOptions{
		RestrictStudentRole: cfg.RestrictStudentRole,
	}, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, cfg.AnalyticsRecent, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authService, handler.CookieOptions{Name: cfg.CookieName, Secure: cfg.CookieSecure}, logger),
		StudentHandler:   handler.NewStudentHandler(studentService, logger),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticsService, logger),
		Database:         gw,
		Authenticate:     middleware.Authenticate(tokens, cfg.CookieName),
		LoginGuard:       middleware.RateLimit("login", cfg.LoginRateMax, cfg.LoginRateWindow, limiterStorage),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("driver", gw.Dialect()).Msg("server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
