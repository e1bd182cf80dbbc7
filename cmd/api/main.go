package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/accounts/internal/auth"
	"github.com/BradenHooton/accounts/internal/config"
	"github.com/BradenHooton/accounts/internal/database"
	"github.com/BradenHooton/accounts/internal/handlers"
	middlewareCustom "github.com/BradenHooton/accounts/internal/middleware"
	"github.com/BradenHooton/accounts/internal/models"
	"github.com/BradenHooton/accounts/internal/repositories"
	"github.com/BradenHooton/accounts/internal/routes"
	"github.com/BradenHooton/accounts/internal/services"
	"github.com/BradenHooton/accounts/internal/upload"
	pkgauth "github.com/BradenHooton/accounts/pkg/auth"
	pkghttp "github.com/BradenHooton/accounts/pkg/http"
	pkglogger "github.com/BradenHooton/accounts/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// store is what both persistence backends provide
type store interface {
	services.UserStore
	routes.HealthChecker
}

type gormStore struct {
	*repositories.GormUserRepository
	database.GormHealth
}

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("db_driver", cfg.Database.Driver),
		slog.Bool("strict_status", cfg.Server.StrictStatus),
	)

	userStore, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	auditLogger := pkglogger.NewAuditLogger(logger)
	hasher := pkgauth.NewBcryptHasher(cfg.Auth.BcryptCost)
	storage := upload.NewLocalStorage(cfg.Upload.Dir)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	writer := pkghttp.Writer{StrictStatus: cfg.Server.StrictStatus, Logger: logger}

	// Initialize services
	userService := services.NewUserService(userStore, hasher, upload.NewValidator(), storage, cfg.Server.BaseURL, logger, auditLogger)
	authService := services.NewAuthService(userStore, hasher, tokenManager, logger, auditLogger)

	if cfg.Email.FromAddress != "" {
		notifier, err := services.NewSESNotifier(context.Background(), cfg.Email.AWSRegion, cfg.Email.FromAddress, cfg.Server.BaseURL, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		userService.SetNotifier(notifier)
	}

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, writer, cfg.Upload.MaxBytes)
	authHandler := handlers.NewAuthHandler(authService, writer)

	// Bootstrap first account if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userService, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(cfg.Server.AllowedOrigins))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.Metrics)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, userHandler, authHandler, tokenManager, userStore, cfg.Auth.RateLimitPerMinute, logger)
	routes.RegisterSystemRoutes(router, userStore, cfg.Upload.Dir)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// openStore connects the configured backend and applies its schema when DB_MIGRATE is on
func openStore(cfg *config.Config, logger *slog.Logger) (store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Database.Driver {
	case config.DriverMySQL:
		db, err := database.NewGorm(&cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}

		repo := repositories.NewGormUserRepository(db)
		if cfg.Database.Migrate {
			if err := repo.Migrate(ctx); err != nil {
				closeFn()
				return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
			}
		}
		return gormStore{GormUserRepository: repo, GormHealth: database.GormHealth{DB: db}}, closeFn, nil

	default:
		db, err := database.NewConnection(&cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.Migrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
			}
		}
		return pgStore{UserRepository: repositories.NewUserRepository(db), DB: db}, db.Close, nil
	}
}

type pgStore struct {
	*repositories.UserRepository
	*database.DB
}

// ensureAdminUser registers the first account if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, users *services.UserService, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := users.Register(ctx, services.RegisterInput{
		FirstName: "admin",
		LastName:  "admin",
		Email:     adminEmail,
		Password:  adminPassword,
	})
	if errors.Is(err, models.ErrConflict) {
		logger.Info("admin user already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
