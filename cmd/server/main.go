package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/crypto/bcrypt"

	api "github.com/mediqr-dev/mediqr/api/echo"
	"github.com/mediqr-dev/mediqr/cache"
	redisstore "github.com/mediqr-dev/mediqr/cache/redis"
	"github.com/mediqr-dev/mediqr/config"
	"github.com/mediqr-dev/mediqr/internal/auth"
	"github.com/mediqr-dev/mediqr/internal/llm"
	"github.com/mediqr-dev/mediqr/internal/metrics"
	"github.com/mediqr-dev/mediqr/internal/ocr"
	"github.com/mediqr-dev/mediqr/middleware"
	"github.com/mediqr-dev/mediqr/mongodb"
	"github.com/mediqr-dev/mediqr/services"
	"github.com/mediqr-dev/mediqr/tracing"
)

var rootCmd = &cobra.Command{
	Use:   "mediqr-server",
	Short: "Patient-controlled medical record sharing server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	initLogger(cfg)

	if cfg.UsingInsecureJWTSecret() {
		log.Warn().Msg("JWT_SECRET is the built-in default; session and auth tokens are forgeable. Set JWT_SECRET before any real deployment.")
	}

	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize TracerProvider")
	}

	ctx := context.Background()

	mongoClient, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}

	docRepo, err := mongodb.NewDocumentRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize DocumentRepository")
	}
	patientRepo, err := mongodb.NewPatientRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PatientRepository")
	}
	userRepo, err := mongodb.NewUserRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize UserRepository")
	}

	sessionStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.SessionStore).Msg("Failed to initialize session store")
	}

	metrics.Register(prometheus.DefaultRegisterer)

	tokenService := services.NewTokenService([]byte(cfg.JWTSecret), cfg.OtelServiceName)
	sessionService := services.NewSessionService(
		sessionStore, tokenService, services.ConflictPolicy(cfg.SessionConflictPolicy))
	documentService := services.NewDocumentService(docRepo, sessionService)
	summaryService := services.NewSummaryService(
		docRepo, ocr.NewClient(cfg.OCREndpoint), llm.NewClient(cfg.LLMEndpoint))
	userService := services.NewUserService(
		userRepo, patientRepo, docRepo,
		auth.NewBcryptPasswordHasher(bcrypt.DefaultCost), tokenService)
	patientService := services.NewPatientService(patientRepo)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(otelecho.Middleware(cfg.OtelServiceName))
	e.Use(middleware.Identity(tokenService))

	api.NewAPI(sessionService, documentService, summaryService, userService, patientService).
		RegisterRoutes(e)

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("session_store", cfg.SessionStore).Msg("HTTP server starting")
		if serveErr := e.Start(":" + cfg.HTTPPort); serveErr != nil {
			log.Info().Err(serveErr).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := sessionStore.Close(); err != nil {
		log.Error().Err(err).Msg("Session store close failed")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("MongoDB disconnect failed")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("TracerProvider shutdown failed")
	}

	log.Info().Msg("Server stopped")
	return nil
}

func initLogger(cfg *config.ServerConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// newSessionStore picks the session backend. Redis is required when more
// than one instance serves traffic; memory keeps single-node deployments
// dependency-free.
func newSessionStore(ctx context.Context, cfg *config.ServerConfig) (cache.SessionStore, error) {
	switch cfg.SessionStore {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		return redisstore.NewSessionStore(client, "mediqr"), nil
	default:
		return cache.NewMemorySessionStore(), nil
	}
}
