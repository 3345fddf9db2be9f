package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/mozik-app/mozik/internal/facades"
	"github.com/mozik-app/mozik/internal/handlers"
	"github.com/mozik-app/mozik/internal/jwt"
	"github.com/mozik-app/mozik/internal/logger"
	"github.com/mozik-app/mozik/internal/mailer"
	"github.com/mozik-app/mozik/internal/middlewares"
	"github.com/mozik-app/mozik/internal/migrations"
	"github.com/mozik-app/mozik/internal/password"
	"github.com/mozik-app/mozik/internal/repositories"
	"github.com/mozik-app/mozik/internal/services"
	"github.com/mozik-app/mozik/internal/sessions"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config holds everything read from the environment.
type config struct {
	appHost  string
	appPort  string
	logLevel string
	baseURL  string

	pgHost         string
	pgPort         int
	pgUser         string
	pgPassword     string
	pgDB           string
	pgMaxOpenConns int
	pgMaxIdleConns int

	redisHost     string
	redisPort     int
	redisDB       int
	redisPassword string

	smtpHost     string
	smtpPort     int
	smtpUsername string
	smtpPassword string
	smtpSender   string

	uploadDir    string
	mosaicAPIURL string

	kafkaBrokers []string
	kafkaTopic   string

	jwtSecretKey string
	jwtExpSecond int
}

// @title mozik API
// @version 1.0.0
// @description Web service for turning uploaded photos and videos into mosaics
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the full
// application configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	cfg.appHost = getEnv("APP_HOST", "localhost")
	cfg.appPort = getEnv("APP_PORT", "8080")
	cfg.logLevel = getEnv("APP_LOG_LEVEL", "info")
	cfg.baseURL = getEnv("BASE_URL", fmt.Sprintf("http://%s:%s", cfg.appHost, cfg.appPort))

	// PostgreSQL config
	cfg.pgHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.pgUser = getEnv("POSTGRES_USER", "user")
	cfg.pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.pgDB = getEnv("POSTGRES_DB", "mozik")
	if cfg.pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if cfg.pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if cfg.pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// Redis config
	cfg.redisHost = getEnv("REDIS_HOST", "localhost")
	if cfg.redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if cfg.redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	cfg.redisPassword = getEnv("REDIS_PASSWORD", "")

	// SMTP config
	cfg.smtpHost = getEnv("SMTP_HOST", "localhost")
	if cfg.smtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return
	}
	cfg.smtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.smtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.smtpSender = getEnv("SMTP_SENDER", "noreply@mozik.app")

	// Upload and processing config
	cfg.uploadDir = getEnv("UPLOAD_DIR", "uploads")
	cfg.mosaicAPIURL = getEnv("MOSAIC_API_URL",
		fmt.Sprintf("http://%s:%s/api/mosaic", cfg.appHost, cfg.appPort))

	// Kafka config (optional; empty brokers disable audit publishing)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.kafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.kafkaTopic = getEnv("KAFKA_TOPIC", "mozik-audit")

	// JWT config
	cfg.jwtSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	if cfg.jwtExpSecond, err = strconv.Atoi(getEnv("JWT_EXP_SECOND", "120")); err != nil {
		return
	}

	return
}

// run initializes the logger, database, Redis, mailer, and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.logLevel)

	// Connect to PostgreSQL and apply migrations
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.pgUser, cfg.pgPassword, cfg.pgHost, cfg.pgPort, cfg.pgDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.pgMaxOpenConns)
	db.SetMaxIdleConns(cfg.pgMaxIdleConns)

	if err := migrations.Up(ctx, db.DB); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.redisHost, cfg.redisPort),
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection error: %w", err)
	}
	defer rdb.Close()

	// Kafka audit publisher (optional)
	var audit *services.AuditPublisher
	if len(cfg.kafkaBrokers) > 0 {
		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.kafkaBrokers...),
			Topic:    cfg.kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer writer.Close()
		audit = services.NewAuditPublisher(writer)
		logger.Log.Infof("Audit events publishing to %s", cfg.kafkaTopic)
	} else {
		audit = services.NewAuditPublisher(nil)
	}

	// Upload directory
	if err := os.MkdirAll(cfg.uploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	// Initialize collaborators
	serviceJWT := jwt.New(cfg.jwtSecretKey, time.Duration(cfg.jwtExpSecond)*time.Second)
	hasher := password.New(0)
	sessionStore := sessions.New(rdb)
	resetMailer := mailer.New(cfg.smtpHost, cfg.smtpPort, cfg.smtpUsername, cfg.smtpPassword,
		cfg.smtpSender, cfg.baseURL)
	mosaicFacade := facades.NewMosaicHTTPFacade(cfg.mosaicAPIURL, serviceJWT)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)
	resetReadRepo := repositories.NewPasswordResetReadRepository(db)
	resetWriteRepo := repositories.NewPasswordResetWriteRepository(db)
	jobReadRepo := repositories.NewJobHistoryReadRepository(db)
	jobWriteRepo := repositories.NewJobHistoryWriteRepository(db)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, hasher, audit)
	resetService := services.NewPasswordResetService(userReadRepo, resetReadRepo, resetWriteRepo,
		hasher, resetMailer, audit, time.Now)
	profileService := services.NewProfileService(userReadRepo, userWriteRepo, jobReadRepo, hasher)
	mosaicService := services.NewMosaicService(mosaicFacade, jobWriteRepo, cfg.uploadDir, audit)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))

	// Public routes
	r.Get("/signup", handlers.NewSignupPageHandler())
	r.Post("/signup", handlers.NewSignupHandler(authService))
	r.Get("/login", handlers.NewLoginPageHandler())
	r.Post("/login", handlers.NewLoginHandler(authService, sessionStore))
	r.Get("/logout", handlers.NewLogoutHandler(sessionStore))
	r.Get("/forgot-password", handlers.NewForgotPasswordPageHandler())
	r.Post("/forgot-password", handlers.NewForgotPasswordHandler(resetService))
	r.Get("/reset-password/{token}", handlers.NewResetPasswordPageHandler(resetService))
	r.Post("/reset-password/{token}", handlers.NewResetPasswordHandler(resetService))
	r.Get("/uploads/{filename}", handlers.NewUploadsHandler(cfg.uploadDir))

	// Internal processing endpoint, guarded by the service token
	r.Group(func(r chi.Router) {
		r.Use(middlewares.ServiceAuthMiddleware(serviceJWT))
		r.Post("/api/mosaic", handlers.NewMosaicAPIHandler())
	})

	// Session-guarded routes
	r.Group(func(r chi.Router) {
		r.Use(middlewares.SessionMiddleware(sessionStore))
		r.Get("/mypage", handlers.NewMyPageHandler(profileService))
		r.Get("/history", handlers.NewHistoryHandler(profileService))
		r.Post("/change_email", handlers.NewChangeEmailHandler(profileService))
		r.Post("/change_password", handlers.NewChangePasswordHandler(profileService))
		r.Post("/register_face", handlers.NewRegisterFaceHandler(profileService, mosaicService))
		r.Post("/delete_account", handlers.NewDeleteAccountHandler(profileService, sessionStore))
		r.Get("/video", handlers.NewUploadPageHandler("/video", "video/*"))
		r.Post("/video", handlers.NewUploadHandler(mosaicService))
		r.Get("/image", handlers.NewUploadPageHandler("/image", "image/*"))
		r.Post("/image", handlers.NewUploadHandler(mosaicService))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.appHost, cfg.appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.appHost, cfg.appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.appHost, cfg.appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
