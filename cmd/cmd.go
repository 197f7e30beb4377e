package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shu-50/backend-CampusCrush/internal/config"
	"github.com/Shu-50/backend-CampusCrush/internal/db"
	"github.com/Shu-50/backend-CampusCrush/internal/handlers"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"
	"github.com/Shu-50/backend-CampusCrush/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `Usage: campuscrush [-config path] <command>

Commands:
  serve    start the HTTP and WebSocket server (default)
  migrate  create or update the database schema
  repair   run idempotent data fixes
`

// Run parses the command line and dispatches to the selected command
func Run() {
	fs := flag.NewFlagSet("campuscrush", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])

	command := "serve"
	if fs.NArg() > 0 {
		command = fs.Arg(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Database connection established")

	switch command {
	case "serve":
		err = serve(cfg, pool)
	case "migrate":
		err = db.Migrate(ctx, pool)
	case "repair":
		_, err = db.Repair(ctx, pool)
	default:
		fs.Usage()
		err = fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("Command failed")
		pool.Close()
		os.Exit(1)
	}
}

func serve(cfg *config.Config, pool *pgxpool.Pool) error {
	ctx := context.Background()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	photoRepo := repository.NewPhotoRepository(pool)
	swipeRepo := repository.NewSwipeRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	confessionRepo := repository.NewConfessionRepository(pool)

	// Initialize gateways
	store, err := services.NewS3Store(ctx, cfg.AWS)
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}
	pusher, err := services.NewPusher(cfg.APNS)
	if err != nil {
		return fmt.Errorf("failed to create push client: %w", err)
	}
	events := services.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer events.Close()
	wsHub := services.NewWSHub()

	// Initialize services
	authService := services.NewAuthService(userRepo, photoRepo, store, events, cfg.JWT, cfg.Upload, cfg.App.ClientURL)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, wsHub, pusher, events)
	profileService := services.NewProfileService(userRepo, photoRepo, store, cfg.Upload)
	matchService := services.NewMatchService(userRepo, photoRepo, swipeRepo, matchRepo, messageRepo, notificationService, events)
	chatService := services.NewChatService(matchRepo, messageRepo, userRepo, notificationService, wsHub)
	confessionService := services.NewConfessionService(userRepo, confessionRepo, notificationService)

	// Setup router
	router := handlers.NewRouter(handlers.Handlers{
		Auth:          handlers.NewAuthHandler(authService, cfg.Upload.MaxImageBytes),
		Users:         handlers.NewUserHandler(profileService, cfg.Upload.MaxImageBytes),
		Matches:       handlers.NewMatchHandler(matchService),
		Chat:          handlers.NewChatHandler(chatService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Confessions:   handlers.NewConfessionHandler(confessionService),
		WebSocket:     handlers.NewWebSocketHandler(wsHub, authService),
	}, authService, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown
	wsHub.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
