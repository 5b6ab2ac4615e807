package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/bookwell/bookwell-api/internal/config"
	"github.com/bookwell/bookwell-api/internal/handlers"
	"github.com/bookwell/bookwell-api/internal/middleware"
	"github.com/bookwell/bookwell-api/internal/migration"
	"github.com/bookwell/bookwell-api/internal/notification"
	"github.com/bookwell/bookwell-api/internal/repository"
	"github.com/bookwell/bookwell-api/internal/routes"
	"github.com/bookwell/bookwell-api/internal/temporal"
	"github.com/bookwell/bookwell-api/internal/temporal/activities"
	"github.com/bookwell/bookwell-api/internal/temporal/workflows"

	_ "github.com/lib/pq" // PostgreSQL driver
	tc "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

type application struct {
	config         *config.Config
	db             *sql.DB
	temporalClient tc.Client
	logger         zerolog.Logger
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	temporalLogger := temporal.NewTemporalAdapter(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection. The store client is constructed once
	// here and passed down; nothing holds a lazily-initialized global.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Initialize Temporal client.
	temporalClient, err := tc.Dial(tc.Options{
		Logger: temporalLogger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Unable to create Temporal client")
	}
	defer temporalClient.Close()

	// Create the application instance.
	app := &application{
		config:         cfg,
		db:             db,
		temporalClient: temporalClient,
		logger:         logger,
	}

	// Start the maintenance worker and schedule the expiry sweep.
	maintenanceWorker := app.startMaintenanceWorker(logger)
	app.scheduleExpirySweep(logger)

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, maintenanceWorker, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	inviteRepo := repository.NewInviteRepository(app.db)
	userRepo := repository.NewUserRepository(app.db)
	businessRepo := repository.NewBusinessRepository(app.db)
	membershipRepo := repository.NewMembershipRepository(app.db)
	statsRepo := repository.NewStatsRepository(app.db)

	// Mailer for invites. Delivery is optional; without SMTP config the
	// invite token is still returned to the issuer.
	var inviteMailer notification.InviteMailer
	if app.config.Email.SMTPHost != "" {
		mailer, err := notification.NewSMTPInviteMailer(app.config.Email)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure invite mailer")
		}
		inviteMailer = mailer
	} else {
		logger.Warn().Msg("SMTP not configured; invite emails disabled")
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, app.config.JWTSecret, logger)
	inviteHandler := handlers.NewInviteHandler(
		inviteRepo,
		businessRepo,
		membershipRepo,
		app.config.Invite.TTL(),
		inviteMailer,
		app.config.Invite.URLTemplate,
		logger,
	)
	businessHandler := handlers.NewBusinessHandler(businessRepo, membershipRepo, logger)
	statsHandler := handlers.NewStatsHandler(statsRepo, logger)

	return routes.NewRouter(authHandler, inviteHandler, businessHandler, statsHandler)
}

func (app *application) startMaintenanceWorker(logger zerolog.Logger) worker.Worker {
	activityImpl := &activities.Activities{
		InviteRepo: repository.NewInviteRepository(app.db),
		Logger:     logger.With().Str("component", "maintenance_worker").Logger(),
	}

	w := worker.New(app.temporalClient, temporal.TaskQueueName, worker.Options{})

	w.RegisterWorkflow(workflows.InviteExpirySweepWorkflow)
	w.RegisterActivity(activityImpl)

	// Start the worker in a goroutine so it doesn't block.
	go func() {
		logger.Info().Msg("Starting maintenance worker...")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("Unable to start worker")
		}
	}()

	return w
}

// scheduleExpirySweep starts the cron workflow that rewrites stale pending
// invites to expired. Reuses the running schedule across restarts.
func (app *application) scheduleExpirySweep(logger zerolog.Logger) {
	_, err := app.temporalClient.ExecuteWorkflow(context.Background(), tc.StartWorkflowOptions{
		ID:           temporal.SweepWorkflowID,
		TaskQueue:    temporal.TaskQueueName,
		CronSchedule: app.config.Invite.SweepCron,
	}, workflows.InviteExpirySweepWorkflow)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to schedule invite expiry sweep")
		return
	}
	logger.Info().Str("cron", app.config.Invite.SweepCron).Msg("invite expiry sweep scheduled")
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, maintenanceWorker worker.Worker, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	// Stop the maintenance worker.
	logger.Info().Msg("Stopping maintenance worker...")
	maintenanceWorker.Stop()
	logger.Info().Msg("Maintenance worker stopped.")
}
