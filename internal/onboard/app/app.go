package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/lettingshq/onboard/internal/onboard/http"
	"github.com/lettingshq/onboard/internal/onboard/metrics"
	"github.com/lettingshq/onboard/internal/onboard/notify"
	"github.com/lettingshq/onboard/internal/onboard/service"
	"github.com/lettingshq/onboard/internal/onboard/store"
	"github.com/lettingshq/onboard/internal/onboard/store/drivers/sqlite"
	"github.com/lettingshq/onboard/pkg/jwtx"
	"github.com/lettingshq/onboard/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the onboarding service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	metrics *metrics.Metrics

	// Delivery chain
	tracker    *notify.TaskTracker
	queue      *notify.Queue
	dispatcher *notify.Dispatcher

	// Services
	tokenService      *service.TokenService
	invitationService *service.InvitationService
	reminderService   *service.ReminderService
	sweepService      *service.SweepService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "onboard-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initNotify()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.queue.Start()
	app.sweepService.Start()

	app.logger.Info("onboard service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application: stop intake, drain the
// delivery queue, then close the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down onboard service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweepService.Stop()
	app.queue.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("onboard service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initNotify wires the delivery fallback chain in the configured order.
func (app *Application) initNotify() {
	app.tracker = notify.NewTaskTracker()

	// The queue's sender is an explicit strategy: a real SMTP relay when one
	// is configured, otherwise a log sender so the fleet still runs.
	var sender notify.Sender
	smtpCfg := notify.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	}
	if smtpCfg.Configured() {
		sender = notify.NewSMTPSender(smtpCfg)
		app.logger.Info("queue channel using SMTP relay", "host", app.cfg.SMTPHost)
	} else {
		sender = &notify.LogSender{Logger: app.logger}
		app.logger.Info("queue channel using log sender (no SMTP relay configured)")
	}

	app.queue = notify.NewQueue(
		sender,
		app.tracker,
		app.logger,
		app.cfg.BaseURL,
		app.cfg.Workers,
		app.cfg.QueueBuffer,
	)

	provider := &notify.Provider{
		APIKey:   app.cfg.ProviderAPIKey,
		Endpoint: app.cfg.ProviderEndpoint,
		From:     app.cfg.ProviderFrom,
		BaseURL:  app.cfg.BaseURL,
	}

	sink := &notify.DemoSink{Logger: app.logger, BaseURL: app.cfg.BaseURL}

	var chain []notify.Channel
	for _, name := range app.cfg.ChannelOrder {
		switch name {
		case "queue":
			chain = append(chain, app.queue)
		case "provider":
			chain = append(chain, provider)
		case "demo":
			chain = append(chain, sink)
		}
	}

	app.dispatcher = notify.NewDispatcher(app.logger, app.metrics, chain...)
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = service.NewTokenService(app.db, app.logger)
	app.invitationService = service.NewInvitationService(
		app.db,
		app.tokenService,
		app.dispatcher,
		app.logger,
		app.metrics,
	)
	app.reminderService = service.NewReminderService(
		app.db,
		app.dispatcher,
		app.logger,
		app.metrics,
	)
	app.sweepService = service.NewSweepService(
		app.invitationService,
		app.logger,
		app.cfg.SweepInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	verifier := jwtx.NewHS256Verifier([]byte(app.cfg.SessionSecret), app.cfg.SessionIssuer)

	router := httpapi.NewRouter(
		verifier,
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)

	// Wire services to router
	router.TokenService = app.tokenService
	router.InvitationService = app.invitationService
	router.ReminderService = app.reminderService
	router.Tracker = app.tracker
	router.Queue = app.queue
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
