// cmd/server is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubgrid/ticketing/internal/cache"
	"github.com/clubgrid/ticketing/internal/config"
	"github.com/clubgrid/ticketing/internal/database"
	"github.com/clubgrid/ticketing/internal/handler"
	"github.com/clubgrid/ticketing/internal/mailer"
	"github.com/clubgrid/ticketing/internal/qrcode"
	"github.com/clubgrid/ticketing/internal/repository"
	"github.com/clubgrid/ticketing/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load("")
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	setupLogging(cfg.Log)

	// ── 1. Database: migrations, then the pgx pool ───────────────────────
	if err := database.RunMigrations(cfg.Database.URL(), cfg.Database.MigrationsPath); err != nil {
		logrus.WithError(err).Fatal("migrations")
	}
	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("database")
	}
	defer pool.Close()
	logrus.Info("connected to postgres")

	// ── 2. Collaborators ─────────────────────────────────────────────────
	issuer, err := qrcode.NewIssuer(cfg.Assets)
	if err != nil {
		logrus.WithError(err).Fatal("qr issuer")
	}

	var notifier service.Notifier
	if cfg.SMTP.Enabled {
		notifier = mailer.NewMailer(cfg.SMTP)
	} else {
		logrus.Warn("smtp disabled, ticket emails will be recorded as failed")
	}

	var summaryCache service.SummaryCache
	if cfg.Redis.Enabled {
		c := cache.NewEventSummaryCache(ctx, cfg.Redis)
		defer c.Close()
		summaryCache = c
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	svc := service.NewTicketService(eventRepo, ticketRepo, issuer, notifier, summaryCache)
	ticketHandler := handler.NewTicketHandler(svc)

	// ── 4. Build the router ──────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger)
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/events/{eventID}/register", ticketHandler.Register)
		r.Route("/tickets", func(r chi.Router) {
			r.Post("/check-availability", ticketHandler.CheckAvailability)
			r.Get("/", ticketHandler.ListTickets)
			r.Get("/{ticketID}", ticketHandler.GetTicket)
			r.Patch("/{ticketID}/status", ticketHandler.UpdateStatus)
			r.Delete("/{ticketID}", ticketHandler.DeleteTicket)
		})
	})

	// QR assets are served straight from the issuer's directory.
	r.Handle("/assets/qr/*", http.StripPrefix("/assets/qr/", http.FileServer(http.Dir(cfg.Assets.Dir))))

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("graceful shutdown failed")
	}
	logrus.Info("server stopped")
}

func setupLogging(cfg config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
