package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mindhaven/platform/internal/adapters/ehr"
	"github.com/mindhaven/platform/internal/alert"
	"github.com/mindhaven/platform/internal/careteam"
	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/mood"
	"github.com/mindhaven/platform/internal/notification"
	"github.com/mindhaven/platform/internal/shared/auth"
	"github.com/mindhaven/platform/internal/shared/config"
	"github.com/mindhaven/platform/internal/shared/database"
	"github.com/mindhaven/platform/internal/shared/events"
	"github.com/mindhaven/platform/internal/shared/logging"
	"github.com/mindhaven/platform/internal/shared/metrics"
	secmiddleware "github.com/mindhaven/platform/internal/shared/middleware"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.Server.Env)

	app := &App{Config: cfg}

	// Database (optional - skip if not available)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database not available, running in limited mode", "error", err)
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			slog.Warn("migration failed", "error", err)
		}
	}

	// Clinical event stream (optional - skip if not available)
	bus, err := events.NewBus(ctx, cfg.EventStore)
	if err != nil {
		slog.Warn("event store not available, running without event streaming", "error", err)
	} else {
		app.Bus = bus
		defer bus.Close()
		slog.Info("event bus initialized")
	}

	// Notification delivery. Real providers plug in per deployment; the
	// default wiring logs to console so escalations are visible in dev.
	notifier := notification.NewService(map[notification.Channel]notification.Provider{
		notification.ChannelEmail: notification.NewConsoleProvider(notification.ChannelEmail),
		notification.ChannelSMS:   notification.NewConsoleProvider(notification.ChannelSMS),
		notification.ChannelPush:  notification.NewConsoleProvider(notification.ChannelPush),
	}, notification.ServiceConfig{
		Workers:       cfg.Notification.Workers,
		BufferSize:    cfg.Notification.BufferSize,
		RetryAttempts: cfg.Notification.RetryAttempts,
		RetryDelay:    cfg.Notification.RetryDelay,
	})
	if err := notifier.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start notification service: %v\n", err)
		os.Exit(1)
	}
	defer notifier.Stop()

	// Crisis detection core. Persistence-backed collaborators are wired
	// only when the database is up; the detector degrades gracefully.
	var (
		alertRepo    *alert.Repository
		careTeamRepo *careteam.Repository
		moodRepo     *mood.Repository
		detectorDeps crisis.Dependencies
		pipelineDeps crisis.PipelineDeps
	)
	pipelineDeps.Notifier = notifier
	pipelineDeps.Bus = app.Bus

	if app.DB != nil {
		alertRepo = alert.NewRepository(app.DB.Pool)
		careTeamRepo = careteam.NewRepository(app.DB.Pool)
		moodRepo = mood.NewRepository(app.DB.Pool)

		detectorDeps.MoodHistory = moodRepo
		detectorDeps.AlertHistory = alertRepo
		detectorDeps.Alerts = alertRepo

		pipelineDeps.Detections = alertRepo
		pipelineDeps.Alerts = alertRepo
		pipelineDeps.CareTeam = careTeamRepo
	}

	pipeline := crisis.NewPipeline(pipelineDeps, crisis.PipelineConfig{
		StepTimeout: cfg.Crisis.StepTimeout,
		DedupWindow: cfg.Crisis.AlertDedupWindow,
	})
	defer pipeline.Shutdown()

	detector := crisis.NewDetector(crisis.DefaultLexicon(), detectorDeps, pipeline, crisis.DetectorConfig{
		HistoryWindow:   cfg.Crisis.HistoryWindow,
		MoodSampleLimit: cfg.Crisis.MoodSampleLimit,
	})

	// Legacy clinic system sync (optional)
	var ehrAdapter *ehr.Adapter
	if cfg.EHR.Enabled && careTeamRepo != nil {
		ehrAdapter = ehr.New(cfg.EHR, careTeamRepo)
		if err := ehrAdapter.Start(ctx); err != nil {
			slog.Warn("clinic system adapter failed to start", "error", err)
			ehrAdapter = nil
		} else {
			slog.Info("clinic system adapter started", "host", cfg.EHR.Host)
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := ehrAdapter.Stop(stopCtx); err != nil {
					slog.Warn("clinic system adapter stop failed", "error", err)
				}
			}()
		}
	}

	rateLimiter := secmiddleware.NewIPRateLimiter(20, 40)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.BodyLimiter)
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", infoHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		if cfg.Server.Env == "production" {
			r.Use(auth.Middleware(cfg.Auth))
		}

		crisisHandler := crisis.NewHandler(detector)
		r.Mount("/crisis", crisisHandler.Routes())

		if app.DB != nil {
			moodHandler := mood.NewHandler(moodRepo, app.Bus, detector)
			r.Mount("/mood", moodHandler.Routes())

			careTeamHandler := careteam.NewHandler(careTeamRepo)
			r.Mount("/care-teams", careTeamHandler.Routes())

			alertHandler := alert.NewHandler(alertRepo)
			if cfg.Server.Env == "production" {
				r.With(auth.RequireClinician).Mount("/alerts", alertHandler.Routes())
			} else {
				r.Mount("/alerts", alertHandler.Routes())
			}
		}
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		close(done)
	}()

	slog.Info("mindhaven platform starting",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"database", app.DB != nil,
		"event_bus", app.Bus != nil,
		"clinic_sync", ehrAdapter != nil)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	slog.Info("server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "MindHaven Patient Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["event_bus"] = "not ready: " + err.Error()
			} else {
				checks["event_bus"] = "ready"
			}
		} else {
			checks["event_bus"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
