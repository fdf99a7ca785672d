package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/varsilias/energy-advisor/internal/advisor"
	"github.com/varsilias/energy-advisor/internal/api"
	"github.com/varsilias/energy-advisor/internal/buildinfo"
	"github.com/varsilias/energy-advisor/internal/chat"
	"github.com/varsilias/energy-advisor/internal/config"
	"github.com/varsilias/energy-advisor/internal/gemini"
	"github.com/varsilias/energy-advisor/internal/keys"
	"github.com/varsilias/energy-advisor/internal/knowledge"
	"github.com/varsilias/energy-advisor/internal/logging"
	"github.com/varsilias/energy-advisor/internal/middleware"
	"github.com/varsilias/energy-advisor/internal/session"
	"github.com/varsilias/energy-advisor/internal/ui"
	"github.com/varsilias/energy-advisor/web"
)

func main() {
	loadedEnv, envErr := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	level := flag.String("log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	json := flag.Bool("log-json", cfg.LogJSON, "log as JSON")
	keySelection := flag.Bool("key-selection", cfg.KeySelection, "let the browser pick the API key")
	adminAPI := flag.Bool("admin-api", cfg.AdminAPI, "mount the unauthenticated /admin/key endpoint")
	flag.Parse()

	cfg.Addr, cfg.LogLevel, cfg.LogJSON, cfg.KeySelection = *addr, *level, *json, *keySelection
	cfg.AdminAPI = *adminAPI
	if err := cfg.Validate(); err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogJSON)
	logger.Info("build", "version", buildinfo.Version, "commit", buildinfo.Commit, "built_at", buildinfo.BuiltAt)
	if envErr != nil {
		logger.Warn("dotenv", "err", envErr)
	} else if loadedEnv {
		logger.Debug("loaded .env")
	}
	if config.APIKey() == "" {
		logger.Warn("API_KEY is not defined. Gemini API calls may fail.")
	}

	// With key selection on, the host both prompts the browser and supplies
	// the chosen key; otherwise the key only ever comes from the environment.
	var (
		creds    keys.CredentialSource = keys.EnvSource(config.APIKey)
		selector keys.Selector
		host     *keys.Host
	)
	if cfg.KeySelection {
		host = keys.NewHost(config.APIKey)
		creds, selector = host, host
	}

	gem := gemini.NewClient(logger, creds)
	adv := advisor.New(logger, gem, knowledge.Guide(), selector)

	chatCtrl := chat.NewController(logger, adv, session.NewMemoryStore())

	uih, err := ui.New(logger, chatCtrl, host)
	if err != nil {
		logger.Error("ui init", "err", err)
		os.Exit(1)
	}

	h := api.NewHandlers(logger, chatCtrl)
	if host != nil && cfg.AdminAPI {
		h.Admin = api.NewAdmin(host)
		logger.Warn("admin key endpoint enabled without authentication", "path", "/admin/key")
	}

	mux := chi.NewRouter()
	mux.Use(chiMiddleware.RealIP)
	mux.Use(chiMiddleware.Heartbeat("/ping"))

	mux.Handle("/static/*", http.StripPrefix("/static/", web.StaticHandler()))

	ui.RegisterRoutes(mux, uih)
	api.RegisterRoutes(mux, h)

	var handler http.Handler = mux
	handler = middleware.Recoverer(logger)(handler)
	handler = middleware.AccessLog(logger)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.VersionHeader()(handler)

	server := http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// /api/chat holds the request for the whole model call.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() { errChan <- server.ListenAndServe() }()
	logger.Info("server listening", "addr", server.Addr, "model", advisor.Model, "key_selection", cfg.KeySelection)

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	if err := chatCtrl.Wait(shutdownCtx); err != nil {
		logger.Warn("advisory call still running at exit", "err", err)
	}
	logger.Info("server stopped")
}
