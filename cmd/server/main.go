package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/ahsanfayaz52/notespark/internal/app"
	"github.com/ahsanfayaz52/notespark/internal/assist"
	"github.com/ahsanfayaz52/notespark/internal/config"
	"github.com/ahsanfayaz52/notespark/internal/handlers"
	"github.com/ahsanfayaz52/notespark/internal/logging"
	mcpserver "github.com/ahsanfayaz52/notespark/internal/mcp"
	"github.com/ahsanfayaz52/notespark/internal/middleware"
	"github.com/ahsanfayaz52/notespark/internal/render"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logging.New(os.Stderr, "info", "console").Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal().Err(err).Msg("refusing to start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open backends")
	}

	var assistant handlers.Assistant
	if cfg.OpenAIKey != "" {
		assistant = assist.New(cfg.OpenAIKey)
	} else {
		logger.Info().Msg("OPENAI_KEY not set, writing assist disabled")
	}

	r := mux.NewRouter()
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.RequestLogger(logger))
	handlers.Register(r, handlers.Deps{
		Accounts:  a.Accounts,
		JWT:       a.JWT,
		Store:     a.Store,
		Renderer:  render.New(),
		Assistant: assistant,
		MCP:       mcpserver.NewHTTPHandler(mcpserver.NewServer(a.Store)),
		Log:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	logger.Info().
		Str("port", cfg.Port).
		Str("store", cfg.StoreBackend).
		Str("api", "http://localhost:"+cfg.Port+"/api").
		Str("mcp", "http://localhost:"+cfg.Port+"/mcp").
		Msg("server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := a.Close(closeCtx); err != nil {
		logger.Warn().Err(err).Msg("close backends")
	}
	logger.Info().Msg("server stopped")
}
