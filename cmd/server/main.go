package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/canvasforge/gamevault/pkg/gamevault/api"
	"github.com/canvasforge/gamevault/pkg/gamevault/config"
)

// serverEnv holds server-level settings read directly from the environment.
// Service-level settings (database, content store) go through config.WithEnv.
type serverEnv struct {
	Port            string        `env:"PORT" env-default:"8080"`
	Environment     string        `env:"ENVIRONMENT" env-default:"development"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxRequestBytes int64         `env:"MAX_REQUEST_BYTES" env-default:"67108864"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var env serverEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		logger.Error("Failed to read environment", "error", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	serverConfig.Port = env.Port
	serverConfig.Environment = env.Environment

	ctx := context.Background()
	svc, err := serverConfig.BuildService(ctx)
	if err != nil {
		logger.Error("Failed to build service", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(api.RequestID)
	r.Use(api.RequestLogger(logger))
	r.Use(api.Recoverer)
	r.Use(api.RequestSizeLimit(env.MaxRequestBytes))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(120 * time.Second))

	if serverConfig.Environment == "development" {
		r.Use(devCORS)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","environment":%q,"store":%q}`,
			serverConfig.Environment, serverConfig.StoreType)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/games", api.NewGamesHandler(svc).Routes())
	})

	httpServer := &http.Server{
		Addr:    ":" + env.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Game vault server starting",
			"port", env.Port,
			"environment", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"store", serverConfig.StoreType,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exiting")
}

// devCORS allows any origin during development.
func devCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Wallet-Address, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
