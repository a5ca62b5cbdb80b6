// main is the entry point of the estudantes API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Connect to the MySQL database (retrying while it boots)
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close the pool, exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/estudantes-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/estudantes-api
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/escolalab/estudantes-api/internal/config"
	"github.com/escolalab/estudantes-api/internal/http/handlers/estudante"
	"github.com/escolalab/estudantes-api/internal/storage/mysql"
)

func main() {
	// MustLoad reads the YAML config and fatals if anything is wrong.
	// If this returns, config is guaranteed valid.
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting estudantes-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// mysql.New opens the pool, pings the server under backoff, and
	// creates the estudantes table. The result is held as the
	// storage.Storage interface — handlers never see the concrete type,
	// so swapping the backing store touches only this line.
	store, err := mysql.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name))

	// Route table (Go 1.22+ method-pattern ServeMux):
	//   GET    /estudantes        → list all
	//   GET    /estudantes/{id}   → get one by id
	//   POST   /estudantes        → create
	//   PUT    /estudantes/{id}   → full-record update
	//   DELETE /estudantes/{id}   → delete (idempotent)
	//
	// The handler factories receive `store` once at startup and return
	// the actual per-request handlers.
	router := http.NewServeMux()

	router.HandleFunc("GET /estudantes", estudante.GetList(store))
	router.HandleFunc("GET /estudantes/{id}", estudante.GetByID(store))
	router.HandleFunc("POST /estudantes", estudante.New(store))
	router.HandleFunc("PUT /estudantes/{id}", estudante.Update(store))
	router.HandleFunc("DELETE /estudantes/{id}", estudante.Delete(store))

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router,

		// Timeouts guard against slow clients holding connections open.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ListenAndServe blocks, so it runs in its own goroutine and main
	// stays free to wait for the shutdown signal below.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ErrServerClosed is the expected result of Shutdown() — not a
		// failure worth logging.
		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Buffered so the signal is not missed if main is briefly busy.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// In-flight requests get five seconds to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := store.Close(); err != nil {
		log.Error("failed to close storage",
			slog.String("error", err.Error()))
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level, easy to
// ingest by log aggregators.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
