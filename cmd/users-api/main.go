// main is the entry point of the Users API application.
//
// Startup sequence:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured Record Store (mongo, sqlite or memory)
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close the store
//
// Running the server:
//
//	go run ./cmd/users-api --config=config/local.yaml
//
// or
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/users-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/http/router"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/storage/memory"
	"github.com/aanand-mishra/users-api/internal/storage/mongo"
	"github.com/aanand-mishra/users-api/internal/storage/sqlite"
)

func main() {
	// ── 1. Config ─────────────────────────────────────────────────────────
	// MustLoad exits on a missing file, an unknown storage driver or a
	// missing required key, so everything below can trust cfg.
	cfg := config.MustLoad()

	// ── 2. Logger ─────────────────────────────────────────────────────────
	// The handlers log through the package-level slog functions, so the
	// configured logger is installed as the default instead of being
	// passed around.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting users-api",
		slog.String("env", cfg.Env),
		slog.String("storage_driver", cfg.Storage.Driver),
	)

	// ── 3. Record Store ───────────────────────────────────────────────────
	// openStorage hands back the storage.Storage interface. Nothing past
	// this point knows whether users live in MongoDB, a SQLite file, or
	// process memory.
	store, err := openStorage(context.Background(), cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	// ── 4. Routes + server ────────────────────────────────────────────────
	// router.New binds the five user routes to the store. The timeouts
	// come from config; a zero value would mean "wait forever" on a
	// slow client, which is why cleanenv supplies defaults.
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router.New(store),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 5. Run until a signal or a listener failure ───────────────────────
	// NotifyContext cancels ctx on Ctrl+C (SIGINT) or SIGTERM, the signal
	// container runtimes send on stop.
	//
	// ListenAndServe blocks, so it runs in its own goroutine and reports
	// back on serveErr. The channel has room for one value so the
	// goroutine can always send and exit, even when main has stopped
	// listening.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping server...")
	case err := <-serveErr:
		// Shutdown has not been called yet, so even ErrServerClosed
		// here means the listener died on its own.
		log.Error("server encountered an error", slog.String("error", err.Error()))
		exitCode = 1
	}

	// ── 6. Graceful shutdown ──────────────────────────────────────────────
	// Shutdown stops accepting connections and waits for in-flight
	// requests, bounded by shutdown_timeout. The store is closed last,
	// after no handler can reach it any more.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		exitCode = 1
	}

	if err := store.Close(shutdownCtx); err != nil {
		log.Error("failed to close storage",
			slog.String("error", err.Error()))
		exitCode = 1
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	log.Info("server stopped gracefully")
}

// openStorage returns the backend named by cfg.Driver. config.Load has
// already rejected unknown names; the default branch only guards calls
// that bypass it.
//
// Each branch returns the concrete store through a named variable
// rather than "return sqlite.New(...)": returning a nil *SQLite as a
// storage.Storage would give the caller a non-nil interface holding a
// nil pointer.
//
// The mongo connect is bounded by connect_timeout so a wrong URI fails
// fast at startup instead of hanging.
func openStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverMongo:
		if cfg.Mongo.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
			defer cancel()
		}
		m, err := mongo.New(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// setupLogger picks the log format and level from the environment name.
//
//	dev (and anything unrecognised)  text, DEBUG   easy to read in a terminal
//	staging                          JSON, DEBUG   verbose but machine-parsable
//	prod                             JSON, INFO    what log aggregators ingest
//
// Not-found lookups are logged at DEBUG by the handlers, so prod logs
// carry only request lines and real store failures.
func setupLogger(env string) *slog.Logger {
	level := slog.LevelDebug
	if env == "prod" {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if env == "prod" || env == "staging" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
