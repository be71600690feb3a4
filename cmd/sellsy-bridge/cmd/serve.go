package cmd

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/lutece-labs/sellsy-bridge/pkg/db"
	"github.com/lutece-labs/sellsy-bridge/pkg/sellsy/webhook"
)

var serveAddr string

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Sellsy webhook listener",
	Long: `Run an HTTP server receiving Sellsy webhook notifications.

Every notification POSTed to /webhooks/sellsy is parsed and archived in the
local SQLite store. Sellsy retries deliveries that do not get a 200, so the
endpoint acknowledges every request, including malformed ones.

Example:
  sellsy-bridge serve
  sellsy-bridge serve --addr :9000`,
	Run: runServe,
}

func init() {
	// Flags
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from WEBHOOK_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadValidatedConfig()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Webhook.Addr
	}

	slog.Debug("Opening store", "path", cfg.Ledger.DBPath)
	store, err := db.Open(cfg.Ledger.DBPath)
	exitOnError(err, "failed to open store")
	defer store.Close()

	// Setup router.
	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/webhooks/sellsy", func(w http.ResponseWriter, req *http.Request) {
		event := webhook.ParseNotification(req)
		if event != nil {
			payload, _ := json.Marshal(event.Payload)
			if err := store.RecordEvent(event.EventType, event.RelatedType, int64(event.RelatedID), payload); err != nil {
				slog.Error("failed to archive webhook event", "event", event.EventType, "error", err)
			} else {
				slog.Info("archived webhook event",
					"event", event.EventType,
					"related_type", event.RelatedType,
					"related_id", int64(event.RelatedID),
				)
			}
		}

		// Always acknowledge, Sellsy retries anything else.
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Health check endpoint.
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	slog.Info("starting webhook listener", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
