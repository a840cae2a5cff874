package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/careercompass/compass/internal/api"
	"github.com/careercompass/compass/internal/backup"
	"github.com/careercompass/compass/internal/config"
	"github.com/careercompass/compass/internal/sheets"
	"github.com/careercompass/compass/internal/store"
	"github.com/careercompass/compass/internal/summary"
	"github.com/careercompass/compass/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "compass",
	Short: "Compass - Career Work-Log Service",
	RunE:  run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	initLogger(cfg.Log)
	slog.Info("configuration loaded")

	// 4. Initialize the spreadsheet gateway
	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}
	slog.Info("spreadsheet gateway initialized", "spreadsheet_id", cfg.Sheets.SpreadsheetID)

	// 5. Initialize the schema-enforcing store
	repo := store.New(gateway, cfg.Sheets.MaxConcurrent)
	slog.Info("store initialized", "max_concurrent", cfg.Sheets.MaxConcurrent)

	// 6. Initialize the summarizer
	var summarizer summary.Summarizer = summary.Fallback{}
	if cfg.Summarizer.Enabled {
		summarizer = summary.NewOpenAI(cfg.Summarizer.APIKey, cfg.Summarizer.Model)
		slog.Info("summarizer initialized", "model", cfg.Summarizer.Model)
	}

	// 7. Initialize HTTP router
	handler := api.NewHandler(repo, summarizer, cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	// 8. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 9. Worker lifecycle infrastructure
	var wg sync.WaitGroup
	if cfg.Reminder.Enabled {
		var notifier worker.Notifier = worker.LogNotifier{}
		if cfg.Reminder.WebhookURL != "" {
			notifier = worker.NewWebhookNotifier(cfg.Reminder.WebhookURL)
		}
		reminders := worker.NewReminderCoordinator(
			repo,
			notifier,
			time.Duration(cfg.Reminder.Interval),
			cfg.Reminder.LookaheadDays,
			cfg.Reminder.Message,
		)
		startWorker(ctx, &wg, "reminder", reminders.Run)
	}
	if cfg.Backup.Bucket != "" {
		uploader, err := backup.NewUploader(cfg.Backup)
		if err != nil {
			return err
		}
		backups := worker.NewBackupCoordinator(
			backup.NewExporter(gateway, uploader),
			time.Duration(cfg.Backup.Interval),
		)
		startWorker(ctx, &wg, "backup", backups.Run)
	}

	// 10. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		// Any other error indicates an actual server failure that should trigger shutdown.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel() // Trigger shutdown on server failure
		}
	}()

	// 11. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 12. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 12a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 12b. Wait for workers to complete
	wg.Wait()

	slog.Info("shutdown complete")
	return nil
}

// newGateway builds the authenticated spreadsheet client from configuration.
func newGateway(cfg *config.Config) (*sheets.Client, error) {
	creds, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	tokens, err := sheets.NewServiceAccountTokenSource(creds)
	if err != nil {
		return nil, err
	}
	return sheets.NewClient(sheets.Options{
		Endpoint:      cfg.Sheets.Endpoint,
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		Tokens:        tokens,
		Retry: sheets.RetryPolicy{
			MaxAttempts:    cfg.Sheets.MaxAttempts,
			InitialBackoff: time.Duration(cfg.Sheets.InitialBackoff),
		},
	}), nil
}

func initLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
