package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cloo-solutions/propertybot/internal/api/handlers"
	"github.com/cloo-solutions/propertybot/internal/config"
	"github.com/cloo-solutions/propertybot/internal/jobs"
	"github.com/cloo-solutions/propertybot/internal/server"
	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/cloo-solutions/propertybot/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the propertybot API and chat server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides PROPERTYBOT_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().StringSlice("allowed-origin", nil, "Origin allowed to open chat websockets (repeatable; default any)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
	} else {
		defer shutdownTelemetry()
	}

	if portFlag, _ := cmd.Flags().GetString("port"); portFlag != "" {
		cfg.Port = portFlag
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	a, err := newApp(ctx, cfg, appOptions{migrate: !noMigrate, chat: true})
	if err != nil {
		return err
	}
	defer a.Close()

	var importWorker *jobs.Worker
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if cfg.HasScheduledImport() {
		importJob := jobs.NewImportJob(a.importer, cfg.ImportFile)
		if cfg.ImportInterval > 0 {
			importWorker = jobs.NewWorker("import", importJob, cfg.ImportInterval).RunOnStart()
			go importWorker.Start(workerCtx)
		} else {
			go func() {
				if err := importJob.ProcessJobs(workerCtx); err != nil {
					log.Printf("startup import: %v", err)
				}
			}()
		}
	}

	allowedOrigins, _ := cmd.Flags().GetStringSlice("allowed-origin")

	routerCfg := server.RouterConfig{
		ChatHandler:   handlers.NewChatHandler(a.assistant, a.sessions, allowedOrigins),
		SearchHandler: handlers.NewSearchHandler(a.search),
		Metrics:       a.metrics.Handler(),
	}
	if cfg.HasAdminKey() {
		routerCfg.PropertyHandler = handlers.NewPropertyHandler(a.importer)
		routerCfg.AuthValidator = service.NewAdminAuth(cfg.AdminAPIKey)
	} else {
		log.Println("ADMIN_API_KEY not set: /properties and /imports are disabled")
	}

	srv := &http.Server{
		Addr:              ":" + strings.TrimPrefix(cfg.Port, ":"),
		Handler:           server.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if importWorker != nil {
		importWorker.Stop()
	}
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
