package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vault-inventory/core/loader"
	"vault-inventory/core/logger"
	"vault-inventory/core/middleware/auth"
	"vault-inventory/core/middleware/rayid"
	"vault-inventory/core/storage"
	"vault-inventory/feature/inventory"
	"vault-inventory/feature/reconciliation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "vault-inventory/docs/swagger"
)

// @title Vault Inventory API
// @version 1.0
// @description API for storing, reserving and delivering digital stock items.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the inventory server",
	Long:  `Starts the HTTP server and the reconciliation scheduler.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load configuration, logger, database and the inventory engine
		rt, err := bootstrap(true)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer rt.close()
		logg := rt.logger
		zap.ReplaceGlobals(logg)
		cfg := rt.cfg

		if err := migrateSchema(rt.db); err != nil {
			logg.Fatal("Failed to migrate schema", zap.Error(err))
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 2. Storage is optional; it backs the report archive
		var archiver *reconciliation.Archiver
		if cfg.Storage.Enabled {
			store, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			if err := storage.EnsureBucket(ctx, store, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
				logg.Fatal("Failed to prepare storage bucket", zap.Error(err))
			}
			if cfg.Scheduler.ArchiveReports {
				archiver = reconciliation.NewArchiver(store, cfg.Storage.Bucket, logg)
				archiver.SetRetention(cfg.Scheduler.ArchiveRetain)
				rt.scheduler.OnReport(archiver.Observe)
			}
		}

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager(logg)
		mgr.Register(inventory.NewFeature(rt.service))
		mgr.Register(reconciliation.NewFeature(rt.scheduler, archiver, logg))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 2.5 Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 3. Auth (Protect API)
		if !cfg.Server.AuthEnabled() {
			logg.Warn("API key not configured; the API is unprotected")
		}
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start the scheduler
		if cfg.Scheduler.Enabled {
			rt.scheduler.Start(ctx)
			logg.Info("Reconciliation scheduler started", zap.Strings("passes", rt.scheduler.Passes()))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
			logg.Warn("Server shutdown incomplete", zap.Error(err))
		}
		cancel()
		rt.scheduler.Wait()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
