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

	"filevault/config"
	"filevault/database"
	_ "filevault/docs" // Swagger document
	"filevault/handlers"
	"filevault/identity"
	"filevault/logger"
	"filevault/models"
	"filevault/services"
	"filevault/storage"
	"filevault/utils"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title FileVault API
// @version 1.0
// @description Per-user file storage: folders, uploads and downloads

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token or session cookie, checked by the identity service

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	logConfig := logger.Config{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		LogDir:     cfg.Logging.Dir,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,                // days
		UseColor:   true,
		ShowCaller: false,
	}
	if err := logger.Initialize(logConfig); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Info("FileVault Server Starting")
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	blobs, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatal("Failed to prepare upload directory: %v", err)
	}

	validator, err := identity.NewValidator(cfg.Auth)
	if err != nil {
		logger.Fatal("Failed to configure authentication: %v", err)
	}

	var signer *utils.URLSigner
	if cfg.Storage.SignedURLs {
		signer = utils.NewURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
	}

	folderService := services.NewFolderService(db, blobs)
	fileService := services.NewFileService(db, blobs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Reconcile.Interval > 0 {
		reconciler := services.NewReconciler(db, blobs, cfg.Reconcile.OrphanGrace)
		sweep := reconciler.StartReconciler(ctx, cfg.Reconcile.Interval)
		defer sweep.Stop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)
	handlers.RegisterRoutes(mux, handlers.Routes{
		Folders:   handlers.NewFolderHandler(folderService),
		Files:     handlers.NewFileHandler(fileService, cfg.Storage.MaxUploadSize, signer),
		Uploads:   handlers.NewUploadsHandler(blobs, signer),
		Validator: validator,
		Client:    models.ClientConfig{APIBaseURL: cfg.Client.APIBaseURL},

		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Minute,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening on http://localhost:%s", cfg.Server.Port)
		logger.Info("Swagger UI: http://localhost:%s/swagger/index.html", cfg.Server.Port)
		logger.Info("Upload directory: %s", blobs.BaseDir())
		logger.Info("Database driver: %s", cfg.Database.Driver)
		logger.Info("Auth mode: %s", cfg.Auth.Mode)
		logger.Info("Log level: %s", logger.GetLevel())
		logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Warn("Received shutdown signal: %s", sig)
	case err := <-serverErr:
		logger.Error("Server failed: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
	cancel()
	logger.Info("Server stopped")
}
