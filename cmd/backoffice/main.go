// The backoffice binary serves the document pipeline API and, unless
// disabled, runs the periodic Drive sync in the background.
package main

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/meridianwm/backoffice/internal/api/handlers"
	"github.com/meridianwm/backoffice/internal/config"
	"github.com/meridianwm/backoffice/internal/drive"
	"github.com/meridianwm/backoffice/internal/extract"
	"github.com/meridianwm/backoffice/internal/gcp"
	"github.com/meridianwm/backoffice/internal/server"
	"github.com/meridianwm/backoffice/internal/services"
	"github.com/meridianwm/backoffice/internal/store"
	"github.com/meridianwm/backoffice/internal/tagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed.", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx := context.Background()

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.Google.ProjectID)
	if err != nil {
		logger.Error("Firestore client failed.", "error", err)
		os.Exit(1)
	}
	defer firestoreClient.Close()

	vertexClient, err := gcp.NewVertexClient(ctx, cfg.Google.ProjectID, cfg.Google.VertexRegion, cfg.Tagger.Model)
	if err != nil {
		logger.Error("Vertex client failed.", "error", err)
		os.Exit(1)
	}
	defer vertexClient.Close()

	driveSvc, err := gcp.NewDriveService(ctx, gcp.DriveCredentials{
		ClientID:     cfg.Drive.ClientID,
		ClientSecret: cfg.Drive.ClientSecret,
		RedirectURI:  cfg.Drive.RedirectURI,
		AccessToken:  cfg.Drive.AccessToken,
		RefreshToken: cfg.Drive.RefreshToken,
	})
	if err != nil {
		logger.Error("Drive service failed.", "error", err)
		os.Exit(1)
	}

	driveClient := drive.New(driveSvc, cfg.Drive.CallTimeout)
	documentStore := store.NewDocuments(firestoreClient, cfg.Google.FirestoreCollection, cfg.Compliance.ExpiryWindow)
	notificationStore := store.NewNotifications(firestoreClient)
	extractor := extract.New()
	tagExtractor := tagger.New(vertexClient, tagger.Config{
		CallTimeout:   cfg.Tagger.CallTimeout,
		MaxInputBytes: cfg.Tagger.MaxInputBytes,
	})
	notifier := services.NewNotifier(notificationStore)

	documents := services.NewDocuments(driveClient, documentStore, tagExtractor, extractor, notifier, services.DocumentsConfig{
		UploadFolderID: cfg.Drive.UploadFolderID,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, runCtx := errgroup.WithContext(runCtx)

	if cfg.Sync.Enabled {
		syncJob := services.NewSyncJob(driveClient, documentStore, tagExtractor, extractor, notifier, services.SyncConfig{
			FolderID:      cfg.Drive.SyncFolderID,
			DefaultExpiry: cfg.Compliance.DefaultExpiry,
			ExpiryWindow:  cfg.Compliance.ExpiryWindow,
		})
		group.Go(func() error {
			syncJob.Run(runCtx, cfg.Sync.Interval)
			return nil
		})
	} else {
		logger.Info("Drive sync disabled by configuration.")
	}

	h := handlers.New(documents, notifier, cfg.Server.MaxUploadBytes, logger)
	srv := server.New(cfg.Server, h, logger)
	group.Go(func() error {
		// A server exit, clean or not, also stops the sync loop.
		defer cancel()
		return srv.Run(runCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("Server exited with error.", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
