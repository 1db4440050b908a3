// The sync-tick binary runs exactly one Drive reconciliation pass and exits.
// It exists for cron-style schedulers and for manual reconciliation runs; the
// long-running server performs the same pass on its own interval.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/meridianwm/backoffice/internal/config"
	"github.com/meridianwm/backoffice/internal/drive"
	"github.com/meridianwm/backoffice/internal/extract"
	"github.com/meridianwm/backoffice/internal/gcp"
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

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
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

	documentStore := store.NewDocuments(firestoreClient, cfg.Google.FirestoreCollection, cfg.Compliance.ExpiryWindow)
	notifier := services.NewNotifier(store.NewNotifications(firestoreClient))
	tagExtractor := tagger.New(vertexClient, tagger.Config{
		CallTimeout:   cfg.Tagger.CallTimeout,
		MaxInputBytes: cfg.Tagger.MaxInputBytes,
	})

	job := services.NewSyncJob(
		drive.New(driveSvc, cfg.Drive.CallTimeout),
		documentStore,
		tagExtractor,
		extract.New(),
		notifier,
		services.SyncConfig{
			FolderID:      cfg.Drive.SyncFolderID,
			DefaultExpiry: cfg.Compliance.DefaultExpiry,
			ExpiryWindow:  cfg.Compliance.ExpiryWindow,
		},
	)

	result := job.RunTick(ctx)
	if result.Err != nil {
		os.Exit(1)
	}
}
