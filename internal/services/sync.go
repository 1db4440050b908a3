package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/meridianwm/backoffice/internal/models"
)

// SyncUploader is recorded as the uploader of sync-ingested versions.
const SyncUploader = "drive-sync"

// SyncConfig holds the reconciliation knobs.
type SyncConfig struct {
	// FolderID is the watched Drive folder.
	FolderID string
	// DefaultExpiry is the expiry horizon seeded on ingested files.
	DefaultExpiry time.Duration
	// ExpiryWindow mirrors the compliance window, used to compute the
	// days-remaining figure in expiry warnings.
	ExpiryWindow time.Duration
}

// SyncResult reports one tick. Err is set when the tick aborted partway;
// files ingested before the failure are retained.
type SyncResult struct {
	Success       bool  `json:"success"`
	Skipped       bool  `json:"skipped,omitempty"`
	NewFilesCount int   `json:"newFilesCount"`
	Err           error `json:"-"`
}

// SyncJob reconciles the watched Drive folder against the metadata store.
// One tick lists the folder, diffs against known ids, and ingests each new
// file end to end. A file whose ingestion fails stays unknown and is retried
// on the next tick; a file whose record was written is never re-ingested
// because the record id is the Drive file id.
type SyncJob struct {
	drive     DriveAPI
	store     MetadataStore
	tagger    TagExtractor
	extractor TextExtractor
	notifier  NotificationSender
	config    SyncConfig
	now       func() time.Time

	inFlight atomic.Bool
}

// NewSyncJob wires the reconciliation job.
func NewSyncJob(driveAPI DriveAPI, store MetadataStore, tagger TagExtractor, extractor TextExtractor, notifier NotificationSender, config SyncConfig) *SyncJob {
	if config.DefaultExpiry <= 0 {
		config.DefaultExpiry = 365 * 24 * time.Hour
	}
	if config.ExpiryWindow <= 0 {
		config.ExpiryWindow = 7 * 24 * time.Hour
	}
	return &SyncJob{
		drive:     driveAPI,
		store:     store,
		tagger:    tagger,
		extractor: extractor,
		notifier:  notifier,
		config:    config,
		now:       time.Now,
	}
}

// Run executes one tick per interval until the context is cancelled. Errors
// never escape a tick: the next tick always gets its chance.
func (j *SyncJob) Run(ctx context.Context, interval time.Duration) {
	slog.Info("Drive sync started.", "folderId", j.config.FolderID, "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunTick(ctx)
		case <-ctx.Done():
			slog.Info("Drive sync stopped.", "reason", ctx.Err())
			return
		}
	}
}

// RunTick performs one reconciliation pass. It never panics or propagates
// past this boundary; the result carries the outcome. If a previous tick is
// still running the call is skipped.
func (j *SyncJob) RunTick(ctx context.Context) SyncResult {
	if !j.inFlight.CompareAndSwap(false, true) {
		slog.Warn("Sync tick skipped: previous tick still running.")
		syncTicksTotal.WithLabelValues("skipped").Inc()
		return SyncResult{Success: true, Skipped: true}
	}
	defer j.inFlight.Store(false)

	result := j.tick(ctx)
	if result.Err != nil {
		slog.Error("Sync tick failed.", "newFilesIngested", result.NewFilesCount, "error", result.Err)
		syncTicksTotal.WithLabelValues("error").Inc()
	} else {
		slog.Info("Sync tick complete.", "newFilesIngested", result.NewFilesCount)
		syncTicksTotal.WithLabelValues("ok").Inc()
	}
	return result
}

func (j *SyncJob) tick(ctx context.Context) SyncResult {
	driveFiles, err := j.drive.ListFolder(ctx, j.config.FolderID)
	if err != nil {
		return SyncResult{Err: fmt.Errorf("list drive folder: %w", err)}
	}

	knownIDs, err := j.store.KnownIDs(ctx)
	if err != nil {
		return SyncResult{Err: fmt.Errorf("list known documents: %w", err)}
	}

	newFiles := diffNewFiles(driveFiles, knownIDs)
	slog.Info("Sync diff computed.",
		"driveFiles", len(driveFiles),
		"knownDocuments", len(knownIDs),
		"newFiles", len(newFiles),
	)

	ingested := 0
	for _, f := range newFiles {
		if err := j.ingest(ctx, f); err != nil {
			syncIngestFailures.Inc()
			// The failed file has no record yet, so the next tick retries it.
			return SyncResult{
				NewFilesCount: ingested,
				Err:           fmt.Errorf("ingest %s (%s): %w", f.Name, f.ID, err),
			}
		}
		ingested++
		syncFilesIngested.Inc()
	}

	j.scanExpiries(ctx)

	return SyncResult{Success: true, NewFilesCount: ingested}
}

// diffNewFiles returns the Drive files without a metadata record, preserving
// the Drive listing order.
func diffNewFiles(driveFiles []models.DriveFile, known map[string]struct{}) []models.DriveFile {
	newFiles := make([]models.DriveFile, 0)
	for _, f := range driveFiles {
		if _, ok := known[f.ID]; !ok {
			newFiles = append(newFiles, f)
		}
	}
	return newFiles
}

// ingest runs the full pipeline for one new Drive file: download, extract,
// tag, store. The record write is the ingestion boundary; the new-file
// notification afterwards is best effort and never gates "seen" status.
func (j *SyncJob) ingest(ctx context.Context, f models.DriveFile) error {
	logCtx := slog.With("driveFileId", f.ID, "fileName", f.Name)
	logCtx.Info("Ingesting new Drive file.")

	localPath, cleanup, err := j.download(ctx, f)
	if err != nil {
		return err
	}
	defer cleanup()

	text, err := j.extractor.Text(localPath)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	tags, err := j.tagger.ExtractTags(ctx, text)
	if err != nil {
		return fmt.Errorf("tag document: %w", err)
	}

	now := j.now()
	expiry := now.Add(j.config.DefaultExpiry)
	firstVersion := models.NextVersion(nil, models.DocumentVersion{
		DriveFileID: f.ID,
		FileName:    f.Name,
		UploadedAt:  now,
		Uploader:    SyncUploader,
	})

	fields := map[string]any{
		"fileName":      f.Name,
		"driveFileId":   f.ID,
		"aiTags":        models.AITags{Tags: tags.Tags},
		"uploadedAt":    now,
		"createdTime":   f.CreatedTime,
		"lastModified":  f.ModifiedTime,
		"size":          f.Size,
		"mimetype":      f.MimeType,
		"category":      tags.SuggestedCategory,
		"driveFolderId": j.config.FolderID,
		"status":        models.StatusPendingReview,
		"expiryDate":    expiry,
		"versions":      []models.DocumentVersion{firstVersion},
	}
	if err := j.store.Upsert(ctx, f.ID, fields); err != nil {
		return fmt.Errorf("store metadata: %w", err)
	}

	if err := j.notifier.NotifyNewFile(ctx, f.Name, f.ID); err != nil {
		logCtx.Warn("New-file notification failed; ingestion is already durable.", "error", err)
	}

	logCtx.Info("Drive file ingested.", "tags", len(tags.Tags))
	return nil
}

// download streams the Drive file body into a temp file, preserving the
// extension so the extractor can pick the right parser.
func (j *SyncJob) download(ctx context.Context, f models.DriveFile) (string, func(), error) {
	body, err := j.drive.Download(ctx, f.ID)
	if err != nil {
		return "", nil, err
	}
	defer body.Close()

	tempDir, err := os.MkdirTemp("", "drive-sync-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tempDir) }

	localPath := filepath.Join(tempDir, "source"+filepath.Ext(f.Name))
	localFile, err := os.Create(localPath)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	defer localFile.Close()

	if _, err := io.Copy(localFile, body); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("copy drive file body: %w", err)
	}
	return localPath, cleanup, nil
}

// scanExpiries walks the stored records and raises expiry warnings and
// compliance issues for documents that need attention. Best effort: failures
// are logged and never fail the tick.
func (j *SyncJob) scanExpiries(ctx context.Context) {
	records, err := j.store.List(ctx, models.ListFilter{})
	if err != nil {
		slog.Warn("Expiry scan could not list documents.", "error", err)
		return
	}

	now := j.now()
	for i := range records {
		rec := &records[i]
		switch rec.ComplianceStatus {
		case models.ComplianceExpiringSoon:
			days := int(rec.ExpiryDate.Sub(now).Hours() / 24)
			if err := j.notifier.NotifyExpiryWarning(ctx, rec.ID, days); err != nil {
				slog.Warn("Expiry warning failed.", "documentId", rec.ID, "error", err)
			}
		case models.ComplianceMissingTags, models.ComplianceMissingExpiry, models.ComplianceMissingStatus:
			if err := j.notifier.NotifyComplianceIssue(ctx, rec.ID, string(rec.ComplianceStatus)); err != nil {
				slog.Warn("Compliance notification failed.", "documentId", rec.ID, "error", err)
			}
		}
	}
}
