package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridianwm/backoffice/internal/drive"
	"github.com/meridianwm/backoffice/internal/extract"
	"github.com/meridianwm/backoffice/internal/models"
)

// ErrValidation marks a request rejected before any upstream call was made.
var ErrValidation = errors.New("invalid request")

// DocumentsConfig holds the knobs of the interactive document pipeline.
type DocumentsConfig struct {
	// UploadFolderID is the Drive folder interactive uploads land in.
	UploadFolderID string
}

// DocumentsService runs the interactive pipeline: extract, tag, upload,
// store. One instance is constructed at startup and shared by all handlers.
type DocumentsService struct {
	drive     DriveAPI
	store     MetadataStore
	tagger    TagExtractor
	extractor TextExtractor
	notifier  NotificationSender
	config    DocumentsConfig
	now       func() time.Time
}

// NewDocuments wires the interactive document service.
func NewDocuments(driveAPI DriveAPI, store MetadataStore, tagger TagExtractor, extractor TextExtractor, notifier NotificationSender, config DocumentsConfig) *DocumentsService {
	return &DocumentsService{
		drive:     driveAPI,
		store:     store,
		tagger:    tagger,
		extractor: extractor,
		notifier:  notifier,
		config:    config,
		now:       time.Now,
	}
}

// Upload runs extract → tag → Drive upload → store for one local file and
// returns the Drive file id and the tag result. Extraction and upstream
// failures are fatal for the request; the new-file notification is best
// effort and never fails an upload that already landed.
func (s *DocumentsService) Upload(ctx context.Context, localPath, fileName, uploader string) (string, models.TagResult, error) {
	if err := s.validateUpload(localPath, fileName); err != nil {
		return "", models.TagResult{}, err
	}

	text, err := s.extractor.Text(localPath)
	if err != nil {
		return "", models.TagResult{}, fmt.Errorf("extract text from %s: %w", fileName, err)
	}

	pageCount := 0
	if extract.KindForPath(fileName) == extract.KindPDF {
		pageCount, err = s.extractor.PageCount(localPath)
		if err != nil {
			slog.Warn("Could not determine PDF page count.", "fileName", fileName, "error", err)
			pageCount = 0
		}
	}

	tags, err := s.tagger.ExtractTags(ctx, text)
	if err != nil {
		return "", models.TagResult{}, fmt.Errorf("tag %s: %w", fileName, err)
	}

	var parents []string
	if s.config.UploadFolderID != "" {
		parents = []string{s.config.UploadFolderID}
	}
	driveFile, err := s.drive.Upload(ctx, localPath, fileName, parents)
	if err != nil {
		return "", models.TagResult{}, err
	}

	now := s.now()
	createdTime := driveFile.CreatedTime
	if createdTime.IsZero() {
		createdTime = now
	}
	firstVersion := models.NextVersion(nil, models.DocumentVersion{
		DriveFileID: driveFile.ID,
		FileName:    fileName,
		UploadedAt:  now,
		Uploader:    uploader,
	})

	fields := map[string]any{
		"fileName":      fileName,
		"driveFileId":   driveFile.ID,
		"aiTags":        models.AITags{Tags: tags.Tags},
		"uploadedAt":    now,
		"createdTime":   createdTime,
		"lastModified":  now,
		"size":          driveFile.Size,
		"mimetype":      driveFile.MimeType,
		"category":      tags.SuggestedCategory,
		"driveFolderId": s.config.UploadFolderID,
		"status":        models.StatusPendingReview,
		"uploader":      uploader,
		"versions":      []models.DocumentVersion{firstVersion},
	}
	if pageCount > 0 {
		fields["pageCount"] = pageCount
	}
	if err := s.store.Upsert(ctx, driveFile.ID, fields); err != nil {
		return "", models.TagResult{}, err
	}

	if err := s.notifier.NotifyNewFile(ctx, fileName, driveFile.ID); err != nil {
		slog.Warn("New-file notification failed after upload.", "documentId", driveFile.ID, "error", err)
	}

	return driveFile.ID, tags, nil
}

// List returns filtered records with derived compliance status.
func (s *DocumentsService) List(ctx context.Context, filter models.ListFilter) ([]models.DocumentMetadata, error) {
	return s.store.List(ctx, filter)
}

// Get fetches one record.
func (s *DocumentsService) Get(ctx context.Context, id string) (*models.DocumentMetadata, error) {
	return s.store.Get(ctx, id)
}

// DocumentPatch carries the mutable metadata fields of a PATCH request. Nil
// pointers leave the stored value untouched.
type DocumentPatch struct {
	FileName   *string    `json:"fileName"`
	Tags       *[]string  `json:"tags"`
	Status     *string    `json:"status"`
	Category   *string    `json:"category"`
	ExpiryDate *time.Time `json:"expiryDate"`
}

func (p DocumentPatch) isEmpty() bool {
	return p.FileName == nil && p.Tags == nil && p.Status == nil &&
		p.Category == nil && p.ExpiryDate == nil
}

// Patch merges the given fields into an existing record. A file rename is
// propagated to Drive so the stored display name stays in sync.
func (s *DocumentsService) Patch(ctx context.Context, id string, patch DocumentPatch) error {
	if patch.isEmpty() {
		return fmt.Errorf("%w: patch body contains no updatable fields", ErrValidation)
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}

	fields := map[string]any{"lastModified": s.now()}
	if patch.FileName != nil {
		fields["fileName"] = *patch.FileName
		if err := s.drive.UpdateMetadata(ctx, id, drive.MetadataPatch{Name: *patch.FileName}); err != nil {
			return err
		}
	}
	if patch.Tags != nil {
		fields["aiTags"] = models.AITags{Tags: *patch.Tags}
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.Category != nil {
		fields["category"] = *patch.Category
	}
	if patch.ExpiryDate != nil {
		fields["expiryDate"] = *patch.ExpiryDate
	}

	return s.store.Upsert(ctx, id, fields)
}

// Move relocates the Drive file into a new folder and updates the record's
// classification.
func (s *DocumentsService) Move(ctx context.Context, id, category, folderID string) error {
	if folderID == "" {
		return fmt.Errorf("%w: folderId is required", ErrValidation)
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}

	if err := s.drive.Move(ctx, id, folderID); err != nil {
		return err
	}

	fields := map[string]any{
		"driveFolderId": folderID,
		"lastModified":  s.now(),
	}
	if category != "" {
		fields["category"] = category
	}
	return s.store.Upsert(ctx, id, fields)
}

// CreateFolder creates a Drive folder for document categorization.
func (s *DocumentsService) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: folder name is required", ErrValidation)
	}
	return s.drive.CreateFolder(ctx, name, parentID)
}

// validateUpload sanity-checks the file body before anything reaches Drive.
// Only PDFs have a cheap structural check; other kinds pass through.
func (s *DocumentsService) validateUpload(localPath, fileName string) error {
	if extract.KindForPath(fileName) != extract.KindPDF {
		return nil
	}
	if err := s.extractor.ValidatePDF(localPath); err != nil {
		return fmt.Errorf("%w: %s is not a readable PDF: %v", ErrValidation, fileName, err)
	}
	return nil
}

// UploadVersion uploads a new file body to Drive and appends it to the
// document's version history. The new version becomes current.
func (s *DocumentsService) UploadVersion(ctx context.Context, id, localPath, fileName, uploader string) (int, error) {
	if err := s.validateUpload(localPath, fileName); err != nil {
		return 0, err
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	parents := []string{s.config.UploadFolderID}
	if rec.DriveFolderID != "" {
		parents = []string{rec.DriveFolderID}
	}
	driveFile, err := s.drive.Upload(ctx, localPath, fileName, parents)
	if err != nil {
		return 0, err
	}

	return s.store.AppendVersion(ctx, id, models.DocumentVersion{
		DriveFileID: driveFile.ID,
		FileName:    fileName,
		UploadedAt:  s.now(),
		Uploader:    uploader,
	})
}

// Versions returns the document's full version history.
func (s *DocumentsService) Versions(ctx context.Context, id string) ([]models.DocumentVersion, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Versions, nil
}

// Restore makes a prior version current without rewriting history.
func (s *DocumentsService) Restore(ctx context.Context, id string, version int) error {
	if version < 1 {
		return fmt.Errorf("%w: version must be a positive integer", ErrValidation)
	}
	return s.store.RestoreVersion(ctx, id, version)
}
