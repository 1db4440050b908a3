package services

import (
	"context"
	"io"

	"github.com/meridianwm/backoffice/internal/drive"
	"github.com/meridianwm/backoffice/internal/models"
)

// DriveAPI is the slice of the Drive client the pipeline needs.
type DriveAPI interface {
	Upload(ctx context.Context, localPath, fileName string, parents []string) (*models.DriveFile, error)
	UpdateMetadata(ctx context.Context, fileID string, patch drive.MetadataPatch) error
	Move(ctx context.Context, fileID, newFolderID string) error
	ListFolder(ctx context.Context, folderID string) ([]models.DriveFile, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
}

// MetadataStore persists and queries document metadata records.
type MetadataStore interface {
	Upsert(ctx context.Context, id string, fields map[string]any) error
	Get(ctx context.Context, id string) (*models.DocumentMetadata, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.DocumentMetadata, error)
	AppendVersion(ctx context.Context, id string, entry models.DocumentVersion) (int, error)
	RestoreVersion(ctx context.Context, id string, version int) error
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
}

// TagExtractor classifies extracted text.
type TagExtractor interface {
	ExtractTags(ctx context.Context, text string) (models.TagResult, error)
}

// TextExtractor turns a local file into plain text.
type TextExtractor interface {
	Text(path string) (string, error)
	PageCount(path string) (int, error)
	ValidatePDF(path string) error
}

// NotificationStore persists notifications and the user roster.
type NotificationStore interface {
	Users(ctx context.Context) ([]models.User, error)
	FanOut(ctx context.Context, users []models.User, n models.Notification) error
	ForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationSender is the event surface the pipeline raises notifications
// through.
type NotificationSender interface {
	NotifyNewFile(ctx context.Context, fileName, documentID string) error
	NotifyComplianceIssue(ctx context.Context, documentID, issue string) error
	NotifyExpiryWarning(ctx context.Context, documentID string, days int) error
}
