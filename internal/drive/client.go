// Package drive wraps the Drive v3 API behind the small surface the pipeline
// needs. Every failure is wrapped in *DriveError so callers can tell upstream
// outages apart from their own bugs.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	drivev3 "google.golang.org/api/drive/v3"

	"github.com/meridianwm/backoffice/internal/models"
)

const folderMimeType = "application/vnd.google-apps.folder"

const listFields = "nextPageToken, files(id, name, mimeType, size, createdTime, modifiedTime)"

// DriveError marks a failed call to the Drive API.
type DriveError struct {
	Op  string
	Err error
}

func (e *DriveError) Error() string {
	return fmt.Sprintf("drive: %s: %v", e.Op, e.Err)
}

func (e *DriveError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	return &DriveError{Op: op, Err: err}
}

// MetadataPatch carries the mutable Drive file attributes.
type MetadataPatch struct {
	Name string
}

// Client is the Drive facade used by the upload path and the sync job.
type Client struct {
	svc         *drivev3.Service
	callTimeout time.Duration
}

// New creates a Client. callTimeout bounds each individual API call; zero
// disables the bound.
func New(svc *drivev3.Service, callTimeout time.Duration) *Client {
	return &Client{svc: svc, callTimeout: callTimeout}
}

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

// Upload streams the local file into Drive under the given parents and
// returns the created file's listing row.
func (c *Client) Upload(ctx context.Context, localPath, fileName string, parents []string) (*models.DriveFile, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open upload source %s: %w", localPath, err)
	}
	defer f.Close()

	callCtx, cancel := c.callCtx(ctx)
	defer cancel()

	created, err := c.svc.Files.Create(&drivev3.File{
		Name:    fileName,
		Parents: parents,
	}).Media(f).Fields("id, name, mimeType, size, createdTime, modifiedTime").Context(callCtx).Do()
	if err != nil {
		return nil, wrap("upload "+fileName, err)
	}
	return toDriveFile(created), nil
}

// UpdateMetadata applies the patch to a Drive file.
func (c *Client) UpdateMetadata(ctx context.Context, fileID string, patch MetadataPatch) error {
	callCtx, cancel := c.callCtx(ctx)
	defer cancel()

	_, err := c.svc.Files.Update(fileID, &drivev3.File{Name: patch.Name}).Context(callCtx).Do()
	if err != nil {
		return wrap("update metadata "+fileID, err)
	}
	return nil
}

// Move reads the file's current parents and replaces them with newFolderID.
func (c *Client) Move(ctx context.Context, fileID, newFolderID string) error {
	callCtx, cancel := c.callCtx(ctx)
	defer cancel()

	current, err := c.svc.Files.Get(fileID).Fields("parents").Context(callCtx).Do()
	if err != nil {
		return wrap("read parents of "+fileID, err)
	}

	_, err = c.svc.Files.Update(fileID, &drivev3.File{}).
		AddParents(newFolderID).
		RemoveParents(strings.Join(current.Parents, ",")).
		Context(callCtx).Do()
	if err != nil {
		return wrap("move "+fileID, err)
	}
	return nil
}

// ListFolder returns the non-trashed children of folderID in creation order.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]models.DriveFile, error) {
	callCtx, cancel := c.callCtx(ctx)
	defer cancel()

	var files []models.DriveFile
	call := c.svc.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
		OrderBy("createdTime").
		PageSize(1000).
		Fields(listFields).
		Context(callCtx)

	err := call.Pages(callCtx, func(page *drivev3.FileList) error {
		for _, f := range page.Files {
			files = append(files, *toDriveFile(f))
		}
		return nil
	})
	if err != nil {
		return nil, wrap("list folder "+folderID, err)
	}
	return files, nil
}

// Download returns the file body as a stream. The caller owns the closer.
func (c *Client) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	// No per-call timeout here: the caller streams the body after we return,
	// and cancelling the context would sever the stream mid-copy.
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, wrap("download "+fileID, err)
	}
	return resp.Body, nil
}

// CreateFolder creates a Drive folder and returns its id.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	callCtx, cancel := c.callCtx(ctx)
	defer cancel()

	folder := &drivev3.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}
	created, err := c.svc.Files.Create(folder).Fields("id").Context(callCtx).Do()
	if err != nil {
		return "", wrap("create folder "+name, err)
	}
	return created.Id, nil
}

func toDriveFile(f *drivev3.File) *models.DriveFile {
	out := &models.DriveFile{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     f.Size,
	}
	if ts, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		out.CreatedTime = ts
	}
	if ts, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		out.ModifiedTime = ts
	}
	return out
}
