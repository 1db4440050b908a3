package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/meridianwm/backoffice/internal/compliance"
	"github.com/meridianwm/backoffice/internal/drive"
	"github.com/meridianwm/backoffice/internal/models"
	"github.com/meridianwm/backoffice/internal/store"
)

// --- Drive fake ---

type fakeDrive struct {
	folder       []models.DriveFile
	bodies       map[string][]byte
	uploads      []string
	moved        map[string]string
	renamed      map[string]string
	folders      []string
	nextID       int
	failUpload   bool
	failList     bool
	failDownload map[string]bool
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		bodies:       make(map[string][]byte),
		moved:        make(map[string]string),
		renamed:      make(map[string]string),
		failDownload: make(map[string]bool),
	}
}

func (d *fakeDrive) addFolderFile(id, name string, body []byte) {
	d.folder = append(d.folder, models.DriveFile{
		ID:          id,
		Name:        name,
		MimeType:    "application/pdf",
		Size:        int64(len(body)),
		CreatedTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	d.bodies[id] = body
}

func (d *fakeDrive) Upload(_ context.Context, _, fileName string, _ []string) (*models.DriveFile, error) {
	if d.failUpload {
		return nil, &drive.DriveError{Op: "upload " + fileName, Err: fmt.Errorf("boom")}
	}
	d.nextID++
	d.uploads = append(d.uploads, fileName)
	return &models.DriveFile{
		ID:       fmt.Sprintf("drive-%d", d.nextID),
		Name:     fileName,
		MimeType: "application/pdf",
		Size:     1024,
	}, nil
}

func (d *fakeDrive) UpdateMetadata(_ context.Context, fileID string, patch drive.MetadataPatch) error {
	d.renamed[fileID] = patch.Name
	return nil
}

func (d *fakeDrive) Move(_ context.Context, fileID, newFolderID string) error {
	d.moved[fileID] = newFolderID
	return nil
}

func (d *fakeDrive) ListFolder(_ context.Context, _ string) ([]models.DriveFile, error) {
	if d.failList {
		return nil, &drive.DriveError{Op: "list folder", Err: fmt.Errorf("boom")}
	}
	return append([]models.DriveFile(nil), d.folder...), nil
}

func (d *fakeDrive) Download(_ context.Context, fileID string) (io.ReadCloser, error) {
	if d.failDownload[fileID] {
		return nil, &drive.DriveError{Op: "download " + fileID, Err: fmt.Errorf("boom")}
	}
	return io.NopCloser(bytes.NewReader(d.bodies[fileID])), nil
}

func (d *fakeDrive) CreateFolder(_ context.Context, name, _ string) (string, error) {
	d.folders = append(d.folders, name)
	return "folder-" + name, nil
}

// --- Metadata store fake (in-memory, Firestore merge semantics) ---

type fakeStore struct {
	records map[string]*models.DocumentMetadata
	now     time.Time
	window  time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]*models.DocumentMetadata),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		window:  compliance.DefaultExpiryWindow,
	}
}

func (s *fakeStore) Upsert(_ context.Context, id string, fields map[string]any) error {
	rec, ok := s.records[id]
	if !ok {
		rec = &models.DocumentMetadata{ID: id}
		s.records[id] = rec
	}
	for k, v := range fields {
		switch k {
		case "fileName":
			rec.FileName = v.(string)
		case "driveFileId":
			rec.DriveFileID = v.(string)
		case "aiTags":
			rec.AITags = v.(models.AITags)
		case "uploadedAt":
			rec.UploadedAt = v.(time.Time)
		case "createdTime":
			rec.CreatedTime = v.(time.Time)
		case "lastModified":
			rec.LastModified = v.(time.Time)
		case "size":
			rec.Size = v.(int64)
		case "mimetype":
			rec.Mimetype = v.(string)
		case "category":
			rec.Category = v.(string)
		case "driveFolderId":
			rec.DriveFolderID = v.(string)
		case "status":
			rec.Status = v.(string)
		case "uploader":
			rec.Uploader = v.(string)
		case "pageCount":
			rec.PageCount = v.(int)
		case "expiryDate":
			ts := v.(time.Time)
			rec.ExpiryDate = &ts
		case "versions":
			rec.Versions = v.([]models.DocumentVersion)
		}
	}
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*models.DocumentMetadata, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *rec
	compliance.Apply(&out, s.now, s.window)
	return &out, nil
}

func (s *fakeStore) List(ctx context.Context, filter models.ListFilter) ([]models.DocumentMetadata, error) {
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.DocumentMetadata, 0)
	for _, id := range ids {
		rec, _ := s.Get(ctx, id)
		if filter.Matches(rec) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *fakeStore) AppendVersion(_ context.Context, id string, entry models.DocumentVersion) (int, error) {
	rec, ok := s.records[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	entry = models.NextVersion(rec.Versions, entry)
	rec.Versions = append(rec.Versions, entry)
	rec.DriveFileID = entry.DriveFileID
	rec.FileName = entry.FileName
	rec.LastModified = entry.UploadedAt
	return entry.Version, nil
}

func (s *fakeStore) RestoreVersion(_ context.Context, id string, version int) error {
	rec, ok := s.records[id]
	if !ok {
		return store.ErrNotFound
	}
	v, ok := models.FindVersion(rec.Versions, version)
	if !ok {
		return store.ErrVersionNotFound
	}
	rec.DriveFileID = v.DriveFileID
	rec.FileName = v.FileName
	return nil
}

func (s *fakeStore) KnownIDs(_ context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{}, len(s.records))
	for id := range s.records {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// --- Tagger fake ---

type fakeTagger struct {
	result  models.TagResult
	failErr error
	calls   int
}

func (t *fakeTagger) ExtractTags(_ context.Context, _ string) (models.TagResult, error) {
	t.calls++
	if t.failErr != nil {
		return models.TagResult{}, t.failErr
	}
	return t.result, nil
}

// --- Extractor fake ---

type fakeExtractor struct {
	text        string
	failNames   map[string]bool
	pageCount   int
	validateErr error
}

func (e *fakeExtractor) Text(path string) (string, error) {
	for name := range e.failNames {
		if bytes.Contains([]byte(path), []byte(name)) {
			return "", fmt.Errorf("corrupt file %s", name)
		}
	}
	return e.text, nil
}

func (e *fakeExtractor) PageCount(string) (int, error) {
	return e.pageCount, nil
}

func (e *fakeExtractor) ValidatePDF(string) error {
	return e.validateErr
}

// --- Notification sender fake ---

type sentNotification struct {
	kind       models.NotificationType
	documentID string
	fileName   string
	issue      string
	days       int
}

type fakeNotifier struct {
	sent        []sentNotification
	failNewFile bool
}

func (n *fakeNotifier) NotifyNewFile(_ context.Context, fileName, documentID string) error {
	if n.failNewFile {
		return fmt.Errorf("notification store down")
	}
	n.sent = append(n.sent, sentNotification{
		kind:       models.NotificationNewFile,
		fileName:   fileName,
		documentID: documentID,
	})
	return nil
}

func (n *fakeNotifier) NotifyComplianceIssue(_ context.Context, documentID, issue string) error {
	n.sent = append(n.sent, sentNotification{
		kind:       models.NotificationComplianceIssue,
		documentID: documentID,
		issue:      issue,
	})
	return nil
}

func (n *fakeNotifier) NotifyExpiryWarning(_ context.Context, documentID string, days int) error {
	n.sent = append(n.sent, sentNotification{
		kind:       models.NotificationExpiryWarning,
		documentID: documentID,
		days:       days,
	})
	return nil
}

func (n *fakeNotifier) newFileCount() int {
	count := 0
	for _, s := range n.sent {
		if s.kind == models.NotificationNewFile {
			count++
		}
	}
	return count
}
