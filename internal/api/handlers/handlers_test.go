package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianwm/backoffice/internal/api/handlers"
	"github.com/meridianwm/backoffice/internal/drive"
	"github.com/meridianwm/backoffice/internal/models"
	"github.com/meridianwm/backoffice/internal/server"
	"github.com/meridianwm/backoffice/internal/services"
	"github.com/meridianwm/backoffice/internal/store"
	"github.com/meridianwm/backoffice/internal/tagger"
)

type stubDrive struct {
	moveErr error
}

func (d *stubDrive) Upload(_ context.Context, _, fileName string, _ []string) (*models.DriveFile, error) {
	return &models.DriveFile{ID: "drive-1", Name: fileName, MimeType: "application/pdf", Size: 9}, nil
}

func (d *stubDrive) UpdateMetadata(context.Context, string, drive.MetadataPatch) error { return nil }

func (d *stubDrive) Move(context.Context, string, string) error { return d.moveErr }

func (d *stubDrive) ListFolder(context.Context, string) ([]models.DriveFile, error) {
	return nil, nil
}

func (d *stubDrive) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not supported in tests")
}

func (d *stubDrive) CreateFolder(context.Context, string, string) (string, error) {
	return "folder-1", nil
}

type stubStore struct {
	records map[string]*models.DocumentMetadata
	getErr  error
}

func newStubStore() *stubStore {
	return &stubStore{records: map[string]*models.DocumentMetadata{}}
}

func (s *stubStore) Upsert(_ context.Context, id string, fields map[string]any) error {
	rec, ok := s.records[id]
	if !ok {
		rec = &models.DocumentMetadata{ID: id}
		s.records[id] = rec
	}
	if name, ok := fields["fileName"].(string); ok {
		rec.FileName = name
	}
	if status, ok := fields["status"].(string); ok {
		rec.Status = status
	}
	return nil
}

func (s *stubStore) Get(_ context.Context, id string) (*models.DocumentMetadata, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (s *stubStore) List(_ context.Context, filter models.ListFilter) ([]models.DocumentMetadata, error) {
	out := make([]models.DocumentMetadata, 0)
	for _, rec := range s.records {
		if filter.Matches(rec) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *stubStore) AppendVersion(_ context.Context, id string, entry models.DocumentVersion) (int, error) {
	rec, ok := s.records[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	next := models.NextVersion(rec.Versions, entry)
	rec.Versions = append(rec.Versions, next)
	return next.Version, nil
}

func (s *stubStore) RestoreVersion(_ context.Context, id string, version int) error {
	rec, ok := s.records[id]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := models.FindVersion(rec.Versions, version); !ok {
		return store.ErrVersionNotFound
	}
	return nil
}

func (s *stubStore) KnownIDs(context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{}, len(s.records))
	for id := range s.records {
		ids[id] = struct{}{}
	}
	return ids, nil
}

type stubNotifications struct {
	forUser []models.Notification
	marked  []string
}

func (n *stubNotifications) Users(context.Context) ([]models.User, error) {
	return []models.User{{ID: "u1"}}, nil
}

func (n *stubNotifications) FanOut(context.Context, []models.User, models.Notification) error {
	return nil
}

func (n *stubNotifications) ForUser(context.Context, string) ([]models.Notification, error) {
	return n.forUser, nil
}

func (n *stubNotifications) MarkRead(_ context.Context, id string) error {
	n.marked = append(n.marked, id)
	return nil
}

func (n *stubNotifications) MarkAllRead(context.Context, string) error { return nil }

type stubTagger struct {
	result models.TagResult
	err    error
}

func (t *stubTagger) ExtractTags(context.Context, string) (models.TagResult, error) {
	if t.err != nil {
		return models.TagResult{}, t.err
	}
	return t.result, nil
}

type stubExtractor struct{}

func (stubExtractor) Text(string) (string, error) { return "document text", nil }

func (stubExtractor) PageCount(string) (int, error) { return 1, nil }

func (stubExtractor) ValidatePDF(string) error { return nil }

func newTestRouter(d *stubDrive, s *stubStore, n *stubNotifications, tg *stubTagger) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := services.NewNotifier(n)
	documents := services.NewDocuments(d, s, tg, stubExtractor{}, notifier, services.DocumentsConfig{
		UploadFolderID: "uploads",
	})
	h := handlers.New(documents, notifier, 1<<20, logger)
	return server.NewRouter(h, logger)
}

func defaultRouter() http.Handler {
	return newTestRouter(&stubDrive{}, newStubStore(), &stubNotifications{}, &stubTagger{})
}

func multipartUpload(t *testing.T, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte("file body"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("uploader", "ops@meridianwm.test"))
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeErrorCode(t *testing.T, body io.Reader) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload.Error.Code
}

func TestUploadReturnsTags(t *testing.T) {
	router := newTestRouter(&stubDrive{}, newStubStore(), &stubNotifications{}, &stubTagger{result: models.TagResult{
		Tags:              []string{"fees", "q2"},
		SuggestedCategory: "Fees",
	}})

	body, contentType := multipartUpload(t, "fees.pdf")
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp models.UploadResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "drive-1", resp.FileID)
	assert.Equal(t, []string{"fees", "q2"}, resp.AITags.Tags)
}

func TestUploadRequiresFileField(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("uploader", "ops"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rr := httptest.NewRecorder()
	defaultRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, rr.Body))
}

func TestGetUnknownDocumentIs404(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/documents/missing", nil)
	rr := httptest.NewRecorder()
	defaultRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", decodeErrorCode(t, rr.Body))
}

func TestListRejectsMalformedDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/documents/list?fromDate=yesterday", nil)
	rr := httptest.NewRecorder()
	defaultRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, rr.Body))
}

func TestPatchRejectsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/documents/doc-1", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	defaultRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, rr.Body))
}

func TestMoveDriveFailureIs502(t *testing.T) {
	d := &stubDrive{moveErr: &drive.DriveError{Op: "move", Err: errors.New("rate limited")}}
	s := newStubStore()
	s.records["doc-1"] = &models.DocumentMetadata{ID: "doc-1"}
	router := newTestRouter(d, s, &stubNotifications{}, &stubTagger{})

	req := httptest.NewRequest(http.MethodPost, "/documents/move/doc-1", strings.NewReader(`{"category":"Fees","folderId":"f-1"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", decodeErrorCode(t, rr.Body))
}

func TestUploadTaggerOutageIs502(t *testing.T) {
	tg := &stubTagger{err: &tagger.TransportError{Err: errors.New("deadline exceeded")}}
	router := newTestRouter(&stubDrive{}, newStubStore(), &stubNotifications{}, tg)

	body, contentType := multipartUpload(t, "report.pdf")
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", decodeErrorCode(t, rr.Body))
}

func TestGetFirestoreOutageIs502(t *testing.T) {
	s := newStubStore()
	s.getErr = &store.StoreError{Op: "get document doc-1", Err: errors.New("unavailable")}
	router := newTestRouter(&stubDrive{}, s, &stubNotifications{}, &stubTagger{})

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", decodeErrorCode(t, rr.Body))
}

func TestUploadSpoolFailureIs500(t *testing.T) {
	// Spooling goes through os.CreateTemp; pointing TMPDIR at a missing
	// directory makes it fail server-side with valid client input.
	t.Setenv("TMPDIR", filepath.Join(t.TempDir(), "missing"))

	body, contentType := multipartUpload(t, "report.pdf")
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	defaultRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeErrorCode(t, rr.Body))
}

func TestRestoreRejectsBadVersionNumber(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/documents/doc-1/restore", strings.NewReader(`{"version":0}`))
	rr := httptest.NewRecorder()
	defaultRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, rr.Body))
}

func TestNotificationsRequireUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rr := httptest.NewRecorder()
	defaultRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, rr.Body))
}

func TestNotificationsListForUser(t *testing.T) {
	n := &stubNotifications{forUser: []models.Notification{
		{ID: "n-1", Type: models.NotificationNewFile, Message: "new file"},
	}}
	router := newTestRouter(&stubDrive{}, newStubStore(), n, &stubTagger{})

	req := httptest.NewRequest(http.MethodGet, "/notifications?userId=u1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.NotificationsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "n-1", resp.Notifications[0].ID)
}

func TestMarkNotificationRead(t *testing.T) {
	n := &stubNotifications{}
	router := newTestRouter(&stubDrive{}, newStubStore(), n, &stubTagger{})

	req := httptest.NewRequest(http.MethodPost, "/notifications/n-1/read", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"n-1"}, n.marked)
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	defaultRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
