// Package store persists document metadata and notifications in Firestore.
// Document IDs equal Drive file IDs, which is what makes sync ingestion
// idempotent.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/meridianwm/backoffice/internal/compliance"
	"github.com/meridianwm/backoffice/internal/models"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("store: document not found")

// ErrVersionNotFound is returned when a restore names an unknown version.
var ErrVersionNotFound = errors.New("store: version not found")

// StoreError marks a failed Firestore call, as opposed to the sentinel
// conditions above. Handlers map it to an upstream failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func wrapErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// Documents is the metadata store for ingested files.
type Documents struct {
	client       *firestore.Client
	collection   string
	expiryWindow time.Duration
	now          func() time.Time
}

// NewDocuments creates the store. window feeds the compliance derivation
// applied to every record read out of Firestore.
func NewDocuments(client *firestore.Client, collection string, window time.Duration) *Documents {
	if window <= 0 {
		window = compliance.DefaultExpiryWindow
	}
	return &Documents{
		client:       client,
		collection:   collection,
		expiryWindow: window,
		now:          time.Now,
	}
}

func (s *Documents) ref(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

// Upsert merges fields into the record with the given id, creating it if
// absent. Fields not present in the patch are preserved.
func (s *Documents) Upsert(ctx context.Context, id string, fields map[string]any) error {
	if _, err := s.ref(id).Set(ctx, fields, firestore.MergeAll); err != nil {
		return wrapErr("upsert document "+id, err)
	}
	return nil
}

// Get fetches one record with its compliance status derived.
func (s *Documents) Get(ctx context.Context, id string) (*models.DocumentMetadata, error) {
	snap, err := s.ref(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, wrapErr("get document "+id, err)
	}
	rec, err := s.decode(snap)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List fetches all records, derives compliance status for each, and then
// applies the filter. Deriving before filtering means callers filtering on
// attention states always see up-to-date statuses.
func (s *Documents) List(ctx context.Context, filter models.ListFilter) ([]models.DocumentMetadata, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	records := make([]models.DocumentMetadata, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr("list documents", err)
		}
		rec, err := s.decode(snap)
		if err != nil {
			return nil, err
		}
		if filter.Matches(rec) {
			records = append(records, *rec)
		}
	}
	return records, nil
}

// AppendVersion appends one entry to the version history inside a
// transaction, assigning the next monotonic version number and mirroring the
// new version into the top-level driveFileId/fileName fields. Returns the
// assigned version number.
func (s *Documents) AppendVersion(ctx context.Context, id string, entry models.DocumentVersion) (int, error) {
	ref := s.ref(id)
	var assigned int

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		var rec models.DocumentMetadata
		if err := snap.DataTo(&rec); err != nil {
			return fmt.Errorf("decode document %s: %w", id, err)
		}

		entry = models.NextVersion(rec.Versions, entry)
		assigned = entry.Version

		return tx.Update(ref, []firestore.Update{
			{Path: "versions", Value: append(rec.Versions, entry)},
			{Path: "driveFileId", Value: entry.DriveFileID},
			{Path: "fileName", Value: entry.FileName},
			{Path: "lastModified", Value: entry.UploadedAt},
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, wrapErr("append version to "+id, err)
	}
	return assigned, nil
}

// RestoreVersion points the top-level driveFileId/fileName at a prior version
// without mutating the version history.
func (s *Documents) RestoreVersion(ctx context.Context, id string, version int) error {
	ref := s.ref(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		var rec models.DocumentMetadata
		if err := snap.DataTo(&rec); err != nil {
			return fmt.Errorf("decode document %s: %w", id, err)
		}

		v, ok := models.FindVersion(rec.Versions, version)
		if !ok {
			return ErrVersionNotFound
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "driveFileId", Value: v.DriveFileID},
			{Path: "fileName", Value: v.FileName},
			{Path: "lastModified", Value: s.now()},
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionNotFound) {
			return err
		}
		return wrapErr(fmt.Sprintf("restore version %d of %s", version, id), err)
	}
	return nil
}

// KnownIDs returns the set of Drive file ids that already have a record.
// Used by the sync diff.
func (s *Documents) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	iter := s.client.Collection(s.collection).Select().Documents(ctx)
	defer iter.Stop()

	ids := make(map[string]struct{})
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr("list document ids", err)
		}
		ids[snap.Ref.ID] = struct{}{}
	}
	return ids, nil
}

func (s *Documents) decode(snap *firestore.DocumentSnapshot) (*models.DocumentMetadata, error) {
	var rec models.DocumentMetadata
	if err := snap.DataTo(&rec); err != nil {
		return nil, wrapErr("decode document "+snap.Ref.ID, err)
	}
	rec.ID = snap.Ref.ID
	compliance.Apply(&rec, s.now(), s.expiryWindow)
	return &rec, nil
}
