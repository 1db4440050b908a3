package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/meridianwm/backoffice/internal/models"
)

const (
	notificationsCollection = "notifications"
	usersCollection         = "users"
)

// Notifications persists per-user notification records and the user roster
// they fan out to.
type Notifications struct {
	client *firestore.Client
	now    func() time.Time
}

// NewNotifications creates the notification store.
func NewNotifications(client *firestore.Client) *Notifications {
	return &Notifications{client: client, now: time.Now}
}

// Users returns every back-office account.
func (s *Notifications) Users(ctx context.Context) ([]models.User, error) {
	iter := s.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var users []models.User
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr("list users", err)
		}
		var u models.User
		if err := snap.DataTo(&u); err != nil {
			return nil, wrapErr("decode user "+snap.Ref.ID, err)
		}
		u.ID = snap.Ref.ID
		users = append(users, u)
	}
	return users, nil
}

// writeJob is the awaitable half of a *firestore.BulkWriterJob.
type writeJob interface {
	Results() (*firestore.WriteResult, error)
}

// firstWriteError awaits every job and returns the first failure. Enqueueing
// a bulk write only reports enqueue errors; the write itself can still fail
// after End(), and that outcome lives in the job result.
func firstWriteError(jobs []writeJob) error {
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return err
		}
	}
	return nil
}

// FanOut writes one copy of the notification per user through a single
// BulkWriter flush, so a partial fan-out cannot be silently half-applied by
// interleaved individual writes. Every job result is awaited; the first
// failed write surfaces as the error.
func (s *Notifications) FanOut(ctx context.Context, users []models.User, n models.Notification) error {
	if len(users) == 0 {
		return nil
	}
	n.CreatedAt = s.now()
	n.Read = false

	bw := s.client.BulkWriter(ctx)
	jobs := make([]writeJob, 0, len(users))
	for _, u := range users {
		perUser := n
		perUser.UserID = u.ID
		ref := s.client.Collection(notificationsCollection).Doc(uuid.NewString())
		job, err := bw.Create(ref, perUser)
		if err != nil {
			bw.End()
			return wrapErr("enqueue notification for user "+u.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	if err := firstWriteError(jobs); err != nil {
		return wrapErr("write notification fan-out", err)
	}
	return nil
}

// ForUser returns a user's notifications newest first.
func (s *Notifications) ForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	iter := s.client.Collection(notificationsCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	notifications := make([]models.Notification, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr("list notifications for "+userID, err)
		}
		var n models.Notification
		if err := snap.DataTo(&n); err != nil {
			return nil, wrapErr("decode notification "+snap.Ref.ID, err)
		}
		n.ID = snap.Ref.ID
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// MarkRead flips a single notification to read.
func (s *Notifications) MarkRead(ctx context.Context, id string) error {
	_, err := s.client.Collection(notificationsCollection).Doc(id).
		Update(ctx, []firestore.Update{{Path: "read", Value: true}})
	if err != nil {
		return wrapErr("mark notification "+id+" read", err)
	}
	return nil
}

// MarkAllRead flips every unread notification of a user in one batched write.
func (s *Notifications) MarkAllRead(ctx context.Context, userID string) error {
	iter := s.client.Collection(notificationsCollection).
		Where("userId", "==", userID).
		Where("read", "==", false).
		Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	var jobs []writeJob
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return wrapErr("list unread notifications for "+userID, err)
		}
		job, err := bw.Update(snap.Ref, []firestore.Update{{Path: "read", Value: true}})
		if err != nil {
			bw.End()
			return wrapErr("enqueue mark-read for "+snap.Ref.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	if err := firstWriteError(jobs); err != nil {
		return wrapErr("mark notifications read for "+userID, err)
	}
	return nil
}
