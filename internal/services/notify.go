package services

import (
	"context"
	"fmt"

	"github.com/meridianwm/backoffice/internal/models"
)

// Notifier fans event messages out to every back-office user as stored
// notification records.
type Notifier struct {
	store NotificationStore
}

// NewNotifier creates the notification service.
func NewNotifier(store NotificationStore) *Notifier {
	return &Notifier{store: store}
}

// NotifyNewFile announces a newly ingested document to all users.
func (n *Notifier) NotifyNewFile(ctx context.Context, fileName, documentID string) error {
	return n.fanOut(ctx, models.Notification{
		Type:       models.NotificationNewFile,
		Title:      "New document received",
		Message:    fmt.Sprintf("%q was added to the document library.", fileName),
		DocumentID: documentID,
	})
}

// NotifyComplianceIssue announces a document needing compliance attention.
func (n *Notifier) NotifyComplianceIssue(ctx context.Context, documentID, issue string) error {
	return n.fanOut(ctx, models.Notification{
		Type:       models.NotificationComplianceIssue,
		Title:      "Compliance attention required",
		Message:    fmt.Sprintf("A document needs attention: %s.", issue),
		DocumentID: documentID,
	})
}

// NotifyExpiryWarning announces a document whose expiry date is near.
func (n *Notifier) NotifyExpiryWarning(ctx context.Context, documentID string, days int) error {
	msg := fmt.Sprintf("A document expires in %d days.", days)
	if days < 0 {
		msg = "A document has passed its expiry date."
	}
	return n.fanOut(ctx, models.Notification{
		Type:       models.NotificationExpiryWarning,
		Title:      "Document expiry warning",
		Message:    msg,
		DocumentID: documentID,
	})
}

func (n *Notifier) fanOut(ctx context.Context, notification models.Notification) error {
	users, err := n.store.Users(ctx)
	if err != nil {
		return fmt.Errorf("load users for fan-out: %w", err)
	}
	if err := n.store.FanOut(ctx, users, notification); err != nil {
		return fmt.Errorf("fan out %s notification: %w", notification.Type, err)
	}
	return nil
}

// UserNotifications returns a user's notifications newest first.
func (n *Notifier) UserNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	return n.store.ForUser(ctx, userID)
}

// MarkRead flips one notification to read.
func (n *Notifier) MarkRead(ctx context.Context, id string) error {
	return n.store.MarkRead(ctx, id)
}

// MarkAllRead flips all of a user's unread notifications in one batch.
func (n *Notifier) MarkAllRead(ctx context.Context, userID string) error {
	return n.store.MarkAllRead(ctx, userID)
}
