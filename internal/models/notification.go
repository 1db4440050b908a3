package models

import "time"

// NotificationType enumerates the events the notification service fans out.
type NotificationType string

const (
	NotificationNewFile         NotificationType = "new_file"
	NotificationComplianceIssue NotificationType = "compliance_issue"
	NotificationExpiryWarning   NotificationType = "expiry_warning"
)

// Notification is one per-user message, mutated only by marking it read.
type Notification struct {
	ID         string           `firestore:"-" json:"id"`
	UserID     string           `firestore:"userId" json:"userId"`
	Type       NotificationType `firestore:"type" json:"type"`
	Title      string           `firestore:"title" json:"title"`
	Message    string           `firestore:"message" json:"message"`
	DocumentID string           `firestore:"documentId,omitempty" json:"documentId,omitempty"`
	Read       bool             `firestore:"read" json:"read"`
	CreatedAt  time.Time        `firestore:"createdAt" json:"createdAt"`
}

// User is a back-office account; the notification service fans out one
// notification per user.
type User struct {
	ID          string `firestore:"-" json:"id"`
	Email       string `firestore:"email,omitempty" json:"email"`
	DisplayName string `firestore:"displayName,omitempty" json:"displayName"`
}
