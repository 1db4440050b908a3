package models

import (
	"strings"
	"time"
)

// DocumentMetadata is the master record for an ingested file in Firestore.
// The Firestore document ID equals DriveFileID, which makes ingestion
// idempotent: re-processing the same Drive file merges into one record.
type DocumentMetadata struct {
	ID            string     `firestore:"-" json:"id"`
	FileName      string     `firestore:"fileName,omitempty" json:"fileName"`
	DriveFileID   string     `firestore:"driveFileId,omitempty" json:"driveFileId"`
	AITags        AITags     `firestore:"aiTags,omitempty" json:"aiTags"`
	UploadedAt    time.Time  `firestore:"uploadedAt,omitempty" json:"uploadedAt"`
	CreatedTime   time.Time  `firestore:"createdTime,omitempty" json:"createdTime"`
	LastModified  time.Time  `firestore:"lastModified,omitempty" json:"lastModified"`
	Size          int64      `firestore:"size,omitempty" json:"size"`
	Mimetype      string     `firestore:"mimetype,omitempty" json:"mimetype"`
	Category      string     `firestore:"category,omitempty" json:"category"`
	DriveFolderID string     `firestore:"driveFolderId,omitempty" json:"driveFolderId"`
	Status        string     `firestore:"status,omitempty" json:"status"`
	ExpiryDate    *time.Time `firestore:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	PageCount     int        `firestore:"pageCount,omitempty" json:"pageCount,omitempty"`
	Uploader      string     `firestore:"uploader,omitempty" json:"uploader,omitempty"`

	// Versions is append-only; version numbers are 1-based and monotonic.
	Versions []DocumentVersion `firestore:"versions,omitempty" json:"versions,omitempty"`

	// ComplianceStatus is derived at read time and never persisted.
	ComplianceStatus ComplianceStatus `firestore:"-" json:"complianceStatus"`
}

// AITags holds the tag set produced by the tagger or edited by users.
type AITags struct {
	Tags []string `firestore:"tags,omitempty" json:"tags"`
}

// DocumentVersion is one entry in a document's version history. The current
// version is mirrored into the top-level DriveFileID/FileName fields.
type DocumentVersion struct {
	DriveFileID string    `firestore:"driveFileId,omitempty" json:"driveFileId"`
	Version     int       `firestore:"version,omitempty" json:"version"`
	UploadedAt  time.Time `firestore:"uploadedAt,omitempty" json:"uploadedAt"`
	Uploader    string    `firestore:"uploader,omitempty" json:"uploader"`
	FileName    string    `firestore:"fileName,omitempty" json:"fileName"`
}

// ComplianceStatus classifies a document's regulatory completeness.
type ComplianceStatus string

const (
	ComplianceOK            ComplianceStatus = "ok"
	ComplianceMissingTags   ComplianceStatus = "missing_tags"
	ComplianceMissingExpiry ComplianceStatus = "missing_expiry"
	ComplianceMissingStatus ComplianceStatus = "missing_status"
	ComplianceExpiringSoon  ComplianceStatus = "expiring_soon"
)

// StatusPendingReview is the lifecycle status seeded on every ingested file.
const StatusPendingReview = "Pending Review"

// DriveFile is one row of a Drive folder listing.
type DriveFile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	CreatedTime  time.Time `json:"createdTime"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

// TagResult is the normalized output of the AI tagger.
type TagResult struct {
	Tags              []string `json:"tags"`
	Entities          []string `json:"entities"`
	SuggestedCategory string   `json:"suggestedCategory"`
}

// ListFilter narrows a document listing. All present fields are AND-combined.
type ListFilter struct {
	Query    string
	Tag      string
	Status   string
	Category string
	FromDate *time.Time
	ToDate   *time.Time
}

// IsZero reports whether no filter field is set.
func (f ListFilter) IsZero() bool {
	return f.Query == "" && f.Tag == "" && f.Status == "" && f.Category == "" &&
		f.FromDate == nil && f.ToDate == nil
}

// Matches reports whether rec passes every filter field that is set.
// Query is a case-insensitive substring match against the file name or any
// tag; Tag is an exact membership test; FromDate/ToDate bound UploadedAt
// inclusively.
func (f ListFilter) Matches(rec *DocumentMetadata) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		hit := strings.Contains(strings.ToLower(rec.FileName), q)
		for _, tag := range rec.AITags.Tags {
			if hit {
				break
			}
			hit = strings.Contains(strings.ToLower(tag), q)
		}
		if !hit {
			return false
		}
	}
	if f.Tag != "" {
		found := false
		for _, tag := range rec.AITags.Tags {
			if tag == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.Category != "" && rec.Category != f.Category {
		return false
	}
	if f.FromDate != nil && rec.UploadedAt.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && rec.UploadedAt.After(*f.ToDate) {
		return false
	}
	return true
}
