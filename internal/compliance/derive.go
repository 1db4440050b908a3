// Package compliance derives a document's compliance status from its
// metadata. The status is computed at read time and never persisted.
package compliance

import (
	"time"

	"github.com/meridianwm/backoffice/internal/models"
)

// DefaultExpiryWindow is how far ahead of the expiry date a document is
// considered to be expiring soon.
const DefaultExpiryWindow = 7 * 24 * time.Hour

// Derive evaluates the compliance rules as an ordered decision list; the
// first matching rule wins. Tag completeness gates everything else: an
// untagged document cannot be meaningfully compliance-checked.
//
// A document whose expiry date falls exactly at now+window is still
// expiring_soon (the boundary is inclusive).
func Derive(rec *models.DocumentMetadata, now time.Time, window time.Duration) models.ComplianceStatus {
	switch {
	case len(rec.AITags.Tags) == 0:
		return models.ComplianceMissingTags
	case rec.ExpiryDate == nil || rec.ExpiryDate.IsZero():
		return models.ComplianceMissingExpiry
	case rec.Status == "":
		return models.ComplianceMissingStatus
	case !rec.ExpiryDate.After(now.Add(window)):
		return models.ComplianceExpiringSoon
	default:
		return models.ComplianceOK
	}
}

// Apply stamps the derived status onto rec.
func Apply(rec *models.DocumentMetadata, now time.Time, window time.Duration) {
	rec.ComplianceStatus = Derive(rec, now, window)
}
