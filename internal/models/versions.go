package models

// NextVersion stamps entry with the next monotonic version number for the
// given history. Version numbers are 1-based and increase by exactly one per
// append.
func NextVersion(existing []DocumentVersion, entry DocumentVersion) DocumentVersion {
	entry.Version = len(existing) + 1
	return entry
}

// FindVersion looks up a version entry by number without touching the
// history.
func FindVersion(versions []DocumentVersion, n int) (DocumentVersion, bool) {
	for _, v := range versions {
		if v.Version == n {
			return v, true
		}
	}
	return DocumentVersion{}, false
}
