// Package history derives version-history display state and caches the
// version lists of experiences.
package history

import "github.com/alexanderramin/expedit/internal/domain"

// DeriveBadges returns a copy of versions (newest first) where exactly the
// entries sharing the id of the most recent entry, or the id of the first
// UP_TO_DATE entry, are flagged. Matching is by id value, so duplicated
// ids are all flagged.
func DeriveBadges(versions []domain.VersionInfo) []domain.VersionInfo {
	out := make([]domain.VersionInfo, len(versions))
	if len(versions) == 0 {
		return out
	}

	latestID := versions[0].SnapshotID
	upToDateID, hasUpToDate := "", false
	for _, v := range versions {
		if v.StatusCode == domain.StatusUpToDate {
			upToDateID, hasUpToDate = v.SnapshotID, true
			break
		}
	}

	for i, v := range versions {
		flag := v.SnapshotID == latestID || (hasUpToDate && v.SnapshotID == upToDateID)
		v.Options = &domain.VersionOptions{ShouldDisplayBadge: flag}
		out[i] = v
	}
	return out
}

// Flagged returns the indexes of badge-worthy entries.
func Flagged(versions []domain.VersionInfo) []int {
	var idx []int
	for i, v := range versions {
		if v.ShowsBadge() {
			idx = append(idx, i)
		}
	}
	return idx
}
