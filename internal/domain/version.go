package domain

import "time"

// VersionOptions carries display hints derived for a version entry.
type VersionOptions struct {
	ShouldDisplayBadge bool `json:"shouldDisplayBadge"`
}

// VersionInfo describes one historical snapshot of a document.
// Values are derived from snapshot lists and never mutated afterwards.
type VersionInfo struct {
	SnapshotID string          `json:"snapshotId"`
	AuthorName string          `json:"authorName"`
	Date       time.Time       `json:"date"`
	FlowCode   FlowCode        `json:"flowCode"`
	StatusCode StatusCode      `json:"statusCode,omitempty"`
	Options    *VersionOptions `json:"options,omitempty"`
}

// ShowsBadge reports whether the entry was marked badge-worthy.
func (v VersionInfo) ShowsBadge() bool {
	return v.Options != nil && v.Options.ShouldDisplayBadge
}
