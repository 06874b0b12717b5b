package formatter

import (
	"time"

	"github.com/alexanderramin/expedit/internal/domain"
)

// FormatVersions renders a version list, newest first. Badge-worthy
// entries get a star.
func FormatVersions(versions []domain.VersionInfo, now time.Time) string {
	headers := []string{"", "DATE", "AUTHOR", "STATUS", "SNAPSHOT"}
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		badge := " "
		if v.ShowsBadge() {
			badge = StyleYellow.Render("★")
		}
		author := v.AuthorName
		if author == "" {
			author = Dim("unknown")
		}
		rows = append(rows, []string{
			badge,
			HumanTimestamp(v.Date, now),
			author,
			StatusPill(v.StatusCode),
			Dim(v.SnapshotID),
		})
	}
	return RenderTable(headers, rows, "no versions")
}
