package valueobjects

import (
	"fmt"
	"strings"
)

// TrackMetadata contains metadata discovered while resolving a track
type TrackMetadata struct {
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	Duration  int    `json:"duration"` // seconds, 0 = unknown or live
	Thumbnail string `json:"thumbnail,omitempty"`
	Uploader  string `json:"uploader,omitempty"`
}

// DisplayName returns the best display name for the track
func (m TrackMetadata) DisplayName() string {
	if m.Artist != "" && !strings.Contains(m.Title, m.Artist) {
		return fmt.Sprintf("%s - %s", m.Artist, m.Title)
	}
	return m.Title
}

// FormatDuration renders seconds as MM:SS, or H:MM:SS past an hour
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "LIVE"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
