package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/guild-music-bot/internal/errors"
)

var (
	// URL patterns
	youtubePattern = regexp.MustCompile(`^(https?://)?(www\.|m\.|music\.)?(youtube\.com|youtu\.be)/.+$`)
	spotifyPattern = regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[a-zA-Z-]+/)?(track|album|playlist)/([A-Za-z0-9]+)`)
	spotifyURI     = regexp.MustCompile(`^spotify:(track|album|playlist):([A-Za-z0-9]+)$`)
	videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/|youtube\.com/live/)([a-zA-Z0-9_-]{11})`)
)

// Classify decides which kind of source a query points at.
// Anything that is not a recognised streaming-service or video-platform URL is free text.
func Classify(query string) valueobjects.Source {
	query = strings.TrimSpace(query)

	if m := spotifyPattern.FindStringSubmatch(query); m != nil {
		return spotifySource(m[1], m[2], query)
	}
	if m := spotifyURI.FindStringSubmatch(query); m != nil {
		return spotifySource(m[1], m[2], query)
	}

	if IsYouTubeURL(query) {
		if IsYouTubePlaylistURL(query) {
			return valueobjects.Source{
				Kind: valueobjects.SourceKindVideoPlaylist,
				ID:   playlistID(query),
				URL:  query,
			}
		}
		if id := ExtractVideoID(query); id != "" {
			return valueobjects.Source{
				Kind: valueobjects.SourceKindVideoSingle,
				ID:   id,
				URL:  NormalizeVideoURL(query),
			}
		}
	}

	return valueobjects.Source{Kind: valueobjects.SourceKindFreeText, URL: query}
}

func spotifySource(collection, id, raw string) valueobjects.Source {
	if collection == "track" {
		return valueobjects.Source{Kind: valueobjects.SourceKindStreamingTrack, ID: id, URL: raw}
	}
	return valueobjects.Source{
		Kind:       valueobjects.SourceKindStreamingPlaylist,
		ID:         id,
		URL:        raw,
		Collection: collection,
	}
}

// ValidateURL validates if a string is a valid URL
func ValidateURL(input string) error {
	if input == "" {
		return fmt.Errorf("%w: URL cannot be empty", errors.ErrInvalidURL)
	}

	_, err := url.ParseRequestURI(input)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidURL, err)
	}

	return nil
}

// IsYouTubeURL checks if URL is a YouTube URL
func IsYouTubeURL(input string) bool {
	return youtubePattern.MatchString(input)
}

// IsSpotifyURL checks if URL is a Spotify URL
func IsSpotifyURL(input string) bool {
	return spotifyPattern.MatchString(input) || spotifyURI.MatchString(input)
}

// IsYouTubePlaylistURL reports a real playlist page. Watch URLs carrying a list
// parameter (mixes, radio) are single videos.
func IsYouTubePlaylistURL(input string) bool {
	if !IsYouTubeURL(input) {
		return false
	}

	u, err := url.Parse(input)
	if err != nil {
		return false
	}

	return strings.TrimSuffix(u.Path, "/") == "/playlist" && u.Query().Get("list") != ""
}

// ExtractVideoID returns the 11 character video id, empty when there is none
func ExtractVideoID(input string) string {
	if m := videoIDPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return ""
}

// NormalizeVideoURL rewrites any recognised video URL form to the canonical watch URL.
// Unrecognised input is returned trimmed.
func NormalizeVideoURL(input string) string {
	input = strings.TrimSpace(input)
	if id := ExtractVideoID(input); id != "" {
		return "https://www.youtube.com/watch?v=" + id
	}
	return input
}

func playlistID(input string) string {
	u, err := url.Parse(input)
	if err != nil {
		return ""
	}
	return u.Query().Get("list")
}

// ValidateVolume validates volume level (0-200)
func ValidateVolume(volume int) error {
	if volume < 0 || volume > 200 {
		return errors.ErrInvalidVolume
	}
	return nil
}

// ValidateQueuePosition validates a 1-based queue position
func ValidateQueuePosition(position, size int) error {
	if position < 1 || position > size {
		if size == 0 {
			return errors.ErrQueueEmpty
		}
		return fmt.Errorf("%w: must be between 1 and %d", errors.ErrInvalidPosition, size)
	}
	return nil
}

// SanitizeInput sanitizes user input by removing potentially dangerous characters
func SanitizeInput(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return strings.TrimSpace(input)
}

// TruncateString safely truncates a string to max length
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	// Try to truncate at word boundary
	if maxLen > 3 {
		cut := string(runes[:maxLen-3])
		if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
			cut = cut[:idx]
		}
		return cut + "..."
	}

	return string(runes[:maxLen])
}
