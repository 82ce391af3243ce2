package validation

import (
	"errors"
	"testing"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
)

func TestIsYouTubePlaylistURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{
			name:     "Actual playlist URL",
			url:      "https://www.youtube.com/playlist?list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf",
			expected: true,
		},
		{
			name:     "Actual playlist URL with additional params",
			url:      "https://www.youtube.com/playlist?list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf&si=abc123",
			expected: true,
		},
		{
			name:     "Video URL with autoplay list parameter (YouTube Radio)",
			url:      "https://www.youtube.com/watch?v=D8OCBS2UZOk&list=RDD8OCBS2UZOk&start_radio=1",
			expected: false,
		},
		{
			name:     "Video URL with regular list parameter",
			url:      "https://www.youtube.com/watch?v=D8OCBS2UZOk&list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf",
			expected: false,
		},
		{
			name:     "Single video URL without list parameter",
			url:      "https://www.youtube.com/watch?v=D8OCBS2UZOk",
			expected: false,
		},
		{
			name:     "Short YouTube URL",
			url:      "https://youtu.be/D8OCBS2UZOk",
			expected: false,
		},
		{
			name:     "Non-YouTube URL",
			url:      "https://soundcloud.com/artist/track",
			expected: false,
		},
		{
			name:     "Video URL with list parameter at start",
			url:      "https://www.youtube.com/watch?list=RDD8OCBS2UZOk&v=D8OCBS2UZOk",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsYouTubePlaylistURL(tt.url)
			if result != tt.expected {
				t.Errorf("IsYouTubePlaylistURL(%s) = %v, expected %v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		kind       valueobjects.SourceKind
		id         string
		collection string
	}{
		{"Spotify track", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=x", valueobjects.SourceKindStreamingTrack, "4uLU6hMCjMI75M1A2tKUQC", ""},
		{"Spotify localized track", "https://open.spotify.com/intl-es/track/4uLU6hMCjMI75M1A2tKUQC", valueobjects.SourceKindStreamingTrack, "4uLU6hMCjMI75M1A2tKUQC", ""},
		{"Spotify playlist", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", valueobjects.SourceKindStreamingPlaylist, "37i9dQZF1DXcBWIGoYBM5M", "playlist"},
		{"Spotify album", "https://open.spotify.com/album/2noRn2Aes5aoNVsU6iWThc", valueobjects.SourceKindStreamingPlaylist, "2noRn2Aes5aoNVsU6iWThc", "album"},
		{"Spotify URI", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", valueobjects.SourceKindStreamingTrack, "4uLU6hMCjMI75M1A2tKUQC", ""},
		{"YouTube playlist", "https://www.youtube.com/playlist?list=PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf", valueobjects.SourceKindVideoPlaylist, "PLrAXtmErZgOeiKm4sgNOknGvNjby9efdf", ""},
		{"YouTube radio mix", "https://www.youtube.com/watch?v=D8OCBS2UZOk&list=RDD8OCBS2UZOk&start_radio=1", valueobjects.SourceKindVideoSingle, "D8OCBS2UZOk", ""},
		{"Short link", "https://youtu.be/D8OCBS2UZOk", valueobjects.SourceKindVideoSingle, "D8OCBS2UZOk", ""},
		{"Shorts", "https://www.youtube.com/shorts/D8OCBS2UZOk", valueobjects.SourceKindVideoSingle, "D8OCBS2UZOk", ""},
		{"YouTube Music", "https://music.youtube.com/watch?v=D8OCBS2UZOk", valueobjects.SourceKindVideoSingle, "D8OCBS2UZOk", ""},
		{"Free text", "lofi hip hop", valueobjects.SourceKindFreeText, "", ""},
		{"Unsupported site", "https://soundcloud.com/artist/track", valueobjects.SourceKindFreeText, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := Classify(tt.query)
			if src.Kind != tt.kind {
				t.Errorf("Classify(%s).Kind = %s, expected %s", tt.query, src.Kind, tt.kind)
			}
			if src.ID != tt.id {
				t.Errorf("Classify(%s).ID = %q, expected %q", tt.query, src.ID, tt.id)
			}
			if src.Collection != tt.collection {
				t.Errorf("Classify(%s).Collection = %q, expected %q", tt.query, src.Collection, tt.collection)
			}
		})
	}
}

func TestNormalizeVideoURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://youtu.be/D8OCBS2UZOk?t=10", "https://www.youtube.com/watch?v=D8OCBS2UZOk"},
		{"  https://www.youtube.com/embed/D8OCBS2UZOk ", "https://www.youtube.com/watch?v=D8OCBS2UZOk"},
		{"https://www.youtube.com/watch?feature=share&v=D8OCBS2UZOk", "https://www.youtube.com/watch?v=D8OCBS2UZOk"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		if got := NormalizeVideoURL(tt.input); got != tt.expected {
			t.Errorf("NormalizeVideoURL(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestValidateQueuePosition(t *testing.T) {
	if err := ValidateQueuePosition(1, 3); err != nil {
		t.Errorf("Position 1 of 3 should be valid: %v", err)
	}
	if err := ValidateQueuePosition(4, 3); !errors.Is(err, apperrors.ErrInvalidPosition) {
		t.Errorf("Expected ErrInvalidPosition, got %v", err)
	}
	if err := ValidateQueuePosition(1, 0); !errors.Is(err, apperrors.ErrQueueEmpty) {
		t.Errorf("Expected ErrQueueEmpty, got %v", err)
	}
}

func TestValidateVolume(t *testing.T) {
	for _, v := range []int{0, 100, 200} {
		if err := ValidateVolume(v); err != nil {
			t.Errorf("ValidateVolume(%d) should pass, got %v", v, err)
		}
	}
	for _, v := range []int{-1, 201} {
		if err := ValidateVolume(v); err == nil {
			t.Errorf("ValidateVolume(%d) should fail", v)
		}
	}
}
