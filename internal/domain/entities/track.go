package entities

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
)

// Track is a resolved, queueable unit of audio.
// Metadata and reference are fixed at creation except through Correct.
type Track struct {
	ID        string
	Requester valueobjects.Requester
	CreatedAt time.Time

	reference string
	metadata  valueobjects.TrackMetadata

	mu sync.RWMutex
}

// NewTrack creates a track pointing at reference
func NewTrack(metadata valueobjects.TrackMetadata, reference string, requester valueobjects.Requester) *Track {
	return &Track{
		ID:        uuid.New().String(),
		Requester: requester,
		CreatedAt: time.Now(),
		reference: reference,
		metadata:  metadata,
	}
}

// Title returns the track title
func (t *Track) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metadata.Title
}

// Reference returns the playable reference (URL or opaque id)
func (t *Track) Reference() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reference
}

// Duration returns the duration in seconds, 0 when unknown or live
func (t *Track) Duration() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metadata.Duration
}

// Thumbnail returns the thumbnail URL, possibly empty
func (t *Track) Thumbnail() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metadata.Thumbnail
}

// Metadata safely returns a copy of the metadata
func (t *Track) Metadata() valueobjects.TrackMetadata {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metadata
}

// DisplayName returns the best display name for the track
func (t *Track) DisplayName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metadata.DisplayName()
}

// DurationFormatted returns the duration as MM:SS
func (t *Track) DurationFormatted() string {
	return valueobjects.FormatDuration(t.Duration())
}

// Correct overwrites the reference and metadata with what a fallback resolution found.
// Empty fields in metadata leave the existing values alone.
func (t *Track) Correct(reference string, metadata valueobjects.TrackMetadata) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if reference != "" {
		t.reference = reference
	}
	if metadata.Title != "" {
		t.metadata.Title = metadata.Title
	}
	if metadata.Artist != "" {
		t.metadata.Artist = metadata.Artist
	}
	if metadata.Duration > 0 {
		t.metadata.Duration = metadata.Duration
	}
	if metadata.Thumbnail != "" {
		t.metadata.Thumbnail = metadata.Thumbnail
	}
	if metadata.Uploader != "" {
		t.metadata.Uploader = metadata.Uploader
	}
}

// PlaylistStub is a playlist entry not yet resolved to a playable reference
type PlaylistStub struct {
	Name       string
	Artist     string
	DurationMs int
	Thumbnail  string
}

// SearchQuery builds the text used to find the stub on the video platform
func (s PlaylistStub) SearchQuery() string {
	if s.Artist == "" {
		return s.Name
	}
	return s.Name + " " + s.Artist
}

// Metadata converts the stub into track metadata
func (s PlaylistStub) Metadata() valueobjects.TrackMetadata {
	return valueobjects.TrackMetadata{
		Title:     s.Name,
		Artist:    s.Artist,
		Duration:  s.DurationMs / 1000,
		Thumbnail: s.Thumbnail,
	}
}
