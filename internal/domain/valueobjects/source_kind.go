package valueobjects

// SourceKind classifies what a query or track reference points at
type SourceKind string

const (
	SourceKindFreeText          SourceKind = "free_text"
	SourceKindStreamingTrack    SourceKind = "streaming_track"
	SourceKindStreamingPlaylist SourceKind = "streaming_playlist"
	SourceKindVideoSingle       SourceKind = "video_single"
	SourceKindVideoPlaylist     SourceKind = "video_playlist"
)

// String returns the string representation
func (k SourceKind) String() string {
	return string(k)
}

// IsValid checks if the source kind is valid
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindFreeText, SourceKindStreamingTrack, SourceKindStreamingPlaylist,
		SourceKindVideoSingle, SourceKindVideoPlaylist:
		return true
	}
	return false
}

// IsStreamingService reports whether the source lives on the metadata-only music service
func (k SourceKind) IsStreamingService() bool {
	return k == SourceKindStreamingTrack || k == SourceKindStreamingPlaylist
}

// IsPlaylist reports whether the source expands to more than one track
func (k SourceKind) IsPlaylist() bool {
	return k == SourceKindStreamingPlaylist || k == SourceKindVideoPlaylist
}

// Source is the result of classifying a query.
// ID is the platform identifier (video id, playlist id, spotify id) when one was found.
// Collection is "playlist" or "album" for streaming playlists.
type Source struct {
	Kind       SourceKind
	ID         string
	URL        string
	Collection string
}
