package valueobjects

import "testing"

func TestParseLoopMode(t *testing.T) {
	tests := []struct {
		input    string
		expected LoopMode
		wantErr  bool
	}{
		{"none", LoopModeNone, false},
		{"off", LoopModeNone, false},
		{"Song", LoopModeSong, false},
		{"track", LoopModeSong, false},
		{"queue", LoopModeQueue, false},
		{" all ", LoopModeQueue, false},
		{"forever", "", true},
	}

	for _, tt := range tests {
		mode, err := ParseLoopMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLoopMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if mode != tt.expected {
			t.Errorf("ParseLoopMode(%q) = %q, expected %q", tt.input, mode, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "LIVE"},
		{59, "00:59"},
		{245, "04:05"},
		{3725, "1:02:05"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.expected {
			t.Errorf("FormatDuration(%d) = %q, expected %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestSourceKindGroups(t *testing.T) {
	if !SourceKindStreamingPlaylist.IsStreamingService() || !SourceKindStreamingPlaylist.IsPlaylist() {
		t.Error("streaming playlist should be a streaming-service playlist")
	}
	if SourceKindVideoSingle.IsPlaylist() || SourceKindVideoSingle.IsStreamingService() {
		t.Error("single video is neither a playlist nor a streaming-service source")
	}
	if SourceKind("soundcloud").IsValid() {
		t.Error("unknown kinds must not be valid")
	}
}

func TestDisplayNameAvoidsRepeatingArtist(t *testing.T) {
	m := TrackMetadata{Title: "Daft Punk - One More Time", Artist: "Daft Punk"}
	if m.DisplayName() != "Daft Punk - One More Time" {
		t.Errorf("Unexpected display name %q", m.DisplayName())
	}

	m = TrackMetadata{Title: "One More Time", Artist: "Daft Punk"}
	if m.DisplayName() != "Daft Punk - One More Time" {
		t.Errorf("Unexpected display name %q", m.DisplayName())
	}
}
