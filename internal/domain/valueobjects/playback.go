package valueobjects

import (
	"fmt"
	"strings"
)

// LoopMode defines what happens to a track when it finishes
type LoopMode string

const (
	LoopModeNone  LoopMode = "none"
	LoopModeSong  LoopMode = "song"
	LoopModeQueue LoopMode = "queue"
)

// String returns the string representation
func (m LoopMode) String() string {
	return string(m)
}

// IsValid checks if the loop mode is valid
func (m LoopMode) IsValid() bool {
	switch m {
	case LoopModeNone, LoopModeSong, LoopModeQueue:
		return true
	}
	return false
}

// ParseLoopMode accepts the mode names plus the "off", "track" and "all" aliases
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "":
		return LoopModeNone, nil
	case "song", "track", "one":
		return LoopModeSong, nil
	case "queue", "all":
		return LoopModeQueue, nil
	}
	return "", fmt.Errorf("unknown loop mode %q", s)
}

// Quality is a preference tier for the direct-streaming strategy
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Requester identifies who asked for a track
type Requester struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
