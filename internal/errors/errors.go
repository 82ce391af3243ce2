package errors

import (
	"errors"
	"fmt"
)

// Music core taxonomy
var (
	// ErrNoResults is returned when the resolver found nothing playable
	ErrNoResults = errors.New("no playable results")
	// ErrStreamUnavailable is returned when every acquisition strategy failed
	ErrStreamUnavailable = errors.New("stream unavailable")
	// ErrConnectionTimeout is returned when a voice connection missed its ready or reconnect deadline
	ErrConnectionTimeout = errors.New("voice connection timeout")
	// ErrResourceCreation is returned when a player resource could not be built from a stream
	ErrResourceCreation = errors.New("failed to create audio resource")
)

var (
	// Playback errors
	ErrNotPlaying        = errors.New("no song is currently playing")
	ErrNotPaused         = errors.New("playback is not paused")
	ErrNoVoiceConnection = errors.New("not connected to voice channel")

	// Queue errors
	ErrNoQueue         = errors.New("no active queue for guild")
	ErrQueueEmpty      = errors.New("queue is empty")
	ErrInvalidPosition = errors.New("invalid queue position")

	// Permission errors
	ErrNotInVoiceChannel = errors.New("you must be in a voice channel")
	ErrDifferentChannel  = errors.New("you must be in the same voice channel as the bot")

	// Service errors
	ErrServiceUnavailable = errors.New("service is not configured")
	ErrTimeout            = errors.New("operation timed out")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrInvalidVolume   = errors.New("volume must be between 0 and 200")
	ErrInvalidLoopMode = errors.New("loop mode must be none, song or queue")
)

// TrackError ties a failure to the track being processed
type TrackError struct {
	Title string
	Err   error
}

func (e *TrackError) Error() string {
	return fmt.Sprintf("%s: %v", e.Title, e.Err)
}

func (e *TrackError) Unwrap() error {
	return e.Err
}

// NewTrackError wraps err with the track title
func NewTrackError(title string, err error) *TrackError {
	return &TrackError{Title: title, Err: err}
}

// UserError wraps an error with a user-friendly message
type UserError struct {
	Err     error
	Message string
}

func (e *UserError) Error() string {
	return e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func (e *UserError) UserMessage() string {
	return e.Message
}

// NewUserError creates a new user error
func NewUserError(err error, message string) *UserError {
	return &UserError{
		Err:     err,
		Message: message,
	}
}

// WrapUserError wraps an error with a formatted user-friendly message
func WrapUserError(err error, format string, args ...interface{}) *UserError {
	return &UserError{
		Err:     err,
		Message: fmt.Sprintf(format, args...),
	}
}

// GetUserMessage extracts user-friendly message from error
func GetUserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage()
	}

	switch {
	case errors.Is(err, ErrNoResults):
		return "🔍 No playable results found for that query"
	case errors.Is(err, ErrStreamUnavailable):
		return "📡 Could not get an audio stream for that track"
	case errors.Is(err, ErrConnectionTimeout):
		return "⏱️ Voice connection timed out. Please try again"
	case errors.Is(err, ErrResourceCreation):
		return "🎛️ Audio could not be prepared for playback"
	case errors.Is(err, ErrNotPlaying):
		return "❌ Nothing is playing right now"
	case errors.Is(err, ErrNotPaused):
		return "▶️ Playback is not paused"
	case errors.Is(err, ErrNoQueue), errors.Is(err, ErrNoVoiceConnection):
		return "🔇 I'm not in a voice channel. Use `/join` first"
	case errors.Is(err, ErrQueueEmpty):
		return "📋 Queue is empty. Use `/play` to add songs"
	case errors.Is(err, ErrInvalidPosition):
		return "🔢 That position is not in the queue"
	case errors.Is(err, ErrNotInVoiceChannel):
		return "🔊 You need to join a voice channel first"
	case errors.Is(err, ErrDifferentChannel):
		return "⚠️ You must be in the same voice channel as the bot"
	case errors.Is(err, ErrServiceUnavailable):
		return "🧩 That source is not configured on this bot"
	case errors.Is(err, ErrInvalidURL):
		return "🔗 Invalid URL. Please provide a valid YouTube or Spotify link"
	case errors.Is(err, ErrInvalidVolume):
		return "🔊 Volume must be between 0 and 200"
	case errors.Is(err, ErrInvalidLoopMode):
		return "🔁 Loop mode must be off, song or queue"
	case errors.Is(err, ErrTimeout):
		return "⏱️ Operation timed out. Please try again"
	default:
		return "❌ An error occurred. Please try again later"
	}
}
