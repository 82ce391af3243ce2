package entities

import (
	"math/rand"
	"sync"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/guild-music-bot/internal/errors"
)

// QueueState is the playback state of a guild queue
type QueueState string

const (
	QueueStateIdle           QueueState = "idle"
	QueueStateConnectedEmpty QueueState = "connected_empty"
	QueueStatePlaying        QueueState = "playing"
	QueueStatePaused         QueueState = "paused"
)

const (
	// MaxHistory bounds the number of finished tracks remembered per queue
	MaxHistory = 10

	MinVolume     = 0
	MaxVolume     = 200
	DefaultVolume = 100
)

// Queue holds the pending tracks and playback state of one guild
type Queue struct {
	guildID       string
	textChannelID string

	pending []*Track
	current *Track
	history []*Track

	loopMode  valueobjects.LoopMode
	volume    int
	playing   bool
	paused    bool
	connected bool

	mu sync.RWMutex
}

// NewQueue creates an empty queue for a guild
func NewQueue(guildID string) *Queue {
	return &Queue{
		guildID:  guildID,
		pending:  make([]*Track, 0),
		history:  make([]*Track, 0, MaxHistory),
		loopMode: valueobjects.LoopModeNone,
		volume:   DefaultVolume,
	}
}

// GuildID returns the owning guild
func (q *Queue) GuildID() string {
	return q.guildID
}

// Enqueue appends tracks and returns the new pending length
func (q *Queue) Enqueue(tracks ...*Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, tracks...)
	return len(q.pending)
}

// PushFront inserts a track at the head of the pending list
func (q *Queue) PushFront(track *Track) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append([]*Track{track}, q.pending...)
}

// PopHead removes and returns the head of the pending list, nil when empty
func (q *Queue) PopHead() *Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	head := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return head
}

// Remove deletes the track at a 1-based position.
// Returns nil and leaves the list untouched when the position is out of range.
func (q *Queue) Remove(position int) *Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	index := position - 1
	if index < 0 || index >= len(q.pending) {
		return nil
	}

	removed := q.pending[index]
	q.pending = append(q.pending[:index:index], q.pending[index+1:]...)
	return removed
}

// Shuffle randomizes the pending list in place. Returns false with fewer than 2 tracks.
func (q *Queue) Shuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) < 2 {
		return false
	}

	// Fisher-Yates shuffle
	for i := len(q.pending) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		q.pending[i], q.pending[j] = q.pending[j], q.pending[i]
	}
	return true
}

// Clear drops every pending track and returns how many were removed
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.pending)
	q.pending = make([]*Track, 0)
	return n
}

// Reset clears pending and current and drops the play/pause flags
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = make([]*Track, 0)
	q.current = nil
	q.playing = false
	q.paused = false
}

// Pending returns a copy of the pending list
func (q *Queue) Pending() []*Track {
	q.mu.RLock()
	defer q.mu.RUnlock()

	tracks := make([]*Track, len(q.pending))
	copy(tracks, q.pending)
	return tracks
}

// Len returns the number of pending tracks
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.pending)
}

// Current returns the track being played, nil when none
func (q *Queue) Current() *Track {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current
}

// StartPlaying sets the current track and marks the queue playing
func (q *Queue) StartPlaying(track *Track) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.current = track
	q.playing = true
	q.paused = false
}

// FinishCurrent ends track and applies the loop mode. It does nothing and returns
// nil unless track is the current one.
// Song loop puts it back at the head, queue loop at the tail. The finished
// track goes to history unless it is looping on itself.
func (q *Queue) FinishCurrent(track *Track) *Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if track == nil || q.current != track {
		return nil
	}
	finished := q.current
	q.current = nil
	q.playing = false
	q.paused = false

	switch q.loopMode {
	case valueobjects.LoopModeSong:
		q.pending = append([]*Track{finished}, q.pending...)
	case valueobjects.LoopModeQueue:
		q.pending = append(q.pending, finished)
	}

	if q.loopMode != valueobjects.LoopModeSong {
		q.addToHistory(finished)
	}
	return finished
}

// AbandonCurrent drops the current track without applying the loop mode or history.
// Used when a track could not start.
func (q *Queue) AbandonCurrent(track *Track) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current != track {
		return false
	}
	q.current = nil
	q.playing = false
	q.paused = false
	return true
}

// SetPaused updates the pause flag. Returns false when it was already in that state
// or nothing is playing.
func (q *Queue) SetPaused(paused bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.playing || q.paused == paused {
		return false
	}
	q.paused = paused
	return true
}

// IsPlaying reports whether a track is playing (paused counts as playing)
func (q *Queue) IsPlaying() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.playing
}

// IsPaused reports whether playback is paused
func (q *Queue) IsPaused() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.paused
}

// SetConnected records whether a voice connection backs the queue
func (q *Queue) SetConnected(connected bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.connected = connected
}

// State derives the playback state
func (q *Queue) State() QueueState {
	q.mu.RLock()
	defer q.mu.RUnlock()

	switch {
	case !q.connected:
		return QueueStateIdle
	case q.playing && q.paused:
		return QueueStatePaused
	case q.playing:
		return QueueStatePlaying
	default:
		return QueueStateConnectedEmpty
	}
}

// LoopMode returns the loop mode
func (q *Queue) LoopMode() valueobjects.LoopMode {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.loopMode
}

// SetLoopMode sets the loop mode
func (q *Queue) SetLoopMode(mode valueobjects.LoopMode) error {
	if !mode.IsValid() {
		return errors.ErrInvalidLoopMode
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.loopMode = mode
	return nil
}

// Volume returns the volume percentage
func (q *Queue) Volume() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.volume
}

// SetVolume stores the volume percentage (0-200)
func (q *Queue) SetVolume(volume int) error {
	if volume < MinVolume || volume > MaxVolume {
		return errors.ErrInvalidVolume
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.volume = volume
	return nil
}

// TextChannelID returns the channel notifications go to
func (q *Queue) TextChannelID() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.textChannelID
}

// SetTextChannelID binds notifications to a text channel
func (q *Queue) SetTextChannelID(channelID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.textChannelID = channelID
}

// History returns the finished tracks, oldest first
func (q *Queue) History() []*Track {
	q.mu.RLock()
	defer q.mu.RUnlock()

	tracks := make([]*Track, len(q.history))
	copy(tracks, q.history)
	return tracks
}

// Snapshot returns a read-only copy of the queue
func (q *Queue) Snapshot() *QueueSnapshot {
	q.mu.RLock()
	defer q.mu.RUnlock()

	pending := make([]*Track, len(q.pending))
	copy(pending, q.pending)

	snapshot := &QueueSnapshot{
		GuildID:  q.guildID,
		Current:  q.current,
		Pending:  pending,
		LoopMode: q.loopMode,
		Volume:   q.volume,
		Playing:  q.playing,
		Paused:   q.paused,
	}

	for _, t := range pending {
		snapshot.TotalDuration += t.Duration()
	}
	return snapshot
}

// addToHistory appends to history (must be called with lock held)
func (q *Queue) addToHistory(track *Track) {
	if len(q.history) >= MaxHistory {
		q.history = append(q.history[:0], q.history[1:]...)
	}
	q.history = append(q.history, track)
}

// QueueSnapshot is a point-in-time view of a queue
type QueueSnapshot struct {
	GuildID       string
	Current       *Track
	Pending       []*Track
	LoopMode      valueobjects.LoopMode
	Volume        int
	Playing       bool
	Paused        bool
	TotalDuration int
}
