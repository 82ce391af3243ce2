package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

var (
	// ErrNoSink is returned when the player has no voice connection attached
	ErrNoSink = errors.New("player has no voice connection")
	// ErrAlreadyPlaying is returned when a resource is already playing
	ErrAlreadyPlaying = errors.New("already playing")
)

// OpusSink receives Opus frames, typically a voice connection
type OpusSink interface {
	OpusSend() chan<- []byte
	Speaking(speaking bool) error
}

// IdleHandler is called once per resource when playback ends, with that resource
// and the error that ended it
type IdleHandler func(res *Resource, err error)

// Player plays resources on an attached sink for one guild
type Player struct {
	guildID string
	logger  *logrus.Entry

	sink    OpusSink
	current *Resource
	stop    chan struct{}
	onIdle  IdleHandler

	playing atomic.Bool
	paused  atomic.Bool

	mu sync.Mutex
}

// NewPlayer creates a new player
func NewPlayer(guildID string, log *logger.Logger) *Player {
	return &Player{
		guildID: guildID,
		logger:  log.Component("player").WithField("guild", guildID),
	}
}

// Attach subscribes the player to a sink
func (p *Player) Attach(sink OpusSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// OnIdle sets the handler run when a resource finishes or is stopped
func (p *Player) OnIdle(fn IdleHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onIdle = fn
}

// Play starts playing res
func (p *Player) Play(res *Resource) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing.Load() {
		return ErrAlreadyPlaying
	}
	if p.sink == nil {
		return ErrNoSink
	}

	p.current = res
	p.stop = make(chan struct{})
	p.playing.Store(true)
	p.paused.Store(false)

	go p.playbackLoop(res, p.sink, p.stop)
	return nil
}

// playbackLoop handles the actual playback
func (p *Player) playbackLoop(res *Resource, sink OpusSink, stop chan struct{}) {
	frameCount := 0

	defer func() {
		res.Close()
		sink.Speaking(false)

		p.mu.Lock()
		if p.current == res {
			p.current = nil
			p.playing.Store(false)
			p.paused.Store(false)
		}
		handler := p.onIdle
		p.mu.Unlock()

		p.logger.WithField("frames", frameCount).Debug("Player idle")
		if handler != nil {
			handler(res, res.Err())
		}
	}()

	if err := sink.Speaking(true); err != nil {
		p.logger.WithError(err).Warn("Failed to set speaking status")
	}

	send := sink.OpusSend()
	for {
		select {
		case <-stop:
			p.logger.Info("⏹️ Playback stopped")
			return

		case frame, ok := <-res.Frames():
			if !ok {
				p.logger.WithField("frames", frameCount).Info("✅ Playback completed")
				return
			}

			// Handle pause
			for p.paused.Load() {
				select {
				case <-stop:
					return
				case <-time.After(100 * time.Millisecond):
				}
			}

			select {
			case send <- frame:
				frameCount++
			case <-stop:
				return
			}
		}
	}
}

// Stop ends the current resource. The idle handler fires as a result.
func (p *Player) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing.Load() {
		return false
	}

	// Signal stop - use select to avoid panic on double close
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	return true
}

// Pause pauses playback; false when not playing or already paused
func (p *Player) Pause() bool {
	if !p.playing.Load() || !p.paused.CompareAndSwap(false, true) {
		return false
	}

	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink != nil {
		if err := sink.Speaking(false); err != nil {
			p.logger.WithError(err).Warn("Failed to update speaking status on pause")
		}
	}

	p.logger.Info("⏸️ Playback paused")
	return true
}

// Resume resumes paused playback; false when not paused
func (p *Player) Resume() bool {
	if !p.playing.Load() || !p.paused.CompareAndSwap(true, false) {
		return false
	}

	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink != nil {
		if err := sink.Speaking(true); err != nil {
			p.logger.WithError(err).Warn("Failed to update speaking status on resume")
		}
	}

	p.logger.Info("▶️ Playback resumed")
	return true
}

// SetVolume applies level to the playing resource when it has a live control.
// It reports whether the level took effect immediately.
func (p *Player) SetVolume(level int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || p.current.Volume() == nil {
		return false
	}
	p.current.Volume().SetLevel(level)
	return true
}

// IsPlaying returns true if currently playing
func (p *Player) IsPlaying() bool {
	return p.playing.Load()
}

// IsPaused returns true if currently paused
func (p *Player) IsPaused() bool {
	return p.paused.Load()
}
