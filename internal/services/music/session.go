package music

import (
	"context"
	"errors"
	"sync"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/audio"
)

// errStale marks a start attempt overtaken by stop, leave or a forced disconnect
var errStale = errors.New("playback attempt superseded")

// Player plays one resource at a time on a voice connection
type Player interface {
	Attach(sink audio.OpusSink)
	OnIdle(fn audio.IdleHandler)
	Play(res *audio.Resource) error
	Stop() bool
	Pause() bool
	Resume() bool
	SetVolume(level int) bool
	IsPlaying() bool
}

// PlayerFactory creates the player of a new session
type PlayerFactory func(guildID string) Player

// Session is a guild's queue together with the player draining it
type Session struct {
	queue  *entities.Queue
	player Player

	// ctx ends when the session is torn down
	ctx    context.Context
	cancel context.CancelFunc

	stateMu    sync.Mutex
	playCtx    context.Context
	playCancel context.CancelFunc
	generation uint64
	res        *audio.Resource
	track      *entities.Track

	advanceMu sync.Mutex
	advancing bool
	rerun     bool
}

func newSession(queue *entities.Queue, player Player) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		queue:  queue,
		player: player,
		ctx:    ctx,
		cancel: cancel,
	}
}

// GuildID returns the owning guild
func (s *Session) GuildID() string {
	return s.queue.GuildID()
}

// Queue returns the guild's queue
func (s *Session) Queue() *entities.Queue {
	return s.queue
}

// attempt returns the context and generation a start attempt runs under
func (s *Session) attempt() (context.Context, uint64) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.playCtx == nil || s.playCtx.Err() != nil {
		s.playCtx, s.playCancel = context.WithCancel(s.ctx)
	}
	return s.playCtx, s.generation
}

// interrupt cancels in-flight acquisitions and invalidates their results
func (s *Session) interrupt() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.generation++
	if s.playCancel != nil {
		s.playCancel()
	}
}

// commit runs fn only if no interrupt happened since gen was taken
func (s *Session) commit(gen uint64, fn func() error) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if gen != s.generation || s.ctx.Err() != nil {
		return errStale
	}
	return fn()
}

// playing records the resource handed to the player. Callers hold stateMu, as commit does.
func (s *Session) playing(res *audio.Resource, track *entities.Track) {
	s.res, s.track = res, track
}

// finished returns the track res was carrying, nil when res is no longer the
// session's resource
func (s *Session) finished(res *audio.Resource) *entities.Track {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if res == nil || s.res != res {
		return nil
	}
	track := s.track
	s.res, s.track = nil, nil
	return track
}

func (s *Session) close() {
	s.interrupt()
	s.cancel()
}

func (s *Session) closed() bool {
	return s.ctx.Err() != nil
}

// begin claims the advance loop. A caller that finds it taken asks the owner to run again.
func (s *Session) begin() bool {
	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	if s.advancing {
		s.rerun = true
		return false
	}
	s.advancing = true
	return true
}

// end releases the advance loop unless another run was requested meanwhile
func (s *Session) end() bool {
	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	if s.rerun {
		s.rerun = false
		return true
	}
	s.advancing = false
	return false
}
