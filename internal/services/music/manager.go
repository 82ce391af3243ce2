package music

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/repositories"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/audio"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/voice"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

const settingsTimeout = 5 * time.Second

// TrackResolver turns a user query into tracks
type TrackResolver interface {
	Resolve(ctx context.Context, guildID, query string, requester valueobjects.Requester) ([]*entities.Track, error)
}

// Acquirer opens the audio stream of a track
type Acquirer interface {
	Acquire(ctx context.Context, track *entities.Track, guildID string) (*audio.Stream, error)
}

// ResourceFactory builds a playable resource from a stream
type ResourceFactory interface {
	NewResource(ctx context.Context, stream *audio.Stream, volume int) (*audio.Resource, error)
}

// VoiceManager owns the guilds' voice connections
type VoiceManager interface {
	Join(ctx context.Context, guildID, channelID string) (voice.Connection, error)
	Leave(guildID string) error
	Release(guildID string) bool
	Get(guildID string) (voice.Connection, bool)
	WaitReady(ctx context.Context, guildID string, timeout time.Duration) error
	OnLost(fn voice.LostHandler)
}

// Options wires a Manager. Buffer, Players, Registry, Settings and Notifier are optional.
type Options struct {
	Voice     VoiceManager
	Resolver  TrackResolver
	Acquirer  Acquirer
	Resources ResourceFactory

	Buffer   *Buffer
	Players  PlayerFactory
	Registry QueueRegistry
	Settings repositories.GuildSettingsRepository
	Notifier Notifier

	Music         config.MusicConfig
	DefaultVolume int
}

// PlayRequest is a /play invocation
type PlayRequest struct {
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
	Query          string
	Requester      valueobjects.Requester
}

// Stats is a snapshot of the manager's load
type Stats struct {
	Guilds            int
	Playing           int
	Pending           int
	BufferedPlaylists int
}

// Manager runs one queue per guild: it joins voice, enqueues resolved tracks and
// advances through them as the player goes idle.
type Manager struct {
	voice     VoiceManager
	resolver  TrackResolver
	acquirer  Acquirer
	resources ResourceFactory
	buffer    *Buffer
	players   PlayerFactory
	registry  QueueRegistry
	settings  repositories.GuildSettingsRepository
	notifier  Notifier

	music         config.MusicConfig
	defaultVolume int
	logger        *logrus.Entry
}

// NewManager creates a music manager and subscribes it to lost voice connections
func NewManager(opts Options, log *logger.Logger) *Manager {
	m := &Manager{
		voice:         opts.Voice,
		resolver:      opts.Resolver,
		acquirer:      opts.Acquirer,
		resources:     opts.Resources,
		buffer:        opts.Buffer,
		players:       opts.Players,
		registry:      opts.Registry,
		settings:      opts.Settings,
		notifier:      opts.Notifier,
		music:         opts.Music,
		defaultVolume: opts.DefaultVolume,
		logger:        log.Component("music"),
	}

	if m.players == nil {
		m.players = func(guildID string) Player {
			return audio.NewPlayer(guildID, log)
		}
	}
	if m.registry == nil {
		m.registry = NewMemoryRegistry()
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.defaultVolume == 0 {
		m.defaultVolume = entities.DefaultVolume
	}

	m.voice.OnLost(m.handleLost)
	return m
}

// Join connects the guild to a voice channel and returns its session, creating it
// with the stored guild settings when needed.
func (m *Manager) Join(ctx context.Context, guildID, voiceChannelID, textChannelID string) (*Session, error) {
	conn, err := m.voice.Join(ctx, guildID, voiceChannelID)
	if err != nil {
		return nil, err
	}

	s := m.session(ctx, guildID)
	s.player.Attach(conn)
	s.queue.SetConnected(true)
	if textChannelID != "" {
		s.queue.SetTextChannelID(textChannelID)
	}
	return s, nil
}

func (m *Manager) session(ctx context.Context, guildID string) *Session {
	if s, ok := m.registry.Get(guildID); ok {
		return s
	}

	settings := m.loadSettings(ctx, guildID)
	s, created := m.registry.GetOrCreate(guildID, func() *Session {
		queue := entities.NewQueue(guildID)
		settings.ApplyTo(queue)
		return newSession(queue, m.players(guildID))
	})
	if created {
		s.player.OnIdle(m.idleHandler(s))
		m.logger.WithFields(logrus.Fields{
			"guild":  guildID,
			"volume": s.queue.Volume(),
			"loop":   s.queue.LoopMode(),
		}).Info("📋 Queue created")
	}
	return s
}

// Play joins the requester's channel, resolves the query and enqueues the result.
// Resolution errors are returned; playback errors are reported through the Notifier.
func (m *Manager) Play(ctx context.Context, req PlayRequest) ([]*entities.Track, error) {
	s, err := m.Join(ctx, req.GuildID, req.VoiceChannelID, req.TextChannelID)
	if err != nil {
		return nil, err
	}

	tracks, err := m.resolver.Resolve(ctx, req.GuildID, req.Query, req.Requester)
	if err != nil {
		return nil, err
	}

	m.enqueue(s, tracks...)
	return tracks, nil
}

// Enqueue appends tracks to a joined guild's queue
func (m *Manager) Enqueue(guildID string, tracks ...*entities.Track) error {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return apperrors.ErrNoQueue
	}
	m.enqueue(s, tracks...)
	return nil
}

func (m *Manager) enqueue(s *Session, tracks ...*entities.Track) {
	if len(tracks) == 0 || s.closed() {
		return
	}

	n := s.queue.Enqueue(tracks...)
	m.logger.WithFields(logrus.Fields{
		"guild":   s.GuildID(),
		"added":   len(tracks),
		"pending": n,
	}).Info("➕ Tracks queued")

	if !s.queue.IsPlaying() {
		go m.playNext(s)
	}
}

// playNext starts the next playable track. Concurrent calls for a guild collapse
// into one running loop.
func (m *Manager) playNext(s *Session) {
	if !s.begin() {
		return
	}
	for {
		m.advance(s)
		if !s.end() {
			return
		}
	}
}

// advance pops tracks until one starts. Tracks that fail are reported and skipped.
func (m *Manager) advance(s *Session) {
	log := m.logger.WithField("guild", s.GuildID())

	for {
		if s.closed() || s.queue.IsPlaying() {
			return
		}

		track := s.queue.PopHead()
		if track == nil {
			log.Info("Queue finished")
			return
		}

		err := m.start(s, track)
		switch {
		case err == nil:
			return
		case errors.Is(err, errStale), errors.Is(err, context.Canceled):
			log.WithField("track", track.Title()).Debug("Playback attempt discarded")
			return
		case errors.Is(err, apperrors.ErrConnectionTimeout):
			// Keep the track; nothing can play until the connection is back
			s.queue.PushFront(track)
			log.WithError(err).Error("❌ Voice connection not ready")
			m.notifier.TrackFailed(s.queue.TextChannelID(), track, err)
			return
		}

		log.WithError(err).WithField("track", track.Title()).Warn("⚠️ Track failed, moving on")
		m.notifier.TrackFailed(s.queue.TextChannelID(), track, err)
	}
}

func (m *Manager) start(s *Session, track *entities.Track) error {
	ctx, gen := s.attempt()

	if err := m.voice.WaitReady(ctx, s.GuildID(), m.music.ConnectionTimeout); err != nil {
		if ctx.Err() != nil {
			return errStale
		}
		if !errors.Is(err, apperrors.ErrConnectionTimeout) {
			err = fmt.Errorf("%w: %v", apperrors.ErrConnectionTimeout, err)
		}
		return err
	}

	stream, err := m.acquirer.Acquire(ctx, track, s.GuildID())
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		stream.Close()
		return errStale
	}

	res, err := m.resources.NewResource(ctx, stream, s.queue.Volume())
	if err != nil {
		stream.Close()
		if !errors.Is(err, apperrors.ErrResourceCreation) {
			err = fmt.Errorf("%w: %v", apperrors.ErrResourceCreation, err)
		}
		return apperrors.NewTrackError(track.Title(), err)
	}

	err = s.commit(gen, func() error {
		s.queue.StartPlaying(track)
		if err := s.player.Play(res); err != nil {
			s.queue.AbandonCurrent(track)
			return fmt.Errorf("%w: %v", apperrors.ErrResourceCreation, err)
		}
		s.playing(res, track)
		return nil
	})
	if err != nil {
		res.Close()
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"guild":    s.GuildID(),
		"track":    track.Title(),
		"strategy": stream.Strategy,
		"pending":  s.queue.Len(),
	}).Info("🎵 Now playing")
	m.notifier.NowPlaying(s.queue.TextChannelID(), track)
	return nil
}

// idleHandler applies the loop mode, advances and tops up a buffered playlist
func (m *Manager) idleHandler(s *Session) audio.IdleHandler {
	return func(res *audio.Resource, err error) {
		if err != nil {
			m.logger.WithError(err).WithField("guild", s.GuildID()).Warn("Track ended with error")
		}

		// A late idle from a replaced resource must not end the track that followed it
		if track := s.finished(res); track != nil {
			s.queue.FinishCurrent(track)
		}
		if s.closed() {
			return
		}

		m.playNext(s)
		m.refill(s)
	}
}

func (m *Manager) refill(s *Session) {
	if m.buffer == nil || s.closed() {
		return
	}

	track, err := m.buffer.Refill(s.GuildID(), s.queue.Len())
	if err != nil || track == nil {
		return
	}
	if s.closed() {
		return
	}

	s.queue.Enqueue(track)
	m.logger.WithFields(logrus.Fields{
		"guild":   s.GuildID(),
		"track":   track.Title(),
		"pending": s.queue.Len(),
	}).Debug("✅ Buffer refilled")

	if !s.queue.IsPlaying() {
		m.playNext(s)
	}
}

// Skip stops the current track; the idle handler moves to the next one
func (m *Manager) Skip(guildID string) (*entities.Track, error) {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return nil, apperrors.ErrNoQueue
	}

	current := s.queue.Current()
	if current == nil || !s.queue.IsPlaying() {
		return nil, apperrors.ErrNotPlaying
	}

	s.player.Stop()
	m.logger.WithFields(logrus.Fields{
		"guild": guildID,
		"track": current.Title(),
	}).Info("⏭️ Song skipped")
	return current, nil
}

// Pause pauses playback. It returns false when nothing is playing or it already is paused.
func (m *Manager) Pause(guildID string) bool {
	s, ok := m.registry.Get(guildID)
	if !ok || !s.player.Pause() {
		return false
	}
	s.queue.SetPaused(true)
	m.logger.WithField("guild", guildID).Info("⏸️ Playback paused")
	return true
}

// Resume resumes paused playback. It returns false when playback is not paused.
func (m *Manager) Resume(guildID string) bool {
	s, ok := m.registry.Get(guildID)
	if !ok || !s.player.Resume() {
		return false
	}
	s.queue.SetPaused(false)
	m.logger.WithField("guild", guildID).Info("▶️ Playback resumed")
	return true
}

// Stop clears the queue and the current track and stops the player. The bot stays connected.
func (m *Manager) Stop(guildID string) bool {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return false
	}

	s.interrupt()
	s.queue.Reset()
	if m.buffer != nil {
		m.buffer.Cancel(guildID)
	}
	s.player.Stop()

	m.logger.WithField("guild", guildID).Info("⏹️ Playback stopped")
	return true
}

// SetVolume stores the volume and applies it to the current track when it has a
// live volume control. It reports whether the current track changed.
func (m *Manager) SetVolume(ctx context.Context, guildID string, volume int) (bool, error) {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return false, apperrors.ErrNoQueue
	}
	if err := s.queue.SetVolume(volume); err != nil {
		return false, err
	}

	live := s.player.SetVolume(volume)
	m.saveSettings(ctx, s)

	m.logger.WithFields(logrus.Fields{
		"guild":  guildID,
		"volume": volume,
		"live":   live,
	}).Info("🔊 Volume changed")
	return live, nil
}

// SetLoop sets and stores the loop mode
func (m *Manager) SetLoop(ctx context.Context, guildID string, mode valueobjects.LoopMode) error {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return apperrors.ErrNoQueue
	}
	if err := s.queue.SetLoopMode(mode); err != nil {
		return err
	}

	m.saveSettings(ctx, s)
	m.logger.WithFields(logrus.Fields{
		"guild": guildID,
		"mode":  mode,
	}).Info("🔁 Loop mode changed")
	return nil
}

// Shuffle shuffles the pending tracks; false with fewer than two
func (m *Manager) Shuffle(guildID string) bool {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return false
	}
	return s.queue.Shuffle()
}

// RemoveSong removes the pending track at a 1-based position, nil when out of range
func (m *Manager) RemoveSong(guildID string, position int) *entities.Track {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return nil
	}
	return s.queue.Remove(position)
}

// ClearSongs drops every pending track but keeps the current one
func (m *Manager) ClearSongs(guildID string) int {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return 0
	}
	if m.buffer != nil {
		m.buffer.Cancel(guildID)
	}
	return s.queue.Clear()
}

// GetQueue returns a snapshot of the guild's queue, nil when there is none
func (m *Manager) GetQueue(guildID string) *entities.QueueSnapshot {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return nil
	}
	return s.queue.Snapshot()
}

// VoiceChannel returns the channel the guild is connected to
func (m *Manager) VoiceChannel(guildID string) (string, bool) {
	conn, ok := m.voice.Get(guildID)
	if !ok {
		return "", false
	}
	return conn.ChannelID(), true
}

// Leave tears the queue down and disconnects from voice
func (m *Manager) Leave(guildID string) error {
	torn := m.teardown(guildID)

	err := m.voice.Leave(guildID)
	if errors.Is(err, voice.ErrNotConnected) {
		if !torn {
			return apperrors.ErrNoVoiceConnection
		}
		return nil
	}
	if err != nil {
		m.logger.WithError(err).WithField("guild", guildID).Warn("Failed to leave voice channel cleanly")
	}
	return nil
}

// HandleForcedDisconnect cleans up after the bot was removed from its channel by
// someone else. The connection is only destroyed if it is not already. It reports
// whether anything was cleaned up; repeated calls are no-ops.
func (m *Manager) HandleForcedDisconnect(guildID string) bool {
	torn := m.teardown(guildID)
	m.voice.Release(guildID)

	if torn {
		m.logger.WithField("guild", guildID).Warn("⚠️ Removed from voice channel, queue cleaned up")
	}
	return torn
}

// handleLost runs when a connection failed to reconnect; the voice manager already dropped it
func (m *Manager) handleLost(guildID string) {
	s, ok := m.registry.Get(guildID)
	if !ok {
		return
	}
	channel := s.queue.TextChannelID()
	if m.teardown(guildID) {
		m.notifier.ConnectionLost(channel)
	}
}

// teardown removes and stops the guild's session. Only the first caller for a session
// gets true.
func (m *Manager) teardown(guildID string) bool {
	s, ok := m.registry.Remove(guildID)
	if !ok {
		return false
	}

	s.close()
	s.queue.Reset()
	s.queue.SetConnected(false)
	if m.buffer != nil {
		m.buffer.Cancel(guildID)
	}
	s.player.Stop()

	m.logger.WithField("guild", guildID).Info("🧹 Queue removed")
	return true
}

// GetStats returns the load across all guilds
func (m *Manager) GetStats() Stats {
	stats := Stats{}
	for _, s := range m.registry.Sessions() {
		stats.Guilds++
		if s.queue.IsPlaying() {
			stats.Playing++
		}
		stats.Pending += s.queue.Len()
	}
	if m.buffer != nil {
		stats.BufferedPlaylists = m.buffer.Active()
	}
	return stats
}

// Shutdown leaves every guild
func (m *Manager) Shutdown() {
	sessions := m.registry.Sessions()
	for _, s := range sessions {
		m.Leave(s.GuildID())
	}
	m.logger.WithField("guilds", len(sessions)).Info("✅ Music manager stopped")
}

func (m *Manager) loadSettings(ctx context.Context, guildID string) *entities.GuildSettings {
	defaults := entities.NewGuildSettings(guildID, m.defaultVolume)
	if m.settings == nil {
		return defaults
	}

	ctx, cancel := context.WithTimeout(ctx, settingsTimeout)
	defer cancel()

	settings, err := m.settings.Get(ctx, guildID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			m.logger.WithError(err).WithField("guild", guildID).Warn("Failed to load guild settings")
		}
		return defaults
	}
	return settings
}

func (m *Manager) saveSettings(ctx context.Context, s *Session) {
	if m.settings == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, settingsTimeout)
	defer cancel()

	settings := entities.NewGuildSettings(s.GuildID(), m.defaultVolume)
	settings.CaptureFrom(s.queue)
	if err := m.settings.Save(ctx, settings); err != nil {
		m.logger.WithError(err).WithField("guild", s.GuildID()).Warn("Failed to save guild settings")
	}
}
