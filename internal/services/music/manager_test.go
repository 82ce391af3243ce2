package music

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/repositories"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/audio"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/voice"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func track(title string) *entities.Track {
	return entities.NewTrack(
		valueobjects.TrackMetadata{Title: title, Duration: 180},
		"https://www.youtube.com/watch?v="+title,
		valueobjects.Requester{ID: "u1", DisplayName: "tester"},
	)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

// Voice fakes

type fakeConnection struct {
	guildID   string
	channelID string

	mu       sync.Mutex
	state    voice.State
	destroys int
}

func (c *fakeConnection) GuildID() string { return c.guildID }
func (c *fakeConnection) ChannelID() string { return c.channelID }

func (c *fakeConnection) State() voice.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeConnection) setState(s voice.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *fakeConnection) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == voice.StateDestroyed {
		return errors.New("cannot destroy voice connection that has been destroyed")
	}
	c.destroys++
	c.state = voice.StateDestroyed
	return nil
}

func (c *fakeConnection) destroyCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroys
}

func (c *fakeConnection) OpusSend() chan<- []byte { return make(chan []byte, 1) }
func (c *fakeConnection) Speaking(bool) error { return nil }

type fakePlatform struct {
	mu    sync.Mutex
	conns []*fakeConnection
}

func (p *fakePlatform) Join(ctx context.Context, guildID, channelID string) (voice.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &fakeConnection{guildID: guildID, channelID: channelID, state: voice.StateReady}
	p.conns = append(p.conns, c)
	return c, nil
}

func (p *fakePlatform) last() *fakeConnection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns[len(p.conns)-1]
}

// Playback fakes

type fakePlayer struct {
	mu      sync.Mutex
	onIdle  audio.IdleHandler
	current *audio.Resource
	held    []func()
	hold    bool
	playing bool
	paused  bool
	volume  int
	plays   int
	stops   int
}

func (p *fakePlayer) Attach(audio.OpusSink) {}

func (p *fakePlayer) OnIdle(fn audio.IdleHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onIdle = fn
}

func (p *fakePlayer) Play(res *audio.Resource) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return audio.ErrAlreadyPlaying
	}
	p.current = res
	p.playing = true
	p.plays++
	return nil
}

func (p *fakePlayer) Stop() bool {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return false
	}
	p.playing = false
	p.paused = false
	p.stops++
	handler, res := p.onIdle, p.current
	if p.hold {
		p.held = append(p.held, func() { handler(res, nil) })
		p.mu.Unlock()
		return true
	}
	p.mu.Unlock()

	go handler(res, nil)
	return true
}

// finish ends the current track the way a drained resource does
func (p *fakePlayer) finish() {
	p.mu.Lock()
	p.playing = false
	handler, res := p.onIdle, p.current
	p.mu.Unlock()
	handler(res, nil)
}

// holdIdle delays idle callbacks from Stop until release
func (p *fakePlayer) holdIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hold = true
}

func (p *fakePlayer) release() {
	p.mu.Lock()
	held := p.held
	p.held, p.hold = nil, false
	p.mu.Unlock()
	for _, fn := range held {
		fn()
	}
}

func (p *fakePlayer) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || p.paused {
		return false
	}
	p.paused = true
	return true
}

func (p *fakePlayer) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return false
	}
	p.paused = false
	return true
}

func (p *fakePlayer) SetVolume(level int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = level
	return p.playing
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

type fakeResolver struct {
	tracks []*entities.Track
	err    error
}

func (r *fakeResolver) Resolve(ctx context.Context, guildID, query string, requester valueobjects.Requester) ([]*entities.Track, error) {
	return r.tracks, r.err
}

type fakeAcquirer struct {
	mu       sync.Mutex
	failing  map[string]bool
	acquired []string
}

func (a *fakeAcquirer) Acquire(ctx context.Context, t *entities.Track, guildID string) (*audio.Stream, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acquired = append(a.acquired, t.Title())
	if a.failing[t.Title()] {
		return nil, apperrors.NewTrackError(t.Title(), apperrors.ErrStreamUnavailable)
	}
	return audio.NewStream(io.NopCloser(strings.NewReader("pcm")), audio.FormatPCM, "fake"), nil
}

type fakeResources struct{}

func (fakeResources) NewResource(ctx context.Context, stream *audio.Stream, volume int) (*audio.Resource, error) {
	return new(audio.Resource), nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	playing []string
	failed  []string
	lost    int
}

func (n *fakeNotifier) NowPlaying(channelID string, t *entities.Track) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.playing = append(n.playing, t.Title())
}

func (n *fakeNotifier) TrackFailed(channelID string, t *entities.Track, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, t.Title())
}

func (n *fakeNotifier) ConnectionLost(string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lost++
}

func (n *fakeNotifier) failures() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.failed...)
}

type memorySettings struct {
	mu    sync.Mutex
	saved map[string]entities.GuildSettings
}

func (s *memorySettings) Get(ctx context.Context, guildID string) (*entities.GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := s.saved[guildID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &settings, nil
}

func (s *memorySettings) Save(ctx context.Context, settings *entities.GuildSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[settings.GuildID] = *settings
	return nil
}

func (s *memorySettings) Delete(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved, guildID)
	return nil
}

func (s *memorySettings) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

type harness struct {
	manager  *Manager
	platform *fakePlatform
	player   *fakePlayer
	resolver *fakeResolver
	acquirer *fakeAcquirer
	notifier *fakeNotifier
	settings *memorySettings
}

func newHarness(t *testing.T, buffer *Buffer) *harness {
	t.Helper()

	h := &harness{
		platform: &fakePlatform{},
		player:   &fakePlayer{},
		resolver: &fakeResolver{},
		acquirer: &fakeAcquirer{failing: map[string]bool{}},
		notifier: &fakeNotifier{},
		settings: &memorySettings{saved: map[string]entities.GuildSettings{}},
	}

	log := testLogger()
	music := config.DefaultMusicConfig()
	music.ConnectionTimeout = 100 * time.Millisecond

	h.manager = NewManager(Options{
		Voice:     voice.NewManager(h.platform, time.Second, 50*time.Millisecond, log),
		Resolver:  h.resolver,
		Acquirer:  h.acquirer,
		Resources: fakeResources{},
		Buffer:    buffer,
		Players:   func(string) Player { return h.player },
		Settings:  h.settings,
		Notifier:  h.notifier,
		Music:     music,
	}, log)

	t.Cleanup(h.manager.Shutdown)
	return h
}

func (h *harness) current(guildID string) string {
	q := h.manager.GetQueue(guildID)
	if q == nil || q.Current == nil {
		return ""
	}
	return q.Current.Title()
}

func TestPlayStartsFirstTrack(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.tracks = []*entities.Track{track("a"), track("b")}

	tracks, err := h.manager.Play(context.Background(), PlayRequest{
		GuildID:        "g1",
		VoiceChannelID: "v1",
		TextChannelID:  "t1",
		Query:          "a",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks queued, got %d", len(tracks))
	}

	waitFor(t, "first track", func() bool { return h.current("g1") == "a" })

	q := h.manager.GetQueue("g1")
	if !q.Playing || len(q.Pending) != 1 || q.Pending[0].Title() != "b" {
		t.Errorf("Unexpected queue after start: playing=%v pending=%d", q.Playing, len(q.Pending))
	}
}

func TestPlayPropagatesResolveError(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.err = apperrors.ErrNoResults

	_, err := h.manager.Play(context.Background(), PlayRequest{GuildID: "g1", VoiceChannelID: "v1", Query: "nothing"})
	if !errors.Is(err, apperrors.ErrNoResults) {
		t.Errorf("Expected ErrNoResults, got %v", err)
	}
}

func TestFailedTrackIsSkipped(t *testing.T) {
	h := newHarness(t, nil)
	h.acquirer.failing["broken"] = true
	h.resolver.tracks = []*entities.Track{track("broken"), track("good")}

	if _, err := h.manager.Play(context.Background(), PlayRequest{GuildID: "g1", VoiceChannelID: "v1", Query: "q"}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "fallback to next track", func() bool { return h.current("g1") == "good" })

	if failed := h.notifier.failures(); len(failed) != 1 || failed[0] != "broken" {
		t.Errorf("Expected one failure notification for the broken track, got %v", failed)
	}
}

func TestIdleAdvancesWithLoopModes(t *testing.T) {
	tests := []struct {
		name        string
		mode        valueobjects.LoopMode
		wantCurrent string
		wantPending []string
	}{
		{"none", valueobjects.LoopModeNone, "b", []string{}},
		{"song", valueobjects.LoopModeSong, "a", []string{"b"}},
		{"queue", valueobjects.LoopModeQueue, "b", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			if _, err := h.manager.Join(context.Background(), "g1", "v1", ""); err != nil {
				t.Fatal(err)
			}
			if err := h.manager.SetLoop(context.Background(), "g1", tt.mode); err != nil {
				t.Fatal(err)
			}

			h.manager.Enqueue("g1", track("a"), track("b"))
			waitFor(t, "first track", func() bool { return h.current("g1") == "a" })

			h.player.finish()
			waitFor(t, "second play", func() bool { return h.player.playCount() == 2 })

			if got := h.current("g1"); got != tt.wantCurrent {
				t.Errorf("Expected %q playing after idle, got %q", tt.wantCurrent, got)
			}

			pending := h.manager.GetQueue("g1").Pending
			if len(pending) != len(tt.wantPending) {
				t.Fatalf("Expected %d pending, got %d", len(tt.wantPending), len(pending))
			}
			for i, title := range tt.wantPending {
				if pending[i].Title() != title {
					t.Errorf("pending[%d] = %q, expected %q", i, pending[i].Title(), title)
				}
			}
		})
	}
}

func TestLateIdleKeepsNextTrack(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.tracks = []*entities.Track{track("a")}
	h.manager.Play(context.Background(), PlayRequest{GuildID: "g1", VoiceChannelID: "v1", Query: "a"})
	waitFor(t, "first track", func() bool { return h.current("g1") == "a" })

	// a's idle fires only after b has started
	h.player.holdIdle()
	h.manager.Stop("g1")

	h.resolver.tracks = []*entities.Track{track("b")}
	h.manager.Play(context.Background(), PlayRequest{GuildID: "g1", VoiceChannelID: "v1", Query: "b"})
	waitFor(t, "second track", func() bool { return h.current("g1") == "b" })

	h.player.release()
	time.Sleep(20 * time.Millisecond)

	if got := h.current("g1"); got != "b" {
		t.Fatalf("Late idle ended the following track, current is %q", got)
	}
	if !h.player.IsPlaying() || !h.manager.GetQueue("g1").Playing {
		t.Error("b should still be playing")
	}
}

func TestRemoveSong(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.manager.Join(context.Background(), "g1", "v1", "")
	if err != nil {
		t.Fatal(err)
	}
	// Fill the pending list directly so nothing starts playing
	s.Queue().Enqueue(track("a"), track("b"), track("c"))

	if removed := h.manager.RemoveSong("g1", 4); removed != nil {
		t.Errorf("Expected nil for out of range position, got %q", removed.Title())
	}

	removed := h.manager.RemoveSong("g1", 1)
	if removed == nil || removed.Title() != "a" {
		t.Fatalf("Expected to remove a, got %v", removed)
	}

	pending := h.manager.GetQueue("g1").Pending
	if len(pending) != 2 || pending[0].Title() != "b" || pending[1].Title() != "c" {
		t.Errorf("Expected [b c] to remain in order, got %d tracks", len(pending))
	}
}

func TestClearSongs(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.manager.Join(context.Background(), "g1", "v1", "")
	if err != nil {
		t.Fatal(err)
	}
	s.Queue().Enqueue(track("a"), track("b"))

	if n := h.manager.ClearSongs("g1"); n != 2 {
		t.Errorf("Expected 2 cleared songs, got %d", n)
	}
	if q := h.manager.GetQueue("g1"); q == nil || len(q.Pending) != 0 {
		t.Error("Expected an empty pending list on a live queue")
	}
	if n := h.manager.ClearSongs("missing"); n != 0 {
		t.Errorf("Expected 0 without a queue, got %d", n)
	}
}

func TestShuffleNeedsTwoTracks(t *testing.T) {
	h := newHarness(t, nil)
	s, _ := h.manager.Join(context.Background(), "g1", "v1", "")
	s.Queue().Enqueue(track("a"))

	if h.manager.Shuffle("g1") {
		t.Error("Shuffle with one pending track must be a no-op")
	}
	if h.manager.Shuffle("missing") {
		t.Error("Shuffle without a queue must report false")
	}
}

func TestPauseResumeSkip(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.tracks = []*entities.Track{track("a"), track("b")}
	h.manager.Play(context.Background(), PlayRequest{GuildID: "g1", VoiceChannelID: "v1", Query: "q"})
	waitFor(t, "first track", func() bool { return h.current("g1") == "a" })

	if !h.manager.Pause("g1") || h.manager.Pause("g1") {
		t.Error("Expected pause to succeed exactly once")
	}
	if !h.manager.GetQueue("g1").Paused {
		t.Error("Expected queue to be paused")
	}
	if !h.manager.Resume("g1") || h.manager.Resume("g1") {
		t.Error("Expected resume to succeed exactly once")
	}

	skipped, err := h.manager.Skip("g1")
	if err != nil || skipped.Title() != "a" {
		t.Fatalf("Expected to skip a, got %v / %v", skipped, err)
	}
	waitFor(t, "next track after skip", func() bool { return h.current("g1") == "b" })
}

func TestStopClearsQueue(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.tracks = []*entities.Track{track("a"), track("b"), track("c")}
	h.manager.Play(context.Background(), PlayRequest{GuildID: "g1", VoiceChannelID: "v1", Query: "q"})
	waitFor(t, "first track", func() bool { return h.current("g1") == "a" })

	if !h.manager.Stop("g1") {
		t.Fatal("Expected stop to succeed")
	}
	waitFor(t, "player idle", func() bool { return !h.player.IsPlaying() })
	time.Sleep(20 * time.Millisecond)

	q := h.manager.GetQueue("g1")
	if q == nil {
		t.Fatal("Stop must keep the queue")
	}
	if q.Current != nil || len(q.Pending) != 0 {
		t.Errorf("Expected empty queue after stop, got current=%v pending=%d", q.Current, len(q.Pending))
	}
	if h.player.playCount() != 1 {
		t.Errorf("Nothing should play after stop, got %d plays", h.player.playCount())
	}
	if _, err := h.manager.Skip("g1"); !errors.Is(err, apperrors.ErrNotPlaying) {
		t.Errorf("Expected ErrNotPlaying, got %v", err)
	}
}

func TestSettingsLoadedAndSaved(t *testing.T) {
	h := newHarness(t, nil)
	h.settings.saved["g1"] = entities.GuildSettings{GuildID: "g1", Volume: 40, LoopMode: valueobjects.LoopModeQueue}

	if _, err := h.manager.Join(context.Background(), "g1", "v1", ""); err != nil {
		t.Fatal(err)
	}
	q := h.manager.GetQueue("g1")
	if q.Volume != 40 || q.LoopMode != valueobjects.LoopModeQueue {
		t.Errorf("Expected stored settings applied, got volume=%d loop=%s", q.Volume, q.LoopMode)
	}

	if _, err := h.manager.SetVolume(context.Background(), "g1", 300); !errors.Is(err, apperrors.ErrInvalidVolume) {
		t.Errorf("Expected ErrInvalidVolume, got %v", err)
	}
	if _, err := h.manager.SetVolume(context.Background(), "g1", 150); err != nil {
		t.Fatal(err)
	}
	if saved := h.settings.saved["g1"]; saved.Volume != 150 || saved.LoopMode != valueobjects.LoopModeQueue {
		t.Errorf("Expected volume 150 persisted, got %+v", saved)
	}
}

func TestLeave(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.Join(context.Background(), "g1", "v1", "")
	conn := h.platform.last()

	if err := h.manager.Leave("g1"); err != nil {
		t.Fatal(err)
	}
	if conn.destroyCount() != 1 {
		t.Errorf("Expected one destroy, got %d", conn.destroyCount())
	}
	if h.manager.GetQueue("g1") != nil {
		t.Error("Expected queue removed after leave")
	}
	if err := h.manager.Leave("g1"); !errors.Is(err, apperrors.ErrNoVoiceConnection) {
		t.Errorf("Expected ErrNoVoiceConnection, got %v", err)
	}
}

func TestForcedDisconnectCleansUpOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.tracks = []*entities.Track{track("a"), track("b")}
	h.manager.Play(context.Background(), PlayRequest{GuildID: "g1", VoiceChannelID: "v1", Query: "q"})
	waitFor(t, "first track", func() bool { return h.current("g1") == "a" })

	conn := h.platform.last()
	// Discord already dropped the connection
	conn.setState(voice.StateDestroyed)

	if !h.manager.HandleForcedDisconnect("g1") {
		t.Fatal("Expected the first cleanup to run")
	}
	if h.manager.HandleForcedDisconnect("g1") {
		t.Error("Second cleanup must be a no-op")
	}

	if conn.destroyCount() != 0 {
		t.Errorf("Destroyed connection must not be destroyed again, got %d", conn.destroyCount())
	}
	if h.manager.GetQueue("g1") != nil {
		t.Error("Expected no queue after forced disconnect")
	}
	if _, ok := h.manager.VoiceChannel("g1"); ok {
		t.Error("Expected the connection to be released")
	}
}

func TestLostConnectionTearsDownQueue(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.Join(context.Background(), "g1", "v1", "t1")

	h.platform.last().setState(voice.StateDisconnected)

	waitFor(t, "queue teardown", func() bool { return h.manager.GetQueue("g1") == nil })
	waitFor(t, "lost notification", func() bool {
		h.notifier.mu.Lock()
		defer h.notifier.mu.Unlock()
		return h.notifier.lost == 1
	})
}

func TestGetStats(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.tracks = []*entities.Track{track("a"), track("b")}
	h.manager.Play(context.Background(), PlayRequest{GuildID: "g1", VoiceChannelID: "v1", Query: "q"})
	waitFor(t, "first track", func() bool { return h.current("g1") == "a" })

	stats := h.manager.GetStats()
	if stats.Guilds != 1 || stats.Playing != 1 || stats.Pending != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}
