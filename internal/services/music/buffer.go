package music

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/resolver"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

var _ resolver.PlaylistBuffer = (*Buffer)(nil)

// StubResolver finds a playable track for a playlist stub
type StubResolver interface {
	ResolveStub(ctx context.Context, stub entities.PlaylistStub, requester valueobjects.Requester) (*entities.Track, error)
}

type bufferState struct {
	guildID   string
	requester valueobjects.Requester
	stubs     []entities.PlaylistStub
	cursor    int
	size      int
	timeout   time.Duration

	refilling bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// Buffer resolves large playlists lazily: a first batch up front, then one stub
// each time the guild's queue runs low.
// A guild can hold several buffered playlists; they are drained oldest first.
type Buffer struct {
	resolver StubResolver
	logger   *logrus.Entry

	states map[string][]*bufferState
	mu     sync.Mutex
}

// NewBuffer creates a playlist buffer
func NewBuffer(stubs StubResolver, log *logger.Logger) *Buffer {
	return &Buffer{
		resolver: stubs,
		logger:   log.Component("playlist_buffer"),
		states:   make(map[string][]*bufferState),
	}
}

// Prime resolves the first cfg.BufferSize stubs concurrently and keeps the rest for
// Refill. Stubs that fail to resolve are dropped. The rest is queued behind any
// playlist already buffered for the guild. Nothing is kept when the first batch
// resolves no track.
func (b *Buffer) Prime(ctx context.Context, guildID string, requester valueobjects.Requester, stubs []entities.PlaylistStub, cfg config.MusicConfig) ([]*entities.Track, error) {
	size := max(cfg.BufferSize, 1)
	initial := stubs[:min(size, len(stubs))]

	log := b.logger.WithFields(logrus.Fields{
		"guild":  guildID,
		"total":  len(stubs),
		"buffer": size,
	})
	log.Info("🚀 Resolving initial playlist batch...")

	results := make([]*entities.Track, len(initial))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.PlaylistBatchSize, 1))
	for i, stub := range initial {
		g.Go(func() error {
			sctx, cancel := withTimeout(gctx, cfg.SearchTimeout)
			defer cancel()

			track, err := b.resolver.ResolveStub(sctx, stub, requester)
			if err != nil {
				log.WithError(err).WithField("stub", stub.SearchQuery()).Debug("Stub not resolved")
				return nil
			}
			results[i] = track
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracks := lo.Compact(results)
	if len(tracks) == 0 {
		log.Warn("❌ No track of the initial playlist batch resolved")
		return nil, nil
	}
	log.WithField("resolved", len(tracks)).Info("✅ Initial playlist batch ready")

	if len(initial) < len(stubs) {
		b.register(guildID, requester, stubs, len(initial), size, cfg.SearchTimeout)
	}
	return tracks, nil
}

func (b *Buffer) register(guildID string, requester valueobjects.Requester, stubs []entities.PlaylistStub, cursor, size int, timeout time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	state := &bufferState{
		guildID:   guildID,
		requester: requester,
		stubs:     stubs,
		cursor:    cursor,
		size:      size,
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
	}

	b.mu.Lock()
	b.states[guildID] = append(b.states[guildID], state)
	queued := len(b.states[guildID])
	b.mu.Unlock()

	b.logger.WithFields(logrus.Fields{
		"guild":     guildID,
		"remaining": len(stubs) - cursor,
		"playlists": queued,
	}).Info("🔧 Dynamic buffer configured")
}

// release drops a drained state. Callers hold mu.
func (b *Buffer) release(state *bufferState) {
	states := lo.Without(b.states[state.guildID], state)
	if len(states) == 0 {
		delete(b.states, state.guildID)
	} else {
		b.states[state.guildID] = states
	}
	state.cancel()
}

// Refill resolves the next stub of the guild's oldest buffered playlist when
// fewer than the buffer size are pending. It returns nil without error when there
// is nothing to do or another refill for the guild is running. The cursor advances
// even if the stub fails.
func (b *Buffer) Refill(guildID string, pending int) (*entities.Track, error) {
	b.mu.Lock()
	states := b.states[guildID]
	if len(states) == 0 {
		b.mu.Unlock()
		return nil, nil
	}
	state := states[0]
	if state.refilling || pending >= state.size || state.cursor >= len(state.stubs) {
		b.mu.Unlock()
		return nil, nil
	}
	state.refilling = true
	stub := state.stubs[state.cursor]
	index := state.cursor
	b.mu.Unlock()

	log := b.logger.WithFields(logrus.Fields{
		"guild":   guildID,
		"pending": pending,
		"index":   index,
	})
	log.Info("🔄 Buffer low, resolving next playlist track")

	ctx, cancel := withTimeout(state.ctx, state.timeout)
	track, err := b.resolver.ResolveStub(ctx, stub, state.requester)
	cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	state.refilling = false
	if state.ctx.Err() != nil {
		return nil, state.ctx.Err()
	}

	state.cursor++
	if state.cursor >= len(state.stubs) {
		b.release(state)
		log.Info("🎉 Playlist fully resolved, buffer released")
	}

	if err != nil {
		log.WithError(err).WithField("stub", stub.SearchQuery()).Warn("Failed to resolve playlist track")
		return nil, err
	}
	return track, nil
}

// Cancel drops every buffered playlist of the guild and stops a refill in flight
func (b *Buffer) Cancel(guildID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	states, ok := b.states[guildID]
	if !ok {
		return false
	}
	for _, state := range states {
		state.cancel()
	}
	delete(b.states, guildID)
	return true
}

// Remaining returns how many stubs of the guild's playlists are still unresolved
func (b *Buffer) Remaining(guildID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return lo.SumBy(b.states[guildID], func(state *bufferState) int {
		return len(state.stubs) - state.cursor
	})
}

// Active returns the number of buffered playlists across all guilds
func (b *Buffer) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return lo.SumBy(lo.Values(b.states), func(states []*bufferState) int {
		return len(states)
	})
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
