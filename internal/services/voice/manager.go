package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

const defaultPollInterval = 100 * time.Millisecond

// LostHandler is called when a guild's connection dropped and could not recover
type LostHandler func(guildID string)

// Reconnector is implemented by connections that can rejoin on their own
type Reconnector interface {
	Reconnect(ctx context.Context) error
}

type entry struct {
	conn   Connection
	cancel context.CancelFunc
}

// Manager owns at most one connection per guild
type Manager struct {
	platform         Platform
	joinTimeout      time.Duration
	reconnectTimeout time.Duration
	pollInterval     time.Duration
	logger           *logrus.Entry

	onLost LostHandler
	conns  map[string]*entry
	mu     sync.Mutex
}

// NewManager creates a connection manager
func NewManager(platform Platform, joinTimeout, reconnectTimeout time.Duration, log *logger.Logger) *Manager {
	return &Manager{
		platform:         platform,
		joinTimeout:      joinTimeout,
		reconnectTimeout: reconnectTimeout,
		pollInterval:     defaultPollInterval,
		logger:           log.Component("voice"),
		conns:            make(map[string]*entry),
	}
}

// OnLost sets the handler for connections that failed to reconnect
func (m *Manager) OnLost(fn LostHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLost = fn
}

// Join returns a ready connection to channelID, reusing the current one when it targets
// the same channel and is still usable.
func (m *Manager) Join(ctx context.Context, guildID, channelID string) (Connection, error) {
	log := m.logger.WithFields(logrus.Fields{
		"guild":   guildID,
		"channel": channelID,
	})

	m.mu.Lock()
	existing := m.conns[guildID]
	m.mu.Unlock()

	if existing != nil {
		if existing.conn.ChannelID() == channelID && existing.conn.State().Usable() {
			log.Debug("Reusing voice connection")
			return existing.conn, nil
		}
		log.WithField("state", existing.conn.State()).Info("Replacing voice connection")
		m.remove(guildID, existing)
		m.destroy(existing.conn)
	}

	log.Info("Connecting to voice channel...")
	conn, err := m.platform.Join(ctx, guildID, channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if !waitForState(ctx, conn, m.joinTimeout, m.pollInterval, isReady) {
		m.destroy(conn)
		return nil, fmt.Errorf("%w: not ready after %s", apperrors.ErrConnectionTimeout, m.joinTimeout)
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	e := &entry{conn: conn, cancel: cancel}

	m.mu.Lock()
	m.conns[guildID] = e
	m.mu.Unlock()

	go m.watch(watchCtx, guildID, e)

	log.Info("✅ Successfully connected to voice channel")
	return conn, nil
}

// Leave destroys the guild's connection
func (m *Manager) Leave(guildID string) error {
	m.mu.Lock()
	e := m.conns[guildID]
	m.mu.Unlock()

	if e == nil {
		return ErrNotConnected
	}

	m.remove(guildID, e)
	m.destroy(e.conn)
	m.logger.WithField("guild", guildID).Info("✅ Disconnected from voice channel")
	return nil
}

// Release forgets the guild's connection after an external disconnect. The connection
// is destroyed only if it is not already. It reports whether there was one.
func (m *Manager) Release(guildID string) bool {
	m.mu.Lock()
	e := m.conns[guildID]
	m.mu.Unlock()

	if e == nil {
		return false
	}

	m.remove(guildID, e)
	m.destroy(e.conn)
	return true
}

// Get returns the guild's connection
func (m *Manager) Get(guildID string) (Connection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.conns[guildID]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// WaitReady blocks until the guild's connection is ready or timeout elapses
func (m *Manager) WaitReady(ctx context.Context, guildID string, timeout time.Duration) error {
	conn, ok := m.Get(guildID)
	if !ok {
		return ErrNotConnected
	}
	if !waitForState(ctx, conn, timeout, m.pollInterval, isReady) {
		return fmt.Errorf("%w: %s", apperrors.ErrConnectionTimeout, conn.State())
	}
	return nil
}

// Count returns the number of live connections
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// LeaveAll destroys every connection
func (m *Manager) LeaveAll() {
	m.mu.Lock()
	guilds := make([]string, 0, len(m.conns))
	for id := range m.conns {
		guilds = append(guilds, id)
	}
	m.mu.Unlock()

	for _, id := range guilds {
		m.Leave(id)
	}
}

// remove drops e if it is still the guild's entry and stops its watcher
func (m *Manager) remove(guildID string, e *entry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}
	if m.conns[guildID] != e {
		return false
	}
	delete(m.conns, guildID)
	return true
}

// destroy checks the state first so an already destroyed connection is left alone
func (m *Manager) destroy(conn Connection) {
	if _, err := SafeDestroy(conn); err != nil {
		m.logger.WithError(err).WithField("guild", conn.GuildID()).Warn("Failed to destroy voice connection")
	}
}

// watch gives a disconnected connection reconnectTimeout to recover
func (m *Manager) watch(ctx context.Context, guildID string, e *entry) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	log := m.logger.WithField("guild", guildID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		switch e.conn.State() {
		case StateDestroyed:
			// Forced disconnects are cleaned up by whoever observed them
			return

		case StateDisconnected:
			log.Warn("⚠️ Voice connection dropped, waiting for reconnect")

			if r, ok := e.conn.(Reconnector); ok {
				rctx, cancel := context.WithTimeout(ctx, m.reconnectTimeout)
				if err := r.Reconnect(rctx); err != nil {
					log.WithError(err).Warn("Reconnect attempt failed")
				}
				cancel()
			}

			if waitForState(ctx, e.conn, m.reconnectTimeout, m.pollInterval, State.recovering) {
				log.Info("✅ Voice connection recovered")
				continue
			}
			if ctx.Err() != nil {
				return
			}

			log.Error("❌ Voice connection lost")
			if !m.remove(guildID, e) {
				return
			}
			m.destroy(e.conn)

			m.mu.Lock()
			handler := m.onLost
			m.mu.Unlock()
			if handler != nil {
				handler(guildID)
			}
			return
		}
	}
}

// SafeDestroy destroys conn unless it already is. It reports whether Destroy was called.
func SafeDestroy(conn Connection) (bool, error) {
	if conn == nil || conn.State() == StateDestroyed {
		return false, nil
	}
	return true, conn.Destroy()
}

func isReady(s State) bool {
	return s == StateReady
}

// waitForState polls conn until want holds, timeout elapses or ctx ends
func waitForState(ctx context.Context, conn Connection, timeout, poll time.Duration, want func(State) bool) bool {
	if want(conn.State()) {
		return true
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return want(conn.State())
		case <-ticker.C:
			if want(conn.State()) {
				return true
			}
		}
	}
}
