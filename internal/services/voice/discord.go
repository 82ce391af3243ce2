package voice

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

// DiscordPlatform joins voice channels through a discordgo session
type DiscordPlatform struct {
	session *discordgo.Session
	logger  *logrus.Entry
}

// NewDiscordPlatform creates a platform over session
func NewDiscordPlatform(session *discordgo.Session, log *logger.Logger) *DiscordPlatform {
	return &DiscordPlatform{
		session: session,
		logger:  log.Component("discord_voice"),
	}
}

// Join implements Platform
func (p *DiscordPlatform) Join(ctx context.Context, guildID, channelID string) (Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Join voice channel (mute=false, deaf=true)
	vc, err := p.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		p.logger.WithError(err).WithField("guild", guildID).Error("Failed to join voice channel")
		return nil, err
	}

	return &discordConnection{
		session:   p.session,
		guildID:   guildID,
		channelID: channelID,
		vc:        vc,
	}, nil
}

// discordConnection maps discordgo's ready flag onto State
type discordConnection struct {
	session   *discordgo.Session
	guildID   string
	channelID string
	vc        *discordgo.VoiceConnection

	wasReady  bool
	destroyed bool
	mu        sync.Mutex
}

func (c *discordConnection) GuildID() string { return c.guildID }

func (c *discordConnection) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID
}

func (c *discordConnection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return StateDestroyed
	}
	if c.vc == nil {
		return StateDisconnected
	}

	c.vc.RLock()
	ready, channel := c.vc.Ready, c.vc.ChannelID
	c.vc.RUnlock()

	switch {
	case channel == "" && c.wasReady:
		// Moved out of the channel by someone else; discord already dropped us
		return StateDestroyed
	case ready:
		c.wasReady = true
		return StateReady
	case c.wasReady:
		return StateDisconnected
	default:
		return StateConnecting
	}
}

func (c *discordConnection) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrNotConnected
	}
	c.destroyed = true

	if c.vc == nil {
		return nil
	}
	if err := c.vc.Disconnect(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// Reconnect rejoins the same channel
func (c *discordConnection) Reconnect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	channelID := c.channelID
	c.mu.Unlock()

	vc, err := c.session.ChannelVoiceJoin(c.guildID, channelID, false, true)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		vc.Disconnect()
		return ErrNotConnected
	}
	c.vc = vc
	return nil
}

func (c *discordConnection) OpusSend() chan<- []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil
	}
	return c.vc.OpusSend
}

func (c *discordConnection) Speaking(speaking bool) error {
	c.mu.Lock()
	vc := c.vc
	c.mu.Unlock()

	if vc == nil {
		return ErrNotConnected
	}
	return vc.Speaking(speaking)
}
