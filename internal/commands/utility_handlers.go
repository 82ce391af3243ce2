package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
)

// handleJoin handles the join command
func (h *Handler) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	channelID, err := h.getUserVoiceChannel(s, i.GuildID, i.Member.User.ID)
	if err != nil {
		return respondError(s, i, apperrors.ErrNotInVoiceChannel)
	}

	if err := deferResponse(s, i); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Music.JoinTimeout)
	defer cancel()

	if _, err := h.music.Join(ctx, i.GuildID, channelID, i.ChannelID); err != nil {
		h.logger.WithError(err).WithField("guild", i.GuildID).Warn("Failed to join voice channel")
		return followUpError(s, i, err)
	}

	embed := NewEmbed().
		Title("🔊 Connected").
		Description("Successfully joined your voice channel").
		Color(ColorSuccess).
		Footer("Use /play to start playing music").
		Build()

	return followUpEmbed(s, i, embed)
}

// handleLeave handles the leave command
func (h *Handler) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.music.Leave(i.GuildID); err != nil {
		if errors.Is(err, apperrors.ErrNoVoiceConnection) {
			return respondRefusal(s, i, "I'm not currently in a voice channel")
		}
		return respondError(s, i, err)
	}

	embed := NewEmbed().
		Title("👋 Disconnected").
		Description("Left the voice channel and cleared all playback state").
		Color(ColorInfo).
		Build()

	return respondEmbed(s, i, embed)
}

// handleStats handles the stats command
func (h *Handler) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	stats := h.music.GetStats()
	guildCount := len(s.State.Guilds)
	latency := s.HeartbeatLatency().Milliseconds()

	// Latency indicator
	latencyStatus := "🟢 Excellent"
	if latency > 200 {
		latencyStatus = "🔴 Poor"
	} else if latency > 100 {
		latencyStatus = "🟡 Moderate"
	}

	embed := NewEmbed().
		Title("Bot Statistics").
		Color(ColorPrimary).
		Field("Servers", fmt.Sprintf("%d", guildCount), true).
		Field("Active Queues", fmt.Sprintf("%d", stats.Guilds), true).
		Field("Playing", fmt.Sprintf("%d", stats.Playing), true).
		Field("Queued Songs", fmt.Sprintf("%d", stats.Pending), true).
		Field("Buffered Playlists", fmt.Sprintf("%d", stats.BufferedPlaylists), true).
		Field("Latency", fmt.Sprintf("%dms %s", latency, latencyStatus), true).
		Footer(fmt.Sprintf("%s v%s", h.config.BotName, h.config.Version)).
		Timestamp(time.Now().Format(time.RFC3339)).
		Build()

	return respondEmbed(s, i, embed)
}

// handleHelp handles the help command
func (h *Handler) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	embed := NewEmbed().
		Title(h.config.BotName).
		Color(ColorPrimary).
		Field("Basic",
			"> **`/join` - Join voice channel**\n"+
				"> **`/leave` - Leave and clear state**\n",
			false).
		Field("Playback",
			"> **`/play <query>` - Play a song or playlist**\n"+
				"> **`/pause` - Pause playback**\n"+
				"> **`/resume` - Resume playback**\n"+
				"> **`/skip` - Skip current song**\n"+
				"> **`/stop` - Stop and clear queue**\n"+
				"> **`/volume <0-200>` - Adjust volume**",
			false).
		Field("Queue Management",
			"> **`/queue` - View current queue**\n"+
				"> **`/nowplaying` - Current song info**\n"+
				"> **`/shuffle` - Shuffle queue**\n"+
				"> **`/remove <position>` - Remove a song**\n"+
				"> **`/clear` - Clear upcoming songs**\n"+
				"> **`/loop <mode>` - Set loop mode**",
			false).
		Field("Utility",
			"> **`/stats` - Bot statistics**\n"+
				"> **`/help` - Show this help**\n"+
				"> **`/sync` - [Admin] Sync commands**",
			false).
		Footer(fmt.Sprintf("%s v%s • Built with Go", h.config.BotName, h.config.Version)).
		Build()

	return respondEmbed(s, i, embed)
}

// handleSync handles the sync command
func (h *Handler) handleSync(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return respondRefusal(s, i, "Only server administrators can sync commands")
	}

	if err := deferEphemeral(s, i); err != nil {
		return err
	}

	if err := h.RegisterCommands(); err != nil {
		h.logger.WithError(err).Error("Failed to sync commands")
		return followUpEmbed(s, i, noticeEmbed("❌ Failed to sync commands: "+err.Error(), ColorError))
	}

	h.logger.WithField("user", i.Member.User.Username).Info("Commands manually synced")

	embed := NewEmbed().
		Title("✅ Commands Synchronized").
		Description("All slash commands have been refreshed with Discord").
		Color(ColorSuccess).
		Build()

	return followUpEmbed(s, i, embed)
}
