package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/music"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

// Handler manages all bot commands
type Handler struct {
	session *discordgo.Session
	music   *music.Manager
	logger  *logrus.Entry
	config  *config.Config
}

// NewHandler creates a new command handler
func NewHandler(session *discordgo.Session, manager *music.Manager, log *logger.Logger, config *config.Config) *Handler {
	return &Handler{
		session: session,
		music:   manager,
		logger:  log.Component("commands"),
		config:  config,
	}
}

// RegisterCommands registers all slash commands with Discord
func (h *Handler) RegisterCommands() error {
	commands := GetCommands()

	_, err := h.session.ApplicationCommandBulkOverwrite(h.session.State.User.ID, "", commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	h.logger.WithField("count", len(commands)).Info("✅ All commands registered")
	return nil
}

// HandleInteraction routes incoming interactions to appropriate handlers
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).Error("Recovered from panic in command handler")
			_ = respondRefusal(s, i, "An internal error occurred")
		}
	}()

	// Handle button interactions (pagination)
	if i.Type == discordgo.InteractionMessageComponent {
		h.handleButtonInteraction(s, i)
		return
	}

	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	// Music commands only make sense inside a guild
	if i.GuildID == "" || i.Member == nil {
		_ = respondRefusal(s, i, "This command can only be used in a server")
		return
	}

	data := i.ApplicationCommandData()

	h.logger.WithFields(logrus.Fields{
		"command": data.Name,
		"guild":   i.GuildID,
		"user":    i.Member.User.Username,
	}).Info("Command received")

	var err error
	switch data.Name {
	// Playback commands
	case "play":
		err = h.handlePlay(s, i)
	case "pause":
		err = h.handlePause(s, i)
	case "resume":
		err = h.handleResume(s, i)
	case "skip":
		err = h.handleSkip(s, i)
	case "stop":
		err = h.handleStop(s, i)
	case "volume":
		err = h.handleVolume(s, i)

	// Queue commands
	case "queue":
		err = h.handleQueue(s, i)
	case "nowplaying":
		err = h.handleNowPlaying(s, i)
	case "shuffle":
		err = h.handleShuffle(s, i)
	case "remove":
		err = h.handleRemove(s, i)
	case "clear":
		err = h.handleClear(s, i)
	case "loop":
		err = h.handleLoop(s, i)

	// Utility commands
	case "join":
		err = h.handleJoin(s, i)
	case "leave":
		err = h.handleLeave(s, i)
	case "stats":
		err = h.handleStats(s, i)
	case "help":
		err = h.handleHelp(s, i)
	case "sync":
		err = h.handleSync(s, i)

	default:
		err = respondRefusal(s, i, "Unknown command")
	}

	if err != nil {
		h.logger.WithError(err).WithField("command", data.Name).Error("Command handler failed")
	}
}

// getUserVoiceChannel gets the user's current voice channel
func (h *Handler) getUserVoiceChannel(s *discordgo.Session, guildID, userID string) (string, error) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return "", err
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}

	return "", apperrors.ErrNotInVoiceChannel
}

// requireSameChannel checks the user shares the bot's voice channel, when the bot has one
func (h *Handler) requireSameChannel(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	botChannel, connected := h.music.VoiceChannel(i.GuildID)
	if !connected {
		return apperrors.ErrNoVoiceConnection
	}

	userChannel, err := h.getUserVoiceChannel(s, i.GuildID, i.Member.User.ID)
	if err != nil {
		return apperrors.ErrNotInVoiceChannel
	}
	if userChannel != botChannel {
		return apperrors.ErrDifferentChannel
	}
	return nil
}
