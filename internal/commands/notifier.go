package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/music"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

var _ music.Notifier = (*ChannelNotifier)(nil)

type sendFunc func(channelID string, embed *discordgo.MessageEmbed) error

// ChannelNotifier posts playback events as embeds in the queue's text channel
type ChannelNotifier struct {
	send   sendFunc
	logger *logrus.Entry
}

// NewChannelNotifier creates a notifier that sends through the Discord session
func NewChannelNotifier(session *discordgo.Session, log *logger.Logger) *ChannelNotifier {
	return newChannelNotifier(func(channelID string, embed *discordgo.MessageEmbed) error {
		_, err := session.ChannelMessageSendEmbed(channelID, embed)
		return err
	}, log)
}

func newChannelNotifier(send sendFunc, log *logger.Logger) *ChannelNotifier {
	return &ChannelNotifier{send: send, logger: log.Component("notifier")}
}

// NowPlaying announces the track that just started
func (n *ChannelNotifier) NowPlaying(channelID string, track *entities.Track) {
	embed := NewEmbed().
		Title("🎶 Now Playing").
		Color(ColorPrimary).
		Track(track).
		RequestedBy(track).
		Build()
	n.post(channelID, embed)
}

// TrackFailed reports a track that was skipped because it could not be played
func (n *ChannelNotifier) TrackFailed(channelID string, track *entities.Track, err error) {
	name := "Unknown track"
	if track != nil {
		name = track.DisplayName()
	}

	embed := NewEmbed().
		Title("⚠️ Skipped Unplayable Song").
		Description(fmt.Sprintf("**%s**\n%s", name, apperrors.GetUserMessage(err))).
		Color(ColorWarning).
		Build()
	n.post(channelID, embed)
}

// ConnectionLost reports that the voice connection could not be recovered
func (n *ChannelNotifier) ConnectionLost(channelID string) {
	embed := NewEmbed().
		Title("🔌 Voice Connection Lost").
		Description("The connection could not be recovered and the queue was cleared. Use `/play` to start again").
		Color(ColorError).
		Build()
	n.post(channelID, embed)
}

func (n *ChannelNotifier) post(channelID string, embed *discordgo.MessageEmbed) {
	if channelID == "" {
		return
	}
	if err := n.send(channelID, embed); err != nil {
		n.logger.WithError(err).WithField("channel", channelID).Warn("Failed to post notification")
	}
}
