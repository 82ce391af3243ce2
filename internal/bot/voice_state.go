package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// voiceEvent is what a voice state update means to the bot
type voiceEvent int

const (
	voiceIgnored voiceEvent = iota
	// the bot itself left every channel without asking to
	voiceBotRemoved
	// someone left the channel the bot is in
	voiceUserLeft
)

// classifyVoiceUpdate decides what a voice state update means for the bot's
// channel. botChannel is empty when the bot holds no connection in the guild.
func classifyVoiceUpdate(event *discordgo.VoiceStateUpdate, botID, botChannel string) voiceEvent {
	if event.VoiceState == nil {
		return voiceIgnored
	}

	if event.UserID == botID {
		if event.ChannelID == "" {
			return voiceBotRemoved
		}
		return voiceIgnored
	}

	if botChannel == "" || event.BeforeUpdate == nil {
		return voiceIgnored
	}
	if event.BeforeUpdate.ChannelID == botChannel && event.ChannelID != botChannel {
		return voiceUserLeft
	}
	return voiceIgnored
}

// countHumans counts the non-bot users connected to channelID
func countHumans(states []*discordgo.VoiceState, channelID, botID string, isBot func(*discordgo.VoiceState) bool) int {
	count := 0
	for _, vs := range states {
		if vs.ChannelID != channelID || vs.UserID == botID {
			continue
		}
		if !isBot(vs) {
			count++
		}
	}
	return count
}

// onVoiceStateUpdate handles voice state updates: the bot being removed from its
// channel, and the last listener leaving it
func (b *MusicBot) onVoiceStateUpdate(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	botID := s.State.User.ID
	guildID := event.GuildID
	botChannel, _ := b.music.VoiceChannel(guildID)

	switch classifyVoiceUpdate(event, botID, botChannel) {
	case voiceBotRemoved:
		// Also fires after our own Leave; the cleanup is a no-op then
		if b.music.HandleForcedDisconnect(guildID) {
			b.logger.WithField("guild", guildID).Warn("Bot was disconnected from voice")
		}

	case voiceUserLeft:
		// Skip if 24/7 mode is enabled - never auto-disconnect
		if b.config.StayConnected247 {
			return
		}
		b.leaveIfEmpty(s, guildID, botChannel)
	}
}

func (b *MusicBot) leaveIfEmpty(s *discordgo.Session, guildID, channelID string) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		b.logger.WithError(err).Warn("Failed to get guild state")
		return
	}

	userCount := countHumans(guild.VoiceStates, channelID, s.State.User.ID, func(vs *discordgo.VoiceState) bool {
		return b.isBot(s, guildID, vs)
	})

	log := b.logger.WithFields(logrus.Fields{
		"guild":     guildID,
		"channel":   channelID,
		"userCount": userCount,
	})
	log.Debug("Voice state update - checking user count")

	// If no users left in the channel, disconnect
	if userCount == 0 {
		log.Info("No users in voice channel, disconnecting...")
		if err := b.music.Leave(guildID); err != nil {
			log.WithError(err).Warn("Failed to leave empty voice channel")
		}
	}
}

// isBot checks the member behind a voice state, from the event, then the state cache,
// then the API
func (b *MusicBot) isBot(s *discordgo.Session, guildID string, vs *discordgo.VoiceState) bool {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User.Bot
	}
	if member, err := s.State.Member(guildID, vs.UserID); err == nil && member.User != nil {
		return member.User.Bot
	}
	member, err := s.GuildMember(guildID, vs.UserID)
	if err != nil || member.User == nil {
		// Unknown members count as listeners so the bot does not leave on a lookup error
		return false
	}
	return member.User.Bot
}
