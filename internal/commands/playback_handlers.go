package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/music"
	"github.com/vuongmanhnghia/guild-music-bot/internal/validation"
)

// playTimeout bounds join plus resolution, large playlists included
const playTimeout = 90 * time.Second

// handlePlay handles the play command
func (h *Handler) handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	options := i.ApplicationCommandData().Options
	query := validation.SanitizeInput(options[0].StringValue())
	if query == "" {
		return followUpError(s, i, apperrors.ErrInvalidInput)
	}

	channelID, err := h.getUserVoiceChannel(s, i.GuildID, i.Member.User.ID)
	if err != nil {
		return followUpError(s, i, apperrors.ErrNotInVoiceChannel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()

	tracks, err := h.music.Play(ctx, music.PlayRequest{
		GuildID:        i.GuildID,
		VoiceChannelID: channelID,
		TextChannelID:  i.ChannelID,
		Query:          query,
		Requester:      requesterOf(i.Member),
	})
	if err != nil {
		h.logger.WithError(err).WithField("query", query).Warn("Play request failed")
		return followUpError(s, i, err)
	}

	return followUpEmbed(s, i, buildQueuedEmbed(tracks, h.music.GetQueue(i.GuildID)))
}

// buildQueuedEmbed describes what a play request added
func buildQueuedEmbed(tracks []*entities.Track, snapshot *entities.QueueSnapshot) *discordgo.MessageEmbed {
	if len(tracks) == 1 {
		track := tracks[0]
		builder := NewEmbed().
			Title("🎵 Added to Queue").
			Color(ColorSuccess).
			Track(track)

		if snapshot != nil {
			if snapshot.Current == track {
				builder.Field("Position", "Now playing", true)
			} else if idx := lo.IndexOf(snapshot.Pending, track); idx >= 0 {
				builder.Field("Position", fmt.Sprintf("#%d", idx+1), true)
			}
		}
		return builder.Footer("Use /queue to view the queue").Build()
	}

	total := lo.SumBy(tracks, func(t *entities.Track) int { return t.Duration() })
	return NewEmbed().
		Title("📻 Playlist Loaded").
		Description(fmt.Sprintf("Successfully added **%d** songs to the queue", len(tracks))).
		Color(ColorSuccess).
		Field("First Song", tracks[0].DisplayName(), false).
		Field("Songs Added", fmt.Sprintf("%d", len(tracks)), true).
		Field("Total Duration", valueobjects.FormatDuration(total), true).
		Footer("Remaining playlist songs load as the queue plays").
		Build()
}

// handlePause handles the pause command
func (h *Handler) handlePause(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.music.Pause(i.GuildID) {
		return respondError(s, i, apperrors.ErrNotPlaying)
	}

	embed := NewEmbed().
		Title("⏸️ Playback Paused").
		Description("Use `/resume` to continue playing").
		Color(ColorWarning).
		Build()

	return respondEmbed(s, i, embed)
}

// handleResume handles the resume command
func (h *Handler) handleResume(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.music.Resume(i.GuildID) {
		return respondError(s, i, apperrors.ErrNotPaused)
	}

	embed := NewEmbed().
		Title("▶️ Playback Resumed").
		Description("Music is now playing").
		Color(ColorSuccess).
		Build()

	return respondEmbed(s, i, embed)
}

// handleSkip handles the skip command
func (h *Handler) handleSkip(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.requireSameChannel(s, i); err != nil {
		return respondError(s, i, err)
	}

	var next *entities.Track
	if snapshot := h.music.GetQueue(i.GuildID); snapshot != nil && len(snapshot.Pending) > 0 {
		next = snapshot.Pending[0]
	}

	skipped, err := h.music.Skip(i.GuildID)
	if err != nil {
		return respondError(s, i, err)
	}

	return respondEmbed(s, i, buildSkipEmbed(skipped, next))
}

// buildSkipEmbed creates an embed for skip response
func buildSkipEmbed(skipped, next *entities.Track) *discordgo.MessageEmbed {
	builder := NewEmbed().
		Title("⏭️ Skipped").
		Color(ColorInfo).
		Field("Skipped", skipped.DisplayName(), false)

	if next != nil {
		builder.Track(next).Description(fmt.Sprintf("Up next: **%s**", next.DisplayName()))
	} else {
		builder.Description("No more songs in queue")
	}

	return builder.Build()
}

// handleStop handles the stop command
func (h *Handler) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.music.Stop(i.GuildID) {
		return respondError(s, i, apperrors.ErrNotPlaying)
	}

	embed := NewEmbed().
		Title("⏹️ Playback Stopped").
		Description("Playback has been stopped and the queue has been cleared").
		Color(ColorError).
		Build()

	return respondEmbed(s, i, embed)
}

// handleVolume handles the volume command
func (h *Handler) handleVolume(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	options := i.ApplicationCommandData().Options
	level := int(options[0].IntValue())

	if err := validation.ValidateVolume(level); err != nil {
		return respondError(s, i, err)
	}

	live, err := h.music.SetVolume(context.Background(), i.GuildID, level)
	if err != nil {
		return respondError(s, i, err)
	}

	builder := NewEmbed().
		Title("🔊 Volume Adjusted").
		Description(fmt.Sprintf("%s **%d%%**", volumeBar(level), level)).
		Color(ColorInfo)
	if !live {
		builder.Footer("Applies from the next song")
	}

	return respondEmbed(s, i, builder.Build())
}

// volumeBar renders a ten-cell bar, one cell per 20%
func volumeBar(level int) string {
	filled := min(max(level/(entities.MaxVolume/10), 0), 10)
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// requesterOf identifies the member who issued a command
func requesterOf(member *discordgo.Member) valueobjects.Requester {
	name := member.Nick
	if name == "" && member.User != nil {
		name = member.User.Username
	}

	id := ""
	if member.User != nil {
		id = member.User.ID
	}
	return valueobjects.Requester{ID: id, DisplayName: name}
}
