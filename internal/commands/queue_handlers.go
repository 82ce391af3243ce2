package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/validation"
)

// handleQueue handles the queue command
func (h *Handler) handleQueue(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	snapshot := h.music.GetQueue(i.GuildID)

	// Build first page
	embed, components := buildQueuePage(snapshot, 0)

	// Send response with pagination buttons
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// handleNowPlaying handles the nowplaying command
func (h *Handler) handleNowPlaying(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	snapshot := h.music.GetQueue(i.GuildID)
	if snapshot == nil || snapshot.Current == nil {
		return respondError(s, i, apperrors.ErrNotPlaying)
	}

	current := snapshot.Current
	metadata := current.Metadata()

	builder := NewEmbed().
		Title("Now Playing").
		Description(fmt.Sprintf("**%s**", metadata.Title)).
		Color(ColorPrimary).
		Thumbnail(metadata.Thumbnail).
		Field("Duration", current.DurationFormatted(), true)

	if metadata.Artist != "" {
		builder.Field("Artist", metadata.Artist, true)
	} else if metadata.Uploader != "" {
		builder.Field("Artist", metadata.Uploader, true)
	}

	status := "▶️ Playing"
	if snapshot.Paused {
		status = "⏸️ Paused"
	}
	builder.Field("Status", status, true)

	if current.Requester.DisplayName != "" {
		builder.Field("Requested by", current.Requester.DisplayName, true)
	}
	builder.Field("Loop", loopModeDisplay(snapshot.LoopMode), true)
	builder.Field("Up Next", fmt.Sprintf("%d songs", len(snapshot.Pending)), true)

	builder.Footer("Use /skip to play next song")

	return respondEmbed(s, i, builder.Build())
}

// handleShuffle handles the shuffle command
func (h *Handler) handleShuffle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	snapshot := h.music.GetQueue(i.GuildID)
	if snapshot == nil || len(snapshot.Pending) == 0 {
		return respondRefusal(s, i, "Queue is empty - nothing to shuffle")
	}

	if !h.music.Shuffle(i.GuildID) {
		return respondRefusal(s, i, "Need at least 2 songs in queue to shuffle")
	}

	embed := NewEmbed().
		Title("🔀 Queue Shuffled").
		Description(fmt.Sprintf("Successfully shuffled **%d** songs in the queue", len(snapshot.Pending))).
		Color(ColorSuccess).
		Build()

	return respondEmbed(s, i, embed)
}

// handleRemove handles the remove command
func (h *Handler) handleRemove(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	snapshot := h.music.GetQueue(i.GuildID)
	if snapshot == nil {
		return respondError(s, i, apperrors.ErrNoQueue)
	}

	position := int(i.ApplicationCommandData().Options[0].IntValue())
	if err := validation.ValidateQueuePosition(position, len(snapshot.Pending)); err != nil {
		return respondError(s, i, err)
	}

	removed := h.music.RemoveSong(i.GuildID, position)
	if removed == nil {
		// The queue moved on between the snapshot and the removal
		return respondError(s, i, apperrors.ErrInvalidPosition)
	}

	embed := NewEmbed().
		Title("🗑️ Song Removed").
		Description(fmt.Sprintf("Removed **%s** from position #%d", removed.DisplayName(), position)).
		Color(ColorSuccess).
		Build()

	return respondEmbed(s, i, embed)
}

// handleClear handles the clear command
func (h *Handler) handleClear(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if h.music.GetQueue(i.GuildID) == nil {
		return respondError(s, i, apperrors.ErrNoQueue)
	}

	count := h.music.ClearSongs(i.GuildID)
	if count == 0 {
		return respondEmbed(s, i, noticeEmbed("📋 There are no upcoming songs to clear", ColorInfo))
	}

	embed := NewEmbed().
		Title("🧹 Queue Cleared").
		Description(fmt.Sprintf("Removed **%d** upcoming songs. The current song keeps playing", count)).
		Color(ColorWarning).
		Build()

	return respondEmbed(s, i, embed)
}

// handleLoop handles the loop command
func (h *Handler) handleLoop(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	options := i.ApplicationCommandData().Options
	mode, err := valueobjects.ParseLoopMode(options[0].StringValue())
	if err != nil {
		return respondError(s, i, apperrors.ErrInvalidLoopMode)
	}

	if err := h.music.SetLoop(context.Background(), i.GuildID, mode); err != nil {
		return respondError(s, i, err)
	}

	embed := NewEmbed().
		Title(fmt.Sprintf("%s Loop Mode Updated", loopModeIcon(mode))).
		Description(fmt.Sprintf("Loop mode set to: **%s**", loopModeDisplay(mode))).
		Color(ColorInfo).
		Build()

	return respondEmbed(s, i, embed)
}

func loopModeIcon(mode valueobjects.LoopMode) string {
	switch mode {
	case valueobjects.LoopModeSong:
		return "🔂"
	case valueobjects.LoopModeQueue:
		return "🔁"
	default:
		return "➡️"
	}
}

func loopModeDisplay(mode valueobjects.LoopMode) string {
	switch mode {
	case valueobjects.LoopModeSong:
		return "Single Song"
	case valueobjects.LoopModeQueue:
		return "Entire Queue"
	default:
		return "Off"
	}
}
