package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
)

// Embed palette
const (
	ColorPrimary = 0x5865F2 // now playing, queue listings
	ColorSuccess = 0x57F287 // something was added or applied
	ColorWarning = 0xFEE75C // paused, skipped, cleared
	ColorError   = 0xED4245 // refusals and failures
	ColorInfo    = 0x3498DB // neutral status
)

// failureEmbed renders err with its user-facing message. Those messages carry
// their own icon.
func failureEmbed(err error) *discordgo.MessageEmbed {
	return NewEmbed().
		Description(apperrors.GetUserMessage(err)).
		Color(ColorError).
		Build()
}

// noticeEmbed is a one-line embed for replies that are not backed by an error value
func noticeEmbed(message string, color int) *discordgo.MessageEmbed {
	return NewEmbed().Description(message).Color(color).Build()
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// respondError answers with the user message of err
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) error {
	return respondEmbed(s, i, failureEmbed(err))
}

// respondRefusal answers a request the bot will not carry out
func respondRefusal(s *discordgo.Session, i *discordgo.InteractionCreate, message string) error {
	return respondEmbed(s, i, noticeEmbed("❌ "+message, ColorError))
}

// deferResponse acknowledges a command that joins voice or resolves a query
func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// followUpEmbed completes a deferred response
func followUpEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	return err
}

func followUpError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) error {
	return followUpEmbed(s, i, failureEmbed(err))
}

// EmbedBuilder chains embed fields. New embeds start in ColorPrimary.
type EmbedBuilder struct {
	embed *discordgo.MessageEmbed
}

func NewEmbed() *EmbedBuilder {
	return &EmbedBuilder{
		embed: &discordgo.MessageEmbed{
			Color: ColorPrimary,
		},
	}
}

func (b *EmbedBuilder) Title(title string) *EmbedBuilder {
	b.embed.Title = title
	return b
}

func (b *EmbedBuilder) Description(desc string) *EmbedBuilder {
	b.embed.Description = desc
	return b
}

func (b *EmbedBuilder) Color(color int) *EmbedBuilder {
	b.embed.Color = color
	return b
}

func (b *EmbedBuilder) Field(name, value string, inline bool) *EmbedBuilder {
	b.embed.Fields = append(b.embed.Fields, &discordgo.MessageEmbedField{
		Name:   name,
		Value:  value,
		Inline: inline,
	})
	return b
}

// Track shows a track the way every playback embed does: bold name, artwork
// and a duration field
func (b *EmbedBuilder) Track(track *entities.Track) *EmbedBuilder {
	b.embed.Description = fmt.Sprintf("**%s**", track.DisplayName())
	if thumb := track.Thumbnail(); thumb != "" {
		b.embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumb}
	}
	return b.Field("Duration", track.DurationFormatted(), true)
}

// RequestedBy credits the member who queued track, when known
func (b *EmbedBuilder) RequestedBy(track *entities.Track) *EmbedBuilder {
	if name := track.Requester.DisplayName; name != "" {
		b.embed.Author = &discordgo.MessageEmbedAuthor{Name: "Requested by " + name}
	}
	return b
}

func (b *EmbedBuilder) Thumbnail(url string) *EmbedBuilder {
	if url != "" {
		b.embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
	}
	return b
}

func (b *EmbedBuilder) Footer(text string) *EmbedBuilder {
	b.embed.Footer = &discordgo.MessageEmbedFooter{Text: text}
	return b
}

func (b *EmbedBuilder) Timestamp(ts string) *EmbedBuilder {
	b.embed.Timestamp = ts
	return b
}

func (b *EmbedBuilder) Build() *discordgo.MessageEmbed {
	return b.embed
}
