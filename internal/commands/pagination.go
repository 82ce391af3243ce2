package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/guild-music-bot/internal/validation"
)

const (
	itemsPerPage = 10
	titleLength  = 50
)

// createPaginationButtons creates navigation buttons for pagination
func createPaginationButtons(page, totalPages int, customIDPrefix string) []discordgo.MessageComponent {
	if totalPages <= 1 {
		return nil
	}

	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "⏮️", // First
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s:first", customIDPrefix),
			Disabled: page == 0,
		},
		discordgo.Button{
			Label:    "◀️", // Previous
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("%s:prev", customIDPrefix),
			Disabled: page == 0,
		},
		discordgo.Button{
			Label:    fmt.Sprintf("Page %d/%d", page+1, totalPages),
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s:current:%d", customIDPrefix, page),
			Disabled: true,
		},
		discordgo.Button{
			Label:    "▶️", // Next
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("%s:next", customIDPrefix),
			Disabled: page >= totalPages-1,
		},
		discordgo.Button{
			Label:    "⏭️", // Last
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s:last", customIDPrefix),
			Disabled: page >= totalPages-1,
		},
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: buttons,
		},
	}
}

// totalPages returns how many pages n pending songs need, at least one
func totalPages(n int) int {
	return max((n+itemsPerPage-1)/itemsPerPage, 1)
}

// buildQueuePage builds a paginated queue display. Positions match /remove.
func buildQueuePage(snapshot *entities.QueueSnapshot, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	if snapshot == nil || (snapshot.Current == nil && len(snapshot.Pending) == 0) {
		return NewEmbed().
			Title("Queue").
			Description("The queue is empty. Use `/play` to add songs!").
			Color(ColorInfo).
			Build(), nil
	}

	pending := snapshot.Pending
	pages := totalPages(len(pending))
	page = min(max(page, 0), pages-1)

	builder := NewEmbed().
		Title(fmt.Sprintf("Music Queue (Page %d/%d)", page+1, pages)).
		Color(ColorPrimary)

	var sb strings.Builder
	if current := snapshot.Current; current != nil {
		state := "►"
		if snapshot.Paused {
			state = "⏸"
		}
		sb.WriteString(fmt.Sprintf("%s **%s** `[%s]`\n\n", state,
			validation.TruncateString(current.DisplayName(), titleLength), current.DurationFormatted()))
	}

	// Calculate range for this page
	start := page * itemsPerPage
	end := min(start+itemsPerPage, len(pending))

	for i := start; i < end; i++ {
		track := pending[i]
		sb.WriteString(fmt.Sprintf("`%2d.` **%s** `[%s]`\n", i+1,
			validation.TruncateString(track.DisplayName(), titleLength), track.DurationFormatted()))
	}
	if len(pending) == 0 {
		sb.WriteString("_No upcoming songs_")
	}

	builder.Description(sb.String())

	parts := []string{fmt.Sprintf("Upcoming: %d songs", len(pending))}
	if len(pending) > 0 {
		parts = append([]string{fmt.Sprintf("Showing %d-%d", start+1, end)}, parts...)
	}
	if snapshot.TotalDuration > 0 {
		parts = append(parts, valueobjects.FormatDuration(snapshot.TotalDuration))
	}
	parts = append(parts,
		fmt.Sprintf("Loop: %s %s", loopModeIcon(snapshot.LoopMode), snapshot.LoopMode),
		fmt.Sprintf("Volume: %d%%", snapshot.Volume))
	builder.Footer(strings.Join(parts, " • "))

	return builder.Build(), createPaginationButtons(page, pages, "queue")
}
