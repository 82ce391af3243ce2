package commands

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// handleButtonInteraction handles pagination button clicks
func (h *Handler) handleButtonInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	// Parse custom ID: "queue:action"
	parts := strings.Split(customID, ":")
	if len(parts) < 2 {
		return
	}

	switch parts[0] {
	case "queue":
		h.handleQueuePagination(s, i, parts[1])
	}
}

// handleQueuePagination handles queue pagination buttons
func (h *Handler) handleQueuePagination(s *discordgo.Session, i *discordgo.InteractionCreate, action string) {
	snapshot := h.music.GetQueue(i.GuildID)

	current := 0
	if i.Message != nil && len(i.Message.Embeds) > 0 {
		current = pageFromTitle(i.Message.Embeds[0].Title)
	}

	pages := 1
	if snapshot != nil {
		pages = totalPages(len(snapshot.Pending))
	}

	targetPage, ok := targetPage(action, current, pages)
	if !ok {
		return
	}

	// Build the requested page
	embed, components := buildQueuePage(snapshot, targetPage)

	// Update the message
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})

	if err != nil {
		h.logger.WithError(err).Error("Failed to update queue pagination")
	}
}

// targetPage maps a button action to a 0-indexed page. Unknown actions, including
// the disabled page label, report false.
func targetPage(action string, current, pages int) (int, bool) {
	switch action {
	case "first":
		return 0, true
	case "prev":
		return max(current-1, 0), true
	case "next":
		return min(current+1, pages-1), true
	case "last":
		return pages - 1, true
	default:
		return 0, false
	}
}

// pageFromTitle extracts the 0-indexed page from "Music Queue (Page X/Y)"
func pageFromTitle(title string) int {
	start := strings.Index(title, "(Page ")
	if start < 0 {
		return 0
	}
	start += len("(Page ")

	end := strings.Index(title[start:], "/")
	if end <= 0 {
		return 0
	}

	page, err := strconv.Atoi(title[start : start+end])
	if err != nil || page < 1 {
		return 0
	}
	return page - 1
}
