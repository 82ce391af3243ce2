package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
)

// GetCommands returns all slash command definitions
func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		// Playback commands
		{
			Name:        "play",
			Description: "Play music from YouTube, Spotify, or a search query",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "URL (YouTube/Spotify) or search query",
					Required:    true,
				},
			},
		},
		{
			Name:        "pause",
			Description: "Pause the current playback",
		},
		{
			Name:        "resume",
			Description: "Resume paused playback",
		},
		{
			Name:        "skip",
			Description: "Skip to the next song",
		},
		{
			Name:        "stop",
			Description: "Stop playback and clear the queue",
		},
		{
			Name:        "volume",
			Description: "Adjust playback volume (0-200%)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume level (0-200)",
					Required:    true,
					MinValue:    func() *float64 { v := 0.0; return &v }(),
					MaxValue:    entities.MaxVolume,
				},
			},
		},

		// Queue commands
		{
			Name:        "queue",
			Description: "Display the current song queue",
		},
		{
			Name:        "nowplaying",
			Description: "Show information about the currently playing song",
		},
		{
			Name:        "shuffle",
			Description: "Shuffle the songs in queue",
		},
		{
			Name:        "remove",
			Description: "Remove a song from the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "position",
					Description: "Queue position (1-based, see /queue)",
					Required:    true,
					MinValue:    func() *float64 { v := 1.0; return &v }(),
				},
			},
		},
		{
			Name:        "clear",
			Description: "Remove all upcoming songs, keep the current one",
		},
		{
			Name:        "loop",
			Description: "Configure loop mode for playback",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "Loop mode",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Off", Value: "none"},
						{Name: "Single Song", Value: "song"},
						{Name: "Entire Queue", Value: "queue"},
					},
				},
			},
		},

		// Utility commands
		{
			Name:        "join",
			Description: "Join your current voice channel",
		},
		{
			Name:        "leave",
			Description: "Leave voice channel and clear all state",
		},
		{
			Name:        "stats",
			Description: "Display bot statistics and status",
		},
		{
			Name:        "help",
			Description: "Show all available commands and usage",
		},
		{
			Name:        "sync",
			Description: "[Admin] Force synchronize slash commands with Discord",
		},
	}
}
