package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/vuongmanhnghia/guild-music-bot/internal/bot"
	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/music"
	"github.com/vuongmanhnghia/guild-music-bot/internal/validation"
)

// cliGuild keys the playlist buffer for offline resolution
const cliGuild = "cli"

func resolveCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "resolve <query>",
		Short: "Resolve a URL or search query to tracks without connecting to Discord",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithoutToken()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			log := newLogger(cfg)
			defer log.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			sources, err := bot.NewSources(ctx, cfg, log)
			if err != nil {
				return err
			}
			buffer := music.NewBuffer(sources.Resolver.Text(), log)
			sources.Resolver.SetBuffer(buffer)

			query := strings.Join(args, " ")
			tracks, err := sources.Resolver.Resolve(ctx, cliGuild, query, valueobjects.Requester{ID: cliGuild, DisplayName: "cli"})
			if err != nil {
				return err
			}

			renderTracks(query, tracks, buffer.Remaining(cliGuild))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up after this long")
	return cmd
}

func renderTracks(query string, tracks []*entities.Track, unresolved int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(validation.TruncateString(query, 80))

	t.AppendHeader(table.Row{"#", "Title", "Artist", "Duration", "Reference"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	total := 0
	for i, track := range tracks {
		meta := track.Metadata()
		artist := meta.Artist
		if artist == "" {
			artist = meta.Uploader
		}
		t.AppendRow(table.Row{
			i + 1,
			validation.TruncateString(meta.Title, 60),
			artist,
			track.DurationFormatted(),
			track.Reference(),
		})
		total += meta.Duration
	}

	footer := fmt.Sprintf("%d tracks", len(tracks))
	if unresolved > 0 {
		footer = fmt.Sprintf("%d tracks, %d more buffered", len(tracks), unresolved)
	}
	t.AppendFooter(table.Row{"", footer, "", valueobjects.FormatDuration(total), ""})
	t.Render()
}
