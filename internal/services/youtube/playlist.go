package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"
	ytget "github.com/ytget/ytdlp/v2"
)

// ListPlaylist returns every entry of a playlist that has a video id, capped at max (0 = no cap).
// Strategies: native client, ytget, yt-dlp flat listing.
func (s *Service) ListPlaylist(ctx context.Context, playlistURL, playlistID string, max int) ([]Video, error) {
	type strategy struct {
		name string
		run  func(context.Context) ([]Video, error)
	}

	strategies := []strategy{
		{"native", func(ctx context.Context) ([]Video, error) { return s.nativePlaylist(ctx, playlistURL) }},
		{"ytget", func(ctx context.Context) ([]Video, error) { return s.ytgetPlaylist(ctx, playlistID) }},
		{"yt-dlp", func(ctx context.Context) ([]Video, error) { return s.ytdlpPlaylist(ctx, playlistURL, max) }},
	}

	var lastErr error
	for _, st := range strategies {
		if st.name == "ytget" && playlistID == "" {
			continue
		}

		videos, err := st.run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			s.logger.WithError(err).WithField("strategy", st.name).Warn("Playlist listing failed")
			continue
		}
		if len(videos) == 0 {
			continue
		}

		if max > 0 && len(videos) > max {
			videos = videos[:max]
		}
		s.logger.WithFields(logrus.Fields{
			"strategy": st.name,
			"count":    len(videos),
		}).Info("✅ Successfully extracted playlist")
		return videos, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, lastErr)
	}
	return nil, nil
}

func (s *Service) nativePlaylist(ctx context.Context, playlistURL string) ([]Video, error) {
	playlist, err := s.client.GetPlaylistContext(ctx, playlistURL)
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		if entry == nil || entry.ID == "" {
			continue
		}
		v := Video{
			ID:       entry.ID,
			Title:    entry.Title,
			URL:      WatchURL(entry.ID),
			Uploader: entry.Author,
			Duration: int(entry.Duration.Seconds()),
		}
		if len(entry.Thumbnails) > 0 {
			v.Thumbnail = entry.Thumbnails[len(entry.Thumbnails)-1].URL
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func (s *Service) ytgetPlaylist(ctx context.Context, playlistID string) ([]Video, error) {
	items, err := ytget.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			ID:        it.VideoID,
			Title:     it.Title,
			URL:       WatchURL(it.VideoID),
			Thumbnail: thumbnailURL(it.VideoID),
		})
	}
	return videos, nil
}

func (s *Service) ytdlpPlaylist(ctx context.Context, playlistURL string, max int) ([]Video, error) {
	cmd := ytdlp.New().
		SetExecutable(s.ytDlpPath).
		FlatPlaylist().
		Print("%(id)s\t%(title)s\t%(uploader)s\t%(duration)s").
		NoWarnings().
		IgnoreConfig()
	if max > 0 {
		cmd = cmd.PlaylistItems(fmt.Sprintf("1-%d", max))
	}

	res, err := cmd.Run(ctx, playlistURL)
	if err != nil {
		return nil, err
	}
	return parsePrintedVideos(res.Stdout), nil
}

// playlistTimeout scales the listing deadline with the requested size
func playlistTimeout(base time.Duration, max int) time.Duration {
	if max <= 0 {
		max = 50
	}
	extra := time.Duration(max/25) * base / 2
	return base + extra
}

// ListPlaylistWithDeadline wraps ListPlaylist with a timeout derived from searchTimeout
func (s *Service) ListPlaylistWithDeadline(ctx context.Context, playlistURL, playlistID string, max int) ([]Video, error) {
	ctx, cancel := context.WithTimeout(ctx, playlistTimeout(s.opts.SearchTimeout*2, max))
	defer cancel()

	videos, err := s.ListPlaylist(ctx, playlistURL, playlistID, max)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: playlist listing timed out", ErrExtractionFailed)
	}
	return videos, err
}
