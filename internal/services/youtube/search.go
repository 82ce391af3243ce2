package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
	"github.com/sirupsen/logrus"
)

// Searcher finds videos for a text query
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Video, error)
}

// Search runs the searcher cascade; the first searcher that returns results wins.
// Results are cached per query and limit.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = 5
	}

	cacheKey := fmt.Sprintf("%d:%s", limit, strings.ToLower(query))
	if cached, ok := s.searches.Get(cacheKey); ok {
		s.logger.WithField("query", query).Debug("Cache hit for search")
		return cached, nil
	}

	var lastErr error
	for _, searcher := range s.searchers {
		videos, err := s.searchWith(ctx, searcher, query, limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			s.logger.WithError(err).WithFields(logrus.Fields{
				"searcher": searcher.Name(),
				"query":    query,
			}).Warn("Search strategy failed")
			continue
		}
		if len(videos) == 0 {
			continue
		}

		s.searches.Set(cacheKey, videos)
		s.logger.WithFields(logrus.Fields{
			"searcher": searcher.Name(),
			"query":    query,
			"results":  len(videos),
		}).Debug("✅ Search completed")
		return videos, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, lastErr)
	}
	return nil, nil
}

// FirstResult returns the top match using the fastest searcher, then the full cascade.
// The result may lack a duration.
func (s *Service) FirstResult(ctx context.Context, query string) (Video, bool) {
	if s.quick != nil {
		if videos, err := s.searchWith(ctx, s.quick, query, 1); err == nil && len(videos) > 0 {
			return videos[0], true
		}
	}

	videos, err := s.Search(ctx, query, 1)
	if err != nil || len(videos) == 0 {
		return Video{}, false
	}
	return videos[0], true
}

func (s *Service) searchWith(ctx context.Context, searcher Searcher, query string, limit int) ([]Video, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	videos, err := searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

// ytdlpSearcher uses yt-dlp's flat search, which reports durations
type ytdlpSearcher struct {
	path string
}

func (y *ytdlpSearcher) Name() string { return "yt-dlp" }

func (y *ytdlpSearcher) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	res, err := ytdlp.New().
		SetExecutable(y.path).
		FlatPlaylist().
		Print("%(id)s\t%(title)s\t%(uploader)s\t%(duration)s").
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		NoWarnings().
		IgnoreConfig().
		Run(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, err
	}

	return parsePrintedVideos(res.Stdout), nil
}

// parsePrintedVideos reads lines of "id\ttitle\tuploader\tduration"
func parsePrintedVideos(stdout string) []Video {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	videos := make([]Video, 0, len(lines))
	for _, line := range lines {
		ps := strings.Split(line, "\t")
		if len(ps) < 4 || ps[0] == "" || ps[0] == "NA" {
			continue
		}

		d, _ := time.ParseDuration(ps[3] + "s")
		videos = append(videos, Video{
			ID:        ps[0],
			Title:     ps[1],
			URL:       WatchURL(ps[0]),
			Uploader:  ps[2],
			Thumbnail: thumbnailURL(ps[0]),
			Duration:  int(d.Seconds()),
		})
	}
	return videos
}

// musicSearcher queries the YouTube Music catalogue
type musicSearcher struct{}

func (m *musicSearcher) Name() string { return "ytmusic" }

func (m *musicSearcher) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	type result struct {
		videos []Video
		err    error
	}

	// ytmusic has no context support
	done := make(chan result, 1)
	go func() {
		r, err := ytmusic.TrackSearch(query).Next()
		if err != nil {
			done <- result{err: err}
			return
		}

		videos := make([]Video, 0, limit)
		for _, track := range r.Tracks {
			if track.VideoID == "" {
				continue
			}
			v := Video{
				ID:       track.VideoID,
				Title:    track.Title,
				URL:      WatchURL(track.VideoID),
				Duration: track.Duration,
			}
			if len(track.Artists) > 0 {
				v.Uploader = track.Artists[0].Name
			}
			if len(track.Thumbnails) > 0 {
				v.Thumbnail = track.Thumbnails[len(track.Thumbnails)-1].URL
			}
			videos = append(videos, v)
			if len(videos) == limit {
				break
			}
		}
		done <- result{videos: videos}
	}()

	select {
	case r := <-done:
		return r.videos, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// webSearcher scrapes the web search results page. Fast, but without durations.
type webSearcher struct{}

func (w *webSearcher) Name() string { return "ytsearch" }

func (w *webSearcher) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	c := ytsearch.NewClient(nil)
	r, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, limit)
	for _, v := range r.Results {
		if v.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			ID:        v.VideoID,
			Title:     v.Title,
			URL:       WatchURL(v.VideoID),
			Thumbnail: thumbnailURL(v.VideoID),
		})
		if len(videos) == limit {
			break
		}
	}
	return videos, nil
}

func thumbnailURL(id string) string {
	return "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
}
