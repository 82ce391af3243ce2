package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"
)

// BasicInfo fetches title, duration and thumbnail of a single video.
// The native client is tried first, yt-dlp second.
func (s *Service) BasicInfo(ctx context.Context, videoURL string) (Video, error) {
	if cached, ok := s.videos.Get(videoURL); ok {
		s.logger.Debug("Cache hit for URL")
		return cached, nil
	}

	v, err := s.nativeInfo(ctx, videoURL)
	if err != nil {
		s.logger.WithError(err).WithField("url", videoURL).Debug("Native metadata failed, trying yt-dlp")
		v, err = s.ytdlpInfo(ctx, videoURL)
	}
	if err != nil {
		return Video{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	s.videos.Set(videoURL, v)
	s.logger.WithFields(logrus.Fields{
		"title":    v.Title,
		"duration": v.Duration,
	}).Debug("✅ Extracted video info")
	return v, nil
}

func (s *Service) nativeInfo(ctx context.Context, videoURL string) (Video, error) {
	video, err := s.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return Video{}, err
	}

	v := Video{
		ID:       video.ID,
		Title:    video.Title,
		URL:      WatchURL(video.ID),
		Uploader: video.Author,
		Duration: int(video.Duration.Seconds()),
	}
	if len(video.Thumbnails) > 0 {
		v.Thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return v, nil
}

func (s *Service) ytdlpInfo(ctx context.Context, videoURL string) (Video, error) {
	res, err := ytdlp.New().
		SetExecutable(s.ytDlpPath).
		Print("%(id)s\t%(title)s\t%(uploader)s\t%(duration)s").
		NoSimulate().
		NoPlaylist().
		IgnoreConfig().
		NoWarnings().
		Run(ctx, "--skip-download", videoURL)
	if err != nil {
		return Video{}, err
	}

	videos := parsePrintedVideos(res.Stdout)
	if len(videos) == 0 {
		return Video{}, fmt.Errorf("could not parse metadata for %s", videoURL)
	}
	return videos[0], nil
}

// FullInfo dumps the complete info document, including every format
func (s *Service) FullInfo(ctx context.Context, videoURL string) (*YouTubeInfo, error) {
	res, err := ytdlp.New().
		SetExecutable(s.ytDlpPath).
		DumpJSON().
		NoPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return parseInfo(res.Stdout)
}

func parseInfo(stdout string) (*YouTubeInfo, error) {
	var info YouTubeInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &info); err != nil {
		return nil, fmt.Errorf("failed to parse video info: %w", err)
	}
	return &info, nil
}

// BestAudioFormat picks audio-only formats by bitrate first, then the best mixed format
func BestAudioFormat(info *YouTubeInfo) (Format, error) {
	var audioOnly, mixed []Format
	for _, f := range info.Formats {
		if f.URL == "" || !f.HasAudio() {
			continue
		}
		if f.AudioOnly() {
			audioOnly = append(audioOnly, f)
		} else {
			mixed = append(mixed, f)
		}
	}

	byBitrate := func(fs []Format) {
		sort.SliceStable(fs, func(i, j int) bool {
			return bitrate(fs[i]) > bitrate(fs[j])
		})
	}

	if len(audioOnly) > 0 {
		byBitrate(audioOnly)
		return audioOnly[0], nil
	}
	if len(mixed) > 0 {
		byBitrate(mixed)
		return mixed[0], nil
	}
	if info.StreamURL != "" {
		return Format{FormatID: "default", URL: info.StreamURL}, nil
	}
	return Format{}, ErrNoAudioFormat
}

func bitrate(f Format) float64 {
	if f.ABR > 0 {
		return f.ABR
	}
	return f.TBR
}
