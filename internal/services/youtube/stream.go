package youtube

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"

	kkdai "github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
)

// DirectStream opens the native audio stream of a video at a quality tier.
// The returned reader carries encoded audio (webm/opus or m4a).
func (s *Service) DirectStream(ctx context.Context, videoURL string, quality valueobjects.Quality) (io.ReadCloser, error) {
	video, err := s.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	format := pickQuality(audioFormats(video.Formats), quality)
	if format == nil {
		return nil, ErrNoAudioFormat
	}

	stream, _, err := s.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("opening %s stream: %w", quality, err)
	}

	s.logger.WithField("itag", format.ItagNo).WithField("quality", quality).Debug("Direct stream opened")
	return stream, nil
}

// PipeCommand builds a yt-dlp process writing the best audio of url to stdout
func (s *Service) PipeCommand(ctx context.Context, url string) *exec.Cmd {
	return ytdlp.New().
		SetExecutable(s.ytDlpPath).
		Format("bestaudio/best").
		Output("-").
		NoSimulate().
		NoPart().
		NoPlaylist().
		NoCheckFormats().
		NoWarnings().
		IgnoreConfig().
		BuildCommand(ctx, url)
}

// audioFormats keeps audio-only formats, best bitrate first
func audioFormats(formats kkdai.FormatList) []*kkdai.Format {
	candidates := make([]*kkdai.Format, 0, len(formats))
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels > 0 && f.Width == 0 && f.Height == 0 {
			candidates = append(candidates, f)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return formatBitrate(candidates[i]) > formatBitrate(candidates[j])
	})
	return candidates
}

func formatBitrate(f *kkdai.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

// pickQuality maps a tier onto a bitrate-sorted list: high is the best, low the worst
func pickQuality(sorted []*kkdai.Format, quality valueobjects.Quality) *kkdai.Format {
	if len(sorted) == 0 {
		return nil
	}

	switch quality {
	case valueobjects.QualityLow:
		return sorted[len(sorted)-1]
	case valueobjects.QualityMedium:
		return sorted[len(sorted)/2]
	default:
		return sorted[0]
	}
}
