package youtube

import (
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"time"

	kkdai "github.com/kkdai/youtube/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/guild-music-bot/internal/utils"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

var (
	// ErrYtDlpNotFound is returned when yt-dlp is not installed
	ErrYtDlpNotFound = errors.New("yt-dlp not found in PATH")
	// ErrExtractionFailed is returned when video extraction fails
	ErrExtractionFailed = errors.New("failed to extract video information")
	// ErrNoAudioFormat is returned when a video exposes no audio-capable format
	ErrNoAudioFormat = errors.New("no audio format available")
)

// Video is a search result or lightweight metadata record
type Video struct {
	ID        string
	Title     string
	URL       string
	Uploader  string
	Thumbnail string
	Duration  int // seconds, 0 = unknown or live
}

// Metadata converts the video into track metadata
func (v Video) Metadata() valueobjects.TrackMetadata {
	return valueobjects.TrackMetadata{
		Title:     v.Title,
		Duration:  v.Duration,
		Thumbnail: v.Thumbnail,
		Uploader:  v.Uploader,
	}
}

// YouTubeInfo represents the full yt-dlp info document of a video
type YouTubeInfo struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Duration   float64  `json:"duration"`
	Uploader   string   `json:"uploader"`
	Thumbnail  string   `json:"thumbnail"`
	WebpageURL string   `json:"webpage_url"`
	StreamURL  string   `json:"url,omitempty"`
	Formats    []Format `json:"formats,omitempty"`
	IsLive     bool     `json:"is_live,omitempty"`
}

// Format represents an available stream format
type Format struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	URL        string  `json:"url"`
	AudioCodec string  `json:"acodec"`
	VideoCodec string  `json:"vcodec"`
	ABR        float64 `json:"abr"` // Audio bitrate
	TBR        float64 `json:"tbr"` // Total bitrate
}

// HasAudio reports whether the format carries an audio track
func (f Format) HasAudio() bool {
	return f.AudioCodec != "" && f.AudioCodec != "none"
}

// AudioOnly reports whether the format carries audio and no video
func (f Format) AudioOnly() bool {
	return f.HasAudio() && (f.VideoCodec == "" || f.VideoCodec == "none")
}

// ToVideo converts the info document into a Video
func (info *YouTubeInfo) ToVideo() Video {
	u := info.WebpageURL
	if u == "" && info.ID != "" {
		u = WatchURL(info.ID)
	}
	return Video{
		ID:        info.ID,
		Title:     info.Title,
		URL:       u,
		Uploader:  info.Uploader,
		Thumbnail: info.Thumbnail,
		Duration:  int(info.Duration),
	}
}

// Options configures the service
type Options struct {
	YtDlpPath      string
	SearchTimeout  time.Duration
	RateLimitDelay time.Duration
	HTTPTimeout    time.Duration
}

// Service handles video platform operations: search, metadata, playlists and streams
type Service struct {
	searchers []Searcher
	quick     Searcher
	client    *kkdai.Client
	limiter   *rate.Limiter
	videos    *utils.Cache[string, Video]
	searches  *utils.Cache[string, []Video]
	logger    *logrus.Entry
	ytDlpPath string
	opts      Options
}

// NewService creates a new YouTube service. yt-dlp must be installed.
func NewService(log *logger.Logger, opts Options) (*Service, error) {
	if opts.YtDlpPath == "" {
		opts.YtDlpPath = "yt-dlp"
	}

	ytDlpPath, err := exec.LookPath(opts.YtDlpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: please install yt-dlp", ErrYtDlpNotFound)
	}
	opts.YtDlpPath = ytDlpPath

	svc := newService(log, opts)
	svc.searchers = []Searcher{
		&ytdlpSearcher{path: ytDlpPath},
		&musicSearcher{},
	}
	svc.quick = &webSearcher{}

	log.WithField("ytdlp_path", ytDlpPath).Info("YouTube service initialized")
	return svc, nil
}

func newService(log *logger.Logger, opts Options, searchers ...Searcher) *Service {
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 8 * time.Second
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if opts.RateLimitDelay > 0 {
		limit = rate.Every(opts.RateLimitDelay)
	}

	svc := &Service{
		searchers: searchers,
		client:    &kkdai.Client{HTTPClient: &http.Client{Timeout: opts.HTTPTimeout}},
		limiter:   rate.NewLimiter(limit, 2),
		// Metadata rarely changes, search results go stale faster
		videos:    utils.NewCache[string, Video](500, 30*time.Minute),
		searches:  utils.NewCache[string, []Video](200, 5*time.Minute),
		logger:    log.Component("youtube"),
		ytDlpPath: opts.YtDlpPath,
		opts:      opts,
	}
	if len(searchers) > 0 {
		svc.quick = searchers[0]
	}
	return svc
}

// WatchURL builds the canonical watch URL for a video id
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// CacheStats returns cache statistics for metadata and searches combined
func (s *Service) CacheStats() (hits, misses int64, size int) {
	vh, vm, vs := s.videos.Stats()
	sh, sm, ss := s.searches.Stats()
	return vh + sh, vm + sm, vs + ss
}

// ClearCache clears the entire cache
func (s *Service) ClearCache() {
	s.videos.Clear()
	s.searches.Clear()
	s.logger.Info("Cache cleared")
}
