package youtube

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	kkdai "github.com/kkdai/youtube/v2"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

type fakeSearcher struct {
	name   string
	videos []Video
	err    error
	calls  int
}

func (f *fakeSearcher) Name() string { return f.name }

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	f.calls++
	return f.videos, f.err
}

func testService(searchers ...Searcher) *Service {
	log := logger.New(logger.Config{Level: "error"})
	return newService(log, Options{SearchTimeout: time.Second}, searchers...)
}

func TestNewService(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})

	svc, err := NewService(log, Options{})
	if err != nil {
		t.Skipf("yt-dlp not installed: %v", err)
		return
	}

	if svc.ytDlpPath == "" {
		t.Error("Expected yt-dlp path to be set")
	}
	if len(svc.searchers) == 0 || svc.quick == nil {
		t.Error("Expected default searchers to be wired")
	}
}

func TestSearchFallsThroughCascade(t *testing.T) {
	broken := &fakeSearcher{name: "broken", err: errors.New("boom")}
	empty := &fakeSearcher{name: "empty"}
	good := &fakeSearcher{name: "good", videos: []Video{
		{ID: "a", Title: "A", Duration: 100},
		{ID: "b", Title: "B", Duration: 200},
		{ID: "c", Title: "C", Duration: 300},
	}}
	svc := testService(broken, empty, good)

	videos, err := svc.Search(context.Background(), "lofi", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("Expected results capped at 2, got %d", len(videos))
	}
	if broken.calls != 1 || empty.calls != 1 || good.calls != 1 {
		t.Errorf("Unexpected call counts: %d %d %d", broken.calls, empty.calls, good.calls)
	}

	// Second call is served from cache
	if _, err := svc.Search(context.Background(), "LOFI", 2); err != nil {
		t.Fatal(err)
	}
	if good.calls != 1 {
		t.Errorf("Expected cached search, searcher called %d times", good.calls)
	}

	hits, _, _ := svc.CacheStats()
	if hits != 1 {
		t.Errorf("Expected 1 cache hit, got %d", hits)
	}
}

func TestSearchReportsFailure(t *testing.T) {
	svc := testService(&fakeSearcher{name: "broken", err: errors.New("boom")})

	_, err := svc.Search(context.Background(), "anything", 3)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("Expected ErrExtractionFailed, got %v", err)
	}
}

func TestFirstResultUsesQuickSearcher(t *testing.T) {
	quick := &fakeSearcher{name: "quick", videos: []Video{{ID: "q", Title: "Quick"}}}
	svc := testService(quick)

	v, ok := svc.FirstResult(context.Background(), "daft punk")
	if !ok || v.ID != "q" {
		t.Errorf("Expected quick result, got %+v (%v)", v, ok)
	}
}

func TestParsePrintedVideos(t *testing.T) {
	out := "dQw4w9WgXcQ\tNever Gonna Give You Up\tRick Astley\t213\nNA\tbroken\t\t\nshort line\n"

	videos := parsePrintedVideos(out)
	if len(videos) != 1 {
		t.Fatalf("Expected 1 parsed video, got %d", len(videos))
	}

	v := videos[0]
	if v.Duration != 213 || v.Uploader != "Rick Astley" {
		t.Errorf("Unexpected parse result %+v", v)
	}
	if v.URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("Unexpected URL %s", v.URL)
	}
}

func TestBestAudioFormat(t *testing.T) {
	info := &YouTubeInfo{Formats: []Format{
		{FormatID: "18", URL: "u18", AudioCodec: "mp4a.40.2", VideoCodec: "avc1", TBR: 500},
		{FormatID: "140", URL: "u140", AudioCodec: "mp4a.40.2", VideoCodec: "none", ABR: 129},
		{FormatID: "251", URL: "u251", AudioCodec: "opus", VideoCodec: "none", ABR: 160},
		{FormatID: "137", URL: "u137", AudioCodec: "none", VideoCodec: "avc1", TBR: 4000},
	}}

	f, err := BestAudioFormat(info)
	if err != nil {
		t.Fatal(err)
	}
	if f.FormatID != "251" {
		t.Errorf("Expected format 251, got %s", f.FormatID)
	}

	info.Formats = info.Formats[:1]
	if f, _ = BestAudioFormat(info); f.FormatID != "18" {
		t.Errorf("Expected mixed format 18, got %s", f.FormatID)
	}

	if _, err = BestAudioFormat(&YouTubeInfo{}); !errors.Is(err, ErrNoAudioFormat) {
		t.Errorf("Expected ErrNoAudioFormat, got %v", err)
	}
}

func TestPickQuality(t *testing.T) {
	formats := kkdai.FormatList{
		{ItagNo: 18, AudioChannels: 2, Width: 640, Height: 360, Bitrate: 500000},
		{ItagNo: 139, AudioChannels: 2, Bitrate: 48000},
		{ItagNo: 251, AudioChannels: 2, Bitrate: 160000},
		{ItagNo: 140, AudioChannels: 2, AverageBitrate: 128000},
	}

	sorted := audioFormats(formats)
	if len(sorted) != 3 {
		t.Fatalf("Expected 3 audio-only formats, got %d", len(sorted))
	}

	tests := []struct {
		quality valueobjects.Quality
		itag    int
	}{
		{valueobjects.QualityHigh, 251},
		{valueobjects.QualityMedium, 140},
		{valueobjects.QualityLow, 139},
	}
	for _, tt := range tests {
		if f := pickQuality(sorted, tt.quality); f.ItagNo != tt.itag {
			t.Errorf("pickQuality(%s) = %d, expected %d", tt.quality, f.ItagNo, tt.itag)
		}
	}

	if pickQuality(nil, valueobjects.QualityHigh) != nil {
		t.Error("Expected nil for no formats")
	}
}

// Integration tests (require yt-dlp and network)
func TestSearchIntegration(t *testing.T) {
	if testing.Short() || os.Getenv("YOUTUBE_INTEGRATION") == "" {
		t.Skip("Skipping integration test")
	}

	log := logger.New(logger.Config{Level: "error"})

	svc, err := NewService(log, Options{})
	if err != nil {
		t.Skipf("yt-dlp not installed: %v", err)
		return
	}

	results, err := svc.Search(context.Background(), "never gonna give you up", 3)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Expected at least one search result")
	}
	if results[0].ID == "" || results[0].Title == "" {
		t.Error("Expected id and title in search result")
	}
}
