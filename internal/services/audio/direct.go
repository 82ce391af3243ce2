package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/youtube"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

const directStrategy = "direct"

// ErrQualityTimeout is returned when a quality tier did not answer in time
var ErrQualityTimeout = errors.New("stream request timed out")

// DirectSource opens native audio streams at a quality tier
type DirectSource interface {
	DirectStream(ctx context.Context, videoURL string, quality valueobjects.Quality) (io.ReadCloser, error)
}

// TrackMapper finds the video platform entry behind a streaming-service reference
type TrackMapper interface {
	MapStreamingTrack(ctx context.Context, reference string) (youtube.Video, error)
}

// DirectStrategy streams natively, walking down the quality ladder
type DirectStrategy struct {
	source    DirectSource
	mapper    TrackMapper
	qualities []valueobjects.Quality
	timeout   time.Duration
	delay     time.Duration
	logger    *logrus.Entry
}

// NewDirectStrategy creates the direct strategy. timeout bounds each quality attempt and
// delay separates attempts.
func NewDirectStrategy(source DirectSource, mapper TrackMapper, qualities []valueobjects.Quality, timeout, delay time.Duration, log *logger.Logger) *DirectStrategy {
	if len(qualities) == 0 {
		qualities = []valueobjects.Quality{valueobjects.QualityHigh}
	}
	return &DirectStrategy{
		source:    source,
		mapper:    mapper,
		qualities: qualities,
		timeout:   timeout,
		delay:     delay,
		logger:    log.Component("direct"),
	}
}

// Name implements Strategy
func (d *DirectStrategy) Name() string { return directStrategy }

// Acquire implements Strategy
func (d *DirectStrategy) Acquire(ctx context.Context, track *entities.Track) (*Stream, error) {
	video, err := d.mapper.MapStreamingTrack(ctx, track.Reference())
	if err != nil {
		return nil, err
	}

	log := d.logger.WithField("track", track.Title())

	var lastErr error
	for i, quality := range d.qualities {
		if i > 0 {
			select {
			case <-time.After(d.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		stream, err := d.open(ctx, video.URL, quality)
		if err == nil {
			log.WithField("quality", quality).Info("✅ Direct stream ready")
			return stream, nil
		}

		lastErr = err
		log.WithError(err).WithField("quality", quality).Warn("Direct stream failed")
	}

	return nil, fmt.Errorf("all qualities failed: %w", lastErr)
}

type directResult struct {
	body io.ReadCloser
	err  error
}

// open races the stream request against the quality timeout. The body must outlive
// the timeout, so the request runs on ctx and a late body is closed in the background.
func (d *DirectStrategy) open(ctx context.Context, url string, quality valueobjects.Quality) (*Stream, error) {
	done := make(chan directResult, 1)
	go func() {
		body, err := d.source.DirectStream(ctx, url, quality)
		done <- directResult{body, err}
	}()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if r.body == nil {
			return nil, errors.New("empty stream")
		}
		stream := NewStream(r.body, FormatEncoded, directStrategy)
		if err := validateStream(stream); err != nil {
			return nil, err
		}
		return stream, nil
	case <-timer.C:
		go func() {
			if r := <-done; r.body != nil {
				r.body.Close()
			}
		}()
		return nil, fmt.Errorf("%w: %s after %s", ErrQualityTimeout, quality, d.timeout)
	case <-ctx.Done():
		go func() {
			if r := <-done; r.body != nil {
				r.body.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
