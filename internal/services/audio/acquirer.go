package audio

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/validation"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

// Strategy turns a track into a live stream
type Strategy interface {
	Name() string
	Acquire(ctx context.Context, track *entities.Track) (*Stream, error)
}

// Acquirer picks a strategy from the track reference and retries it
type Acquirer struct {
	direct   Strategy
	pipeline Strategy
	search   Strategy

	retries    int
	retryDelay time.Duration
	logger     *logrus.Entry
}

// NewAcquirer creates an acquirer over the three strategies
func NewAcquirer(direct, pipeline, search Strategy, cfg config.MusicConfig, log *logger.Logger) *Acquirer {
	retries := cfg.MaxStreamRetries
	if retries < 1 {
		retries = 1
	}
	return &Acquirer{
		direct:     direct,
		pipeline:   pipeline,
		search:     search,
		retries:    retries,
		retryDelay: cfg.SearchRetryDelay,
		logger:     log.Component("acquirer"),
	}
}

// StrategyFor selects the strategy for a reference
func (a *Acquirer) StrategyFor(reference string) Strategy {
	switch validation.Classify(reference).Kind {
	case valueobjects.SourceKindStreamingTrack, valueobjects.SourceKindStreamingPlaylist:
		return a.direct
	case valueobjects.SourceKindVideoSingle, valueobjects.SourceKindVideoPlaylist:
		return a.pipeline
	default:
		return a.search
	}
}

// Acquire returns a readable stream for track or an error wrapping ErrStreamUnavailable.
// Cancelling ctx stops the attempt and anything it spawned.
func (a *Acquirer) Acquire(ctx context.Context, track *entities.Track, guildID string) (*Stream, error) {
	log := a.logger.WithFields(logrus.Fields{
		"guild": guildID,
		"track": track.Title(),
	})

	var (
		stream  *Stream
		attempt int
	)

	err := retry.Do(ctx, a.backoff(), func(ctx context.Context) error {
		attempt++

		// The search strategy corrects the reference, so select every attempt
		strategy := a.StrategyFor(track.Reference())
		log.WithFields(logrus.Fields{
			"strategy": strategy.Name(),
			"attempt":  attempt,
		}).Debug("Acquiring stream")

		s, err := strategy.Acquire(ctx, track)
		if err == nil && !s.Readable() {
			if s != nil {
				s.Close()
			}
			err = fmt.Errorf("stream is not readable (attempt %d)", attempt)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).WithFields(logrus.Fields{
				"attempt":    attempt,
				"will_retry": attempt < a.retries,
			}).Warn("Stream attempt failed")
			return retry.RetryableError(err)
		}

		stream = s
		return nil
	})

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		log.WithError(err).WithField("attempts", attempt).Error("❌ Stream unavailable")
		return nil, apperrors.NewTrackError(track.Title(), fmt.Errorf("%w after %d attempts: %v", apperrors.ErrStreamUnavailable, attempt, err))
	}

	log.WithFields(logrus.Fields{
		"strategy": stream.Strategy,
		"attempt":  attempt,
	}).Info("✅ Stream obtained")
	return stream, nil
}

// backoff waits attempt * retryDelay between attempts
func (a *Acquirer) backoff() retry.Backoff {
	var n atomic.Int64
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		return time.Duration(n.Add(1)) * a.retryDelay, false
	})
	return retry.WithMaxRetries(uint64(a.retries-1), linear)
}
