package audio

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/resolver"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/youtube"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

const (
	searchStrategy = "search"

	searchLimit      = 5
	searchCandidates = 3
)

// VideoSearcher searches the video platform
type VideoSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]youtube.Video, error)
}

// Opener opens a video URL as a stream
type Opener interface {
	Open(ctx context.Context, url string) (*Stream, error)
}

// SearchStrategy finds an unresolved track by its title and streams the first candidate that works.
// The track is corrected to point at that candidate.
type SearchStrategy struct {
	searcher VideoSearcher
	opener   Opener
	logger   *logrus.Entry
}

// NewSearchStrategy creates the search fallback strategy
func NewSearchStrategy(searcher VideoSearcher, opener Opener, log *logger.Logger) *SearchStrategy {
	return &SearchStrategy{
		searcher: searcher,
		opener:   opener,
		logger:   log.Component("search_strategy"),
	}
}

// Name implements Strategy
func (s *SearchStrategy) Name() string { return searchStrategy }

// Acquire implements Strategy
func (s *SearchStrategy) Acquire(ctx context.Context, track *entities.Track) (*Stream, error) {
	query := resolver.CleanQuery(track.Title())

	videos, err := s.searcher.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNoResults, err)
	}

	candidates := lo.Filter(videos, func(v youtube.Video, _ int) bool { return resolver.Suitable(v) })
	if len(candidates) > searchCandidates {
		candidates = candidates[:searchCandidates]
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoResults, query)
	}

	var lastErr error
	for _, v := range candidates {
		stream, err := s.opener.Open(ctx, v.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			s.logger.WithError(err).WithField("candidate", v.Title).Warn("Candidate failed")
			continue
		}

		track.Correct(v.URL, v.Metadata())
		s.logger.WithFields(logrus.Fields{
			"query":     query,
			"candidate": v.Title,
		}).Info("✅ Track resolved by search")
		return stream, nil
	}

	return nil, fmt.Errorf("no candidate streamed: %w", lastErr)
}
