package resolver

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/youtube"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

const (
	// MaxQueueableDuration is the longest video accepted from a search, in seconds
	MaxQueueableDuration = 7200

	freeTextSearchLimit = 3
)

// Suitable reports whether a search result can be queued: not live and not longer than two hours
func Suitable(v youtube.Video) bool {
	return v.Duration > 0 && v.Duration <= MaxQueueableDuration
}

// TextResolver turns text into tracks through the video platform search
type TextResolver struct {
	platform VideoPlatform
	logger   *logrus.Entry
}

// NewTextResolver creates a search-based resolver
func NewTextResolver(platform VideoPlatform, log *logger.Logger) *TextResolver {
	return &TextResolver{
		platform: platform,
		logger:   log.Component("text_resolver"),
	}
}

// Resolve searches the cleaned query and returns the first suitable candidate
func (r *TextResolver) Resolve(ctx context.Context, query string, requester valueobjects.Requester) (*entities.Track, error) {
	cleaned := CleanQuery(query)

	videos, err := r.platform.Search(ctx, cleaned, freeTextSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrNoResults, cleaned, err)
	}

	video, ok := lo.Find(videos, Suitable)
	if !ok {
		r.logger.WithFields(logrus.Fields{
			"query":      cleaned,
			"candidates": len(videos),
		}).Warn("No suitable search result")
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoResults, cleaned)
	}

	r.logger.WithFields(logrus.Fields{
		"query": cleaned,
		"title": video.Title,
	}).Debug("Search resolved")
	return entities.NewTrack(video.Metadata(), video.URL, requester), nil
}

// ResolveStub finds a streaming-service stub on the video platform.
// The stub's own duration and thumbnail fill in what the quick search lacks.
func (r *TextResolver) ResolveStub(ctx context.Context, stub entities.PlaylistStub, requester valueobjects.Requester) (*entities.Track, error) {
	query := stub.SearchQuery()

	video, ok := r.platform.FirstResult(ctx, query)
	if !ok || video.URL == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoResults, query)
	}

	meta := video.Metadata()
	fallback := stub.Metadata()
	if meta.Duration == 0 {
		meta.Duration = fallback.Duration
	}
	if meta.Thumbnail == "" {
		meta.Thumbnail = fallback.Thumbnail
	}
	if meta.Title == "" {
		meta.Title = fallback.Title
	}

	return entities.NewTrack(meta, video.URL, requester), nil
}
