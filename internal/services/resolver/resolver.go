package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/internal/config"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/youtube"
	"github.com/vuongmanhnghia/guild-music-bot/internal/validation"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

// Placeholder metadata for a video whose info could not be fetched
const unknownVideoTitle = "YouTube video"

// VideoPlatform is the subset of the video platform adapter the resolver needs
type VideoPlatform interface {
	Search(ctx context.Context, query string, limit int) ([]youtube.Video, error)
	FirstResult(ctx context.Context, query string) (youtube.Video, bool)
	BasicInfo(ctx context.Context, videoURL string) (youtube.Video, error)
	ListPlaylistWithDeadline(ctx context.Context, playlistURL, playlistID string, max int) ([]youtube.Video, error)
}

// StreamingService lists metadata from the streaming service
type StreamingService interface {
	GetTrack(ctx context.Context, trackID string) (entities.PlaylistStub, error)
	GetPlaylistStubs(ctx context.Context, collection, id string, max int) ([]entities.PlaylistStub, error)
}

// PlaylistBuffer resolves the head of a large playlist now and keeps the rest for later
type PlaylistBuffer interface {
	Prime(ctx context.Context, guildID string, requester valueobjects.Requester, stubs []entities.PlaylistStub, cfg config.MusicConfig) ([]*entities.Track, error)
}

// Resolver maps a user query to playable tracks
type Resolver struct {
	videos    VideoPlatform
	streaming StreamingService
	buffer    PlaylistBuffer
	text      *TextResolver
	music     config.MusicConfig
	logger    *logrus.Entry
}

// New creates a resolver. streaming may be nil when no credentials are configured.
func New(videos VideoPlatform, streaming StreamingService, text *TextResolver, music config.MusicConfig, log *logger.Logger) *Resolver {
	return &Resolver{
		videos:    videos,
		streaming: streaming,
		text:      text,
		music:     music,
		logger:    log.Component("resolver"),
	}
}

// SetBuffer wires the playlist buffer. The buffer depends on the queue manager,
// which is built after the resolver.
func (r *Resolver) SetBuffer(buffer PlaylistBuffer) {
	r.buffer = buffer
}

// Text returns the search-based resolver
func (r *Resolver) Text() *TextResolver {
	return r.text
}

// Resolve classifies query and resolves it to at least one track, or fails with ErrNoResults
func (r *Resolver) Resolve(ctx context.Context, guildID, query string, requester valueobjects.Requester) ([]*entities.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrInvalidInput
	}

	src := validation.Classify(query)
	log := r.logger.WithFields(logrus.Fields{
		"guild": guildID,
		"kind":  src.Kind,
	})
	log.WithField("query", query).Info("🔍 Resolving query")

	var (
		tracks []*entities.Track
		err    error
	)

	switch src.Kind {
	case valueobjects.SourceKindStreamingTrack:
		tracks, err = r.resolveStreamingTrack(ctx, src, requester)
	case valueobjects.SourceKindStreamingPlaylist:
		tracks, err = r.resolveStreamingPlaylist(ctx, guildID, src, requester)
	case valueobjects.SourceKindVideoPlaylist:
		tracks, err = r.resolveVideoPlaylist(ctx, query, src, requester)
	case valueobjects.SourceKindVideoSingle:
		tracks = []*entities.Track{r.resolveVideo(ctx, query, src, requester)}
	default:
		var track *entities.Track
		track, err = r.text.Resolve(ctx, query, requester)
		if track != nil {
			tracks = []*entities.Track{track}
		}
	}

	if err != nil {
		log.WithError(err).Warn("Resolution failed")
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoResults, query)
	}

	log.WithField("count", len(tracks)).Info("✅ Query resolved")
	return tracks, nil
}

func (r *Resolver) resolveStreamingTrack(ctx context.Context, src valueobjects.Source, requester valueobjects.Requester) ([]*entities.Track, error) {
	if r.streaming == nil {
		return nil, fmt.Errorf("%w: spotify", apperrors.ErrServiceUnavailable)
	}

	stub, err := r.streaming.GetTrack(ctx, src.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNoResults, err)
	}

	track, err := r.text.ResolveStub(ctx, stub, requester)
	if err != nil {
		return nil, err
	}
	return []*entities.Track{track}, nil
}

func (r *Resolver) resolveStreamingPlaylist(ctx context.Context, guildID string, src valueobjects.Source, requester valueobjects.Requester) ([]*entities.Track, error) {
	if r.streaming == nil {
		return nil, fmt.Errorf("%w: spotify", apperrors.ErrServiceUnavailable)
	}
	if r.buffer == nil {
		return nil, fmt.Errorf("%w: playlist buffer", apperrors.ErrServiceUnavailable)
	}

	stubs, err := r.streaming.GetPlaylistStubs(ctx, src.Collection, src.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNoResults, err)
	}
	if len(stubs) == 0 {
		return nil, fmt.Errorf("%w: empty %s", apperrors.ErrNoResults, src.Collection)
	}

	cfg := config.OptimalConfig(len(stubs))
	cfg.BufferSize = r.music.BufferSize
	if len(stubs) > cfg.MaxPlaylistTracks {
		stubs = stubs[:cfg.MaxPlaylistTracks]
	}

	r.logger.WithFields(logrus.Fields{
		"guild":  guildID,
		"tracks": len(stubs),
		"buffer": cfg.BufferSize,
	}).Info("📜 Priming playlist buffer")
	return r.buffer.Prime(ctx, guildID, requester, stubs, cfg)
}

func (r *Resolver) resolveVideoPlaylist(ctx context.Context, query string, src valueobjects.Source, requester valueobjects.Requester) ([]*entities.Track, error) {
	videos, err := r.videos.ListPlaylistWithDeadline(ctx, query, src.ID, r.music.MaxPlaylistTracks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNoResults, err)
	}

	return lo.FilterMap(videos, func(v youtube.Video, _ int) (*entities.Track, bool) {
		if v.URL == "" {
			return nil, false
		}
		return entities.NewTrack(v.Metadata(), v.URL, requester), true
	}), nil
}

// resolveVideo never fails: the reference may still stream when the metadata lookup did not work
func (r *Resolver) resolveVideo(ctx context.Context, query string, src valueobjects.Source, requester valueobjects.Requester) *entities.Track {
	video, err := r.videos.BasicInfo(ctx, src.URL)
	if err != nil {
		r.logger.WithError(err).WithField("url", src.URL).Warn("Video info unavailable, queueing raw reference")
		return entities.NewTrack(valueobjects.TrackMetadata{Title: unknownVideoTitle}, query, requester)
	}

	reference := video.URL
	if reference == "" {
		reference = query
	}
	return entities.NewTrack(video.Metadata(), reference, requester)
}

// MapStreamingTrack finds the video platform reference of a streaming-service track URL
func (r *Resolver) MapStreamingTrack(ctx context.Context, reference string) (youtube.Video, error) {
	src := validation.Classify(reference)
	if src.Kind != valueobjects.SourceKindStreamingTrack {
		return youtube.Video{}, fmt.Errorf("%w: not a streaming track: %s", apperrors.ErrInvalidURL, reference)
	}
	if r.streaming == nil {
		return youtube.Video{}, fmt.Errorf("%w: spotify", apperrors.ErrServiceUnavailable)
	}

	stub, err := r.streaming.GetTrack(ctx, src.ID)
	if err != nil {
		return youtube.Video{}, err
	}

	video, ok := r.videos.FirstResult(ctx, stub.SearchQuery())
	if !ok || video.URL == "" {
		return youtube.Video{}, fmt.Errorf("%w: %s", apperrors.ErrNoResults, stub.SearchQuery())
	}
	if video.Duration == 0 {
		video.Duration = stub.DurationMs / 1000
	}
	return video, nil
}
