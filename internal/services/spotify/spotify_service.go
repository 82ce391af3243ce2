package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

var (
	// ErrMissingCredentials is returned when client id or secret are empty
	ErrMissingCredentials = errors.New("spotify credentials not provided")
	// ErrUnsupportedCollection is returned for collections other than playlists and albums
	ErrUnsupportedCollection = errors.New("unsupported spotify collection")
)

const requestTimeout = 10 * time.Second

// Service reads track, playlist and album metadata. Spotify exposes no audio,
// so every result is a stub to be found on the video platform.
type Service struct {
	client  *spotify.Client
	limiter *rate.Limiter
	logger  *logrus.Entry
}

// NewService creates a Spotify service authenticated with client credentials
func NewService(ctx context.Context, clientID, clientSecret string, rateLimitDelay time.Duration, log *logger.Logger) (*Service, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// Fail fast on bad credentials
	tokenCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if _, err := cfg.Token(tokenCtx); err != nil {
		return nil, fmt.Errorf("failed to get Spotify access token: %w", err)
	}

	s := newService(spotify.New(cfg.Client(context.Background())), rateLimitDelay, log)
	log.Info("Spotify service initialized")
	return s, nil
}

func newService(client *spotify.Client, rateLimitDelay time.Duration, log *logger.Logger) *Service {
	limit := rate.Inf
	if rateLimitDelay > 0 {
		limit = rate.Every(rateLimitDelay)
	}
	return &Service{
		client:  client,
		limiter: rate.NewLimiter(limit, 3),
		logger:  log.Component("spotify"),
	}
}

// NewServiceWithHTTPClient builds a service over a preconfigured client, e.g. a test server
func NewServiceWithHTTPClient(httpClient *http.Client, baseURL string, log *logger.Logger) *Service {
	opts := []spotify.ClientOption{}
	if baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(baseURL))
	}
	return newService(spotify.New(httpClient, opts...), 0, log)
}

// GetTrack fetches one track as a stub
func (s *Service) GetTrack(ctx context.Context, trackID string) (entities.PlaylistStub, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return entities.PlaylistStub{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	track, err := s.client.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return entities.PlaylistStub{}, fmt.Errorf("spotify track %s: %w", trackID, err)
	}

	stub := fullTrackStub(track)
	s.logger.WithFields(logrus.Fields{
		"track":  stub.Name,
		"artist": stub.Artist,
	}).Debug("Spotify track fetched")
	return stub, nil
}

// GetPlaylistStubs lists a playlist or album, capped at max entries (0 = no cap)
func (s *Service) GetPlaylistStubs(ctx context.Context, collection, id string, max int) ([]entities.PlaylistStub, error) {
	var (
		stubs []entities.PlaylistStub
		err   error
	)

	switch collection {
	case "playlist", "":
		stubs, err = s.playlistStubs(ctx, spotify.ID(id), max)
	case "album":
		stubs, err = s.albumStubs(ctx, spotify.ID(id), max)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCollection, collection)
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"collection": collection,
		"id":         id,
		"count":      len(stubs),
	}).Info("📜 Spotify collection listed")
	return stubs, nil
}

func (s *Service) playlistStubs(ctx context.Context, id spotify.ID, max int) ([]entities.PlaylistStub, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	page, err := s.client.GetPlaylistItems(ctx, id, spotify.Limit(100))
	if err != nil {
		return nil, fmt.Errorf("spotify playlist %s: %w", id, err)
	}

	var stubs []entities.PlaylistStub
	for {
		for _, item := range page.Items {
			// Podcast episodes have no track
			if item.Track.Track == nil {
				continue
			}
			stubs = append(stubs, fullTrackStub(item.Track.Track))
			if max > 0 && len(stubs) >= max {
				return stubs, nil
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		err = s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			return stubs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("spotify playlist %s paging: %w", id, err)
		}
	}
}

func (s *Service) albumStubs(ctx context.Context, id spotify.ID, max int) ([]entities.PlaylistStub, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	album, err := s.client.GetAlbum(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("spotify album %s: %w", id, err)
	}

	thumbnail := ""
	if len(album.Images) > 0 {
		thumbnail = album.Images[0].URL
	}

	page := &album.Tracks
	var stubs []entities.PlaylistStub
	for {
		for _, t := range page.Tracks {
			stub := entities.PlaylistStub{
				Name:       t.Name,
				DurationMs: int(t.Duration),
				Thumbnail:  thumbnail,
			}
			if len(t.Artists) > 0 {
				stub.Artist = t.Artists[0].Name
			}
			stubs = append(stubs, stub)
			if max > 0 && len(stubs) >= max {
				return stubs, nil
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		err = s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			return stubs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("spotify album %s paging: %w", id, err)
		}
	}
}

func fullTrackStub(t *spotify.FullTrack) entities.PlaylistStub {
	stub := entities.PlaylistStub{
		Name:       t.Name,
		DurationMs: int(t.Duration),
	}
	if len(t.Artists) > 0 {
		stub.Artist = t.Artists[0].Name
	}
	if len(t.Album.Images) > 0 {
		stub.Thumbnail = t.Album.Images[0].URL
	}
	return stub
}
