package music

import "github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"

// Notifier reports playback events to the text channel bound to a queue.
// channelID is empty when the queue has no bound channel.
type Notifier interface {
	NowPlaying(channelID string, track *entities.Track)
	TrackFailed(channelID string, track *entities.Track, err error)
	ConnectionLost(channelID string)
}

type nopNotifier struct{}

func (nopNotifier) NowPlaying(string, *entities.Track) {}
func (nopNotifier) TrackFailed(string, *entities.Track, error) {}
func (nopNotifier) ConnectionLost(string) {}
