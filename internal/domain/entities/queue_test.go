package entities_test

import (
	"testing"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/valueobjects"
)

func newTrack(title string) *entities.Track {
	return entities.NewTrack(
		valueobjects.TrackMetadata{Title: title, Duration: 180},
		"https://www.youtube.com/watch?v="+title,
		valueobjects.Requester{ID: "1", DisplayName: "User1"},
	)
}

func titles(tracks []*entities.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title()
	}
	return out
}

func TestQueueCreation(t *testing.T) {
	q := entities.NewQueue("123456789")

	if q.Len() != 0 {
		t.Error("New queue should be empty")
	}
	if q.Current() != nil {
		t.Error("Current track should be nil for new queue")
	}
	if q.State() != entities.QueueStateIdle {
		t.Errorf("Expected idle state, got %s", q.State())
	}
	if q.Volume() != entities.DefaultVolume {
		t.Errorf("Expected default volume, got %d", q.Volume())
	}
}

func TestQueueStateTransitions(t *testing.T) {
	q := entities.NewQueue("123456789")
	q.SetConnected(true)

	if q.State() != entities.QueueStateConnectedEmpty {
		t.Fatalf("Expected connected_empty, got %s", q.State())
	}

	a := newTrack("a")
	q.StartPlaying(a)
	if q.State() != entities.QueueStatePlaying {
		t.Fatalf("Expected playing, got %s", q.State())
	}

	if !q.SetPaused(true) {
		t.Error("Pause should succeed while playing")
	}
	if q.SetPaused(true) {
		t.Error("Second pause should be a no-op")
	}
	if q.State() != entities.QueueStatePaused {
		t.Fatalf("Expected paused, got %s", q.State())
	}

	q.FinishCurrent(a)
	if q.State() != entities.QueueStateConnectedEmpty {
		t.Errorf("Expected connected_empty after finishing, got %s", q.State())
	}
	if q.SetPaused(false) {
		t.Error("Resume should be a no-op when nothing plays")
	}
}

func TestQueueRemove(t *testing.T) {
	q := entities.NewQueue("123456789")
	q.Enqueue(newTrack("a"), newTrack("b"), newTrack("c"))

	removed := q.Remove(1)
	if removed == nil || removed.Title() != "a" {
		t.Fatalf("Expected to remove a, got %v", removed)
	}

	got := titles(q.Pending())
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("Expected [b c], got %v", got)
	}
}

func TestQueueRemoveOutOfRange(t *testing.T) {
	q := entities.NewQueue("123456789")
	q.Enqueue(newTrack("a"), newTrack("b"))

	for _, pos := range []int{-1, 0, 3, 100} {
		if removed := q.Remove(pos); removed != nil {
			t.Errorf("Remove(%d) should return nil, got %s", pos, removed.Title())
		}
	}

	if got := titles(q.Pending()); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Pending list should be unchanged, got %v", got)
	}
}

func TestQueueShuffle(t *testing.T) {
	q := entities.NewQueue("123456789")

	q.Enqueue(newTrack("only"))
	if q.Shuffle() {
		t.Error("Shuffle with a single track should return false")
	}

	q.Enqueue(newTrack("b"), newTrack("c"), newTrack("d"), newTrack("e"))
	before := q.Pending()

	if !q.Shuffle() {
		t.Fatal("Shuffle should succeed with 5 tracks")
	}

	after := q.Pending()
	if len(after) != len(before) {
		t.Fatalf("Shuffle changed the length: %d -> %d", len(before), len(after))
	}

	seen := make(map[string]int)
	for _, tr := range before {
		seen[tr.ID]++
	}
	for _, tr := range after {
		seen[tr.ID]--
	}
	for id, n := range seen {
		if n != 0 {
			t.Errorf("Track %s count changed by %d", id, n)
		}
	}
}

func TestQueueLoopModes(t *testing.T) {
	tests := []struct {
		mode     valueobjects.LoopMode
		expected []string
		history  int
	}{
		{valueobjects.LoopModeNone, []string{"b", "c"}, 1},
		{valueobjects.LoopModeSong, []string{"a", "b", "c"}, 0},
		{valueobjects.LoopModeQueue, []string{"b", "c", "a"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			q := entities.NewQueue("123456789")
			a := newTrack("a")
			q.Enqueue(newTrack("b"), newTrack("c"))
			if err := q.SetLoopMode(tt.mode); err != nil {
				t.Fatal(err)
			}

			q.StartPlaying(a)
			finished := q.FinishCurrent(a)
			if finished != a {
				t.Fatal("FinishCurrent should return the current track")
			}

			got := titles(q.Pending())
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Fatalf("Expected %v, got %v", tt.expected, got)
				}
			}

			if tt.mode == valueobjects.LoopModeSong && q.Pending()[0].Reference() != a.Reference() {
				t.Error("Song loop should re-insert the identical track")
			}
			if len(q.History()) != tt.history {
				t.Errorf("Expected history length %d, got %d", tt.history, len(q.History()))
			}
		})
	}
}

func TestQueueHistoryBounded(t *testing.T) {
	q := entities.NewQueue("123456789")

	for i := 0; i < entities.MaxHistory+5; i++ {
		tr := newTrack(string(rune('a' + i)))
		q.StartPlaying(tr)
		q.FinishCurrent(tr)
	}

	history := q.History()
	if len(history) != entities.MaxHistory {
		t.Fatalf("Expected %d history entries, got %d", entities.MaxHistory, len(history))
	}
	if history[0].Title() != "f" {
		t.Errorf("Oldest entries should be dropped first, got %s", history[0].Title())
	}
}

func TestFinishCurrentIgnoresReplacedTrack(t *testing.T) {
	q := entities.NewQueue("123456789")
	old, next := newTrack("old"), newTrack("next")

	q.StartPlaying(old)
	q.Reset()
	q.StartPlaying(next)

	if finished := q.FinishCurrent(old); finished != nil {
		t.Fatalf("Finishing a replaced track should be a no-op, got %s", finished.Title())
	}
	if q.Current() != next || !q.IsPlaying() {
		t.Error("The replacing track must keep playing")
	}
	if len(q.History()) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(q.History()))
	}
	if q.FinishCurrent(next) != next {
		t.Error("Finishing the current track should return it")
	}
}

func TestQueueVolumeBounds(t *testing.T) {
	q := entities.NewQueue("123456789")

	if err := q.SetVolume(201); err == nil {
		t.Error("Volume above 200 should be rejected")
	}
	if err := q.SetVolume(-1); err == nil {
		t.Error("Negative volume should be rejected")
	}
	if err := q.SetVolume(150); err != nil || q.Volume() != 150 {
		t.Errorf("Expected volume 150, got %d (%v)", q.Volume(), err)
	}
}

func TestQueueResetAndClear(t *testing.T) {
	q := entities.NewQueue("123456789")
	q.Enqueue(newTrack("a"), newTrack("b"))
	q.StartPlaying(newTrack("c"))

	if n := q.Clear(); n != 2 {
		t.Errorf("Clear should report 2 removed, got %d", n)
	}
	if q.Current() == nil {
		t.Error("Clear must keep the current track")
	}

	q.Enqueue(newTrack("d"))
	q.Reset()
	if q.Current() != nil || q.Len() != 0 || q.IsPlaying() {
		t.Error("Reset should drop current, pending and playing state")
	}
}

func TestTrackCorrectKeepsMissingFields(t *testing.T) {
	tr := newTrack("old")
	tr.Correct("https://www.youtube.com/watch?v=new", valueobjects.TrackMetadata{Title: "New"})

	if tr.Title() != "New" || tr.Reference() != "https://www.youtube.com/watch?v=new" {
		t.Errorf("Unexpected correction result: %s %s", tr.Title(), tr.Reference())
	}
	if tr.Duration() != 180 {
		t.Errorf("Duration should be kept, got %d", tr.Duration())
	}
}

func TestPlaylistStubSearchQuery(t *testing.T) {
	stub := entities.PlaylistStub{Name: "Get Lucky", Artist: "Daft Punk", DurationMs: 248000}

	if stub.SearchQuery() != "Get Lucky Daft Punk" {
		t.Errorf("Unexpected search query %q", stub.SearchQuery())
	}
	if stub.Metadata().Duration != 248 {
		t.Errorf("Expected 248 seconds, got %d", stub.Metadata().Duration)
	}
}
