// Package player holds rehearsal playback state.
//
// A [Session] is owned by whoever creates it and passed to the views that need it. It only tracks which
// song is current and whether it is playing. Audio output is left to the browser or external player.
package player

import (
	"slices"
	"sync"

	"github.com/desertthunder/cantus/internal/models"
)

// Session is a queue of songs with a cursor. It is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	queue   []*models.Song
	current int
	playing bool
}

// NewSession creates a session over the given queue with nothing selected.
func NewSession(queue ...*models.Song) *Session {
	s := &Session{current: -1}
	for _, song := range queue {
		if song != nil {
			s.queue = append(s.queue, song)
		}
	}
	return s
}

// Current returns the selected song, or nil.
func (s *Session) Current() *models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() *models.Song {
	if s.current < 0 || s.current >= len(s.queue) {
		return nil
	}
	return s.queue[s.current]
}

// Playing reports whether the current song is playing.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Queue returns a copy of the queue.
func (s *Session) Queue() []*models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queue)
}

// Enqueue appends songs to the queue. Nil songs are ignored.
func (s *Session) Enqueue(songs ...*models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, song := range songs {
		if song != nil {
			s.queue = append(s.queue, song)
		}
	}
}

// Remove drops every queued occurrence of songID. Removing the current song stops playback.
func (s *Session) Remove(songID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.currentLocked()
	s.queue = slices.DeleteFunc(s.queue, func(song *models.Song) bool { return song.ID == songID })

	switch {
	case current == nil:
		s.current = -1
	case current.ID == songID:
		s.current = -1
		s.playing = false
	default:
		s.current = slices.Index(s.queue, current)
	}
}

// SetCurrent selects song, enqueuing it when absent. Playback follows: a song plays, nil stops.
func (s *Session) SetCurrent(song *models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if song == nil {
		s.current = -1
		s.playing = false
		return
	}

	idx := slices.IndexFunc(s.queue, func(q *models.Song) bool { return q.ID == song.ID })
	if idx < 0 {
		s.queue = append(s.queue, song)
		idx = len(s.queue) - 1
	}
	s.current = idx
	s.playing = true
}

// SetPlaying sets the play flag. It stays false while nothing is selected.
func (s *Session) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = playing && s.currentLocked() != nil
}

// Next moves to the following song and returns it. At the end of the queue it stays put.
func (s *Session) Next() *models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current+1 < len(s.queue) {
		s.current++
	}
	return s.currentLocked()
}

// Previous moves to the preceding song and returns it. At the start of the queue it stays put.
func (s *Session) Previous() *models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current > 0 {
		s.current--
	}
	return s.currentLocked()
}
