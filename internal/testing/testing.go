// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/cantus/internal/models"
)

// Alleluia is a two-part song: a refrain "A\nB" and verse 1 "C", in Ré mineur.
func Alleluia() *models.Song {
	return &models.Song{
		ID:    "song-alleluia",
		Title: "Alléluia",
		Key:   "Ré mineur",
		LyricsStructure: []models.LyricsPart{
			{Type: models.PartChorus, Content: "A\nB"},
			{Type: models.PartVerse, Label: "1", Content: "C"},
		},
	}
}

// Sunday is an unpublished mass dated 2024-12-15.
func Sunday() models.Mass {
	return models.Mass{
		ID:   "mass-sunday",
		Name: "Messe du dimanche",
		Date: time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC),
	}
}

// FavoriteStore is an in-memory favorites store whose writes can be made to fail.
type FavoriteStore struct {
	mu        sync.Mutex
	rows      map[[2]string]bool
	FailWrite error
	FailRead  error
	Writes    int
}

func NewFavoriteStore() *FavoriteStore {
	return &FavoriteStore{rows: map[[2]string]bool{}}
}

func (s *FavoriteStore) Exists(ctx context.Context, userID, songID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRead != nil {
		return false, s.FailRead
	}
	return s.rows[[2]string{userID, songID}], nil
}

func (s *FavoriteStore) Add(ctx context.Context, userID, songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.FailWrite != nil {
		return s.FailWrite
	}
	s.rows[[2]string{userID, songID}] = true
	return nil
}

func (s *FavoriteStore) Remove(ctx context.Context, userID, songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.FailWrite != nil {
		return s.FailWrite
	}
	delete(s.rows, [2]string{userID, songID})
	return nil
}

// Len is the number of stored favorites.
func (s *FavoriteStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
