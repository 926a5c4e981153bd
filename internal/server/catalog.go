package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/go-chi/chi/v5"
)

type categoryRequest struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	OrderIndex *int   `json:"order_index"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.List(r.Context(), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(categories))
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c := &models.Category{Name: req.Name, Slug: req.Slug}
	if req.OrderIndex != nil {
		c.OrderIndex = *req.OrderIndex
	}
	if err := s.categories.Create(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.categories.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req categoryRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name != "" {
		c.Name = req.Name
	}
	if req.Slug != "" {
		c.Slug = req.Slug
	}
	if req.OrderIndex != nil {
		c.OrderIndex = *req.OrderIndex
	}

	if err := s.categories.Update(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.categories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type songRequest struct {
	Title           *string             `json:"title"`
	Key             *string             `json:"key"`
	AudioURL        *string             `json:"audio_url"`
	VideoURL        *string             `json:"video_url"`
	Duration        *int                `json:"duration"`
	CategoryID      *string             `json:"category_id"`
	LyricsStructure []models.LyricsPart `json:"lyrics_structure"`
	Lyrics          *string             `json:"lyrics"`
}

// apply copies the fields present in the request onto song.
func (req songRequest) apply(song *models.Song) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&song.Title, req.Title)
	set(&song.Key, req.Key)
	set(&song.AudioURL, req.AudioURL)
	set(&song.VideoURL, req.VideoURL)
	set(&song.CategoryID, req.CategoryID)
	if req.Lyrics != nil {
		song.Lyrics = *req.Lyrics
	}
	if req.Duration != nil {
		song.Duration = *req.Duration
	}
	if req.LyricsStructure != nil {
		song.LyricsStructure = models.NormalizeParts(req.LyricsStructure)
	}
}

// listSongs filters on ?category={slug} and searches titles with ?q=.
func (s *Server) listSongs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	songs, err := s.songs.List(r.Context(), map[string]any{
		"category": q.Get("category"),
		"query":    q.Get("q"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(songs))
}

func (s *Server) getSong(w http.ResponseWriter, r *http.Request) {
	song, err := s.songs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (s *Server) createSong(w http.ResponseWriter, r *http.Request) {
	var req songRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	song := &models.Song{}
	req.apply(song)
	if err := s.checkCategory(r, song.CategoryID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.songs.Create(r.Context(), song); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.songs.Get(r.Context(), song.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateSong(w http.ResponseWriter, r *http.Request) {
	song, err := s.songs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req songRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.apply(song)
	if err := s.checkCategory(r, song.CategoryID); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.songs.Update(r.Context(), song); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.songs.Get(r.Context(), song.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// checkCategory turns an unknown category reference into a client error.
func (s *Server) checkCategory(r *http.Request, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.categories.Get(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: unknown category %s", shared.ErrInvalidInput, id)
		}
		return err
	}
	return nil
}

// nonNil keeps empty lists as [] on the wire.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
