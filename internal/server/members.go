package server

import (
	"net/http"

	"github.com/desertthunder/cantus/internal/auth"
	"github.com/desertthunder/cantus/internal/favorites"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/go-chi/chi/v5"
)

type profileRequest struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type favoriteResponse struct {
	SongID   string `json:"song_id"`
	Favorite bool   `json:"favorite"`
}

// current returns the profile set by RequireAuth.
func current(r *http.Request) *models.Profile {
	p, _ := auth.ProfileFromContext(r.Context())
	return p
}

func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, current(r))
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	me := current(r)
	if err := s.profiles.UpdateDetails(r.Context(), me.ID, req.FullName, req.AvatarURL); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.profiles.Get(r.Context(), me.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.profiles.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(profiles))
}

func (s *Server) setMemberRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.profiles.UpdateRole(r.Context(), id, role); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.profiles.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("role changed", "member", updated.Email, "role", role, "by", current(r).Email)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	songs, err := s.favorites.ListSongs(r.Context(), current(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(songs))
}

func (s *Server) getFavorite(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "id")
	exists, err := s.favorites.Exists(r.Context(), current(r).ID, songID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{SongID: songID, Favorite: exists})
}

func (s *Server) putFavorite(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, true)
}

func (s *Server) deleteFavorite(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, false)
}

// setFavorite is idempotent in both directions.
func (s *Server) setFavorite(w http.ResponseWriter, r *http.Request, favorite bool) {
	songID := chi.URLParam(r, "id")
	if _, err := s.songs.Get(r.Context(), songID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := favorites.Set(r.Context(), s.favorites, current(r).ID, songID, favorite); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{SongID: songID, Favorite: favorite})
}
