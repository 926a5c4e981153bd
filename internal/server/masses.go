package server

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/cantus/internal/auth"
	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/programs"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/go-chi/chi/v5"
)

type programResponse struct {
	Mass     models.Mass        `json:"mass"`
	Entries  []models.MassSong  `json:"entries"`
	Warnings []programs.Warning `json:"warnings"`
}

type massRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type publishRequest struct {
	Published *bool `json:"published"`
}

type entryRequest struct {
	SongID           string `json:"song_id"`
	LiturgicalMoment string `json:"liturgical_moment"`
	Parts            *[]int `json:"parts"`
}

type momentRequest struct {
	LiturgicalMoment string `json:"liturgical_moment"`
}

// anonymous reports whether the request carries no session. Anonymous callers only see published masses.
func anonymous(r *http.Request) bool {
	_, ok := auth.ProfileFromContext(r.Context())
	return !ok
}

func (s *Server) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// listMasses accepts ?from= and ?to= as YYYY-MM-DD.
func (s *Server) listMasses(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{"published": anonymous(r)}
	for _, key := range []string{"from", "to"} {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}
		d, err := shared.ParseDate(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		criteria[key] = d
	}

	masses, err := s.masses.List(r.Context(), criteria)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(masses))
}

func (s *Server) nextMass(w http.ResponseWriter, r *http.Request) {
	mass, err := s.masses.Next(r.Context(), s.today(), anonymous(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mass)
}

// loadVisible loads the program of the {id} mass, hiding unpublished masses from anonymous callers.
func (s *Server) loadVisible(r *http.Request) (*formatter.Program, error) {
	id := chi.URLParam(r, "id")
	p, err := s.programs.Load(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !p.Mass.IsPublished && anonymous(r) {
		return nil, fmt.Errorf("%w: mass %s", shared.ErrNotFound, id)
	}
	return p, nil
}

func (s *Server) getMass(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadVisible(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, programResponse{
		Mass:     p.Mass,
		Entries:  nonNil(p.Entries),
		Warnings: nonNil(programs.CheckSelection(*p)),
	})
}

func (s *Server) createMass(w http.ResponseWriter, r *http.Request) {
	var req massRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	mass := &models.Mass{Name: req.Name}
	if req.Date != "" {
		d, err := shared.ParseDate(req.Date)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		mass.Date = d
	}
	if p, ok := auth.ProfileFromContext(r.Context()); ok {
		mass.CreatedBy = p.ID
	}

	if err := s.masses.Create(r.Context(), mass); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mass)
}

// publishMass publishes the mass, or unpublishes it with {"published": false}.
func (s *Server) publishMass(w http.ResponseWriter, r *http.Request) {
	published := true
	if r.ContentLength != 0 {
		var req publishRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if req.Published != nil {
			published = *req.Published
		}
	}

	id := chi.URLParam(r, "id")
	if err := s.masses.SetPublished(r.Context(), id, published); err != nil {
		s.writeError(w, r, err)
		return
	}
	mass, err := s.masses.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mass)
}

// addEntry appends a song. Omitting parts selects every part, an empty list selects none.
func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.SongID == "" {
		s.writeError(w, r, fmt.Errorf("%w: song_id", shared.ErrMissingArgument))
		return
	}

	opts := programs.AddOptions{Moment: req.LiturgicalMoment}
	if req.Parts != nil {
		opts.Parts = *req.Parts
		if opts.Parts == nil {
			opts.Parts = []int{}
		}
	}

	entry, err := s.programs.AddSong(r.Context(), chi.URLParam(r, "id"), req.SongID, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) removeEntry(w http.ResponseWriter, r *http.Request) {
	err := s.programs.RemoveEntry(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "entryID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) togglePart(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: part index must be an integer", shared.ErrInvalidInput))
		return
	}

	entry, err := s.programs.TogglePart(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "entryID"), idx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) setMoment(w http.ResponseWriter, r *http.Request) {
	var req momentRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.programs.SetMoment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "entryID"), req.LiturgicalMoment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportMass renders the program and sends it as an attachment named after the mass.
func (s *Server) exportMass(w http.ResponseWriter, r *http.Request) {
	format, err := formatter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.loadVisible(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := formatter.Export(*p, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := formatter.ExportFilename(p.Mass, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, p.Mass.UpdatedAt, bytes.NewReader(data))
}
