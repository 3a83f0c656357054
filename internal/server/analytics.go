package server

import (
	"errors"
	"net/http"

	"github.com/teampulse/teampulse/internal/analytics"
)

func (s *Server) handleOverview(
	w http.ResponseWriter, r *http.Request,
) {
	overview, err := s.engine.Overview(
		r.Context(), r.PathValue("id"), s.now().UTC(),
	)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleMemberOverview(
	w http.ResponseWriter, r *http.Request,
) {
	overview, err := s.engine.UserOverview(
		r.Context(), r.PathValue("id"), r.PathValue("userID"), s.now().UTC(),
	)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleProgress(
	w http.ResponseWriter, r *http.Request,
) {
	totals, err := s.engine.MemberProgress(
		r.Context(), r.PathValue("id"), s.now().UTC(),
	)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"team_id": r.PathValue("id"),
		"members": totals,
	})
}

func (s *Server) handleTimeline(
	w http.ResponseWriter, r *http.Request,
) {
	s.serveTimeline(w, r, r.PathValue("id"), "")
}

func (s *Server) handleMemberTimeline(
	w http.ResponseWriter, r *http.Request,
) {
	s.serveTimeline(w, r, r.PathValue("id"), r.PathValue("userID"))
}

// serveTimeline validates the range before touching the store, so a
// bad range on an unknown team is still a 400.
func (s *Server) serveTimeline(
	w http.ResponseWriter, r *http.Request, teamID, userID string,
) {
	rng, err := analytics.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest,
			"range must be one of 24H, 1W, 1M, 1Y")
		return
	}

	series, err := s.engine.Timeline(r.Context(), teamID, userID, rng, s.now().UTC())
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleHistory(
	w http.ResponseWriter, r *http.Request,
) {
	teamID := r.PathValue("id")
	if _, err := s.db.GetTeam(r.Context(), teamID); err != nil {
		s.writeLookupError(w, err)
		return
	}

	entries, err := s.db.ListHistory(r.Context(), teamID)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"team_id": teamID,
		"cycles":  entries,
	})
}
