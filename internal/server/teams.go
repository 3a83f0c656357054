package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/teampulse/teampulse/internal/cycle"
	"github.com/teampulse/teampulse/internal/db"
	"github.com/teampulse/teampulse/internal/timeutil"
)

// validTarget reports whether v is usable as a target value. Zero is
// allowed; percentage math treats it as a defined 0% result.
func validTarget(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// parseInstant parses an optional RFC3339 timestamp, defaulting to
// fallback when empty.
func parseInstant(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	at, err := timeutil.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return at.UTC(), nil
}

func (s *Server) handleCreateTeam(
	w http.ResponseWriter, r *http.Request,
) {
	var req struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Target    float64 `json:"target"`
		CreatedAt string  `json:"created_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if !validTarget(req.Target) {
		writeError(w, http.StatusBadRequest,
			"target must be a finite non-negative number")
		return
	}
	created, err := parseInstant(req.CreatedAt, s.now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid created_at timestamp")
		return
	}

	if _, err := s.db.GetTeam(r.Context(), req.ID); err == nil {
		writeError(w, http.StatusConflict, "team already exists")
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The first cycle window is anchored to the creation instant.
	c := cycle.Resolve(created, created)
	team := db.Team{
		ID:          req.ID,
		Name:        req.Name,
		CreatedAt:   created,
		CycleStart:  c.Start,
		CycleEnd:    c.End,
		TargetValue: req.Target,
	}
	if err := s.db.CreateTeam(r.Context(), team); err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The creation target seeds the snapshot log so historical
	// percentages are reconstructable from day one.
	err = s.db.AppendSnapshot(r.Context(), db.Snapshot{
		TeamID: req.ID, At: created, Value: req.Target,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.db.GetTeam(r.Context(), req.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetTeam(
	w http.ResponseWriter, r *http.Request,
) {
	team, err := s.db.GetTeam(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) handleSetTarget(
	w http.ResponseWriter, r *http.Request,
) {
	teamID := r.PathValue("id")

	var req struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !validTarget(req.Value) {
		writeError(w, http.StatusBadRequest,
			"value must be a finite non-negative number")
		return
	}

	if err := s.db.UpdateTargetValue(r.Context(), teamID, req.Value); err != nil {
		s.writeLookupError(w, err)
		return
	}
	err := s.db.AppendSnapshot(r.Context(), db.Snapshot{
		TeamID: teamID, At: s.now().UTC(), Value: req.Value,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	team, err := s.db.GetTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) handleSetMemberTarget(
	w http.ResponseWriter, r *http.Request,
) {
	teamID := r.PathValue("id")
	userID := r.PathValue("userID")

	var req struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !validTarget(req.Value) {
		writeError(w, http.StatusBadRequest,
			"value must be a finite non-negative number")
		return
	}

	if _, err := s.db.GetTeam(r.Context(), teamID); err != nil {
		s.writeLookupError(w, err)
		return
	}
	err := s.db.AppendSnapshot(r.Context(), db.Snapshot{
		TeamID: teamID, UserID: userID, At: s.now().UTC(), Value: req.Value,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"team_id": teamID,
		"user_id": userID,
		"value":   req.Value,
	})
}

func (s *Server) handleLogActivity(
	w http.ResponseWriter, r *http.Request,
) {
	teamID := r.PathValue("id")

	var req struct {
		User      string  `json:"user"`
		Points    float64 `json:"points"`
		Timestamp string  `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.User == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}
	if req.Points < 0 || math.IsNaN(req.Points) || math.IsInf(req.Points, 0) {
		writeError(w, http.StatusBadRequest,
			"points must be a finite non-negative number")
		return
	}
	at, err := parseInstant(req.Timestamp, s.now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timestamp")
		return
	}

	if _, err := s.db.GetTeam(r.Context(), teamID); err != nil {
		s.writeLookupError(w, err)
		return
	}
	err = s.db.InsertActivity(r.Context(), db.Activity{
		TeamID: teamID, UserID: req.User, Points: req.Points, At: at,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// writeLookupError maps store errors from lookups: unknown ids are
// 404, cancellations are left for the timeout middleware, everything
// else is a 500.
func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if handleContextError(w, err) {
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
