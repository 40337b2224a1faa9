package core

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cropsense/internal/types"
)

// dailyTips rotates by day of year in the recommendations response. Purely
// presentational; no tip is stored or alerted on.
var dailyTips = []string{
	"Water early in the morning to cut evaporation losses.",
	"Scout field edges first when checking for pest pressure.",
	"Mulch exposed beds ahead of forecast heat to hold soil moisture.",
	"Check drainage channels before heavy rainfall arrives.",
	"Rotate crop families between beds each season to break disease cycles.",
	"Calibrate sprayers before the spraying season starts.",
	"Harvest leafy greens in the cool hours to extend shelf life.",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, APIResponse{
		Data: map[string]string{
			"status":      "ok",
			"service":     s.Config.Service,
			"environment": s.Config.Environment,
		},
	})
}

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")
	days, err := queryInt(r, "days", 14)
	if err != nil {
		Error(w, r, err)
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	patterns, err := s.Patterns.ListByLocation(r.Context(), location, since, 100)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{
		Data: patterns,
		Meta: map[string]any{"location": location, "window_days": days},
	})
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")
	days, err := queryInt(r, "days", 7)
	if err != nil {
		Error(w, r, err)
		return
	}

	from := time.Now().UTC().Truncate(24 * time.Hour)
	predictions, err := s.Predictions.ListByLocation(r.Context(), location, from, days)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{
		Data: predictions,
		Meta: map[string]any{"location": location, "days": days},
	})
}

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")
	includeRead := r.URL.Query().Get("include_read") == "true"

	recs, err := s.Recommendations.ListByLocation(r.Context(), location, includeRead, 100)
	if err != nil {
		Error(w, r, err)
		return
	}

	now := time.Now().UTC()
	JSON(w, r, http.StatusOK, APIResponse{
		Data: recs,
		Meta: map[string]any{
			"location":  location,
			"daily_tip": dailyTips[now.YearDay()%len(dailyTips)],
		},
	})
}

type markReadRequest struct {
	IsRead bool `json:"is_read"`
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req markReadRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}

	if err := s.Recommendations.MarkRead(r.Context(), id, req.IsRead); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{
		Data: map[string]any{"id": id, "is_read": req.IsRead},
	})
}

// queryInt parses a positive integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, types.NewAppError(types.ErrCodeValidationInvalidParam,
			name+" must be a positive integer", err)
	}
	return v, nil
}
