package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rsilvagit/tutorfind/internal/filter"
	"github.com/rsilvagit/tutorfind/internal/metrics"
	"github.com/rsilvagit/tutorfind/internal/model"
)

// ListingsResponse is the body of the listing and history routes.
type ListingsResponse struct {
	Data  []model.Listing `json:"data"`
	Total int             `json:"total"`
}

// listListings handles GET /api/v1/listings.
func (s *Server) listListings(w http.ResponseWriter, r *http.Request) {
	user, hasUser, err := userFromRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid X-User-ID header format")
		return
	}

	records := slices.Clone(s.catalog)
	personal := hasUser && s.prefs != nil
	if personal {
		if err := s.prefs.Apply(r.Context(), user.String(), records); err != nil {
			s.log.Error("loading user preferences failed", zap.Stringer("user_id", user), zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "Failed to load user preferences")
			return
		}
	}

	c := filter.FromValues(r.URL.Query(), s.nearLocation)
	out, err := filter.Apply(records, &c)
	if err != nil {
		s.log.Error("filter pass failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Failed to filter listings")
		return
	}
	metrics.FilterPasses.WithLabelValues("http").Inc()
	metrics.FilterMatches.WithLabelValues("http").Observe(float64(len(out)))

	if c.Query != "" {
		marked := filter.RecordSearchHits(records, c.Query)
		metrics.SearchHitsRecorded.Add(float64(len(marked)))
		if personal && len(marked) > 0 {
			if err := s.prefs.RecordHits(r.Context(), user.String(), marked); err != nil {
				s.log.Warn("persisting search history failed", zap.Stringer("user_id", user), zap.Error(err))
			}
		}
	}

	respondWithJSON(w, http.StatusOK, ListingsResponse{Data: nonNil(out), Total: len(out)})
}

// addFavorite handles PUT /api/v1/favorites/{id}.
func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	user, key, ok := s.favoriteTarget(w, r)
	if !ok {
		return
	}
	if err := s.prefs.AddFavorite(r.Context(), user.String(), key); err != nil {
		s.log.Error("adding favorite failed", zap.Stringer("user_id", user), zap.String("listing", key), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Failed to add favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// removeFavorite handles DELETE /api/v1/favorites/{id}.
func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	user, key, ok := s.favoriteTarget(w, r)
	if !ok {
		return
	}
	if err := s.prefs.RemoveFavorite(r.Context(), user.String(), key); err != nil {
		s.log.Error("removing favorite failed", zap.Stringer("user_id", user), zap.String("listing", key), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Failed to remove favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) favoriteTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return uuid.Nil, "", false
	}
	key := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "id")))
	if !s.inCatalog(key) {
		writeJSONError(w, http.StatusNotFound, "Listing not found")
		return uuid.Nil, "", false
	}
	return user, key, true
}

// getHistory handles GET /api/v1/history and returns the listings the user
// has found through text searches.
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}

	records := slices.Clone(s.catalog)
	if err := s.prefs.Apply(r.Context(), user.String(), records); err != nil {
		s.log.Error("loading user preferences failed", zap.Stringer("user_id", user), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Failed to load search history")
		return
	}

	c := filter.Defaults()
	c.SearchHistoryOnly = true
	out, err := filter.Apply(records, &c)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to filter listings")
		return
	}
	respondWithJSON(w, http.StatusOK, ListingsResponse{Data: nonNil(out), Total: len(out)})
}

// clearHistory handles DELETE /api/v1/history.
func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Invalid user ID in context")
		return
	}
	if err := s.prefs.ClearHistory(r.Context(), user.String()); err != nil {
		s.log.Error("clearing history failed", zap.Stringer("user_id", user), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Failed to clear search history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) inCatalog(key string) bool {
	if key == "" {
		return false
	}
	return slices.ContainsFunc(s.catalog, func(l model.Listing) bool { return l.Key() == key })
}

func nonNil(ls []model.Listing) []model.Listing {
	if ls == nil {
		return []model.Listing{}
	}
	return ls
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
